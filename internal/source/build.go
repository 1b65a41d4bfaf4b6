package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"jhove2/internal/fault"
)

// BuildOptions control how filesystem paths become sources.
type BuildOptions struct {
	// SkipHidden omits entries whose names start with a dot.
	SkipHidden bool
	// OnSkip is called for every entry left out of the tree, with the
	// aggregate source that would have owned it. Parent is the zero Source
	// when a single top-level path is skipped. For SkipUnreadable err holds
	// the failure, and a directory whose entries cannot be listed is
	// reported as its own parent.
	OnSkip func(parent Source, path string, reason SkipReason, err error)
	// Lstat and ReadDir replace os.Lstat and os.ReadDir when set.
	Lstat   func(path string) (fs.FileInfo, error)
	ReadDir func(path string) ([]fs.DirEntry, error)
}

func (o BuildOptions) lstat(path string) (fs.FileInfo, error) {
	if o.Lstat != nil {
		return o.Lstat(path)
	}
	return os.Lstat(path)
}

func (o BuildOptions) readDir(path string) ([]fs.DirEntry, error) {
	if o.ReadDir != nil {
		return o.ReadDir(path)
	}
	return os.ReadDir(path)
}

func (o BuildOptions) skip(parent Source, path string, reason SkipReason, err error) {
	if o.OnSkip != nil {
		o.OnSkip(parent, path, reason, err)
	}
}

// SkipReason explains why Build left an entry out.
type SkipReason int

const (
	SkipSymlink SkipReason = iota
	SkipHidden
	SkipSpecial
	SkipUnreadable
)

func (r SkipReason) String() string {
	switch r {
	case SkipSymlink:
		return "symlink"
	case SkipHidden:
		return "hidden"
	case SkipUnreadable:
		return "unreadable"
	default:
		return "special file"
	}
}

// Build creates sources for paths. A single path yields a File or a
// Directory with its contents; several paths yield a FileSet owning one
// source per path. Directory entries are added in name order and symbolic
// links are never followed. Failing to read a path given here is an error;
// below it, unreadable entries are reported through OnSkip and left out.
func Build(tree *Tree, paths []string, opts BuildOptions) (Source, error) {
	if len(paths) == 0 {
		return Source{}, fault.Wrap(fault.ErrConfiguration, "source", "build", "no paths given", nil)
	}
	if len(paths) == 1 {
		src, ok, err := buildPath(tree, Source{}, paths[0], true, opts)
		if err != nil {
			return Source{}, err
		}
		if !ok {
			return Source{}, fault.Wrap(fault.ErrNotFound, "source", "build",
				fmt.Sprintf("%s is not a regular file or directory", paths[0]), nil)
		}
		return src, nil
	}
	set := tree.NewFileSet("fileset")
	for _, path := range paths {
		src, ok, err := buildPath(tree, set, path, true, opts)
		if err != nil {
			return Source{}, err
		}
		if !ok {
			continue
		}
		if _, err := set.AddChild(src); err != nil {
			return Source{}, err
		}
	}
	return set, nil
}

func buildPath(tree *Tree, parent Source, path string, top bool, opts BuildOptions) (Source, bool, error) {
	info, err := opts.lstat(path)
	if err != nil {
		if top {
			return Source{}, false, fault.Wrap(fault.ErrIO, "source", "stat", path, err)
		}
		opts.skip(parent, path, SkipUnreadable, err)
		return Source{}, false, nil
	}
	mode := info.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		opts.skip(parent, path, SkipSymlink, nil)
		return Source{}, false, nil
	case mode.IsRegular():
		return tree.NewFile(path, info.Size()), true, nil
	case mode.IsDir():
		return buildDirectory(tree, path, top, opts)
	default:
		opts.skip(parent, path, SkipSpecial, nil)
		return Source{}, false, nil
	}
}

func buildDirectory(tree *Tree, path string, top bool, opts BuildOptions) (Source, bool, error) {
	entries, err := opts.readDir(path)
	if err != nil && top {
		return Source{}, false, fault.Wrap(fault.ErrIO, "source", "read directory", path, err)
	}
	dir := tree.NewDirectory(path)
	if err != nil {
		opts.skip(dir, path, SkipUnreadable, err)
		return dir, true, nil
	}
	slices.SortFunc(entries, func(a, b fs.DirEntry) int { return strings.Compare(a.Name(), b.Name()) })
	for _, entry := range entries {
		childPath := filepath.Join(path, entry.Name())
		if opts.SkipHidden && strings.HasPrefix(entry.Name(), ".") {
			opts.skip(dir, childPath, SkipHidden, nil)
			continue
		}
		child, ok, err := buildPath(tree, dir, childPath, false, opts)
		if err != nil {
			return Source{}, false, err
		}
		if !ok {
			continue
		}
		if _, err := dir.AddChild(child); err != nil {
			return Source{}, false, err
		}
	}
	return dir, true, nil
}
