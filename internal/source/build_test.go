package source_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"jhove2/internal/fault"
	"jhove2/internal/source"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuildDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.txt"), "bb")
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "sub", "c.txt"), "ccc")
	writeFile(t, filepath.Join(dir, ".hidden"), "h")
	if err := os.Symlink(filepath.Join(dir, "a.txt"), filepath.Join(dir, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	type skipped struct {
		Parent string
		Path   string
		Reason string
	}
	var skips []skipped
	tree := source.NewTree()
	root, err := source.Build(tree, []string{dir}, source.BuildOptions{
		SkipHidden: true,
		OnSkip: func(parent source.Source, path string, reason source.SkipReason, _ error) {
			skips = append(skips, skipped{parent.Name(), filepath.Base(path), reason.String()})
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if root.Kind() != source.Directory {
		t.Fatalf("expected directory, got %s", root.Kind())
	}

	var got []string
	tree.Walk(root, func(s source.Source, depth int) bool {
		if s.ID() != root.ID() {
			rel, _ := filepath.Rel(dir, s.Name())
			got = append(got, s.Kind().String()+":"+rel)
		}
		return true
	})
	want := []string{"File:a.txt", "File:b.txt", "Directory:sub", "File:sub/c.txt"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
	wantSkips := []skipped{{dir, ".hidden", "hidden"}, {dir, "link", "symlink"}}
	if diff := cmp.Diff(wantSkips, skips); diff != "" {
		t.Fatalf("skips mismatch (-want +got):\n%s", diff)
	}
	if root.Children()[1].Size() != 2 {
		t.Fatalf("expected size 2, got %d", root.Children()[1].Size())
	}
}

func TestBuildMultiplePathsMakesFileSet(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	writeFile(t, a, "a")
	writeFile(t, b, "b")

	tree := source.NewTree()
	root, err := source.Build(tree, []string{a, b}, source.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if root.Kind() != source.FileSet || root.NumChildren() != 2 {
		t.Fatalf("expected fileset with 2 children, got %s with %d", root.Kind(), root.NumChildren())
	}
}

func TestBuildMissingPath(t *testing.T) {
	if _, err := source.Build(source.NewTree(), []string{filepath.Join(t.TempDir(), "missing")}, source.BuildOptions{}); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func denyNamed(name string, fn func(string) (fs.FileInfo, error)) func(string) (fs.FileInfo, error) {
	return func(path string) (fs.FileInfo, error) {
		if filepath.Base(path) == name {
			return nil, &fs.PathError{Op: "lstat", Path: path, Err: fs.ErrPermission}
		}
		return fn(path)
	}
}

func TestBuildSkipsUnreadableEntries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "b.txt"), "b")
	writeFile(t, filepath.Join(dir, "locked", "d.txt"), "d")
	writeFile(t, filepath.Join(dir, "sub", "c.txt"), "c")

	type skipped struct {
		Parent string
		Path   string
		Reason string
	}
	var skips []skipped
	var causes []error
	tree := source.NewTree()
	root, err := source.Build(tree, []string{dir}, source.BuildOptions{
		Lstat: denyNamed("b.txt", os.Lstat),
		ReadDir: func(path string) ([]fs.DirEntry, error) {
			if filepath.Base(path) == "locked" {
				return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrPermission}
			}
			return os.ReadDir(path)
		},
		OnSkip: func(parent source.Source, path string, reason source.SkipReason, err error) {
			rel, _ := filepath.Rel(dir, parent.Name())
			skips = append(skips, skipped{rel, filepath.Base(path), reason.String()})
			causes = append(causes, err)
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var got []string
	tree.Walk(root, func(s source.Source, depth int) bool {
		if s.ID() != root.ID() {
			rel, _ := filepath.Rel(dir, s.Name())
			got = append(got, s.Kind().String()+":"+rel)
		}
		return true
	})
	want := []string{"File:a.txt", "Directory:locked", "Directory:sub", "File:sub/c.txt"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
	wantSkips := []skipped{{".", "b.txt", "unreadable"}, {"locked", "locked", "unreadable"}}
	if diff := cmp.Diff(wantSkips, skips); diff != "" {
		t.Fatalf("skips mismatch (-want +got):\n%s", diff)
	}
	for _, cause := range causes {
		if !errors.Is(cause, fs.ErrPermission) {
			t.Fatalf("expected permission error, got %v", cause)
		}
	}
}

func TestBuildUnreadableTopLevelPathFails(t *testing.T) {
	dir := t.TempDir()
	_, err := source.Build(source.NewTree(), []string{dir}, source.BuildOptions{
		ReadDir: func(path string) ([]fs.DirEntry, error) {
			return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrPermission}
		},
	})
	if !errors.Is(err, fault.ErrIO) || !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("expected wrapped I/O error, got %v", err)
	}

	file := filepath.Join(dir, "x")
	writeFile(t, file, "x")
	_, err = source.Build(source.NewTree(), []string{file, dir}, source.BuildOptions{Lstat: denyNamed("x", os.Lstat)})
	if !errors.Is(err, fault.ErrIO) {
		t.Fatalf("expected I/O error for listed path, got %v", err)
	}
}
