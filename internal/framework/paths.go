package framework

import (
	"context"
	"errors"
	"io/fs"

	"jhove2/internal/logging"
	"jhove2/internal/message"
	"jhove2/internal/source"
)

// CharacterizePaths builds a source tree for paths and characterizes its
// root. Symbolic links are never followed; each one skipped is recorded as
// an Info message on the directory that held it. Entries below the given
// paths that cannot be read are recorded as Error messages instead of
// failing the run.
func (f *Framework) CharacterizePaths(ctx context.Context, paths []string) (source.Source, error) {
	tree := source.NewTree()
	var reportErr error
	opts := f.fsys
	opts.SkipHidden = f.settings.SkipHidden
	opts.OnSkip = func(parent source.Source, path string, reason source.SkipReason, err error) {
		attrs := []logging.Attr{
			logging.String("path", path),
			logging.String("reason", reason.String()),
		}
		if err != nil {
			logging.WarnWithContext(f.logger, "path unreadable", "path_unreadable", append(attrs, logging.Error(err))...)
		} else {
			f.logger.Debug("path skipped", logging.Args(append(attrs, logging.String(logging.FieldEventType, "path_skipped"))...)...)
		}
		if !parent.Valid() || reportErr != nil {
			return
		}
		switch reason {
		case source.SkipSymlink:
			reportErr = f.Report(parent, message.Info, message.Process, "source.symlinkSkipped", path)
		case source.SkipUnreadable:
			reportErr = f.Report(parent, message.Error, message.Process, "source.unreadable", path, readFailure(err))
		}
	}
	root, err := source.Build(tree, paths, opts)
	if err != nil {
		return source.Source{}, err
	}
	if reportErr != nil {
		return root, reportErr
	}
	return f.Characterize(ctx, root, nil)
}

// readFailure drops the path that fs errors repeat.
func readFailure(err error) string {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err.Error()
	}
	return err.Error()
}
