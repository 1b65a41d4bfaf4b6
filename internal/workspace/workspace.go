// Package workspace provides the per-run scratch directory that backs
// expanded container content.
//
// Each run owns a directory below paths.temp_dir guarded by an exclusive
// file lock. Sweep removes directories left behind by runs that exited
// without cleaning up; a held lock marks a directory as live.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"jhove2/internal/config"
	"jhove2/internal/logging"
)

const lockSuffix = ".lock"

// Workspace is a locked scratch directory for one run.
type Workspace struct {
	dir     string
	prefix  string
	keep    bool
	lock    *flock.Flock
	logger  *slog.Logger
	mu      sync.Mutex
	created []string
	closed  bool
}

// Open creates and locks the scratch directory for runID.
func Open(cfg *config.Config, runID string, logger *slog.Logger) (*Workspace, error) {
	if cfg == nil {
		return nil, errors.New("workspace requires config")
	}
	if strings.TrimSpace(runID) == "" {
		return nil, errors.New("workspace requires a run id")
	}
	logger = logging.NewComponentLogger(logger, "workspace")

	root := cfg.Paths.TempDir
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	dir := filepath.Join(root, cfg.Temp.Prefix+runID)
	lock := flock.New(dir + lockSuffix)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire workspace lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("workspace %s is in use", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	logger.Debug("workspace opened", logging.String("dir", dir))
	return &Workspace{
		dir:    dir,
		prefix: cfg.Temp.Prefix,
		keep:   !cfg.Temp.DeleteTempFiles,
		lock:   lock,
		logger: logger,
	}, nil
}

// Dir returns the scratch directory.
func (w *Workspace) Dir() string { return w.dir }

// CreateTemp creates a new file in the scratch directory. The pattern
// follows os.CreateTemp.
func (w *Workspace) CreateTemp(pattern string) (*os.File, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, errors.New("workspace closed")
	}
	f, err := os.CreateTemp(w.dir, w.prefix+pattern)
	if err != nil {
		return nil, err
	}
	w.created = append(w.created, f.Name())
	return f, nil
}

// Files returns the paths created so far.
func (w *Workspace) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.created...)
}

// Close removes the scratch directory unless temp files are kept, then
// releases the lock. Close is idempotent.
func (w *Workspace) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	if w.keep {
		w.logger.Info("keeping temp files",
			logging.String("dir", w.dir),
			logging.Int("files", len(w.created)),
		)
	} else if err := os.RemoveAll(w.dir); err != nil {
		errs = append(errs, fmt.Errorf("remove workspace: %w", err))
	}
	if err := w.lock.Unlock(); err != nil {
		errs = append(errs, fmt.Errorf("release workspace lock: %w", err))
	}
	if !w.keep {
		if err := os.Remove(w.dir + lockSuffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove workspace lock: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Sweep removes abandoned run directories below the configured temp dir
// and returns how many it removed. Directories whose lock is held are
// left alone, and nothing is removed while temp files are kept.
func Sweep(cfg *config.Config, logger *slog.Logger) (int, error) {
	if !cfg.Temp.DeleteTempFiles {
		return 0, nil
	}
	logger = logging.NewComponentLogger(logger, "workspace")
	root := cfg.Paths.TempDir
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read temp dir: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || !strings.HasPrefix(name, cfg.Temp.Prefix) {
			continue
		}
		dir := filepath.Join(root, name)
		lock := flock.New(dir + lockSuffix)
		ok, err := lock.TryLock()
		if err != nil {
			logger.Warn("workspace lock check failed",
				logging.String("dir", dir),
				logging.Error(err),
			)
			continue
		}
		if !ok {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("remove abandoned workspace failed",
				logging.String("dir", dir),
				logging.Error(err),
			)
		} else {
			removed++
			logger.Debug("removed abandoned workspace", logging.String("dir", dir))
		}
		_ = lock.Unlock()
		_ = os.Remove(dir + lockSuffix)
	}
	return removed, nil
}
