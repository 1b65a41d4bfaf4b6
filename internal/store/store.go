package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"jhove2/internal/config"
	"jhove2/internal/fault"
	"jhove2/internal/report"
)

const (
	encodingCBOR     = "cbor"
	encodingCBORZstd = "cbor+zstd"
)

// timeLayout keeps a fixed width so timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store persists finished runs.
type Store struct {
	db       *sql.DB
	path     string
	compress bool
}

// Run is the listing view of a stored run.
type Run struct {
	ID         string
	Started    time.Time
	Finished   time.Time
	Paths      []string
	RootName   string
	RootFormat string
	Sources    int
	Clumps     int
	Errors     int
	Warnings   int
	Invalid    int
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("store: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("store: zstd decoder initialization failed: " + err.Error())
	}
}

// Open connects to the run database named by cfg, creating it on first
// use.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.StorePath(), cfg.Store.Compress)
}

// OpenPath connects to the run database at path.
func OpenPath(path string, compress bool) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	s := &Store{db: db, path: path, compress: compress}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Insert records a finished run. Run ids are unique.
func (s *Store) Insert(ctx context.Context, r report.Report) error {
	blob, err := report.MarshalCBOR(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	encoding := encodingCBOR
	if s.compress {
		blob = zstdEncoder.EncodeAll(blob, nil)
		encoding = encodingCBORZstd
	}
	paths, err := json.Marshal(r.Paths)
	if err != nil {
		return fmt.Errorf("marshal paths: %w", err)
	}
	_, err = s.execWithRetry(ctx,
		`INSERT INTO runs (
            id, started_at, finished_at, paths_json, root_name, root_format,
            sources, clumps, errors, warnings, invalid, report_encoding, report
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID,
		r.Started.UTC().Format(timeLayout),
		r.Finished.UTC().Format(timeLayout),
		string(paths),
		r.Root.Name,
		nullableString(r.Root.Format),
		r.Summary.Sources,
		r.Summary.Clumps,
		r.Summary.Errors,
		r.Summary.Warnings,
		r.Summary.Invalid,
		encoding,
		blob,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.RunID, err)
	}
	return nil
}

const runColumns = "id, started_at, finished_at, paths_json, root_name, root_format, sources, clumps, errors, warnings, invalid"

// List returns the most recent runs first. A limit of zero returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns the full report of run id. A missing run is reported with
// fault.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (report.Report, error) {
	var (
		encoding string
		blob     []byte
	)
	err := s.db.QueryRowContext(ctx, `SELECT report_encoding, report FROM runs WHERE id = ?`, id).Scan(&encoding, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return report.Report{}, fault.Wrap(fault.ErrNotFound, "store", "get", fmt.Sprintf("run %s", id), nil)
	}
	if err != nil {
		return report.Report{}, fmt.Errorf("get run %s: %w", id, err)
	}
	switch encoding {
	case encodingCBORZstd:
		blob, err = zstdDecoder.DecodeAll(blob, nil)
		if err != nil {
			return report.Report{}, fmt.Errorf("decompress run %s: %w", id, err)
		}
	case encodingCBOR:
	default:
		return report.Report{}, fmt.Errorf("run %s: unknown report encoding %q", id, encoding)
	}
	return report.UnmarshalCBOR(blob)
}

// Delete removes run id and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Clear removes every run and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run         Run
		startedRaw  string
		finishedRaw string
		pathsRaw    string
		rootFormat  sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&startedRaw,
		&finishedRaw,
		&pathsRaw,
		&run.RootName,
		&rootFormat,
		&run.Sources,
		&run.Clumps,
		&run.Errors,
		&run.Warnings,
		&run.Invalid,
	); err != nil {
		return Run{}, err
	}
	run.RootFormat = rootFormat.String
	run.Started = parseTime(startedRaw)
	run.Finished = parseTime(finishedRaw)
	if err := json.Unmarshal([]byte(pathsRaw), &run.Paths); err != nil {
		return Run{}, fmt.Errorf("decode paths of run %s: %w", run.ID, err)
	}
	return run, nil
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
