package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"

	"jhove2/internal/fault"
	"jhove2/internal/report"
	"jhove2/internal/store"
	"jhove2/internal/testsupport"
)

func sampleReport(id string, started time.Time) report.Report {
	return report.Report{
		RunID:    id,
		Started:  started,
		Finished: started.Add(2 * time.Second),
		Paths:    []string{"/data/a.png", "/data/b"},
		Summary:  report.Summary{Sources: 3, Clumps: 1, Errors: 1, Warnings: 2, Invalid: 1},
		Root: report.Node{
			Name:     "file set",
			Kind:     "FileSet",
			Validity: "NotEvaluated",
			Children: []report.Node{{
				Name:     "a.png",
				Kind:     "File",
				Size:     120,
				Format:   "PNG",
				Validity: "Invalid",
				Digests:  []report.Digest{{Algorithm: "sha256", Value: "abcd"}},
				Messages: []report.Message{{Severity: "Error", Context: "Object", Code: "png.truncated", Text: "truncated"}},
			}},
		},
		Modules: []report.ModuleReport{{ID: "m", Name: "PNG", Version: "1.0.0", ReleaseDate: "2026-10-01", Elapsed: time.Millisecond}},
	}
}

func TestInsertGetRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts []testsupport.ConfigOption
	}{
		{name: "compressed"},
		{name: "plain", opts: []testsupport.ConfigOption{testsupport.WithoutCompression()}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t, tc.opts...)
			s := testsupport.MustOpenStore(t, cfg)
			ctx := context.Background()

			want := sampleReport("run-1", time.Date(2026, 10, 1, 9, 30, 0, 5, time.UTC))
			if err := s.Insert(ctx, want); err != nil {
				t.Fatalf("Insert: %v", err)
			}
			got, err := s.Get(ctx, "run-1")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("report mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInsertRejectsDuplicateID(t *testing.T) {
	s := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	r := sampleReport("dup", time.Now())
	if err := s.Insert(ctx, r); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Insert(ctx, r); err == nil {
		t.Fatal("expected duplicate id to fail")
	}
}

func TestListNewestFirst(t *testing.T) {
	s := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	// The half-second run sorts between the whole-second runs.
	starts := map[string]time.Time{
		"first":  base,
		"middle": base.Add(500 * time.Millisecond),
		"last":   base.Add(time.Second),
	}
	for id, started := range starts {
		if err := s.Insert(ctx, sampleReport(id, started)); err != nil {
			t.Fatalf("Insert %s: %v", id, err)
		}
	}

	runs, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []string
	for _, run := range runs {
		ids = append(ids, run.ID)
	}
	if diff := cmp.Diff([]string{"last", "middle", "first"}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if got := runs[0]; got.RootName != "file set" || got.Sources != 3 || got.Invalid != 1 || len(got.Paths) != 2 {
		t.Fatalf("unexpected listing %+v", got)
	}
	if !runs[0].Started.Equal(starts["last"]) {
		t.Fatalf("started = %v", runs[0].Started)
	}

	limited, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List limit: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(limited))
	}
}

func TestGetMissingRun(t *testing.T) {
	s := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, fault.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAndClear(t *testing.T) {
	s := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Insert(ctx, sampleReport(id, time.Now())); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	removed, err := s.Delete(ctx, "a")
	if err != nil || !removed {
		t.Fatalf("Delete a = %v, %v", removed, err)
	}
	removed, err = s.Delete(ctx, "a")
	if err != nil || removed {
		t.Fatalf("second Delete a = %v, %v", removed, err)
	}

	n, err := s.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 2 {
		t.Fatalf("cleared %d runs, want 2", n)
	}
	runs, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected empty store, got %d runs", len(runs))
	}
}

func TestReopenKeepsRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Insert(context.Background(), sampleReport("kept", time.Now())); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	if _, err := reopened.Get(context.Background(), "kept"); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
}

func TestSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	s.Close()

	db, err := sql.Open("sqlite", cfg.StorePath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	_, err = store.Open(cfg)
	if !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
