// Package logging assembles the structured slog loggers used by the
// characterization engine and the command line.
//
// It owns the console and JSON handlers, level and output plumbing, and
// context helpers that stamp log lines with the run ID, the source under
// characterization, and the module doing the work. NewNop gives tests and
// optional wiring a logger that cannot fail.
package logging
