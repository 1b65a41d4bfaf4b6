// Package preflight provides readiness checks for the directories and
// configuration files a characterization run depends on.
//
// The CLI "jhove2 preflight" command prints every result. "jhove2
// characterize" runs the same checks first and refuses to start when one
// fails, so a bad rules file surfaces before any source is read.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
