// Package format describes formats and the ranked presumptive identifications
// that identifying modules attach to sources.
//
// Identifications order by confidence (Validated first, Negative last) with
// ties broken by format name, so the best identification of a source and the
// order of report output are reproducible across runs.
package format
