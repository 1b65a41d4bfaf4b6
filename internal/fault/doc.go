// Package fault defines the error markers shared by the characterization
// engine and its modules.
//
// Key responsibilities:
//   - Sentinel markers that classify failures as recoverable input problems
//     (I/O, truncated input) or fatal ones (configuration, broken invariants).
//   - The Wrap helper that adds component and operation context while keeping
//     the marker reachable through errors.Is.
//
// The framework consults Recoverable to decide whether a failure becomes an
// Error message on the source being processed or unwinds the whole run.
package fault
