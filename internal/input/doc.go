// Package input provides Input, the positioned, byte-order aware reader that
// format modules use to decode the byte range of a source.
//
// Short reads surface as fault.ErrEndOfInput and other read failures as
// fault.ErrIO, so callers can treat both as recoverable per-source problems.
package input
