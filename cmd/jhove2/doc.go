// Command jhove2 characterizes files, directories, and multi-file formats.
//
// "jhove2 characterize" identifies, parses, validates, digests, and
// assesses every source below the given paths, prints the resulting
// report, and records it in the run history. "jhove2 runs" inspects that
// history. Output defaults to tables on a terminal and JSON otherwise.
package main
