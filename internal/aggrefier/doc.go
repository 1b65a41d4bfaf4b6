// Package aggrefier discovers clumps: groups of sibling sources that
// together form one instance of a multi-file format, such as the .shp,
// .shx, and .dbf files of an ESRI Shapefile.
//
// An Aggrefier runs its recognizers over an aggregate source in rounds.
// Each round collects candidates from every recognizer, then applies them
// by moving the claimed children into a new Clump source and characterizing
// that clump. Discovery stops when a round yields no candidates or the
// configured round bound is reached.
//
// GlobRecognizer is the bundled recognizer; its rules are JSONC documents.
package aggrefier
