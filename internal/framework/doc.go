// Package framework drives characterization of a source tree.
//
// A Framework owns the registered modules and the aggrefier. Characterize
// runs identification, dispatches to the parsers, validators, and
// expanders registered for the best identified format, characterizes
// children depth-first, discovers clumps among the children of aggregate
// sources, computes digests, and finally runs assessors. The aggrefier
// calls back into Characterize for every clump it forms.
package framework
