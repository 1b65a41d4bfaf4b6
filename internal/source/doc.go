// Package source models the characterization tree.
//
// A Tree owns every node created during a run. Callers hold Source values,
// which are small handles pairing a tree with a node ID; parent links are
// IDs as well, so moving a child between parents is an index update and a
// handle can never dangle. Ownership of children is exclusive: AddChild
// detaches a child from its previous parent before attaching it.
//
// Build turns filesystem paths into File, Directory, and FileSet sources.
package source
