package source

import (
	"jhove2/internal/format"
	"jhove2/internal/identifier"
	"jhove2/internal/message"
)

// ID is a handle to a node in a Tree. The zero ID is never assigned.
type ID int32

// NoID marks an absent parent.
const NoID ID = 0

// Validity is the outcome a validating module reached for a source.
type Validity int

const (
	Undetermined Validity = iota
	Valid
	Invalid
)

func (v Validity) String() string {
	switch v {
	case Valid:
		return "true"
	case Invalid:
		return "false"
	default:
		return "undetermined"
	}
}

func (v Validity) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// Digest is a message digest computed over a source's bytes.
type Digest struct {
	Algorithm string `json:"algorithm" yaml:"algorithm" cbor:"algorithm"`
	Value     string `json:"value" yaml:"value" cbor:"value"`
}

// ValidityResult records one module's validity verdict.
type ValidityResult struct {
	Module   identifier.Identifier `json:"module" yaml:"module" cbor:"module"`
	Format   identifier.Identifier `json:"format" yaml:"format" cbor:"format"`
	Validity Validity              `json:"validity" yaml:"validity" cbor:"validity"`
}

type node struct {
	kind            Kind
	name            string
	backing         string
	offset          int64
	size            int64
	parent          ID
	children        []ID
	modules         []identifier.Identifier
	messages        message.Set
	identifications format.IdentificationSet
	digests         []Digest
	validity        []ValidityResult
	characterized   bool
}

// Tree owns every source node created during a run. Nodes are addressed by
// ID; parent links are IDs, so reparenting never leaves a dangling pointer.
// A Tree is not safe for concurrent mutation.
type Tree struct {
	nodes []*node
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	// Slot 0 backs NoID.
	return &Tree{nodes: []*node{nil}}
}

// Len returns the number of nodes ever created in the tree.
func (t *Tree) Len() int { return len(t.nodes) - 1 }

// Source returns the handle for id.
func (t *Tree) Source(id ID) (Source, bool) {
	if id <= NoID || int(id) >= len(t.nodes) {
		return Source{}, false
	}
	return Source{tree: t, id: id}, true
}

func (t *Tree) add(n *node) Source {
	t.nodes = append(t.nodes, n)
	return Source{tree: t, id: ID(len(t.nodes) - 1)}
}

// NewFile creates a detached File source for path.
func (t *Tree) NewFile(path string, size int64) Source {
	return t.add(&node{kind: File, name: path, backing: path, size: size})
}

// NewDirectory creates a detached Directory source for path.
func (t *Tree) NewDirectory(path string) Source {
	return t.add(&node{kind: Directory, name: path})
}

// NewFileSet creates a detached FileSet grouping arbitrary sources.
func (t *Tree) NewFileSet(name string) Source {
	return t.add(&node{kind: FileSet, name: name})
}

// NewClump creates a detached Clump source.
func (t *Tree) NewClump(name string) Source {
	return t.add(&node{kind: Clump, name: name})
}

// NewContainer creates a detached Container over a byte range of backing.
func (t *Tree) NewContainer(name, backing string, offset, size int64) Source {
	return t.add(&node{kind: Container, name: name, backing: backing, offset: offset, size: size})
}

// NewBytestream creates a detached Bytestream over a byte range of backing.
func (t *Tree) NewBytestream(name, backing string, offset, size int64) Source {
	return t.add(&node{kind: Bytestream, name: name, backing: backing, offset: offset, size: size})
}

// Walk visits root and its descendants depth-first in child order. Returning
// false from fn stops the walk.
func (t *Tree) Walk(root Source, fn func(Source, int) bool) {
	var visit func(Source, int) bool
	visit = func(s Source, depth int) bool {
		if !fn(s, depth) {
			return false
		}
		for _, child := range s.Children() {
			if !visit(child, depth+1) {
				return false
			}
		}
		return true
	}
	visit(root, 0)
}
