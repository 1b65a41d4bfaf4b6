package source

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"slices"

	"jhove2/internal/fault"
	"jhove2/internal/format"
	"jhove2/internal/identifier"
	"jhove2/internal/input"
	"jhove2/internal/message"
)

// Source is a handle to a node in a Tree. The zero Source is invalid.
type Source struct {
	tree *Tree
	id   ID
}

func (s Source) node() *node { return s.tree.nodes[s.id] }

// Valid reports whether s refers to a node.
func (s Source) Valid() bool { return s.tree != nil && s.id > NoID }

func (s Source) ID() ID { return s.id }

func (s Source) Tree() *Tree { return s.tree }

func (s Source) Kind() Kind { return s.node().kind }

// Name is the path of a file or directory, or the label of a synthesized
// source.
func (s Source) Name() string { return s.node().name }

// BaseName returns the final path element of Name.
func (s Source) BaseName() string { return filepath.Base(s.node().name) }

// Backing is the path of the file holding the source's bytes, if any.
func (s Source) Backing() string { return s.node().backing }

func (s Source) StartingOffset() int64 { return s.node().offset }

func (s Source) Size() int64 { return s.node().size }

func (s Source) IsAggregate() bool { return s.node().kind.IsAggregate() }

// HasContent reports whether the source has a readable byte range.
func (s Source) HasContent() bool {
	n := s.node()
	return n.kind.HasContent() && n.backing != ""
}

func (s Source) String() string {
	if !s.Valid() {
		return "Source(invalid)"
	}
	return fmt.Sprintf("%s(%s)", s.Kind(), s.Name())
}

// Parent returns the owning source, if any.
func (s Source) Parent() (Source, bool) {
	p := s.node().parent
	if p == NoID {
		return Source{}, false
	}
	return Source{tree: s.tree, id: p}, true
}

// Children returns the owned children in order.
func (s Source) Children() []Source {
	ids := s.node().children
	out := make([]Source, len(ids))
	for i, id := range ids {
		out[i] = Source{tree: s.tree, id: id}
	}
	return out
}

func (s Source) NumChildren() int { return len(s.node().children) }

// HasChild reports whether c is a direct child of s.
func (s Source) HasChild(c Source) bool {
	return c.tree == s.tree && slices.Contains(s.node().children, c.id)
}

// IsAncestorOf reports whether s is c or lies on c's parent chain.
func (s Source) IsAncestorOf(c Source) bool {
	if s.tree != c.tree {
		return false
	}
	for id := c.id; id != NoID; id = s.tree.nodes[id].parent {
		if id == s.id {
			return true
		}
	}
	return false
}

// AddChild appends c to the children of s. If c already has a parent it is
// detached from it first, so a source is owned by exactly one parent.
// Adding s itself, an ancestor of s, or a source from another tree fails
// with fault.ErrInvariant and leaves the tree unchanged.
func (s Source) AddChild(c Source) (Source, error) {
	return s.InsertChild(s.NumChildren(), c)
}

// InsertChild places c at index among the children of s, with the same
// ownership rules as AddChild. An index past the end appends.
func (s Source) InsertChild(index int, c Source) (Source, error) {
	if !c.Valid() || c.tree != s.tree {
		return Source{}, fault.Wrap(fault.ErrInvariant, "source", "add child",
			fmt.Sprintf("%s is not in the same tree as %s", c, s), nil)
	}
	if c.IsAncestorOf(s) {
		return Source{}, fault.Wrap(fault.ErrInvariant, "source", "add child",
			fmt.Sprintf("%s is an ancestor of %s", c, s), nil)
	}
	if old, ok := c.Parent(); ok {
		if old.id == s.id {
			return c, nil
		}
		old.DeleteChild(c)
	}
	n := s.node()
	index = min(max(index, 0), len(n.children))
	n.children = slices.Insert(n.children, index, c.id)
	c.node().parent = s.id
	return c, nil
}

// IndexOf returns the position of c among the children of s, or -1.
func (s Source) IndexOf(c Source) int {
	if c.tree != s.tree {
		return -1
	}
	return slices.Index(s.node().children, c.id)
}

// DeleteChild detaches c from s and returns it. When c is not a direct child
// of s the call is a no-op and reports false.
func (s Source) DeleteChild(c Source) (Source, bool) {
	if c.tree != s.tree {
		return Source{}, false
	}
	n := s.node()
	idx := slices.Index(n.children, c.id)
	if idx < 0 {
		return Source{}, false
	}
	n.children = slices.Delete(n.children, idx, idx+1)
	c.node().parent = NoID
	return c, true
}

// AddModule associates a module with the source. The source does not own the
// module; repeated associations are ignored.
func (s Source) AddModule(id identifier.Identifier) {
	n := s.node()
	if slices.ContainsFunc(n.modules, id.Equal) {
		return
	}
	n.modules = append(n.modules, id)
}

// Modules returns the associated module identifiers in association order.
func (s Source) Modules() []identifier.Identifier {
	return slices.Clone(s.node().modules)
}

// AddMessage records m unless an equal message is present.
func (s Source) AddMessage(m message.Message) bool {
	return s.node().messages.Add(m)
}

// AddMessages records ms in ascending natural order.
func (s Source) AddMessages(ms []message.Message) int {
	return s.node().messages.AddAll(ms)
}

func (s Source) Messages() []message.Message { return s.node().messages.Messages() }

func (s Source) NumMessages() int { return s.node().messages.Len() }

func (s Source) NumErrorMessages() int { return s.node().messages.NumErrors() }

// HasMessage reports whether a message with code is recorded.
func (s Source) HasMessage(code string) bool { return s.node().messages.Contains(code) }

// AddFormatIdentification records id and reports whether it was new.
func (s Source) AddFormatIdentification(id format.Identification) bool {
	return s.node().identifications.Add(id)
}

// FormatIdentifications returns identifications, most authoritative first.
func (s Source) FormatIdentifications() []format.Identification {
	return s.node().identifications.List()
}

// BestIdentification returns the most authoritative identification.
func (s Source) BestIdentification() (format.Identification, bool) {
	return s.node().identifications.Best()
}

// SetDigest records or replaces the digest for an algorithm.
func (s Source) SetDigest(d Digest) {
	n := s.node()
	for i := range n.digests {
		if n.digests[i].Algorithm == d.Algorithm {
			n.digests[i] = d
			return
		}
	}
	n.digests = append(n.digests, d)
}

func (s Source) Digests() []Digest { return slices.Clone(s.node().digests) }

// SetValidity records a module's validity verdict, replacing an earlier
// verdict from the same module.
func (s Source) SetValidity(r ValidityResult) {
	n := s.node()
	for i := range n.validity {
		if n.validity[i].Module.Equal(r.Module) {
			n.validity[i] = r
			return
		}
	}
	n.validity = append(n.validity, r)
}

func (s Source) ValidityResults() []ValidityResult { return slices.Clone(s.node().validity) }

// Validity folds every verdict: Invalid wins, then Valid, else Undetermined.
func (s Source) Validity() Validity {
	out := Undetermined
	for _, r := range s.node().validity {
		switch r.Validity {
		case Invalid:
			return Invalid
		case Valid:
			out = Valid
		}
	}
	return out
}

// Characterized reports whether the framework has finished with the source.
func (s Source) Characterized() bool { return s.node().characterized }

func (s Source) MarkCharacterized() { s.node().characterized = true }

// Input opens the source's byte range.
func (s Source) Input(opts input.Options, order binary.ByteOrder) (*input.Input, error) {
	n := s.node()
	if !s.HasContent() {
		return nil, fault.Wrap(fault.ErrIO, "source", "open input",
			fmt.Sprintf("%s has no byte content", s), nil)
	}
	in, err := input.Open(n.backing, n.offset, n.size, opts)
	if err != nil {
		return nil, err
	}
	in.SetOrder(order)
	return in, nil
}
