package format

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"jhove2/internal/identifier"
)

// Confidence ranks a presumptive identification. Lower ranks are more
// authoritative.
type Confidence int

const (
	Validated        Confidence = 1
	PositiveSpecific Confidence = 2
	PositiveGeneric  Confidence = 3
	Heuristic        Confidence = 4
	Tentative        Confidence = 5
	Negative         Confidence = 6
)

func (c Confidence) String() string {
	switch c {
	case Validated:
		return "Validated"
	case PositiveSpecific:
		return "PositiveSpecific"
	case PositiveGeneric:
		return "PositiveGeneric"
	case Heuristic:
		return "Heuristic"
	case Tentative:
		return "Tentative"
	case Negative:
		return "Negative"
	default:
		return fmt.Sprintf("Confidence(%d)", int(c))
	}
}

func (c Confidence) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Confidence) UnmarshalText(text []byte) error {
	parsed, err := ParseConfidence(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseConfidence accepts the String form case-insensitively.
func ParseConfidence(value string) (Confidence, error) {
	for c := Validated; c <= Negative; c++ {
		if strings.EqualFold(c.String(), strings.TrimSpace(value)) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown confidence %q", value)
}

// Positive reports whether c asserts the format rather than guessing at it.
func (c Confidence) Positive() bool {
	return c >= Validated && c <= PositiveGeneric
}

// Identification is a presumptive format match produced by an identifying
// component.
type Identification struct {
	Component  identifier.Identifier `json:"component" yaml:"component" cbor:"component"`
	Confidence Confidence            `json:"confidence" yaml:"confidence" cbor:"confidence"`
	Format     Format                `json:"format" yaml:"format" cbor:"format"`
}

// Compare orders by ascending confidence rank, then format name
// case-insensitively. Format id and component break the remaining ties so
// the order is total.
func Compare(a, b Identification) int {
	if c := cmp.Compare(a.Confidence, b.Confidence); c != 0 {
		return c
	}
	if c := strings.Compare(strings.ToLower(a.Format.Name), strings.ToLower(b.Format.Name)); c != 0 {
		return c
	}
	if c := identifier.Compare(a.Format.ID, b.Format.ID); c != 0 {
		return c
	}
	return identifier.Compare(a.Component, b.Component)
}

// Sort orders identifications in place, most authoritative first.
func Sort(ids []Identification) {
	slices.SortFunc(ids, Compare)
}

// Best returns the most authoritative identification.
func Best(ids []Identification) (Identification, bool) {
	if len(ids) == 0 {
		return Identification{}, false
	}
	return slices.MinFunc(ids, Compare), true
}

// IdentificationSet keeps identifications ordered and free of duplicates.
type IdentificationSet struct {
	items []Identification
}

// Add inserts id and reports whether it was new.
func (s *IdentificationSet) Add(id Identification) bool {
	idx, found := slices.BinarySearchFunc(s.items, id, Compare)
	if found {
		return false
	}
	s.items = slices.Insert(s.items, idx, id)
	return true
}

func (s *IdentificationSet) Len() int { return len(s.items) }

// List returns the identifications, most authoritative first.
func (s *IdentificationSet) List() []Identification {
	return slices.Clone(s.items)
}

// Best returns the first identification in order.
func (s *IdentificationSet) Best() (Identification, bool) {
	if len(s.items) == 0 {
		return Identification{}, false
	}
	return s.items[0], true
}
