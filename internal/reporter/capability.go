package reporter

import (
	"fmt"
	"strings"
)

// Capability is a processing ability a module can declare.
type Capability int

const (
	Identification Capability = iota
	Parsing
	Validation
	MessageDigesting
	Assessment
)

var capabilityNames = [...]string{
	Identification:   "Identification",
	Parsing:          "Parsing",
	Validation:       "Validation",
	MessageDigesting: "MessageDigesting",
	Assessment:       "Assessment",
}

func (c Capability) String() string {
	if c < 0 || int(c) >= len(capabilityNames) {
		return fmt.Sprintf("Capability(%d)", int(c))
	}
	return capabilityNames[c]
}

func (c Capability) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// CapabilitySet is an immutable set of capabilities.
type CapabilitySet uint8

// NewCapabilitySet builds a set from the given capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	var s CapabilitySet
	for _, c := range caps {
		s |= 1 << uint(c)
	}
	return s
}

func (s CapabilitySet) Has(c Capability) bool { return s&(1<<uint(c)) != 0 }

func (s CapabilitySet) IsEmpty() bool { return s == 0 }

// List returns the members in declaration order.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(capabilityNames))
	for c := Identification; int(c) < len(capabilityNames); c++ {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s CapabilitySet) String() string {
	names := make([]string, 0, len(capabilityNames))
	for _, c := range s.List() {
		names = append(names, c.String())
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// Capability markers. A module type declares a capability by embedding the
// marker; CapabilitiesOf discovers it through the unexported method, so the
// set depends only on the concrete type.
type (
	Identifies struct{}
	Parses     struct{}
	Validates  struct{}
	Digests    struct{}
	Assesses   struct{}
)

func (Identifies) identificationCapability() {}
func (Parses) parsingCapability()            {}
func (Validates) validationCapability()      {}
func (Digests) digestingCapability()         {}
func (Assesses) assessmentCapability()       {}

type (
	identifies interface{ identificationCapability() }
	parses     interface{ parsingCapability() }
	validates  interface{ validationCapability() }
	digests    interface{ digestingCapability() }
	assesses   interface{ assessmentCapability() }
)

// CapabilitiesOf returns the capabilities declared by the concrete type of v.
func CapabilitiesOf(v any) CapabilitySet {
	var s CapabilitySet
	if _, ok := v.(identifies); ok {
		s |= NewCapabilitySet(Identification)
	}
	if _, ok := v.(parses); ok {
		s |= NewCapabilitySet(Parsing)
	}
	if _, ok := v.(validates); ok {
		s |= NewCapabilitySet(Validation)
	}
	if _, ok := v.(digests); ok {
		s |= NewCapabilitySet(MessageDigesting)
	}
	if _, ok := v.(assesses); ok {
		s |= NewCapabilitySet(Assessment)
	}
	return s
}
