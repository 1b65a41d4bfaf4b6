package identifier

import (
	"fmt"
	"strings"
)

// Identifier is a namespaced label for formats, modules, and reportable
// entities. The zero value is the empty identifier.
type Identifier struct {
	namespace Namespace
	value     string
}

// New constructs an identifier. Surrounding whitespace in value is dropped.
func New(ns Namespace, value string) Identifier {
	return Identifier{namespace: ns, value: strings.TrimSpace(value)}
}

// JHOVE2Term builds an identifier in the JHOVE2 namespace under the project
// terms prefix, e.g. JHOVE2Term("module", "sniff").
func JHOVE2Term(parts ...string) Identifier {
	return New(JHOVE2, TermPrefix+strings.Join(parts, "/"))
}

// TermPrefix is the URI prefix for identifiers minted by this project.
const TermPrefix = "http://jhove2.org/terms/"

func (i Identifier) Namespace() Namespace { return i.namespace }

func (i Identifier) Value() string { return i.value }

// IsZero reports whether i is the empty identifier.
func (i Identifier) IsZero() bool {
	return i.namespace == NamespaceUnknown && i.value == ""
}

// Short returns the last path segment of a JHOVE2 term, or the full value.
func (i Identifier) Short() string {
	if i.namespace == JHOVE2 && strings.HasPrefix(i.value, TermPrefix) {
		rest := strings.TrimPrefix(i.value, TermPrefix)
		if idx := strings.LastIndex(rest, "/"); idx >= 0 {
			return rest[idx+1:]
		}
		return rest
	}
	return i.value
}

func (i Identifier) String() string {
	return fmt.Sprintf("[%s] %s", i.namespace, i.value)
}

// Equal reports whether two identifiers are equal under Compare.
func (i Identifier) Equal(other Identifier) bool {
	return Compare(i, other) == 0
}

// Compare orders identifiers by namespace name and then value, both
// case-insensitively.
func Compare(a, b Identifier) int {
	if c := compareFold(a.namespace.String(), b.namespace.String()); c != 0 {
		return c
	}
	return compareFold(a.value, b.value)
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// Key returns a case-folded string usable as a map key consistent with Compare.
func (i Identifier) Key() string {
	return strings.ToLower(i.namespace.String()) + "\x00" + strings.ToLower(i.value)
}

// MarshalText renders the identifier as "[NAMESPACE] value".
func (i Identifier) MarshalText() ([]byte, error) {
	if i.IsZero() {
		return []byte{}, nil
	}
	return []byte(i.String()), nil
}

// UnmarshalText parses the form produced by MarshalText.
func (i *Identifier) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Parse reads an identifier in "[NAMESPACE] value" form. An empty string
// yields the zero identifier.
func Parse(text string) (Identifier, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Identifier{}, nil
	}
	if !strings.HasPrefix(trimmed, "[") {
		return Identifier{}, fmt.Errorf("identifier %q: missing namespace", text)
	}
	end := strings.Index(trimmed, "]")
	if end < 0 {
		return Identifier{}, fmt.Errorf("identifier %q: unterminated namespace", text)
	}
	ns, err := ParseNamespace(trimmed[1:end])
	if err != nil {
		return Identifier{}, err
	}
	return New(ns, trimmed[end+1:]), nil
}
