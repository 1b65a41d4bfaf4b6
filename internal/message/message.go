package message

import (
	"cmp"
	"fmt"
	"strings"
)

// Severity ranks a message. Error sorts before Warning, Warning before Info.
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "ERROR"
	case Warning:
		return "WARNING"
	case Info:
		return "INFO"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ParseSeverity accepts the String form case-insensitively.
func ParseSeverity(value string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "ERROR":
		return Error, nil
	case "WARNING", "WARN":
		return Warning, nil
	case "INFO":
		return Info, nil
	default:
		return 0, fmt.Errorf("unknown message severity %q", value)
	}
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Context records whether a message describes the characterization process
// or the object being characterized.
type Context int

const (
	Process Context = iota
	Object
)

func (c Context) String() string {
	switch c {
	case Process:
		return "PROCESS"
	case Object:
		return "OBJECT"
	default:
		return fmt.Sprintf("Context(%d)", int(c))
	}
}

func (c Context) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Context) UnmarshalText(text []byte) error {
	switch strings.ToUpper(strings.TrimSpace(string(text))) {
	case "PROCESS":
		*c = Process
	case "OBJECT":
		*c = Object
	default:
		return fmt.Errorf("unknown message context %q", text)
	}
	return nil
}

// Message is an immutable, localized diagnostic. Text is resolved once when
// the message is constructed.
type Message struct {
	Severity Severity `json:"severity" yaml:"severity" cbor:"severity"`
	Context  Context  `json:"context" yaml:"context" cbor:"context"`
	Code     string   `json:"code" yaml:"code" cbor:"code"`
	Text     string   `json:"text" yaml:"text" cbor:"text"`
}

// New resolves the text for code in locale and builds the message. A resolver
// failure is a deployment problem and is returned unchanged for the caller to
// propagate.
func New(r Resolver, severity Severity, context Context, code, locale string, args ...any) (Message, error) {
	if r == nil {
		return Message{}, fmt.Errorf("message %s: resolver unavailable", code)
	}
	text, err := r.Resolve(code, args, locale)
	if err != nil {
		return Message{}, err
	}
	return Message{Severity: severity, Context: context, Code: code, Text: text}, nil
}

// Compare is the natural order of messages: severity, context, code, text.
func Compare(a, b Message) int {
	if c := cmp.Compare(a.Severity, b.Severity); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Context, b.Context); c != 0 {
		return c
	}
	if c := strings.Compare(a.Code, b.Code); c != 0 {
		return c
	}
	return strings.Compare(a.Text, b.Text)
}

func (m Message) String() string {
	return fmt.Sprintf("[%s/%s] %s: %s", m.Severity, m.Context, m.Code, m.Text)
}
