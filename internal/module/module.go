package module

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"jhove2/internal/identifier"
	"jhove2/internal/reporter"
)

// Agent is a person or organization credited with developing a module.
type Agent struct {
	Name         string `json:"name" yaml:"name" cbor:"name"`
	Organization string `json:"organization,omitempty" yaml:"organization,omitempty" cbor:"organization,omitempty"`
	Email        string `json:"email,omitempty" yaml:"email,omitempty" cbor:"email,omitempty"`
}

// Info is the descriptive metadata every module carries.
type Info struct {
	Name        string  `json:"name" yaml:"name" cbor:"name"`
	Version     string  `json:"version" yaml:"version" cbor:"version"`
	ReleaseDate string  `json:"release_date" yaml:"release_date" cbor:"release_date"`
	Rights      string  `json:"rights" yaml:"rights" cbor:"rights"`
	Developers  []Agent `json:"developers,omitempty" yaml:"developers,omitempty" cbor:"developers,omitempty"`
	Note        string  `json:"note,omitempty" yaml:"note,omitempty" cbor:"note,omitempty"`
}

var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Validate checks the version and release date shapes.
func (i Info) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return errors.New("module name must be set")
	}
	if !versionPattern.MatchString(i.Version) {
		return fmt.Errorf("module %s: version %q is not M.N.P", i.Name, i.Version)
	}
	if _, err := time.Parse(time.DateOnly, i.ReleaseDate); err != nil {
		return fmt.Errorf("module %s: release date %q is not ISO-8601: %w", i.Name, i.ReleaseDate, err)
	}
	return nil
}

// Module is a Reporter with descriptive metadata and elapsed-time
// bookkeeping. Concrete modules embed *Module.
type Module struct {
	*reporter.Reporter
	info  Info
	timer *Timer
}

// New builds the module base for owner, the concrete value embedding it.
func New(owner any, id identifier.Identifier, info Info) *Module {
	return &Module{
		Reporter: reporter.New(owner, id),
		info:     info,
		timer:    NewTimer(),
	}
}

// Base returns m; it lets any type embedding *Module satisfy Carrier.
func (m *Module) Base() *Module { return m }

func (m *Module) Info() Info { return m.info }

func (m *Module) Name() string { return m.info.Name }

func (m *Module) Timer() *Timer { return m.timer }

// SetClock replaces the timer clock; intended for tests.
func (m *Module) SetClock(now func() time.Time) {
	m.timer = NewTimerWithClock(now)
}

// Carrier is implemented by every concrete module.
type Carrier interface {
	Base() *Module
}
