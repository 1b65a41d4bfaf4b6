package framework

import (
	"context"
	"os"

	"jhove2/internal/format"
	"jhove2/internal/input"
	"jhove2/internal/module"
	"jhove2/internal/reporter"
	"jhove2/internal/source"
)

// Identifier proposes format identifications for a source. in is nil for
// sources without byte content and for content that could not be opened.
type Identifier interface {
	module.Carrier
	Identify(ctx context.Context, fw *Framework, src source.Source, in *input.Input) ([]format.Identification, error)
}

// Parser decodes a source whose best identification is one of Formats and
// returns the number of bytes consumed. Structural problems are reported
// as messages on src; returned errors wrap fault.ErrEndOfInput or
// fault.ErrIO.
type Parser interface {
	module.Carrier
	Formats() []format.Format
	Parse(ctx context.Context, fw *Framework, src source.Source, in *input.Input) (int64, error)
}

// Validator judges conformance of a source whose best identification is one
// of Formats.
type Validator interface {
	module.Carrier
	Formats() []format.Format
	Validate(ctx context.Context, fw *Framework, src source.Source, in *input.Input) (source.Validity, error)
}

// Expander unpacks a container source into detached child sources, which
// the framework attaches and characterizes.
type Expander interface {
	module.Carrier
	Formats() []format.Format
	Expand(ctx context.Context, fw *Framework, src source.Source, in *input.Input) ([]source.Source, error)
}

// Digester computes message digests over a source's bytes.
type Digester interface {
	module.Carrier
	Digest(ctx context.Context, fw *Framework, src source.Source, in *input.Input) ([]source.Digest, error)
}

// Assessor evaluates the accumulated findings of a source.
type Assessor interface {
	module.Carrier
	Assess(ctx context.Context, fw *Framework, src source.Source) error
}

// TempFiles creates scratch files for expanded container content.
type TempFiles interface {
	CreateTemp(pattern string) (*os.File, error)
}

// contractCapabilities lists the capabilities a module's operation
// contracts provide.
func contractCapabilities(m module.Carrier) reporter.CapabilitySet {
	var caps []reporter.Capability
	if _, ok := m.(Identifier); ok {
		caps = append(caps, reporter.Identification)
	}
	if _, ok := m.(Parser); ok {
		caps = append(caps, reporter.Parsing)
	}
	if _, ok := m.(Expander); ok {
		caps = append(caps, reporter.Parsing)
	}
	if _, ok := m.(Validator); ok {
		caps = append(caps, reporter.Validation)
	}
	if _, ok := m.(Digester); ok {
		caps = append(caps, reporter.MessageDigesting)
	}
	if _, ok := m.(Assessor); ok {
		caps = append(caps, reporter.Assessment)
	}
	return reporter.NewCapabilitySet(caps...)
}

func handles(formats []format.Format, f format.Format) bool {
	for _, candidate := range formats {
		if candidate.ID.Equal(f.ID) {
			return true
		}
	}
	return false
}
