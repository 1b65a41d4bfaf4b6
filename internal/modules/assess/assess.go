// Package assess turns the accumulated findings on a source into summary
// messages.
package assess

import (
	"context"

	"jhove2/internal/framework"
	"jhove2/internal/identifier"
	"jhove2/internal/message"
	"jhove2/internal/module"
	"jhove2/internal/reporter"
	"jhove2/internal/source"
)

// ID identifies the assessment module.
var ID = identifier.JHOVE2Term("module", "assessor")

// Assessor flags unidentified and invalid content and summarizes clumps.
type Assessor struct {
	*module.Module
	reporter.Assesses
}

// New returns an Assessor.
func New() *Assessor {
	a := &Assessor{}
	a.Module = module.New(a, ID, module.Info{
		Name:        "Assessor",
		Version:     "1.0.0",
		ReleaseDate: "2026-10-01",
		Rights:      "BSD-3-Clause",
		Developers:  []module.Agent{{Name: "jhove2 maintainers"}},
	})
	return a
}

func (a *Assessor) Assess(_ context.Context, fw *framework.Framework, src source.Source) error {
	best, identified := src.BestIdentification()
	if src.HasContent() && (!identified || !best.Confidence.Positive()) {
		if err := fw.Report(src, message.Warning, message.Object, "assess.unidentified"); err != nil {
			return err
		}
	}
	for _, r := range src.ValidityResults() {
		if r.Validity != source.Invalid {
			continue
		}
		name := r.Format.Short()
		if f, ok := fw.Registry().Lookup(r.Format); ok {
			name = f.Name
		}
		if err := fw.Report(src, message.Warning, message.Object, "assess.invalid", name); err != nil {
			return err
		}
	}
	if src.Kind() == source.Clump && identified {
		if err := fw.Report(src, message.Info, message.Process, "assess.clumpSummary", src.NumChildren(), best.Format.Name); err != nil {
			return err
		}
	}
	if n := src.NumErrorMessages(); n > 0 {
		return fw.Report(src, message.Info, message.Process, "assess.hasErrors", n)
	}
	return nil
}
