package aggrefier

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"jhove2/internal/fault"
	"jhove2/internal/format"
	"jhove2/internal/identifier"
	"jhove2/internal/input"
	"jhove2/internal/logging"
	"jhove2/internal/message"
	"jhove2/internal/module"
	"jhove2/internal/reporter"
	"jhove2/internal/source"
)

// DefaultMaxRounds bounds clump discovery when Options.MaxRounds is unset.
const DefaultMaxRounds = 64

// ID identifies the aggrefier module.
var ID = identifier.JHOVE2Term("module", "aggrefier")

var info = module.Info{
	Name:        "Aggrefier",
	Version:     "1.0.0",
	ReleaseDate: "2026-10-01",
	Rights:      "BSD-3-Clause",
	Developers:  []module.Agent{{Name: "jhove2 maintainers"}},
}

// Characterizer is the framework entry point the aggrefier calls back into
// for every clump it forms.
type Characterizer interface {
	Characterize(ctx context.Context, src source.Source, in *input.Input) (source.Source, error)
}

// Observer receives clump discovery events. Implementations must be cheap.
type Observer interface {
	RecognizerFinished(name string, elapsed time.Duration)
	RoundCompleted(candidates int)
	ClumpFormed(f format.Format)
}

// Options configure an Aggrefier.
type Options struct {
	// MaxRounds bounds the identify/apply loop for one source.
	MaxRounds int
	// FailFastLimit is checked against the source's error count after
	// every round. Zero means unlimited.
	FailFastLimit int
	Resolver      message.Resolver
	Locale        string
	Logger        *slog.Logger
	Observer      Observer
}

// Aggrefier owns an ordered list of recognizers and drives clump discovery
// over aggregate sources until no recognizer proposes anything new.
type Aggrefier struct {
	*module.Module
	reporter.Identifies

	recognizers []Recognizer
	opts        Options
	logger      *slog.Logger
}

// New returns an aggrefier with no recognizers.
func New(opts Options) *Aggrefier {
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = DefaultMaxRounds
	}
	a := &Aggrefier{opts: opts, logger: logging.NewComponentLogger(opts.Logger, "aggrefier")}
	a.Module = module.New(a, ID, info)
	return a
}

// Add appends r to the recognizer list. A recognizer may belong to one
// aggrefier at a time and ids must be unique within the list.
func (a *Aggrefier) Add(r Recognizer) error {
	id := r.Base().ID()
	if owner := r.Aggrefier(); !owner.IsZero() {
		return fault.Wrap(fault.ErrInvariant, "aggrefier", "add recognizer",
			fmt.Sprintf("%s already belongs to %s", id, owner), nil)
	}
	if _, ok := a.Recognizer(id); ok {
		return fault.Wrap(fault.ErrInvariant, "aggrefier", "add recognizer",
			fmt.Sprintf("%s is already registered", id), nil)
	}
	r.setAggrefier(a.ID())
	a.recognizers = append(a.recognizers, r)
	return nil
}

// Remove drops the recognizer with id, keeping the order of the others.
func (a *Aggrefier) Remove(id identifier.Identifier) (Recognizer, bool) {
	idx := slices.IndexFunc(a.recognizers, func(r Recognizer) bool { return r.Base().ID().Equal(id) })
	if idx < 0 {
		return nil, false
	}
	r := a.recognizers[idx]
	a.recognizers = slices.Delete(a.recognizers, idx, idx+1)
	r.setAggrefier(identifier.Identifier{})
	return r, true
}

// Recognizer looks up a registered recognizer by id.
func (a *Aggrefier) Recognizer(id identifier.Identifier) (Recognizer, bool) {
	for _, r := range a.recognizers {
		if r.Base().ID().Equal(id) {
			return r, true
		}
	}
	return nil, false
}

// Recognizers returns the recognizers in list order.
func (a *Aggrefier) Recognizers() []Recognizer {
	return slices.Clone(a.recognizers)
}

// MaxRounds returns the configured round bound.
func (a *Aggrefier) MaxRounds() int { return a.opts.MaxRounds }

// Result summarizes clump discovery over one source.
type Result struct {
	// Rounds counts identify rounds, including the final empty one.
	Rounds int
	// Clumps lists the clumps formed, in application order.
	Clumps []source.Source
	// Rejected counts candidates dropped because a member had moved.
	Rejected int
	// Converged is false when the round bound or fail-fast stopped the loop.
	Converged bool
	// FailFast is true when the source exceeded the fail-fast limit.
	FailFast bool
}

type proposal struct {
	Candidate
	from Recognizer
}

// Identify runs clump discovery on s. Each round asks every recognizer in
// order for candidates, then applies the deduplicated candidates: a new
// Clump is inserted where its first member sat, the members move into it,
// and the clump is characterized through c. Rounds repeat until one yields
// no candidates.
//
// Candidates are applied in recognizer order, then in the order each
// recognizer returned them. When candidates overlap, the first applied
// wins; a later candidate with a member that is no longer a direct child of
// s is rejected with a Warning on s.
//
// Recoverable input failures from a recognizer become an Error message on s
// and count as no candidates. Any other error stops discovery and is
// returned.
func (a *Aggrefier) Identify(ctx context.Context, c Characterizer, s source.Source) (Result, error) {
	var result Result
	if !s.IsAggregate() {
		result.Converged = true
		return result, nil
	}
	logger := logging.WithContext(logging.WithSource(ctx, s.Name()), a.logger)

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if result.Rounds >= a.opts.MaxRounds {
			if err := a.report(s, message.Error, "aggrefier.maxRoundsExceeded", a.opts.MaxRounds); err != nil {
				return result, err
			}
			logging.WarnWithContext(logger, "clump discovery did not converge", "aggrefier_round_limit",
				logging.Int("rounds", result.Rounds),
				logging.String(logging.FieldImpact, "some clumps may be missing from the report"),
			)
			return result, nil
		}

		proposals, err := a.identifyRound(ctx, s)
		if err != nil {
			return result, err
		}
		result.Rounds++
		if a.opts.Observer != nil {
			a.opts.Observer.RoundCompleted(len(proposals))
		}
		logger.Debug("aggrefier round",
			logging.Int("round", result.Rounds),
			logging.Int("candidates", len(proposals)),
			logging.String(logging.FieldEventType, "aggrefier_round"),
		)
		if len(proposals) == 0 {
			result.Converged = true
			return result, nil
		}

		if err := a.applyRound(ctx, c, s, proposals, &result, logger); err != nil {
			return result, err
		}
		if reporter.FailFast(a.opts.FailFastLimit, s.NumErrorMessages()) {
			result.FailFast = true
			return result, nil
		}
	}
}

func (a *Aggrefier) identifyRound(ctx context.Context, s source.Source) ([]proposal, error) {
	var proposals []proposal
	seen := make(map[string]struct{})
	for _, r := range a.recognizers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		base := r.Base()
		base.Timer().Start()
		candidates, err := r.Recognize(ctx, s)
		elapsed := base.Timer().Stop()
		if a.opts.Observer != nil {
			a.opts.Observer.RecognizerFinished(base.Name(), elapsed)
		}
		if err != nil {
			if !fault.Recoverable(err) {
				return nil, fmt.Errorf("recognizer %s: %w", base.Name(), err)
			}
			if merr := a.report(s, message.Error, "aggrefier.recognizerFailed",
				base.Name(), fault.TypeName(err), err.Error()); merr != nil {
				return nil, merr
			}
			continue
		}
		for _, cand := range candidates {
			key := cand.key()
			if _, dup := seen[key]; dup || enclosesClump(s, cand) {
				continue
			}
			seen[key] = struct{}{}
			proposals = append(proposals, proposal{Candidate: cand, from: r})
		}
	}
	return proposals, nil
}

func (a *Aggrefier) applyRound(ctx context.Context, c Characterizer, s source.Source, proposals []proposal, result *Result, logger *slog.Logger) error {
	tree := s.Tree()
	for _, p := range proposals {
		if err := ctx.Err(); err != nil {
			return err
		}
		members, missing := a.claim(tree, s, p.Members)
		if missing != "" {
			result.Rejected++
			if err := a.report(s, message.Warning, "aggrefier.candidateRejected",
				p.Name, p.from.Base().Name(), missing); err != nil {
				return err
			}
			continue
		}

		clump := tree.NewClump(p.Name)
		if _, err := s.InsertChild(s.IndexOf(members[0]), clump); err != nil {
			return err
		}
		for _, m := range members {
			if _, err := clump.AddChild(m); err != nil {
				return err
			}
		}
		component := p.from.Base().ID()
		clump.AddModule(component)
		clump.AddFormatIdentification(format.Identification{
			Component:  component,
			Confidence: p.Confidence,
			Format:     p.Format,
		})
		if err := a.report(clump, message.Info, "aggrefier.clumpFormed", p.Format.Name, len(members)); err != nil {
			return err
		}
		result.Clumps = append(result.Clumps, clump)
		if a.opts.Observer != nil {
			a.opts.Observer.ClumpFormed(p.Format)
		}
		logger.Info("clump formed",
			logging.String("clump", p.Name),
			logging.String("format", p.Format.Name),
			logging.Int("members", len(members)),
			logging.String("recognizer", p.from.Base().Name()),
			logging.String(logging.FieldEventType, "clump_formed"),
		)

		if _, err := c.Characterize(ctx, clump, nil); err != nil {
			return err
		}
	}
	return nil
}

// enclosesClump reports whether cand would wrap every child of the clump s
// in a new clump, which only reproduces s one level down.
func enclosesClump(s source.Source, cand Candidate) bool {
	if s.Kind() != source.Clump || s.NumChildren() == 0 {
		return false
	}
	covered := make(map[source.ID]bool, len(cand.Members))
	for _, id := range cand.Members {
		covered[id] = true
	}
	for _, child := range s.Children() {
		if !covered[child.ID()] {
			return false
		}
	}
	return true
}

// claim resolves member ids to direct children of s in child order. It
// returns the name of the first member that is not a direct child.
func (a *Aggrefier) claim(tree *source.Tree, s source.Source, ids []source.ID) ([]source.Source, string) {
	if len(ids) == 0 {
		return nil, "(none)"
	}
	members := make([]source.Source, 0, len(ids))
	for _, id := range ids {
		m, ok := tree.Source(id)
		if !ok {
			return nil, fmt.Sprintf("#%d", id)
		}
		if !s.HasChild(m) {
			return nil, m.Name()
		}
		if !slices.ContainsFunc(members, func(x source.Source) bool { return x.ID() == id }) {
			members = append(members, m)
		}
	}
	slices.SortFunc(members, func(x, y source.Source) int { return s.IndexOf(x) - s.IndexOf(y) })
	return members, ""
}

func (a *Aggrefier) report(s source.Source, severity message.Severity, code string, args ...any) error {
	m, err := message.New(a.opts.Resolver, severity, message.Process, code, a.opts.Locale, args...)
	if err != nil {
		return err
	}
	s.AddMessage(m)
	return nil
}
