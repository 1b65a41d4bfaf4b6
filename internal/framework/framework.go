package framework

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"jhove2/internal/aggrefier"
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

// ID identifies the framework module.
var ID = identifier.JHOVE2Term("module", "framework")

var info = module.Info{
	Name:        "JHOVE2",
	Version:     "2.1.0",
	ReleaseDate: "2026-10-01",
	Rights:      "BSD-3-Clause",
	Developers:  []module.Agent{{Name: "jhove2 maintainers"}},
	Note:        "Characterization framework",
}

// Observer receives characterization events for metrics.
type Observer interface {
	aggrefier.Observer
	SourceCharacterized(src source.Source, elapsed time.Duration)
	ModuleFinished(name string, elapsed time.Duration)
}

// Options configure a Framework.
type Options struct {
	Settings Settings
	// Resolver supplies message texts; message.DefaultCatalog when nil.
	Resolver message.Resolver
	Logger   *slog.Logger
	Observer Observer
	// TempFiles backs expanded container content.
	TempFiles TempFiles
	// Registry resolves format names; format.DefaultRegistry when nil.
	Registry *format.Registry
	// Filesystem supplies Lstat and ReadDir to CharacterizePaths. Its
	// SkipHidden and OnSkip fields are ignored.
	Filesystem source.BuildOptions
}

// Framework orchestrates characterization. It owns the registered modules
// and the aggrefier, and is itself a module so run-level messages have an
// owner.
type Framework struct {
	*module.Module

	settings  Settings
	resolver  message.Resolver
	logger    *slog.Logger
	observer  Observer
	tempFiles TempFiles
	registry  *format.Registry
	fsys      source.BuildOptions
	aggrefier *aggrefier.Aggrefier

	modules     []module.Carrier
	identifiers []Identifier
	parsers     []Parser
	validators  []Validator
	expanders   []Expander
	digesters   []Digester
	assessors   []Assessor
}

// New builds a framework with no modules registered.
func New(opts Options) (*Framework, error) {
	settings := opts.Settings
	if settings.FailFastLimit < 0 {
		return nil, fault.Wrap(fault.ErrConfiguration, "framework", "new", "fail-fast limit must be non-negative", nil)
	}
	if settings.MaxAggrefierRounds <= 0 {
		settings.MaxAggrefierRounds = aggrefier.DefaultMaxRounds
	}
	if settings.MaxContainerDepth <= 0 {
		settings.MaxContainerDepth = DefaultMaxContainerDepth
	}
	if settings.Locale == "" {
		settings.Locale = "en"
	}
	resolver := opts.Resolver
	if resolver == nil {
		catalog, err := message.DefaultCatalog()
		if err != nil {
			return nil, err
		}
		resolver = catalog
	}
	registry := opts.Registry
	if registry == nil {
		registry = format.DefaultRegistry()
	}
	f := &Framework{
		settings:  settings,
		resolver:  resolver,
		logger:    logging.NewComponentLogger(opts.Logger, "framework"),
		observer:  opts.Observer,
		tempFiles: opts.TempFiles,
		registry:  registry,
		fsys:      source.BuildOptions{Lstat: opts.Filesystem.Lstat, ReadDir: opts.Filesystem.ReadDir},
	}
	f.Module = module.New(f, ID, info)
	aggOpts := aggrefier.Options{
		MaxRounds:     settings.MaxAggrefierRounds,
		FailFastLimit: settings.FailFastLimit,
		Resolver:      resolver,
		Locale:        settings.Locale,
		Logger:        opts.Logger,
	}
	if opts.Observer != nil {
		aggOpts.Observer = opts.Observer
	}
	f.aggrefier = aggrefier.New(aggOpts)
	return f, nil
}

func (f *Framework) Settings() Settings { return f.settings }

func (f *Framework) Aggrefier() *aggrefier.Aggrefier { return f.aggrefier }

func (f *Framework) Registry() *format.Registry { return f.registry }

func (f *Framework) Logger() *slog.Logger { return f.logger }

// TempFiles returns the scratch file provider, or nil when none was given.
func (f *Framework) TempFiles() TempFiles { return f.tempFiles }

// Register adds m to the framework. The capabilities m declares must match
// the operation contracts it implements exactly; a mismatch is recorded as
// an Error on the framework and returned as a configuration error.
func (f *Framework) Register(m module.Carrier) error {
	base := m.Base()
	if slices.ContainsFunc(f.modules, func(x module.Carrier) bool { return x.Base().ID().Equal(base.ID()) }) {
		return fault.Wrap(fault.ErrInvariant, "framework", "register",
			fmt.Sprintf("module %s is already registered", base.ID()), nil)
	}
	if err := base.Info().Validate(); err != nil {
		return fault.Wrap(fault.ErrConfiguration, "framework", "register", "invalid module metadata", err)
	}
	declared := base.Capabilities()
	provided := contractCapabilities(m)
	if declared != provided {
		var mismatch reporter.Capability
		for _, c := range []reporter.Capability{reporter.Identification, reporter.Parsing,
			reporter.Validation, reporter.MessageDigesting, reporter.Assessment} {
			if declared.Has(c) != provided.Has(c) {
				mismatch = c
				break
			}
		}
		msg, err := f.Message(message.Error, message.Process, "framework.capabilityMismatch", base.Name(), mismatch)
		if err != nil {
			return err
		}
		f.AddMessage(msg)
		return fault.Wrap(fault.ErrConfiguration, "framework", "register",
			fmt.Sprintf("module %s declares %s but implements %s", base.Name(), declared, provided), nil)
	}
	if provided.IsEmpty() {
		return fault.Wrap(fault.ErrConfiguration, "framework", "register",
			fmt.Sprintf("module %s implements no operation", base.Name()), nil)
	}

	f.modules = append(f.modules, m)
	if v, ok := m.(Identifier); ok {
		f.identifiers = append(f.identifiers, v)
	}
	if v, ok := m.(Parser); ok {
		f.parsers = append(f.parsers, v)
	}
	if v, ok := m.(Expander); ok {
		f.expanders = append(f.expanders, v)
	}
	if v, ok := m.(Validator); ok {
		f.validators = append(f.validators, v)
	}
	if v, ok := m.(Digester); ok {
		f.digesters = append(f.digesters, v)
	}
	if v, ok := m.(Assessor); ok {
		f.assessors = append(f.assessors, v)
	}
	f.logger.Debug("module registered",
		logging.String(logging.FieldModule, base.Name()),
		logging.String("capabilities", provided.String()),
		logging.String(logging.FieldEventType, "module_registered"),
	)
	return nil
}

// Modules returns every module taking part in characterization in
// registration order: registered modules, then the aggrefier and its
// recognizers.
func (f *Framework) Modules() []module.Carrier {
	out := slices.Clone(f.modules)
	out = append(out, f.aggrefier)
	for _, r := range f.aggrefier.Recognizers() {
		out = append(out, r)
	}
	return out
}

// Message builds a message with text resolved in the configured locale.
// A resolver failure is fatal for the run.
func (f *Framework) Message(severity message.Severity, context message.Context, code string, args ...any) (message.Message, error) {
	return message.New(f.resolver, severity, context, code, f.settings.Locale, args...)
}

// Report builds a message and records it on src.
func (f *Framework) Report(src source.Source, severity message.Severity, context message.Context, code string, args ...any) error {
	m, err := f.Message(severity, context, code, args...)
	if err != nil {
		return err
	}
	src.AddMessage(m)
	return nil
}

// failFast reports whether src has exceeded the error budget.
func (f *Framework) failFast(src source.Source) bool {
	return reporter.FailFast(f.settings.FailFastLimit, src.NumErrorMessages())
}

// Characterize runs identification, format dispatch, child
// characterization, clump discovery, digesting, and assessment on src, in
// that order. It is re-entrant: the aggrefier calls it for every clump it
// forms. A source already characterized is returned untouched.
//
// When in is nil and src has content, an input is opened for the call and
// closed afterwards. Once src exceeds the fail-fast limit the remaining
// units are skipped and one Info message records it. Cancellation is
// checked between units.
func (f *Framework) Characterize(ctx context.Context, src source.Source, in *input.Input) (source.Source, error) {
	if src.Characterized() {
		return src, nil
	}
	ctx = logging.WithSource(ctx, src.Name())
	logger := logging.WithContext(ctx, f.logger)
	started := time.Now()
	logger.Debug("characterize started",
		logging.String("kind", src.Kind().String()),
		logging.String(logging.FieldEventType, "characterize_start"),
	)

	if in == nil && src.HasContent() {
		opened, err := src.Input(f.settings.Input, binary.BigEndian)
		if err != nil {
			if !fault.Recoverable(err) {
				return src, err
			}
			if rerr := f.Report(src, message.Error, message.Process, "framework.inputUnavailable", err.Error()); rerr != nil {
				return src, rerr
			}
		} else {
			in = opened
			defer opened.Close()
		}
	}

	err := f.run(ctx, src, in, logger)
	src.MarkCharacterized()
	elapsed := time.Since(started)
	if f.observer != nil {
		f.observer.SourceCharacterized(src, elapsed)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if rerr := f.Report(src, message.Info, message.Process, "framework.characterizationCanceled"); rerr != nil {
				return src, rerr
			}
		}
		return src, err
	}
	logger.Debug("characterize completed",
		logging.Duration("elapsed", elapsed),
		logging.Int("messages", src.NumMessages()),
		logging.Int("errors", src.NumErrorMessages()),
		logging.String(logging.FieldEventType, "characterize_complete"),
	)
	return src, nil
}

type unit struct {
	name string
	run  func(context.Context, source.Source, *input.Input, *slog.Logger) error
}

func (f *Framework) run(ctx context.Context, src source.Source, in *input.Input, logger *slog.Logger) error {
	units := []unit{
		{"identify", f.identify},
		{"dispatch", f.dispatch},
		{"children", f.characterizeChildren},
		{"aggrefy", f.aggrefy},
		{"digest", f.digest},
		{"assess", f.assess},
	}
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.failFast(src) {
			return f.stopFailFast(src, u.name, logger)
		}
		if err := u.run(ctx, src, in, logger); err != nil {
			if errors.Is(err, errFailFast) {
				return f.stopFailFast(src, u.name, logger)
			}
			return err
		}
	}
	return nil
}

var errFailFast = errors.New("fail-fast limit exceeded")

func (f *Framework) stopFailFast(src source.Source, unit string, logger *slog.Logger) error {
	logging.WarnWithContext(logger, "fail-fast limit exceeded; remaining work skipped", "fail_fast",
		logging.Int("errors", src.NumErrorMessages()),
		logging.Int("limit", f.settings.FailFastLimit),
		logging.String("skipped_from", unit),
		logging.String(logging.FieldImpact, "source is only partially characterized"),
	)
	return f.Report(src, message.Info, message.Process, "framework.failFastExceeded", f.settings.FailFastLimit)
}

// invoke brackets one module call with its timer and converts recoverable
// failures into an Error message on src. It returns errFailFast when src
// is over budget afterwards.
func (f *Framework) invoke(ctx context.Context, src source.Source, m module.Carrier, in *input.Input, call func(context.Context) error) error {
	base := m.Base()
	if in != nil {
		if err := in.SetPosition(0); err != nil {
			return err
		}
	}
	src.AddModule(base.ID())
	ctx = logging.WithModule(ctx, base.Name())
	base.Timer().Start()
	err := call(ctx)
	elapsed := base.Timer().Stop()
	if f.observer != nil {
		f.observer.ModuleFinished(base.Name(), elapsed)
	}
	if err != nil {
		if !fault.Recoverable(err) {
			return fmt.Errorf("module %s: %w", base.Name(), err)
		}
		logging.WithContext(ctx, f.logger).Debug("module failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "module_failed"),
		)
		if rerr := f.Report(src, message.Error, message.Process, "framework.moduleFailed",
			base.Name(), fault.TypeName(err), err.Error()); rerr != nil {
			return rerr
		}
	}
	if f.failFast(src) {
		return errFailFast
	}
	return nil
}

func (f *Framework) identify(ctx context.Context, src source.Source, in *input.Input, _ *slog.Logger) error {
	for _, m := range f.identifiers {
		err := f.invoke(ctx, src, m, in, func(ctx context.Context) error {
			ids, err := m.Identify(ctx, f, src, in)
			for _, id := range ids {
				src.AddFormatIdentification(id)
			}
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *Framework) dispatch(ctx context.Context, src source.Source, in *input.Input, logger *slog.Logger) error {
	best, ok := src.BestIdentification()
	if !ok || best.Confidence == format.Negative {
		return nil
	}
	logger.Debug("dispatching",
		logging.String("format", best.Format.Name),
		logging.String("confidence", best.Confidence.String()),
		logging.String(logging.FieldEventType, "dispatch"),
	)
	if in != nil {
		for _, p := range f.parsers {
			if !handles(p.Formats(), best.Format) {
				continue
			}
			if err := f.invoke(ctx, src, p, in, func(ctx context.Context) error {
				_, err := p.Parse(ctx, f, src, in)
				return err
			}); err != nil {
				return err
			}
		}
		for _, v := range f.validators {
			if !handles(v.Formats(), best.Format) {
				continue
			}
			if err := f.invoke(ctx, src, v, in, func(ctx context.Context) error {
				validity, err := v.Validate(ctx, f, src, in)
				if err == nil {
					src.SetValidity(source.ValidityResult{Module: v.Base().ID(), Format: best.Format.ID, Validity: validity})
				}
				return err
			}); err != nil {
				return err
			}
		}
	}
	for _, e := range f.expanders {
		if !handles(e.Formats(), best.Format) {
			continue
		}
		if depth := containerDepth(src); depth >= f.settings.MaxContainerDepth {
			logger.Warn("container depth exceeded",
				logging.Int("depth", depth),
				logging.String("format", best.Format.Name),
				logging.String(logging.FieldEventType, "container_depth_exceeded"),
			)
			return f.Report(src, message.Error, message.Object, "framework.containerDepthExceeded", depth)
		}
		if err := f.invoke(ctx, src, e, in, func(ctx context.Context) error {
			children, err := e.Expand(ctx, f, src, in)
			for _, child := range children {
				if _, aerr := src.AddChild(child); aerr != nil {
					return aerr
				}
			}
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

// containerDepth counts the expanded streams from src up to the root.
func containerDepth(src source.Source) int {
	depth := 0
	for s, ok := src, true; ok; s, ok = s.Parent() {
		if s.Kind() == source.Bytestream {
			depth++
		}
	}
	return depth
}

// characterizeChildren characterizes every child depth-first in order.
// Children of a simple source come from expanders.
func (f *Framework) characterizeChildren(ctx context.Context, src source.Source, _ *input.Input, _ *slog.Logger) error {
	for _, child := range src.Children() {
		if child.Characterized() {
			continue
		}
		if _, err := f.Characterize(ctx, child, nil); err != nil {
			return err
		}
	}
	return nil
}

func (f *Framework) aggrefy(ctx context.Context, src source.Source, _ *input.Input, logger *slog.Logger) error {
	if !src.IsAggregate() || len(f.aggrefier.Recognizers()) == 0 {
		return nil
	}
	src.AddModule(f.aggrefier.ID())
	result, err := f.aggrefier.Identify(ctx, f, src)
	if err != nil {
		return err
	}
	if len(result.Clumps) > 0 || !result.Converged {
		logger.Info("clump discovery finished",
			logging.Int("rounds", result.Rounds),
			logging.Int("clumps", len(result.Clumps)),
			logging.Int("rejected", result.Rejected),
			logging.Bool("converged", result.Converged),
			logging.String(logging.FieldEventType, "aggrefier_complete"),
		)
	}
	if result.FailFast {
		return errFailFast
	}
	return nil
}

func (f *Framework) digest(ctx context.Context, src source.Source, in *input.Input, _ *slog.Logger) error {
	if !f.settings.CalculateDigests || in == nil {
		return nil
	}
	for _, d := range f.digesters {
		if err := f.invoke(ctx, src, d, in, func(ctx context.Context) error {
			digests, err := d.Digest(ctx, f, src, in)
			for _, dg := range digests {
				src.SetDigest(dg)
			}
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

func (f *Framework) assess(ctx context.Context, src source.Source, _ *input.Input, _ *slog.Logger) error {
	for _, a := range f.assessors {
		if err := f.invoke(ctx, src, a, nil, func(ctx context.Context) error {
			return a.Assess(ctx, f, src)
		}); err != nil {
			return err
		}
	}
	return nil
}
