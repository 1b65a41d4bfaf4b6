package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the structured logging key for characterization run identifiers.
	FieldRunID = "run_id"
	// FieldSource is the structured logging key for the source being characterized.
	FieldSource = "source"
	// FieldModule is the structured logging key for the module doing the work.
	FieldModule = "module"
	// FieldEventType is the structured logging key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldErrorHint suggests a next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
)

type contextKey int

const (
	runIDKey contextKey = iota
	sourceKey
	moduleKey
)

// WithRunID stamps ctx with a run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	return withValue(ctx, runIDKey, id)
}

// WithSource stamps ctx with the name of the source under characterization.
func WithSource(ctx context.Context, name string) context.Context {
	return withValue(ctx, sourceKey, name)
}

// WithModule stamps ctx with the name of the active module.
func WithModule(ctx context.Context, name string) context.Context {
	return withValue(ctx, moduleKey, name)
}

// RunIDFromContext returns the run identifier stamped on ctx.
func RunIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, runIDKey)
}

// SourceFromContext returns the source name stamped on ctx.
func SourceFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, sourceKey)
}

// ModuleFromContext returns the module name stamped on ctx.
func ModuleFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, moduleKey)
}

func withValue(ctx context.Context, key contextKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(key).(string)
	return value, ok && value != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if name, ok := SourceFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSource, name))
	}
	if name, ok := ModuleFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldModule, name))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
