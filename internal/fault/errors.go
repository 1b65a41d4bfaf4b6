package fault

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrIO            = errors.New("i/o failure")
	ErrEndOfInput    = errors.New("end of input")
	ErrConfiguration = errors.New("configuration error")
	ErrInvariant     = errors.New("invariant violation")
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker. The marker should be one of the exported sentinel
// errors above; nil defaults to ErrIO.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Recoverable reports whether err describes a problem with the input being
// characterized rather than with the run itself.
func Recoverable(err error) bool {
	return errors.Is(err, ErrIO) || errors.Is(err, ErrEndOfInput)
}

// Kind returns a short classification label for logs and reports.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEndOfInput):
		return "end_of_input"
	case errors.Is(err, ErrIO):
		return "io"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrInvariant):
		return "invariant"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "unknown"
	}
}

// TypeName returns the dynamic type of the innermost wrapped error, used as a
// message argument when a failure is reported on a source.
func TypeName(err error) string {
	if err == nil {
		return ""
	}
	for {
		switch wrapped := err.(type) {
		case interface{ Unwrap() []error }:
			errs := wrapped.Unwrap()
			if len(errs) == 0 {
				return fmt.Sprintf("%T", err)
			}
			err = errs[len(errs)-1]
		case interface{ Unwrap() error }:
			next := wrapped.Unwrap()
			if next == nil {
				return fmt.Sprintf("%T", err)
			}
			err = next
		default:
			return fmt.Sprintf("%T", err)
		}
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "characterization failure"
	}
	return strings.Join(parts, ": ")
}
