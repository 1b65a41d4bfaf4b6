package fault_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"jhove2/internal/fault"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := fault.Wrap(fault.ErrIO, "png", "read chunk", "short read", base)
	if !errors.Is(err, fault.ErrIO) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"png", "read chunk", "short read"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := fault.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, fault.ErrIO) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "characterization failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestRecoverable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{fault.Wrap(fault.ErrIO, "x", "", "", nil), true},
		{fault.Wrap(fault.ErrEndOfInput, "x", "", "", io.ErrUnexpectedEOF), true},
		{fault.Wrap(fault.ErrConfiguration, "x", "", "", nil), false},
		{errors.New("plain"), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := fault.Recoverable(tc.err); got != tc.want {
			t.Fatalf("Recoverable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestKindAndTypeName(t *testing.T) {
	err := fault.Wrap(fault.ErrEndOfInput, "input", "read", "", io.ErrUnexpectedEOF)
	if kind := fault.Kind(err); kind != "end_of_input" {
		t.Fatalf("unexpected kind %q", kind)
	}
	if kind := fault.Kind(errors.New("x")); kind != "unknown" {
		t.Fatalf("unexpected kind %q", kind)
	}
	if name := fault.TypeName(err); name != "*errors.errorString" {
		t.Fatalf("unexpected type name %q", name)
	}
}
