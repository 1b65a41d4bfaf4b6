package reporter_test

import (
	"testing"

	"jhove2/internal/identifier"
	"jhove2/internal/message"
	"jhove2/internal/reporter"
)

type identifyingParser struct {
	reporter.Identifies
	reporter.Parses
	*reporter.Reporter
}

type plain struct {
	*reporter.Reporter
}

type nested struct {
	identifyingParser
	reporter.Digests
}

func TestCapabilitiesFollowConcreteType(t *testing.T) {
	for i := 0; i < 3; i++ {
		p := &identifyingParser{}
		p.Reporter = reporter.New(p, identifier.JHOVE2Term("module", "ip"))
		_ = reporter.New(&plain{}, identifier.JHOVE2Term("module", "plain"))

		caps := p.Capabilities()
		if !caps.Has(reporter.Identification) || !caps.Has(reporter.Parsing) {
			t.Fatalf("expected identification and parsing, got %s", caps)
		}
		if caps.Has(reporter.Validation) || caps.Has(reporter.Assessment) {
			t.Fatalf("unexpected capabilities %s", caps)
		}
	}
	if caps := reporter.CapabilitiesOf(&plain{}); !caps.IsEmpty() {
		t.Fatalf("expected no capabilities, got %s", caps)
	}
	got := reporter.CapabilitiesOf(nested{})
	want := reporter.NewCapabilitySet(reporter.Identification, reporter.Parsing, reporter.MessageDigesting)
	if got != want {
		t.Fatalf("expected promoted markers %s, got %s", want, got)
	}
	if got.String() != "{Identification, Parsing, MessageDigesting}" {
		t.Fatalf("unexpected string %q", got.String())
	}
}

func TestFailFast(t *testing.T) {
	for n := 0; n < 100; n++ {
		if reporter.FailFast(0, n) {
			t.Fatalf("limit 0 must be unlimited, failed at %d", n)
		}
	}
	for _, limit := range []int{1, 3, 10} {
		for n := 0; n < 20; n++ {
			if got, want := reporter.FailFast(limit, n), n > limit; got != want {
				t.Fatalf("FailFast(%d, %d) = %v, want %v", limit, n, got, want)
			}
		}
	}
}

func TestReporterMessagesAndReset(t *testing.T) {
	r := reporter.New(&plain{}, identifier.JHOVE2Term("module", "plain"))
	errMsg := message.Message{Severity: message.Error, Context: message.Process, Code: "x", Text: "boom"}
	r.AddMessage(errMsg)
	r.AddMessage(errMsg)
	r.AddMessages([]message.Message{{Severity: message.Info, Code: "y", Text: "note"}, errMsg})
	if r.NumMessages() != 2 || r.NumErrorMessages() != 1 {
		t.Fatalf("unexpected counts %d/%d", r.NumMessages(), r.NumErrorMessages())
	}
	r.Reset()
	if r.NumMessages() != 0 || r.NumErrorMessages() != 0 {
		t.Fatal("expected reset to clear messages")
	}
	if r.ID().Short() != "plain" {
		t.Fatalf("reset must not change identity, got %s", r.ID())
	}
}
