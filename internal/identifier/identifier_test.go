package identifier_test

import (
	"slices"
	"testing"

	"jhove2/internal/identifier"
)

func TestCompareIsCaseInsensitive(t *testing.T) {
	a := identifier.New(identifier.MIME, "image/PNG")
	b := identifier.New(identifier.MIME, "image/png")
	if identifier.Compare(a, b) != 0 {
		t.Fatalf("expected %s and %s to compare equal", a, b)
	}
	if !a.Equal(b) {
		t.Fatal("expected Equal to follow Compare")
	}
	if a.Key() != b.Key() {
		t.Fatalf("expected identical keys, got %q and %q", a.Key(), b.Key())
	}
}

func TestCompareOrdersNamespaceByName(t *testing.T) {
	ids := []identifier.Identifier{
		identifier.New(identifier.URN, "a"),
		identifier.New(identifier.JHOVE2, "z"),
		identifier.New(identifier.MIME, "b"),
		identifier.New(identifier.JHOVE2, "A"),
	}
	slices.SortFunc(ids, identifier.Compare)
	want := []string{"[JHOVE2] A", "[JHOVE2] z", "[MIME] b", "[URN] a"}
	for i, id := range ids {
		if id.String() != want[i] {
			t.Fatalf("position %d: got %s want %s", i, id, want[i])
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	id := identifier.JHOVE2Term("format", "png")
	text, err := id.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	var parsed identifier.Identifier
	if err := parsed.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if !parsed.Equal(id) {
		t.Fatalf("round trip mismatch: %s vs %s", parsed, id)
	}
	if parsed.Short() != "png" {
		t.Fatalf("unexpected short form %q", parsed.Short())
	}
}

func TestParseRejectsUnknownNamespace(t *testing.T) {
	if _, err := identifier.Parse("[NOPE] x"); err == nil {
		t.Fatal("expected error for unknown namespace")
	}
	if _, err := identifier.Parse("no-namespace"); err == nil {
		t.Fatal("expected error for missing namespace")
	}
	id, err := identifier.Parse("  ")
	if err != nil || !id.IsZero() {
		t.Fatalf("expected zero identifier, got %v %v", id, err)
	}
}

func TestParseNamespaceFold(t *testing.T) {
	ns, err := identifier.ParseNamespace("puid")
	if err != nil || ns != identifier.PUID {
		t.Fatalf("unexpected namespace %v %v", ns, err)
	}
	if len(identifier.Namespaces()) < 35 {
		t.Fatalf("expected a full namespace table, got %d", len(identifier.Namespaces()))
	}
}
