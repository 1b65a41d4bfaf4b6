package format_test

import (
	"testing"

	"jhove2/internal/format"
	"jhove2/internal/identifier"
)

func ident(conf format.Confidence, name string) format.Identification {
	return format.Identification{
		Component:  identifier.JHOVE2Term("module", "test"),
		Confidence: conf,
		Format:     format.New(name, name),
	}
}

func TestSortOrdersByConfidenceThenName(t *testing.T) {
	ids := []format.Identification{
		ident(format.Tentative, "Zed"),
		ident(format.Validated, "Apple"),
		ident(format.PositiveGeneric, "Mid"),
	}
	format.Sort(ids)
	want := []string{"Validated/Apple", "PositiveGeneric/Mid", "Tentative/Zed"}
	for i, id := range ids {
		got := id.Confidence.String() + "/" + id.Format.Name
		if got != want[i] {
			t.Fatalf("position %d: got %s want %s", i, got, want[i])
		}
	}
}

func TestTiesBreakOnFormatNameCaseInsensitively(t *testing.T) {
	ids := []format.Identification{
		ident(format.Heuristic, "beta"),
		ident(format.Heuristic, "Alpha"),
	}
	best, ok := format.Best(ids)
	if !ok || best.Format.Name != "Alpha" {
		t.Fatalf("expected Alpha, got %+v", best)
	}
}

func TestIdentificationSetDeduplicates(t *testing.T) {
	var set format.IdentificationSet
	if !set.Add(ident(format.PositiveSpecific, "PNG")) {
		t.Fatal("expected insert")
	}
	if set.Add(ident(format.PositiveSpecific, "PNG")) {
		t.Fatal("expected duplicate to be ignored")
	}
	set.Add(ident(format.Tentative, "PNG"))
	if set.Len() != 2 {
		t.Fatalf("expected 2 identifications, got %d", set.Len())
	}
	best, _ := set.Best()
	if best.Confidence != format.PositiveSpecific {
		t.Fatalf("unexpected best %v", best.Confidence)
	}
	if _, ok := (&format.IdentificationSet{}).Best(); ok {
		t.Fatal("expected no best for empty set")
	}
}

func TestParseConfidence(t *testing.T) {
	c, err := format.ParseConfidence("positivespecific")
	if err != nil || c != format.PositiveSpecific {
		t.Fatalf("unexpected %v %v", c, err)
	}
	if !format.PositiveGeneric.Positive() || format.Heuristic.Positive() {
		t.Fatal("unexpected Positive classification")
	}
}

func TestRegistryLookupByAlias(t *testing.T) {
	reg := format.DefaultRegistry()
	f, ok := reg.Lookup(identifier.New(identifier.MIME, "IMAGE/PNG"))
	if !ok || f.Name != "PNG" {
		t.Fatalf("expected PNG by MIME alias, got %+v %v", f, ok)
	}
	if _, ok := reg.ByName("zstd"); !ok {
		t.Fatal("expected lookup by short name")
	}
	puid, ok := format.PNG.Alias(identifier.PUID)
	if !ok || puid.Value() != "fmt/12" {
		t.Fatalf("unexpected PUID alias %v", puid)
	}
}
