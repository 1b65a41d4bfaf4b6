package source_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"jhove2/internal/fault"
	"jhove2/internal/format"
	"jhove2/internal/identifier"
	"jhove2/internal/input"
	"jhove2/internal/message"
	"jhove2/internal/source"
)

func names(srcs []source.Source) []string {
	out := make([]string, len(srcs))
	for i, s := range srcs {
		out[i] = s.Name()
	}
	return out
}

func TestAddChildReparentsExclusively(t *testing.T) {
	tree := source.NewTree()
	parent := tree.NewDirectory("parent")
	other := tree.NewDirectory("other")
	child := tree.NewFile("child", 3)

	if _, err := parent.AddChild(child); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	if _, err := other.AddChild(child); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	if parent.HasChild(child) {
		t.Fatal("child still owned by previous parent")
	}
	if !other.HasChild(child) {
		t.Fatal("child missing from new parent")
	}
	got, ok := child.Parent()
	if !ok || got.ID() != other.ID() {
		t.Fatalf("expected parent %v, got %v", other, got)
	}
}

func TestAddChildSameParentIsNoop(t *testing.T) {
	tree := source.NewTree()
	dir := tree.NewDirectory("dir")
	a := tree.NewFile("a", 0)
	b := tree.NewFile("b", 0)
	for _, c := range []source.Source{a, b, a} {
		if _, err := dir.AddChild(c); err != nil {
			t.Fatalf("AddChild: %v", err)
		}
	}
	if diff := cmp.Diff([]string{"a", "b"}, names(dir.Children())); diff != "" {
		t.Fatalf("children mismatch (-want +got):\n%s", diff)
	}
}

func TestAddChildRejectsCycles(t *testing.T) {
	tree := source.NewTree()
	root := tree.NewDirectory("root")
	mid := tree.NewDirectory("mid")
	leaf := tree.NewDirectory("leaf")
	if _, err := root.AddChild(mid); err != nil {
		t.Fatal(err)
	}
	if _, err := mid.AddChild(leaf); err != nil {
		t.Fatal(err)
	}

	if _, err := leaf.AddChild(root); !errors.Is(err, fault.ErrInvariant) {
		t.Fatalf("expected invariant error for ancestor, got %v", err)
	}
	if _, err := mid.AddChild(mid); !errors.Is(err, fault.ErrInvariant) {
		t.Fatalf("expected invariant error for self, got %v", err)
	}
	if _, ok := root.Parent(); ok {
		t.Fatal("rejected add must leave the tree unchanged")
	}
	if diff := cmp.Diff([]string{"leaf"}, names(mid.Children())); diff != "" {
		t.Fatalf("children mismatch (-want +got):\n%s", diff)
	}
}

func TestAddChildRejectsOtherTree(t *testing.T) {
	a := source.NewTree().NewDirectory("a")
	b := source.NewTree().NewFile("b", 0)
	if _, err := a.AddChild(b); !errors.Is(err, fault.ErrInvariant) {
		t.Fatalf("expected invariant error, got %v", err)
	}
}

func TestDeleteChildOfNonChildIsNoop(t *testing.T) {
	tree := source.NewTree()
	dir := tree.NewDirectory("dir")
	stray := tree.NewFile("stray", 0)
	if _, ok := dir.DeleteChild(stray); ok {
		t.Fatal("expected false for non-child")
	}
	kept := tree.NewFile("kept", 0)
	if _, err := dir.AddChild(kept); err != nil {
		t.Fatal(err)
	}
	got, ok := dir.DeleteChild(kept)
	if !ok || got.ID() != kept.ID() {
		t.Fatal("expected child to be returned")
	}
	if _, ok := kept.Parent(); ok {
		t.Fatal("deleted child still has a parent")
	}
}

func TestInsertChildPlacesAtIndex(t *testing.T) {
	tree := source.NewTree()
	dir := tree.NewDirectory("dir")
	for _, n := range []string{"a", "b", "c"} {
		if _, err := dir.AddChild(tree.NewFile(n, 0)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := dir.InsertChild(1, tree.NewClump("x")); err != nil {
		t.Fatal(err)
	}
	if _, err := dir.InsertChild(99, tree.NewClump("y")); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "x", "b", "c", "y"}, names(dir.Children())); diff != "" {
		t.Fatalf("children mismatch (-want +got):\n%s", diff)
	}
}

func TestMessagesAndIdentificationsDeduplicate(t *testing.T) {
	tree := source.NewTree()
	src := tree.NewFile("f", 1)
	m := message.Message{Severity: message.Error, Context: message.Object, Code: "x", Text: "x"}
	src.AddMessage(m)
	src.AddMessage(m)
	if src.NumMessages() != 1 || src.NumErrorMessages() != 1 {
		t.Fatalf("unexpected counts %d/%d", src.NumMessages(), src.NumErrorMessages())
	}

	sniff := identifier.JHOVE2Term("module", "sniff")
	id := format.Identification{Component: sniff, Confidence: format.PositiveSpecific, Format: format.PNG}
	if !src.AddFormatIdentification(id) || src.AddFormatIdentification(id) {
		t.Fatal("expected only the first identification to be added")
	}
	tentative := format.Identification{Component: sniff, Confidence: format.Tentative, Format: format.GIF}
	src.AddFormatIdentification(tentative)
	best, ok := src.BestIdentification()
	if !ok || best.Format.Name != "PNG" {
		t.Fatalf("unexpected best identification %+v", best)
	}

	src.AddModule(sniff)
	src.AddModule(sniff)
	if len(src.Modules()) != 1 {
		t.Fatalf("expected one module, got %d", len(src.Modules()))
	}
}

func TestValidityFold(t *testing.T) {
	tree := source.NewTree()
	src := tree.NewFile("f", 1)
	if src.Validity() != source.Undetermined {
		t.Fatal("expected undetermined without verdicts")
	}
	a := identifier.JHOVE2Term("module", "a")
	b := identifier.JHOVE2Term("module", "b")
	src.SetValidity(source.ValidityResult{Module: a, Validity: source.Valid})
	if src.Validity() != source.Valid {
		t.Fatal("expected valid")
	}
	src.SetValidity(source.ValidityResult{Module: b, Validity: source.Invalid})
	if src.Validity() != source.Invalid {
		t.Fatal("expected invalid to dominate")
	}
	src.SetValidity(source.ValidityResult{Module: b, Validity: source.Valid})
	if src.Validity() != source.Valid || len(src.ValidityResults()) != 2 {
		t.Fatal("expected verdict replacement per module")
	}
}

func TestInputReadsByteRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, []byte("0123456789"), 0o644); err != nil {
		t.Fatal(err)
	}
	tree := source.NewTree()
	bs := tree.NewBytestream("slice", path, 2, 4)
	in, err := bs.Input(input.Options{}, nil)
	if err != nil {
		t.Fatalf("Input: %v", err)
	}
	defer in.Close()
	data, err := in.Bytes(4)
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if string(data) != "2345" {
		t.Fatalf("unexpected bytes %q", data)
	}

	if _, err := tree.NewDirectory("d").Input(input.Options{}, nil); !errors.Is(err, fault.ErrIO) {
		t.Fatalf("expected io error for directory input, got %v", err)
	}
}

func TestWalkVisitsDepthFirst(t *testing.T) {
	tree := source.NewTree()
	root := tree.NewDirectory("root")
	sub := tree.NewDirectory("sub")
	mustAdd(t, root, tree.NewFile("a", 0))
	mustAdd(t, root, sub)
	mustAdd(t, sub, tree.NewFile("b", 0))
	mustAdd(t, root, tree.NewFile("c", 0))

	var got []string
	tree.Walk(root, func(s source.Source, depth int) bool {
		got = append(got, s.Name())
		return true
	})
	if diff := cmp.Diff([]string{"root", "a", "sub", "b", "c"}, got); diff != "" {
		t.Fatalf("walk order mismatch (-want +got):\n%s", diff)
	}
}

func mustAdd(t *testing.T, parent, child source.Source) {
	t.Helper()
	if _, err := parent.AddChild(child); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
}
