package aggrefier_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"jhove2/internal/aggrefier"
	"jhove2/internal/fault"
	"jhove2/internal/format"
	"jhove2/internal/identifier"
	"jhove2/internal/input"
	"jhove2/internal/message"
	"jhove2/internal/module"
	"jhove2/internal/source"
)

var testInfo = module.Info{Name: "scripted", Version: "0.1.0", ReleaseDate: "2026-01-02"}

// scripted returns one prepared response per call and nothing afterwards.
type scripted struct {
	*aggrefier.RecognizerBase
	responses []response
	calls     int
	onCall    func()
}

type response struct {
	candidates []aggrefier.Candidate
	err        error
}

func newScripted(name string, responses ...response) *scripted {
	s := &scripted{responses: responses}
	info := testInfo
	info.Name = name
	s.RecognizerBase = aggrefier.NewRecognizerBase(s, identifier.JHOVE2Term("test", name), info)
	return s
}

func (s *scripted) Recognize(_ context.Context, _ source.Source) ([]aggrefier.Candidate, error) {
	s.calls++
	if s.onCall != nil {
		s.onCall()
	}
	if s.calls > len(s.responses) {
		return nil, nil
	}
	r := s.responses[s.calls-1]
	return r.candidates, r.err
}

// greedy always proposes a clump around the first direct child.
type greedy struct {
	*aggrefier.RecognizerBase
	n int
}

func newGreedy() *greedy {
	g := &greedy{}
	g.RecognizerBase = aggrefier.NewRecognizerBase(g, identifier.JHOVE2Term("test", "greedy"), testInfo)
	return g
}

func (g *greedy) Recognize(_ context.Context, s source.Source) ([]aggrefier.Candidate, error) {
	g.n++
	first := s.Children()[0]
	return []aggrefier.Candidate{{Name: fmt.Sprintf("g%d", g.n), Format: format.Clump, Members: []source.ID{first.ID()}}}, nil
}

type recordingCharacterizer struct {
	seen   []string
	onCall func()
	err    error
}

func (r *recordingCharacterizer) Characterize(_ context.Context, src source.Source, _ *input.Input) (source.Source, error) {
	r.seen = append(r.seen, src.Name())
	if r.onCall != nil {
		r.onCall()
	}
	return src, r.err
}

func catalog(t *testing.T) *message.Catalog {
	t.Helper()
	c, err := message.DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	return c
}

func newAggrefier(t *testing.T, opts aggrefier.Options, recognizers ...aggrefier.Recognizer) *aggrefier.Aggrefier {
	t.Helper()
	opts.Resolver = catalog(t)
	opts.Locale = "en"
	a := aggrefier.New(opts)
	for _, r := range recognizers {
		if err := a.Add(r); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	return a
}

func directory(n int) (source.Source, []source.Source) {
	tree := source.NewTree()
	dir := tree.NewDirectory("dir")
	var files []source.Source
	for i := 1; i <= n; i++ {
		f := tree.NewFile(fmt.Sprintf("f%d", i), 0)
		if _, err := dir.AddChild(f); err != nil {
			panic(err)
		}
		files = append(files, f)
	}
	return dir, files
}

func names(srcs []source.Source) []string {
	out := make([]string, len(srcs))
	for i, s := range srcs {
		out[i] = s.Name()
	}
	return out
}

func ids(srcs ...source.Source) []source.ID {
	out := make([]source.ID, len(srcs))
	for i, s := range srcs {
		out[i] = s.ID()
	}
	return out
}

func codes(s source.Source) []string {
	var out []string
	for _, m := range s.Messages() {
		out = append(out, m.Code)
	}
	return out
}

func TestIdentifyReachesFixpoint(t *testing.T) {
	dir, f := directory(5)
	rec := newScripted("pairs", response{candidates: []aggrefier.Candidate{
		{Name: "A", Format: format.Clump, Confidence: format.PositiveGeneric, Members: ids(f[0], f[1])},
		{Name: "B", Format: format.Clump, Confidence: format.PositiveGeneric, Members: ids(f[3], f[2])},
	}})
	chr := &recordingCharacterizer{}
	a := newAggrefier(t, aggrefier.Options{}, rec)

	result, err := a.Identify(context.Background(), chr, dir)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if result.Rounds != 2 || rec.calls != 2 {
		t.Fatalf("expected 2 rounds, got %d (calls %d)", result.Rounds, rec.calls)
	}
	if !result.Converged {
		t.Fatal("expected convergence")
	}
	if diff := cmp.Diff([]string{"A", "B", "f5"}, names(dir.Children())); diff != "" {
		t.Fatalf("children mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A", "B"}, chr.seen); diff != "" {
		t.Fatalf("characterize calls mismatch (-want +got):\n%s", diff)
	}
	clumpB := dir.Children()[1]
	if diff := cmp.Diff([]string{"f3", "f4"}, names(clumpB.Children())); diff != "" {
		t.Fatalf("clump members mismatch (-want +got):\n%s", diff)
	}
	if clumpB.Kind() != source.Clump {
		t.Fatalf("expected clump kind, got %s", clumpB.Kind())
	}
	best, ok := clumpB.BestIdentification()
	if !ok || !best.Component.Equal(rec.Base().ID()) || best.Confidence != format.PositiveGeneric {
		t.Fatalf("unexpected clump identification %+v", best)
	}
	if parent, _ := f[2].Parent(); parent.ID() != clumpB.ID() {
		t.Fatal("member not reparented into clump")
	}
}

func TestIdentifyIgnoresSimpleSources(t *testing.T) {
	tree := source.NewTree()
	file := tree.NewFile("f", 0)
	rec := newScripted("never")
	a := newAggrefier(t, aggrefier.Options{}, rec)
	result, err := a.Identify(context.Background(), &recordingCharacterizer{}, file)
	if err != nil || result.Rounds != 0 || rec.calls != 0 {
		t.Fatalf("expected no work, got %+v, %v", result, err)
	}
}

func TestRecognizerIOFailureIsRecorded(t *testing.T) {
	dir, f := directory(3)
	broken := newScripted("broken", response{err: fault.Wrap(fault.ErrIO, "test", "read", "disk gone", errors.New("EIO"))})
	working := newScripted("working", response{candidates: []aggrefier.Candidate{
		{Name: "C", Format: format.Clump, Members: ids(f[0], f[1])},
	}})
	a := newAggrefier(t, aggrefier.Options{}, broken, working)

	result, err := a.Identify(context.Background(), &recordingCharacterizer{}, dir)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if len(result.Clumps) != 1 {
		t.Fatalf("expected the working recognizer to form a clump, got %d", len(result.Clumps))
	}
	if diff := cmp.Diff([]string{"aggrefier.recognizerFailed"}, codes(dir)); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	if dir.NumErrorMessages() != 1 {
		t.Fatalf("expected one error message, got %d", dir.NumErrorMessages())
	}
}

func TestRecognizerOtherFailurePropagates(t *testing.T) {
	dir, _ := directory(2)
	boom := errors.New("boom")
	a := newAggrefier(t, aggrefier.Options{}, newScripted("bad", response{err: boom}))
	if _, err := a.Identify(context.Background(), &recordingCharacterizer{}, dir); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if dir.NumMessages() != 0 {
		t.Fatal("non-recoverable failure must not be recorded as a message")
	}
}

func TestOverlappingCandidatesFirstWins(t *testing.T) {
	dir, f := directory(4)
	first := newScripted("first", response{candidates: []aggrefier.Candidate{
		{Name: "X", Format: format.Clump, Members: ids(f[0], f[1])},
	}})
	second := newScripted("second", response{candidates: []aggrefier.Candidate{
		{Name: "Y", Format: format.Clump, Members: ids(f[1], f[2])},
	}})
	a := newAggrefier(t, aggrefier.Options{}, first, second)

	result, err := a.Identify(context.Background(), &recordingCharacterizer{}, dir)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if result.Rejected != 1 {
		t.Fatalf("expected one rejection, got %d", result.Rejected)
	}
	if diff := cmp.Diff([]string{"X", "f3", "f4"}, names(dir.Children())); diff != "" {
		t.Fatalf("children mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"aggrefier.candidateRejected"}, codes(dir)); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	if got := dir.Messages()[0].Severity; got != message.Warning {
		t.Fatalf("expected warning, got %s", got)
	}
}

func TestDuplicateCandidatesApplyOnce(t *testing.T) {
	dir, f := directory(2)
	cand := aggrefier.Candidate{Name: "D", Format: format.Clump, Members: ids(f[0], f[1])}
	flipped := cand
	flipped.Members = ids(f[1], f[0])
	a := newAggrefier(t, aggrefier.Options{},
		newScripted("one", response{candidates: []aggrefier.Candidate{cand}}),
		newScripted("two", response{candidates: []aggrefier.Candidate{flipped}}))

	result, err := a.Identify(context.Background(), &recordingCharacterizer{}, dir)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if len(result.Clumps) != 1 || result.Rejected != 0 {
		t.Fatalf("expected one clump and no rejection, got %+v", result)
	}
}

func TestRoundBoundStopsNonConvergingRecognizer(t *testing.T) {
	dir, _ := directory(2)
	a := newAggrefier(t, aggrefier.Options{MaxRounds: 3}, newGreedy())

	result, err := a.Identify(context.Background(), &recordingCharacterizer{}, dir)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if result.Rounds != 3 || result.Converged {
		t.Fatalf("expected 3 rounds without convergence, got %+v", result)
	}
	if diff := cmp.Diff([]string{"aggrefier.maxRoundsExceeded"}, codes(dir)); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestFailFastStopsAfterRound(t *testing.T) {
	dir, f := directory(4)
	a := newAggrefier(t, aggrefier.Options{FailFastLimit: 1},
		newScripted("e1", response{err: fault.Wrap(fault.ErrIO, "t", "r", "first", nil)}),
		newScripted("e2", response{err: fault.Wrap(fault.ErrEndOfInput, "t", "r", "second", nil)}),
		newScripted("ok", response{candidates: []aggrefier.Candidate{{Name: "P", Format: format.Clump, Members: ids(f[0], f[1])}}}),
	)
	result, err := a.Identify(context.Background(), &recordingCharacterizer{}, dir)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if !result.FailFast || result.Rounds != 1 || result.Converged {
		t.Fatalf("expected fail-fast after one round, got %+v", result)
	}
}

func TestTimerBracketsOnlyRecognition(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	dir, f := directory(2)
	rec := newScripted("timed", response{candidates: []aggrefier.Candidate{{Name: "T", Format: format.Clump, Members: ids(f[0], f[1])}}})
	rec.SetClock(clock)
	rec.onCall = func() { now = now.Add(2 * time.Second) }
	chr := &recordingCharacterizer{onCall: func() { now = now.Add(10 * time.Second) }}
	a := newAggrefier(t, aggrefier.Options{}, rec)

	if _, err := a.Identify(context.Background(), chr, dir); err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if got := rec.Base().Timer().Total(); got != 4*time.Second {
		t.Fatalf("expected 4s of recognition time, got %s", got)
	}
}

func TestCharacterizeErrorPropagates(t *testing.T) {
	dir, f := directory(2)
	boom := errors.New("characterize failed")
	a := newAggrefier(t, aggrefier.Options{},
		newScripted("r", response{candidates: []aggrefier.Candidate{{Name: "E", Format: format.Clump, Members: ids(f[0], f[1])}}}))
	if _, err := a.Identify(context.Background(), &recordingCharacterizer{err: boom}, dir); !errors.Is(err, boom) {
		t.Fatalf("expected characterize error, got %v", err)
	}
}

func TestIdentifyHonoursCancellation(t *testing.T) {
	dir, _ := directory(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := newAggrefier(t, aggrefier.Options{}, newScripted("r"))
	if _, err := a.Identify(ctx, &recordingCharacterizer{}, dir); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestRecognizerRegistration(t *testing.T) {
	r1 := newScripted("r1")
	r2 := newScripted("r2")
	r3 := newScripted("r3")
	a := newAggrefier(t, aggrefier.Options{}, r1, r2, r3)

	if err := a.Add(r2); !errors.Is(err, fault.ErrInvariant) {
		t.Fatalf("expected duplicate registration to fail, got %v", err)
	}
	if !r2.Aggrefier().Equal(aggrefier.ID) {
		t.Fatalf("expected parent id %v, got %v", aggrefier.ID, r2.Aggrefier())
	}
	removed, ok := a.Remove(r2.Base().ID())
	if !ok || removed != aggrefier.Recognizer(r2) {
		t.Fatal("expected r2 to be removed")
	}
	if !r2.Aggrefier().IsZero() {
		t.Fatal("expected parent id cleared")
	}
	var got []string
	for _, r := range a.Recognizers() {
		got = append(got, r.Base().Name())
	}
	if diff := cmp.Diff([]string{"r1", "r3"}, got); diff != "" {
		t.Fatalf("recognizers mismatch (-want +got):\n%s", diff)
	}
	if _, ok := a.Remove(r2.Base().ID()); ok {
		t.Fatal("expected second removal to report false")
	}
	other := aggrefier.New(aggrefier.Options{})
	if err := other.Add(r1); !errors.Is(err, fault.ErrInvariant) {
		t.Fatalf("expected cross-aggrefier add to fail, got %v", err)
	}
}

func TestCandidateEnclosingWholeClumpIsIgnored(t *testing.T) {
	tree := source.NewTree()
	clump := tree.NewClump("roads")
	a, b := tree.NewFile("roads.shp", 1), tree.NewFile("roads.shx", 1)
	for _, f := range []source.Source{a, b} {
		if _, err := clump.AddChild(f); err != nil {
			t.Fatalf("AddChild: %v", err)
		}
	}
	r := newScripted("again", response{candidates: []aggrefier.Candidate{
		{Name: "roads", Format: format.Clump, Members: ids(a, b)},
	}})
	agg := newAggrefier(t, aggrefier.Options{}, r)
	result, err := agg.Identify(context.Background(), &recordingCharacterizer{}, clump)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if !result.Converged || result.Rounds != 1 || len(result.Clumps) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if clump.NumChildren() != 2 {
		t.Fatalf("clump children changed: %d", clump.NumChildren())
	}
}
