package aggrefier

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"jhove2/internal/format"
	"jhove2/internal/identifier"
	"jhove2/internal/module"
	"jhove2/internal/reporter"
	"jhove2/internal/source"
)

// Recognizer proposes clumps among the children of an aggregate source.
// Recognize must not mutate the tree; the aggrefier applies candidates.
type Recognizer interface {
	module.Carrier
	Recognize(ctx context.Context, s source.Source) ([]Candidate, error)
	// Aggrefier returns the id of the aggrefier the recognizer is
	// registered with, or the zero identifier.
	Aggrefier() identifier.Identifier
	setAggrefier(identifier.Identifier)
}

// RecognizerBase carries the module state shared by every recognizer.
// Concrete recognizers embed *RecognizerBase.
type RecognizerBase struct {
	*module.Module
	reporter.Identifies
	aggrefier identifier.Identifier
}

// NewRecognizerBase builds the recognizer base for owner.
func NewRecognizerBase(owner any, id identifier.Identifier, info module.Info) *RecognizerBase {
	return &RecognizerBase{Module: module.New(owner, id, info)}
}

func (b *RecognizerBase) Aggrefier() identifier.Identifier { return b.aggrefier }

func (b *RecognizerBase) setAggrefier(id identifier.Identifier) { b.aggrefier = id }

// Candidate is a proposed clump: the format it instantiates and the IDs of
// the sibling sources it claims.
type Candidate struct {
	Name       string
	Format     format.Format
	Confidence format.Confidence
	Members    []source.ID
}

// key identifies a candidate by value. Member order is irrelevant.
func (c Candidate) key() string {
	members := slices.Clone(c.Members)
	slices.Sort(members)
	members = slices.Compact(members)
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte(0)
	b.WriteString(c.Format.ID.Key())
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(int(c.Confidence)))
	for _, id := range members {
		b.WriteByte(0)
		b.WriteString(strconv.Itoa(int(id)))
	}
	return b.String()
}
