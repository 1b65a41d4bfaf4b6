package reporter

import (
	"jhove2/internal/identifier"
	"jhove2/internal/message"
)

// Reporter is the base of every processing unit: a stable identifier, the
// capabilities fixed at construction, and the messages it has emitted.
type Reporter struct {
	id           identifier.Identifier
	capabilities CapabilitySet
	messages     message.Set
}

// New builds a reporter for owner, the concrete value that embeds it. The
// capability set is computed here, once.
func New(owner any, id identifier.Identifier) *Reporter {
	return &Reporter{id: id, capabilities: CapabilitiesOf(owner)}
}

func (r *Reporter) ID() identifier.Identifier { return r.id }

func (r *Reporter) Capabilities() CapabilitySet { return r.capabilities }

// AddMessage records m unless an equal message is already present.
func (r *Reporter) AddMessage(m message.Message) bool {
	return r.messages.Add(m)
}

// AddMessages records ms in ascending natural order.
func (r *Reporter) AddMessages(ms []message.Message) int {
	return r.messages.AddAll(ms)
}

func (r *Reporter) Messages() []message.Message { return r.messages.Messages() }

func (r *Reporter) NumMessages() int { return r.messages.Len() }

func (r *Reporter) NumErrorMessages() int { return r.messages.NumErrors() }

// Reset clears messages and the error counter. Identity and capabilities are
// unaffected.
func (r *Reporter) Reset() {
	r.messages.Reset()
}

// FailFast reports whether numErrors exceeds limit. A limit of zero means
// unlimited.
func FailFast(limit, numErrors int) bool {
	return limit > 0 && numErrors > limit
}
