package testutil

import (
	"time"

	"github.com/rsneha-blip/procuremesh/core"
)

// EnvelopeBuilder provides a fluent helper for constructing envelopes in
// tests. Example:
//
//	env := NewEnvelopeBuilder().From("sourcing_agent").To("supervisor_agent").
//		Request("find_suppliers").Content("budget", 5000.0).Build()
//
// Chain only the parts you need; sensible defaults are applied.
type EnvelopeBuilder struct {
	id               string
	from             string
	to               string
	kind             core.Kind
	content          core.Content
	conversationID   string
	timestamp        *time.Time
	requiresResponse *bool
}

// NewEnvelopeBuilder creates a builder defaulting to a request envelope with
// empty content.
func NewEnvelopeBuilder() *EnvelopeBuilder {
	return &EnvelopeBuilder{kind: core.KindRequest, content: core.Content{}}
}

// ID overrides the auto-generated envelope ID (chainable). Use mainly where
// determinism matters.
func (b *EnvelopeBuilder) ID(id string) *EnvelopeBuilder { b.id = id; return b }

// From sets the sending agent (chainable).
func (b *EnvelopeBuilder) From(id string) *EnvelopeBuilder { b.from = id; return b }

// To sets the destination agent (chainable).
func (b *EnvelopeBuilder) To(id string) *EnvelopeBuilder { b.to = id; return b }

// Kind overrides the message kind (chainable).
func (b *EnvelopeBuilder) Kind(k core.Kind) *EnvelopeBuilder { b.kind = k; return b }

// Request marks the envelope as a request carrying the given operation tag
// (chainable).
func (b *EnvelopeBuilder) Request(op string) *EnvelopeBuilder {
	b.kind = core.KindRequest
	b.content[core.ContentKeyRequestType] = op
	return b
}

// Response marks the envelope as a response carrying the given operation tag
// (chainable).
func (b *EnvelopeBuilder) Response(op string) *EnvelopeBuilder {
	b.kind = core.KindResponse
	b.content[core.ContentKeyRequestType] = op
	return b
}

// Content sets one content key/value pair (chainable).
func (b *EnvelopeBuilder) Content(key string, val any) *EnvelopeBuilder {
	b.content[key] = val
	return b
}

// Conversation pins the conversation id (chainable).
func (b *EnvelopeBuilder) Conversation(id string) *EnvelopeBuilder {
	b.conversationID = id
	return b
}

// Timestamp overrides the envelope timestamp (chainable).
func (b *EnvelopeBuilder) Timestamp(at time.Time) *EnvelopeBuilder {
	b.timestamp = &at
	return b
}

// RequiresResponse sets the requires_response flag (chainable).
func (b *EnvelopeBuilder) RequiresResponse(v bool) *EnvelopeBuilder {
	b.requiresResponse = &v
	return b
}

// Build materializes the envelope.
func (b *EnvelopeBuilder) Build() core.Envelope {
	var optFns []func(o *core.EnvelopeOptions)
	if b.conversationID != "" {
		optFns = append(optFns, core.WithConversationID(b.conversationID))
	}
	if b.requiresResponse != nil {
		optFns = append(optFns, core.WithRequiresResponse(*b.requiresResponse))
	}
	env := core.NewEnvelope(b.from, b.to, b.kind, b.content, optFns...)
	if b.id != "" {
		env.ID = b.id
	}
	if b.timestamp != nil {
		env.Timestamp = *b.timestamp
	}
	return env
}
