package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind tags an Envelope with its protocol role. The string values are the
// wire contract; external tooling depends on them staying stable.
type Kind string

const (
	// KindRequest asks the receiver to perform an operation.
	KindRequest Kind = "request"
	// KindResponse answers a previous request within the same conversation.
	KindResponse Kind = "response"
	// KindNotification informs without expecting a reply.
	KindNotification Kind = "notification"
	// KindError reports a handler fault back to the original sender.
	KindError Kind = "error"
)

// Valid reports whether k is one of the four protocol kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindRequest, KindResponse, KindNotification, KindError:
		return true
	}
	return false
}

// Reserved content keys. Only ContentKeyRequestType carries protocol meaning;
// the rest are conventions the kernel and collaborators agree on.
const (
	// ContentKeyRequestType names the operation a Request or Notification
	// carries. It is the sole content key with a reserved meaning in the
	// routing protocol.
	ContentKeyRequestType = "request_type"
	// ContentKeyOriginalMessageID links an Error envelope to the message
	// whose handling failed.
	ContentKeyOriginalMessageID = "original_message_id"
	// ContentKeyError carries the fault description on an Error envelope.
	ContentKeyError = "error"
	// ContentKeySummary carries a short human-readable synopsis used by
	// observability collaborators.
	ContentKeySummary = "summary"
)

// Content is the open bag of keys an Envelope carries. Receiving handlers
// interpret it by convention keyed off the request_type entry; the kernel
// never enforces a schema on it.
type Content map[string]any

// RequestType returns the operation tag, or OpUnknown when absent or not a
// string.
func (c Content) RequestType() Op {
	s, _ := c[ContentKeyRequestType].(string)
	return Op(s)
}

// Summary returns the summary entry, falling back to a truncated rendering of
// the whole content so traffic observers always have something to show.
func (c Content) Summary() string {
	if s, ok := c[ContentKeySummary].(string); ok && s != "" {
		return s
	}
	rendered := fmt.Sprintf("%v", map[string]any(c))
	if len(rendered) > 100 {
		rendered = rendered[:100]
	}
	return rendered
}

// String returns the string value for key, or "" when absent or mistyped.
func (c Content) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// Map returns the nested map value for key, or nil.
func (c Content) Map(key string) map[string]any {
	m, _ := c[key].(map[string]any)
	return m
}

// Slice returns the slice value for key, or nil.
func (c Content) Slice(key string) []any {
	s, _ := c[key].([]any)
	return s
}

// Clone returns a shallow copy of the content map. Nested values are shared;
// participants treat envelope content as read-only by contract.
func (c Content) Clone() Content {
	if c == nil {
		return Content{}
	}
	cp := make(Content, len(c))
	for k, v := range c {
		cp[k] = v
	}
	return cp
}

// Envelope is one routed message between agents. It is immutable once
// constructed: participants never mutate an envelope after handing it to the
// bus, and downstream hops propagate ConversationID unchanged. The JSON field
// names are the transport-neutral wire contract.
type Envelope struct {
	ID               string    `json:"id"`
	From             string    `json:"from_agent"`
	To               string    `json:"to_agent"`
	Kind             Kind      `json:"message_type"`
	Content          Content   `json:"content"`
	Timestamp        time.Time `json:"timestamp"`
	ConversationID   string    `json:"conversation_id"`
	RequiresResponse bool      `json:"requires_response"`
}

// EnvelopeOptions holds optional overrides for NewEnvelope.
type EnvelopeOptions struct {
	// ConversationID correlates this envelope with an existing exchange.
	// Empty means the envelope becomes the root of a new conversation.
	ConversationID string
	// RequiresResponse marks whether the sender expects an answer.
	RequiresResponse bool
}

// NewEnvelope constructs an envelope with a fresh id and UTC timestamp. When
// no conversation id is supplied a fresh one is generated, making the
// envelope the root of a new conversation.
func NewEnvelope(from, to string, kind Kind, content Content, optFns ...func(o *EnvelopeOptions)) Envelope {
	opts := EnvelopeOptions{RequiresResponse: true}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ConversationID == "" {
		opts.ConversationID = NewID()
	}
	if content == nil {
		content = Content{}
	}
	return Envelope{
		ID:               NewID(),
		From:             from,
		To:               to,
		Kind:             kind,
		Content:          content,
		Timestamp:        time.Now().UTC(),
		ConversationID:   opts.ConversationID,
		RequiresResponse: opts.RequiresResponse,
	}
}

// WithConversationID joins the envelope to an existing conversation.
func WithConversationID(id string) func(o *EnvelopeOptions) {
	return func(o *EnvelopeOptions) { o.ConversationID = id }
}

// WithRequiresResponse overrides the requires_response flag.
func WithRequiresResponse(v bool) func(o *EnvelopeOptions) {
	return func(o *EnvelopeOptions) { o.RequiresResponse = v }
}

// Marshal serializes the envelope to its wire representation.
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEnvelope parses the wire representation produced by Marshal.
func UnmarshalEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return e, nil
}

// NewID generates a new unique identifier (UUIDv4) for envelopes,
// conversations, cases and sessions.
func NewID() string { return uuid.NewString() }
