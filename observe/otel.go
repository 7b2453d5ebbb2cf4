package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rsneha-blip/procuremesh/core"
)

// tracerName identifies this instrumentation to the OpenTelemetry provider.
const tracerName = "github.com/rsneha-blip/procuremesh/observe"

// OTelObserver bridges bus traffic to OpenTelemetry. Each conversation gets a
// root span; each message becomes a child span opened on the send event and
// ended on the receive event. Undelivered sends end immediately with the
// routing failure recorded on the span.
type OTelObserver struct {
	tracer trace.Tracer

	mu            sync.Mutex
	conversations map[string]trace.Span
	convContexts  map[string]context.Context
	messages      map[string]trace.Span
}

var _ core.Observer = (*OTelObserver)(nil)

// OTelOptions holds optional overrides for NewOTelObserver.
type OTelOptions struct {
	// Tracer overrides the tracer obtained from the global provider.
	Tracer trace.Tracer
}

// WithTracer injects a tracer instead of the global provider's.
func WithTracer(t trace.Tracer) func(o *OTelOptions) {
	return func(o *OTelOptions) { o.Tracer = t }
}

// NewOTelObserver constructs the OpenTelemetry bridge.
func NewOTelObserver(optFns ...func(o *OTelOptions)) *OTelObserver {
	opts := OTelOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	return &OTelObserver{
		tracer:        opts.Tracer,
		conversations: make(map[string]trace.Span),
		convContexts:  make(map[string]context.Context),
		messages:      make(map[string]trace.Span),
	}
}

// ObserveTraffic implements core.Observer.
func (o *OTelObserver) ObserveTraffic(ev core.TrafficEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch ev.Direction {
	case core.TrafficSend:
		ctx := o.conversationContextLocked(ev.ConversationID)
		_, span := o.tracer.Start(ctx, "message."+string(ev.Kind),
			trace.WithTimestamp(ev.Timestamp),
			trace.WithAttributes(
				attribute.String("message.id", ev.EnvelopeID),
				attribute.String("message.from", ev.From),
				attribute.String("message.to", ev.To),
				attribute.String("message.type", string(ev.Kind)),
				attribute.String("conversation.id", ev.ConversationID),
				attribute.String("message.summary", ev.ContentSummary),
			),
		)
		if !ev.Delivered {
			span.SetAttributes(attribute.Bool("message.delivered", false))
			span.End(trace.WithTimestamp(ev.Timestamp))
			return
		}
		o.messages[ev.EnvelopeID] = span

	case core.TrafficReceive:
		span, ok := o.messages[ev.EnvelopeID]
		if !ok {
			return
		}
		delete(o.messages, ev.EnvelopeID)
		span.SetAttributes(attribute.Bool("message.delivered", true))
		span.End(trace.WithTimestamp(ev.Timestamp))
	}
}

// conversationContextLocked returns the context carrying the conversation's
// root span, starting it on first use. Callers hold o.mu.
func (o *OTelObserver) conversationContextLocked(conversationID string) context.Context {
	if ctx, ok := o.convContexts[conversationID]; ok {
		return ctx
	}
	ctx, span := o.tracer.Start(context.Background(), "conversation",
		trace.WithAttributes(attribute.String("conversation.id", conversationID)),
	)
	o.conversations[conversationID] = span
	o.convContexts[conversationID] = ctx
	return ctx
}

// EndConversation ends the conversation's root span. Further traffic on the
// same conversation starts a fresh root.
func (o *OTelObserver) EndConversation(conversationID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if span, ok := o.conversations[conversationID]; ok {
		span.End()
		delete(o.conversations, conversationID)
		delete(o.convContexts, conversationID)
	}
}

// Shutdown ends every open message and conversation span.
func (o *OTelObserver) Shutdown() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for id, span := range o.messages {
		span.End()
		delete(o.messages, id)
	}
	for id, span := range o.conversations {
		span.End()
		delete(o.conversations, id)
		delete(o.convContexts, id)
	}
}
