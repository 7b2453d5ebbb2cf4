package agent

import (
	"fmt"

	"github.com/rsneha-blip/procuremesh/core"
	"github.com/rsneha-blip/procuremesh/logging"
)

// Well-known agent routing identifiers.
const (
	SourcingID    = "sourcing_agent"
	ComplianceID  = "compliance_agent"
	NegotiationID = "negotiation_agent"
	SupervisorID  = "supervisor_agent"
)

// Handler processes one delivered envelope. A returned error is a handler
// fault: BaseAgent converts it into an Error envelope addressed to the sender
// and never propagates it to the bus.
type Handler func(env core.Envelope) error

// BaseAgent carries the identity, bus access and operation dispatch shared by
// all collaborators. Embed it and register handlers with Handle during
// construction; registration is not synchronized and must finish before the
// agent is attached to a live bus.
type BaseAgent struct {
	id           string
	kind         string
	capabilities []string
	bus          core.Bus
	logger       logging.Logger
	handlers     map[core.Op]Handler

	// Optional per-kind hooks, consulted when no operation handler matches.
	onResponse     Handler
	onNotification Handler
	onError        Handler
}

var _ core.Agent = (*BaseAgent)(nil)

// BaseAgentOptions holds optional overrides for NewBaseAgent.
type BaseAgentOptions struct {
	Logger       logging.Logger
	Capabilities []string
}

// WithLogger overrides the default NoOpLogger.
func WithLogger(l logging.Logger) func(o *BaseAgentOptions) {
	return func(o *BaseAgentOptions) { o.Logger = l }
}

// WithCapabilities sets the capability tags stored in the bus registry.
func WithCapabilities(caps ...string) func(o *BaseAgentOptions) {
	return func(o *BaseAgentOptions) { o.Capabilities = caps }
}

// NewBaseAgent constructs the shared agent scaffolding bound to a bus.
func NewBaseAgent(id, kind string, bus core.Bus, optFns ...func(o *BaseAgentOptions)) *BaseAgent {
	opts := BaseAgentOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &BaseAgent{
		id:           id,
		kind:         kind,
		capabilities: opts.Capabilities,
		bus:          bus,
		logger:       opts.Logger,
		handlers:     make(map[core.Op]Handler),
	}
}

// ID returns the routing identifier other agents address.
func (a *BaseAgent) ID() string { return a.id }

// Kind returns the agent category.
func (a *BaseAgent) Kind() string { return a.kind }

// Capabilities returns the self-declared capability tags.
func (a *BaseAgent) Capabilities() []string { return a.capabilities }

// Bus returns the bus the agent was constructed with.
func (a *BaseAgent) Bus() core.Bus { return a.bus }

// Handle registers the handler for an operation. The operation must belong to
// the closed protocol set and must not already have a handler.
func (a *BaseAgent) Handle(op core.Op, h Handler) error {
	if !op.Valid() {
		return fmt.Errorf("agent %s: cannot handle unknown operation %q", a.id, op)
	}
	if _, exists := a.handlers[op]; exists {
		return fmt.Errorf("agent %s: duplicate handler for operation %q", a.id, op)
	}
	a.handlers[op] = h
	return nil
}

// mustHandle registers a handler and panics on registration failure. The
// built-in collaborators use it; their operation sets are fixed at compile
// time, so a failure is a programmer error.
func (a *BaseAgent) mustHandle(op core.Op, h Handler) {
	if err := a.Handle(op, h); err != nil {
		panic(err)
	}
}

// OnResponse sets the fallback handler for Response envelopes whose operation
// has no registered handler.
func (a *BaseAgent) OnResponse(h Handler) { a.onResponse = h }

// OnNotification sets the fallback handler for Notification envelopes whose
// operation has no registered handler.
func (a *BaseAgent) OnNotification(h Handler) { a.onNotification = h }

// OnError sets the handler invoked for incoming Error envelopes.
func (a *BaseAgent) OnError(h Handler) { a.onError = h }

// Receive dispatches a delivered envelope. Requests whose operation has no
// handler, handler faults and handler panics all produce an Error envelope
// back to the sender; Receive itself returns an error only when the envelope
// kind is outside the protocol.
func (a *BaseAgent) Receive(env core.Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("handler panicked",
				"agent_id", a.id, "operation", string(env.Content.RequestType()), "panic", fmt.Sprint(r))
			a.sendErrorResponse(env, fmt.Sprintf("internal fault handling %s", env.Content.RequestType()))
			err = nil
		}
	}()

	op := env.Content.RequestType()

	switch env.Kind {
	case core.KindRequest:
		if len(a.handlers) == 0 {
			a.sendErrorResponse(env, fmt.Sprintf("agent %s does not implement request handling", a.id))
			return nil
		}
		h, ok := a.handlers[op]
		if !ok {
			a.sendErrorResponse(env, fmt.Sprintf("unknown request type: %s", op))
			return nil
		}
		if herr := h(env); herr != nil {
			a.sendErrorResponse(env, herr.Error())
		}
		return nil

	case core.KindResponse, core.KindNotification:
		h, ok := a.handlers[op]
		if !ok {
			if env.Kind == core.KindResponse {
				h = a.onResponse
			} else {
				h = a.onNotification
			}
		}
		if h == nil {
			a.logger.Debug("unhandled envelope",
				"agent_id", a.id, "message_type", string(env.Kind), "operation", string(op), "from_agent", env.From)
			return nil
		}
		if herr := h(env); herr != nil {
			a.sendErrorResponse(env, herr.Error())
		}
		return nil

	case core.KindError:
		if a.onError != nil {
			return a.onError(env)
		}
		a.logger.Warn("received error envelope",
			"agent_id", a.id, "from_agent", env.From, "error", env.Content.String(core.ContentKeyError))
		return nil
	}

	return fmt.Errorf("agent %s: envelope %s has invalid kind %q", a.id, env.ID, env.Kind)
}

// Send routes a new envelope through the bus and returns its id. An empty
// conversation id starts a new conversation.
func (a *BaseAgent) Send(to string, kind core.Kind, content core.Content, conversationID string) (string, error) {
	env := core.NewEnvelope(a.id, to, kind, content, core.WithConversationID(conversationID))
	if err := a.bus.Send(env); err != nil {
		return "", err
	}
	return env.ID, nil
}

// sendErrorResponse reports a handler fault back to the envelope's sender on
// the same conversation.
func (a *BaseAgent) sendErrorResponse(original core.Envelope, errMsg string) {
	env := core.NewEnvelope(a.id, original.From, core.KindError, core.Content{
		core.ContentKeyError:             errMsg,
		core.ContentKeyOriginalMessageID: original.ID,
	}, core.WithConversationID(original.ConversationID), core.WithRequiresResponse(false))
	if err := a.bus.Send(env); err != nil {
		a.logger.Error("failed to send error response",
			"agent_id", a.id, "to_agent", original.From, "error", err.Error())
	}
}
