package bus

import (
	"fmt"
	"sync"
	"time"

	"github.com/rsneha-blip/procuremesh/core"
	"github.com/rsneha-blip/procuremesh/logging"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// HistoryLimit bounds the global history. When the limit is reached the
	// oldest entries are evicted. Zero means unbounded; the per-conversation
	// index is never evicted either way.
	HistoryLimit int
	// Logger receives routing diagnostics (unknown destinations, delivery
	// faults). Defaults to NoOpLogger.
	Logger logging.Logger
}

// WithHistoryLimit bounds the global history ring.
func WithHistoryLimit(n int) func(o *Options) {
	return func(o *Options) { o.HistoryLimit = n }
}

// WithLogger overrides the default NoOpLogger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// InMemoryBus is the process-local core.Bus implementation: agent registry,
// envelope router, append-only history and conversation index. Construct one
// explicitly and hand it to every agent; lifecycle is owned by the caller.
type InMemoryBus struct {
	mu            sync.Mutex
	agents        map[string]core.Agent
	records       map[string]core.AgentRecord
	history       []core.Envelope
	conversations map[string][]core.Envelope
	queue         []core.Envelope
	dispatching   bool

	historyLimit int
	logger       logging.Logger

	obsMu     sync.RWMutex
	observers []core.Observer
}

var _ core.Bus = (*InMemoryBus)(nil)

// New constructs an empty bus with optional overrides.
func New(optFns ...func(o *Options)) *InMemoryBus {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InMemoryBus{
		agents:        make(map[string]core.Agent),
		records:       make(map[string]core.AgentRecord),
		conversations: make(map[string][]core.Envelope),
		historyLimit:  opts.HistoryLimit,
		logger:        opts.Logger,
	}
}

// Register stores the agent and its record. Registering the same id twice
// replaces the previous entry; the registry never holds duplicates.
func (b *InMemoryBus) Register(agent core.Agent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.agents[agent.ID()] = agent
	b.records[agent.ID()] = core.AgentRecord{
		ID:           agent.ID(),
		Kind:         agent.Kind(),
		Capabilities: append([]string(nil), agent.Capabilities()...),
		Status:       core.AgentStatusActive,
	}
	b.logger.Debug("agent registered", "agent_id", agent.ID(), "agent_type", agent.Kind())
}

// Subscribe attaches a traffic observer. Observers see every accepted
// envelope and every completed delivery without being able to alter routing.
func (b *InMemoryBus) Subscribe(obs core.Observer) {
	b.obsMu.Lock()
	defer b.obsMu.Unlock()
	b.observers = append(b.observers, obs)
}

// Send appends the envelope to the global history and the conversation index,
// then delivers it to the registered target. The outermost Send on a dispatch
// chain drains the internal queue to empty before returning, so the entire
// transitive chain of handler-triggered sends completes within this call. An
// unknown destination is logged and recorded in history but never surfaced to
// the sender as a protocol error.
func (b *InMemoryBus) Send(env core.Envelope) error {
	if !env.Kind.Valid() {
		return fmt.Errorf("send: invalid message kind %q", env.Kind)
	}

	b.mu.Lock()
	b.appendHistoryLocked(env)
	b.conversations[env.ConversationID] = append(b.conversations[env.ConversationID], env)
	_, registered := b.agents[env.To]
	b.queue = append(b.queue, env)
	nested := b.dispatching
	if !nested {
		b.dispatching = true
	}
	b.mu.Unlock()

	b.notify(trafficEvent(core.TrafficSend, env, registered))

	if nested {
		// A dispatch loop above us on the stack (or on another goroutine)
		// owns the queue and will deliver this envelope in order.
		return nil
	}

	b.drain()
	return nil
}

// Conversation returns copies of the envelopes sharing the given conversation
// id, in arrival order, or an empty slice when the id is unknown.
func (b *InMemoryBus) Conversation(id string) []core.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	src := b.conversations[id]
	out := make([]core.Envelope, len(src))
	copy(out, src)
	return out
}

// History returns a copy of the global append-only history in arrival order.
func (b *InMemoryBus) History() []core.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]core.Envelope, len(b.history))
	copy(out, b.history)
	return out
}

// Records returns the registry records of all registered agents.
func (b *InMemoryBus) Records() []core.AgentRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]core.AgentRecord, 0, len(b.records))
	for _, rec := range b.records {
		out = append(out, rec)
	}
	return out
}

// Record returns the registry record for one agent id.
func (b *InMemoryBus) Record(id string) (core.AgentRecord, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.records[id]
	return rec, ok
}

func (b *InMemoryBus) appendHistoryLocked(env core.Envelope) {
	if b.historyLimit > 0 && len(b.history) >= b.historyLimit {
		drop := len(b.history) - b.historyLimit + 1
		b.history = append(b.history[:0], b.history[drop:]...)
	}
	b.history = append(b.history, env)
}

// drain pops and delivers queued envelopes until none remain. Only one drain
// loop runs at a time; nested Send calls enqueue and return.
func (b *InMemoryBus) drain() {
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.dispatching = false
			b.mu.Unlock()
			return
		}
		env := b.queue[0]
		b.queue = b.queue[1:]
		target := b.agents[env.To]
		b.mu.Unlock()

		b.deliver(env, target)
	}
}

func (b *InMemoryBus) deliver(env core.Envelope, target core.Agent) {
	if target == nil {
		b.logger.Warn("envelope destination not registered",
			"to_agent", env.To, "from_agent", env.From,
			"conversation_id", env.ConversationID)
		return
	}

	start := time.Now()
	if err := target.Receive(env); err != nil {
		// Delivery faults are kernel-level; they are logged, never routed
		// back to the sender.
		b.logger.Error("delivery fault",
			"to_agent", env.To, "envelope_id", env.ID, "error", err.Error())
	}
	b.logger.Debug("envelope delivered",
		"from_agent", env.From, "to_agent", env.To,
		"message_type", string(env.Kind),
		"duration", time.Since(start).String())

	b.notify(trafficEvent(core.TrafficReceive, env, true))
}

func (b *InMemoryBus) notify(ev core.TrafficEvent) {
	b.obsMu.RLock()
	observers := b.observers
	b.obsMu.RUnlock()
	for _, obs := range observers {
		obs.ObserveTraffic(ev)
	}
}

func trafficEvent(dir core.TrafficDirection, env core.Envelope, delivered bool) core.TrafficEvent {
	return core.TrafficEvent{
		Direction:      dir,
		EnvelopeID:     env.ID,
		From:           env.From,
		To:             env.To,
		Kind:           env.Kind,
		ConversationID: env.ConversationID,
		Timestamp:      time.Now().UTC(),
		ContentSummary: env.Content.Summary(),
		Delivered:      delivered,
	}
}
