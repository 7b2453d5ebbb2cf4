package core

// AgentStatus describes the lifecycle state of a registered agent. There is
// no de-registration path; agents live for the process lifetime.
type AgentStatus string

// AgentStatusActive is the only modeled status.
const AgentStatusActive AgentStatus = "active"

// Agent is the dispatch contract every ProcureMesh participant implements.
//
// Agents are autonomous units that cooperate purely through envelopes: the
// bus invokes Receive synchronously during delivery, and Receive dispatches
// by envelope kind to the agent's handlers. Handlers may themselves send
// further envelopes, continuing the chain until no more messages are
// produced.
//
// Implementations must:
//   - Convert handler faults into Error envelopes at the Receive boundary
//     rather than propagating them to the bus
//   - Propagate ConversationID unchanged on every downstream message
//   - Treat received envelopes as read-only
type Agent interface {
	// ID returns the routing identifier other agents address.
	ID() string
	// Kind categorizes the implementation (e.g. "sourcing", "supervisor").
	Kind() string
	// Capabilities lists the self-declared capability tags for the record
	// the bus registry stores.
	Capabilities() []string
	// Receive is the delivery entry point invoked by the bus. A non-nil
	// error indicates a kernel-level delivery fault, not a handler fault;
	// the bus logs it and does not surface it to the sender.
	Receive(env Envelope) error
}

// AgentRecord is the registry entry the bus stores per registered agent.
type AgentRecord struct {
	ID           string      `json:"agent_id"`
	Kind         string      `json:"agent_type"`
	Capabilities []string    `json:"capabilities"`
	Status       AgentStatus `json:"status"`
}

// Bus is the routing contract the kernel exposes to agents. A bus instance is
// constructed explicitly and passed to every agent at construction; there is
// no process-global instance.
type Bus interface {
	// Register stores the agent's record and makes it routable. Calling it
	// twice with the same id replaces the previous registration without
	// duplicating the record.
	Register(agent Agent)
	// Send appends the envelope to history and the conversation index, then
	// delivers it. Send returns only after the delivery and everything it
	// transitively triggered have completed. An unknown destination is
	// logged, not returned as an error.
	Send(env Envelope) error
	// Conversation returns the arrival-ordered envelopes sharing the given
	// conversation id, or an empty slice when none exist.
	Conversation(id string) []Envelope
}
