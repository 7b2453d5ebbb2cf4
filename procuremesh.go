// Package procuremesh provides a high-level façade over the message bus and
// the procurement agents, enabling construction of a complete in-process
// procurement mesh in a few lines. Most applications interact with this
// package by:
//  1. Creating a System via New() (optionally overriding settings, catalog,
//     policy, tooling or logging)
//  2. Initiating procurement cases with InitiateProcurement
//  3. Inspecting outcomes through Cases, SessionSummary, Conversation and
//     the traffic Collector
//
// The façade delegates routing to bus.InMemoryBus and orchestration to
// supervisor.Supervisor while keeping setup ergonomics concise. All defaults
// are safe for local development and testing; larger deployments typically
// supply tuned config.Settings and a structured logger.
package procuremesh

import (
	"github.com/rsneha-blip/procuremesh/agent"
	"github.com/rsneha-blip/procuremesh/bus"
	"github.com/rsneha-blip/procuremesh/config"
	"github.com/rsneha-blip/procuremesh/core"
	"github.com/rsneha-blip/procuremesh/logging"
	"github.com/rsneha-blip/procuremesh/memory"
	"github.com/rsneha-blip/procuremesh/observe"
	"github.com/rsneha-blip/procuremesh/session"
	"github.com/rsneha-blip/procuremesh/supervisor"
	"github.com/rsneha-blip/procuremesh/tool"
)

// Options configures the System instance.
type Options struct {
	// Settings tunes session TTL, bus history bounds and log level.
	Settings config.Settings

	// Catalog overrides the built-in supplier catalog used by the sourcing
	// agent. Nil keeps agent.DefaultCatalog.
	Catalog []agent.Supplier

	// Policy overrides the compliance policy. Nil keeps agent.DefaultPolicy.
	Policy *agent.Policy

	// Memory holds supplier performance history consumed by the negotiation
	// agent. Defaults to an empty in-memory store.
	Memory memory.Store

	// Tools overrides the tool registry. Defaults to the procurement tool
	// set; a workflow_status tool bound to the session manager is added
	// either way.
	Tools *tool.Registry

	// Logger overrides the logger derived from Settings.LogLevel.
	Logger logging.Logger

	// Observers are additional traffic observers subscribed to the bus
	// alongside the built-in collector.
	Observers []core.Observer
}

// WithSettings overrides the default config.Settings.
func WithSettings(s config.Settings) func(o *Options) {
	return func(o *Options) { o.Settings = s }
}

// WithCatalog overrides the sourcing agent's supplier catalog.
func WithCatalog(catalog []agent.Supplier) func(o *Options) {
	return func(o *Options) { o.Catalog = catalog }
}

// WithPolicy overrides the compliance policy.
func WithPolicy(p agent.Policy) func(o *Options) {
	return func(o *Options) { o.Policy = &p }
}

// WithMemory wires a supplier performance store.
func WithMemory(s memory.Store) func(o *Options) {
	return func(o *Options) { o.Memory = s }
}

// WithTools overrides the default tool registry.
func WithTools(r *tool.Registry) func(o *Options) {
	return func(o *Options) { o.Tools = r }
}

// WithLogger overrides the logger derived from the settings.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithObservers subscribes additional traffic observers.
func WithObservers(obs ...core.Observer) func(o *Options) {
	return func(o *Options) { o.Observers = append(o.Observers, obs...) }
}

// System is the high-level façade aggregating the bus, the agents and their
// supporting services.
type System struct {
	opts        Options
	bus         *bus.InMemoryBus
	sessions    *session.Manager
	tools       *tool.Registry
	collector   *observe.Collector
	supervisor  *supervisor.Supervisor
	sourcing    *agent.Sourcing
	compliance  *agent.Compliance
	negotiation *agent.Negotiation
}

// New creates a fully wired System with optional overrides. Any unset service
// is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *System {
	opts := Options{
		Settings: config.Default(),
		Memory:   memory.NewInMemoryStore(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		level := logging.ParseLevel(opts.Settings.LogLevel)
		if opts.Settings.Debug {
			level = logging.LogLevelDebug
		}
		logger = logging.NewSlogLogger(level, "text", false)
	}

	b := bus.New(func(o *bus.Options) {
		o.HistoryLimit = opts.Settings.HistoryLimit
		o.Logger = logger
	})

	collector := observe.NewCollector()
	b.Subscribe(collector)
	for _, obs := range opts.Observers {
		b.Subscribe(obs)
	}
	if opts.Settings.Debug {
		b.Subscribe(core.ObserverFunc(func(ev core.TrafficEvent) {
			logger.Debug("bus traffic",
				"direction", string(ev.Direction), "from_agent", ev.From, "to_agent", ev.To,
				"message_type", string(ev.Kind), "conversation_id", ev.ConversationID, "delivered", ev.Delivered)
		}))
	}

	sessions := session.NewManager(
		session.WithTTL(opts.Settings.SessionTTL),
		session.WithMaxSessions(opts.Settings.MaxSessions),
		session.WithLogger(logger),
	)

	tools := opts.Tools
	if tools == nil {
		tools = tool.NewDefaultRegistry(tool.WithLogger(logger))
	}
	registerWorkflowStatusTool(tools, sessions)

	sourcingOpts := []func(o *agent.SourcingOptions){
		agent.WithSourcingBase(agent.WithLogger(logger)),
	}
	if opts.Catalog != nil {
		sourcingOpts = append(sourcingOpts, agent.WithCatalog(opts.Catalog))
	}

	complianceOpts := []func(o *agent.ComplianceOptions){
		agent.WithComplianceBase(agent.WithLogger(logger)),
	}
	if opts.Policy != nil {
		complianceOpts = append(complianceOpts, agent.WithPolicy(*opts.Policy))
	}

	sys := &System{
		opts:       opts,
		bus:        b,
		sessions:   sessions,
		tools:      tools,
		collector:  collector,
		sourcing:   agent.NewSourcing(b, sourcingOpts...),
		compliance: agent.NewCompliance(b, complianceOpts...),
		negotiation: agent.NewNegotiation(b,
			agent.WithStore(opts.Memory),
			agent.WithNegotiationBase(agent.WithLogger(logger)),
		),
		supervisor: supervisor.New(b,
			supervisor.WithSessions(sessions),
			supervisor.WithTools(tools),
			supervisor.WithBase(agent.WithLogger(logger)),
		),
	}

	for _, a := range []core.Agent{sys.sourcing, sys.compliance, sys.negotiation, sys.supervisor} {
		b.Register(a)
	}
	return sys
}

// InitiateProcurement opens a new procurement case and returns its
// conversation id. The request carries item, category, quantity, budget
// and urgency the way the sourcing agent expects them.
func (s *System) InitiateProcurement(request map[string]any) (string, error) {
	return s.supervisor.InitiateCase(request)
}

// Case returns a snapshot of the case tracked under the conversation id.
func (s *System) Case(conversationID string) (supervisor.Case, bool) {
	return s.supervisor.CaseStatus(conversationID)
}

// Cases returns snapshots of every case ordered by start time, with counts
// per lifecycle state.
func (s *System) Cases() ([]supervisor.Case, supervisor.CaseCounts) {
	return s.supervisor.AllCases()
}

// Escalations returns the supervisor's escalation log.
func (s *System) Escalations() []supervisor.Escalation {
	return s.supervisor.Escalations()
}

// Conversation returns the arrival-ordered message history for one
// conversation.
func (s *System) Conversation(conversationID string) []core.Envelope {
	return s.bus.Conversation(conversationID)
}

// SessionSummary renders the workflow session mirroring a case as plain maps
// for reporting.
func (s *System) SessionSummary(sessionID string) (map[string]any, bool) {
	return s.sessions.ExportSummary(sessionID)
}

// ResolveApproval records a human decision for a session parked in
// waiting_for_approval.
func (s *System) ResolveApproval(sessionID string, approved bool, notes string) bool {
	return s.sessions.ResolveApproval(sessionID, approved, notes)
}

// Sessions exposes the workflow session manager.
func (s *System) Sessions() *session.Manager { return s.sessions }

// Tools exposes the tool registry.
func (s *System) Tools() *tool.Registry { return s.tools }

// Traffic exposes the built-in traffic collector.
func (s *System) Traffic() *observe.Collector { return s.collector }

// Bus exposes the underlying message bus.
func (s *System) Bus() core.Bus { return s.bus }

// registerWorkflowStatusTool binds a workflow_status tool to the session
// manager. The default registry deliberately omits it because it needs a
// live manager.
func registerWorkflowStatusTool(r *tool.Registry, sessions *session.Manager) {
	t := tool.NewFunctionTool(
		"workflow_status",
		"Report the current status of a procurement workflow session",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"session_id": map[string]any{
					"type":        "string",
					"description": "Workflow session identifier",
				},
			},
			"required": []any{"session_id"},
		},
		func(args map[string]any) (any, error) {
			id, _ := args["session_id"].(string)
			summary, ok := sessions.ExportSummary(id)
			if !ok {
				return nil, tool.NewToolError("workflow_status", "session not found: "+id, "NOT_FOUND")
			}
			return summary, nil
		},
	)
	// Register only fails for nil or unnamed tools.
	_ = r.Register(tool.Definition{
		Tool:          t,
		Category:      tool.CategoryWorkflow,
		AllowedAgents: []string{"all"},
	})
}
