package supervisor

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rsneha-blip/procuremesh/agent"
	"github.com/rsneha-blip/procuremesh/core"
	"github.com/rsneha-blip/procuremesh/session"
	"github.com/rsneha-blip/procuremesh/tool"
)

// CaseStatus is the lifecycle state of a procurement case.
type CaseStatus string

const (
	// CaseInitiated is the only non-terminal status.
	CaseInitiated CaseStatus = "initiated"
	// CaseCompleted means the case ended with an accepted deal.
	CaseCompleted CaseStatus = "completed"
	// CaseFailed means negotiation failed. It is terminal except for the one
	// modeled recovery through an expanded search.
	CaseFailed CaseStatus = "failed"
	// CaseMarketLimitations means the recovery search confirmed the market
	// cannot serve the request.
	CaseMarketLimitations CaseStatus = "market_limitations"
)

// Case outcomes, set when a case reaches a terminal status.
const (
	OutcomeSuccess                  = "success"
	OutcomeFailure                  = "failure"
	OutcomeSuccessViaExpandedSearch = "success_via_expanded_search"
	OutcomeFailureMarketConstraints = "failure_market_constraints"
)

// Case is the supervisor's record of one procurement conversation.
type Case struct {
	ConversationID      string
	SessionID           string
	Status              CaseStatus
	Outcome             string
	Request             map[string]any
	AgentsInvolved      []string
	FinalRecommendation map[string]any
	FailureReason       string
	SupplierCount       int
	Note                string
	RecoveryAttempted   bool
	StartedAt           time.Time
	EndedAt             time.Time
}

// Escalation is one recorded escalation and the ruling it received.
type Escalation struct {
	ID             string
	FromAgent      string
	ConversationID string
	Issue          string
	Recommendation string
	Ruling         Ruling
	Status         string
	At             time.Time
}

// CaseCounts summarizes the case map by status.
type CaseCounts struct {
	Active            int
	Completed         int
	Failed            int
	MarketLimitations int
}

// Supervisor arbitrates the procurement mesh. Optional collaborators extend
// it: a session manager mirrors each case as a workflow session; a tool
// registry supplies the approval check applied to completed cases.
type Supervisor struct {
	*agent.BaseAgent

	mu          sync.RWMutex
	cases       map[string]*Case
	escalations []Escalation

	sessions *session.Manager
	tools    *tool.Registry
	now      func() time.Time
}

var _ core.Agent = (*Supervisor)(nil)

// Options holds optional overrides for New.
type Options struct {
	// Sessions, when set, mirrors every case as a workflow session.
	Sessions *session.Manager
	// Tools, when set, supplies the approval_check tool consulted on
	// completed cases.
	Tools *tool.Registry
	// Now overrides the clock.
	Now  func() time.Time
	Base []func(o *agent.BaseAgentOptions)
}

// WithSessions wires the workflow session manager.
func WithSessions(m *session.Manager) func(o *Options) {
	return func(o *Options) { o.Sessions = m }
}

// WithTools wires the tool registry.
func WithTools(r *tool.Registry) func(o *Options) {
	return func(o *Options) { o.Tools = r }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) func(o *Options) {
	return func(o *Options) { o.Now = now }
}

// WithBase forwards options to the embedded BaseAgent.
func WithBase(optFns ...func(o *agent.BaseAgentOptions)) func(o *Options) {
	return func(o *Options) { o.Base = optFns }
}

// New constructs the supervisor bound to a bus.
func New(bus core.Bus, optFns ...func(o *Options)) *Supervisor {
	opts := Options{Now: func() time.Time { return time.Now().UTC() }}
	for _, fn := range optFns {
		fn(&opts)
	}

	base := append([]func(o *agent.BaseAgentOptions){
		agent.WithCapabilities("workflow_facilitation", "escalation_handling", "decision_arbitration"),
	}, opts.Base...)

	s := &Supervisor{
		BaseAgent: agent.NewBaseAgent(agent.SupervisorID, "supervisor", bus, base...),
		cases:     make(map[string]*Case),
		sessions:  opts.Sessions,
		tools:     opts.Tools,
		now:       opts.Now,
	}

	for op, h := range map[core.Op]agent.Handler{
		core.OpEscalation:             s.handleEscalation,
		core.OpComplianceEscalation:   s.handleComplianceEscalation,
		core.OpProcurementComplete:    s.handleProcurementComplete,
		core.OpNegotiationFailure:     s.handleNegotiationFailure,
		core.OpExpandedSearchComplete: s.handleExpandedSearchComplete,
	} {
		if err := s.Handle(op, h); err != nil {
			panic(err)
		}
	}
	return s
}

// InitiateCase opens a new procurement case: it mints the conversation,
// records the case, mirrors it as a session when one is wired, and hands the
// request to the sourcing agent. It returns the conversation id.
func (s *Supervisor) InitiateCase(request map[string]any) (string, error) {
	conversationID := core.NewID()
	now := s.now()

	c := &Case{
		ConversationID: conversationID,
		Status:         CaseInitiated,
		Request:        request,
		AgentsInvolved: []string{agent.SourcingID},
		StartedAt:      now,
	}

	if s.sessions != nil {
		budget, _ := request["budget"].(float64)
		quantity, _ := request["quantity"].(float64)
		item, _ := request["item_description"].(string)
		urgency, _ := request["urgency"].(string)
		category, _ := request["category"].(string)
		requestedBy, _ := request["requested_by"].(string)
		c.SessionID = s.sessions.CreateSession(session.Request{
			ID:              conversationID,
			ItemDescription: item,
			Quantity:        int(quantity),
			Budget:          budget,
			Urgency:         urgency,
			Category:        category,
			Requirements:    request,
			RequestedBy:     requestedBy,
		})
	}

	s.mu.Lock()
	s.cases[conversationID] = c
	s.mu.Unlock()

	quantity, ok := request["quantity"].(float64)
	if !ok {
		quantity = 1
	}
	urgency, _ := request["urgency"].(string)
	if urgency == "" {
		urgency = "medium"
	}

	_, err := s.Send(agent.SourcingID, core.KindRequest, core.Content{
		core.ContentKeyRequestType: string(core.OpFindSuppliers),
		"requirements": map[string]any{
			"category": request["category"],
			"budget":   request["budget"],
			"quantity": quantity,
			"urgency":  urgency,
		},
		core.ContentKeySummary: fmt.Sprintf("New procurement request for %v", request["item_description"]),
	}, conversationID)
	if err != nil {
		return "", err
	}
	return conversationID, nil
}

func (s *Supervisor) handleEscalation(env core.Envelope) error {
	issue := env.Content.String("issue")
	ruling := arbitrate(issue)

	s.mu.Lock()
	s.escalations = append(s.escalations, Escalation{
		ID:             core.NewID(),
		FromAgent:      env.From,
		ConversationID: env.ConversationID,
		Issue:          issue,
		Recommendation: env.Content.String("recommendation"),
		Ruling:         ruling,
		Status:         "pending_human_review",
		At:             s.now(),
	})
	s.noteAgentLocked(env.ConversationID, env.From)
	s.mu.Unlock()

	_, err := s.Send(env.From, core.KindResponse, core.Content{
		core.ContentKeyRequestType: string(core.OpEscalationGuidance),
		"decision": map[string]any{
			"action":    ruling.Action,
			"guidance":  ruling.Guidance,
			"rationale": ruling.Rationale,
		},
		"guidance":             ruling.Guidance,
		core.ContentKeySummary: fmt.Sprintf("Supervisor decision: %s", ruling.Action),
	}, env.ConversationID)
	return err
}

func (s *Supervisor) handleComplianceEscalation(env core.Envelope) error {
	decision := env.Content.Map("agent_decision")
	action, _ := decision["action"].(string)

	s.mu.Lock()
	s.noteAgentLocked(env.ConversationID, env.From)
	s.mu.Unlock()

	// Only escalate_for_review gets an override; other embedded actions end
	// the exchange here.
	if action != "escalate_for_review" {
		return nil
	}

	results := env.Content.Map("compliance_results")
	approved, _ := results["approved"].([]any)

	_, err := s.Send(agent.ComplianceID, core.KindResponse, core.Content{
		core.ContentKeyRequestType: string(core.OpSupervisorOverride),
		"decision": map[string]any{
			"action":    "override_approval",
			"rationale": "Risk is acceptable for business needs",
			"conditions": []any{
				"Additional monitoring required",
				"Quarterly performance review",
			},
		},
		"approved_suppliers":   approved,
		core.ContentKeySummary: "Supervisor approved with conditions",
	}, env.ConversationID)
	return err
}

func (s *Supervisor) handleProcurementComplete(env core.Envelope) error {
	rec := env.Content.Map("final_recommendation")

	s.mu.Lock()
	c, ok := s.cases[env.ConversationID]
	if !ok || c.Status != CaseInitiated {
		s.mu.Unlock()
		return nil
	}
	c.Status = CaseCompleted
	c.Outcome = OutcomeSuccess
	c.FinalRecommendation = rec
	c.EndedAt = s.now()
	s.noteAgentLocked(env.ConversationID, env.From)
	sessionID := c.SessionID
	budget, _ := c.Request["budget"].(float64)
	s.mu.Unlock()

	if s.sessions != nil && sessionID != "" {
		s.completeSession(sessionID, env.ConversationID, rec, budget)
	}
	return nil
}

// completeSession walks the mirrored workflow to its end: the three
// collaborator steps complete with the negotiated outcome, and the approval
// step either completes or parks the session for human sign-off when the
// approval check demands it.
func (s *Supervisor) completeSession(sessionID, conversationID string, rec map[string]any, budget float64) {
	result := map[string]any{"conversation_id": conversationID}
	s.sessions.AdvanceWorkflow(sessionID, session.StepSourcing, result)
	s.sessions.AdvanceWorkflow(sessionID, session.StepCompliance, result)
	s.sessions.AdvanceWorkflow(sessionID, session.StepNegotiation, rec)
	s.sessions.SetFinalRecommendation(sessionID, rec)

	if s.approvalRequired(budget) {
		s.sessions.RequireHumanApproval(sessionID, "procurement amount requires human approval", map[string]any{
			"amount":         budget,
			"recommendation": rec,
		})
		return
	}
	s.sessions.AdvanceWorkflow(sessionID, session.StepApproval, map[string]any{"approved": true})
}

// approvalRequired consults the approval_check tool when a registry is wired.
func (s *Supervisor) approvalRequired(amount float64) bool {
	if s.tools == nil {
		return false
	}
	res := s.tools.Call("supervisor", "approval_check", map[string]any{
		"decision_type": "procurement_approval",
		"amount":        amount,
	})
	if res.Status != tool.StatusOK {
		return false
	}
	result, _ := res.Result.(map[string]any)
	required, _ := result["approval_required"].(bool)
	return required
}

func (s *Supervisor) handleNegotiationFailure(env core.Envelope) error {
	details := env.Content.Map("failure_details")
	reason, _ := details["message"].(string)
	suggested, _ := details["suggested_action"].(string)

	s.mu.Lock()
	c, ok := s.cases[env.ConversationID]
	if !ok || c.Status != CaseInitiated {
		s.mu.Unlock()
		return nil
	}
	c.Status = CaseFailed
	c.Outcome = OutcomeFailure
	c.FailureReason = reason
	c.EndedAt = s.now()
	s.noteAgentLocked(env.ConversationID, env.From)

	attemptRecovery := strings.Contains(strings.ToLower(suggested), "expand supplier search") && !c.RecoveryAttempted
	if attemptRecovery {
		c.RecoveryAttempted = true
	}
	sessionID := c.SessionID
	s.mu.Unlock()

	if !attemptRecovery {
		if s.sessions != nil && sessionID != "" {
			s.sessions.FailWorkflow(sessionID, reason)
		}
		return nil
	}

	_, err := s.Send(agent.SourcingID, core.KindRequest, core.Content{
		core.ContentKeyRequestType: string(core.OpExpandedSearch),
		"original_request":         env.Content.Map("original_request"),
		"adjustments":              []any{"expand_categories", "relax_compliance_10_percent"},
		core.ContentKeySummary:     "Supervisor requesting expanded search after negotiation failure",
	}, env.ConversationID)
	return err
}

func (s *Supervisor) handleExpandedSearchComplete(env core.Envelope) error {
	result := env.Content.String("result")

	s.mu.Lock()
	c, ok := s.cases[env.ConversationID]
	// Only the one modeled recovery path may leave the failed state.
	if !ok || c.Status != CaseFailed || !c.RecoveryAttempted {
		s.mu.Unlock()
		return nil
	}

	if result == "found_alternative_suppliers" {
		c.Status = CaseCompleted
		c.Outcome = OutcomeSuccessViaExpandedSearch
		if count, ok := env.Content["supplier_count"].(float64); ok {
			c.SupplierCount = int(count)
		} else {
			c.SupplierCount = 1
		}
		c.Note = env.Content.String("note")
	} else {
		c.Status = CaseMarketLimitations
		c.Outcome = OutcomeFailureMarketConstraints
		c.FailureReason = env.Content.String("recommendation")
		if c.FailureReason == "" {
			c.FailureReason = "Market limitations identified"
		}
	}
	c.EndedAt = s.now()
	s.noteAgentLocked(env.ConversationID, env.From)
	sessionID := c.SessionID
	status := c.Status
	reason := c.FailureReason
	note := c.Note
	s.mu.Unlock()

	if s.sessions == nil || sessionID == "" {
		return nil
	}
	if status == CaseCompleted {
		s.sessions.SetFinalRecommendation(sessionID, map[string]any{
			"recommendation_type": OutcomeSuccessViaExpandedSearch,
			"note":                note,
		})
	} else {
		s.sessions.FailWorkflow(sessionID, reason)
	}
	return nil
}

// CaseStatus returns a snapshot of one case.
func (s *Supervisor) CaseStatus(conversationID string) (Case, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[conversationID]
	if !ok {
		return Case{}, false
	}
	return snapshotCase(c), true
}

// AllCases returns snapshots of every case, ordered by start time, along with
// the per-status counts.
func (s *Supervisor) AllCases() ([]Case, CaseCounts) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Case, 0, len(s.cases))
	var counts CaseCounts
	for _, c := range s.cases {
		out = append(out, snapshotCase(c))
		switch c.Status {
		case CaseInitiated:
			counts.Active++
		case CaseCompleted:
			counts.Completed++
		case CaseFailed:
			counts.Failed++
		case CaseMarketLimitations:
			counts.MarketLimitations++
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, counts
}

// Escalations returns a copy of the recorded escalations.
func (s *Supervisor) Escalations() []Escalation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Escalation(nil), s.escalations...)
}

// noteAgentLocked records a collaborator as involved in a case. Callers hold
// s.mu.
func (s *Supervisor) noteAgentLocked(conversationID, agentID string) {
	c, ok := s.cases[conversationID]
	if !ok || agentID == agent.SupervisorID {
		return
	}
	for _, id := range c.AgentsInvolved {
		if id == agentID {
			return
		}
	}
	c.AgentsInvolved = append(c.AgentsInvolved, agentID)
}

func snapshotCase(c *Case) Case {
	cp := *c
	cp.AgentsInvolved = append([]string(nil), c.AgentsInvolved...)
	return cp
}
