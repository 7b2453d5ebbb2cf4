package supervisor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsneha-blip/procuremesh/agent"
	"github.com/rsneha-blip/procuremesh/bus"
	"github.com/rsneha-blip/procuremesh/core"
	"github.com/rsneha-blip/procuremesh/session"
	"github.com/rsneha-blip/procuremesh/tool"
)

// recordingBus captures sent envelopes without delivering them.
type recordingBus struct {
	sent []core.Envelope
}

func (b *recordingBus) Register(core.Agent) {}

func (b *recordingBus) Send(env core.Envelope) error {
	b.sent = append(b.sent, env)
	return nil
}

func (b *recordingBus) Conversation(string) []core.Envelope { return nil }

func (b *recordingBus) last(t *testing.T) core.Envelope {
	t.Helper()
	require.NotEmpty(t, b.sent)
	return b.sent[len(b.sent)-1]
}

// fixedSource makes rand deterministic: Float64 always yields v/2^63.
type fixedSource struct{ v int64 }

func (s fixedSource) Int63() int64 { return s.v }
func (s fixedSource) Seed(int64)   {}

func testRequest() map[string]any {
	return map[string]any{
		"item_description": "Laptop computers for development team",
		"category":         "electronics",
		"budget":           80000.0,
		"quantity":         50.0,
		"urgency":          "medium",
		"requested_by":     "engineering",
	}
}

func TestArbitrationTableIsDeterministic(t *testing.T) {
	tests := []struct {
		issue  string
		action string
	}{
		{"insufficient_suppliers_found", "expand_search"},
		{"high_risk_suppliers", "proceed_with_caution"},
		{"supplier_bankruptcy", "human_review_required"},
		{"", "human_review_required"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.action, arbitrate(tt.issue).Action, "issue %q", tt.issue)
	}
}

func TestInitiateCaseStartsSourcing(t *testing.T) {
	b := &recordingBus{}
	s := New(b)

	convID, err := s.InitiateCase(testRequest())
	require.NoError(t, err)
	require.NotEmpty(t, convID)

	out := b.last(t)
	assert.Equal(t, agent.SourcingID, out.To)
	assert.Equal(t, core.OpFindSuppliers, out.Content.RequestType())
	assert.Equal(t, convID, out.ConversationID)

	reqs := out.Content.Map("requirements")
	assert.Equal(t, "electronics", reqs["category"])
	assert.Equal(t, 80000.0, reqs["budget"])

	c, ok := s.CaseStatus(convID)
	require.True(t, ok)
	assert.Equal(t, CaseInitiated, c.Status)
	assert.Contains(t, c.AgentsInvolved, agent.SourcingID)
}

func TestInitiateCaseMirrorsSession(t *testing.T) {
	sessions := session.NewManager()
	s := New(&recordingBus{}, WithSessions(sessions))

	convID, err := s.InitiateCase(testRequest())
	require.NoError(t, err)

	c, _ := s.CaseStatus(convID)
	require.NotEmpty(t, c.SessionID)

	sess, ok := sessions.Session(c.SessionID)
	require.True(t, ok)
	assert.Equal(t, session.StepSourcing, sess.CurrentStep)
	assert.Equal(t, 80000.0, sess.Request.Budget)
}

func TestEscalationGetsGuidance(t *testing.T) {
	b := &recordingBus{}
	s := New(b)
	convID, err := s.InitiateCase(testRequest())
	require.NoError(t, err)

	env := core.NewEnvelope(agent.SourcingID, agent.SupervisorID, core.KindNotification, core.Content{
		core.ContentKeyRequestType: string(core.OpEscalation),
		"issue":                    "insufficient_suppliers_found",
		"recommendation":           "Consider relaxing requirements",
	}, core.WithConversationID(convID))
	require.NoError(t, s.Receive(env))

	out := b.last(t)
	assert.Equal(t, agent.SourcingID, out.To)
	assert.Equal(t, core.KindResponse, out.Kind)
	assert.Equal(t, core.OpEscalationGuidance, out.Content.RequestType())
	decision := out.Content.Map("decision")
	assert.Equal(t, "expand_search", decision["action"])

	escalations := s.Escalations()
	require.Len(t, escalations, 1)
	assert.Equal(t, "insufficient_suppliers_found", escalations[0].Issue)
	assert.Equal(t, "pending_human_review", escalations[0].Status)
}

func TestComplianceEscalationOverridesOnlyForReview(t *testing.T) {
	b := &recordingBus{}
	s := New(b)

	makeEscalation := func(action string) core.Envelope {
		return core.NewEnvelope(agent.ComplianceID, agent.SupervisorID, core.KindNotification, core.Content{
			core.ContentKeyRequestType: string(core.OpComplianceEscalation),
			"agent_decision":           map[string]any{"action": action},
			"compliance_results": map[string]any{
				"approved": []any{map[string]any{"id": "supplier_002"}},
			},
		})
	}

	require.NoError(t, s.Receive(makeEscalation("escalate_for_review")))
	out := b.last(t)
	assert.Equal(t, agent.ComplianceID, out.To)
	assert.Equal(t, core.OpSupervisorOverride, out.Content.RequestType())
	assert.Len(t, out.Content.Slice("approved_suppliers"), 1)

	// Other embedded actions are intentionally left unanswered.
	before := len(b.sent)
	require.NoError(t, s.Receive(makeEscalation("reject_all_escalate")))
	assert.Len(t, b.sent, before)
}

func TestProcurementCompleteIsTerminal(t *testing.T) {
	b := &recordingBus{}
	s := New(b)
	convID, err := s.InitiateCase(testRequest())
	require.NoError(t, err)

	complete := core.NewEnvelope(agent.NegotiationID, agent.SupervisorID, core.KindResponse, core.Content{
		core.ContentKeyRequestType: string(core.OpProcurementComplete),
		"final_recommendation": map[string]any{
			"recommendation_type": "successful_negotiation",
			"estimated_savings":   12.5,
		},
	}, core.WithConversationID(convID))
	require.NoError(t, s.Receive(complete))

	c, _ := s.CaseStatus(convID)
	assert.Equal(t, CaseCompleted, c.Status)
	assert.Equal(t, OutcomeSuccess, c.Outcome)
	assert.False(t, c.EndedAt.IsZero())

	// A terminal case ignores further lifecycle traffic.
	failure := core.NewEnvelope(agent.NegotiationID, agent.SupervisorID, core.KindNotification, core.Content{
		core.ContentKeyRequestType: string(core.OpNegotiationFailure),
		"failure_details":          map[string]any{"suggested_action": "Expand supplier search"},
	}, core.WithConversationID(convID))
	require.NoError(t, s.Receive(failure))

	c, _ = s.CaseStatus(convID)
	assert.Equal(t, CaseCompleted, c.Status)
}

func TestCompletionRequiresApprovalForLargeBudget(t *testing.T) {
	sessions := session.NewManager()
	tools := tool.NewDefaultRegistry()
	s := New(&recordingBus{}, WithSessions(sessions), WithTools(tools))

	req := testRequest()
	req["budget"] = 150000.0
	convID, err := s.InitiateCase(req)
	require.NoError(t, err)

	complete := core.NewEnvelope(agent.NegotiationID, agent.SupervisorID, core.KindResponse, core.Content{
		core.ContentKeyRequestType: string(core.OpProcurementComplete),
		"final_recommendation":     map[string]any{"estimated_savings": 9.0},
	}, core.WithConversationID(convID))
	require.NoError(t, s.Receive(complete))

	c, _ := s.CaseStatus(convID)
	sess, ok := sessions.Session(c.SessionID)
	require.True(t, ok)
	assert.Equal(t, session.StatusWaitingForApproval, sess.Status)
	assert.Equal(t, session.StepApproval, sess.CurrentStep)
}

func TestCompletionFinishesSessionUnderThreshold(t *testing.T) {
	sessions := session.NewManager()
	tools := tool.NewDefaultRegistry()
	s := New(&recordingBus{}, WithSessions(sessions), WithTools(tools))

	convID, err := s.InitiateCase(testRequest())
	require.NoError(t, err)

	complete := core.NewEnvelope(agent.NegotiationID, agent.SupervisorID, core.KindResponse, core.Content{
		core.ContentKeyRequestType: string(core.OpProcurementComplete),
		"final_recommendation":     map[string]any{"estimated_savings": 9.0},
	}, core.WithConversationID(convID))
	require.NoError(t, s.Receive(complete))

	c, _ := s.CaseStatus(convID)
	sess, _ := sessions.Session(c.SessionID)
	assert.Equal(t, session.StatusCompleted, sess.Status)
	assert.NotNil(t, sess.FinalRecommendation)
}

func TestNegotiationFailureTriggersOneRecovery(t *testing.T) {
	b := &recordingBus{}
	s := New(b)
	convID, err := s.InitiateCase(testRequest())
	require.NoError(t, err)

	failure := core.NewEnvelope(agent.NegotiationID, agent.SupervisorID, core.KindNotification, core.Content{
		core.ContentKeyRequestType: string(core.OpNegotiationFailure),
		"failure_details": map[string]any{
			"message":          "Unable to negotiate acceptable terms with any supplier",
			"suggested_action": "Expand supplier search or adjust requirements",
		},
	}, core.WithConversationID(convID))
	require.NoError(t, s.Receive(failure))

	c, _ := s.CaseStatus(convID)
	assert.Equal(t, CaseFailed, c.Status)
	assert.True(t, c.RecoveryAttempted)

	out := b.last(t)
	assert.Equal(t, agent.SourcingID, out.To)
	assert.Equal(t, core.OpExpandedSearch, out.Content.RequestType())
	assert.Equal(t, convID, out.ConversationID)

	// The recovery succeeds.
	success := core.NewEnvelope(agent.SourcingID, agent.SupervisorID, core.KindResponse, core.Content{
		core.ContentKeyRequestType: string(core.OpExpandedSearchComplete),
		"result":                   "found_alternative_suppliers",
		"supplier_count":           2.0,
		"note":                     "Found suppliers with relaxed compliance requirements",
	}, core.WithConversationID(convID))
	require.NoError(t, s.Receive(success))

	c, _ = s.CaseStatus(convID)
	assert.Equal(t, CaseCompleted, c.Status)
	assert.Equal(t, OutcomeSuccessViaExpandedSearch, c.Outcome)
	assert.Equal(t, 2, c.SupplierCount)
}

func TestExpandedSearchConfirmsMarketLimitations(t *testing.T) {
	b := &recordingBus{}
	s := New(b)
	convID, err := s.InitiateCase(testRequest())
	require.NoError(t, err)

	failure := core.NewEnvelope(agent.NegotiationID, agent.SupervisorID, core.KindNotification, core.Content{
		core.ContentKeyRequestType: string(core.OpNegotiationFailure),
		"failure_details": map[string]any{
			"message":          "no deals",
			"suggested_action": "Expand supplier search",
		},
	}, core.WithConversationID(convID))
	require.NoError(t, s.Receive(failure))

	limit := core.NewEnvelope(agent.SourcingID, agent.SupervisorID, core.KindResponse, core.Content{
		core.ContentKeyRequestType: string(core.OpExpandedSearchComplete),
		"result":                   "insufficient_suppliers_in_market",
		"recommendation":           "Consider alternative procurement strategies",
	}, core.WithConversationID(convID))
	require.NoError(t, s.Receive(limit))

	c, _ := s.CaseStatus(convID)
	assert.Equal(t, CaseMarketLimitations, c.Status)
	assert.Equal(t, OutcomeFailureMarketConstraints, c.Outcome)
	assert.Contains(t, c.FailureReason, "alternative procurement")

	// Terminal: a second expanded-search result changes nothing.
	require.NoError(t, s.Receive(limit))
	c, _ = s.CaseStatus(convID)
	assert.Equal(t, CaseMarketLimitations, c.Status)
}

func TestFailureWithoutRecoverySuggestionStaysFailed(t *testing.T) {
	b := &recordingBus{}
	s := New(b)
	convID, err := s.InitiateCase(testRequest())
	require.NoError(t, err)

	before := len(b.sent)
	failure := core.NewEnvelope(agent.NegotiationID, agent.SupervisorID, core.KindNotification, core.Content{
		core.ContentKeyRequestType: string(core.OpNegotiationFailure),
		"failure_details": map[string]any{
			"message":          "supplier withdrew",
			"suggested_action": "abandon procurement",
		},
	}, core.WithConversationID(convID))
	require.NoError(t, s.Receive(failure))

	c, _ := s.CaseStatus(convID)
	assert.Equal(t, CaseFailed, c.Status)
	assert.False(t, c.RecoveryAttempted)
	assert.Len(t, b.sent, before, "no recovery message sent")
}

func TestAllCasesCounts(t *testing.T) {
	s := New(&recordingBus{})

	first, err := s.InitiateCase(testRequest())
	require.NoError(t, err)
	_, err = s.InitiateCase(testRequest())
	require.NoError(t, err)

	complete := core.NewEnvelope(agent.NegotiationID, agent.SupervisorID, core.KindResponse, core.Content{
		core.ContentKeyRequestType: string(core.OpProcurementComplete),
		"final_recommendation":     map[string]any{},
	}, core.WithConversationID(first))
	require.NoError(t, s.Receive(complete))

	cases, counts := s.AllCases()
	assert.Len(t, cases, 2)
	assert.Equal(t, 1, counts.Active)
	assert.Equal(t, 1, counts.Completed)
}

// TestFullWorkflowOverLiveBus runs the whole mesh end to end: the supervisor
// initiates, sourcing routes through compliance, negotiation closes the deal
// and the supervisor records completion, all within one synchronous Send.
func TestFullWorkflowOverLiveBus(t *testing.T) {
	b := bus.New()
	sessions := session.NewManager()
	tools := tool.NewDefaultRegistry()

	// Float64 draws of 0.5: the single-supplier collaborative negotiation
	// always succeeds.
	sourcing := agent.NewSourcing(b, agent.WithSourcingRand(rand.New(fixedSource{v: 1 << 62})))
	compliance := agent.NewCompliance(b)
	negotiation := agent.NewNegotiation(b, agent.WithNegotiationRand(rand.New(fixedSource{v: 1 << 62})))
	s := New(b, WithSessions(sessions), WithTools(tools))

	b.Register(sourcing)
	b.Register(compliance)
	b.Register(negotiation)
	b.Register(s)

	convID, err := s.InitiateCase(map[string]any{
		"item_description": "Sensor modules",
		"category":         "electronics",
		"budget":           50000.0,
		"quantity":         100.0,
		"urgency":          "medium",
	})
	require.NoError(t, err)

	c, ok := s.CaseStatus(convID)
	require.True(t, ok)
	assert.Equal(t, CaseCompleted, c.Status)
	assert.Equal(t, OutcomeSuccess, c.Outcome)
	assert.Contains(t, c.AgentsInvolved, agent.NegotiationID)

	history := b.Conversation(convID)
	require.NotEmpty(t, history)
	assert.Equal(t, core.OpFindSuppliers, history[0].Content.RequestType())
	last := history[len(history)-1]
	assert.Equal(t, core.OpProcurementComplete, last.Content.RequestType())

	sess, ok := sessions.Session(c.SessionID)
	require.True(t, ok)
	assert.Equal(t, session.StatusCompleted, sess.Status)
}
