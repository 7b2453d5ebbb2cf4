package procuremesh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsneha-blip/procuremesh/agent"
	"github.com/rsneha-blip/procuremesh/config"
	"github.com/rsneha-blip/procuremesh/core"
	"github.com/rsneha-blip/procuremesh/internal/testutil"
	"github.com/rsneha-blip/procuremesh/logging"
	"github.com/rsneha-blip/procuremesh/memory"
	"github.com/rsneha-blip/procuremesh/supervisor"
	"github.com/rsneha-blip/procuremesh/tool"
)

// provenCatalog holds two suppliers that clear every compliance check.
func provenCatalog(tier string) []agent.Supplier {
	return []agent.Supplier{
		{
			ID: "supplier_a", Name: "Apex Components", Capabilities: []string{"electronics"},
			ComplianceScore: 95, FinancialRating: "A", PricingTier: tier,
			LeadTimeDays: 7, Certifications: []string{"ISO_9001"},
		},
		{
			ID: "supplier_b", Name: "Beacon Electronics", Capabilities: []string{"electronics"},
			ComplianceScore: 92, FinancialRating: "A", PricingTier: tier,
			LeadTimeDays: 9, Certifications: []string{"ISO_9001"},
		},
	}
}

// provenStore seeds enough flawless orders to give both suppliers a top
// scorecard, which makes every simulated negotiation succeed.
func provenStore() memory.Store {
	store := memory.NewInMemoryStore()
	for _, id := range []string{"supplier_a", "supplier_b"} {
		for i := 0; i < 12; i++ {
			store.RecordOrder(memory.OrderOutcome{
				SupplierID: id, OnTime: true, SavingsPct: 5,
				At: time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC),
			})
		}
	}
	return store
}

func TestNewWiresDefaults(t *testing.T) {
	sys := New()

	names := sys.Tools().ListAll()
	assert.Contains(t, names, "supplier_search")
	assert.Contains(t, names, "workflow_status")

	assert.Equal(t, 0, sys.Sessions().Count())
	assert.NotNil(t, sys.Traffic())
	assert.NotNil(t, sys.Bus())
}

func TestEndToEndProcurementCompletes(t *testing.T) {
	sys := New(
		WithCatalog(provenCatalog("mid-range")),
		WithMemory(provenStore()),
	)

	conversationID, err := sys.InitiateProcurement(
		testutil.NewRequestBuilder("circuit boards").
			Category("electronics").Quantity(100).Budget(50000).Urgency("medium").Build(),
	)
	require.NoError(t, err)

	c, ok := sys.Case(conversationID)
	require.True(t, ok)
	assert.Equal(t, supervisor.CaseCompleted, c.Status)
	assert.Equal(t, supervisor.OutcomeSuccess, c.Outcome)

	history := sys.Conversation(conversationID)
	require.NotEmpty(t, history)
	assert.Equal(t, core.OpFindSuppliers, history[0].Content.RequestType())
	assert.Equal(t, core.OpProcurementComplete, history[len(history)-1].Content.RequestType())

	summary, ok := sys.SessionSummary(c.SessionID)
	require.True(t, ok)
	assert.Equal(t, "completed", summary["status"])

	// The workflow_status tool reads the same session through the registry.
	res := sys.Tools().Call("supervisor", "workflow_status", map[string]any{"session_id": c.SessionID})
	require.Equal(t, tool.StatusOK, res.Status)

	spans := sys.Traffic().Spans()
	assert.NotEmpty(t, spans)
	for _, span := range spans {
		assert.Equal(t, conversationID, span.ConversationID)
	}
}

func TestLargeBudgetParksForApproval(t *testing.T) {
	sys := New(
		WithCatalog(provenCatalog("premium")),
		WithMemory(provenStore()),
	)

	conversationID, err := sys.InitiateProcurement(
		testutil.NewRequestBuilder("assembly line retrofit").
			Category("electronics").Quantity(10).Budget(150000).Urgency("medium").Build(),
	)
	require.NoError(t, err)

	c, ok := sys.Case(conversationID)
	require.True(t, ok)
	assert.Equal(t, supervisor.CaseCompleted, c.Status)

	summary, ok := sys.SessionSummary(c.SessionID)
	require.True(t, ok)
	require.Equal(t, "waiting_for_approval", summary["status"])

	assert.True(t, sys.ResolveApproval(c.SessionID, true, "reviewed by category manager"))
	summary, _ = sys.SessionSummary(c.SessionID)
	assert.Equal(t, "approved", summary["status"])
}

func TestUnsourcableCategoryEscalates(t *testing.T) {
	sys := New()

	conversationID, err := sys.InitiateProcurement(
		testutil.NewRequestBuilder("lab reagents").
			Category("pharmaceuticals").Quantity(5).Budget(20000).Build(),
	)
	require.NoError(t, err)

	escalations := sys.Escalations()
	require.Len(t, escalations, 1)
	assert.Equal(t, "insufficient_suppliers_found", escalations[0].Issue)

	// Guidance alone does not resolve the case.
	c, ok := sys.Case(conversationID)
	require.True(t, ok)
	assert.Equal(t, supervisor.CaseInitiated, c.Status)

	_, counts := sys.Cases()
	assert.Equal(t, 1, counts.Active)
}

func TestConversationHistoryIsIsolatedPerCase(t *testing.T) {
	sys := New(
		WithCatalog(provenCatalog("mid-range")),
		WithMemory(provenStore()),
	)

	first, err := sys.InitiateProcurement(
		testutil.NewRequestBuilder("sensors").Category("electronics").Quantity(10).Budget(10000).Build(),
	)
	require.NoError(t, err)
	second, err := sys.InitiateProcurement(
		testutil.NewRequestBuilder("relays").Category("electronics").Quantity(10).Budget(10000).Build(),
	)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	for _, env := range sys.Conversation(first) {
		assert.Equal(t, first, env.ConversationID)
	}
	for _, env := range sys.Conversation(second) {
		assert.Equal(t, second, env.ConversationID)
	}

	cases, counts := sys.Cases()
	assert.Len(t, cases, 2)
	assert.Equal(t, 2, counts.Completed)
}

func TestWorkflowStatusToolReportsMissingSession(t *testing.T) {
	sys := New()
	res := sys.Tools().Call("supervisor", "workflow_status", map[string]any{"session_id": "absent"})
	assert.Equal(t, tool.StatusError, res.Status)
	assert.Contains(t, res.Error, "absent")
}

var _ core.Observer = (*countingObserver)(nil)

type countingObserver struct{ events int }

func (c *countingObserver) ObserveTraffic(core.TrafficEvent) { c.events++ }

func TestAdditionalObserversSeeTraffic(t *testing.T) {
	obs := &countingObserver{}
	sys := New(
		WithObservers(obs),
		WithCatalog(provenCatalog("mid-range")),
		WithMemory(provenStore()),
	)

	_, err := sys.InitiateProcurement(
		testutil.NewRequestBuilder("cabling").Category("electronics").Quantity(10).Budget(5000).Build(),
	)
	require.NoError(t, err)
	assert.Greater(t, obs.events, 0)
}

func TestNewRegistersAgentsOnBus(t *testing.T) {
	sys := New()

	for _, id := range []string{agent.SourcingID, agent.ComplianceID, agent.NegotiationID, agent.SupervisorID} {
		rec, ok := sys.bus.Record(id)
		require.True(t, ok, id)
		assert.Equal(t, id, rec.ID)
	}
}

func TestSessionCapStopsMirroringNewCases(t *testing.T) {
	settings := config.Default()
	settings.MaxSessions = 1
	sys := New(
		WithSettings(settings),
		WithCatalog(provenCatalog("mid-range")),
		WithMemory(provenStore()),
	)

	first, err := sys.InitiateProcurement(
		testutil.NewRequestBuilder("sensors").Category("electronics").Quantity(10).Budget(10000).Build(),
	)
	require.NoError(t, err)
	second, err := sys.InitiateProcurement(
		testutil.NewRequestBuilder("relays").Category("electronics").Quantity(10).Budget(10000).Build(),
	)
	require.NoError(t, err)

	c1, ok := sys.Case(first)
	require.True(t, ok)
	assert.NotEmpty(t, c1.SessionID)

	c2, ok := sys.Case(second)
	require.True(t, ok)
	assert.Empty(t, c2.SessionID)
	assert.Equal(t, supervisor.CaseCompleted, c2.Status)

	assert.Equal(t, 1, sys.Sessions().Count())
}

var _ logging.Logger = (*recordingLogger)(nil)

type recordingLogger struct{ debugMsgs []string }

func (l *recordingLogger) Debug(msg string, args ...any) { l.debugMsgs = append(l.debugMsgs, msg) }
func (l *recordingLogger) Info(string, ...any)           {}
func (l *recordingLogger) Warn(string, ...any)           {}
func (l *recordingLogger) Error(string, ...any)          {}

func TestDebugSettingTracesBusTraffic(t *testing.T) {
	settings := config.Default()
	settings.Debug = true
	lg := &recordingLogger{}
	sys := New(WithSettings(settings), WithLogger(lg))

	_, err := sys.InitiateProcurement(
		testutil.NewRequestBuilder("lab reagents").Category("pharmaceuticals").Quantity(5).Budget(1000).Build(),
	)
	require.NoError(t, err)
	assert.Contains(t, lg.debugMsgs, "bus traffic")
}
