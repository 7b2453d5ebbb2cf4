package observe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsneha-blip/procuremesh/core"
)

func sendEvent(id, from, to, conv string, kind core.Kind, at time.Time, delivered bool) core.TrafficEvent {
	return core.TrafficEvent{
		Direction:      core.TrafficSend,
		EnvelopeID:     id,
		From:           from,
		To:             to,
		Kind:           kind,
		ConversationID: conv,
		Timestamp:      at,
		Delivered:      delivered,
	}
}

func receiveEvent(id string, at time.Time) core.TrafficEvent {
	return core.TrafficEvent{
		Direction:  core.TrafficReceive,
		EnvelopeID: id,
		Timestamp:  at,
	}
}

func TestCollectorPairsSendAndReceive(t *testing.T) {
	c := NewCollector()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	c.ObserveTraffic(sendEvent("m1", "supervisor_agent", "sourcing_agent", "conv-1", core.KindRequest, start, true))
	assert.Equal(t, 1, c.OpenSpans())

	c.ObserveTraffic(receiveEvent("m1", start.Add(5*time.Millisecond)))
	assert.Equal(t, 0, c.OpenSpans())

	spans := c.Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, SpanOK, spans[0].Status)
	assert.Equal(t, 5*time.Millisecond, spans[0].Duration)
	assert.Equal(t, "sourcing_agent", spans[0].To)
}

func TestCollectorSurfacesUndeliveredSends(t *testing.T) {
	c := NewCollector()
	at := time.Now().UTC()

	c.ObserveTraffic(sendEvent("m1", "sourcing_agent", "ghost_agent", "conv-1", core.KindRequest, at, false))

	assert.Equal(t, 0, c.OpenSpans())
	spans := c.Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, SpanUndelivered, spans[0].Status)

	m, ok := c.RouteMetricsFor("sourcing_agent", "ghost_agent")
	require.True(t, ok)
	assert.Equal(t, 1, m.UndeliveredCount)
}

func TestCollectorRouteMetrics(t *testing.T) {
	c := NewCollector()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	c.ObserveTraffic(sendEvent("m1", "a", "b", "conv-1", core.KindRequest, start, true))
	c.ObserveTraffic(receiveEvent("m1", start.Add(2*time.Millisecond)))
	c.ObserveTraffic(sendEvent("m2", "a", "b", "conv-1", core.KindRequest, start, true))
	c.ObserveTraffic(receiveEvent("m2", start.Add(6*time.Millisecond)))

	m, ok := c.RouteMetricsFor("a", "b")
	require.True(t, ok)
	assert.Equal(t, 2, m.Count)
	assert.Equal(t, 2*time.Millisecond, m.MinDuration)
	assert.Equal(t, 6*time.Millisecond, m.MaxDuration)
	assert.Equal(t, 4*time.Millisecond, m.AvgDuration())

	all := c.AllRouteMetrics()
	require.Len(t, all, 1)
	assert.Equal(t, "a->b", all[0].Route)
}

func TestCollectorConversationSummary(t *testing.T) {
	c := NewCollector()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	c.ObserveTraffic(sendEvent("m1", "supervisor_agent", "sourcing_agent", "conv-1", core.KindRequest, start, true))
	c.ObserveTraffic(sendEvent("m2", "sourcing_agent", "compliance_agent", "conv-1", core.KindRequest, start.Add(time.Millisecond), true))
	c.ObserveTraffic(sendEvent("m3", "compliance_agent", "sourcing_agent", "conv-1", core.KindError, start.Add(2*time.Millisecond), true))
	c.ObserveTraffic(sendEvent("m4", "x", "y", "conv-2", core.KindRequest, start, true))

	s, ok := c.Conversation("conv-1")
	require.True(t, ok)
	assert.Equal(t, 3, s.MessageCount)
	assert.Equal(t, 1, s.ErrorCount)
	assert.Equal(t, []string{"compliance_agent", "sourcing_agent", "supervisor_agent"}, s.Participants)
	assert.Equal(t, start, s.FirstAt)
	assert.Equal(t, start.Add(2*time.Millisecond), s.LastAt)

	_, ok = c.Conversation("conv-missing")
	assert.False(t, ok)
}

func TestCollectorReset(t *testing.T) {
	c := NewCollector()
	c.ObserveTraffic(sendEvent("m1", "a", "b", "conv-1", core.KindRequest, time.Now(), true))
	c.Reset()
	assert.Equal(t, 0, c.OpenSpans())
	assert.Empty(t, c.Spans())
	assert.Empty(t, c.AllRouteMetrics())
}

func TestOTelObserverTracksOpenSpans(t *testing.T) {
	o := NewOTelObserver()
	start := time.Now().UTC()

	o.ObserveTraffic(sendEvent("m1", "a", "b", "conv-1", core.KindRequest, start, true))
	o.ObserveTraffic(receiveEvent("m1", start.Add(time.Millisecond)))

	// Undelivered sends end immediately and never linger.
	o.ObserveTraffic(sendEvent("m2", "a", "ghost", "conv-1", core.KindRequest, start, false))

	o.EndConversation("conv-1")
	o.Shutdown()
}
