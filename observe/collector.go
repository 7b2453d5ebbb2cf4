package observe

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rsneha-blip/procuremesh/core"
)

// SpanStatus marks how a message span ended.
type SpanStatus string

const (
	// SpanOK means the message was delivered and handled.
	SpanOK SpanStatus = "ok"
	// SpanUndelivered means the destination was not registered. Routing
	// failures are silent on the sender side; the span is where they surface.
	SpanUndelivered SpanStatus = "undelivered"
)

// SpanRecord is one message's journey from bus acceptance to handled
// delivery.
type SpanRecord struct {
	EnvelopeID     string        `json:"envelope_id"`
	From           string        `json:"from_agent"`
	To             string        `json:"to_agent"`
	Kind           core.Kind     `json:"message_type"`
	ConversationID string        `json:"conversation_id"`
	Summary        string        `json:"summary"`
	Status         SpanStatus    `json:"status"`
	StartedAt      time.Time     `json:"started_at"`
	EndedAt        time.Time     `json:"ended_at"`
	Duration       time.Duration `json:"duration"`
}

// RouteMetrics aggregates completed spans per from->to route.
type RouteMetrics struct {
	Route            string        `json:"route"`
	Count            int           `json:"count"`
	UndeliveredCount int           `json:"undelivered_count"`
	TotalDuration    time.Duration `json:"total_duration"`
	MinDuration      time.Duration `json:"min_duration"`
	MaxDuration      time.Duration `json:"max_duration"`
}

// AvgDuration returns the mean span duration for the route.
func (m RouteMetrics) AvgDuration() time.Duration {
	if m.Count == 0 {
		return 0
	}
	return m.TotalDuration / time.Duration(m.Count)
}

// ConversationSummary aggregates all traffic sharing one conversation id.
type ConversationSummary struct {
	ConversationID string    `json:"conversation_id"`
	MessageCount   int       `json:"message_count"`
	ErrorCount     int       `json:"error_count"`
	Participants   []string  `json:"participants"`
	FirstAt        time.Time `json:"first_at"`
	LastAt         time.Time `json:"last_at"`
}

// Collector is an in-memory traffic observer: it turns send/receive event
// pairs into spans and keeps running route metrics and conversation
// summaries. All methods are safe for concurrent use.
type Collector struct {
	mu            sync.RWMutex
	open          map[string]SpanRecord
	completed     []SpanRecord
	routes        map[string]*RouteMetrics
	conversations map[string]*ConversationSummary
	participants  map[string]map[string]struct{}
}

var _ core.Observer = (*Collector)(nil)

// NewCollector constructs an empty collector.
func NewCollector() *Collector {
	return &Collector{
		open:          make(map[string]SpanRecord),
		routes:        make(map[string]*RouteMetrics),
		conversations: make(map[string]*ConversationSummary),
		participants:  make(map[string]map[string]struct{}),
	}
}

// ObserveTraffic implements core.Observer. A send event opens a span; the
// matching receive event completes it. A send flagged undelivered completes
// immediately as a failed delivery span.
func (c *Collector) ObserveTraffic(ev core.TrafficEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Direction {
	case core.TrafficSend:
		c.noteConversation(ev)
		span := SpanRecord{
			EnvelopeID:     ev.EnvelopeID,
			From:           ev.From,
			To:             ev.To,
			Kind:           ev.Kind,
			ConversationID: ev.ConversationID,
			Summary:        ev.ContentSummary,
			StartedAt:      ev.Timestamp,
		}
		if !ev.Delivered {
			span.Status = SpanUndelivered
			span.EndedAt = ev.Timestamp
			c.complete(span)
			return
		}
		c.open[ev.EnvelopeID] = span

	case core.TrafficReceive:
		span, ok := c.open[ev.EnvelopeID]
		if !ok {
			return
		}
		delete(c.open, ev.EnvelopeID)
		span.Status = SpanOK
		span.EndedAt = ev.Timestamp
		span.Duration = ev.Timestamp.Sub(span.StartedAt)
		c.complete(span)
	}
}

func (c *Collector) complete(span SpanRecord) {
	c.completed = append(c.completed, span)

	route := fmt.Sprintf("%s->%s", span.From, span.To)
	m, ok := c.routes[route]
	if !ok {
		m = &RouteMetrics{Route: route}
		c.routes[route] = m
	}
	m.Count++
	if span.Status == SpanUndelivered {
		m.UndeliveredCount++
	}
	m.TotalDuration += span.Duration
	if m.Count == 1 || span.Duration < m.MinDuration {
		m.MinDuration = span.Duration
	}
	if span.Duration > m.MaxDuration {
		m.MaxDuration = span.Duration
	}
}

func (c *Collector) noteConversation(ev core.TrafficEvent) {
	s, ok := c.conversations[ev.ConversationID]
	if !ok {
		s = &ConversationSummary{ConversationID: ev.ConversationID, FirstAt: ev.Timestamp}
		c.conversations[ev.ConversationID] = s
		c.participants[ev.ConversationID] = make(map[string]struct{})
	}
	s.MessageCount++
	if ev.Kind == core.KindError {
		s.ErrorCount++
	}
	if ev.Timestamp.After(s.LastAt) {
		s.LastAt = ev.Timestamp
	}
	c.participants[ev.ConversationID][ev.From] = struct{}{}
	c.participants[ev.ConversationID][ev.To] = struct{}{}
}

// Spans returns the completed spans in completion order.
func (c *Collector) Spans() []SpanRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]SpanRecord(nil), c.completed...)
}

// OpenSpans returns how many sends are still awaiting their receive event.
func (c *Collector) OpenSpans() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.open)
}

// RouteMetricsFor returns the aggregated metrics for one from->to route.
func (c *Collector) RouteMetricsFor(from, to string) (RouteMetrics, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.routes[fmt.Sprintf("%s->%s", from, to)]
	if !ok {
		return RouteMetrics{}, false
	}
	return *m, true
}

// AllRouteMetrics returns every route's metrics, sorted by route name.
func (c *Collector) AllRouteMetrics() []RouteMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]RouteMetrics, 0, len(c.routes))
	for _, m := range c.routes {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Route < out[j].Route })
	return out
}

// Conversation returns the summary for one conversation.
func (c *Collector) Conversation(conversationID string) (ConversationSummary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.conversations[conversationID]
	if !ok {
		return ConversationSummary{}, false
	}
	summary := *s
	for id := range c.participants[conversationID] {
		summary.Participants = append(summary.Participants, id)
	}
	sort.Strings(summary.Participants)
	return summary, true
}

// Reset clears all collected data.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = make(map[string]SpanRecord)
	c.completed = nil
	c.routes = make(map[string]*RouteMetrics)
	c.conversations = make(map[string]*ConversationSummary)
	c.participants = make(map[string]map[string]struct{})
}
