package core

import "time"

// TrafficDirection distinguishes the two observation points around delivery.
type TrafficDirection string

const (
	// TrafficSend is emitted when the bus accepts an envelope.
	TrafficSend TrafficDirection = "send"
	// TrafficReceive is emitted after the target agent's Receive returned.
	TrafficReceive TrafficDirection = "receive"
)

// TrafficEvent is the observation record the bus emits around each delivery.
// Observers see traffic without being able to alter it.
type TrafficEvent struct {
	Direction      TrafficDirection `json:"direction"`
	EnvelopeID     string           `json:"envelope_id"`
	From           string           `json:"from_agent"`
	To             string           `json:"to_agent"`
	Kind           Kind             `json:"message_type"`
	ConversationID string           `json:"conversation_id"`
	Timestamp      time.Time        `json:"timestamp"`
	ContentSummary string           `json:"content_summary"`
	// Delivered is false on a send event whose destination was not
	// registered; the attempt still appears in bus history.
	Delivered bool `json:"delivered"`
}

// Observer subscribes to bus traffic. Implementations must not call back
// into the bus from within a callback; they are invoked synchronously on the
// dispatch path.
type Observer interface {
	ObserveTraffic(ev TrafficEvent)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(ev TrafficEvent)

// ObserveTraffic implements Observer.
func (f ObserverFunc) ObserveTraffic(ev TrafficEvent) { f(ev) }
