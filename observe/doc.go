// Package observe provides traffic observers that plug into the bus.
//
// Collector aggregates per-message spans, per-route metrics and conversation
// summaries in memory, giving operators a view of message flow without
// external infrastructure. OTelObserver bridges the same traffic events to
// OpenTelemetry spans so deployments with a tracing backend get one span per
// message, parented under a per-conversation root span.
//
// Observers run synchronously on the dispatch path and must not send through
// the bus.
package observe
