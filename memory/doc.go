// Package memory provides the long-term supplier performance store consumed
// by the negotiation collaborator. It records order outcomes per supplier and
// derives scorecards (delivery, quality, overall, risk level) that feed
// negotiation leverage decisions. The in-memory implementation is process
// local and safe for concurrent access; swap in a durable Store for
// deployments that need history across restarts.
package memory
