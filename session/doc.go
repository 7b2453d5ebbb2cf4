// Package session tracks procurement workflows as ordered step machines.
//
// Each session follows the fixed step order sourcing -> compliance ->
// negotiation -> approval. The Manager records step results, a decision trail
// for auditing, per-agent state and the message history of the workflow's
// conversation. Sessions are held in memory and reaped by TTL; persistence
// across restarts is out of scope.
package session
