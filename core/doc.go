// Package core provides the foundational domain types and interfaces used by
// ProcureMesh. It defines the core abstractions for:
//
//   - Envelopes (immutable routed messages carrying a conversation id)
//   - The Agent dispatch contract (receive entry point + capability record)
//   - The Bus contract (registration, routing, conversation indexing)
//   - Operations (the closed set of request types agents exchange)
//   - Traffic observation (send/receive events for tracing collaborators)
//
// The package intentionally keeps implementation concerns (the concrete bus,
// the supervisor, workflow sessions, concrete agents) out of scope, exposing
// small interfaces so custom collaborators can plug into the kernel without
// depending on its internals.
package core
