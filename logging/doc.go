// Package logging provides a minimal logging interface and adapters for ProcureMesh.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the bus, agents and supervisor use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - MeshLogger with contextual helpers (agent, conversation, component)
//     and domain helpers for deliveries, tool calls and case transitions
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	b := bus.New(bus.WithLogger(logger))
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
