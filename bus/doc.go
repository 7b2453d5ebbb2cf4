// Package bus implements the in-process message bus that routes envelopes
// between registered agents and keeps the append-only traffic record.
//
// Delivery is a synchronous hand-off: Send returns only after the delivery it
// triggered, and every delivery those handlers triggered in turn, has
// completed. Internally the bus does not recurse through nested Send calls;
// envelopes produced while a dispatch is in flight are appended to a FIFO
// queue that the outermost Send drains one envelope at a time. Per-
// conversation ordering is therefore exactly Send invocation order, and the
// call stack stays flat no matter how deep a conversation chain runs.
//
// The registry, history and conversation index are shared mutable state
// guarded by a single mutex, so concurrent Send and Register calls from
// independent goroutines are safe. When Send is called while another
// goroutine is already draining, the envelope is handed to that drain loop
// and the second caller returns without waiting; callers that need strict
// call-and-return semantics per conversation run each conversation on a
// single goroutine.
//
// There is no retry, timeout, cancellation or backpressure at this layer. A
// handler that never returns stalls the drain loop for its bus instance.
package bus
