// Package agent provides the procurement collaborators and the BaseAgent
// dispatch scaffolding they share.
//
// Each collaborator (sourcing, compliance, negotiation) embeds a BaseAgent and
// registers a handler per operation it understands. BaseAgent implements the
// core.Agent delivery contract: it dispatches incoming envelopes by kind and
// operation, converts handler faults into Error envelopes addressed to the
// sender, and recovers panics so a misbehaving handler never takes down the
// bus drain loop.
//
// Collaborators never talk to each other directly. They exchange envelopes
// through the bus they were constructed with, propagating the conversation id
// of the message that triggered them.
package agent
