// Package supervisor provides the arbitration agent that opens procurement
// cases and rules on escalations from the collaborator agents.
//
// The supervisor does not orchestrate the workflow. Collaborators route
// between themselves autonomously; the supervisor only starts a case by
// messaging the sourcing agent, arbitrates escalations against a fixed
// decision table, and records how each case ends. A failed negotiation gets
// exactly one recovery attempt through an expanded supplier search on the
// same conversation; every other terminal state is final.
package supervisor
