package core

import "fmt"

// Op enumerates the operations agents request of each other. The string
// values travel on the wire as content["request_type"]; handler maps are
// keyed by Op and validated at agent construction rather than interpreted
// ad hoc inside handlers.
type Op string

const (
	// OpUnknown is the zero value for an absent or unrecognized request type.
	OpUnknown Op = ""

	// Sourcing operations.
	OpFindSuppliers    Op = "find_suppliers"
	OpEvaluateSupplier Op = "evaluate_supplier"
	OpExpandedSearch   Op = "expanded_search"

	// Compliance operations.
	OpCheckCompliance    Op = "check_compliance"
	OpRiskAssessment     Op = "risk_assessment"
	OpPolicyUpdate       Op = "policy_update"
	OpSupervisorOverride Op = "supervisor_override"

	// Negotiation operations.
	OpNegotiateBestDeal             Op = "negotiate_best_deal"
	OpProceedWithCompliantSuppliers Op = "proceed_with_compliant_suppliers"
	OpOptimizeContract              Op = "optimize_contract"

	// Supervision operations.
	OpEscalation             Op = "escalation"
	OpComplianceEscalation   Op = "compliance_escalation"
	OpProcurementComplete    Op = "procurement_complete"
	OpNegotiationFailure     Op = "negotiation_failure"
	OpExpandedSearchComplete Op = "expanded_search_complete"
	OpEscalationGuidance     Op = "escalation_guidance"
)

var knownOps = map[Op]struct{}{
	OpFindSuppliers:                 {},
	OpEvaluateSupplier:              {},
	OpExpandedSearch:                {},
	OpCheckCompliance:               {},
	OpRiskAssessment:                {},
	OpPolicyUpdate:                  {},
	OpSupervisorOverride:            {},
	OpNegotiateBestDeal:             {},
	OpProceedWithCompliantSuppliers: {},
	OpOptimizeContract:              {},
	OpEscalation:                    {},
	OpComplianceEscalation:          {},
	OpProcurementComplete:           {},
	OpNegotiationFailure:            {},
	OpExpandedSearchComplete:        {},
	OpEscalationGuidance:            {},
}

// Valid reports whether the operation is part of the closed protocol set.
func (o Op) Valid() bool {
	_, ok := knownOps[o]
	return ok
}

// ParseOp validates a wire string against the closed operation set.
func ParseOp(s string) (Op, error) {
	op := Op(s)
	if !op.Valid() {
		return OpUnknown, fmt.Errorf("unknown operation %q", s)
	}
	return op, nil
}
