package supervisor

// Ruling is the supervisor's answer to an escalated issue.
type Ruling struct {
	Action    string
	Guidance  string
	Rationale string
}

// arbitrationTable maps escalated issues to rulings. Arbitration is pure
// data: the same issue always yields the same ruling.
var arbitrationTable = map[string]Ruling{
	"insufficient_suppliers_found": {
		Action:    "expand_search",
		Guidance:  "Relax compliance requirements by 10 points and expand to adjacent categories",
		Rationale: "Business continuity requires finding viable suppliers",
	},
	"high_risk_suppliers": {
		Action:    "proceed_with_caution",
		Guidance:  "Accept medium-risk suppliers but require additional guarantees",
		Rationale: "Manageable risk with proper safeguards",
	},
}

// defaultRuling covers issues the table does not name.
var defaultRuling = Ruling{
	Action:    "human_review_required",
	Guidance:  "Escalate to human decision maker",
	Rationale: "Issue requires human judgment",
}

// arbitrate looks the issue up in the decision table.
func arbitrate(issue string) Ruling {
	if r, ok := arbitrationTable[issue]; ok {
		return r
	}
	return defaultRuling
}
