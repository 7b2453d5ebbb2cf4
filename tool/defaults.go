package tool

import "fmt"

// approvalThreshold is the financial amount above which approval_check flags
// a decision for human sign-off.
const approvalThreshold = 100000.0

// registerDefaults installs the default procurement tool set. The
// workflow_status tool is not part of the defaults; the system façade
// registers it bound to its session manager.
func registerDefaults(r *Registry) {
	defs := []Definition{
		{
			Tool: NewFunctionTool(
				"supplier_search",
				"Search for suppliers based on requirements",
				map[string]any{
					"type": "object",
					"properties": map[string]any{
						"requirements": map[string]any{"type": "string", "description": "Supplier requirements"},
						"category":     map[string]any{"type": "string", "description": "Product category"},
						"budget":       map[string]any{"type": "number", "description": "Budget constraint"},
					},
					"required": []any{"requirements", "category"},
				},
				func(args map[string]any) (any, error) {
					category, _ := args["category"].(string)
					budget, _ := args["budget"].(float64)
					strategy := "balanced_approach"
					if budget > 100000 {
						strategy = "premium_suppliers_only"
					}
					return map[string]any{"category": category, "strategy": strategy, "max_results": 5}, nil
				},
			),
			Category:      CategorySourcing,
			AllowedAgents: []string{"sourcing", "supervisor"},
		},
		{
			Tool: NewFunctionTool(
				"supplier_evaluation",
				"Evaluate supplier capabilities and scores",
				map[string]any{
					"type": "object",
					"properties": map[string]any{
						"supplier_id": map[string]any{"type": "string", "description": "Supplier identifier"},
						"criteria":    map[string]any{"type": "array", "description": "Evaluation criteria"},
					},
					"required": []any{"supplier_id"},
				},
				func(args map[string]any) (any, error) {
					id, _ := args["supplier_id"].(string)
					criteria := args["criteria"]
					if criteria == nil {
						criteria = []any{"compliance_score", "lead_time_days"}
					}
					return map[string]any{"supplier_id": id, "criteria": criteria}, nil
				},
			),
			Category:      CategorySourcing,
			AllowedAgents: []string{"sourcing"},
		},
		{
			Tool: NewFunctionTool(
				"compliance_check",
				"Check a supplier score against a compliance threshold",
				map[string]any{
					"type": "object",
					"properties": map[string]any{
						"supplier_id":      map[string]any{"type": "string", "description": "Supplier to check"},
						"compliance_score": map[string]any{"type": "number", "description": "Supplier compliance score"},
						"min_score":        map[string]any{"type": "number", "description": "Minimum acceptable score"},
					},
					"required": []any{"supplier_id", "compliance_score"},
				},
				func(args map[string]any) (any, error) {
					score, _ := args["compliance_score"].(float64)
					minScore, ok := args["min_score"].(float64)
					if !ok {
						minScore = 75
					}
					return map[string]any{
						"supplier_id": args["supplier_id"],
						"compliant":   score >= minScore,
						"min_score":   minScore,
					}, nil
				},
			),
			Category:      CategoryCompliance,
			AllowedAgents: []string{"compliance", "supervisor"},
		},
		{
			Tool: NewFunctionTool(
				"policy_lookup",
				"Look up specific policy requirements",
				map[string]any{
					"type": "object",
					"properties": map[string]any{
						"policy_type": map[string]any{"type": "string", "description": "Type of policy"},
						"category":    map[string]any{"type": "string", "description": "Product category"},
					},
					"required": []any{"policy_type"},
				},
				func(args map[string]any) (any, error) {
					policyType, _ := args["policy_type"].(string)
					policy, ok := defaultPolicies[policyType]
					if !ok {
						return nil, fmt.Errorf("no policy registered for type %q", policyType)
					}
					return map[string]any{"policy_type": policyType, "policy": policy}, nil
				},
			),
			Category:      CategoryCompliance,
			AllowedAgents: []string{"compliance", "sourcing"},
		},
		{
			Tool: NewFunctionTool(
				"price_negotiation",
				"Negotiate price with supplier",
				map[string]any{
					"type": "object",
					"properties": map[string]any{
						"supplier_id":  map[string]any{"type": "string", "description": "Supplier to negotiate with"},
						"target_price": map[string]any{"type": "number", "description": "Target price"},
						"volume":       map[string]any{"type": "integer", "description": "Order volume"},
					},
					"required": []any{"supplier_id", "target_price"},
				},
				func(args map[string]any) (any, error) {
					return map[string]any{"supplier_id": args["supplier_id"], "target_price": args["target_price"]}, nil
				},
			),
			Category:      CategoryNegotiation,
			AllowedAgents: []string{"negotiation"},
			// High-value negotiations need human sign-off before execution.
			RequiresApproval: true,
		},
		{
			Tool: NewFunctionTool(
				"approval_check",
				"Check if approval is required for a decision",
				map[string]any{
					"type": "object",
					"properties": map[string]any{
						"decision_type": map[string]any{"type": "string", "description": "Type of decision"},
						"amount":        map[string]any{"type": "number", "description": "Financial amount"},
					},
					"required": []any{"decision_type"},
				},
				func(args map[string]any) (any, error) {
					amount, _ := args["amount"].(float64)
					return map[string]any{
						"decision_type":     args["decision_type"],
						"approval_required": amount >= approvalThreshold,
						"threshold":         approvalThreshold,
					}, nil
				},
			),
			Category:      CategoryWorkflow,
			AllowedAgents: []string{"all"},
		},
	}

	for _, def := range defs {
		// Names are unique literals above; Register cannot fail here.
		_ = r.Register(def)
	}
}

var defaultPolicies = map[string]string{
	"minimum_compliance": "Suppliers must hold a compliance score of 75 or higher.",
	"financial_rating":   "Suppliers rated C or below require additional guarantees.",
	"lead_time":          "Standard orders must be deliverable within 30 days.",
}
