package agent

import (
	"fmt"
	"strings"

	"github.com/rsneha-blip/procuremesh/core"
)

// Compliance decision actions.
const (
	actionRejectAllEscalate  = "reject_all_escalate"
	actionEscalateForReview  = "escalate_for_review"
	actionAutoApprove        = "auto_approve"
	actionConditionalApprove = "conditional_approval"
)

// financialRatings orders ratings best to worst for threshold comparisons.
var financialRatings = []string{"A+", "A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D"}

func ratingIndex(r string) int {
	for i, v := range financialRatings {
		if v == r {
			return i
		}
	}
	return len(financialRatings) - 1
}

// Policy holds the thresholds the compliance agent enforces. Zero values are
// replaced by DefaultPolicy at construction.
type Policy struct {
	MinComplianceScore     float64
	RequiredCertifications []string
	MinFinancialRating     string
	ManagerApprovalLimit   float64
}

// DefaultPolicy returns the built-in procurement policy.
func DefaultPolicy() Policy {
	return Policy{
		MinComplianceScore:     75,
		RequiredCertifications: []string{"ISO_9001"},
		MinFinancialRating:     "C",
		ManagerApprovalLimit:   50000,
	}
}

// Compliance reviews supplier lists against procurement policy, assesses the
// residual risk of the approved set, and routes the outcome: compliant sets
// continue to negotiation, empty or high-risk sets escalate to the
// supervisor.
type Compliance struct {
	*BaseAgent
	policy Policy
}

// ComplianceOptions holds optional overrides for NewCompliance.
type ComplianceOptions struct {
	Policy *Policy
	Base   []func(o *BaseAgentOptions)
}

// WithPolicy overrides the default procurement policy.
func WithPolicy(p Policy) func(o *ComplianceOptions) {
	return func(o *ComplianceOptions) { o.Policy = &p }
}

// WithComplianceBase forwards options to the embedded BaseAgent.
func WithComplianceBase(optFns ...func(o *BaseAgentOptions)) func(o *ComplianceOptions) {
	return func(o *ComplianceOptions) { o.Base = optFns }
}

// NewCompliance constructs the compliance agent bound to a bus.
func NewCompliance(bus core.Bus, optFns ...func(o *ComplianceOptions)) *Compliance {
	opts := ComplianceOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	policy := DefaultPolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}

	base := append([]func(o *BaseAgentOptions){
		WithCapabilities("policy_enforcement", "risk_assessment", "regulatory_compliance"),
	}, opts.Base...)

	a := &Compliance{
		BaseAgent: NewBaseAgent(ComplianceID, "compliance", bus, base...),
		policy:    policy,
	}
	a.mustHandle(core.OpCheckCompliance, a.handleCheckCompliance)
	a.mustHandle(core.OpRiskAssessment, a.handleRiskAssessment)
	a.mustHandle(core.OpPolicyUpdate, a.handlePolicyUpdate)
	return a
}

// complianceReview is the internal result of one policy pass.
type complianceReview struct {
	approved    []Supplier
	rejected    []map[string]any
	riskLevels  map[string]string
	overallRisk string
	confidence  float64
}

func (a *Compliance) handleCheckCompliance(env core.Envelope) error {
	suppliers := SuppliersFromContent(env.Content.Slice("suppliers"))
	requirements := env.Content.Map("requirements")

	review := a.review(suppliers)
	action := a.decideAction(review)
	reasoning := a.reasoning(action, review)

	decision := map[string]any{
		"action":     action,
		"confidence": review.confidence,
		"reasoning":  reasoning,
	}
	analysis := map[string]any{
		"approved": SuppliersAsContent(review.approved),
		"rejected": toAnySlice(review.rejected),
		"risk_assessment": map[string]any{
			"overall_risk":   review.overallRisk,
			"supplier_risks": toAnyMap(review.riskLevels),
		},
		"agent_confidence":        review.confidence,
		"alternative_suggestions": a.alternatives(review),
	}

	if action == actionRejectAllEscalate || action == actionEscalateForReview {
		_, err := a.Send(SupervisorID, core.KindNotification, core.Content{
			core.ContentKeyRequestType: string(core.OpComplianceEscalation),
			"compliance_results":       analysis,
			"agent_decision":           decision,
			"original_request":         map[string]any(env.Content),
			core.ContentKeySummary:     fmt.Sprintf("Compliance agent escalating: %s", reasoning),
		}, env.ConversationID)
		return err
	}

	_, err := a.Send(NegotiationID, core.KindRequest, core.Content{
		core.ContentKeyRequestType: string(core.OpProceedWithCompliantSuppliers),
		"approved_suppliers":       SuppliersAsContent(review.approved),
		"compliance_analysis":      analysis,
		"agent_decision":           decision,
		"original_request":         map[string]any(env.Content),
		"requirements":             requirements,
		core.ContentKeySummary:     fmt.Sprintf("Compliance approved %d suppliers", len(review.approved)),
	}, env.ConversationID)
	return err
}

func (a *Compliance) handleRiskAssessment(env core.Envelope) error {
	suppliers := SuppliersFromContent(env.Content.Slice("suppliers"))
	review := a.review(suppliers)

	_, err := a.Send(env.From, core.KindResponse, core.Content{
		core.ContentKeyRequestType: string(core.OpRiskAssessment),
		"overall_risk":             review.overallRisk,
		"supplier_risks":           toAnyMap(review.riskLevels),
		core.ContentKeySummary:     fmt.Sprintf("Risk assessment: %s overall risk across %d suppliers", review.overallRisk, len(suppliers)),
	}, env.ConversationID)
	return err
}

func (a *Compliance) handlePolicyUpdate(env core.Envelope) error {
	updated := []string{}
	if v, ok := env.Content["min_compliance_score"].(float64); ok {
		a.policy.MinComplianceScore = v
		updated = append(updated, "min_compliance_score")
	}
	if v, ok := env.Content["min_financial_rating"].(string); ok && v != "" {
		a.policy.MinFinancialRating = v
		updated = append(updated, "min_financial_rating")
	}
	if v, ok := env.Content["manager_approval_limit"].(float64); ok {
		a.policy.ManagerApprovalLimit = v
		updated = append(updated, "manager_approval_limit")
	}
	if certs := env.Content.Slice("required_certifications"); certs != nil {
		a.policy.RequiredCertifications = nil
		for _, c := range certs {
			if s, ok := c.(string); ok {
				a.policy.RequiredCertifications = append(a.policy.RequiredCertifications, s)
			}
		}
		updated = append(updated, "required_certifications")
	}
	if len(updated) == 0 {
		return fmt.Errorf("policy update carried no recognized fields")
	}

	_, err := a.Send(env.From, core.KindResponse, core.Content{
		core.ContentKeyRequestType: string(core.OpPolicyUpdate),
		"updated_fields":           toAnyStrings(updated),
		core.ContentKeySummary:     fmt.Sprintf("Policy updated: %s", strings.Join(updated, ", ")),
	}, env.ConversationID)
	return err
}

// review applies the policy to each supplier and derives the risk and
// confidence assessment of the resulting approved set.
func (a *Compliance) review(suppliers []Supplier) complianceReview {
	review := complianceReview{riskLevels: map[string]string{}}

	for _, s := range suppliers {
		if reason, ok := a.checkPolicy(s); !ok {
			review.rejected = append(review.rejected, map[string]any{
				"supplier": s.AsContent(),
				"reason":   reason,
			})
			continue
		}
		review.approved = append(review.approved, s)
		review.riskLevels[s.ID] = a.supplierRisk(s)
	}

	highCount := 0
	for _, level := range review.riskLevels {
		if level == "high" {
			highCount++
		}
	}
	review.overallRisk = "low"
	switch {
	case len(review.approved) > 0 && float64(highCount) > float64(len(review.approved))*0.5:
		review.overallRisk = "high"
	case highCount > 0:
		review.overallRisk = "medium"
	}

	confidence := 0.8
	if len(review.approved) >= 3 {
		confidence += 0.1
	} else if len(review.approved) == 0 {
		confidence -= 0.3
	}
	for _, rej := range review.rejected {
		if reason, _ := rej["reason"].(string); strings.Contains(reason, "compliance score") {
			confidence += 0.05
		}
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < 0.1 {
		confidence = 0.1
	}
	review.confidence = confidence
	return review
}

// checkPolicy returns the rejection reason when the supplier fails policy.
func (a *Compliance) checkPolicy(s Supplier) (string, bool) {
	if s.ComplianceScore < a.policy.MinComplianceScore {
		return fmt.Sprintf("compliance score %.0f below minimum %.0f", s.ComplianceScore, a.policy.MinComplianceScore), false
	}
	for _, required := range a.policy.RequiredCertifications {
		found := false
		for _, cert := range s.Certifications {
			if cert == required {
				found = true
				break
			}
		}
		if !found {
			return fmt.Sprintf("missing required certification: %s", required), false
		}
	}
	if ratingIndex(s.FinancialRating) > ratingIndex(a.policy.MinFinancialRating) {
		return fmt.Sprintf("financial rating %s below minimum %s", s.FinancialRating, a.policy.MinFinancialRating), false
	}
	return "", true
}

func (a *Compliance) supplierRisk(s Supplier) string {
	score := 0
	switch s.FinancialRating {
	case "C", "C-", "D":
		score += 2
	}
	if s.ComplianceScore < 85 {
		score += 2
	}
	if s.LeadTimeDays > 30 {
		score++
	}
	switch {
	case score > 3:
		return "high"
	case score > 1:
		return "medium"
	default:
		return "low"
	}
}

func (a *Compliance) decideAction(review complianceReview) string {
	switch {
	case len(review.approved) == 0:
		return actionRejectAllEscalate
	case review.overallRisk == "high" && review.confidence < 0.7:
		return actionEscalateForReview
	case len(review.approved) >= 2 && review.confidence > 0.8:
		return actionAutoApprove
	default:
		return actionConditionalApprove
	}
}

func (a *Compliance) reasoning(action string, review complianceReview) string {
	switch action {
	case actionRejectAllEscalate:
		return "No suppliers meet compliance requirements. Escalation needed."
	case actionEscalateForReview:
		return fmt.Sprintf("Found %d suppliers but risk level is %s. Human review recommended.", len(review.approved), review.overallRisk)
	case actionAutoApprove:
		return fmt.Sprintf("Found %d compliant suppliers with acceptable risk levels. Proceeding autonomously.", len(review.approved))
	default:
		return fmt.Sprintf("Found %d suppliers. Proceeding with standard workflow.", len(review.approved))
	}
}

func (a *Compliance) alternatives(review complianceReview) []any {
	var out []any
	if len(review.approved) == 0 {
		out = append(out,
			"Consider relaxing minimum compliance score requirements",
			"Expand search to additional supplier categories")
	}
	if len(review.approved) < 2 {
		out = append(out, "Recommend finding backup suppliers for risk mitigation")
	}
	for _, rej := range review.rejected {
		if reason, _ := rej["reason"].(string); strings.Contains(strings.ToLower(reason), "certification") {
			out = append(out, "Consider suppliers with equivalent certifications")
			break
		}
	}
	return out
}

func toAnySlice(items []map[string]any) []any {
	out := make([]any, len(items))
	for i, m := range items {
		out[i] = m
	}
	return out
}

func toAnyMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func toAnyStrings(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}
