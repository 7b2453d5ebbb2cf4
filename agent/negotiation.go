package agent

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/rsneha-blip/procuremesh/core"
	"github.com/rsneha-blip/procuremesh/memory"
)

// Negotiation approaches chosen per supplier set.
const (
	approachCollaborative = "collaborative"
	approachCompetitive   = "competitive"
	approachCareful       = "careful"
	approachBalanced      = "balanced"
)

// Negotiation simulates deal-making with approved suppliers, informed by the
// supplier performance history in the memory store. A successful negotiation
// reports procurement_complete to the supervisor; an across-the-board failure
// reports negotiation_failure with a suggested recovery action.
type Negotiation struct {
	*BaseAgent
	store         memory.Store
	rng           *rand.Rand
	targetSavings float64
}

// NegotiationOptions holds optional overrides for NewNegotiation.
type NegotiationOptions struct {
	// Store supplies supplier performance history. Defaults to an empty
	// in-memory store.
	Store memory.Store
	// Rand drives negotiation outcomes. Defaults to a time-seeded source;
	// tests inject a fixed seed.
	Rand *rand.Rand
	Base []func(o *BaseAgentOptions)
}

// WithStore injects the supplier performance store.
func WithStore(s memory.Store) func(o *NegotiationOptions) {
	return func(o *NegotiationOptions) { o.Store = s }
}

// WithNegotiationRand injects the randomness source for deal simulation.
func WithNegotiationRand(r *rand.Rand) func(o *NegotiationOptions) {
	return func(o *NegotiationOptions) { o.Rand = r }
}

// WithNegotiationBase forwards options to the embedded BaseAgent.
func WithNegotiationBase(optFns ...func(o *BaseAgentOptions)) func(o *NegotiationOptions) {
	return func(o *NegotiationOptions) { o.Base = optFns }
}

// NewNegotiation constructs the negotiation agent bound to a bus.
func NewNegotiation(bus core.Bus, optFns ...func(o *NegotiationOptions)) *Negotiation {
	opts := NegotiationOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Store == nil {
		opts.Store = memory.NewInMemoryStore()
	}
	if opts.Rand == nil {
		opts.Rand = newTimeSeededRand()
	}

	base := append([]func(o *BaseAgentOptions){
		WithCapabilities("price_negotiation", "contract_optimization", "deal_analysis"),
	}, opts.Base...)

	a := &Negotiation{
		BaseAgent:     NewBaseAgent(NegotiationID, "negotiation", bus, base...),
		store:         opts.Store,
		rng:           opts.Rand,
		targetSavings: 0.15,
	}
	a.mustHandle(core.OpNegotiateBestDeal, a.handleNegotiateBestDeal)
	a.mustHandle(core.OpProceedWithCompliantSuppliers, a.handleCompliantSuppliers)
	a.mustHandle(core.OpOptimizeContract, a.handleOptimizeContract)
	return a
}

// supplierAnalysis is the memory-informed view of one supplier at the table.
type supplierAnalysis struct {
	historicalOrders int
	performanceScore float64
	deliveryScore    float64
	qualityScore     float64
	riskLevel        string
	leverage         string
}

// dealOutcome is the simulated result of one negotiation.
type dealOutcome struct {
	supplier       Supplier
	analysis       supplierAnalysis
	successful     bool
	priceReduction float64
	deliveryGain   int
	terms          []string
	confidence     float64
}

func (a *Negotiation) handleNegotiateBestDeal(env core.Envelope) error {
	suppliers := SuppliersFromContent(env.Content.Slice("suppliers"))
	return a.negotiate(env, suppliers, nil)
}

func (a *Negotiation) handleCompliantSuppliers(env core.Envelope) error {
	suppliers := SuppliersFromContent(env.Content.Slice("approved_suppliers"))
	return a.negotiate(env, suppliers, env.Content.Map("compliance_analysis"))
}

func (a *Negotiation) handleOptimizeContract(env core.Envelope) error {
	supplierID := env.Content.String("supplier_id")
	volume, _ := env.Content["volume"].(float64)

	terms := []any{"net_45_payment_terms"}
	if volume >= 1000 {
		terms = append(terms, "volume_discount_tier_2")
	}
	if sc, ok := a.store.Scorecard(supplierID); ok && sc.RiskLevel == "low" {
		terms = append(terms, "extended_warranty")
	}

	_, err := a.Send(env.From, core.KindResponse, core.Content{
		core.ContentKeyRequestType: string(core.OpOptimizeContract),
		"supplier_id":              supplierID,
		"optimized_terms":          terms,
		core.ContentKeySummary:     fmt.Sprintf("Contract optimization produced %d terms", len(terms)),
	}, env.ConversationID)
	return err
}

func (a *Negotiation) negotiate(env core.Envelope, suppliers []Supplier, complianceAnalysis map[string]any) error {
	if len(suppliers) == 0 {
		return fmt.Errorf("no suppliers to negotiate with")
	}

	analyses := make(map[string]supplierAnalysis, len(suppliers))
	for _, s := range suppliers {
		analyses[s.ID] = a.analyze(s.ID)
	}

	approach, target := a.strategy(suppliers, analyses, complianceAnalysis)

	outcomes := make([]dealOutcome, 0, len(suppliers))
	for _, s := range suppliers {
		outcomes = append(outcomes, a.simulate(s, analyses[s.ID], approach, target))
	}

	var successful []dealOutcome
	for _, o := range outcomes {
		if o.successful {
			successful = append(successful, o)
		}
	}

	if len(successful) == 0 {
		_, err := a.Send(SupervisorID, core.KindNotification, core.Content{
			core.ContentKeyRequestType: string(core.OpNegotiationFailure),
			"failure_details": map[string]any{
				"recommendation_type": "no_suitable_deals",
				"message":             "Unable to negotiate acceptable terms with any supplier",
				"suggested_action":    "Expand supplier search or adjust requirements",
			},
			"negotiation_attempts": float64(len(outcomes)),
			"original_request":     map[string]any(env.Content),
			core.ContentKeySummary: "Negotiation agent unable to secure acceptable deals",
		}, env.ConversationID)
		return err
	}

	// Rank by weighted savings, historical performance and confidence.
	sort.SliceStable(successful, func(i, j int) bool {
		return dealScore(successful[i]) > dealScore(successful[j])
	})
	best := successful[0]

	_, err := a.Send(SupervisorID, core.KindResponse, core.Content{
		core.ContentKeyRequestType: string(core.OpProcurementComplete),
		"final_recommendation": map[string]any{
			"recommendation_type":  "successful_negotiation",
			"recommended_supplier": best.supplier.AsContent(),
			"estimated_savings":    best.priceReduction,
			"confidence":           best.confidence,
			"negotiation_details": map[string]any{
				"price_reduction":      best.priceReduction,
				"delivery_improvement": float64(best.deliveryGain),
				"additional_terms":     toAnyStrings(best.terms),
			},
			"reasoning": fmt.Sprintf(
				"Selected %s based on: %.1f%% cost savings, %.0f%% performance score, %d additional benefits",
				best.supplier.Name, best.priceReduction, best.analysis.performanceScore, len(best.terms)),
		},
		"negotiation_summary": map[string]any{
			"total_suppliers_contacted": float64(len(outcomes)),
			"successful_negotiations":   float64(len(successful)),
			"negotiation_approach":      approach,
		},
		"original_request":     map[string]any(env.Content),
		core.ContentKeySummary: fmt.Sprintf("Successfully negotiated %.1f%% savings with %s", best.priceReduction, best.supplier.Name),
	}, env.ConversationID)
	return err
}

// analyze derives the negotiation view of one supplier from recorded history.
// Unknown suppliers get a conservative default with low leverage.
func (a *Negotiation) analyze(supplierID string) supplierAnalysis {
	rec, ok := a.store.Performance(supplierID)
	if !ok {
		return supplierAnalysis{
			performanceScore: 70, deliveryScore: 70, qualityScore: 70,
			riskLevel: "medium", leverage: "low",
		}
	}
	sc, _ := a.store.Scorecard(supplierID)

	leverage := "medium"
	switch {
	case sc.OverallScore > 90 && rec.TotalOrders > 10:
		leverage = "high"
	case sc.OverallScore < 70 || sc.RiskLevel == "high":
		leverage = "high"
	}

	return supplierAnalysis{
		historicalOrders: rec.TotalOrders,
		performanceScore: sc.OverallScore,
		deliveryScore:    sc.DeliveryScore,
		qualityScore:     sc.QualityScore,
		riskLevel:        sc.RiskLevel,
		leverage:         leverage,
	}
}

func (a *Negotiation) strategy(suppliers []Supplier, analyses map[string]supplierAnalysis, complianceAnalysis map[string]any) (string, float64) {
	var total float64
	for _, an := range analyses {
		total += an.performanceScore
	}
	avg := total / float64(len(analyses))

	overallRisk := ""
	if ra, ok := complianceAnalysis["risk_assessment"].(map[string]any); ok {
		overallRisk, _ = ra["overall_risk"].(string)
	}

	approach := approachBalanced
	switch {
	case len(suppliers) == 1:
		approach = approachCollaborative
	case avg > 85:
		approach = approachCompetitive
	case overallRisk == "high":
		approach = approachCareful
	}

	target := 0.08
	if approach == approachCompetitive {
		target = a.targetSavings
	}
	return approach, target
}

func (a *Negotiation) simulate(s Supplier, an supplierAnalysis, approach string, target float64) dealOutcome {
	prob := 0.7
	switch an.leverage {
	case "high":
		prob += 0.2
	case "low":
		prob -= 0.2
	}
	switch approach {
	case approachCompetitive:
		prob += 0.1
	case approachCollaborative:
		prob += 0.05
	}

	out := dealOutcome{supplier: s, analysis: an}
	if a.rng.Float64() >= prob {
		out.confidence = 0.3 + a.rng.Float64()*0.3
		return out
	}

	reduction := target * 100 * (0.7 + a.rng.Float64()*0.6)
	switch an.leverage {
	case "high":
		reduction *= 1.3
	case "low":
		reduction *= 0.7
	}

	out.successful = true
	out.priceReduction = float64(int(reduction*10)) / 10
	out.deliveryGain = a.rng.Intn(4)
	out.confidence = 0.8 + a.rng.Float64()*0.2
	out.terms = a.additionalTerms(an)
	return out
}

func (a *Negotiation) additionalTerms(an supplierAnalysis) []string {
	var terms []string
	if an.deliveryScore < 80 {
		terms = append(terms, "Guaranteed delivery dates with penalties")
	}
	if an.qualityScore < 80 {
		terms = append(terms, "Quality guarantee with replacement terms")
	}
	if an.historicalOrders == 0 {
		terms = append(terms, "3-month trial period with performance review")
	}
	return terms
}

func dealScore(o dealOutcome) float64 {
	return o.priceReduction*2 + o.analysis.performanceScore*0.5 + o.confidence*20
}
