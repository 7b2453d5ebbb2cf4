package agent

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/rsneha-blip/procuremesh/core"
)

// Search strategies the sourcing agent picks between based on the request.
const (
	strategyFastDelivery = "fast_delivery_priority"
	strategyPremiumOnly  = "premium_suppliers_only"
	strategySpecialized  = "specialized_suppliers"
	strategyBalanced     = "balanced_approach"
)

// expandedSearchSuccessRate is the probability that relaxing criteria turns up
// alternative suppliers.
const expandedSearchSuccessRate = 0.3

// Sourcing discovers and ranks suppliers for procurement requests. When a
// search satisfies its minimum standards it routes the results onward
// (compliance review, or directly to negotiation for urgent single-supplier
// results); otherwise it escalates to the supervisor for guidance.
type Sourcing struct {
	*BaseAgent
	catalog      []Supplier
	rng          *rand.Rand
	maxSuppliers int
}

// SourcingOptions holds optional overrides for NewSourcing.
type SourcingOptions struct {
	// Catalog overrides the built-in supplier database.
	Catalog []Supplier
	// Rand drives the expanded-search outcome. Defaults to a time-seeded
	// source; tests inject a fixed seed.
	Rand *rand.Rand
	Base []func(o *BaseAgentOptions)
}

// WithCatalog overrides the supplier catalog.
func WithCatalog(catalog []Supplier) func(o *SourcingOptions) {
	return func(o *SourcingOptions) { o.Catalog = catalog }
}

// WithSourcingRand injects the randomness source for expanded searches.
func WithSourcingRand(r *rand.Rand) func(o *SourcingOptions) {
	return func(o *SourcingOptions) { o.Rand = r }
}

// WithSourcingBase forwards options to the embedded BaseAgent.
func WithSourcingBase(optFns ...func(o *BaseAgentOptions)) func(o *SourcingOptions) {
	return func(o *SourcingOptions) { o.Base = optFns }
}

// NewSourcing constructs the sourcing agent bound to a bus.
func NewSourcing(bus core.Bus, optFns ...func(o *SourcingOptions)) *Sourcing {
	opts := SourcingOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Catalog == nil {
		opts.Catalog = DefaultCatalog()
	}
	if opts.Rand == nil {
		opts.Rand = newTimeSeededRand()
	}

	base := append([]func(o *BaseAgentOptions){
		WithCapabilities("supplier_search", "supplier_evaluation", "market_analysis"),
	}, opts.Base...)

	a := &Sourcing{
		BaseAgent:    NewBaseAgent(SourcingID, "sourcing", bus, base...),
		catalog:      opts.Catalog,
		rng:          opts.Rand,
		maxSuppliers: 5,
	}
	a.mustHandle(core.OpFindSuppliers, a.handleFindSuppliers)
	a.mustHandle(core.OpEvaluateSupplier, a.handleEvaluateSupplier)
	a.mustHandle(core.OpExpandedSearch, a.handleExpandedSearch)
	return a
}

func (a *Sourcing) handleFindSuppliers(env core.Envelope) error {
	requirements := env.Content.Map("requirements")
	category, _ := requirements["category"].(string)
	budget, _ := requirements["budget"].(float64)
	urgency, _ := requirements["urgency"].(string)
	if urgency == "" {
		urgency = "medium"
	}

	strategy := a.decideStrategy(category, budget, urgency)
	suppliers := a.search(requirements, strategy)

	if !a.resultsAcceptable(suppliers) {
		_, err := a.Send(SupervisorID, core.KindNotification, core.Content{
			core.ContentKeyRequestType: string(core.OpEscalation),
			"issue":                    "insufficient_suppliers_found",
			"requirements":             requirements,
			"recommendation":           "Consider relaxing requirements or expanding search criteria",
			core.ContentKeySummary:     "Sourcing agent needs guidance on requirement adjustment",
		}, env.ConversationID)
		return err
	}

	// Urgent single-supplier results skip compliance review.
	if urgency == "high" && len(suppliers) == 1 {
		_, err := a.Send(NegotiationID, core.KindRequest, core.Content{
			core.ContentKeyRequestType: string(core.OpNegotiateBestDeal),
			"suppliers":                SuppliersAsContent(suppliers),
			"original_request":         map[string]any(env.Content),
			core.ContentKeySummary:     fmt.Sprintf("Fast-track %d suppliers for negotiation", len(suppliers)),
		}, env.ConversationID)
		return err
	}

	_, err := a.Send(ComplianceID, core.KindRequest, core.Content{
		core.ContentKeyRequestType: string(core.OpCheckCompliance),
		"suppliers":                SuppliersAsContent(suppliers),
		"requirements":             requirements,
		"original_request":         map[string]any(env.Content),
		core.ContentKeySummary:     fmt.Sprintf("Found %d suppliers for compliance review", len(suppliers)),
	}, env.ConversationID)
	return err
}

func (a *Sourcing) handleEvaluateSupplier(env core.Envelope) error {
	supplierID := env.Content.String("supplier_id")
	for _, s := range a.catalog {
		if s.ID == supplierID {
			_, err := a.Send(env.From, core.KindResponse, core.Content{
				core.ContentKeyRequestType: string(core.OpEvaluateSupplier),
				"supplier":                 s.AsContent(),
				"rank_score":               a.rankScore(s, nil, strategyBalanced),
				core.ContentKeySummary:     fmt.Sprintf("Evaluation for %s", s.Name),
			}, env.ConversationID)
			return err
		}
	}
	return fmt.Errorf("supplier %q not found in catalog", supplierID)
}

func (a *Sourcing) handleExpandedSearch(env core.Envelope) error {
	if a.rng.Float64() < expandedSearchSuccessRate {
		_, err := a.Send(SupervisorID, core.KindResponse, core.Content{
			core.ContentKeyRequestType: string(core.OpExpandedSearchComplete),
			"result":                   "found_alternative_suppliers",
			"supplier_count":           float64(1 + a.rng.Intn(2)),
			"note":                     "Found suppliers with relaxed compliance requirements",
			core.ContentKeySummary:     "Expanded search successful - found alternative suppliers",
		}, env.ConversationID)
		return err
	}
	_, err := a.Send(SupervisorID, core.KindResponse, core.Content{
		core.ContentKeyRequestType: string(core.OpExpandedSearchComplete),
		"result":                   "insufficient_suppliers_in_market",
		"recommendation":           "Consider alternative procurement strategies or market research",
		core.ContentKeySummary:     "Expanded search completed - market limitations identified",
	}, env.ConversationID)
	return err
}

func (a *Sourcing) decideStrategy(category string, budget float64, urgency string) string {
	switch {
	case urgency == "high":
		return strategyFastDelivery
	case budget > 100000:
		return strategyPremiumOnly
	case category == "electronics" || category == "manufacturing":
		return strategySpecialized
	default:
		return strategyBalanced
	}
}

func (a *Sourcing) search(requirements map[string]any, strategy string) []Supplier {
	category, _ := requirements["category"].(string)

	var relevant []Supplier
	for _, s := range a.catalog {
		if s.Matches(category) {
			relevant = append(relevant, s)
		}
	}

	filtered := relevant[:0:0]
	for _, s := range relevant {
		switch strategy {
		case strategyFastDelivery:
			if s.LeadTimeDays <= 10 {
				filtered = append(filtered, s)
			}
		case strategyPremiumOnly:
			if s.PricingTier == "premium" {
				filtered = append(filtered, s)
			}
		case strategySpecialized:
			if s.ComplianceScore >= 90 {
				filtered = append(filtered, s)
			}
		default:
			filtered = append(filtered, s)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return a.rankScore(filtered[i], requirements, strategy) > a.rankScore(filtered[j], requirements, strategy)
	})

	if len(filtered) > a.maxSuppliers {
		filtered = filtered[:a.maxSuppliers]
	}
	return filtered
}

func (a *Sourcing) rankScore(s Supplier, requirements map[string]any, strategy string) float64 {
	score := s.ComplianceScore

	switch strategy {
	case strategyFastDelivery:
		if extra := float64(30-s.LeadTimeDays) * 2; extra > 0 {
			score += extra
		}
	case strategyPremiumOnly:
		if s.PricingTier == "premium" {
			score += 20
		}
	}

	budget, _ := requirements["budget"].(float64)
	quantity, _ := requirements["quantity"].(float64)
	if quantity < 1 {
		quantity = 1
	}
	if budget/quantity > 50 && (s.PricingTier == "budget" || s.PricingTier == "mid-range") {
		score -= 10
	}
	return score
}

// resultsAcceptable requires at least one supplier meeting the minimum
// compliance standard.
func (a *Sourcing) resultsAcceptable(suppliers []Supplier) bool {
	for _, s := range suppliers {
		if s.ComplianceScore >= 75 {
			return true
		}
	}
	return false
}
