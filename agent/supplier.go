package agent

import "strings"

// Supplier is one entry in the sourcing catalog. The map form produced by
// AsContent is what travels inside envelopes; the struct form is what the
// collaborators compute with.
type Supplier struct {
	ID              string
	Name            string
	Capabilities    []string
	ComplianceScore float64
	FinancialRating string
	PricingTier     string
	LeadTimeDays    int
	Certifications  []string
}

// Matches reports whether the supplier serves the requested category, either
// by listing it as a capability or by a capability being a substring of the
// category.
func (s Supplier) Matches(category string) bool {
	for _, cap := range s.Capabilities {
		if cap == category || (cap != "" && strings.Contains(category, cap)) {
			return true
		}
	}
	return false
}

// AsContent renders the supplier as the wire map embedded in envelope content.
func (s Supplier) AsContent() map[string]any {
	caps := make([]any, len(s.Capabilities))
	for i, c := range s.Capabilities {
		caps[i] = c
	}
	certs := make([]any, len(s.Certifications))
	for i, c := range s.Certifications {
		certs[i] = c
	}
	return map[string]any{
		"id":               s.ID,
		"name":             s.Name,
		"capabilities":     caps,
		"compliance_score": s.ComplianceScore,
		"financial_rating": s.FinancialRating,
		"pricing_tier":     s.PricingTier,
		"lead_time_days":   float64(s.LeadTimeDays),
		"certifications":   certs,
	}
}

// SupplierFromContent parses the wire map back to a Supplier. Missing or
// mistyped fields fall back to zero values.
func SupplierFromContent(m map[string]any) Supplier {
	s := Supplier{}
	s.ID, _ = m["id"].(string)
	s.Name, _ = m["name"].(string)
	s.FinancialRating, _ = m["financial_rating"].(string)
	s.PricingTier, _ = m["pricing_tier"].(string)
	if v, ok := m["compliance_score"].(float64); ok {
		s.ComplianceScore = v
	}
	if v, ok := m["lead_time_days"].(float64); ok {
		s.LeadTimeDays = int(v)
	}
	if vs, ok := m["capabilities"].([]any); ok {
		for _, v := range vs {
			if c, ok := v.(string); ok {
				s.Capabilities = append(s.Capabilities, c)
			}
		}
	}
	if vs, ok := m["certifications"].([]any); ok {
		for _, v := range vs {
			if c, ok := v.(string); ok {
				s.Certifications = append(s.Certifications, c)
			}
		}
	}
	return s
}

// SuppliersFromContent parses a content slice of wire maps.
func SuppliersFromContent(items []any) []Supplier {
	var out []Supplier
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, SupplierFromContent(m))
		}
	}
	return out
}

// SuppliersAsContent renders a supplier list as a content slice.
func SuppliersAsContent(suppliers []Supplier) []any {
	out := make([]any, len(suppliers))
	for i, s := range suppliers {
		out[i] = s.AsContent()
	}
	return out
}

// DefaultCatalog returns the built-in supplier database used by demos and
// single-process deployments.
func DefaultCatalog() []Supplier {
	return []Supplier{
		{
			ID:              "supplier_001",
			Name:            "Global Electronics Ltd",
			Capabilities:    []string{"electronics", "components"},
			ComplianceScore: 95,
			FinancialRating: "A",
			PricingTier:     "premium",
			LeadTimeDays:    7,
			Certifications:  []string{"ISO_9001", "ISO_14001"},
		},
		{
			ID:              "supplier_002",
			Name:            "Precision Manufacturing Co",
			Capabilities:    []string{"manufacturing", "machinery"},
			ComplianceScore: 92,
			FinancialRating: "A-",
			PricingTier:     "mid-range",
			LeadTimeDays:    14,
			Certifications:  []string{"ISO_9001"},
		},
		{
			ID:              "supplier_003",
			Name:            "Budget Office Supplies",
			Capabilities:    []string{"office_supplies", "furniture"},
			ComplianceScore: 78,
			FinancialRating: "B",
			PricingTier:     "budget",
			LeadTimeDays:    5,
			Certifications:  []string{"ISO_9001"},
		},
		{
			ID:              "supplier_004",
			Name:            "Rapid Components Inc",
			Capabilities:    []string{"electronics", "machinery"},
			ComplianceScore: 88,
			FinancialRating: "B+",
			PricingTier:     "mid-range",
			LeadTimeDays:    3,
			Certifications:  []string{"ISO_9001"},
		},
		{
			ID:              "supplier_005",
			Name:            "Discount Traders",
			Capabilities:    []string{"office_supplies", "electronics"},
			ComplianceScore: 60,
			FinancialRating: "C",
			PricingTier:     "budget",
			LeadTimeDays:    21,
			Certifications:  []string{},
		},
		{
			ID:              "supplier_006",
			Name:            "Industrial Materials Group",
			Capabilities:    []string{"raw_materials", "manufacturing"},
			ComplianceScore: 90,
			FinancialRating: "A",
			PricingTier:     "premium",
			LeadTimeDays:    30,
			Certifications:  []string{"ISO_9001", "ISO_14001"},
		},
	}
}
