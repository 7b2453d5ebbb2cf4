package memory

import (
	"sync"
	"time"
)

// OrderOutcome is one completed procurement order attributed to a supplier.
type OrderOutcome struct {
	SupplierID   string    `json:"supplier_id"`
	OnTime       bool      `json:"on_time"`
	QualityIssue bool      `json:"quality_issue"`
	SavingsPct   float64   `json:"savings_pct"`
	At           time.Time `json:"at"`
}

// PerformanceRecord aggregates the recorded history for one supplier.
type PerformanceRecord struct {
	SupplierID       string    `json:"supplier_id"`
	TotalOrders      int       `json:"total_orders"`
	OnTimeDeliveries int       `json:"on_time_deliveries"`
	QualityIncidents int       `json:"quality_incidents"`
	TotalSavingsPct  float64   `json:"total_savings_pct"`
	LastOrderAt      time.Time `json:"last_order_at"`
}

// Scorecard is the derived assessment the negotiation agent consumes.
// Scores are 0-100; RiskLevel is one of "low", "medium", "high".
type Scorecard struct {
	SupplierID    string  `json:"supplier_id"`
	OverallScore  float64 `json:"overall_score"`
	DeliveryScore float64 `json:"delivery_score"`
	QualityScore  float64 `json:"quality_score"`
	RiskLevel     string  `json:"risk_level"`
}

// Store persists supplier performance history and serves derived scorecards.
type Store interface {
	RecordOrder(outcome OrderOutcome)
	Performance(supplierID string) (PerformanceRecord, bool)
	Scorecard(supplierID string) (Scorecard, bool)
}

// InMemoryStore is a process-local Store guarded by a RWMutex. Suitable for
// tests, demos and single-process deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]PerformanceRecord
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory performance store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]PerformanceRecord)}
}

// RecordOrder folds one order outcome into the supplier's record.
func (s *InMemoryStore) RecordOrder(outcome OrderOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.records[outcome.SupplierID]
	rec.SupplierID = outcome.SupplierID
	rec.TotalOrders++
	if outcome.OnTime {
		rec.OnTimeDeliveries++
	}
	if outcome.QualityIssue {
		rec.QualityIncidents++
	}
	rec.TotalSavingsPct += outcome.SavingsPct
	if outcome.At.After(rec.LastOrderAt) {
		rec.LastOrderAt = outcome.At
	}
	s.records[outcome.SupplierID] = rec
}

// Performance returns the aggregated record for a supplier.
func (s *InMemoryStore) Performance(supplierID string) (PerformanceRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[supplierID]
	return rec, ok
}

// Scorecard derives the assessment from the recorded history. Suppliers with
// no history report not-found so callers can apply their conservative
// defaults for unknown suppliers.
func (s *InMemoryStore) Scorecard(supplierID string) (Scorecard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[supplierID]
	if !ok || rec.TotalOrders == 0 {
		return Scorecard{}, false
	}

	delivery := float64(rec.OnTimeDeliveries) / float64(rec.TotalOrders) * 100
	quality := float64(rec.TotalOrders-rec.QualityIncidents) / float64(rec.TotalOrders) * 100
	overall := (delivery + quality) / 2

	risk := "low"
	switch {
	case overall < 70:
		risk = "high"
	case overall < 85:
		risk = "medium"
	}

	return Scorecard{
		SupplierID:    supplierID,
		OverallScore:  overall,
		DeliveryScore: delivery,
		QualityScore:  quality,
		RiskLevel:     risk,
	}, true
}
