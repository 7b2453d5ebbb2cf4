package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOrderAggregates(t *testing.T) {
	s := NewInMemoryStore()
	now := time.Now()

	s.RecordOrder(OrderOutcome{SupplierID: "sup-1", OnTime: true, SavingsPct: 10, At: now})
	s.RecordOrder(OrderOutcome{SupplierID: "sup-1", OnTime: false, QualityIssue: true, SavingsPct: 5, At: now.Add(time.Hour)})

	rec, ok := s.Performance("sup-1")
	require.True(t, ok)
	assert.Equal(t, 2, rec.TotalOrders)
	assert.Equal(t, 1, rec.OnTimeDeliveries)
	assert.Equal(t, 1, rec.QualityIncidents)
	assert.InDelta(t, 15.0, rec.TotalSavingsPct, 0.001)
	assert.Equal(t, now.Add(time.Hour), rec.LastOrderAt)
}

func TestScorecardDerivation(t *testing.T) {
	s := NewInMemoryStore()
	for i := 0; i < 10; i++ {
		s.RecordOrder(OrderOutcome{SupplierID: "reliable", OnTime: true})
	}

	card, ok := s.Scorecard("reliable")
	require.True(t, ok)
	assert.InDelta(t, 100.0, card.OverallScore, 0.001)
	assert.Equal(t, "low", card.RiskLevel)

	for i := 0; i < 10; i++ {
		s.RecordOrder(OrderOutcome{SupplierID: "flaky", OnTime: i%2 == 0, QualityIssue: i%3 == 0})
	}
	card, ok = s.Scorecard("flaky")
	require.True(t, ok)
	assert.Less(t, card.OverallScore, 85.0)
	assert.NotEqual(t, "low", card.RiskLevel)
}

func TestScorecardUnknownSupplier(t *testing.T) {
	s := NewInMemoryStore()
	_, ok := s.Scorecard("nobody")
	assert.False(t, ok)
	_, ok = s.Performance("nobody")
	assert.False(t, ok)
}
