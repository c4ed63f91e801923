package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUtility_AtMidpoint(t *testing.T) {
	// s=0 → score completo = b
	assert.Equal(t, 2.5, Utility(3, 0, 2.5))
}

func TestUtility_OutsideSpread(t *testing.T) {
	assert.Equal(t, 0.0, Utility(3, 3.01, 1))
	assert.Equal(t, 0.0, Utility(3, 100, 1))
}

func TestUtility_AtBoundary(t *testing.T) {
	assert.Equal(t, 0.0, Utility(3, 3, 1))
}

func TestUtility_Quadratic(t *testing.T) {
	// v=3, s=1.5 → ((3-1.5)/3)² = 0.25
	assert.InDelta(t, 0.25, Utility(3, 1.5, 1), 1e-12)
}

func TestUtility_NegativeSpreadClampedToZero(t *testing.T) {
	assert.Equal(t, 1.0, Utility(3, -0.5, 1))
}

func TestScoreSide_SumsWeightedUtility(t *testing.T) {
	orders := []BookEntry{
		{Price: 0.50, Size: 10}, // s=0 → 1.0 × 10
		{Price: 0.49, Size: 20}, // s=1 → (2/3)² × 20
		{Price: 0.46, Size: 50}, // s=4 → fuera
	}
	got := ScoreSide(orders, 0.50, 3, 1)
	want := 10.0 + (2.0/3.0)*(2.0/3.0)*20.0
	assert.InDelta(t, want, got, 1e-9)
}

func TestScoreSide_EmptyOrders(t *testing.T) {
	assert.Equal(t, 0.0, ScoreSide(nil, 0.5, 3, 1))
}

func TestCombineQmin_InsideBand(t *testing.T) {
	// max(min(10,2), max(10/3, 2/3)) = max(2, 3.333) = 3.333
	got := CombineQmin(10, 2, 0.5, 3)
	assert.InDelta(t, 10.0/3.0, got, 1e-9)
}

func TestCombineQmin_OutsideBand(t *testing.T) {
	assert.Equal(t, 2.0, CombineQmin(10, 2, 0.05, 3))
	assert.Equal(t, 2.0, CombineQmin(10, 2, 0.95, 3))
}

func TestCombineQmin_BandBoundaries(t *testing.T) {
	// 0.10 y 0.90 pertenecen a la banda bilateral
	assert.InDelta(t, 10.0/3.0, CombineQmin(10, 2, 0.10, 3), 1e-9)
	assert.InDelta(t, 10.0/3.0, CombineQmin(10, 2, 0.90, 3), 1e-9)
}

func TestCombineQmin_Symmetric(t *testing.T) {
	for _, mid := range []float64{0.05, 0.5, 0.95} {
		assert.Equal(t, CombineQmin(10, 2, mid, 3), CombineQmin(2, 10, mid, 3), "mid=%v", mid)
	}
}

func TestCombineQmin_BothSidesEqual(t *testing.T) {
	assert.Equal(t, 5.0, CombineQmin(5, 5, 0.5, 3))
}

func TestSummarizeBook_FiltersDustAndFarOrders(t *testing.T) {
	ob := OrderBook{
		Bids: []BookEntry{
			{Price: 0.49, Size: 100}, // califica
			{Price: 0.49, Size: 1},   // dust
			{Price: 0.40, Size: 100}, // fuera del spread
		},
		Asks: []BookEntry{
			{Price: 0.51, Size: 100},
		},
	}
	p := ScoringParams{VCents: 3, BMultiplier: 1, CScale: 3, MinSize: 5}

	qBids, qAsks, err := SummarizeBook(ob, 0.50, p)
	require.NoError(t, err)

	want := (2.0 / 3.0) * (2.0 / 3.0) * 100.0
	assert.InDelta(t, want, qBids, 1e-9)
	assert.InDelta(t, want, qAsks, 1e-9)
}

func TestSummarizeBook_InvalidMidpoint(t *testing.T) {
	p := ScoringParams{VCents: 3, BMultiplier: 1, CScale: 3}
	_, _, err := SummarizeBook(OrderBook{}, 1.5, p)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestScoringParams_Validate(t *testing.T) {
	assert.NoError(t, ScoringParams{VCents: 3, BMultiplier: 1, CScale: 3}.Validate())
	assert.ErrorIs(t, ScoringParams{VCents: 0, BMultiplier: 1, CScale: 3}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, ScoringParams{VCents: 3, BMultiplier: -1, CScale: 3}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, ScoringParams{VCents: 3, BMultiplier: 1, CScale: 0}.Validate(), ErrInvalidInput)
}

func TestNewMarket_RequiresTwoTokens(t *testing.T) {
	_, err := NewMarket("1", "slug", []string{"a"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewMarket("1", "slug", []string{"a", "b", "c"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	m, err := NewMarket("1", "slug", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [2]string{"a", "b"}, m.ClobTokenIDs)
}
