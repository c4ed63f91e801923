package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rungPrices(entries []BookEntry) []float64 {
	out := make([]float64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Price)
	}
	return out
}

func TestProposeLadder_BothSides(t *testing.T) {
	ladder, err := ProposeLadder(0.5, 0.01, 3, 5, 100, SideBoth)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0.49, 0.48, 0.47}, rungPrices(ladder.Bids), 1e-9)
	assert.InDeltaSlice(t, []float64{0.51, 0.52, 0.53}, rungPrices(ladder.Asks), 1e-9)

	// El notional de cada lado conserva la mitad del presupuesto
	assert.InDelta(t, 50.0, Notional(ladder.Bids), 1e-9)
	assert.InDelta(t, 50.0, Notional(ladder.Asks), 1e-9)
}

func TestProposeLadder_SingleSide(t *testing.T) {
	ladder, err := ProposeLadder(0.5, 0.01, 3, 5, 100, SideBid)
	require.NoError(t, err)

	assert.Len(t, ladder.Bids, 3)
	assert.Empty(t, ladder.Asks)
	assert.InDelta(t, 100.0, Notional(ladder.Bids), 1e-9)
}

func TestProposeLadder_FallbackToNearestRung(t *testing.T) {
	// Presupuesto $3 por lado, 3 niveles → $1/nivel → size ~2 < min 5.
	// El fallback coloca todo el lado en el nivel más cercano al mid.
	ladder, err := ProposeLadder(0.5, 0.01, 3, 5, 6, SideBoth)
	require.NoError(t, err)

	require.Len(t, ladder.Bids, 1)
	assert.InDelta(t, 0.49, ladder.Bids[0].Price, 1e-9)
	assert.InDelta(t, 3.0/0.49, ladder.Bids[0].Size, 1e-9)
	assert.GreaterOrEqual(t, ladder.Bids[0].Size, 5.0)

	require.Len(t, ladder.Asks, 1)
	assert.InDelta(t, 0.51, ladder.Asks[0].Price, 1e-9)
}

func TestProposeLadder_FallbackStillDust(t *testing.T) {
	// Ni con todo el presupuesto en un nivel se alcanza min_size → cero niveles.
	ladder, err := ProposeLadder(0.5, 0.01, 3, 5, 1, SideBoth)
	require.NoError(t, err)

	assert.Empty(t, ladder.Bids)
	assert.Empty(t, ladder.Asks)
}

func TestProposeLadder_ClampsToPriceRange(t *testing.T) {
	// mid=0.02, v=3c → niveles bid en 0.01 (0.00 y negativos se descartan)
	ladder, err := ProposeLadder(0.02, 0.01, 3, 0.1, 10, SideBoth)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0.01}, rungPrices(ladder.Bids), 1e-9)
	assert.InDeltaSlice(t, []float64{0.03, 0.04, 0.05}, rungPrices(ladder.Asks), 1e-9)
}

func TestProposeLadder_AskIncludesOne(t *testing.T) {
	// asks permiten precio exactamente 1.0; bids nunca llegan a 1.0
	ladder, err := ProposeLadder(0.99, 0.01, 2, 0.1, 10, SideAsk)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{1.0}, rungPrices(ladder.Asks), 1e-9)
}

func TestProposeLadder_CoarseTickSingleStep(t *testing.T) {
	// tick mayor que v$ → floor(v/tick)=0, se fuerza al menos un paso
	ladder, err := ProposeLadder(0.5, 0.1, 3, 0.1, 100, SideBoth)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0.4}, rungPrices(ladder.Bids), 1e-9)
	assert.InDeltaSlice(t, []float64{0.6}, rungPrices(ladder.Asks), 1e-9)
}

func TestProposeLadder_InvalidInputs(t *testing.T) {
	_, err := ProposeLadder(0.5, 0, 3, 5, 100, SideBoth)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ProposeLadder(0.5, 0.01, 0, 5, 100, SideBoth)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ProposeLadder(-0.1, 0.01, 3, 5, 100, SideBoth)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ProposeLadder(1.1, 0.01, 3, 5, 100, SideBoth)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ProposeLadder(0, 0.01, 3, 5, 100, SideBoth)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ProposeLadder(0.5, 0.01, 3, 5, 100, Side("short"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseSide(t *testing.T) {
	for _, s := range []string{"both", "bid", "ask"} {
		side, err := ParseSide(s)
		require.NoError(t, err)
		assert.Equal(t, Side(s), side)
	}
	_, err := ParseSide("buy")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
