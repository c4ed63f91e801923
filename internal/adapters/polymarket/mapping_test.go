package polymarket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polylp/internal/domain"
)

func TestMapBookEntries_SortsAndFilters(t *testing.T) {
	raw := []bookEntryRaw{
		{Price: "0.40", Size: "10"},
		{Price: "0.45", Size: "5"},
		{Price: "0", Size: "100"},    // precio inválido
		{Price: "0.42", Size: "-1"},  // size inválido
		{Price: "bogus", Size: "10"}, // no parseable
	}

	bids := mapBookEntries(raw, false)
	require.Len(t, bids, 2)
	assert.Equal(t, 0.45, bids[0].Price)
	assert.Equal(t, 0.40, bids[1].Price)

	asks := mapBookEntries(raw, true)
	require.Len(t, asks, 2)
	assert.Equal(t, 0.40, asks[0].Price)
	assert.Equal(t, 0.45, asks[1].Price)
}

func TestMapBookSummary_TokenDefaults(t *testing.T) {
	_, tok := mapBookSummary("tok1", bookSummaryResponse{
		TickSize:     "",
		MinOrderSize: "",
		NegRisk:      true,
	})

	assert.Equal(t, "tok1", tok.TokenID)
	assert.Equal(t, 0.01, tok.TickSize)
	assert.Equal(t, 0.001, tok.MinOrderSize)
	assert.True(t, tok.NegRisk)
}

func TestMapBookSummary_ParsesDescriptor(t *testing.T) {
	ob, tok := mapBookSummary("tok1", bookSummaryResponse{
		Bids:         []bookEntryRaw{{Price: "0.49", Size: "100"}},
		Asks:         []bookEntryRaw{{Price: "0.51", Size: "50"}},
		TickSize:     "0.001",
		MinOrderSize: "5",
	})

	assert.Equal(t, 0.001, tok.TickSize)
	assert.Equal(t, 5.0, tok.MinOrderSize)
	assert.Equal(t, 0.49, ob.BestBid())
	assert.Equal(t, 0.51, ob.BestAsk())
}

func TestMapGammaMarket_ParsesEncodedTokenIDs(t *testing.T) {
	m, err := mapGammaMarket(gammaMarket{
		ID:           "123",
		ConditionID:  "0xabc",
		Slug:         "will-it-rain",
		ClobTokenIDs: `["111","222"]`,
		Active:       true,
	})
	require.NoError(t, err)

	assert.Equal(t, [2]string{"111", "222"}, m.ClobTokenIDs)
	assert.Equal(t, "0xabc", m.ConditionID)
	assert.True(t, m.Active)
}

func TestMapGammaMarket_WrongCardinality(t *testing.T) {
	_, err := mapGammaMarket(gammaMarket{ID: "123", ClobTokenIDs: `["111"]`})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = mapGammaMarket(gammaMarket{ID: "123", ClobTokenIDs: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMapGammaMarket_MalformedTokenIDs(t *testing.T) {
	_, err := mapGammaMarket(gammaMarket{ID: "123", ClobTokenIDs: `not-json`})
	assert.Error(t, err)
}
