package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polylp/internal/domain"
)

func testProposal() domain.Proposal {
	return domain.Proposal{
		Market: domain.Market{
			ID:           "123",
			Question:     "Will X happen?",
			Slug:         "will-x-happen",
			ClobTokenIDs: [2]string{"111", "222"},
		},
		Quotes: [2]domain.TokenQuote{
			{
				Token: domain.Token{TokenID: "111"},
				Mid:   0.50,
				Ladder: domain.Ladder{
					Bids: []domain.BookEntry{{Price: 0.49, Size: 17.0}},
					Asks: []domain.BookEntry{{Price: 0.51, Size: 16.3}},
				},
			},
			{Token: domain.Token{TokenID: "222"}, Mid: 0.50},
		},
		QminBook:   29.63,
		QminOurs:   12.41,
		PoolShare:  0.295,
		BudgetUSDC: 100,
		Side:       domain.SideBoth,
		ScoredAt:   time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestConsole_Notify_PrintsRungs(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	require.NoError(t, c.Notify(context.Background(), testProposal()))
	out := buf.String()

	assert.Contains(t, out, "Will X happen?")
	assert.Contains(t, out, "0.490")
	assert.Contains(t, out, "0.510")
	assert.Contains(t, out, "bid")
	assert.Contains(t, out, "ask")
	assert.Contains(t, out, "29.63")
	assert.Contains(t, out, "29.5%")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "longstr...", truncate("longstring-that-overflows", 10))
}

func TestMarketLabel_Fallbacks(t *testing.T) {
	assert.Equal(t, "a-slug", marketLabel(domain.Market{ID: "1", Slug: "a-slug"}))
	assert.Equal(t, "1", marketLabel(domain.Market{ID: "1"}))
}
