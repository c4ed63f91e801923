package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polylp/internal/adapters/storage"
	"github.com/alejandrodnm/polylp/internal/ports"
)

func TestRunHistory_PrintsStoredSnapshots(t *testing.T) {
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	snap := ports.ScoreSnapshot{
		ID:         uuid.NewString(),
		MarketID:   "123",
		Slug:       "will-x-happen",
		TokenOne:   "111",
		TokenTwo:   "222",
		MidOne:     0.5,
		MidTwo:     0.5,
		QCurrent:   29.63,
		QProposed:  12.41,
		PoolShare:  0.295,
		BudgetUSDC: 100,
		ScoredAt:   time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, store.SaveSnapshot(context.Background(), snap, nil))

	var buf bytes.Buffer
	require.NoError(t, runHistory(context.Background(), store, "123", 7, &buf))

	out := buf.String()
	assert.Contains(t, out, "market 123")
	assert.Contains(t, out, "29.6300")
	assert.Contains(t, out, "12.4100")
	assert.Contains(t, out, "29.5%")
}

func TestRunHistory_EmptyWindow(t *testing.T) {
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	var buf bytes.Buffer
	require.NoError(t, runHistory(context.Background(), store, "999", 7, &buf))
	assert.Contains(t, buf.String(), "no snapshots for market 999")
}
