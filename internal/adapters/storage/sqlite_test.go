package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polylp/internal/adapters/storage"
	"github.com/alejandrodnm/polylp/internal/domain"
	"github.com/alejandrodnm/polylp/internal/ports"
)

func makeSnapshot(marketID string, qProposed float64) ports.ScoreSnapshot {
	return ports.ScoreSnapshot{
		ID:         uuid.NewString(),
		MarketID:   marketID,
		Slug:       "will-x-happen",
		TokenOne:   "111",
		TokenTwo:   "222",
		MidOne:     0.50,
		MidTwo:     0.50,
		QCurrent:   12.5,
		QProposed:  qProposed,
		PoolShare:  0.4,
		BudgetUSDC: 100,
		ScoredAt:   time.Now().UTC().Truncate(time.Second),
	}
}

func TestSQLiteStore_SaveAndHistory(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	older := makeSnapshot("123", 24.0)
	older.ScoredAt = older.ScoredAt.Add(-time.Minute)
	newer := makeSnapshot("123", 30.0)

	orders := []ports.ProposedOrder{
		{SnapshotID: newer.ID, TokenID: "111", Side: domain.SideBid, Price: 0.49, Size: 34.01},
		{SnapshotID: newer.ID, TokenID: "111", Side: domain.SideAsk, Price: 0.51, Size: 32.68},
	}

	require.NoError(t, db.SaveSnapshot(context.Background(), older, nil))
	require.NoError(t, db.SaveSnapshot(context.Background(), newer, orders))

	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC().Add(time.Minute)
	history, err := db.History(context.Background(), "123", from, to)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Más recientes primero
	assert.Equal(t, newer.ID, history[0].ID)
	assert.InDelta(t, 30.0, history[0].QProposed, 0.001)
	assert.InDelta(t, 24.0, history[1].QProposed, 0.001)
}

func TestSQLiteStore_History_FiltersByMarket(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.SaveSnapshot(context.Background(), makeSnapshot("123", 10), nil))
	require.NoError(t, db.SaveSnapshot(context.Background(), makeSnapshot("456", 20), nil))

	history, err := db.History(context.Background(), "456",
		time.Now().UTC().Add(-time.Hour), time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "456", history[0].MarketID)
}

func TestSQLiteStore_SaveTx_UpsertsByHash(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	rec := ports.TxRecord{
		Hash:        "0xabc",
		Kind:        "erc20_approve",
		Operator:    "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E",
		Attempts:    1,
		Success:     false,
		SubmittedAt: time.Now().UTC(),
	}
	require.NoError(t, db.SaveTx(context.Background(), rec))

	// Reenvío con el mismo hash: actualiza en vez de fallar
	rec.Attempts = 3
	rec.Success = true
	require.NoError(t, db.SaveTx(context.Background(), rec))
}

func TestSQLiteStore_History_EmptyRange(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	history, err := db.History(context.Background(), "123",
		time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Empty(t, history)
}
