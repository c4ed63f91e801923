package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/polylp/internal/domain"
)

// ScoreSnapshot es el resultado persistible de una invocación de scoring.
type ScoreSnapshot struct {
	ID         string // uuid
	MarketID   string
	Slug       string
	TokenOne   string
	TokenTwo   string
	MidOne     float64
	MidTwo     float64
	QCurrent   float64 // Qmin del book actual
	QProposed  float64 // Qmin de nuestras ladders propuestas
	PoolShare  float64 // cuota aproximada del pool
	BudgetUSDC float64
	ScoredAt   time.Time
}

// ProposedOrder es un nivel de ladder persistido junto a su snapshot.
type ProposedOrder struct {
	SnapshotID string
	TokenID    string
	Side       domain.Side
	Price      float64
	Size       float64
}

// TxRecord es una transacción on-chain enviada por la capa de reliability.
type TxRecord struct {
	Hash        string
	Kind        string // erc20_approve | erc1155_approve
	Operator    string
	Attempts    int
	Success     bool
	SubmittedAt time.Time
}

// SnapshotStore persiste snapshots de scoring, ladders propuestas y el log
// de transacciones enviadas.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap ScoreSnapshot, orders []ProposedOrder) error
	SaveTx(ctx context.Context, rec TxRecord) error
	Close() error
}
