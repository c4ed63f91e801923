package storage

// sqlite.go — histórico de scoring y transacciones en SQLite (pure Go, sin CGo).
//
// Estrategia:
//   - `snapshots`: una fila por invocación de scoring (Qmin actual vs propuesto,
//     pool share, presupuesto). Es la serie temporal que permite comparar la
//     propuesta contra lo que realmente había en el book.
//   - `proposed_orders`: los niveles de ladder de cada snapshot. Se insertan en
//     la misma transacción que su snapshot.
//   - `transactions`: log de las tx on-chain enviadas por la capa de reliability.
//   - Prune automático al arrancar: snapshots y tx > 30d.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/polylp/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
-- Una fila por invocación de scoring
CREATE TABLE IF NOT EXISTS snapshots (
    id          TEXT PRIMARY KEY,
    market_id   TEXT NOT NULL,
    slug        TEXT,
    token_one   TEXT NOT NULL,
    token_two   TEXT NOT NULL,
    mid_one     REAL NOT NULL,
    mid_two     REAL NOT NULL,
    q_current   REAL NOT NULL DEFAULT 0,
    q_proposed  REAL NOT NULL DEFAULT 0,
    pool_share  REAL NOT NULL DEFAULT 0,
    budget_usdc REAL NOT NULL DEFAULT 0,
    scored_at   DATETIME NOT NULL
);

-- Niveles de ladder propuestos, ligados a su snapshot
CREATE TABLE IF NOT EXISTS proposed_orders (
    snapshot_id TEXT NOT NULL REFERENCES snapshots(id),
    token_id    TEXT NOT NULL,
    side        TEXT NOT NULL,
    price       REAL NOT NULL,
    size        REAL NOT NULL
);

-- Log de transacciones on-chain
CREATE TABLE IF NOT EXISTS transactions (
    hash         TEXT PRIMARY KEY,
    kind         TEXT NOT NULL,
    operator     TEXT NOT NULL,
    attempts     INTEGER NOT NULL DEFAULT 1,
    success      INTEGER NOT NULL DEFAULT 0,
    submitted_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snap_market ON snapshots(market_id, scored_at DESC);
CREATE INDEX IF NOT EXISTS idx_orders_snap ON proposed_orders(snapshot_id);
CREATE INDEX IF NOT EXISTS idx_tx_at       ON transactions(submitted_at DESC);
`

const retention = 30 * 24 * time.Hour

// SQLiteStore implementa ports.SnapshotStore.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore abre (o crea) la base de datos en la ruta dada, aplica el
// schema y limpia datos antiguos.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}

	s := &SQLiteStore{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveSnapshot persiste el snapshot y sus niveles de ladder atómicamente.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap ports.ScoreSnapshot, orders []ports.ProposedOrder) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveSnapshot: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots
			(id, market_id, slug, token_one, token_two, mid_one, mid_two,
			 q_current, q_proposed, pool_share, budget_usdc, scored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		snap.ID,
		snap.MarketID,
		snap.Slug,
		snap.TokenOne,
		snap.TokenTwo,
		snap.MidOne,
		snap.MidTwo,
		snap.QCurrent,
		snap.QProposed,
		snap.PoolShare,
		snap.BudgetUSDC,
		snap.ScoredAt.UTC(),
	); err != nil {
		return fmt.Errorf("storage.SaveSnapshot: insert snapshot %s: %w", snap.ID, err)
	}

	if len(orders) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO proposed_orders (snapshot_id, token_id, side, price, size)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("storage.SaveSnapshot: prepare orders: %w", err)
		}
		defer stmt.Close()

		for _, order := range orders {
			if _, err := stmt.ExecContext(ctx,
				snap.ID, order.TokenID, string(order.Side), order.Price, order.Size,
			); err != nil {
				return fmt.Errorf("storage.SaveSnapshot: insert order: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveSnapshot: commit: %w", err)
	}
	return nil
}

// SaveTx registra una transacción on-chain. Un reenvío con el mismo hash
// actualiza intentos y resultado.
func (s *SQLiteStore) SaveTx(ctx context.Context, rec ports.TxRecord) error {
	success := 0
	if rec.Success {
		success = 1
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (hash, kind, operator, attempts, success, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			attempts = excluded.attempts,
			success  = excluded.success
	`,
		rec.Hash, rec.Kind, rec.Operator, rec.Attempts, success, rec.SubmittedAt.UTC(),
	); err != nil {
		return fmt.Errorf("storage.SaveTx: upsert %s: %w", rec.Hash, err)
	}
	return nil
}

// History devuelve los snapshots de un mercado en el rango dado, los más
// recientes primero.
func (s *SQLiteStore) History(ctx context.Context, marketID string, from, to time.Time) ([]ports.ScoreSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, market_id, slug, token_one, token_two, mid_one, mid_two,
		       q_current, q_proposed, pool_share, budget_usdc, scored_at
		FROM snapshots
		WHERE market_id = ? AND scored_at BETWEEN ? AND ?
		ORDER BY scored_at DESC
	`, marketID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("storage.History: query: %w", err)
	}
	defer rows.Close()

	var snaps []ports.ScoreSnapshot
	for rows.Next() {
		var snap ports.ScoreSnapshot
		var scoredAt string
		if err := rows.Scan(
			&snap.ID,
			&snap.MarketID,
			&snap.Slug,
			&snap.TokenOne,
			&snap.TokenTwo,
			&snap.MidOne,
			&snap.MidTwo,
			&snap.QCurrent,
			&snap.QProposed,
			&snap.PoolShare,
			&snap.BudgetUSDC,
			&scoredAt,
		); err != nil {
			return nil, fmt.Errorf("storage.History: scan row: %w", err)
		}
		snap.ScoredAt, _ = time.Parse(time.RFC3339, scoredAt)
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// pruneOld elimina datos antiguos para mantener la DB ligera.
func (s *SQLiteStore) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retention)
	s.db.ExecContext(ctx, `DELETE FROM proposed_orders WHERE snapshot_id IN
		(SELECT id FROM snapshots WHERE scored_at < ?)`, cutoff)
	s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE scored_at < ?`, cutoff)
	s.db.ExecContext(ctx, `DELETE FROM transactions WHERE submitted_at < ?`, cutoff)
}
