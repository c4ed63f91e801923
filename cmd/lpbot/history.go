package main

// history.go — modo history: reporte tabular de los snapshots persistidos.

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/polylp/internal/adapters/storage"
)

// runHistory imprime los snapshots de scoring de un mercado de los últimos
// días, los más recientes primero.
func runHistory(ctx context.Context, store *storage.SQLiteStore, marketID string, days int, out io.Writer) error {
	to := time.Now().UTC()
	from := to.Add(-time.Duration(days) * 24 * time.Hour)

	snaps, err := store.History(ctx, marketID, from, to)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if len(snaps) == 0 {
		fmt.Fprintf(out, "no snapshots for market %s in the last %dd\n", marketID, days)
		return nil
	}

	fmt.Fprintf(out, "\n  market %s | %d snapshots | last %dd\n\n", marketID, len(snaps), days)

	table := tablewriter.NewWriter(out)
	table.Header("Scored At", "Mid", "Qmin Book", "Qmin Ours", "Share", "Budget")
	for _, snap := range snaps {
		table.Append(
			snap.ScoredAt.Format("2006-01-02 15:04"),
			fmt.Sprintf("%.3f", snap.MidOne),
			fmt.Sprintf("%.4f", snap.QCurrent),
			fmt.Sprintf("%.4f", snap.QProposed),
			fmt.Sprintf("%.1f%%", snap.PoolShare*100),
			fmt.Sprintf("$%.2f", snap.BudgetUSDC),
		)
	}
	table.Render()
	return nil
}
