package notify

// console.go — reporte de propuestas por stdout.

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/polylp/internal/domain"
)

// Console implementa ports.Notifier imprimiendo la propuesta en una tabla.
type Console struct {
	out io.Writer
}

// NewConsole escribe en stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter permite redirigir la salida (tests).
func NewConsoleWriter(out io.Writer) *Console {
	return &Console{out: out}
}

// Notify imprime el resumen del mercado y una tabla con los niveles de
// ladder propuestos por token.
func (c *Console) Notify(_ context.Context, proposal domain.Proposal) error {
	m := proposal.Market

	fmt.Fprintf(c.out, "\n========================================================\n")
	fmt.Fprintf(c.out, "  %s\n", marketLabel(m))
	fmt.Fprintf(c.out, "  scored at %s | side=%s | budget $%.2f\n",
		proposal.ScoredAt.Format("2006-01-02 15:04:05"), proposal.Side, proposal.BudgetUSDC)
	fmt.Fprintf(c.out, "========================================================\n\n")

	fmt.Fprintf(c.out, "  Qmin book:     %10.4f\n", proposal.QminBook)
	fmt.Fprintf(c.out, "  Qmin proposed: %10.4f\n", proposal.QminOurs)
	fmt.Fprintf(c.out, "  pool share:    %9.1f%%\n\n", proposal.PoolShare*100)

	table := tablewriter.NewWriter(c.out)
	table.Header("Token", "Mid", "Side", "Price", "Size", "Notional")

	for _, quote := range proposal.Quotes {
		c.appendRungs(table, quote, domain.SideBid, quote.Ladder.Bids)
		c.appendRungs(table, quote, domain.SideAsk, quote.Ladder.Asks)
	}
	table.Render()

	fmt.Fprintf(c.out, "  Qmin = min de lados con descuento single-side | Notional = price*size\n")
	return nil
}

func (c *Console) appendRungs(table *tablewriter.Table, quote domain.TokenQuote, side domain.Side, rungs []domain.BookEntry) {
	for _, rung := range rungs {
		table.Append(
			truncate(quote.Token.TokenID, 12),
			fmt.Sprintf("%.3f", quote.Mid),
			string(side),
			fmt.Sprintf("%.3f", rung.Price),
			fmt.Sprintf("%.2f", rung.Size),
			fmt.Sprintf("$%.2f", rung.Price*rung.Size),
		)
	}
}

func marketLabel(m domain.Market) string {
	if m.Question != "" {
		return truncate(m.Question, 50)
	}
	if m.Slug != "" {
		return m.Slug
	}
	return m.ID
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
