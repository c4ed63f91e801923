package main

// score.go — modo one-shot: un ciclo de scoring y salida.

import (
	"context"

	"log/slog"

	"github.com/alejandrodnm/polylp/internal/application/quoter"
)

func runScore(ctx context.Context, q *quoter.Quoter, marketID, slug, tokenID string, execute bool) error {
	proposal, err := q.QuoteMarket(ctx, marketID, slug, tokenID)
	if err != nil {
		return err
	}

	if execute {
		if err := q.Execute(ctx, proposal); err != nil {
			return err
		}
	}

	slog.Info("scoring cycle finished",
		"market", proposal.Market.ID,
		"qmin_book", proposal.QminBook,
		"qmin_ours", proposal.QminOurs,
		"pool_share", proposal.PoolShare,
	)
	return nil
}
