package main

// run.go — modo live: feed de market/account data + scoring periódico.

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/alejandrodnm/polylp/config"
	"github.com/alejandrodnm/polylp/internal/adapters/polymarket"
	"github.com/alejandrodnm/polylp/internal/adapters/stream"
	"github.com/alejandrodnm/polylp/internal/application/quoter"
)

// feedCounter cuenta eventos recibidos por canal. El loop live reporta los
// totales en cada ciclo de scoring.
type feedCounter struct {
	market  atomic.Int64
	account atomic.Int64
}

func (f *feedCounter) ProcessMarketEvents(_ context.Context, events []json.RawMessage) error {
	f.market.Add(int64(len(events)))
	return nil
}

func (f *feedCounter) ProcessAccountEvents(_ context.Context, events []json.RawMessage) error {
	f.account.Add(int64(len(events)))
	for _, ev := range events {
		slog.Info("account event", "payload", string(ev))
	}
	return nil
}

// runLive resuelve el mercado una vez, suscribe los feeds a sus tokens y
// puntúa periódicamente hasta la cancelación.
func runLive(ctx context.Context, cfg *config.Config, q *quoter.Quoter, client *polymarket.Client, auth *polymarket.AuthClient, marketID, slug, tokenID string, execute bool) error {
	market, err := client.FindMarket(ctx, marketID, slug, tokenID)
	if err != nil {
		return fmt.Errorf("resolve market: %w", err)
	}

	counter := &feedCounter{}
	sup := stream.NewSupervisor(stream.Config{
		BaseURL:        cfg.Feed.BaseURL,
		ProxyURL:       cfg.Feed.ProxyURL,
		ConnectTimeout: time.Duration(cfg.Feed.ConnectTimeoutS) * time.Second,
		ReconnectDelay: time.Duration(cfg.Feed.ReconnectDelayS) * time.Second,
		PingInterval:   time.Duration(cfg.Feed.PingIntervalS) * time.Second,
		ChunkSize:      cfg.Feed.ChunkSize,
	}, auth, counter)

	withAccount := cfg.Feed.SubscribeAccount && auth != nil
	feedDone := make(chan error, 1)
	go func() {
		feedDone <- sup.Run(ctx, market.ClobTokenIDs[:], withAccount)
	}()

	ticker := time.NewTicker(cfg.QuoteInterval())
	defer ticker.Stop()

	for {
		proposal, err := q.QuoteMarket(ctx, market.ID, "", "")
		if err != nil {
			slog.Error("scoring cycle failed", "market", market.ID, "err", err)
		} else if execute {
			if err := q.Execute(ctx, proposal); err != nil {
				slog.Error("order placement failed", "market", market.ID, "err", err)
			}
		}

		slog.Info("cycle complete",
			"market", market.ID,
			"feed_market_events", counter.market.Load(),
			"feed_account_events", counter.account.Load(),
		)

		select {
		case <-ctx.Done():
			<-feedDone
			return ctx.Err()
		case err := <-feedDone:
			return fmt.Errorf("feed supervisor stopped: %w", err)
		case <-ticker.C:
		}
	}
}
