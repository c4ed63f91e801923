package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/polylp/config"
	"github.com/alejandrodnm/polylp/internal/adapters/notify"
	"github.com/alejandrodnm/polylp/internal/adapters/polymarket"
	"github.com/alejandrodnm/polylp/internal/adapters/storage"
	"github.com/alejandrodnm/polylp/internal/application/quoter"
	"github.com/alejandrodnm/polylp/internal/domain"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	marketID := flag.String("market", "", "gamma market id")
	slug := flag.String("slug", "", "gamma market slug")
	tokenID := flag.String("token", "", "clob token id (used when market/slug are empty)")
	once := flag.Bool("once", false, "run one scoring cycle and exit")
	execute := flag.Bool("execute", false, "place the proposed orders on the CLOB (requires PK)")
	approve := flag.Bool("approve", false, "run collateral approvals and exit (requires PK)")
	history := flag.Bool("history", false, "print stored scoring snapshots for -market and exit")
	historyDays := flag.Int("days", 7, "history window in days (with -history)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	side, err := domain.ParseSide(cfg.Quoter.Side)
	if err != nil {
		slog.Error("invalid side in config", "side", cfg.Quoter.Side, "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	if *approve {
		if err := runApprove(ctx, cfg, store); err != nil {
			slog.Error("approvals failed", "err", err)
			os.Exit(1)
		}
		slog.Info("approvals complete")
		return
	}

	if *history {
		if *marketID == "" {
			slog.Error("-history requires -market")
			os.Exit(1)
		}
		if err := runHistory(ctx, store, *marketID, *historyDays, os.Stdout); err != nil {
			slog.Error("history report failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if *marketID == "" && *slug == "" && *tokenID == "" {
		slog.Error("one of -market, -slug or -token is required")
		os.Exit(1)
	}

	client := polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase)
	deps := quoter.Deps{
		Markets:  client,
		Books:    client,
		Store:    store,
		Notifier: notify.NewConsole(),
	}

	// La autenticación CLOB solo hace falta para ejecutar órdenes o para
	// el canal user del feed.
	var auth *polymarket.AuthClient
	if pk := config.PrivateKey(); pk != "" {
		auth, err = polymarket.NewAuthClient(cfg.API.CLOBBase, cfg.API.GammaBase, pk)
		if err != nil {
			slog.Error("failed to build auth client", "err", err)
			os.Exit(1)
		}
		deps.Executor = polymarket.NewTradingClient(auth)
	}
	if *execute && auth == nil {
		slog.Error("-execute requires the PK environment variable")
		os.Exit(1)
	}

	params := quoter.Params{
		Scoring: domain.ScoringParams{
			VCents:      cfg.Quoter.VCents,
			BMultiplier: cfg.Quoter.BMultiplier,
			CScale:      cfg.Quoter.CScale,
			MinSize:     cfg.Quoter.MinSize,
		},
		BudgetUSDC: cfg.Quoter.BudgetUSDC,
		Side:       side,
	}
	q := quoter.New(deps, params)

	slog.Info("polylp starting",
		"config", *configPath,
		"interval", cfg.QuoteInterval(),
		"budget_usdc", cfg.Quoter.BudgetUSDC,
		"side", side,
		"execute", *execute,
		"once", *once,
	)

	if *once {
		if err := runScore(ctx, q, *marketID, *slug, *tokenID, *execute); err != nil {
			slog.Error("scoring failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := runLive(ctx, cfg, q, client, auth, *marketID, *slug, *tokenID, *execute); err != nil && ctx.Err() == nil {
		slog.Error("live loop exited with error", "err", err)
		os.Exit(1)
	}
	slog.Info("polylp stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
