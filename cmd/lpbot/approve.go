package main

// approve.go — modo approve: aprobaciones de colateral on-chain y salida.

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/alejandrodnm/polylp/config"
	"github.com/alejandrodnm/polylp/internal/adapters/polygon"
	"github.com/alejandrodnm/polylp/internal/ports"
)

func runApprove(ctx context.Context, cfg *config.Config, store ports.SnapshotStore) error {
	approver, address, err := newApprover(ctx, cfg, store)
	if err != nil {
		return err
	}

	slog.Info("running collateral approvals",
		"wallet", address,
		"rpc", cfg.Chain.RPCURL,
	)
	return approver.EnsureApprovals(ctx)
}

// newApprover cablea wallet, cliente RPC y approval manager detrás del port.
func newApprover(ctx context.Context, cfg *config.Config, store ports.SnapshotStore) (ports.Approver, string, error) {
	pk := config.PrivateKey()
	if pk == "" {
		return nil, "", fmt.Errorf("-approve requires the PK environment variable")
	}

	wallet, err := polygon.NewWallet(pk, cfg.Chain.ChainID)
	if err != nil {
		return nil, "", err
	}

	client, err := polygon.Dial(ctx, cfg.Chain.RPCURL, polygon.Config{
		ChainID:         cfg.Chain.ChainID,
		PriorityFeeGwei: cfg.Chain.PriorityFeeGwei,
		FeeMultiplier:   cfg.Chain.FeeMultiplier,
		GasBuffer:       cfg.Chain.GasBuffer,
		ReceiptTimeout:  time.Duration(cfg.Chain.ReceiptTimeoutS) * time.Second,
		PollInterval:    time.Duration(cfg.Chain.PollIntervalS) * time.Second,
		MaxRetries:      cfg.Chain.MaxRetries,
	})
	if err != nil {
		return nil, "", err
	}

	manager, err := polygon.NewApprovalManager(client, wallet, store)
	if err != nil {
		return nil, "", err
	}
	return manager, wallet.Address(), nil
}
