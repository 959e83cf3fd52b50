// Package snapshot materializes the ledger, balance and buffer record sets
// from the configured backend.
package snapshot

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/example/liquidity-gate/internal/liquidity"
)

// LedgerRepository loads the three input record sets. Implementations must
// preserve source order and must be safe for concurrent use.
type LedgerRepository interface {
	LoadLedger(ctx context.Context) ([]liquidity.Transaction, error)
	LoadBalances(ctx context.Context) ([]liquidity.BalanceRecord, error)
	LoadBuffers(ctx context.Context) ([]liquidity.BufferRule, error)
}

// Load reads all three record sets concurrently. It fails as a whole if any
// of the loads fails.
func Load(ctx context.Context, repo LedgerRepository) (liquidity.Snapshot, error) {
	var snap liquidity.Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := repo.LoadLedger(gctx)
		if err != nil {
			return fmt.Errorf("load ledger: %w", err)
		}
		snap.Ledger = rows
		return nil
	})
	g.Go(func() error {
		rows, err := repo.LoadBalances(gctx)
		if err != nil {
			return fmt.Errorf("load balances: %w", err)
		}
		snap.Balances = rows
		return nil
	})
	g.Go(func() error {
		rows, err := repo.LoadBuffers(gctx)
		if err != nil {
			return fmt.Errorf("load buffers: %w", err)
		}
		snap.Buffers = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		return liquidity.Snapshot{}, err
	}
	return snap, nil
}
