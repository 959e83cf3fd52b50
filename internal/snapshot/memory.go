package snapshot

import (
	"context"

	"github.com/example/liquidity-gate/internal/liquidity"
)

// MemoryRepository serves a fixed snapshot. Callers must not modify the
// snapshot after handing it over.
type MemoryRepository struct {
	Snapshot liquidity.Snapshot
}

func (r *MemoryRepository) LoadLedger(ctx context.Context) ([]liquidity.Transaction, error) {
	return r.Snapshot.Ledger, ctx.Err()
}

func (r *MemoryRepository) LoadBalances(ctx context.Context) ([]liquidity.BalanceRecord, error) {
	return r.Snapshot.Balances, ctx.Err()
}

func (r *MemoryRepository) LoadBuffers(ctx context.Context) ([]liquidity.BufferRule, error) {
	return r.Snapshot.Buffers, ctx.Err()
}
