package liquidity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Options supplies the two non-deterministic inputs of an evaluation.
// Zero values fall back to the wall clock and a random run id.
type Options struct {
	Now      func() time.Time
	NewRunID func() string
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

func (o Options) runID() string {
	if o.NewRunID != nil {
		return o.NewRunID()
	}
	return uuid.NewString()[:8]
}

// Compute evaluates the liquidity impact of releasing the requested payment
// against one snapshot. It never mutates the snapshot and either returns a
// complete result or an error.
func Compute(snap Snapshot, req Request, opts Options) (*Result, error) {
	now := opts.now()
	runID := opts.runID()

	target, err := ResolveTarget(snap.Ledger, req, now)
	if err != nil {
		return nil, err
	}
	p := PartitionFor(target, req.EntityFilter, req.CurrencyFilter)

	var warnings []string
	start, ok := lookupBalance(snap.Balances, p)
	if !ok {
		warnings = append(warnings, fmt.Sprintf("no starting balance for account %s in %s; assumed 0", p.AccountID, p.Currency))
	}
	threshold := decimal.Zero
	var cutoff *string
	if rule, ok := lookupBuffer(snap.Buffers, p); ok {
		threshold = rule.MinBuffer
		cutoff = optional(rule.CutoffTime)
	} else {
		warnings = append(warnings, fmt.Sprintf("no buffer rule for entity %s in %s; assumed 0", p.Entity, p.Currency))
	}

	entries, err := MergePartition(snap.Ledger, target, p)
	if err != nil {
		return nil, err
	}

	tr := Simulate(entries, start, threshold)
	an := Analyze(tr)

	gap := decimal.Zero
	if tr.Breach {
		gap = tr.Threshold.Sub(tr.MinBalance)
	}
	rec := Recommend(tr.Breach, gap)

	audit := Audit{
		RunID:        runID,
		TimestampUTC: now.Format("2006-01-02T15:04:05.000000") + "Z",
		DataSnapshot: DataSnapshot{
			LedgerRows:  len(snap.Ledger),
			BalanceRows: len(snap.Balances),
			BufferRules: len(snap.Buffers),
		},
		CutoffTime: cutoff,
		Version:    Version,
		Warnings:   warnings,
	}
	return Assemble(target, p, tr, an, rec, audit), nil
}

// lookupBalance finds the start-of-day balance by account and currency.
func lookupBalance(balances []BalanceRecord, p Partition) (decimal.Decimal, bool) {
	for _, b := range balances {
		if b.AccountID == p.AccountID && b.Currency == p.Currency {
			return b.StartOfDayBalance, true
		}
	}
	return decimal.Zero, false
}

func lookupBuffer(buffers []BufferRule, p Partition) (BufferRule, bool) {
	for _, b := range buffers {
		if b.Entity == p.Entity && b.Currency == p.Currency {
			return b, true
		}
	}
	return BufferRule{}, false
}
