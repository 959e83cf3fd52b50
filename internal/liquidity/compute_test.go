package liquidity

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func fixedOptions() Options {
	return Options{
		Now:      func() time.Time { return time.Date(2026, 1, 19, 9, 0, 0, 0, time.UTC) },
		NewRunID: func() string { return "run00001" },
	}
}

func txn(id, ts, dir, amount, beneficiary string) Transaction {
	return Transaction{
		TxnID:           id,
		Timestamp:       ts,
		Entity:          "BankSubsidiary_TR",
		AccountID:       "ACC-BAN-001",
		Currency:        "USD",
		BeneficiaryName: beneficiary,
		Amount:          dec(amount),
		Direction:       Direction(dir),
		Status:          "RELEASED",
	}
}

func usdSnapshot(start, buffer string, ledger ...Transaction) Snapshot {
	snap := Snapshot{Ledger: ledger}
	if start != "" {
		snap.Balances = []BalanceRecord{{Entity: "BankSubsidiary_TR", AccountID: "ACC-BAN-001", Currency: "USD", StartOfDayBalance: dec(start)}}
	}
	if buffer != "" {
		snap.Buffers = []BufferRule{{Entity: "BankSubsidiary_TR", Currency: "USD", MinBuffer: dec(buffer), CutoffTime: "16:00", Description: "USD operating buffer"}}
	}
	return snap
}

func TestComputeScenarioA_QueuedPaymentBreaches(t *testing.T) {
	target := txn("TXN-EMRG-001", "2026-01-19 10:25:00", "OUT", "250000", "ACME Trading LLC")
	target.Status = StatusQueued
	snap := usdSnapshot("2150000", "2000000",
		txn("TXN-1", "2026-01-19 08:00:00", "OUT", "50000", "Supplier A"),
		target,
	)

	res, err := Compute(snap, Request{PaymentID: "TXN-EMRG-001"}, fixedOptions())
	require.NoError(t, err)

	risk := res.BufferBreachRisk
	assert.True(t, risk.Breach)
	assert.Equal(t, 1850000.0, risk.ProjectedBalanceMin)
	assert.Equal(t, 150000.0, risk.Gap)
	assert.Equal(t, -150000.0, risk.Headroom)
	require.NotNil(t, risk.FirstBreachTime)
	assert.Equal(t, "2026-01-19 10:25:00", *risk.FirstBreachTime)
	require.NotNil(t, risk.MinBalanceTime)
	assert.Equal(t, "2026-01-19 10:25:00", *risk.MinBalanceTime)

	assert.Equal(t, ActionHold, res.Recommendation.Action)
	assert.Equal(t, "Payment would breach buffer by $150,000.00", res.Recommendation.Reason)
	assert.Len(t, res.Recommendation.Alternatives, 3)

	assert.Equal(t, 2, res.AccountSummary.TransactionCount)
	assert.Equal(t, "TXN-EMRG-001", res.PaymentContext.PaymentID)
	require.NotNil(t, res.Audit.CutoffTime)
	assert.Equal(t, "16:00", *res.Audit.CutoffTime)
	assert.Equal(t, DataSnapshot{LedgerRows: 2, BalanceRows: 1, BufferRules: 1}, res.Audit.DataSnapshot)
	assert.Empty(t, res.Audit.Warnings)
}

func TestComputeScenarioB_HypotheticalWithinBuffer(t *testing.T) {
	snap := usdSnapshot("5000000", "2000000")
	req := Request{Hypothetical: &HypotheticalPayment{
		Amount:    decPtr("250000"),
		Currency:  "USD",
		AccountID: "ACC-BAN-001",
		Entity:    "BankSubsidiary_TR",
		Timestamp: "2026-01-19 10:25",
	}}

	res, err := Compute(snap, req, fixedOptions())
	require.NoError(t, err)

	assert.False(t, res.BufferBreachRisk.Breach)
	assert.Equal(t, 4750000.0, res.BufferBreachRisk.ProjectedBalanceMin)
	assert.Equal(t, 0.0, res.BufferBreachRisk.Gap)
	assert.Nil(t, res.BufferBreachRisk.FirstBreachTime)
	assert.Equal(t, ActionRelease, res.Recommendation.Action)
	assert.Equal(t, "Payment within buffer limits", res.Recommendation.Reason)
	assert.NotNil(t, res.Recommendation.Alternatives)
	assert.Empty(t, res.Recommendation.Alternatives)

	assert.Equal(t, "HYPOTHETICAL", res.PaymentContext.PaymentID)
	assert.Equal(t, "Unknown", res.PaymentContext.Beneficiary)
}

func TestComputeScenarioC_UnknownPaymentID(t *testing.T) {
	snap := usdSnapshot("5000000", "2000000", txn("TXN-1", "2026-01-19 08:00:00", "OUT", "10", "X"))

	res, err := Compute(snap, Request{PaymentID: "TXN-MISSING"}, fixedOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPaymentNotFound))
	assert.Nil(t, res)
}

func TestComputeScenarioD_MissingBalanceDefaultsToZero(t *testing.T) {
	snap := usdSnapshot("", "1000",
		txn("TXN-1", "2026-01-19 09:00:00", "OUT", "100", "Supplier A"),
	)
	req := Request{Hypothetical: &HypotheticalPayment{
		Amount: decPtr("50"), Currency: "USD", AccountID: "ACC-BAN-001", Entity: "BankSubsidiary_TR",
		Timestamp: "2026-01-19 12:00:00",
	}}

	res, err := Compute(snap, req, fixedOptions())
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.AccountSummary.StartOfDayBalance)
	assert.True(t, res.BufferBreachRisk.Breach)
	require.NotNil(t, res.BufferBreachRisk.FirstBreachTime)
	assert.Equal(t, "2026-01-19 09:00:00", *res.BufferBreachRisk.FirstBreachTime)
	require.Len(t, res.Audit.Warnings, 1)
	assert.Contains(t, res.Audit.Warnings[0], "no starting balance")
}

func TestComputeMissingBufferNeverBreaches(t *testing.T) {
	snap := usdSnapshot("100", "")
	req := Request{Hypothetical: &HypotheticalPayment{
		Amount: decPtr("50"), Currency: "USD", AccountID: "ACC-BAN-001", Entity: "BankSubsidiary_TR",
		Timestamp: "2026-01-19 12:00:00",
	}}

	res, err := Compute(snap, req, fixedOptions())
	require.NoError(t, err)
	assert.False(t, res.BufferBreachRisk.Breach)
	assert.Equal(t, 0.0, res.BufferBreachRisk.BufferThreshold)
	assert.Nil(t, res.Audit.CutoffTime)
	require.Len(t, res.Audit.Warnings, 1)
	assert.Contains(t, res.Audit.Warnings[0], "no buffer rule")
}

func TestComputeBalanceAlgebraAndBreachConsistency(t *testing.T) {
	ledger := []Transaction{
		txn("T1", "2026-01-19 08:00:00", "OUT", "300.10", "A"),
		txn("T2", "2026-01-19 08:30:00", "IN", "120.05", "B"),
		txn("T3", "2026-01-19 09:15", "OUT", "999.99", "C"),
		txn("T4", "2026-01-19T11:00:00", "IN", "2000", "D"),
		txn("T5", "2026-01-19T13:45", "OUT", "1500.33", "A"),
	}
	snap := usdSnapshot("1000", "100", ledger...)
	req := Request{Hypothetical: &HypotheticalPayment{
		Amount: decPtr("10.01"), Currency: "USD", AccountID: "ACC-BAN-001", Entity: "BankSubsidiary_TR",
		Timestamp: "2026-01-19 14:00:00",
	}}

	res, err := Compute(snap, req, fixedOptions())
	require.NoError(t, err)

	s := res.AccountSummary
	assert.InDelta(t, s.StartOfDayBalance+s.TotalInflow-s.TotalOutflow, s.EndOfDayBalance, 0.001)
	assert.InDelta(t, s.TotalInflow-s.TotalOutflow, s.NetFlow, 0.001)

	risk := res.BufferBreachRisk
	assert.Equal(t, risk.ProjectedBalanceMin < risk.BufferThreshold, risk.Breach)
	if risk.Breach {
		assert.InDelta(t, risk.BufferThreshold-risk.ProjectedBalanceMin, risk.Gap, 0.001)
	} else {
		assert.Equal(t, 0.0, risk.Gap)
	}
	assert.InDelta(t, risk.ProjectedBalanceMin-risk.BufferThreshold, risk.Headroom, 0.001)
}

func TestComputeDeeperBreachAfterFirstCrossing(t *testing.T) {
	snap := usdSnapshot("1000", "800",
		txn("T1", "2026-01-19 08:00:00", "OUT", "300", "A"), // 700, first crossing, gap 100
		txn("T2", "2026-01-19 09:00:00", "IN", "500", "B"),  // 1200, recovered
		txn("T3", "2026-01-19 10:00:00", "OUT", "600", "C"), // 600, deepest
	)
	req := Request{Hypothetical: &HypotheticalPayment{
		Amount: decPtr("0"), Currency: "USD", AccountID: "ACC-BAN-001", Entity: "BankSubsidiary_TR",
		Timestamp: "2026-01-19 12:00:00",
	}}

	res, err := Compute(snap, req, fixedOptions())
	require.NoError(t, err)

	risk := res.BufferBreachRisk
	assert.True(t, risk.Breach)
	assert.Equal(t, "2026-01-19 08:00:00", *risk.FirstBreachTime)
	assert.Equal(t, 100.0, risk.FirstBreachGap)
	assert.Equal(t, 200.0, risk.Gap)
	assert.Equal(t, 600.0, risk.ProjectedBalanceMin)
	assert.Equal(t, "2026-01-19 10:00:00", *risk.MinBalanceTime)
}

func TestComputeDeterministic(t *testing.T) {
	target := txn("Q1", "2026-01-19 10:00:00", "OUT", "700", "Z")
	target.Status = StatusQueued
	snap := usdSnapshot("1000", "500",
		txn("T1", "2026-01-19 08:00:00", "OUT", "100", "A"),
		target,
		txn("T2", "2026-01-19 11:00:00", "IN", "50", "B"),
	)
	req := Request{PaymentID: "Q1"}

	first, err := Compute(snap, req, Options{})
	require.NoError(t, err)
	second, err := Compute(snap, req, Options{})
	require.NoError(t, err)

	assert.Equal(t, first.BufferBreachRisk, second.BufferBreachRisk)
	assert.Equal(t, first.PaymentContext, second.PaymentContext)
	assert.Equal(t, first.AccountSummary, second.AccountSummary)
	assert.Equal(t, first.ConcentrationAnalysis, second.ConcentrationAnalysis)
	assert.Equal(t, first.Anomalies, second.Anomalies)
	assert.Len(t, first.Audit.RunID, 8)
}

func TestComputePartitionIsolation(t *testing.T) {
	base := usdSnapshot("1000", "500", txn("T1", "2026-01-19 08:00:00", "OUT", "100", "A"))
	req := Request{Hypothetical: &HypotheticalPayment{
		Amount: decPtr("100"), Currency: "USD", AccountID: "ACC-BAN-001", Entity: "BankSubsidiary_TR",
		Timestamp: "2026-01-19 12:00:00",
	}}
	want, err := Compute(base, req, fixedOptions())
	require.NoError(t, err)

	otherAccount := txn("X1", "2026-01-19 09:00:00", "OUT", "900000", "Elsewhere")
	otherAccount.AccountID = "ACC-OTHER-002"
	otherCurrency := txn("X2", "2026-01-19 09:30:00", "OUT", "900000", "Elsewhere")
	otherCurrency.Currency = "TRY"
	noisy := base
	noisy.Ledger = append([]Transaction{otherAccount}, append(base.Ledger, otherCurrency)...)

	got, err := Compute(noisy, req, fixedOptions())
	require.NoError(t, err)

	assert.Equal(t, want.BufferBreachRisk, got.BufferBreachRisk)
	assert.Equal(t, want.AccountSummary, got.AccountSummary)
	assert.Equal(t, want.BalanceTrajectory, got.BalanceTrajectory)
}

func TestComputeQueuedTargetCountedOnce(t *testing.T) {
	target := txn("Q1", "2026-01-19 10:00:00", "OUT", "700", "Z")
	target.Status = StatusQueued
	snap := usdSnapshot("1000", "0", target)

	res, err := Compute(snap, Request{PaymentID: "Q1"}, fixedOptions())
	require.NoError(t, err)

	seen := 0
	for _, pt := range res.BalanceTrajectory {
		if pt.TxnID == "Q1" {
			seen++
			assert.True(t, pt.IsTarget)
		}
	}
	assert.Equal(t, 1, seen)
	assert.Equal(t, 300.0, res.AccountSummary.EndOfDayBalance)
}

func TestComputeFiltersOverrideEntityAndCurrency(t *testing.T) {
	snap := Snapshot{
		Ledger: []Transaction{
			{TxnID: "T1", Timestamp: "2026-01-19 08:00:00", AccountID: "ACC-1", Currency: "EUR", Amount: dec("40"), Direction: DirectionOut, BeneficiaryName: "A"},
			{TxnID: "T2", Timestamp: "2026-01-19 08:00:00", AccountID: "ACC-1", Currency: "USD", Amount: dec("999"), Direction: DirectionOut, BeneficiaryName: "B"},
		},
		Balances: []BalanceRecord{{Entity: "E1", AccountID: "ACC-1", Currency: "EUR", StartOfDayBalance: dec("100")}},
		Buffers:  []BufferRule{{Entity: "E2", Currency: "EUR", MinBuffer: dec("50")}},
	}
	req := Request{
		Hypothetical: &HypotheticalPayment{
			Amount: decPtr("20"), Currency: "USD", AccountID: "ACC-1", Entity: "E1", Timestamp: "2026-01-19 09:00",
		},
		EntityFilter:   "E2",
		CurrencyFilter: "EUR",
	}

	res, err := Compute(snap, req, fixedOptions())
	require.NoError(t, err)
	assert.Equal(t, "EUR", res.PaymentContext.Currency)
	assert.Equal(t, "E2", res.PaymentContext.Entity)
	assert.Equal(t, 50.0, res.BufferBreachRisk.BufferThreshold)
	assert.Equal(t, 40.0, res.AccountSummary.EndOfDayBalance)
	assert.Equal(t, 2, res.AccountSummary.TransactionCount)
}

func TestComputeUnparseableTimestamp(t *testing.T) {
	snap := usdSnapshot("1000", "0", txn("T1", "19/01/2026 08:00", "OUT", "1", "A"))
	req := Request{Hypothetical: &HypotheticalPayment{
		Amount: decPtr("1"), Currency: "USD", AccountID: "ACC-BAN-001", Entity: "BankSubsidiary_TR",
		Timestamp: "2026-01-19 12:00:00",
	}}

	_, err := Compute(snap, req, fixedOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnparseableTimestamp))
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "19/01/2026 08:00", pe.Value)
}

func TestComputeDoesNotMutateSnapshot(t *testing.T) {
	snap := usdSnapshot("1000", "0",
		txn("T2", "2026-01-19 10:00:00", "OUT", "1", "A"),
		txn("T1", "2026-01-19 08:00:00", "OUT", "1", "A"),
	)
	req := Request{Hypothetical: &HypotheticalPayment{
		Amount: decPtr("1"), Currency: "USD", AccountID: "ACC-BAN-001", Entity: "BankSubsidiary_TR",
		Timestamp: "2026-01-19 12:00:00",
	}}

	_, err := Compute(snap, req, fixedOptions())
	require.NoError(t, err)
	assert.Equal(t, "T2", snap.Ledger[0].TxnID)
	assert.Equal(t, "T1", snap.Ledger[1].TxnID)
}

func TestComputeAuditTimestamp(t *testing.T) {
	snap := usdSnapshot("1", "0")
	req := Request{Hypothetical: &HypotheticalPayment{
		Amount: decPtr("1"), Currency: "USD", AccountID: "ACC-BAN-001", Entity: "BankSubsidiary_TR",
	}}

	res, err := Compute(snap, req, fixedOptions())
	require.NoError(t, err)
	assert.Equal(t, "run00001", res.Audit.RunID)
	assert.Equal(t, "2026-01-19T09:00:00.000000Z", res.Audit.TimestampUTC)
	assert.Equal(t, Version, res.Audit.Version)
	// A hypothetical payment without a timestamp is scheduled now.
	assert.Equal(t, "2026-01-19 09:00:00", res.PaymentContext.ScheduledTime)
}
