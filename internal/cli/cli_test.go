package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/liquidity-gate/internal/liquidity"
	"github.com/example/liquidity-gate/pkg/audit"
)

const (
	ledgerCSV = `txn_id,timestamp_utc,entity,account_id,beneficiary_name,payment_type,amount,direction,currency,status,alert_flag,channel
TXN-000001,2026-01-19 08:15:00,BankSubsidiary_TR,ACC-BAN-001,Supplier A,WIRE,50000,OUT,USD,RELEASED,LARGE_VALUE,SWIFT
TXN-000002,2026-01-19 09:30:00,BankSubsidiary_TR,ACC-BAN-001,Customer B,WIRE,20000,IN,USD,SETTLED,,SWIFT
TXN-EMRG-001,2026-01-19 10:25:00,BankSubsidiary_TR,ACC-BAN-001,ACME Trading LLC,WIRE,250000,OUT,USD,QUEUED,SANCTIONS_REVIEW,SWIFT
`
	balancesCSV = `entity,account_id,currency,start_of_day_balance
BankSubsidiary_TR,ACC-BAN-001,USD,2100000
`
	buffersJSON = `[{"entity":"BankSubsidiary_TR","currency":"USD","min_buffer":2000000,"cutoff_time_utc":"15:00"}]`
)

func curatedDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "curated"), 0o755))
	for name, body := range map[string]string{
		"ledger_today.csv":      ledgerCSV,
		"starting_balances.csv": balancesCSV,
		"buffers.json":          buffersJSON,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(root, "curated", name), []byte(body), 0o600))
	}
	return root
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestEvaluateFromDir(t *testing.T) {
	out, err := run(t, "evaluate", "--data-dir", curatedDir(t), "--payment-id", "TXN-EMRG-001", "--now", "2026-01-19T09:00:00Z")
	require.NoError(t, err)

	var res liquidity.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, liquidity.ActionHold, res.Recommendation.Action)
	assert.Equal(t, 180000.0, res.BufferBreachRisk.Gap)
	assert.Equal(t, "2026-01-19T09:00:00.000000Z", res.Audit.TimestampUTC)
	require.Len(t, res.Anomalies, 1)
	assert.Equal(t, "TXN-000001", res.Anomalies[0].TxnID)
	assert.Equal(t, "LARGE_VALUE", res.Anomalies[0].Flag)
}

func TestEvaluateFailOnHold(t *testing.T) {
	_, err := run(t, "evaluate", "--data-dir", curatedDir(t), "--payment-id", "TXN-EMRG-001", "--fail-on-hold")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TXN-EMRG-001")
}

func TestEvaluateHypothetical(t *testing.T) {
	out, err := run(t, "evaluate", "--data-dir", curatedDir(t),
		"--amount", "1000", "--currency", "USD", "--account-id", "ACC-BAN-001",
		"--entity", "BankSubsidiary_TR", "--timestamp", "2026-01-19 11:00", "--direction", "IN")
	require.NoError(t, err)

	var res liquidity.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "HYPOTHETICAL", res.PaymentContext.PaymentID)
	assert.Equal(t, 1000.0, res.PaymentContext.Amount)
}

func TestEvaluateFlagErrors(t *testing.T) {
	dir := curatedDir(t)
	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"no source", []string{"evaluate", "--payment-id", "X"}, "a data source is required"},
		{"two sources", []string{"evaluate", "--data-dir", dir, "--sqlite", "x.db", "--payment-id", "X"}, "only one data source"},
		{"bad amount", []string{"evaluate", "--data-dir", dir, "--amount", "ten"}, "invalid --amount"},
		{"bad now", []string{"evaluate", "--data-dir", dir, "--payment-id", "TXN-000001", "--now", "today"}, "invalid --now"},
		{"unknown payment", []string{"evaluate", "--data-dir", dir, "--payment-id", "TXN-NOPE"}, "not found"},
		{"nothing to evaluate", []string{"evaluate", "--data-dir", dir}, "either payment_id or hypothetical_payment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestImportThenEvaluateSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "snapshot.db")

	out, err := run(t, "import", "--from", curatedDir(t), "--sqlite", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "imported 3 ledger rows, 1 balances, 1 buffers\n", out)

	out, err = run(t, "evaluate", "--sqlite", dbPath, "--payment-id", "TXN-EMRG-001")
	require.NoError(t, err)

	var res liquidity.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 180000.0, res.BufferBreachRisk.Gap)
	assert.Equal(t, 2100000.0, res.AccountSummary.StartOfDayBalance)
}

func TestImportFlagErrors(t *testing.T) {
	_, err := run(t, "import", "--sqlite", "x.db")
	require.ErrorContains(t, err, "a source is required")

	_, err = run(t, "import", "--from", curatedDir(t))
	require.ErrorContains(t, err, "a target is required")

	_, err = run(t, "import", "--from", t.TempDir(), "--sqlite", filepath.Join(t.TempDir(), "x.db"))
	require.ErrorContains(t, err, "failed to read curated files")
}

func TestAuditVerify(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	sink, err := os.Create(logPath)
	require.NoError(t, err)
	chain := audit.NewChainLoggerWithOptions(audit.Options{Sink: sink})
	chain.Append("one")
	chain.Append("two")
	require.NoError(t, sink.Close())

	out, err := run(t, "audit", "verify", logPath)
	require.NoError(t, err)
	assert.Equal(t, "ok: 2 entries in 1 chains\n", out)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(logPath, bytes.Replace(data, []byte(`"one"`), []byte(`"uno"`), 1), 0o600))

	_, err = run(t, "audit", "verify", logPath)
	require.ErrorContains(t, err, "hash mismatch")
}
