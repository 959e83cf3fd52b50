package snapshot

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/liquidity-gate/internal/liquidity"
)

// Amounts are stored as TEXT so that SQLite keeps them exact.
var sqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS ledger_today (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		txn_id TEXT NOT NULL,
		timestamp_utc TEXT NOT NULL,
		entity TEXT NOT NULL,
		account_id TEXT NOT NULL,
		beneficiary_name TEXT,
		payment_type TEXT,
		amount TEXT NOT NULL,
		direction TEXT,
		currency TEXT NOT NULL,
		status TEXT,
		alert_flag TEXT,
		channel TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS starting_balances (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entity TEXT NOT NULL,
		account_id TEXT NOT NULL,
		currency TEXT NOT NULL,
		start_of_day_balance TEXT NOT NULL,
		UNIQUE (entity, account_id, currency)
	)`,
	`CREATE TABLE IF NOT EXISTS buffers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entity TEXT NOT NULL,
		currency TEXT NOT NULL,
		min_buffer TEXT NOT NULL,
		cutoff_time_utc TEXT,
		description TEXT,
		UNIQUE (entity, currency)
	)`,
}

// SQLRepository reads the same tables as PostgresRepository, without the
// schema prefix, through database/sql. It is used with SQLite.
type SQLRepository struct {
	DB *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{DB: db}
}

// Migrate creates the tables if they do not exist.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	for _, stmt := range sqlSchema {
		if _, err := r.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}
	return nil
}

func (r *SQLRepository) LoadLedger(ctx context.Context) ([]liquidity.Transaction, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT txn_id, timestamp_utc, entity, account_id, currency,
		       COALESCE(beneficiary_name, ''), COALESCE(payment_type, ''), amount,
		       COALESCE(direction, ''), COALESCE(status, ''), COALESCE(alert_flag, ''), COALESCE(channel, '')
		FROM ledger_today
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var out []liquidity.Transaction
	for rows.Next() {
		var f [12]string
		if err := rows.Scan(&f[0], &f[1], &f[2], &f[3], &f[4], &f[5], &f[6], &f[7], &f[8], &f[9], &f[10], &f[11]); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		txn, err := newTransaction(f[0], f[1], f[2], f[3], f[4], f[5], f[6], f[7], f[8], f[9], f[10], f[11])
		if err != nil {
			return nil, fmt.Errorf("ledger row %s: %w", f[0], err)
		}
		out = append(out, txn)
	}
	return out, rows.Err()
}

func (r *SQLRepository) LoadBalances(ctx context.Context) ([]liquidity.BalanceRecord, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT entity, account_id, currency, start_of_day_balance
		FROM starting_balances
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer rows.Close()

	var out []liquidity.BalanceRecord
	for rows.Next() {
		var b liquidity.BalanceRecord
		var amount string
		if err := rows.Scan(&b.Entity, &b.AccountID, &b.Currency, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan balance row: %w", err)
		}
		if b.StartOfDayBalance, err = parseDecimal("start_of_day_balance", amount); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLRepository) LoadBuffers(ctx context.Context) ([]liquidity.BufferRule, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT entity, currency, min_buffer, COALESCE(cutoff_time_utc, ''), COALESCE(description, '')
		FROM buffers
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query buffers: %w", err)
	}
	defer rows.Close()

	var out []liquidity.BufferRule
	for rows.Next() {
		var b liquidity.BufferRule
		var amount string
		if err := rows.Scan(&b.Entity, &b.Currency, &amount, &b.CutoffTime, &b.Description); err != nil {
			return nil, fmt.Errorf("failed to scan buffer row: %w", err)
		}
		if b.MinBuffer, err = parseDecimal("min_buffer", amount); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Replace swaps the contents of all three tables for snap in one transaction.
func (r *SQLRepository) Replace(ctx context.Context, snap liquidity.Snapshot) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"ledger_today", "starting_balances", "buffers"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	ledgerStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ledger_today
		(txn_id, timestamp_utc, entity, account_id, beneficiary_name, payment_type,
		 amount, direction, currency, status, alert_flag, channel)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare ledger insert: %w", err)
	}
	defer ledgerStmt.Close()
	for _, t := range snap.Ledger {
		if _, err := ledgerStmt.ExecContext(ctx, t.TxnID, t.Timestamp, t.Entity, t.AccountID, t.BeneficiaryName,
			t.PaymentType, t.Amount.String(), string(t.Direction), t.Currency, t.Status, t.AlertFlag, t.Channel); err != nil {
			return fmt.Errorf("failed to insert ledger row %s: %w", t.TxnID, err)
		}
	}

	for _, b := range snap.Balances {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO starting_balances (entity, account_id, currency, start_of_day_balance)
			VALUES (?, ?, ?, ?)
		`, b.Entity, b.AccountID, b.Currency, b.StartOfDayBalance.String()); err != nil {
			return fmt.Errorf("failed to insert balance %s/%s: %w", b.AccountID, b.Currency, err)
		}
	}
	for _, b := range snap.Buffers {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO buffers (entity, currency, min_buffer, cutoff_time_utc, description)
			VALUES (?, ?, ?, ?, ?)
		`, b.Entity, b.Currency, b.MinBuffer.String(), b.CutoffTime, b.Description); err != nil {
			return fmt.Errorf("failed to insert buffer %s/%s: %w", b.Entity, b.Currency, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}
