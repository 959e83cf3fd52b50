package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/liquidity-gate/internal/liquidity"
)

const queryTimeout = 5 * time.Second

var postgresSchema = []string{
	`CREATE SCHEMA IF NOT EXISTS treasury`,
	`CREATE TABLE IF NOT EXISTS treasury.ledger_today (
		id BIGSERIAL PRIMARY KEY,
		txn_id TEXT NOT NULL,
		timestamp_utc TEXT NOT NULL,
		entity TEXT NOT NULL,
		account_id TEXT NOT NULL,
		beneficiary_name TEXT,
		payment_type TEXT,
		amount NUMERIC(20, 8) NOT NULL CHECK (amount >= 0),
		direction TEXT CHECK (direction IN ('IN', 'OUT')),
		currency TEXT NOT NULL CHECK (length(currency) = 3),
		status TEXT,
		alert_flag TEXT,
		channel TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS ledger_today_partition_idx ON treasury.ledger_today (account_id, currency)`,
	`CREATE TABLE IF NOT EXISTS treasury.starting_balances (
		id BIGSERIAL PRIMARY KEY,
		entity TEXT NOT NULL,
		account_id TEXT NOT NULL,
		currency TEXT NOT NULL CHECK (length(currency) = 3),
		start_of_day_balance NUMERIC(20, 8) NOT NULL,
		UNIQUE (entity, account_id, currency)
	)`,
	`CREATE TABLE IF NOT EXISTS treasury.buffers (
		id BIGSERIAL PRIMARY KEY,
		entity TEXT NOT NULL,
		currency TEXT NOT NULL CHECK (length(currency) = 3),
		min_buffer NUMERIC(20, 8) NOT NULL CHECK (min_buffer >= 0),
		cutoff_time_utc TEXT,
		description TEXT,
		UNIQUE (entity, currency)
	)`,
}

// PostgresRepository reads the treasury schema. Numeric columns are read as
// text so that amounts stay exact.
type PostgresRepository struct {
	Pool *pgxpool.Pool
}

// NewPostgresRepository creates a repository over an existing pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{Pool: pool}
}

// Migrate creates the treasury schema and tables if they do not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := r.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) LoadLedger(ctx context.Context) ([]liquidity.Transaction, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.Pool.Query(queryCtx, `
		SELECT txn_id, timestamp_utc::text, entity, account_id, currency,
		       COALESCE(beneficiary_name, ''), COALESCE(payment_type, ''), amount::text,
		       COALESCE(direction, ''), COALESCE(status, ''), COALESCE(alert_flag, ''), COALESCE(channel, '')
		FROM treasury.ledger_today
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) LoadBalances(ctx context.Context) ([]liquidity.BalanceRecord, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.Pool.Query(queryCtx, `
		SELECT entity, account_id, currency, start_of_day_balance::text
		FROM treasury.starting_balances
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) LoadBuffers(ctx context.Context) ([]liquidity.BufferRule, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.Pool.Query(queryCtx, `
		SELECT entity, currency, min_buffer::text, COALESCE(cutoff_time_utc::text, ''), COALESCE(description, '')
		FROM treasury.buffers
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate buffers: %w", err)
	}
	return out, nil
}

// Replace swaps the contents of all three tables for snap in a single
// transaction. Readers see either the old or the new snapshot.
func (r *PostgresRepository) Replace(ctx context.Context, snap liquidity.Snapshot) error {
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE treasury.ledger_today, treasury.starting_balances, treasury.buffers RESTART IDENTITY`); err != nil {
		return fmt.Errorf("failed to truncate treasury tables: %w", err)
	}

	batch := &pgx.Batch{}
	for _, t := range snap.Ledger {
		batch.Queue(`
			INSERT INTO treasury.ledger_today
			(txn_id, timestamp_utc, entity, account_id, beneficiary_name, payment_type,
			 amount, direction, currency, status, alert_flag, channel)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7::text::numeric, $8, $9, NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''))
		`, t.TxnID, t.Timestamp, t.Entity, t.AccountID, t.BeneficiaryName, t.PaymentType,
			t.Amount.String(), string(t.Direction), t.Currency, t.Status, t.AlertFlag, t.Channel)
	}
	for _, b := range snap.Balances {
		batch.Queue(`
			INSERT INTO treasury.starting_balances (entity, account_id, currency, start_of_day_balance)
			VALUES ($1, $2, $3, $4::text::numeric)
		`, b.Entity, b.AccountID, b.Currency, b.StartOfDayBalance.String())
	}
	for _, b := range snap.Buffers {
		batch.Queue(`
			INSERT INTO treasury.buffers (entity, currency, min_buffer, cutoff_time_utc, description)
			VALUES ($1, $2, $3::text::numeric, NULLIF($4, ''), NULLIF($5, ''))
		`, b.Entity, b.Currency, b.MinBuffer.String(), b.CutoffTime, b.Description)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}
