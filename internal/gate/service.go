// Package gate runs liquidity impact evaluations against the configured
// snapshot repository.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/liquidity-gate/internal/liquidity"
	"github.com/example/liquidity-gate/internal/metrics"
	"github.com/example/liquidity-gate/internal/snapshot"
	"github.com/example/liquidity-gate/pkg/audit"
)

// ServiceName is reported by the health endpoints.
const ServiceName = "liquidity-gate"

// Auditor records evaluation outcomes in the audit chain.
type Auditor interface {
	Record(event string, v any) (*audit.LogEntry, error)
}

// Service is safe for concurrent use as long as its repository is.
type Service struct {
	Repo       snapshot.LedgerRepository
	DataSource string

	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Auditor  Auditor
	Clock    func() time.Time
	NewRunID func() string
}

// Health is the liveness document.
type Health struct {
	Status     string `json:"status"`
	Service    string `json:"service"`
	Version    string `json:"version"`
	DataSource string `json:"data_source"`
}

type evaluationRecord struct {
	RunID     string  `json:"run_id"`
	PaymentID string  `json:"payment_id"`
	Entity    string  `json:"entity"`
	AccountID string  `json:"account_id"`
	Currency  string  `json:"currency"`
	Action    string  `json:"action"`
	Breach    bool    `json:"breach"`
	Gap       float64 `json:"gap"`
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Evaluate validates req, loads a fresh snapshot and computes the impact of
// releasing the requested payment.
func (s *Service) Evaluate(ctx context.Context, req liquidity.Request) (*liquidity.Result, error) {
	start := time.Now()
	l := s.logger()

	if err := req.Validate(); err != nil {
		s.Metrics.ObserveEvaluation(ErrorCode(err), time.Since(start))
		return nil, err
	}

	loadStart := time.Now()
	snap, err := snapshot.Load(ctx, s.Repo)
	if err != nil {
		l.Error("snapshot_load_failed", "data_source", s.DataSource, "error", err)
		s.Metrics.ObserveEvaluation(CodeInternal, time.Since(start))
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	s.Metrics.ObserveSnapshot(s.DataSource, time.Since(loadStart), len(snap.Ledger), len(snap.Balances), len(snap.Buffers))

	res, err := liquidity.Compute(snap, req, liquidity.Options{Now: s.Clock, NewRunID: s.NewRunID})
	if err != nil {
		code := ErrorCode(err)
		level := slog.LevelWarn
		if code == CodeInternal {
			level = slog.LevelError
		}
		l.Log(ctx, level, "liquidity_evaluation_failed",
			"payment_id", req.PaymentID,
			"code", code,
			"error", err,
		)
		s.Metrics.ObserveEvaluation(code, time.Since(start))
		return nil, err
	}

	for _, w := range res.Audit.Warnings {
		l.Warn("reference_data_missing", "run_id", res.Audit.RunID, "warning", w)
	}
	s.Metrics.ObserveWarnings(len(res.Audit.Warnings))

	l.Info("liquidity_evaluated",
		"run_id", res.Audit.RunID,
		"payment_id", res.PaymentContext.PaymentID,
		"account_id", res.PaymentContext.AccountID,
		"currency", res.PaymentContext.Currency,
		"action", res.Recommendation.Action,
		"breach", res.BufferBreachRisk.Breach,
		"gap", res.BufferBreachRisk.Gap,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	s.Metrics.ObserveEvaluation(res.Recommendation.Action, time.Since(start))

	if s.Auditor != nil {
		if _, err := s.Auditor.Record("liquidity_evaluated", evaluationRecord{
			RunID:     res.Audit.RunID,
			PaymentID: res.PaymentContext.PaymentID,
			Entity:    res.PaymentContext.Entity,
			AccountID: res.PaymentContext.AccountID,
			Currency:  res.PaymentContext.Currency,
			Action:    res.Recommendation.Action,
			Breach:    res.BufferBreachRisk.Breach,
			Gap:       res.BufferBreachRisk.Gap,
		}); err != nil {
			l.Error("audit_record_failed", "run_id", res.Audit.RunID, "error", err)
		}
	}
	return res, nil
}

// Health reports liveness. It does not touch the repository.
func (s *Service) Health(ctx context.Context) Health {
	return Health{
		Status:     "healthy",
		Service:    ServiceName,
		Version:    liquidity.Version,
		DataSource: s.DataSource,
	}
}

// Machine-readable error codes shared by the HTTP and tool surfaces.
const (
	CodeInvalidRequest       = "invalid_request"
	CodePaymentNotFound      = "payment_not_found"
	CodeUnparseableTimestamp = "unparseable_timestamp"
	CodeInternal             = "internal_error"
)

// ErrorCode classifies an evaluation error.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, liquidity.ErrInvalidInput):
		return CodeInvalidRequest
	case errors.Is(err, liquidity.ErrPaymentNotFound):
		return CodePaymentNotFound
	case errors.Is(err, liquidity.ErrUnparseableTimestamp):
		return CodeUnparseableTimestamp
	default:
		return CodeInternal
	}
}
