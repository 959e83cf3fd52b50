// Package bootstrap assembles the evaluation service from configuration.
// It is shared by the HTTP API, the tool server and the CLI.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/liquidity-gate/internal/config"
	"github.com/example/liquidity-gate/internal/gate"
	"github.com/example/liquidity-gate/internal/metrics"
	"github.com/example/liquidity-gate/internal/snapshot"
	"github.com/example/liquidity-gate/pkg/audit"
)

// Runtime owns the long-lived resources behind a Service.
type Runtime struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Audit   *audit.ChainLogger
	Service *gate.Service

	closers []func()
}

// NewLogger returns the JSON logger used by every binary.
func NewLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Open connects the configured data source and builds the service.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	repo, closeRepo, err := OpenRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		Config:  cfg,
		Logger:  logger,
		closers: []func(){closeRepo},
	}

	var sink io.Writer
	if cfg.AuditLogPath != "" {
		f, err := os.OpenFile(cfg.AuditLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
		rt.closers = append(rt.closers, func() { _ = f.Close() })
		sink = f
	}
	rt.Audit = audit.NewChainLoggerWithOptions(audit.Options{Sink: sink})
	if cfg.MetricsEnabled {
		rt.Metrics = metrics.New()
	}
	rt.Service = &gate.Service{
		Repo:       repo,
		DataSource: cfg.DataSource,
		Logger:     logger,
		Metrics:    rt.Metrics,
		Auditor:    rt.Audit,
	}
	return rt, nil
}

// Close releases the data source and the audit log.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

// OpenRepository returns the repository for cfg.DataSource and a function
// releasing its connections.
func OpenRepository(ctx context.Context, cfg *config.Config) (snapshot.LedgerRepository, func(), error) {
	switch cfg.DataSource {
	case config.SourceGCS:
		store, err := snapshot.NewGCSStore(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, nil, err
		}
		return snapshot.NewObjectRepository(store, cfg.Objects()), func() { _ = store.Close() }, nil

	case config.SourceDir:
		return snapshot.NewObjectRepository(snapshot.DirStore{Root: cfg.DataDir}, cfg.Objects()), func() {}, nil

	case config.SourcePostgres:
		pool, err := OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return snapshot.NewPostgresRepository(pool), pool.Close, nil

	case config.SourceSQLite:
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return snapshot.NewSQLRepository(db), func() { _ = db.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown data source %q", cfg.DataSource)
}

// OpenPostgres creates a pool and checks that the database is reachable.
func OpenPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	return pool, nil
}

// OpenSQLite opens the SQLite file at path.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return db, nil
}
