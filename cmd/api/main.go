package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/liquidity-gate/internal/api"
	"github.com/example/liquidity-gate/internal/bootstrap"
	"github.com/example/liquidity-gate/internal/config"
	"github.com/example/liquidity-gate/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := bootstrap.NewLogger(os.Stdout, cfg)
	slog.SetDefault(logger)

	ctx := context.Background()
	rt, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open data source", "data_source", cfg.DataSource, "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	allowlist, err := security.ParseCIDRAllowlist(cfg.IPAllowlist)
	if err != nil {
		logger.Error("invalid API_IP_ALLOWLIST", "error", err)
		os.Exit(1)
	}

	var rateLimiter *security.RedisTokenBucket
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()

		rateLimiter = &security.RedisTokenBucket{
			Redis:      redisClient,
			Prefix:     "liquidity_gate",
			Capacity:   cfg.RateLimitCapacity,
			RefillRate: cfg.RateLimitRefillPerSec,
		}
	}

	router, err := api.NewRouter(api.Dependencies{
		Logger:         logger,
		Gate:           rt.Service,
		Metrics:        rt.Metrics,
		Auditor:        rt.Audit,
		AuditTrail:     rt.Audit,
		RateLimiter:    rateLimiter,
		IPAllowlist:    allowlist,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RequestTimeout: cfg.RequestTimeout,
	})
	if err != nil {
		logger.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.APIAddr)
	if err != nil {
		logger.Error("failed to listen", "error", err)
		os.Exit(1)
	}

	if cfg.TLS().Enabled() {
		tlsCfg, err := security.LoadServerTLSConfig(cfg.TLS())
		if err != nil {
			logger.Error("failed to load TLS config", "error", err)
			os.Exit(1)
		}
		srv.TLSConfig = tlsCfg
		ln = tls.NewListener(ln, tlsCfg)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	logger.Info("liquidity gate api listening",
		"addr", cfg.APIAddr,
		"tls", cfg.TLS().Enabled(),
		"data_source", cfg.DataSource,
		"rate_limited", rateLimiter != nil,
	)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
