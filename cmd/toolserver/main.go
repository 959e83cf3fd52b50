package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/example/liquidity-gate/internal/bootstrap"
	"github.com/example/liquidity-gate/internal/config"
	"github.com/example/liquidity-gate/internal/security"
	"github.com/example/liquidity-gate/internal/toolrpc"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := bootstrap.NewLogger(os.Stdout, cfg)
	slog.SetDefault(logger)

	rt, err := bootstrap.Open(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to open data source", "data_source", cfg.DataSource, "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	opts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(1024 * 1024),
		grpc.MaxSendMsgSize(1024 * 1024),
		grpc.UnaryInterceptor(toolrpc.UnaryInterceptor(logger, rt.Metrics)),
	}
	if cfg.TLS().Enabled() {
		tlsCfg, err := security.LoadServerTLSConfig(cfg.TLS())
		if err != nil {
			logger.Error("failed to load TLS config", "error", err)
			os.Exit(1)
		}
		opts = append(opts, grpc.Creds(credentials.NewTLS(tlsCfg)))
	}
	grpcServer := grpc.NewServer(opts...)

	toolrpc.RegisterLiquidityToolServer(grpcServer, toolrpc.NewServer(rt.Service, logger))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(toolrpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen", "error", err)
		os.Exit(1)
	}

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" && rt.Metrics != nil {
		metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           rt.Metrics.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down tool server")
		healthServer.Shutdown()
		if metricsSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(ctx)
		}
		grpcServer.GracefulStop()
	}()

	logger.Info("liquidity tool server listening",
		"addr", cfg.GRPCAddr,
		"service", toolrpc.ServiceName,
		"data_source", cfg.DataSource,
	)
	if err := grpcServer.Serve(lis); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
