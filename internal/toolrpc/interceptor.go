package toolrpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/example/liquidity-gate/internal/metrics"
	"github.com/example/liquidity-gate/internal/security"
)

const correlationIDMetadataKey = "x-correlation-id"

// UnaryInterceptor propagates the caller's correlation id, logs every call
// and counts it by status code.
func UnaryInterceptor(l *slog.Logger, m *metrics.Metrics) grpc.UnaryServerInterceptor {
	if l == nil {
		l = slog.Default()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		var cid string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(correlationIDMetadataKey); len(vals) > 0 {
				cid = vals[0]
			}
		}
		ctx = security.WithCorrelationID(ctx, cid)
		cid = security.CorrelationIDFromContext(ctx)
		_ = grpc.SetHeader(ctx, metadata.Pairs(correlationIDMetadataKey, cid))

		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelWarn
		}
		l.Log(ctx, level, "grpc_request",
			"cid", cid,
			"method", info.FullMethod,
			"code", code.String(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		m.ObserveToolCall(info.FullMethod, code.String())
		return resp, err
	}
}
