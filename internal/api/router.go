package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/liquidity-gate/internal/gate"
	"github.com/example/liquidity-gate/internal/liquidity"
	"github.com/example/liquidity-gate/internal/metrics"
	"github.com/example/liquidity-gate/internal/security"
	"github.com/example/liquidity-gate/pkg/audit"
)

type Auditor interface {
	Append(payload string) *audit.LogEntry
}

// AuditTrail exposes the retained part of the audit chain.
type AuditTrail interface {
	Entries() []*audit.LogEntry
	Head() string
}

type Dependencies struct {
	Logger *slog.Logger

	Gate interface {
		Evaluate(ctx context.Context, req liquidity.Request) (*liquidity.Result, error)
		Health(ctx context.Context) gate.Health
	}

	Metrics        *metrics.Metrics
	Auditor        Auditor
	AuditTrail     AuditTrail
	RateLimiter    *security.RedisTokenBucket
	IPAllowlist    []*net.IPNet
	MaxBodyBytes   int64
	RequestTimeout time.Duration
}

func NewRouter(deps Dependencies) (http.Handler, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	impactV, err := security.NewJSONSchemaValidator(impactSchema)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(security.CorrelationID)
	r.Use(RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(MetricsMiddleware(deps.Metrics))
	}
	if deps.RequestTimeout > 0 {
		r.Use(middleware.Timeout(deps.RequestTimeout))
	}
	r.Use(security.BodySizeLimit(deps.MaxBodyBytes))
	r.Use(security.IPAllowlist(deps.IPAllowlist))
	if deps.RateLimiter != nil {
		r.Use(security.RateLimitMiddleware(deps.RateLimiter, security.RateLimitKeyByIP))
	}
	if deps.Auditor != nil {
		r.Use(AuditMiddleware(deps.Auditor))
	}

	r.Get("/health", handleHealth(deps))
	r.Get("/healthz", handleHealth(deps))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.With(impactV.Middleware).Post("/compute_liquidity_impact", handleImpact(deps))

	r.Route("/v1", func(r chi.Router) {
		r.With(impactV.Middleware).Post("/liquidity/impact", handleImpact(deps))
		if deps.AuditTrail != nil {
			r.Get("/audit", handleAuditTrail(deps))
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		security.WriteJSONError(w, r, http.StatusNotFound, "not_found")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		security.WriteJSONError(w, r, http.StatusMethodNotAllowed, "method_not_allowed")
	})

	return r, nil
}
