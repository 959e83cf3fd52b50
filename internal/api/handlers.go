package api

import (
	"encoding/json"
	"net/http"

	"github.com/example/liquidity-gate/internal/gate"
	"github.com/example/liquidity-gate/internal/liquidity"
	"github.com/example/liquidity-gate/internal/security"
	"github.com/example/liquidity-gate/pkg/audit"
)

type auditTrailResponse struct {
	CorrelationID string            `json:"correlation_id"`
	Head          string            `json:"head"`
	Valid         bool              `json:"valid"`
	Entries       []*audit.LogEntry `json:"entries"`
}

var errorStatus = map[string]int{
	gate.CodeInvalidRequest:       http.StatusBadRequest,
	gate.CodePaymentNotFound:      http.StatusNotFound,
	gate.CodeUnparseableTimestamp: http.StatusUnprocessableEntity,
	gate.CodeInternal:             http.StatusInternalServerError,
}

func handleImpact(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Gate == nil {
			security.WriteJSONError(w, r, http.StatusServiceUnavailable, "gate_unavailable")
			return
		}

		var req liquidity.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			security.WriteJSONErrorMessage(w, r, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}

		res, err := deps.Gate.Evaluate(r.Context(), req)
		if err != nil {
			code := gate.ErrorCode(err)
			msg := err.Error()
			if code == gate.CodeInternal {
				deps.Logger.Error("liquidity_impact_failed",
					"cid", security.CorrelationIDFromContext(r.Context()),
					"error", err,
				)
				msg = "internal error"
			}
			security.WriteJSONErrorMessage(w, r, errorStatus[code], code, msg)
			return
		}

		writeJSON(w, r, http.StatusOK, res)
	}
}

func handleHealth(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Gate == nil {
			writeJSON(w, r, http.StatusOK, gate.Health{Status: "healthy", Service: gate.ServiceName, Version: liquidity.Version})
			return
		}
		writeJSON(w, r, http.StatusOK, deps.Gate.Health(r.Context()))
	}
}

func handleAuditTrail(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := deps.AuditTrail.Entries()
		writeJSON(w, r, http.StatusOK, auditTrailResponse{
			CorrelationID: security.CorrelationIDFromContext(r.Context()),
			Head:          deps.AuditTrail.Head(),
			Valid:         audit.VerifyChain(entries) == nil,
			Entries:       entries,
		})
	}
}
