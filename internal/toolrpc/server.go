package toolrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/liquidity-gate/internal/gate"
	"github.com/example/liquidity-gate/internal/liquidity"
)

const (
	ToolName        = "compute_liquidity_impact"
	toolDescription = "Simulates the intraday balance of the payment's account and currency with the payment released, " +
		"and reports whether the entity's liquidity buffer would be breached, with a HOLD or RELEASE recommendation."
	usage = "provide either payment_id to evaluate a ledger payment, " +
		"or amount, currency, account_id and entity to evaluate a hypothetical payment"
)

// Property describes one tool argument.
type Property struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// Properties lists the arguments ComputeLiquidityImpact accepts.
var Properties = []Property{
	{"payment_id", "string", "Ledger txn_id of the payment to evaluate.", false},
	{"amount", "number", "Amount of a hypothetical payment.", false},
	{"currency", "string", "ISO currency code of a hypothetical payment.", false},
	{"account_id", "string", "Account a hypothetical payment is paid from.", false},
	{"entity", "string", "Legal entity whose buffer applies.", false},
	{"beneficiary_name", "string", "Beneficiary of a hypothetical payment. Defaults to Unknown.", false},
	{"timestamp_utc", "string", "Release time, YYYY-MM-DD HH:MM[:SS] in UTC. Defaults to now.", false},
	{"direction", "string", "IN or OUT. Defaults to OUT.", false},
	{"entity_filter", "string", "Overrides the entity used for the buffer lookup.", false},
	{"currency_filter", "string", "Overrides the currency of the simulated partition.", false},
}

type Evaluator interface {
	Evaluate(ctx context.Context, req liquidity.Request) (*liquidity.Result, error)
}

// Server implements LiquidityToolServer on top of an Evaluator.
type Server struct {
	Gate   Evaluator
	Logger *slog.Logger
}

func NewServer(g Evaluator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Gate: g, Logger: logger}
}

func (s *Server) ComputeLiquidityImpact(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := RequestFromArgs(in.AsMap())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v; %s", err, usage)
	}

	res, err := s.Gate.Evaluate(ctx, req)
	if err != nil {
		switch gate.ErrorCode(err) {
		case gate.CodeInvalidRequest:
			return nil, status.Errorf(codes.InvalidArgument, "%v; %s", err, usage)
		case gate.CodePaymentNotFound:
			return nil, status.Error(codes.NotFound, err.Error())
		case gate.CodeUnparseableTimestamp:
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		default:
			s.Logger.Error("tool_evaluation_failed", "error", err)
			return nil, status.Error(codes.Internal, "internal error")
		}
	}

	out, err := toStruct(res)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode result: %v", err)
	}
	return out, nil
}

func (s *Server) DescribeTool(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	props := make([]interface{}, 0, len(Properties))
	for _, p := range Properties {
		props = append(props, map[string]interface{}{
			"name":        p.Name,
			"type":        p.Type,
			"description": p.Description,
			"required":    p.Required,
		})
	}
	return structpb.NewStruct(map[string]interface{}{
		"name":        ToolName,
		"description": toolDescription,
		"usage":       usage,
		"properties":  props,
	})
}

// RequestFromArgs maps flat tool arguments onto a request. A payment_id
// selects by-id mode; otherwise the remaining fields describe a
// hypothetical payment. Completeness is checked by the evaluator.
func RequestFromArgs(args map[string]interface{}) (liquidity.Request, error) {
	str := func(key string) (string, error) {
		v, ok := args[key]
		if !ok || v == nil {
			return "", nil
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("%s must be a string", key)
		}
		return strings.TrimSpace(s), nil
	}

	var req liquidity.Request
	var err error
	if req.PaymentID, err = str("payment_id"); err != nil {
		return req, err
	}
	if req.EntityFilter, err = str("entity_filter"); err != nil {
		return req, err
	}
	if req.CurrencyFilter, err = str("currency_filter"); err != nil {
		return req, err
	}
	if req.PaymentID != "" {
		return req, nil
	}

	h := &liquidity.HypotheticalPayment{}
	for key, dst := range map[string]*string{
		"currency":         &h.Currency,
		"account_id":       &h.AccountID,
		"entity":           &h.Entity,
		"beneficiary_name": &h.BeneficiaryName,
		"timestamp_utc":    &h.Timestamp,
		"direction":        &h.Direction,
	} {
		if *dst, err = str(key); err != nil {
			return req, err
		}
	}

	switch v := args["amount"].(type) {
	case nil:
	case float64:
		d := decimal.NewFromFloat(v)
		h.Amount = &d
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return req, errors.New("amount must be a number")
		}
		h.Amount = &d
	default:
		return req, errors.New("amount must be a number")
	}

	if h.Amount != nil || h.Currency != "" || h.AccountID != "" || h.Entity != "" {
		req.Hypothetical = h
	}
	return req, nil
}

func toStruct(res *liquidity.Result) (*structpb.Struct, error) {
	raw, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}
