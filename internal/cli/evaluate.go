package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/example/liquidity-gate/internal/liquidity"
)

func newEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate the liquidity impact of releasing a payment",
		Long: `Evaluate a ledger payment by --payment-id, or a hypothetical payment
given by --amount, --currency, --account-id and --entity. The report is
written to stdout as JSON.`,
		Example: `  liquidityctl evaluate --data-dir ./data --payment-id TXN-EMRG-001
  liquidityctl evaluate --sqlite snapshot.db --amount 250000 --currency USD \
      --account-id ACC-BAN-001 --entity BankSubsidiary_TR --timestamp "2026-01-19 10:25"`,
		Args: cobra.NoArgs,
		RunE: runEvaluate,
	}

	f := cmd.Flags()
	f.String("payment-id", "", "Ledger txn_id of the payment to evaluate")
	f.String("amount", "", "Amount of a hypothetical payment")
	f.String("currency", "", "Currency of a hypothetical payment")
	f.String("account-id", "", "Account of a hypothetical payment")
	f.String("entity", "", "Entity of a hypothetical payment")
	f.String("beneficiary", "", "Beneficiary of a hypothetical payment")
	f.String("timestamp", "", "Release time of a hypothetical payment (UTC)")
	f.String("direction", "", "IN or OUT (default OUT)")
	f.String("entity-filter", "", "Override the entity used for the buffer lookup")
	f.String("currency-filter", "", "Override the currency of the simulated partition")
	f.String("now", "", "Evaluation time in RFC 3339, for reproducible reports")
	f.Bool("fail-on-hold", false, "Exit non-zero when the recommendation is HOLD")
	return cmd
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	req, err := requestFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	rt, err := openRuntime(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if nowFlag, _ := cmd.Flags().GetString("now"); nowFlag != "" {
		now, err := time.Parse(time.RFC3339, nowFlag)
		if err != nil {
			return fmt.Errorf("invalid --now: %w", err)
		}
		rt.Service.Clock = func() time.Time { return now }
	}

	res, err := rt.Service.Evaluate(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if failOnHold, _ := cmd.Flags().GetBool("fail-on-hold"); failOnHold && res.Recommendation.Action == liquidity.ActionHold {
		return fmt.Errorf("payment %s: %s", res.PaymentContext.PaymentID, res.Recommendation.Reason)
	}
	return nil
}

func requestFromFlags(cmd *cobra.Command) (liquidity.Request, error) {
	get := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return v
	}

	req := liquidity.Request{
		PaymentID:      get("payment-id"),
		EntityFilter:   get("entity-filter"),
		CurrencyFilter: get("currency-filter"),
	}

	h := &liquidity.HypotheticalPayment{
		Currency:        get("currency"),
		AccountID:       get("account-id"),
		Entity:          get("entity"),
		BeneficiaryName: get("beneficiary"),
		Timestamp:       get("timestamp"),
		Direction:       get("direction"),
	}
	if raw := get("amount"); raw != "" {
		amt, err := decimal.NewFromString(raw)
		if err != nil {
			return req, fmt.Errorf("invalid --amount %q", raw)
		}
		h.Amount = &amt
	}
	if h.Amount != nil || h.Currency != "" || h.AccountID != "" || h.Entity != "" {
		req.Hypothetical = h
	}
	return req, nil
}
