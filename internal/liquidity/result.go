package liquidity

import "github.com/shopspring/decimal"

// Version is reported in every audit block.
const Version = "1.0.0"

// Result is the report returned for one evaluation. Amounts are rounded to
// two decimals here and nowhere earlier.
type Result struct {
	BufferBreachRisk      BreachRisk       `json:"buffer_breach_risk"`
	PaymentContext        PaymentContext   `json:"payment_context"`
	AccountSummary        AccountSummary   `json:"account_summary"`
	ConcentrationAnalysis Concentration    `json:"concentration_analysis"`
	Anomalies             []AnomalyView    `json:"anomalies"`
	Recommendation        Recommendation   `json:"recommendation"`
	BalanceTrajectory     []TrajectoryView `json:"balance_trajectory"`
	Audit                 Audit            `json:"audit"`
}

type BreachRisk struct {
	Breach              bool    `json:"breach"`
	FirstBreachTime     *string `json:"first_breach_time"`
	FirstBreachGap      float64 `json:"first_breach_gap"`
	Gap                 float64 `json:"gap"`
	ProjectedBalanceMin float64 `json:"projected_balance_min"`
	MinBalanceTime      *string `json:"min_balance_time"`
	BufferThreshold     float64 `json:"buffer_threshold"`
	Headroom            float64 `json:"headroom"`
}

type PaymentContext struct {
	PaymentID     string  `json:"payment_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Beneficiary   string  `json:"beneficiary"`
	AccountID     string  `json:"account_id"`
	Entity        string  `json:"entity"`
	ScheduledTime string  `json:"scheduled_time"`
}

type AccountSummary struct {
	StartOfDayBalance float64 `json:"start_of_day_balance"`
	TotalOutflow      float64 `json:"total_outflow"`
	TotalInflow       float64 `json:"total_inflow"`
	NetFlow           float64 `json:"net_flow"`
	EndOfDayBalance   float64 `json:"end_of_day_balance"`
	TransactionCount  int     `json:"transaction_count"`
}

type Concentration struct {
	TopBeneficiaries     []BeneficiaryView `json:"top_beneficiaries"`
	LargestSinglePayment float64           `json:"largest_single_payment"`
}

type BeneficiaryView struct {
	Beneficiary string  `json:"beneficiary"`
	TotalAmount float64 `json:"total_amount"`
}

type AnomalyView struct {
	TxnID       string  `json:"txn_id"`
	Flag        string  `json:"flag"`
	Amount      float64 `json:"amount"`
	Beneficiary string  `json:"beneficiary"`
}

type TrajectoryView struct {
	Timestamp    string  `json:"timestamp"`
	TxnID        string  `json:"txn_id"`
	Amount       float64 `json:"amount"`
	Direction    string  `json:"direction"`
	BalanceAfter float64 `json:"balance_after"`
	IsTarget     bool    `json:"is_target_payment"`
}

type Audit struct {
	RunID        string       `json:"run_id"`
	TimestampUTC string       `json:"timestamp_utc"`
	DataSnapshot DataSnapshot `json:"data_snapshot"`
	CutoffTime   *string      `json:"cutoff_time"`
	Version      string       `json:"version"`
	Warnings     []string     `json:"warnings"`
}

type DataSnapshot struct {
	LedgerRows  int `json:"ledger_rows"`
	BalanceRows int `json:"balance_rows"`
	BufferRules int `json:"buffer_rules"`
}

// Assemble builds the report from the intermediate state. It performs no I/O.
func Assemble(target TargetPayment, p Partition, tr Trajectory, an Analysis, rec Recommendation, audit Audit) *Result {
	gap := decimal.Zero
	if tr.Breach {
		gap = tr.Threshold.Sub(tr.MinBalance)
	}

	res := &Result{
		BufferBreachRisk: BreachRisk{
			Breach:              tr.Breach,
			FirstBreachTime:     optional(tr.FirstBreachTime),
			FirstBreachGap:      round2(tr.BreachGap),
			Gap:                 round2(gap),
			ProjectedBalanceMin: round2(tr.MinBalance),
			MinBalanceTime:      optional(tr.MinBalanceTime),
			BufferThreshold:     round2(tr.Threshold),
			Headroom:            round2(tr.MinBalance.Sub(tr.Threshold)),
		},
		PaymentContext: PaymentContext{
			PaymentID:     target.PaymentID,
			Amount:        round2(target.Amount),
			Currency:      p.Currency,
			Beneficiary:   target.BeneficiaryName,
			AccountID:     p.AccountID,
			Entity:        p.Entity,
			ScheduledTime: target.Timestamp,
		},
		AccountSummary: AccountSummary{
			StartOfDayBalance: round2(tr.StartBalance),
			TotalOutflow:      round2(tr.TotalOutflow),
			TotalInflow:       round2(tr.TotalInflow),
			NetFlow:           round2(tr.TotalInflow.Sub(tr.TotalOutflow)),
			EndOfDayBalance:   round2(tr.EndBalance),
			TransactionCount:  len(tr.Points),
		},
		ConcentrationAnalysis: Concentration{
			TopBeneficiaries:     make([]BeneficiaryView, 0, len(an.TopBeneficiaries)),
			LargestSinglePayment: round2(an.LargestSinglePayment),
		},
		Anomalies:         make([]AnomalyView, 0, len(an.Anomalies)),
		Recommendation:    rec,
		BalanceTrajectory: make([]TrajectoryView, 0, len(tr.Points)),
		Audit:             audit,
	}
	if res.Audit.Warnings == nil {
		res.Audit.Warnings = []string{}
	}

	for _, b := range an.TopBeneficiaries {
		res.ConcentrationAnalysis.TopBeneficiaries = append(res.ConcentrationAnalysis.TopBeneficiaries, BeneficiaryView{
			Beneficiary: b.Beneficiary,
			TotalAmount: round2(b.Total),
		})
	}
	for _, a := range an.Anomalies {
		res.Anomalies = append(res.Anomalies, AnomalyView{
			TxnID:       a.TxnID,
			Flag:        a.Flag,
			Amount:      round2(a.Amount),
			Beneficiary: a.Beneficiary,
		})
	}
	for _, pt := range tr.Points {
		res.BalanceTrajectory = append(res.BalanceTrajectory, TrajectoryView{
			Timestamp:    pt.Timestamp,
			TxnID:        pt.TxnID,
			Amount:       round2(pt.Amount),
			Direction:    string(pt.Direction),
			BalanceAfter: round2(pt.BalanceAfter),
			IsTarget:     pt.IsTarget,
		})
	}
	return res
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
