package liquidity

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TrajectoryPoint is the balance right after one transaction.
type TrajectoryPoint struct {
	Timestamp    string
	TxnID        string
	Amount       decimal.Decimal
	Direction    Direction
	BalanceAfter decimal.Decimal
	IsTarget     bool
}

// Trajectory is the outcome of walking one partition through the day.
// All amounts are exact; nothing is rounded here.
type Trajectory struct {
	StartBalance decimal.Decimal
	Threshold    decimal.Decimal
	EndBalance   decimal.Decimal
	TotalOutflow decimal.Decimal
	TotalInflow  decimal.Decimal

	MinBalance     decimal.Decimal
	MinBalanceTime string // empty when the balance never dropped below the start

	FirstBreachTime string // empty when the threshold was never crossed
	BreachGap       decimal.Decimal
	Breach          bool

	Points []TrajectoryPoint

	ordered []entry
}

// Simulate orders the merged rows by time and walks the running balance.
// The sort is stable: rows with equal timestamps keep their assembly order,
// which puts the injected target last among them.
func Simulate(entries []entry, start, threshold decimal.Decimal) Trajectory {
	ordered := make([]entry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].At.Before(ordered[j].At)
	})

	tr := Trajectory{
		StartBalance: start,
		Threshold:    threshold,
		TotalOutflow: decimal.Zero,
		TotalInflow:  decimal.Zero,
		MinBalance:   start,
		BreachGap:    decimal.Zero,
		Points:       make([]TrajectoryPoint, 0, len(ordered)),
		ordered:      ordered,
	}

	balance := start
	breached := false
	for _, e := range ordered {
		if e.Direction == DirectionOut {
			balance = balance.Sub(e.Amount)
			tr.TotalOutflow = tr.TotalOutflow.Add(e.Amount)
		} else {
			balance = balance.Add(e.Amount)
			tr.TotalInflow = tr.TotalInflow.Add(e.Amount)
		}

		tr.Points = append(tr.Points, TrajectoryPoint{
			Timestamp:    e.Timestamp,
			TxnID:        e.TxnID,
			Amount:       e.Amount,
			Direction:    e.Direction,
			BalanceAfter: balance,
			IsTarget:     e.IsTarget,
		})

		if balance.LessThan(tr.MinBalance) {
			tr.MinBalance = balance
			tr.MinBalanceTime = e.Timestamp
		}

		// Only the first crossing is recorded; a later recovery keeps it.
		if !breached && balance.LessThan(threshold) {
			breached = true
			tr.FirstBreachTime = e.Timestamp
			tr.BreachGap = threshold.Sub(balance)
		}
	}

	tr.EndBalance = balance
	tr.Breach = tr.MinBalance.LessThan(threshold)
	return tr
}
