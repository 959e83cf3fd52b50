package liquidity

import (
	"sort"

	"github.com/shopspring/decimal"
)

const (
	topBeneficiaryLimit = 5
	anomalyLimit        = 10
)

// BeneficiaryTotal is the total outflow to one beneficiary.
type BeneficiaryTotal struct {
	Beneficiary string
	Total       decimal.Decimal
}

// Anomaly is a transaction carrying an alert flag from the source data.
type Anomaly struct {
	TxnID       string
	Flag        string
	Amount      decimal.Decimal
	Beneficiary string
}

// Analysis summarizes beneficiary concentration and flagged rows.
type Analysis struct {
	TopBeneficiaries     []BeneficiaryTotal
	LargestSinglePayment decimal.Decimal
	Anomalies            []Anomaly
}

// Analyze runs over the simulated rows in trajectory order. Beneficiaries
// with equal totals keep the order in which they were first seen.
func Analyze(tr Trajectory) Analysis {
	var (
		totals  []BeneficiaryTotal
		index   = make(map[string]int)
		largest = decimal.Zero
		flagged []Anomaly
	)

	for _, e := range tr.ordered {
		if e.Direction == DirectionOut {
			i, ok := index[e.Beneficiary]
			if !ok {
				i = len(totals)
				index[e.Beneficiary] = i
				totals = append(totals, BeneficiaryTotal{Beneficiary: e.Beneficiary, Total: decimal.Zero})
			}
			totals[i].Total = totals[i].Total.Add(e.Amount)
			if e.Amount.GreaterThan(largest) {
				largest = e.Amount
			}
		}
		if e.AlertFlag != "" && len(flagged) < anomalyLimit {
			flagged = append(flagged, Anomaly{
				TxnID:       e.TxnID,
				Flag:        e.AlertFlag,
				Amount:      e.Amount,
				Beneficiary: e.Beneficiary,
			})
		}
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Total.GreaterThan(totals[j].Total)
	})
	if len(totals) > topBeneficiaryLimit {
		totals = totals[:topBeneficiaryLimit]
	}

	return Analysis{
		TopBeneficiaries:     totals,
		LargestSinglePayment: largest,
		Anomalies:            flagged,
	}
}
