package liquidity

import "fmt"

// Partition is the (account, currency) pair a simulation is scoped to, plus
// the entity whose buffer rule applies.
type Partition struct {
	Entity    string
	AccountID string
	Currency  string
}

// PartitionFor returns the partition for a target. The filters override the
// target's own entity and currency when set.
func PartitionFor(target TargetPayment, entityFilter, currencyFilter string) Partition {
	p := Partition{
		Entity:    target.Entity,
		AccountID: target.AccountID,
		Currency:  target.Currency,
	}
	if entityFilter != "" {
		p.Entity = entityFilter
	}
	if currencyFilter != "" {
		p.Currency = currencyFilter
	}
	return p
}

// MergePartition selects the ledger rows of the partition, in ledger order,
// and appends the target as a simulated release. A target resolved by id is
// dropped from the ledger selection so that it is counted once.
func MergePartition(ledger []Transaction, target TargetPayment, p Partition) ([]entry, error) {
	out := make([]entry, 0, 16)
	for _, txn := range ledger {
		if txn.AccountID != p.AccountID || txn.Currency != p.Currency {
			continue
		}
		if target.FromLedger && txn.TxnID == target.PaymentID {
			continue
		}
		at, err := ParseTimestamp(txn.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", txn.TxnID, err)
		}
		dir := txn.Direction
		if dir == "" {
			dir = DirectionOut
		}
		out = append(out, entry{
			TxnID:       txn.TxnID,
			At:          at,
			Timestamp:   txn.Timestamp,
			Amount:      txn.Amount,
			Direction:   dir,
			Beneficiary: txn.BeneficiaryName,
			Status:      txn.Status,
			AlertFlag:   txn.AlertFlag,
		})
	}

	at, err := ParseTimestamp(target.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("target payment %s: %w", target.PaymentID, err)
	}
	out = append(out, entry{
		TxnID:       target.PaymentID,
		At:          at,
		Timestamp:   target.Timestamp,
		Amount:      target.Amount,
		Direction:   target.Direction,
		Beneficiary: target.BeneficiaryName,
		Status:      StatusSimulatedRelease,
		IsTarget:    true,
	})
	return out, nil
}
