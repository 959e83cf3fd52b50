package liquidity

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultBeneficiary = "Unknown"
	defaultPaymentID   = "HYPOTHETICAL"
)

// Validate checks that the request names exactly one payment and that a
// hypothetical payment carries its mandatory fields.
func (r Request) Validate() error {
	hasID := strings.TrimSpace(r.PaymentID) != ""
	switch {
	case hasID && r.Hypothetical != nil:
		return fmt.Errorf("%w: payment_id and hypothetical_payment are mutually exclusive", ErrInvalidInput)
	case !hasID && r.Hypothetical == nil:
		return fmt.Errorf("%w: either payment_id or hypothetical_payment must be provided", ErrInvalidInput)
	case hasID:
		return nil
	}

	h := r.Hypothetical
	var missing []string
	if h.Amount == nil {
		missing = append(missing, "amount")
	}
	if h.Currency == "" {
		missing = append(missing, "currency")
	}
	if h.AccountID == "" {
		missing = append(missing, "account_id")
	}
	if h.Entity == "" {
		missing = append(missing, "entity")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: hypothetical_payment missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	if h.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}
	if _, err := ParseDirection(h.Direction); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// ResolveTarget determines the payment being evaluated. By id, the first
// ledger row with a matching txn_id wins. A hypothetical payment gets the
// HYPOTHETICAL status, which never occurs in a ledger.
func ResolveTarget(ledger []Transaction, req Request, now time.Time) (TargetPayment, error) {
	if err := req.Validate(); err != nil {
		return TargetPayment{}, err
	}

	if id := strings.TrimSpace(req.PaymentID); id != "" {
		for _, txn := range ledger {
			if txn.TxnID != id {
				continue
			}
			dir := txn.Direction
			if dir == "" {
				dir = DirectionOut
			}
			status := txn.Status
			if status == "" {
				status = StatusQueued
			}
			return TargetPayment{
				PaymentID:       txn.TxnID,
				Amount:          txn.Amount,
				Currency:        txn.Currency,
				AccountID:       txn.AccountID,
				Entity:          txn.Entity,
				BeneficiaryName: txn.BeneficiaryName,
				Timestamp:       txn.Timestamp,
				Direction:       dir,
				Status:          status,
				FromLedger:      true,
			}, nil
		}
		return TargetPayment{}, fmt.Errorf("%w: payment %s not found in ledger", ErrPaymentNotFound, id)
	}

	h := req.Hypothetical
	dir, _ := ParseDirection(h.Direction)
	target := TargetPayment{
		PaymentID:       h.PaymentID,
		Amount:          *h.Amount,
		Currency:        h.Currency,
		AccountID:       h.AccountID,
		Entity:          h.Entity,
		BeneficiaryName: h.BeneficiaryName,
		Timestamp:       h.Timestamp,
		Direction:       dir,
		Status:          StatusHypothetical,
	}
	if target.PaymentID == "" {
		target.PaymentID = defaultPaymentID
	}
	if target.BeneficiaryName == "" {
		target.BeneficiaryName = defaultBeneficiary
	}
	if target.Timestamp == "" {
		target.Timestamp = now.UTC().Format(TimestampLayout)
	}
	return target, nil
}
