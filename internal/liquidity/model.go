package liquidity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the cash-flow direction of a ledger transaction.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Statuses the simulator cares about. Ledger rows may carry others
// (RELEASED, PENDING_APPROVAL, ON_HOLD); they are passed through untouched.
const (
	StatusQueued           = "QUEUED"
	StatusHypothetical     = "HYPOTHETICAL"
	StatusSimulatedRelease = "SIMULATED_RELEASE"
)

// ParseDirection normalizes a direction field. An empty value means OUT.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "OUT":
		return DirectionOut, nil
	case "IN":
		return DirectionIn, nil
	default:
		return "", fmt.Errorf("invalid direction %q", s)
	}
}

// Transaction is one row of the day's ledger. Timestamp keeps the raw
// source string; it is parsed only when the row joins a simulation.
type Transaction struct {
	TxnID           string          `json:"txn_id"`
	Timestamp       string          `json:"timestamp_utc"`
	Entity          string          `json:"entity"`
	AccountID       string          `json:"account_id"`
	Currency        string          `json:"currency"`
	BeneficiaryName string          `json:"beneficiary_name"`
	PaymentType     string          `json:"payment_type"`
	Amount          decimal.Decimal `json:"amount"`
	Direction       Direction       `json:"direction"`
	Status          string          `json:"status"`
	AlertFlag       string          `json:"alert_flag"`
	Channel         string          `json:"channel"`
}

// BalanceRecord is the start-of-day balance of one account in one currency.
type BalanceRecord struct {
	Entity            string          `json:"entity"`
	AccountID         string          `json:"account_id"`
	Currency          string          `json:"currency"`
	StartOfDayBalance decimal.Decimal `json:"start_of_day_balance"`
}

// BufferRule is the minimum balance an entity must keep in a currency.
type BufferRule struct {
	Entity      string          `json:"entity"`
	Currency    string          `json:"currency"`
	MinBuffer   decimal.Decimal `json:"min_buffer"`
	CutoffTime  string          `json:"cutoff_time_utc"`
	Description string          `json:"description"`
}

// Snapshot is one materialized copy of the three input record sets.
type Snapshot struct {
	Ledger   []Transaction
	Balances []BalanceRecord
	Buffers  []BufferRule
}

// HypotheticalPayment describes a payment that is not in the ledger.
// Amount is a pointer so that a missing amount can be told apart from zero.
type HypotheticalPayment struct {
	PaymentID       string           `json:"payment_id,omitempty"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	Currency        string           `json:"currency"`
	AccountID       string           `json:"account_id"`
	Entity          string           `json:"entity"`
	BeneficiaryName string           `json:"beneficiary_name,omitempty"`
	Timestamp       string           `json:"timestamp_utc,omitempty"`
	Direction       string           `json:"direction,omitempty"`
}

// Request selects the payment to evaluate. Exactly one of PaymentID and
// Hypothetical must be set.
type Request struct {
	PaymentID      string               `json:"payment_id,omitempty"`
	Hypothetical   *HypotheticalPayment `json:"hypothetical_payment,omitempty"`
	EntityFilter   string               `json:"entity_filter,omitempty"`
	CurrencyFilter string               `json:"currency_filter,omitempty"`
}

// TargetPayment is the payment under evaluation.
type TargetPayment struct {
	PaymentID       string
	Amount          decimal.Decimal
	Currency        string
	AccountID       string
	Entity          string
	BeneficiaryName string
	Timestamp       string
	Direction       Direction
	Status          string

	// FromLedger is set when the target was resolved by id.
	FromLedger bool
}

// entry is a transaction that takes part in one simulation.
type entry struct {
	TxnID       string
	At          time.Time
	Timestamp   string
	Amount      decimal.Decimal
	Direction   Direction
	Beneficiary string
	Status      string
	AlertFlag   string
	IsTarget    bool
}
