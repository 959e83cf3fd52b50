package snapshot

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/example/liquidity-gate/internal/liquidity"
)

var (
	ledgerColumns  = []string{"txn_id", "timestamp_utc", "entity", "account_id", "currency", "amount"}
	balanceColumns = []string{"entity", "account_id", "currency", "start_of_day_balance"}
)

// DecodeLedgerCSV parses the curated ledger file. Columns are located by
// header name; optional columns may be absent.
func DecodeLedgerCSV(data []byte) ([]liquidity.Transaction, error) {
	rows, err := readCSV(data, ledgerColumns)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger csv: %w", err)
	}

	out := make([]liquidity.Transaction, 0, len(rows))
	for i, row := range rows {
		txn, err := newTransaction(
			row.get("txn_id"), row.get("timestamp_utc"), row.get("entity"), row.get("account_id"),
			row.get("currency"), row.get("beneficiary_name"), row.get("payment_type"),
			row.get("amount"), row.get("direction"), row.get("status"), row.get("alert_flag"), row.get("channel"),
		)
		if err != nil {
			return nil, fmt.Errorf("ledger row %d: %w", i+2, err)
		}
		out = append(out, txn)
	}
	return out, nil
}

// DecodeBalancesCSV parses the curated starting balances file.
func DecodeBalancesCSV(data []byte) ([]liquidity.BalanceRecord, error) {
	rows, err := readCSV(data, balanceColumns)
	if err != nil {
		return nil, fmt.Errorf("failed to read balances csv: %w", err)
	}

	out := make([]liquidity.BalanceRecord, 0, len(rows))
	for i, row := range rows {
		bal, err := parseDecimal("start_of_day_balance", row.get("start_of_day_balance"))
		if err != nil {
			return nil, fmt.Errorf("balance row %d: %w", i+2, err)
		}
		out = append(out, liquidity.BalanceRecord{
			Entity:            row.get("entity"),
			AccountID:         row.get("account_id"),
			Currency:          row.get("currency"),
			StartOfDayBalance: bal,
		})
	}
	return out, nil
}

type bufferDoc struct {
	Entity      string           `json:"entity"`
	Currency    string           `json:"currency"`
	MinBuffer   *decimal.Decimal `json:"min_buffer"`
	CutoffTime  string           `json:"cutoff_time_utc"`
	Description string           `json:"description"`
}

// DecodeBuffersJSON parses the curated buffer rules, a JSON array.
func DecodeBuffersJSON(data []byte) ([]liquidity.BufferRule, error) {
	var docs []bufferDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode buffers json: %w", err)
	}

	out := make([]liquidity.BufferRule, 0, len(docs))
	for i, d := range docs {
		if d.MinBuffer == nil {
			return nil, fmt.Errorf("buffer rule %d: missing min_buffer", i)
		}
		if d.MinBuffer.IsNegative() {
			return nil, fmt.Errorf("buffer rule %d: min_buffer must not be negative", i)
		}
		out = append(out, liquidity.BufferRule{
			Entity:      d.Entity,
			Currency:    d.Currency,
			MinBuffer:   *d.MinBuffer,
			CutoffTime:  d.CutoffTime,
			Description: d.Description,
		})
	}
	return out, nil
}

// newTransaction applies the record rules shared by every backend.
func newTransaction(txnID, ts, entity, accountID, currency, beneficiary, paymentType, amount, direction, status, alertFlag, channel string) (liquidity.Transaction, error) {
	amt, err := parseDecimal("amount", amount)
	if err != nil {
		return liquidity.Transaction{}, err
	}
	if amt.IsNegative() {
		return liquidity.Transaction{}, fmt.Errorf("amount must not be negative: %s", amount)
	}
	dir, err := liquidity.ParseDirection(direction)
	if err != nil {
		return liquidity.Transaction{}, err
	}
	return liquidity.Transaction{
		TxnID:           txnID,
		Timestamp:       ts,
		Entity:          entity,
		AccountID:       accountID,
		Currency:        currency,
		BeneficiaryName: beneficiary,
		PaymentType:     paymentType,
		Amount:          amt,
		Direction:       dir,
		Status:          status,
		AlertFlag:       alertFlag,
		Channel:         channel,
	}, nil
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed %s %q: %w", field, s, err)
	}
	return d, nil
}

type csvRow struct {
	index  map[string]int
	record []string
}

func (r csvRow) get(column string) string {
	i, ok := r.index[column]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func readCSV(data []byte, required []string) ([]csvRow, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header")
	}
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	var missing []string
	for _, col := range required {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	var rows []csvRow
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, csvRow{index: index, record: rec})
	}
	return rows, nil
}
