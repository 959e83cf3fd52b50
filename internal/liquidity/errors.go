package liquidity

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput means the request names no payment, names two, or
	// describes a hypothetical payment without its mandatory fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPaymentNotFound means the requested payment id is not in the ledger.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrUnparseableTimestamp means a timestamp matched none of the accepted layouts.
	ErrUnparseableTimestamp = errors.New("unparseable timestamp")
)

// ParseError reports the timestamp value that could not be parsed.
type ParseError struct {
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unable to parse timestamp: %q", e.Value)
}

func (e *ParseError) Unwrap() error {
	return ErrUnparseableTimestamp
}
