package liquidity

import (
	"strings"
	"time"
)

// TimestampLayout is the layout used when a timestamp has to be produced,
// e.g. for a hypothetical payment without one.
const TimestampLayout = "2006-01-02 15:04:05"

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// ParseTimestamp parses a ledger timestamp. Layouts are tried in order and
// the first match wins. Values carry no zone and are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ParseError{Value: s}
}
