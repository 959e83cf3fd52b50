package liquidity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2026, 1, 19, 10, 25, 0, 0, time.UTC)

	tests := []struct {
		input string
		want  time.Time
	}{
		{"2026-01-19 10:25:00", want},
		{"2026-01-19T10:25:00", want},
		{"2026-01-19 10:25", want},
		{"2026-01-19T10:25", want},
		{"  2026-01-19 10:25:00 ", want},
		{"2026-01-19 10:25:07", want.Add(7 * time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseTimestampRejects(t *testing.T) {
	for _, input := range []string{"", "2026-01-19", "10:25", "2026-01-19T10:25:00Z", "19.01.2026 10:25"} {
		_, err := ParseTimestamp(input)
		require.Error(t, err, input)
		assert.True(t, errors.Is(err, ErrUnparseableTimestamp))
	}
}
