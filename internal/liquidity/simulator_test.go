package liquidity

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateStableTieOrder(t *testing.T) {
	at := time.Date(2026, 1, 19, 10, 0, 0, 0, time.UTC)
	entries := []entry{
		{TxnID: "later", At: at.Add(time.Hour), Amount: dec("1"), Direction: DirectionOut},
		{TxnID: "tie-1", At: at, Amount: dec("1"), Direction: DirectionOut},
		{TxnID: "tie-2", At: at, Amount: dec("1"), Direction: DirectionIn},
		{TxnID: "target", At: at, Amount: dec("1"), Direction: DirectionOut, IsTarget: true},
	}

	tr := Simulate(entries, dec("10"), dec("0"))

	var order []string
	for _, p := range tr.Points {
		order = append(order, p.TxnID)
	}
	assert.Equal(t, []string{"tie-1", "tie-2", "target", "later"}, order)
	assert.Equal(t, "later", entries[0].TxnID, "input must not be reordered")
}

func TestSimulateNoDriftOverManySmallAmounts(t *testing.T) {
	at := time.Date(2026, 1, 19, 0, 0, 0, 0, time.UTC)
	entries := make([]entry, 0, 10000)
	for i := 0; i < 10000; i++ {
		entries = append(entries, entry{
			TxnID:     fmt.Sprintf("T%d", i),
			At:        at.Add(time.Duration(i) * time.Second),
			Amount:    dec("0.01"),
			Direction: DirectionOut,
		})
	}

	tr := Simulate(entries, dec("100"), dec("0"))
	assert.True(t, tr.EndBalance.Equal(decimal.Zero), "end balance %s", tr.EndBalance)
	assert.True(t, tr.TotalOutflow.Equal(dec("100")))
}

func TestSimulateMinimumOnlyTracksDrops(t *testing.T) {
	at := time.Date(2026, 1, 19, 8, 0, 0, 0, time.UTC)
	entries := []entry{
		{TxnID: "in", Timestamp: "a", At: at, Amount: dec("5"), Direction: DirectionIn},
	}

	tr := Simulate(entries, dec("10"), dec("20"))
	assert.True(t, tr.MinBalance.Equal(dec("10")))
	assert.Empty(t, tr.MinBalanceTime)
	// Starting below the buffer is a breach even though no row crossed it downwards.
	assert.True(t, tr.Breach)
	assert.Equal(t, "a", tr.FirstBreachTime)
	require.Len(t, tr.Points, 1)
	assert.True(t, tr.Points[0].BalanceAfter.Equal(dec("15")))
}
