package liquidity

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeTopBeneficiaries(t *testing.T) {
	at := time.Date(2026, 1, 19, 8, 0, 0, 0, time.UTC)
	rows := []struct {
		beneficiary string
		amount      string
		dir         Direction
	}{
		{"Tie-First", "100", DirectionOut},
		{"Big", "500", DirectionOut},
		{"Tie-Second", "100", DirectionOut},
		{"Inflow-Only", "9999", DirectionIn},
		{"Small", "10", DirectionOut},
		{"Medium", "250", DirectionOut},
		{"Tiny", "1", DirectionOut},
		{"Big", "50", DirectionOut},
	}
	var entries []entry
	for i, r := range rows {
		entries = append(entries, entry{
			TxnID:       fmt.Sprintf("T%d", i),
			At:          at.Add(time.Duration(i) * time.Minute),
			Amount:      dec(r.amount),
			Direction:   r.dir,
			Beneficiary: r.beneficiary,
		})
	}

	an := Analyze(Simulate(entries, dec("0"), dec("0")))

	require.Len(t, an.TopBeneficiaries, 5)
	var names []string
	for _, b := range an.TopBeneficiaries {
		names = append(names, b.Beneficiary)
	}
	assert.Equal(t, []string{"Big", "Medium", "Tie-First", "Tie-Second", "Small"}, names)
	assert.True(t, an.TopBeneficiaries[0].Total.Equal(dec("550")))
	assert.True(t, an.LargestSinglePayment.Equal(dec("500")))
}

func TestAnalyzeAnomaliesCappedInOrder(t *testing.T) {
	at := time.Date(2026, 1, 19, 8, 0, 0, 0, time.UTC)
	var entries []entry
	for i := 0; i < 12; i++ {
		entries = append(entries, entry{
			TxnID:     fmt.Sprintf("A%02d", i),
			At:        at.Add(time.Duration(i) * time.Minute),
			Amount:    dec("1"),
			Direction: DirectionIn,
			AlertFlag: "ANOMALY_DETECTED",
		})
	}
	entries = append(entries, entry{TxnID: "clean", At: at, Amount: dec("1"), Direction: DirectionOut})

	an := Analyze(Simulate(entries, dec("0"), dec("0")))

	require.Len(t, an.Anomalies, 10)
	assert.Equal(t, "A00", an.Anomalies[0].TxnID)
	assert.Equal(t, "A09", an.Anomalies[9].TxnID)
	assert.Equal(t, "ANOMALY_DETECTED", an.Anomalies[0].Flag)
}

func TestAnalyzeNoOutflows(t *testing.T) {
	at := time.Date(2026, 1, 19, 8, 0, 0, 0, time.UTC)
	an := Analyze(Simulate([]entry{{TxnID: "in", At: at, Amount: dec("5"), Direction: DirectionIn}}, dec("0"), dec("0")))

	assert.Empty(t, an.TopBeneficiaries)
	assert.True(t, an.LargestSinglePayment.Equal(decimal.Zero))
	assert.Empty(t, an.Anomalies)
}
