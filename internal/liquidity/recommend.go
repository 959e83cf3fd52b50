package liquidity

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	ActionHold    = "HOLD"
	ActionRelease = "RELEASE"
)

// Recommendation is the operator-facing verdict.
type Recommendation struct {
	Action       string   `json:"action"`
	Reason       string   `json:"reason"`
	Alternatives []string `json:"alternatives"`
}

// Recommend derives the action from the breach verdict. There are exactly
// two outcomes.
func Recommend(breach bool, gap decimal.Decimal) Recommendation {
	if !breach {
		return Recommendation{
			Action:       ActionRelease,
			Reason:       "Payment within buffer limits",
			Alternatives: []string{},
		}
	}
	return Recommendation{
		Action: ActionHold,
		Reason: "Payment would breach buffer by $" + formatMoney(gap),
		Alternatives: []string{
			"Delay payment until inflows received",
			"Request partial release",
			"Escalate to treasury for funding",
		},
	}
}

// formatMoney renders d with two decimals and comma thousands separators.
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}
