package rhfolio

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Percent float64

// PercentOf returns part/total expressed as a percentage, rounded half-up to
// two decimal places. A zero total yields a zero percentage.
func PercentOf(part, total Money) Percent {
	if total.IsZero() {
		return 0
	}
	r := part.value.Div(total.value).Mul(decimal.NewFromInt(100)).Round(2)
	return Percent(r.InexactFloat64())
}

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", p)
}

func (p Percent) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", p)
	if res == "+0.00%" {
		return "-"
	}
	return res
}
