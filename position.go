package rhfolio

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// OptionType is the contract type of an option.
type OptionType int

const (
	Call OptionType = iota
	Put
)

func (t OptionType) String() string {
	switch t {
	case Call:
		return "call"
	case Put:
		return "put"
	default:
		return "unknown"
	}
}

// ParseOptionType parses a string into an OptionType.
func ParseOptionType(s string) (OptionType, error) {
	switch s {
	case "call":
		return Call, nil
	case "put":
		return Put, nil
	default:
		return 0, fmt.Errorf("unknown option type: %q", s)
	}
}

// OptionSide tells whether a position was bought (long) or written (short).
type OptionSide int

const (
	Long OptionSide = iota
	Short
)

func (s OptionSide) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "unknown"
	}
}

// ParseOptionSide parses a string into an OptionSide.
func ParseOptionSide(s string) (OptionSide, error) {
	switch s {
	case "long":
		return Long, nil
	case "short":
		return Short, nil
	default:
		return 0, fmt.Errorf("unknown option side: %q", s)
	}
}

// Metric is an optional per-contract market statistic such as a greek or an
// implied volatility. The broker omits them outside market hours.
type Metric float64

// NA is the missing Metric.
func NA() Metric { return Metric(math.NaN()) }

// ParseMetric parses a market statistic, mapping absent or unparsable values
// to NA.
func ParseMetric(s string) Metric {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NA()
	}
	return Metric(v)
}

func (m Metric) IsNA() bool { return math.IsNaN(float64(m)) }

func (m Metric) String() string {
	if m.IsNA() {
		return "N/A"
	}
	return strconv.FormatFloat(float64(m), 'f', 4, 64)
}

// StockPosition is an open stock holding in one account.
type StockPosition struct {
	Account   Account
	Symbol    string
	Name      string // instrument's full name
	Shares    Quantity
	AvgCost   Money // average buy price per share
	Price     Money // last trade price per share
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MarketValue is the current worth of the holding.
func (p StockPosition) MarketValue() Money { return p.Price.Mul(p.Shares) }

// OptionPosition is an open option holding in one account. Contracts is
// always positive, Side tells the direction.
type OptionPosition struct {
	Account    Account
	Symbol     string // underlying ticker
	Strike     Money
	Expiration Date
	Type       OptionType
	Side       OptionSide
	Contracts  Quantity
	AvgPrice   Money // premium per share at open
	Mark       Money // adjusted mark price per share

	// Optional market statistics.
	IV           Metric
	Delta        Metric
	Theta        Metric
	Gamma        Metric
	Vega         Metric
	OpenInterest int64 // -1 when unknown

	// Strategy is filled in by Classify.
	Strategy Strategy
}

// Shares is the number of underlying shares the position controls.
func (p OptionPosition) Shares() Quantity { return p.Contracts.Mul(Q(100)) }

// MarketValue is the unsigned current worth of the position.
func (p OptionPosition) MarketValue() Money { return p.Mark.Mul(p.Shares()) }

// SignedValue is the market value counted negatively for short positions,
// ready to sum into account equity.
func (p OptionPosition) SignedValue() Money {
	if p.Side == Short {
		return p.MarketValue().Neg()
	}
	return p.MarketValue()
}
