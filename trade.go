package rhfolio

import (
	"fmt"
	"time"
)

// AssetClass is the kind of instrument a trade moved.
type AssetClass int

const (
	Stock AssetClass = iota
	Option
	Crypto
)

func (c AssetClass) String() string {
	switch c {
	case Stock:
		return "Stock"
	case Option:
		return "Option"
	case Crypto:
		return "Crypto"
	default:
		return "Unknown"
	}
}

// TradeSide is the direction of a trade.
type TradeSide int

const (
	Buy TradeSide = iota
	Sell
)

func (s TradeSide) String() string {
	switch s {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	default:
		return "Unknown"
	}
}

// ParseTradeSide parses a broker side or direction string. Option orders
// carry "debit" and "credit" instead of "buy" and "sell".
func ParseTradeSide(s string) (TradeSide, error) {
	switch s {
	case "buy", "debit":
		return Buy, nil
	case "sell", "credit":
		return Sell, nil
	default:
		return 0, fmt.Errorf("unknown trade side: %q", s)
	}
}

// Trade is one filled order, of any asset class, in one account.
type Trade struct {
	Account    Account
	Class      AssetClass
	Symbol     string
	Side       TradeSide
	Quantity   Quantity
	Price      Money // per share or unit, per-share premium for options
	Value      Money // total traded value, net premium for options
	Fees       Money
	State      string // broker order state, e.g. "filled"
	ExecutedAt time.Time
}

// Date is the execution day of the trade.
func (t Trade) Date() Date { return DateOf(t.ExecutedAt.UTC()) }

// SideLabel is the side the way the broker displays it, option trades show
// the cash flow direction instead of the side.
func (t Trade) SideLabel() string {
	if t.Class != Option {
		return t.Side.String()
	}
	if t.Side == Buy {
		return "Debit"
	}
	return "Credit"
}
