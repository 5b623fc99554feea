package rhfolio

import (
	"slices"
	"strings"
)

// lot represents a single purchase of a security, used for cost basis
// calculations.
type lot struct {
	Date     Date
	Quantity Quantity
	Cost     Money // total cost of the lot, fees included
}

type lots []lot

// match consumes up to quantity shares using FIFO. It returns the cost of
// the matched shares, the quantity actually matched, and the remaining lots.
// The matched quantity falls short of the requested one when the lots run
// out.
func (l lots) match(quantity Quantity) (cost Money, matched Quantity, remaining lots) {
	toSell := quantity
	for _, currentLot := range l {
		if toSell.IsZero() {
			remaining = append(remaining, currentLot)
			continue
		}
		if currentLot.Quantity.GreaterThan(toSell) {
			// Partial sale from this lot
			costOfSoldPortion := currentLot.Cost.Mul(toSell).Div(currentLot.Quantity)
			cost = cost.Add(costOfSoldPortion)
			matched = matched.Add(toSell)
			remaining = append(remaining, lot{
				Date:     currentLot.Date,
				Quantity: currentLot.Quantity.Sub(toSell),
				Cost:     currentLot.Cost.Sub(costOfSoldPortion),
			})
			toSell = Q(0)
		} else {
			// Full sale of this lot
			cost = cost.Add(currentLot.Cost)
			matched = matched.Add(currentLot.Quantity)
			toSell = toSell.Sub(currentLot.Quantity)
		}
	}
	return cost, matched, remaining
}

// RealizedGain is the closed round-trip outcome for one symbol in one
// account over a window.
type RealizedGain struct {
	Account  Account
	Symbol   string
	Class    AssetClass
	Quantity Quantity // shares matched against prior buys
	Proceeds Money    // sale value of the matched shares
	Cost     Money    // FIFO cost of the matched shares, buy fees included
	Fees     Money    // sell side fees on the matched shares
}

// Gain is what the round trips netted.
func (g RealizedGain) Gain() Money { return g.Proceeds.Sub(g.Cost).Sub(g.Fees) }

// GainsReport sums the realized gains of a trailing window.
type GainsReport struct {
	Window         Range
	Gains          []RealizedGain // sorted by gain, best first
	Total          Money
	UnmatchedSells int // sells that could not be fully matched to prior buys
}

type tradeKey struct {
	account Account
	symbol  string
	class   AssetClass
}

// ComputeRealizedGains matches the window's filled sells against prior buys
// of the same symbol and account using FIFO lots, and sums what the closed
// round trips netted. Option trades are out of scope, their premium flow is
// reported weekly instead. A sell whose shares cannot all be matched inside
// the window counts as unmatched, only its matched part contributes to the
// totals.
func ComputeRealizedGains(trades []Trade, window Range) *GainsReport {
	report := &GainsReport{Window: window, Total: USD(0)}

	inWindow := make([]Trade, 0, len(trades))
	for _, t := range trades {
		if t.Class == Option || !strings.EqualFold(t.State, "filled") {
			continue
		}
		if !window.Contains(t.Date()) {
			continue
		}
		inWindow = append(inWindow, t)
	}
	slices.SortStableFunc(inWindow, func(a, b Trade) int {
		return a.ExecutedAt.Compare(b.ExecutedAt)
	})

	open := make(map[tradeKey]lots)
	closed := make(map[tradeKey]*RealizedGain)
	var order []tradeKey

	for _, t := range inWindow {
		k := tradeKey{t.Account, t.Symbol, t.Class}
		switch t.Side {
		case Buy:
			open[k] = append(open[k], lot{
				Date:     t.Date(),
				Quantity: t.Quantity,
				Cost:     t.Value.Add(t.Fees),
			})
		case Sell:
			cost, matched, remaining := open[k].match(t.Quantity)
			open[k] = remaining
			if matched.LessThan(t.Quantity) {
				report.UnmatchedSells++
			}
			if matched.IsZero() {
				continue
			}
			g, ok := closed[k]
			if !ok {
				g = &RealizedGain{Account: t.Account, Symbol: t.Symbol, Class: t.Class}
				closed[k] = g
				order = append(order, k)
			}
			g.Quantity = g.Quantity.Add(matched)
			g.Proceeds = g.Proceeds.Add(t.Price.Mul(matched))
			g.Cost = g.Cost.Add(cost)
			// fees follow the matched share of the sale
			g.Fees = g.Fees.Add(t.Fees.Mul(matched).Div(t.Quantity))
		}
	}

	for _, k := range order {
		report.Gains = append(report.Gains, *closed[k])
		report.Total = report.Total.Add(closed[k].Gain())
	}
	slices.SortStableFunc(report.Gains, func(a, b RealizedGain) int {
		switch {
		case b.Gain().LessThan(a.Gain()):
			return -1
		case a.Gain().LessThan(b.Gain()):
			return 1
		}
		if c := strings.Compare(a.Symbol, b.Symbol); c != 0 {
			return c
		}
		return strings.Compare(a.Account.Name, b.Account.Name)
	})
	return report
}

// Snapshot is everything one run fetched and derived, ready for reporting.
type Snapshot struct {
	Taken    Date
	Accounts []Balance // in configuration order, crypto last when present
	Stocks   []StockPosition
	Options  []OptionPosition // already classified
	Orders   []OptionOrder
	Trades   []Trade
	Dropped  int // malformed records dropped while normalizing
}

// TotalMarketValue sums every stock and option position at its unsigned
// market value. It is the denominator of all allocation percentages, so that
// they add up to 100 across the whole portfolio.
func (s *Snapshot) TotalMarketValue() Money {
	total := USD(0)
	for _, p := range s.Stocks {
		total = total.Add(p.MarketValue())
	}
	for _, p := range s.Options {
		total = total.Add(p.MarketValue())
	}
	return total
}

// TotalEquity sums the broker reported equity of every account.
func (s *Snapshot) TotalEquity() Money {
	total := USD(0)
	for _, b := range s.Accounts {
		total = total.Add(b.Equity)
	}
	return total
}

// AccountSummary collects the aggregated figures of one account.
type AccountSummary struct {
	Balance     Balance
	StockValue  Money // market value of the account's stock positions
	OptionValue Money // market value of the account's options, short ones negative
	Equity      Money // cash plus stock value plus signed option value
}

// Summaries computes one summary per account, in account order. The equity
// is recomputed from cash and position values, except for the crypto pseudo
// account whose positions are not fetched, it keeps the broker's figure.
func (s *Snapshot) Summaries() []AccountSummary {
	out := make([]AccountSummary, 0, len(s.Accounts))
	for _, b := range s.Accounts {
		sum := AccountSummary{Balance: b, StockValue: USD(0), OptionValue: USD(0)}
		for _, p := range s.Stocks {
			if p.Account == b.Account {
				sum.StockValue = sum.StockValue.Add(p.MarketValue())
			}
		}
		for _, p := range s.Options {
			if p.Account == b.Account {
				sum.OptionValue = sum.OptionValue.Add(p.SignedValue())
			}
		}
		if b.Account.Type == CryptoAccount {
			sum.Equity = b.Equity
		} else {
			sum.Equity = b.Cash.Add(sum.StockValue).Add(sum.OptionValue)
		}
		out = append(out, sum)
	}
	return out
}
