package rhfolio

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// OptionLeg is one leg of an option order.
type OptionLeg struct {
	Type       OptionType
	Strike     Money
	Expiration Date
	Side       TradeSide
	Quantity   Quantity
}

// OptionOrder is one option order, possibly multi-leg, in one account.
type OptionOrder struct {
	Account   Account
	Symbol    string    // underlying ticker
	Side      TradeSide // from the order direction, debit buys and credit sells
	Premium   Money     // net premium, the processed amount when available
	Quantity  Quantity  // summed leg quantities, or the order quantity
	Legs      []OptionLeg
	State     string // broker order state, e.g. "filled"
	CreatedAt time.Time
}

// Filled reports whether the order was executed.
func (o OptionOrder) Filled() bool { return strings.EqualFold(o.State, "filled") }

// Cancelled reports whether the order was cancelled.
func (o OptionOrder) Cancelled() bool { return strings.EqualFold(o.State, "cancelled") }

// DirectionLabel is the order direction the way the broker displays it.
func (o OptionOrder) DirectionLabel() string {
	if o.Side == Buy {
		return "Buy (Debit)"
	}
	return "Sell (Credit)"
}

// legTypes returns the distinct leg contract types, uppercased and sorted.
func (o OptionOrder) legTypes() []string {
	var types []string
	for _, leg := range o.Legs {
		t := strings.ToUpper(leg.Type.String())
		if !slices.Contains(types, t) {
			types = append(types, t)
		}
	}
	slices.Sort(types)
	return types
}

// legStrikes returns the distinct positive leg strikes, sorted ascending.
func (o OptionOrder) legStrikes() []Money {
	var strikes []Money
	for _, leg := range o.Legs {
		if !leg.Strike.IsPositive() {
			continue
		}
		dup := slices.ContainsFunc(strikes, leg.Strike.Equal)
		if !dup {
			strikes = append(strikes, leg.Strike)
		}
	}
	slices.SortFunc(strikes, func(a, b Money) int {
		switch {
		case a.LessThan(b):
			return -1
		case b.LessThan(a):
			return 1
		default:
			return 0
		}
	})
	return strikes
}

// TypesLabel joins the distinct leg contract types, e.g. "CALL/PUT".
func (o OptionOrder) TypesLabel() string {
	types := o.legTypes()
	if len(types) == 0 {
		return "Unknown"
	}
	return strings.Join(types, "/")
}

// StrikesLabel joins the distinct leg strikes ascending, e.g. "$95.00/$105.00".
func (o OptionOrder) StrikesLabel() string {
	strikes := o.legStrikes()
	if len(strikes) == 0 {
		return "N/A"
	}
	parts := make([]string, 0, len(strikes))
	for _, s := range strikes {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, "/")
}

// ExpirationsLabel joins the distinct leg expirations ascending.
func (o OptionOrder) ExpirationsLabel() string {
	var exps []string
	for _, leg := range o.Legs {
		if leg.Expiration.IsZero() {
			continue
		}
		e := leg.Expiration.String()
		if !slices.Contains(exps, e) {
			exps = append(exps, e)
		}
	}
	if len(exps) == 0 {
		return "N/A"
	}
	slices.Sort(exps)
	return strings.Join(exps, "/")
}

// StrategyName labels the order from its leg shape. Single legs name their
// contract type, two-leg orders distinguish verticals, straddles and
// strangles, anything larger is named by leg count.
func (o OptionOrder) StrategyName() string {
	if len(o.Legs) == 0 {
		return "Unknown"
	}
	types := o.legTypes()
	strikes := o.legStrikes()
	switch len(o.Legs) {
	case 1:
		if len(types) == 0 {
			return "Single Option"
		}
		return "Single " + types[0]
	case 2:
		switch {
		case len(types) == 1 && len(strikes) == 2:
			return types[0] + " Vertical"
		case len(types) == 2 && len(strikes) == 1:
			return "Straddle"
		case len(types) == 2 && len(strikes) == 2:
			return "Strangle"
		default:
			return "2-Leg Strategy"
		}
	default:
		return fmt.Sprintf("%d-Leg Strategy", len(o.Legs))
	}
}

// Trade converts the order into its trade record. The per-unit price spreads
// the net premium over the contract quantity.
func (o OptionOrder) Trade() Trade {
	price := o.Premium
	if o.Quantity.IsPositive() {
		price = o.Premium.Div(o.Quantity)
	}
	return Trade{
		Account:    o.Account,
		Class:      Option,
		Symbol:     o.Symbol,
		Side:       o.Side,
		Quantity:   o.Quantity,
		Price:      price,
		Value:      o.Premium,
		Fees:       USD(0),
		State:      o.State,
		ExecutedAt: o.CreatedAt,
	}
}

// WeeklyPremium is the option premium cash flow of one account over one week.
type WeeklyPremium struct {
	Week       Date  // the Monday the week starts on
	Sold       Money // premium collected on credit orders
	BoughtBack Money // premium paid on debit orders
	Count      int   // filled orders that week
}

// Net is the premium kept after buybacks.
func (w WeeklyPremium) Net() Money { return w.Sold.Sub(w.BoughtBack) }

// WeeklyPremiums buckets the account's filled orders into per-week premium
// totals. It returns exactly weeks rows, most recent week first, zero filled
// for weeks without orders. Weeks start on Monday of the order's execution
// day in UTC.
func WeeklyPremiums(orders []OptionOrder, account Account, today Date, weeks int) []WeeklyPremium {
	out := make([]WeeklyPremium, weeks)
	index := make(map[Date]int, weeks)
	monday := today.StartOfWeek()
	for i := range out {
		week := monday.Add(-7 * i)
		out[i] = WeeklyPremium{Week: week, Sold: USD(0), BoughtBack: USD(0)}
		index[week] = i
	}

	for _, o := range orders {
		if o.Account != account || !o.Filled() || !o.Premium.IsPositive() {
			continue
		}
		week := DateOf(o.CreatedAt.UTC()).StartOfWeek()
		i, ok := index[week]
		if !ok {
			continue
		}
		out[i].Count++
		if o.Side == Sell {
			out[i].Sold = out[i].Sold.Add(o.Premium)
		} else {
			out[i].BoughtBack = out[i].BoughtBack.Add(o.Premium)
		}
	}
	return out
}
