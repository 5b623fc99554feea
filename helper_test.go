package rhfolio

import "time"

var (
	acctMain = Account{Name: "Main", Number: "5AB12345", Type: Standard}
	acctIRA  = Account{Name: "IRA", Number: "519000001", Type: IRA}
)

// stockPos is a helper for tests to build a stock position from consts.
func stockPos(a Account, symbol string, shares int, price float64) StockPosition {
	return StockPosition{
		Account: a,
		Symbol:  symbol,
		Name:    symbol + " Inc",
		Shares:  Q(shares),
		AvgCost: USD(price),
		Price:   USD(price),
	}
}

// optionPos is a helper for tests to build an option position from consts.
func optionPos(a Account, symbol string, typ OptionType, side OptionSide, strike float64, exp string, contracts int) OptionPosition {
	return OptionPosition{
		Account:      a,
		Symbol:       symbol,
		Strike:       USD(strike),
		Expiration:   MustParse(exp),
		Type:         typ,
		Side:         side,
		Contracts:    Q(contracts),
		AvgPrice:     USD(1),
		Mark:         USD(1),
		IV:           NA(),
		Delta:        NA(),
		Theta:        NA(),
		Gamma:        NA(),
		Vega:         NA(),
		OpenInterest: -1,
	}
}

// cashBalance is a helper for tests to build a balance holding only cash.
func cashBalance(a Account, cash float64) Balance {
	return Balance{
		Account:        a,
		Equity:         USD(cash),
		Cash:           USD(cash),
		Collateral:     USD(0),
		UnsettledFunds: USD(0),
	}
}

// tradeAt is a helper for tests to build a filled stock trade from consts.
func tradeAt(a Account, symbol string, side TradeSide, qty, price, fees float64, at string) Trade {
	ts, err := time.Parse(time.RFC3339, at)
	if err != nil {
		panic(err)
	}
	return Trade{
		Account:    a,
		Class:      Stock,
		Symbol:     symbol,
		Side:       side,
		Quantity:   Q(qty),
		Price:      USD(price),
		Value:      USD(price * qty),
		Fees:       USD(fees),
		State:      "filled",
		ExecutedAt: ts,
	}
}

// optOrder is a helper for tests to build a filled option order. The order
// quantity is the summed leg quantities, or 1 when there are no legs.
func optOrder(a Account, symbol string, side TradeSide, premium float64, at string, legs ...OptionLeg) OptionOrder {
	ts, err := time.Parse(time.RFC3339, at)
	if err != nil {
		panic(err)
	}
	qty := Q(0)
	for _, l := range legs {
		qty = qty.Add(l.Quantity)
	}
	if qty.IsZero() {
		qty = Q(1)
	}
	return OptionOrder{
		Account:   a,
		Symbol:    symbol,
		Side:      side,
		Premium:   USD(premium),
		Quantity:  qty,
		Legs:      legs,
		State:     "filled",
		CreatedAt: ts,
	}
}

// leg is a helper for tests to build an option order leg.
func leg(typ OptionType, strike float64, exp string, side TradeSide, qty float64) OptionLeg {
	return OptionLeg{
		Type:       typ,
		Strike:     USD(strike),
		Expiration: MustParse(exp),
		Side:       side,
		Quantity:   Q(qty),
	}
}
