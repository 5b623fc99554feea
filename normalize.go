package rhfolio

import (
	"fmt"
	"strconv"
	"time"

	"github.com/PaesslerAG/jsonpath"
)

// MalformedRecordError reports a raw broker record that could not be turned
// into a typed one. Such records are dropped and counted, never fatal.
type MalformedRecordError struct {
	Kind string // e.g. "stock position"
	Err  error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s record: %v", e.Kind, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

func malformed(kind string, err error) error {
	return &MalformedRecordError{Kind: kind, Err: err}
}

// jsonValue evaluates a jsonpath on a decoded payload.
func jsonValue(obj any, path string) (any, error) {
	jval, err := jsonpath.Get(path, obj)
	if err != nil {
		return nil, fmt.Errorf("missing %q: %w", path, err)
	}
	// because jsonpath is never clear about whether it returns a list of 1
	// answer, or a single answer: by this call I keep the first one if any
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return nil, fmt.Errorf("missing %q: empty list", path)
		}
		jval = jlist[0]
	}
	return jval, nil
}

func jsonString(obj any, path string) (string, error) {
	jval, err := jsonValue(obj, path)
	if err != nil {
		return "", err
	}
	s, ok := jval.(string)
	if !ok {
		return "", fmt.Errorf("value at %q is not a string: %v", path, jval)
	}
	return s, nil
}

// jsonStringOr reads an optional string, empty or absent values fall back.
func jsonStringOr(obj any, path, fallback string) string {
	s, err := jsonString(obj, path)
	if err != nil || s == "" {
		return fallback
	}
	return s
}

// jsonMoney reads an amount that the broker serves either as a stringified
// decimal or as a plain number.
func jsonMoney(obj any, path string) (Money, error) {
	jval, err := jsonValue(obj, path)
	if err != nil {
		return Money{}, err
	}
	switch v := jval.(type) {
	case string:
		m, err := ParseMoney(v, "USD")
		if err != nil {
			return Money{}, fmt.Errorf("value at %q: %w", path, err)
		}
		return m, nil
	case float64:
		return USD(v), nil
	default:
		return Money{}, fmt.Errorf("value at %q is not an amount: %v", path, jval)
	}
}

// jsonMoneyOr reads an optional amount, anything absent or unreadable falls
// back.
func jsonMoneyOr(obj any, path string, fallback Money) Money {
	m, err := jsonMoney(obj, path)
	if err != nil {
		return fallback
	}
	return m
}

func jsonQuantity(obj any, path string) (Quantity, error) {
	jval, err := jsonValue(obj, path)
	if err != nil {
		return Quantity{}, err
	}
	switch v := jval.(type) {
	case string:
		q, err := ParseQuantity(v)
		if err != nil {
			return Quantity{}, fmt.Errorf("value at %q: %w", path, err)
		}
		return q, nil
	case float64:
		return Q(v), nil
	default:
		return Quantity{}, fmt.Errorf("value at %q is not a quantity: %v", path, jval)
	}
}

func jsonQuantityOr(obj any, path string, fallback Quantity) Quantity {
	q, err := jsonQuantity(obj, path)
	if err != nil {
		return fallback
	}
	return q
}

func jsonTime(obj any, path string) (time.Time, error) {
	s, err := jsonString(obj, path)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("value at %q: %w", path, err)
	}
	return t, nil
}

func jsonDate(obj any, path string) (Date, error) {
	s, err := jsonString(obj, path)
	if err != nil {
		return Date{}, err
	}
	d, err := ParseDate(s)
	if err != nil {
		return Date{}, fmt.Errorf("value at %q: %w", path, err)
	}
	return d, nil
}

// jsonMetric reads an optional market statistic, absent or unreadable values
// become NA.
func jsonMetric(obj any, path string) Metric {
	jval, err := jsonValue(obj, path)
	if err != nil {
		return NA()
	}
	switch v := jval.(type) {
	case string:
		return ParseMetric(v)
	case float64:
		return Metric(v)
	default:
		return NA()
	}
}

// jsonCount reads an optional integer, absent or unreadable values become -1.
func jsonCount(obj any, path string) int64 {
	jval, err := jsonValue(obj, path)
	if err != nil {
		return -1
	}
	switch v := jval.(type) {
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return -1
		}
		return n
	case float64:
		return int64(v)
	default:
		return -1
	}
}

// NormalizeBalance builds an account's Balance from its portfolio and account
// profile payloads.
func NormalizeBalance(account Account, portfolio, profile map[string]any) (Balance, error) {
	equity, err := jsonMoney(portfolio, "$.equity")
	if err != nil {
		return Balance{}, malformed("balance", err)
	}
	return Balance{
		Account:        account,
		Equity:         equity,
		Cash:           jsonMoneyOr(profile, "$.cash", USD(0)),
		Collateral:     jsonMoneyOr(profile, "$.cash_held_for_options_collateral", USD(0)),
		UnsettledFunds: jsonMoneyOr(profile, "$.unsettled_funds", USD(0)),
	}, nil
}

// NormalizeCryptoBalance builds the crypto pseudo account's Balance from the
// unified phoenix payload. It reports false when the account holds nothing.
func NormalizeCryptoBalance(phoenix map[string]any) (Balance, bool) {
	// the crypto equity comes as {"amount": "12.34"} or as a bare number
	equity := jsonMoneyOr(phoenix, "$.crypto.equity.amount", Money{})
	if equity.IsZero() {
		equity = jsonMoneyOr(phoenix, "$.crypto.equity", Money{})
	}
	if !equity.IsPositive() {
		return Balance{}, false
	}
	return Balance{
		Account:        Account{Name: "Crypto", Type: CryptoAccount},
		Equity:         equity,
		Cash:           USD(0),
		Collateral:     USD(0),
		UnsettledFunds: USD(0),
	}, true
}

// NormalizeStockPositions turns raw stock position records into typed ones.
// Records missing a symbol, a quantity or a price are dropped, and returned
// as errors for the caller to count and log.
func NormalizeStockPositions(account Account, recs []map[string]any) ([]StockPosition, []error) {
	var out []StockPosition
	var dropped []error
	for _, rec := range recs {
		p, err := normalizeStockPosition(account, rec)
		if err != nil {
			dropped = append(dropped, err)
			continue
		}
		out = append(out, p)
	}
	return out, dropped
}

func normalizeStockPosition(account Account, rec map[string]any) (StockPosition, error) {
	const kind = "stock position"
	symbol, err := jsonString(rec, "$.instrument.symbol")
	if err != nil {
		return StockPosition{}, malformed(kind, err)
	}
	shares, err := jsonQuantity(rec, "$.quantity")
	if err != nil {
		return StockPosition{}, malformed(kind, err)
	}
	price, err := jsonMoney(rec, "$.latest_price")
	if err != nil {
		return StockPosition{}, malformed(kind, err)
	}
	name := jsonStringOr(rec, "$.instrument.simple_name", "")
	if name == "" {
		name = jsonStringOr(rec, "$.instrument.name", "N/A")
	}
	created, _ := jsonTime(rec, "$.created_at")
	updated, _ := jsonTime(rec, "$.updated_at")
	return StockPosition{
		Account:   account,
		Symbol:    symbol,
		Name:      name,
		Shares:    shares,
		AvgCost:   jsonMoneyOr(rec, "$.average_buy_price", USD(0)),
		Price:     price,
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

// NormalizeOptionPositions turns raw option position records into typed ones.
// The instrument fields and the position direction are required, market
// statistics are optional and default to their missing values.
func NormalizeOptionPositions(account Account, recs []map[string]any) ([]OptionPosition, []error) {
	var out []OptionPosition
	var dropped []error
	for _, rec := range recs {
		p, err := normalizeOptionPosition(account, rec)
		if err != nil {
			dropped = append(dropped, err)
			continue
		}
		out = append(out, p)
	}
	return out, dropped
}

func normalizeOptionPosition(account Account, rec map[string]any) (OptionPosition, error) {
	const kind = "option position"
	symbol, err := jsonString(rec, "$.instrument.chain_symbol")
	if err != nil {
		return OptionPosition{}, malformed(kind, err)
	}
	strike, err := jsonMoney(rec, "$.instrument.strike_price")
	if err != nil {
		return OptionPosition{}, malformed(kind, err)
	}
	expiration, err := jsonDate(rec, "$.instrument.expiration_date")
	if err != nil {
		return OptionPosition{}, malformed(kind, err)
	}
	typeStr, err := jsonString(rec, "$.instrument.type")
	if err != nil {
		return OptionPosition{}, malformed(kind, err)
	}
	otype, err := ParseOptionType(typeStr)
	if err != nil {
		return OptionPosition{}, malformed(kind, err)
	}
	sideStr, err := jsonString(rec, "$.type")
	if err != nil {
		return OptionPosition{}, malformed(kind, err)
	}
	side, err := ParseOptionSide(sideStr)
	if err != nil {
		return OptionPosition{}, malformed(kind, err)
	}
	contracts, err := jsonQuantity(rec, "$.quantity")
	if err != nil {
		return OptionPosition{}, malformed(kind, err)
	}
	return OptionPosition{
		Account:    account,
		Symbol:     symbol,
		Strike:     strike,
		Expiration: expiration,
		Type:       otype,
		Side:       side,
		Contracts:  contracts,
		AvgPrice:   jsonMoneyOr(rec, "$.average_price", USD(0)),
		// the mark is missing outside market hours, value the position at
		// zero rather than dropping it
		Mark:         jsonMoneyOr(rec, "$.market_data.adjusted_mark_price", USD(0)),
		IV:           jsonMetric(rec, "$.market_data.implied_volatility"),
		Delta:        jsonMetric(rec, "$.market_data.delta"),
		Theta:        jsonMetric(rec, "$.market_data.theta"),
		Gamma:        jsonMetric(rec, "$.market_data.gamma"),
		Vega:         jsonMetric(rec, "$.market_data.vega"),
		OpenInterest: jsonCount(rec, "$.market_data.open_interest"),
	}, nil
}

// NormalizeOptionOrders turns raw option order records into typed ones, legs
// included. All order states are kept, filtering is the consumer's business.
func NormalizeOptionOrders(account Account, recs []map[string]any) ([]OptionOrder, []error) {
	var out []OptionOrder
	var dropped []error
	for _, rec := range recs {
		o, err := normalizeOptionOrder(account, rec)
		if err != nil {
			dropped = append(dropped, err)
			continue
		}
		out = append(out, o)
	}
	return out, dropped
}

func normalizeOptionOrder(account Account, rec map[string]any) (OptionOrder, error) {
	const kind = "option order"
	state, err := jsonString(rec, "$.state")
	if err != nil {
		return OptionOrder{}, malformed(kind, err)
	}
	directionStr, err := jsonString(rec, "$.direction")
	if err != nil {
		return OptionOrder{}, malformed(kind, err)
	}
	side, err := ParseTradeSide(directionStr)
	if err != nil {
		return OptionOrder{}, malformed(kind, err)
	}
	created, err := jsonTime(rec, "$.created_at")
	if err != nil {
		return OptionOrder{}, malformed(kind, err)
	}

	premium := jsonMoneyOr(rec, "$.processed_premium", Money{})
	if premium.IsZero() {
		premium = jsonMoneyOr(rec, "$.premium", USD(0))
	}

	var legs []OptionLeg
	quantity := Q(0)
	if jlegs, ok := rec["legs"].([]any); ok {
		for _, jleg := range jlegs {
			leg, ok := jleg.(map[string]any)
			if !ok {
				continue
			}
			typeStr, err := jsonString(leg, "$.option_type")
			if err != nil {
				return OptionOrder{}, malformed(kind, err)
			}
			ltype, err := ParseOptionType(typeStr)
			if err != nil {
				return OptionOrder{}, malformed(kind, err)
			}
			lside := side
			if s, err := jsonString(leg, "$.side"); err == nil {
				if parsed, err := ParseTradeSide(s); err == nil {
					lside = parsed
				}
			}
			lqty := jsonQuantityOr(leg, "$.quantity", Q(0))
			if lqty.IsPositive() {
				quantity = quantity.Add(lqty)
			}
			exp, _ := jsonDate(leg, "$.expiration_date")
			legs = append(legs, OptionLeg{
				Type:       ltype,
				Strike:     jsonMoneyOr(leg, "$.strike_price", USD(0)),
				Expiration: exp,
				Side:       lside,
				Quantity:   lqty,
			})
		}
	}
	if quantity.IsZero() {
		quantity = jsonQuantityOr(rec, "$.quantity", Q(0))
	}

	return OptionOrder{
		Account:   account,
		Symbol:    jsonStringOr(rec, "$.chain_symbol", "Unknown"),
		Side:      side,
		Premium:   premium,
		Quantity:  quantity,
		Legs:      legs,
		State:     state,
		CreatedAt: created,
	}, nil
}

// NormalizeStockTrades turns raw stock order records into trades.
func NormalizeStockTrades(account Account, recs []map[string]any) ([]Trade, []error) {
	return normalizeSimpleTrades(account, Stock, recs)
}

// NormalizeCryptoTrades turns raw crypto order records into trades. Crypto
// orders live outside the brokerage accounts, the caller picks the account
// they are reported under.
func NormalizeCryptoTrades(account Account, recs []map[string]any) ([]Trade, []error) {
	return normalizeSimpleTrades(account, Crypto, recs)
}

func normalizeSimpleTrades(account Account, class AssetClass, recs []map[string]any) ([]Trade, []error) {
	kind := "stock trade"
	if class == Crypto {
		kind = "crypto trade"
	}
	var out []Trade
	var dropped []error
	for _, rec := range recs {
		t, err := normalizeSimpleTrade(account, class, kind, rec)
		if err != nil {
			dropped = append(dropped, err)
			continue
		}
		out = append(out, t)
	}
	return out, dropped
}

func normalizeSimpleTrade(account Account, class AssetClass, kind string, rec map[string]any) (Trade, error) {
	state, err := jsonString(rec, "$.state")
	if err != nil {
		return Trade{}, malformed(kind, err)
	}
	sideStr, err := jsonString(rec, "$.side")
	if err != nil {
		return Trade{}, malformed(kind, err)
	}
	side, err := ParseTradeSide(sideStr)
	if err != nil {
		return Trade{}, malformed(kind, err)
	}
	created, err := jsonTime(rec, "$.created_at")
	if err != nil {
		return Trade{}, malformed(kind, err)
	}
	quantity, err := jsonQuantity(rec, "$.quantity")
	if err != nil {
		return Trade{}, malformed(kind, err)
	}

	price := jsonMoneyOr(rec, "$.average_price", Money{})
	if price.IsZero() {
		price = jsonMoneyOr(rec, "$.price", USD(0))
	}

	return Trade{
		Account:    account,
		Class:      class,
		Symbol:     jsonStringOr(rec, "$.symbol", "Unknown"),
		Side:       side,
		Quantity:   quantity,
		Price:      price,
		Value:      price.Mul(quantity),
		Fees:       jsonMoneyOr(rec, "$.fees", USD(0)),
		State:      state,
		ExecutedAt: created,
	}, nil
}
