package robinhood

import (
	"fmt"
	"net/url"
)

// This file contains one fetcher per endpoint a snapshot needs. Fetchers
// return raw records, enriched in place where an endpoint only references
// other records by URL or id.

// FetchAccounts returns one raw record per brokerage account.
//
//	https://api.robinhood.com/accounts/?default_to_all_accounts=true
//	{"results": [
//	  {"account_number": "5AB12345",
//	   "cash": "2000.00",
//	   "cash_held_for_options_collateral": "500.00",
//	   "unsettled_funds": "100.00", ...}, ...]}
func (c *Client) FetchAccounts() ([]map[string]any, error) {
	return c.getPaged(c.api+"/accounts/", url.Values{"default_to_all_accounts": {"true"}})
}

// FetchPortfolio returns the raw portfolio record of one account, the only
// per account source of total equity.
//
//	https://api.robinhood.com/portfolios/5AB12345/
//	{"equity": "15000.00", "market_value": "13000.00", ...}
func (c *Client) FetchPortfolio(accountNumber string) (map[string]any, error) {
	payload := map[string]any{}
	if err := c.get(c.api+"/portfolios/"+accountNumber+"/", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchUnifiedAccount returns the aggregate (phoenix) account record. Crypto
// holdings are reported nowhere else.
//
//	https://phoenix.robinhood.com/accounts/unified
//	{"total_equity": {"amount": "20333.00", ...},
//	 "crypto": {"equity": {"amount": "333.00", ...}}, ...}
func (c *Client) FetchUnifiedAccount() (map[string]any, error) {
	payload := map[string]any{}
	if err := c.get(c.phoenix+"/accounts/unified", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchStockPositions returns the open stock positions of one account. The
// instrument URL of each record is replaced by the resolved instrument, and
// the latest quote is injected as latest_price. Records that fail to resolve
// are kept raw, the normalizer counts them out.
func (c *Client) FetchStockPositions(accountNumber string) ([]map[string]any, error) {
	recs, err := c.getPaged(c.api+"/positions/", url.Values{
		"nonzero":        {"true"},
		"account_number": {accountNumber},
	})
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		addr, _ := rec["instrument"].(string)
		instrument, err := c.instrument(addr)
		if err != nil {
			c.Log.Warn().Err(err).Str("instrument", addr).Msg("unresolved instrument")
			continue
		}
		rec["instrument"] = instrument
		symbol, _ := instrument["symbol"].(string)
		price, err := c.latestPrice(symbol)
		if err != nil {
			c.Log.Warn().Err(err).Str("symbol", symbol).Msg("no quote")
			continue
		}
		rec["latest_price"] = price
	}
	return recs, nil
}

// instrument resolves an instrument URL, memoized for the run. Positions and
// orders reference instruments by URL only.
func (c *Client) instrument(addr string) (map[string]any, error) {
	if addr == "" {
		return nil, fmt.Errorf("record has no instrument URL")
	}
	if cached, ok := c.instruments[addr]; ok {
		return cached, nil
	}
	c.Pacer.Pause(c.InstrumentPause)
	payload := map[string]any{}
	if err := c.get(addr, nil, &payload); err != nil {
		return nil, err
	}
	c.instruments[addr] = payload
	return payload, nil
}

// latestPrice returns the display price for a symbol, the extended hours
// trade outside market hours, the last trade otherwise. Memoized for the
// run.
func (c *Client) latestPrice(symbol string) (string, error) {
	if symbol == "" {
		return "", fmt.Errorf("instrument has no symbol")
	}
	if cached, ok := c.quotes[symbol]; ok {
		return cached, nil
	}
	c.Pacer.Pause(c.InstrumentPause)
	var payload struct {
		LastTradePrice              string `json:"last_trade_price"`
		LastExtendedHoursTradePrice string `json:"last_extended_hours_trade_price"`
	}
	if err := c.get(c.api+"/quotes/"+symbol+"/", nil, &payload); err != nil {
		return "", err
	}
	price := payload.LastExtendedHoursTradePrice
	if price == "" {
		price = payload.LastTradePrice
	}
	if price == "" {
		return "", fmt.Errorf("quote for %s carries no price", symbol)
	}
	c.quotes[symbol] = price
	return price, nil
}

// FetchOptionPositions returns the open option positions of one account,
// each merged with its option instrument (strike, expiration, contract type)
// and market data (mark, greeks, open interest).
func (c *Client) FetchOptionPositions(accountNumber string) ([]map[string]any, error) {
	// nonzero is capitalized here, the endpoint really is that picky
	recs, err := c.getPaged(c.api+"/options/positions/", url.Values{
		"nonzero":         {"True"},
		"account_numbers": {accountNumber},
	})
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		id, _ := rec["option_id"].(string)
		data, err := c.optionData(id)
		if err != nil {
			c.Log.Warn().Err(err).Str("option_id", id).Msg("unresolved option")
			continue
		}
		rec["instrument"] = data.instrument
		rec["market_data"] = data.market
	}
	return recs, nil
}

type optionData struct {
	instrument map[string]any
	market     map[string]any
}

// optionData fetches instrument and market data for one option id, memoized
// for the run.
func (c *Client) optionData(id string) (optionData, error) {
	if id == "" {
		return optionData{}, fmt.Errorf("position has no option_id")
	}
	if cached, ok := c.options[id]; ok {
		return cached, nil
	}
	c.Pacer.Pause(c.OptionPause)
	var instrument, market any
	if err := c.get(c.api+"/options/instruments/"+id+"/", nil, &instrument); err != nil {
		return optionData{}, err
	}
	if err := c.get(c.api+"/marketdata/options/"+id+"/", nil, &market); err != nil {
		return optionData{}, err
	}
	data := optionData{instrument: firstResult(instrument), market: firstResult(market)}
	if data.instrument == nil || data.market == nil {
		return optionData{}, fmt.Errorf("empty payload for option %s", id)
	}
	c.options[id] = data
	return data, nil
}

// FetchOptionOrders returns the option order history of one account, newest
// first the way the endpoint pages it. Legs come inline, nothing to resolve.
//
//	https://api.robinhood.com/options/orders/?account_numbers=5AB12345
//	{"results": [
//	  {"chain_symbol": "AAPL", "state": "filled", "direction": "credit",
//	   "processed_premium": "310.00", "quantity": "1.00000",
//	   "legs": [{"option_type": "call", "side": "sell",
//	             "strike_price": "190.0000", "expiration_date": "2025-09-19",
//	             "ratio_quantity": 1, ...}], ...}, ...],
//	 "next": null}
func (c *Client) FetchOptionOrders(accountNumber string) ([]map[string]any, error) {
	return c.getPaged(c.api+"/options/orders/", url.Values{
		"account_numbers": {accountNumber},
		"page_size":       {"50"},
	})
}

// FetchStockOrders returns the stock order history of one account with the
// traded symbol injected from the resolved instrument.
func (c *Client) FetchStockOrders(accountNumber string) ([]map[string]any, error) {
	recs, err := c.getPaged(c.api+"/orders/", url.Values{"account_numbers": {accountNumber}})
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		addr, _ := rec["instrument"].(string)
		instrument, err := c.instrument(addr)
		if err != nil {
			c.Log.Warn().Err(err).Str("instrument", addr).Msg("unresolved instrument")
			continue
		}
		if symbol, ok := instrument["symbol"].(string); ok {
			rec["symbol"] = symbol
		}
	}
	return recs, nil
}

// FetchCryptoOrders returns the crypto order history. Crypto lives on its
// own service with no account split, and orders name their pair by id only,
// so the traded symbol is resolved and injected.
func (c *Client) FetchCryptoOrders() ([]map[string]any, error) {
	recs, err := c.getPaged(c.nummus+"/orders/", nil)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		id, _ := rec["currency_pair_id"].(string)
		symbol, err := c.pairSymbol(id)
		if err != nil {
			c.Log.Warn().Err(err).Str("currency_pair_id", id).Msg("unresolved pair")
			continue
		}
		rec["symbol"] = symbol
	}
	return recs, nil
}

// pairSymbol resolves a currency pair id to its display symbol, memoized for
// the run.
func (c *Client) pairSymbol(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("order has no currency_pair_id")
	}
	if cached, ok := c.pairs[id]; ok {
		return cached, nil
	}
	c.Pacer.Pause(c.InstrumentPause)
	var payload struct {
		Symbol string `json:"symbol"`
	}
	if err := c.get(c.api+"/marketdata/forex/quotes/"+id+"/", nil, &payload); err != nil {
		return "", err
	}
	if payload.Symbol == "" {
		return "", fmt.Errorf("forex quote %s carries no symbol", id)
	}
	c.pairs[id] = payload.Symbol
	return payload.Symbol, nil
}
