package cmd

import (
	"errors"
	"fmt"

	"github.com/rhfolio/rhfolio"
	"github.com/rhfolio/rhfolio/robinhood"
	"github.com/rs/zerolog"
)

// brokerage is the slice of the robinhood client the pipeline consumes,
// narrowed so tests can run the pipeline against canned records.
type brokerage interface {
	FetchAccounts() ([]map[string]any, error)
	FetchPortfolio(accountNumber string) (map[string]any, error)
	FetchUnifiedAccount() (map[string]any, error)
	FetchStockPositions(accountNumber string) ([]map[string]any, error)
	FetchOptionPositions(accountNumber string) ([]map[string]any, error)
	FetchOptionOrders(accountNumber string) ([]map[string]any, error)
	FetchStockOrders(accountNumber string) ([]map[string]any, error)
	FetchCryptoOrders() ([]map[string]any, error)
}

// connect loads the stored session and returns an authorized client.
func connect(log zerolog.Logger) (*robinhood.Client, error) {
	session, err := robinhood.LoadSession()
	if err != nil {
		return nil, err
	}
	return robinhood.New(session, log), nil
}

// cryptoAccount is the pseudo account crypto balances and trades report
// under. Crypto lives on its own service with no account number.
var cryptoAccount = rhfolio.Account{Name: "Crypto", Type: rhfolio.CryptoAccount}

// takeSnapshot runs the fetch and normalize half of the pipeline over every
// configured account, classifies the option positions, and returns the
// snapshot the report is built from. Malformed records are dropped, logged
// and counted, never fatal. Fetch failures are.
func takeSnapshot(b brokerage, accounts []rhfolio.Account, log zerolog.Logger) (*rhfolio.Snapshot, error) {
	snap := &rhfolio.Snapshot{Taken: rhfolio.Today()}

	profiles, err := accountProfiles(b)
	if err != nil {
		return nil, err
	}

	for _, account := range accounts {
		log.Debug().Str("account", account.Name).Msg("fetching")

		portfolio, err := b.FetchPortfolio(account.Number)
		if err != nil {
			return nil, fmt.Errorf("fetching %s portfolio: %w", account.Name, err)
		}
		balance, err := rhfolio.NormalizeBalance(account, portfolio, profiles[account.Number])
		if err != nil {
			// an account without a balance would silently distort every total
			return nil, fmt.Errorf("normalizing %s balance: %w", account.Name, err)
		}
		snap.Accounts = append(snap.Accounts, balance)

		recs, err := b.FetchStockPositions(account.Number)
		if err != nil {
			return nil, fmt.Errorf("fetching %s stock positions: %w", account.Name, err)
		}
		stocks, dropped := rhfolio.NormalizeStockPositions(account, recs)
		snap.Stocks = append(snap.Stocks, stocks...)
		countDropped(snap, log, dropped)

		recs, err = b.FetchOptionPositions(account.Number)
		if err != nil {
			return nil, fmt.Errorf("fetching %s option positions: %w", account.Name, err)
		}
		options, dropped := rhfolio.NormalizeOptionPositions(account, recs)
		snap.Options = append(snap.Options, options...)
		countDropped(snap, log, dropped)

		recs, err = b.FetchOptionOrders(account.Number)
		if err != nil {
			return nil, fmt.Errorf("fetching %s option orders: %w", account.Name, err)
		}
		orders, dropped := rhfolio.NormalizeOptionOrders(account, recs)
		snap.Orders = append(snap.Orders, orders...)
		countDropped(snap, log, dropped)

		recs, err = b.FetchStockOrders(account.Number)
		if err != nil {
			return nil, fmt.Errorf("fetching %s stock orders: %w", account.Name, err)
		}
		trades, dropped := rhfolio.NormalizeStockTrades(account, recs)
		snap.Trades = append(snap.Trades, trades...)
		countDropped(snap, log, dropped)
	}

	// the aggregate account is the only source of crypto equity
	phoenix, err := b.FetchUnifiedAccount()
	if err != nil {
		return nil, fmt.Errorf("fetching aggregate account: %w", err)
	}
	if balance, ok := rhfolio.NormalizeCryptoBalance(phoenix); ok {
		snap.Accounts = append(snap.Accounts, balance)
	}

	recs, err := b.FetchCryptoOrders()
	if err != nil {
		return nil, fmt.Errorf("fetching crypto orders: %w", err)
	}
	trades, dropped := rhfolio.NormalizeCryptoTrades(cryptoAccount, recs)
	snap.Trades = append(snap.Trades, trades...)
	countDropped(snap, log, dropped)

	// option orders double as trades in the recent trades view
	for _, o := range snap.Orders {
		snap.Trades = append(snap.Trades, o.Trade())
	}

	snap.Options = rhfolio.Classify(snap.Options, snap.Stocks, snap.Accounts)

	log.Debug().
		Int("accounts", len(snap.Accounts)).
		Int("stocks", len(snap.Stocks)).
		Int("options", len(snap.Options)).
		Int("trades", len(snap.Trades)).
		Int("dropped", snap.Dropped).
		Msg("snapshot taken")
	return snap, nil
}

// accountProfiles indexes the raw account records by account number. The
// profile holds the cash figures the portfolio endpoint does not.
func accountProfiles(b brokerage) (map[string]map[string]any, error) {
	recs, err := b.FetchAccounts()
	if err != nil {
		return nil, fmt.Errorf("fetching accounts: %w", err)
	}
	profiles := make(map[string]map[string]any, len(recs))
	for _, rec := range recs {
		if number, ok := rec["account_number"].(string); ok {
			profiles[number] = rec
		}
	}
	return profiles, nil
}

func countDropped(snap *rhfolio.Snapshot, log zerolog.Logger, dropped []error) {
	for _, err := range dropped {
		var malformed *rhfolio.MalformedRecordError
		if errors.As(err, &malformed) {
			log.Warn().Err(err).Msg("record dropped")
		} else {
			log.Warn().Err(err).Msg("record rejected")
		}
		snap.Dropped++
	}
}

// gainsWindow parses the -s and -d flags of the commands that compute
// realized gains.
func gainsWindow(start, end string) (rhfolio.Range, error) {
	from, err := rhfolio.ParseDate(start)
	if err != nil {
		return rhfolio.Range{}, fmt.Errorf("invalid start date: %w", err)
	}
	to, err := rhfolio.ParseDate(end)
	if err != nil {
		return rhfolio.Range{}, fmt.Errorf("invalid end date: %w", err)
	}
	return rhfolio.NewRange(from, to), nil
}
