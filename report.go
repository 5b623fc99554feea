package rhfolio

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Align tells renderers how to lay out a column.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Table is one named report table. Every cell is already formatted, so
// renderers and sinks emit it verbatim and two builds of the same snapshot
// are byte identical.
type Table struct {
	Name    string // also the sheet name
	Note    string // optional subtitle line
	Columns []string
	Aligns  []Align // one per column
	Rows    [][]string
}

func (t Table) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("name", t.Name)
	w.Optional("note", t.Note)
	w.Append("columns", t.Columns)
	rows := t.Rows
	if rows == nil {
		rows = [][]string{}
	}
	w.Append("rows", rows)
	return w.MarshalJSON()
}

// Report is the full set of tables produced by one run.
type Report struct {
	GeneratedOn    Date
	Tables         []Table
	Dropped        int // malformed records dropped while normalizing
	UnmatchedSells int // sells excluded from the realized gains
}

// Table returns the named table when the report holds one.
func (r *Report) Table(name string) (*Table, bool) {
	for i := range r.Tables {
		if r.Tables[i].Name == name {
			return &r.Tables[i], true
		}
	}
	return nil, false
}

func (r *Report) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("generated_on", r.GeneratedOn)
	w.Append("dropped_records", r.Dropped)
	w.Append("unmatched_sells", r.UnmatchedSells)
	w.Append("tables", r.Tables)
	return w.MarshalJSON()
}

// reportTZ is the zone timestamps display in. Market hours read naturally in
// the exchange's zone.
var reportTZ = loadReportTZ()

func loadReportTZ() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.In(reportTZ).Format("01/02/2006 03:04 PM")
}

// capitalize upper-cases the first letter and lower-cases the rest, turning
// broker states like "filled" or "FILLED" into "Filled".
func capitalize(s string) string {
	if s == "" {
		return "N/A"
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

const (
	maxReportedOrders = 20
	maxReportedTrades = 50
	premiumWeeks      = 8
)

// BuildReport shapes a snapshot and its gains report into the fixed set of
// tables. The builder owns every sort order and cell format, downstream
// renderers and sinks only lay the tables out.
func BuildReport(snap *Snapshot, gains *GainsReport) *Report {
	report := &Report{
		GeneratedOn:    snap.Taken,
		Dropped:        snap.Dropped,
		UnmatchedSells: gains.UnmatchedSells,
	}
	total := snap.TotalMarketValue()

	report.Tables = append(report.Tables, balancesTable(snap))
	report.Tables = append(report.Tables, summaryTable(snap))
	report.Tables = append(report.Tables, stocksTable(snap, total))
	report.Tables = append(report.Tables, optionsTable(snap, total))
	report.Tables = append(report.Tables, ordersTable(snap))
	report.Tables = append(report.Tables, tradesTable(snap))
	for _, b := range snap.Accounts {
		if b.Account.Type == CryptoAccount {
			continue
		}
		report.Tables = append(report.Tables, premiumTable(snap, b.Account))
	}
	report.Tables = append(report.Tables, GainsTable(gains))
	return report
}

func balancesTable(snap *Snapshot) Table {
	t := Table{
		Name:    "Account Balances",
		Columns: []string{"Account", "Type", "Equity", "Cash", "Options Collateral", "Available Cash", "Unsettled Funds"},
		Aligns:  []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight},
	}
	totalCash, totalColl, totalUnsettled := USD(0), USD(0), USD(0)
	for _, b := range snap.Accounts {
		t.Rows = append(t.Rows, []string{
			b.Account.Name,
			b.Account.Type.Label(),
			b.Equity.String(),
			b.Cash.String(),
			b.Collateral.String(),
			b.AvailableCash().String(),
			b.UnsettledFunds.String(),
		})
		totalCash = totalCash.Add(b.Cash)
		totalColl = totalColl.Add(b.Collateral)
		totalUnsettled = totalUnsettled.Add(b.UnsettledFunds)
	}
	t.Rows = append(t.Rows, []string{
		"TOTAL",
		"",
		snap.TotalEquity().String(),
		totalCash.String(),
		totalColl.String(),
		totalCash.Sub(totalColl).String(),
		totalUnsettled.String(),
	})
	return t
}

// summaryTable reconciles each account's broker reported equity against the
// figure recomputed from cash and positions. A large difference usually means
// positions were dropped while normalizing.
func summaryTable(snap *Snapshot) Table {
	t := Table{
		Name:    "Account Summary",
		Columns: []string{"Account", "Cash", "Stock Value", "Options Value", "Equity", "Reported Equity", "Difference"},
		Aligns:  []Align{AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight},
		Note:    "Equity recomputed from cash and positions, short options counted at buy-back cost.",
	}
	totCash, totStock, totOpt, totEquity, totReported := USD(0), USD(0), USD(0), USD(0), USD(0)
	for _, s := range snap.Summaries() {
		t.Rows = append(t.Rows, []string{
			s.Balance.Account.Name,
			s.Balance.Cash.String(),
			s.StockValue.String(),
			s.OptionValue.SignedString(),
			s.Equity.String(),
			s.Balance.Equity.String(),
			s.Equity.Sub(s.Balance.Equity).SignedString(),
		})
		totCash = totCash.Add(s.Balance.Cash)
		totStock = totStock.Add(s.StockValue)
		totOpt = totOpt.Add(s.OptionValue)
		totEquity = totEquity.Add(s.Equity)
		totReported = totReported.Add(s.Balance.Equity)
	}
	t.Rows = append(t.Rows, []string{
		"TOTAL",
		totCash.String(),
		totStock.String(),
		totOpt.SignedString(),
		totEquity.String(),
		totReported.String(),
		totEquity.Sub(totReported).SignedString(),
	})
	return t
}

func stocksTable(snap *Snapshot, total Money) Table {
	t := Table{
		Name:    "All Stock Positions",
		Note:    "Total Portfolio Value: " + total.String(),
		Columns: []string{"Account", "Symbol", "Name", "Quantity", "Average Buy Price", "Current Price", "Current Value", "Allocation %", "Created At", "Updated At"},
		Aligns:  []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignLeft, AlignLeft},
	}
	stocks := slices.Clone(snap.Stocks)
	slices.SortStableFunc(stocks, func(a, b StockPosition) int {
		av, bv := a.MarketValue(), b.MarketValue()
		switch {
		case bv.LessThan(av):
			return -1
		case av.LessThan(bv):
			return 1
		}
		if c := strings.Compare(a.Symbol, b.Symbol); c != 0 {
			return c
		}
		return strings.Compare(a.Account.Name, b.Account.Name)
	})
	for _, p := range stocks {
		t.Rows = append(t.Rows, []string{
			p.Account.Name,
			p.Symbol,
			p.Name,
			p.Shares.String(),
			p.AvgCost.String(),
			p.Price.String(),
			p.MarketValue().String(),
			PercentOf(p.MarketValue(), total).String(),
			fmtTime(p.CreatedAt),
			fmtTime(p.UpdatedAt),
		})
	}
	return t
}

func optionsTable(snap *Snapshot, total Money) Table {
	t := Table{
		Name:    "Option Positions",
		Note:    "Total Portfolio Value: " + total.String(),
		Columns: []string{"Account", "Symbol", "Strike Price", "Expiration Date", "Option Type", "Strategy Type", "Quantity", "Average Price", "Current Price", "Total Value", "Allocation %", "Implied Volatility", "Delta", "Theta", "Gamma", "Vega", "Open Interest"},
		Aligns:  []Align{AlignLeft, AlignLeft, AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight},
	}
	options := slices.Clone(snap.Options)
	slices.SortStableFunc(options, func(a, b OptionPosition) int {
		switch {
		case a.Expiration.Before(b.Expiration):
			return -1
		case b.Expiration.Before(a.Expiration):
			return 1
		}
		if c := strings.Compare(a.Symbol, b.Symbol); c != 0 {
			return c
		}
		return strings.Compare(a.Account.Name, b.Account.Name)
	})
	for _, p := range options {
		oi := "N/A"
		if p.OpenInterest >= 0 {
			oi = strconv.FormatInt(p.OpenInterest, 10)
		}
		t.Rows = append(t.Rows, []string{
			p.Account.Name,
			p.Symbol,
			p.Strike.String(),
			p.Expiration.String(),
			strings.ToUpper(p.Type.String()),
			p.Strategy.String(),
			p.Contracts.String(),
			p.AvgPrice.String(),
			p.Mark.String(),
			p.MarketValue().String(),
			PercentOf(p.MarketValue(), total).String(),
			p.IV.String(),
			p.Delta.String(),
			p.Theta.String(),
			p.Gamma.String(),
			p.Vega.String(),
			oi,
		})
	}
	return t
}

func ordersTable(snap *Snapshot) Table {
	t := Table{
		Name:    "Options Orders",
		Columns: []string{"Date", "Account", "Symbol", "Strategy", "Direction", "Option Types", "Strike Prices", "Expiration", "Quantity", "Premium", "State"},
		Aligns:  []Align{AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight, AlignLeft},
	}
	orders := make([]OptionOrder, 0, len(snap.Orders))
	for _, o := range snap.Orders {
		if o.Cancelled() {
			continue
		}
		orders = append(orders, o)
	}
	slices.SortStableFunc(orders, func(a, b OptionOrder) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(orders) > maxReportedOrders {
		orders = orders[:maxReportedOrders]
	}
	for _, o := range orders {
		t.Rows = append(t.Rows, []string{
			fmtTime(o.CreatedAt),
			o.Account.Name,
			o.Symbol,
			o.StrategyName(),
			o.DirectionLabel(),
			o.TypesLabel(),
			o.StrikesLabel(),
			o.ExpirationsLabel(),
			o.Quantity.String(),
			o.Premium.String(),
			capitalize(o.State),
		})
	}
	return t
}

func tradesTable(snap *Snapshot) Table {
	t := Table{
		Name:    "Recent Trades",
		Columns: []string{"Date", "Account", "Type", "Symbol", "Side", "Quantity", "Price", "Total Value", "Fees", "Status"},
		Aligns:  []Align{AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignLeft},
	}
	trades := make([]Trade, 0, len(snap.Trades))
	for _, tr := range snap.Trades {
		if !strings.EqualFold(tr.State, "filled") {
			continue
		}
		trades = append(trades, tr)
	}
	slices.SortStableFunc(trades, func(a, b Trade) int {
		return b.ExecutedAt.Compare(a.ExecutedAt)
	})
	if len(trades) > maxReportedTrades {
		trades = trades[:maxReportedTrades]
	}
	for _, tr := range trades {
		qty := tr.Quantity.StringFixed(2)
		if tr.Quantity.LessThan(Q(10)) {
			qty = tr.Quantity.StringFixed(4)
		}
		price, value := "N/A", "N/A"
		if tr.Price.IsPositive() {
			price = tr.Price.String()
		}
		if tr.Value.IsPositive() {
			value = tr.Value.String()
		}
		fees := "$0.00"
		if tr.Fees.IsPositive() {
			fees = tr.Fees.String()
		}
		t.Rows = append(t.Rows, []string{
			fmtTime(tr.ExecutedAt),
			tr.Account.Name,
			tr.Class.String(),
			tr.Symbol,
			tr.SideLabel(),
			qty,
			price,
			value,
			fees,
			capitalize(tr.State),
		})
	}
	return t
}

func premiumTable(snap *Snapshot, account Account) Table {
	t := Table{
		Name:    account.Name + " Weekly Premium",
		Columns: []string{"Week", "Total Premium", "BTC Premium", "Net Premium"},
		Aligns:  []Align{AlignLeft, AlignRight, AlignRight, AlignRight},
	}
	for _, w := range WeeklyPremiums(snap.Orders, account, snap.Taken, premiumWeeks) {
		t.Rows = append(t.Rows, []string{
			w.Week.String(),
			w.Sold.String(),
			w.BoughtBack.String(),
			w.Net().String(),
		})
	}
	return t
}

// GainsTable shapes a gains report alone, for the commands that skip the
// rest of the pipeline.
func GainsTable(gains *GainsReport) Table {
	note := fmt.Sprintf("Window: %s to %s", gains.Window.From, gains.Window.To)
	if gains.UnmatchedSells > 0 {
		note += fmt.Sprintf(" (%d unmatched sells excluded)", gains.UnmatchedSells)
	}
	t := Table{
		Name:    "Realized Gains",
		Note:    note,
		Columns: []string{"Symbol", "Account", "Quantity", "Proceeds", "Cost", "Fees", "Gain"},
		Aligns:  []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight},
	}
	for _, g := range gains.Gains {
		t.Rows = append(t.Rows, []string{
			g.Symbol,
			g.Account.Name,
			g.Quantity.String(),
			g.Proceeds.String(),
			g.Cost.String(),
			g.Fees.String(),
			g.Gain().String(),
		})
	}
	t.Rows = append(t.Rows, []string{"TOTAL", "", "", "", "", "", gains.Total.String()})
	return t
}
