package rhfolio

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func demoSnapshot() *Snapshot {
	short := optionPos(acctMain, "AAPL", Call, Short, 210, "2025-09-19", 1)
	short.Mark = USD(2.5) // $250 of value
	short.Strategy = CoveredCall

	crypto, _ := NormalizeCryptoBalance(map[string]any{"crypto": map[string]any{"equity": 333.0}})

	main := cashBalance(acctMain, 2000)
	main.Equity = USD(15000)
	main.Collateral = USD(500)
	main.UnsettledFunds = USD(100)
	ira := cashBalance(acctIRA, 1000)
	ira.Equity = USD(5000)

	return &Snapshot{
		Taken:    MustParse("2025-08-20"),
		Accounts: []Balance{main, ira, crypto},
		Stocks: []StockPosition{
			stockPos(acctMain, "AAPL", 5, 100), // $500
			stockPos(acctIRA, "NVDA", 2, 400),  // $800
		},
		Options: []OptionPosition{short},
		Orders: []OptionOrder{
			optOrder(acctMain, "AAPL", Sell, 310, "2025-08-19T15:00:00Z", leg(Call, 210, "2025-09-19", Sell, 1)),
		},
		Trades: []Trade{
			tradeAt(acctMain, "AAPL", Buy, 10, 150.50, 0.05, "2025-08-18T14:30:00Z"),
		},
	}
}

func demoGains() *GainsReport {
	trades := []Trade{
		tradeAt(acctMain, "AAPL", Buy, 10, 100, 0, "2025-03-01T14:30:00Z"),
		tradeAt(acctMain, "AAPL", Sell, 10, 110, 1, "2025-04-01T14:30:00Z"),
	}
	return ComputeRealizedGains(trades, gainsWindow)
}

func TestBuildReport_Tables(t *testing.T) {
	report := BuildReport(demoSnapshot(), demoGains())

	want := []string{
		"Account Balances",
		"Account Summary",
		"All Stock Positions",
		"Option Positions",
		"Options Orders",
		"Recent Trades",
		"Main Weekly Premium",
		"IRA Weekly Premium",
		"Realized Gains",
	}
	if len(report.Tables) != len(want) {
		t.Fatalf("len(Tables) = %d, want %d", len(report.Tables), len(want))
	}
	for i, name := range want {
		if report.Tables[i].Name != name {
			t.Errorf("Tables[%d].Name = %q, want %q", i, report.Tables[i].Name, name)
		}
	}
	if report.GeneratedOn != MustParse("2025-08-20") {
		t.Errorf("GeneratedOn = %s, want 2025-08-20", report.GeneratedOn)
	}

	if _, ok := report.Table("Recent Trades"); !ok {
		t.Error("Table(Recent Trades) not found")
	}
	if _, ok := report.Table("No Such Table"); ok {
		t.Error("Table(No Such Table) found")
	}

	// every table carries one alignment per column
	for _, tab := range report.Tables {
		if len(tab.Aligns) != len(tab.Columns) {
			t.Errorf("%s: %d aligns for %d columns", tab.Name, len(tab.Aligns), len(tab.Columns))
		}
		for _, row := range tab.Rows {
			if len(row) != len(tab.Columns) {
				t.Errorf("%s: row with %d cells for %d columns", tab.Name, len(row), len(tab.Columns))
			}
		}
	}
}

func TestBalancesTable(t *testing.T) {
	report := BuildReport(demoSnapshot(), demoGains())
	tab, _ := report.Table("Account Balances")

	if len(tab.Rows) != 4 {
		t.Fatalf("len(Rows) = %d, want 3 accounts and a total", len(tab.Rows))
	}
	got := tab.Rows[0]
	want := []string{"Main", "Standard", "$15,000.00", "$2,000.00", "$500.00", "$1,500.00", "$100.00"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Rows[0][%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if tab.Rows[2][1] != "Crypto" {
		t.Errorf("Rows[2][1] = %q, want Crypto", tab.Rows[2][1])
	}

	total := tab.Rows[3]
	wantTotal := []string{"TOTAL", "", "$20,333.00", "$3,000.00", "$500.00", "$2,500.00", "$100.00"}
	for i := range wantTotal {
		if total[i] != wantTotal[i] {
			t.Errorf("total[%d] = %q, want %q", i, total[i], wantTotal[i])
		}
	}
}

func TestSummaryTable(t *testing.T) {
	report := BuildReport(demoSnapshot(), demoGains())
	tab, _ := report.Table("Account Summary")

	if len(tab.Rows) != 4 {
		t.Fatalf("len(Rows) = %d, want 3 accounts and a total", len(tab.Rows))
	}
	// cash $2,000 + stocks $500 - short call buy back $250
	got := tab.Rows[0]
	want := []string{"Main", "$2,000.00", "$500.00", "-$250.00", "$2,250.00", "$15,000.00", "-$12,750.00"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Rows[0][%d] = %q, want %q", i, got[i], want[i])
		}
	}
	// the crypto pseudo account keeps the broker figure, so no difference
	if crypto := tab.Rows[2]; crypto[4] != "$333.00" || crypto[6] != "-" {
		t.Errorf("crypto row = %v, want equity $333.00 and no difference", crypto)
	}

	total := tab.Rows[3]
	wantTotal := []string{"TOTAL", "$3,000.00", "$1,300.00", "-$250.00", "$4,383.00", "$20,333.00", "-$15,950.00"}
	for i := range wantTotal {
		if total[i] != wantTotal[i] {
			t.Errorf("total[%d] = %q, want %q", i, total[i], wantTotal[i])
		}
	}
}

func TestStocksTable(t *testing.T) {
	report := BuildReport(demoSnapshot(), demoGains())
	tab, _ := report.Table("All Stock Positions")

	// stocks $1,300 plus the option position's $250
	if got, want := tab.Note, "Total Portfolio Value: $1,550.00"; got != want {
		t.Errorf("Note = %q, want %q", got, want)
	}
	if len(tab.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(tab.Rows))
	}
	// biggest position first
	if tab.Rows[0][1] != "NVDA" || tab.Rows[1][1] != "AAPL" {
		t.Errorf("order = [%s %s], want [NVDA AAPL]", tab.Rows[0][1], tab.Rows[1][1])
	}
	if got, want := tab.Rows[0][7], "51.61%"; got != want {
		t.Errorf("NVDA allocation = %q, want %q", got, want)
	}
	if got, want := tab.Rows[1][7], "32.26%"; got != want {
		t.Errorf("AAPL allocation = %q, want %q", got, want)
	}
}

func TestOptionsTable(t *testing.T) {
	report := BuildReport(demoSnapshot(), demoGains())
	tab, _ := report.Table("Option Positions")

	if len(tab.Rows) != 1 {
		t.Fatalf("len(Rows) = %d, want 1", len(tab.Rows))
	}
	row := tab.Rows[0]
	if row[4] != "CALL" {
		t.Errorf("type cell = %q, want CALL", row[4])
	}
	if row[5] != "Covered Call" {
		t.Errorf("strategy cell = %q, want Covered Call", row[5])
	}
	if row[9] != "$250.00" {
		t.Errorf("value cell = %q, want $250.00", row[9])
	}
	if row[10] != "16.13%" {
		t.Errorf("allocation cell = %q, want 16.13%%", row[10])
	}
	// the fixture has no market statistics
	if row[11] != "N/A" || row[16] != "N/A" {
		t.Errorf("IV/OI cells = %q/%q, want N/A", row[11], row[16])
	}
}

func TestAllocationsSumToWhole(t *testing.T) {
	// three equal thirds, so every share rounds down to 33.33%
	snap := &Snapshot{
		Taken: MustParse("2025-08-20"),
		Stocks: []StockPosition{
			stockPos(acctMain, "AAPL", 1, 100),
			stockPos(acctIRA, "MSFT", 1, 100),
		},
		Options: []OptionPosition{
			optionPos(acctMain, "AAPL", Call, Short, 210, "2025-09-19", 1),
		},
	}
	snap.Options[0].Mark = USD(1) // $100 of value

	total := snap.TotalMarketValue()
	var sum Percent
	for _, p := range snap.Stocks {
		sum += PercentOf(p.MarketValue(), total)
	}
	for _, p := range snap.Options {
		sum += PercentOf(p.MarketValue(), total)
	}
	if diff := float64(sum) - 100; diff > 0.01 || diff < -0.01 {
		t.Errorf("allocations sum to %.4f%%, want 100%% within 0.01", float64(sum))
	}
}

func TestOptionsTable_SortsByExpiration(t *testing.T) {
	snap := demoSnapshot()
	later := optionPos(acctMain, "AAPL", Put, Short, 180, "2025-10-17", 1)
	snap.Options = append([]OptionPosition{later}, snap.Options...)

	report := BuildReport(snap, demoGains())
	tab, _ := report.Table("Option Positions")

	if tab.Rows[0][3] != "2025-09-19" || tab.Rows[1][3] != "2025-10-17" {
		t.Errorf("order = [%s %s], want soonest expiration first", tab.Rows[0][3], tab.Rows[1][3])
	}
}

func TestOrdersTable(t *testing.T) {
	snap := demoSnapshot()
	cancelled := optOrder(acctMain, "AAPL", Buy, 100, "2025-08-19T16:00:00Z", leg(Call, 210, "2025-09-19", Buy, 1))
	cancelled.State = "cancelled"
	snap.Orders = append(snap.Orders, cancelled)

	report := BuildReport(snap, demoGains())
	tab, _ := report.Table("Options Orders")

	if len(tab.Rows) != 1 {
		t.Fatalf("len(Rows) = %d, want the cancelled order excluded", len(tab.Rows))
	}
	row := tab.Rows[0]
	want := []string{"08/19/2025 11:00 AM", "Main", "AAPL", "Single CALL", "Sell (Credit)", "CALL", "$210.00", "2025-09-19", "1", "$310.00", "Filled"}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("row[%d] = %q, want %q", i, row[i], want[i])
		}
	}
}

func TestOrdersTable_CapsAndSorts(t *testing.T) {
	snap := demoSnapshot()
	snap.Orders = nil
	base := time.Date(2025, 7, 1, 15, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		o := optOrder(acctMain, "AAPL", Sell, 100, base.Add(time.Duration(i)*24*time.Hour).Format(time.RFC3339),
			leg(Call, 210, "2025-09-19", Sell, 1))
		snap.Orders = append(snap.Orders, o)
	}

	report := BuildReport(snap, demoGains())
	tab, _ := report.Table("Options Orders")

	if len(tab.Rows) != maxReportedOrders {
		t.Fatalf("len(Rows) = %d, want %d", len(tab.Rows), maxReportedOrders)
	}
	// newest order first, 2025-07-25 in eastern time
	if got, want := tab.Rows[0][0], "07/25/2025 11:00 AM"; got != want {
		t.Errorf("Rows[0][0] = %q, want %q", got, want)
	}
	if got, want := tab.Rows[1][0], "07/24/2025 11:00 AM"; got != want {
		t.Errorf("Rows[1][0] = %q, want %q", got, want)
	}
}

func TestTradesTable(t *testing.T) {
	snap := demoSnapshot()
	pending := tradeAt(acctMain, "MSFT", Buy, 5, 400, 0, "2025-08-19T14:30:00Z")
	pending.State = "queued"
	free := tradeAt(acctMain, "XYZ", Sell, 0.5, 0, 0, "2025-08-17T14:30:00Z")
	snap.Trades = append(snap.Trades, pending, free)

	report := BuildReport(snap, demoGains())
	tab, _ := report.Table("Recent Trades")

	if len(tab.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want the queued trade excluded", len(tab.Rows))
	}
	row := tab.Rows[0]
	want := []string{"08/18/2025 10:30 AM", "Main", "Stock", "AAPL", "Buy", "10.00", "$150.50", "$1,505.00", "$0.05", "Filled"}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("row[%d] = %q, want %q", i, row[i], want[i])
		}
	}

	// fractional quantity keeps four decimals, missing prices show N/A
	frac := tab.Rows[1]
	if frac[5] != "0.5000" {
		t.Errorf("quantity cell = %q, want 0.5000", frac[5])
	}
	if frac[6] != "N/A" || frac[7] != "N/A" {
		t.Errorf("price/value cells = %q/%q, want N/A", frac[6], frac[7])
	}
	if frac[8] != "$0.00" {
		t.Errorf("fees cell = %q, want $0.00", frac[8])
	}
}

func TestTradesTable_Caps(t *testing.T) {
	snap := demoSnapshot()
	snap.Trades = nil
	base := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	for i := 0; i < 55; i++ {
		tr := tradeAt(acctMain, "AAPL", Buy, 1, 100, 0, base.Add(time.Duration(i)*time.Hour).Format(time.RFC3339))
		snap.Trades = append(snap.Trades, tr)
	}

	report := BuildReport(snap, demoGains())
	tab, _ := report.Table("Recent Trades")

	if len(tab.Rows) != maxReportedTrades {
		t.Errorf("len(Rows) = %d, want %d", len(tab.Rows), maxReportedTrades)
	}
}

func TestPremiumTable(t *testing.T) {
	report := BuildReport(demoSnapshot(), demoGains())
	tab, _ := report.Table("Main Weekly Premium")

	if len(tab.Rows) != premiumWeeks {
		t.Fatalf("len(Rows) = %d, want %d", len(tab.Rows), premiumWeeks)
	}
	row := tab.Rows[0]
	want := []string{"2025-08-18", "$310.00", "$0.00", "$310.00"}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("row[0][%d] = %q, want %q", i, row[i], want[i])
		}
	}

	// the other account saw no orders
	ira, _ := report.Table("IRA Weekly Premium")
	if ira.Rows[0][1] != "$0.00" {
		t.Errorf("IRA row[0][1] = %q, want $0.00", ira.Rows[0][1])
	}
}

func TestGainsTable(t *testing.T) {
	report := BuildReport(demoSnapshot(), demoGains())
	tab, _ := report.Table("Realized Gains")

	if got, want := tab.Note, "Window: 2025-01-01 to 2025-12-31"; got != want {
		t.Errorf("Note = %q, want %q", got, want)
	}
	if len(tab.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want a gain and a total", len(tab.Rows))
	}
	row := tab.Rows[0]
	want := []string{"AAPL", "Main", "10", "$1,100.00", "$1,000.00", "$1.00", "$99.00"}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("row[0][%d] = %q, want %q", i, row[i], want[i])
		}
	}
	if got, want := tab.Rows[1][6], "$99.00"; got != want {
		t.Errorf("total cell = %q, want %q", got, want)
	}
}

func TestGainsTable_NotesUnmatched(t *testing.T) {
	gains := ComputeRealizedGains([]Trade{
		tradeAt(acctMain, "AAPL", Sell, 10, 110, 0, "2025-04-01T14:30:00Z"),
	}, gainsWindow)

	report := BuildReport(demoSnapshot(), gains)
	tab, _ := report.Table("Realized Gains")

	want := "Window: 2025-01-01 to 2025-12-31 (1 unmatched sells excluded)"
	if tab.Note != want {
		t.Errorf("Note = %q, want %q", tab.Note, want)
	}
	if report.UnmatchedSells != 1 {
		t.Errorf("UnmatchedSells = %d, want 1", report.UnmatchedSells)
	}
}

func TestReportJSON_Idempotent(t *testing.T) {
	a, err := json.Marshal(BuildReport(demoSnapshot(), demoGains()))
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(BuildReport(demoSnapshot(), demoGains()))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("two builds differ:\n%s\n%s", a, b)
	}
	for _, key := range []string{`"generated_on":"2025-08-20"`, `"tables":[`, `"name":"Account Balances"`} {
		if !bytes.Contains(a, []byte(key)) {
			t.Errorf("marshaled report misses %s", key)
		}
	}
}

func TestFmtTime(t *testing.T) {
	if got, want := fmtTime(time.Time{}), "N/A"; got != want {
		t.Errorf("fmtTime(zero) = %q, want %q", got, want)
	}
	ts := time.Date(2025, 8, 19, 15, 0, 0, 0, time.UTC)
	if got, want := fmtTime(ts), "08/19/2025 11:00 AM"; got != want {
		t.Errorf("fmtTime = %q, want %q", got, want)
	}
}

func TestCapitalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"filled", "Filled"},
		{"FILLED", "Filled"},
		{"partially_filled", "Partially_filled"},
		{"", "N/A"},
	}
	for _, tc := range tests {
		if got := capitalize(tc.in); got != tc.want {
			t.Errorf("capitalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
