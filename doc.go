// Package rhfolio turns a Robinhood account snapshot into spreadsheet-ready
// report tables.
//
// The pipeline is a one-way batch: raw brokerage records are normalized into
// typed positions and trades, open option positions are labeled with a
// strategy (covered call, cash-secured put, vertical spread, ...), per-account
// and portfolio rollups are aggregated, and the result is shaped into
// fixed-schema tables:
//   - Normalizer: variable-shape JSON records in, typed records out. Records
//     missing a required identifying field are dropped and counted, never fatal.
//   - Classifier: ordered precedence rules over option groups, first match
//     wins; ambiguity degrades to Unclassified instead of failing.
//   - Aggregator: per-account and portfolio equity, allocation percentages,
//     and FIFO realized gains over a trailing window of trades.
//   - Report builder: deterministic, fixed-column tables ready for rendering
//     or for a spreadsheet sink.
//
// Fetching from the brokerage and writing to Google Sheets live in the
// robinhood and gsheet packages; this package is pure computation over
// immutable per-run snapshots. All currency arithmetic is carried by Money and
// Quantity, thin wrappers around decimal values; binary floats never enter a
// currency computation.
package rhfolio
