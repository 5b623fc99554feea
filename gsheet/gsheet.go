// Package gsheet pushes report tables to a Google spreadsheet, one worksheet
// per table. Writes are fire and forget, nothing is read back, the sheet is
// a rendering target and never a source of truth.
package gsheet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rhfolio/rhfolio"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Worksheets are created with the default grid of the original sheet.
const (
	newSheetRows = 1000
	newSheetCols = 20
)

// Sink writes to one spreadsheet through a service account.
type Sink struct {
	// WritePause spaces consecutive API writes, the Sheets write quota is
	// per minute and a report is many tables.
	WritePause time.Duration

	svc   *sheets.Service
	id    string
	log   zerolog.Logger
	pacer *rhfolio.Pacer
	now   func() time.Time

	ids    map[string]int64 // worksheet title to sheet id
	loaded bool
}

// New connects to the spreadsheet with a service account credentials file.
func New(ctx context.Context, credentialsFile, spreadsheetID string, log zerolog.Logger) (*Sink, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("cannot open sheets service: %w", err)
	}
	return newSink(svc, spreadsheetID, log), nil
}

func newSink(svc *sheets.Service, spreadsheetID string, log zerolog.Logger) *Sink {
	return &Sink{
		WritePause: time.Second,
		svc:        svc,
		id:         spreadsheetID,
		log:        log.With().Str("component", "gsheet").Logger(),
		pacer:      rhfolio.NewPacer(),
		now:        time.Now,
		ids:        map[string]int64{},
	}
}

// Push writes every table of the report to its own worksheet.
func (s *Sink) Push(r *rhfolio.Report) error {
	for _, t := range r.Tables {
		if err := s.push(t); err != nil {
			return fmt.Errorf("pushing %q: %w", t.Name, err)
		}
		s.log.Info().Str("table", t.Name).Int("rows", len(t.Rows)).Msg("pushed")
	}
	return nil
}

// push clears the worksheet, writes the laid out table and restores the
// formatting the clear wiped. Every call retries quota rejections.
func (s *Sink) push(t rhfolio.Table) error {
	sheetID, err := s.sheetID(t.Name)
	if err != nil {
		return err
	}

	if err := s.pacer.Do(func() error {
		_, err := s.svc.Spreadsheets.Values.Clear(s.id, quoteTitle(t.Name), &sheets.ClearValuesRequest{}).Do()
		return err
	}); err != nil {
		return fmt.Errorf("cannot clear: %w", err)
	}
	s.pacer.Pause(s.WritePause)

	values, headerRow := s.values(t)
	if err := s.pacer.Do(func() error {
		// RAW, the cells are already formatted strings
		_, err := s.svc.Spreadsheets.Values.Update(s.id, quoteTitle(t.Name)+"!A1", &sheets.ValueRange{Values: values}).
			ValueInputOption("RAW").Do()
		return err
	}); err != nil {
		return fmt.Errorf("cannot update: %w", err)
	}
	s.pacer.Pause(s.WritePause)

	if err := s.pacer.Do(func() error {
		_, err := s.svc.Spreadsheets.BatchUpdate(s.id, formatRequests(sheetID, headerRow)).Do()
		return err
	}); err != nil {
		return fmt.Errorf("cannot format: %w", err)
	}
	s.pacer.Pause(s.WritePause)
	return nil
}

// values lays out one worksheet: title, update stamp, the optional note, a
// blank spacer, then header and data. It returns the zero based index of
// the header row so the formatting step can find it.
func (s *Sink) values(t rhfolio.Table) ([][]interface{}, int64) {
	rows := [][]interface{}{
		{t.Name},
		{"Last Updated: " + s.now().Format("2006-01-02 15:04:05")},
	}
	if t.Note != "" {
		rows = append(rows, []interface{}{t.Note})
	}
	rows = append(rows, []interface{}{""})

	headerRow := int64(len(rows))
	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	rows = append(rows, header)

	for _, r := range t.Rows {
		row := make([]interface{}, len(r))
		for i, cell := range r {
			row[i] = cell
		}
		rows = append(rows, row)
	}
	return rows, headerRow
}

// formatRequests bolds the title and the header row, and freezes everything
// above the data.
func formatRequests(sheetID, headerRow int64) *sheets.BatchUpdateSpreadsheetRequest {
	return &sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{
		{RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{SheetId: sheetID, StartRowIndex: 0, EndRowIndex: 1, StartColumnIndex: 0, EndColumnIndex: 1},
			Cell: &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
				TextFormat: &sheets.TextFormat{Bold: true, FontSize: 14},
			}},
			Fields: "userEnteredFormat.textFormat",
		}},
		{RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{SheetId: sheetID, StartRowIndex: headerRow, EndRowIndex: headerRow + 1},
			Cell: &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
				TextFormat: &sheets.TextFormat{Bold: true},
			}},
			Fields: "userEnteredFormat.textFormat",
		}},
		{UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
			Properties: &sheets.SheetProperties{
				SheetId:        sheetID,
				GridProperties: &sheets.GridProperties{FrozenRowCount: headerRow + 1},
			},
			Fields: "gridProperties.frozenRowCount",
		}},
	}}
}

// sheetID returns the numeric id of the worksheet with that title, creating
// the worksheet when it does not exist yet. The spreadsheet is listed once
// per run.
func (s *Sink) sheetID(title string) (int64, error) {
	if !s.loaded {
		if err := s.loadSheets(); err != nil {
			return 0, err
		}
	}
	if id, ok := s.ids[title]; ok {
		return id, nil
	}

	var reply *sheets.BatchUpdateSpreadsheetResponse
	if err := s.pacer.Do(func() error {
		var err error
		reply, err = s.svc.Spreadsheets.BatchUpdate(s.id, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title:          title,
					GridProperties: &sheets.GridProperties{RowCount: newSheetRows, ColumnCount: newSheetCols},
				},
			}}},
		}).Do()
		return err
	}); err != nil {
		return 0, fmt.Errorf("cannot create worksheet: %w", err)
	}
	s.pacer.Pause(s.WritePause)

	id := reply.Replies[0].AddSheet.Properties.SheetId
	s.ids[title] = id
	s.log.Debug().Str("table", title).Int64("sheet_id", id).Msg("worksheet created")
	return id, nil
}

func (s *Sink) loadSheets() error {
	var sp *sheets.Spreadsheet
	if err := s.pacer.Do(func() error {
		var err error
		sp, err = s.svc.Spreadsheets.Get(s.id).Do()
		return err
	}); err != nil {
		return fmt.Errorf("cannot list worksheets: %w", err)
	}
	for _, sheet := range sp.Sheets {
		s.ids[sheet.Properties.Title] = sheet.Properties.SheetId
	}
	s.loaded = true
	return nil
}

// quoteTitle makes a worksheet title usable as an A1 range, doubling any
// embedded apostrophe per the A1 quoting rules.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
