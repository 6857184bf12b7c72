package sheetsclient

import (
	"fmt"
	"strings"

	"google.golang.org/api/sheets/v4"
)

// PublishTable writes header and rows to the tab named tabTitle, starting at A1.
// A missing tab is created; an existing one is cleared first so a re-export
// never leaves rows from a longer earlier report behind.
func (c *Client) PublishTable(spreadsheetID, tabTitle string, header []string, rows [][]interface{}) error {
	spreadsheet, err := c.service.Spreadsheets.Get(spreadsheetID).Do()
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet metadata: %w", err)
	}

	if hasSheet(spreadsheet, tabTitle) {
		_, err := c.service.Spreadsheets.Values.Clear(spreadsheetID, quoteTab(tabTitle), &sheets.ClearValuesRequest{}).Do()
		if err != nil {
			return fmt.Errorf("failed to clear tab %q: %w", tabTitle, err)
		}
	} else if _, err := c.CreateSheet(spreadsheetID, tabTitle); err != nil {
		return fmt.Errorf("failed to create tab %q: %w", tabTitle, err)
	}

	_, err = c.service.Spreadsheets.Values.Update(
		spreadsheetID,
		quoteTab(tabTitle)+"!A1",
		&sheets.ValueRange{Values: tableValues(header, rows)},
	).ValueInputOption("RAW").Do()
	if err != nil {
		return fmt.Errorf("failed to write tab %q: %w", tabTitle, err)
	}

	return nil
}

func hasSheet(spreadsheet *sheets.Spreadsheet, title string) bool {
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			return true
		}
	}
	return false
}

// quoteTab quotes a tab title for A1 notation; titles contain spaces
func quoteTab(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// tableValues prepends the header and pads short rows to the header width
func tableValues(header []string, rows [][]interface{}) [][]interface{} {
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}

	values := make([][]interface{}, 0, len(rows)+1)
	values = append(values, headerRow)
	for _, row := range rows {
		padded := row
		if len(row) < len(header) {
			padded = make([]interface{}, len(header))
			copy(padded, row)
			for i := len(row); i < len(header); i++ {
				padded[i] = ""
			}
		}
		values = append(values, padded)
	}
	return values
}
