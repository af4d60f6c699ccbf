package worksheet

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/api/sheets/v4"

	"github.com/reconquista/mailing-sync/failure"
)

var (
	spreadsheetURL = regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`)
	spreadsheetID  = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// SpreadsheetID extracts the spreadsheet ID from a Google Sheets URL. A bare ID is
// returned unchanged.
func SpreadsheetID(spreadsheet string) (string, error) {
	s := strings.TrimSpace(spreadsheet)

	if match := spreadsheetURL.FindStringSubmatch(s); len(match) > 1 && spreadsheetID.MatchString(match[1]) {
		return match[1], nil
	}

	if spreadsheetID.MatchString(s) {
		return s, nil
	}

	return "", failure.Errorf(failure.ErrNotFound, "invalid spreadsheet URL '%s' - expected something like 'https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms'", spreadsheet)
}

func (c *Client) lookup(ctx context.Context, spreadsheet, worksheet string) (string, *sheets.Sheet, error) {
	id, err := SpreadsheetID(spreadsheet)
	if err != nil {
		return "", nil, err
	}

	s, err := c.getSpreadsheet(ctx, id)
	if err != nil {
		return "", nil, err
	}

	sheet, err := getSheet(s, worksheet)
	if err != nil {
		return "", nil, err
	}

	return id, sheet, nil
}

func (c *Client) getSpreadsheet(ctx context.Context, id string) (*sheets.Spreadsheet, error) {
	spreadsheet, err := c.google.Spreadsheets.Get(id).
		Fields("spreadsheetId", "sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify(failure.ErrNotFound, fmt.Sprintf("failed to fetch spreadsheet %s", id), err)
	}

	return spreadsheet, nil
}

func getSheet(spreadsheet *sheets.Spreadsheet, name string) (*sheets.Sheet, error) {
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && normalise(sheet.Properties.Title) == normalise(name) {
			return sheet, nil
		}
	}

	return nil, failure.Errorf(failure.ErrNotFound, "unable to identify worksheet '%s' in spreadsheet %s", name, spreadsheet.SpreadsheetId)
}

func normalise(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// quote returns the worksheet title as an A1 notation sheet reference.
func quote(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
