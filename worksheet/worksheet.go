// Package worksheet replaces the contents of a Google Sheets worksheet with a query result.
//
// A Client is authenticated with a service account and is used for exactly one
// run: Clear followed by Insert. Neither operation is retried and the pair is not
// atomic.
package worksheet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/reconquista/mailing-sync/failure"
	"github.com/reconquista/mailing-sync/table"
)

const SHEETS = "https://www.googleapis.com/auth/spreadsheets"

const (
	MAX_CELLS   = 10_000_000
	MAX_COLUMNS = 18_278
)

// Client is an authenticated Sheets session.
type Client struct {
	google *sheets.Service
	http   *http.Client
	log    *zap.Logger
}

// Authenticate creates a Sheets session from a service account credentials file. A token
// is requested immediately so that invalid credentials are reported here rather than on
// the first write.
func Authenticate(ctx context.Context, credentials string, log *zap.Logger, opts ...option.ClientOption) (*Client, error) {
	b, err := os.ReadFile(credentials)
	if err != nil {
		return nil, failure.New(failure.ErrAuthentication, "unable to read credentials "+credentials, err)
	}

	config, err := google.JWTConfigFromJSON(b, SHEETS)
	if err != nil {
		return nil, failure.New(failure.ErrAuthentication, "invalid service account credentials", err)
	}

	tokens := config.TokenSource(ctx)
	if _, err := tokens.Token(); err != nil {
		return nil, failure.New(failure.ErrAuthentication, "unable to obtain access token for "+config.Email, err)
	}

	client := oauth2.NewClient(ctx, tokens)

	service, err := sheets.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("unable to create new Sheets client (%w)", err)
	}

	log.Debug("authenticated", zap.String("account", config.Email))

	return &Client{
		google: service,
		http:   client,
		log:    log,
	}, nil
}

// Close releases the connections held by the session.
func (c *Client) Close() error {
	if c.http != nil {
		c.http.CloseIdleConnections()
	}

	return nil
}

// Clear deletes all values in the worksheet. Formatting and the grid size are kept.
func (c *Client) Clear(ctx context.Context, spreadsheet, worksheet string) error {
	id, sheet, err := c.lookup(ctx, spreadsheet, worksheet)
	if err != nil {
		return err
	}

	title := sheet.Properties.Title
	rq := sheets.ClearValuesRequest{}

	if _, err := c.google.Spreadsheets.Values.Clear(id, quote(title), &rq).Context(ctx).Do(); err != nil {
		return classify(failure.ErrWrite, fmt.Sprintf("error clearing worksheet '%s'", title), err)
	}

	c.log.Debug("cleared worksheet", zap.String("spreadsheet", id), zap.String("worksheet", title))

	return nil
}

// Insert writes the table header and rows starting at A1, growing the worksheet grid
// if it is too small for the table.
func (c *Client) Insert(ctx context.Context, spreadsheet, worksheet string, t *table.Table) error {
	if err := Validate(t); err != nil {
		return err
	}

	values := t.Values()

	id, sheet, err := c.lookup(ctx, spreadsheet, worksheet)
	if err != nil {
		return err
	}

	title := sheet.Properties.Title

	if err := c.resize(ctx, id, sheet, int64(len(values)), int64(len(t.Columns))); err != nil {
		return err
	}

	rq := sheets.ValueRange{
		MajorDimension: "ROWS",
		Range:          quote(title) + "!A1",
		Values:         values,
	}

	response, err := c.google.Spreadsheets.Values.Update(id, rq.Range, &rq).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return classify(failure.ErrWrite, fmt.Sprintf("error writing to worksheet '%s'", title), err)
	}

	c.log.Debug("updated worksheet",
		zap.String("spreadsheet", id),
		zap.String("range", response.UpdatedRange),
		zap.Int64("rows", response.UpdatedRows),
		zap.Int64("cells", response.UpdatedCells))

	return nil
}

// Get returns the values currently in the worksheet.
func (c *Client) Get(ctx context.Context, spreadsheet, worksheet string) ([][]any, error) {
	id, sheet, err := c.lookup(ctx, spreadsheet, worksheet)
	if err != nil {
		return nil, err
	}

	title := sheet.Properties.Title

	response, err := c.google.Spreadsheets.Values.Get(id, quote(title)).Context(ctx).Do()
	if err != nil {
		return nil, classify(failure.ErrNotFound, fmt.Sprintf("unable to retrieve data from worksheet '%s'", title), err)
	}

	return response.Values, nil
}

// Validate rejects tables that exceed the spreadsheet size limits.
func Validate(t *table.Table) error {
	rows, columns := t.Size()

	if columns > MAX_COLUMNS {
		return failure.Errorf(failure.ErrWrite, "%d columns exceeds the worksheet limit of %d columns", columns, MAX_COLUMNS)
	}

	if cells := int64(rows+1) * int64(columns); cells > MAX_CELLS {
		return failure.Errorf(failure.ErrWrite, "%d cells exceeds the spreadsheet limit of %d cells", cells, MAX_CELLS)
	}

	return nil
}

func (c *Client) resize(ctx context.Context, id string, sheet *sheets.Sheet, rows, columns int64) error {
	grid := sheet.Properties.GridProperties
	if grid == nil {
		grid = &sheets.GridProperties{}
	}

	if grid.RowCount >= rows && grid.ColumnCount >= columns {
		return nil
	}

	resized := sheets.GridProperties{
		RowCount:    max(grid.RowCount, rows),
		ColumnCount: max(grid.ColumnCount, columns),
	}

	rq := sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			&sheets.Request{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId:         sheet.Properties.SheetId,
						GridProperties:  &resized,
						ForceSendFields: []string{"SheetId"},
					},
					Fields: "gridProperties.rowCount,gridProperties.columnCount",
				},
			},
		},
	}

	if _, err := c.google.Spreadsheets.BatchUpdate(id, &rq).Context(ctx).Do(); err != nil {
		return classify(failure.ErrWrite, fmt.Sprintf("error resizing worksheet '%s'", sheet.Properties.Title), err)
	}

	c.log.Debug("resized worksheet",
		zap.String("worksheet", sheet.Properties.Title),
		zap.Int64("rows", resized.RowCount),
		zap.Int64("columns", resized.ColumnCount))

	return nil
}

func classify(kind error, op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return failure.New(failure.ErrNotFound, op, err)

		case http.StatusUnauthorized, http.StatusForbidden:
			return failure.New(failure.ErrAuthentication, op, err)
		}
	}

	var tokenErr *oauth2.RetrieveError
	if errors.As(err, &tokenErr) {
		return failure.New(failure.ErrAuthentication, op, err)
	}

	return failure.New(kind, op, err)
}
