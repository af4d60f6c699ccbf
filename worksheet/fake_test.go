package worksheet

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/sheets/v4"
)

const SPREADSHEET = "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms"

// fakeSheets is a minimal Google Sheets v4 and OAuth2 token endpoint.
type fakeSheets struct {
	sync.Mutex
	*httptest.Server

	sheets   []*sheets.SheetProperties
	values   map[string][][]any
	requests []string
	tokens   int

	rejectTokens bool
	writeStatus  int
}

func newFakeSheets(t *testing.T) *fakeSheets {
	t.Helper()

	f := &fakeSheets{
		sheets: []*sheets.SheetProperties{
			{SheetId: 0, Title: "Summary", GridProperties: &sheets.GridProperties{RowCount: 1000, ColumnCount: 26}},
			{SheetId: 7, Title: "MAILING_RECONQUISTA", GridProperties: &sheets.GridProperties{RowCount: 2, ColumnCount: 2}},
		},
		values: map[string][][]any{
			"MAILING_RECONQUISTA": {{"stale"}, {"data"}},
		},
	}

	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)

	return f
}

func (f *fakeSheets) serve(w http.ResponseWriter, rq *http.Request) {
	f.Lock()
	defer f.Unlock()

	path := rq.URL.Path
	f.requests = append(f.requests, rq.Method+" "+path)

	if path == "/token" {
		f.token(w)
		return
	}

	if rq.Header.Get("Authorization") != "Bearer ya29.test" {
		reply(w, http.StatusUnauthorized, errorBody(http.StatusUnauthorized, "Request had invalid authentication credentials."))
		return
	}

	prefix := "/v4/spreadsheets/" + SPREADSHEET
	if !strings.HasPrefix(path, prefix) {
		reply(w, http.StatusNotFound, errorBody(http.StatusNotFound, "Requested entity was not found."))
		return
	}

	path = strings.TrimPrefix(path, prefix)

	switch {
	case rq.Method == http.MethodGet && path == "":
		list := []*sheets.Sheet{}
		for _, p := range f.sheets {
			list = append(list, &sheets.Sheet{Properties: p})
		}

		reply(w, http.StatusOK, sheets.Spreadsheet{SpreadsheetId: SPREADSHEET, Sheets: list})

	case rq.Method == http.MethodPost && path == ":batchUpdate":
		var body sheets.BatchUpdateSpreadsheetRequest
		json.NewDecoder(rq.Body).Decode(&body)

		for _, r := range body.Requests {
			if u := r.UpdateSheetProperties; u != nil {
				for _, p := range f.sheets {
					if p.SheetId == u.Properties.SheetId {
						p.GridProperties = u.Properties.GridProperties
					}
				}
			}
		}

		reply(w, http.StatusOK, sheets.BatchUpdateSpreadsheetResponse{SpreadsheetId: SPREADSHEET})

	case rq.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		title := unquote(strings.TrimSuffix(strings.TrimPrefix(path, "/values/"), ":clear"))
		delete(f.values, title)

		reply(w, http.StatusOK, sheets.ClearValuesResponse{SpreadsheetId: SPREADSHEET, ClearedRange: title})

	case rq.Method == http.MethodPut && strings.HasPrefix(path, "/values/"):
		if f.writeStatus != 0 {
			reply(w, f.writeStatus, errorBody(f.writeStatus, "Quota exceeded for quota metric 'Write requests'."))
			return
		}

		if rq.URL.Query().Get("valueInputOption") != "RAW" {
			reply(w, http.StatusBadRequest, errorBody(http.StatusBadRequest, "Invalid valueInputOption"))
			return
		}

		var body sheets.ValueRange
		json.NewDecoder(rq.Body).Decode(&body)

		title := unquote(strings.TrimSuffix(strings.TrimPrefix(path, "/values/"), "!A1"))
		f.values[title] = body.Values

		cells := 0
		for _, row := range body.Values {
			cells += len(row)
		}

		reply(w, http.StatusOK, sheets.UpdateValuesResponse{
			SpreadsheetId: SPREADSHEET,
			UpdatedRange:  body.Range,
			UpdatedRows:   int64(len(body.Values)),
			UpdatedCells:  int64(cells),
		})

	case rq.Method == http.MethodGet && strings.HasPrefix(path, "/values/"):
		title := unquote(strings.TrimPrefix(path, "/values/"))

		reply(w, http.StatusOK, sheets.ValueRange{Range: title, Values: f.values[title]})

	default:
		reply(w, http.StatusNotFound, errorBody(http.StatusNotFound, "Requested entity was not found."))
	}
}

func (f *fakeSheets) token(w http.ResponseWriter) {
	f.tokens++

	if f.rejectTokens {
		reply(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_grant",
			"error_description": "Invalid JWT Signature.",
		})
		return
	}

	reply(w, http.StatusOK, map[string]any{
		"access_token": "ya29.test",
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (f *fakeSheets) worksheet(title string) [][]any {
	f.Lock()
	defer f.Unlock()

	return f.values[title]
}

func (f *fakeSheets) grid(title string) *sheets.GridProperties {
	f.Lock()
	defer f.Unlock()

	for _, p := range f.sheets {
		if p.Title == title {
			return p.GridProperties
		}
	}

	return nil
}

func (f *fakeSheets) calls() []string {
	f.Lock()
	defer f.Unlock()

	return append([]string{}, f.requests...)
}

// credentials writes a service account key file whose token endpoint is the fake server.
func (f *fakeSheets) credentials(t *testing.T) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	block := pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}

	b, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     "mailing",
		"private_key_id": "0123456789abcdef",
		"private_key":    string(pem.EncodeToMemory(&block)),
		"client_email":   "mailing-sync@mailing.iam.gserviceaccount.com",
		"client_id":      "100000000000000000001",
		"token_uri":      f.URL + "/token",
	})
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "g_creds.json")
	require.NoError(t, os.WriteFile(file, b, 0o600))

	return file
}

func reply(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func errorBody(code int, message string) map[string]any {
	return map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
}

func unquote(title string) string {
	title = strings.TrimPrefix(title, "'")
	title = strings.TrimSuffix(title, "'")

	return strings.ReplaceAll(title, "''", "'")
}
