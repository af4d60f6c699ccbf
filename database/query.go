package database

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	mssql "github.com/denisenkom/go-mssqldb"
	"github.com/lib/pq"

	"github.com/reconquista/mailing-sync/failure"
	"github.com/reconquista/mailing-sync/table"
)

var dateTypes = map[string]bool{
	"DATE":           true,
	"DATETIME":       true,
	"DATETIME2":      true,
	"SMALLDATETIME":  true,
	"DATETIMEOFFSET": true,
	"TIMESTAMP":      true,
	"TIMESTAMPTZ":    true,
}

var timeOfDay = map[string]bool{
	"TIME":   true,
	"TIMETZ": true,
}

var binaryTypes = map[string]bool{
	"BINARY":    true,
	"VARBINARY": true,
	"IMAGE":     true,
	"BYTEA":     true,
}

var timeType = reflect.TypeOf(time.Time{})

// Query executes the query once and returns the complete result set.
func (d *DB) Query(ctx context.Context, query string) (*table.Table, error) {
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, failure.New(failure.ErrQueryExecution, "failed to execute query", describe(err))
	}

	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, failure.New(failure.ErrQueryExecution, "failed to get column types", describe(err))
	}

	columns := make([]table.Column, len(types))
	for i, ct := range types {
		name := strings.ToUpper(ct.DatabaseTypeName())

		columns[i] = table.Column{
			Name:         ct.Name(),
			DatabaseType: name,
			Date:         isDate(name, ct.ScanType()),
		}
	}

	t := table.Table{
		Columns: columns,
		Rows:    [][]any{},
	}

	for rows.Next() {
		values := make([]any, len(columns))
		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}

		if err := rows.Scan(scanArgs...); err != nil {
			return nil, failure.New(failure.ErrQueryExecution, "failed to scan row", describe(err))
		}

		for i, v := range values {
			values[i] = normalise(columns[i], v)
		}

		t.Rows = append(t.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, failure.New(failure.ErrQueryExecution, "error iterating rows", describe(err))
	}

	return &t, nil
}

func isDate(name string, scanType reflect.Type) bool {
	if timeOfDay[name] {
		return false
	}

	if dateTypes[name] {
		return true
	}

	return scanType == timeType
}

func normalise(column table.Column, v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}

	switch {
	case column.DatabaseType == "UNIQUEIDENTIFIER":
		var id mssql.UniqueIdentifier
		if err := id.Scan(b); err == nil {
			return id.String()
		}

	case binaryTypes[column.DatabaseType]:
		return "0x" + strings.ToUpper(hex.EncodeToString(b))
	}

	return string(b)
}

// describe adds the server side error details to driver errors. The driver message
// is always kept.
func describe(err error) error {
	var sqlErr mssql.Error
	if errors.As(err, &sqlErr) {
		return fmt.Errorf("msg %d, level %d, state %d, line %d (%w)", sqlErr.Number, sqlErr.Class, sqlErr.State, sqlErr.LineNo, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Detail != "" {
			return fmt.Errorf("SQLSTATE %s, %s (%w)", pqErr.Code, pqErr.Detail, err)
		}

		return fmt.Errorf("SQLSTATE %s (%w)", pqErr.Code, err)
	}

	return err
}
