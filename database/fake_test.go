package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"reflect"
	"time"

	mssql "github.com/denisenkom/go-mssqldb"
)

// fakesql is a database/sql driver serving canned result sets keyed by query text.

const FAKE = "fakesql"

type result struct {
	columns []string
	types   []string
	scan    []reflect.Type
	rows    [][]driver.Value
}

var results = map[string]result{
	"SELECT id, signup_date, name FROM mailing": {
		columns: []string{"id", "signup_date", "name"},
		types:   []string{"INT", "DATE", "NVARCHAR"},
		scan:    []reflect.Type{reflect.TypeOf(int64(0)), reflect.TypeOf(time.Time{}), reflect.TypeOf("")},
		rows: [][]driver.Value{
			{int64(1), time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), "Alice"},
		},
	},

	"SELECT * FROM customers": {
		columns: []string{"uuid", "balance", "avatar", "opened", "closed", "call_at", "tag"},
		types:   []string{"UNIQUEIDENTIFIER", "DECIMAL", "VARBINARY", "DATETIME2", "DATETIME", "TIME", "VARCHAR"},
		scan: []reflect.Type{
			reflect.TypeOf([]byte{}),
			reflect.TypeOf([]byte{}),
			reflect.TypeOf([]byte{}),
			reflect.TypeOf(time.Time{}),
			reflect.TypeOf(time.Time{}),
			reflect.TypeOf(time.Time{}),
			reflect.TypeOf(""),
		},
		rows: [][]driver.Value{
			{
				[]byte{0x67, 0x45, 0x23, 0x01, 0xab, 0x89, 0xef, 0xcd, 0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef},
				[]byte("1234.50"),
				[]byte{0xca, 0xfe},
				time.Date(2023, time.December, 31, 23, 59, 59, 0, time.UTC),
				nil,
				time.Date(1, time.January, 1, 9, 30, 0, 0, time.UTC),
				"vip",
			},
		},
	},

	"SELECT 1 WHERE 1 = 0": {
		columns: []string{"x"},
		types:   []string{"INT"},
		scan:    []reflect.Type{reflect.TypeOf(int64(0))},
		rows:    [][]driver.Value{},
	},
}

var syntaxError = mssql.Error{
	Number:  102,
	State:   1,
	Class:   15,
	Message: "Incorrect syntax near 'FORM'.",
	LineNo:  1,
}

func init() {
	sql.Register(FAKE, fakeDriver{})
}

type fakeDriver struct{}

func (fakeDriver) Open(name string) (driver.Conn, error) {
	if name == "unreachable" {
		return nil, errors.New("dial tcp 10.255.255.1:1433: i/o timeout")
	}

	return &fakeConn{}, nil
}

type fakeConn struct{}

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements not supported")
}

func (c *fakeConn) Close() error {
	return nil
}

func (c *fakeConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

func (c *fakeConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if r, ok := results[query]; ok {
		return &fakeRows{result: r}, nil
	}

	return nil, syntaxError
}

type fakeRows struct {
	result result
	index  int
}

func (r *fakeRows) Columns() []string {
	return r.result.columns
}

func (r *fakeRows) Close() error {
	return nil
}

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.index >= len(r.result.rows) {
		return io.EOF
	}

	copy(dest, r.result.rows[r.index])
	r.index++

	return nil
}

func (r *fakeRows) ColumnTypeDatabaseTypeName(index int) string {
	return r.result.types[index]
}

func (r *fakeRows) ColumnTypeScanType(index int) reflect.Type {
	return r.result.scan[index]
}
