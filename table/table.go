// Package table holds the in-memory result of the mailing query and converts it
// to the row/column payload written to the worksheet.
package table

import (
	"fmt"
	"time"
)

// DateLayout is the DD/MM/YYYY rendering of date/time columns.
const DateLayout = "02/01/2006"

// Column describes one column of the query result.
type Column struct {
	Name         string
	DatabaseType string
	Date         bool
}

// Table is the query result: named, typed columns and ordered rows. Each row
// holds one value per column.
type Table struct {
	Columns []Column
	Rows    [][]any
}

// Header returns the column names in query order.
func (t *Table) Header() []string {
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Name
	}

	return header
}

// FormatDates replaces every time.Time value in the date columns with its
// DD/MM/YYYY rendering. NULLs are left as nil and every other column is untouched.
func (t *Table) FormatDates() {
	for ix, column := range t.Columns {
		if !column.Date {
			continue
		}

		for _, row := range t.Rows {
			if ix >= len(row) {
				continue
			}

			if v, ok := row[ix].(time.Time); ok {
				row[ix] = v.Format(DateLayout)
			}
		}
	}
}

// Values returns the header row followed by the data rows in the form expected
// by the Sheets API. NULLs become empty cells and []byte values are decoded as text.
func (t *Table) Values() [][]any {
	values := make([][]any, 0, len(t.Rows)+1)

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Name
	}

	values = append(values, header)

	for _, row := range t.Rows {
		record := make([]any, len(t.Columns))
		for i := range record {
			if i < len(row) {
				record[i] = cell(t.Columns[i], row[i])
			} else {
				record[i] = ""
			}
		}

		values = append(values, record)
	}

	return values
}

// Size returns the number of data rows and columns.
func (t *Table) Size() (rows int, columns int) {
	return len(t.Rows), len(t.Columns)
}

func cell(column Column, v any) any {
	switch value := v.(type) {
	case nil:
		return ""

	case []byte:
		return string(value)

	case time.Time:
		if column.DatabaseType == "TIME" || column.DatabaseType == "TIMETZ" {
			return value.Format("15:04:05")
		}
		return value.Format("2006-01-02 15:04:05")

	case fmt.Stringer:
		return value.String()

	default:
		return v
	}
}
