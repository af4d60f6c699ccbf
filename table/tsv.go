package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// WriteTSV writes worksheet values (header row first) as tab separated values.
// Short rows are padded to the header width.
func WriteTSV(f io.Writer, values [][]any) error {
	if len(values) == 0 {
		return fmt.Errorf("Empty sheet")
	}

	// ... header
	row := values[0]
	header := make([]string, len(row))
	for i, v := range row {
		header[i] = clean(v)
	}

	if len(header) == 0 {
		return fmt.Errorf("Missing/invalid header row")
	}

	// ... records
	records := [][]string{}
	for _, row := range values[1:] {
		record := make([]string, len(header))
		for i := range record {
			if i < len(row) {
				record[i] = clean(row[i])
			}
		}

		records = append(records, record)
	}

	// ... write to file
	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := w.Write(header); err != nil {
		return err
	}

	for _, record := range records {
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

func clean(v any) string {
	if v == nil {
		return ""
	}

	return strings.TrimSpace(fmt.Sprintf("%v", v))
}
