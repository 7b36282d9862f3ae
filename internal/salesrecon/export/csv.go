// Package export renders derived sale-line tables for download.
package export

import (
	"encoding/csv"
	"io"

	"github.com/odyssey-erp/salesrecon/internal/salesrecon/derive"
)

// WriteTableCSV emits one header row of column titles followed by one
// record per table row. Blank values are empty cells.
func WriteTableCSV(w io.Writer, table derive.Table) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col.Title
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row.Values) {
				record[i] = row.Values[i].String()
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
