package render

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/couchcryptid/forecast-ensemble-etl/internal/domain"
)

// CSV writes the ensemble table with a header row.
type CSV struct{}

func (CSV) Name() string        { return "csv" }
func (CSV) Filename() string    { return "forecast_dayparts.csv" }
func (CSV) ContentType() string { return "text/csv; charset=utf-8" }

func (CSV) Render(report domain.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Columns); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(Columns))
	for _, row := range report.Rows {
		for i, v := range values(row) {
			record[i] = formatColumn(Columns[i], v)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write row %s: %w", row.Key(), err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
