package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/forecast-ensemble-etl/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	runSheet      = "Run"
	maxSheetName  = 31
	defaultSheet  = "Sheet1"
	xlsxColWidth  = 16.0
	xlsxWideWidth = 28.0
)

// XLSX writes a workbook with one sheet per location and a "Run" sheet with
// per-unit outcomes.
type XLSX struct{}

func (XLSX) Name() string     { return "xlsx" }
func (XLSX) Filename() string { return "forecast_report.xlsx" }
func (XLSX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSX) Render(report domain.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   "Multi-model daypart forecast",
		Subject: fmt.Sprintf("%d-day forecast for %d locations", report.ForecastDays, len(report.Locations)),
		Creator: "forecast-ensemble",
		Created: report.GeneratedAt.Format(time.RFC3339),
	}); err != nil {
		return nil, fmt.Errorf("set doc props: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	names := sheetNames(report.Locations)
	for i, loc := range report.Locations {
		if err := addSheet(f, names[i], i == 0); err != nil {
			return nil, err
		}
		if err := writeLocationSheet(f, names[i], report.RowsFor(loc.Name), bold); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", names[i], err)
		}
	}
	if err := addSheet(f, runSheet, len(report.Locations) == 0); err != nil {
		return nil, err
	}
	if err := writeRunSheet(f, report, bold); err != nil {
		return nil, fmt.Errorf("sheet %s: %w", runSheet, err)
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// addSheet renames the default sheet for the first sheet and appends the rest.
func addSheet(f *excelize.File, name string, first bool) error {
	if first {
		if err := f.SetSheetName(defaultSheet, name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
		return nil
	}
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	return nil
}

func writeLocationSheet(f *excelize.File, sheet string, rows []domain.EnsembleSummary, header int) error {
	if err := writeHeader(f, sheet, Columns, header); err != nil {
		return err
	}
	for i, row := range rows {
		vals := values(row)
		if err := f.SetSheetRow(sheet, cell(1, i+2), &vals); err != nil {
			return fmt.Errorf("write row %s: %w", row.Key(), err)
		}
	}

	last := colName(len(Columns))
	if err := f.SetColWidth(sheet, "A", last, xlsxColWidth); err != nil {
		return err
	}
	// models_used holds the comma-separated model list.
	modelsCol := colName(12)
	if err := f.SetColWidth(sheet, modelsCol, modelsCol, xlsxWideWidth); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeRunSheet(f *excelize.File, report domain.Report, header int) error {
	meta := [][]any{
		{"generated_at", report.GeneratedAt.Format(time.RFC3339)},
		{"forecast_days", report.ForecastDays},
		{"models_tried", strings.Join(report.ModelNames(), domain.ModelsUsedSeparator)},
		{"ensemble_rows", len(report.Rows)},
	}
	for i, m := range meta {
		if err := f.SetSheetRow(runSheet, cell(1, i+1), &m); err != nil {
			return err
		}
	}

	start := len(meta) + 2
	unitHeader := []string{"location", "model", "outcome", "summaries", "message"}
	if err := writeHeaderAt(f, runSheet, unitHeader, start, header); err != nil {
		return err
	}
	for i, u := range report.Units {
		row := []any{u.Location, u.Model, string(u.Outcome), u.Summaries, u.Message}
		if err := f.SetSheetRow(runSheet, cell(1, start+i+1), &row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(runSheet, "A", "D", xlsxColWidth); err != nil {
		return err
	}
	return f.SetColWidth(runSheet, "E", "E", 60)
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	return writeHeaderAt(f, sheet, headers, 1, style)
}

func writeHeaderAt(f *excelize.File, sheet string, headers []string, row, style int) error {
	if err := f.SetSheetRow(sheet, cell(1, row), &headers); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell(1, row), cell(len(headers), row), style)
}

// sheetNames derives unique, valid worksheet names from location names.
func sheetNames(locs []domain.Location) []string {
	replacer := strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")")
	seen := make(map[string]bool, len(locs)+1)
	seen[strings.ToLower(runSheet)] = true

	out := make([]string, len(locs))
	for i, loc := range locs {
		base := truncateRunes(strings.Trim(replacer.Replace(loc.Name), "'"), maxSheetName)
		if base == "" {
			base = fmt.Sprintf("Location %d", i+1)
		}
		name := base
		for n := 2; seen[strings.ToLower(name)]; n++ {
			suffix := fmt.Sprintf(" (%d)", n)
			name = truncateRunes(base, maxSheetName-len(suffix)) + suffix
		}
		seen[strings.ToLower(name)] = true
		out[i] = name
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func cell(col, row int) string {
	c, _ := excelize.CoordinatesToCellName(col, row)
	return c
}

func colName(col int) string {
	name, _ := excelize.ColumnNumberToName(col)
	return name
}
