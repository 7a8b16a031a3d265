package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/couchcryptid/forecast-ensemble-etl/internal/domain"
)

//go:embed templates/report.html.tmpl
var reportTemplate string

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"num": func(p *float64) string {
		if p == nil {
			return ""
		}
		return strconv.FormatFloat(*p, 'f', 1, 64)
	},
	"whole": func(p *int) string {
		if p == nil {
			return ""
		}
		return strconv.Itoa(*p)
	},
	"precip": func(p *domain.PrecipType) string {
		if p == nil {
			return ""
		}
		return string(*p)
	},
	"fog": func(p *bool) string {
		if p != nil && *p {
			return "YES"
		}
		return ""
	},
}).Parse(reportTemplate))

// plotlyURL is the Plotly bundle the page loads.
const plotlyURL = "https://cdn.plot.ly/plotly-2.30.0.min.js"

// HTML renders a self-contained page with one section per location: four
// charts by day-part and the day-by-day-part table.
type HTML struct{}

func (HTML) Name() string        { return "html" }
func (HTML) Filename() string    { return "forecast_report.html" }
func (HTML) ContentType() string { return "text/html; charset=utf-8" }

type htmlPage struct {
	Title       string
	PlotlyURL   string
	GeneratedAt string
	Days        int
	Models      []string
	Sections    []htmlSection
	Skipped     []domain.UnitStatus
	Charts      []chart
}

type htmlSection struct {
	Anchor string
	Name   string
	Rows   []domain.EnsembleSummary
	Charts []chart
}

// chart is serialized into the page script and passed to Plotly.newPlot.
type chart struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	YTitle string  `json:"ytitle"`
	Traces []trace `json:"traces"`
}

type trace struct {
	Name string     `json:"name"`
	Type string     `json:"type"`
	Mode string     `json:"mode,omitempty"`
	X    []string   `json:"x"`
	Y    []*float64 `json:"y"`
}

func (HTML) Render(report domain.Report) ([]byte, error) {
	page := htmlPage{
		Title:       fmt.Sprintf("Weather report: %d days × 4 dayparts, multi-model mean", report.ForecastDays),
		PlotlyURL:   plotlyURL,
		GeneratedAt: report.GeneratedAt.Format(time.RFC3339),
		Days:        report.ForecastDays,
		Models:      report.ModelNames(),
	}
	for _, u := range report.Units {
		if u.Outcome != domain.UnitOK {
			page.Skipped = append(page.Skipped, u)
		}
	}
	for i, loc := range report.Locations {
		rows := report.RowsFor(loc.Name)
		anchor := "loc-" + strconv.Itoa(i+1)
		charts := locationCharts(anchor, loc.Name, rows)
		page.Sections = append(page.Sections, htmlSection{
			Anchor: anchor,
			Name:   loc.Name,
			Rows:   rows,
			Charts: charts,
		})
		page.Charts = append(page.Charts, charts...)
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}
	return buf.Bytes(), nil
}

func locationCharts(anchor, name string, rows []domain.EnsembleSummary) []chart {
	metrics := []struct {
		id, title, ytitle, kind string
		get                     func(domain.EnsembleSummary) *float64
	}{
		{"temp", "Temperature (model mean)", "°C", "scatter", func(e domain.EnsembleSummary) *float64 { return e.TemperatureMeanC }},
		{"wind", "Wind (model mean)", "km/h", "scatter", func(e domain.EnsembleSummary) *float64 { return e.WindSpeedMeanKmh }},
		{"gust", "Gusts (max, model mean)", "km/h", "scatter", func(e domain.EnsembleSummary) *float64 { return e.WindGustMaxKmh }},
		{"precip", "Precipitation (sum, model mean)", "mm", "bar", func(e domain.EnsembleSummary) *float64 { return e.PrecipitationSumMM }},
	}

	charts := make([]chart, 0, len(metrics))
	for _, m := range metrics {
		c := chart{
			ID:     anchor + "-" + m.id,
			Title:  m.title + " – " + name,
			YTitle: m.ytitle,
		}
		for _, part := range domain.Dayparts {
			t := trace{Name: part.String(), Type: m.kind}
			if m.kind == "scatter" {
				t.Mode = "lines+markers"
			}
			for _, row := range rows {
				if row.Daypart != part {
					continue
				}
				t.X = append(t.X, row.Date)
				t.Y = append(t.Y, m.get(row))
			}
			if len(t.X) > 0 {
				c.Traces = append(c.Traces, t)
			}
		}
		charts = append(charts, c)
	}
	return charts
}
