// Package render turns a fused report into downloadable artifacts and hands
// them to an artifact store.
package render

import (
	"context"
	"fmt"
	"strconv"

	"github.com/couchcryptid/forecast-ensemble-etl/internal/domain"
)

// Renderer produces one artifact from a report.
type Renderer interface {
	Name() string
	Filename() string
	ContentType() string
	Render(report domain.Report) ([]byte, error)
}

// Store persists rendered artifacts under a name.
type Store interface {
	Put(ctx context.Context, name, contentType string, data []byte) error
}

// Sink renders a report and stores the result. It implements pipeline.Sink.
type Sink struct {
	renderer Renderer
	store    Store
}

// NewSink pairs a renderer with the store its output goes to.
func NewSink(r Renderer, s Store) *Sink {
	return &Sink{renderer: r, store: s}
}

func (s *Sink) Name() string { return s.renderer.Name() }

func (s *Sink) Write(ctx context.Context, report domain.Report) error {
	data, err := s.renderer.Render(report)
	if err != nil {
		return fmt.Errorf("render %s: %w", s.renderer.Name(), err)
	}
	if err := s.store.Put(ctx, s.renderer.Filename(), s.renderer.ContentType(), data); err != nil {
		return fmt.Errorf("store %s: %w", s.renderer.Filename(), err)
	}
	return nil
}

// Columns is the tabular column set shared by the CSV and XLSX outputs.
var Columns = []string{
	"location",
	"date",
	"daypart",
	"temperature_mean_c",
	"windspeed_mean_kmh",
	"windgust_max_kmh",
	"precipitation_sum_mm",
	"snowfall_sum_mm",
	"precip_type",
	"fog",
	"visibility_min_m",
	"models_used",
	"models_used_count",
	"snow_min_mm",
	"snow_max_mm",
	"snow_p90_mm",
	"snow_models_count",
	"snow_models_pct",
}

// unroundedColumns are printed at full precision in text outputs so they
// agree with snow_models_count at the 0.1 mm threshold.
var unroundedColumns = map[string]bool{
	"snow_min_mm": true,
	"snow_max_mm": true,
	"snow_p90_mm": true,
}

// values returns the cells of one row in Columns order. Missing values are
// nil.
func values(e domain.EnsembleSummary) []any {
	return []any{
		e.Location,
		e.Date,
		e.Daypart.String(),
		floatOrNil(e.TemperatureMeanC),
		floatOrNil(e.WindSpeedMeanKmh),
		floatOrNil(e.WindGustMaxKmh),
		floatOrNil(e.PrecipitationSumMM),
		floatOrNil(e.SnowfallSumMM),
		precipOrNil(e.PrecipType),
		boolOrNil(e.Fog),
		intOrNil(e.VisibilityMinM),
		e.ModelsUsed,
		e.ModelsUsedCount,
		e.SnowMinMM,
		e.SnowMaxMM,
		e.SnowP90MM,
		e.SnowModelsCount,
		e.SnowModelsPct,
	}
}

func floatOrNil(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func intOrNil(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func boolOrNil(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}

func precipOrNil(p *domain.PrecipType) any {
	if p == nil {
		return nil
	}
	return string(*p)
}

// formatCell renders a cell for text outputs: one decimal for floats, empty
// for missing values.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', 1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// formatColumn is formatCell with full float precision for unroundedColumns.
func formatColumn(col string, v any) string {
	if x, ok := v.(float64); ok && unroundedColumns[col] {
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return formatCell(v)
}
