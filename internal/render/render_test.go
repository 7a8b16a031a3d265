package render

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/forecast-ensemble-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func testReport() domain.Report {
	rain := domain.PrecipRain
	none := domain.PrecipNone
	fog, clear := true, false
	vis := 180

	return domain.Report{
		GeneratedAt:  time.Date(2025, time.January, 10, 5, 0, 0, 0, time.UTC),
		ForecastDays: 7,
		Locations: []domain.Location{
			{Name: "Warszawa", Lat: 52.2297, Lon: 21.0122},
			{Name: "Kielno (gm. Szemud)", Lat: 54.4667, Lon: 18.3833},
		},
		ModelsTried: []domain.Model{{Name: "gfs"}, {Name: "dwd_icon"}, {Name: "jma"}},
		Units: []domain.UnitStatus{
			{Location: "Warszawa", Model: "gfs", Outcome: domain.UnitOK, Summaries: 2},
			{Location: "Warszawa", Model: "dwd_icon", Outcome: domain.UnitOK, Summaries: 2},
			{Location: "Warszawa", Model: "jma", Outcome: domain.UnitFetchFailed, Message: "fetch Warszawa/jma: timeout"},
		},
		Rows: []domain.EnsembleSummary{
			{
				Location: "Warszawa", Date: "2025-01-10", Daypart: domain.Night,
				TemperatureMeanC: fp(-2.5), WindSpeedMeanKmh: fp(11.3), WindGustMaxKmh: fp(24),
				PrecipitationSumMM: fp(0), SnowfallSumMM: fp(0),
				PrecipType: &none, Fog: &fog, VisibilityMinM: &vis,
				ModelsUsed: "dwd_icon, gfs", ModelsUsedCount: 2,
			},
			{
				Location: "Warszawa", Date: "2025-01-10", Daypart: domain.Morning,
				TemperatureMeanC: fp(1.2), WindSpeedMeanKmh: nil, WindGustMaxKmh: fp(30.5),
				PrecipitationSumMM: fp(1.4), SnowfallSumMM: fp(0.3),
				PrecipType: &rain, Fog: &clear, VisibilityMinM: nil,
				ModelsUsed: "dwd_icon, gfs", ModelsUsedCount: 2,
				SnowMinMM: 0.1, SnowMaxMM: 0.5, SnowP90MM: 0.5, SnowModelsCount: 2, SnowModelsPct: 100,
			},
		},
	}
}

type memoryStore struct {
	objects      map[string][]byte
	contentTypes map[string]string
	err          error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (m *memoryStore) Put(_ context.Context, name, contentType string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.objects[name] = data
	m.contentTypes[name] = contentType
	return nil
}

func TestSink_WritesRenderedArtifact(t *testing.T) {
	store := newMemoryStore()
	sink := NewSink(CSV{}, store)

	require.NoError(t, sink.Write(context.Background(), testReport()))
	assert.Equal(t, "csv", sink.Name())
	require.Contains(t, store.objects, "forecast_dayparts.csv")
	assert.Equal(t, "text/csv; charset=utf-8", store.contentTypes["forecast_dayparts.csv"])
}

func TestSink_StoreError(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("bucket gone")

	err := NewSink(HTML{}, store).Write(context.Background(), testReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forecast_report.html")
	assert.ErrorIs(t, err, store.err)
}

func TestRenderers_EmptyReport(t *testing.T) {
	report := domain.Report{GeneratedAt: time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)}
	for _, r := range []Renderer{CSV{}, HTML{}, XLSX{}, Parquet{}} {
		t.Run(r.Name(), func(t *testing.T) {
			data, err := r.Render(report)
			require.NoError(t, err)
			assert.NotEmpty(t, data)
		})
	}
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"gfs", "gfs"},
		{11.0, "11.0"},
		{-0.26, "-0.3"},
		{67, "67"},
		{true, "true"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatCell(tt.in))
	}
}

func TestFormatColumn_SnowStatisticsKeepPrecision(t *testing.T) {
	tests := []struct {
		col  string
		in   any
		want string
	}{
		{"snow_min_mm", 0.06, "0.06"},
		{"snow_max_mm", 0.07, "0.07"},
		{"snow_p90_mm", 2.0, "2"},
		{"snowfall_sum_mm", 0.06, "0.1"},
		{"snow_models_pct", 50, "50"},
	}
	for _, tt := range tests {
		t.Run(tt.col, func(t *testing.T) {
			assert.Equal(t, tt.want, formatColumn(tt.col, tt.in))
		})
	}
}
