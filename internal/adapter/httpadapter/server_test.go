package httpadapter_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/forecast-ensemble-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/forecast-ensemble-etl/internal/domain"
	"github.com/couchcryptid/forecast-ensemble-etl/internal/observability"
	"github.com/couchcryptid/forecast-ensemble-etl/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockReports struct {
	report *domain.Report
}

func (m *mockReports) LatestReport() (domain.Report, bool) {
	if m.report == nil {
		return domain.Report{}, false
	}
	return *m.report, true
}

func sampleReport() *domain.Report {
	temp := 3.4
	return &domain.Report{
		GeneratedAt:  time.Date(2025, time.January, 10, 5, 0, 0, 0, time.UTC),
		ForecastDays: 7,
		Locations:    []domain.Location{{Name: "Warszawa", Lat: 52.2297, Lon: 21.0122}},
		ModelsTried:  []domain.Model{{Name: "gfs"}},
		Rows: []domain.EnsembleSummary{{
			Location: "Warszawa", Date: "2025-01-10", Daypart: domain.Afternoon,
			TemperatureMeanC: &temp, ModelsUsed: "gfs", ModelsUsedCount: 1,
		}},
	}
}

func newTestServer(readyErr error, report *domain.Report) *httpadapter.Server {
	metrics := observability.NewMetricsForTesting()
	metrics.EnsembleRows.Set(1)
	return httpadapter.NewServer(":0",
		&mockReadiness{err: readyErr},
		&mockReports{report: report},
		[]render.Renderer{render.CSV{}, render.HTML{}},
		metrics.Gatherer(),
		slog.Default(),
	)
}

func get(srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(newTestServer(nil, nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(newTestServer(nil, sampleReport()), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(newTestServer(fmt.Errorf("no run has completed yet"), nil), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(newTestServer(nil, nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "forecast_ensemble_ensemble_rows 1")
}

func TestReport_NotFoundBeforeFirstRun(t *testing.T) {
	rec := get(newTestServer(nil, nil), "/report")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(newTestServer(nil, nil), "/report/csv")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReport_ReturnsLatestJSON(t *testing.T) {
	rec := get(newTestServer(nil, sampleReport()), "/report")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got domain.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Rows, 1)
	assert.Equal(t, domain.Afternoon, got.Rows[0].Daypart)
	assert.Equal(t, 3.4, *got.Rows[0].TemperatureMeanC)
	assert.Contains(t, rec.Body.String(), `"daypart":"afternoon"`)
}

func TestReport_RenderedFormats(t *testing.T) {
	srv := newTestServer(nil, sampleReport())

	rec := get(srv, "/report/csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "forecast_dayparts.csv")
	assert.Contains(t, rec.Body.String(), "Warszawa,2025-01-10,afternoon,3.4")

	rec = get(srv, "/report/html")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h2>Warszawa</h2>")

	rec = get(srv, "/report/pdf")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
