package domain

import "time"

// UnitOutcome classifies what happened to one (location, model) pair.
type UnitOutcome string

const (
	UnitOK          UnitOutcome = "ok"
	UnitFetchFailed UnitOutcome = "fetch_failed"
	UnitMalformed   UnitOutcome = "malformed"
	UnitEmpty       UnitOutcome = "empty"
)

// UnitStatus records the outcome of one (location, model) pair.
type UnitStatus struct {
	Location  string      `json:"location"`
	Model     string      `json:"model"`
	Outcome   UnitOutcome `json:"outcome"`
	Summaries int         `json:"summaries"`
	Message   string      `json:"message,omitempty"`
}

// Report is the fused table of one run together with the run's metadata. It
// is what the report sinks consume.
type Report struct {
	GeneratedAt  time.Time         `json:"generated_at"`
	ForecastDays int               `json:"forecast_days"`
	Locations    []Location        `json:"locations"`
	ModelsTried  []Model           `json:"models_tried"`
	Units        []UnitStatus      `json:"units"`
	Rows         []EnsembleSummary `json:"rows"`
}

// NewReport stamps a report with the current clock.
func NewReport(days int, locations []Location, models []Model, units []UnitStatus, rows []EnsembleSummary) Report {
	return Report{
		GeneratedAt:  clock.Now().UTC(),
		ForecastDays: days,
		Locations:    locations,
		ModelsTried:  models,
		Units:        units,
		Rows:         rows,
	}
}

// RowsFor returns the rows of one location in report order.
func (r Report) RowsFor(location string) []EnsembleSummary {
	var out []EnsembleSummary
	for _, row := range r.Rows {
		if row.Location == location {
			out = append(out, row)
		}
	}
	return out
}

// ModelNames returns the names of the models tried, in catalog order.
func (r Report) ModelNames() []string {
	names := make([]string, len(r.ModelsTried))
	for i, m := range r.ModelsTried {
		names[i] = m.Name
	}
	return names
}
