package domain

import (
	"fmt"
	"math"
	"time"
)

// Hourly variable names as requested from the data source.
const (
	VarTime          = "time"
	VarTemperature   = "temperature_2m"
	VarPrecipitation = "precipitation"
	VarSnowfall      = "snowfall"
	VarWindSpeed     = "windspeed_10m"
	VarWindGust      = "windgusts_10m"
	VarWeatherCode   = "weathercode"
	VarVisibility    = "visibility"
)

// HourlyVariables lists the metric columns every hourly table must carry.
var HourlyVariables = []string{
	VarTemperature,
	VarPrecipitation,
	VarSnowfall,
	VarWindSpeed,
	VarWindGust,
	VarWeatherCode,
	VarVisibility,
}

// localTimeLayout is the wall-clock format returned for a requested timezone.
const localTimeLayout = "2006-01-02T15:04"

// HourlyTable is the column-oriented hourly series of one (location, model)
// pair. A nil cell is a missing value.
type HourlyTable struct {
	Time    []string
	Columns map[string][]*float64
}

// Len returns the number of rows described by the time column.
func (t HourlyTable) Len() int { return len(t.Time) }

// HourlyRecord is one hour of one model's forecast. Timestamp carries the
// local wall clock of the forecast location; nil metrics are missing.
type HourlyRecord struct {
	Timestamp       time.Time
	Temperature     *float64
	PrecipitationMM *float64
	SnowfallMM      *float64
	WindSpeed       *float64
	WindGust        *float64
	WeatherCode     *int
	VisibilityM     *float64
}

// Date returns the calendar date of the record as YYYY-MM-DD.
func (r HourlyRecord) Date() string { return r.Timestamp.Format(time.DateOnly) }

// ParseHourlyTable validates a table and converts it to records. A missing
// column, a column whose length differs from the time column, or an
// unparseable timestamp yields a *MalformedInputError.
func ParseHourlyTable(t HourlyTable) ([]HourlyRecord, error) {
	if t.Time == nil {
		return nil, &MalformedInputError{Field: VarTime, Reason: "column missing"}
	}
	for _, name := range HourlyVariables {
		col, ok := t.Columns[name]
		if !ok {
			return nil, &MalformedInputError{Field: name, Reason: "column missing"}
		}
		if len(col) != len(t.Time) {
			return nil, &MalformedInputError{
				Field:  name,
				Reason: fmt.Sprintf("has %d values, time has %d", len(col), len(t.Time)),
			}
		}
	}

	records := make([]HourlyRecord, 0, len(t.Time))
	for i, raw := range t.Time {
		ts, err := parseTimestamp(raw)
		if err != nil {
			return nil, &MalformedInputError{Field: VarTime, Reason: fmt.Sprintf("row %d: %v", i, err)}
		}
		records = append(records, HourlyRecord{
			Timestamp:       ts,
			Temperature:     cell(t.Columns[VarTemperature][i]),
			PrecipitationMM: cell(t.Columns[VarPrecipitation][i]),
			SnowfallMM:      cell(t.Columns[VarSnowfall][i]),
			WindSpeed:       cell(t.Columns[VarWindSpeed][i]),
			WindGust:        cell(t.Columns[VarWindGust][i]),
			WeatherCode:     intCell(t.Columns[VarWeatherCode][i]),
			VisibilityM:     cell(t.Columns[VarVisibility][i]),
		})
	}
	return records, nil
}

// parseTimestamp accepts the local wall-clock layout and RFC 3339. RFC 3339
// values keep their own offset so Date and Hour stay in the source's calendar.
func parseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(localTimeLayout, s); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
	}
	return ts, nil
}

// cell copies a value, dropping NaN so the caller never sees a non-nil NaN.
func cell(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) {
		return nil
	}
	c := *v
	return &c
}

func intCell(v *float64) *int {
	if v == nil || math.IsNaN(*v) {
		return nil
	}
	c := int(*v)
	return &c
}
