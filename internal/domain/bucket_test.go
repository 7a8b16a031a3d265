package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testLocation = "Warszawa"
	testModel    = "gfs"
	testDay1     = "2025-01-10"
	testDay2     = "2025-01-11"
)

// hour is one row of a synthetic hourly table; nil fields are missing values.
type hour struct {
	time string
	temp *float64
	rain *float64
	snow *float64
	wind *float64
	gust *float64
	code *float64
	vis  *float64
}

func f(v float64) *float64 { return &v }

func buildTable(rows ...hour) HourlyTable {
	t := HourlyTable{Time: []string{}, Columns: map[string][]*float64{}}
	for _, name := range HourlyVariables {
		t.Columns[name] = []*float64{}
	}
	for _, r := range rows {
		t.Time = append(t.Time, r.time)
		t.Columns[VarTemperature] = append(t.Columns[VarTemperature], r.temp)
		t.Columns[VarPrecipitation] = append(t.Columns[VarPrecipitation], r.rain)
		t.Columns[VarSnowfall] = append(t.Columns[VarSnowfall], r.snow)
		t.Columns[VarWindSpeed] = append(t.Columns[VarWindSpeed], r.wind)
		t.Columns[VarWindGust] = append(t.Columns[VarWindGust], r.gust)
		t.Columns[VarWeatherCode] = append(t.Columns[VarWeatherCode], r.code)
		t.Columns[VarVisibility] = append(t.Columns[VarVisibility], r.vis)
	}
	return t
}

func fullDay(date string, temp float64) []hour {
	rows := make([]hour, 0, 24)
	for h := 0; h < 24; h++ {
		rows = append(rows, hour{
			time: fmt.Sprintf("%sT%02d:00", date, h),
			temp: f(temp), rain: f(0), snow: f(0),
			wind: f(10), gust: f(20), code: f(0), vis: f(24000),
		})
	}
	return rows
}

func TestSummarizeDayparts_Aggregates(t *testing.T) {
	table := buildTable(
		hour{time: testDay1 + "T06:00", temp: f(2), rain: f(0.2), snow: f(0), wind: f(10), gust: f(30), code: f(3), vis: f(9000.7)},
		hour{time: testDay1 + "T07:00", temp: f(4), rain: f(0.3), snow: f(0.4), wind: f(20), gust: f(45), code: f(45), vis: f(300.2)},
		hour{time: testDay1 + "T08:00", temp: nil, rain: nil, snow: nil, wind: nil, gust: nil, code: nil, vis: nil},
	)

	rows, err := SummarizeDayparts(testLocation, testModel, table)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, testLocation, r.Location)
	assert.Equal(t, testModel, r.Model)
	assert.Equal(t, testDay1, r.Date)
	assert.Equal(t, Morning, r.Daypart)
	require.NotNil(t, r.TemperatureMeanC)
	assert.InDelta(t, 3.0, *r.TemperatureMeanC, 1e-9)
	require.NotNil(t, r.WindSpeedMeanKmh)
	assert.InDelta(t, 15.0, *r.WindSpeedMeanKmh, 1e-9)
	require.NotNil(t, r.WindGustMaxKmh)
	assert.InDelta(t, 45.0, *r.WindGustMaxKmh, 1e-9)
	assert.InDelta(t, 0.5, r.PrecipitationSumMM, 1e-9)
	assert.InDelta(t, 0.4, r.SnowfallSumMM, 1e-9)
	assert.Equal(t, PrecipMixed, r.PrecipType)
	assert.True(t, r.Fog)
	require.NotNil(t, r.VisibilityMinM)
	assert.Equal(t, 300, *r.VisibilityMinM)
}

func TestSummarizeDayparts_AllMissingMetrics(t *testing.T) {
	table := buildTable(
		hour{time: testDay1 + "T19:00"},
		hour{time: testDay1 + "T20:00"},
	)

	rows, err := SummarizeDayparts(testLocation, testModel, table)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, Evening, r.Daypart)
	assert.Nil(t, r.TemperatureMeanC)
	assert.Nil(t, r.WindSpeedMeanKmh)
	assert.Nil(t, r.WindGustMaxKmh)
	assert.Nil(t, r.VisibilityMinM)
	assert.Equal(t, 0.0, r.PrecipitationSumMM)
	assert.Equal(t, 0.0, r.SnowfallSumMM)
	assert.Equal(t, PrecipNone, r.PrecipType)
	assert.False(t, r.Fog)
}

func TestSummarizeDayparts_OmitsEmptyBucketsAndOrders(t *testing.T) {
	// Evening of day 2 first, then morning of day 1: output must be re-ordered
	// and contain no afternoon/night rows.
	table := buildTable(
		hour{time: testDay2 + "T22:00", temp: f(1)},
		hour{time: testDay1 + "T09:00", temp: f(5)},
		hour{time: testDay1 + "T23:00", temp: f(3)},
	)

	rows, err := SummarizeDayparts(testLocation, testModel, table)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, testDay1, rows[0].Date)
	assert.Equal(t, Morning, rows[0].Daypart)
	assert.Equal(t, testDay1, rows[1].Date)
	assert.Equal(t, Evening, rows[1].Daypart)
	assert.Equal(t, testDay2, rows[2].Date)
	assert.Equal(t, Evening, rows[2].Daypart)
}

func TestSummarizeDayparts_FullDayProducesFourParts(t *testing.T) {
	rows, err := SummarizeDayparts(testLocation, testModel, buildTable(fullDay(testDay1, 7)...))
	require.NoError(t, err)
	require.Len(t, rows, 4)
	for i, part := range Dayparts {
		assert.Equal(t, part, rows[i].Daypart)
		assert.InDelta(t, 7.0, *rows[i].TemperatureMeanC, 1e-9)
	}
}

func TestSummarizeDayparts_EmptyTable(t *testing.T) {
	rows, err := SummarizeDayparts(testLocation, testModel, buildTable())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSummarizeDayparts_Malformed(t *testing.T) {
	t.Run("missing column", func(t *testing.T) {
		table := buildTable(hour{time: testDay1 + "T01:00"})
		delete(table.Columns, VarSnowfall)

		_, err := SummarizeDayparts(testLocation, testModel, table)
		var malformed *MalformedInputError
		require.True(t, errors.As(err, &malformed))
		assert.Equal(t, VarSnowfall, malformed.Field)
	})

	t.Run("missing time", func(t *testing.T) {
		table := buildTable(hour{time: testDay1 + "T01:00"})
		table.Time = nil

		_, err := SummarizeDayparts(testLocation, testModel, table)
		var malformed *MalformedInputError
		require.True(t, errors.As(err, &malformed))
		assert.Equal(t, VarTime, malformed.Field)
	})

	t.Run("length mismatch", func(t *testing.T) {
		table := buildTable(hour{time: testDay1 + "T01:00"}, hour{time: testDay1 + "T02:00"})
		table.Columns[VarVisibility] = table.Columns[VarVisibility][:1]

		_, err := SummarizeDayparts(testLocation, testModel, table)
		var malformed *MalformedInputError
		require.True(t, errors.As(err, &malformed))
		assert.Contains(t, err.Error(), VarVisibility)
	})

	t.Run("bad timestamp", func(t *testing.T) {
		table := buildTable(hour{time: "yesterday"})

		_, err := SummarizeDayparts(testLocation, testModel, table)
		var malformed *MalformedInputError
		require.True(t, errors.As(err, &malformed))
		assert.Contains(t, err.Error(), "yesterday")
	})
}

func TestParseHourlyTable_RFC3339KeepsLocalCalendar(t *testing.T) {
	table := buildTable(hour{time: "2025-01-10T23:30:00+01:00", temp: f(1)})

	records, err := ParseHourlyTable(table)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, testDay1, records[0].Date())
	assert.Equal(t, 23, records[0].Timestamp.Hour())
}

func TestSortModelSummaries(t *testing.T) {
	rows := []ModelDaypartSummary{
		{Location: "b", Model: "gfs", Date: testDay1, Daypart: Night},
		{Location: "a", Model: "jma", Date: testDay1, Daypart: Night},
		{Location: "a", Model: "gfs", Date: testDay2, Daypart: Night},
		{Location: "a", Model: "gfs", Date: testDay1, Daypart: Evening},
		{Location: "a", Model: "gfs", Date: testDay1, Daypart: Afternoon},
	}
	SortModelSummaries(rows)

	got := make([]string, len(rows))
	for i, r := range rows {
		got[i] = r.Location + "/" + r.Model + "/" + r.Date + "/" + r.Daypart.String()
	}
	assert.Equal(t, []string{
		"a/gfs/2025-01-10/afternoon",
		"a/gfs/2025-01-10/evening",
		"a/gfs/2025-01-11/night",
		"a/jma/2025-01-10/night",
		"b/gfs/2025-01-10/night",
	}, got)
}
