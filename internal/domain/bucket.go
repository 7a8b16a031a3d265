package domain

import (
	"math"
	"sort"
)

// ModelDaypartSummary reduces one model's hours within one (date, day-part)
// bucket. Pointer fields are nil when every source value was missing.
type ModelDaypartSummary struct {
	Location           string     `json:"location"`
	Model              string     `json:"model"`
	Date               string     `json:"date"`
	Daypart            Daypart    `json:"daypart"`
	TemperatureMeanC   *float64   `json:"temperature_mean_c"`
	WindSpeedMeanKmh   *float64   `json:"windspeed_mean_kmh"`
	WindGustMaxKmh     *float64   `json:"windgust_max_kmh"`
	PrecipitationSumMM float64    `json:"precipitation_sum_mm"`
	SnowfallSumMM      float64    `json:"snowfall_sum_mm"`
	PrecipType         PrecipType `json:"precip_type"`
	Fog                bool       `json:"fog"`
	VisibilityMinM     *int       `json:"visibility_min_m"`
}

type bucketKey struct {
	date    string
	daypart Daypart
}

// SummarizeDayparts parses one model's hourly table for one location and
// reduces it to day-part summaries. Parsing failures are returned as
// *MalformedInputError.
func SummarizeDayparts(location, model string, table HourlyTable) ([]ModelDaypartSummary, error) {
	records, err := ParseHourlyTable(table)
	if err != nil {
		return nil, err
	}
	return BucketDayparts(location, model, records), nil
}

// BucketDayparts groups records by calendar date and day-part and reduces
// every non-empty bucket. The result is sorted by date, then day-part.
func BucketDayparts(location, model string, records []HourlyRecord) []ModelDaypartSummary {
	buckets := make(map[bucketKey][]HourlyRecord)
	for _, r := range records {
		part, ok := DaypartForHour(r.Timestamp.Hour())
		if !ok {
			continue
		}
		k := bucketKey{date: r.Date(), daypart: part}
		buckets[k] = append(buckets[k], r)
	}

	keys := make([]bucketKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].date != keys[j].date {
			return keys[i].date < keys[j].date
		}
		return keys[i].daypart < keys[j].daypart
	})

	out := make([]ModelDaypartSummary, 0, len(keys))
	for _, k := range keys {
		out = append(out, summarizeBucket(location, model, k, buckets[k]))
	}
	return out
}

func summarizeBucket(location, model string, k bucketKey, hours []HourlyRecord) ModelDaypartSummary {
	n := len(hours)
	temps := make([]*float64, 0, n)
	winds := make([]*float64, 0, n)
	gusts := make([]*float64, 0, n)
	rains := make([]*float64, 0, n)
	snows := make([]*float64, 0, n)
	vis := make([]*float64, 0, n)
	fog := false

	for _, h := range hours {
		temps = append(temps, h.Temperature)
		winds = append(winds, h.WindSpeed)
		gusts = append(gusts, h.WindGust)
		rains = append(rains, h.PrecipitationMM)
		snows = append(snows, h.SnowfallMM)
		vis = append(vis, h.VisibilityM)
		// Missing codes count as 0, which is not fog.
		if h.WeatherCode != nil && IsFog(*h.WeatherCode) {
			fog = true
		}
	}

	rain := sumOf(rains)
	snow := sumOf(snows)

	var visMin *int
	if v := minOf(vis); v != nil {
		m := int(math.Floor(*v))
		visMin = &m
	}

	return ModelDaypartSummary{
		Location:           location,
		Model:              model,
		Date:               k.date,
		Daypart:            k.daypart,
		TemperatureMeanC:   meanOf(temps),
		WindSpeedMeanKmh:   meanOf(winds),
		WindGustMaxKmh:     maxOf(gusts),
		PrecipitationSumMM: rain,
		SnowfallSumMM:      snow,
		PrecipType:         ClassifyPrecip(rain, snow),
		Fog:                fog,
		VisibilityMinM:     visMin,
	}
}

// SortModelSummaries orders rows by (location, model, date, day-part).
func SortModelSummaries(rows []ModelDaypartSummary) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Location != b.Location {
			return a.Location < b.Location
		}
		if a.Model != b.Model {
			return a.Model < b.Model
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.Daypart < b.Daypart
	})
}
