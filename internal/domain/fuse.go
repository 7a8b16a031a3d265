package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SnowPresentThresholdMM is the per-model snowfall at which a model counts as
// forecasting snow.
const SnowPresentThresholdMM = 0.1

// ModelsUsedSeparator joins contributing model names.
const ModelsUsedSeparator = ", "

// EnsembleSummary is the cross-model consensus for one (location, date,
// day-part). Pointer fields are nil when no contributing model had a value.
type EnsembleSummary struct {
	Location           string      `json:"location"`
	Date               string      `json:"date"`
	Daypart            Daypart     `json:"daypart"`
	TemperatureMeanC   *float64    `json:"temperature_mean_c"`
	WindSpeedMeanKmh   *float64    `json:"windspeed_mean_kmh"`
	WindGustMaxKmh     *float64    `json:"windgust_max_kmh"`
	PrecipitationSumMM *float64    `json:"precipitation_sum_mm"`
	SnowfallSumMM      *float64    `json:"snowfall_sum_mm"`
	PrecipType         *PrecipType `json:"precip_type"`
	Fog                *bool       `json:"fog"`
	VisibilityMinM     *int        `json:"visibility_min_m"`
	ModelsUsed         string      `json:"models_used"`
	ModelsUsedCount    int         `json:"models_used_count"`
	SnowMinMM          float64     `json:"snow_min_mm"`
	SnowMaxMM          float64     `json:"snow_max_mm"`
	SnowP90MM          float64     `json:"snow_p90_mm"`
	SnowModelsCount    int         `json:"snow_models_count"`
	SnowModelsPct      int         `json:"snow_models_pct"`
}

// Key renders the row identity as location|date|daypart.
func (e EnsembleSummary) Key() string {
	return e.Location + "|" + e.Date + "|" + e.Daypart.String()
}

type ensembleKey struct {
	location string
	date     string
	daypart  Daypart
}

// Fuse combines per-model summaries into one consensus row per (location,
// date, day-part), sorted by location, date, then day-part. Only models that
// produced a row for a key contribute to it. An empty input yields an empty
// result.
func Fuse(rows []ModelDaypartSummary) []EnsembleSummary {
	groups := make(map[ensembleKey][]ModelDaypartSummary)
	for _, r := range rows {
		k := ensembleKey{location: r.Location, date: r.Date, daypart: r.Daypart}
		groups[k] = append(groups[k], r)
	}

	keys := make([]ensembleKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.location != b.location {
			return a.location < b.location
		}
		if a.date != b.date {
			return a.date < b.date
		}
		return a.daypart < b.daypart
	})

	out := make([]EnsembleSummary, 0, len(keys))
	for _, k := range keys {
		out = append(out, fuseKey(k, groups[k]))
	}
	return out
}

func fuseKey(k ensembleKey, rows []ModelDaypartSummary) EnsembleSummary {
	if len(rows) == 0 {
		panic(fmt.Sprintf("ensemble key %s|%s|%s has no contributing models", k.location, k.date, k.daypart))
	}

	temps := make([]*float64, 0, len(rows))
	winds := make([]*float64, 0, len(rows))
	gusts := make([]*float64, 0, len(rows))
	rains := make([]*float64, 0, len(rows))
	snows := make([]*float64, 0, len(rows))
	precipVotes := make([]string, 0, len(rows))
	fogVotes := make([]string, 0, len(rows))
	var visMin *int

	// Snowfall per distinct model; duplicate rows of one model are averaged.
	snowByModel := make(map[string][]*float64)

	for _, r := range rows {
		temps = append(temps, r.TemperatureMeanC)
		winds = append(winds, r.WindSpeedMeanKmh)
		gusts = append(gusts, r.WindGustMaxKmh)
		rains = append(rains, ptr(r.PrecipitationSumMM))
		snows = append(snows, ptr(r.SnowfallSumMM))
		if r.PrecipType != "" {
			precipVotes = append(precipVotes, string(r.PrecipType))
		}
		fogVotes = append(fogVotes, strconv.FormatBool(r.Fog))
		if r.VisibilityMinM != nil && (visMin == nil || *r.VisibilityMinM < *visMin) {
			v := *r.VisibilityMinM
			visMin = &v
		}
		snowByModel[r.Model] = append(snowByModel[r.Model], ptr(r.SnowfallSumMM))
	}

	models := make([]string, 0, len(snowByModel))
	for m := range snowByModel {
		models = append(models, m)
	}
	sort.Strings(models)

	// Snow statistics stay unrounded so they agree with snowModels at the
	// threshold.
	snowSums := make([]float64, 0, len(models))
	snowModels := 0
	for _, m := range models {
		s := valueOrZero(meanOf(snowByModel[m]))
		snowSums = append(snowSums, s)
		if s >= SnowPresentThresholdMM {
			snowModels++
		}
	}

	modelsUsedCount := countDistinct(rows)

	out := EnsembleSummary{
		Location:           k.location,
		Date:               k.date,
		Daypart:            k.daypart,
		TemperatureMeanC:   round1Ptr(meanOf(temps)),
		WindSpeedMeanKmh:   round1Ptr(meanOf(winds)),
		WindGustMaxKmh:     round1Ptr(meanOf(gusts)),
		PrecipitationSumMM: round1Ptr(meanOf(rains)),
		SnowfallSumMM:      round1Ptr(meanOf(snows)),
		VisibilityMinM:     visMin,
		ModelsUsed:         strings.Join(models, ModelsUsedSeparator),
		ModelsUsedCount:    modelsUsedCount,
		SnowMinMM:          valueOrZero(minOf(ptrs(snowSums))),
		SnowMaxMM:          valueOrZero(maxOf(ptrs(snowSums))),
		SnowP90MM:          Quantile(snowSums, 0.9),
		SnowModelsCount:    snowModels,
		SnowModelsPct:      percent(snowModels, modelsUsedCount),
	}

	if v, ok := Majority(precipVotes); ok {
		pt := PrecipType(v)
		out.PrecipType = &pt
	}
	if v, ok := Majority(fogVotes); ok {
		fog := v == "true"
		out.Fog = &fog
	}
	return out
}

// countDistinct counts models independently of the models_used list.
func countDistinct(rows []ModelDaypartSummary) int {
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		seen[r.Model] = struct{}{}
	}
	return len(seen)
}

// Majority returns the most frequent value. Ties go to the lexically
// smallest value, so the result does not depend on input order. It reports
// false for an empty input.
func Majority(values []string) (string, bool) {
	if len(values) == 0 {
		return "", false
	}
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best, bestCount := "", 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best, true
}

func ptr(v float64) *float64 { return &v }

func ptrs(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		out[i] = &values[i]
	}
	return out
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
