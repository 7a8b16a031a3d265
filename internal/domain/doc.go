// Package domain reduces hourly multi-model weather forecasts to day-part
// consensus summaries.
//
// # Data Source
//
// Each forecast model (an Open-Meteo endpoint such as gfs or dwd-icon) returns
// an hourly table for one location: a "time" column plus one nullable column
// per variable. Times are local wall-clock times in the requested timezone,
// formatted "2006-01-02T15:04".
//
//	temperature_2m   °C
//	precipitation    mm, rain + showers + snow water equivalent
//	snowfall         mm as reported by the model
//	windspeed_10m    km/h
//	windgusts_10m    km/h
//	weathercode      WMO code; 45 = fog, 48 = depositing rime fog
//	visibility       m
//
// # Day-parts
//
// A calendar day is split into four fixed 6-hour windows, ordered
// night < morning < afternoon < evening:
//
//	night      00:00–05:59
//	morning    06:00–11:59
//	afternoon  12:00–17:59
//	evening    18:00–23:59
//
// # Two-stage reduction
//
// [SummarizeDayparts] reduces one model's hourly table to one
// [ModelDaypartSummary] per non-empty (date, day-part) bucket: mean
// temperature and wind, max gust, summed precipitation and snowfall, minimum
// visibility, fog if any hour carries a fog code, and a precipitation type
// from [ClassifyPrecip].
//
// [Fuse] combines the per-model summaries of every model into one
// [EnsembleSummary] per (location, date, day-part): means rounded to one
// decimal, majority votes for categorical fields, the minimum visibility, the
// contributing model list, and cross-model snowfall statistics.
//
// Majority ties are broken by the lexical order of the candidate value, so
// "rain" beats "snow" and false beats true. Means and percentages round half
// away from zero.
package domain
