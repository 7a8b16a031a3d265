package domain

import "math"

// PrecipType labels the dominant precipitation of a bucket.
type PrecipType string

const (
	PrecipNone  PrecipType = "none"
	PrecipSnow  PrecipType = "snow"
	PrecipRain  PrecipType = "rain"
	PrecipMixed PrecipType = "mixed"
)

// PrecipThresholdMM is the amount at which rain or snow counts as present.
const PrecipThresholdMM = 0.1

// ClassifyPrecip labels a bucket from its rain and snow totals. NaN amounts
// count as zero.
func ClassifyPrecip(rainMM, snowMM float64) PrecipType {
	rain := zeroIfNaN(rainMM)
	snow := zeroIfNaN(snowMM)

	switch {
	case rain < PrecipThresholdMM && snow < PrecipThresholdMM:
		return PrecipNone
	case snow >= PrecipThresholdMM && rain < PrecipThresholdMM:
		return PrecipSnow
	case rain >= PrecipThresholdMM && snow < PrecipThresholdMM:
		return PrecipRain
	default:
		return PrecipMixed
	}
}

// IsFog reports whether a WMO weather code denotes fog (45) or depositing
// rime fog (48).
func IsFog(code int) bool {
	return code == 45 || code == 48
}

func zeroIfNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
