package domain

import (
	"math"
	"sort"
)

// meanOf averages the non-nil values; nil when there are none.
func meanOf(values []*float64) *float64 {
	var sum float64
	n := 0
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return nil
	}
	m := sum / float64(n)
	return &m
}

func maxOf(values []*float64) *float64 {
	var out *float64
	for _, v := range values {
		if v != nil && (out == nil || *v > *out) {
			x := *v
			out = &x
		}
	}
	return out
}

func minOf(values []*float64) *float64 {
	var out *float64
	for _, v := range values {
		if v != nil && (out == nil || *v < *out) {
			x := *v
			out = &x
		}
	}
	return out
}

// sumOf adds the non-nil values; an all-missing input sums to 0.
func sumOf(values []*float64) float64 {
	var sum float64
	for _, v := range values {
		if v != nil {
			sum += *v
		}
	}
	return sum
}

// Quantile returns the q-th quantile (0 <= q <= 1) of values using linear
// interpolation between the closest order statistics. An empty input yields 0.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	q = math.Max(0, math.Min(1, q))
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// round1 rounds to one decimal place, with exact ties going to the even
// digit.
func round1(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}

func round1Ptr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round1(*v)
	return &r
}

// percent returns part/whole as a whole percentage, 0 when whole is 0.
func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}
