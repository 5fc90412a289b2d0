package chart

import "math"

// ProgressWidth returns the filled share of a progress bar in whole percent.
// Any non-zero value shows at least 2 so it stays visible; the result never
// exceeds 100.
func ProgressWidth(value, limit float64) int {
	if !(limit > 0) || !(value > 0) || math.IsInf(limit, 0) {
		return 0
	}
	w := int(math.Round(value / limit * 100))
	if w < 2 {
		return 2
	}
	if w > 100 {
		return 100
	}
	return w
}
