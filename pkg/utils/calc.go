package utils

// VariancePercent computes the period-over-period variance percentage.
// When the previous value is zero the result is 100.0 for any non-zero
// current value and 0.0 otherwise; downstream severity logic relies on
// this exact convention.
func VariancePercent(current, previous float64) float64 {
	if previous == 0 {
		if current != 0 {
			return 100.0
		}
		return 0.0
	}
	return ((current - previous) / abs(previous)) * 100
}

// VarianceAmount computes the absolute change between two period values.
func VarianceAmount(current, previous float64) float64 {
	return current - previous
}

// HasSignChange reports whether the value crossed sign between periods:
// zero to non-zero, non-zero to zero, or strictly opposite signs.
func HasSignChange(current, previous float64) bool {
	if previous == 0 && current != 0 {
		return true
	}
	if previous != 0 && current == 0 {
		return true
	}
	if previous > 0 && current < 0 {
		return true
	}
	if previous < 0 && current > 0 {
		return true
	}
	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
