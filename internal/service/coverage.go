package service

// CoverageRate returns the percentage of meters read within the
// period, rounded to two decimals. A fleet of zero meters has zero
// coverage rather than a division error.
func CoverageRate(read, total int64) float64 {
	if total == 0 {
		return 0
	}
	return round2(100 * float64(read) / float64(total))
}
