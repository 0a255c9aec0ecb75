package allocation

import "strconv"

// DefaultPrecision is the number of significant digits tallies are compared
// at. Summing many float shares drifts in the last bits.
const DefaultPrecision = 14

func roundSignificant(v float64, digits int) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'g', digits, 64), 64)
	return r
}

// EqualAtPrecision reports whether a and b agree when rounded to digits
// significant digits.
func EqualAtPrecision(a, b float64, digits int) bool {
	return roundSignificant(a, digits) == roundSignificant(b, digits)
}
