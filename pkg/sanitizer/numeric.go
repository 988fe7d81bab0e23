package sanitizer

import "math"

// Amount rounds a money value to cents.
func Amount(v float64) float64 {
	return math.Round(v*100) / 100
}
