package airsea

import (
	"math"
	"strconv"
)

// Round rounds x to the given number of decimal places, half to even.
//
// Ties are decided on the exact binary value of x, so 0.125 rounds to 0.12
// while 2.675 (stored as 2.67499999...) rounds to 2.67. NaN and ±Inf are
// returned unchanged.
func Round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	// strconv formats from the exact decimal expansion and breaks exact ties
	// towards the even digit.
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	return r
}
