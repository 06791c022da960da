package airsea

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Round_HalfEven(t *testing.T) {
	// exact ties go to the even digit
	assert.Equal(t, 0.12, Round(0.125, 2))
	assert.Equal(t, 0.38, Round(0.375, 2))
	assert.Equal(t, -0.12, Round(-0.125, 2))
	assert.Equal(t, 0.2, Round(0.25, 1))
	assert.Equal(t, 2.0, Round(2.5, 0))
	assert.Equal(t, 4.0, Round(3.5, 0))

	// 2.675 is stored as 2.67499999...
	assert.Equal(t, 2.67, Round(2.675, 2))

	assert.Equal(t, 12.3, Round(12.34, 1))
	assert.Equal(t, 12.4, Round(12.36, 1))
}

func Test_Round_NonFinite(t *testing.T) {
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
	assert.True(t, math.IsInf(Round(math.Inf(1), 2), 1))
	assert.True(t, math.IsInf(Round(math.Inf(-1), 1), -1))
}
