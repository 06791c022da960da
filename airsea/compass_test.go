package airsea

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Wind16(t *testing.T) {
	spd, dir := Wind16(1.0, 1.0)
	assert.InDelta(t, 1.4141456, spd, 0.0001)
	assert.Equal(t, 180.0+45.0, dir)

	// 10 degrees off a sector centre keeps cos(10°) of the speed
	u := -10 * math.Sin(degreeToRad(10))
	v := -10 * math.Cos(degreeToRad(10))
	spd, dir = Wind16(u, v)
	assert.Equal(t, 0.0, dir)
	assert.InDelta(t, 10*math.Cos(degreeToRad(10)), spd, 1e-9)
}

func Test_Sector16(t *testing.T) {
	assert.Equal(t, 16, Sector16(5, 0))
	assert.Equal(t, 16, Sector16(5, 11))
	assert.Equal(t, 1, Sector16(5, 12))
	assert.Equal(t, 4, Sector16(5, 90))
	assert.Equal(t, 8, Sector16(5, 180))
	assert.Equal(t, 16, Sector16(5, 360))
	assert.Equal(t, 15, Sector16(5, -22.5))
	assert.Equal(t, 0, Sector16(0, 90)) // calm

	assert.Equal(t, "N", SectorName(16))
	assert.Equal(t, "NNE", SectorName(1))
	assert.Equal(t, "calm", SectorName(0))
	assert.Equal(t, "", SectorName(17))
}

func Test_WindRose(t *testing.T) {
	r := NewWindRose([]float64{5, 0, 2})
	assert.Equal(t, []float64{0, 2, 5}, r.Bins)

	r.Add(1, 0)
	r.Add(3, 90)
	r.Add(10, 90)
	r.Add(0, 45)
	r.Add(math.NaN(), 10)
	r.Add(4, math.NaN())

	assert.Equal(t, 4, r.Total)
	assert.Equal(t, []int{1, 0, 0}, r.Counts[16])
	assert.Equal(t, []int{0, 1, 1}, r.Counts[4])
	assert.Equal(t, []int{1, 0, 0}, r.Counts[0])
	assert.InDelta(t, 0.5, r.Frequency(4), 1e-12)
	assert.InDelta(t, 0.25, r.Frequency(0), 1e-12)
	assert.Equal(t, 0.0, r.Frequency(3))

	r2 := NewWindRose([]float64{0})
	r2.AddSeries([]float64{1, 2, 3}, []float64{180, 180})
	assert.Equal(t, 2, r2.Total)
	assert.Equal(t, 1.0, r2.Frequency(8))
}

func Test_WindRose_AddComponents(t *testing.T) {
	r := NewWindRose([]float64{0, 5})

	r.AddComponents(
		[]float64{-3, 0, 8, 0, math.NaN(), 1},
		[]float64{0, -6, 0, 0, 1})

	// from the east at 3, from the north at 6, from the west at 8, calm
	assert.Equal(t, 4, r.Total)
	assert.Equal(t, []int{1, 0}, r.Counts[4])
	assert.Equal(t, []int{0, 1}, r.Counts[16])
	assert.Equal(t, []int{0, 1}, r.Counts[12])
	assert.Equal(t, []int{1, 0}, r.Counts[0])

	// the same winds in polar form land in the same sectors
	p := NewWindRose([]float64{0, 5})
	p.AddSeries([]float64{3, 6, 8, 0}, []float64{90, 0, 270, 0})
	assert.Equal(t, p.Counts, r.Counts)
}
