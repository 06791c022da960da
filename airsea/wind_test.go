package airsea

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// angular distance in degrees, ignoring full turns
func angleGap(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	return math.Min(d, 360-d)
}

// wind from each cardinal point
func Test_PolarToCartesian_Cardinal(t *testing.T) {
	cases := []struct {
		bearing float64
		u, v    float64
	}{
		{0, 0, -10},  // northerly blows south
		{90, -10, 0}, // easterly blows west
		{180, 0, 10}, // southerly blows north
		{270, 10, 0}, // westerly blows east
	}
	for _, c := range cases {
		u, v := PolarToCartesian(10, c.bearing, 0, 0)
		assert.InDelta(t, c.u, u, 1e-9, "u for bearing %v", c.bearing)
		assert.InDelta(t, c.v, v, 1e-9, "v for bearing %v", c.bearing)
	}
}

func Test_PolarToCartesian_Quadrants(t *testing.T) {
	// SSW wind blows towards NNE
	u, v := PolarToCartesian(12.3, 200, 0, 0)
	assert.Equal(t, 4.21, u)
	assert.Equal(t, 11.56, v)

	u, v = PolarToCartesian(7.5, 33, 0, 0)
	assert.Equal(t, -4.08, u)
	assert.Equal(t, -6.29, v)
}

// the bearing is rounded up before use
func Test_PolarToCartesian_CeilBearing(t *testing.T) {
	u1, v1 := PolarToCartesian(5, 44.1, 0, 0)
	u2, v2 := PolarToCartesian(5, 45, 0, 0)
	u3, v3 := PolarToCartesian(5, 44, 0, 0)

	assert.Equal(t, u2, u1)
	assert.Equal(t, v2, v1)
	assert.Equal(t, -3.54, u1)
	assert.Equal(t, -3.54, v1)

	assert.Equal(t, -3.47, u3)
	assert.Equal(t, -3.6, v3)
	assert.NotEqual(t, v1, v3)
}

func Test_PolarToCartesian_SpeedHalfEven(t *testing.T) {
	// 0.25 is an exact tie: half to even gives 0.2
	u, _ := PolarToCartesian(0.25, 270, 0, 0)
	assert.Equal(t, 0.2, u)

	// 0.35 is stored just below the tie
	u, _ = PolarToCartesian(0.35, 270, 0, 0)
	assert.Equal(t, 0.3, u)

	// 0.45 is stored just above the tie
	u, _ = PolarToCartesian(0.45, 270, 0, 0)
	assert.Equal(t, 0.5, u)
}

func Test_CartesianToPolar_ComponentHalfEven(t *testing.T) {
	// u rounds 0.125 -> 0.12, speed 0.12 -> 0.1
	spd, _ := CartesianToPolar(0.125, 0, 0, 0)
	assert.Equal(t, 0.1, spd)

	// u rounds 0.375 -> 0.38, speed 0.38 -> 0.4
	spd, _ = CartesianToPolar(0.375, 0, 0, 0)
	assert.Equal(t, 0.4, spd)

	// speed tie 0.25 -> 0.2
	spd, _ = CartesianToPolar(0, 0.25, 0, 0)
	assert.Equal(t, 0.2, spd)
}

// the transform neither adds nor removes magnitude
func Test_PolarToCartesian_Magnitude(t *testing.T) {
	for _, spd := range []float64{0, 0.3, 1.25, 5, 12.7, 33.3} {
		for b := 0.0; b < 360; b += 17.3 {
			u, v := PolarToCartesian(spd, b, 0, 0)
			m := math.Hypot(u, v)
			assert.InDelta(t, Round(spd, 1), m, 0.01, "speed %v bearing %v", spd, b)
			assert.InDelta(t, spd, m, 0.06, "speed %v bearing %v", spd, b)
		}
	}
}

func Test_CartesianToPolar_Cardinal(t *testing.T) {
	spd, dir := CartesianToPolar(0, -10, 0, 0)
	assert.Equal(t, 10.0, spd)
	assert.Equal(t, 0.0, dir) // ceil(0) is 0, not 360

	spd, dir = CartesianToPolar(-10, 0, 0, 0)
	assert.Equal(t, 10.0, spd)
	assert.Equal(t, 90.0, dir)

	spd, dir = CartesianToPolar(0, 10, 0, 0)
	assert.Equal(t, 10.0, spd)
	assert.Equal(t, 180.0, dir)

	// -v is -0 here; the branch cut must not turn 270 into -90
	spd, dir = CartesianToPolar(10, 0, 0, 0)
	assert.Equal(t, 10.0, spd)
	assert.Equal(t, 270.0, dir)
}

func Test_CartesianToPolar_Calm(t *testing.T) {
	spd, dir := CartesianToPolar(0, 0, 0, 0)
	assert.Equal(t, 0.0, spd)
	assert.False(t, math.IsNaN(dir))
}

// round trips agree within the rounding rules
func Test_RoundTrip(t *testing.T) {
	c := Converter{}
	for _, spd := range []float64{0.5, 3.3, 7.3, 21.9} {
		for b := 0.0; b < 360; b++ {
			u, v := c.ToCartesian(spd, b)
			s2, b2 := c.ToPolar(u, v)
			assert.InDelta(t, Round(spd, 1), s2, 0.1, "speed %v bearing %v", spd, b)
			if spd >= 3 {
				assert.LessOrEqual(t, angleGap(b, b2), 1.0, "speed %v bearing %v", spd, b)
			}
		}
	}
}

func Test_AxisRotation_Equivalence(t *testing.T) {
	for _, r := range []float64{-90, -45, 0, 30, 90, 180} {
		rotated := Converter{AxisRotation: r}
		for _, b := range []float64{0, 10, 90, 135, 200, 271, 359} {
			u1, v1 := rotated.ToCartesian(10, b)
			u2, v2 := PolarToCartesian(10, b-r, 0, 0)
			assert.InDelta(t, u2, u1, 0.011, "rotation %v bearing %v", r, b)
			assert.InDelta(t, v2, v1, 0.011, "rotation %v bearing %v", r, b)
		}
	}

	// 90 degrees clockwise: an easterly reads as a northerly
	u, v := PolarToCartesian(10, 90, 90, 0)
	assert.InDelta(t, 0, u, 1e-9)
	assert.InDelta(t, -10, v, 1e-9)
}

func Test_MagneticDeclination(t *testing.T) {
	// magnetic 80 + declination 10 = true 90
	u, v := PolarToCartesian(10, 80, 0, 10)
	assert.InDelta(t, -10, u, 1e-9)
	assert.InDelta(t, 0, v, 1e-9)

	// the reverse expression hands back the magnetic bearing
	spd, dir := CartesianToPolar(u, v, 0, 10)
	assert.Equal(t, 10.0, spd)
	assert.Equal(t, 80.0, dir)
}

func Test_Oceanographic(t *testing.T) {
	c := Converter{Convention: Oceanographic}

	// bearing 0 points north
	u, v := c.ToCartesian(10, 0)
	assert.InDelta(t, 0, u, 1e-9)
	assert.InDelta(t, 10, v, 1e-9)

	// same magnitudes as the meteorological result, opposite sign
	u1, v1 := c.ToCartesian(12.3, 200)
	u2, v2 := PolarToCartesian(12.3, 200, 0, 0)
	assert.Equal(t, -u2, u1)
	assert.Equal(t, -v2, v1)

	spd, dir := c.ToPolar(0, -10)
	assert.Equal(t, 10.0, spd)
	assert.Equal(t, 180.0, dir)
}

func Test_Normalization(t *testing.T) {
	// single wraparound leaves far-out bearings negative
	single := Converter{AxisRotation: -400}
	_, dir := single.ToPolar(0, -10)
	assert.Equal(t, -40.0, dir)

	full := Converter{AxisRotation: -400, Normalize: FullWrap}
	_, dir = full.ToPolar(0, -10)
	assert.Equal(t, 320.0, dir)

	// in the working range both agree
	for _, b := range []float64{0, 45, 181, 359} {
		u, v := PolarToCartesian(6, b, 0, 0)
		_, d1 := Converter{}.ToPolar(u, v)
		_, d2 := Converter{Normalize: FullWrap}.ToPolar(u, v)
		assert.Equal(t, d1, d2)
	}

	// bearings beyond a full turn still encode the same vector
	for _, n := range []Normalization{SingleWrap, FullWrap} {
		c := Converter{Normalize: n}
		u1, v1 := c.ToCartesian(10, 1000)
		u2, v2 := c.ToCartesian(10, 280)
		assert.InDelta(t, u2, u1, 0.011)
		assert.InDelta(t, v2, v1, 0.011)
	}
}

func Test_Series(t *testing.T) {
	c := Converter{}
	u, v := c.PolarSeries(
		[]float64{10, math.NaN(), 10},
		[]float64{0, 90, math.NaN()},
	)
	assert.Len(t, u, 3)
	assert.InDelta(t, -10, v[0], 1e-9)
	assert.True(t, math.IsNaN(u[1]) && math.IsNaN(v[1]))
	assert.True(t, math.IsNaN(u[2]) && math.IsNaN(v[2]))

	spd, dir := c.CartesianSeries([]float64{0, math.NaN()}, []float64{-10, 1})
	assert.Equal(t, 10.0, spd[0])
	assert.Equal(t, 0.0, dir[0])
	assert.True(t, math.IsNaN(spd[1]) && math.IsNaN(dir[1]))

	assert.Panics(t, func() { c.PolarSeries([]float64{1}, nil) })
}

func Test_StructForms(t *testing.T) {
	c := Converter{}
	w := c.Cartesian(Polar{Speed: 10, Bearing: 270})
	assert.InDelta(t, 10, w.U, 1e-9)
	p := c.Polar(w)
	assert.Equal(t, Polar{Speed: 10, Bearing: 270}, p)
}
