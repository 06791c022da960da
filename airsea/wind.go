// Package airsea converts wind observations between the polar (speed, bearing)
// and cartesian (u, v) representations used by station records and reanalysis
// grids.
package airsea

import (
	"math"
)

//--------------------------------------
// Wind vector conversion
//--------------------------------------

// Convention selects how a bearing is read.
type Convention int

const (
	// Meteorological bearings give the direction the wind blows from,
	// clockwise from true north. A northerly (0°) has v < 0.
	Meteorological Convention = iota

	// Oceanographic bearings give the direction the flow goes to. The polar
	// formula is applied without the flip, matching u/v tables produced by the
	// older station spreadsheets.
	Oceanographic
)

func (c Convention) String() string {
	switch c {
	case Meteorological:
		return "meteorological"
	case Oceanographic:
		return "oceanographic"
	}
	return "unknown"
}

// Normalization selects how negative angles are brought back into range.
type Normalization int

const (
	// SingleWrap adds 360 once when the angle is negative. Inputs far outside
	// [-360, 360) are not guaranteed to land in [0, 360).
	SingleWrap Normalization = iota

	// FullWrap reduces the angle modulo 360 into [0, 360).
	FullWrap
)

// Polar is a wind observation as speed and bearing (degrees).
type Polar struct {
	Speed   float64
	Bearing float64
}

// Cartesian is a wind vector as zonal (east-positive) and meridional
// (north-positive) components.
type Cartesian struct {
	U float64
	V float64
}

// Converter holds the conversion context. The zero value converts with no
// axis rotation, no magnetic declination, meteorological bearings and the
// reference single wraparound.
//
// A Converter has no mutable state and may be shared between goroutines.
type Converter struct {
	// AxisRotation rotates the target frame in degrees, clockwise positive,
	// to align the components with a coastline or channel axis.
	AxisRotation float64

	// MagneticDeclination corrects a bearing read against magnetic north.
	MagneticDeclination float64

	Convention Convention
	Normalize  Normalization
}

// PolarToCartesian converts speed and bearing into (u, v) with the default
// converter plus the given rotation and declination.
func PolarToCartesian(speed, bearing, axisRotation, magneticDeclination float64) (u, v float64) {
	c := Converter{AxisRotation: axisRotation, MagneticDeclination: magneticDeclination}
	return c.ToCartesian(speed, bearing)
}

// CartesianToPolar converts (u, v) into speed and bearing with the default
// converter plus the given rotation and declination.
func CartesianToPolar(u, v, axisRotation, magneticDeclination float64) (speed, bearing float64) {
	c := Converter{AxisRotation: axisRotation, MagneticDeclination: magneticDeclination}
	return c.ToPolar(u, v)
}

// ToCartesian converts a wind speed and bearing into zonal and meridional
// components.
//
// The bearing is rounded up to a whole degree and the speed to one decimal
// (half to even) before use; u and v are rounded to two decimals.
//
//	METEOROLOGICAL                 CARTESIAN
//	     360°/0°                       90°
//	        |                           |
//	270° ___|___ 90°          180° ___|___ 0°
//	        |                           |
//	      180°                        270°
func (c Converter) ToCartesian(speed, bearing float64) (u, v float64) {
	bearing = math.Ceil(bearing)
	speed = Round(speed, 1)

	phi := 90.0 - (bearing + c.MagneticDeclination) + c.AxisRotation
	phi = c.wrap(phi)

	rad := degreeToRad(phi)
	u = speed * math.Cos(rad)
	v = speed * math.Sin(rad)

	if c.Convention == Meteorological {
		// the bearing is where the wind comes from: the vector points away from it
		u, v = -u, -v
	}

	return Round(u, 2), Round(v, 2)
}

// ToPolar converts zonal and meridional components into a wind speed and
// bearing.
//
// u and v are rounded to two decimals before use; the speed is rounded to one
// decimal (half to even) and the bearing up to a whole degree.
//
// MagneticDeclination enters the bearing formula exactly as in ToCartesian's
// forward expression; no separate reverse correction is applied.
func (c Converter) ToPolar(u, v float64) (speed, bearing float64) {
	u = Round(u, 2)
	v = Round(v, 2)

	speed = math.Sqrt(u*u + v*v)

	var phi float64
	if c.Convention == Meteorological {
		phi = atan2Degree(-v, -u)
	} else {
		phi = atan2Degree(v, u)
	}

	bearing = 90.0 - (phi + c.MagneticDeclination) + c.AxisRotation
	bearing = c.wrap(bearing)

	return Round(speed, 1), math.Ceil(bearing)
}

// Polar converts a cartesian vector with c.
func (c Converter) Polar(w Cartesian) Polar {
	s, b := c.ToPolar(w.U, w.V)
	return Polar{Speed: s, Bearing: b}
}

// Cartesian converts a polar observation with c.
func (c Converter) Cartesian(w Polar) Cartesian {
	u, v := c.ToCartesian(w.Speed, w.Bearing)
	return Cartesian{U: u, V: v}
}

// PolarSeries converts paired speed and bearing columns element-wise. A NaN in
// either input yields NaN in both outputs. The slices must have equal length.
func (c Converter) PolarSeries(speed, bearing []float64) (u, v []float64) {
	if len(speed) != len(bearing) {
		panic("airsea: speed and bearing length mismatch")
	}
	u = make([]float64, len(speed))
	v = make([]float64, len(speed))
	for i := range speed {
		if math.IsNaN(speed[i]) || math.IsNaN(bearing[i]) {
			u[i], v[i] = math.NaN(), math.NaN()
			continue
		}
		u[i], v[i] = c.ToCartesian(speed[i], bearing[i])
	}
	return u, v
}

// CartesianSeries converts paired u and v columns element-wise. A NaN in
// either input yields NaN in both outputs. The slices must have equal length.
func (c Converter) CartesianSeries(u, v []float64) (speed, bearing []float64) {
	if len(u) != len(v) {
		panic("airsea: u and v length mismatch")
	}
	speed = make([]float64, len(u))
	bearing = make([]float64, len(u))
	for i := range u {
		if math.IsNaN(u[i]) || math.IsNaN(v[i]) {
			speed[i], bearing[i] = math.NaN(), math.NaN()
			continue
		}
		speed[i], bearing[i] = c.ToPolar(u[i], v[i])
	}
	return speed, bearing
}

func (c Converter) wrap(deg float64) float64 {
	if c.Normalize == FullWrap {
		deg = math.Mod(deg, 360)
		if deg < 0 {
			deg += 360
		}
		return deg
	}
	if deg < 0 {
		deg += 360
	}
	return deg
}

// atan2Degree returns atan2(y, x) in degrees within (-180, 180].
func atan2Degree(y, x float64) float64 {
	rad := math.Atan2(y, x)
	if rad == -math.Pi {
		// atan2(-0, x<0)
		rad = math.Pi
	}
	return radToDegree(rad)
}

// Rounded float64 factors rather than exact constants, so that converted
// angles agree bit for bit with files written by earlier tooling.
var (
	pi        = math.Pi
	radPerDeg = pi / 180.0
	degPerRad = 180.0 / pi
)

func radToDegree(rad float64) float64 {
	return rad * degPerRad
}

func degreeToRad(deg float64) float64 {
	return deg * radPerDeg
}
