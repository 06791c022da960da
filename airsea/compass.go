package airsea

import (
	"math"
	"sort"
)

//--------------------------------------
// 16-point compass
//--------------------------------------

// SectorWidth is the angular width of one of the 16 compass sectors.
const SectorWidth = 22.5

var sectorNames = [...]string{
	"calm",
	"NNE", "NE", "ENE", "E", "ESE", "SE", "SSE", "S",
	"SSW", "SW", "WSW", "W", "WNW", "NW", "NNW", "N",
}

// Wind16 snaps the vector (u, v) onto the 16-point compass. dir16 is the
// sector centre, in [0, 360), the wind blows from; speed16 is the part of
// the wind acting along that sector's axis.
func Wind16(u float64, v float64) (speed16 float64, dir16 float64) {
	from := 90 - atan2Degree(-v, -u)
	if from < 0 {
		from += 360
	}
	dir16 = math.Mod(math.Round(from/SectorWidth)*SectorWidth, 360)

	// project onto the unit vector blowing from dir16
	rad := degreeToRad(dir16)
	speed16 = -(u*math.Sin(rad) + v*math.Cos(rad))
	return speed16, dir16
}

// Sector16 returns the compass sector code of a bearing: 1 (NNE) through
// 16 (N), or 0 when speed is zero (calm). Bearings outside [0, 360) are
// reduced first.
func Sector16(speed, bearing float64) int {
	if speed == 0 {
		return 0
	}
	b := math.Mod(bearing, 360)
	if b < 0 {
		b += 360
	}
	sector := int(math.Round(b/SectorWidth)) % 16
	if sector == 0 {
		// due north is 16, not 0
		sector = 16
	}
	return sector
}

// SectorName returns the label of a Sector16 code.
func SectorName(sector int) string {
	if sector < 0 || sector >= len(sectorNames) {
		return ""
	}
	return sectorNames[sector]
}

//--------------------------------------
// Wind rose
//--------------------------------------

// WindRose is a frequency table of observations by compass sector and speed
// class, as fed to wind-rose charts.
type WindRose struct {
	// Bins holds the lower bound of each speed class in ascending order. The
	// last class is open ended.
	Bins []float64

	// Counts[sector][class]; sector 0 counts calms.
	Counts [17][]int

	Total int
}

// NewWindRose returns an empty rose with the given speed class lower bounds.
func NewWindRose(bins []float64) *WindRose {
	b := append([]float64{}, bins...)
	sort.Float64s(b)
	r := &WindRose{Bins: b}
	for i := range r.Counts {
		r.Counts[i] = make([]int, len(b))
	}
	return r
}

// Add counts one observation. NaN speeds or bearings are skipped.
func (r *WindRose) Add(speed, bearing float64) {
	if math.IsNaN(speed) || math.IsNaN(bearing) || len(r.Bins) == 0 {
		return
	}
	class := sort.Search(len(r.Bins), func(i int) bool { return r.Bins[i] > speed }) - 1
	if class < 0 {
		class = 0
	}
	r.Counts[Sector16(speed, bearing)][class]++
	r.Total++
}

// AddSeries counts paired speed and bearing columns.
func (r *WindRose) AddSeries(speed, bearing []float64) {
	n := len(speed)
	if len(bearing) < n {
		n = len(bearing)
	}
	for i := 0; i < n; i++ {
		r.Add(speed[i], bearing[i])
	}
}

// AddComponents counts paired u and v columns, each vector snapped to its
// 16-point sector by Wind16. NaN components are skipped.
func (r *WindRose) AddComponents(u, v []float64) {
	n := len(u)
	if len(v) < n {
		n = len(v)
	}
	for i := 0; i < n; i++ {
		if math.IsNaN(u[i]) || math.IsNaN(v[i]) {
			continue
		}
		r.Add(Wind16(u[i], v[i]))
	}
}

// Frequency returns the share of observations (0..1) blowing from sector,
// over all speed classes.
func (r *WindRose) Frequency(sector int) float64 {
	if r.Total == 0 || sector < 0 || sector >= len(r.Counts) {
		return 0
	}
	n := 0
	for _, c := range r.Counts[sector] {
		n += c
	}
	return float64(n) / float64(r.Total)
}
