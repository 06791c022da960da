// Package dataprep holds the load, reshape and save steps used to prepare
// station records, READER text files and reanalysis grids for analysis.
//
// Missing data is carried as NaN throughout; means skip NaN cells.
package dataprep

import (
	"math"
	"sort"
	"time"
)

// Series is a named time series. Time must be sorted ascending.
type Series struct {
	Name   string
	Time   []time.Time
	Values []float64
}

// NewSeries builds a series and sorts it by time.
func NewSeries(name string, t []time.Time, v []float64) *Series {
	s := &Series{
		Name:   name,
		Time:   append([]time.Time{}, t...),
		Values: append([]float64{}, v...),
	}
	s.sort()
	return s
}

// Len returns the number of points.
func (s *Series) Len() int { return len(s.Time) }

type byTime struct{ *Series }

func (s byTime) Less(i, j int) bool { return s.Time[i].Before(s.Time[j]) }
func (s byTime) Swap(i, j int) {
	s.Time[i], s.Time[j] = s.Time[j], s.Time[i]
	s.Values[i], s.Values[j] = s.Values[j], s.Values[i]
}

func (s *Series) sort() {
	if !sort.IsSorted(byTime{s}) {
		sort.Stable(byTime{s})
	}
}

// Extract returns a copy of the points from start to end, both inclusive.
func (s *Series) Extract(start time.Time, end time.Time) *Series {
	i := sort.Search(len(s.Time), func(i int) bool {
		return !s.Time[i].Before(start)
	})
	j := sort.Search(len(s.Time), func(i int) bool {
		return s.Time[i].After(end)
	})
	if j < i {
		j = i
	}
	return &Series{
		Name:   s.Name,
		Time:   append([]time.Time{}, s.Time[i:j]...),
		Values: append([]float64{}, s.Values[i:j]...),
	}
}

// ExtractYears returns the points from 1 January of startYear to the end of
// endYear.
func (s *Series) ExtractYears(startYear int, endYear int) *Series {
	loc := time.UTC
	if len(s.Time) > 0 {
		loc = s.Time[0].Location()
	}
	start := time.Date(startYear, 1, 1, 0, 0, 0, 0, loc)
	end := time.Date(endYear+1, 1, 1, 0, 0, 0, 0, loc).Add(-time.Nanosecond)
	return s.Extract(start, end)
}

// DropNaN returns a copy without missing values.
func (s *Series) DropNaN() *Series {
	out := &Series{Name: s.Name}
	for i, v := range s.Values {
		if !math.IsNaN(v) {
			out.Time = append(out.Time, s.Time[i])
			out.Values = append(out.Values, v)
		}
	}
	return out
}

// At returns the value at t, or NaN when t is not in the series.
func (s *Series) At(t time.Time) float64 {
	i := sort.Search(len(s.Time), func(i int) bool {
		return !s.Time[i].Before(t)
	})
	if i < len(s.Time) && s.Time[i].Equal(t) {
		return s.Values[i]
	}
	return math.NaN()
}

//--------------------------------------
// Regular calendars
//--------------------------------------

// Frequency is a regular calendar step: a number of months or a fixed
// duration.
type Frequency struct {
	months int
	step   time.Duration
}

var (
	// MonthStart steps over the first instant of each month.
	MonthStart = Frequency{months: 1}

	// Hourly steps over whole hours.
	Hourly = Frequency{step: time.Hour}
)

// Every returns a fixed-duration frequency anchored at midnight.
func Every(d time.Duration) Frequency {
	return Frequency{step: d}
}

// floor returns the grid point at or before t.
func (f Frequency) floor(t time.Time) time.Time {
	if f.months > 0 {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	}
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return midnight.Add(t.Sub(midnight) / f.step * f.step)
}

func (f Frequency) next(t time.Time) time.Time {
	if f.months > 0 {
		return t.AddDate(0, f.months, 0)
	}
	return t.Add(f.step)
}

// Range returns the grid points from the floor of start through end.
func (f Frequency) Range(start time.Time, end time.Time) []time.Time {
	if f.months <= 0 && f.step <= 0 {
		return nil
	}
	var out []time.Time
	for t := f.floor(start); !t.After(end); t = f.next(t) {
		out = append(out, t)
	}
	return out
}

// AsFreq reindexes the series onto a regular grid spanning its first to last
// point. Grid points without an observation are NaN; observations off the
// grid are dropped.
func (s *Series) AsFreq(f Frequency) *Series {
	if len(s.Time) == 0 {
		return &Series{Name: s.Name}
	}
	grid := f.Range(s.Time[0], s.Time[len(s.Time)-1])
	return s.Reindex(grid)
}

// Reindex returns the values of s at each time in grid, NaN where absent.
func (s *Series) Reindex(grid []time.Time) *Series {
	out := &Series{
		Name:   s.Name,
		Time:   append([]time.Time{}, grid...),
		Values: make([]float64, len(grid)),
	}
	for i, t := range grid {
		out.Values[i] = s.At(t)
	}
	return out
}

//--------------------------------------
// Aggregation
//--------------------------------------

// Period is a calendar aggregation period.
type Period int

const (
	Daily Period = iota
	Monthly
	Annual
)

func (p Period) start(t time.Time) time.Time {
	switch p {
	case Annual:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
	case Monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (p Period) next(t time.Time) time.Time {
	switch p {
	case Annual:
		return t.AddDate(1, 0, 0)
	case Monthly:
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, 1)
}

// Resample averages the series over each calendar period. Periods are
// labelled by their first instant and run contiguously from the first to the
// last observation; periods with no valid value are NaN.
func (s *Series) Resample(p Period) *Series {
	out := &Series{Name: s.Name}
	if len(s.Time) == 0 {
		return out
	}
	last := p.start(s.Time[len(s.Time)-1])
	i := 0
	for t := p.start(s.Time[0]); !t.After(last); t = p.next(t) {
		end := p.next(t)
		var m meanAcc
		for ; i < len(s.Time) && s.Time[i].Before(end); i++ {
			m.add(s.Values[i])
		}
		out.Time = append(out.Time, t)
		out.Values = append(out.Values, m.mean())
	}
	return out
}

// GroupYearMonth averages the series per (year, month) into a wide table
// with one row per year present in the series.
func (s *Series) GroupYearMonth() *YearMonthTable {
	type key struct {
		year  int
		month time.Month
	}
	acc := map[key]*meanAcc{}
	years := map[int]bool{}
	for i, t := range s.Time {
		k := key{t.Year(), t.Month()}
		if acc[k] == nil {
			acc[k] = &meanAcc{}
		}
		acc[k].add(s.Values[i])
		years[t.Year()] = true
	}

	ys := make([]int, 0, len(years))
	for y := range years {
		ys = append(ys, y)
	}
	sort.Ints(ys)

	tab := &YearMonthTable{Name: s.Name, Years: ys, Values: make([][12]float64, len(ys))}
	for r, y := range ys {
		for m := 0; m < 12; m++ {
			if a := acc[key{y, time.Month(m + 1)}]; a != nil {
				tab.Values[r][m] = a.mean()
			} else {
				tab.Values[r][m] = math.NaN()
			}
		}
	}
	return tab
}

// meanAcc accumulates a NaN-skipping mean.
type meanAcc struct {
	sum float64
	n   int
}

func (m *meanAcc) add(v float64) {
	if math.IsNaN(v) {
		return
	}
	m.sum += v
	m.n++
}

func (m *meanAcc) mean() float64 {
	if m.n == 0 {
		return math.NaN()
	}
	return m.sum / float64(m.n)
}

// NaNMean is the mean of the non-NaN values, or NaN if there are none.
func NaNMean(values []float64) float64 {
	var m meanAcc
	for _, v := range values {
		m.add(v)
	}
	return m.mean()
}
