package dataprep

import (
	"math"
	"sort"
	"time"

	"github.com/nehme-lab/airsea-go/airsea"
)

// MonthAbbr labels the month columns of a YearMonthTable.
var MonthAbbr = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// YearMonthTable is a wide table with one row per year and one column per
// month. Years are ascending; missing cells are NaN.
type YearMonthTable struct {
	Name   string
	Years  []int
	Values [][12]float64
}

// NewYearMonthTable returns a table covering firstYear..lastYear with every
// cell missing.
func NewYearMonthTable(name string, firstYear int, lastYear int) *YearMonthTable {
	t := &YearMonthTable{Name: name}
	for y := firstYear; y <= lastYear; y++ {
		t.Years = append(t.Years, y)
		t.Values = append(t.Values, nanRow())
	}
	return t
}

func nanRow() [12]float64 {
	var r [12]float64
	for m := range r {
		r[m] = math.NaN()
	}
	return r
}

func (t *YearMonthTable) row(year int) int {
	i := sort.SearchInts(t.Years, year)
	if i < len(t.Years) && t.Years[i] == year {
		return i
	}
	return -1
}

// At returns the value for (year, month), NaN when absent.
func (t *YearMonthTable) At(year int, month time.Month) float64 {
	r := t.row(year)
	if r < 0 || month < time.January || month > time.December {
		return math.NaN()
	}
	return t.Values[r][month-1]
}

// Set stores a value, inserting the year row when needed.
func (t *YearMonthTable) Set(year int, month time.Month, v float64) {
	if month < time.January || month > time.December {
		return
	}
	r := t.row(year)
	if r < 0 {
		r = sort.SearchInts(t.Years, year)
		t.Years = append(t.Years, 0)
		copy(t.Years[r+1:], t.Years[r:])
		t.Years[r] = year
		t.Values = append(t.Values, [12]float64{})
		copy(t.Values[r+1:], t.Values[r:])
		t.Values[r] = nanRow()
	}
	t.Values[r][month-1] = v
}

// Stack turns the table into a long monthly series stamped at the first of
// each month. Missing cells are dropped.
func (t *YearMonthTable) Stack() *Series {
	s := &Series{Name: t.Name}
	for r, y := range t.Years {
		for m := 0; m < 12; m++ {
			v := t.Values[r][m]
			if math.IsNaN(v) {
				continue
			}
			s.Time = append(s.Time, time.Date(y, time.Month(m+1), 1, 0, 0, 0, 0, time.UTC))
			s.Values = append(s.Values, v)
		}
	}
	return s
}

// UnstackYearMonth is the inverse of Stack: the series is averaged per
// (year, month) cell.
func UnstackYearMonth(s *Series) *YearMonthTable {
	return s.GroupYearMonth()
}

// MonthlyMean averages each month over all years.
func (t *YearMonthTable) MonthlyMean() [12]float64 {
	var out [12]float64
	for m := 0; m < 12; m++ {
		var acc meanAcc
		for r := range t.Values {
			acc.add(t.Values[r][m])
		}
		out[m] = acc.mean()
	}
	return out
}

// YearlyMean averages each year over its months.
func (t *YearMonthTable) YearlyMean() *Series {
	s := &Series{Name: t.Name}
	for r, y := range t.Years {
		s.Time = append(s.Time, time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC))
		s.Values = append(s.Values, NaNMean(t.Values[r][:]))
	}
	return s
}

// Span returns a copy of the rows from firstYear through lastYear.
func (t *YearMonthTable) Span(firstYear int, lastYear int) *YearMonthTable {
	out := &YearMonthTable{Name: t.Name}
	for r, y := range t.Years {
		if y >= firstYear && y <= lastYear {
			out.Years = append(out.Years, y)
			out.Values = append(out.Values, t.Values[r])
		}
	}
	return out
}

// AlignYears pads whichever of a and b starts later with leading NaN rows so
// both begin in the same year. Both tables are modified in place.
func AlignYears(a *YearMonthTable, b *YearMonthTable) {
	if len(a.Years) == 0 || len(b.Years) == 0 {
		return
	}
	switch {
	case a.Years[0] < b.Years[0]:
		b.padFront(a.Years[0])
	case b.Years[0] < a.Years[0]:
		a.padFront(b.Years[0])
	}
}

func (t *YearMonthTable) padFront(firstYear int) {
	n := t.Years[0] - firstYear
	years := make([]int, 0, n+len(t.Years))
	values := make([][12]float64, 0, n+len(t.Values))
	for y := firstYear; y < t.Years[0]; y++ {
		years = append(years, y)
		values = append(values, nanRow())
	}
	t.Years = append(years, t.Years...)
	t.Values = append(values, t.Values...)
}

// PolarTables converts paired speed and direction tables into u and v tables
// cell by cell. Years present in only one input come out missing.
func PolarTables(c airsea.Converter, speed *YearMonthTable, direction *YearMonthTable) (u *YearMonthTable, v *YearMonthTable) {
	AlignYears(speed, direction)

	years := unionYears(speed.Years, direction.Years)
	u = &YearMonthTable{Name: "u", Years: years, Values: make([][12]float64, len(years))}
	v = &YearMonthTable{Name: "v", Years: years, Values: make([][12]float64, len(years))}
	for r, y := range years {
		for m := 0; m < 12; m++ {
			s := speed.At(y, time.Month(m+1))
			d := direction.At(y, time.Month(m+1))
			if math.IsNaN(s) || math.IsNaN(d) {
				u.Values[r][m], v.Values[r][m] = math.NaN(), math.NaN()
				continue
			}
			u.Values[r][m], v.Values[r][m] = c.ToCartesian(s, d)
		}
	}
	return u, v
}

func unionYears(a []int, b []int) []int {
	seen := map[int]bool{}
	var out []int
	for _, ys := range [][]int{a, b} {
		for _, y := range ys {
			if !seen[y] {
				seen[y] = true
				out = append(out, y)
			}
		}
	}
	sort.Ints(out)
	return out
}
