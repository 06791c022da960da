package dataprep

import (
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// Frame is a set of named float columns sharing one time index.
type Frame struct {
	Time    []time.Time
	Columns []string
	Data    map[string][]float64
}

// NewFrame returns an empty frame over the given time index.
func NewFrame(t []time.Time) *Frame {
	return &Frame{
		Time: append([]time.Time{}, t...),
		Data: map[string][]float64{},
	}
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Time) }

// Add appends a column. Adding an existing name replaces its values in place.
func (f *Frame) Add(name string, values []float64) error {
	if len(values) != len(f.Time) {
		return errors.Errorf("column %q has %d rows, frame has %d", name, len(values), len(f.Time))
	}
	if _, ok := f.Data[name]; !ok {
		f.Columns = append(f.Columns, name)
	}
	f.Data[name] = append([]float64{}, values...)
	return nil
}

// Column returns the values of a column, or nil.
func (f *Frame) Column(name string) []float64 {
	return f.Data[name]
}

// Series returns one column as a Series.
func (f *Frame) Series(name string) *Series {
	return &Series{
		Name:   name,
		Time:   append([]time.Time{}, f.Time...),
		Values: append([]float64{}, f.Data[name]...),
	}
}

// Merge aligns the series on the union of their timestamps. Each series
// becomes a column named after it; cells with no observation are NaN.
func Merge(series ...*Series) *Frame {
	seen := map[int64]time.Time{}
	for _, s := range series {
		for _, t := range s.Time {
			seen[t.UnixNano()] = t
		}
	}
	index := make([]time.Time, 0, len(seen))
	for _, t := range seen {
		index = append(index, t)
	}
	sort.Slice(index, func(i, j int) bool { return index[i].Before(index[j]) })

	f := NewFrame(index)
	for _, s := range series {
		// a duplicate name keeps the last series
		_ = f.Add(s.Name, s.Reindex(index).Values)
	}
	return f
}

// Reindex returns the frame sampled at each time of grid, NaN where absent.
func (f *Frame) Reindex(grid []time.Time) *Frame {
	out := NewFrame(grid)
	for _, c := range f.Columns {
		_ = out.Add(c, f.Series(c).Reindex(grid).Values)
	}
	return out
}

// Resample averages every column over calendar periods.
func (f *Frame) Resample(p Period) *Frame {
	if len(f.Columns) == 0 {
		return NewFrame(nil)
	}
	first := f.Series(f.Columns[0]).Resample(p)
	out := NewFrame(first.Time)
	for _, c := range f.Columns {
		_ = out.Add(c, f.Series(c).Resample(p).Values)
	}
	return out
}

// DropEmptyRows removes rows where every column is NaN.
func (f *Frame) DropEmptyRows() *Frame {
	var keep []int
	for i := range f.Time {
		for _, c := range f.Columns {
			if !math.IsNaN(f.Data[c][i]) {
				keep = append(keep, i)
				break
			}
		}
	}
	out := &Frame{Columns: append([]string{}, f.Columns...), Data: map[string][]float64{}}
	for _, i := range keep {
		out.Time = append(out.Time, f.Time[i])
	}
	for _, c := range f.Columns {
		col := make([]float64, len(keep))
		for k, i := range keep {
			col[k] = f.Data[c][i]
		}
		out.Data[c] = col
	}
	return out
}
