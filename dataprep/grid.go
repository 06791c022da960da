package dataprep

import (
	"math"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/pkg/errors"
)

// Region is a latitude/longitude box, bounds inclusive.
type Region struct {
	Name   string  `yaml:"name"`
	LatMin float64 `yaml:"lat_min"`
	LatMax float64 `yaml:"lat_max"`
	LonMin float64 `yaml:"lon_min"`
	LonMax float64 `yaml:"lon_max"`
}

// Contains reports whether the point lies inside the box.
func (r Region) Contains(lat float64, lon float64) bool {
	return lat >= r.LatMin && lat <= r.LatMax && lon >= r.LonMin && lon <= r.LonMax
}

// Field is one gridded variable indexed [time][lat][lon], already scaled,
// with fill values replaced by NaN.
type Field struct {
	Name     string
	LongName string
	Units    string
	Values   [][][]float64
}

// ColumnName labels the field in tabular output: the long name with blanks
// as underscores, then "-(units)" with blanks in the units as dots.
func (f *Field) ColumnName() string {
	name := f.LongName
	if name == "" {
		name = f.Name
	}
	name = strings.ReplaceAll(name, " ", "_")
	if f.Units == "" {
		return name
	}
	return name + "-(" + strings.ReplaceAll(f.Units, " ", ".") + ")"
}

// Grid is a set of fields sharing time, latitude and longitude axes.
type Grid struct {
	Time   []time.Time
	Lat    []float64
	Lon    []float64
	Names  []string
	Fields map[string]*Field
}

// Field returns a variable by name, or nil.
func (g *Grid) Field(name string) *Field {
	return g.Fields[name]
}

var (
	latNames = []string{"lat", "latitude"}
	lonNames = []string{"lon", "longitude"}
)

// OpenGrid reads the (time, lat, lon) variables of a NetCDF file.
func OpenGrid(path string) (*Grid, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer nc.Close()

	g := &Grid{Fields: map[string]*Field{}}

	latName, lat, err := coordinate(nc, latNames)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	lonName, lon, err := coordinate(nc, lonNames)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	g.Lat, g.Lon = lat, lon

	tv, err := nc.GetVariable("time")
	if err != nil {
		return nil, errors.Wrapf(err, "%s: time", path)
	}
	g.Time, err = decodeTime(tv)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: time", path)
	}

	for _, name := range nc.ListVariables() {
		v, err := nc.GetVariable(name)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: %s", path, name)
		}
		if len(v.Dimensions) != 3 || v.Dimensions[0] != "time" ||
			v.Dimensions[1] != latName || v.Dimensions[2] != lonName {
			continue
		}
		f, err := readField(name, v, len(g.Time), len(g.Lat), len(g.Lon))
		if err != nil {
			return nil, errors.Wrapf(err, "%s: %s", path, name)
		}
		g.Names = append(g.Names, name)
		g.Fields[name] = f
	}
	logger.Debugf("grid %s: %d times, %d lat, %d lon, vars %v", path, len(g.Time), len(g.Lat), len(g.Lon), g.Names)
	return g, nil
}

type gridAndIndex struct {
	Index int
	Grid  *Grid
	Err   error
}

// OpenGrids reads several files concurrently and combines their variables on
// the union of their time axes. All files must share one lat/lon grid.
func OpenGrids(paths ...string) (*Grid, error) {
	if len(paths) == 0 {
		return nil, errors.New("no grid files")
	}
	c := make(chan gridAndIndex, len(paths))
	for index, p := range paths {
		go func(index int, p string) {
			g, err := OpenGrid(p)
			c <- gridAndIndex{index, g, err}
		}(index, p)
	}
	grids := make([]*Grid, len(paths))
	var firstErr error
	for i := 0; i < len(paths); i++ {
		ret := <-c
		if ret.Err != nil && firstErr == nil {
			firstErr = ret.Err
		}
		grids[ret.Index] = ret.Grid
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return Combine(grids...)
}

// Combine merges grids with identical lat/lon axes. Times are unioned and
// missing steps are NaN; a variable present in several grids keeps the last.
func Combine(grids ...*Grid) (*Grid, error) {
	if len(grids) == 0 {
		return nil, errors.New("no grids")
	}
	first := grids[0]
	seen := map[int64]time.Time{}
	for _, g := range grids {
		if !sameAxis(g.Lat, first.Lat) || !sameAxis(g.Lon, first.Lon) {
			return nil, errors.New("grids do not share a lat/lon grid")
		}
		for _, t := range g.Time {
			seen[t.UnixNano()] = t
		}
	}
	times := make([]time.Time, 0, len(seen))
	for _, t := range seen {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	out := &Grid{
		Time:   times,
		Lat:    append([]float64{}, first.Lat...),
		Lon:    append([]float64{}, first.Lon...),
		Fields: map[string]*Field{},
	}
	for _, g := range grids {
		pos := map[int64]int{}
		for i, t := range g.Time {
			pos[t.UnixNano()] = i
		}
		for _, name := range g.Names {
			src := g.Fields[name]
			f := &Field{Name: name, LongName: src.LongName, Units: src.Units}
			f.Values = make([][][]float64, len(times))
			for ti, t := range times {
				if k, ok := pos[t.UnixNano()]; ok {
					f.Values[ti] = src.Values[k]
				} else {
					f.Values[ti] = nanPlane(len(out.Lat), len(out.Lon))
				}
			}
			if _, ok := out.Fields[name]; !ok {
				out.Names = append(out.Names, name)
			}
			out.Fields[name] = f
		}
	}
	return out, nil
}

func sameAxis(a []float64, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-6 {
			return false
		}
	}
	return true
}

func nanPlane(nlat int, nlon int) [][]float64 {
	p := make([][]float64, nlat)
	for i := range p {
		p[i] = make([]float64, nlon)
		for j := range p[i] {
			p[i][j] = math.NaN()
		}
	}
	return p
}

func coordinate(nc api.Group, names []string) (string, []float64, error) {
	for _, name := range names {
		v, err := nc.GetVariable(name)
		if err != nil {
			continue
		}
		values, _, err := flatten(v.Values)
		if err != nil {
			return "", nil, errors.Wrap(err, name)
		}
		return name, values, nil
	}
	return "", nil, errors.Errorf("no coordinate named %s", strings.Join(names, " or "))
}

func readField(name string, v *api.Variable, nt int, nlat int, nlon int) (*Field, error) {
	values, shape, err := flatten(v.Values)
	if err != nil {
		return nil, err
	}
	if len(shape) != 3 || shape[0] != nt || shape[1] != nlat || shape[2] != nlon {
		return nil, errors.Errorf("shape %v, want [%d %d %d]", shape, nt, nlat, nlon)
	}

	scale, hasScale := attrFloat(v.Attributes, "scale_factor")
	offset, _ := attrFloat(v.Attributes, "add_offset")
	if !hasScale {
		scale = 1
	}
	var missing []float64
	for _, key := range []string{"_FillValue", "missing_value"} {
		if m, ok := attrFloat(v.Attributes, key); ok {
			missing = append(missing, m)
		}
	}

	f := &Field{
		Name:     name,
		LongName: attrString(v.Attributes, "long_name"),
		Units:    attrString(v.Attributes, "units"),
		Values:   make([][][]float64, nt),
	}
	k := 0
	for t := 0; t < nt; t++ {
		f.Values[t] = make([][]float64, nlat)
		for i := 0; i < nlat; i++ {
			row := make([]float64, nlon)
			for j := 0; j < nlon; j++ {
				raw := values[k]
				k++
				if isMissing(raw, missing) {
					row[j] = math.NaN()
					continue
				}
				row[j] = raw*scale + offset
			}
			f.Values[t][i] = row
		}
	}
	return f, nil
}

func isMissing(raw float64, missing []float64) bool {
	if math.IsNaN(raw) {
		return true
	}
	for _, m := range missing {
		if raw == m {
			return true
		}
	}
	return false
}

// flatten walks nested numeric slices in row-major order.
func flatten(v interface{}) ([]float64, []int, error) {
	var out []float64
	var shape []int
	var walk func(rv reflect.Value, depth int) error
	walk = func(rv reflect.Value, depth int) error {
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			if depth == len(shape) {
				shape = append(shape, rv.Len())
			} else if shape[depth] != rv.Len() {
				return errors.New("ragged array")
			}
			for i := 0; i < rv.Len(); i++ {
				if err := walk(rv.Index(i), depth+1); err != nil {
					return err
				}
			}
			return nil
		}
		x, ok := toFloat(rv)
		if !ok {
			return errors.Errorf("unsupported value type %s", rv.Type())
		}
		out = append(out, x)
		return nil
	}
	if v == nil {
		return nil, nil, errors.New("no values")
	}
	if err := walk(reflect.ValueOf(v), 0); err != nil {
		return nil, nil, err
	}
	return out, shape, nil
}

func toFloat(rv reflect.Value) (float64, bool) {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Interface:
		if rv.IsNil() {
			return 0, false
		}
		return toFloat(rv.Elem())
	}
	return 0, false
}

func attrFloat(attrs api.AttributeMap, key string) (float64, bool) {
	if attrs == nil {
		return 0, false
	}
	v, ok := attrs.Get(key)
	if !ok || v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if rv.Len() == 0 {
			return 0, false
		}
		rv = rv.Index(0)
	}
	return toFloat(rv)
}

func attrString(attrs api.AttributeMap, key string) string {
	if attrs == nil {
		return ""
	}
	v, ok := attrs.Get(key)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimRight(s, "\x00")
	case []byte:
		return strings.TrimRight(string(s), "\x00")
	}
	return ""
}

//--------------------------------------
// Time axis
//--------------------------------------

var timeUnitSeconds = map[string]float64{
	"seconds": 1, "second": 1, "secs": 1, "sec": 1, "s": 1,
	"minutes": 60, "minute": 60, "mins": 60, "min": 60,
	"hours": 3600, "hour": 3600, "hrs": 3600, "hr": 3600, "h": 3600,
	"days": 86400, "day": 86400, "d": 86400,
}

var epochLayouts = []string{
	"2006-1-2 15:4:5",
	"2006-1-2T15:4:5",
	"2006-1-2 15:4",
	"2006-1-2",
}

// ParseTimeUnits splits a CF "<unit> since <epoch>" string into the length of
// one unit in seconds and the epoch.
func ParseTimeUnits(units string) (float64, time.Time, error) {
	parts := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(parts) != 2 {
		return 0, time.Time{}, errors.Errorf("time units %q: want \"<unit> since <date>\"", units)
	}
	step, ok := timeUnitSeconds[strings.ToLower(strings.TrimSpace(parts[0]))]
	if !ok {
		return 0, time.Time{}, errors.Errorf("time units %q: unknown unit", units)
	}
	ref := strings.TrimSpace(parts[1])
	ref = strings.TrimSuffix(ref, "UTC")
	ref = strings.TrimSuffix(ref, "Z")
	ref = strings.TrimSpace(ref)
	for _, layout := range epochLayouts {
		if t, err := time.Parse(layout, ref); err == nil {
			return step, t, nil
		}
	}
	return 0, time.Time{}, errors.Errorf("time units %q: bad epoch", units)
}

// OffsetTime adds n units of step seconds to epoch, rounded to the
// microsecond.
func OffsetTime(epoch time.Time, step float64, n float64) time.Time {
	sec := n * step
	days := math.Floor(sec / 86400)
	rem := sec - days*86400
	return epoch.AddDate(0, 0, int(days)).Add(time.Duration(math.Round(rem*1e6)) * time.Microsecond)
}

func decodeTime(v *api.Variable) ([]time.Time, error) {
	values, _, err := flatten(v.Values)
	if err != nil {
		return nil, err
	}
	step, epoch, err := ParseTimeUnits(attrString(v.Attributes, "units"))
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(values))
	for i, n := range values {
		out[i] = OffsetTime(epoch, step, n)
	}
	return out, nil
}

//--------------------------------------
// Selection and reduction
//--------------------------------------

// StdLon maps longitudes from 0..360 to -180..180 and reorders the grid so
// longitude ascends.
func (g *Grid) StdLon() *Grid {
	lon := make([]float64, len(g.Lon))
	for j, x := range g.Lon {
		lon[j] = floorMod(x+180, 360) - 180
	}
	order := make([]int, len(lon))
	for j := range order {
		order[j] = j
	}
	sort.SliceStable(order, func(a, b int) bool { return lon[order[a]] < lon[order[b]] })

	out := &Grid{
		Time:   append([]time.Time{}, g.Time...),
		Lat:    append([]float64{}, g.Lat...),
		Names:  append([]string{}, g.Names...),
		Fields: map[string]*Field{},
	}
	for _, j := range order {
		out.Lon = append(out.Lon, lon[j])
	}
	for _, name := range g.Names {
		out.Fields[name] = g.Fields[name].subset(allIndex(len(g.Time)), allIndex(len(g.Lat)), order)
	}
	return out
}

func floorMod(x float64, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}

func allIndex(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func (f *Field) subset(ts []int, lats []int, lons []int) *Field {
	out := &Field{Name: f.Name, LongName: f.LongName, Units: f.Units}
	out.Values = make([][][]float64, len(ts))
	for a, t := range ts {
		out.Values[a] = make([][]float64, len(lats))
		for b, i := range lats {
			row := make([]float64, len(lons))
			for c, j := range lons {
				row[c] = f.Values[t][i][j]
			}
			out.Values[a][b] = row
		}
	}
	return out
}

// Select crops the grid to the region. The axes keep their original
// orientation.
func (g *Grid) Select(r Region) (*Grid, error) {
	var lats, lons []int
	for i, x := range g.Lat {
		if x >= r.LatMin && x <= r.LatMax {
			lats = append(lats, i)
		}
	}
	for j, x := range g.Lon {
		if x >= r.LonMin && x <= r.LonMax {
			lons = append(lons, j)
		}
	}
	if len(lats) == 0 || len(lons) == 0 {
		return nil, errors.Errorf("region %s selects no grid cells", r.Name)
	}

	out := &Grid{
		Time:   append([]time.Time{}, g.Time...),
		Names:  append([]string{}, g.Names...),
		Fields: map[string]*Field{},
	}
	for _, i := range lats {
		out.Lat = append(out.Lat, g.Lat[i])
	}
	for _, j := range lons {
		out.Lon = append(out.Lon, g.Lon[j])
	}
	for _, name := range g.Names {
		out.Fields[name] = g.Fields[name].subset(allIndex(len(g.Time)), lats, lons)
	}
	return out, nil
}

// ColumnNames maps each variable to its tabular column. Fields whose
// ColumnName is already taken fall back to the variable name, then to
// "<column>_<variable>".
func (g *Grid) ColumnNames() map[string]string {
	out := make(map[string]string, len(g.Names))
	taken := make(map[string]bool, len(g.Names))
	for _, name := range g.Names {
		col := g.Fields[name].ColumnName()
		if taken[col] {
			if taken[name] {
				col = col + "_" + name
			} else {
				col = name
			}
		}
		taken[col] = true
		out[name] = col
	}
	return out
}

// SpatialMean averages every field over latitude and longitude at each time
// step, skipping NaN cells. Columns are named by ColumnNames.
func (g *Grid) SpatialMean() *Frame {
	f := NewFrame(g.Time)
	columns := g.ColumnNames()
	for _, name := range g.Names {
		field := g.Fields[name]
		col := make([]float64, len(g.Time))
		for t := range g.Time {
			var m meanAcc
			for _, row := range field.Values[t] {
				for _, v := range row {
					m.add(v)
				}
			}
			col[t] = m.mean()
		}
		_ = f.Add(columns[name], col)
	}
	return f
}

// Point returns every field at one grid cell, columns named by variable.
func (g *Grid) Point(latIndex int, lonIndex int) (*Frame, error) {
	if latIndex < 0 || latIndex >= len(g.Lat) || lonIndex < 0 || lonIndex >= len(g.Lon) {
		return nil, errors.Errorf("grid point (%d, %d) outside %dx%d grid", latIndex, lonIndex, len(g.Lat), len(g.Lon))
	}
	f := NewFrame(g.Time)
	for _, name := range g.Names {
		col := make([]float64, len(g.Time))
		for t := range g.Time {
			col[t] = g.Fields[name].Values[t][latIndex][lonIndex]
		}
		_ = f.Add(name, col)
	}
	return f, nil
}

// Nearest returns the indices of the grid cell closest to (lat, lon).
func (g *Grid) Nearest(lat float64, lon float64) (int, int) {
	return nearestIndex(g.Lat, lat), nearestIndex(g.Lon, lon)
}

func nearestIndex(axis []float64, x float64) int {
	best := 0
	for i, a := range axis {
		if math.Abs(a-x) < math.Abs(axis[best]-x) {
			best = i
		}
	}
	return best
}
