package dataprep

import (
	"image/color"
	"math"

	"github.com/nehme-lab/airsea-go/airsea"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var trendColor = color.RGBA{R: 220, A: 255}

// PlotSeries draws the series as lines against time and saves the chart; the
// image type follows the file extension. With trend set, each series also
// gets a dashed least squares line.
func PlotSeries(path string, title string, ylabel string, trend bool, series ...*Series) error {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = ylabel
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006"}

	for i, s := range series {
		clean := s.DropNaN()
		if clean.Len() == 0 {
			continue
		}
		xys := make(plotter.XYs, clean.Len())
		for k, t := range clean.Time {
			xys[k].X = float64(t.Unix())
			xys[k].Y = clean.Values[k]
		}
		l, err := plotter.NewLine(xys)
		if err != nil {
			return errors.Wrapf(err, "plot %s", s.Name)
		}
		l.Color = plotutil.Color(i)
		p.Add(l)
		p.Legend.Add(s.Name, l)

		if !trend {
			continue
		}
		tr, err := SeriesTrend(clean)
		if err != nil {
			logger.Warnf("no trend for %s: %v", s.Name, err)
			continue
		}
		first, last := clean.Time[0], clean.Time[clean.Len()-1]
		tl, err := plotter.NewLine(plotter.XYs{
			{X: float64(first.Unix()), Y: tr.At(DecimalYear(first))},
			{X: float64(last.Unix()), Y: tr.At(DecimalYear(last))},
		})
		if err != nil {
			return errors.Wrapf(err, "plot %s trend", s.Name)
		}
		tl.Color = trendColor
		tl.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(tl)
	}
	return savePlot(p, path, 8*vg.Inch, 4*vg.Inch)
}

// PlotMonthly draws a climatological year, one point per month.
func PlotMonthly(path string, title string, ylabel string, means [12]float64) error {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = ylabel

	var xys plotter.XYs
	for m, v := range means {
		if !math.IsNaN(v) {
			xys = append(xys, plotter.XY{X: float64(m), Y: v})
		}
	}
	if len(xys) > 0 {
		l, s, err := plotter.NewLinePoints(xys)
		if err != nil {
			return errors.Wrap(err, "plot monthly")
		}
		p.Add(l, s)
	}
	p.NominalX(MonthAbbr[:]...)
	p.Add(plotter.NewGrid())
	return savePlot(p, path, 5*vg.Inch, 3*vg.Inch)
}

// gridSlice presents one time step of a field as a heat map grid with
// ascending axes.
type gridSlice struct {
	g      *Grid
	values [][]float64
	latRev bool
	lonRev bool
}

func newGridSlice(g *Grid, values [][]float64) gridSlice {
	return gridSlice{
		g:      g,
		values: values,
		latRev: len(g.Lat) > 1 && g.Lat[0] > g.Lat[len(g.Lat)-1],
		lonRev: len(g.Lon) > 1 && g.Lon[0] > g.Lon[len(g.Lon)-1],
	}
}

func (s gridSlice) Dims() (c, r int) { return len(s.g.Lon), len(s.g.Lat) }

func (s gridSlice) col(c int) int {
	if s.lonRev {
		return len(s.g.Lon) - 1 - c
	}
	return c
}

func (s gridSlice) row(r int) int {
	if s.latRev {
		return len(s.g.Lat) - 1 - r
	}
	return r
}

func (s gridSlice) Z(c, r int) float64 { return s.values[s.row(r)][s.col(c)] }
func (s gridSlice) X(c int) float64    { return s.g.Lon[s.col(c)] }
func (s gridSlice) Y(r int) float64    { return s.g.Lat[s.row(r)] }

// PlotGrid draws one time step of a field as a heat map with the stations
// marked and labelled.
func PlotGrid(path string, g *Grid, name string, step int, stations []Station) error {
	f := g.Field(name)
	if f == nil {
		return errors.Errorf("plot grid: no variable %s", name)
	}
	if step < 0 || step >= len(f.Values) {
		return errors.Errorf("plot grid: time step %d outside 0..%d", step, len(f.Values)-1)
	}
	valid := false
	for _, row := range f.Values[step] {
		for _, v := range row {
			valid = valid || !math.IsNaN(v)
		}
	}
	if !valid {
		return errors.Errorf("plot grid: %s has no data at step %d", name, step)
	}

	p := plot.New()
	p.Title.Text = f.ColumnName()
	if step < len(g.Time) {
		p.Title.Text += " " + g.Time[step].Format("2006-01-02")
	}
	p.X.Label.Text = "longitude"
	p.Y.Label.Text = "latitude"
	p.Add(plotter.NewHeatMap(newGridSlice(g, f.Values[step]), palette.Heat(12, 1)))

	if len(stations) > 0 {
		var xys plotter.XYs
		var names []string
		for _, s := range stations {
			xys = append(xys, plotter.XY{X: s.Lon, Y: s.Lat})
			names = append(names, s.Name)
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return errors.Wrap(err, "plot stations")
		}
		p.Add(sc)
		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: names})
		if err != nil {
			return errors.Wrap(err, "plot station labels")
		}
		p.Add(labels)
	}
	return savePlot(p, path, 8*vg.Inch, 6*vg.Inch)
}

// PlotWindRose draws the share of observations per compass sector as a bar
// chart in percent.
func PlotWindRose(path string, title string, rose *airsea.WindRose) error {
	values := make(plotter.Values, 16)
	names := make([]string, 16)
	for i := range values {
		values[i] = 100 * rose.Frequency(i+1)
		names[i] = airsea.SectorName(i + 1)
	}
	bars, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return errors.Wrap(err, "plot wind rose")
	}
	bars.Color = plotutil.Color(0)

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "frequency (%)"
	p.Add(bars)
	p.NominalX(names...)
	return savePlot(p, path, 8*vg.Inch, 4*vg.Inch)
}

func savePlot(p *plot.Plot, path string, w vg.Length, h vg.Length) error {
	if err := p.Save(w, h, path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	logger.Infof("saved %s", path)
	return nil
}
