package dataprep

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Trend is an ordinary least squares line y = Intercept + Slope*x.
type Trend struct {
	Slope          float64
	Intercept      float64
	R              float64 // correlation coefficient
	P              float64 // two-sided p-value of slope == 0
	StdErr         float64 // standard error of the slope
	InterceptError float64 // standard error of the intercept
	N              int
}

// At evaluates the line at x.
func (t Trend) At(x float64) float64 {
	return t.Intercept + t.Slope*x
}

// LinearTrend fits a least squares line through the pairs where both x and y
// are present. At least three pairs are needed.
func LinearTrend(x []float64, y []float64) (Trend, error) {
	if len(x) != len(y) {
		return Trend{}, errors.Errorf("trend: %d x values, %d y values", len(x), len(y))
	}
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	n := len(xs)
	if n < 3 {
		return Trend{}, errors.Errorf("trend: %d valid pairs, need at least 3", n)
	}

	xmean, xvar := stat.PopMeanVariance(xs, nil)
	_, yvar := stat.PopMeanVariance(ys, nil)
	if xvar == 0 {
		return Trend{}, errors.New("trend: x values are all equal")
	}

	t := Trend{N: n}
	t.Intercept, t.Slope = stat.LinearRegression(xs, ys, nil, false)
	if yvar == 0 {
		t.R = 0
	} else {
		t.R = stat.Correlation(xs, ys, nil)
	}

	df := float64(n - 2)
	r := math.Max(-1, math.Min(1, t.R))
	if 1-math.Abs(r) < 1e-12 {
		t.P = 0
		t.StdErr = 0
	} else {
		tstat := r * math.Sqrt(df/((1-r)*(1+r)))
		dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
		t.P = 2 * dist.Survival(math.Abs(tstat))
		t.StdErr = math.Sqrt((1 - r*r) * yvar / xvar / df)
	}
	t.InterceptError = t.StdErr * math.Sqrt(xvar+xmean*xmean)
	return t, nil
}

// SeriesTrend fits a line against decimal years, so the slope is per year.
func SeriesTrend(s *Series) (Trend, error) {
	x := make([]float64, len(s.Time))
	for i, t := range s.Time {
		x[i] = DecimalYear(t)
	}
	return LinearTrend(x, s.Values)
}

// DecimalYear is the year plus the elapsed fraction of it.
func DecimalYear(t time.Time) float64 {
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	end := start.AddDate(1, 0, 0)
	return float64(t.Year()) + float64(t.Sub(start))/float64(end.Sub(start))
}
