package dataprep

import (
	"math"
	"os"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/pkg/errors"
)

// pointLayer writes a POINT shapefile with an attribute table.
//
// shp.Writer creates the table as "<base>dbf"; Close moves it to
// "<base>.dbf", where GIS readers and shp.Open look for it.
type pointLayer struct {
	w    *shp.Writer
	path string
	base string
	n    int
}

func createPointLayer(path string, fields []shp.Field) (*pointLayer, error) {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	base := path
	if strings.HasSuffix(strings.ToLower(path), ".shp") {
		base = path[:len(path)-4]
	}
	l := &pointLayer{w: w, path: path, base: base}
	if err := w.SetFields(fields); err != nil {
		l.Close()
		return nil, errors.Wrapf(err, "%s: fields", path)
	}
	return l, nil
}

// Add writes one point and its attributes in field order.
func (l *pointLayer) Add(x float64, y float64, attrs ...interface{}) error {
	row := int(l.w.Write(&shp.Point{X: x, Y: y}))
	for i, v := range attrs {
		if err := l.w.WriteAttribute(row, i, v); err != nil {
			return err
		}
	}
	l.n++
	return nil
}

func (l *pointLayer) Close() error {
	l.w.Close()
	stray := l.base + "dbf"
	if _, err := os.Stat(stray); err != nil {
		return nil
	}
	if err := os.Rename(stray, l.base+".dbf"); err != nil {
		return errors.Wrapf(err, "%s: attribute table", l.path)
	}
	return nil
}

// WriteStationShapefile writes the stations as a point layer with name, WMO
// id and altitude attributes.
func WriteStationShapefile(path string, stations []Station) error {
	l, err := createPointLayer(path, []shp.Field{
		shp.StringField("NAME", 32),
		shp.StringField("ID", 8),
		shp.FloatField("ALT", 8, 1),
	})
	if err != nil {
		return err
	}
	for _, s := range stations {
		if err := l.Add(s.Lon, s.Lat, s.Name, s.ID, s.Alt); err != nil {
			l.Close()
			return errors.Wrapf(err, "%s: station %s", path, s.Name)
		}
	}
	if err := l.Close(); err != nil {
		return err
	}
	logger.Infof("saved %s (%d stations)", path, l.n)
	return nil
}

// WriteGridShapefile writes the cell centres of one time step of a field as
// a point layer with LAT, LON and VALUE attributes. Missing cells are left
// out.
func WriteGridShapefile(path string, g *Grid, name string, step int) error {
	f := g.Field(name)
	if f == nil {
		return errors.Errorf("grid shapefile: no variable %s", name)
	}
	if step < 0 || step >= len(f.Values) {
		return errors.Errorf("grid shapefile: time step %d outside 0..%d", step, len(f.Values)-1)
	}

	l, err := createPointLayer(path, []shp.Field{
		shp.FloatField("LAT", 10, 4),
		shp.FloatField("LON", 10, 4),
		shp.FloatField("VALUE", 18, 6),
	})
	if err != nil {
		return err
	}
	for i, lat := range g.Lat {
		for j, lon := range g.Lon {
			v := f.Values[step][i][j]
			if math.IsNaN(v) {
				continue
			}
			if err := l.Add(lon, lat, lat, lon, v); err != nil {
				l.Close()
				return errors.Wrapf(err, "%s: cell (%d, %d)", path, i, j)
			}
		}
	}
	if err := l.Close(); err != nil {
		return err
	}
	logger.Infof("saved %s (%d cells)", path, l.n)
	return nil
}
