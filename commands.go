package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/akamensky/argparse"
	"github.com/nehme-lab/airsea-go/airsea"
	"github.com/nehme-lab/airsea-go/dataprep"
	"github.com/pkg/errors"
)

// Speed class lower bounds of the wind rose, m/s.
var roseBins = []float64{0, 2, 4, 6, 8, 10}

// outPath resolves name against the output directory and adds the format's
// extension when name has none.
func (a *app) outPath(name string) string {
	if filepath.Ext(name) == "" {
		name += a.format.Ext()
	}
	return a.cfg.Output(name)
}

// inPath leaves URLs alone and resolves everything else against the data
// directory.
func (a *app) inPath(name string) string {
	if strings.Contains(name, "://") {
		return name
	}
	return a.cfg.Path(name)
}

func (a *app) converter() (airsea.Converter, error) {
	return a.cfg.Wind.Converter()
}

// readerStation maps a catalogue key to the station name used in READER
// file names. Unknown keys are passed through.
func (a *app) readerStation(key string) string {
	if s, err := a.cfg.Station(key); err == nil {
		return strings.ReplaceAll(s.Name, " ", "_")
	}
	return key
}

func (a *app) regionStations(r dataprep.Region) []dataprep.Station {
	var out []dataprep.Station
	for _, s := range a.cfg.Stations {
		if r.Contains(s.Lat, s.Lon) {
			out = append(out, s)
		}
	}
	return out
}

//--------------------------------------
// wind
//--------------------------------------

func windCommand(p *argparse.Parser) command {
	cmd := p.NewCommand("wind", "Convert one wind observation between polar and cartesian form")

	op := cmd.StringPositional(&argparse.Options{
		Default: "pol2cart",
		Help:    "pol2cart (speed bearing -> u v) or cart2pol (u v -> speed bearing)"})
	x := cmd.FloatPositional(&argparse.Options{Default: 0.0, Help: "speed or u"})
	y := cmd.FloatPositional(&argparse.Options{Default: 0.0, Help: "bearing or v"})

	rotation := cmd.String("", "rotation", &argparse.Options{
		Default: "",
		Help:    "axis rotation in degrees, the configured value when empty"})
	declination := cmd.String("", "declination", &argparse.Options{
		Default: "",
		Help:    "magnetic declination in degrees, the configured value when empty"})
	convention := cmd.Selector("", "convention", []string{"", "meteorological", "oceanographic"}, &argparse.Options{
		Default: "",
		Help:    "bearing convention, the configured one when empty"})

	return command{cmd, func(a *app) error {
		w, err := windOverrides(a.cfg.Wind, *rotation, *declination, *convention)
		if err != nil {
			return err
		}
		c, err := w.Converter()
		if err != nil {
			return err
		}
		switch *op {
		case "pol2cart":
			u, v := c.ToCartesian(*x, *y)
			fmt.Printf("u=%v v=%v\n", u, v)
		case "cart2pol":
			s, b := c.ToPolar(*x, *y)
			fmt.Printf("speed=%v bearing=%v (%s)\n", s, b, airsea.SectorName(airsea.Sector16(s, b)))
		default:
			return errors.Errorf("unknown operation %q, want pol2cart or cart2pol", *op)
		}
		return nil
	}}
}

// windOverrides applies the flags that were given to the configured wind
// settings. Empty strings leave a setting alone, so "0" can reset one.
func windOverrides(w dataprep.WindConfig, rotation, declination, convention string) (dataprep.WindConfig, error) {
	if rotation != "" {
		r, err := strconv.ParseFloat(rotation, 64)
		if err != nil {
			return w, errors.Wrap(err, "rotation")
		}
		w.AxisRotation = r
	}
	if declination != "" {
		d, err := strconv.ParseFloat(declination, 64)
		if err != nil {
			return w, errors.Wrap(err, "declination")
		}
		w.MagneticDeclination = d
	}
	if convention != "" {
		w.Convention = convention
	}
	return w, nil
}

//--------------------------------------
// station-uv
//--------------------------------------

func stationUVCommand(p *argparse.Parser) command {
	cmd := p.NewCommand("station-uv", "Monthly station speed and direction sheets to u/v year x month tables")

	speed := cmd.String("s", "speed", &argparse.Options{Required: true, Help: "speed workbook"})
	direction := cmd.String("d", "direction", &argparse.Options{Required: true, Help: "direction workbook"})
	sheet := cmd.String("", "sheet", &argparse.Options{Default: "", Help: "sheet name, the first sheet when empty"})
	out := cmd.String("o", "output", &argparse.Options{Default: "station_uv", Help: "output file"})

	return command{cmd, func(a *app) error {
		c, err := a.converter()
		if err != nil {
			return err
		}
		spd, _, err := dataprep.ReadYearMonthSheet(a.inPath(*speed), *sheet, "wspd")
		if err != nil {
			return err
		}
		dir, _, err := dataprep.ReadYearMonthSheet(a.inPath(*direction), *sheet, "wdir")
		if err != nil {
			return err
		}
		u, v := dataprep.PolarTables(c, spd, dir)
		if len(u.Years) == 0 {
			return errors.New("no years in either workbook")
		}
		logger.Infof("u/v for %d years (%d-%d)", len(u.Years), u.Years[0], u.Years[len(u.Years)-1])
		return dataprep.Save(a.outPath(*out), a.format, dataprep.TableSheet("uv", u, v))
	}}
}

//--------------------------------------
// obs-6h
//--------------------------------------

func obs6hCommand(p *argparse.Parser) command {
	cmd := p.NewCommand("obs-6h", "Synoptic observations on a 6-hourly grid to year x month tables")

	input := cmd.String("i", "input", &argparse.Options{Required: true, Help: "observation workbook"})
	sheet := cmd.String("", "sheet", &argparse.Options{Default: "", Help: "sheet name, the first sheet when empty"})
	out := cmd.String("o", "output", &argparse.Options{Default: "obs_groupedby", Help: "output file"})

	return command{cmd, func(a *app) error {
		c, err := a.converter()
		if err != nil {
			return err
		}
		f, err := dataprep.ReadObservations(a.inPath(*input), *sheet)
		if err != nil {
			return err
		}
		if f.Len() == 0 {
			return errors.Errorf("%s: no observations", *input)
		}
		six := f.Reindex(dataprep.Every(6*time.Hour).Range(f.Time[0], f.Time[f.Len()-1]))
		u, v := c.PolarSeries(six.Column("wspd"), six.Column("wdir"))
		if err := six.Add("u", u); err != nil {
			return err
		}
		if err := six.Add("v", v); err != nil {
			return err
		}

		var tables []*dataprep.YearMonthTable
		for _, col := range six.Columns {
			tables = append(tables, six.Series(col).GroupYearMonth())
		}
		return dataprep.Save(a.outPath(*out), a.format, dataprep.TableSheet("obs", tables...))
	}}
}

//--------------------------------------
// wrplot
//--------------------------------------

func wrplotCommand(p *argparse.Parser) command {
	cmd := p.NewCommand("wrplot", "READER monthly wind to an hourly WRPlot sheet")

	station := cmd.String("s", "station", &argparse.Options{Default: "deception", Help: "station key or READER name"})
	root := cmd.String("", "root", &argparse.Options{Default: "", Help: "READER directory or URL, the configured one when empty"})
	out := cmd.String("o", "output", &argparse.Options{Default: "", Help: "output file, <station>_wrplot when empty"})

	return command{cmd, func(a *app) error {
		name := a.readerStation(*station)
		f, err := loadWind(a, *root, name)
		if err != nil {
			return err
		}
		s, err := dataprep.WRPlotSheet("wrplot", f)
		if err != nil {
			return err
		}
		path := *out
		if path == "" {
			path = strings.ToLower(name) + "_wrplot"
		}
		return dataprep.Save(a.outPath(path), a.format, s)
	}}
}

func loadWind(a *app, root string, station string) (*dataprep.Frame, error) {
	if root == "" {
		root = a.cfg.ReaderRoot
	}
	return dataprep.LoadREADERSet(context.Background(), a.fetch, root, station, dataprep.WindVariables)
}

//--------------------------------------
// julian
//--------------------------------------

func julianCommand(p *argparse.Parser) command {
	cmd := p.NewCommand("julian", "Daily series indexed by days since 1610-01-01 to daily, monthly and year x month outputs")

	inputs := cmd.StringList("i", "input", &argparse.Options{Required: true, Help: "CSV file or URL, repeat for several"})
	columns := cmd.StringList("", "column", &argparse.Options{Help: "names for the data columns, the file header when omitted"})

	return command{cmd, func(a *app) error {
		for _, in := range *inputs {
			if err := julianFile(a, in, *columns); err != nil {
				return errors.Wrap(err, in)
			}
		}
		return nil
	}}
}

func julianFile(a *app, in string, columns []string) error {
	r, err := a.fetch.Open(context.Background(), a.inPath(in))
	if err != nil {
		return err
	}
	daily, err := dataprep.ReadJulian(r, columns...)
	r.Close()
	if err != nil {
		return err
	}
	monthly := daily.Resample(dataprep.Monthly)

	var tables []*dataprep.YearMonthTable
	for _, col := range monthly.Columns {
		tables = append(tables, monthly.Series(col).GroupYearMonth())
	}

	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	outputs := []struct {
		suffix string
		sheet  *dataprep.Sheet
	}{
		{"_daily", dataprep.FrameSheet("daily", daily)},
		{"_monthly", dataprep.FrameSheet("monthly", monthly)},
		{"_groupedby", dataprep.TableSheet("groupedby", tables...)},
	}
	for _, o := range outputs {
		if err := dataprep.Save(a.outPath(base+o.suffix), a.format, o.sheet); err != nil {
			return err
		}
	}
	return nil
}

//--------------------------------------
// grid
//--------------------------------------

func gridCommand(p *argparse.Parser) command {
	cmd := p.NewCommand("grid", "Crop reanalysis NetCDF files to a region and reduce them to a series")

	inputs := cmd.StringList("i", "input", &argparse.Options{Required: true, Help: "NetCDF file, repeat for several"})
	region := cmd.String("r", "region", &argparse.Options{Default: "shetland", Help: "configured region name"})
	vars := cmd.StringList("", "var", &argparse.Options{Help: "variables to keep, all when omitted"})
	point := cmd.String("", "point", &argparse.Options{Default: "", Help: "lat,lon: take the nearest grid cell instead of the regional mean"})
	annual := cmd.Flag("", "annual", &argparse.Options{Help: "annual means, adding speed and bearing from the u/v variables"})
	uName := cmd.String("", "u", &argparse.Options{Default: "uwnd", Help: "zonal wind variable"})
	vName := cmd.String("", "v", &argparse.Options{Default: "vwnd", Help: "meridional wind variable"})
	table := cmd.Flag("", "table", &argparse.Options{Help: "also write year x month tables"})
	mapFile := cmd.String("", "map", &argparse.Options{Default: "", Help: "heat map of the first step of the first variable"})
	roseFile := cmd.String("", "rose", &argparse.Options{Default: "", Help: "wind rose chart of the u/v series before any annual means"})
	out := cmd.String("o", "output", &argparse.Options{Default: "grid", Help: "output file"})

	return command{cmd, func(a *app) error {
		paths := make([]string, len(*inputs))
		for i, in := range *inputs {
			paths[i] = a.inPath(in)
		}
		g, err := dataprep.OpenGrids(paths...)
		if err != nil {
			return err
		}
		g = g.StdLon()
		if len(*vars) > 0 {
			if g, err = keepVars(g, *vars); err != nil {
				return err
			}
		}
		r, err := a.cfg.Region(*region)
		if err != nil {
			return err
		}
		crop, err := g.Select(r)
		if err != nil {
			return err
		}
		logger.Infof("region %s: %d x %d cells, %d steps", r.Name, len(crop.Lat), len(crop.Lon), len(crop.Time))

		if *mapFile != "" && len(crop.Names) > 0 {
			if err := dataprep.PlotGrid(a.cfg.Output(*mapFile), crop, crop.Names[0], 0, a.regionStations(r)); err != nil {
				return err
			}
		}

		var f *dataprep.Frame
		column := func(name string) string { return name }
		if *point != "" {
			lat, lon, err := parseLatLon(*point)
			if err != nil {
				return err
			}
			i, j := g.Nearest(lat, lon)
			logger.Infof("nearest cell to %s: %v, %v", *point, g.Lat[i], g.Lon[j])
			if f, err = g.Point(i, j); err != nil {
				return err
			}
		} else {
			f = crop.SpatialMean()
			columns := crop.ColumnNames()
			column = func(name string) string {
				if c, ok := columns[name]; ok {
					return c
				}
				return name
			}
		}

		if *roseFile != "" {
			u, v := f.Column(column(*uName)), f.Column(column(*vName))
			if u == nil || v == nil {
				return errors.Errorf("wind rose: no %s and %s variables", *uName, *vName)
			}
			rose := airsea.NewWindRose(roseBins)
			rose.AddComponents(u, v)
			if rose.Total == 0 {
				return errors.Errorf("wind rose: no paired %s and %s values", *uName, *vName)
			}
			if err := os.MkdirAll(a.cfg.Output(), os.ModePerm); err != nil {
				return errors.Wrap(err, "create output directory")
			}
			if err := dataprep.PlotWindRose(a.cfg.Output(*roseFile), r.Name, rose); err != nil {
				return err
			}
		}

		if *annual {
			f = f.Resample(dataprep.Annual)
			u, v := f.Column(column(*uName)), f.Column(column(*vName))
			if u != nil && v != nil {
				c, err := a.converter()
				if err != nil {
					return err
				}
				spd, dir := c.CartesianSeries(u, v)
				if err := f.Add("wspd", spd); err != nil {
					return err
				}
				if err := f.Add("wdir", dir); err != nil {
					return err
				}
			}
		}

		sheets := []*dataprep.Sheet{dataprep.FrameSheet(r.Name, f)}
		if *table {
			var tables []*dataprep.YearMonthTable
			for _, col := range f.Columns {
				tables = append(tables, f.Series(col).GroupYearMonth())
			}
			sheets = append(sheets, dataprep.TableSheet(r.Name+"_groupedby", tables...))
		}
		return dataprep.Save(a.outPath(*out), a.format, sheets...)
	}}
}

func keepVars(g *dataprep.Grid, names []string) (*dataprep.Grid, error) {
	out := *g
	out.Names = nil
	for _, n := range names {
		if g.Field(n) == nil {
			return nil, errors.Errorf("no variable %s (have %s)", n, strings.Join(g.Names, ", "))
		}
		out.Names = append(out.Names, n)
	}
	return &out, nil
}

func parseLatLon(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, errors.Errorf("point %q: want lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "point %q", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "point %q", s)
	}
	return lat, lon, nil
}

//--------------------------------------
// stations
//--------------------------------------

func stationsCommand(p *argparse.Parser) command {
	cmd := p.NewCommand("stations", "Station workbooks to u/v tables, monthly and yearly means and trend charts")

	keys := cmd.StringList("s", "station", &argparse.Options{Help: "station key, every catalogued station when omitted"})
	plots := cmd.String("", "plots", &argparse.Options{Default: "plots", Help: "chart directory under the output directory"})

	return command{cmd, func(a *app) error {
		c, err := a.converter()
		if err != nil {
			return err
		}
		stations := a.cfg.Stations
		if len(*keys) > 0 {
			stations = nil
			for _, k := range *keys {
				s, err := a.cfg.Station(k)
				if err != nil {
					return err
				}
				stations = append(stations, s)
			}
		}
		dir := a.cfg.Output(*plots)
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
		for _, s := range stations {
			if err := stationFile(a, c, s, dir); err != nil {
				return errors.Wrap(err, s.Key)
			}
		}
		return nil
	}}
}

func stationFile(a *app, c airsea.Converter, s dataprep.Station, plotDir string) error {
	path := a.cfg.Path(s.File + ".xlsx")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Warnf("%s: no workbook at %s, skipped", s.Name, path)
		return nil
	}
	spd, spdFlag, err := dataprep.ReadYearMonthSheet(path, "Sheet1", "wspd")
	if err != nil {
		return err
	}
	dir, dirFlag, err := dataprep.ReadYearMonthSheet(path, "Sheet2", "wdir")
	if err != nil {
		return err
	}
	spdFlag.Name, dirFlag.Name = "wspd_flag", "wdir_flag"
	u, v := dataprep.PolarTables(c, spd, dir)

	sheets := []*dataprep.Sheet{
		dataprep.TableSheet(s.Key, spd, dir, u, v),
		dataprep.TableSheet(s.Key+"_flags", spdFlag, dirFlag),
	}
	if err := dataprep.Save(a.outPath(s.Key), a.format, sheets...); err != nil {
		return err
	}

	yearly := []*dataprep.Series{spd.YearlyMean(), u.YearlyMean(), v.YearlyMean()}
	for _, y := range yearly {
		if tr, err := dataprep.SeriesTrend(y); err == nil {
			logger.Infof("%s %s: %.4f per year (r=%.3f, p=%.4f, n=%d)", s.Name, y.Name, tr.Slope, tr.R, tr.P, tr.N)
		}
	}
	if err := dataprep.PlotSeries(filepath.Join(plotDir, s.Key+"_annual.png"), s.Name, "m/s", true, yearly...); err != nil {
		return err
	}
	return dataprep.PlotMonthly(filepath.Join(plotDir, s.Key+"_monthly.png"), s.Name, "m/s", spd.MonthlyMean())
}

//--------------------------------------
// windrose
//--------------------------------------

func windroseCommand(p *argparse.Parser) command {
	cmd := p.NewCommand("windrose", "Sector frequencies of READER wind data as a chart")

	station := cmd.String("s", "station", &argparse.Options{Default: "deception", Help: "station key or READER name"})
	root := cmd.String("", "root", &argparse.Options{Default: "", Help: "READER directory or URL, the configured one when empty"})
	out := cmd.String("o", "output", &argparse.Options{Default: "", Help: "chart file, <station>_windrose.png when empty"})

	return command{cmd, func(a *app) error {
		name := a.readerStation(*station)
		f, err := loadWind(a, *root, name)
		if err != nil {
			return err
		}
		rose := airsea.NewWindRose(roseBins)
		rose.AddSeries(f.Column("wspd"), f.Column("wdir"))
		if rose.Total == 0 {
			return errors.Errorf("%s: no paired speed and direction", name)
		}
		for sector := 0; sector <= 16; sector++ {
			logger.Debugf("%-4s %5.1f%%", airsea.SectorName(sector), 100*rose.Frequency(sector))
		}
		path := *out
		if path == "" {
			path = strings.ToLower(name) + "_windrose.png"
		}
		return dataprep.PlotWindRose(a.cfg.Output(path), name, rose)
	}}
}

//--------------------------------------
// studyarea
//--------------------------------------

func studyAreaCommand(p *argparse.Parser) command {
	cmd := p.NewCommand("studyarea", "Station catalogue and optional grid cells as shapefiles")

	region := cmd.String("r", "region", &argparse.Options{Default: "", Help: "keep stations inside this region"})
	out := cmd.String("o", "output", &argparse.Options{Default: "stations.shp", Help: "station shapefile"})
	input := cmd.String("i", "input", &argparse.Options{Default: "", Help: "NetCDF file whose cells are exported too"})
	variable := cmd.String("", "var", &argparse.Options{Default: "", Help: "grid variable, the first when empty"})
	step := cmd.Int("", "step", &argparse.Options{Default: 0, Help: "grid time step"})
	mapFile := cmd.String("", "map", &argparse.Options{Default: "", Help: "heat map of the grid with the stations"})

	return command{cmd, func(a *app) error {
		stations := a.cfg.Stations
		var r *dataprep.Region
		if *region != "" {
			found, err := a.cfg.Region(*region)
			if err != nil {
				return err
			}
			r = &found
			stations = a.regionStations(found)
		}
		if err := os.MkdirAll(a.cfg.Output(), os.ModePerm); err != nil {
			return errors.Wrap(err, "create output directory")
		}
		if err := dataprep.WriteStationShapefile(a.cfg.Output(*out), stations); err != nil {
			return err
		}
		if *input == "" {
			return nil
		}

		g, err := dataprep.OpenGrid(a.inPath(*input))
		if err != nil {
			return err
		}
		g = g.StdLon()
		if r != nil {
			if g, err = g.Select(*r); err != nil {
				return err
			}
		}
		name := *variable
		if name == "" {
			if len(g.Names) == 0 {
				return errors.Errorf("%s: no gridded variables", *input)
			}
			name = g.Names[0]
		}
		base := strings.TrimSuffix(*out, filepath.Ext(*out))
		if err := dataprep.WriteGridShapefile(a.cfg.Output(base+"_"+name+".shp"), g, name, *step); err != nil {
			return err
		}
		if *mapFile != "" {
			return dataprep.PlotGrid(a.cfg.Output(*mapFile), g, name, *step, stations)
		}
		return nil
	}}
}
