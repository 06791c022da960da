package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nehme-lab/airsea-go/dataprep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseLatLon(t *testing.T) {
	lat, lon, err := parseLatLon("-62.1, -58.4")
	require.NoError(t, err)
	assert.Equal(t, -62.1, lat)
	assert.Equal(t, -58.4, lon)

	_, _, err = parseLatLon("-62.1")
	assert.Error(t, err)
	_, _, err = parseLatLon("a,b")
	assert.Error(t, err)
}

func Test_keepVars(t *testing.T) {
	g := &dataprep.Grid{
		Names:  []string{"uwnd", "vwnd", "air"},
		Fields: map[string]*dataprep.Field{"uwnd": {}, "vwnd": {}, "air": {}},
	}
	k, err := keepVars(g, []string{"air"})
	require.NoError(t, err)
	assert.Equal(t, []string{"air"}, k.Names)
	assert.Len(t, g.Names, 3)

	_, err = keepVars(g, []string{"slp"})
	assert.Error(t, err)
}

func Test_app_paths(t *testing.T) {
	cfg := dataprep.DefaultConfig()
	cfg.DataDir, cfg.OutputDir = "data", "out"
	a := &app{cfg: cfg, format: dataprep.XLSX}

	assert.Equal(t, filepath.Join("out", "uv.xlsx"), a.outPath("uv"))
	assert.Equal(t, filepath.Join("out", "uv.csv"), a.outPath("uv.csv"))
	assert.Equal(t, filepath.Join("data", "x.nc"), a.inPath("x.nc"))
	assert.Equal(t, "https://example.org/x.txt", a.inPath("https://example.org/x.txt"))
	assert.Equal(t, "King_Sejong", a.readerStation("king_sejong"))
	assert.Equal(t, "Rothera", a.readerStation("Rothera"))

	r, err := cfg.Region("king_george")
	require.NoError(t, err)
	for _, s := range a.regionStations(r) {
		assert.True(t, r.Contains(s.Lat, s.Lon), s.Name)
	}
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "airsea.yaml")
	body := "data_dir: " + dir + "\noutput_dir: " + filepath.Join(dir, "out") + "\ncache_dir: " + filepath.Join(dir, "cache") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func Test_mainWithErr_wrplot(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Deception.All.wind_speed.txt"),
		[]byte("Deception wind_speed\n1948 5.1 6.2\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Deception.All.wind_direction.txt"),
		[]byte("Deception wind_direction\n1948 270 -\n"), 0o644))

	err := mainWithErr([]string{"airsea", "wrplot", "--station", "deception", "--root", dir, "-o", "dec", "--config", cfg})
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "out", "dec.csv"))
	require.NoError(t, err)
	lines := strings.Split(string(b), "\n")
	assert.Equal(t, "year,month,day,hour,wspd,wdir", lines[0])
	assert.Equal(t, "1948,1,1,0,5.1,270", lines[1])
	assert.Equal(t, "1948,1,1,1,,", lines[2])
}

func Test_mainWithErr_stationsSkipsMissing(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	err := mainWithErr([]string{"airsea", "stations", "-s", "ferraz", "--config", cfg})
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "out", "plots"))
	assert.NoError(t, err)

	err = mainWithErr([]string{"airsea", "stations", "-s", "vostok", "--config", cfg})
	assert.Error(t, err)
}

func Test_windOverrides(t *testing.T) {
	cfg := dataprep.WindConfig{AxisRotation: 30, MagneticDeclination: -12.5, Convention: "oceanographic"}

	w, err := windOverrides(cfg, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, cfg, w)

	// an explicit zero resets the configured value
	w, err = windOverrides(cfg, "0", "0", "meteorological")
	require.NoError(t, err)
	assert.Equal(t, 0.0, w.AxisRotation)
	assert.Equal(t, 0.0, w.MagneticDeclination)
	assert.Equal(t, "meteorological", w.Convention)

	w, err = windOverrides(cfg, "-45", "", "")
	require.NoError(t, err)
	assert.Equal(t, -45.0, w.AxisRotation)
	assert.Equal(t, -12.5, w.MagneticDeclination)

	_, err = windOverrides(cfg, "ten", "", "")
	assert.Error(t, err)
	_, err = windOverrides(cfg, "", "1,5", "")
	assert.Error(t, err)
}
