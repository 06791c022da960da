package dataprep

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/nehme-lab/airsea-go/airsea"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Station is one entry of the station catalogue. Latitudes are negative
// south, longitudes negative west.
type Station struct {
	Key  string  `yaml:"key"`
	Name string  `yaml:"name"`
	ID   string  `yaml:"id"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
	Alt  float64 `yaml:"alt"`
	File string  `yaml:"file"`
}

// WindConfig holds the converter settings.
type WindConfig struct {
	AxisRotation        float64 `yaml:"axis_rotation"`
	MagneticDeclination float64 `yaml:"magnetic_declination"`
	Convention          string  `yaml:"convention"`
	Normalize           string  `yaml:"normalize"`
}

// Converter builds the wind converter described by the settings. Empty
// names select the defaults.
func (w WindConfig) Converter() (airsea.Converter, error) {
	c := airsea.Converter{
		AxisRotation:        w.AxisRotation,
		MagneticDeclination: w.MagneticDeclination,
	}
	switch strings.ToLower(w.Convention) {
	case "", "meteorological":
		c.Convention = airsea.Meteorological
	case "oceanographic":
		c.Convention = airsea.Oceanographic
	default:
		return c, errors.Errorf("unknown wind convention %q", w.Convention)
	}
	switch strings.ToLower(w.Normalize) {
	case "", "single":
		c.Normalize = airsea.SingleWrap
	case "full":
		c.Normalize = airsea.FullWrap
	default:
		return c, errors.Errorf("unknown angle normalization %q", w.Normalize)
	}
	return c, nil
}

// Config locates inputs and outputs and carries the study area settings.
type Config struct {
	DataDir    string     `yaml:"data_dir"`
	OutputDir  string     `yaml:"output_dir"`
	CacheDir   string     `yaml:"cache_dir"`
	ReaderRoot string     `yaml:"reader_root"`
	Regions    []Region   `yaml:"regions"`
	Stations   []Station  `yaml:"stations"`
	Wind       WindConfig `yaml:"wind"`
}

// DefaultReaderRoot is the public READER surface archive.
const DefaultReaderRoot = "https://legacy.bas.ac.uk/met/READER/surface"

// DefaultConfig returns the South Shetland study settings.
func DefaultConfig() *Config {
	return &Config{
		DataDir:    ".",
		OutputDir:  "output",
		CacheDir:   ".reader_cache",
		ReaderRoot: DefaultReaderRoot,
		Regions: []Region{
			{Name: "shetland", LatMin: -63.5, LatMax: -61.8, LonMin: -63.1, LonMax: -57.4},
			{Name: "king_george", LatMin: -62.5, LatMax: -61.8, LonMin: -59.3, LonMax: -57.4},
		},
		Stations: []Station{
			{Key: "arturo_prat", Name: "Arturo Prat", ID: "89057", Lat: -62.5, Lon: -59.7, Alt: 5, File: "arturo_prat"},
			{Key: "bellingshausen", Name: "Bellingshausen", ID: "89050", Lat: -62.2, Lon: -58.9, Alt: 16, File: "bellingshausen"},
			{Key: "deception", Name: "Deception", ID: "88938", Lat: -63.0, Lon: -60.7, Alt: 8, File: "deception"},
			{Key: "esperanza", Name: "Esperanza", ID: "88963", Lat: -63.4, Lon: -57.0, Alt: 13, File: "esperanza"},
			{Key: "faraday", Name: "Faraday", ID: "89063", Lat: -65.4, Lon: -64.4, Alt: 11, File: "faraday"},
			{Key: "ferraz", Name: "Ferraz", ID: "89252", Lat: -62.1, Lon: -58.4, Alt: 20, File: "ferraz"},
			{Key: "great_wall", Name: "Great Wall", ID: "89058", Lat: -62.2, Lon: -59.0, Alt: 10, File: "great_wall"},
			{Key: "jubany", Name: "Jubany", ID: "89053", Lat: -62.2, Lon: -58.6, Alt: 4, File: "jubany"},
			{Key: "king_sejong", Name: "King Sejong", ID: "89251", Lat: -62.2, Lon: -58.7, Alt: 11, File: "king_sejong"},
			{Key: "marambio", Name: "Marambio", ID: "89055", Lat: -64.2, Lon: -56.7, Alt: 198, File: "marambio"},
			{Key: "marsh", Name: "Marsh", ID: "89056", Lat: -62.2, Lon: -58.9, Alt: 10, File: "marsh"},
			{Key: "o_higgins", Name: "O'Higgins", ID: "89059", Lat: -63.3, Lon: -57.9, Alt: 10, File: "o_higgins"},
			{Key: "orcadas", Name: "Orcadas", ID: "88968", Lat: -60.7, Lon: -44.7, Alt: 6, File: "orcadas"},
			{Key: "palmer", Name: "Palmer", ID: "89061", Lat: -64.3, Lon: -64.0, Alt: 8, File: "palmer"},
			{Key: "signy", Name: "Signy", ID: "89042", Lat: -60.7, Lon: -45.6, Alt: 6, File: "signy"},
		},
	}
}

// LoadConfig reads a YAML file over the defaults. A missing file, or an
// empty path, yields the defaults. Lists given in the file replace the
// default lists.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logger.Infof("no config at %s, using defaults", path)
		return c, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	if _, err := c.Wind.Converter(); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return c, nil
}

func join(base string, elem []string) string {
	p := filepath.Join(elem...)
	if filepath.IsAbs(p) || base == "" {
		return p
	}
	return filepath.Join(base, p)
}

// Path resolves an input path against DataDir. Absolute paths are kept.
func (c *Config) Path(elem ...string) string {
	return join(c.DataDir, elem)
}

// Output resolves an output path against OutputDir. Absolute paths are kept.
func (c *Config) Output(elem ...string) string {
	return join(c.OutputDir, elem)
}

// Region looks a region up by name.
func (c *Config) Region(name string) (Region, error) {
	for _, r := range c.Regions {
		if strings.EqualFold(r.Name, name) {
			return r, nil
		}
	}
	return Region{}, errors.Errorf("unknown region %q", name)
}

// Station looks a station up by key or name.
func (c *Config) Station(key string) (Station, error) {
	for _, s := range c.Stations {
		if strings.EqualFold(s.Key, key) || strings.EqualFold(s.Name, key) {
			return s, nil
		}
	}
	return Station{}, errors.Errorf("unknown station %q", key)
}
