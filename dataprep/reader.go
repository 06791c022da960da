package dataprep

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hhkbp2/go-logging"
	"github.com/pkg/errors"
)

var logger = logging.GetLogger("airsea")

// Fetcher opens local files or http(s) URLs. Downloads are kept under
// CacheDir and read from there on later runs.
type Fetcher struct {
	Client   *http.Client
	CacheDir string
}

func isURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Open returns the content of src, downloading it when src is a URL that is
// not cached yet.
func (f *Fetcher) Open(ctx context.Context, src string) (io.ReadCloser, error) {
	if !isURL(src) {
		r, err := os.Open(src)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", src)
		}
		return r, nil
	}

	cachePath := f.cachePath(src)
	if cachePath != "" && fileExists(cachePath) {
		logger.Debugf("cached %s", cachePath)
		r, err := os.Open(cachePath)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", cachePath)
		}
		return r, nil
	}

	b, err := f.download(ctx, src)
	if err != nil {
		return nil, err
	}

	if cachePath != "" {
		logger.Infof("download %s => %s", src, cachePath)
		if err := os.MkdirAll(f.CacheDir, os.ModePerm); err != nil {
			return nil, errors.Wrapf(err, "create %s", f.CacheDir)
		}
		if err := os.WriteFile(cachePath, b, 0o644); err != nil {
			return nil, errors.Wrapf(err, "write %s", cachePath)
		}
	} else {
		logger.Infof("download %s", src)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *Fetcher) download(ctx context.Context, src string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "request %s", src)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", src)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("get %s: %s", src, resp.Status)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", src)
	}
	return b, nil
}

func (f *Fetcher) cachePath(src string) string {
	if f.CacheDir == "" {
		return ""
	}
	u, err := url.Parse(src)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return ""
	}
	return filepath.Join(f.CacheDir, name)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

//--------------------------------------
// READER monthly text files
//--------------------------------------

// ReadREADER parses a READER monthly surface file: a title line followed by
// rows of a year and up to twelve monthly values. "-" marks a missing month.
func ReadREADER(r io.Reader, name string) (*YearMonthTable, error) {
	tab := &YearMonthTable{Name: name}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		if line == 1 {
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		year, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, errors.Wrapf(err, "%s line %d: year", name, line)
		}
		if len(fields) > 13 {
			return nil, errors.Errorf("%s line %d: %d values, want at most 12", name, line, len(fields)-1)
		}
		row := nanRow()
		for m, s := range fields[1:] {
			if s == "-" {
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "%s line %d month %d", name, line, m+1)
			}
			row[m] = v
		}
		for m, v := range row {
			tab.Set(year, time.Month(m+1), v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}
	return tab, nil
}

// READERVariable names one READER variable and the file suffix it is stored
// under.
type READERVariable struct {
	Name string
	File string
}

// WindVariables are the READER wind speed and direction files.
var WindVariables = []READERVariable{
	{Name: "wspd", File: "wind_speed.txt"},
	{Name: "wdir", File: "wind_direction.txt"},
}

// READERSource returns the location of a station's READER file for v under
// root, which may be a directory or a base URL.
func READERSource(root string, station string, v READERVariable) string {
	name := station + ".All." + v.File
	if isURL(root) {
		return strings.TrimSuffix(root, "/") + "/" + name
	}
	return filepath.Join(root, name)
}

type tableAndIndex struct {
	Index int
	Table *YearMonthTable
	Err   error
}

// LoadREADERSet loads several READER variables of one station concurrently
// and merges them into a monthly frame. Rows where every variable is missing
// are dropped.
func LoadREADERSet(ctx context.Context, f *Fetcher, root string, station string, vars []READERVariable) (*Frame, error) {
	c := make(chan tableAndIndex, len(vars))
	for index, v := range vars {
		go func(index int, v READERVariable) {
			tab, err := loadREADER(ctx, f, READERSource(root, station, v), v.Name)
			c <- tableAndIndex{index, tab, err}
		}(index, v)
	}

	tables := make([]*YearMonthTable, len(vars))
	var firstErr error
	for i := 0; i < len(vars); i++ {
		ret := <-c
		if ret.Err != nil {
			if firstErr == nil {
				firstErr = ret.Err
			}
			continue
		}
		tables[ret.Index] = ret.Table
		logger.Infof("loaded %s %s", station, ret.Table.Name)
	}
	if firstErr != nil {
		return nil, firstErr
	}

	series := make([]*Series, len(tables))
	for i, t := range tables {
		series[i] = t.Stack()
	}
	return Merge(series...).DropEmptyRows(), nil
}

func loadREADER(ctx context.Context, f *Fetcher, src string, name string) (*YearMonthTable, error) {
	r, err := f.Open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return ReadREADER(r, name)
}
