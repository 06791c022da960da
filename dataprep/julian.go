package dataprep

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// JulianEpoch is day zero of the solar irradiance reconstructions.
var JulianEpoch = time.Date(1610, time.January, 1, 0, 0, 0, 0, time.UTC)

// JulianToTime converts fractional days since JulianEpoch to a time,
// rounded to the microsecond.
func JulianToTime(days float64) time.Time {
	whole := math.Floor(days)
	frac := time.Duration(math.Round((days-whole)*86400e6)) * time.Microsecond
	return JulianEpoch.AddDate(0, 0, int(whole)).Add(frac)
}

// ReadJulian reads a CSV whose first column counts days since JulianEpoch.
// The header row is replaced by names when given (without the day column);
// otherwise the file's own header names the columns. Empty cells are NaN.
func ReadJulian(r io.Reader, names ...string) (*Frame, error) {
	csvReader := csv.NewReader(r)
	csvReader.ReuseRecord = true
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if err == io.EOF {
		return nil, errors.New("julian: empty file")
	}
	if err != nil {
		return nil, errors.Wrap(err, "julian: header")
	}
	if len(names) == 0 {
		for _, h := range header[1:] {
			names = append(names, strings.TrimSpace(h))
		}
	}

	var times []time.Time
	cols := make([][]float64, len(names))
	for line := 2; ; line++ {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "julian: line %d", line)
		}
		if len(row) != len(names)+1 {
			return nil, errors.Errorf("julian: line %d has %d columns, want %d", line, len(row), len(names)+1)
		}
		days, err := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "julian: line %d", line)
		}
		times = append(times, JulianToTime(days))
		for i, s := range row[1:] {
			v, err := parseCell(s)
			if err != nil {
				return nil, errors.Wrapf(err, "julian: line %d column %s", line, names[i])
			}
			cols[i] = append(cols[i], v)
		}
	}

	f := NewFrame(times)
	for i, name := range names {
		if cols[i] == nil {
			cols[i] = []float64{}
		}
		if err := f.Add(name, cols[i]); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// parseCell reads a numeric cell; blanks and the usual missing markers are
// NaN.
func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "-", "nan", "variable":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
