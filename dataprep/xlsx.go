package dataprep

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// ParseFlagged splits a station cell of the form "12.3(4)" into the value
// and its quality flag. Plain numbers have a NaN flag; blanks and "-" are
// missing.
func ParseFlagged(cell string) (value float64, flag float64, err error) {
	cell = strings.TrimSpace(cell)
	flag = math.NaN()
	if open := strings.IndexByte(cell, '('); open >= 0 {
		f := strings.TrimSpace(strings.TrimSuffix(cell[open+1:], ")"))
		if f != "" {
			if flag, err = strconv.ParseFloat(f, 64); err != nil {
				return math.NaN(), math.NaN(), errors.Wrapf(err, "flag of %q", cell)
			}
		}
		cell = strings.TrimSpace(cell[:open])
	}
	value, err = parseCell(cell)
	if err != nil {
		return math.NaN(), math.NaN(), errors.Wrapf(err, "value of %q", cell)
	}
	return value, flag, nil
}

func firstSheet(f *excelize.File, sheet string) string {
	if sheet != "" {
		return sheet
	}
	if list := f.GetSheetList(); len(list) > 0 {
		return list[0]
	}
	return ""
}

// ReadYearMonthSheet reads a wide station sheet: a header row, a year column
// (headed "Year", else the first column) and the twelve month columns that
// follow it. Cells may carry a "(flag)" suffix, returned in the flags table.
// An empty sheet name reads the first sheet.
func ReadYearMonthSheet(path string, sheet string, name string) (values *YearMonthTable, flags *YearMonthTable, err error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	sheet = firstSheet(f, sheet)
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s: sheet %s", path, sheet)
	}
	if len(rows) == 0 {
		return nil, nil, errors.Errorf("%s: sheet %s is empty", path, sheet)
	}

	yearCol := 0
	for i, h := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(h), "year") {
			yearCol = i
			break
		}
	}
	var monthCols []int
	for i := range rows[0] {
		if i != yearCol && len(monthCols) < 12 {
			monthCols = append(monthCols, i)
		}
	}

	values = &YearMonthTable{Name: name}
	flags = &YearMonthTable{Name: name + "_flag"}
	for r, row := range rows[1:] {
		if yearCol >= len(row) || strings.TrimSpace(row[yearCol]) == "" {
			continue
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(row[yearCol]), 64)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "%s: row %d year", path, r+2)
		}
		year := int(y)
		for m, c := range monthCols {
			cell := ""
			if c < len(row) {
				cell = row[c]
			}
			v, fl, err := ParseFlagged(cell)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "%s: row %d", path, r+2)
			}
			values.Set(year, time.Month(m+1), v)
			flags.Set(year, time.Month(m+1), fl)
		}
	}
	return values, flags, nil
}

// ObservationColumns are the columns of a station observation sheet after
// the leading datetime column.
var ObservationColumns = []string{"temp", "wspd", "wdir"}

// ReadObservations reads a sheet of timestamped observations: datetime, temp,
// wspd, wdir after one header row. "variable" and blank cells are missing.
func ReadObservations(path string, sheet string) (*Frame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	sheet = firstSheet(f, sheet)
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "%s: sheet %s", path, sheet)
	}

	series := make([]*Series, len(ObservationColumns))
	for i, name := range ObservationColumns {
		series[i] = &Series{Name: name}
	}
	for r := 1; r < len(rows); r++ {
		row := rows[r]
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		t, err := parseCellTime(row[0])
		if err != nil {
			return nil, errors.Wrapf(err, "%s: row %d", path, r+1)
		}
		for i := range ObservationColumns {
			cell := ""
			if i+1 < len(row) {
				cell = row[i+1]
			}
			v, err := parseCell(cell)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: row %d column %s", path, r+1, ObservationColumns[i])
			}
			series[i].Time = append(series[i].Time, t)
			series[i].Values = append(series[i].Values, v)
		}
	}
	for _, s := range series {
		s.sort()
	}
	return Merge(series...), nil
}

var cellTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
}

// parseCellTime reads an Excel serial date or a formatted date string.
func parseCellTime(cell string) (time.Time, error) {
	cell = strings.TrimSpace(cell)
	if serial, err := strconv.ParseFloat(cell, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, errors.Wrapf(err, "date %q", cell)
		}
		// serials carry float noise: round to the second
		return t.Round(time.Second), nil
	}
	for _, layout := range cellTimeLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("date %q: unknown format", cell)
}
