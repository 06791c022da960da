package dataprep

import (
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// TimeLayout formats frame indexes.
const TimeLayout = "2006-01-02 15:04:05"

// Sheet is a rectangular table ready to be written: optional row labels, one
// or more header rows over the data columns and float cells. NaN cells are
// written empty.
type Sheet struct {
	Name      string
	IndexName string
	Index     []string
	Header    [][]string
	Rows      [][]float64
}

// Columns joins the header rows of each data column with "_", skipping
// blank levels.
func (s *Sheet) Columns() []string {
	if len(s.Header) == 0 {
		return nil
	}
	cols := make([]string, len(s.Header[len(s.Header)-1]))
	for c := range cols {
		var parts []string
		for _, h := range s.Header {
			if c < len(h) && h[c] != "" {
				parts = append(parts, h[c])
			}
		}
		cols[c] = strings.Join(parts, "_")
	}
	return cols
}

// WriteCSV writes the sheet as comma separated text.
func (s *Sheet) WriteCSV(w io.Writer) error {
	buf := bytes.NewBuffer([]byte{})
	hasIndex := s.Index != nil

	for level, h := range s.Header {
		if hasIndex {
			if level == len(s.Header)-1 {
				buf.WriteString(s.IndexName)
			}
			buf.WriteString(",")
		}
		buf.WriteString(strings.Join(h, ","))
		buf.WriteString("\n")
	}

	writeFloat := func(v float64) {
		if !math.IsNaN(v) {
			buf.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	for r, row := range s.Rows {
		if hasIndex {
			buf.WriteString(s.Index[r])
			buf.WriteString(",")
		}
		for c, v := range row {
			if c > 0 {
				buf.WriteString(",")
			}
			writeFloat(v)
		}
		buf.WriteString("\n")
	}
	_, err := w.Write(buf.Bytes())
	return errors.Wrap(err, "write csv")
}

// WriteXLSX writes every sheet into one workbook.
func WriteXLSX(path string, sheets ...*Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		name := s.Name
		if name == "" {
			name = "Sheet" + strconv.Itoa(i+1)
		}
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return errors.Wrapf(err, "sheet %s", name)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return errors.Wrapf(err, "sheet %s", name)
		}
		if err := writeSheet(f, name, s); err != nil {
			return errors.Wrapf(err, "%s: sheet %s", path, name)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, s *Sheet) error {
	hasIndex := s.Index != nil
	row := 1
	for level, h := range s.Header {
		var cells []interface{}
		if hasIndex {
			if level == len(s.Header)-1 {
				cells = append(cells, s.IndexName)
			} else {
				cells = append(cells, nil)
			}
		}
		for _, c := range h {
			cells = append(cells, c)
		}
		if err := setRow(f, name, row, cells); err != nil {
			return err
		}
		row++
	}
	for r, values := range s.Rows {
		var cells []interface{}
		if hasIndex {
			cells = append(cells, s.Index[r])
		}
		for _, v := range values {
			if math.IsNaN(v) {
				cells = append(cells, nil)
			} else {
				cells = append(cells, v)
			}
		}
		if err := setRow(f, name, row, cells); err != nil {
			return err
		}
		row++
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

//--------------------------------------
// Output formats
//--------------------------------------

// Format selects the file type written by Save.
type Format string

const (
	CSV    Format = "CSV"
	XLSX   Format = "XLSX"
	SQLITE Format = "SQLITE"
)

// Formats lists the accepted format names.
var Formats = []string{string(CSV), string(XLSX), string(SQLITE)}

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToUpper(strings.TrimSpace(s)))
	switch f {
	case CSV, XLSX, SQLITE:
		return f, nil
	}
	return "", errors.Errorf("unknown format %q", s)
}

// Ext returns the file extension of the format.
func (f Format) Ext() string {
	switch f {
	case XLSX:
		return ".xlsx"
	case SQLITE:
		return ".sqlite"
	}
	return ".csv"
}

// Save writes the sheets to path in the given format. XLSX puts every sheet
// in one workbook and SQLITE every sheet in one database. CSV writes one file
// per sheet; with several sheets the sheet name is appended to the base name.
func Save(path string, format Format, sheets ...*Sheet) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	switch format {
	case XLSX:
		return WriteXLSX(path, sheets...)
	case SQLITE:
		return WriteSQLite(path, sheets...)
	}
	for _, s := range sheets {
		p := path
		if len(sheets) > 1 {
			ext := filepath.Ext(path)
			p = strings.TrimSuffix(path, ext) + "_" + s.Name + ext
		}
		out, err := os.Create(p)
		if err != nil {
			return errors.Wrapf(err, "create %s", p)
		}
		err = s.WriteCSV(out)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return errors.Wrapf(err, "save %s", p)
		}
		logger.Infof("saved %s", p)
	}
	return nil
}

//--------------------------------------
// Sheet builders
//--------------------------------------

// FrameSheet lays a frame out with a time index column.
func FrameSheet(name string, f *Frame) *Sheet {
	s := &Sheet{
		Name:      name,
		IndexName: "time",
		Index:     make([]string, len(f.Time)),
		Header:    [][]string{append([]string{}, f.Columns...)},
		Rows:      make([][]float64, len(f.Time)),
	}
	for i, t := range f.Time {
		s.Index[i] = t.Format(TimeLayout)
		row := make([]float64, len(f.Columns))
		for c, col := range f.Columns {
			row[c] = f.Data[col][i]
		}
		s.Rows[i] = row
	}
	return s
}

// TableSheet lays year x month tables side by side under a two-level header
// (table name, month number), one row per year of any table.
func TableSheet(name string, tables ...*YearMonthTable) *Sheet {
	var years []int
	for _, t := range tables {
		years = unionYears(years, t.Years)
	}
	s := &Sheet{
		Name:      name,
		IndexName: "year",
		Header:    [][]string{{}, {}},
		Rows:      make([][]float64, len(years)),
	}
	for _, t := range tables {
		for m := 1; m <= 12; m++ {
			s.Header[0] = append(s.Header[0], t.Name)
			s.Header[1] = append(s.Header[1], strconv.Itoa(m))
		}
	}
	for r, y := range years {
		s.Index = append(s.Index, strconv.Itoa(y))
		row := make([]float64, 0, 12*len(tables))
		for _, t := range tables {
			for m := 1; m <= 12; m++ {
				row = append(row, t.At(y, time.Month(m)))
			}
		}
		s.Rows[r] = row
	}
	return s
}

// WRPlotSheet expands a frame holding wspd and wdir columns onto an hourly
// grid from its first to last time and lays it out as year, month, day,
// hour, wspd, wdir. Hours without an observation keep empty wind cells.
func WRPlotSheet(name string, f *Frame) (*Sheet, error) {
	spd := f.Column("wspd")
	dir := f.Column("wdir")
	if spd == nil || dir == nil {
		return nil, errors.New("wrplot: frame needs wspd and wdir columns")
	}
	s := &Sheet{
		Name:   name,
		Header: [][]string{{"year", "month", "day", "hour", "wspd", "wdir"}},
	}
	if f.Len() == 0 {
		return s, nil
	}
	hourly := f.Reindex(Hourly.Range(f.Time[0], f.Time[len(f.Time)-1]))
	spd, dir = hourly.Column("wspd"), hourly.Column("wdir")
	for i, t := range hourly.Time {
		s.Rows = append(s.Rows, []float64{
			float64(t.Year()), float64(t.Month()), float64(t.Day()), float64(t.Hour()),
			spd[i], dir[i],
		})
	}
	return s, nil
}
