package dataprep

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, path string, sheets map[string][][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			row := row
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func Test_ParseFlagged(t *testing.T) {
	v, fl, err := ParseFlagged("12.3(4)")
	require.NoError(t, err)
	assert.Equal(t, 12.3, v)
	assert.Equal(t, 4.0, fl)

	v, fl, err = ParseFlagged(" 7.5 ")
	require.NoError(t, err)
	assert.Equal(t, 7.5, v)
	assert.True(t, math.IsNaN(fl))

	v, _, err = ParseFlagged("-")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))

	_, _, err = ParseFlagged("abc(1)")
	assert.Error(t, err)
}

func Test_ReadYearMonthSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ferraz.xlsx")
	header := []interface{}{"Year", "Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	writeWorkbook(t, path, map[string][][]interface{}{
		"Sheet1": {
			header,
			{1986, "6.1(3)", 5.5, "-", 4, 4, 4, 4, 4, 4, 4, 4, "3.2(1)"},
			{1987, 7},
		},
	})

	values, flags, err := ReadYearMonthSheet(path, "Sheet1", "wspd")
	require.NoError(t, err)
	assert.Equal(t, []int{1986, 1987}, values.Years)
	assert.Equal(t, 6.1, values.At(1986, time.January))
	assert.Equal(t, 3.0, flags.At(1986, time.January))
	assert.Equal(t, 5.5, values.At(1986, time.February))
	assert.True(t, math.IsNaN(flags.At(1986, time.February)))
	assert.True(t, math.IsNaN(values.At(1986, time.March)))
	assert.Equal(t, 3.2, values.At(1986, time.December))
	assert.Equal(t, 7.0, values.At(1987, time.January))
	assert.True(t, math.IsNaN(values.At(1987, time.February)))

	// first sheet when no name is given
	values, _, err = ReadYearMonthSheet(path, "", "wspd")
	require.NoError(t, err)
	assert.Equal(t, 6.1, values.At(1986, time.January))

	_, _, err = ReadYearMonthSheet(filepath.Join(t.TempDir(), "none.xlsx"), "", "x")
	assert.Error(t, err)
}

func Test_ReadObservations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inumet.xlsx")
	writeWorkbook(t, path, map[string][][]interface{}{
		"Datos": {
			{"Fecha", "Temp", "Vel", "Dir"},
			{time.Date(1998, 1, 1, 6, 0, 0, 0, time.UTC), 1.5, 10, 270},
			{time.Date(1998, 1, 1, 0, 0, 0, 0, time.UTC), 1.0, 5, "variable"},
			{"1998-01-01 18:00", -0.5, "", 90},
		},
	})

	f, err := ReadObservations(path, "")
	require.NoError(t, err)
	assert.Equal(t, ObservationColumns, f.Columns)
	assert.Equal(t, []time.Time{date(1998, 1, 1, 0), date(1998, 1, 1, 6), date(1998, 1, 1, 18)}, f.Time)
	assert.Equal(t, 1.0, f.Column("temp")[0])
	assert.True(t, math.IsNaN(f.Column("wdir")[0]))
	assert.Equal(t, 270.0, f.Column("wdir")[1])
	assert.True(t, math.IsNaN(f.Column("wspd")[2]))

	six := f.Reindex(Every(6 * time.Hour).Range(f.Time[0], f.Time[len(f.Time)-1]))
	assert.Equal(t, 4, six.Len())
	assert.True(t, math.IsNaN(six.Column("temp")[2]))
}
