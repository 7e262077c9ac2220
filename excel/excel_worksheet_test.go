package excel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellValueTypes(t *testing.T) {
	f := newBook(t, "Data", [][]interface{}{
		{"Text", "Number", "Flag", "Day", "Stamp", "Empty"},
		{"hello", 42.5, true, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
	})
	defer f.Close()
	w, err := resolveSheet(f, "Data")
	require.NoError(t, err)

	v, err := w.CellValue(1, 2)
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	v, err = w.CellValue(2, 2)
	require.NoError(t, err)
	assert.Equal(t, 42.5, v)

	v, err = w.CellValue(3, 2)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = w.CellValue(4, 2)
	require.NoError(t, err)
	day, ok := v.(time.Time)
	require.True(t, ok, "got %T", v)
	assert.True(t, day.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)), "got %v", day)

	v, err = w.CellValue(5, 2)
	require.NoError(t, err)
	stamp, ok := v.(time.Time)
	require.True(t, ok, "got %T", v)
	assert.True(t, stamp.Equal(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)), "got %v", stamp)

	v, err = w.CellValue(6, 2)
	require.NoError(t, err)
	assert.Nil(t, v)

	// numbers keep their type without a date format
	require.NoError(t, f.SetCellValue("Data", "B3", 45306))
	v, err = w.CellValue(2, 3)
	require.NoError(t, err)
	assert.Equal(t, float64(45306), v)
}

func TestIsDateFormatCode(t *testing.T) {
	tests := map[string]bool{
		"yyyy-mm-dd":         true,
		"dd/mm/yyyy hh:mm":   true,
		"[$-409]mmm d, yyyy": true,
		"hh:mm:ss":           true,
		"0.00":               false,
		"#,##0;[Red]-#,##0":  false,
		`"Day "0`:            false,
		`0.00\d`:             false,
		"[Red]0.00":          false,
		"General":            false,
	}
	for code, want := range tests {
		assert.Equal(t, want, isDateFormatCode(code), code)
	}
	assert.True(t, isDateNumFmt(14))
	assert.True(t, isDateNumFmt(22))
	assert.False(t, isDateNumFmt(2))
	assert.False(t, isDateNumFmt(49))
}

func TestDimensions(t *testing.T) {
	f := newBook(t, "Staff", employees)
	defer f.Close()
	require.NoError(t, f.SetRowHeight("Staff", 8, 30))
	w, err := resolveSheet(f, "")
	require.NoError(t, err)
	assert.Equal(t, "Staff", w.Name())

	count, err := w.RowCount()
	require.NoError(t, err)
	assert.Equal(t, 8, count)

	d, err := w.Dimensions()
	require.NoError(t, err)
	assert.Equal(t, Dimensions{RowCount: 8, ColumnCount: 5, ActualRowCount: 6, ActualColumnCount: 5}, d)

	empty, err := w.IsRowEmpty(8)
	require.NoError(t, err)
	assert.True(t, empty)
	empty, err = w.IsRowEmpty(7)
	require.NoError(t, err)
	assert.True(t, empty)
	empty, err = w.IsRowEmpty(3)
	require.NoError(t, err)
	assert.False(t, empty)
	empty, err = w.IsRowEmpty(9)
	require.NoError(t, err)
	assert.False(t, empty, "rows past the end do not exist")
}

func TestResolveSheet(t *testing.T) {
	f := newBook(t, "First", employees)
	defer f.Close()
	_, err := f.NewSheet("Second")
	require.NoError(t, err)

	w, err := resolveSheet(f, errorSheetName)
	require.NoError(t, err)
	assert.Equal(t, "First", w.Name())

	w, err = resolveSheet(f, "Second")
	require.NoError(t, err)
	assert.Equal(t, "Second", w.Name())

	_, err = resolveSheet(f, "second")
	require.Error(t, err)
	assert.True(t, IsConfiguration(err))
	assert.Equal(t, `Worksheet "second" not found`, err.Error())

	for _, name := range []string{"", errorSheetName} {
		_, err = requireSheet(f, name)
		require.Error(t, err)
		assert.Equal(t, "Please select a valid worksheet", err.Error())
	}
	assert.True(t, sheetExists(f, "SECOND"))
	assert.False(t, sheetExists(f, "Third"))
}

func TestSheetEntriesStates(t *testing.T) {
	f := newBook(t, "Visible", employees)
	defer f.Close()
	for _, name := range []string{"Hidden", "Secret"} {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
	}
	require.NoError(t, f.SetSheetVisible("Hidden", false))
	require.NoError(t, f.SetSheetVisible("Secret", false, true))

	states := map[string]string{}
	for _, e := range sheetEntries(f) {
		states[e.name] = e.state
	}
	assert.Equal(t, map[string]string{
		"Visible": stateVisible,
		"Hidden":  stateHidden,
		"Secret":  stateVeryHidden,
	}, states)

	w, err := requireSheet(f, "Secret")
	require.NoError(t, err)
	assert.Equal(t, stateVeryHidden, w.State())
}

func TestWriteRowAndColumnWidth(t *testing.T) {
	f := newBook(t, "Sheet1", [][]interface{}{{"A", "B", "C"}, {"x", "y", "z"}})
	defer f.Close()
	w, err := resolveSheet(f, "Sheet1")
	require.NoError(t, err)

	require.NoError(t, w.WriteRow(2, []interface{}{"new", nil, "last"}, true))
	values, err := w.RowValues(2, 3)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"new", "y", "last"}, values)

	require.NoError(t, w.WriteRow(2, []interface{}{nil, nil, "last"}, false))
	values, err = w.RowValues(2, 3)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{nil, nil, "last"}, values)

	width, err := w.ColumnWidth(1)
	require.NoError(t, err)
	assert.Equal(t, float64(defaultColumnWidth), width)
	require.NoError(t, f.SetColWidth("Sheet1", "B", "B", 20))
	width, err = w.ColumnWidth(2)
	require.NoError(t, err)
	assert.Equal(t, float64(20), width)

	cells, err := w.HeaderCells()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"A", "B", "C"}, cells)
}
