package excel

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	excelize "github.com/xuri/excelize/v2"
)

const (
	// errorSheetName is the value the worksheet dropdown reports when it could
	// not list the workbook.
	errorSheetName = "__error__"

	stateVisible    = "visible"
	stateHidden     = "hidden"
	stateVeryHidden = "veryHidden"

	defaultColumnWidth = 10
	unsetColumnWidth   = 9.140625
)

var (
	// quoted text, escaped characters and bracket sections never make a
	// number format a date format
	numFmtNoise  = regexp.MustCompile(`"[^"]*"|\\.|\[[^\]]*\]`)
	numFmtTokens = regexp.MustCompile(`[dDmMyYhHsS]`)
)

// Worksheet gives typed access to one sheet of an open workbook.
type Worksheet struct {
	f        *excelize.File
	name     string
	date1904 bool
	dateFmt  map[int]bool
}

// Dimensions describes the extent of a worksheet. RowCount and ColumnCount
// count physical rows and cells, the actual counts only those holding values.
type Dimensions struct {
	RowCount          int
	ColumnCount       int
	ActualRowCount    int
	ActualColumnCount int
}

func newWorksheet(f *excelize.File, name string) *Worksheet {
	w := &Worksheet{f: f, name: name, dateFmt: map[int]bool{}}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		w.date1904 = *props.Date1904
	}
	return w
}

// lookupSheet returns the exact sheet name as stored in the workbook.
func lookupSheet(f *excelize.File, name string) (string, bool) {
	for _, s := range f.GetSheetList() {
		if s == name {
			return s, true
		}
	}
	return "", false
}

// sheetExists compares case-insensitive, as sheet names are unique in that
// sense inside a workbook.
func sheetExists(f *excelize.File, name string) bool {
	for _, s := range f.GetSheetList() {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// resolveSheet picks the worksheet a row operation works on. An empty name or
// the dropdown error marker selects the first worksheet.
func resolveSheet(f *excelize.File, name string) (*Worksheet, error) {
	if name == errorSheetName {
		name = ""
	}
	if name == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, configError("No worksheets found in the workbook")
		}
		return newWorksheet(f, list[0]), nil
	}
	exact, ok := lookupSheet(f, name)
	if !ok {
		return nil, configError("Worksheet %q not found", name)
	}
	return newWorksheet(f, exact), nil
}

// requireSheet resolves the worksheetName parameter of worksheet operations,
// which has no first-sheet fallback.
func requireSheet(f *excelize.File, name string) (*Worksheet, error) {
	if name == "" || name == errorSheetName {
		return nil, configError("Please select a valid worksheet")
	}
	exact, ok := lookupSheet(f, name)
	if !ok {
		return nil, configError("Worksheet %q not found", name)
	}
	return newWorksheet(f, exact), nil
}

type sheetEntry struct {
	id    int
	name  string
	state string
}

// sheetEntries lists the worksheets in workbook order with id and state.
func sheetEntries(f *excelize.File) []sheetEntry {
	list := f.GetSheetList()
	if len(list) == 0 {
		return nil
	}
	// loads the workbook part so that WorkBook is populated
	if _, err := f.GetSheetVisible(list[0]); err != nil || f.WorkBook == nil {
		entries := make([]sheetEntry, 0, len(list))
		for i, name := range list {
			entries = append(entries, sheetEntry{id: i + 1, name: name, state: stateVisible})
		}
		return entries
	}
	entries := make([]sheetEntry, 0, len(f.WorkBook.Sheets.Sheet))
	for _, s := range f.WorkBook.Sheets.Sheet {
		state := s.State
		if state == "" {
			state = stateVisible
		}
		entries = append(entries, sheetEntry{id: s.SheetID, name: s.Name, state: state})
	}
	return entries
}

func (w *Worksheet) Name() string { return w.name }

// State reports visible, hidden or veryHidden.
func (w *Worksheet) State() string {
	for _, e := range sheetEntries(w.f) {
		if e.name == w.name {
			return e.state
		}
	}
	return stateVisible
}

// RowCount is the number of the last physical row, 0 for an empty sheet.
func (w *Worksheet) RowCount() (int, error) {
	rows, err := w.f.Rows(w.name)
	if err != nil {
		return 0, fmt.Errorf("read rows of %s: %w", w.name, err)
	}
	defer rows.Close()
	count := 0
	for rows.Next() {
		count++
	}
	return count, rows.Error()
}

func (w *Worksheet) Dimensions() (Dimensions, error) {
	var d Dimensions
	rows, err := w.f.Rows(w.name)
	if err != nil {
		return d, fmt.Errorf("read rows of %s: %w", w.name, err)
	}
	defer rows.Close()
	used := map[int]struct{}{}
	for rows.Next() {
		d.RowCount++
		cells, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return d, fmt.Errorf("read row %d of %s: %w", d.RowCount, w.name, err)
		}
		if len(cells) > d.ColumnCount {
			d.ColumnCount = len(cells)
		}
		filled := false
		for i, c := range cells {
			if c != "" {
				filled = true
				used[i] = struct{}{}
			}
		}
		if filled {
			d.ActualRowCount++
		}
	}
	if err := rows.Error(); err != nil {
		return d, err
	}
	d.ActualColumnCount = len(used)
	return d, nil
}

// CellValue reads a cell with its sheet-native type: bool, float64,
// time.Time or string. Empty cells yield nil. Formula cells yield their
// cached result, error cells their error text.
func (w *Worksheet) CellValue(col, row int) (interface{}, error) {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}
	typ, err := w.f.GetCellType(w.name, ref)
	if err != nil {
		return nil, fmt.Errorf("cell %s!%s: %w", w.name, ref, err)
	}
	raw, err := w.f.GetCellValue(w.name, ref, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("cell %s!%s: %w", w.name, ref, err)
	}
	if raw == "" {
		return nil, nil
	}
	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true"), nil
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return t.UTC(), nil
		}
		if t, ok := parseISODate(raw); ok {
			return t, nil
		}
		return raw, nil
	case excelize.CellTypeError, excelize.CellTypeFormula,
		excelize.CellTypeInlineString, excelize.CellTypeSharedString:
		return raw, nil
	}
	num, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw, nil
	}
	isDate, err := w.hasDateFormat(ref)
	if err != nil {
		return nil, err
	}
	if isDate {
		if t, err := excelize.ExcelDateToTime(num, w.date1904); err == nil {
			return t.Round(time.Millisecond), nil
		}
	}
	return num, nil
}

func (w *Worksheet) hasDateFormat(ref string) (bool, error) {
	idx, err := w.f.GetCellStyle(w.name, ref)
	if err != nil {
		return false, fmt.Errorf("style of %s!%s: %w", w.name, ref, err)
	}
	if idx == 0 {
		return false, nil
	}
	if isDate, ok := w.dateFmt[idx]; ok {
		return isDate, nil
	}
	style, err := w.f.GetStyle(idx)
	isDate := false
	if err == nil && style != nil {
		if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		} else {
			isDate = isDateNumFmt(style.NumFmt)
		}
	}
	w.dateFmt[idx] = isDate
	return isDate, nil
}

// isDateNumFmt reports the built-in number formats rendering a date or time.
func isDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 22,
		id >= 27 && id <= 36,
		id >= 45 && id <= 47,
		id >= 50 && id <= 58:
		return true
	}
	return false
}

func isDateFormatCode(code string) bool {
	section := strings.SplitN(code, ";", 2)[0]
	section = numFmtNoise.ReplaceAllString(section, "")
	section = strings.ReplaceAll(strings.ToLower(section), "general", "")
	return numFmtTokens.MatchString(section)
}

// RowValues reads columns 1..width of row.
func (w *Worksheet) RowValues(row, width int) ([]interface{}, error) {
	values := make([]interface{}, width)
	for col := 1; col <= width; col++ {
		v, err := w.CellValue(col, row)
		if err != nil {
			return nil, err
		}
		values[col-1] = v
	}
	return values, nil
}

// HeaderCells returns the values of row 1 up to its last physical cell.
func (w *Worksheet) HeaderCells() ([]interface{}, error) {
	rows, err := w.f.Rows(w.name)
	if err != nil {
		return nil, fmt.Errorf("read rows of %s: %w", w.name, err)
	}
	width := 0
	if rows.Next() {
		cells, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("read header of %s: %w", w.name, err)
		}
		width = len(cells)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return w.RowValues(1, width)
}

func (w *Worksheet) Header() (*HeaderMap, error) {
	cells, err := w.HeaderCells()
	if err != nil {
		return nil, err
	}
	return IndexHeader(cells), nil
}

// IsRowEmpty reports whether an existing row holds no value. Rows beyond the
// last physical row are not empty, they do not exist.
func (w *Worksheet) IsRowEmpty(row int) (bool, error) {
	count, err := w.RowCount()
	if err != nil {
		return false, err
	}
	if row < 1 || row > count {
		return false, nil
	}
	cells, err := w.f.GetRows(w.name, excelize.Options{RawCellValue: true})
	if err != nil {
		return false, err
	}
	if row > len(cells) {
		return true, nil
	}
	for _, c := range cells[row-1] {
		if c != "" {
			return false, nil
		}
	}
	return true, nil
}

// WriteRow writes values positionally starting at column 1. With skipNil a
// nil leaves the cell untouched, otherwise it clears it.
func (w *Worksheet) WriteRow(row int, values []interface{}, skipNil bool) error {
	for i, v := range values {
		if v == nil && skipNil {
			continue
		}
		ref, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := w.f.SetCellValue(w.name, ref, v); err != nil {
			return fmt.Errorf("write %s!%s: %w", w.name, ref, err)
		}
	}
	return nil
}

// WriteCell writes a single value, nil clears the cell.
func (w *Worksheet) WriteCell(col, row int, v interface{}) error {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := w.f.SetCellValue(w.name, ref, v); err != nil {
		return fmt.Errorf("write %s!%s: %w", w.name, ref, err)
	}
	return nil
}

// ColumnWidth returns the width of column col, defaultColumnWidth if unset.
func (w *Worksheet) ColumnWidth(col int) (float64, error) {
	letter, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return 0, err
	}
	width, err := w.f.GetColWidth(w.name, letter)
	if err != nil {
		return 0, err
	}
	if width == unsetColumnWidth {
		return defaultColumnWidth, nil
	}
	return width, nil
}
