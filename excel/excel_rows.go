package excel

const rowNumberKey = "_rowNumber"

// RowRecord is one data row keyed by header name. It always carries the
// sheet row number under "_rowNumber", empty cells are left out.
type RowRecord map[string]interface{}

func (r RowRecord) RowNumber() int {
	n, _ := r[rowNumberKey].(int)
	return n
}

// hasData reports whether any field besides the row number is truthy. Rows
// holding nothing but 0, false or "" therefore count as empty.
func (r RowRecord) hasData() bool {
	for k, v := range r {
		if k != rowNumberKey && truthy(v) {
			return true
		}
	}
	return false
}

// ProjectRows reads rows start..end into records using the columns of h.
// Columns sharing a name fill one field, the right-most non-empty cell wins.
// end 0 or beyond the last row reads to the last row. limit > 0 caps the
// number of records; a sheet holding more is an error.
func (w *Worksheet) ProjectRows(h *HeaderMap, start, end, limit int) ([]RowRecord, error) {
	count, err := w.RowCount()
	if err != nil {
		return nil, err
	}
	last := count
	if end > 0 && end < count {
		last = end
	}
	if start < 1 {
		start = 1
	}
	cols := h.columns()
	records := []RowRecord{}
	for row := start; row <= last; row++ {
		rec := RowRecord{rowNumberKey: row}
		for _, c := range cols {
			v, err := w.CellValue(c.col, row)
			if err != nil {
				return nil, err
			}
			if v != nil {
				rec[c.name] = v
			}
		}
		if !rec.hasData() {
			continue
		}
		if limit > 0 && len(records) >= limit {
			return nil, configError("Worksheet %q holds more than %d data rows, raise max-rows or narrow the row range", w.name, limit)
		}
		records = append(records, rec)
	}
	return records, nil
}
