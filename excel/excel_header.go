package excel

import (
	"strings"
)

// HeaderMap maps the trimmed, non-empty column names of row 1 to their
// 1-based column index. A duplicate name keeps its first position in Names
// but points at the last column carrying it. cols keeps every named column.
type HeaderMap struct {
	names []string
	index map[string]int
	cols  []headerColumn
}

// IndexHeader builds the HeaderMap of a header row given as positional cell
// values, cells[0] being column 1.
func IndexHeader(cells []interface{}) *HeaderMap {
	h := &HeaderMap{index: make(map[string]int)}
	for i, cell := range cells {
		if cell == nil {
			continue
		}
		name := strings.TrimSpace(stringify(cell))
		if name == "" {
			continue
		}
		if _, ok := h.index[name]; !ok {
			h.names = append(h.names, name)
		}
		h.index[name] = i + 1
		h.cols = append(h.cols, headerColumn{col: i + 1, name: name})
	}
	return h
}

func (h *HeaderMap) Len() int { return len(h.names) }

// Names returns the column names in header order.
func (h *HeaderMap) Names() []string {
	return append([]string(nil), h.names...)
}

func (h *HeaderMap) Column(name string) (int, bool) {
	col, ok := h.index[name]
	return col, ok
}

// MaxColumn is the right-most column addressed by a name.
func (h *HeaderMap) MaxColumn() int {
	max := 0
	for _, col := range h.index {
		if col > max {
			max = col
		}
	}
	return max
}

// columns returns every named column in column order, duplicates included.
func (h *HeaderMap) columns() []headerColumn {
	return h.cols
}

type headerColumn struct {
	col  int
	name string
}

// MapRowData scatters a sparse payload onto the column layout of h. Slot i
// holds the converted value for column i+1, "" for a named column missing in
// the payload and nil for a column without header name.
func MapRowData(data *Payload, h *HeaderMap) []interface{} {
	row := make([]interface{}, h.MaxColumn())
	for name, col := range h.index {
		if v, ok := data.Get(name); ok {
			row[col-1] = ConvertValue(v)
		} else {
			row[col-1] = ""
		}
	}
	return row
}

// SplitFields partitions the payload keys into the ones addressable through
// h and the ones that are not, both in payload order.
func SplitFields(data *Payload, h *HeaderMap) (known, unknown []string) {
	known, unknown = []string{}, []string{}
	for _, key := range data.Keys() {
		if _, ok := h.index[key]; ok {
			known = append(known, key)
		} else {
			unknown = append(unknown, key)
		}
	}
	return known, unknown
}
