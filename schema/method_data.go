package schema

import (
	"fmt"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

type (
	Binary struct {
		ID       string `json:"id" yaml:"id"`
		FileName string `json:"fileName" yaml:"fileName"`
		MimeType string `json:"mimeType" yaml:"mimeType"`
		Data     []byte `json:"data" yaml:"-"`
	}

	// Item is one entry of the item list flowing between workflow nodes.
	Item struct {
		JSON   map[string]interface{} `json:"json" yaml:"json"`
		Binary map[string]*Binary     `json:"binary,omitempty" yaml:"binary,omitempty"`
	}

	// MethodData carries one method call: input items, the parameters the
	// host resolved for each item and the result items produced so far.
	MethodData struct {
		method         string
		items          []*Item
		params         []map[string]interface{}
		paramErrs      []error
		results        []*Item
		continueOnFail bool
		logger         *zap.Logger
	}

	DataOption func(*MethodData)
)

func WithContinueOnFail(v bool) DataOption {
	return func(d *MethodData) { d.continueOnFail = v }
}

func WithLogger(l *zap.Logger) DataOption {
	return func(d *MethodData) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewMethodData binds items and parameters of a call to method m. params
// holds either one parameter set shared by all items or one set per item.
// Parameter errors are kept per item and reported by ItemError, so a host
// running with continue-on-fail can still process the remaining items.
func NewMethodData(name string, m *Method, items []*Item, params []map[string]interface{}, opts ...DataOption) (*MethodData, error) {
	if len(items) == 0 {
		items = []*Item{{JSON: map[string]interface{}{}}}
	}
	switch {
	case len(params) == 0:
		params = []map[string]interface{}{{}}
		fallthrough
	case len(params) == 1 && len(items) > 1:
		shared := params[0]
		params = make([]map[string]interface{}, len(items))
		for i := range params {
			params[i] = shared
		}
	case len(params) != len(items):
		return nil, fmt.Errorf("method %s: got %d parameter sets for %d items", name, len(params), len(items))
	}
	d := &MethodData{
		method:    name,
		items:     items,
		params:    make([]map[string]interface{}, len(items)),
		paramErrs: make([]error, len(items)),
		results:   []*Item{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	for i, p := range params {
		if p == nil {
			p = map[string]interface{}{}
		}
		if prepared, err := Prepare(m.Schema, p); err != nil {
			d.params[i] = p
			d.paramErrs[i] = err
		} else {
			d.params[i] = prepared
		}
	}
	return d, nil
}

func (d *MethodData) Method() string { return d.method }

func (d *MethodData) ItemCount() int { return len(d.items) }

func (d *MethodData) Item(index int) *Item {
	if index < 0 || index >= len(d.items) {
		return nil
	}
	return d.items[index]
}

// ItemError returns the parameter error of item index, if any.
func (d *MethodData) ItemError(index int) error {
	if index < 0 || index >= len(d.paramErrs) {
		return fmt.Errorf("item %d out of range", index)
	}
	return d.paramErrs[index]
}

func (d *MethodData) GetItemConfig(index int, name string) interface{} {
	if index < 0 || index >= len(d.params) {
		return nil
	}
	return d.params[index][name]
}

func (d *MethodData) GetString(index int, name string, fallback string) string {
	if v := d.GetItemConfig(index, name); v != nil {
		if s, err := cast.ToStringE(v); err == nil {
			return s
		}
	}
	return fallback
}

func (d *MethodData) GetInt(index int, name string, fallback int) int {
	if v := d.GetItemConfig(index, name); v != nil {
		if i, err := ToIntE(v); err == nil {
			return i
		}
	}
	return fallback
}

func (d *MethodData) GetBool(index int, name string, fallback bool) bool {
	if v := d.GetItemConfig(index, name); v != nil {
		if b, err := cast.ToBoolE(v); err == nil {
			return b
		}
	}
	return fallback
}

func (d *MethodData) ContinueOnFail() bool { return d.continueOnFail }

func (d *MethodData) Logger() *zap.Logger { return d.logger }

// AddResult appends a result item.
func (d *MethodData) AddResult(json map[string]interface{}, binary map[string]*Binary) *Item {
	item := &Item{JSON: json, Binary: binary}
	d.results = append(d.results, item)
	return item
}

// SetResult sets key name on the last result item, creating one if needed.
func (d *MethodData) SetResult(name string, value interface{}) {
	if len(d.results) == 0 {
		d.AddResult(map[string]interface{}{}, nil)
	}
	last := d.results[len(d.results)-1]
	if last.JSON == nil {
		last.JSON = map[string]interface{}{}
	}
	last.JSON[name] = value
}

// AttachBinary adds a binary property to the last result item. It reports
// false when there is no result item to attach to.
func (d *MethodData) AttachBinary(name string, b *Binary) bool {
	if len(d.results) == 0 {
		return false
	}
	last := d.results[len(d.results)-1]
	if last.Binary == nil {
		last.Binary = map[string]*Binary{}
	}
	last.Binary[name] = b
	return true
}

func (d *MethodData) ResultCount() int { return len(d.results) }

func (d *MethodData) Results() []*Item { return d.results }
