package excel

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Payload is a JSON object whose key order is kept as written.
type Payload struct {
	keys   []string
	values map[string]interface{}
}

func NewPayload() *Payload {
	return &Payload{values: make(map[string]interface{})}
}

func (p *Payload) Set(key string, value interface{}) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

func (p *Payload) Get(key string) (interface{}, bool) {
	v, ok := p.values[key]
	return v, ok
}

func (p *Payload) Keys() []string {
	return append([]string(nil), p.keys...)
}

func (p *Payload) Len() int { return len(p.keys) }

// Map returns the payload as plain map, e.g. to echo it in a result.
func (p *Payload) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(p.values))
	for k, v := range p.values {
		m[k] = v
	}
	return m
}

// ParsePayload accepts a JSON object as string or an already decoded map.
// Keys of a decoded map have no order of their own and are sorted.
func ParsePayload(input interface{}) (*Payload, error) {
	switch v := input.(type) {
	case nil:
		return NewPayload(), nil
	case *Payload:
		return v, nil
	case string:
		res, err := parseJSON(v)
		if err != nil {
			return nil, err
		}
		if !res.IsObject() {
			return nil, validationError("Invalid JSON format: expected an object")
		}
		return payloadFromResult(res), nil
	case map[string]interface{}:
		return payloadFromMap(v), nil
	default:
		return nil, validationError("Invalid JSON format: unsupported value of type %T", input)
	}
}

// ParsePayloadList accepts a JSON array of objects as string or decoded
// list. Anything but an array yields no payloads; non-object entries yield
// empty payloads.
func ParsePayloadList(input interface{}) ([]*Payload, error) {
	result := []*Payload{}
	switch v := input.(type) {
	case nil:
		return result, nil
	case string:
		res, err := parseJSON(v)
		if err != nil {
			return nil, err
		}
		if !res.IsArray() {
			return result, nil
		}
		res.ForEach(func(_, item gjson.Result) bool {
			if item.IsObject() {
				result = append(result, payloadFromResult(item))
			} else {
				result = append(result, NewPayload())
			}
			return true
		})
	case []interface{}:
		for _, item := range v {
			if m, ok := item.(map[string]interface{}); ok {
				result = append(result, payloadFromMap(m))
			} else {
				result = append(result, NewPayload())
			}
		}
	}
	return result, nil
}

func parseJSON(s string) (gjson.Result, error) {
	if strings.TrimSpace(s) == "" {
		return gjson.Result{}, validationError("Invalid JSON format: empty input")
	}
	if !gjson.Valid(s) {
		var discard interface{}
		reason := "malformed document"
		if err := json.Unmarshal([]byte(s), &discard); err != nil {
			reason = err.Error()
		}
		opErr := validationError("Invalid JSON format: %s", reason)
		return gjson.Result{}, opErr
	}
	return gjson.Parse(s), nil
}

func payloadFromResult(res gjson.Result) *Payload {
	p := NewPayload()
	res.ForEach(func(key, value gjson.Result) bool {
		p.Set(key.String(), value.Value())
		return true
	})
	return p
}

func payloadFromMap(m map[string]interface{}) *Payload {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	p := NewPayload()
	for _, k := range keys {
		p.Set(k, m[k])
	}
	return p
}
