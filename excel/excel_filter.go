package excel

import (
	"strings"

	"github.com/spf13/cast"
)

type Operator string

const (
	OpEquals         Operator = "equals"
	OpNotEquals      Operator = "notEquals"
	OpContains       Operator = "contains"
	OpNotContains    Operator = "notContains"
	OpGreaterThan    Operator = "greaterThan"
	OpGreaterOrEqual Operator = "greaterOrEqual"
	OpLessThan       Operator = "lessThan"
	OpLessOrEqual    Operator = "lessOrEqual"
	OpStartsWith     Operator = "startsWith"
	OpEndsWith       Operator = "endsWith"
	OpIsEmpty        Operator = "isEmpty"
	OpIsNotEmpty     Operator = "isNotEmpty"
)

var Operators = []string{
	string(OpEquals), string(OpNotEquals), string(OpContains), string(OpNotContains),
	string(OpGreaterThan), string(OpGreaterOrEqual), string(OpLessThan), string(OpLessOrEqual),
	string(OpStartsWith), string(OpEndsWith), string(OpIsEmpty), string(OpIsNotEmpty),
}

const (
	LogicAnd = "and"
	LogicOr  = "or"
)

type FilterCondition struct {
	Field    string
	Operator Operator
	Value    interface{}
}

// Filter is a list of conditions combined with and/or.
type Filter struct {
	Conditions []FilterCondition
	Logic      string
}

// ParseConditions reads the filterConditions parameter, a list of maps with
// field, operator and value.
func ParseConditions(raw interface{}) []FilterCondition {
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	conds := make([]FilterCondition, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		conds = append(conds, FilterCondition{
			Field:    cast.ToString(m["field"]),
			Operator: Operator(cast.ToString(m["operator"])),
			Value:    m["value"],
		})
	}
	return conds
}

// Validate fails when a condition names a field the header does not have.
// All such fields are reported at once together with the available ones.
// Conditions without field are not checked.
func (flt *Filter) Validate(h *HeaderMap) error {
	invalid := []string{}
	for _, c := range flt.Conditions {
		if c.Field == "" {
			continue
		}
		if _, ok := h.Column(c.Field); !ok {
			invalid = append(invalid, c.Field)
		}
	}
	if len(invalid) == 0 {
		return nil
	}
	available := h.Names()
	err := validationError("Filter condition error: The following field(s) do not exist in the worksheet: %s. Available fields are: %s",
		strings.Join(invalid, ", "), strings.Join(available, ", "))
	err.Fields = invalid
	err.Available = available
	return err
}

// Match evaluates the filter against one record. Without conditions every
// record matches.
func (flt *Filter) Match(rec RowRecord) bool {
	if len(flt.Conditions) == 0 {
		return true
	}
	if flt.Logic == LogicOr {
		for _, c := range flt.Conditions {
			if c.Match(rec) {
				return true
			}
		}
		return false
	}
	for _, c := range flt.Conditions {
		if !c.Match(rec) {
			return false
		}
	}
	return true
}

// Apply keeps the matching records in their order.
func (flt *Filter) Apply(records []RowRecord) []RowRecord {
	if len(flt.Conditions) == 0 {
		return records
	}
	matched := []RowRecord{}
	for _, rec := range records {
		if flt.Match(rec) {
			matched = append(matched, rec)
		}
	}
	return matched
}

// Match compares the record field against the condition value. Numeric
// comparisons with a non-numeric side are false, unknown operators never
// match. A missing field reads as the text "undefined".
func (c FilterCondition) Match(rec RowRecord) bool {
	val := rec[c.Field]
	text, want := fieldText(val), stringify(c.Value)
	switch c.Operator {
	case OpEquals:
		return text == want
	case OpNotEquals:
		return text != want
	case OpContains:
		return strings.Contains(text, want)
	case OpNotContains:
		return !strings.Contains(text, want)
	case OpStartsWith:
		return strings.HasPrefix(text, want)
	case OpEndsWith:
		return strings.HasSuffix(text, want)
	case OpGreaterThan:
		return toNumber(val) > toNumber(c.Value)
	case OpGreaterOrEqual:
		return toNumber(val) >= toNumber(c.Value)
	case OpLessThan:
		return toNumber(val) < toNumber(c.Value)
	case OpLessOrEqual:
		return toNumber(val) <= toNumber(c.Value)
	case OpIsEmpty:
		return !truthy(val)
	case OpIsNotEmpty:
		return truthy(val)
	}
	return false
}

const missingText = "undefined"

func fieldText(v interface{}) string {
	if v == nil {
		return missingText
	}
	return stringify(v)
}
