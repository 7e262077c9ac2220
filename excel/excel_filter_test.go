package excel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []RowRecord {
	return []RowRecord{
		{rowNumberKey: 2, "Name": "Alice", "Department": "Engineering", "Status": "Active", "Age": float64(30)},
		{rowNumberKey: 3, "Name": "Bob", "Department": "Sales", "Status": "Active", "Age": float64(45)},
		{rowNumberKey: 4, "Name": "Carol", "Department": "Engineering", "Status": "Inactive", "Age": float64(28)},
		{rowNumberKey: 5, "Name": "Dave", "Department": "Engineering", "Status": "Active"},
	}
}

func rowNumbers(records []RowRecord) []int {
	nums := []int{}
	for _, r := range records {
		nums = append(nums, r.RowNumber())
	}
	return nums
}

func TestConditionOperators(t *testing.T) {
	rec := RowRecord{
		rowNumberKey: 2,
		"Name":       "Alice Smith",
		"Age":        float64(30),
		"Active":     true,
		"Zero":       float64(0),
		"Joined":     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		"Code":       "12abc",
	}
	tests := []struct {
		field string
		op    Operator
		value interface{}
		want  bool
	}{
		{"Name", OpEquals, "Alice Smith", true},
		{"Name", OpEquals, "alice smith", false},
		{"Age", OpEquals, "30", true},
		{"Age", OpEquals, 30, true},
		{"Active", OpEquals, "true", true},
		{"Joined", OpEquals, "2024-01-15", true},
		{"Name", OpNotEquals, "Bob", true},
		{"Missing", OpNotEquals, "x", true},
		{"Missing", OpEquals, "", false},
		{"Missing", OpNotEquals, "", true},
		{"Missing", OpEquals, "undefined", true},
		{"Missing", OpContains, "def", true},
		{"Name", OpContains, "ice S", true},
		{"Name", OpNotContains, "Bob", true},
		{"Name", OpStartsWith, "Ali", true},
		{"Name", OpEndsWith, "Smith", true},
		{"Name", OpEndsWith, "Alice", false},
		{"Age", OpGreaterThan, "29", true},
		{"Age", OpGreaterThan, "30", false},
		{"Age", OpGreaterOrEqual, "30", true},
		{"Age", OpLessThan, 31, true},
		{"Age", OpLessOrEqual, "29.5", false},
		{"Age", OpGreaterThan, "abc", false},
		{"Age", OpLessThan, "abc", false},
		{"Name", OpGreaterThan, "1", false},
		{"Code", OpLessThan, "100", false},
		{"Missing", OpLessThan, "100", false},
		{"Missing", OpIsEmpty, nil, true},
		{"Zero", OpIsEmpty, nil, true},
		{"Name", OpIsEmpty, nil, false},
		{"Name", OpIsNotEmpty, nil, true},
		{"Zero", OpIsNotEmpty, nil, false},
		{"Name", Operator("matches"), "Alice", false},
	}
	for _, tt := range tests {
		c := FilterCondition{Field: tt.field, Operator: tt.op, Value: tt.value}
		assert.Equal(t, tt.want, c.Match(rec), "%s %s %v", tt.field, tt.op, tt.value)
	}
}

func TestFilterLogic(t *testing.T) {
	records := sampleRecords()
	engineering := FilterCondition{Field: "Department", Operator: OpEquals, Value: "Engineering"}
	active := FilterCondition{Field: "Status", Operator: OpEquals, Value: "Active"}

	and := &Filter{Conditions: []FilterCondition{engineering, active}, Logic: LogicAnd}
	assert.Equal(t, []int{2, 5}, rowNumbers(and.Apply(records)))

	or := &Filter{Conditions: []FilterCondition{engineering, active}, Logic: LogicOr}
	assert.Equal(t, []int{2, 3, 4, 5}, rowNumbers(or.Apply(records)))

	// and is the intersection, or the union of the single condition results
	onlyEng := (&Filter{Conditions: []FilterCondition{engineering}}).Apply(records)
	onlyActive := (&Filter{Conditions: []FilterCondition{active}}).Apply(records)
	assert.Equal(t, []int{2, 4, 5}, rowNumbers(onlyEng))
	assert.Equal(t, []int{2, 3, 5}, rowNumbers(onlyActive))

	none := &Filter{Logic: LogicAnd}
	assert.Equal(t, []int{2, 3, 4, 5}, rowNumbers(none.Apply(records)))
}

func TestFilterValidate(t *testing.T) {
	h := IndexHeader([]interface{}{"Name", "Department", "Status"})
	flt := &Filter{Conditions: []FilterCondition{
		{Field: "Salary", Operator: OpGreaterThan, Value: "1"},
		{Field: "Name", Operator: OpEquals, Value: "x"},
		{Field: "", Operator: OpIsEmpty},
		{Field: "Team", Operator: OpEquals, Value: "y"},
	}}
	err := flt.Validate(h)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, "Filter condition error: The following field(s) do not exist in the worksheet: Salary, Team. Available fields are: Name, Department, Status", err.Error())

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, []string{"Salary", "Team"}, opErr.Fields)
	assert.Equal(t, []string{"Name", "Department", "Status"}, opErr.Available)

	ok := &Filter{Conditions: []FilterCondition{{Field: "Name", Operator: OpEquals, Value: "x"}}}
	assert.NoError(t, ok.Validate(h))
}

func TestParseConditions(t *testing.T) {
	conds := ParseConditions([]interface{}{
		map[string]interface{}{"field": "Age", "operator": "greaterThan", "value": 30},
		"skipped",
		map[string]interface{}{"field": "Name", "operator": "isEmpty"},
	})
	require.Len(t, conds, 2)
	assert.Equal(t, FilterCondition{Field: "Age", Operator: OpGreaterThan, Value: 30}, conds[0])
	assert.Equal(t, FilterCondition{Field: "Name", Operator: OpIsEmpty}, conds[1])
	assert.Nil(t, ParseConditions(nil))
}
