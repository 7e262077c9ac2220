// Package tunit runs processor methods in unit tests without a host.
package tunit

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"
	"sbl.system/synwork/synwork-processor-excelai/schema"
)

// MethodMock describes a method call. The parameters are given to
// CallMockMethod as YAML: a mapping shared by all items or a sequence with
// one mapping per item.
type MethodMock struct {
	ProcessorDef func() schema.Processor
	// InstanceMock is the processor configuration passed to Init.
	InstanceMock   map[string]interface{}
	Method         string
	Items          []*schema.Item
	ContinueOnFail bool
}

// CallMockMethod runs the method and fails the test on any error.
func CallMockMethod(t testing.TB, mm MethodMock, defs string) []*schema.Item {
	t.Helper()
	opts := []schema.DataOption{schema.WithLogger(zaptest.NewLogger(t))}
	result, err := callMockMethod(context.Background(), mm, defs, opts...)
	if err != nil {
		t.Fatalf("method %s: %v", mm.Method, err)
	}
	return result
}

// CallMockMethodE runs the method and returns its error.
func CallMockMethodE(ctx context.Context, mm MethodMock, defs string) ([]*schema.Item, error) {
	return callMockMethod(ctx, mm, defs)
}

func callMockMethod(ctx context.Context, mm MethodMock, defs string, opts ...schema.DataOption) ([]*schema.Item, error) {
	p := mm.ProcessorDef()
	config := mm.InstanceMock
	if config == nil {
		config = map[string]interface{}{}
	}
	client, err := p.Init(ctx, config)
	if err != nil {
		return nil, err
	}
	m, err := p.Method(mm.Method)
	if err != nil {
		return nil, err
	}
	params, err := ParseParams(defs)
	if err != nil {
		return nil, err
	}
	opts = append(opts, schema.WithContinueOnFail(mm.ContinueOnFail))
	data, err := schema.NewMethodData(mm.Method, m, mm.Items, params, opts...)
	if err != nil {
		return nil, err
	}
	if err := m.ExecFunc(ctx, data, client); err != nil {
		return nil, err
	}
	return data.Results(), nil
}

// ParseParams reads YAML parameter definitions.
func ParseParams(defs string) ([]map[string]interface{}, error) {
	var raw interface{}
	if err := yaml.Unmarshal([]byte(defs), &raw); err != nil {
		return nil, fmt.Errorf("parse parameter definitions: %w", err)
	}
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case map[string]interface{}:
		return []map[string]interface{}{v}, nil
	case []interface{}:
		params := make([]map[string]interface{}, 0, len(v))
		for i, entry := range v {
			m, ok := entry.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("parameter set %d: expected mapping, got %T", i, entry)
			}
			params = append(params, m)
		}
		return params, nil
	}
	return nil, fmt.Errorf("parameter definitions: expected mapping or sequence, got %T", raw)
}
