// Package schema describes the contract between a synwork host and a
// processor: parameter schemas, methods, load-option sources and the data
// exchanged on every method call.
package schema

import (
	"context"
	"fmt"
	"sort"
)

type ValueType int

const (
	TypeString ValueType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeList
	TypeMap
	TypeGeneric
	// TypeJSON holds either a JSON document as string or an already decoded value.
	TypeJSON
)

func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeList:
		return "list"
	case TypeMap:
		return "map"
	case TypeJSON:
		return "json"
	default:
		return "generic"
	}
}

type (
	Schema struct {
		Type         ValueType
		Required     bool
		Optional     bool
		DefaultValue interface{}
		Elem         map[string]*Schema
		// Options restricts a TypeString value to the listed values.
		Options     []string
		Description string
	}

	ExecFunc        func(ctx context.Context, data *MethodData, client interface{}) error
	LoadOptionsFunc func(ctx context.Context, config map[string]interface{}, client interface{}) ([]PropertyOption, error)
	InitFunc        func(ctx context.Context, config map[string]interface{}) (interface{}, error)

	Method struct {
		Schema      map[string]*Schema
		Result      map[string]*Schema
		ExecFunc    ExecFunc
		Description string
	}

	Processor struct {
		Schema      map[string]*Schema
		MethodMap   map[string]*Method
		LoadOptions map[string]LoadOptionsFunc
		InitFunc    InitFunc
	}

	// PropertyOption is one entry of a dropdown offered to the host UI.
	PropertyOption struct {
		Name  string `json:"name" yaml:"name"`
		Value string `json:"value" yaml:"value"`
	}
)

// Init prepares the processor level configuration and creates the client
// handed to every method call.
func (p *Processor) Init(ctx context.Context, config map[string]interface{}) (interface{}, error) {
	prepared, err := Prepare(p.Schema, config)
	if err != nil {
		return nil, err
	}
	if p.InitFunc == nil {
		return nil, nil
	}
	return p.InitFunc(ctx, prepared)
}

func (p *Processor) Method(name string) (*Method, error) {
	if m, ok := p.MethodMap[name]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("unknown method %q", name)
}

// MethodNames returns the registered method names in lexical order.
func (p *Processor) MethodNames() []string {
	names := make([]string, 0, len(p.MethodMap))
	for name := range p.MethodMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Processor) LoadOption(name string) (LoadOptionsFunc, error) {
	if f, ok := p.LoadOptions[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("unknown load options source %q", name)
}
