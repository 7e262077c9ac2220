package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// ConfigError reports a parameter that does not satisfy its schema.
type ConfigError struct {
	Path    string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("parameter %q: %s", e.Path, e.Message)
}

// Prepare applies defaults, checks required parameters and coerces scalar
// values to the declared type. Keys without a schema entry are passed through.
func Prepare(s map[string]*Schema, config map[string]interface{}) (map[string]interface{}, error) {
	return prepareMap("", s, config)
}

func prepareMap(path string, s map[string]*Schema, config map[string]interface{}) (map[string]interface{}, error) {
	result := make(map[string]interface{}, len(config))
	for k, v := range config {
		result[k] = v
	}
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		def := s[key]
		p := joinPath(path, key)
		value, ok := result[key]
		if !ok || value == nil {
			if def.DefaultValue != nil {
				result[key] = def.DefaultValue
				continue
			}
			if def.Required {
				return nil, &ConfigError{Path: p, Message: "missing required parameter"}
			}
			continue
		}
		if converted, err := prepareValue(p, def, value); err != nil {
			return nil, err
		} else {
			result[key] = converted
		}
	}
	return result, nil
}

func prepareValue(path string, def *Schema, value interface{}) (interface{}, error) {
	switch def.Type {
	case TypeString:
		str, err := cast.ToStringE(value)
		if err != nil {
			return nil, &ConfigError{Path: path, Message: err.Error()}
		}
		if len(def.Options) > 0 && !contains(def.Options, str) {
			return nil, &ConfigError{Path: path, Message: fmt.Sprintf("value %q is not one of %v", str, def.Options)}
		}
		return str, nil
	case TypeInt:
		if i, err := ToIntE(value); err != nil {
			return nil, &ConfigError{Path: path, Message: err.Error()}
		} else {
			return i, nil
		}
	case TypeFloat:
		if f, err := cast.ToFloat64E(value); err != nil {
			return nil, &ConfigError{Path: path, Message: err.Error()}
		} else {
			return f, nil
		}
	case TypeBool:
		if b, err := cast.ToBoolE(value); err != nil {
			return nil, &ConfigError{Path: path, Message: err.Error()}
		} else {
			return b, nil
		}
	case TypeList:
		list, ok := value.([]interface{})
		if !ok {
			return nil, &ConfigError{Path: path, Message: fmt.Sprintf("expected list, got %T", value)}
		}
		if def.Elem == nil {
			return list, nil
		}
		result := make([]interface{}, 0, len(list))
		for i, item := range list {
			m, err := toStringMap(item)
			if err != nil {
				return nil, &ConfigError{Path: fmt.Sprintf("%s[%d]", path, i), Message: err.Error()}
			}
			if prepared, err := prepareMap(fmt.Sprintf("%s[%d]", path, i), def.Elem, m); err != nil {
				return nil, err
			} else {
				result = append(result, prepared)
			}
		}
		return result, nil
	case TypeMap:
		m, err := toStringMap(value)
		if err != nil {
			return nil, &ConfigError{Path: path, Message: err.Error()}
		}
		if def.Elem == nil {
			return m, nil
		}
		return prepareMap(path, def.Elem, m)
	default:
		return value, nil
	}
}

func toStringMap(v interface{}) (map[string]interface{}, error) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, nil
	case map[interface{}]interface{}:
		return cast.ToStringMapE(m)
	default:
		return nil, fmt.Errorf("expected map, got %T", v)
	}
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// ToIntE converts value to int. Strings are read as decimal, so "010" is 10
// and not the octal 8 cast would produce.
func ToIntE(value interface{}) (int, error) {
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		if i, err := strconv.Atoi(s); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
			return int(f), nil
		}
		return 0, fmt.Errorf("unable to cast %q of type string to int", s)
	}
	return cast.ToIntE(value)
}
