package props

import (
	"fmt"
	"reflect"
	"strings"
)

// Type checks a single prop value.
type Type interface {
	// Name is the notation used in catalog contracts, e.g. "string" or "[object]".
	Name() string
	Validate(value any) error
}

// check is a Type built from a notation and a predicate.
type check struct {
	name string
	ok   func(any) bool
	// why overrides the default "expected <name>, got <T>" message.
	why func(any) string
}

func (c *check) Name() string { return c.name }

func (c *check) Validate(value any) error {
	if c.ok(value) {
		return nil
	}
	if c.why != nil {
		return fmt.Errorf("expected %s, got %s", c.name, c.why(value))
	}
	return fmt.Errorf("expected %s, got %T", c.name, value)
}

func String() Type {
	return &check{name: "string", ok: func(v any) bool {
		_, ok := v.(string)
		return ok
	}}
}

// Int accepts Go integers and whole float64 values, which is how JSON
// numbers arrive after decoding.
func Int() Type {
	return &check{
		name: "int",
		ok: func(v any) bool {
			switch n := v.(type) {
			case int, int8, int16, int32, int64:
				return true
			case float64:
				return n == float64(int64(n))
			}
			return false
		},
		why: func(v any) string {
			if _, isFloat := v.(float64); isFloat {
				return "float (not a whole number)"
			}
			return fmt.Sprintf("%T", v)
		},
	}
}

// Float accepts any Go number.
func Float() Type {
	return &check{name: "float", ok: func(v any) bool {
		switch v.(type) {
		case float32, float64, int, int8, int16, int32, int64:
			return true
		}
		return false
	}}
}

func Bool() Type {
	return &check{name: "bool", ok: func(v any) bool {
		_, ok := v.(bool)
		return ok
	}}
}

// Object accepts any map keyed by string.
func Object() Type {
	return &check{name: "object", ok: func(v any) bool {
		switch v.(type) {
		case map[string]any, map[string]string:
			return true
		}
		rv := reflect.ValueOf(v)
		return rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String
	}}
}

// Any accepts every value, nil included.
func Any() Type {
	return &check{name: "any", ok: func(any) bool { return true }}
}

type slice struct {
	elem Type
}

// Slice checks a slice or array whose every element satisfies elem.
func Slice(elem Type) Type {
	return &slice{elem: elem}
}

func (s *slice) Name() string { return "[" + s.elem.Name() + "]" }

func (s *slice) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := s.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

type custom struct {
	name     string
	validate func(any) error
}

// Custom wraps a caller-supplied check. It has no notation and cannot be parsed back.
func Custom(name string, validate func(any) error) Type {
	return &custom{name: name, validate: validate}
}

func (c *custom) Name() string { return c.name }

func (c *custom) Validate(value any) error { return c.validate(value) }

var builtin = map[string]func() Type{
	"string": String,
	"int":    Int,
	"float":  Float,
	"bool":   Bool,
	"object": Object,
	"any":    Any,
}

// ParseType reads a contract notation: one of the builtin names, or a
// bracketed element type such as "[object]" or "[[int]]".
func ParseType(notation string) (Type, error) {
	notation = strings.TrimSpace(notation)
	if inner, ok := strings.CutPrefix(notation, "["); ok && len(notation) > 2 {
		if inner, ok = strings.CutSuffix(inner, "]"); ok {
			elem, err := ParseType(inner)
			if err != nil {
				return nil, err
			}
			return Slice(elem), nil
		}
	}
	if mk, ok := builtin[notation]; ok {
		return mk(), nil
	}
	return nil, fmt.Errorf("unsupported type: %s", notation)
}
