package props

import (
	"errors"
	"testing"
)

func TestScalarTypes(t *testing.T) {
	tests := []struct {
		typ     Type
		value   any
		wantErr bool
	}{
		{String(), "hello", false},
		{String(), "", false},
		{String(), 42, true},
		{String(), nil, true},
		{Int(), 42, false},
		{Int(), int64(42), false},
		{Int(), float64(42), false}, // whole number from JSON
		{Int(), 42.5, true},
		{Int(), "42", true},
		{Float(), 3.14, false},
		{Float(), 42, false},
		{Float(), "3.14", true},
		{Bool(), true, false},
		{Bool(), 1, true},
		{Object(), map[string]any{"a": 1}, false},
		{Object(), map[string]string{"a": "b"}, false},
		{Object(), map[string]int{"a": 1}, false},
		{Object(), map[int]string{1: "a"}, true},
		{Object(), []any{}, true},
		{Any(), nil, false},
		{Any(), struct{}{}, false},
	}

	for _, tt := range tests {
		err := tt.typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s.Validate(%v) error = %v, wantErr %v", tt.typ.Name(), tt.value, err, tt.wantErr)
		}
	}
}

func TestSliceType(t *testing.T) {
	links := Slice(Object())

	tests := []struct {
		value   any
		wantErr bool
		desc    string
	}{
		{[]any{}, false, "empty"},
		{[]any{map[string]any{"text": "Home", "href": "/"}}, false, "decoded JSON objects"},
		{[]map[string]any{{"text": "Home"}}, false, "typed slice"},
		{[]any{map[string]any{}, "oops"}, true, "mixed elements"},
		{"not a slice", true, "string"},
	}

	for _, tt := range tests {
		err := links.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate(%v) error = %v, wantErr %v", tt.desc, tt.value, err, tt.wantErr)
		}
	}

	if links.Name() != "[object]" {
		t.Errorf("Name() = %q, want %q", links.Name(), "[object]")
	}
}

func TestCustomType(t *testing.T) {
	color := Custom("color", func(v any) error {
		s, ok := v.(string)
		if !ok || len(s) == 0 || s[0] != '#' {
			return errors.New("expected a hex color")
		}
		return nil
	})

	if color.Name() != "color" {
		t.Errorf("Name() = %q, want %q", color.Name(), "color")
	}
	if err := color.Validate("#fff"); err != nil {
		t.Errorf("Validate(#fff) = %v", err)
	}
	if err := color.Validate("red"); err == nil {
		t.Error("Validate(red) should fail")
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		input    string
		wantErr  bool
		wantName string
	}{
		{"string", false, "string"},
		{"int", false, "int"},
		{"float", false, "float"},
		{"bool", false, "bool"},
		{"object", false, "object"},
		{"any", false, "any"},
		{"[string]", false, "[string]"},
		{"[[int]]", false, "[[int]]"},
		{" [object] ", false, "[object]"},
		{"uuid", true, ""},
		{"[]", true, ""},
		{"[nope]", true, ""},
	}

	for _, tt := range tests {
		typ, err := ParseType(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err == nil && typ.Name() != tt.wantName {
			t.Errorf("ParseType(%q).Name() = %q, want %q", tt.input, typ.Name(), tt.wantName)
		}
	}
}
