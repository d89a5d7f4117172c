package props

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const requiredMark = "!"

// Field describes one prop key of a component.
type Field struct {
	Type     Type
	Required bool
}

// Notation renders the field in catalog notation, e.g. "string!".
func (f Field) Notation() string {
	if f.Type == nil {
		return ""
	}
	if f.Required {
		return f.Type.Name() + requiredMark
	}
	return f.Type.Name()
}

// Contract maps prop keys to their expected shape.
type Contract map[string]Field

// Keys returns the contract keys in sorted order.
func (c Contract) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseContract converts catalog notation into a Contract.
// Example: {"title": "string!", "links": "[object]"}
func ParseContract(notation map[string]string) (Contract, error) {
	result := make(Contract, len(notation))
	for key, raw := range notation {
		raw = strings.TrimSpace(raw)
		required := strings.HasSuffix(raw, requiredMark)
		t, err := ParseType(strings.TrimSuffix(raw, requiredMark))
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = Field{Type: t, Required: required}
	}
	return result, nil
}

// Notation is the inverse of ParseContract.
func (c Contract) Notation() map[string]string {
	if c == nil {
		return nil
	}
	out := make(map[string]string, len(c))
	for key, f := range c {
		out[key] = f.Notation()
	}
	return out
}

// MarshalJSON serializes the contract in catalog notation.
func (c Contract) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	for key, f := range c {
		if f.Type == nil {
			return nil, fmt.Errorf("field %s: type is nil", key)
		}
	}
	return json.Marshal(c.Notation())
}

// UnmarshalJSON parses the contract from catalog notation.
func (c *Contract) UnmarshalJSON(data []byte) error {
	if c == nil {
		return fmt.Errorf("props: UnmarshalJSON on nil pointer")
	}
	if string(data) == "null" {
		*c = nil
		return nil
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseContract(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
