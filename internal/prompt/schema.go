// Package prompt renders prompt templates, sends them to a hosted model and
// validates the model's JSON reply against a declared output schema.
package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// FieldType is the JSON type of a schema field
type FieldType int

const (
	TypeString      FieldType = iota // JSON string
	TypeStringArray                  // JSON array of strings
)

// String returns the type name used in schema descriptions
func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeStringArray:
		return "array of strings"
	default:
		return "unknown"
	}
}

// Field declares one property of an object schema
type Field struct {
	Name        string
	Type        FieldType
	Required    bool
	MinLength   int // Minimum rune count for strings, minimum items for arrays
	Description string
}

// Schema is a flat object shape. Fields are validated in declared order.
type Schema struct {
	Name   string
	Fields []Field
}

// Object builds a schema from its fields
func Object(name string, fields ...Field) *Schema {
	return &Schema{Name: name, Fields: fields}
}

// String is a shorthand for a string field
func String(name, description string, required bool) Field {
	return Field{Name: name, Type: TypeString, Required: required, Description: description}
}

// StringArray is a shorthand for an array-of-strings field
func StringArray(name, description string, required bool) Field {
	return Field{Name: name, Type: TypeStringArray, Required: required, Description: description}
}

// Min returns a copy of f with a minimum length
func (f Field) Min(n int) Field {
	f.MinLength = n
	return f
}

// Validate checks v against the schema and returns the first violation.
// Properties not declared in the schema are ignored.
func (s *Schema) Validate(v map[string]any) error {
	if v == nil {
		return &ValidationError{Schema: s.Name, Message: "expected a JSON object"}
	}

	for _, f := range s.Fields {
		raw, ok := v[f.Name]
		if !ok || raw == nil {
			if f.Required {
				return &ValidationError{Schema: s.Name, Field: f.Name, Message: "is required"}
			}
			continue
		}

		switch f.Type {
		case TypeString:
			str, ok := raw.(string)
			if !ok {
				return &ValidationError{Schema: s.Name, Field: f.Name, Message: fmt.Sprintf("must be a string, got %s", jsonType(raw))}
			}
			if f.MinLength > 0 && utf8.RuneCountInString(strings.TrimSpace(str)) < f.MinLength {
				return &ValidationError{Schema: s.Name, Field: f.Name, Message: fmt.Sprintf("must be at least %d characters", f.MinLength)}
			}
		case TypeStringArray:
			items, ok := raw.([]any)
			if !ok {
				return &ValidationError{Schema: s.Name, Field: f.Name, Message: fmt.Sprintf("must be an array, got %s", jsonType(raw))}
			}
			for i, item := range items {
				if _, ok := item.(string); !ok {
					return &ValidationError{Schema: s.Name, Field: fmt.Sprintf("%s[%d]", f.Name, i), Message: fmt.Sprintf("must be a string, got %s", jsonType(item))}
				}
			}
			if f.MinLength > 0 && len(items) < f.MinLength {
				return &ValidationError{Schema: s.Name, Field: f.Name, Message: fmt.Sprintf("must contain at least %d items", f.MinLength)}
			}
		}
	}

	return nil
}

// Describe renders the schema as the JSON shape the model must return
func (s *Schema) Describe() string {
	var b strings.Builder
	b.WriteString("{\n")
	for i, f := range s.Fields {
		example := `"string"`
		if f.Type == TypeStringArray {
			example = `["string"]`
		}
		fmt.Fprintf(&b, "  %q: %s", f.Name, example)
		if i < len(s.Fields)-1 {
			b.WriteString(",")
		}

		var notes []string
		if f.Required {
			notes = append(notes, "required")
		}
		if f.Description != "" {
			notes = append(notes, f.Description)
		}
		if len(notes) > 0 {
			b.WriteString(" // " + strings.Join(notes, "; "))
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

func jsonType(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
