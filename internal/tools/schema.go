// ABOUTME: Input schema types and validation for tool arguments.
// ABOUTME: Supports required/optional fields, primitive types, and string enums.

package tools

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Schema describes a tool's object input. It marshals to standard JSON
// Schema so clients see the same shape they would from any tool server.
type Schema struct {
	Type       string               `json:"type"`
	Properties map[string]*Property `json:"properties,omitempty"`
	Required   []string             `json:"required,omitempty"`
}

// Property describes one input field.
type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Items       *Property `json:"items,omitempty"`
}

// Object is shorthand for building an object schema.
func Object(properties map[string]*Property, required ...string) *Schema {
	return &Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// FieldError names one offending argument field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports all offending fields of a tool invocation's
// arguments. It is a protocol-level rejection, not a handler failure.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "invalid arguments: " + strings.Join(parts, "; ")
}

// Validate checks args against the schema and returns a *ValidationError
// listing every offending field, or nil when the arguments conform.
func (s *Schema) Validate(args map[string]any) error {
	var fields []FieldError

	for _, name := range s.Required {
		if _, ok := args[name]; !ok {
			fields = append(fields, FieldError{Field: name, Message: "required field is missing"})
		}
	}

	// Deterministic order for error reporting.
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop, known := s.Properties[name]
		if !known {
			fields = append(fields, FieldError{Field: name, Message: "unknown field"})
			continue
		}
		if msg := checkValue(args[name], prop); msg != "" {
			fields = append(fields, FieldError{Field: name, Message: msg})
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// checkValue validates one decoded JSON value against a property.
// Returns an empty string when the value conforms.
func checkValue(value any, prop *Property) string {
	switch prop.Type {
	case "string":
		str, ok := value.(string)
		if !ok {
			return fmt.Sprintf("expected string, got %s", jsonTypeName(value))
		}
		if len(prop.Enum) > 0 && !containsString(prop.Enum, str) {
			return fmt.Sprintf("value %q not in [%s]", str, strings.Join(prop.Enum, ", "))
		}
	case "number":
		if _, ok := value.(float64); !ok {
			return fmt.Sprintf("expected number, got %s", jsonTypeName(value))
		}
	case "integer":
		f, ok := value.(float64)
		if !ok || f != math.Trunc(f) {
			return fmt.Sprintf("expected integer, got %s", jsonTypeName(value))
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Sprintf("expected boolean, got %s", jsonTypeName(value))
		}
	case "array":
		arr, ok := value.([]any)
		if !ok {
			return fmt.Sprintf("expected array, got %s", jsonTypeName(value))
		}
		if prop.Items != nil {
			for i, elem := range arr {
				if msg := checkValue(elem, prop.Items); msg != "" {
					return fmt.Sprintf("index %d: %s", i, msg)
				}
			}
		}
	case "object":
		if _, ok := value.(map[string]any); !ok {
			return fmt.Sprintf("expected object, got %s", jsonTypeName(value))
		}
	}
	return ""
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// jsonTypeName names a decoded JSON value's type for error messages.
func jsonTypeName(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", value)
	}
}
