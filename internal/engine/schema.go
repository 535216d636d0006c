package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// FieldKind is the type of a decision field.
type FieldKind int

const (
	FieldInt FieldKind = iota
	FieldString
	FieldEnum
	FieldBool
)

func (k FieldKind) String() string {
	switch k {
	case FieldInt:
		return "integer"
	case FieldString:
		return "string"
	case FieldEnum:
		return "enum"
	case FieldBool:
		return "boolean"
	default:
		return "unknown"
	}
}

// Field declares one named, typed value a decision must supply.
type Field struct {
	Name        string
	Kind        FieldKind
	Description string
	Optional    bool
	Values      []string // FieldEnum only

	min, max       int
	hasMin, hasMax bool
}

// IntField declares an unbounded integer field.
func IntField(name, description string) Field {
	return Field{Name: name, Kind: FieldInt, Description: description}
}

// StringField declares a non-empty string field.
func StringField(name, description string) Field {
	return Field{Name: name, Kind: FieldString, Description: description}
}

// EnumField declares a string field restricted to values.
func EnumField(name, description string, values ...string) Field {
	return Field{Name: name, Kind: FieldEnum, Description: description, Values: values}
}

// BoolField declares a boolean field.
func BoolField(name, description string) Field {
	return Field{Name: name, Kind: FieldBool, Description: description}
}

// Between bounds an integer field to [min, max].
func (f Field) Between(min, max int) Field {
	f.min, f.max = min, max
	f.hasMin, f.hasMax = true, true
	return f
}

// AtLeast gives an integer field a lower bound.
func (f Field) AtLeast(min int) Field {
	f.min, f.hasMin = min, true
	return f
}

// AsOptional lets the field be omitted or null.
func (f Field) AsOptional() Field {
	f.Optional = true
	return f
}

// Describe renders the field for prompts and operator hints.
func (f Field) Describe() string {
	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteString(" (")
	switch {
	case f.Kind == FieldEnum:
		b.WriteString("one of ")
		b.WriteString(strings.Join(f.Values, "|"))
	case f.Kind == FieldInt && f.hasMin && f.hasMax:
		fmt.Fprintf(&b, "integer %d-%d", f.min, f.max)
	case f.Kind == FieldInt && f.hasMin:
		fmt.Fprintf(&b, "integer >= %d", f.min)
	default:
		b.WriteString(f.Kind.String())
	}
	if f.Optional {
		b.WriteString(", optional")
	}
	b.WriteString(")")
	if f.Description != "" {
		b.WriteString(": ")
		b.WriteString(f.Description)
	}
	return b.String()
}

// Schema is the structured shape an action's decision must satisfy.
type Schema struct {
	Fields []Field
}

// NewSchema builds a schema from fields.
func NewSchema(fields ...Field) Schema {
	return Schema{Fields: fields}
}

// Field looks up a declared field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Describe renders one line per field.
func (s Schema) Describe() []string {
	lines := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		lines = append(lines, f.Describe())
	}
	return lines
}

// Coerce checks raw decision params against the schema and returns a normalized copy
// holding int, string and bool values only. The free-text rationale is dropped.
// Any mismatch is reported as a *SchemaError before the action's rules ever see it.
func (s Schema) Coerce(action string, raw Params) (Params, error) {
	out := make(Params, len(s.Fields))

	for key := range raw {
		if key == ReasoningKey {
			continue
		}
		if _, ok := s.Field(key); !ok {
			return nil, &SchemaError{Action: action, Field: key, Reason: "unexpected field"}
		}
	}

	for _, f := range s.Fields {
		v, present := raw[f.Name]
		if !present || v == nil {
			if f.Optional {
				continue
			}
			return nil, &SchemaError{Action: action, Field: f.Name, Reason: "missing required field"}
		}

		value, err := f.coerce(v)
		if err != nil {
			return nil, &SchemaError{Action: action, Field: f.Name, Reason: err.Error()}
		}
		if value == nil {
			continue
		}
		out[f.Name] = value
	}
	return out, nil
}

func (f Field) coerce(v any) (any, error) {
	switch f.Kind {
	case FieldInt:
		switch n := v.(type) {
		case bool:
			return nil, fmt.Errorf("expected integer, got boolean")
		case float32:
			if float64(n) != math.Trunc(float64(n)) {
				return nil, fmt.Errorf("expected integer, got %v", n)
			}
		case float64:
			if n != math.Trunc(n) {
				return nil, fmt.Errorf("expected integer, got %v", n)
			}
		}
		var n int
		var err error
		if s, ok := v.(string); ok {
			// Always base 10: cast would read "010" as octal.
			n, err = strconv.Atoi(strings.TrimSpace(s))
		} else {
			n, err = cast.ToIntE(v)
		}
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %v", v)
		}
		if f.hasMin && n < f.min {
			return nil, fmt.Errorf("%d is below minimum %d", n, f.min)
		}
		if f.hasMax && n > f.max {
			return nil, fmt.Errorf("%d is above maximum %d", n, f.max)
		}
		return n, nil

	case FieldString:
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			if f.Optional {
				return nil, nil
			}
			return nil, fmt.Errorf("must not be empty")
		}
		return s, nil

	case FieldEnum:
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, fmt.Errorf("expected one of %s, got %T", strings.Join(f.Values, "|"), v)
		}
		s = strings.TrimSpace(s)
		if s == "" && f.Optional {
			return nil, nil
		}
		for _, allowed := range f.Values {
			if strings.EqualFold(s, allowed) {
				return allowed, nil
			}
		}
		return nil, fmt.Errorf("%q is not one of %s", s, strings.Join(f.Values, "|"))

	case FieldBool:
		b, err := cast.ToBoolE(v)
		if err != nil {
			return nil, fmt.Errorf("expected boolean, got %v", v)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unsupported field kind %s", f.Kind)
}
