package params

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// DefaultMaxLength bounds text fields that declare no maxLength.
const DefaultMaxLength = 255

// Kind is the validation primitive a parameter projects to.
type Kind string

const (
	KindText    Kind = "text"
	KindDecimal Kind = "decimal"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindList    Kind = "list"
	KindChoice  Kind = "choice"
	KindBinary  Kind = "binary"
)

// Field validates and converts raw request values for one parameter.
type Field struct {
	Kind Kind
	// Schema holds the constraints checked with VisitJSON.
	Schema *openapi3.Schema
	// Child is the element field of a list, or the underlying scalar of a
	// choice.
	Child *Field
	// Choices are the allowed values of a choice field.
	Choices []any
}

// Field projects p into its validation field. The projection is total over
// Types; a nil result means the value is not validated beyond presence.
func (p *Parameter) Field() *Field {
	if p == nil || p.Opaque {
		return nil
	}
	switch p.Type {
	case TypeArray:
		if p.Items == nil {
			return nil
		}
		child := p.Items.Field()
		if child == nil {
			return nil
		}
		return &Field{Kind: KindList, Schema: openapi3.NewArraySchema().WithItems(child.Schema), Child: child}
	case TypeFile:
		return &Field{Kind: KindBinary, Schema: openapi3.NewStringSchema().WithFormat("binary")}
	case TypeEnum:
		return choice(p.text(), p.Enum)
	}
	base := p.scalar()
	if len(p.Enum) > 0 {
		return choice(base, p.Enum)
	}
	return base
}

func (p *Parameter) scalar() *Field {
	switch p.Type {
	case TypeNumber:
		return &Field{Kind: KindDecimal, Schema: p.bounds(openapi3.NewFloat64Schema())}
	case TypeInteger:
		return &Field{Kind: KindInteger, Schema: p.bounds(openapi3.NewIntegerSchema())}
	case TypeBoolean:
		return &Field{Kind: KindBoolean, Schema: openapi3.NewBoolSchema()}
	default:
		return p.text()
	}
}

func (p *Parameter) text() *Field {
	limit := int64(DefaultMaxLength)
	if p.MaxLength != nil {
		limit = *p.MaxLength
	}
	s := openapi3.NewStringSchema().WithMaxLength(limit)
	if p.MinLength != nil {
		s = s.WithMinLength(*p.MinLength)
	}
	if p.Pattern != "" {
		s = s.WithPattern(p.Pattern)
	}
	return &Field{Kind: KindText, Schema: s}
}

func (p *Parameter) bounds(s *openapi3.Schema) *openapi3.Schema {
	if p.Minimum != nil {
		s = s.WithMin(*p.Minimum)
	}
	if p.Maximum != nil {
		s = s.WithMax(*p.Maximum)
	}
	return s
}

func choice(base *Field, values []any) *Field {
	return &Field{Kind: KindChoice, Schema: base.Schema, Child: base, Choices: values}
}

// Coerce converts a raw request value (string, string slice or decoded JSON
// value) into its typed form and checks it against the field constraints.
// Integers come back as int64, decimals as float64.
func (f *Field) Coerce(value any) (any, error) {
	if f == nil {
		return value, nil
	}
	switch f.Kind {
	case KindList:
		return f.coerceList(value)
	case KindChoice:
		return f.coerceChoice(value)
	case KindBinary:
		if value == nil {
			return nil, invalid("No file was submitted.")
		}
		return value, nil
	}

	if list, ok := value.([]string); ok && len(list) == 1 {
		value = list[0]
	}
	if f.Kind == KindInteger {
		n, err := toInt64(value)
		if err != nil {
			return nil, err
		}
		// Bounds are checked on the float64 form; the result keeps the
		// exact int64.
		if err := f.check(float64(n)); err != nil {
			return nil, err
		}
		return n, nil
	}

	v, err := f.convert(value)
	if err != nil {
		return nil, err
	}
	if err := f.check(v); err != nil {
		return nil, err
	}
	return v, nil
}

// toInt64 accepts whole numbers within the int64 range.
func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		// math.MaxInt64 rounds up to 2^63 as a float64.
		if v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxInt64 {
			return int64(v), nil
		}
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err == nil {
			return n, nil
		}
	}
	return 0, invalid("A valid integer is required.")
}

// convert returns the JSON-typed form of value: string, float64 or bool.
func (f *Field) convert(value any) (any, error) {
	switch f.Kind {
	case KindText:
		switch v := value.(type) {
		case string:
			return v, nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		case bool:
			return strconv.FormatBool(v), nil
		}
		return nil, invalid("Not a valid string.")
	case KindDecimal:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case string:
			n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
				return n, nil
			}
		}
		return nil, invalid("A valid number is required.")
	case KindBoolean:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "t", "1", "yes", "y", "on":
				return true, nil
			case "false", "f", "0", "no", "n", "off":
				return false, nil
			}
		case float64:
			if v == 0 || v == 1 {
				return v == 1, nil
			}
		}
		return nil, invalid("Must be a valid boolean.")
	}
	return value, nil
}

func (f *Field) check(v any) error {
	if f.Schema == nil {
		return nil
	}
	if err := f.Schema.VisitJSON(v); err != nil {
		var se *openapi3.SchemaError
		if errors.As(err, &se) && se.Reason != "" {
			return invalid("%s", se.Reason)
		}
		return invalid("%v", err)
	}
	return nil
}

func (f *Field) coerceList(value any) (any, error) {
	var items []any
	switch v := value.(type) {
	case []any:
		items = v
	case []string:
		items = make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
	case string:
		items = []any{v}
	default:
		return nil, invalid("Expected a list of items but got type %T.", value)
	}
	out := make([]any, 0, len(items))
	for i, item := range items {
		c, err := f.Child.Coerce(item)
		if err != nil {
			return nil, invalid("item %d: %v", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *Field) coerceChoice(value any) (any, error) {
	v, err := f.Child.Coerce(value)
	if err != nil {
		return nil, err
	}
	got := fmt.Sprint(v)
	for _, c := range f.Choices {
		if fmt.Sprint(c) == got {
			return v, nil
		}
	}
	return nil, invalid("%q is not a valid choice.", got)
}
