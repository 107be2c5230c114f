package params

import (
	"fmt"
	"strings"
)

// Collection formats for array parameters.
const (
	CSV   = "csv"
	SSV   = "ssv"
	TSV   = "tsv"
	Pipes = "pipes"
	Multi = "multi"
)

// Parameter is an immutable descriptor built from a raw parameter object.
type Parameter struct {
	Name        string
	Type        Type
	Location    Location
	Required    bool
	Description string

	// Items describes array elements; set only for TypeArray.
	Items *Parameter
	// Enum holds the allowed values, in declaration order.
	Enum []any

	MaxLength *int64
	MinLength *int64
	Pattern   string
	Minimum   *float64
	Maximum   *float64
	Default   any

	// CollectionFormat is how array values are serialized; defaults to csv.
	CollectionFormat string

	// Opaque marks body parameters whose schema is not a scalar or array
	// type. They are checked for presence only.
	Opaque bool
}

// FromSchema builds a Parameter from a raw Swagger parameter object. A
// missing type defaults to string. Body parameters take their type from
// `schema.type`.
func FromSchema(raw map[string]any) (*Parameter, error) {
	name, _ := raw["name"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ParameterError{Err: fmt.Errorf("%w: name is required", ErrInvalidSchema)}
	}
	loc, err := ParseLocation(str(raw["in"]))
	if err != nil {
		return nil, &ParameterError{Name: name, Err: err}
	}
	p, err := build(raw, loc)
	if err != nil {
		return nil, &ParameterError{Name: name, Err: err}
	}
	p.Name = name
	p.Required, _ = raw["required"].(bool)
	p.Description = strings.TrimSpace(str(raw["description"]))
	return p, nil
}

// build parses everything except identity; it is shared with array items.
func build(raw map[string]any, loc Location) (*Parameter, error) {
	p := &Parameter{Location: loc}

	typeName := str(raw["type"])
	if typeName == "" && loc == InBody {
		body, _ := raw["schema"].(map[string]any)
		typeName = str(body["type"])
		if typeName == "" || typeName == "object" {
			p.Type = TypeString
			p.Opaque = true
			return p, nil
		}
		raw = body
	}
	if typeName == "" {
		p.Type = TypeString
	} else {
		t, err := ParseType(typeName)
		if err != nil {
			return nil, err
		}
		p.Type = t
	}

	if enum, ok := raw["enum"].([]any); ok {
		p.Enum = append([]any(nil), enum...)
	}
	if p.Type == TypeEnum && len(p.Enum) == 0 {
		return nil, fmt.Errorf("%w: enum parameters require enum values", ErrInvalidSchema)
	}
	if p.Type == TypeFile && loc != InFormData {
		return nil, fmt.Errorf("%w: file parameters must use formData location, got %s", ErrInvalidSchema, loc)
	}
	if p.Type == TypeArray {
		items, ok := raw["items"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: array parameters require items", ErrInvalidSchema)
		}
		child, err := build(items, loc)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		p.Items = child
		p.CollectionFormat = strings.ToLower(str(raw["collectionFormat"]))
		switch p.CollectionFormat {
		case "":
			p.CollectionFormat = CSV
		case CSV, SSV, TSV, Pipes:
		case Multi:
			if loc != InQuery && loc != InFormData {
				return nil, fmt.Errorf("%w: collectionFormat multi is only valid in query or formData", ErrInvalidSchema)
			}
		default:
			return nil, fmt.Errorf("%w: unknown collectionFormat %q", ErrInvalidSchema, p.CollectionFormat)
		}
	}

	if n, ok := number(raw["maxLength"]); ok {
		v := int64(n)
		p.MaxLength = &v
	}
	if n, ok := number(raw["minLength"]); ok {
		v := int64(n)
		p.MinLength = &v
	}
	if n, ok := number(raw["minimum"]); ok {
		p.Minimum = &n
	}
	if n, ok := number(raw["maximum"]); ok {
		p.Maximum = &n
	}
	p.Pattern = str(raw["pattern"])
	p.Default = raw["default"]
	return p, nil
}

// IsArray reports whether values are extracted as lists.
func (p *Parameter) IsArray() bool { return p.Type == TypeArray }

func (p *Parameter) String() string {
	return fmt.Sprintf("%s (%s in %s, required=%t)", p.Name, p.Type, p.Location, p.Required)
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
