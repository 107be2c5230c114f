// Package params models Swagger 2.0 operation parameters and projects them
// into validation fields.
package params

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownType     = errors.New("unknown parameter type")
	ErrUnknownLocation = errors.New("unknown parameter location")
	ErrInvalidSchema   = errors.New("invalid parameter schema")
	ErrInvalidValue    = errors.New("invalid parameter value")
)

// Type is the declared `type` of a parameter.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeEnum    Type = "enum"
	TypeFile    Type = "file"
)

// Types lists every supported parameter type.
var Types = []Type{TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeArray, TypeEnum, TypeFile}

// ParseType maps s onto a Type, ignoring case.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Types {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Location is the declared `in` of a parameter.
type Location string

const (
	InQuery    Location = "query"
	InHeader   Location = "header"
	InPath     Location = "path"
	InFormData Location = "formData"
	InBody     Location = "body"
)

// ParseLocation maps s onto a Location, ignoring case.
func ParseLocation(s string) (Location, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "query":
		return InQuery, nil
	case "header":
		return InHeader, nil
	case "path":
		return InPath, nil
	case "formdata":
		return InFormData, nil
	case "body":
		return InBody, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLocation, s)
	}
}

// ParameterError names the parameter that failed to build.
type ParameterError struct {
	Name string
	Err  error
}

func (e *ParameterError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("parameter: %v", e.Err)
	}
	return fmt.Sprintf("parameter %q: %v", e.Name, e.Err)
}

func (e *ParameterError) Unwrap() error { return e.Err }

// ValueError is a request value that failed coercion or a constraint.
type ValueError struct {
	Message string
}

func (e *ValueError) Error() string { return e.Message }

// Is reports whether target is ErrInvalidValue.
func (e *ValueError) Is(target error) bool { return target == ErrInvalidValue }

func invalid(format string, args ...any) error {
	return &ValueError{Message: fmt.Sprintf(format, args...)}
}
