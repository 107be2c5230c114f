package spec

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes loader errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError      ErrorCode = "InputError"
	NetworkError    ErrorCode = "NetworkError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
)

var (
	// ErrSchemaLoad matches every error returned by Load, LoadReader and Parse.
	ErrSchemaLoad = errors.New("schema load error")

	// ErrSchemaNotLoaded is returned by accessors of a Schema that was never loaded.
	ErrSchemaNotLoaded = errors.New("spec: schema is not loaded")

	// ErrInvalidReference matches every *ReferenceError.
	ErrInvalidReference = errors.New("invalid reference")
)

// SpecError is a structured error with optional location and JSON Pointer.
type SpecError struct {
	Code        ErrorCode
	Message     string
	Location    string // file path, URL or stream name
	JSONPointer string // e.g. "#/paths"
	Cause       error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrSchemaLoad.
func (e *SpecError) Is(target error) bool { return target == ErrSchemaLoad }

// ReferenceError describes a $ref that is malformed or points nowhere.
type ReferenceError struct {
	Ref     string
	Message string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("invalid reference %q: %s", e.Ref, e.Message)
}

// Is reports whether target is ErrInvalidReference.
func (e *ReferenceError) Is(target error) bool { return target == ErrInvalidReference }
