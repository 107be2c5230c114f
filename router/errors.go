package router

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyPath         = errors.New("path declares no supported methods")
	ErrParameterMismatch = errors.New("path template variable has no declared parameter")
	ErrMissingObjectKey  = errors.New("missing or invalid object key")
	ErrDuplicateRoute    = errors.New("duplicate route pattern")

	ErrUnknownRoute   = errors.New("unknown route")
	ErrNoReverseMatch = errors.New("no reverse match")
)

// SynthesisError is a schema defect found while building the table. Err
// carries the sentinel or the underlying parameter/reference error.
type SynthesisError struct {
	Path   string
	Method string
	Param  string
	Err    error
}

func (e *SynthesisError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "router: path %q", e.Path)
	if e.Method != "" {
		fmt.Fprintf(&b, " method %s", e.Method)
	}
	if e.Param != "" {
		fmt.Fprintf(&b, " parameter %q", e.Param)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *SynthesisError) Unwrap() error { return e.Err }
