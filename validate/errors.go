package validate

import (
	"errors"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/mark3labs/swaggerwrap/params"
)

// ErrValidation matches every *ValidationError.
var ErrValidation = errors.New("validation failed")

// FieldError is one rejected parameter value.
type FieldError struct {
	Field    string
	Location params.Location
	Message  string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

// ValidationError aggregates the field errors of one request.
type ValidationError struct {
	errs *multierror.Error
}

func (e *ValidationError) Error() string {
	fields := e.FieldErrors()
	parts := make([]string, 0, len(fields))
	for _, fe := range fields {
		parts = append(parts, fe.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return e.errs }

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// FieldErrors returns the individual failures in parameter order.
func (e *ValidationError) FieldErrors() []*FieldError {
	if e == nil || e.errs == nil {
		return nil
	}
	out := make([]*FieldError, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		var fe *FieldError
		if errors.As(err, &fe) {
			out = append(out, fe)
		}
	}
	return out
}

// Fields groups messages by parameter name, the shape of the 400 body.
func (e *ValidationError) Fields() map[string][]string {
	out := make(map[string][]string)
	for _, fe := range e.FieldErrors() {
		out[fe.Field] = append(out[fe.Field], fe.Message)
	}
	for _, msgs := range out {
		sort.Strings(msgs)
	}
	return out
}

type collector struct {
	merr *multierror.Error
}

func (c *collector) add(p *params.Parameter, message string) {
	c.merr = multierror.Append(c.merr, &FieldError{Field: p.Name, Location: p.Location, Message: message})
}

func (c *collector) err() error {
	if c.merr.ErrorOrNil() == nil {
		return nil
	}
	return &ValidationError{errs: c.merr}
}
