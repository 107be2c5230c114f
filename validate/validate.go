// Package validate checks request parameters against their declared schema
// before a handler runs.
package validate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mark3labs/swaggerwrap/controller"
	"github.com/mark3labs/swaggerwrap/params"
)

type options struct {
	strict  bool
	metrics *Metrics
	route   string
	logger  *slog.Logger
}

// Option configures Wrap and Validate.
type Option func(*options)

// WithStrict toggles strict scalar coercion. When off, values that cannot be
// converted to number, integer or boolean are passed through as received.
// Strict is the default.
func WithStrict(strict bool) Option { return func(o *options) { o.strict = strict } }

// WithMetrics counts outcomes under the given route label.
func WithMetrics(m *Metrics, route string) Option {
	return func(o *options) {
		o.metrics = m
		o.route = route
	}
}

func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

func newOptions(opts []Option) options {
	o := options{strict: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

type binding struct {
	param *params.Parameter
	field *params.Field
}

func bind(ps []*params.Parameter) []binding {
	out := make([]binding, 0, len(ps))
	for _, p := range ps {
		if p == nil {
			continue
		}
		out = append(out, binding{param: p, field: p.Field()})
	}
	return out
}

// Wrap returns a handler that validates ps before calling h. With no
// parameters h is returned unchanged. Invalid requests get a 400 response
// and h is not called; valid ones reach h with typed values merged into a
// copy of the request's Params.
func Wrap(h controller.HandlerFunc, ps []*params.Parameter, opts ...Option) controller.HandlerFunc {
	bindings := bind(ps)
	if len(bindings) == 0 {
		return h
	}
	o := newOptions(opts)
	return func(ctx context.Context, req *controller.Request) (*controller.Response, error) {
		if req == nil {
			req = &controller.Request{}
		}
		method := req.Method.HTTP()
		values, err := check(req, req.PathParams, bindings, o.strict)
		if err != nil {
			var ve *ValidationError
			if !errors.As(err, &ve) {
				return nil, err
			}
			o.metrics.observe(o.route, method, OutcomeInvalid)
			o.logger.DebugContext(ctx, "request rejected", "method", method, "path", req.Path, "errors", ve.Fields())
			return BadRequest(ve), nil
		}
		o.metrics.observe(o.route, method, OutcomeValid)

		next := req.Clone()
		if next.Params == nil {
			next.Params = make(map[string]any, len(values))
		}
		for k, v := range values {
			next.Params[k] = v
		}
		return h(ctx, next)
	}
}

// Validate runs the same checks as Wrap and returns the typed values, or a
// *ValidationError listing every rejected parameter.
func Validate(req *controller.Request, pathParams map[string]string, ps []*params.Parameter, opts ...Option) (map[string]any, error) {
	if req == nil {
		req = &controller.Request{}
	}
	o := newOptions(opts)
	return check(req, pathParams, bind(ps), o.strict)
}

// BadRequest renders a validation failure as the 400 response body.
func BadRequest(ve *ValidationError) *controller.Response {
	return controller.JSON(http.StatusBadRequest, map[string]any{
		"detail": "validation failed",
		"errors": ve.Fields(),
	})
}

func check(req *controller.Request, pathParams map[string]string, bindings []binding, strict bool) (map[string]any, error) {
	values := make(map[string]any, len(bindings))
	var errs collector
	for _, b := range bindings {
		raw, present := extract(req, pathParams, b.param)
		if !present {
			if b.param.Default != nil {
				raw = b.param.Default
			} else if b.param.Required {
				errs.add(b.param, "This field is required.")
				continue
			} else {
				continue
			}
		}
		v, err := b.field.Coerce(raw)
		if err != nil {
			if !strict && lenient(b.field) {
				values[b.param.Name] = raw
				continue
			}
			errs.add(b.param, err.Error())
			continue
		}
		values[b.param.Name] = v
	}
	if err := errs.err(); err != nil {
		return nil, err
	}
	return values, nil
}

// lenient reports whether a coercion failure may be ignored outside strict
// mode.
func lenient(f *params.Field) bool {
	if f == nil {
		return false
	}
	switch f.Kind {
	case params.KindDecimal, params.KindInteger, params.KindBoolean:
		return true
	}
	return false
}
