package controller

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// Resolution is the outcome of resolving one path's controller.
type Resolution struct {
	Name string
	// Target is a Controller or Resource; nil when Stub is set.
	Target any
	Stub   bool
	// Reason explains why a stub was chosen.
	Reason string
}

// Resource reports whether the target dispatches by action.
func (r Resolution) Resource() (Resource, bool) {
	res, ok := r.Target.(Resource)
	return res, ok
}

// Handler returns the target's handler for m, or false when the target has
// none and a stub must serve the method.
func (r Resolution) Handler(m Method, detail bool) (HandlerFunc, bool) {
	if r.Stub {
		return nil, false
	}
	if res, ok := r.Target.(Resource); ok {
		action, ok := ActionFor(m, detail)
		if !ok {
			return nil, false
		}
		return res.Action(action)
	}
	if c, ok := r.Target.(Controller); ok {
		return c.Handler(m)
	}
	return nil, false
}

// Resolver looks controller names up in a Registry.
type Resolver struct {
	registry Registry
	logger   *slog.Logger
}

// NewResolver returns a resolver over reg. A nil reg resolves every path to
// a stub; that is reported once here rather than per path.
func NewResolver(reg Registry, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		logger.Warn("no controller registry supplied, every path will be served by stubs")
	}
	return &Resolver{registry: reg, logger: logger}
}

// Resolve finds the controller named name for path. It never fails:
// anything that cannot be bound degrades to a stub.
func (r *Resolver) Resolve(path, name string) Resolution {
	if r.registry == nil {
		return Resolution{Name: name, Stub: true, Reason: "no controller registry"}
	}
	if name == "" {
		return r.stub(path, name, fmt.Sprintf("path %s declares no controller", path))
	}
	c, ok := r.registry.Lookup(name)
	if !ok {
		return r.stub(path, name, fmt.Sprintf("controller %s for path %s is not registered", name, path))
	}
	if !isHandler(c) {
		return r.stub(path, name, fmt.Sprintf("controller %s for path %s (%T) implements neither Controller nor Resource", name, path, c))
	}
	r.logger.Debug("controller bound", "path", path, "controller", name)
	return Resolution{Name: name, Target: c}
}

func (r *Resolver) stub(path, name, reason string) Resolution {
	r.logger.Info("using stub controller", "path", path, "controller", name, "reason", reason)
	return Resolution{Name: name, Stub: true, Reason: reason}
}

// Stub returns the placeholder handler for m: 200 with model as the body,
// or 204 with no body for delete.
func Stub(m Method, model any, logger *slog.Logger) HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req *Request) (*Response, error) {
		if req == nil {
			req = &Request{}
		}
		logger.DebugContext(ctx, "stub handler called", "method", m.HTTP(), "path", req.Path, "params", req.Params)
		if m == Delete {
			return &Response{Status: http.StatusNoContent}, nil
		}
		if model == nil {
			return JSON(http.StatusOK, map[string]any{}), nil
		}
		return JSON(http.StatusOK, cloneModel(model)), nil
	}
}

// cloneModel deep-copies the maps and slices of a decoded JSON shape so every
// response owns its body.
func cloneModel(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneModel(item)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(val))
		for i, item := range val {
			out[i] = cloneModel(item).(map[string]any)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneModel(item)
		}
		return out
	}
	return v
}
