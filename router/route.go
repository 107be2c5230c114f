package router

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/mark3labs/swaggerwrap/controller"
	"github.com/mark3labs/swaggerwrap/params"
)

// Operation summarizes one method of a route.
type Operation struct {
	Method      controller.Method
	Summary     string
	Description string
	Parameters  []*params.Parameter
	// Model is the inferred response shape, e.g. [{"name": nil}].
	Model any
	// Action is set on resource routes.
	Action controller.Action
	// Stub reports whether a placeholder serves this method.
	Stub bool
}

// Route is one entry of the table. It is immutable once built.
type Route struct {
	// Name is the link name used by Reverse.
	Name string
	// Display is the view name shown in the root listing.
	Display string
	// Controller is the declared controller name, empty when none is set.
	Controller string
	// Path is the schema path; Template is basePath joined with it.
	Path     string
	Template string
	Pattern  string
	// Params are the template variables in path order.
	Params []string

	IsDetail  bool
	Stub      bool
	Root      bool
	LookupKey string
	Doc       string

	Operations map[controller.Method]*Operation

	regex    *regexp.Regexp
	handlers map[controller.Method]controller.HandlerFunc
}

// Methods returns the served methods in sorted order.
func (r *Route) Methods() []controller.Method {
	out := make([]controller.Method, 0, len(r.handlers))
	for m := range r.handlers {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Handler returns the validated handler for m.
func (r *Route) Handler(m controller.Method) (controller.HandlerFunc, bool) {
	h, ok := r.handlers[m]
	return h, ok
}

// Match reports whether path matches the route and returns its captures.
func (r *Route) Match(path string) (map[string]string, bool) {
	m := r.regex.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	captures := make(map[string]string, len(r.Params))
	for i, name := range r.Params {
		captures[name] = m[i+1]
	}
	return captures, true
}

// URL fills the template with values. Every template variable must be
// supplied.
func (r *Route) URL(values map[string]string) (string, error) {
	if r.Template == "" {
		return "/", nil
	}
	var missing []string
	out := templateVar.ReplaceAllStringFunc(r.Template, func(v string) string {
		name := v[1 : len(v)-1]
		val, ok := values[name]
		if !ok || val == "" {
			missing = append(missing, name)
			return v
		}
		return url.PathEscape(val)
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: route %s requires %s", ErrNoReverseMatch, r.Name, strings.Join(missing, ", "))
	}
	return out, nil
}

func (r *Route) allowHeader() string {
	methods := r.Methods()
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = m.HTTP()
	}
	return strings.Join(out, ", ")
}
