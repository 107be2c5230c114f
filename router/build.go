// Package router synthesizes a route table from a Swagger 2.0 schema and a
// controller registry.
package router

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/mark3labs/swaggerwrap/controller"
	"github.com/mark3labs/swaggerwrap/params"
	"github.com/mark3labs/swaggerwrap/spec"
	"github.com/mark3labs/swaggerwrap/validate"
)

type options struct {
	logger  *slog.Logger
	metrics *validate.Metrics
	strict  bool
}

// Option configures Build.
type Option func(*options)

func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithMetrics counts validation outcomes per route.
func WithMetrics(m *validate.Metrics) Option { return func(o *options) { o.metrics = m } }

// WithStrict toggles strict scalar coercion of request parameters. Default on.
func WithStrict(strict bool) Option { return func(o *options) { o.strict = strict } }

type builder struct {
	schema   *spec.Schema
	basePath string
	models   map[string][]string
	resolver *controller.Resolver
	opts     options
}

// Build synthesizes the route table for schema. reg may be nil, in which
// case every path is served by stubs. Any schema defect aborts the build
// with a *SynthesisError.
func Build(schema *spec.Schema, reg controller.Registry, opts ...Option) (*Table, error) {
	o := options{strict: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	if !schema.Loaded() {
		return nil, spec.ErrSchemaNotLoaded
	}
	basePath, err := schema.BasePath()
	if err != nil {
		return nil, err
	}
	items, err := schema.PathItems()
	if err != nil {
		return nil, err
	}
	models, err := schema.Models()
	if err != nil {
		return nil, err
	}
	b := &builder{
		schema:   schema,
		basePath: basePath,
		models:   models,
		resolver: controller.NewResolver(reg, o.logger),
		opts:     o,
	}

	routes := make([]*Route, 0, len(items)+1)
	seen := make(map[string]string, len(items)+1)
	for _, item := range items {
		r, err := b.route(item)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[r.Pattern]; dup {
			return nil, &SynthesisError{Path: item.Path, Err: fmt.Errorf("%w: %s collides with %s", ErrDuplicateRoute, r.Pattern, prev)}
		}
		seen[r.Pattern] = item.Path
		routes = append(routes, r)
		o.logger.Debug("route synthesized", "path", item.Path, "pattern", r.Pattern, "name", r.Name, "stub", r.Stub, "detail", r.IsDetail)
	}

	info, err := schema.Info()
	if err != nil {
		return nil, err
	}
	t := &Table{}
	root, err := b.root(info, t)
	if err != nil {
		return nil, err
	}
	if prev, dup := seen[root.Pattern]; dup {
		return nil, &SynthesisError{Path: prev, Err: fmt.Errorf("%w: %s collides with the root route", ErrDuplicateRoute, root.Pattern)}
	}
	routes = append(routes, root)

	t.init(routes, root, o.logger)
	return t, nil
}

func (b *builder) route(item *spec.PathItem) (*Route, error) {
	path := strings.TrimRight(item.Path, "/")
	if path == "" {
		path = "/"
	}
	if len(item.Operations) == 0 {
		return nil, &SynthesisError{Path: path, Err: ErrEmptyPath}
	}

	display := item.Controller
	if display == "" {
		display = viewName(path)
	}

	ops := make(map[controller.Method]*Operation, len(item.Operations))
	declared := make(map[string]bool)
	for _, name := range item.MethodNames() {
		op, err := b.operation(path, item.Operations[name])
		if err != nil {
			return nil, err
		}
		for _, p := range op.Parameters {
			declared[p.Name] = true
		}
		ops[op.Method] = op
	}

	template := joinPath(b.basePath, path)
	vars := templateVars(template)
	for _, v := range vars {
		if !declared[v] {
			return nil, &SynthesisError{Path: path, Param: v, Err: fmt.Errorf("%w: %s", ErrParameterMismatch, v)}
		}
	}
	pattern, re, err := compilePattern(template)
	if err != nil {
		return nil, &SynthesisError{Path: path, Err: err}
	}

	res := b.resolver.Resolve(path, item.Controller)
	_, isResource := res.Resource()
	key := item.ObjectKey
	if key != "" && !slices.Contains(vars, key) {
		return nil, &SynthesisError{Path: path, Param: key, Err: fmt.Errorf("%w: object key %q is not a template variable of %s", ErrMissingObjectKey, key, template)}
	}
	if isResource && key == "" && len(vars) > 0 {
		return nil, &SynthesisError{Path: path, Err: fmt.Errorf("%w: resource %s serves a templated path but declares no %s", ErrMissingObjectKey, res.Name, spec.ExtObjectKey)}
	}
	detail := key != ""

	r := &Route{
		Name:       linkName(display, isResource, detail),
		Display:    display,
		Controller: item.Controller,
		Path:       path,
		Template:   template,
		Pattern:    pattern,
		Params:     vars,
		IsDetail:   detail,
		Stub:       res.Stub,
		LookupKey:  key,
		Operations: ops,
		regex:      re,
		handlers:   make(map[controller.Method]controller.HandlerFunc, len(ops)),
	}

	var doc []string
	for _, m := range r.sortedOps() {
		op := ops[m]
		if isResource {
			op.Action, _ = controller.ActionFor(m, detail)
		}
		h, ok := res.Handler(m, detail)
		if !ok {
			op.Stub = true
			h = controller.Stub(m, op.Model, b.opts.logger)
		}
		r.handlers[m] = validate.Wrap(h, op.Parameters,
			validate.WithStrict(b.opts.strict),
			validate.WithMetrics(b.opts.metrics, r.Name),
			validate.WithLogger(b.opts.logger),
		)
		if op.Description != "" {
			label := string(m)
			if op.Action != "" {
				label = string(op.Action)
			}
			doc = append(doc, label+":\n"+op.Description)
		}
	}
	r.Doc = strings.Join(doc, "\n")
	return r, nil
}

func (b *builder) operation(path string, raw *spec.Operation) (*Operation, error) {
	op := &Operation{
		Method:      controller.Method(raw.Method),
		Summary:     raw.Summary,
		Description: raw.Description,
	}
	for _, rp := range raw.Parameters {
		p, err := params.FromSchema(rp)
		if err != nil {
			name, _ := rp["name"].(string)
			return nil, &SynthesisError{Path: path, Method: raw.Method, Param: name, Err: err}
		}
		op.Parameters = append(op.Parameters, p)
	}
	model, err := b.model(raw.Responses)
	if err != nil {
		return nil, &SynthesisError{Path: path, Method: raw.Method, Err: err}
	}
	op.Model = model
	return op, nil
}

// model infers the response shape of a 200 array response whose items are a
// definition reference. Anything else yields no model.
func (b *builder) model(responses map[string]any) (any, error) {
	ok200, _ := responses["200"].(map[string]any)
	schema, _ := ok200["schema"].(map[string]any)
	if t, _ := schema["type"].(string); t != "array" {
		return nil, nil
	}
	items, _ := schema["items"].(map[string]any)
	ref, _ := items["$ref"].(string)
	if ref == "" {
		return nil, nil
	}
	target, err := b.schema.Resolve(ref, false)
	if err != nil {
		return nil, err
	}
	name, _ := target.(string)
	shape := make(map[string]any)
	for _, prop := range b.models[name] {
		shape[prop] = nil
	}
	return []map[string]any{shape}, nil
}

func (r *Route) sortedOps() []controller.Method {
	out := make([]controller.Method, 0, len(r.Operations))
	for m := range r.Operations {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
