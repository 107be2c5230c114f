package router

import (
	"context"
	"net/http"
	"strings"

	"github.com/mark3labs/swaggerwrap/controller"
	"github.com/mark3labs/swaggerwrap/spec"
)

// APIRootName is the link name of the index route and its display name when
// the schema has no title.
const APIRootName = "SwaggerAPIRoot"

const defaultRootDescription = "Enumerates all available endpoints for current schema"

// root builds the index route on basePath. Its handler lists the routes of t
// once t is initialized.
func (b *builder) root(info spec.Info, t *Table) (*Route, error) {
	display := strings.ReplaceAll(strings.TrimSpace(info.Title), " ", "_")
	if display == "" {
		display = APIRootName
	}
	version := info.Version
	if version == "" {
		version = "unknown"
	}
	desc := info.Description
	if desc == "" {
		desc = defaultRootDescription
	}

	template := joinPath(b.basePath, "")
	pattern, re, err := compilePattern(template)
	if err != nil {
		return nil, &SynthesisError{Path: b.basePath, Err: err}
	}
	r := &Route{
		Name:     APIRootName,
		Display:  display,
		Path:     b.basePath,
		Template: template,
		Pattern:  pattern,
		Root:     true,
		Doc:      "v." + version + "\n\n" + desc,
		Operations: map[controller.Method]*Operation{
			controller.Get: {Method: controller.Get, Summary: "API root", Description: desc},
		},
		regex: re,
	}
	r.handlers = map[controller.Method]controller.HandlerFunc{controller.Get: t.listRoutes}
	return r, nil
}

// listRoutes maps each non-detail route's display name to its absolute URL.
// Routes that need path values to reverse are skipped.
func (t *Table) listRoutes(ctx context.Context, req *controller.Request) (*controller.Response, error) {
	out := make(map[string]string)
	for _, r := range t.routes {
		if r.Root || r.IsDetail {
			continue
		}
		u, err := r.URL(nil)
		if err != nil {
			continue
		}
		out[r.Display] = absolute(req, u)
	}
	return controller.JSON(http.StatusOK, out), nil
}

func absolute(req *controller.Request, path string) string {
	if req == nil || req.Host == "" {
		return path
	}
	scheme := req.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + req.Host + path
}
