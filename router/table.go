package router

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/mark3labs/swaggerwrap/controller"
)

// Table is the synthesized, immutable route table. It is safe for
// concurrent use.
type Table struct {
	routes []*Route
	byName map[string]*Route
	root   *Route
	logger *slog.Logger
}

func (t *Table) init(routes []*Route, root *Route, logger *slog.Logger) {
	sort.SliceStable(routes, func(i, j int) bool { return routes[i].Pattern < routes[j].Pattern })
	t.routes = routes
	t.root = root
	t.logger = logger
	t.byName = make(map[string]*Route, len(routes))
	for _, r := range routes {
		if prev, dup := t.byName[r.Name]; dup {
			logger.Warn("route name is already taken, reverse lookups resolve to the first route",
				"name", r.Name, "path", r.Path, "first", prev.Path)
			continue
		}
		t.byName[r.Name] = r
	}
}

// Routes returns the routes sorted by pattern.
func (t *Table) Routes() []*Route {
	return append([]*Route(nil), t.routes...)
}

func (t *Table) Len() int { return len(t.routes) }

// Root returns the index route on basePath.
func (t *Table) Root() *Route { return t.root }

// Lookup returns the route registered under a link name.
func (t *Table) Lookup(name string) (*Route, bool) {
	r, ok := t.byName[name]
	return r, ok
}

// Match finds the route for path. Literal routes win over templated ones
// when both match.
func (t *Table) Match(path string) (*Route, map[string]string, bool) {
	var (
		best     *Route
		captures map[string]string
	)
	for _, r := range t.routes {
		c, ok := r.Match(path)
		if !ok {
			continue
		}
		if best == nil || len(r.Params) < len(best.Params) {
			best, captures = r, c
		}
	}
	return best, captures, best != nil
}

// Reverse builds the URL path of the named route.
func (t *Table) Reverse(name string, values map[string]string) (string, error) {
	r, ok := t.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRoute, name)
	}
	return r.URL(values)
}

// Dispatch routes req to its handler: 404 when no route matches and 405
// (with Allow) when the route does not serve the method. The handler sees a
// copy of req with path captures and the lookup key filled in.
func (t *Table) Dispatch(ctx context.Context, req *controller.Request) (*controller.Response, error) {
	if req == nil {
		req = &controller.Request{}
	}
	r, captures, ok := t.Match(req.Path)
	if !ok {
		return controller.JSON(http.StatusNotFound, map[string]any{"detail": "Not found."}), nil
	}
	method := controller.Method(strings.ToLower(string(req.Method)))
	h, ok := r.Handler(method)
	if !ok {
		resp := controller.JSON(http.StatusMethodNotAllowed, map[string]any{
			"detail": fmt.Sprintf("Method %q not allowed.", method.HTTP()),
		})
		resp.Header.Set("Allow", r.allowHeader())
		return resp, nil
	}

	next := req.Clone()
	next.Method = method
	next.PathParams = captures
	if r.LookupKey != "" {
		next.LookupKey = r.LookupKey
		next.LookupValue = captures[r.LookupKey]
	}
	t.logger.DebugContext(ctx, "dispatch", "route", r.Name, "method", method.HTTP(), "path", req.Path)
	return h(ctx, next)
}
