// Package goemitter renders Go source for stub controllers of a route table.
// The output registers one controller.Methods or controller.Actions table per
// controller name declared in the schema, ready to be filled in by hand.
package goemitter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/dave/jennifer/jen"
	"github.com/gobuffalo/flect"

	"github.com/mark3labs/swaggerwrap/controller"
	"github.com/mark3labs/swaggerwrap/router"
)

const controllerPkg = "github.com/mark3labs/swaggerwrap/controller"

// Options controls how the emitter renders the handlers file.
type Options struct {
	Out     string // required; target Go file
	Package string // package clause; defaults to "handlers"
	Force   bool   // overwrite an existing file
	DryRun  bool   // don't write, only plan
	// All includes controllers that are already bound, not only stubbed ones.
	All bool
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Kind tells which table type a generated controller uses.
type Kind string

const (
	KindMethods Kind = "methods"
	KindActions Kind = "actions"
)

// Handler is one generated handler function.
type Handler struct {
	Func   string
	Method controller.Method
	Action controller.Action
	Paths  []string
}

// Controller is one generated registry entry.
type Controller struct {
	Name     string
	Kind     Kind
	Handlers []Handler
}

// Result returns the planned file, the generated controllers and the
// rendered source.
type Result struct {
	Package     string
	Controllers []Controller
	Planned     []PlannedFile
	Source      []byte
}

// Emit renders stub controllers for every route of t that declares a
// controller name. Routes without a name cannot be bound from a registry and
// are skipped.
func Emit(ctx context.Context, t *router.Table, opts Options) (*Result, error) {
	_ = ctx
	if t == nil {
		return nil, fmt.Errorf("goemitter: nil route table")
	}
	if strings.TrimSpace(opts.Out) == "" {
		return nil, fmt.Errorf("goemitter: Out is required")
	}
	pkg := sanitizePackage(opts.Package)
	if pkg == "" {
		pkg = "handlers"
	}

	ctrls := plan(t, opts.All)
	src, err := render(pkg, ctrls)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Package:     pkg,
		Controllers: ctrls,
		Planned:     []PlannedFile{{RelPath: filepath.ToSlash(filepath.Base(opts.Out)), Size: len(src), Mode: 0o644}},
		Source:      src,
	}
	if !opts.DryRun {
		if err := writeFile(opts.Out, src, opts.Force); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// plan groups routes by controller name. A controller becomes a resource
// when it serves a detail route and every templated route it serves has an
// object key; otherwise it is a method table.
func plan(t *router.Table, all bool) []Controller {
	byName := make(map[string][]*router.Route)
	for _, r := range t.Routes() {
		if r.Root || r.Controller == "" || (!r.Stub && !all) {
			continue
		}
		byName[r.Controller] = append(byName[r.Controller], r)
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Controller, 0, len(names))
	for _, name := range names {
		routes := byName[name]
		kind := KindMethods
		if isResource(routes) {
			kind = KindActions
		}
		c := Controller{Name: name, Kind: kind}
		index := make(map[string]int)
		for _, r := range routes {
			for _, m := range r.Methods() {
				h := Handler{Method: m}
				key := string(m)
				if kind == KindActions {
					a, ok := controller.ActionFor(m, r.IsDetail)
					if !ok {
						continue
					}
					h.Action, key = a, string(a)
				}
				if i, ok := index[key]; ok {
					c.Handlers[i].Paths = append(c.Handlers[i].Paths, r.Path)
					continue
				}
				h.Func = identifier(name, key)
				h.Paths = []string{r.Path}
				index[key] = len(c.Handlers)
				c.Handlers = append(c.Handlers, h)
			}
		}
		sort.Slice(c.Handlers, func(i, j int) bool { return c.Handlers[i].Func < c.Handlers[j].Func })
		if len(c.Handlers) > 0 {
			out = append(out, c)
		}
	}
	return out
}

func isResource(routes []*router.Route) bool {
	detail := false
	for _, r := range routes {
		if r.IsDetail {
			detail = true
		}
		if len(r.Params) > 0 && r.LookupKey == "" {
			return false
		}
	}
	return detail
}

func render(pkg string, ctrls []Controller) ([]byte, error) {
	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by swaggerwrap. DO NOT EDIT.")
	f.ImportName(controllerPkg, "controller")

	entries := jen.Dict{}
	for _, c := range ctrls {
		table := jen.Dict{}
		for _, h := range c.Handlers {
			var key jen.Code = jen.Qual(controllerPkg, methodConst(h.Method))
			if c.Kind == KindActions {
				key = jen.Qual(controllerPkg, flect.Pascalize(string(h.Action)))
			}
			table[key] = jen.Id(h.Func)
		}
		typ := "Methods"
		if c.Kind == KindActions {
			typ = "Actions"
		}
		entries[jen.Lit(c.Name)] = jen.Qual(controllerPkg, typ).Values(table)
	}

	f.Comment("Registry maps controller names to their handler tables.")
	f.Func().Id("Registry").Params().Qual(controllerPkg, "Registry").Block(
		jen.Return(jen.Qual(controllerPkg, "Registry").Values(entries)),
	)

	for _, c := range ctrls {
		for _, h := range c.Handlers {
			f.Line()
			f.Commentf("%s serves %s %s.", h.Func, h.Method.HTTP(), strings.Join(h.Paths, ", "))
			f.Func().Id(h.Func).Params(
				jen.Id("ctx").Qual("context", "Context"),
				jen.Id("req").Op("*").Qual(controllerPkg, "Request"),
			).Params(
				jen.Op("*").Qual(controllerPkg, "Response"),
				jen.Error(),
			).Block(
				jen.Return(
					jen.Qual(controllerPkg, "JSON").Call(
						jen.Qual("net/http", "StatusNotImplemented"),
						jen.Map(jen.String()).Interface().Values(jen.Dict{
							jen.Lit("detail"): jen.Lit(flect.Humanize(h.Func) + " is not implemented."),
						}),
					),
					jen.Nil(),
				),
			)
		}
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("goemitter: render: %w", err)
	}
	return buf.Bytes(), nil
}

func methodConst(m controller.Method) string {
	return flect.Pascalize(strings.ToLower(string(m)))
}

// identifier joins controller and method or action into an exported Go name.
func identifier(name, suffix string) string {
	id := flect.Pascalize(name) + flect.Pascalize(suffix)
	var b strings.Builder
	for _, r := range id {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	id = b.String()
	if id == "" || !unicode.IsLetter(rune(id[0])) {
		id = "X" + id
	}
	return id
}

func writeFile(out string, content []byte, force bool) error {
	abs, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("resolve out file: %w", err)
	}
	if st, err := os.Stat(abs); err == nil {
		if st.IsDir() {
			return fmt.Errorf("goemitter: output %q is a directory", abs)
		}
		if !force {
			return fmt.Errorf("goemitter: output file %q already exists (use --force to overwrite)", abs)
		}
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	// atomic write via temp file + rename
	tmp := abs + ".tmp-" + time.Now().Format("20060102150405")
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("write temp %s: %w", filepath.Base(abs), err)
	}
	if err := os.Rename(tmp, abs); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", filepath.Base(abs), err)
	}
	return nil
}

func sanitizePackage(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	out := strings.TrimLeft(b.String(), "0123456789_")
	return out
}
