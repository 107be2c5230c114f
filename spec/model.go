package spec

import (
	"encoding/json"
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
)

// Vendor extensions read from path items.
const (
	ExtRouterView       = "x-swagger-router-view"
	ExtRouterController = "x-swagger-router-controller" // legacy alias of ExtRouterView
	ExtObjectKey        = "x-swagger-object-key"
)

// Methods lists the HTTP methods a Swagger 2.0 path item may declare.
var Methods = []string{"get", "put", "post", "head", "patch", "options", "delete"}

// Schema is a parsed Swagger 2.0 document. The zero value is not loaded and
// every accessor returns ErrSchemaNotLoaded.
type Schema struct {
	root     map[string]any
	location string
	loaded   bool
}

// Info is the subset of the info object the router reports.
type Info struct {
	Title       string
	Version     string
	Description string
}

// PathItem is a typed view over one entry of the paths object.
type PathItem struct {
	Path       string
	Controller string
	ObjectKey  string
	Operations map[string]*Operation
	Raw        map[string]any
}

// Operation is one method of a path item. Parameters holds raw parameter
// objects with path-level parameters merged in and $refs resolved.
type Operation struct {
	Method      string
	Summary     string
	Description string
	Parameters  []map[string]any
	Responses   map[string]any
}

// Loaded reports whether the schema was produced by a successful parse.
func (s *Schema) Loaded() bool { return s != nil && s.loaded }

// Location is the file path, URL or stream name the schema came from.
func (s *Schema) Location() string {
	if s == nil {
		return ""
	}
	return s.location
}

// Raw returns the document tree. Callers must not mutate it.
func (s *Schema) Raw() (map[string]any, error) {
	if !s.Loaded() {
		return nil, ErrSchemaNotLoaded
	}
	return s.root, nil
}

func (s *Schema) BasePath() (string, error) {
	if !s.Loaded() {
		return "", ErrSchemaNotLoaded
	}
	bp, _ := s.root["basePath"].(string)
	return bp, nil
}

// Info reads the info object through the typed document, so a title or
// version that is not a string fails with a ValidationError.
func (s *Schema) Info() (Info, error) {
	doc, err := s.Document()
	if err != nil {
		return Info{}, err
	}
	return Info{
		Title:       strings.TrimSpace(doc.Info.Title),
		Version:     strings.TrimSpace(doc.Info.Version),
		Description: strings.TrimSpace(doc.Info.Description),
	}, nil
}

// Document decodes the tree into kin-openapi's typed Swagger 2.0 model.
func (s *Schema) Document() (*openapi2.T, error) {
	if !s.Loaded() {
		return nil, ErrSchemaNotLoaded
	}
	// The loader also accepts the unquoted YAML float 2.0.
	root := maps.Clone(s.root)
	root["swagger"] = "2.0"
	data, err := json.Marshal(root)
	if err != nil {
		return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("encode document: %v", err), Location: s.location, Cause: err}
	}
	var doc openapi2.T
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &SpecError{Code: ValidationError, Message: fmt.Sprintf("decode swagger 2.0 document: %v", err), Location: s.location, Cause: err}
	}
	return &doc, nil
}

// Models maps every definition that has properties to its sorted property names.
func (s *Schema) Models() (map[string][]string, error) {
	if !s.Loaded() {
		return nil, ErrSchemaNotLoaded
	}
	models := make(map[string][]string)
	defs, _ := s.root["definitions"].(map[string]any)
	for name, def := range defs {
		m, _ := def.(map[string]any)
		props, _ := m["properties"].(map[string]any)
		if len(props) == 0 {
			continue
		}
		names := make([]string, 0, len(props))
		for p := range props {
			names = append(names, p)
		}
		sort.Strings(names)
		models[name] = names
	}
	return models, nil
}

// PathItems returns every path item sorted by path.
func (s *Schema) PathItems() ([]*PathItem, error) {
	if !s.Loaded() {
		return nil, ErrSchemaNotLoaded
	}
	paths, _ := s.root["paths"].(map[string]any)
	keys := make([]string, 0, len(paths))
	for p := range paths {
		keys = append(keys, p)
	}
	sort.Strings(keys)

	items := make([]*PathItem, 0, len(keys))
	for _, p := range keys {
		raw, ok := paths[p].(map[string]any)
		if !ok {
			raw = map[string]any{}
		}
		item, err := s.pathItem(p, raw)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Schema) pathItem(path string, raw map[string]any) (*PathItem, error) {
	item := &PathItem{
		Path:       path,
		Controller: strings.TrimSpace(asString(raw[ExtRouterView])),
		ObjectKey:  strings.TrimSpace(asString(raw[ExtObjectKey])),
		Operations: make(map[string]*Operation),
		Raw:        raw,
	}
	if item.Controller == "" {
		item.Controller = strings.TrimSpace(asString(raw[ExtRouterController]))
	}

	base, err := s.parameterList(raw["parameters"])
	if err != nil {
		return nil, err
	}

	for _, m := range Methods {
		opRaw, ok := raw[m]
		if !ok {
			continue
		}
		op, _ := opRaw.(map[string]any)
		own, err := s.parameterList(op["parameters"])
		if err != nil {
			return nil, err
		}
		responses, _ := op["responses"].(map[string]any)
		item.Operations[m] = &Operation{
			Method:      m,
			Summary:     strings.TrimSpace(asString(op["summary"])),
			Description: strings.TrimSpace(asString(op["description"])),
			Parameters:  mergeParameters(base, own),
			Responses:   responses,
		}
	}
	return item, nil
}

// MethodNames returns the declared methods in sorted order.
func (p *PathItem) MethodNames() []string {
	out := make([]string, 0, len(p.Operations))
	for m := range p.Operations {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func (s *Schema) parameterList(v any) ([]map[string]any, error) {
	list, _ := v.([]any)
	out := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if ref, ok := m["$ref"].(string); ok {
			target, err := s.Resolve(ref, true)
			if err != nil {
				return nil, err
			}
			resolved, ok := target.(map[string]any)
			if !ok {
				return nil, &ReferenceError{Ref: ref, Message: "target is not a parameter object"}
			}
			m = resolved
		}
		out = append(out, m)
	}
	return out, nil
}

// mergeParameters keeps path-level parameters first; operation-level ones
// replace them when (in, name) matches.
func mergeParameters(base, own []map[string]any) []map[string]any {
	if len(base) == 0 {
		return own
	}
	out := make([]map[string]any, 0, len(base)+len(own))
	index := make(map[string]int, len(base))
	for _, p := range base {
		index[paramKey(p)] = len(out)
		out = append(out, p)
	}
	for _, p := range own {
		if i, ok := index[paramKey(p)]; ok {
			out[i] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

func paramKey(p map[string]any) string {
	return strings.ToLower(asString(p["in"])) + ":" + asString(p["name"])
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
