package validate

import (
	"strings"

	"github.com/mark3labs/swaggerwrap/controller"
	"github.com/mark3labs/swaggerwrap/params"
)

var separators = map[string]string{
	params.CSV:   ",",
	params.SSV:   " ",
	params.TSV:   "\t",
	params.Pipes: "|",
}

// extract reads the raw value of p from its declared location. Arrays come
// back as []string (or []any for JSON bodies), scalars as a single value.
func extract(req *controller.Request, pathParams map[string]string, p *params.Parameter) (any, bool) {
	switch p.Location {
	case params.InQuery:
		return fromStrings(req.Query[p.Name], p)
	case params.InHeader:
		return fromStrings(req.Header.Values(p.Name), p)
	case params.InPath:
		s, ok := pathParams[p.Name]
		if !ok {
			return nil, false
		}
		return fromStrings([]string{s}, p)
	case params.InFormData:
		if p.Type == params.TypeFile || (p.IsArray() && p.Items != nil && p.Items.Type == params.TypeFile) {
			files := req.Files[p.Name]
			if len(files) == 0 {
				return nil, false
			}
			if p.IsArray() {
				out := make([]any, len(files))
				for i, f := range files {
					out[i] = f
				}
				return out, true
			}
			return files[0], true
		}
		return fromBody(req.Body, p)
	case params.InBody:
		// Object schemas describe the whole body; typed ones a single member.
		if !p.Opaque {
			return fromBody(req.Body, p)
		}
		if req.Body == nil {
			return nil, false
		}
		return req.Body, true
	}
	return nil, false
}

// fromBody reads the decoded body member named after p.
func fromBody(body map[string]any, p *params.Parameter) (any, bool) {
	v, ok := body[p.Name]
	if !ok || v == nil {
		return nil, false
	}
	switch val := v.(type) {
	case string:
		return fromStrings([]string{val}, p)
	case []string:
		return fromStrings(val, p)
	}
	return v, true
}

func fromStrings(vals []string, p *params.Parameter) (any, bool) {
	if len(vals) == 0 {
		return nil, false
	}
	if !p.IsArray() {
		return vals[0], true
	}
	return split(vals, p.CollectionFormat), true
}

// split expands serialized array values. multi keeps repeated keys as
// separate items; the other formats also split each value on a separator.
func split(vals []string, format string) []string {
	if format == params.Multi {
		return vals
	}
	sep, ok := separators[format]
	if !ok {
		sep = ","
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v == "" {
			continue
		}
		out = append(out, strings.Split(v, sep)...)
	}
	return out
}
