// Package controller defines the handler contract shared by user controllers
// and generated stubs, and resolves controller names against a Registry.
package controller

import (
	"context"
	"maps"
	"mime/multipart"
	"net/http"
	"net/url"
)

// Method is a lowercase HTTP method as it appears in a path item.
type Method string

const (
	Get     Method = "get"
	Put     Method = "put"
	Post    Method = "post"
	Head    Method = "head"
	Patch   Method = "patch"
	Options Method = "options"
	Delete  Method = "delete"
)

// HTTP returns the canonical upper-case form, e.g. "GET".
func (m Method) HTTP() string {
	switch m {
	case Get:
		return http.MethodGet
	case Put:
		return http.MethodPut
	case Post:
		return http.MethodPost
	case Head:
		return http.MethodHead
	case Patch:
		return http.MethodPatch
	case Options:
		return http.MethodOptions
	case Delete:
		return http.MethodDelete
	default:
		return string(m)
	}
}

// Request is the transport-neutral view of an incoming call.
type Request struct {
	Method Method
	Path   string
	Scheme string
	Host   string
	Query  url.Values
	Header http.Header
	// Body holds decoded JSON or form fields.
	Body  map[string]any
	Files map[string][]*multipart.FileHeader

	// PathParams holds the raw captures of the matched route.
	PathParams map[string]string
	// Params holds validated, typed parameter values keyed by name.
	Params map[string]any

	// LookupKey names the path parameter identifying a single resource on
	// detail routes; LookupValue is its captured value.
	LookupKey   string
	LookupValue string
}

// Clone returns a copy whose maps can be written without affecting r.
func (r *Request) Clone() *Request {
	if r == nil {
		return &Request{}
	}
	out := *r
	out.Query = maps.Clone(r.Query)
	out.Header = r.Header.Clone()
	out.Body = maps.Clone(r.Body)
	out.Files = maps.Clone(r.Files)
	out.PathParams = maps.Clone(r.PathParams)
	out.Params = maps.Clone(r.Params)
	return &out
}

// Response is what a handler returns; the HTTP layer serializes Body.
type Response struct {
	Status int
	Body   any
	Header http.Header
}

// JSON builds a response with a JSON content type.
func JSON(status int, body any) *Response {
	return &Response{
		Status: status,
		Body:   body,
		Header: http.Header{"Content-Type": []string{"application/json"}},
	}
}

// HandlerFunc serves one method of one route.
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)
