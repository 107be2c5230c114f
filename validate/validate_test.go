package validate

import (
	"context"
	"errors"
	"math"
	"mime/multipart"
	"net/http"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/swaggerwrap/controller"
	"github.com/mark3labs/swaggerwrap/params"
)

func param(t *testing.T, raw map[string]any) *params.Parameter {
	t.Helper()
	p, err := params.FromSchema(raw)
	require.NoError(t, err)
	return p
}

// recorder captures the request a wrapped handler receives.
type recorder struct {
	calls int
	last  *controller.Request
}

func (r *recorder) handler(ctx context.Context, req *controller.Request) (*controller.Response, error) {
	r.calls++
	r.last = req
	return &controller.Response{Status: http.StatusOK}, nil
}

func TestWrap_NoParamsReturnsHandler(t *testing.T) {
	t.Parallel()
	var rec recorder
	h := Wrap(rec.handler, nil)
	resp, err := h(context.Background(), &controller.Request{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, 1, rec.calls)
	assert.Nil(t, rec.last.Params)
}

func TestWrap_PathIntegerStrict(t *testing.T) {
	t.Parallel()
	petID := param(t, map[string]any{"name": "petId", "in": "path", "type": "integer", "required": true})

	var rec recorder
	h := Wrap(rec.handler, []*params.Parameter{petID})

	req := &controller.Request{Method: controller.Get, PathParams: map[string]string{"petId": "42"}}
	resp, err := h(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	require.Equal(t, 1, rec.calls)
	assert.Equal(t, int64(42), rec.last.Params["petId"])
	assert.Nil(t, req.Params, "caller's request is not mutated")

	resp, err = h(context.Background(), &controller.Request{Method: controller.Get, PathParams: map[string]string{"petId": "abc"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, 1, rec.calls, "handler not reached")
	body, ok := resp.Body.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "validation failed", body["detail"])
	assert.Equal(t, map[string][]string{"petId": {"A valid integer is required."}}, body["errors"])
}

func TestWrap_NonStrictPassesRawScalars(t *testing.T) {
	t.Parallel()
	petID := param(t, map[string]any{"name": "petId", "in": "path", "type": "integer", "required": true})
	var rec recorder
	h := Wrap(rec.handler, []*params.Parameter{petID}, WithStrict(false))
	resp, err := h(context.Background(), &controller.Request{PathParams: map[string]string{"petId": "abc"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "abc", rec.last.Params["petId"])
}

func TestValidate_Locations(t *testing.T) {
	t.Parallel()
	ps := []*params.Parameter{
		param(t, map[string]any{"name": "limit", "in": "query", "type": "integer"}),
		param(t, map[string]any{"name": "X-Rate", "in": "header", "type": "number"}),
		param(t, map[string]any{"name": "id", "in": "path", "type": "string", "required": true}),
		param(t, map[string]any{"name": "flag", "in": "formData", "type": "boolean"}),
		param(t, map[string]any{"name": "upload", "in": "formData", "type": "file"}),
		param(t, map[string]any{"name": "pet", "in": "body", "schema": map[string]any{"$ref": "#/definitions/Pet"}}),
	}
	fh := &multipart.FileHeader{Filename: "a.txt"}
	body := map[string]any{"flag": "true", "name": "rex"}
	req := &controller.Request{
		Query:  url.Values{"limit": {"10"}},
		Header: http.Header{"X-Rate": {"0.5"}},
		Body:   body,
		Files:  map[string][]*multipart.FileHeader{"upload": {fh}},
	}
	got, err := Validate(req, map[string]string{"id": "abc"}, ps)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"limit":  int64(10),
		"X-Rate": 0.5,
		"id":     "abc",
		"flag":   true,
		"upload": fh,
		"pet":    body,
	}, got)
}

func TestValidate_OptionalAbsentAndDefaults(t *testing.T) {
	t.Parallel()
	ps := []*params.Parameter{
		param(t, map[string]any{"name": "q", "in": "query", "type": "string"}),
		param(t, map[string]any{"name": "page", "in": "query", "type": "integer", "default": 1}),
	}
	got, err := Validate(&controller.Request{}, nil, ps)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"page": int64(1)}, got)
}

func TestValidate_CollectsEveryFieldError(t *testing.T) {
	t.Parallel()
	ps := []*params.Parameter{
		param(t, map[string]any{"name": "id", "in": "path", "type": "integer", "required": true}),
		param(t, map[string]any{"name": "q", "in": "query", "type": "string", "required": true}),
		param(t, map[string]any{"name": "upload", "in": "formData", "type": "file", "required": true}),
	}
	_, err := Validate(&controller.Request{}, map[string]string{"id": "x"}, ps)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.FieldErrors(), 3)
	assert.Equal(t, map[string][]string{
		"id":     {"A valid integer is required."},
		"q":      {"This field is required."},
		"upload": {"This field is required."},
	}, ve.Fields())

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "id", fe.Field)
	assert.Equal(t, params.InPath, fe.Location)
	assert.Contains(t, err.Error(), "q: This field is required.")
}

func TestValidate_CollectionFormats(t *testing.T) {
	t.Parallel()
	cases := []struct {
		format string
		query  url.Values
		want   []any
	}{
		{format: "csv", query: url.Values{"ids": {"1,2,3"}}, want: []any{int64(1), int64(2), int64(3)}},
		{format: "ssv", query: url.Values{"ids": {"1 2"}}, want: []any{int64(1), int64(2)}},
		{format: "tsv", query: url.Values{"ids": {"1\t2"}}, want: []any{int64(1), int64(2)}},
		{format: "pipes", query: url.Values{"ids": {"1|2"}}, want: []any{int64(1), int64(2)}},
		{format: "multi", query: url.Values{"ids": {"1", "2"}}, want: []any{int64(1), int64(2)}},
		{format: "csv", query: url.Values{"ids": {"1", "2,3"}}, want: []any{int64(1), int64(2), int64(3)}},
	}
	for _, tc := range cases {
		p := param(t, map[string]any{
			"name": "ids", "in": "query", "type": "array",
			"items": map[string]any{"type": "integer"}, "collectionFormat": tc.format,
		})
		got, err := Validate(&controller.Request{Query: tc.query}, nil, []*params.Parameter{p})
		require.NoError(t, err, tc.format)
		assert.Equal(t, tc.want, got["ids"], tc.format)
	}
}

func TestValidate_JSONBodyArray(t *testing.T) {
	t.Parallel()
	p := param(t, map[string]any{"name": "tags", "in": "formData", "type": "array", "items": map[string]any{"type": "string", "enum": []any{"a", "b"}}})
	got, err := Validate(&controller.Request{Body: map[string]any{"tags": []any{"a", "b"}}}, nil, []*params.Parameter{p})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, got["tags"])

	_, err = Validate(&controller.Request{Body: map[string]any{"tags": []any{"c"}}}, nil, []*params.Parameter{p})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidate_LargeIntegersKeepPrecision(t *testing.T) {
	t.Parallel()
	p := param(t, map[string]any{"name": "id", "in": "query", "type": "integer"})
	for _, tc := range []struct {
		raw  string
		want int64
	}{
		{raw: "9223372036854775807", want: math.MaxInt64},
		{raw: "9007199254740993", want: 9007199254740993},
	} {
		got, err := Validate(&controller.Request{Query: url.Values{"id": {tc.raw}}}, nil, []*params.Parameter{p})
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got["id"], tc.raw)
	}

	_, err := Validate(&controller.Request{Query: url.Values{"id": {"9223372036854775808"}}}, nil, []*params.Parameter{p})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidate_BodySchemaShapes(t *testing.T) {
	t.Parallel()

	t.Run("array member", func(t *testing.T) {
		p := param(t, map[string]any{"name": "ids", "in": "body", "required": true,
			"schema": map[string]any{"type": "array", "items": map[string]any{"type": "integer"}}})
		got, err := Validate(&controller.Request{Body: map[string]any{"ids": []any{1.0, 2.0}}}, nil, []*params.Parameter{p})
		require.NoError(t, err)
		assert.Equal(t, []any{int64(1), int64(2)}, got["ids"])

		_, err = Validate(&controller.Request{Body: map[string]any{"ids": []any{"x"}}}, nil, []*params.Parameter{p})
		assert.ErrorIs(t, err, ErrValidation)

		var ve *ValidationError
		_, err = Validate(&controller.Request{Body: map[string]any{"other": 1.0}}, nil, []*params.Parameter{p})
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, map[string][]string{"ids": {"This field is required."}}, ve.Fields())
	})

	t.Run("scalar member", func(t *testing.T) {
		p := param(t, map[string]any{"name": "name", "in": "body", "required": true,
			"schema": map[string]any{"type": "string", "maxLength": 4}})
		got, err := Validate(&controller.Request{Body: map[string]any{"name": "rex"}}, nil, []*params.Parameter{p})
		require.NoError(t, err)
		assert.Equal(t, "rex", got["name"])

		_, err = Validate(&controller.Request{Body: map[string]any{"name": "rexford"}}, nil, []*params.Parameter{p})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("object takes whole body", func(t *testing.T) {
		p := param(t, map[string]any{"name": "pet", "in": "body", "required": true,
			"schema": map[string]any{"type": "object", "properties": map[string]any{"name": map[string]any{"type": "string"}}}})
		body := map[string]any{"name": "rex", "age": 3.0}
		got, err := Validate(&controller.Request{Body: body}, nil, []*params.Parameter{p})
		require.NoError(t, err)
		assert.Equal(t, body, got["pet"])

		_, err = Validate(&controller.Request{}, nil, []*params.Parameter{p})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestWrap_Metrics(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	again, err := NewMetrics(reg)
	require.NoError(t, err, "re-registering reuses the collector")

	p := param(t, map[string]any{"name": "id", "in": "path", "type": "integer", "required": true})
	var rec recorder
	h := Wrap(rec.handler, []*params.Parameter{p}, WithMetrics(m, "pets-detail"))

	_, _ = h(context.Background(), &controller.Request{Method: controller.Get, PathParams: map[string]string{"id": "1"}})
	_, _ = h(context.Background(), &controller.Request{Method: controller.Get, PathParams: map[string]string{"id": "x"}})
	_, _ = h(context.Background(), &controller.Request{Method: controller.Get, PathParams: map[string]string{"id": "y"}})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Validated("pets-detail", "GET", OutcomeValid)))
	assert.Equal(t, 2.0, testutil.ToFloat64(again.Validated("pets-detail", "GET", OutcomeInvalid)))
}

func TestWrap_ReentrantAcrossCalls(t *testing.T) {
	t.Parallel()
	p := param(t, map[string]any{"name": "q", "in": "query", "type": "string", "required": true})
	h := Wrap(func(ctx context.Context, req *controller.Request) (*controller.Response, error) {
		return controller.JSON(http.StatusOK, req.Params["q"]), nil
	}, []*params.Parameter{p})

	shared := &controller.Request{Params: map[string]any{"keep": true}}
	shared.Query = url.Values{"q": {"one"}}
	resp, err := h(context.Background(), shared)
	require.NoError(t, err)
	assert.Equal(t, "one", resp.Body)

	shared.Query = url.Values{"q": {"two"}}
	resp, err = h(context.Background(), shared)
	require.NoError(t, err)
	assert.Equal(t, "two", resp.Body)
	assert.Equal(t, map[string]any{"keep": true}, shared.Params)
}
