package params

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"string", "NUMBER", "Integer", " boolean ", "array", "enum", "File"} {
		_, err := ParseType(s)
		assert.NoError(t, err, s)
	}
	got, err := ParseType("InTeGeR")
	require.NoError(t, err)
	assert.Equal(t, TypeInteger, got)

	_, err = ParseType("object")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestParseLocation(t *testing.T) {
	t.Parallel()
	cases := map[string]Location{
		"query":    InQuery,
		"HEADER":   InHeader,
		"Path":     InPath,
		"formData": InFormData,
		"formdata": InFormData,
		"body":     InBody,
	}
	for in, want := range cases {
		got, err := ParseLocation(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLocation("cookie")
	assert.ErrorIs(t, err, ErrUnknownLocation)
}

func TestFromSchema(t *testing.T) {
	t.Parallel()

	t.Run("scalar", func(t *testing.T) {
		p, err := FromSchema(map[string]any{
			"name": "petId", "in": "path", "type": "integer", "required": true,
			"minimum": 1, "maximum": 100.0,
		})
		require.NoError(t, err)
		assert.Equal(t, "petId", p.Name)
		assert.Equal(t, TypeInteger, p.Type)
		assert.Equal(t, InPath, p.Location)
		assert.True(t, p.Required)
		require.NotNil(t, p.Minimum)
		assert.Equal(t, 1.0, *p.Minimum)
		require.NotNil(t, p.Maximum)
		assert.Equal(t, 100.0, *p.Maximum)
	})

	t.Run("missing type defaults to string", func(t *testing.T) {
		p, err := FromSchema(map[string]any{"name": "q", "in": "query"})
		require.NoError(t, err)
		assert.Equal(t, TypeString, p.Type)
		assert.False(t, p.Required)
	})

	t.Run("array", func(t *testing.T) {
		p, err := FromSchema(map[string]any{
			"name": "tags", "in": "query", "type": "array",
			"items":            map[string]any{"type": "string", "enum": []any{"a", "b"}},
			"collectionFormat": "pipes",
		})
		require.NoError(t, err)
		require.NotNil(t, p.Items)
		assert.Equal(t, TypeString, p.Items.Type)
		assert.Equal(t, []any{"a", "b"}, p.Items.Enum)
		assert.Equal(t, Pipes, p.CollectionFormat)
		assert.True(t, p.IsArray())
	})

	t.Run("array default collection format", func(t *testing.T) {
		p, err := FromSchema(map[string]any{"name": "ids", "in": "query", "type": "array", "items": map[string]any{"type": "integer"}})
		require.NoError(t, err)
		assert.Equal(t, CSV, p.CollectionFormat)
	})

	t.Run("body schema", func(t *testing.T) {
		p, err := FromSchema(map[string]any{"name": "pet", "in": "body", "schema": map[string]any{"$ref": "#/definitions/Pet"}})
		require.NoError(t, err)
		assert.True(t, p.Opaque)
		assert.Nil(t, p.Field())

		p, err = FromSchema(map[string]any{"name": "ids", "in": "body", "schema": map[string]any{"type": "array", "items": map[string]any{"type": "integer"}}})
		require.NoError(t, err)
		assert.Equal(t, TypeArray, p.Type)
		assert.False(t, p.Opaque)
	})

	t.Run("invalid", func(t *testing.T) {
		cases := map[string]struct {
			raw  map[string]any
			want error
		}{
			"array without items": {raw: map[string]any{"name": "a", "in": "query", "type": "array"}, want: ErrInvalidSchema},
			"file in query":       {raw: map[string]any{"name": "f", "in": "query", "type": "file"}, want: ErrInvalidSchema},
			"enum without values": {raw: map[string]any{"name": "e", "in": "query", "type": "enum"}, want: ErrInvalidSchema},
			"multi in header":     {raw: map[string]any{"name": "h", "in": "header", "type": "array", "items": map[string]any{"type": "string"}, "collectionFormat": "multi"}, want: ErrInvalidSchema},
			"bad format":          {raw: map[string]any{"name": "h", "in": "query", "type": "array", "items": map[string]any{"type": "string"}, "collectionFormat": "json"}, want: ErrInvalidSchema},
			"nested array":        {raw: map[string]any{"name": "n", "in": "query", "type": "array", "items": map[string]any{"type": "array"}}, want: ErrInvalidSchema},
			"unknown type":        {raw: map[string]any{"name": "x", "in": "query", "type": "object"}, want: ErrUnknownType},
			"unknown location":    {raw: map[string]any{"name": "x", "in": "cookie", "type": "string"}, want: ErrUnknownLocation},
			"no name":             {raw: map[string]any{"in": "query", "type": "string"}, want: ErrInvalidSchema},
		}
		for name, tc := range cases {
			_, err := FromSchema(tc.raw)
			assert.ErrorIs(t, err, tc.want, name)
			var pe *ParameterError
			assert.True(t, errors.As(err, &pe), name)
		}
	})

	t.Run("file in formData", func(t *testing.T) {
		p, err := FromSchema(map[string]any{"name": "upload", "in": "formData", "type": "file"})
		require.NoError(t, err)
		assert.Equal(t, TypeFile, p.Type)
	})
}

func TestParameterError_NamesParameter(t *testing.T) {
	t.Parallel()
	_, err := FromSchema(map[string]any{"name": "tags", "in": "query", "type": "array"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `parameter "tags"`)
}

func TestField_Projection(t *testing.T) {
	t.Parallel()
	cases := map[Type]Kind{
		TypeString:  KindText,
		TypeNumber:  KindDecimal,
		TypeInteger: KindInteger,
		TypeBoolean: KindBoolean,
	}
	for typ, kind := range cases {
		p := &Parameter{Name: "x", Type: typ, Location: InQuery}
		f := p.Field()
		require.NotNil(t, f, typ)
		assert.Equal(t, kind, f.Kind, typ)
		assert.NotNil(t, f.Schema, typ)
	}

	text := (&Parameter{Type: TypeString}).Field()
	require.NotNil(t, text.Schema.MaxLength)
	assert.Equal(t, uint64(DefaultMaxLength), *text.Schema.MaxLength)

	list := (&Parameter{Type: TypeArray, Items: &Parameter{Type: TypeInteger}}).Field()
	require.NotNil(t, list)
	assert.Equal(t, KindList, list.Kind)
	assert.Equal(t, KindInteger, list.Child.Kind)

	enum := (&Parameter{Type: TypeEnum, Enum: []any{"a", "b"}}).Field()
	assert.Equal(t, KindChoice, enum.Kind)
	assert.Equal(t, []any{"a", "b"}, enum.Choices)

	assert.Equal(t, KindBinary, (&Parameter{Type: TypeFile, Location: InFormData}).Field().Kind)

	// Total over every type, never panicking on incomplete descriptors.
	assert.Nil(t, (&Parameter{Type: TypeArray}).Field())
	for _, typ := range Types {
		assert.NotPanics(t, func() { (&Parameter{Type: typ}).Field() }, typ)
	}
	var nilParam *Parameter
	assert.Nil(t, nilParam.Field())
}

func TestField_Coerce(t *testing.T) {
	t.Parallel()
	maxLen := int64(3)
	minimum := 1.0

	cases := []struct {
		name  string
		param *Parameter
		in    any
		want  any
		fails bool
	}{
		{name: "integer string", param: &Parameter{Type: TypeInteger}, in: "42", want: int64(42)},
		{name: "integer slice", param: &Parameter{Type: TypeInteger}, in: []string{"7"}, want: int64(7)},
		{name: "integer json", param: &Parameter{Type: TypeInteger}, in: 42.0, want: int64(42)},
		{name: "integer max int64", param: &Parameter{Type: TypeInteger}, in: "9223372036854775807", want: int64(math.MaxInt64)},
		{name: "integer above 2^53", param: &Parameter{Type: TypeInteger}, in: "9007199254740993", want: int64(9007199254740993)},
		{name: "integer min int64", param: &Parameter{Type: TypeInteger}, in: "-9223372036854775808", want: int64(math.MinInt64)},
		{name: "integer overflow", param: &Parameter{Type: TypeInteger}, in: "9223372036854775808", fails: true},
		{name: "integer json out of range", param: &Parameter{Type: TypeInteger}, in: 1e19, fails: true},
		{name: "integer json 2^63", param: &Parameter{Type: TypeInteger}, in: 9223372036854775808.0, fails: true},
		{name: "integer fraction", param: &Parameter{Type: TypeInteger}, in: 4.2, fails: true},
		{name: "integer garbage", param: &Parameter{Type: TypeInteger}, in: "abc", fails: true},
		{name: "integer minimum", param: &Parameter{Type: TypeInteger, Minimum: &minimum}, in: "0", fails: true},
		{name: "number", param: &Parameter{Type: TypeNumber}, in: "1.5", want: 1.5},
		{name: "number garbage", param: &Parameter{Type: TypeNumber}, in: "x1", fails: true},
		{name: "boolean", param: &Parameter{Type: TypeBoolean}, in: "True", want: true},
		{name: "boolean off", param: &Parameter{Type: TypeBoolean}, in: "0", want: false},
		{name: "boolean garbage", param: &Parameter{Type: TypeBoolean}, in: "maybe", fails: true},
		{name: "text", param: &Parameter{Type: TypeString}, in: "hello", want: "hello"},
		{name: "text from number", param: &Parameter{Type: TypeString}, in: 12.0, want: "12"},
		{name: "text too long", param: &Parameter{Type: TypeString, MaxLength: &maxLen}, in: "abcd", fails: true},
		{name: "text pattern", param: &Parameter{Type: TypeString, Pattern: "^[a-z]+$"}, in: "ab1", fails: true},
		{name: "text object", param: &Parameter{Type: TypeString}, in: map[string]any{}, fails: true},
		{name: "enum", param: &Parameter{Type: TypeEnum, Enum: []any{"a", "b"}}, in: "b", want: "b"},
		{name: "enum miss", param: &Parameter{Type: TypeEnum, Enum: []any{"a", "b"}}, in: "c", fails: true},
		{name: "integer enum", param: &Parameter{Type: TypeInteger, Enum: []any{1, 2}}, in: "2", want: int64(2)},
		{name: "integer enum miss", param: &Parameter{Type: TypeInteger, Enum: []any{1, 2}}, in: "3", fails: true},
		{name: "list", param: &Parameter{Type: TypeArray, Items: &Parameter{Type: TypeInteger}}, in: []string{"1", "2"}, want: []any{int64(1), int64(2)}},
		{name: "list json", param: &Parameter{Type: TypeArray, Items: &Parameter{Type: TypeInteger}}, in: []any{1.0}, want: []any{int64(1)}},
		{name: "list bad item", param: &Parameter{Type: TypeArray, Items: &Parameter{Type: TypeInteger}}, in: []string{"1", "x"}, fails: true},
		{name: "list wrong shape", param: &Parameter{Type: TypeArray, Items: &Parameter{Type: TypeInteger}}, in: 3.0, fails: true},
		{name: "file", param: &Parameter{Type: TypeFile, Location: InFormData}, in: "blob", want: "blob"},
		{name: "file missing", param: &Parameter{Type: TypeFile, Location: InFormData}, in: nil, fails: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := tc.param.Field().Coerce(tc.in)
			if tc.fails {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestField_NilCoercePassesThrough(t *testing.T) {
	t.Parallel()
	var f *Field
	got, err := f.Coerce(map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1}, got)
}
