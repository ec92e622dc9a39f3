package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"integer", KindInteger},
		{"number", KindNumber},
		{"string", KindString},
		{"boolean", KindBoolean},
		{"array", KindArray},
		{"object", KindObject},
		{"", KindString},
		{"null", KindString},
		{"datetime", KindString},
		{"Integer", KindString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKind(tt.name))
		})
	}
}

func TestSynthesizeSchema_AddSignature(t *testing.T) {
	schema := SynthesizeSchema([]Param{
		{Name: "a", Kind: KindInteger},
		{Name: "b", Kind: KindInteger, Default: 0, HasDefault: true},
	})

	data, err := json.Marshal(schema)
	require.NoError(t, err)
	assert.Equal(t,
		`{"type":"object","properties":{"a":{"type":"integer"},"b":{"type":"integer"}},"required":["a"]}`,
		string(data))
}

func TestSynthesizeSchema_PreservesDeclarationOrder(t *testing.T) {
	schema := SynthesizeSchema([]Param{
		{Name: "zeta", Kind: KindString},
		{Name: "alpha", Kind: KindBoolean, Default: false, HasDefault: true},
		{Name: "mid", Kind: KindArray},
	})

	var keys []string
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, keys)
	assert.Equal(t, []string{"zeta", "mid"}, schema.Required)
}

func TestSynthesizeSchema_UnknownKindFallsBackToString(t *testing.T) {
	schema := SynthesizeSchema([]Param{
		{Name: "when", Kind: Kind("datetime")},
		{Name: "anything"},
	})

	when, ok := schema.Properties.Get("when")
	require.True(t, ok)
	assert.Equal(t, KindString, when.Type)

	anything, ok := schema.Properties.Get("anything")
	require.True(t, ok)
	assert.Equal(t, KindString, anything.Type)
}

func TestSynthesizeSchema_RequiredIffNoDefault(t *testing.T) {
	params := []Param{
		{Name: "a", Kind: KindInteger},
		{Name: "b", Kind: KindString, Default: "x", HasDefault: true},
		{Name: "c", Kind: KindObject, Default: nil, HasDefault: true},
		{Name: "d", Kind: KindNumber},
	}
	schema := SynthesizeSchema(params)

	for _, p := range params {
		assert.Equal(t, !p.HasDefault, contains(schema.Required, p.Name), "param %s", p.Name)
	}
}

func TestSynthesizeSchema_NoParams(t *testing.T) {
	data, err := json.Marshal(SynthesizeSchema(nil))
	require.NoError(t, err)
	assert.Equal(t, `{"type":"object","properties":{},"required":[]}`, string(data))
}

func TestSynthesizeSchema_Idempotent(t *testing.T) {
	params := ParamsOf[kitchenSinkArgs]()

	first, err := json.Marshal(SynthesizeSchema(params))
	require.NoError(t, err)
	second, err := json.Marshal(SynthesizeSchema(params))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	third, err := json.Marshal(SynthesizeSchema(ParamsOf[kitchenSinkArgs]()))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(third))
}

type nested struct {
	Value int `json:"value"`
}

type kitchenSinkArgs struct {
	Count    int               `json:"count"`
	Ratio    float64           `json:"ratio" jsonschema:"default=1.5"`
	Label    string            `json:"label" jsonschema:"default=cpu" jsonschema_description:"Sort key, one of cpu, memory or name"`
	Force    bool              `json:"force" jsonschema:"default=false"`
	Tags     []string          `json:"tags"`
	Matrix   [][]float64       `json:"matrix"`
	Labels   map[string]string `json:"labels"`
	Nested   nested            `json:"nested"`
	Anything interface{}       `json:"anything"`
	Ignored  string            `json:"-"`
	hidden   string
}

func TestParamsOf(t *testing.T) {
	params := ParamsOf[kitchenSinkArgs]()

	names := make([]string, 0, len(params))
	byName := make(map[string]Param, len(params))
	for _, p := range params {
		names = append(names, p.Name)
		byName[p.Name] = p
	}

	assert.Equal(t, []string{"count", "ratio", "label", "force", "tags", "matrix", "labels", "nested", "anything"}, names)

	assert.Equal(t, KindInteger, byName["count"].Kind)
	assert.Equal(t, KindNumber, byName["ratio"].Kind)
	assert.Equal(t, KindString, byName["label"].Kind)
	assert.Equal(t, KindBoolean, byName["force"].Kind)
	assert.Equal(t, KindArray, byName["tags"].Kind)
	assert.Equal(t, KindArray, byName["matrix"].Kind)
	assert.Equal(t, KindObject, byName["labels"].Kind)
	assert.Equal(t, KindObject, byName["nested"].Kind)
	assert.Equal(t, KindString, byName["anything"].Kind)

	assert.False(t, byName["count"].HasDefault)
	assert.True(t, byName["ratio"].HasDefault)
	assert.True(t, byName["label"].HasDefault)
	assert.Equal(t, "cpu", byName["label"].Default)
	assert.Equal(t, "Sort key, one of cpu, memory or name", byName["label"].Description)
	assert.True(t, byName["force"].HasDefault)
	assert.Equal(t, false, byName["force"].Default)

	schema := SynthesizeSchema(params)
	assert.Equal(t, []string{"count", "tags", "matrix", "labels", "nested", "anything"}, schema.Required)
}

func TestParamsOf_EmptyStruct(t *testing.T) {
	assert.Empty(t, ParamsOf[struct{}]())
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
