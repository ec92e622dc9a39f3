package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addArgs struct {
	A int `json:"a"`
	B int `json:"b" jsonschema:"default=0"`
}

func addTool() ToolEntry {
	return NewTool("add", "Add two integers.", func(_ context.Context, args addArgs) (interface{}, error) {
		return args.A + args.B, nil
	})
}

func rawArgs(t *testing.T, v map[string]interface{}) map[string]json.RawMessage {
	t.Helper()
	args := make(map[string]json.RawMessage, len(v))
	for name, value := range v {
		data, err := json.Marshal(value)
		require.NoError(t, err)
		args[name] = data
	}
	return args
}

func TestNewTool_Descriptor(t *testing.T) {
	entry := addTool()

	assert.Equal(t, "add", entry.Tool.Name)
	assert.Equal(t, "Add two integers.", entry.Tool.Description)

	data, err := json.Marshal(entry.Tool.InputSchema)
	require.NoError(t, err)
	assert.Equal(t,
		`{"type":"object","properties":{"a":{"type":"integer"},"b":{"type":"integer"}},"required":["a"]}`,
		string(data))
}

func TestNewTool_AppliesDefaults(t *testing.T) {
	entry := addTool()

	result, err := entry.Handler(context.Background(), rawArgs(t, map[string]interface{}{"a": 5}))
	require.NoError(t, err)
	assert.Equal(t, 5, result)

	result, err = entry.Handler(context.Background(), rawArgs(t, map[string]interface{}{"a": 5, "b": 7}))
	require.NoError(t, err)
	assert.Equal(t, 12, result)
}

func TestNewTool_MissingRequiredArgument(t *testing.T) {
	_, err := addTool().Handler(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, "missing required argument: a", err.Error())
}

func TestNewTool_UnexpectedArgument(t *testing.T) {
	_, err := addTool().Handler(context.Background(), rawArgs(t, map[string]interface{}{"a": 1, "zz": 2, "c": 3}))
	require.Error(t, err)
	assert.Equal(t, "unexpected argument: c", err.Error())
}

func TestNewTool_MistypedArgument(t *testing.T) {
	_, err := addTool().Handler(context.Background(), rawArgs(t, map[string]interface{}{"a": "five"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid arguments")
}

func TestNewToolEntry_ExplicitParams(t *testing.T) {
	var got map[string]json.RawMessage
	entry := NewToolEntry("echo", "", []Param{
		{Name: "text", Kind: KindString},
		{Name: "times", Kind: KindInteger, Default: 1, HasDefault: true},
		{Name: "suffix", Kind: KindString, Default: nil, HasDefault: true},
	}, func(_ context.Context, args map[string]json.RawMessage) (interface{}, error) {
		got = args
		return "ok", nil
	})

	_, err := entry.Handler(context.Background(), rawArgs(t, map[string]interface{}{"text": "hi"}))
	require.NoError(t, err)
	assert.JSONEq(t, `"hi"`, string(got["text"]))
	assert.JSONEq(t, `1`, string(got["times"]))
	assert.JSONEq(t, `null`, string(got["suffix"]))
	assert.Equal(t, []string{"text"}, entry.Tool.InputSchema.Required)
}

func TestToolRegistry_ListInRegistrationOrder(t *testing.T) {
	registry := NewToolRegistry()
	noop := func(context.Context, map[string]json.RawMessage) (interface{}, error) { return nil, nil }

	registry.Register(
		NewToolEntry("zulu", "", nil, noop),
		NewToolEntry("alpha", "", nil, noop),
		NewToolEntry("mike", "", nil, noop),
	)

	var names []string
	for _, tool := range registry.List() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"zulu", "alpha", "mike"}, names)
	assert.Equal(t, 3, registry.Len())
}

func TestToolRegistry_DuplicateRegistrationLastWins(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register(
		NewToolEntry("first", "", nil, func(context.Context, map[string]json.RawMessage) (interface{}, error) { return "v1", nil }),
		NewToolEntry("second", "", nil, func(context.Context, map[string]json.RawMessage) (interface{}, error) { return "second", nil }),
		NewToolEntry("first", "replaced", nil, func(context.Context, map[string]json.RawMessage) (interface{}, error) { return "v2", nil }),
	)

	tools := registry.List()
	require.Len(t, tools, 2)
	assert.Equal(t, "first", tools[0].Name)
	assert.Equal(t, "replaced", tools[0].Description)

	result, err := registry.Invoke(context.Background(), "first", nil)
	require.NoError(t, err)
	assert.Equal(t, "v2", result)
}

func TestToolRegistry_InvokeUnknownTool(t *testing.T) {
	registry := NewToolRegistry()

	_, err := registry.Invoke(context.Background(), "missing", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownTool))
}

func TestToolRegistry_Has(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register(addTool())

	assert.True(t, registry.Has("add"))
	assert.False(t, registry.Has("Add"))
	assert.False(t, registry.Has(""))
}

func TestToolRegistry_InvokePropagatesHandlerError(t *testing.T) {
	registry := NewToolRegistry()
	boom := errors.New("boom")
	registry.Register(NewToolEntry("fail", "", nil, func(context.Context, map[string]json.RawMessage) (interface{}, error) {
		return nil, boom
	}))

	_, err := registry.Invoke(context.Background(), "fail", nil)
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, ErrUnknownTool))
}

func TestToolRegistry_ListEmpty(t *testing.T) {
	tools := NewToolRegistry().List()
	require.NotNil(t, tools)
	assert.Empty(t, tools)
}
