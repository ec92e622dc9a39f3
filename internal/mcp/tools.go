package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ToolHandler executes a tool call. The returned value is serialized to JSON
// as the call's text content.
type ToolHandler func(ctx context.Context, args map[string]json.RawMessage) (interface{}, error)

// ToolEntry pairs a tool descriptor with its handler.
type ToolEntry struct {
	Tool    Tool
	Handler ToolHandler
}

// NewToolEntry declares a tool from an explicit parameter list. The handler
// receives exactly the declared arguments: omitted optional arguments are
// filled with their defaults, while unknown or missing required arguments
// fail the call before the handler runs. Argument values are not checked
// against the advertised kinds.
func NewToolEntry(name, description string, params []Param, handler ToolHandler) ToolEntry {
	return ToolEntry{
		Tool: Tool{
			Name:        name,
			Description: description,
			InputSchema: SynthesizeSchema(params),
		},
		Handler: func(ctx context.Context, args map[string]json.RawMessage) (interface{}, error) {
			bound, err := bindArguments(params, args)
			if err != nil {
				return nil, err
			}
			return handler(ctx, bound)
		},
	}
}

// NewTool declares a tool whose arguments are decoded into the struct A.
// The schema is derived from A once, see ParamsOf.
func NewTool[A any](name, description string, fn func(ctx context.Context, args A) (interface{}, error)) ToolEntry {
	return NewToolEntry(name, description, ParamsOf[A](), func(ctx context.Context, args map[string]json.RawMessage) (interface{}, error) {
		var a A
		if err := decodeArguments(args, &a); err != nil {
			return nil, err
		}
		return fn(ctx, a)
	})
}

func bindArguments(params []Param, args map[string]json.RawMessage) (map[string]json.RawMessage, error) {
	declared := make(map[string]struct{}, len(params))
	for _, p := range params {
		declared[p.Name] = struct{}{}
	}

	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := declared[name]; !ok {
			return nil, fmt.Errorf("unexpected argument: %s", name)
		}
	}

	bound := make(map[string]json.RawMessage, len(params))
	for _, p := range params {
		if raw, ok := args[p.Name]; ok {
			bound[p.Name] = raw
			continue
		}
		if !p.HasDefault {
			return nil, fmt.Errorf("missing required argument: %s", p.Name)
		}
		raw, err := json.Marshal(p.Default)
		if err != nil {
			return nil, fmt.Errorf("failed to encode default for %s: %w", p.Name, err)
		}
		bound[p.Name] = raw
	}
	return bound, nil
}

func decodeArguments(args map[string]json.RawMessage, target interface{}) error {
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to encode arguments: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// ToolRegistry maps tool names to their entries, preserving registration
// order. It is filled before the server starts and only read afterwards.
type ToolRegistry struct {
	order   []string
	entries map[string]ToolEntry
	logger  zerolog.Logger
}

func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		entries: make(map[string]ToolEntry),
		logger:  log.With().Str("component", "tool_registry").Logger(),
	}
}

// Register adds entries to the registry. Registering a name twice replaces
// the earlier entry in place.
func (r *ToolRegistry) Register(entries ...ToolEntry) {
	for _, entry := range entries {
		name := entry.Tool.Name
		if _, exists := r.entries[name]; exists {
			r.logger.Warn().Str("tool", name).Msg("Tool registered twice, replacing previous entry")
		} else {
			r.order = append(r.order, name)
		}
		r.entries[name] = entry
		r.logger.Debug().Str("tool", name).Msg("Tool registered")
	}
}

// List returns the tool descriptors in registration order.
func (r *ToolRegistry) List() []Tool {
	tools := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.entries[name].Tool)
	}
	return tools
}

func (r *ToolRegistry) Len() int { return len(r.order) }

// Has reports whether a tool named name is registered.
func (r *ToolRegistry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Invoke calls the named tool. Errors from the handler are returned as is.
func (r *ToolRegistry) Invoke(ctx context.Context, name string, args map[string]json.RawMessage) (interface{}, error) {
	entry, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return entry.Handler(ctx, args)
}
