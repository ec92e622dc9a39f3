package mcp

import (
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind is the JSON type advertised for a tool parameter.
type Kind string

const (
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindString  Kind = "string"
	KindBoolean Kind = "boolean"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
)

// ParseKind maps a type name onto a Kind. Anything unrecognized, including
// the empty string, is advertised as a string.
func ParseKind(name string) Kind {
	switch k := Kind(name); k {
	case KindInteger, KindNumber, KindString, KindBoolean, KindArray, KindObject:
		return k
	default:
		return KindString
	}
}

// Param describes one named tool argument.
type Param struct {
	Name        string
	Kind        Kind
	Description string
	// Default is filled in for the argument when the caller omits it.
	// It is only consulted when HasDefault is set, so nil is a valid default.
	Default    interface{}
	HasDefault bool
}

// SynthesizeSchema builds the input schema advertised for a parameter list.
// Properties follow the order of params; a parameter is required exactly when
// it has no default. Nameless entries are ignored and a repeated name keeps
// its first position with the last declaration's attributes.
func SynthesizeSchema(params []Param) ToolInputSchema {
	props := orderedmap.New[string, PropertySchema]()
	optional := make(map[string]bool, len(params))

	for _, p := range params {
		if p.Name == "" {
			continue
		}
		props.Set(p.Name, PropertySchema{
			Type:        ParseKind(string(p.Kind)),
			Description: p.Description,
		})
		optional[p.Name] = p.HasDefault
	}

	required := make([]string, 0, len(params))
	for pair := props.Oldest(); pair != nil; pair = pair.Next() {
		if !optional[pair.Key] {
			required = append(required, pair.Key)
		}
	}

	return ToolInputSchema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

// ParamsOf derives a parameter list from the argument struct A.
//
// Fields are reflected with invopop/jsonschema, so property names follow json
// tags and unexported or `json:"-"` fields are skipped. A
// `jsonschema:"default=..."` tag marks a field optional and supplies its
// default; `jsonschema_description` sets the description. Slices and arrays
// are advertised as arrays and maps as objects regardless of element type.
func ParamsOf[A any]() []Param {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.Reflect(new(A))
	if s == nil || s.Properties == nil {
		return nil
	}

	params := make([]Param, 0, s.Properties.Len())
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		p := Param{Name: pair.Key, Kind: KindString}
		if prop := pair.Value; prop != nil {
			p.Kind = ParseKind(prop.Type)
			p.Description = prop.Description
			if prop.Default != nil {
				p.Default = prop.Default
				p.HasDefault = true
			}
		}
		params = append(params, p)
	}
	return params
}
