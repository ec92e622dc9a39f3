package mcp

import (
	"bytes"
	"encoding/json"
	"errors"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Protocol constants agreed with clients out of band.
const (
	JSONRPCVersion  = "2.0"
	ProtocolVersion = "2024-11-05"
	ServerVersion   = "1.0.0"
	TextMimeType    = "text/plain"
)

// JSON-RPC types

// JSONRPCRequest is a single request envelope. ID is kept as raw JSON so it
// can be echoed back exactly as the client sent it.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

var errRequestNotObject = errors.New("request must be a JSON object")

// UnmarshalJSON decodes an envelope leniently: any JSON object is accepted,
// and the id survives even when other members have unexpected types.
// A non-string method is kept in its raw form so routing reports it as
// not found instead of failing the whole envelope.
func (r *JSONRPCRequest) UnmarshalJSON(data []byte) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	if members == nil {
		return errRequestNotObject
	}

	*r = JSONRPCRequest{
		ID:     members["id"],
		Params: members["params"],
	}
	if raw, ok := members["jsonrpc"]; ok {
		_ = json.Unmarshal(raw, &r.JSONRPC)
	}
	if raw, ok := members["method"]; ok {
		if err := json.Unmarshal(raw, &r.Method); err != nil {
			r.Method = string(raw)
		}
	}
	return nil
}

// paramMembers decodes the request params as an object. Absent or null
// params yield an empty map.
func (r *JSONRPCRequest) paramMembers() (map[string]json.RawMessage, error) {
	members := make(map[string]json.RawMessage)
	trimmed := bytes.TrimSpace(r.Params)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return members, nil
	}
	if err := json.Unmarshal(trimmed, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// memberText reads a params member as a string. Values of any other JSON type
// are returned in their raw form, and a missing member yields "".
func memberText(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(bytes.TrimSpace(raw))
}

// JSONRPCResponse carries exactly one of Result or Error.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// MCP Protocol types

type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
}

type ServerCapabilities struct {
	Tools     struct{} `json:"tools"`
	Resources struct{} `json:"resources"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema ToolInputSchema `json:"inputSchema"`
}

// ToolInputSchema is the advertised argument shape of a tool. Properties keep
// the declaration order of the underlying parameters, also on the wire.
type ToolInputSchema struct {
	Type       string                                         `json:"type"`
	Properties *orderedmap.OrderedMap[string, PropertySchema] `json:"properties"`
	Required   []string                                       `json:"required"`
}

type PropertySchema struct {
	Type        Kind   `json:"type"`
	Description string `json:"description,omitempty"`
}

type ToolsListResult struct {
	Tools []Tool `json:"tools"`
}

type ToolCallResult struct {
	Content []Content `json:"content"`
}

type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType"`
}

type ResourcesListResult struct {
	Resources []Resource `json:"resources"`
}

type ResourceReadResult struct {
	Contents []ResourceContents `json:"contents"`
}

type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}
