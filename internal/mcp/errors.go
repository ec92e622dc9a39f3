package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
)

// JSON-RPC error codes used by the server.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

var (
	// ErrUnknownTool is returned by ToolRegistry.Invoke for unregistered names.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrUnknownResource is returned by ResourceRegistry.Read for unregistered URIs.
	ErrUnknownResource = errors.New("unknown resource")
)

type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *JSONRPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

func newError(code int, format string, args ...interface{}) *JSONRPCError {
	return &JSONRPCError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func newResult(id json.RawMessage, result interface{}) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  result,
	}
}

func newErrorResponse(id json.RawMessage, rpcErr *JSONRPCError) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   rpcErr,
	}
}
