package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Server represents the MCP server
type Server struct {
	info      ServerInfo
	tools     *ToolRegistry
	resources *ResourceRegistry
	logger    zerolog.Logger
}

// NewServer creates a new MCP server instance serving the given registries.
// The registries must be fully populated before Run is called.
func NewServer(name string, tools *ToolRegistry, resources *ResourceRegistry) *Server {
	if tools == nil {
		tools = NewToolRegistry()
	}
	if resources == nil {
		resources = NewResourceRegistry()
	}
	return &Server{
		info: ServerInfo{
			Name:    name,
			Version: ServerVersion,
		},
		tools:     tools,
		resources: resources,
		logger:    log.With().Str("component", "mcp_server").Logger(),
	}
}

// Run serves requests on stdin/stdout until stdin is exhausted.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads newline-delimited requests from in and writes one response line
// per input line to out, flushing after each. A line that is not a JSON
// object, blank lines included, is answered with a parse error. Requests are
// handled strictly one at a time. It returns nil at end of input; only
// failures of the streams themselves, or cancellation of ctx, end it early.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	writer := bufio.NewWriter(out)

	s.logger.Info().
		Int("tools", s.tools.Len()).
		Int("resources", s.resources.Len()).
		Msg("MCP server ready")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, readErr := reader.ReadBytes('\n')
		if len(line) > 0 {
			response := s.HandleMessage(ctx, line)
			if err := s.writeResponse(writer, response); err != nil {
				return err
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				s.logger.Info().Msg("Input closed, stopping MCP server")
				return nil
			}
			return fmt.Errorf("failed to read request: %w", readErr)
		}
	}
}

func (s *Server) writeResponse(w *bufio.Writer, response *JSONRPCResponse) error {
	data, err := json.Marshal(response)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
		data, err = json.Marshal(newErrorResponse(response.ID,
			newError(CodeInternalError, "failed to encode response: %v", err)))
		if err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
	}

	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush response: %w", err)
	}
	return nil
}

// HandleMessage decodes one raw request line and dispatches it. Input that is
// not a JSON object yields a parse error with a null id.
func (s *Server) HandleMessage(ctx context.Context, data []byte) *JSONRPCResponse {
	var request JSONRPCRequest
	if err := json.Unmarshal(data, &request); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to parse request")
		return newErrorResponse(nil, newError(CodeParseError, "Parse error: %s", err.Error()))
	}
	return s.HandleRequest(ctx, &request)
}

// HandleRequest processes a JSON-RPC request. It always returns a response:
// handler errors and panics are converted into internal errors.
func (s *Server) HandleRequest(ctx context.Context, request *JSONRPCRequest) (response *JSONRPCResponse) {
	log := s.logger.With().
		Str("method", request.Method).
		RawJSON("id", rawID(request.ID)).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Request handler panicked")
			response = newErrorResponse(request.ID, newError(CodeInternalError, "%v", r))
		}
	}()

	log.Debug().Msg("Handling request")

	switch request.Method {
	case "initialize":
		response = s.handleInitialize(request)
	case "tools/list":
		response = s.handleToolsList(request)
	case "tools/call":
		response = s.handleToolCall(ctx, request)
	case "resources/list":
		response = s.handleResourcesList(request)
	case "resources/read":
		response = s.handleResourceRead(ctx, request)
	default:
		response = newErrorResponse(request.ID, newError(CodeMethodNotFound, "Method not found: %s", request.Method))
	}

	if response.Error != nil {
		log.Warn().
			Int("code", response.Error.Code).
			Str("error", response.Error.Message).
			Msg("Request failed")
	}
	return response
}

func rawID(id json.RawMessage) []byte {
	if len(id) == 0 {
		return []byte("null")
	}
	return id
}

// handleInitialize handles the initialize request
func (s *Server) handleInitialize(request *JSONRPCRequest) *JSONRPCResponse {
	return newResult(request.ID, InitializeResult{
		ProtocolVersion: ProtocolVersion,
		ServerInfo:      s.info,
	})
}

// handleToolsList returns the list of registered tools
func (s *Server) handleToolsList(request *JSONRPCRequest) *JSONRPCResponse {
	return newResult(request.ID, ToolsListResult{
		Tools: s.tools.List(),
	})
}

// handleToolCall executes a tool call. The tool is looked up before its
// arguments are decoded, so an unregistered name is always reported as such.
func (s *Server) handleToolCall(ctx context.Context, request *JSONRPCRequest) *JSONRPCResponse {
	params, err := request.paramMembers()
	if err != nil {
		return newErrorResponse(request.ID, newError(CodeInternalError, "%s", err.Error()))
	}

	name := memberText(params["name"])
	if !s.tools.Has(name) {
		return newErrorResponse(request.ID, newError(CodeInvalidParams, "Unknown tool: %s", name))
	}

	var args map[string]json.RawMessage
	if raw, ok := params["arguments"]; ok {
		if err := json.Unmarshal(raw, &args); err != nil {
			return newErrorResponse(request.ID, newError(CodeInternalError, "invalid arguments for %s: %s", name, err.Error()))
		}
	}

	result, err := s.tools.Invoke(ctx, name, args)
	if err != nil {
		if errors.Is(err, ErrUnknownTool) {
			return newErrorResponse(request.ID, newError(CodeInvalidParams, "Unknown tool: %s", name))
		}
		return newErrorResponse(request.ID, newError(CodeInternalError, "%s", err.Error()))
	}

	text, err := encodeText(result)
	if err != nil {
		return newErrorResponse(request.ID, newError(CodeInternalError, "failed to encode result of %s: %s", name, err.Error()))
	}

	return newResult(request.ID, ToolCallResult{
		Content: []Content{
			{
				Type: "text",
				Text: text,
			},
		},
	})
}

// encodeText renders a tool result as indented JSON without HTML escaping.
func encodeText(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// handleResourcesList returns the list of registered resources
func (s *Server) handleResourcesList(request *JSONRPCRequest) *JSONRPCResponse {
	return newResult(request.ID, ResourcesListResult{
		Resources: s.resources.List(),
	})
}

// handleResourceRead reads a resource by URI
func (s *Server) handleResourceRead(ctx context.Context, request *JSONRPCRequest) *JSONRPCResponse {
	params, err := request.paramMembers()
	if err != nil {
		return newErrorResponse(request.ID, newError(CodeInternalError, "%s", err.Error()))
	}

	uri := memberText(params["uri"])
	text, err := s.resources.Read(ctx, uri)
	if err != nil {
		if errors.Is(err, ErrUnknownResource) {
			return newErrorResponse(request.ID, newError(CodeInvalidParams, "Unknown resource: %s", uri))
		}
		return newErrorResponse(request.ID, newError(CodeInternalError, "%s", err.Error()))
	}

	return newResult(request.ID, ResourceReadResult{
		Contents: []ResourceContents{
			{
				URI:      uri,
				MimeType: TextMimeType,
				Text:     text,
			},
		},
	})
}
