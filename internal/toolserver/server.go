// Package toolserver exposes bosun over MCP: newline-delimited
// JSON-RPC 2.0 frames on stdio. Task graph operations, sandboxed
// execution, and background jobs are offered as tools; an MCP-capable
// agent drives the whole system through this surface.
package toolserver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/bosunworks/bosun/internal/background"
	"github.com/bosunworks/bosun/internal/history"
	"github.com/bosunworks/bosun/internal/sandbox"
	"github.com/bosunworks/bosun/internal/taskgraph"
)

const (
	protocolVersion = "2024-11-05"
	serverName      = "bosun"
	serverVersion   = "0.1.0"
)

// Request is one incoming JSON-RPC frame.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is one outgoing JSON-RPC frame.
type Response struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

// RPCError is the JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type initializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	ServerInfo      serverInfo   `json:"serverInfo"`
	Capabilities    capabilities `json:"capabilities"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type capabilities struct {
	Tools *toolsCapability `json:"tools,omitempty"`
}

type toolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type listToolsResult struct {
	Tools []toolSpec `json:"tools"`
}

type toolSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"inputSchema"`
}

type callToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type callToolResult struct {
	Content []toolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type toolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Options wire a server to its dependencies. History may be nil to
// disable event recording; In and Out default to stdio.
type Options struct {
	Tasks      *taskgraph.Manager
	Sandbox    *sandbox.Runner
	Background *background.Runner
	History    *history.Store
	Project    string
	SessionID  string
	In         io.Reader
	Out        io.Writer
}

// Server handles one stdio MCP session.
type Server struct {
	tasks      *taskgraph.Manager
	sandbox    *sandbox.Runner
	background *background.Runner
	history    *history.Store
	project    string
	sessionID  string
	in         io.Reader
	out        io.Writer
}

// NewServer builds a server from its options.
func NewServer(opts Options) *Server {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.New().String()[:8]
	}
	return &Server{
		tasks:      opts.Tasks,
		sandbox:    opts.Sandbox,
		background: opts.Background,
		history:    opts.History,
		project:    opts.Project,
		sessionID:  opts.SessionID,
		in:         opts.In,
		out:        opts.Out,
	}
}

// SessionID returns the id history events are tagged with.
func (s *Server) SessionID() string {
	return s.sessionID
}

// Run reads frames until EOF or context cancellation.
func (s *Server) Run(ctx context.Context) error {
	reader := bufio.NewReader(s.in)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if len(line) == 0 && err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.sendError(nil, -32700, "Parse error")
			continue
		}

		if resp := s.handleRequest(ctx, &req); resp != nil {
			if err := s.send(resp); err != nil {
				return err
			}
		}

		if err == io.EOF {
			return nil
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: initializeResult{
				ProtocolVersion: protocolVersion,
				ServerInfo:      serverInfo{Name: serverName, Version: serverVersion},
				Capabilities:    capabilities{Tools: &toolsCapability{}},
			},
		}
	case "tools/list":
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  listToolsResult{Tools: s.toolSpecs()},
		}
	case "tools/call":
		return s.handleCallTool(ctx, req)
	default:
		// Notifications carry no id and expect no reply
		if strings.HasPrefix(req.Method, "notifications/") {
			return nil
		}
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: -32601, Message: "Method not found"},
		}
	}
}

func (s *Server) handleCallTool(ctx context.Context, req *Request) *Response {
	var params callToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: -32602, Message: "Invalid params"},
		}
	}

	handler, ok := s.handlers()[params.Name]
	if !ok {
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: -32601, Message: "Unknown tool"},
		}
	}

	text, err := handler(ctx, params.Arguments)
	if err != nil {
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: callToolResult{
				Content: []toolContent{{Type: "text", Text: fmt.Sprintf("Error: %v", err)}},
				IsError: true,
			},
		}
	}

	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: callToolResult{
			Content: []toolContent{{Type: "text", Text: text}},
		},
	}
}

// record appends a history event, if history is wired in.
func (s *Server) record(eventType, summary string, metadata map[string]any) {
	if s.history == nil {
		return
	}
	e := &history.Event{
		SessionID: s.sessionID,
		Project:   s.project,
		Type:      eventType,
		Summary:   summary,
		Metadata:  metadata,
	}
	if err := s.history.Record(e); err != nil {
		log.Printf("warning: failed to record history event: %v", err)
	}
}

func (s *Server) send(resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(s.out, "%s\n", data)
	return err
}

func (s *Server) sendError(id any, code int, message string) {
	resp := &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	}
	if err := s.send(resp); err != nil {
		log.Printf("warning: failed to send error response: %v", err)
	}
}
