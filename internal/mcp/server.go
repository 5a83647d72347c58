// Package mcp implements the stdio MCP server the console registers with the
// host. It holds no state of its own: every tool call is delegated to the
// console's local HTTP bridge with the session token.
package mcp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const protocolVersion = "2024-11-05"

// Server implements an MCP stdio server that delegates to the console's
// HTTP bridge.
type Server struct {
	bridgeURL string
	token     string
	client    *http.Client
	in        io.Reader
	out       io.Writer
}

// NewServer creates a stdio server for the bridge at 127.0.0.1:port. The
// client timeout is generous: ask_user and plan_review block until a human
// acts.
func NewServer(port int, token string) *Server {
	return &Server{
		bridgeURL: fmt.Sprintf("http://127.0.0.1:%d", port),
		token:     token,
		client: &http.Client{
			Timeout: 24 * time.Hour,
		},
		in:  os.Stdin,
		out: os.Stdout,
	}
}

// Run starts the stdio event loop. Blocks until stdin is closed.
func (s *Server) Run() error {
	scanner := bufio.NewScanner(s.in)
	// Plans can be large
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeError(nil, -32700, "parse error: "+err.Error())
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			s.writeResponse(resp)
		}
	}

	return scanner.Err()
}

func (s *Server) handleRequest(req *Request) *Response {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "initialized", "notifications/initialized":
		// Notification, no response
		return nil
	case "tools/list":
		return &Response{JSONRPC: "2.0", ID: req.ID, Result: ToolsListResult{Tools: ToolDefinitions()}}
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &Response{JSONRPC: "2.0", ID: req.ID, Result: map[string]string{}}
	default:
		return s.errorResponse(req.ID, -32601, "method not found: "+req.Method)
	}
}

func (s *Server) handleInitialize(req *Request) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: InitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities: ServerCapabilities{
				Tools: &ToolCapabilities{},
			},
			ServerInfo: ServerInfo{
				Name:    "seamless-agent",
				Version: "1.0.0",
			},
		},
	}
}

func (s *Server) handleToolsCall(req *Request) *Response {
	paramsBytes, err := json.Marshal(req.Params)
	if err != nil {
		return s.errorResponse(req.ID, -32602, "invalid params")
	}

	var params CallToolParams
	if err := json.Unmarshal(paramsBytes, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "invalid params: "+err.Error())
	}

	result, isError := s.dispatchTool(params.Name, params.Arguments)

	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: CallToolResult{
			Content: []ContentBlock{{Type: "text", Text: result}},
			IsError: isError,
		},
	}
}

func (s *Server) dispatchTool(name string, args map[string]any) (string, bool) {
	switch name {
	case "ask_user":
		return s.httpPost("/ask_user", map[string]any{
			"question":  args["question"],
			"title":     args["title"],
			"agentName": args["agentName"],
		})
	case "plan_review":
		return s.httpPost("/plan_review", map[string]any{
			"plan":  args["plan"],
			"title": args["title"],
			"mode":  args["mode"],
		})
	case "walkthrough_review":
		return s.httpPost("/plan_review", map[string]any{
			"plan":  args["plan"],
			"title": args["title"],
			"mode":  "walkthrough",
		})
	case "create_task_list":
		return s.httpPost("/tasks/create", map[string]any{
			"title": args["title"],
			"tasks": args["tasks"],
		})
	case "get_next_task":
		return s.httpPost("/tasks/next", map[string]any{
			"listId": args["listId"],
		})
	case "update_task_status":
		return s.httpPost("/tasks/update", map[string]any{
			"listId": args["listId"],
			"taskId": args["taskId"],
			"status": args["status"],
		})
	case "close_task_list":
		return s.httpPost("/tasks/close", map[string]any{
			"listId": args["listId"],
		})
	default:
		return fmt.Sprintf("unknown tool: %s", name), true
	}
}

func (s *Server) httpPost(path string, body any) (string, bool) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Sprintf("marshal error: %s", err), true
	}

	req, err := http.NewRequest(http.MethodPost, s.bridgeURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Sprintf("request error: %s", err), true
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		if strings.Contains(err.Error(), "connection refused") {
			return fmt.Sprintf("Cannot connect to the Agent Console at %s. Ensure the extension is running.", s.bridgeURL), true
		}
		return fmt.Sprintf("HTTP error: %s", err), true
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("read error: %s", err), true
	}

	if resp.StatusCode >= 400 {
		return string(respBody), true
	}

	return string(respBody), false
}

func (s *Server) writeResponse(resp *Response) {
	data, _ := json.Marshal(resp)
	fmt.Fprintf(s.out, "%s\n", data)
}

func (s *Server) writeError(id any, code int, message string) {
	s.writeResponse(&Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	})
}

func (s *Server) errorResponse(id any, code int, message string) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	}
}
