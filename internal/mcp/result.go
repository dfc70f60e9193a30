package mcp

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

// Invocation is one tools/call request after envelope decoding.
type Invocation struct {
	ID        json.RawMessage
	Tool      string
	Arguments map[string]any
}

// Result is the outcome of one dispatch: exactly one of a payload or a
// Failure. Build it with success or failure.
type Result struct {
	payload *mcp.CallToolResult
	failure *Failure
}

func success(payload *mcp.CallToolResult) Result {
	return Result{payload: payload}
}

func failure(f *Failure) Result {
	return Result{failure: f}
}

// Payload returns the tool result, or nil when the dispatch failed.
func (r Result) Payload() *mcp.CallToolResult { return r.payload }

// Failure returns the classified error, or nil on success.
func (r Result) Failure() *Failure { return r.failure }

// OK reports whether the dispatch succeeded.
func (r Result) OK() bool { return r.failure == nil }

// emptyBodyPayload stands in for upstream 2xx responses with no body
// (DELETE returns 204).
const emptyBodyPayload = `{"status":"ok"}`

// textResult wraps an upstream response body as MCP text content.
func textResult(body []byte) *mcp.CallToolResult {
	text := string(body)
	if isBlank(body) {
		text = emptyBodyPayload
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}
}

// errorResult creates an MCP error result.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

func isBlank(b []byte) bool {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}
