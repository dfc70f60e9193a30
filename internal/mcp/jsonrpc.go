package mcp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// rpcRequest is the inbound envelope. Method may be absent, which marks a
// plain listing request.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// isNotification reports a request that expects no response.
func (r rpcRequest) isNotification() bool {
	return len(r.ID) == 0 && strings.HasPrefix(r.Method, "notifications/")
}

type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type rpcError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// rpcResponse carries exactly one of Result or Error. ID is echoed from the
// request; a nil ID marshals as null.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

func resultResponse(id json.RawMessage, result any) rpcResponse {
	return rpcResponse{JSONRPC: mcp.JSONRPC_VERSION, ID: echoID(id), Result: result}
}

func errorResponse(id json.RawMessage, f *Failure) rpcResponse {
	return rpcResponse{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      echoID(id),
		Error: &rpcError{
			Code:    f.Code,
			Message: f.Message,
			Data:    map[string]any{"kind": string(f.Kind)},
		},
	}
}

// echoID returns the request id unchanged, or nil (null) when absent.
func echoID(id json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(id)) == 0 {
		return nil
	}
	return id
}

// listing is the body of both the bare listing response and the
// tools/list result.
type listing struct {
	Tools []mcp.Tool `json:"tools"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
