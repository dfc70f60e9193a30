package mcp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bobmcallan/confluence-mcp/internal/common"
	"github.com/bobmcallan/confluence-mcp/internal/profile"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
)

// --- Helpers ---

const testToken = "test-api-token-value"

func testDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(5*time.Second, common.NewSilentLogger())
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	return d
}

// fakeConfluence starts an upstream that answers every request with
// handler and counts the calls it receives.
func fakeConfluence(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// jsonReply returns a handler that writes status and body.
func jsonReply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

func testProfile(t *testing.T, origin string) profile.ConnectionProfile {
	t.Helper()
	p, err := profile.New(origin, "user@example.com", testToken)
	if err != nil {
		t.Fatalf("profile.New: %v", err)
	}
	return p
}

// configBlob encodes a connection blob for the ?config= parameter.
func configBlob(t *testing.T, origin string) string {
	t.Helper()
	s, err := profile.EncodeBlob(profile.Blob{ConfluenceURL: origin, Username: "user@example.com", APIToken: testToken})
	if err != nil {
		t.Fatalf("EncodeBlob: %v", err)
	}
	return s
}

func testHandler(t *testing.T, defaults profile.Defaults) *Handler {
	t.Helper()
	return NewHandler(testDispatcher(t), defaults, ServerInfo{Name: "confluence-mcp", Version: "test"}, common.NewSilentLogger())
}

type testRPCError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

type testRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *testRPCError   `json:"error"`
}

// postRPC posts body to /mcp with the given config blob (omitted when
// empty) and returns the status, raw body and decoded envelope.
func postRPC(t *testing.T, h http.Handler, config string, body string) (int, string, testRPCResponse) {
	t.Helper()
	target := "/mcp"
	if config != "" {
		target += "?" + ConfigParam + "=" + url.QueryEscape(config)
	}
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp testRPCResponse
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
		}
	}
	return rec.Code, rec.Body.String(), resp
}

func callBody(id string, name string, args map[string]any) string {
	params, _ := json.Marshal(map[string]any{"name": name, "arguments": args})
	return `{"jsonrpc":"2.0","id":` + id + `,"method":"tools/call","params":` + string(params) + `}`
}

// resultText extracts the first text content block of a tools/call result.
func resultText(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var res struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		t.Fatalf("result is not a CallToolResult: %v", err)
	}
	if len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	if res.Content[0].Type != "text" {
		t.Errorf("content type = %q", res.Content[0].Type)
	}
	return res.Content[0].Text
}

// extractText returns the text of the first content block.
func extractText(t *testing.T, res *mcpgo.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	tc, ok := res.Content[0].(mcpgo.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return tc.Text
}
