package mcp

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/bobmcallan/confluence-mcp/internal/common"
	"github.com/bobmcallan/confluence-mcp/internal/profile"
	"github.com/mark3labs/mcp-go/mcp"
)

// ConfigParam is the query parameter carrying the base64 connection blob.
const ConfigParam = "config"

// maxRequestBody caps a JSON-RPC request body.
const maxRequestBody = 1 << 20

// ServerInfo identifies the server in initialize responses.
type ServerInfo struct {
	Name    string
	Version string
}

// Handler is the HTTP handler for the /mcp endpoint. It speaks a
// pass-through JSON-RPC envelope: every well-formed request gets HTTP 200
// with either a result or an error object.
type Handler struct {
	dispatcher *Dispatcher
	defaults   profile.Defaults
	info       ServerInfo
	logger     *common.Logger
}

// NewHandler creates the /mcp handler. defaults is the process-wide
// fallback used when a tools/call carries no config parameter.
func NewHandler(d *Dispatcher, defaults profile.Defaults, info ServerInfo, logger *common.Logger) *Handler {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	logger.Info().
		Int("tools", len(d.tools)).
		Bool("defaults_complete", defaults.Complete()).
		Msg("MCP handler initialized")
	return &Handler{
		dispatcher: d,
		defaults:   defaults,
		info:       info,
		logger:     logger,
	}
}

// ServeHTTP routes by HTTP method, then by JSON-RPC method.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		// Listing needs no configuration, so registries can scan without
		// credentials.
		writeJSON(w, http.StatusOK, listing{Tools: h.dispatcher.Tools()})
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodDelete:
		// Stateless: there is no session to clean up.
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleaned"})
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(nil, newFailure(KindParseError, "parse error: failed to read request body")))
		return
	}
	if len(body) > maxRequestBody {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse(nil, newFailure(KindParseError, "parse error: request body exceeds %d bytes", maxRequestBody)))
		return
	}

	if len(bytes.TrimSpace(body)) == 0 {
		writeJSON(w, http.StatusOK, listing{Tools: h.dispatcher.Tools()})
		return
	}

	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Debug().Str("error", err.Error()).Msg("rejecting malformed JSON-RPC body")
		writeJSON(w, http.StatusBadRequest, errorResponse(nil, newFailure(KindParseError, "parse error: request body is not a JSON-RPC object")))
		return
	}

	if req.Method == "" {
		writeJSON(w, http.StatusOK, listing{Tools: h.dispatcher.Tools()})
		return
	}
	if req.isNotification() {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	h.logger.Debug().Str("method", req.Method).Msg("JSON-RPC request")

	switch mcp.MCPMethod(req.Method) {
	case mcp.MethodToolsList:
		writeJSON(w, http.StatusOK, resultResponse(req.ID, listing{Tools: h.dispatcher.Tools()}))
	case mcp.MethodToolsCall:
		writeJSON(w, http.StatusOK, h.toolsCall(r, req))
	case mcp.MethodInitialize:
		writeJSON(w, http.StatusOK, resultResponse(req.ID, h.initialize()))
	case mcp.MethodPing:
		writeJSON(w, http.StatusOK, resultResponse(req.ID, struct{}{}))
	default:
		f := newFailure(KindUnknownMethod, "unknown method: %q", req.Method)
		h.logger.Warn().Str("method", req.Method).Int("code", f.Code).Msg("unknown JSON-RPC method")
		writeJSON(w, http.StatusOK, errorResponse(req.ID, f))
	}
}

// toolsCall resolves the connection profile, then dispatches. A failed
// resolution never reaches the dispatcher.
func (h *Handler) toolsCall(r *http.Request, req rpcRequest) rpcResponse {
	var params callParams
	if len(req.Params) == 0 || json.Unmarshal(req.Params, &params) != nil {
		return errorResponse(req.ID, newFailure(KindInvalidParams, "invalid arguments: params must be an object with a tool name"))
	}
	if params.Name == "" {
		return errorResponse(req.ID, newFailure(KindInvalidParams, "invalid arguments: params.name is required"))
	}

	query := r.URL.Query()
	p, err := profile.Resolve(query.Get(ConfigParam), query.Has(ConfigParam), h.defaults)
	if err != nil {
		f := classify(err)
		h.logger.Warn().
			Str("tool", params.Name).
			Str("kind", string(f.Kind)).
			Str("error", f.Message).
			Msg("configuration resolution failed")
		return errorResponse(req.ID, f)
	}

	res := h.dispatcher.Dispatch(r.Context(), Invocation{
		ID:        req.ID,
		Tool:      params.Name,
		Arguments: params.Arguments,
	}, p)
	if f := res.Failure(); f != nil {
		return errorResponse(req.ID, f)
	}
	return resultResponse(req.ID, res.Payload())
}

type initializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      serverInfoJSON `json:"serverInfo"`
}

type serverInfoJSON struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (h *Handler) initialize() initializeResult {
	return initializeResult{
		ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
		Capabilities: map[string]any{
			"tools": map[string]any{"listChanged": false},
		},
		ServerInfo: serverInfoJSON{Name: h.info.Name, Version: h.info.Version},
	}
}
