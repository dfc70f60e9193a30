package handlers

import (
	"net/http"

	"github.com/bobmcallan/confluence-mcp/internal/common"
)

// ServerInfo is the body served at the root path.
type ServerInfo struct {
	Name       string            `json:"name"`
	Version    string            `json:"version"`
	ToolsCount int               `json:"tools_count"`
	Endpoints  map[string]string `json:"endpoints"`
}

// InfoHandler describes the running server so a client can find the MCP
// endpoint without reading docs.
type InfoHandler struct {
	info   ServerInfo
	logger *common.Logger
}

// NewInfoHandler creates an info handler for a server exposing toolsCount tools.
func NewInfoHandler(name, version string, toolsCount int, logger *common.Logger) *InfoHandler {
	return &InfoHandler{
		info: ServerInfo{
			Name:       name,
			Version:    version,
			ToolsCount: toolsCount,
			Endpoints: map[string]string{
				"mcp":     "/mcp",
				"health":  "/health",
				"version": "/api/version",
			},
		},
		logger: logger,
	}
}

// ServeHTTP handles GET /. Every other path under the catch-all is a 404.
func (h *InfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		WriteError(w, http.StatusNotFound, "The requested endpoint does not exist")
		return
	}
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, h.info)
}
