package handlers

import (
	"net/http"

	"github.com/bobmcallan/confluence-mcp/internal/common"
	"github.com/bobmcallan/confluence-mcp/internal/config"
)

// VersionHandler reports build metadata.
type VersionHandler struct {
	logger *common.Logger
}

func NewVersionHandler(logger *common.Logger) *VersionHandler {
	return &VersionHandler{logger: logger}
}

// ServeHTTP handles GET /api/version.
func (h *VersionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, config.CurrentVersion())
}
