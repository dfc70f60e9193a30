package server

import "net/http"

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// MCP endpoint (JSON-RPC over HTTP)
	mux.Handle("/mcp", s.app.MCPHandler)

	// Operational routes
	mux.Handle("/health", s.app.HealthHandler)
	mux.Handle("/api/health", s.app.HealthHandler)
	mux.Handle("/api/version", s.app.VersionHandler)

	// Server info at "/"; InfoHandler answers 404 for anything else.
	mux.Handle("/", s.app.InfoHandler)

	return mux
}
