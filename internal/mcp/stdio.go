package mcp

import (
	"context"

	"github.com/bobmcallan/confluence-mcp/internal/profile"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewStdioServer serves the same registry over mcp-go for desktop clients
// that launch the binary directly. A stdio process has a single
// connection, resolved once at startup; when that resolution failed,
// profileErr is reported by every tool call.
func NewStdioServer(d *Dispatcher, info ServerInfo, p profile.ConnectionProfile, profileErr error) *server.MCPServer {
	s := server.NewMCPServer(
		info.Name,
		info.Version,
		server.WithToolCapabilities(true),
	)
	for _, tool := range d.tools {
		s.AddTool(tool, stdioToolHandler(d, p, profileErr))
	}
	return s
}

// stdioToolHandler adapts Dispatch to mcp-go. Failures become isError
// results carrying the same classified message the HTTP envelope uses.
func stdioToolHandler(d *Dispatcher, p profile.ConnectionProfile, profileErr error) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if profileErr != nil {
			return errorResult(classify(profileErr).Message), nil
		}
		res := d.Dispatch(ctx, Invocation{Tool: r.Params.Name, Arguments: r.GetArguments()}, p)
		if f := res.Failure(); f != nil {
			return errorResult(f.Message), nil
		}
		return res.Payload(), nil
	}
}
