package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/bobmcallan/confluence-mcp/internal/confluence"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/xeipuuv/gojsonschema"
)

// BuildMCPTool converts an operation descriptor into an mcp.Tool with the
// matching input schema and behaviour hints.
func BuildMCPTool(d confluence.Descriptor) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(d.Description)}
	for _, p := range d.Params {
		opts = append(opts, buildParamOption(p))
	}
	if d.ReadOnly {
		opts = append(opts, mcp.WithReadOnlyHintAnnotation(true))
	}
	if d.Destructive {
		opts = append(opts, mcp.WithDestructiveHintAnnotation(true))
	}
	return mcp.NewTool(d.Name, opts...)
}

// buildParamOption maps a Param to the appropriate mcp-go tool option.
func buildParamOption(p confluence.Param) mcp.ToolOption {
	var opts []mcp.PropertyOption
	if p.Description != "" {
		opts = append(opts, mcp.Description(p.Description))
	}
	if p.Required {
		opts = append(opts, mcp.Required())
	}

	switch p.Type {
	case confluence.TypeNumber:
		if p.Minimum != nil {
			opts = append(opts, mcp.Min(*p.Minimum))
		}
		if p.Maximum != nil {
			opts = append(opts, mcp.Max(*p.Maximum))
		}
		if def, ok := p.Default.(float64); ok {
			opts = append(opts, mcp.DefaultNumber(def))
		}
		return mcp.WithNumber(p.Name, opts...)
	default:
		if len(p.Enum) > 0 {
			opts = append(opts, mcp.Enum(p.Enum...))
		}
		if def, ok := p.Default.(string); ok {
			opts = append(opts, mcp.DefaultString(def))
		}
		return mcp.WithString(p.Name, opts...)
	}
}

// Tools returns the static tool listing, one entry per registered
// operation, in registry order.
func Tools() []mcp.Tool {
	tools := make([]mcp.Tool, 0, len(confluence.Operations))
	for _, op := range confluence.Operations {
		tools = append(tools, BuildMCPTool(op.Descriptor()))
	}
	return tools
}

// compileSchemas builds a validator for every tool's input schema.
func compileSchemas(tools []mcp.Tool) (map[string]*gojsonschema.Schema, error) {
	schemas := make(map[string]*gojsonschema.Schema, len(tools))
	for _, tool := range tools {
		raw, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal input schema for %s: %w", tool.Name, err)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to compile input schema for %s: %w", tool.Name, err)
		}
		schemas[tool.Name] = schema
	}
	return schemas, nil
}
