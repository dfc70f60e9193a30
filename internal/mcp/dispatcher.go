package mcp

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/bobmcallan/confluence-mcp/internal/common"
	"github.com/bobmcallan/confluence-mcp/internal/confluence"
	"github.com/bobmcallan/confluence-mcp/internal/profile"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/xeipuuv/gojsonschema"
)

// DefaultTimeout bounds every outbound Confluence call.
const DefaultTimeout = 30 * time.Second

// Dispatcher routes tool invocations to Confluence. It is safe for
// concurrent use; nothing it holds is mutated after construction.
type Dispatcher struct {
	httpClient *http.Client
	tools      []mcp.Tool
	schemas    map[string]*gojsonschema.Schema
	logger     *common.Logger
}

// NewDispatcher builds a dispatcher whose outbound calls share one HTTP
// client bounded by timeout. A non-positive timeout selects DefaultTimeout.
func NewDispatcher(timeout time.Duration, logger *common.Logger) (*Dispatcher, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewDispatcherWithClient(&http.Client{Timeout: timeout}, logger)
}

// NewDispatcherWithClient builds a dispatcher around an existing client.
func NewDispatcherWithClient(hc *http.Client, logger *common.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	tools := Tools()
	schemas, err := compileSchemas(tools)
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		httpClient: hc,
		tools:      tools,
		schemas:    schemas,
		logger:     logger,
	}, nil
}

// Tools returns the tool listing served by this dispatcher.
func (d *Dispatcher) Tools() []mcp.Tool {
	out := make([]mcp.Tool, len(d.tools))
	copy(out, d.tools)
	return out
}

// Dispatch executes one invocation against the profile's origin with
// exactly one outbound call. It never retries.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation, p profile.ConnectionProfile) Result {
	op, ok := confluence.Lookup(inv.Tool)
	if !ok {
		return d.fail(inv, newFailure(KindUnknownMethod, "unknown tool: %q is not a registered Confluence operation", inv.Tool))
	}

	args := confluence.Arguments(inv.Arguments)
	if args == nil {
		args = confluence.Arguments{}
	}
	if f := d.validate(inv.Tool, args); f != nil {
		return d.fail(inv, f)
	}

	if p.IsZero() {
		return d.fail(inv, newFailure(KindConfigError, "configuration error: no Confluence connection is configured"))
	}

	req, err := op.BuildRequest(args)
	if err != nil {
		return d.fail(inv, classify(err))
	}

	client := confluence.NewClient(
		p.APIOrigin(),
		confluence.BasicAuth{Username: p.Username(), Token: p.Credential()},
		confluence.WithHTTPClient(d.httpClient),
		confluence.WithLogger(d.logger),
	)

	start := time.Now()
	body, err := client.Execute(ctx, req)
	if err != nil {
		return d.fail(inv, classify(err))
	}

	d.logger.Info().
		Str("tool", inv.Tool).
		Str("origin", p.APIOrigin()).
		Int("bytes", len(body)).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("tool call completed")
	return success(textResult(body))
}

// validate checks arguments against the tool's input schema.
func (d *Dispatcher) validate(tool string, args confluence.Arguments) *Failure {
	schema, ok := d.schemas[tool]
	if !ok {
		return newFailure(KindInternalError, "internal error: no input schema for %s", tool)
	}
	res, err := schema.Validate(gojsonschema.NewGoLoader(map[string]any(args)))
	if err != nil {
		return newFailure(KindInvalidParams, "invalid arguments: %v", err)
	}
	if res.Valid() {
		return nil
	}

	issues := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		issues = append(issues, e.String())
	}
	sort.Strings(issues)
	return newFailure(KindInvalidParams, "invalid arguments: %s: %s", tool, strings.Join(issues, "; "))
}

func (d *Dispatcher) fail(inv Invocation, f *Failure) Result {
	d.logger.Warn().
		Str("tool", inv.Tool).
		Str("kind", string(f.Kind)).
		Int("code", f.Code).
		Str("error", f.Message).
		Msg("tool call failed")
	return failure(f)
}
