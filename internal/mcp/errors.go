package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bobmcallan/confluence-mcp/internal/confluence"
	"github.com/bobmcallan/confluence-mcp/internal/profile"
	"github.com/mark3labs/mcp-go/mcp"
)

// ErrorKind names a failure class. The class is part of every error
// message so operators can tell configuration, routing and upstream
// failures apart.
type ErrorKind string

const (
	KindParseError    ErrorKind = "ParseError"
	KindUnknownMethod ErrorKind = "UnknownMethod"
	KindInvalidParams ErrorKind = "InvalidParams"
	KindInternalError ErrorKind = "InternalError"
	KindConfigError   ErrorKind = "ConfigError"
	KindAuthError     ErrorKind = "AuthError"
	KindNotFoundError ErrorKind = "NotFoundError"
	KindUpstreamError ErrorKind = "UpstreamError"
)

// Server-defined JSON-RPC codes, in the -32000..-32099 range.
const (
	CodeConfigError   = -32001
	CodeAuthError     = -32002
	CodeNotFoundError = -32003
	CodeUpstreamError = -32004
)

// Code returns the JSON-RPC error code for the kind.
func (k ErrorKind) Code() int {
	switch k {
	case KindParseError:
		return mcp.PARSE_ERROR
	case KindUnknownMethod:
		return mcp.METHOD_NOT_FOUND
	case KindInvalidParams:
		return mcp.INVALID_PARAMS
	case KindConfigError:
		return CodeConfigError
	case KindAuthError:
		return CodeAuthError
	case KindNotFoundError:
		return CodeNotFoundError
	case KindUpstreamError:
		return CodeUpstreamError
	default:
		return mcp.INTERNAL_ERROR
	}
}

// Failure is a classified dispatch error.
type Failure struct {
	Kind    ErrorKind
	Code    int
	Message string
}

func (f *Failure) Error() string { return f.Message }

func newFailure(kind ErrorKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Code: kind.Code(), Message: fmt.Sprintf(format, args...)}
}

// classify maps an error from configuration, request building or the
// upstream call onto a Failure.
func classify(err error) *Failure {
	var (
		f         *Failure
		cfgErr    *profile.ConfigError
		argErr    *confluence.ArgumentError
		apiErr    *confluence.APIError
		transport *confluence.TransportError
	)
	switch {
	case errors.As(err, &f):
		return f
	case errors.As(err, &cfgErr):
		return newFailure(KindConfigError, "configuration error: %s", cfgErr.Error())
	case errors.As(err, &argErr):
		return newFailure(KindInvalidParams, "invalid arguments: %s", argErr.Error())
	case errors.As(err, &apiErr):
		return classifyStatus(apiErr)
	case errors.As(err, &transport):
		if errors.Is(transport.Err, confluence.ErrResponseTooLarge) {
			return newFailure(KindUpstreamError, "upstream response exceeds 50MB: %s %s", transport.Method, transport.Path)
		}
		if errors.Is(transport.Err, context.DeadlineExceeded) || isTimeout(transport.Err) {
			return newFailure(KindUpstreamError, "upstream unavailable: %s %s timed out", transport.Method, transport.Path)
		}
		return newFailure(KindUpstreamError, "upstream unavailable: %v", transport.Err)
	default:
		return newFailure(KindInternalError, "internal error: %v", err)
	}
}

func classifyStatus(e *confluence.APIError) *Failure {
	detail := ""
	if e.Message != "" {
		detail = ": " + e.Message
	}
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return newFailure(KindAuthError, "upstream authentication failed (HTTP %d): Confluence rejected the credentials for %s %s%s", e.StatusCode, e.Method, e.Path, detail)
	case e.StatusCode == http.StatusNotFound:
		return newFailure(KindNotFoundError, "upstream resource not found (HTTP 404): %s %s%s", e.Method, e.Path, detail)
	case e.StatusCode == http.StatusBadRequest:
		return newFailure(KindInvalidParams, "invalid arguments: upstream rejected the request (HTTP 400)%s", detail)
	case e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500:
		return newFailure(KindUpstreamError, "upstream unavailable (HTTP %d)%s", e.StatusCode, detail)
	default:
		return newFailure(KindUpstreamError, "upstream request failed (HTTP %d)%s", e.StatusCode, detail)
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
