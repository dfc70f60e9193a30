package confluence

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// APIError is a non-2xx response from Confluence.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("confluence API error %d on %s %s", e.StatusCode, e.Method, e.Path)
	}
	return fmt.Sprintf("confluence API error %d on %s %s: %s", e.StatusCode, e.Method, e.Path, e.Message)
}

// ErrResponseTooLarge marks an upstream body longer than the client's cap.
var ErrResponseTooLarge = errors.New("response exceeds 50MB")

// TransportError is a failure to get any response: connection refused,
// DNS, TLS, timeout, or a body that could not be read.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("confluence request %s %s failed: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ArgumentError is a tool argument that cannot be mapped onto a request.
type ArgumentError struct {
	Param  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return e.Param + " " + e.Reason
}

// maxErrorMessage bounds the upstream text carried in an APIError message.
const maxErrorMessage = 500

// upstreamMessage extracts the human-readable reason from a Confluence
// error body. Confluence uses several shapes depending on endpoint.
func upstreamMessage(body []byte) string {
	var resp struct {
		Message string `json:"message"`
		Data    struct {
			Errors []struct {
				Message struct {
					Translation string `json:"translation"`
				} `json:"message"`
			} `json:"errors"`
		} `json:"data"`
		ErrorMessages []string `json:"errorMessages"`
	}
	if json.Unmarshal(body, &resp) == nil {
		switch {
		case resp.Message != "":
			return truncate(resp.Message)
		case len(resp.Data.Errors) > 0 && resp.Data.Errors[0].Message.Translation != "":
			return truncate(resp.Data.Errors[0].Message.Translation)
		case len(resp.ErrorMessages) > 0:
			return truncate(strings.Join(resp.ErrorMessages, ", "))
		}
		return ""
	}
	s := strings.TrimSpace(string(body))
	if strings.HasPrefix(s, "<") {
		// HTML error pages from proxies carry nothing useful.
		return ""
	}
	return truncate(s)
}

func truncate(s string) string {
	if len(s) <= maxErrorMessage {
		return s
	}
	cut := maxErrorMessage
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
