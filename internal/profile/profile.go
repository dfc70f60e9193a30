// Package profile resolves the Confluence connection used by a single
// inbound request. A profile comes either from the base64 configuration blob
// carried by the request or, when the request carries none, from the process
// defaults captured at startup.
package profile

import (
	"fmt"
	"strings"
)

// Environment variables backing the process defaults.
const (
	EnvURL      = "CONFLUENCE_URL"
	EnvUsername = "CONFLUENCE_USERNAME"
	EnvAPIToken = "CONFLUENCE_API_TOKEN"
)

// ConnectionProfile is the resolved, validated connection for one request.
// It is immutable; build it with Resolve or New.
type ConnectionProfile struct {
	apiOrigin  string
	username   string
	credential string
}

// New validates the fields and returns a profile. rawURL goes through
// NormalizeOrigin.
func New(rawURL, username, credential string) (ConnectionProfile, error) {
	origin, err := NormalizeOrigin(rawURL)
	if err != nil {
		return ConnectionProfile{}, err
	}
	if strings.TrimSpace(username) == "" {
		return ConnectionProfile{}, &ConfigError{Field: "username", Reason: "is required"}
	}
	if strings.TrimSpace(credential) == "" {
		return ConnectionProfile{}, &ConfigError{Field: "apiToken", Reason: "is required"}
	}
	return ConnectionProfile{apiOrigin: origin, username: username, credential: credential}, nil
}

// APIOrigin returns scheme://host[:port] with no path and no trailing slash.
func (p ConnectionProfile) APIOrigin() string { return p.apiOrigin }

// Username returns the Confluence account name.
func (p ConnectionProfile) Username() string { return p.username }

// Credential returns the API token. Never log it.
func (p ConnectionProfile) Credential() string { return p.credential }

// IsZero reports whether the profile was never resolved.
func (p ConnectionProfile) IsZero() bool {
	return p.apiOrigin == "" && p.username == "" && p.credential == ""
}

// String renders the profile with the credential redacted.
func (p ConnectionProfile) String() string {
	return fmt.Sprintf("origin=%s username=%s apiToken=%s", p.apiOrigin, p.username, Redact(p.credential))
}

// Redact masks a secret entirely. Only whether it is set is visible.
func Redact(secret string) string {
	if secret == "" {
		return "<empty>"
	}
	return "****"
}

// Defaults is the process-wide fallback configuration, captured once at
// startup and passed to Resolve explicitly.
type Defaults struct {
	URL      string
	Username string
	APIToken string
}

// Complete reports whether every default field is set.
func (d Defaults) Complete() bool {
	return strings.TrimSpace(d.URL) != "" && strings.TrimSpace(d.Username) != "" && strings.TrimSpace(d.APIToken) != ""
}

// Resolve produces the profile for one request. When present is true the
// blob is authoritative: a blob that fails to decode or lacks a key is a
// ConfigError and the defaults are not consulted. When present is false
// every field comes from env.
func Resolve(rawBlob string, present bool, env Defaults) (ConnectionProfile, error) {
	if present && rawBlob != "" {
		blob, err := DecodeBlob(rawBlob)
		if err != nil {
			return ConnectionProfile{}, err
		}
		return New(blob.ConfluenceURL, blob.Username, blob.APIToken)
	}

	switch {
	case strings.TrimSpace(env.URL) == "":
		return ConnectionProfile{}, &ConfigError{Field: EnvURL, Reason: "is not set and the request carried no config"}
	case strings.TrimSpace(env.Username) == "":
		return ConnectionProfile{}, &ConfigError{Field: EnvUsername, Reason: "is not set and the request carried no config"}
	case strings.TrimSpace(env.APIToken) == "":
		return ConnectionProfile{}, &ConfigError{Field: EnvAPIToken, Reason: "is not set and the request carried no config"}
	}
	return New(env.URL, env.Username, env.APIToken)
}
