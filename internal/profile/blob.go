package profile

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Blob is the decoded request configuration. The JSON key names are an
// external contract shared with MCP registries.
type Blob struct {
	ConfluenceURL string `json:"confluenceUrl"`
	Username      string `json:"username"`
	APIToken      string `json:"apiToken"`
}

// blobEncodings are tried in order. Standard padded base64 is the contract;
// the others accept what registries and shells actually send.
var blobEncodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// DecodeBlob decodes a base64 UTF-8 JSON object carrying confluenceUrl,
// username and apiToken. Every key is required.
func DecodeBlob(raw string) (Blob, error) {
	// A '+' sent unescaped in a query string arrives as a space.
	raw = strings.ReplaceAll(strings.TrimSpace(raw), " ", "+")
	if raw == "" {
		return Blob{}, &ConfigError{Field: "config", Reason: "is empty"}
	}

	var data []byte
	var decodeErr error
	for _, enc := range blobEncodings {
		data, decodeErr = enc.DecodeString(raw)
		if decodeErr == nil {
			break
		}
	}
	if decodeErr != nil {
		return Blob{}, &ConfigError{Field: "config", Reason: "is not valid base64", Err: decodeErr}
	}
	if !utf8.Valid(data) {
		return Blob{}, &ConfigError{Field: "config", Reason: "does not decode to UTF-8 text"}
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return Blob{}, &ConfigError{Field: "config", Reason: "does not decode to a JSON object"}
	}

	var blob Blob
	if err := json.Unmarshal(data, &blob); err != nil {
		return Blob{}, &ConfigError{Field: "config", Reason: "is not valid JSON", Err: err}
	}

	switch {
	case strings.TrimSpace(blob.ConfluenceURL) == "":
		return Blob{}, &ConfigError{Field: "confluenceUrl", Reason: "is missing from config"}
	case strings.TrimSpace(blob.Username) == "":
		return Blob{}, &ConfigError{Field: "username", Reason: "is missing from config"}
	case blob.APIToken == "":
		return Blob{}, &ConfigError{Field: "apiToken", Reason: "is missing from config"}
	}
	return blob, nil
}

// EncodeBlob is the inverse of DecodeBlob, using standard padded base64.
func EncodeBlob(b Blob) (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
