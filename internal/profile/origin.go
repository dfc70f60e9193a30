package profile

import (
	"net/url"
	"strings"
)

// wikiSegment is the UI path prefix of Confluence Cloud. It belongs to the
// REST paths, not to the origin.
const wikiSegment = "/wiki"

// NormalizeOrigin turns a user-supplied wiki URL into an API origin:
// trim, drop one trailing literal /wiki segment, drop trailing slashes,
// default the scheme to https, then require a bare scheme://host[:port].
// The result is a fixed point: NormalizeOrigin(NormalizeOrigin(x)) == NormalizeOrigin(x).
func NormalizeOrigin(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", &ConfigError{Field: "confluenceUrl", Reason: "is empty"}
	}

	s = stripWikiSegment(s)
	s = strings.TrimRight(s, "/")

	if !hasHTTPScheme(s) {
		if strings.Contains(s, "://") {
			return "", &ConfigError{Field: "confluenceUrl", Reason: "must use http or https, got " + quote(raw)}
		}
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", &ConfigError{Field: "confluenceUrl", Reason: "is not a valid URL: " + quote(raw), Err: err}
	}
	switch {
	case u.Host == "" || u.Hostname() == "" || strings.HasSuffix(u.Host, ":") || isBareScheme(u.Host):
		return "", &ConfigError{Field: "confluenceUrl", Reason: "has no host: " + quote(raw)}
	case u.User != nil:
		return "", &ConfigError{Field: "confluenceUrl", Reason: "must not embed credentials"}
	case u.Path != "" || u.RawQuery != "" || u.Fragment != "" || u.ForceQuery:
		return "", &ConfigError{Field: "confluenceUrl", Reason: "must be a site address such as https://example.atlassian.net, got " + quote(raw)}
	}

	return strings.ToLower(u.Scheme) + "://" + u.Host, nil
}

// stripWikiSegment removes one trailing /wiki path segment (optionally
// followed by slashes). The segment must follow a host, so a host that is
// itself named "wiki" or merely ends in those letters is left alone.
func stripWikiSegment(s string) string {
	trimmed := strings.TrimRight(s, "/")
	if len(trimmed) < len(wikiSegment) {
		return s
	}
	cut := len(trimmed) - len(wikiSegment)
	if !strings.EqualFold(trimmed[cut:], wikiSegment) {
		return s
	}

	head := trimmed[:cut]
	if i := strings.Index(head, "://"); i >= 0 {
		head = head[i+len("://"):]
	}
	if head == "" || strings.HasSuffix(head, "/") {
		return s
	}
	return trimmed[:cut]
}

func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func quote(s string) string {
	return `"` + s + `"`
}

// isBareScheme catches inputs like "https://" that collapse to a scheme
// once the trailing slashes are gone.
func isBareScheme(host string) bool {
	h := strings.ToLower(strings.TrimSuffix(host, ":"))
	return h == "http" || h == "https"
}
