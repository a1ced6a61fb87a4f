package fetch

import (
	"fmt"
	"net/url"
	"strings"
)

// SanitizeURL strips the decoration chat clients wrap around pasted links:
// leading @ mentions, angle brackets, quotes, and stray whitespace.
func SanitizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	for strings.HasPrefix(trimmed, "@") {
		trimmed = trimmed[1:]
	}
	return strings.Trim(trimmed, " <>\"'\t\r\n")
}

// CheckQueryURL validates a caller-supplied image URL. Only https is accepted
// unless the config allows insecure URLs, in which case plain http passes too.
func (c *Client) CheckQueryURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "https":
	case "http":
		if !c.allowHTTP {
			return fmt.Errorf("plain http url %q refused; enable fetch.allow_insecure_urls to permit it", raw)
		}
	default:
		return fmt.Errorf("unsupported url scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}
