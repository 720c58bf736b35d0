// Package baseurl resolves the public base URL stamped into proxied manifest
// links: environment override, then validated configuration, then the
// inbound request's host, then a hard default.
package baseurl

import (
	"net/http"
	"os"
	"strings"
)

// EnvVar overrides every other base-URL signal when set.
const EnvVar = "VODBRIDGE_BASE_URL"

// DefaultBaseURL is the last-resort base; it must never leak into links
// served to an external player, which is what the exclusion list guards.
const DefaultBaseURL = "http://localhost:8080"

// Resolver picks the base URL for one request. The zero value resolves the
// env var, then the request host, then DefaultBaseURL.
type Resolver struct {
	// Configured is the base URL from configuration; used only when it is an
	// absolute http(s) URL containing no exclusion substring.
	Configured string

	// Exclusions marks hosts as internal-only. A candidate containing any of
	// these substrings is skipped.
	Exclusions []string
}

// Resolve returns the base URL for the given inbound request, without a
// trailing slash. req may be nil when no request context exists (links built
// from background work).
func (r *Resolver) Resolve(req *http.Request) string {
	if env := os.Getenv(EnvVar); env != "" {
		return strings.TrimRight(env, "/")
	}

	if r.validConfigured() {
		return strings.TrimRight(r.Configured, "/")
	}

	if req != nil {
		if host := r.requestHost(req); host != "" {
			scheme := "http"
			if req.Header.Get("X-Forwarded-Proto") == "https" || req.TLS != nil {
				scheme = "https"
			}
			return scheme + "://" + host
		}
	}

	return DefaultBaseURL
}

func (r *Resolver) validConfigured() bool {
	if !strings.HasPrefix(r.Configured, "http") {
		return false
	}
	if strings.TrimRight(r.Configured, "/") == DefaultBaseURL {
		return false
	}
	return !r.excluded(r.Configured)
}

// requestHost extracts the externally visible host, preferring proxy-set
// headers over the direct Host line.
func (r *Resolver) requestHost(req *http.Request) string {
	for _, host := range []string{
		req.Header.Get("X-Forwarded-Host"),
		req.Header.Get("X-Original-Host"),
		req.Host,
	} {
		if host != "" && !r.excluded(host) {
			return host
		}
	}
	return ""
}

func (r *Resolver) excluded(candidate string) bool {
	for _, ex := range r.Exclusions {
		if ex != "" && strings.Contains(candidate, ex) {
			return true
		}
	}
	return false
}
