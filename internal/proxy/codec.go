package proxy

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrBadEncoding is returned when an inbound proxy path decodes under
	// neither addressing mode.
	ErrBadEncoding = errors.New("invalid encoded URL")

	// ErrInvalidTarget is returned when a decoded target is not an absolute
	// http(s) URL.
	ErrInvalidTarget = errors.New("target must be an absolute http(s) URL")
)

// Mode is the addressing scheme embedding a target URL in a proxied request.
type Mode int

const (
	// ModeQuery percent-encodes the target as the entire query string:
	// <base>/proxy/?<escaped-url>.
	ModeQuery Mode = iota

	// ModePath base64url-encodes the target as a path segment:
	// <base>/proxy/<b64>.
	ModePath
)

func (m Mode) String() string {
	if m == ModePath {
		return "path"
	}
	return "query"
}

// Encode builds the proxied URL for target under the given addressing mode.
// The caller guarantees target is absolute.
func Encode(mode Mode, baseURL, target string) string {
	if mode == ModePath {
		return fmt.Sprintf("%s/proxy/%s", baseURL, base64.URLEncoding.EncodeToString([]byte(target)))
	}
	return fmt.Sprintf("%s/proxy/?%s", baseURL, url.QueryEscape(target))
}

// decoder is one strategy for recovering a target URL from its encoded form.
// Strategies are tried in a fixed order; the first to yield an absolute
// http(s) URL wins.
type decoder struct {
	mode   Mode
	decode func(string) (string, error)
}

var decoders = []decoder{
	{ModeQuery, url.QueryUnescape},
	{ModePath, func(s string) (string, error) {
		raw, err := base64.URLEncoding.DecodeString(s)
		return string(raw), err
	}},
	{ModePath, func(s string) (string, error) {
		raw, err := base64.RawURLEncoding.DecodeString(s)
		return string(raw), err
	}},
}

// Decode recovers the target URL from its encoded inbound form and reports
// which addressing mode matched, so rewritten references can be re-encoded
// the same way. A payload no strategy can decode yields ErrBadEncoding; one
// that decodes to a non-absolute URL yields ErrInvalidTarget.
func Decode(encoded string) (string, Mode, error) {
	if encoded == "" {
		return "", ModeQuery, ErrBadEncoding
	}

	lastErr := ErrBadEncoding
	for _, d := range decoders {
		target, err := d.decode(encoded)
		if err != nil {
			continue
		}
		if IsAbsoluteHTTP(target) {
			return target, d.mode, nil
		}
		lastErr = ErrInvalidTarget
	}

	return "", ModeQuery, fmt.Errorf("%w: %q", lastErr, truncate(encoded, 80))
}

// IsAbsoluteHTTP reports whether raw is an absolute http or https URL.
func IsAbsoluteHTTP(raw string) bool {
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
