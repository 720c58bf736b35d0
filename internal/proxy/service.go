// Package proxy fetches manifests and media segments on behalf of the
// player, rewriting manifest references so every segment resolves back
// through the proxy instead of the origin.
package proxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/vodbridge/vodbridge/internal/httpx"
)

// ManifestContentType is the canonical MIME type stamped on rewritten
// manifests.
const ManifestContentType = "application/vnd.apple.mpegurl"

// manifestTypeMarkers identify a playlist response by Content-Type; origins
// disagree on which historical mpegurl variant to send.
var manifestTypeMarkers = []string{
	"application/vnd.apple.mpegurl",
	"application/x-mpegurl",
	"audio/mpegurl",
}

// maxErrorDrainBytes bounds how much of an error body is read before closing.
const maxErrorDrainBytes = 64 << 10

// Result is a proxied origin response. Body streams straight from the origin
// unless Rewritten is set, in which case it holds the rewritten manifest.
type Result struct {
	StatusCode  int
	ContentType string
	Header      http.Header
	Body        io.ReadCloser
	Rewritten   bool
}

// Service performs proxied origin fetches.
type Service struct {
	client *http.Client
	logger *slog.Logger
}

// NewService creates a proxy service using the given origin HTTP client,
// typically built with httpx.NewStreamClient so the timeout covers the body.
func NewService(client *http.Client, logger *slog.Logger) *Service {
	return &Service{client: client, logger: logger}
}

// Fetch retrieves target from its origin. Manifest responses are rewritten
// so every relative reference resolves back through <baseURL>/proxy/ using
// the same addressing mode the inbound request used; anything else streams
// through untouched. The caller owns Result.Body.
func (s *Service) Fetch(ctx context.Context, target string, mode Mode, baseURL string) (*Result, error) {
	if !IsAbsoluteHTTP(target) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, truncate(target, 80))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, truncate(target, 80))
	}
	req.Header = httpx.BrowserHeaders(target)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorDrainBytes))
		resp.Body.Close()
		return nil, &httpx.StatusError{Code: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	result := &Result{
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Header:      sanitizeHeaders(resp.Header),
		Body:        resp.Body,
	}

	if !isManifest(contentType, target) {
		return result, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", target, err)
	}

	manifestURL, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, truncate(target, 80))
	}

	rewritten := Rewrite(string(body), manifestURL, mode, baseURL)
	s.logger.Debug("Rewrote manifest", "target", target, "mode", mode.String(), "bytes", len(rewritten))

	result.Body = io.NopCloser(bytes.NewReader([]byte(rewritten)))
	result.ContentType = ManifestContentType
	result.Rewritten = true
	return result, nil
}

// Rewrite transforms manifest text so every reference line points back
// through the proxy. Directive lines (leading '#'), already-absolute lines
// and blank lines pass through byte-identical; everything else is resolved
// against manifestURL and re-encoded under mode. Line count and order are
// preserved exactly.
func Rewrite(body string, manifestURL *url.URL, mode Mode, baseURL string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "#") || IsAbsoluteHTTP(line) {
			continue
		}

		ref, err := url.Parse(strings.TrimSpace(line))
		if err != nil {
			continue
		}
		absolute := manifestURL.ResolveReference(ref).String()
		lines[i] = Encode(mode, baseURL, absolute)
	}
	return strings.Join(lines, "\n")
}

func isManifest(contentType, target string) bool {
	ct := strings.ToLower(contentType)
	for _, marker := range manifestTypeMarkers {
		if strings.Contains(ct, marker) {
			return true
		}
	}
	if u, err := url.Parse(target); err == nil {
		return strings.HasSuffix(u.Path, ".m3u8")
	}
	return false
}

// sanitizeHeaders drops headers invalidated by rewriting or recompression;
// the proxy re-frames the body itself.
func sanitizeHeaders(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for key, values := range h {
		switch http.CanonicalHeaderKey(key) {
		case "Content-Encoding", "Content-Length", "Transfer-Encoding":
			continue
		}
		for _, v := range values {
			out.Add(key, v)
		}
	}
	return out
}
