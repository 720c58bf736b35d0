package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vodbridge/vodbridge/internal/httpx"
	"github.com/vodbridge/vodbridge/internal/metrics"
	"github.com/vodbridge/vodbridge/internal/proxy"
)

// accessDeniedMessage replaces a bare origin 403; the usual causes are geo
// restriction and referrer-based hotlink protection.
const accessDeniedMessage = "视频服务器拒绝访问 (403 Forbidden)。这可能是由于地理位置限制或防盗链保护。"

// proxyResource godoc
// @Summary Proxy a manifest or media segment
// @Description Fetches the encoded target from its origin. Manifests are rewritten so every reference resolves back through this proxy; other content streams through untouched. The target is either percent-encoded as the whole query string or base64url-encoded as the path remainder.
// @Tags Proxy
// @Param encoded path string true "Encoded target URL"
// @Success 200
// @Failure 400 {string} string
// @Router /proxy/{encoded} [get]
func (s *Server) proxyResource(c *gin.Context) {
	encoded := s.encodedTarget(c)
	if encoded == "" {
		c.String(400, "Missing target URL")
		return
	}

	target, mode, err := proxy.Decode(encoded)
	if err != nil {
		metrics.ProxyRequests.WithLabelValues(mode.String(), "bad_request").Inc()
		c.String(400, err.Error())
		return
	}

	base := s.resolver.Resolve(c.Request)
	result, err := s.proxy.Fetch(c.Request.Context(), target, mode, base)
	if err != nil {
		s.writeProxyError(c, mode, target, err)
		return
	}
	defer result.Body.Close()

	header := c.Writer.Header()
	for key, values := range result.Header {
		for _, v := range values {
			header.Add(key, v)
		}
	}
	header.Set("Content-Type", result.ContentType)
	header.Set("Cache-Control", "public, max-age=3600")

	c.Status(result.StatusCode)
	if _, err := io.Copy(c.Writer, result.Body); err != nil {
		// Headers are gone; all that is left is to log the broken stream.
		s.logger.Warn("Proxy stream interrupted", "target", target, "error", err)
	}

	outcome := "ok"
	if result.Rewritten {
		outcome = "rewritten"
	}
	metrics.ProxyRequests.WithLabelValues(mode.String(), outcome).Inc()
}

// encodedTarget extracts the encoded target from the request: the raw path
// remainder after /proxy/, or the raw query string when the path is empty.
// The escaped path is used so percent-encoded payloads arrive undecoded.
func (s *Server) encodedTarget(c *gin.Context) string {
	encoded := strings.TrimPrefix(c.Request.URL.EscapedPath(), "/proxy/")
	if encoded != "" {
		return encoded
	}

	// Query addressing: the entire query string is the encoded URL. A query
	// containing a raw '=' is parameter-shaped, not an encoded target
	// (url.QueryEscape never leaves '=' unescaped).
	query := c.Request.URL.RawQuery
	if query == "" || strings.Contains(query, "=") {
		return ""
	}
	return query
}

func (s *Server) writeProxyError(c *gin.Context, mode proxy.Mode, target string, err error) {
	if errors.Is(err, proxy.ErrInvalidTarget) || errors.Is(err, proxy.ErrBadEncoding) {
		metrics.ProxyRequests.WithLabelValues(mode.String(), "bad_request").Inc()
		c.String(400, err.Error())
		return
	}

	if code := httpx.StatusCode(err); code != 0 {
		metrics.ProxyRequests.WithLabelValues(mode.String(), "origin_error").Inc()
		s.logger.Warn("Origin refused proxied fetch", "target", target, "status", code)
		if code == http.StatusForbidden {
			c.String(code, accessDeniedMessage)
			return
		}
		c.String(code, "upstream error: %d %s", code, http.StatusText(code))
		return
	}

	metrics.ProxyRequests.WithLabelValues(mode.String(), "fetch_error").Inc()
	s.logger.Error("Proxy fetch failed", "target", target, "error", err)
	c.String(500, "proxy fetch failed: %v", err)
}
