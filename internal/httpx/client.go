// Package httpx wraps outbound HTTP for the catalog, probe and proxy layers:
// per-call timeouts, per-source TLS policy, shared rate limiting, and an
// error taxonomy the retry policy can act on.
package httpx

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/ratelimit"
)

// UserAgent mirrors a desktop Chrome build; several source CDNs reject
// non-browser agents.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maxDrainBytes bounds how much of an unwanted body is read before closing.
const maxDrainBytes = 64 << 10

// Client issues outbound GETs. It keeps one verifying and one insecure
// transport so per-source TLS policy does not defeat connection pooling.
type Client struct {
	verifying *http.Client
	insecure  *http.Client
	limiter   ratelimit.Limiter
}

// Options select the timeout and TLS policy for a single call.
type Options struct {
	Timeout   time.Duration
	VerifyTLS bool
}

// New creates a client. All calls pass through limiter; use
// ratelimit.NewUnlimited() to disable throttling.
func New(limiter ratelimit.Limiter) *Client {
	return &Client{
		verifying: &http.Client{Transport: newTransport(true)},
		insecure:  &http.Client{Transport: newTransport(false)},
		limiter:   limiter,
	}
}

func newTransport(verifyTLS bool) *http.Transport {
	t := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	if !verifyTLS {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return t
}

// NewStreamClient returns a client suited to proxied media fetches: the
// timeout covers the full body read, not just the round trip.
func NewStreamClient(timeout time.Duration, verifyTLS bool) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: newTransport(verifyTLS),
	}
}

// GetJSON fetches rawURL and decodes the JSON response into v.
// Non-2xx responses yield a *StatusError, broken payloads a *DecodeError.
func (c *Client) GetJSON(ctx context.Context, rawURL string, opts Options, v any) error {
	resp, cancel, err := c.get(ctx, rawURL, opts)
	if err != nil {
		return err
	}
	defer cancel()
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
		return &StatusError{Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

// GetStatus fetches rawURL and returns only the response status code,
// discarding the body. Used by source health probes.
func (c *Client) GetStatus(ctx context.Context, rawURL string, opts Options) (int, error) {
	resp, cancel, err := c.get(ctx, rawURL, opts)
	if err != nil {
		return 0, err
	}
	defer cancel()
	defer resp.Body.Close()

	io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	return resp.StatusCode, nil
}

func (c *Client) get(ctx context.Context, rawURL string, opts Options) (*http.Response, context.CancelFunc, error) {
	if c.limiter != nil {
		c.limiter.Take()
	}

	cancel := context.CancelFunc(func() {})
	if opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	client := c.verifying
	if !opts.VerifyTLS {
		client = c.insecure
	}

	resp, err := client.Do(req)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return resp, cancel, nil
}

// BrowserHeaders returns the fixed browser-like header set sent on proxied
// fetches, with the Referer computed from the target's scheme and host.
func BrowserHeaders(target string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", UserAgent)
	h.Set("Accept", "*/*")
	h.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	h.Set("Connection", "keep-alive")
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		h.Set("Referer", u.Scheme+"://"+u.Host)
	}
	return h
}
