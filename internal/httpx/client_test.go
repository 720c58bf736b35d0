package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/ratelimit"
)

func newTestClient() *Client {
	return New(ratelimit.NewUnlimited())
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":1,"list":[{"vod_name":"测试影片"}]}`))
	}))
	defer server.Close()

	var payload struct {
		Code int `json:"code"`
		List []struct {
			VodName string `json:"vod_name"`
		} `json:"list"`
	}

	err := newTestClient().GetJSON(context.Background(), server.URL, Options{Timeout: time.Second, VerifyTLS: true}, &payload)
	require.NoError(t, err)
	assert.Equal(t, 1, payload.Code)
	require.Len(t, payload.List, 1)
	assert.Equal(t, "测试影片", payload.List[0].VodName)
}

func TestGetJSONStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	var v map[string]any
	err := newTestClient().GetJSON(context.Background(), server.URL, Options{Timeout: time.Second, VerifyTLS: true}, &v)

	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadGateway))
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
	assert.True(t, Retryable(err), "upstream status errors are retryable")
}

func TestGetJSONDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>definitely not json</html>"))
	}))
	defer server.Close()

	var v map[string]any
	err := newTestClient().GetJSON(context.Background(), server.URL, Options{Timeout: time.Second, VerifyTLS: true}, &v)

	require.Error(t, err)
	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
	assert.False(t, Retryable(err), "decode failures must not be retried")
}

func TestGetJSONTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	var v map[string]any
	err := newTestClient().GetJSON(context.Background(), server.URL, Options{Timeout: 20 * time.Millisecond, VerifyTLS: true}, &v)

	require.Error(t, err)
	assert.True(t, Retryable(err), "timeouts are retryable")
}

func TestGetJSONConnectFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	var v map[string]any
	err := newTestClient().GetJSON(context.Background(), addr, Options{Timeout: time.Second, VerifyTLS: true}, &v)

	require.Error(t, err)
	assert.True(t, Retryable(err), "connect failures are retryable")
}

func TestTLSPolicy(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := newTestClient()
	var v map[string]any

	// The test server uses a self-signed certificate, so the verifying
	// transport must refuse it and the insecure one must accept it.
	err := client.GetJSON(context.Background(), server.URL, Options{Timeout: time.Second, VerifyTLS: true}, &v)
	assert.Error(t, err)

	err = client.GetJSON(context.Background(), server.URL, Options{Timeout: time.Second, VerifyTLS: false}, &v)
	assert.NoError(t, err)
}

func TestGetStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("wd") == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"list":[]}`))
	}))
	defer server.Close()

	client := newTestClient()

	status, err := client.GetStatus(context.Background(), server.URL+"?wd=x", Options{Timeout: time.Second, VerifyTLS: true})
	require.NoError(t, err)
	assert.Equal(t, 200, status)

	status, err = client.GetStatus(context.Background(), server.URL, Options{Timeout: time.Second, VerifyTLS: true})
	require.NoError(t, err)
	assert.Equal(t, 404, status)
}

func TestBrowserHeaders(t *testing.T) {
	h := BrowserHeaders("https://cdn.example.com/path/video/index.m3u8")

	assert.Equal(t, UserAgent, h.Get("User-Agent"))
	assert.Equal(t, "*/*", h.Get("Accept"))
	assert.Equal(t, "zh-CN,zh;q=0.9,en;q=0.8", h.Get("Accept-Language"))
	assert.Equal(t, "keep-alive", h.Get("Connection"))
	assert.Equal(t, "https://cdn.example.com", h.Get("Referer"))
}

func TestBrowserHeadersBadTarget(t *testing.T) {
	h := BrowserHeaders("::not-a-url::")
	assert.Empty(t, h.Get("Referer"))
	assert.Equal(t, UserAgent, h.Get("User-Agent"))
}
