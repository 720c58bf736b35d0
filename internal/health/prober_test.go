package health

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/ratelimit"

	"github.com/vodbridge/vodbridge/config"
	"github.com/vodbridge/vodbridge/internal/httpx"
	"github.com/vodbridge/vodbridge/internal/registry"
)

func newProber(t *testing.T, timeout time.Duration, sources ...config.SourceConfig) *Prober {
	t.Helper()
	reg, err := registry.New(sources)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProber(reg, httpx.New(ratelimit.NewUnlimited()), timeout, logger)
}

func TestProbeAll(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "list", r.URL.Query().Get("ac"))
		w.Write([]byte(`{"list":[]}`))
	}))
	defer healthy.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()

	p := newProber(t, time.Second,
		config.SourceConfig{Key: "good", Name: "好源", API: healthy.URL},
		config.SourceConfig{Key: "bad", Name: "坏源", API: broken.URL},
	)

	report := p.ProbeAll(context.Background())

	assert.Equal(t, 2, report.TotalSources)
	assert.Equal(t, 1, report.WorkingSources)
	assert.Equal(t, "50.0%", report.SuccessRate)

	require.Len(t, report.Results, 2)
	assert.Equal(t, "good", report.Results[0].Key, "report keeps registry order")
	assert.True(t, report.Results[0].Up())
	assert.Equal(t, "bad", report.Results[1].Key)
	assert.Equal(t, "HTTP 502", report.Results[1].Status)
}

func TestProbeTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer slow.Close()

	p := newProber(t, 20*time.Millisecond, config.SourceConfig{Key: "slow", Name: "慢源", API: slow.URL})

	report := p.ProbeAll(context.Background())

	require.Len(t, report.Results, 1)
	assert.Equal(t, "timeout", report.Results[0].Status)
	assert.Equal(t, 0, report.WorkingSources)
	assert.Equal(t, "0.0%", report.SuccessRate)
}

func TestProbeConnectFailure(t *testing.T) {
	// A server that is already closed refuses connections.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	p := newProber(t, time.Second, config.SourceConfig{Key: "dead", Name: "死源", API: deadURL})

	report := p.ProbeAll(context.Background())

	require.Len(t, report.Results, 1)
	assert.False(t, report.Results[0].Up())
	assert.Contains(t, report.Results[0].Status, "error")
	assert.LessOrEqual(t, len(report.Results[0].Status), len("error: ")+maxErrorChars+3, "error text is truncated")
}
