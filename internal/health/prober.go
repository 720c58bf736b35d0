// Package health probes configured catalog sources for availability.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/vodbridge/vodbridge/internal/domain"
	"github.com/vodbridge/vodbridge/internal/httpx"
	"github.com/vodbridge/vodbridge/internal/registry"
)

// probeQuery is a harmless search issued to verify a source answers at all.
const probeQuery = "测试"

// maxErrorChars bounds how much of an error message lands in the report.
const maxErrorChars = 50

// StatusOK marks a source that answered a probe with HTTP 200.
const StatusOK = "ok"

// Status is the outcome of probing a single source.
type Status struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Latency string `json:"response_time"`
	URL     string `json:"url"`
}

// Up reports whether the probe succeeded.
func (s Status) Up() bool {
	return s.Status == StatusOK
}

// Report aggregates the probe results for all sources, in registry order.
type Report struct {
	TotalSources   int      `json:"total_sources"`
	WorkingSources int      `json:"working_sources"`
	SuccessRate    string   `json:"success_rate"`
	Results        []Status `json:"results"`
}

// Prober checks every registered source with a short search request.
type Prober struct {
	registry *registry.Registry
	http     *httpx.Client
	timeout  time.Duration
	logger   *slog.Logger
}

func NewProber(reg *registry.Registry, httpClient *httpx.Client, timeout time.Duration, logger *slog.Logger) *Prober {
	return &Prober{
		registry: reg,
		http:     httpClient,
		timeout:  timeout,
		logger:   logger,
	}
}

// ProbeAll checks every source concurrently and returns a report in registry
// order.
func (p *Prober) ProbeAll(ctx context.Context) Report {
	sources := p.registry.List()
	results := make([]Status, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src domain.Source) {
			defer wg.Done()
			results[i] = p.Probe(ctx, src)
		}(i, src)
	}
	wg.Wait()

	working := 0
	for _, r := range results {
		if r.Up() {
			working++
		}
	}

	report := Report{
		TotalSources:   len(sources),
		WorkingSources: working,
		SuccessRate:    successRate(working, len(sources)),
		Results:        results,
	}
	p.logger.Info("Source probe completed", "total", report.TotalSources, "working", report.WorkingSources)
	return report
}

// Probe checks a single source and classifies the outcome.
func (p *Prober) Probe(ctx context.Context, src domain.Source) Status {
	status := Status{Key: src.Key, Name: src.Name, URL: src.API}

	probeURL := fmt.Sprintf("%s?%s", src.API, url.Values{"ac": {"list"}, "wd": {probeQuery}}.Encode())

	start := time.Now()
	code, err := p.http.GetStatus(ctx, probeURL, httpx.Options{Timeout: p.timeout, VerifyTLS: src.VerifyTLS})
	elapsed := time.Since(start)

	switch {
	case err != nil && isTimeout(err):
		status.Status = "timeout"
		status.Latency = fmt.Sprintf(">%.1fs", p.timeout.Seconds())
	case err != nil:
		status.Status = "error: " + truncate(err.Error(), maxErrorChars)
		status.Latency = "n/a"
	case code != 200:
		status.Status = fmt.Sprintf("HTTP %d", code)
		status.Latency = formatLatency(elapsed)
	default:
		status.Status = StatusOK
		status.Latency = formatLatency(elapsed)
	}

	if !status.Up() {
		p.logger.Warn("Source probe failed", "source", src.Name, "status", status.Status)
	}
	return status
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

func formatLatency(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}

func successRate(working, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(working)/float64(total)*100)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
