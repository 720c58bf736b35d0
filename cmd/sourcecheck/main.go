// Command sourcecheck probes every configured catalog source and prints a
// status table. It exits non-zero when any source is down, so it doubles as
// a deploy-time smoke check.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	ansi "github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/ratelimit"

	"github.com/vodbridge/vodbridge/config"
	"github.com/vodbridge/vodbridge/internal/health"
	"github.com/vodbridge/vodbridge/internal/httpx"
	"github.com/vodbridge/vodbridge/internal/registry"
)

func main() {
	configPath := flag.String("config", "./config/config.yaml", "Path to the configuration file")
	timeout := flag.Duration("timeout", 0, "Per-source probe timeout (overrides config)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	reg, err := registry.New(cfg.Sources)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build source registry: %v\n", err)
		os.Exit(1)
	}

	probeTimeout := cfg.Timeouts.Probe()
	if *timeout > 0 {
		probeTimeout = *timeout
	}

	prober := health.NewProber(reg, httpx.New(ratelimit.NewUnlimited()), probeTimeout, logger)
	sources := reg.List()

	bar := progressbar.NewOptions(
		len(sources),
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Probing sources...[reset]"),
	)

	ctx := context.Background()
	results := make([]health.Status, len(sources))
	for i, src := range sources {
		results[i] = prober.Probe(ctx, src)
		bar.Add(1)
	}
	fmt.Println()

	working := 0
	for _, r := range results {
		marker := "✗"
		if r.Up() {
			marker = "✓"
			working++
		}
		fmt.Printf("%s %-24s %-36s %s\n", marker, r.Name, r.Status, r.Latency)
	}

	fmt.Printf("\n%d/%d sources working\n", working, len(sources))
	if working < len(sources) {
		os.Exit(1)
	}
}
