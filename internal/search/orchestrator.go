// Package search fans a query out across all configured catalog sources and
// merges the results.
package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vodbridge/vodbridge/internal/domain"
	"github.com/vodbridge/vodbridge/internal/metrics"
	"github.com/vodbridge/vodbridge/internal/registry"
)

// Searcher performs one catalog search against a single source.
type Searcher interface {
	Search(ctx context.Context, source domain.Source, query string) ([]domain.SearchHit, error)
}

// Enricher attaches detail metadata to one source's hits, best-effort.
type Enricher interface {
	Enrich(ctx context.Context, source domain.Source, hits []domain.SearchHit)
}

// Orchestrator runs concurrent per-source searches. One failing source never
// aborts the others; its failure is reported alongside the merged hits.
type Orchestrator struct {
	registry *registry.Registry
	searcher Searcher
	enricher Enricher
	logger   *slog.Logger
}

func New(reg *registry.Registry, searcher Searcher, enricher Enricher, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		registry: reg,
		searcher: searcher,
		enricher: enricher,
		logger:   logger,
	}
}

// Search queries the named source, or every registered source when sourceName
// is empty. Hits are merged in registry order regardless of which source
// answered first. An unknown sourceName fails fast with
// registry.ErrSourceNotFound before any network activity.
func (o *Orchestrator) Search(ctx context.Context, query, sourceName string) ([]domain.SearchHit, []domain.SourceFailure, error) {
	sources := o.registry.List()
	if sourceName != "" {
		src, err := o.registry.FindByName(sourceName)
		if err != nil {
			return nil, nil, err
		}
		sources = []domain.Source{src}
	}

	o.logger.Info("Starting search", "query", query, "sources", len(sources))
	start := time.Now()

	// Outcomes land in their source's slot so the merge below re-imposes
	// registry order no matter the completion order.
	outcomes := make([]domain.SourceOutcome, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src domain.Source) {
			defer wg.Done()
			outcomes[i] = o.searchOne(ctx, src, query)
		}(i, src)
	}
	wg.Wait()

	var hits []domain.SearchHit
	var failures []domain.SourceFailure
	for _, outcome := range outcomes {
		if outcome.Failed() {
			failures = append(failures, domain.SourceFailure{
				SourceName: outcome.SourceName,
				Reason:     outcome.Err.Error(),
			})
			continue
		}
		hits = append(hits, outcome.Hits...)
	}

	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	o.logger.Info("Search completed",
		"query", query,
		"hits", len(hits),
		"failed_sources", len(failures),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return hits, failures, nil
}

func (o *Orchestrator) searchOne(ctx context.Context, src domain.Source, query string) domain.SourceOutcome {
	outcome := domain.SourceOutcome{SourceKey: src.Key, SourceName: src.Name}

	hits, err := o.searcher.Search(ctx, src, query)
	if err != nil {
		metrics.Searches.WithLabelValues(src.Key, "error").Inc()
		o.logger.Error("Source search failed", "source", src.Name, "error", err)
		outcome.Err = err
		return outcome
	}

	if o.enricher != nil {
		o.enricher.Enrich(ctx, src, hits)
	}

	metrics.Searches.WithLabelValues(src.Key, "ok").Inc()
	outcome.Hits = hits
	return outcome
}
