// Package enrich attaches detail metadata to search hits. Enrichment is
// best-effort: a failed detail lookup never blocks a search from returning
// its base results.
package enrich

import (
	"context"
	"log/slog"

	"github.com/vodbridge/vodbridge/internal/catalog"
	"github.com/vodbridge/vodbridge/internal/domain"
)

// Detailer performs batched detail lookups against one source.
type Detailer interface {
	Detail(ctx context.Context, source domain.Source, ids []string) (map[string]catalog.DetailRecord, error)
}

// Enricher decorates search hits with poster, cast and synopsis fields.
type Enricher struct {
	detailer Detailer
	logger   *slog.Logger
}

func New(detailer Detailer, logger *slog.Logger) *Enricher {
	return &Enricher{detailer: detailer, logger: logger}
}

// Enrich issues one batched detail call for the hits of a single source and
// attaches matched records in place. Hits without a matching record keep
// their zero enrichment fields; all errors are swallowed here.
func (e *Enricher) Enrich(ctx context.Context, source domain.Source, hits []domain.SearchHit) {
	if len(hits) == 0 {
		return
	}

	ids := make([]string, len(hits))
	for i, hit := range hits {
		ids[i] = hit.VideoID
	}

	records, err := e.detailer.Detail(ctx, source, ids)
	if err != nil {
		e.logger.Debug("Detail enrichment skipped", "source", source.Name, "error", err)
		return
	}

	for i := range hits {
		rec, ok := records[hits[i].VideoID]
		if !ok {
			continue
		}
		hits[i].PosterURL = rec.Poster
		hits[i].Area = rec.Area
		hits[i].Language = rec.Language
		hits[i].Year = rec.Year
		hits[i].Actor = rec.Actor
		hits[i].Director = rec.Director
		hits[i].Synopsis = rec.Synopsis
		if rec.Remarks != "" {
			hits[i].Remarks = rec.Remarks
		}
	}
}
