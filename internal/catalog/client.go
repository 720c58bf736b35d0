// Package catalog talks to maccms10-style video catalog APIs: a search
// endpoint (ac=list) and a batched detail endpoint (ac=detail).
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/vodbridge/vodbridge/internal/domain"
	"github.com/vodbridge/vodbridge/internal/httpx"
	"github.com/vodbridge/vodbridge/internal/metrics"
	"github.com/vodbridge/vodbridge/internal/retry"
)

// maxDetailIDs caps one detail batch; longer id lists blow past URL length
// limits on several CMS front ends.
const maxDetailIDs = 20

// Client performs search and detail requests against a single source at a
// time. It is safe for concurrent use.
type Client struct {
	http          *httpx.Client
	logger        *slog.Logger
	searchTimeout time.Duration
	detailTimeout time.Duration
	retryDelay    time.Duration
}

// New creates a catalog client with the given per-operation timeouts.
func New(httpClient *httpx.Client, searchTimeout, detailTimeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		http:          httpClient,
		logger:        logger,
		searchTimeout: searchTimeout,
		detailTimeout: detailTimeout,
		retryDelay:    retry.Default.BaseDelay,
	}
}

// Search queries one source for entries matching query. An empty or missing
// result list is an empty slice, not an error; transport and status failures
// surface after the retry budget is spent.
func (c *Client) Search(ctx context.Context, source domain.Source, query string) ([]domain.SearchHit, error) {
	reqURL := apiURL(source, url.Values{"ac": {"list"}, "wd": {query}})

	payload, err := retry.Do(ctx, c.policyFor(source), func(ctx context.Context) (listResponse, error) {
		var resp listResponse
		err := c.http.GetJSON(ctx, reqURL, httpx.Options{Timeout: c.searchTimeout, VerifyTLS: source.VerifyTLS}, &resp)
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("search %q on %s: %w", query, source.Name, err)
	}

	if len(payload.List) == 0 {
		c.logger.Warn("Source returned no results", "source", source.Name, "query", query)
		return []domain.SearchHit{}, nil
	}

	hits := make([]domain.SearchHit, 0, len(payload.List))
	for _, item := range payload.List {
		id := string(item.VodID)
		if id == "" {
			continue
		}
		hits = append(hits, domain.SearchHit{
			SourceKey:   source.Key,
			SourceName:  source.Name,
			VideoID:     id,
			Title:       item.VodName,
			LastUpdated: item.VodTime,
			Category:    item.TypeName,
			Remarks:     item.VodRemarks,
		})
	}

	c.logger.Debug("Source search completed", "source", source.Name, "hits", len(hits))
	return hits, nil
}

// Detail fetches secondary metadata for up to maxDetailIDs identifiers in a
// single batched call. Ids the origin did not answer for are absent from the
// returned map.
func (c *Client) Detail(ctx context.Context, source domain.Source, ids []string) (map[string]DetailRecord, error) {
	if len(ids) == 0 {
		return map[string]DetailRecord{}, nil
	}
	if len(ids) > maxDetailIDs {
		ids = ids[:maxDetailIDs]
	}

	reqURL := apiURL(source, url.Values{"ac": {"detail"}, "ids": {strings.Join(ids, ",")}})

	payload, err := retry.Do(ctx, c.policyFor(source), func(ctx context.Context) (detailResponse, error) {
		var resp detailResponse
		err := c.http.GetJSON(ctx, reqURL, httpx.Options{Timeout: c.detailTimeout, VerifyTLS: source.VerifyTLS}, &resp)
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("detail lookup on %s: %w", source.Name, err)
	}

	records := make(map[string]DetailRecord, len(payload.List))
	for _, item := range payload.List {
		id := string(item.VodID)
		if id == "" {
			continue
		}
		records[id] = DetailRecord{
			Name:     item.VodName,
			Poster:   item.VodPic,
			Area:     item.VodArea,
			Language: item.VodLang,
			Year:     string(item.VodYear),
			Actor:    item.VodActor,
			Director: item.VodDirector,
			Synopsis: stripHTML(item.VodContent),
			Remarks:  item.VodRemarks,
			PlayURL:  item.VodPlayURL,
		}
	}

	return records, nil
}

func (c *Client) policyFor(source domain.Source) retry.Policy {
	p := retry.Default
	p.BaseDelay = c.retryDelay
	p.Retryable = httpx.Retryable
	p.OnRetry = func(attempt int, err error) {
		metrics.UpstreamRetries.WithLabelValues(source.Key).Inc()
		c.logger.Warn("Retrying source request", "source", source.Name, "attempt", attempt+1, "error", err)
	}
	return p
}

func apiURL(source domain.Source, params url.Values) string {
	return fmt.Sprintf("%s?%s", source.API, params.Encode())
}

// stripHTML reduces an HTML fragment to its text content; vod_content is
// routinely full of markup.
func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}
