package server

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/vodbridge/vodbridge/config"
	"github.com/vodbridge/vodbridge/internal/baseurl"
	"github.com/vodbridge/vodbridge/internal/catalog"
	"github.com/vodbridge/vodbridge/internal/domain"
	"github.com/vodbridge/vodbridge/internal/health"
	"github.com/vodbridge/vodbridge/internal/httpx"
	"github.com/vodbridge/vodbridge/internal/proxy"
	"github.com/vodbridge/vodbridge/internal/registry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSearchService struct {
	hits     []domain.SearchHit
	failures []domain.SourceFailure
	err      error
}

func (f *fakeSearchService) Search(context.Context, string, string) ([]domain.SearchHit, []domain.SourceFailure, error) {
	return f.hits, f.failures, f.err
}

type fakeCatalog struct {
	searchHits []domain.SearchHit
	searchErr  error
	records    map[string]catalog.DetailRecord
	detailErr  error
}

func (f *fakeCatalog) Search(context.Context, domain.Source, string) ([]domain.SearchHit, error) {
	return f.searchHits, f.searchErr
}

func (f *fakeCatalog) Detail(context.Context, domain.Source, []string) (map[string]catalog.DetailRecord, error) {
	return f.records, f.detailErr
}

type fakeProber struct {
	report health.Report
}

func (f *fakeProber) ProbeAll(context.Context) health.Report {
	return f.report
}

type serverFixture struct {
	searcher *fakeSearchService
	catalog  *fakeCatalog
	prober   *fakeProber
	server   *Server
}

func newTestFixture(t *testing.T) *serverFixture {
	t.Helper()

	cfg := &config.Config{
		Server:  config.ServerConfig{Port: "8080"},
		Sources: []config.SourceConfig{{Key: "moo", Name: "魔都资源", API: "https://moo.example/api.php/provide/vod/"}},
	}
	reg, err := registry.New(cfg.Sources)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &serverFixture{
		searcher: &fakeSearchService{},
		catalog:  &fakeCatalog{},
		prober:   &fakeProber{},
	}

	proxySvc := proxy.NewService(httpx.NewStreamClient(5*time.Second, true), logger)
	resolver := &baseurl.Resolver{Configured: "https://vod.example.com", Exclusions: []string{"localhost"}}

	f.server = New(cfg, reg, f.searcher, f.catalog, proxySvc, f.prober, resolver, logger)
	return f
}
