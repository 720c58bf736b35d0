// Package server exposes the HTTP API: multi-source search, playback info,
// episode listings, source health and the streaming proxy.
package server

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/vodbridge/vodbridge/config"
	"github.com/vodbridge/vodbridge/internal/baseurl"
	"github.com/vodbridge/vodbridge/internal/catalog"
	"github.com/vodbridge/vodbridge/internal/domain"
	"github.com/vodbridge/vodbridge/internal/health"
	"github.com/vodbridge/vodbridge/internal/metrics"
	"github.com/vodbridge/vodbridge/internal/proxy"
	"github.com/vodbridge/vodbridge/internal/registry"
)

// SearchService runs a fan-out search across sources.
type SearchService interface {
	Search(ctx context.Context, query, sourceName string) ([]domain.SearchHit, []domain.SourceFailure, error)
}

// Catalog performs direct per-source catalog calls; playback and episode
// lookups go through it without the fan-out layer.
type Catalog interface {
	Search(ctx context.Context, source domain.Source, query string) ([]domain.SearchHit, error)
	Detail(ctx context.Context, source domain.Source, ids []string) (map[string]catalog.DetailRecord, error)
}

// ProxyFetcher retrieves and, for manifests, rewrites an origin resource.
type ProxyFetcher interface {
	Fetch(ctx context.Context, target string, mode proxy.Mode, baseURL string) (*proxy.Result, error)
}

// SourceProber checks all sources for availability.
type SourceProber interface {
	ProbeAll(ctx context.Context) health.Report
}

// Server handles HTTP requests for the vodbridge API.
type Server struct {
	cfg      *config.Config
	router   *gin.Engine
	logger   *slog.Logger
	registry *registry.Registry
	searcher SearchService
	catalog  Catalog
	proxy    ProxyFetcher
	prober   SourceProber
	resolver *baseurl.Resolver
}

// New creates the HTTP server and wires up its routes.
func New(
	cfg *config.Config,
	reg *registry.Registry,
	searcher SearchService,
	cat Catalog,
	proxyFetcher ProxyFetcher,
	prober SourceProber,
	resolver *baseurl.Resolver,
	logger *slog.Logger,
) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		searcher: searcher,
		catalog:  cat,
		proxy:    proxyFetcher,
		prober:   prober,
		resolver: resolver,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	s.setupRoutes(router)
	s.router = router
	return s
}

// setupRoutes configures middleware and the HTTP routes.
func (s *Server) setupRoutes(router *gin.Engine) {
	router.Use(requestIDMiddleware())
	router.Use(accessLogMiddleware(s.logger))
	router.Use(corsMiddleware())
	router.Use(metricsMiddleware())

	router.GET("/", s.root)
	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	{
		api.POST("/search", s.searchMovies)
		api.POST("/playback", s.playbackInfo)
		api.GET("/episodes/:video_id", s.episodes)
		api.GET("/sources/status", s.sourcesStatus)
	}

	router.GET("/proxy/*encoded", s.proxyResource)
}

// Router returns the underlying gin engine; cmd/server mounts it on an
// http.Server so shutdown can be coordinated.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start runs the HTTP server on the given port.
func (s *Server) Start(port string) error {
	return s.router.Run(":" + port)
}
