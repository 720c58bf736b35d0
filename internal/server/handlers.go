package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vodbridge/vodbridge/internal/domain"
	"github.com/vodbridge/vodbridge/internal/playlist"
	"github.com/vodbridge/vodbridge/internal/proxy"
	"github.com/vodbridge/vodbridge/internal/registry"
)

// root godoc
// @Summary Service banner
// @Tags Utility
// @Produce json
// @Success 200 {object} MessageResponse
// @Router / [get]
func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "vodbridge API is running."})
}

// health godoc
// @Summary Health check
// @Tags Utility
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /health [get]
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// searchMovies godoc
// @Summary Search all configured sources for a title
// @Description Fans the query out across every configured source, or the one named in source_name, and merges the results. Failed sources are reported alongside the hits.
// @Tags Search
// @Accept json
// @Produce json
// @Param request body SearchRequest true "Search parameters"
// @Success 200 {object} SearchResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/search [post]
func (s *Server) searchMovies(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	hits, failures, err := s.searcher.Search(c.Request.Context(), req.MovieTitle, req.SourceName)
	if err != nil {
		if errors.Is(err, registry.ErrSourceNotFound) {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	if hits == nil {
		hits = []domain.SearchHit{}
	}
	if failures == nil {
		failures = []domain.SourceFailure{}
	}
	c.JSON(200, SearchResponse{Results: hits, Failures: failures, Total: len(hits)})
}

// playbackInfo godoc
// @Summary Get the player page URL for a video
// @Description Resolves the video's title through a detail lookup and returns the player page URL. Episode data is loaded separately through /api/episodes.
// @Tags Playback
// @Accept json
// @Produce json
// @Param request body PlaybackRequest true "Playback parameters"
// @Success 200 {object} PlaybackResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/playback [post]
func (s *Server) playbackInfo(c *gin.Context) {
	var req PlaybackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	source, err := s.registry.FindByName(req.SourceName)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	// The title lookup is best-effort: a dead source still gets a working
	// player URL, just with a placeholder title.
	title := fallbackTitle
	records, err := s.catalog.Detail(c.Request.Context(), source, []string{req.VideoID})
	if err != nil {
		s.logger.Warn("Playback title lookup failed", "source", source.Name, "video_id", req.VideoID, "error", err)
	} else if rec, ok := records[req.VideoID]; ok && rec.Name != "" {
		title = rec.Name
	}

	base := s.resolver.Resolve(c.Request)
	c.JSON(200, PlaybackResponse{
		WebPlayerURL:    playerURL(base, title, source.Name, req.VideoID),
		OriginalM3U8URL: nil,
		Episodes:        nil,
	})
}

// episodes godoc
// @Summary List the playable episodes of a video
// @Description Resolves the catalog id (original_id when given, otherwise the first search hit for movie_title), fetches the detail record and parses its play list. Lookup failures are reported in-band with success=false.
// @Tags Playback
// @Produce json
// @Param video_id path string true "Playback id"
// @Param source query string true "Source display name"
// @Param movie_title query string true "Movie title"
// @Param original_id query string false "Catalog id from search results"
// @Success 200 {object} EpisodesResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/episodes/{video_id} [get]
func (s *Server) episodes(c *gin.Context) {
	videoID := c.Param("video_id")
	sourceName := c.Query("source")
	movieTitle := c.Query("movie_title")
	originalID := c.Query("original_id")

	source, err := s.registry.FindByName(sourceName)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	entries, err := s.fetchEpisodes(c, source, movieTitle, originalID)
	if err != nil {
		s.logger.Error("Episode lookup failed", "source", source.Name, "movie_title", movieTitle, "error", err)
		c.JSON(200, EpisodesResponse{Success: false, VideoID: videoID, Error: err.Error()})
		return
	}

	base := s.resolver.Resolve(c.Request)
	episodes := make([]EpisodeResponse, len(entries))
	for i, entry := range entries {
		episodes[i] = EpisodeResponse{
			Title:    entry.Title,
			URL:      entry.URL,
			ProxyURL: proxy.Encode(proxy.ModePath, base, entry.URL),
			Source:   source.Name,
		}
	}

	c.JSON(200, EpisodesResponse{
		Success:    true,
		VideoID:    videoID,
		MovieTitle: movieTitle,
		Source:     source.Name,
		Episodes:   episodes,
		TotalCount: len(episodes),
		Timestamp:  time.Now().Unix(),
	})
}

func (s *Server) fetchEpisodes(c *gin.Context, source domain.Source, movieTitle, originalID string) ([]domain.PlayEntry, error) {
	ctx := c.Request.Context()

	catalogID := originalID
	if catalogID == "" {
		hits, err := s.catalog.Search(ctx, source, movieTitle)
		if err != nil {
			return nil, err
		}
		if len(hits) == 0 {
			return nil, errors.New("no search results for " + movieTitle)
		}
		catalogID = hits[0].VideoID
	}

	records, err := s.catalog.Detail(ctx, source, []string{catalogID})
	if err != nil {
		return nil, err
	}
	rec, ok := records[catalogID]
	if !ok {
		return nil, errors.New("no detail record for id " + catalogID)
	}
	if rec.PlayURL == "" {
		return []domain.PlayEntry{}, nil
	}

	return playlist.ExtractEpisodes(rec.PlayURL), nil
}

// sourcesStatus godoc
// @Summary Probe all configured sources
// @Description Issues a short test search against every source concurrently and reports availability, latency and the overall success rate.
// @Tags Sources
// @Produce json
// @Success 200 {object} health.Report
// @Router /api/sources/status [get]
func (s *Server) sourcesStatus(c *gin.Context) {
	report := s.prober.ProbeAll(c.Request.Context())
	c.JSON(200, report)
}
