package server

import "github.com/vodbridge/vodbridge/internal/domain"

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	MovieTitle string `json:"movie_title" binding:"required"`
	SourceName string `json:"source_name"`
}

// SearchResponse carries the merged hits and per-source failures.
type SearchResponse struct {
	Results  []domain.SearchHit     `json:"results"`
	Failures []domain.SourceFailure `json:"failures"`
	Total    int                    `json:"total"`
}

// PlaybackRequest is the body of POST /api/playback. VideoID is the catalog
// id from a search result, not the derived playback id.
type PlaybackRequest struct {
	SourceName string `json:"source_name" binding:"required"`
	VideoID    string `json:"video_id" binding:"required"`
}

// PlaybackResponse points the caller at the player page. Episode data is
// fetched separately through /api/episodes, so both trailing fields stay
// null here.
type PlaybackResponse struct {
	WebPlayerURL    string            `json:"web_player_url"`
	OriginalM3U8URL *string           `json:"original_m3u8_url"`
	Episodes        []EpisodeResponse `json:"episodes"`
}

// EpisodeResponse is one playable episode with its direct and proxied URLs.
type EpisodeResponse struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	ProxyURL string `json:"proxy_url"`
	Source   string `json:"source"`
}

// EpisodesResponse is the body of GET /api/episodes/:video_id. Lookup
// failures are reported in-band with Success false.
type EpisodesResponse struct {
	Success    bool              `json:"success"`
	VideoID    string            `json:"video_id"`
	MovieTitle string            `json:"movie_title,omitempty"`
	Source     string            `json:"source,omitempty"`
	Episodes   []EpisodeResponse `json:"episodes"`
	TotalCount int               `json:"total_count"`
	Timestamp  int64             `json:"timestamp"`
	Error      string            `json:"error,omitempty"`
}

// MessageResponse represents a generic message payload used for success responses.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents a generic error payload used for error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
