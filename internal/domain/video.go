package domain

// SearchHit represents a single catalog entry returned by a source search.
// The base fields come from the search response; the enrichment fields are
// attached afterwards from a batched detail lookup and stay empty when the
// source returned no matching detail record.
type SearchHit struct {
	SourceKey   string `json:"source_key"`
	SourceName  string `json:"source_name"`
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	LastUpdated string `json:"last_updated"`
	Category    string `json:"category"`

	PosterURL string `json:"poster_url,omitempty"`
	Area      string `json:"area,omitempty"`
	Language  string `json:"language,omitempty"`
	Year      string `json:"year,omitempty"`
	Actor     string `json:"actor,omitempty"`
	Director  string `json:"director,omitempty"`
	Synopsis  string `json:"content,omitempty"`
	Remarks   string `json:"remarks,omitempty"`
}

// SourceFailure records a per-source search failure for diagnostics.
type SourceFailure struct {
	SourceName string `json:"source_name"`
	Reason     string `json:"reason"`
}

// SourceOutcome is the result of querying one source: either a list of hits
// or an error, never both. Outcomes are produced atomically by the catalog
// layer and collected by the orchestrator.
type SourceOutcome struct {
	SourceKey  string
	SourceName string
	Hits       []SearchHit
	Err        error
}

// Failed reports whether the source query ended in an error.
func (o SourceOutcome) Failed() bool {
	return o.Err != nil
}

// PlayEntry is one episode parsed from a source's encoded play-list string.
// Order is significant: entries appear in episode order.
type PlayEntry struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}
