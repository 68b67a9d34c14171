package models

// Image references a piece of artwork served by the catalog provider.
type Image struct {
	URL  string `json:"url"`
	Type string `json:"type,omitempty"` // poster | backdrop
}

// Title is the catalog provider's view of a content item. The catalog is an
// external collaborator; these fields are read-only from the engine's side.
type Title struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Overview   string      `json:"overview,omitempty"`
	MediaType  ContentType `json:"mediaType"`
	Year       int         `json:"year,omitempty"`
	Genres     []string    `json:"genres,omitempty"`
	Poster     *Image      `json:"poster,omitempty"`
	Backdrop   *Image      `json:"backdrop,omitempty"`
	Popularity float64     `json:"popularity,omitempty"`
}

// ContinueWatchingItem is a progress record enriched with display metadata.
// Enrichment is best-effort: a failed catalog lookup leaves Title empty and
// the item is still returned.
type ContinueWatchingItem struct {
	Progress       ProgressRecord `json:"progress"`
	Title          string         `json:"title,omitempty"`
	Poster         *Image         `json:"poster,omitempty"`
	PercentWatched float64        `json:"percentWatched"`
}

// ContinueWatchingPage is one page of in-progress items. Pagination totals
// count completion-filtered records, not raw progress rows.
type ContinueWatchingPage struct {
	Items      []ContinueWatchingItem `json:"progress"`
	Pagination Pagination             `json:"pagination"`
}

// SuggestionGroup is one ranked row of recommendations with a human-readable
// title, capped by the aggregator.
type SuggestionGroup struct {
	Title string  `json:"title"`
	Items []Title `json:"items"`
}
