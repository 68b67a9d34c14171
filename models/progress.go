package models

import (
	"strings"
	"time"
)

// ContentType distinguishes the two kinds of catalog content the engine tracks.
type ContentType string

const (
	ContentTypeMovie  ContentType = "movie"
	ContentTypeSeries ContentType = "series"
)

// ParseContentType normalises a raw content type string.
func ParseContentType(raw string) (ContentType, bool) {
	switch ContentType(strings.ToLower(strings.TrimSpace(raw))) {
	case ContentTypeMovie:
		return ContentTypeMovie, true
	case ContentTypeSeries:
		return ContentTypeSeries, true
	}
	return "", false
}

// Valid reports whether the content type is one of the known values.
func (c ContentType) Valid() bool {
	return c == ContentTypeMovie || c == ContentTypeSeries
}

// ProgressRecord stores the single latest playback position for a
// (user, content) pair. Writes are upserts keyed on
// (UserID, ContentID, ContentType).
type ProgressRecord struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId"`
	ContentID       string      `json:"contentId"`
	ContentType     ContentType `json:"contentType"`
	ProgressSeconds int         `json:"progressSeconds"`
	TotalSeconds    int         `json:"totalSeconds"`
	LastWatchedAt   time.Time   `json:"lastWatchedAt"`
}

// PercentWatched returns the completion fraction in [0, 1].
func (p ProgressRecord) PercentWatched() float64 {
	if p.TotalSeconds <= 0 {
		return 0
	}
	return float64(p.ProgressSeconds) / float64(p.TotalSeconds)
}

// ProgressUpsert is a request to create or overwrite a progress record.
type ProgressUpsert struct {
	UserID          string      `json:"userId"`
	ContentID       string      `json:"contentId"`
	ContentType     ContentType `json:"contentType"`
	ProgressSeconds int         `json:"progressSeconds"`
	TotalSeconds    int         `json:"totalSeconds"`
}

// Pagination describes a window into a larger result set.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}
