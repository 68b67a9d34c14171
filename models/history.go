package models

import "time"

// HistoryEntry is one append-only snapshot of a viewing session. Title and
// PosterRef are denormalised at write time so history survives catalog changes.
// Multiple entries per (user, content) are expected; it is a log, not a
// projection.
type HistoryEntry struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId"`
	ContentID       string      `json:"contentId"`
	ContentType     ContentType `json:"contentType"`
	Title           string      `json:"title"`
	PosterRef       string      `json:"posterRef,omitempty"`
	WatchedAt       time.Time   `json:"watchedAt"`
	ProgressSeconds int         `json:"progressSeconds"`
	TotalSeconds    int         `json:"totalSeconds"`
}

// HistoryAppend is a request to record a new history snapshot. WatchedAt
// defaults to the time of the call when zero.
type HistoryAppend struct {
	UserID          string      `json:"userId"`
	ContentID       string      `json:"contentId"`
	ContentType     ContentType `json:"contentType"`
	Title           string      `json:"title"`
	PosterRef       string      `json:"posterRef,omitempty"`
	WatchedAt       time.Time   `json:"watchedAt,omitempty"`
	ProgressSeconds int         `json:"progressSeconds"`
	TotalSeconds    int         `json:"totalSeconds"`
}

// HistoryQuery selects a page of history entries for a user.
type HistoryQuery struct {
	UserID      string
	SinceDays   int
	ContentType ContentType // empty means both types
	Limit       int
	Offset      int
}

// HistoryPage is one page of history entries plus pagination metadata.
type HistoryPage struct {
	Entries    []HistoryEntry `json:"history"`
	Pagination Pagination     `json:"pagination"`
}
