package models

import "time"

// SkipWindow holds the configured intro/outro second offsets for one content
// item. Each bound is optional; a window is only evaluated when both of its
// bounds are set. At most one row exists per (ContentID, ContentType).
type SkipWindow struct {
	ID          string      `json:"id"`
	ContentID   string      `json:"contentId"`
	ContentType ContentType `json:"contentType"`
	IntroStart  *int        `json:"introStart,omitempty"`
	IntroEnd    *int        `json:"introEnd,omitempty"`
	OutroStart  *int        `json:"outroStart,omitempty"`
	OutroEnd    *int        `json:"outroEnd,omitempty"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// HasIntro reports whether both intro bounds are configured.
func (w SkipWindow) HasIntro() bool {
	return w.IntroStart != nil && w.IntroEnd != nil
}

// HasOutro reports whether both outro bounds are configured.
func (w SkipWindow) HasOutro() bool {
	return w.OutroStart != nil && w.OutroEnd != nil
}

// SkipWindowUpsert carries a partial update; nil fields leave the stored
// bound untouched.
type SkipWindowUpsert struct {
	ContentID   string      `json:"contentId"`
	ContentType ContentType `json:"contentType"`
	IntroStart  *int        `json:"introStart,omitempty"`
	IntroEnd    *int        `json:"introEnd,omitempty"`
	OutroStart  *int        `json:"outroStart,omitempty"`
	OutroEnd    *int        `json:"outroEnd,omitempty"`
}
