package session

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"reelay/models"
)

// Defaults for the watcher's timing constants; all of them are exposed in
// configuration.
const (
	DefaultCommitInterval    = 10   // seconds of playback between progress commits
	DefaultHistoryThreshold  = 30.0 // absolute position past which a session enters history
	DefaultFallbackDelay     = 32 * time.Second
	DefaultEstimatedDuration = 7200 // assumed duration when the player never reports one

	persistTimeout = 10 * time.Second
)

// ProgressWriter is satisfied by *progress.Service.
type ProgressWriter interface {
	UpsertProgress(ctx context.Context, up models.ProgressUpsert) (models.ProgressRecord, bool, error)
}

// HistoryWriter is satisfied by *history.Service.
type HistoryWriter interface {
	AppendHistory(ctx context.Context, a models.HistoryAppend) (models.HistoryEntry, error)
}

// PlayerControl posts commands back to the embedded player. The player is an
// opaque third party; seeks are optimistic and unconfirmed.
type PlayerControl interface {
	PostSeek(seconds float64)
}

// Config describes one playback session.
type Config struct {
	UserID      string
	ContentID   string
	ContentType models.ContentType
	Title       string
	PosterRef   string

	// Window holds the content's configured skip ranges, looked up once at
	// session start; nil when none are configured.
	Window *models.SkipWindow

	CommitInterval    int           // seconds; 0 means DefaultCommitInterval
	HistoryThreshold  float64       // seconds; 0 means DefaultHistoryThreshold
	FallbackDelay     time.Duration // 0 means DefaultFallbackDelay
	EstimatedDuration int           // seconds; 0 means DefaultEstimatedDuration
}

// State is the watcher's current view of the session, derived entirely from
// player events. It is owned by the watcher and returned by value.
type State struct {
	CurrentTime         float64 `json:"currentTime"`
	Duration            float64 `json:"duration"`
	SkipIntroVisible    bool    `json:"skipIntroVisible"`
	SkipOutroVisible    bool    `json:"skipOutroVisible"`
	LastCommittedSecond int     `json:"lastCommittedSecond"`
}

// Watcher consumes the untrusted position event stream for one mounted
// player view. All transitions are synchronous reactions to events plus one
// fallback timer; persistence is fire-and-forget and never blocks or fails
// event processing.
type Watcher struct {
	cfg      Config
	gate     *OriginGate
	progress ProgressWriter
	history  HistoryWriter
	player   PlayerControl
	logger   *slog.Logger

	mu              sync.Mutex
	state           State
	lastCommitted   int
	historyRecorded bool
	closed          bool
	fallback        *time.Timer
}

// NewWatcher starts a session watcher. The fallback history timer begins
// immediately so players that never emit position events still produce one
// history entry.
func NewWatcher(cfg Config, gate *OriginGate, progressSvc ProgressWriter, historySvc HistoryWriter, player PlayerControl, logger *slog.Logger) *Watcher {
	if cfg.CommitInterval <= 0 {
		cfg.CommitInterval = DefaultCommitInterval
	}
	if cfg.HistoryThreshold <= 0 {
		cfg.HistoryThreshold = DefaultHistoryThreshold
	}
	if cfg.FallbackDelay <= 0 {
		cfg.FallbackDelay = DefaultFallbackDelay
	}
	if cfg.EstimatedDuration <= 0 {
		cfg.EstimatedDuration = DefaultEstimatedDuration
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		cfg:           cfg,
		gate:          gate,
		progress:      progressSvc,
		history:       historySvc,
		player:        player,
		logger:        logger,
		lastCommitted: -1,
		state:         State{LastCommittedSecond: -1},
	}
	w.fallback = time.AfterFunc(cfg.FallbackDelay, w.fallbackHistory)
	return w
}

// HandleMessage processes one raw message from the player channel. Events
// from unlisted origins and malformed payloads are discarded with no state
// change.
func (w *Watcher) HandleMessage(origin string, payload []byte) {
	ev, ok := w.gate.Decode(origin, payload)
	if !ok {
		return
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}

	w.state.CurrentTime = ev.Timestamp
	w.state.Duration = ev.Duration

	// Skip prompts are stateless re-derivations on every event, inclusive
	// at both window bounds; they vanish the instant the position leaves
	// the window.
	w.state.SkipIntroVisible = w.inIntro(ev.Timestamp)
	w.state.SkipOutroVisible = w.inOutro(ev.Timestamp)

	var commit *models.ProgressUpsert
	if ev.Duration > 0 {
		sec := int(math.Floor(ev.Timestamp))
		if sec%w.cfg.CommitInterval == 0 && sec != w.lastCommitted {
			w.lastCommitted = sec
			w.state.LastCommittedSecond = sec
			commit = &models.ProgressUpsert{
				UserID:          w.cfg.UserID,
				ContentID:       w.cfg.ContentID,
				ContentType:     w.cfg.ContentType,
				ProgressSeconds: sec,
				TotalSeconds:    totalSeconds(ev),
			}
		}
	}

	var appendHistory bool
	if !w.historyRecorded && ev.Duration > 0 && ev.Timestamp > w.cfg.HistoryThreshold {
		w.historyRecorded = true
		appendHistory = true
		w.fallback.Stop()
	}
	w.mu.Unlock()

	if commit != nil {
		go w.commitProgress(*commit)
	}
	if appendHistory {
		go w.appendHistory(int(math.Floor(ev.Timestamp)), totalSeconds(ev))
	}
}

// SkipIntro seeks the player past the intro window and hides the prompt
// without waiting for a confirming event.
func (w *Watcher) SkipIntro() {
	w.skipTo(func(win *models.SkipWindow) *int {
		if win.HasIntro() {
			return win.IntroEnd
		}
		return nil
	}, func(s *State) { s.SkipIntroVisible = false })
}

// SkipOutro seeks the player past the outro window and hides the prompt.
func (w *Watcher) SkipOutro() {
	w.skipTo(func(win *models.SkipWindow) *int {
		if win.HasOutro() {
			return win.OutroEnd
		}
		return nil
	}, func(s *State) { s.SkipOutroVisible = false })
}

func (w *Watcher) skipTo(pick func(*models.SkipWindow) *int, clear func(*State)) {
	w.mu.Lock()
	if w.closed || w.cfg.Window == nil {
		w.mu.Unlock()
		return
	}
	end := pick(w.cfg.Window)
	if end == nil {
		w.mu.Unlock()
		return
	}
	clear(&w.state)
	target := float64(*end)
	w.mu.Unlock()

	if w.player != nil {
		w.player.PostSeek(target)
	}
}

// State returns a snapshot of the session state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Close tears the watcher down: the fallback timer is cancelled and further
// messages are ignored. Progress between the last commit and teardown is not
// flushed; at most one commit interval of playback position is lost.
func (w *Watcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.fallback.Stop()
	w.mu.Unlock()
}

// fallbackHistory fires once on a wall-clock delay from session start so a
// player that never emits position events still lands in history. When no
// duration was ever reported the configured estimate stands in for it.
func (w *Watcher) fallbackHistory() {
	w.mu.Lock()
	if w.closed || w.historyRecorded {
		w.mu.Unlock()
		return
	}
	w.historyRecorded = true
	position := int(math.Floor(w.state.CurrentTime))
	total := int(math.Round(w.state.Duration))
	w.mu.Unlock()

	if total <= 0 {
		total = w.cfg.EstimatedDuration
	}
	if position > total {
		position = total
	}
	w.appendHistory(position, total)
}

// commitProgress is fire-and-forget: a failed commit is logged and abandoned,
// the next qualifying event tries again naturally.
func (w *Watcher) commitProgress(up models.ProgressUpsert) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if _, _, err := w.progress.UpsertProgress(ctx, up); err != nil {
		w.logger.Debug("progress commit failed",
			"content_id", up.ContentID,
			"progress_seconds", up.ProgressSeconds,
			"error", err,
		)
	}
}

func (w *Watcher) appendHistory(progressSeconds, totalSeconds int) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	_, err := w.history.AppendHistory(ctx, models.HistoryAppend{
		UserID:          w.cfg.UserID,
		ContentID:       w.cfg.ContentID,
		ContentType:     w.cfg.ContentType,
		Title:           w.cfg.Title,
		PosterRef:       w.cfg.PosterRef,
		ProgressSeconds: progressSeconds,
		TotalSeconds:    totalSeconds,
	})
	if err != nil {
		w.logger.Debug("history append failed", "content_id", w.cfg.ContentID, "error", err)
	}
}

func (w *Watcher) inIntro(t float64) bool {
	win := w.cfg.Window
	if win == nil || !win.HasIntro() {
		return false
	}
	return t >= float64(*win.IntroStart) && t <= float64(*win.IntroEnd)
}

func (w *Watcher) inOutro(t float64) bool {
	win := w.cfg.Window
	if win == nil || !win.HasOutro() {
		return false
	}
	return t >= float64(*win.OutroStart) && t <= float64(*win.OutroEnd)
}

func totalSeconds(ev Event) int {
	total := int(math.Round(ev.Duration))
	if total < 1 {
		total = 1
	}
	return total
}
