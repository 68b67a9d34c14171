package progress

import "reelay/models"

// ConflictPolicy decides whether an incoming position report may replace the
// stored record for the same key. Concurrent watchers for one user (multiple
// tabs or devices) race on arrival order; the store itself does no locking or
// versioning.
type ConflictPolicy interface {
	Name() string
	ShouldReplace(existing models.ProgressRecord, incoming models.ProgressUpsert) bool
}

type lastWriterWins struct{}

func (lastWriterWins) Name() string { return PolicyLastWriterWins }

func (lastWriterWins) ShouldReplace(models.ProgressRecord, models.ProgressUpsert) bool {
	return true
}

type onlyAdvance struct{}

func (onlyAdvance) Name() string { return PolicyOnlyAdvance }

func (onlyAdvance) ShouldReplace(existing models.ProgressRecord, incoming models.ProgressUpsert) bool {
	return incoming.ProgressSeconds >= existing.ProgressSeconds
}

const (
	PolicyLastWriterWins = "lastWriterWins"
	PolicyOnlyAdvance    = "onlyAdvance"
)

// LastWriterWins overwrites unconditionally by wall-clock arrival order. A
// lagging session can regress a further-along position from another device;
// this matches the historical behaviour and is the default.
func LastWriterWins() ConflictPolicy { return lastWriterWins{} }

// OnlyAdvance refuses writes that would move the resume point backwards.
func OnlyAdvance() ConflictPolicy { return onlyAdvance{} }

// PolicyFromName maps a configured policy name to an implementation,
// defaulting to last-writer-wins for unknown names.
func PolicyFromName(name string) ConflictPolicy {
	if name == PolicyOnlyAdvance {
		return OnlyAdvance()
	}
	return LastWriterWins()
}
