// Package history keeps the append-only record of ended polls and forwards
// each entry to optional archive stores.
package history

import (
	"sync"

	"github.com/aura-classroom/livepoll/internal/models"
)

// Recorder receives every poll appended to the log.
type Recorder interface {
	Record(p *models.Poll)
}

// Log is an append-only, chronological list of ended polls.
// Entries are copies and are never mutated after Append.
type Log struct {
	mu       sync.RWMutex
	entries  []*models.Poll
	recorder Recorder
}

// NewLog creates an empty log. rec may be nil.
func NewLog(rec Recorder) *Log {
	return &Log{recorder: rec}
}

// Append stores a snapshot of p.
func (l *Log) Append(p *models.Poll) {
	if p == nil {
		return
	}
	snap := p.Clone()
	l.mu.Lock()
	l.entries = append(l.entries, snap)
	l.mu.Unlock()
	if l.recorder != nil {
		l.recorder.Record(snap.Clone())
	}
}

// List returns copies of all entries, oldest first.
func (l *Log) List() []*models.Poll {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*models.Poll, len(l.entries))
	for i, p := range l.entries {
		out[i] = p.Clone()
	}
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
