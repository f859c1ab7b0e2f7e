// Package eventlog keeps the bounded, human-readable trace of pipeline
// and operator actions. Diagnostic only: nothing reads it back for
// correctness.
package eventlog

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxEntries bounds the in-memory log to the most recent entries.
const maxEntries = 50

// Entry is one timestamped event line.
type Entry struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Broadcaster pushes new entries to connected dashboard clients.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// Archiver persists entries beyond the in-memory bound.
type Archiver interface {
	ArchiveEvent(eventID, message string, loggedAt time.Time) error
}

// Log is the append-only, bounded event log. Newest entries first.
type Log struct {
	mu      sync.RWMutex
	entries []Entry

	broker  Broadcaster // optional
	archive Archiver    // optional
}

// New creates an event log. Both collaborators may be nil.
func New(broker Broadcaster, archive Archiver) *Log {
	return &Log{
		entries: make([]Entry, 0, maxEntries),
		broker:  broker,
		archive: archive,
	}
}

// Appendf formats and appends one event line, mirrors it to the process
// log, broadcasts it, and archives it best-effort.
func (l *Log) Appendf(format string, args ...interface{}) {
	entry := Entry{
		ID:        uuid.NewString(),
		Message:   fmt.Sprintf(format, args...),
		Timestamp: time.Now(),
	}

	l.mu.Lock()
	l.entries = append([]Entry{entry}, l.entries...)
	if len(l.entries) > maxEntries {
		l.entries = l.entries[:maxEntries]
	}
	l.mu.Unlock()

	log.Println(entry.Message)

	if l.broker != nil {
		l.broker.Broadcast("log", entry)
	}
	if l.archive != nil {
		go func() {
			if err := l.archive.ArchiveEvent(entry.ID, entry.Message, entry.Timestamp); err != nil {
				log.Printf("⚠️  Failed to archive event: %v", err)
			}
		}()
	}
}

// Entries returns a copy of the current entries, newest first.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
