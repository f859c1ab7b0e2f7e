// Package store holds the in-memory curation state (signals, drafts,
// stories) as the single source of truth for the process. All mutations
// go through the atomic pipeline commit or the targeted mutate helpers;
// every change is persisted fire-and-forget as one JSON snapshot.
package store

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"signal-desk/models"
)

// Persister saves the serialized state blob. Saves are fire-and-forget
// on every state change; a nil persister means memory-only operation.
type Persister interface {
	SaveState(raw []byte) error
}

// snapshot pairs a serialized state with its position in the mutation
// order. The writer uses the sequence to discard stale snapshots.
type snapshot struct {
	seq uint64
	raw []byte
}

// Store owns all Signal/Draft/Story instances for the process lifetime.
type Store struct {
	mu        sync.RWMutex
	state     models.AppState
	tasks     []models.TaskState
	persister Persister
	saveSeq   uint64
	saveCh    chan snapshot
}

// New creates a store from an initial state. Pass nil to start from the
// fixed seed state.
func New(initial *models.AppState, persister Persister) *Store {
	var state models.AppState
	if initial != nil {
		state = *initial
	} else {
		state = models.SeedState()
	}

	s := &Store{
		state:     state,
		tasks:     models.SeedTasks(),
		persister: persister,
	}
	if persister != nil {
		s.saveCh = make(chan snapshot, 1)
		go s.saveLoop()
	}
	return s
}

// Signals returns a copy of all signals, newest first.
func (s *Store) Signals() []models.Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Signal, len(s.state.Signals))
	copy(out, s.state.Signals)
	return out
}

// Drafts returns a copy of all drafts, newest first.
func (s *Store) Drafts() []models.Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Draft, len(s.state.Drafts))
	copy(out, s.state.Drafts)
	return out
}

// Stories returns a copy of all stories, newest first.
func (s *Store) Stories() []models.Story {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Story, len(s.state.Stories))
	copy(out, s.state.Stories)
	return out
}

// Tasks returns the periodic task display list.
func (s *Store) Tasks() []models.TaskState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.TaskState, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Signal returns the signal with the given id.
func (s *Store) Signal(id string) (models.Signal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sig := range s.state.Signals {
		if sig.SignalID == id {
			return sig, true
		}
	}
	return models.Signal{}, false
}

// Draft returns the draft with the given id.
func (s *Store) Draft(id string) (models.Draft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.state.Drafts {
		if d.DraftID == id {
			return d, true
		}
	}
	return models.Draft{}, false
}

// Story returns the story with the given id.
func (s *Store) Story(id string) (models.Story, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.state.Stories {
		if st.StoryID == id {
			return st, true
		}
	}
	return models.Story{}, false
}

// State returns a copy of the full curation state.
func (s *Store) State() models.AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyStateLocked()
}

// CommitPipeline applies one successful pipeline run as an atomic unit:
// the signal and draft are prepended, and either newStory is prepended
// (unmatched runs) or the matched story's member list and update
// timestamp are amended. Nothing is committed on error.
func (s *Store) CommitPipeline(sig models.Signal, draft models.Draft, newStory *models.Story, matchedStoryID string) error {
	s.mu.Lock()

	if newStory == nil && matchedStoryID == "" {
		s.mu.Unlock()
		return fmt.Errorf("commit requires either a new story or a matched story id")
	}

	if matchedStoryID != "" {
		idx := -1
		for i := range s.state.Stories {
			if s.state.Stories[i].StoryID == matchedStoryID {
				idx = i
				break
			}
		}
		if idx < 0 {
			s.mu.Unlock()
			return fmt.Errorf("matched story %s no longer exists", matchedStoryID)
		}
		s.state.Stories[idx].Signals = append(s.state.Stories[idx].Signals, sig.SignalID)
		s.state.Stories[idx].LatestUpdateAt = time.Now()
	} else {
		s.state.Stories = append([]models.Story{*newStory}, s.state.Stories...)
	}

	s.state.Signals = append([]models.Signal{sig}, s.state.Signals...)
	s.state.Drafts = append([]models.Draft{draft}, s.state.Drafts...)

	snap := s.marshalLocked()
	s.mu.Unlock()

	s.persist(snap)
	return nil
}

// MutateDraft applies fn to the draft with the given id under the store
// lock and persists. Returns false when the id does not resolve.
func (s *Store) MutateDraft(id string, fn func(*models.Draft)) bool {
	s.mu.Lock()
	found := false
	for i := range s.state.Drafts {
		if s.state.Drafts[i].DraftID == id {
			fn(&s.state.Drafts[i])
			found = true
			break
		}
	}
	var snap snapshot
	if found {
		snap = s.marshalLocked()
	}
	s.mu.Unlock()

	if found {
		s.persist(snap)
	}
	return found
}

// MutateSignal applies fn to the signal with the given id under the
// store lock and persists. Returns false when the id does not resolve.
func (s *Store) MutateSignal(id string, fn func(*models.Signal)) bool {
	s.mu.Lock()
	found := false
	for i := range s.state.Signals {
		if s.state.Signals[i].SignalID == id {
			fn(&s.state.Signals[i])
			found = true
			break
		}
	}
	var snap snapshot
	if found {
		snap = s.marshalLocked()
	}
	s.mu.Unlock()

	if found {
		s.persist(snap)
	}
	return found
}

// MutateStory applies fn to the story with the given id under the store
// lock and persists. Returns false when the id does not resolve.
func (s *Store) MutateStory(id string, fn func(*models.Story)) bool {
	s.mu.Lock()
	found := false
	for i := range s.state.Stories {
		if s.state.Stories[i].StoryID == id {
			fn(&s.state.Stories[i])
			found = true
			break
		}
	}
	var snap snapshot
	if found {
		snap = s.marshalLocked()
	}
	s.mu.Unlock()

	if found {
		s.persist(snap)
	}
	return found
}

func (s *Store) copyStateLocked() models.AppState {
	out := models.AppState{
		Signals: make([]models.Signal, len(s.state.Signals)),
		Drafts:  make([]models.Draft, len(s.state.Drafts)),
		Stories: make([]models.Story, len(s.state.Stories)),
	}
	copy(out.Signals, s.state.Signals)
	copy(out.Drafts, s.state.Drafts)
	copy(out.Stories, s.state.Stories)
	return out
}

// marshalLocked serializes the state while the lock is held so the
// snapshot is internally consistent and its sequence matches the
// mutation order.
func (s *Store) marshalLocked() snapshot {
	raw, err := json.Marshal(s.state)
	if err != nil {
		log.Printf("⚠️  Failed to marshal curation state: %v", err)
		return snapshot{}
	}
	s.saveSeq++
	return snapshot{seq: s.saveSeq, raw: raw}
}

// persist hands the snapshot to the single writer goroutine. Pending
// snapshots coalesce down to the newest; a slow persister only ever
// delays the latest state, never reorders it.
func (s *Store) persist(snap snapshot) {
	if s.persister == nil || snap.raw == nil {
		return
	}
	for {
		select {
		case s.saveCh <- snap:
			return
		default:
			select {
			case pending := <-s.saveCh:
				if pending.seq > snap.seq {
					snap = pending
				}
			default:
			}
		}
	}
}

// saveLoop is the single writer. Sequence checking here covers the
// window between unlocking the store and enqueueing, where two persist
// calls may arrive out of mutation order.
func (s *Store) saveLoop() {
	var lastSaved uint64
	for snap := range s.saveCh {
		if snap.seq <= lastSaved {
			continue
		}
		lastSaved = snap.seq
		if err := s.persister.SaveState(snap.raw); err != nil {
			log.Printf("⚠️  Failed to persist curation state: %v", err)
		}
	}
}
