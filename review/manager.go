// Package review implements the operator-facing draft lifecycle: the
// state machine over draft statuses, the audit trail, and the auxiliary
// desk actions that lean on the oracle.
package review

import (
	"context"
	"fmt"
	"time"

	"signal-desk/eventlog"
	"signal-desk/models"
	"signal-desk/oracle"
	"signal-desk/store"
)

// Publisher hands an approved draft to the publish channel. Delivery is
// best-effort and must never block or fail the review action.
type Publisher interface {
	PublishDraft(ctx context.Context, draft models.Draft, signal models.Signal)
}

// Broadcaster pushes review events to connected dashboard clients.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// Manager executes review decisions against the store. Every lookup
// miss and every action on a terminal draft is a silent no-op; the
// caller learns nothing happened from the false return, not an error.
type Manager struct {
	store     *store.Store
	oracle    oracle.Oracle
	events    *eventlog.Log
	publisher Publisher   // optional
	broker    Broadcaster // optional
}

// NewManager wires the review workflow. Publisher and broker may be nil.
func NewManager(st *store.Store, orc oracle.Oracle, events *eventlog.Log, pub Publisher, broker Broadcaster) *Manager {
	return &Manager{
		store:     st,
		oracle:    orc,
		events:    events,
		publisher: pub,
		broker:    broker,
	}
}

// Approve transitions a draft directly to published, stamps the publish
// time, audits the decision, and hands the content to the publish
// channel. Returns false for unknown ids and terminal drafts.
func (m *Manager) Approve(ctx context.Context, draftID string) bool {
	var approved models.Draft
	ok := m.mutateNonTerminal(draftID, func(d *models.Draft) {
		now := time.Now()
		d.Status = models.DraftStatusPublished
		d.PublishedAt = &now
		d.AuditLog = append(d.AuditLog, models.ReviewAudit{
			Action:    models.AuditApprove,
			Timestamp: now,
		})
		approved = *d
	})
	if !ok {
		return false
	}

	m.events.Appendf("[review] draft %s approved and published", draftID)
	m.notify(approved)

	if m.publisher != nil {
		if sig, found := m.store.Signal(approved.SignalID); found {
			m.publisher.PublishDraft(ctx, approved, sig)
		}
	}
	return true
}

// Reject transitions a draft to rejected with an audited reason.
// Returns false for unknown ids and terminal drafts.
func (m *Manager) Reject(draftID, reason string) bool {
	var rejected models.Draft
	ok := m.mutateNonTerminal(draftID, func(d *models.Draft) {
		d.Status = models.DraftStatusRejected
		d.AuditLog = append(d.AuditLog, models.ReviewAudit{
			Action:    models.AuditReject,
			Reason:    reason,
			Timestamp: time.Now(),
		})
		rejected = *d
	})
	if !ok {
		return false
	}

	m.events.Appendf("[review] draft %s rejected: %s", draftID, reason)
	m.notify(rejected)
	return true
}

// Edit replaces the draft body. Content edits are working-copy changes
// and are not audited. Returns false for unknown ids and terminal drafts.
func (m *Manager) Edit(draftID, content string) bool {
	var edited models.Draft
	ok := m.mutateNonTerminal(draftID, func(d *models.Draft) {
		d.Content = content
		edited = *d
	})
	if ok {
		m.notify(edited)
	}
	return ok
}

// UpdateThread replaces the draft's thread items. Not audited.
func (m *Manager) UpdateThread(draftID string, items []string) bool {
	var edited models.Draft
	ok := m.mutateNonTerminal(draftID, func(d *models.Draft) {
		d.ThreadItems = items
		edited = *d
	})
	if ok {
		m.notify(edited)
	}
	return ok
}

// UpdateCounterCase replaces the draft's counter case. Not audited.
func (m *Manager) UpdateCounterCase(draftID, counterCase string) bool {
	var edited models.Draft
	ok := m.mutateNonTerminal(draftID, func(d *models.Draft) {
		d.CounterCase = counterCase
		edited = *d
	})
	if ok {
		m.notify(edited)
	}
	return ok
}

// Regenerate asks the oracle for a fresh rendition incorporating the
// operator's feedback, bumps the regeneration counter by exactly one,
// and audits the request with its feedback. Status is unchanged. The
// oracle call happens outside the store lock; a failed call mutates
// nothing.
func (m *Manager) Regenerate(ctx context.Context, draftID, feedback string) error {
	draft, found := m.store.Draft(draftID)
	if !found || draft.Status.Terminal() {
		return nil
	}
	signal, found := m.store.Signal(draft.SignalID)
	if !found {
		return nil
	}

	content, err := m.oracle.GenerateDraft(ctx, &signal, signal.AnalysisOutput, feedback)
	if err != nil {
		m.events.Appendf("[review] ❌ draft %s regeneration failed: %v", draftID, err)
		return fmt.Errorf("regenerate draft %s: %w", draftID, err)
	}

	var regenerated models.Draft
	ok := m.mutateNonTerminal(draftID, func(d *models.Draft) {
		d.Content = content.Content
		d.Labels = content.Labels
		d.CounterCase = content.CounterCase
		d.FactChecksum = content.FactChecksum
		d.ThreadItems = content.ThreadItems
		d.RegenerationCount++
		d.AuditLog = append(d.AuditLog, models.ReviewAudit{
			Action:    models.AuditRegenerate,
			Feedback:  feedback,
			Timestamp: time.Now(),
		})
		regenerated = *d
	})
	if !ok {
		return nil
	}

	m.events.Appendf("[review] draft %s regenerated (round %d)", draftID, regenerated.RegenerationCount)
	m.notify(regenerated)
	return nil
}

// ToggleStar flips the starred flag on one evidence item. Applying it
// twice restores the original state. Returns false when the signal or
// the evidence id does not resolve.
func (m *Manager) ToggleStar(signalID, evidenceID string) bool {
	matched := false
	ok := m.store.MutateSignal(signalID, func(s *models.Signal) {
		for i := range s.Evidence {
			if s.Evidence[i].EvidenceID == evidenceID {
				s.Evidence[i].Starred = !s.Evidence[i].Starred
				matched = true
				return
			}
		}
	})
	return ok && matched
}

// RequestMoreEvidence runs an advisory supplemental verification pass
// for a signal. Advisory only: no draft status changes and no audit
// entry. A failed oracle call returns an empty answer, not an error.
func (m *Manager) RequestMoreEvidence(ctx context.Context, signalID, question string) (string, bool) {
	signal, found := m.store.Signal(signalID)
	if !found {
		return "", false
	}

	answer, err := m.oracle.SupplementalVerification(ctx, signal.Topic, question)
	if err != nil {
		m.events.Appendf("[review] supplemental verification unavailable for %s: %v", signalID, err)
		return "", true
	}

	m.events.Appendf("[review] supplemental verification completed for %s", signalID)
	return answer, true
}

// DistillStory asks the oracle to condense a story's member signals into
// a distilled note and stores it on the story. Auxiliary desk feature.
func (m *Manager) DistillStory(ctx context.Context, storyID string) (string, error) {
	story, found := m.store.Story(storyID)
	if !found {
		return "", nil
	}

	members := make([]models.Signal, 0, len(story.Signals))
	for _, id := range story.Signals {
		if sig, ok := m.store.Signal(id); ok {
			members = append(members, sig)
		}
	}

	note, err := m.oracle.DistillStory(ctx, &story, members)
	if err != nil {
		return "", fmt.Errorf("distill story %s: %w", storyID, err)
	}

	m.store.MutateStory(storyID, func(s *models.Story) {
		s.DistilledNote = note
		s.LatestUpdateAt = time.Now()
	})
	m.events.Appendf("[review] story %s distilled", storyID)
	if m.broker != nil {
		m.broker.Broadcast("story_updated", map[string]interface{}{"story_id": storyID})
	}
	return note, nil
}

// DeepDive produces a long-form research report for one signal.
// Auxiliary desk feature; nothing is stored.
func (m *Manager) DeepDive(ctx context.Context, signalID string) (string, error) {
	signal, found := m.store.Signal(signalID)
	if !found {
		return "", nil
	}

	report, err := m.oracle.DeepDiveReport(ctx, &signal)
	if err != nil {
		return "", fmt.Errorf("deep dive %s: %w", signalID, err)
	}
	m.events.Appendf("[review] deep dive generated for %s", signalID)
	return report, nil
}

// mutateNonTerminal applies fn only when the draft exists and is not in
// a terminal state.
func (m *Manager) mutateNonTerminal(draftID string, fn func(*models.Draft)) bool {
	applied := false
	m.store.MutateDraft(draftID, func(d *models.Draft) {
		if d.Status.Terminal() {
			return
		}
		fn(d)
		applied = true
	})
	return applied
}

func (m *Manager) notify(d models.Draft) {
	if m.broker == nil || d.DraftID == "" {
		return
	}
	m.broker.Broadcast("draft_updated", map[string]interface{}{
		"draft_id": d.DraftID,
		"status":   d.Status,
	})
}
