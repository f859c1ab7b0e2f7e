package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"signal-desk/eventlog"
	"signal-desk/models"
	"signal-desk/oracle"
	"signal-desk/store"
)

type stubOracle struct {
	draftFn        func(feedback string) (*oracle.DraftContent, error)
	supplementalFn func() (string, error)
}

func (s *stubOracle) Classify(ctx context.Context, rawText string) (*oracle.Classification, error) {
	return nil, errors.New("not used")
}

func (s *stubOracle) VerifyClaims(ctx context.Context, topic string, entities []string) (*oracle.Verification, error) {
	return nil, errors.New("not used")
}

func (s *stubOracle) AnalyzeImpact(ctx context.Context, topic, rawText, priorSummary string) (*models.AnalysisOutput, error) {
	return nil, errors.New("not used")
}

func (s *stubOracle) Judge(ctx context.Context, c *oracle.Classification, v *oracle.Verification, a *models.AnalysisOutput) (*models.Routing, error) {
	return nil, errors.New("not used")
}

func (s *stubOracle) GenerateDraft(ctx context.Context, signal *models.Signal, analysis *models.AnalysisOutput, feedback string) (*oracle.DraftContent, error) {
	if s.draftFn != nil {
		return s.draftFn(feedback)
	}
	return &oracle.DraftContent{Content: "regenerated body", Labels: []string{"Rumor"}}, nil
}

func (s *stubOracle) ValidateURL(ctx context.Context, url string) (*oracle.URLValidation, error) {
	return &oracle.URLValidation{Valid: true}, nil
}

func (s *stubOracle) SupplementalVerification(ctx context.Context, topic, question string) (string, error) {
	if s.supplementalFn != nil {
		return s.supplementalFn()
	}
	return "supplemental answer", nil
}

func (s *stubOracle) GeneratePoster(ctx context.Context, topic, marketImpact string) (string, error) {
	return "", nil
}

func (s *stubOracle) DistillStory(ctx context.Context, story *models.Story, signals []models.Signal) (string, error) {
	return "distilled note", nil
}

func (s *stubOracle) DeepDiveReport(ctx context.Context, signal *models.Signal) (string, error) {
	return "deep dive report", nil
}

type capturingPublisher struct {
	drafts []models.Draft
}

func (p *capturingPublisher) PublishDraft(ctx context.Context, draft models.Draft, signal models.Signal) {
	p.drafts = append(p.drafts, draft)
}

func seededStore() *store.Store {
	return store.New(&models.AppState{
		Signals: []models.Signal{
			{
				SignalID: "sig_1",
				StoryID:  "story_1",
				Topic:    "AIAgent token launch",
				Evidence: []models.Evidence{
					{EvidenceID: "ev_sig_1_0", URL: "https://example.com", Starred: false},
				},
			},
		},
		Drafts: []models.Draft{
			{
				DraftID:  "d_1",
				SignalID: "sig_1",
				Status:   models.DraftStatusNeedsMoreEvidence,
				Content:  "original body",
				AuditLog: []models.ReviewAudit{},
			},
			{
				DraftID:  "d_done",
				SignalID: "sig_1",
				Status:   models.DraftStatusPublished,
				Content:  "already published",
				AuditLog: []models.ReviewAudit{},
			},
		},
		Stories: []models.Story{
			{StoryID: "story_1", Title: "AIAgent Token Ecosystem Launch", Signals: []string{"sig_1"}},
		},
	}, nil)
}

func newTestManager(st *store.Store, orc oracle.Oracle, pub Publisher) *Manager {
	return NewManager(st, orc, eventlog.New(nil, nil), pub, nil)
}

func TestApprovePublishesDirectly(t *testing.T) {
	st := seededStore()
	pub := &capturingPublisher{}
	m := newTestManager(st, &stubOracle{}, pub)

	if !m.Approve(context.Background(), "d_1") {
		t.Fatal("Approve returned false for a reviewable draft")
	}

	draft, _ := st.Draft("d_1")
	if draft.Status != models.DraftStatusPublished {
		t.Errorf("Expected status published, got %s", draft.Status)
	}
	if draft.PublishedAt == nil {
		t.Error("Expected PublishedAt stamped")
	}
	if len(draft.AuditLog) != 1 || draft.AuditLog[0].Action != models.AuditApprove {
		t.Errorf("Expected one approve audit entry, got %+v", draft.AuditLog)
	}
	if len(pub.drafts) != 1 || pub.drafts[0].DraftID != "d_1" {
		t.Errorf("Expected draft handed to publish channel, got %+v", pub.drafts)
	}
}

func TestApproveTerminalDraftNoOp(t *testing.T) {
	st := seededStore()
	pub := &capturingPublisher{}
	m := newTestManager(st, &stubOracle{}, pub)

	if m.Approve(context.Background(), "d_done") {
		t.Error("Approve on published draft must be a no-op")
	}
	if len(pub.drafts) != 0 {
		t.Error("Terminal draft must not reach the publish channel")
	}
}

func TestApproveUnknownDraftNoOp(t *testing.T) {
	m := newTestManager(seededStore(), &stubOracle{}, nil)
	if m.Approve(context.Background(), "d_missing") {
		t.Error("Approve on unknown id must be a no-op")
	}
}

func TestRejectAuditsReason(t *testing.T) {
	st := seededStore()
	m := newTestManager(st, &stubOracle{}, nil)

	if !m.Reject("d_1", "unverifiable sourcing") {
		t.Fatal("Reject returned false for a reviewable draft")
	}

	draft, _ := st.Draft("d_1")
	if draft.Status != models.DraftStatusRejected {
		t.Errorf("Expected status rejected, got %s", draft.Status)
	}
	if len(draft.AuditLog) != 1 || draft.AuditLog[0].Reason != "unverifiable sourcing" {
		t.Errorf("Expected audited reason, got %+v", draft.AuditLog)
	}
}

func TestEditDoesNotAudit(t *testing.T) {
	st := seededStore()
	m := newTestManager(st, &stubOracle{}, nil)

	if !m.Edit("d_1", "tightened body") {
		t.Fatal("Edit returned false")
	}
	if !m.UpdateThread("d_1", []string{"1/ intro", "2/ detail"}) {
		t.Fatal("UpdateThread returned false")
	}
	if !m.UpdateCounterCase("d_1", "could be a test deployment") {
		t.Fatal("UpdateCounterCase returned false")
	}

	draft, _ := st.Draft("d_1")
	if draft.Content != "tightened body" {
		t.Errorf("Content not updated: %q", draft.Content)
	}
	if len(draft.ThreadItems) != 2 || draft.CounterCase == "" {
		t.Error("Thread or counter case not updated")
	}
	if draft.Status != models.DraftStatusNeedsMoreEvidence {
		t.Errorf("Edit must not change status, got %s", draft.Status)
	}
	if len(draft.AuditLog) != 0 {
		t.Errorf("Content edits must not be audited, got %+v", draft.AuditLog)
	}
}

func TestRegenerate(t *testing.T) {
	st := seededStore()
	var gotFeedback string
	orc := &stubOracle{
		draftFn: func(feedback string) (*oracle.DraftContent, error) {
			gotFeedback = feedback
			return &oracle.DraftContent{Content: "sharper body"}, nil
		},
	}
	m := newTestManager(st, orc, nil)

	if err := m.Regenerate(context.Background(), "d_1", "less hype, more numbers"); err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}

	if gotFeedback != "less hype, more numbers" {
		t.Errorf("Feedback not forwarded to oracle: %q", gotFeedback)
	}

	draft, _ := st.Draft("d_1")
	if draft.Content != "sharper body" {
		t.Errorf("Content not replaced: %q", draft.Content)
	}
	if draft.RegenerationCount != 1 {
		t.Errorf("Expected regeneration count 1, got %d", draft.RegenerationCount)
	}
	if draft.Status != models.DraftStatusNeedsMoreEvidence {
		t.Errorf("Regenerate must not change status, got %s", draft.Status)
	}
	if len(draft.AuditLog) != 1 || draft.AuditLog[0].Action != models.AuditRegenerate {
		t.Fatalf("Expected one regenerate audit entry, got %+v", draft.AuditLog)
	}
	if draft.AuditLog[0].Feedback != "less hype, more numbers" {
		t.Errorf("Audit entry lost feedback: %+v", draft.AuditLog[0])
	}
}

func TestRegenerateOracleFailureMutatesNothing(t *testing.T) {
	st := seededStore()
	orc := &stubOracle{
		draftFn: func(feedback string) (*oracle.DraftContent, error) {
			return nil, errors.New("model overloaded")
		},
	}
	m := newTestManager(st, orc, nil)

	if err := m.Regenerate(context.Background(), "d_1", "retry"); err == nil {
		t.Fatal("Expected regeneration error")
	}

	draft, _ := st.Draft("d_1")
	if draft.Content != "original body" || draft.RegenerationCount != 0 || len(draft.AuditLog) != 0 {
		t.Errorf("Failed regeneration mutated the draft: %+v", draft)
	}
}

func TestToggleStarIdempotentUnderDoubleApplication(t *testing.T) {
	st := seededStore()
	m := newTestManager(st, &stubOracle{}, nil)

	if !m.ToggleStar("sig_1", "ev_sig_1_0") {
		t.Fatal("ToggleStar returned false")
	}
	sig, _ := st.Signal("sig_1")
	if !sig.Evidence[0].Starred {
		t.Error("Expected evidence starred after first toggle")
	}

	if !m.ToggleStar("sig_1", "ev_sig_1_0") {
		t.Fatal("Second ToggleStar returned false")
	}
	sig, _ = st.Signal("sig_1")
	if sig.Evidence[0].Starred {
		t.Error("Double toggle must restore the original state")
	}

	if m.ToggleStar("sig_1", "ev_missing") {
		t.Error("Unknown evidence id must be a no-op")
	}
}

func TestRequestMoreEvidence(t *testing.T) {
	st := seededStore()
	m := newTestManager(st, &stubOracle{}, nil)

	before, _ := st.Draft("d_1")

	answer, ok := m.RequestMoreEvidence(context.Background(), "sig_1", "any exchange confirmations?")
	if !ok {
		t.Fatal("RequestMoreEvidence returned false")
	}
	if answer != "supplemental answer" {
		t.Errorf("Unexpected answer %q", answer)
	}

	draft, _ := st.Draft("d_1")
	if draft.Status != before.Status {
		t.Errorf("Advisory request must not change draft status: %s -> %s", before.Status, draft.Status)
	}
	if len(draft.AuditLog) != len(before.AuditLog) {
		t.Error("Advisory request must not append audit entries")
	}

	if _, ok := m.RequestMoreEvidence(context.Background(), "sig_missing", "anything?"); ok {
		t.Error("Unknown signal id must return false")
	}
}

func TestRequestMoreEvidenceOracleFailureDegrades(t *testing.T) {
	st := seededStore()
	orc := &stubOracle{
		supplementalFn: func() (string, error) { return "", errors.New("unavailable") },
	}
	m := newTestManager(st, orc, nil)

	answer, ok := m.RequestMoreEvidence(context.Background(), "sig_1", "anything?")
	if !ok || answer != "" {
		t.Fatalf("Expected empty answer with ok=true, got (%q, %v)", answer, ok)
	}
}

func TestDistillStoryStoresNote(t *testing.T) {
	st := seededStore()
	m := newTestManager(st, &stubOracle{}, nil)

	before, _ := st.Story("story_1")
	note, err := m.DistillStory(context.Background(), "story_1")
	if err != nil {
		t.Fatalf("DistillStory failed: %v", err)
	}
	if note != "distilled note" {
		t.Errorf("Unexpected note %q", note)
	}

	story, _ := st.Story("story_1")
	if story.DistilledNote != "distilled note" {
		t.Errorf("Note not stored on story: %q", story.DistilledNote)
	}
	if !story.LatestUpdateAt.After(before.LatestUpdateAt) && !before.LatestUpdateAt.IsZero() {
		t.Error("Expected latest_update_at bumped")
	}
}

func TestDistillStoryUnknownIDNoOp(t *testing.T) {
	m := newTestManager(seededStore(), &stubOracle{}, nil)
	note, err := m.DistillStory(context.Background(), "story_missing")
	if err != nil || note != "" {
		t.Errorf("Unknown story must be a silent no-op, got (%q, %v)", note, err)
	}
}

func TestApproveStampsRecentTime(t *testing.T) {
	st := seededStore()
	m := newTestManager(st, &stubOracle{}, nil)

	before := time.Now()
	m.Approve(context.Background(), "d_1")
	draft, _ := st.Draft("d_1")
	if draft.PublishedAt == nil || draft.PublishedAt.Before(before.Add(-time.Second)) {
		t.Errorf("PublishedAt not freshly stamped: %v", draft.PublishedAt)
	}
}
