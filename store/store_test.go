package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"signal-desk/models"
)

// recordingPersister captures the snapshots handed to SaveState.
type recordingPersister struct {
	mu    sync.Mutex
	saves [][]byte
}

func (p *recordingPersister) SaveState(raw []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves = append(p.saves, raw)
	return nil
}

func (p *recordingPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.saves)
}

func (p *recordingPersister) last() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.saves) == 0 {
		return nil
	}
	return p.saves[len(p.saves)-1]
}

func (p *recordingPersister) snapshots() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.saves))
	copy(out, p.saves)
	return out
}

// slowPersister widens the save window so out-of-order writes would
// surface in the recorded sequence.
type slowPersister struct {
	recordingPersister
}

func (p *slowPersister) SaveState(raw []byte) error {
	time.Sleep(5 * time.Millisecond)
	return p.recordingPersister.SaveState(raw)
}

func testSignal(id, storyID string) models.Signal {
	return models.Signal{SignalID: id, StoryID: storyID, Topic: "t", CreatedAt: time.Now()}
}

func testDraft(id, sigID string) models.Draft {
	return models.Draft{DraftID: id, SignalID: sigID, Status: models.DraftStatusDraft}
}

func TestNewSeedsWhenInitialNil(t *testing.T) {
	s := New(nil, nil)

	if len(s.Signals()) == 0 || len(s.Drafts()) == 0 || len(s.Stories()) == 0 {
		t.Fatal("Expected seed state to populate all three collections")
	}
	// Seed referential integrity: every signal's story contains it.
	for _, sig := range s.Signals() {
		story, ok := s.Story(sig.StoryID)
		if !ok {
			t.Fatalf("Seed signal %s references missing story %s", sig.SignalID, sig.StoryID)
		}
		found := false
		for _, id := range story.Signals {
			if id == sig.SignalID {
				found = true
			}
		}
		if !found {
			t.Errorf("Seed story %s member list missing %s", story.StoryID, sig.SignalID)
		}
	}
}

func TestCommitPipelineNewStory(t *testing.T) {
	s := New(&models.AppState{}, nil)

	sig := testSignal("sig_100", "story_100")
	story := &models.Story{StoryID: "story_100", Title: "New Cluster", Signals: []string{"sig_100"}}

	if err := s.CommitPipeline(sig, testDraft("d_100", "sig_100"), story, ""); err != nil {
		t.Fatalf("CommitPipeline failed: %v", err)
	}

	if len(s.Signals()) != 1 || len(s.Drafts()) != 1 || len(s.Stories()) != 1 {
		t.Fatalf("Expected 1/1/1 after commit, got %d/%d/%d",
			len(s.Signals()), len(s.Drafts()), len(s.Stories()))
	}
}

func TestCommitPipelinePrependsNewestFirst(t *testing.T) {
	s := New(&models.AppState{}, nil)

	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("sig_%d", i)
		storyID := fmt.Sprintf("story_%d", i)
		err := s.CommitPipeline(
			testSignal(id, storyID),
			testDraft(fmt.Sprintf("d_%d", i), id),
			&models.Story{StoryID: storyID, Signals: []string{id}},
			"",
		)
		if err != nil {
			t.Fatalf("Commit %d failed: %v", i, err)
		}
	}

	signals := s.Signals()
	if signals[0].SignalID != "sig_2" || signals[2].SignalID != "sig_0" {
		t.Errorf("Expected newest-first ordering, got %s..%s", signals[0].SignalID, signals[2].SignalID)
	}
}

func TestCommitPipelineMatchedStoryAppends(t *testing.T) {
	s := New(&models.AppState{
		Stories: []models.Story{{StoryID: "story_1", Title: "Existing", Signals: []string{"sig_old"}}},
	}, nil)

	before := time.Now()
	err := s.CommitPipeline(testSignal("sig_new", "story_1"), testDraft("d_new", "sig_new"), nil, "story_1")
	if err != nil {
		t.Fatalf("CommitPipeline failed: %v", err)
	}

	story, _ := s.Story("story_1")
	if len(story.Signals) != 2 || story.Signals[1] != "sig_new" {
		t.Errorf("Expected sig_new appended, got %v", story.Signals)
	}
	if story.LatestUpdateAt.Before(before) {
		t.Error("Expected latest_update_at bumped on append")
	}
	if len(s.Stories()) != 1 {
		t.Errorf("Matched commit must not add a story, got %d", len(s.Stories()))
	}
}

func TestCommitPipelineVanishedStoryCommitsNothing(t *testing.T) {
	s := New(&models.AppState{}, nil)

	err := s.CommitPipeline(testSignal("sig_x", "story_gone"), testDraft("d_x", "sig_x"), nil, "story_gone")
	if err == nil {
		t.Fatal("Expected error for vanished matched story")
	}

	if len(s.Signals()) != 0 || len(s.Drafts()) != 0 {
		t.Error("Failed commit left partial state")
	}
}

func TestCommitPipelineRequiresStory(t *testing.T) {
	s := New(&models.AppState{}, nil)
	if err := s.CommitPipeline(testSignal("sig_x", ""), testDraft("d_x", "sig_x"), nil, ""); err == nil {
		t.Fatal("Expected error when neither new story nor match is given")
	}
}

func TestPersistenceSnapshotConsistency(t *testing.T) {
	p := &recordingPersister{}
	s := New(&models.AppState{}, p)

	err := s.CommitPipeline(
		testSignal("sig_1", "story_1"),
		testDraft("d_1", "sig_1"),
		&models.Story{StoryID: "story_1", Signals: []string{"sig_1"}},
		"",
	)
	if err != nil {
		t.Fatalf("CommitPipeline failed: %v", err)
	}

	// Persistence is fire-and-forget on a goroutine.
	deadline := time.Now().Add(2 * time.Second)
	for p.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if p.count() == 0 {
		t.Fatal("Commit never persisted")
	}

	var snap models.AppState
	if err := json.Unmarshal(p.last(), &snap); err != nil {
		t.Fatalf("Persisted snapshot not valid JSON: %v", err)
	}
	if len(snap.Signals) != 1 || len(snap.Drafts) != 1 || len(snap.Stories) != 1 {
		t.Errorf("Snapshot incomplete: %d/%d/%d", len(snap.Signals), len(snap.Drafts), len(snap.Stories))
	}
}

func TestPersistenceNeverRegresses(t *testing.T) {
	p := &slowPersister{}
	s := New(&models.AppState{}, p)

	const commits = 20
	for i := 0; i < commits; i++ {
		sigID := fmt.Sprintf("sig_%d", i)
		storyID := fmt.Sprintf("story_%d", i)
		err := s.CommitPipeline(
			testSignal(sigID, storyID),
			testDraft("d_"+sigID, sigID),
			&models.Story{StoryID: storyID, Signals: []string{sigID}},
			"",
		)
		if err != nil {
			t.Fatalf("CommitPipeline %d failed: %v", i, err)
		}
	}

	// The writer coalesces pending saves, so the final persisted
	// snapshot must carry every commit.
	deadline := time.Now().Add(3 * time.Second)
	for {
		var st models.AppState
		if raw := p.last(); raw != nil {
			if err := json.Unmarshal(raw, &st); err != nil {
				t.Fatalf("Persisted snapshot not valid JSON: %v", err)
			}
			if len(st.Signals) == commits {
				break
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("Final snapshot never persisted: last has %d signals", len(st.Signals))
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Saves reach the persister in state order: a snapshot never has
	// fewer signals than the one before it.
	prev := 0
	for i, raw := range p.snapshots() {
		var st models.AppState
		if err := json.Unmarshal(raw, &st); err != nil {
			t.Fatalf("Snapshot %d not valid JSON: %v", i, err)
		}
		if len(st.Signals) < prev {
			t.Fatalf("Snapshot %d regressed to %d signals after %d", i, len(st.Signals), prev)
		}
		prev = len(st.Signals)
	}
}

func TestMutateDraft(t *testing.T) {
	s := New(&models.AppState{
		Drafts: []models.Draft{{DraftID: "d_1", Status: models.DraftStatusDraft}},
	}, nil)

	ok := s.MutateDraft("d_1", func(d *models.Draft) {
		d.Status = models.DraftStatusApproved
	})
	if !ok {
		t.Fatal("MutateDraft returned false for existing draft")
	}
	d, _ := s.Draft("d_1")
	if d.Status != models.DraftStatusApproved {
		t.Errorf("Mutation not applied: %s", d.Status)
	}

	if s.MutateDraft("d_missing", func(d *models.Draft) {}) {
		t.Error("MutateDraft must return false for unknown id")
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	s := New(&models.AppState{
		Signals: []models.Signal{{SignalID: "sig_1", Topic: "original"}},
	}, nil)

	signals := s.Signals()
	signals[0].Topic = "mutated"

	fresh, _ := s.Signal("sig_1")
	if fresh.Topic != "original" {
		t.Error("Signals() leaked a mutable reference to internal state")
	}
}

func TestConcurrentReadsDuringCommits(t *testing.T) {
	s := New(&models.AppState{}, nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			id := fmt.Sprintf("sig_c%d", i)
			storyID := fmt.Sprintf("story_c%d", i)
			_ = s.CommitPipeline(
				testSignal(id, storyID),
				testDraft(fmt.Sprintf("d_c%d", i), id),
				&models.Story{StoryID: storyID, Signals: []string{id}},
				"",
			)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_ = s.Signals()
			_ = s.State()
		}
	}()
	wg.Wait()

	if len(s.Signals()) != 50 {
		t.Errorf("Expected 50 committed signals, got %d", len(s.Signals()))
	}
}
