package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"signal-desk/eventlog"
	"signal-desk/models"
	"signal-desk/oracle"
	"signal-desk/pipeline"
	"signal-desk/realtime"
	"signal-desk/review"
	"signal-desk/store"
)

// stubOracle returns fixed stage outputs; individual stages can be
// overridden per test.
type stubOracle struct {
	classifyErr error
	alphaScore  float64
}

func (s *stubOracle) Classify(ctx context.Context, rawText string) (*oracle.Classification, error) {
	if s.classifyErr != nil {
		return nil, s.classifyErr
	}
	return &oracle.Classification{
		Topic:           "Exchange Listing Rumor",
		Domain:          models.DomainCrypto,
		SignalType:      models.SignalTypeRumor,
		Entities:        []string{"OKX"},
		TimeSensitivity: models.LevelHigh,
		DiscussionLevel: models.LevelMedium,
	}, nil
}

func (s *stubOracle) VerifyClaims(ctx context.Context, topic string, entities []string) (*oracle.Verification, error) {
	return &oracle.Verification{Status: models.VerificationPartial, Confidence: 0.6}, nil
}

func (s *stubOracle) AnalyzeImpact(ctx context.Context, topic, rawText, priorSummary string) (*models.AnalysisOutput, error) {
	alpha := s.alphaScore
	if alpha == 0 {
		alpha = 8
	}
	return &models.AnalysisOutput{AlphaScore: alpha, MarketImpact: "listing pump likely"}, nil
}

func (s *stubOracle) Judge(ctx context.Context, c *oracle.Classification, v *oracle.Verification, a *models.AnalysisOutput) (*models.Routing, error) {
	return &models.Routing{Lane: models.LaneFast, Track: models.TrackTraffic, PublishLevel: models.PublishManual}, nil
}

func (s *stubOracle) GenerateDraft(ctx context.Context, signal *models.Signal, analysis *models.AnalysisOutput, feedback string) (*oracle.DraftContent, error) {
	return &oracle.DraftContent{Content: "draft body"}, nil
}

func (s *stubOracle) ValidateURL(ctx context.Context, url string) (*oracle.URLValidation, error) {
	return &oracle.URLValidation{Valid: true}, nil
}

func (s *stubOracle) SupplementalVerification(ctx context.Context, topic, question string) (string, error) {
	return "nothing new", nil
}

func (s *stubOracle) GeneratePoster(ctx context.Context, topic, marketImpact string) (string, error) {
	return "", errors.New("disabled in tests")
}

func (s *stubOracle) DistillStory(ctx context.Context, story *models.Story, signals []models.Signal) (string, error) {
	return "distilled", nil
}

func (s *stubOracle) DeepDiveReport(ctx context.Context, signal *models.Signal) (string, error) {
	return "report", nil
}

func newTestServer(orc oracle.Oracle) (*Server, *store.Store) {
	st := store.New(&models.AppState{
		Drafts: []models.Draft{
			{DraftID: "d_1", SignalID: "sig_1", Status: models.DraftStatusDraft, AuditLog: []models.ReviewAudit{}},
		},
		Signals: []models.Signal{
			{SignalID: "sig_1", StoryID: "story_1", Topic: "seed"},
		},
		Stories: []models.Story{
			{StoryID: "story_1", Title: "Seed Story", Signals: []string{"sig_1"}},
		},
	}, nil)
	cal := pipeline.NewCalibration(60, 0.05)
	events := eventlog.New(nil, nil)
	broker := realtime.NewBroker()
	go broker.Run()

	orch := pipeline.NewOrchestrator(st, orc, cal, events, nil, broker, false)
	rev := review.NewManager(st, orc, events, nil, broker)
	return NewServer(st, orch, rev, cal, events, broker, nil), st
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIngestAccepted(t *testing.T) {
	srv, st := newTestServer(&stubOracle{})

	rec := doRequest(t, srv, http.MethodPost, "/api/signals", `{"text":"OKX listing rumor circulating"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var result pipeline.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Response not a pipeline result: %v", err)
	}
	if result.Signal.SignalID == "" {
		t.Error("Result missing committed signal")
	}
	if len(st.Signals()) != 2 {
		t.Errorf("Expected 2 signals after ingest, got %d", len(st.Signals()))
	}
}

func TestIngestEmptyTextRejected(t *testing.T) {
	srv, _ := newTestServer(&stubOracle{})
	rec := doRequest(t, srv, http.MethodPost, "/api/signals", `{"text":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestIngestStageFailure(t *testing.T) {
	srv, st := newTestServer(&stubOracle{classifyErr: errors.New("model unavailable")})
	rec := doRequest(t, srv, http.MethodPost, "/api/signals", `{"text":"anything"}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", rec.Code)
	}
	if len(st.Signals()) != 1 {
		t.Error("Failed ingest must not commit")
	}
}

func TestGetReadSurfaces(t *testing.T) {
	srv, _ := newTestServer(&stubOracle{})

	for _, path := range []string{"/api/signals", "/api/drafts", "/api/stories", "/api/state", "/api/tasks", "/api/logs"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestApproveFlow(t *testing.T) {
	srv, st := newTestServer(&stubOracle{})

	rec := doRequest(t, srv, http.MethodPost, "/api/drafts/d_1/approve", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	draft, _ := st.Draft("d_1")
	if draft.Status != models.DraftStatusPublished {
		t.Errorf("Expected published, got %s", draft.Status)
	}

	// Second approve hits a terminal draft.
	rec = doRequest(t, srv, http.MethodPost, "/api/drafts/d_1/approve", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on terminal draft, got %d", rec.Code)
	}
}

func TestApproveUnknownDraft(t *testing.T) {
	srv, _ := newTestServer(&stubOracle{})
	rec := doRequest(t, srv, http.MethodPost, "/api/drafts/d_nope/approve", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestRejectWithReason(t *testing.T) {
	srv, st := newTestServer(&stubOracle{})

	rec := doRequest(t, srv, http.MethodPost, "/api/drafts/d_1/reject", `{"reason":"weak sourcing"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	draft, _ := st.Draft("d_1")
	if draft.Status != models.DraftStatusRejected || draft.AuditLog[0].Reason != "weak sourcing" {
		t.Errorf("Reject not applied: %+v", draft)
	}
}

func TestEditContentRoute(t *testing.T) {
	srv, st := newTestServer(&stubOracle{})

	rec := doRequest(t, srv, http.MethodPut, "/api/drafts/d_1/content", `{"content":"new body"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	draft, _ := st.Draft("d_1")
	if draft.Content != "new body" || len(draft.AuditLog) != 0 {
		t.Errorf("Edit misapplied: %+v", draft)
	}
}

func TestCalibrationRoutes(t *testing.T) {
	srv, _ := newTestServer(&stubOracle{})

	rec := doRequest(t, srv, http.MethodPost, "/api/calibration/adjust",
		`{"type":"impact_threshold","delta":-5,"reason":"queue too quiet"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var state models.CalibrationState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("Bad calibration response: %v", err)
	}
	if state.ImpactThreshold != 55 {
		t.Errorf("Expected threshold 55, got %.1f", state.ImpactThreshold)
	}
	if len(state.AdjustmentLog) != 1 {
		t.Errorf("Expected one adjustment entry, got %d", len(state.AdjustmentLog))
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/calibration/adjust", `{"type":"volume","delta":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown type, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(&stubOracle{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("Unexpected health body: %s", rec.Body.String())
	}
}
