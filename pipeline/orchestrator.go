// Package pipeline drives one raw input through the oracle stages
// (classification, verification, impact analysis, routing judgment,
// draft generation) and commits the resulting Signal/Draft pair to the
// entity store as one atomic unit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"signal-desk/cache"
	"signal-desk/eventlog"
	"signal-desk/models"
	"signal-desk/oracle"
	"signal-desk/store"
)

// ErrPipelineBusy is returned when an invocation is already in flight.
// Backpressure is by rejection: concurrent submissions are refused, not
// queued.
var ErrPipelineBusy = errors.New("pipeline busy: an invocation is already in flight")

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// posterCooldown spaces out image generation for the same topic.
const posterCooldown = 6 * time.Hour

// Broadcaster pushes commit events to connected dashboard clients.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// Result is the outcome of one successful pipeline invocation.
type Result struct {
	RunID   string
	Signal  models.Signal
	Draft   models.Draft
	Gated   bool
	Matched bool
	Elapsed time.Duration
}

// Orchestrator coordinates the oracle stages and the store commit.
// At most one invocation runs per process instance.
type Orchestrator struct {
	store       *store.Store
	oracle      oracle.Oracle
	calibration *Calibration
	events      *eventlog.Log
	cache       *cache.OracleCache // optional
	broker      Broadcaster        // optional

	posterEnabled bool

	// Single-flight guard over the whole invocation including the
	// commit section.
	inflight sync.Mutex
}

// NewOrchestrator wires the pipeline. Cache and broker may be nil.
func NewOrchestrator(st *store.Store, orc oracle.Oracle, cal *Calibration, events *eventlog.Log, oc *cache.OracleCache, broker Broadcaster, posterEnabled bool) *Orchestrator {
	return &Orchestrator{
		store:         st,
		oracle:        orc,
		calibration:   cal,
		events:        events,
		cache:         oc,
		broker:        broker,
		posterEnabled: posterEnabled,
	}
}

// ProcessRawSignal runs one raw input through the full pipeline.
// Returns ErrPipelineBusy when an invocation is already active. On any
// fatal stage failure nothing is committed and the error carries the
// failed stage. Gate rejection is not a failure: the run succeeds with
// an auto-rejected draft.
func (o *Orchestrator) ProcessRawSignal(ctx context.Context, rawText string) (*Result, error) {
	if !o.inflight.TryLock() {
		return nil, ErrPipelineBusy
	}
	defer o.inflight.Unlock()

	runID := uuid.NewString()[:8]
	started := time.Now()

	o.events.Appendf("[ingest %s] source link validation protocol engaged", runID)
	if url := urlPattern.FindString(rawText); url != "" {
		if v, err := o.oracle.ValidateURL(ctx, url); err != nil {
			o.events.Appendf("[warn %s] ❌ source link validation unavailable: %v", runID, err)
		} else if !v.Valid {
			o.events.Appendf("[warn %s] ❌ source link failed credibility check: %s", runID, v.Reason)
		}
	}

	o.events.Appendf("[analysis %s] classifier parsing semantics", runID)
	classification, err := o.classify(ctx, rawText)
	if err != nil {
		return o.fail(runID, err)
	}

	// Story snapshot is taken before the async stages so the match is
	// stable for the whole invocation.
	matchedStory, matched := MatchStory(o.store.Stories(), classification)
	priorSummary := ""
	if matched {
		priorSummary = matchedStory.Summary
	}

	o.events.Appendf("[verify %s] parallel grounding search and stance analysis", runID)
	verification, analysis, err := o.verifyAndAnalyze(ctx, classification, rawText, priorSummary)
	if err != nil {
		return o.fail(runID, err)
	}

	impactScore := analysis.AlphaScore * 10
	gated := o.calibration.Gate(impactScore)
	if gated {
		o.events.Appendf("[silenced %s] impact (%.0f) below threshold (%.0f)", runID, impactScore, o.calibration.Threshold())
	}

	o.events.Appendf("[judge %s] final routing decision", runID)
	routing, err := o.oracle.Judge(ctx, classification, verification, analysis)
	if err != nil {
		return o.fail(runID, fmt.Errorf("judge: %w", err))
	}

	signal := o.assembleSignal(classification, verification, analysis, routing, matchedStory, matched, impactScore)

	o.events.Appendf("[draft %s] generating polished copy", runID)
	draftContent, err := o.oracle.GenerateDraft(ctx, &signal, analysis, "")
	if err != nil {
		return o.fail(runID, fmt.Errorf("draft: %w", err))
	}
	draft := assembleDraft(&signal, routing, draftContent, gated)

	// Poster generation is a best-effort side call for brand-new
	// stories; its failure degrades the run, never fails it.
	var newStory *models.Story
	matchedID := ""
	if matched {
		matchedID = matchedStory.StoryID
	} else {
		posterURL := o.requestPoster(ctx, runID, classification.Topic, analysis.MarketImpact)
		newStory = &models.Story{
			StoryID:        signal.StoryID,
			Title:          classification.Topic,
			Status:         models.StoryStatusNew,
			Signals:        []string{signal.SignalID},
			Maturity:       models.MaturityDeveloping,
			Summary:        analysis.MarketImpact,
			PosterURL:      posterURL,
			LatestUpdateAt: time.Now(),
		}
	}

	if err := o.store.CommitPipeline(signal, draft, newStory, matchedID); err != nil {
		return o.fail(runID, fmt.Errorf("commit: %w", err))
	}

	elapsed := time.Since(started)
	o.events.Appendf("[ready %s] neural processing complete (%dms)", runID, elapsed.Milliseconds())
	if o.broker != nil {
		o.broker.Broadcast("signal_committed", map[string]interface{}{
			"signal_id": signal.SignalID,
			"draft_id":  draft.DraftID,
			"story_id":  signal.StoryID,
			"gated":     gated,
		})
	}

	return &Result{
		RunID:   runID,
		Signal:  signal,
		Draft:   draft,
		Gated:   gated,
		Matched: matched,
		Elapsed: elapsed,
	}, nil
}

// classify runs the classification stage through the response cache.
func (o *Orchestrator) classify(ctx context.Context, rawText string) (*oracle.Classification, error) {
	hash := cache.HashInput(rawText)
	var cached oracle.Classification
	if o.cache.GetStage(ctx, "classify", hash, &cached) {
		return &cached, nil
	}

	c, err := o.oracle.Classify(ctx, rawText)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	_ = o.cache.SetStage(ctx, "classify", hash, c)
	return c, nil
}

// verifyAndAnalyze issues verification and impact analysis concurrently
// and waits for both. Either failure fails the pair; the other result,
// if already available, is discarded.
func (o *Orchestrator) verifyAndAnalyze(ctx context.Context, c *oracle.Classification, rawText, priorSummary string) (*oracle.Verification, *models.AnalysisOutput, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg           sync.WaitGroup
		verification *oracle.Verification
		analysis     *models.AnalysisOutput
		verifyErr    error
		analyzeErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		verification, verifyErr = o.oracle.VerifyClaims(ctx, c.Topic, c.Entities)
		if verifyErr != nil {
			cancel()
		}
	}()
	go func() {
		defer wg.Done()
		analysis, analyzeErr = o.oracle.AnalyzeImpact(ctx, c.Topic, rawText, priorSummary)
		if analyzeErr != nil {
			cancel()
		}
	}()
	wg.Wait()

	if verifyErr != nil {
		return nil, nil, fmt.Errorf("verify: %w", verifyErr)
	}
	if analyzeErr != nil {
		return nil, nil, fmt.Errorf("analyze: %w", analyzeErr)
	}
	return verification, analysis, nil
}

// assembleSignal builds the immutable Signal record from the stage
// outputs. Ids derive from the creation timestamp with fixed per-kind
// prefixes; claim and evidence ids embed the owning signal id.
func (o *Orchestrator) assembleSignal(c *oracle.Classification, v *oracle.Verification, a *models.AnalysisOutput, r *models.Routing, matchedStory models.Story, matched bool, impactScore float64) models.Signal {
	now := time.Now()
	ms := now.UnixMilli()
	signalID := fmt.Sprintf("sig_%d", ms)

	storyID := fmt.Sprintf("story_%d", ms)
	if matched {
		storyID = matchedStory.StoryID
	}

	evidence := make([]models.Evidence, 0, len(v.GroundingChunks))
	for i, chunk := range v.GroundingChunks {
		title := chunk.Title
		if title == "" {
			title = "Evidence Snapshot"
		}
		evidence = append(evidence, models.Evidence{
			EvidenceID: fmt.Sprintf("ev_%s_%d", signalID, i),
			URL:        chunk.URI,
			SourceTier: oracle.URLTier(chunk.URI),
			Title:      title,
			Snippet:    chunk.Text,
			CapturedAt: now,
		})
	}

	return models.Signal{
		SignalID:        signalID,
		StoryID:         storyID,
		ClusterID:       fmt.Sprintf("cluster_%d", ms),
		Topic:           c.Topic,
		Domain:          c.Domain,
		SubSector:       c.SubSector,
		SignalType:      c.SignalType,
		Maturity:        models.MaturityDeveloping,
		TimeSensitivity: c.TimeSensitivity,
		DiscussionLevel: c.DiscussionLevel,
		Entities:        c.Entities,
		Claims: []models.Claim{
			{
				ClaimID:       fmt.Sprintf("cl_%s_0", signalID),
				ClaimText:     c.Topic,
				ClaimType:     models.ClaimEvent,
				Entities:      c.Entities,
				Verifiability: "verifiable",
				Status:        v.Status,
			},
		},
		Evidence:        evidence,
		GroundingChunks: v.GroundingChunks,
		AnalysisOutput:  a,
		AgentReasoning: &models.AgentReasoning{
			Classifier: fmt.Sprintf("classified: %s", c.SubSector),
			Verifier:   fmt.Sprintf("verified: %s", v.Status),
			Analyst:    fmt.Sprintf("alpha: %.1f", a.AlphaScore),
			Judge:      fmt.Sprintf("routed: %s", r.Lane),
		},
		Verdict: models.Verdict{
			Status:            v.Status,
			Confidence:        v.Confidence,
			SupportingSources: v.Sources,
			Contradictions:    []string{},
			WhatWouldConfirm:  []string{v.WhatWouldConfirm},
		},
		Routing:       *r,
		Scores:        o.computeScores(c, v, impactScore),
		CreatedAt:     now,
		ConfigVersion: models.ConfigVersion,
	}
}

// computeScores derives the score bundle from the stage outputs. Impact
// is exactly alpha_score*10, the same value the gate saw.
func (o *Orchestrator) computeScores(c *oracle.Classification, v *oracle.Verification, impactScore float64) models.Scores {
	credibility := clamp((v.Confidence+o.calibration.Bias())*100, 0, 100)

	discussion := 65.0
	switch c.DiscussionLevel {
	case models.LevelLow:
		discussion = 40
	case models.LevelHigh:
		discussion = 85
	}

	novelty := 80.0
	total := math.Round((novelty + credibility + discussion + impactScore) / 4)

	return models.Scores{
		Novelty:     novelty,
		Credibility: math.Round(credibility),
		Discussion:  discussion,
		Impact:      impactScore,
		Total:       total,
	}
}

// assembleDraft builds the Draft record. Gated runs commit the draft
// auto-rejected with the automatic audit entry.
func assembleDraft(signal *models.Signal, r *models.Routing, dc *oracle.DraftContent, gated bool) models.Draft {
	now := time.Now()

	status := models.DraftStatusDraft
	auditLog := []models.ReviewAudit{}
	if gated {
		status = models.DraftStatusRejected
		auditLog = append(auditLog, models.ReviewAudit{
			Action:    models.AuditReject,
			Reason:    "Auto Filter",
			Timestamp: now,
		})
	}

	return models.Draft{
		DraftID:           fmt.Sprintf("d_%d", now.UnixMilli()),
		SignalID:          signal.SignalID,
		Track:             r.Track,
		Status:            status,
		Content:           dc.Content,
		Labels:            dc.Labels,
		CounterCase:       dc.CounterCase,
		FactChecksum:      dc.FactChecksum,
		ThreadItems:       dc.ThreadItems,
		AuditLog:          auditLog,
		RegenerationCount: 0,
		CreatedAt:         now,
		ConfigVersion:     models.ConfigVersion,
	}
}

// requestPoster generates a story poster image best-effort, with a
// cooldown so repeated runs on the same topic do not regenerate it.
func (o *Orchestrator) requestPoster(ctx context.Context, runID, topic, marketImpact string) string {
	if !o.posterEnabled {
		return ""
	}

	topicHash := cache.HashInput(topic)
	if o.cache.InPosterCooldown(ctx, topicHash) {
		return ""
	}

	url, err := o.oracle.GeneratePoster(ctx, topic, marketImpact)
	if err != nil {
		o.events.Appendf("[warn %s] poster generation degraded: %v", runID, err)
		return ""
	}
	_ = o.cache.SetPosterCooldown(ctx, topicHash, posterCooldown)
	return url
}

// fail logs the fatal stage failure. Nothing has been committed.
func (o *Orchestrator) fail(runID string, err error) (*Result, error) {
	o.events.Appendf("[failure %s] ❌ %v", runID, err)
	return nil, err
}
