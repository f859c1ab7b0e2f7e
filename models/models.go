// Package models defines the curation entity model shared across the
// signal-desk pipeline, store, review workflow, and API.
//
// Entity relationships:
//   - A Signal is one classified, scored, evidence-backed observation.
//   - A Story clusters signals believed to report the same situation;
//     every signal's StoryID must reference exactly one story whose
//     Signals list contains that signal's id.
//   - A Draft is the publishable artifact derived from exactly one Signal.
//
// Identity scheme: ids are derived from a creation timestamp with a fixed
// prefix per entity kind (sig_, story_, cluster_, d_), and claim/evidence
// ids are prefixed by their owning signal (cl_<sig>_<n>, ev_<sig>_<n>) so
// every item is traceable to its owner.
package models

import "time"

// ConfigVersion is stamped on every Signal and Draft for forward
// compatibility tracking across state snapshots.
const ConfigVersion = "v1.0.1"

// ReviewAudit is one append-only entry in a draft's audit trail.
// Reason is set for reject-style actions, Feedback for regeneration.
type ReviewAudit struct {
	Action    AuditAction `json:"action"`
	Reason    string      `json:"reason,omitempty"`
	Feedback  string      `json:"feedback,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// GroundingChunk is one retrieved grounding fragment backing verification.
type GroundingChunk struct {
	SourceID  string  `json:"source_id,omitempty"`
	Text      string  `json:"text"`
	Relevance float64 `json:"relevance"`
	URI       string  `json:"uri,omitempty"`
	Title     string  `json:"title,omitempty"`
}

// Claim is an atomic assertion extracted from a signal during
// classification. Claims are never deleted; their status may later be
// corrected by operator action.
type Claim struct {
	ClaimID        string             `json:"claim_id"`
	ClaimText      string             `json:"claim_text"`
	ClaimType      ClaimType          `json:"claim_type"`
	Entities       []string           `json:"entities"`
	Verifiability  string             `json:"verifiability"` // verifiable, unverifiable
	Status         VerificationStatus `json:"status"`
	ManualVerified bool               `json:"manual_verified,omitempty"`
}

// Evidence is a grounding artifact captured during verification.
// Starred is the only field mutated after creation.
type Evidence struct {
	EvidenceID string     `json:"evidence_id"`
	URL        string     `json:"url"`
	SourceTier SourceTier `json:"source_tier"`
	Title      string     `json:"title"`
	Snippet    string     `json:"snippet"`
	CapturedAt time.Time  `json:"captured_at"`
	Starred    bool       `json:"starred,omitempty"`
}

// AnalysisOutput is the impact analysis stage result carried on a signal.
// AlphaScore is on a 0-10 scale; the derived impact score is AlphaScore*10.
type AnalysisOutput struct {
	KeyChanges          string   `json:"key_changes"`
	MarketImpact        string   `json:"market_impact"`
	NarrativeImpact     string   `json:"narrative_impact"`
	AffectedAssets      []string `json:"affected_assets"`
	Stance              Stance   `json:"stance"`
	StanceReasoning     string   `json:"stance_reasoning,omitempty"`
	RecommendedAction   string   `json:"recommended_action,omitempty"`
	AlphaScore          float64  `json:"alpha_score"`
	NarrativeAffinity   float64  `json:"narrative_affinity,omitempty"`
	WhatWouldChangeMind string   `json:"what_would_change_mind,omitempty"`
}

// Verdict summarizes the verification stage outcome for a signal.
type Verdict struct {
	Status            VerificationStatus `json:"status"`
	Confidence        float64            `json:"confidence"`
	SupportingSources []string           `json:"supporting_sources"`
	Contradictions    []string           `json:"contradictions"`
	WhatWouldConfirm  []string           `json:"what_would_confirm"`
}

// Routing is the judge stage output: where and how a draft may publish.
type Routing struct {
	Lane           Lane         `json:"lane"`
	Track          Track        `json:"track"`
	PublishLevel   PublishLevel `json:"publish_level"`
	RiskScore      float64      `json:"risk_score"`
	RequiredLabels []string     `json:"required_labels"`
	RiskNotes      []string     `json:"risk_notes"`
	ProjectedReach string       `json:"projected_reach,omitempty"`
}

// Scores bundles the per-signal quality scores (0-100 scale).
// Impact is derived as AnalysisOutput.AlphaScore * 10 and must stay
// consistent with the value used for gating at creation time.
type Scores struct {
	Novelty     float64 `json:"novelty"`
	Credibility float64 `json:"credibility"`
	Discussion  float64 `json:"discussion"`
	Impact      float64 `json:"impact"`
	Total       float64 `json:"total"`
}

// AgentReasoning keeps the short per-stage rationale strings for display.
type AgentReasoning struct {
	Classifier string `json:"classifier,omitempty"`
	Verifier   string `json:"verifier,omitempty"`
	Analyst    string `json:"analyst,omitempty"`
	Judge      string `json:"judge,omitempty"`
}

// Signal is an observed, classified event/rumor/narrative/data point.
// SignalID is immutable and unique for the process lifetime.
type Signal struct {
	SignalID        string           `json:"signal_id"`
	StoryID         string           `json:"story_id"`
	ClusterID       string           `json:"cluster_id"`
	Topic           string           `json:"topic"`
	Domain          Domain           `json:"domain"`
	SubSector       string           `json:"sub_sector,omitempty"`
	SignalType      SignalType       `json:"signal_type"`
	Maturity        SignalMaturity   `json:"maturity"`
	TimeSensitivity Level            `json:"time_sensitivity"`
	DiscussionLevel Level            `json:"discussion_level"`
	Entities        []string         `json:"entities"`
	Claims          []Claim          `json:"claims"`
	Evidence        []Evidence       `json:"evidence"`
	GroundingChunks []GroundingChunk `json:"grounding_chunks,omitempty"`
	AnalysisOutput  *AnalysisOutput  `json:"analysis_output,omitempty"`
	AgentReasoning  *AgentReasoning  `json:"agent_reasoning,omitempty"`
	Verdict         Verdict          `json:"verdict"`
	Routing         Routing          `json:"routing"`
	Scores          Scores           `json:"scores"`
	CreatedAt       time.Time        `json:"created_at"`
	ConfigVersion   string           `json:"config_version"`
}

// EngagementMetrics holds post-publication performance numbers.
type EngagementMetrics struct {
	Impressions int64 `json:"impressions"`
	Likes       int64 `json:"likes"`
	Retweets    int64 `json:"retweets"`
	Bookmarks   int64 `json:"bookmarks"`
}

// Draft is the human-reviewable publishable artifact derived from a
// Signal. Once published, content is immutable except for appended
// performance metrics; RegenerationCount is monotonically non-decreasing.
type Draft struct {
	DraftID           string             `json:"draft_id"`
	SignalID          string             `json:"signal_id"`
	Track             Track              `json:"track"`
	Status            DraftStatus        `json:"status"`
	Content           string             `json:"content"`
	Labels            []string           `json:"labels"`
	CounterCase       string             `json:"counter_case,omitempty"`
	FactChecksum      string             `json:"fact_checksum,omitempty"`
	ThreadItems       []string           `json:"thread_items,omitempty"`
	AuditLog          []ReviewAudit      `json:"audit_log"`
	RegenerationCount int                `json:"regeneration_count"`
	Performance       *EngagementMetrics `json:"performance,omitempty"`
	PublishedAt       *time.Time         `json:"published_at,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	ConfigVersion     string             `json:"config_version"`
}

// Story clusters signals believed to report the same underlying
// situation. Signals holds member signal ids by reference (lookup only).
type Story struct {
	StoryID        string         `json:"story_id"`
	Title          string         `json:"title"`
	Status         StoryStatus    `json:"status"`
	Signals        []string       `json:"signals"`
	Maturity       SignalMaturity `json:"maturity"`
	Summary        string         `json:"summary"`
	DistilledNote  string         `json:"distilled_note,omitempty"`
	PosterURL      string         `json:"poster_url,omitempty"`
	VideoURL       string         `json:"video_url,omitempty"`
	LatestUpdateAt time.Time      `json:"latest_update_at"`
}

// CalibrationAdjustment is one append-only provenance entry recording a
// threshold or bias change.
type CalibrationAdjustment struct {
	Type      string    `json:"type"`
	Delta     string    `json:"delta"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CalibrationState is the process-wide gating tunable. It is mutated only
// by the calibration engine in response to operator feedback or scheduled
// recalibration, never silently.
type CalibrationState struct {
	ImpactThreshold  float64                 `json:"impact_threshold"`
	CredibilityBias  float64                 `json:"credibility_bias"`
	LastCalibratedAt time.Time               `json:"last_calibrated_at"`
	AdjustmentLog    []CalibrationAdjustment `json:"adjustment_log"`
}

// TaskState describes one periodic collection task. Display-only state:
// the desk shows the schedule, it does not execute it.
type TaskState struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Interval int       `json:"interval"` // minutes
	NextRun  time.Time `json:"next_run"`
	Status   string    `json:"status"` // idle, running, boosted, degraded
}

// AppState is the full curation state persisted as one JSON blob.
type AppState struct {
	Signals []Signal `json:"signals"`
	Drafts  []Draft  `json:"drafts"`
	Stories []Story  `json:"stories"`
}
