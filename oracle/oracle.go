// Package oracle defines the intelligence oracle capability set the
// curation pipeline consumes, and an OpenAI-compatible client
// implementing it. Every call is fallible and non-deterministic in
// output content (not in shape); the pipeline treats the oracle as an
// external collaborator and never depends on the semantics of its
// judgments.
package oracle

import (
	"context"

	"signal-desk/models"
)

// Classification is the classify stage output for one raw input.
type Classification struct {
	Topic           string            `json:"topic"`
	Domain          models.Domain     `json:"domain"`
	SubSector       string            `json:"sub_sector"`
	SignalType      models.SignalType `json:"signal_type"`
	Entities        []string          `json:"entities"`
	TimeSensitivity models.Level      `json:"time_sensitivity"`
	DiscussionLevel models.Level      `json:"discussion_level"`
}

// Verification is the verify-claims stage output.
type Verification struct {
	Status           models.VerificationStatus `json:"status"`
	Confidence       float64                   `json:"confidence"`
	Sources          []string                  `json:"sources"`
	GroundingChunks  []models.GroundingChunk   `json:"grounding_chunks"`
	WhatWouldConfirm string                    `json:"what_would_confirm"`
}

// DraftContent is the generate-draft stage output.
type DraftContent struct {
	Content      string   `json:"content"`
	Labels       []string `json:"labels"`
	CounterCase  string   `json:"counter_case"`
	FactChecksum string   `json:"fact_checksum"`
	ThreadItems  []string `json:"thread_items"`
}

// URLValidation is the validate-url stage output.
type URLValidation struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Oracle is the consumed capability set. Classify, VerifyClaims,
// AnalyzeImpact, Judge and GenerateDraft are fatal stages for the
// pipeline; ValidateURL, GeneratePoster and SupplementalVerification are
// advisory. DistillStory and DeepDiveReport are auxiliary desk features.
type Oracle interface {
	Classify(ctx context.Context, rawText string) (*Classification, error)
	VerifyClaims(ctx context.Context, topic string, entities []string) (*Verification, error)
	AnalyzeImpact(ctx context.Context, topic, rawText, priorSummary string) (*models.AnalysisOutput, error)
	Judge(ctx context.Context, c *Classification, v *Verification, a *models.AnalysisOutput) (*models.Routing, error)
	GenerateDraft(ctx context.Context, signal *models.Signal, analysis *models.AnalysisOutput, feedback string) (*DraftContent, error)
	ValidateURL(ctx context.Context, url string) (*URLValidation, error)
	SupplementalVerification(ctx context.Context, topic, question string) (string, error)
	GeneratePoster(ctx context.Context, topic, marketImpact string) (string, error)
	DistillStory(ctx context.Context, story *models.Story, signals []models.Signal) (string, error)
	DeepDiveReport(ctx context.Context, signal *models.Signal) (string, error)
}
