package models

// Domain is the top-level sector a signal belongs to.
type Domain string

const (
	DomainCrypto   Domain = "Crypto"
	DomainAI       Domain = "AI"
	DomainAICrypto Domain = "AI+Crypto"
)

// SignalType classifies the nature of an observed signal.
type SignalType string

const (
	SignalTypeRumor     SignalType = "rumor"
	SignalTypeEvent     SignalType = "event"
	SignalTypeNarrative SignalType = "narrative"
	SignalTypeData      SignalType = "data"
)

// Lane controls publication urgency.
type Lane string

const (
	LaneFast Lane = "fast"
	LaneSlow Lane = "slow"
)

// Track is the content category a draft is routed to.
type Track string

const (
	TrackTraffic  Track = "traffic"
	TrackResearch Track = "research"
)

// PublishLevel controls how much autonomy publication has.
type PublishLevel string

const (
	PublishAuto   PublishLevel = "auto"
	PublishSemi   PublishLevel = "semi"
	PublishManual PublishLevel = "manual"
)

// VerificationStatus is the outcome of evidentiary verification.
type VerificationStatus string

const (
	VerificationConfirmed   VerificationStatus = "confirmed"
	VerificationPartial     VerificationStatus = "partial"
	VerificationUnconfirmed VerificationStatus = "unconfirmed"
	VerificationFalse       VerificationStatus = "false"
)

// SignalMaturity tracks how developed a signal or story is.
type SignalMaturity string

const (
	MaturityRumor      SignalMaturity = "rumor"
	MaturityDeveloping SignalMaturity = "developing"
	MaturityMatured    SignalMaturity = "matured"
	MaturityStale      SignalMaturity = "stale"
)

// DraftStatus is the review lifecycle state of a draft.
// Published and Rejected are terminal: no further status transition is
// permitted, though rejected drafts may still receive audit entries for
// record-keeping (e.g. manual retraction notes).
type DraftStatus string

const (
	DraftStatusDraft             DraftStatus = "draft"
	DraftStatusNeedsMoreEvidence DraftStatus = "needs_more_evidence"
	DraftStatusApproved          DraftStatus = "approved"
	DraftStatusRejected          DraftStatus = "rejected"
	DraftStatusPublished         DraftStatus = "published"
)

// Terminal reports whether no further status transition is allowed.
func (s DraftStatus) Terminal() bool {
	return s == DraftStatusPublished || s == DraftStatusRejected
}

// StoryStatus is the lifecycle state of a story cluster.
type StoryStatus string

const (
	StoryStatusNew        StoryStatus = "new"
	StoryStatusMonitoring StoryStatus = "monitoring"
	StoryStatusPublished  StoryStatus = "published"
	StoryStatusArchived   StoryStatus = "archived"
	StoryStatusRetracted  StoryStatus = "retracted"
)

// Stance is the directional read of an impact analysis.
type Stance string

const (
	StanceBullish Stance = "bullish"
	StanceBearish Stance = "bearish"
	StanceNeutral Stance = "neutral"
	StanceChaos   Stance = "chaos"
)

// Level is a coarse low/medium/high grading used for time sensitivity and
// discussion volume.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// SourceTier ranks evidence sources. Lower is stronger:
// 1 official/regulatory, 2 tier-1 media, 3 tier-2 media, 4 community.
type SourceTier string

const (
	TierOfficial   SourceTier = "1"
	TierFirstMedia SourceTier = "2"
	TierSecondary  SourceTier = "3"
	TierCommunity  SourceTier = "4"
)

// AuditAction is the closed set of review actions recorded in a draft's
// audit log. Content-only edits are deliberately not part of this set.
type AuditAction string

const (
	AuditApprove     AuditAction = "approve"
	AuditReject      AuditAction = "reject"
	AuditEdit        AuditAction = "edit"
	AuditMerge       AuditAction = "merge"
	AuditSplit       AuditAction = "split"
	AuditCorrect     AuditAction = "correct"
	AuditRegenerate  AuditAction = "regenerate"
	AuditCheckpoint  AuditAction = "checkpoint"
	AuditPublishLink AuditAction = "publish_link"
)

// ClaimType classifies an extracted claim.
type ClaimType string

const (
	ClaimEvent ClaimType = "event"
	ClaimData  ClaimType = "data"
	ClaimQuote ClaimType = "quote"
)
