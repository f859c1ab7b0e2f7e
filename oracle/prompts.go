package oracle

import (
	"fmt"
	"strings"

	"signal-desk/models"
)

// Constants for prompt sizing
const (
	maxDraftWords   = 120
	maxReportWords  = 400
	maxStorySignals = 8
)

// FormatClassifyPrompt creates the classification prompt for one raw input
func FormatClassifyPrompt(rawText string) string {
	var sb strings.Builder
	sb.Grow(1024 + len(rawText))

	sb.WriteString("Classify the following raw market/news signal.\n\n")
	sb.WriteString("Input:\n\"\"\"\n")
	sb.WriteString(rawText)
	sb.WriteString("\n\"\"\"\n\n")
	sb.WriteString("Return JSON with fields:\n")
	sb.WriteString("- topic: short headline-style topic\n")
	sb.WriteString("- domain: one of \"Crypto\", \"AI\", \"AI+Crypto\"\n")
	sb.WriteString("- sub_sector: e.g. L2, DeFi, LLM infra\n")
	sb.WriteString("- signal_type: one of \"rumor\", \"event\", \"narrative\", \"data\"\n")
	sb.WriteString("- entities: array of named entities (projects, companies, chains)\n")
	sb.WriteString("- time_sensitivity: \"low\" | \"medium\" | \"high\"\n")
	sb.WriteString("- discussion_level: \"low\" | \"medium\" | \"high\"\n")

	return sb.String()
}

// FormatVerifyPrompt creates the claim verification prompt
func FormatVerifyPrompt(topic string, entities []string) string {
	var sb strings.Builder
	sb.Grow(1024)

	sb.WriteString(fmt.Sprintf("Verify the claim behind this topic: **%s**\n", topic))
	if len(entities) > 0 {
		sb.WriteString(fmt.Sprintf("Involved entities: %s\n", strings.Join(entities, ", ")))
	}
	sb.WriteString("\nSearch your knowledge for corroborating or contradicting coverage.\n")
	sb.WriteString("Return JSON with fields:\n")
	sb.WriteString("- status: \"confirmed\" | \"partial\" | \"unconfirmed\" | \"false\"\n")
	sb.WriteString("- confidence: number 0.0-1.0\n")
	sb.WriteString("- sources: array of source URLs\n")
	sb.WriteString("- grounding_chunks: array of {uri, title, text, relevance}\n")
	sb.WriteString("- what_would_confirm: one sentence on what evidence would settle it\n")

	return sb.String()
}

// FormatAnalyzePrompt creates the market impact analysis prompt
func FormatAnalyzePrompt(topic, rawText, priorSummary string) string {
	var sb strings.Builder
	sb.Grow(1024 + len(rawText))

	sb.WriteString(fmt.Sprintf("Analyze the market and narrative impact of: **%s**\n\n", topic))
	sb.WriteString("Raw input:\n\"\"\"\n")
	sb.WriteString(rawText)
	sb.WriteString("\n\"\"\"\n")
	if priorSummary != "" {
		sb.WriteString("\nPrior story context:\n")
		sb.WriteString(priorSummary)
		sb.WriteString("\n")
	}
	sb.WriteString("\nReturn JSON with fields:\n")
	sb.WriteString("- key_changes: what is actually new here\n")
	sb.WriteString("- market_impact: expected price/liquidity effect\n")
	sb.WriteString("- narrative_impact: effect on the prevailing narrative\n")
	sb.WriteString("- affected_assets: array of tickers/projects\n")
	sb.WriteString("- stance: \"bullish\" | \"bearish\" | \"neutral\" | \"chaos\"\n")
	sb.WriteString("- stance_reasoning: one sentence\n")
	sb.WriteString("- alpha_score: number 0-10, how actionable/novel this is\n")
	sb.WriteString("- what_would_change_mind: one sentence\n")

	return sb.String()
}

// FormatJudgePrompt creates the routing judgment prompt
func FormatJudgePrompt(c *Classification, v *Verification, a *models.AnalysisOutput) string {
	var sb strings.Builder
	sb.Grow(1024)

	sb.WriteString("Decide publication routing for a curated signal.\n\n")
	sb.WriteString(fmt.Sprintf("Topic: %s (%s / %s)\n", c.Topic, c.Domain, c.SubSector))
	sb.WriteString(fmt.Sprintf("Signal type: %s | time sensitivity: %s | discussion: %s\n", c.SignalType, c.TimeSensitivity, c.DiscussionLevel))
	sb.WriteString(fmt.Sprintf("Verification: %s (confidence %.2f)\n", v.Status, v.Confidence))
	sb.WriteString(fmt.Sprintf("Analysis: stance %s, alpha score %.1f\n", a.Stance, a.AlphaScore))
	sb.WriteString(fmt.Sprintf("Market impact: %s\n", a.MarketImpact))

	sb.WriteString("\nRouting rules:\n")
	sb.WriteString("- lane \"fast\" for time-critical confirmed events, \"slow\" otherwise\n")
	sb.WriteString("- track \"traffic\" for broad-appeal updates, \"research\" for deep analysis\n")
	sb.WriteString("- publish_level \"auto\" only for confirmed low-risk signals, \"semi\" or \"manual\" otherwise\n")

	sb.WriteString("\nReturn JSON with fields:\n")
	sb.WriteString("- lane, track, publish_level\n")
	sb.WriteString("- risk_score: number 0-100\n")
	sb.WriteString("- required_labels: array of labels the post must carry (e.g. \"Rumor\", \"Official\")\n")
	sb.WriteString("- risk_notes: array of short risk notes\n")

	return sb.String()
}

// FormatDraftPrompt creates the polished draft generation prompt
func FormatDraftPrompt(signal *models.Signal, analysis *models.AnalysisOutput, feedback string) string {
	var sb strings.Builder
	sb.Grow(2048)

	sb.WriteString(fmt.Sprintf("Write a publishable post for the **%s** track about: **%s**\n\n", signal.Routing.Track, signal.Topic))
	sb.WriteString(fmt.Sprintf("Verification status: %s (confidence %.2f)\n", signal.Verdict.Status, signal.Verdict.Confidence))
	if analysis != nil {
		sb.WriteString(fmt.Sprintf("Stance: %s\n", analysis.Stance))
		sb.WriteString(fmt.Sprintf("Key changes: %s\n", analysis.KeyChanges))
		sb.WriteString(fmt.Sprintf("Market impact: %s\n", analysis.MarketImpact))
	}
	if len(signal.Routing.RequiredLabels) > 0 {
		sb.WriteString(fmt.Sprintf("Required labels: %s\n", strings.Join(signal.Routing.RequiredLabels, ", ")))
	}
	if feedback != "" {
		sb.WriteString("\nOperator feedback on the previous draft (address it):\n")
		sb.WriteString(feedback)
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("\nKeep the post under %d words, sharp and data-led. No hype words.\n", maxDraftWords))
	sb.WriteString("Return JSON with fields:\n")
	sb.WriteString("- content: the post text\n")
	sb.WriteString("- labels: array of content labels\n")
	sb.WriteString("- counter_case: one-paragraph strongest counter-argument\n")
	sb.WriteString("- fact_checksum: comma-separated list of the hard facts used\n")
	sb.WriteString("- thread_items: array of 0-3 follow-up thread posts\n")

	return sb.String()
}

// FormatValidateURLPrompt creates the source link validation prompt
func FormatValidateURLPrompt(url string) string {
	var sb strings.Builder
	sb.Grow(512)

	sb.WriteString(fmt.Sprintf("Assess whether this source link is plausible and trustworthy for market intelligence: %s\n\n", url))
	sb.WriteString("Consider domain reputation, URL structure, and typosquatting.\n")
	sb.WriteString("Return JSON with fields:\n")
	sb.WriteString("- valid: boolean\n")
	sb.WriteString("- reason: short reason when invalid\n")

	return sb.String()
}

// FormatSupplementalPrompt creates the advisory supplemental verification prompt
func FormatSupplementalPrompt(topic, question string) string {
	var sb strings.Builder
	sb.Grow(512)

	sb.WriteString(fmt.Sprintf("Supplemental verification for topic: **%s**\n\n", topic))
	sb.WriteString("Operator question:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer concisely, citing what is known and what remains unverified.")

	return sb.String()
}

// FormatDistillPrompt creates the story distillation prompt
func FormatDistillPrompt(story *models.Story, signals []models.Signal) string {
	var sb strings.Builder
	sb.Grow(1024 + len(signals)*120)

	sb.WriteString(fmt.Sprintf("Distill the story **%s** into an updated one-paragraph summary.\n\n", story.Title))
	sb.WriteString(fmt.Sprintf("Current summary: %s\n\n", story.Summary))
	sb.WriteString("Member signals (newest first):\n")
	for i, s := range signals {
		if i >= maxStorySignals {
			break
		}
		sb.WriteString(fmt.Sprintf("%d. [%s/%s] %s (impact %.0f)\n", i+1, s.SignalType, s.Verdict.Status, s.Topic, s.Scores.Impact))
	}
	sb.WriteString("\nWrite the distilled note: what is established, what is still rumor, what to watch next.")

	return sb.String()
}

// FormatDeepDivePrompt creates the deep-dive report prompt
func FormatDeepDivePrompt(signal *models.Signal) string {
	var sb strings.Builder
	sb.Grow(1024)

	sb.WriteString(fmt.Sprintf("Produce a deep-dive research note on: **%s**\n\n", signal.Topic))
	sb.WriteString(fmt.Sprintf("Classification: %s / %s / %s\n", signal.Domain, signal.SubSector, signal.SignalType))
	sb.WriteString(fmt.Sprintf("Verdict: %s (confidence %.2f)\n", signal.Verdict.Status, signal.Verdict.Confidence))
	if signal.AnalysisOutput != nil {
		sb.WriteString(fmt.Sprintf("Analysis stance: %s | alpha %.1f\n", signal.AnalysisOutput.Stance, signal.AnalysisOutput.AlphaScore))
	}
	if len(signal.Evidence) > 0 {
		sb.WriteString("\nEvidence on file:\n")
		for i, e := range signal.Evidence {
			sb.WriteString(fmt.Sprintf("%d. [tier %s] %s - %s\n", i+1, e.SourceTier, e.Title, e.URL))
		}
	}
	sb.WriteString(fmt.Sprintf("\nStructure: context, what changed, second-order effects, open risks. Maximum %d words.", maxReportWords))

	return sb.String()
}

// FormatPosterPrompt creates the story poster image prompt
func FormatPosterPrompt(topic, marketImpact string) string {
	return fmt.Sprintf(
		"Minimal editorial poster for a market intelligence story titled %q. Theme: %s. Dark background, restrained typography, no text artifacts.",
		topic, marketImpact,
	)
}
