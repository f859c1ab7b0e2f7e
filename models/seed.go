package models

import "time"

// StorageKey is the fixed key the curation state blob is persisted under.
const StorageKey = "xagentic_state"

// SeedState returns the fixed seed state used when no saved state exists.
func SeedState() AppState {
	now := time.Now().UTC()

	return AppState{
		Signals: []Signal{
			{
				SignalID:        "sig_1",
				StoryID:         "story_1",
				ClusterID:       "cluster_1",
				Topic:           "Binance Lists New AI Agent Token",
				Domain:          DomainAICrypto,
				SignalType:      SignalTypeEvent,
				Maturity:        MaturityMatured,
				TimeSensitivity: LevelHigh,
				DiscussionLevel: LevelHigh,
				Entities:        []string{"Binance", "AIAgent", "Solana"},
				Claims: []Claim{
					{
						ClaimID:       "c1",
						ClaimText:     "Trading starts at 12:00 UTC",
						ClaimType:     ClaimData,
						Entities:      []string{"Binance"},
						Verifiability: "verifiable",
						Status:        VerificationConfirmed,
					},
				},
				Evidence: []Evidence{
					{
						EvidenceID: "e1",
						URL:        "https://binance.com/announcement",
						SourceTier: TierOfficial,
						Title:      "New Listing",
						Snippet:    "AIAgent (AIA) listing details...",
						CapturedAt: now,
					},
				},
				Verdict: Verdict{
					Status:            VerificationConfirmed,
					Confidence:        0.98,
					SupportingSources: []string{"https://binance.com/announcement"},
					Contradictions:    []string{},
					WhatWouldConfirm:  []string{},
				},
				Routing: Routing{
					Lane:           LaneFast,
					Track:          TrackTraffic,
					PublishLevel:   PublishSemi,
					RiskScore:      10,
					RequiredLabels: []string{"Official"},
					RiskNotes:      []string{},
				},
				Scores:        Scores{Novelty: 90, Credibility: 100, Discussion: 85, Impact: 95, Total: 92},
				CreatedAt:     now,
				ConfigVersion: ConfigVersion,
			},
			{
				SignalID:        "sig_2",
				StoryID:         "story_2",
				ClusterID:       "cluster_2",
				Topic:           "Ethereum L2 Transaction Spike Analysis",
				Domain:          DomainCrypto,
				SignalType:      SignalTypeData,
				Maturity:        MaturityDeveloping,
				TimeSensitivity: LevelMedium,
				DiscussionLevel: LevelMedium,
				Entities:        []string{"Ethereum", "Base", "L2"},
				Claims:          []Claim{},
				Evidence:        []Evidence{},
				Verdict: Verdict{
					Status:            VerificationPartial,
					Confidence:        0.7,
					SupportingSources: []string{},
					Contradictions:    []string{},
					WhatWouldConfirm:  []string{"On-chain verification"},
				},
				Routing: Routing{
					Lane:           LaneSlow,
					Track:          TrackResearch,
					PublishLevel:   PublishManual,
					RiskScore:      25,
					RequiredLabels: []string{"Deep Dive"},
					RiskNotes:      []string{},
				},
				Scores:        Scores{Novelty: 60, Credibility: 80, Discussion: 40, Impact: 70, Total: 62},
				CreatedAt:     now.Add(-1 * time.Hour),
				ConfigVersion: ConfigVersion,
			},
		},
		Drafts: []Draft{
			{
				DraftID:       "d_1",
				SignalID:      "sig_1",
				Track:         TrackTraffic,
				Status:        DraftStatusDraft,
				Content:       "🚨 New Listing: Binance adds $AIAgent. Trading starts 12:00 UTC. Massive liquidity influx expected for Solana AI ecosystem.",
				Labels:        []string{"Confirmed", "Listing"},
				AuditLog:      []ReviewAudit{},
				CreatedAt:     now,
				ConfigVersion: ConfigVersion,
			},
			{
				DraftID:       "d_2",
				SignalID:      "sig_2",
				Track:         TrackResearch,
				Status:        DraftStatusNeedsMoreEvidence,
				Content:       "Ethereum L2 activity is decoupling from L1 costs. Data shows Base transaction volume exceeding L1, but where is the value capture?",
				CounterCase:   "L2 activity might be heavily driven by sybil/bot interactions rather than organic growth.",
				Labels:        []string{"On-chain", "Research"},
				AuditLog:      []ReviewAudit{},
				CreatedAt:     now,
				ConfigVersion: ConfigVersion,
			},
		},
		Stories: []Story{
			{
				StoryID:        "story_1",
				Title:          "AIAgent Token Ecosystem Launch",
				Status:         StoryStatusMonitoring,
				Signals:        []string{"sig_1"},
				Maturity:       MaturityMatured,
				Summary:        "Ongoing launch tracking for AIAgent ecosystem across multiple chains.",
				LatestUpdateAt: now,
			},
			{
				StoryID:        "story_2",
				Title:          "Ethereum L2 Scalability Trends 2024",
				Status:         StoryStatusNew,
				Signals:        []string{"sig_2"},
				Maturity:       MaturityDeveloping,
				Summary:        "Macro view on L2 efficiency and data availability adoption.",
				LatestUpdateAt: now,
			},
		},
	}
}

// SeedTasks returns the default periodic collection task display list.
func SeedTasks() []TaskState {
	now := time.Now()
	return []TaskState{
		{ID: "hot_radar", Label: "Hot Topic Radar", Interval: 30, NextRun: now.Add(30 * time.Minute), Status: "idle"},
		{ID: "official_feed", Label: "Official Announcements", Interval: 5, NextRun: now.Add(5 * time.Minute), Status: "idle"},
		{ID: "rumor_mill", Label: "Rumor Mill", Interval: 15, NextRun: now.Add(15 * time.Minute), Status: "idle"},
	}
}
