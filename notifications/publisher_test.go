package notifications

import (
	"testing"

	"signal-desk/database"
	"signal-desk/models"
)

func draftWith(track models.Track, labels []string) models.Draft {
	return models.Draft{DraftID: "d_1", Track: track, Labels: labels}
}

func signalWithRisk(risk float64) models.Signal {
	return models.Signal{SignalID: "sig_1", Routing: models.Routing{RiskScore: risk}}
}

func TestMatchesFilters(t *testing.T) {
	maxRisk := 50.0

	tests := []struct {
		name   string
		hook   database.PublishWebhook
		draft  models.Draft
		signal models.Signal
		want   bool
	}{
		{
			name:   "empty filters match everything",
			hook:   database.PublishWebhook{},
			draft:  draftWith(models.TrackTraffic, nil),
			signal: signalWithRisk(99),
			want:   true,
		},
		{
			name:   "track filter accepts listed track",
			hook:   database.PublishWebhook{Tracks: "traffic, research"},
			draft:  draftWith(models.TrackResearch, nil),
			signal: signalWithRisk(10),
			want:   true,
		},
		{
			name:   "track filter rejects unlisted track",
			hook:   database.PublishWebhook{Tracks: "research"},
			draft:  draftWith(models.TrackTraffic, nil),
			signal: signalWithRisk(10),
			want:   false,
		},
		{
			name:   "label filter needs one overlapping label",
			hook:   database.PublishWebhook{Labels: "Confirmed,Breaking"},
			draft:  draftWith(models.TrackTraffic, []string{"Rumor", "Breaking"}),
			signal: signalWithRisk(10),
			want:   true,
		},
		{
			name:   "label filter rejects disjoint labels",
			hook:   database.PublishWebhook{Labels: "Confirmed"},
			draft:  draftWith(models.TrackTraffic, []string{"Rumor"}),
			signal: signalWithRisk(10),
			want:   false,
		},
		{
			name:   "risk ceiling withholds risky drafts",
			hook:   database.PublishWebhook{MaxRiskScore: &maxRisk},
			draft:  draftWith(models.TrackTraffic, nil),
			signal: signalWithRisk(80),
			want:   false,
		},
		{
			name:   "risk at ceiling passes",
			hook:   database.PublishWebhook{MaxRiskScore: &maxRisk},
			draft:  draftWith(models.TrackTraffic, nil),
			signal: signalWithRisk(50),
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesFilters(&tt.hook, tt.draft, tt.signal); got != tt.want {
				t.Errorf("MatchesFilters = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContainsToken(t *testing.T) {
	if !containsToken(" traffic , research ", "Research") {
		t.Error("Expected case-insensitive trimmed token match")
	}
	if containsToken("traffic", "research") {
		t.Error("Unexpected token match")
	}
}
