package pipeline

import (
	"testing"

	"signal-desk/models"
	"signal-desk/oracle"
)

func TestMatchStory(t *testing.T) {
	stories := []models.Story{
		{StoryID: "story_1", Title: "AIAgent Token Ecosystem Launch"},
		{StoryID: "story_2", Title: "Ethereum L2 Scalability Trends 2024"},
	}

	tests := []struct {
		name     string
		topic    string
		entities []string
		wantID   string
		wantOK   bool
	}{
		{
			name:     "topic contained in title case-insensitively",
			topic:    "ethereum l2 scalability",
			entities: nil,
			wantID:   "story_2",
			wantOK:   true,
		},
		{
			name:     "entity substring matches case-sensitively",
			topic:    "Ethereum L2 Spike",
			entities: []string{"Ethereum"},
			wantID:   "story_2",
			wantOK:   true,
		},
		{
			name:     "entity with wrong case does not match",
			topic:    "Ethereum L2 Spike",
			entities: []string{"ethereum"},
			wantOK:   false,
		},
		{
			name:     "first matching story wins",
			topic:    "unrelated",
			entities: []string{"Token", "Ethereum"},
			wantID:   "story_1",
			wantOK:   true,
		},
		{
			name:   "no match",
			topic:  "Bitcoin ETF Flows",
			wantOK: false,
		},
		{
			name:     "empty entity never matches",
			topic:    "Bitcoin ETF Flows",
			entities: []string{""},
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &oracle.Classification{Topic: tt.topic, Entities: tt.entities}
			story, ok := MatchStory(stories, c)
			if ok != tt.wantOK {
				t.Fatalf("MatchStory ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && story.StoryID != tt.wantID {
				t.Errorf("MatchStory id = %s, want %s", story.StoryID, tt.wantID)
			}
		})
	}
}

func TestMatchStoryIdempotent(t *testing.T) {
	stories := []models.Story{
		{StoryID: "story_2", Title: "Ethereum L2 Scalability Trends 2024"},
	}
	c := &oracle.Classification{Topic: "Ethereum L2 Spike", Entities: []string{"Ethereum"}}

	first, ok1 := MatchStory(stories, c)
	second, ok2 := MatchStory(stories, c)
	if !ok1 || !ok2 || first.StoryID != second.StoryID {
		t.Errorf("Repeated matching diverged: (%s,%v) vs (%s,%v)",
			first.StoryID, ok1, second.StoryID, ok2)
	}
}
