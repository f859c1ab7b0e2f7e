package database

import (
	"testing"
)

// Deactivating a webhook and clearing its filters must reach the row
// even though false and "" are Go zero values.
func TestUpdateColumnsWritesZeroValues(t *testing.T) {
	hook := &PublishWebhook{
		ID:     7,
		Name:   "ops",
		URL:    "https://hooks.example.com/ops",
		Active: false,
		Tracks: "",
		Labels: "",
	}

	cols := updateColumns(hook)

	tests := []struct {
		column string
		want   interface{}
	}{
		{"active", false},
		{"tracks", ""},
		{"labels", ""},
		{"auth_value", ""},
		{"name", "ops"},
		{"url", "https://hooks.example.com/ops"},
		{"retry_count", 0},
	}
	for _, tt := range tests {
		got, ok := cols[tt.column]
		if !ok {
			t.Errorf("Column %q missing from update set", tt.column)
			continue
		}
		if got != tt.want {
			t.Errorf("Column %q = %v, want %v", tt.column, got, tt.want)
		}
	}

	// Identity and bookkeeping columns are never part of an update.
	for _, column := range []string{"id", "created_at", "last_triggered_at"} {
		if _, ok := cols[column]; ok {
			t.Errorf("Column %q must not be updatable", column)
		}
	}
}

func TestUpdateColumnsCoversRiskCeiling(t *testing.T) {
	ceiling := 70.0
	cols := updateColumns(&PublishWebhook{ID: 1, MaxRiskScore: &ceiling})
	got, ok := cols["max_risk_score"].(*float64)
	if !ok || got == nil || *got != 70.0 {
		t.Errorf("max_risk_score not carried: %v", cols["max_risk_score"])
	}

	// A nil ceiling clears the column rather than being skipped.
	cols = updateColumns(&PublishWebhook{ID: 1})
	got, ok = cols["max_risk_score"].(*float64)
	if !ok || got != nil {
		t.Errorf("nil max_risk_score must clear the column, got %v", cols["max_risk_score"])
	}
}
