package pipeline

import "testing"

func TestGate(t *testing.T) {
	cal := NewCalibration(60, 0.05)

	tests := []struct {
		score float64
		gated bool
	}{
		{0, true},
		{59.9, true},
		{60, false}, // equal passes
		{90, false},
	}
	for _, tt := range tests {
		if got := cal.Gate(tt.score); got != tt.gated {
			t.Errorf("Gate(%.1f) = %v, want %v", tt.score, got, tt.gated)
		}
	}
}

func TestAdjustThresholdClampsAndLogs(t *testing.T) {
	cal := NewCalibration(60, 0.05)

	state := cal.AdjustThreshold(-10, "too many low-value drafts passing")
	if state.ImpactThreshold != 50 {
		t.Errorf("Expected threshold 50, got %.1f", state.ImpactThreshold)
	}

	state = cal.AdjustThreshold(500, "stress")
	if state.ImpactThreshold != 100 {
		t.Errorf("Expected threshold clamped to 100, got %.1f", state.ImpactThreshold)
	}

	if len(state.AdjustmentLog) != 2 {
		t.Fatalf("Expected 2 adjustment entries, got %d", len(state.AdjustmentLog))
	}
	first := state.AdjustmentLog[0]
	if first.Type != "impact_threshold" || first.Delta != "-10.00" {
		t.Errorf("Unexpected first adjustment: %+v", first)
	}
	if first.Reason != "too many low-value drafts passing" {
		t.Errorf("Adjustment lost its reason: %q", first.Reason)
	}
}

func TestAdjustBiasClamps(t *testing.T) {
	cal := NewCalibration(60, 0.05)

	state := cal.AdjustBias(1.0, "over-trusting")
	if state.CredibilityBias != 0.5 {
		t.Errorf("Expected bias clamped to 0.5, got %.2f", state.CredibilityBias)
	}
	state = cal.AdjustBias(-2.0, "under-trusting")
	if state.CredibilityBias != -0.5 {
		t.Errorf("Expected bias clamped to -0.5, got %.2f", state.CredibilityBias)
	}
}

func TestStateReturnsCopy(t *testing.T) {
	cal := NewCalibration(60, 0.05)
	cal.AdjustThreshold(5, "tune")

	state := cal.State()
	state.AdjustmentLog[0].Reason = "mutated"
	state.ImpactThreshold = 0

	fresh := cal.State()
	if fresh.AdjustmentLog[0].Reason != "tune" || fresh.ImpactThreshold != 65 {
		t.Error("State() copy leaked internal references")
	}
}
