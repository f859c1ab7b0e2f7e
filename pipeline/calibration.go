package pipeline

import (
	"fmt"
	"sync"
	"time"

	"signal-desk/models"
)

// Calibration bounds
const (
	minImpactThreshold = 0.0
	maxImpactThreshold = 100.0
	minCredibilityBias = -0.5
	maxCredibilityBias = 0.5
)

// Calibration maintains the acceptance threshold and credibility bias
// used for auto-gating. The gate itself is a pure threshold comparison;
// state changes happen only through explicit Adjust calls, each recorded
// in the append-only adjustment log.
type Calibration struct {
	mu    sync.RWMutex
	state models.CalibrationState
}

// NewCalibration creates calibration state with the given defaults.
func NewCalibration(impactThreshold, credibilityBias float64) *Calibration {
	return &Calibration{
		state: models.CalibrationState{
			ImpactThreshold:  clamp(impactThreshold, minImpactThreshold, maxImpactThreshold),
			CredibilityBias:  clamp(credibilityBias, minCredibilityBias, maxCredibilityBias),
			LastCalibratedAt: time.Now(),
			AdjustmentLog:    []models.CalibrationAdjustment{},
		},
	}
}

// Gate reports whether an impact score (0-100) falls below the current
// threshold. A gated signal still completes the pipeline; its draft is
// committed auto-rejected. Strict comparison: a score equal to the
// threshold passes.
func (c *Calibration) Gate(impactScore float64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return impactScore < c.state.ImpactThreshold
}

// Threshold returns the current impact threshold.
func (c *Calibration) Threshold() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.ImpactThreshold
}

// Bias returns the current credibility bias.
func (c *Calibration) Bias() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.CredibilityBias
}

// State returns a copy of the calibration state including the
// adjustment log.
func (c *Calibration) State() models.CalibrationState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := c.state
	out.AdjustmentLog = make([]models.CalibrationAdjustment, len(c.state.AdjustmentLog))
	copy(out.AdjustmentLog, c.state.AdjustmentLog)
	return out
}

// AdjustThreshold shifts the impact threshold by delta, clamped to
// [0,100], and records provenance. Operator or scheduled recalibration
// only; the pipeline itself never adjusts.
func (c *Calibration) AdjustThreshold(delta float64, reason string) models.CalibrationState {
	return c.adjust("impact_threshold", delta, reason, func(s *models.CalibrationState) {
		s.ImpactThreshold = clamp(s.ImpactThreshold+delta, minImpactThreshold, maxImpactThreshold)
	})
}

// AdjustBias shifts the credibility bias by delta, clamped to
// [-0.5,0.5], and records provenance.
func (c *Calibration) AdjustBias(delta float64, reason string) models.CalibrationState {
	return c.adjust("credibility_bias", delta, reason, func(s *models.CalibrationState) {
		s.CredibilityBias = clamp(s.CredibilityBias+delta, minCredibilityBias, maxCredibilityBias)
	})
}

func (c *Calibration) adjust(kind string, delta float64, reason string, apply func(*models.CalibrationState)) models.CalibrationState {
	c.mu.Lock()
	defer c.mu.Unlock()

	apply(&c.state)
	c.state.LastCalibratedAt = time.Now()
	c.state.AdjustmentLog = append(c.state.AdjustmentLog, models.CalibrationAdjustment{
		Type:      kind,
		Delta:     fmt.Sprintf("%+.2f", delta),
		Reason:    reason,
		Timestamp: c.state.LastCalibratedAt,
	})

	out := c.state
	out.AdjustmentLog = make([]models.CalibrationAdjustment, len(c.state.AdjustmentLog))
	copy(out.AdjustmentLog, c.state.AdjustmentLog)
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
