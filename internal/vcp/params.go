package vcp

import "fmt"

// MaxLegIterations bounds FindAllLegs so it terminates on any input.
const MaxLegIterations = 1000

// Params tunes contraction detection and the pattern checks.
type Params struct {
	SwingWindow        int     `yaml:"swing_window"`         // trading bars scanned per extreme lookup
	NoImprovementLimit int     `yaml:"no_improvement_limit"` // days without a new extreme that lock it
	PivotTightness     float64 `yaml:"pivot_tightness"`      // max depth of the last leg
	DeepCorrection     float64 `yaml:"deep_correction"`      // any leg at or beyond this disqualifies
	RecentDays         int     `yaml:"recent_days"`          // bars in the recent volume/price fit
	LookbackDays       int     `yaml:"lookback_days"`        // calendar days before asOf where leg search starts
}

// DefaultParams returns the stock thresholds.
func DefaultParams() Params {
	return Params{
		SwingWindow:        5,
		NoImprovementLimit: 5,
		PivotTightness:     0.15,
		DeepCorrection:     0.5,
		RecentDays:         4,
		LookbackDays:       60,
	}
}

// Validate checks that all thresholds are usable.
func (p Params) Validate() error {
	if p.SwingWindow < 1 {
		return fmt.Errorf("swing_window must be at least 1, got %d", p.SwingWindow)
	}
	if p.NoImprovementLimit < 1 {
		return fmt.Errorf("no_improvement_limit must be at least 1, got %d", p.NoImprovementLimit)
	}
	if p.PivotTightness <= 0 || p.PivotTightness >= 1 {
		return fmt.Errorf("pivot_tightness must be in (0,1), got %v", p.PivotTightness)
	}
	if p.DeepCorrection <= 0 || p.DeepCorrection > 1 {
		return fmt.Errorf("deep_correction must be in (0,1], got %v", p.DeepCorrection)
	}
	if p.RecentDays < 2 {
		return fmt.Errorf("recent_days must be at least 2, got %d", p.RecentDays)
	}
	if p.LookbackDays < 1 {
		return fmt.Errorf("lookback_days must be positive, got %d", p.LookbackDays)
	}
	return nil
}
