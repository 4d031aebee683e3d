package strategy

import (
	"fmt"

	"VCPSentinel/internal/vcp"
)

// Params holds every threshold of the screen.
type Params struct {
	Pattern vcp.Params `yaml:"pattern"`

	// SMA200 is sampled TrendMidDays and TrendPastDays before asOf.
	TrendMidDays   int `yaml:"trend_mid_days"`
	TrendPastDays  int `yaml:"trend_past_days"`
	PriceTrendDays int `yaml:"price_trend_days"`

	SurgeDays    int     `yaml:"surge_days"`
	BaselineDays int     `yaml:"baseline_days"`
	SurgeRatio   float64 `yaml:"surge_ratio"`
	MinAvgVolume float64 `yaml:"min_avg_volume"`

	MinRangePosition float64 `yaml:"min_range_position"`
}

// DefaultParams returns the stock thresholds.
func DefaultParams() Params {
	return Params{
		Pattern:          vcp.DefaultParams(),
		TrendMidDays:     15,
		TrendPastDays:    30,
		PriceTrendDays:   30,
		SurgeDays:        3,
		BaselineDays:     200,
		SurgeRatio:       1.3,
		MinAvgVolume:     100000,
		MinRangePosition: 0.75,
	}
}

// Validate checks that all thresholds are usable.
func (p Params) Validate() error {
	if err := p.Pattern.Validate(); err != nil {
		return fmt.Errorf("pattern: %w", err)
	}
	if p.TrendMidDays <= 0 || p.TrendPastDays <= p.TrendMidDays {
		return fmt.Errorf("trend sample days must satisfy 0 < mid < past, got %d/%d", p.TrendMidDays, p.TrendPastDays)
	}
	if p.PriceTrendDays < 2 {
		return fmt.Errorf("price_trend_days must be at least 2, got %d", p.PriceTrendDays)
	}
	if p.SurgeDays < 1 || p.BaselineDays < 1 {
		return fmt.Errorf("surge_days and baseline_days must be positive")
	}
	if p.SurgeRatio <= 0 {
		return fmt.Errorf("surge_ratio must be positive, got %v", p.SurgeRatio)
	}
	if p.MinAvgVolume < 0 {
		return fmt.Errorf("min_avg_volume must not be negative")
	}
	if p.MinRangePosition < 0 || p.MinRangePosition > 1 {
		return fmt.Errorf("min_range_position must be in [0,1], got %v", p.MinRangePosition)
	}
	return nil
}
