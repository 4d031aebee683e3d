package model

import "time"

// ScreenMode indicates which filter set produced a result.
type ScreenMode string

const (
	ModeFull  ScreenMode = "FULL"
	ModeQuick ScreenMode = "QUICK"
)

// TrendCheck is the moving-average trend template outcome.
type TrendCheck struct {
	Passed             bool    `json:"passed"`
	Available          bool    `json:"available"`
	CurrentPrice       float64 `json:"current_price"`
	SMA50              float64 `json:"sma50"`
	SMA150             float64 `json:"sma150"`
	SMA200             float64 `json:"sma200"`
	SMA200Mid          float64 `json:"sma200_mid"`
	SMA200Past         float64 `json:"sma200_past"`
	RequiredAlignment  bool    `json:"required_alignment"`
	PreferredAlignment bool    `json:"preferred_alignment"`
	SMA200Rising       bool    `json:"sma200_rising"`
	PriceSlope30d      float64 `json:"price_slope_30d"`
}

// VolumeCheck is the recent volume surge outcome.
type VolumeCheck struct {
	Passed      bool    `json:"passed"`
	RecentAvg   float64 `json:"recent_avg"`
	BaselineAvg float64 `json:"baseline_avg"`
	Ratio       float64 `json:"ratio"`
}

// PositionCheck is the 52-week range position outcome.
type PositionCheck struct {
	Passed   bool    `json:"passed"`
	Current  float64 `json:"current"`
	High52w  float64 `json:"high_52w"`
	Low52w   float64 `json:"low_52w"`
	Position float64 `json:"position"`
}

// PivotCheck reports pivot tightness and the support/resistance levels.
type PivotCheck struct {
	Good       bool    `json:"good"`
	Current    float64 `json:"current"`
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
}

// ScreenResult is the per-ticker output of the screening engine.
type ScreenResult struct {
	Symbol         string           `json:"symbol"`
	AsOf           time.Time        `json:"as_of"`
	Mode           ScreenMode       `json:"mode"`
	Signal         bool             `json:"signal"`
	Trend          TrendCheck       `json:"trend"`
	Volume         VolumeCheck      `json:"volume"`
	Position       PositionCheck    `json:"position"`
	Pivot          PivotCheck       `json:"pivot"`
	CorrectionDeep bool             `json:"correction_deep"`
	DemandDry      DemandDryResult  `json:"demand_dry"`
	Legs           []ContractionLeg `json:"legs"`
	Footprint      []FootprintEntry `json:"footprint"`
	Error          string           `json:"error,omitempty"`
	Elapsed        time.Duration    `json:"elapsed"`
}

// Failed builds the not-a-buy result for a ticker whose analysis was rejected.
func Failed(symbol string, asOf time.Time, mode ScreenMode, err error) *ScreenResult {
	return &ScreenResult{Symbol: symbol, AsOf: asOf, Mode: mode, Error: err.Error()}
}
