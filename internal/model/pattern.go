package model

import "time"

// SwingKind tells whether a swing point is a local high or low.
type SwingKind string

const (
	SwingHigh SwingKind = "HIGH"
	SwingLow  SwingKind = "LOW"
)

// SwingPoint is a located local extremum of the close price.
type SwingPoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
	Kind  SwingKind `json:"kind"`
}

// ContractionLeg is one high→low swing. HighDate is never after LowDate and
// HighPrice never equals LowPrice.
type ContractionLeg struct {
	HighDate  time.Time `json:"high_date"`
	HighPrice float64   `json:"high_price"`
	LowDate   time.Time `json:"low_date"`
	LowPrice  float64   `json:"low_price"`
}

// FootprintEntry is the relative depth of one leg.
type FootprintEntry struct {
	HighDate time.Time `json:"high_date"`
	LowDate  time.Time `json:"low_date"`
	Depth    float64   `json:"depth"`
}

// DemandDryResult holds the volume regressions behind the demand dry-up check.
// SellingPressure is set when rising recent volume meets a falling price.
type DemandDryResult struct {
	IsDry            bool      `json:"is_dry"`
	LegStart         time.Time `json:"leg_start"`
	LegEnd           time.Time `json:"leg_end"`
	LegVolumes       []float64 `json:"leg_volumes"`
	LegSlope         float64   `json:"leg_slope"`
	LegIntercept     float64   `json:"leg_intercept"`
	RecentStart      time.Time `json:"recent_start"`
	RecentEnd        time.Time `json:"recent_end"`
	RecentVolumes    []float64 `json:"recent_volumes"`
	RecentSlope      float64   `json:"recent_slope"`
	RecentIntercept  float64   `json:"recent_intercept"`
	RecentPriceSlope float64   `json:"recent_price_slope"`
	SellingPressure  bool      `json:"selling_pressure"`
}
