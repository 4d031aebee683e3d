package strategy

import (
	"time"

	"VCPSentinel/internal/model"
	"VCPSentinel/internal/vcp"
)

// Evaluate runs every filter over one series snapshot and combines them.
// The signal holds only when the trend template, volume surge, price
// position, pivot, correction depth and demand dry-up checks all pass.
// Missing data fails the affected filter and never aborts the decision.
// Bars dated after asOf are ignored by every filter.
func Evaluate(series *model.PriceSeries, asOf time.Time, p Params) *model.ScreenResult {
	asOf = model.Day(asOf)
	series = series.Until(asOf)
	res := QuickScreen(series, asOf, p)
	res.Mode = model.ModeFull

	a := vcp.Analyze(series, asOf, p.Pattern)
	res.Legs = a.Legs
	res.Footprint = a.Footprint
	res.Pivot = a.Pivot
	res.CorrectionDeep = a.CorrectionDeep
	res.DemandDry = a.DemandDry

	res.Signal = res.Signal && a.Passed()
	return res
}

// QuickScreen applies only the trend, volume and price-position filters,
// skipping pattern detection.
func QuickScreen(series *model.PriceSeries, asOf time.Time, p Params) *model.ScreenResult {
	asOf = model.Day(asOf)
	series = series.Until(asOf)
	res := &model.ScreenResult{
		Symbol:   series.Symbol,
		AsOf:     asOf,
		Mode:     model.ModeQuick,
		Trend:    TrendTemplate(series, asOf, p),
		Volume:   VolumeSurge(series, p),
		Position: PricePosition(series, asOf, p),
	}
	res.Signal = res.Trend.Passed && res.Volume.Passed && res.Position.Passed
	return res
}
