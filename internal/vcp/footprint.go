package vcp

import "VCPSentinel/internal/model"

// BuildFootprint derives the relative depth of every leg, in order.
func BuildFootprint(legs []model.ContractionLeg) []model.FootprintEntry {
	out := make([]model.FootprintEntry, len(legs))
	for i, leg := range legs {
		var depth float64
		if leg.HighPrice != 0 {
			depth = (leg.HighPrice - leg.LowPrice) / leg.HighPrice
		}
		out[i] = model.FootprintEntry{HighDate: leg.HighDate, LowDate: leg.LowDate, Depth: depth}
	}
	return out
}

// CheckPivot reports whether the last leg is tight enough and the current
// price still holds above its low. It fails closed on missing inputs.
func CheckPivot(legs []model.ContractionLeg, footprint []model.FootprintEntry, current float64, hasCurrent bool, p Params) model.PivotCheck {
	if len(legs) == 0 || len(footprint) == 0 {
		return model.PivotCheck{Current: current}
	}
	last := legs[len(legs)-1]
	pc := model.PivotCheck{
		Current:    current,
		Support:    last.LowPrice,
		Resistance: last.HighPrice,
	}
	if !hasCurrent {
		return pc
	}
	pc.Good = footprint[len(footprint)-1].Depth <= p.PivotTightness && current > last.LowPrice
	return pc
}

// IsCorrectionDeep reports whether any leg corrected by DeepCorrection or more.
func IsCorrectionDeep(footprint []model.FootprintEntry, p Params) bool {
	if len(footprint) == 0 {
		return false
	}
	deepest := footprint[0].Depth
	for _, f := range footprint[1:] {
		if f.Depth > deepest {
			deepest = f.Depth
		}
	}
	return deepest >= p.DeepCorrection
}
