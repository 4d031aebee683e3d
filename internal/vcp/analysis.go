package vcp

import (
	"time"

	"VCPSentinel/internal/model"
)

// Analysis bundles every structure derived from one series snapshot.
type Analysis struct {
	Start          time.Time
	AsOf           time.Time
	Legs           []model.ContractionLeg
	Footprint      []model.FootprintEntry
	Pivot          model.PivotCheck
	CorrectionDeep bool
	DemandDry      model.DemandDryResult
}

// Analyze runs the pattern pipeline: legs, footprint, then the pivot,
// correction and demand checks. The leg search starts LookbackDays before asOf.
// Bars after asOf are not seen.
func Analyze(series *model.PriceSeries, asOf time.Time, p Params) *Analysis {
	asOf = model.Day(asOf)
	series = series.Until(asOf)
	a := &Analysis{AsOf: asOf, Start: asOf.AddDate(0, 0, -p.LookbackDays)}
	a.Legs = FindAllLegs(series, a.Start, asOf, p)
	a.Footprint = BuildFootprint(a.Legs)
	current, ok := series.CurrentPrice()
	a.Pivot = CheckPivot(a.Legs, a.Footprint, current, ok, p)
	a.CorrectionDeep = IsCorrectionDeep(a.Footprint, p)
	a.DemandDry = DetectDemandDry(series, a.Footprint, p)
	return a
}

// Passed reports whether the pattern side of the composite decision holds.
func (a *Analysis) Passed() bool {
	return a.Pivot.Good && !a.CorrectionDeep && a.DemandDry.IsDry
}
