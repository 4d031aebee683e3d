package vcp

import (
	"VCPSentinel/internal/calculator"
	"VCPSentinel/internal/model"
)

// DetectDemandDry classifies whether volume dried up into the last leg.
//
// The leg fit runs over the daily volumes between the last footprint entry's
// high and low dates. The recent fits run over the last RecentDays bars'
// volume and close. Demand is dry when either volume fit slopes down, unless
// recent volume rises while price falls, which reads as distribution.
// Too few points for any fit leaves IsDry false.
func DetectDemandDry(series *model.PriceSeries, footprint []model.FootprintEntry, p Params) model.DemandDryResult {
	var res model.DemandDryResult
	if len(footprint) == 0 || series.Len() == 0 {
		return res
	}
	last := footprint[len(footprint)-1]
	res.LegStart, res.LegEnd = last.HighDate, last.LowDate
	res.LegVolumes = model.Volumes(series.Between(last.HighDate, last.LowDate))

	recent := series.Tail(p.RecentDays)
	res.RecentStart, res.RecentEnd = recent[0].Date, recent[len(recent)-1].Date
	res.RecentVolumes = model.Volumes(recent)

	var err error
	if res.LegSlope, res.LegIntercept, err = calculator.LinearFit(res.LegVolumes); err != nil {
		return res
	}
	if res.RecentSlope, res.RecentIntercept, err = calculator.LinearFit(res.RecentVolumes); err != nil {
		return res
	}
	if res.RecentPriceSlope, _, err = calculator.LinearFit(model.Closes(recent)); err != nil {
		return res
	}

	res.IsDry = res.LegSlope <= 0 || res.RecentSlope <= 0
	if res.RecentSlope > 0 && res.RecentPriceSlope < 0 {
		res.SellingPressure = true
		res.IsDry = false
	}
	return res
}
