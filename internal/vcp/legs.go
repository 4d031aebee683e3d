package vcp

import (
	"time"

	"VCPSentinel/internal/model"
)

// walkExtreme walks forward one calendar day at a time from start until the
// day before asOf, tracking the running extreme of the rolling swing window.
// The extreme locks once NoImprovementLimit consecutive days fail to beat it.
// The walk also stops early when a window comes back empty. best is the
// running extreme when the walk stopped and found reports whether there is one.
func walkExtreme(series *model.PriceSeries, start, asOf time.Time, dir Direction, p Params) (best model.SwingPoint, found, locked bool) {
	days := int(asOf.Sub(start).Hours() / 24)
	stale := 0
	for i := 0; i < days; i++ {
		pt, ok := FindExtreme(series, start.AddDate(0, 0, i), asOf, dir, p.SwingWindow)
		if !ok {
			return best, found, false
		}
		if !found || better(dir, pt.Price, best.Price) {
			best, found = pt, true
			stale = 0
		} else {
			stale++
		}
		if stale >= p.NoImprovementLimit {
			return best, true, true
		}
	}
	return best, found, false
}

// FindOneLeg locates the next swing high at or after start and the swing low
// that follows it. The high must lock before asOf. The low need not: a leg
// still falling at asOf ends at the lowest close seen so far. Degenerate legs
// whose high equals their low are rejected.
func FindOneLeg(series *model.PriceSeries, start, asOf time.Time, p Params) (model.ContractionLeg, bool) {
	start, asOf = model.Day(start), model.Day(asOf)
	high, _, locked := walkExtreme(series, start, asOf, Max, p)
	if !locked {
		return model.ContractionLeg{}, false
	}
	low, found, _ := walkExtreme(series, high.Date, asOf, Min, p)
	if !found || high.Price == low.Price {
		return model.ContractionLeg{}, false
	}
	return model.ContractionLeg{
		HighDate:  high.Date,
		HighPrice: high.Price,
		LowDate:   low.Date,
		LowPrice:  low.Price,
	}, true
}

// FindAllLegs chains FindOneLeg from start, each search resuming at the
// previous leg's low, until a search fails. The result is always rebuilt
// from scratch.
func FindAllLegs(series *model.PriceSeries, start, asOf time.Time, p Params) []model.ContractionLeg {
	legs := make([]model.ContractionLeg, 0)
	for i := 0; i < MaxLegIterations; i++ {
		leg, ok := FindOneLeg(series, start, asOf, p)
		if !ok {
			break
		}
		legs = append(legs, leg)
		start = leg.LowDate
	}
	return legs
}
