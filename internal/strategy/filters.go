package strategy

import (
	"time"

	"VCPSentinel/internal/calculator"
	"VCPSentinel/internal/model"
)

// Alignment is the moving-average stack at one date.
type Alignment struct {
	SMA50     float64
	SMA150    float64
	SMA200    float64
	Required  bool // SMA150 > SMA200
	Preferred bool // SMA50 > SMA150 > SMA200
	Available bool
}

// MAAlignment computes the calendar-window SMA stack at date.
func MAAlignment(series *model.PriceSeries, date time.Time) Alignment {
	var a Alignment
	var err50, err150, err200 error
	a.SMA50, err50 = calculator.CalculateMA50(series, date)
	a.SMA150, err150 = calculator.CalculateMA150(series, date)
	a.SMA200, err200 = calculator.CalculateMA200(series, date)
	if err150 != nil || err200 != nil {
		return a
	}
	a.Available = true
	a.Required = a.SMA150 > a.SMA200
	a.Preferred = err50 == nil && a.SMA50 > a.SMA150 && a.Required
	return a
}

// TrendTemplate passes when price sits above SMA150 and SMA200, SMA150 is
// above SMA200 and SMA200 has risen across the last month, sampled today,
// TrendMidDays ago and TrendPastDays ago.
func TrendTemplate(series *model.PriceSeries, asOf time.Time, p Params) model.TrendCheck {
	asOf = model.Day(asOf)
	var tc model.TrendCheck
	current, ok := series.CurrentPrice()
	tc.CurrentPrice = current

	closes := model.Closes(series.Between(asOf.AddDate(0, 0, -p.PriceTrendDays), asOf))
	if slope, _, err := calculator.LinearFit(closes); err == nil {
		tc.PriceSlope30d = slope
	}

	a := MAAlignment(series, asOf)
	tc.SMA50, tc.SMA150, tc.SMA200 = a.SMA50, a.SMA150, a.SMA200
	tc.RequiredAlignment, tc.PreferredAlignment = a.Required, a.Preferred

	mid, errMid := calculator.CalculateMA200(series, asOf.AddDate(0, 0, -p.TrendMidDays))
	past, errPast := calculator.CalculateMA200(series, asOf.AddDate(0, 0, -p.TrendPastDays))
	tc.SMA200Mid, tc.SMA200Past = mid, past
	if !ok || !a.Available || errMid != nil || errPast != nil {
		return tc
	}
	tc.Available = true
	tc.SMA200Rising = a.SMA200 > mid && mid > past
	tc.Passed = current > a.SMA150 && current > a.SMA200 && a.Required && tc.SMA200Rising
	return tc
}

// VolumeSurge passes when the average volume of the last SurgeDays bars is at
// least SurgeRatio times the average of the BaselineDays bars before them,
// and that baseline is at least MinAvgVolume shares.
func VolumeSurge(series *model.PriceSeries, p Params) model.VolumeCheck {
	var vc model.VolumeCheck
	if series.Len() <= p.SurgeDays {
		return vc
	}
	recent := series.Tail(p.SurgeDays)
	head := &model.PriceSeries{Bars: series.Bars[:series.Len()-p.SurgeDays]}
	baseline := head.Tail(p.BaselineDays)

	recentAvg, errR := calculator.Mean(model.Volumes(recent))
	baseAvg, errB := calculator.Mean(model.Volumes(baseline))
	if errR != nil || errB != nil {
		return vc
	}
	vc.RecentAvg, vc.BaselineAvg = recentAvg, baseAvg
	if baseAvg > 0 {
		vc.Ratio = recentAvg / baseAvg
	}
	vc.Passed = recentAvg >= p.SurgeRatio*baseAvg && baseAvg >= p.MinAvgVolume
	return vc
}

// PricePosition passes when the current price sits at or above
// MinRangePosition of its 52-week close range. A series without a range
// or without a current price fails.
func PricePosition(series *model.PriceSeries, asOf time.Time, p Params) model.PositionCheck {
	var pc model.PositionCheck
	current, ok := series.CurrentPrice()
	if !ok {
		return pc
	}
	pc.Current = current
	high, low, err := calculator.Calculate52WeekRange(series, model.Day(asOf))
	if err != nil {
		return pc
	}
	pc.High52w, pc.Low52w = high, low
	pos, err := calculator.Calculate52WeekPosition(current, high, low)
	if err != nil {
		return pc
	}
	pc.Position = pos
	pc.Passed = pos >= p.MinRangePosition
	return pc
}
