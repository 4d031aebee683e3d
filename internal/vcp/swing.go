package vcp

import (
	"time"

	"VCPSentinel/internal/model"
)

// Direction selects which extreme FindExtreme looks for.
type Direction int

const (
	Max Direction = iota
	Min
)

func (d Direction) kind() model.SwingKind {
	if d == Max {
		return model.SwingHigh
	}
	return model.SwingLow
}

// FindExtreme returns the highest (Max) or lowest (Min) close among the first
// window trading bars dated on or after start and not after asOf. Near asOf
// the window may hold fewer bars and the extreme of those is returned. Ties
// go to the earliest bar. ok is false when the series is shorter than window
// or no bar with a close falls in range, which callers read as "no more data".
func FindExtreme(series *model.PriceSeries, start, asOf time.Time, dir Direction, window int) (model.SwingPoint, bool) {
	if window < 1 || series.Len() < window {
		return model.SwingPoint{}, false
	}
	var (
		best  model.Bar
		found bool
	)
	for _, b := range series.Window(start, asOf, window) {
		if !b.HasClose {
			continue
		}
		if !found || better(dir, b.Close, best.Close) {
			best, found = b, true
		}
	}
	if !found {
		return model.SwingPoint{}, false
	}
	return model.SwingPoint{Date: best.Date, Price: best.Close, Kind: dir.kind()}, true
}

func better(dir Direction, candidate, current float64) bool {
	if dir == Max {
		return candidate > current
	}
	return candidate < current
}
