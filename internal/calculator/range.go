package calculator

import (
	"errors"
	"math"
	"time"

	"VCPSentinel/internal/model"
)

var ErrNoRange = errors.New("high equals low, no price range")

// Calculate52WeekRange returns the highest and lowest close of the bars dated
// within the 365 calendar days up to asOf.
func Calculate52WeekRange(series *model.PriceSeries, asOf time.Time) (high, low float64, err error) {
	return CloseRange(series.Between(asOf.AddDate(-1, 0, 0), asOf))
}

// CloseRange scans bars and returns the highest and lowest close.
func CloseRange(bars []model.Bar) (high, low float64, err error) {
	closes := model.Closes(bars)
	if len(closes) == 0 {
		return 0, 0, errors.New("no closes provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, c := range closes {
		if c > high {
			high = c
		}
		if c < low {
			low = c
		}
	}
	return high, low, nil
}

// Calculate52WeekPosition returns where the current price sits within the range.
// The value is not clamped: above 1 means the price broke out of the range.
func Calculate52WeekPosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0, ErrNoRange
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	return (current - low) / (high - low), nil
}
