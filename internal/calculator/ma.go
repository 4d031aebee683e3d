package calculator

import (
	"errors"
	"time"

	"VCPSentinel/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CalendarSMA averages the closes of the bars dated within
// [date-days, date]. Only bars actually present in that calendar window
// count, so holidays and weekends shrink the sample rather than the window.
func CalendarSMA(series *model.PriceSeries, date time.Time, days int) (float64, error) {
	if days <= 0 {
		return 0, errors.New("window must be positive")
	}
	closes := model.Closes(series.Between(date.AddDate(0, 0, -days), date))
	if len(closes) == 0 {
		return 0, model.ErrNoData
	}
	return CalculateSMA(closes, len(closes))
}

// CalculateMA50 returns the 50-calendar-day moving average at date.
func CalculateMA50(series *model.PriceSeries, date time.Time) (float64, error) {
	return CalendarSMA(series, date, 50)
}

// CalculateMA150 returns the 150-calendar-day moving average at date.
func CalculateMA150(series *model.PriceSeries, date time.Time) (float64, error) {
	return CalendarSMA(series, date, 150)
}

// CalculateMA200 returns the 200-calendar-day moving average at date.
func CalculateMA200(series *model.PriceSeries, date time.Time) (float64, error) {
	return CalendarSMA(series, date, 200)
}

// Mean returns the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, model.ErrNoData
	}
	return CalculateSMA(values, len(values))
}
