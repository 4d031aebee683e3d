package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date format used on the data boundary.
const DateLayout = "2006-01-02"

var (
	ErrMalformedDate  = errors.New("malformed bar date")
	ErrUnorderedDates = errors.New("bar dates not strictly ascending")
	ErrNoData         = errors.New("no price data")
)

// RawBar is a daily bar as handed over by a market-data fetcher.
// Nil Close or Volume means the provider had no value for that day.
type RawBar struct {
	Date   string   `json:"date"`
	Open   float64  `json:"open"`
	High   float64  `json:"high"`
	Low    float64  `json:"low"`
	Close  *float64 `json:"close"`
	Volume *float64 `json:"volume"`
}

// Bar is a single repaired daily bar.
type Bar struct {
	Date      time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	HasClose  bool
	HasVolume bool
}

// PriceSeries holds the ordered daily history of one ticker.
type PriceSeries struct {
	Symbol    string
	Bars      []Bar
	FetchedAt time.Time
}

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	return t, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// NewPriceSeries validates raw bars and repairs missing close/volume values
// by forward-filling from the previous bar. A missing value on the first bar
// stays absent and is excluded from aggregates.
func NewPriceSeries(symbol string, raw []RawBar) (*PriceSeries, error) {
	bars := make([]Bar, 0, len(raw))
	for i, rb := range raw {
		date, err := ParseDate(rb.Date)
		if err != nil {
			return nil, fmt.Errorf("%s bar %d: %w", symbol, i, err)
		}
		if i > 0 && !date.After(bars[i-1].Date) {
			return nil, fmt.Errorf("%s bar %d (%s): %w", symbol, i, rb.Date, ErrUnorderedDates)
		}
		b := Bar{Date: date, Open: rb.Open, High: rb.High, Low: rb.Low}
		if rb.Close != nil {
			b.Close, b.HasClose = *rb.Close, true
		} else if i > 0 && bars[i-1].HasClose {
			b.Close, b.HasClose = bars[i-1].Close, true
		}
		if rb.Volume != nil {
			b.Volume, b.HasVolume = *rb.Volume, true
		} else if i > 0 && bars[i-1].HasVolume {
			b.Volume, b.HasVolume = bars[i-1].Volume, true
		}
		bars = append(bars, b)
	}
	return &PriceSeries{Symbol: symbol, Bars: bars, FetchedAt: time.Now()}, nil
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// CurrentPrice returns the close of the most recent bar.
func (s *PriceSeries) CurrentPrice() (float64, bool) {
	if s.Len() == 0 {
		return 0, false
	}
	last := s.Bars[len(s.Bars)-1]
	return last.Close, last.HasClose
}

// LastDate returns the date of the most recent bar.
func (s *PriceSeries) LastDate() (time.Time, bool) {
	if s.Len() == 0 {
		return time.Time{}, false
	}
	return s.Bars[len(s.Bars)-1].Date, true
}

// Until returns the series as it stood at the end of asOf: bars dated after
// asOf are dropped. The bars are shared, not copied.
func (s *PriceSeries) Until(asOf time.Time) *PriceSeries {
	if s.Len() == 0 {
		return s
	}
	hi := sort.Search(len(s.Bars), func(i int) bool { return s.Bars[i].Date.After(asOf) })
	if hi == len(s.Bars) {
		return s
	}
	return &PriceSeries{Symbol: s.Symbol, Bars: s.Bars[:hi:hi], FetchedAt: s.FetchedAt}
}

// indexFrom returns the index of the first bar dated on or after d.
func (s *PriceSeries) indexFrom(d time.Time) int {
	return sort.Search(len(s.Bars), func(i int) bool { return !s.Bars[i].Date.Before(d) })
}

// Between returns the bars dated within [from, to], both ends inclusive.
func (s *PriceSeries) Between(from, to time.Time) []Bar {
	if s.Len() == 0 || to.Before(from) {
		return nil
	}
	lo := s.indexFrom(from)
	hi := sort.Search(len(s.Bars), func(i int) bool { return s.Bars[i].Date.After(to) })
	if lo >= hi {
		return nil
	}
	return s.Bars[lo:hi]
}

// Window returns up to n bars dated on or after start and not after limit.
func (s *PriceSeries) Window(start, limit time.Time, n int) []Bar {
	bars := s.Between(start, limit)
	if len(bars) > n {
		bars = bars[:n]
	}
	return bars
}

// Tail returns the last n bars, or all bars if fewer exist.
func (s *PriceSeries) Tail(n int) []Bar {
	if s.Len() == 0 || n <= 0 {
		return nil
	}
	if n > len(s.Bars) {
		n = len(s.Bars)
	}
	return s.Bars[len(s.Bars)-n:]
}

// Closes extracts the available closes of bars.
func Closes(bars []Bar) []float64 {
	out := make([]float64, 0, len(bars))
	for _, b := range bars {
		if b.HasClose {
			out = append(out, b.Close)
		}
	}
	return out
}

// Volumes extracts the available volumes of bars.
func Volumes(bars []Bar) []float64 {
	out := make([]float64, 0, len(bars))
	for _, b := range bars {
		if b.HasVolume {
			out = append(out, b.Volume)
		}
	}
	return out
}
