package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestNewPriceSeries_ForwardFill(t *testing.T) {
	raw := []RawBar{
		{Date: "2024-01-02", Close: nil, Volume: nil},
		{Date: "2024-01-03", Close: f(10), Volume: f(100)},
		{Date: "2024-01-04", Close: nil, Volume: nil},
		{Date: "2024-01-05", Close: f(12), Volume: nil},
	}
	s, err := NewPriceSeries("ABC", raw)
	require.NoError(t, err)
	require.Equal(t, 4, s.Len())

	assert.False(t, s.Bars[0].HasClose, "leading gap has nothing to fill from")
	assert.False(t, s.Bars[0].HasVolume)
	assert.True(t, s.Bars[2].HasClose)
	assert.InDelta(t, 10, s.Bars[2].Close, 1e-9)
	assert.InDelta(t, 100, s.Bars[3].Volume, 1e-9)
	assert.InDelta(t, 12, s.Bars[3].Close, 1e-9)

	assert.Equal(t, []float64{10, 10, 12}, Closes(s.Bars))
	assert.Equal(t, []float64{100, 100, 100}, Volumes(s.Bars))
}

func TestNewPriceSeries_Rejects(t *testing.T) {
	_, err := NewPriceSeries("X", []RawBar{{Date: "2024/01/02"}})
	assert.ErrorIs(t, err, ErrMalformedDate)

	_, err = NewPriceSeries("X", []RawBar{{Date: "2024-01-02"}, {Date: "2024-01-02"}})
	assert.ErrorIs(t, err, ErrUnorderedDates)

	_, err = NewPriceSeries("X", []RawBar{{Date: "2024-01-03"}, {Date: "2024-01-02"}})
	assert.ErrorIs(t, err, ErrUnorderedDates)
}

func TestPriceSeries_Accessors(t *testing.T) {
	s, err := NewPriceSeries("ABC", []RawBar{
		{Date: "2024-01-02", Close: f(1)},
		{Date: "2024-01-03", Close: f(2)},
		{Date: "2024-01-05", Close: f(3)},
		{Date: "2024-01-08", Close: f(4)},
	})
	require.NoError(t, err)

	price, ok := s.CurrentPrice()
	assert.True(t, ok)
	assert.InDelta(t, 4, price, 1e-9)

	last, ok := s.LastDate()
	assert.True(t, ok)
	assert.Equal(t, "2024-01-08", FormatDate(last))

	d := func(v string) time.Time { t0, _ := ParseDate(v); return t0 }

	between := s.Between(d("2024-01-03"), d("2024-01-05"))
	assert.Equal(t, []float64{2, 3}, Closes(between))
	assert.Empty(t, s.Between(d("2024-01-06"), d("2024-01-07")))
	assert.Empty(t, s.Between(d("2024-01-05"), d("2024-01-03")))

	assert.Equal(t, []float64{2, 3}, Closes(s.Window(d("2024-01-03"), d("2024-01-31"), 2)))
	assert.Equal(t, []float64{3, 4}, Closes(s.Tail(2)))
	assert.Len(t, s.Tail(10), 4)
	assert.Nil(t, s.Tail(0))
}

func TestPriceSeries_Until(t *testing.T) {
	s, err := NewPriceSeries("ABC", []RawBar{
		{Date: "2024-01-02", Close: f(1)},
		{Date: "2024-01-03", Close: f(2)},
		{Date: "2024-01-05", Close: f(3)},
		{Date: "2024-01-08", Close: f(4)},
	})
	require.NoError(t, err)
	d := func(v string) time.Time { t0, _ := ParseDate(v); return t0 }

	cut := s.Until(d("2024-01-04"))
	assert.Equal(t, "ABC", cut.Symbol)
	assert.Equal(t, []float64{1, 2}, Closes(cut.Bars))
	price, ok := cut.CurrentPrice()
	assert.True(t, ok)
	assert.InDelta(t, 2, price, 1e-9)
	assert.Equal(t, 4, s.Len(), "input series untouched")

	assert.Same(t, s, s.Until(d("2024-01-08")))
	assert.Equal(t, 0, s.Until(d("2023-12-31")).Len())

	var empty *PriceSeries
	assert.Equal(t, 0, empty.Until(d("2024-01-04")).Len())
}

func TestPriceSeries_Empty(t *testing.T) {
	var s *PriceSeries
	assert.Equal(t, 0, s.Len())
	_, ok := s.CurrentPrice()
	assert.False(t, ok)
	_, ok = s.LastDate()
	assert.False(t, ok)
}

func TestDay(t *testing.T) {
	in := time.Date(2024, 3, 4, 23, 59, 0, 0, time.FixedZone("X", 3600))
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Day(in))
}
