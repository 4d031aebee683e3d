package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"VCPSentinel/internal/model"
)

var day0 = time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)

func dayN(n int) time.Time { return day0.AddDate(0, 0, n) }

type anchor struct {
	day   int
	price float64
}

func interpolate(anchors []anchor) []float64 {
	last := anchors[len(anchors)-1].day
	out := make([]float64, last+1)
	for k := 0; k < len(anchors)-1; k++ {
		a, b := anchors[k], anchors[k+1]
		for d := a.day; d <= b.day; d++ {
			out[d] = a.price + float64(d-a.day)/float64(b.day-a.day)*(b.price-a.price)
		}
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func buildSeries(t *testing.T, closes, volumes []float64) *model.PriceSeries {
	t.Helper()
	require.Equal(t, len(closes), len(volumes))
	raw := make([]model.RawBar, len(closes))
	for i := range closes {
		c, v := closes[i], volumes[i]
		raw[i] = model.RawBar{Date: model.FormatDate(dayN(i)), Open: c, High: c, Low: c, Close: &c, Volume: &v}
	}
	s, err := model.NewPriceSeries("VCPX", raw)
	require.NoError(t, err)
	return s
}

// breakoutSeries is a year-long uptrend that ends in two contracting legs
// (days 310→320 and 330→338), a flat handle at 94 and a volume surge over
// the last three sessions. asOf is day 360.
func breakoutSeries(t *testing.T) *model.PriceSeries {
	t.Helper()
	closes := interpolate([]anchor{
		{0, 40}, {300, 95}, {310, 100}, {320, 85}, {330, 97}, {338, 91}, {342, 94}, {360, 94},
	})
	vols := constant(len(closes), 1e6)
	for d := 330; d <= 338; d++ {
		vols[d] = 1e6 - float64(d-330)*5e4
	}
	for d := 358; d <= 360; d++ {
		vols[d] = 2e6
	}
	return buildSeries(t, closes, vols)
}
