package vcp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"VCPSentinel/internal/model"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func dayN(n int) time.Time { return day0.AddDate(0, 0, n) }

type anchor struct {
	day   int
	price float64
}

// pathSeries builds one bar per calendar day, linearly interpolating the
// close between anchors. Volume defaults to a constant 1e6.
func pathSeries(t *testing.T, anchors []anchor) *model.PriceSeries {
	t.Helper()
	last := anchors[len(anchors)-1].day
	closes := make([]float64, last+1)
	for k := 0; k < len(anchors)-1; k++ {
		a, b := anchors[k], anchors[k+1]
		for d := a.day; d <= b.day; d++ {
			frac := float64(d-a.day) / float64(b.day-a.day)
			closes[d] = a.price + frac*(b.price-a.price)
		}
	}
	vols := make([]float64, len(closes))
	for i := range vols {
		vols[i] = 1e6
	}
	return barsSeries(t, closes, vols)
}

func barsSeries(t *testing.T, closes, volumes []float64) *model.PriceSeries {
	t.Helper()
	raw := make([]model.RawBar, len(closes))
	for i := range closes {
		c, v := closes[i], volumes[i]
		raw[i] = model.RawBar{
			Date:   model.FormatDate(dayN(i)),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  &c,
			Volume: &v,
		}
	}
	s, err := model.NewPriceSeries("TEST", raw)
	require.NoError(t, err)
	return s
}
