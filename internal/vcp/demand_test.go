package vcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VCPSentinel/internal/model"
)

// demandSeries has 20 daily bars; the last leg spans days 5..14.
func demandSeries(t *testing.T, closes, volumes []float64) (*model.PriceSeries, []model.FootprintEntry) {
	t.Helper()
	s := barsSeries(t, closes, volumes)
	fp := []model.FootprintEntry{{HighDate: dayN(5), LowDate: dayN(14), Depth: 0.1}}
	return s, fp
}

func declining(n int, from, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from - float64(i)*step
	}
	return out
}

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestDetectDemandDry_DecliningVolumeFlatPrice(t *testing.T) {
	s, fp := demandSeries(t, flat(20, 50), declining(20, 2e6, 5e4))
	res := DetectDemandDry(s, fp, DefaultParams())

	assert.True(t, res.IsDry)
	assert.False(t, res.SellingPressure)
	assert.Less(t, res.LegSlope, 0.0)
	assert.Less(t, res.RecentSlope, 0.0)
	assert.Len(t, res.LegVolumes, 10)
	assert.Len(t, res.RecentVolumes, 4)
	assert.Equal(t, dayN(5), res.LegStart)
	assert.Equal(t, dayN(14), res.LegEnd)
	assert.Equal(t, dayN(16), res.RecentStart)
	assert.Equal(t, dayN(19), res.RecentEnd)
}

func TestDetectDemandDry_RisingPriceKeepsBaseRule(t *testing.T) {
	vols := declining(20, 2e6, 5e4)
	closes := flat(20, 50)
	for i, v := range []float64{1.0e6, 1.2e6, 1.4e6, 1.6e6} {
		vols[16+i] = v
		closes[16+i] = 50 + float64(i)*5
	}
	s, fp := demandSeries(t, closes, vols)
	res := DetectDemandDry(s, fp, DefaultParams())

	assert.Greater(t, res.RecentSlope, 0.0)
	assert.Greater(t, res.RecentPriceSlope, 0.0)
	assert.False(t, res.SellingPressure)
	assert.True(t, res.IsDry, "leg volume still declines")
}

func TestDetectDemandDry_SellingPressureOverride(t *testing.T) {
	vols := declining(20, 2e6, 5e4)
	closes := flat(20, 50)
	for i, v := range []float64{1.0e6, 1.2e6, 1.4e6, 1.6e6} {
		vols[16+i] = v
		closes[16+i] = 50 - float64(i)*2
	}
	s, fp := demandSeries(t, closes, vols)
	res := DetectDemandDry(s, fp, DefaultParams())

	require.Less(t, res.LegSlope, 0.0, "base rule alone would say dry")
	assert.True(t, res.SellingPressure)
	assert.False(t, res.IsDry)
}

func TestDetectDemandDry_RisingVolumeEverywhere(t *testing.T) {
	vols := declining(20, 1e6, -5e4)
	s, fp := demandSeries(t, flat(20, 50), vols)
	res := DetectDemandDry(s, fp, DefaultParams())
	assert.False(t, res.IsDry)
	assert.False(t, res.SellingPressure, "flat price is not a falling price")
}

func TestDetectDemandDry_DegenerateInputs(t *testing.T) {
	p := DefaultParams()
	s, _ := demandSeries(t, flat(20, 50), declining(20, 2e6, 5e4))

	assert.False(t, DetectDemandDry(s, nil, p).IsDry, "empty footprint")

	single := []model.FootprintEntry{{HighDate: dayN(7), LowDate: dayN(7)}}
	assert.False(t, DetectDemandDry(s, single, p).IsDry, "one-point leg window")

	outside := []model.FootprintEntry{{HighDate: dayN(100), LowDate: dayN(110)}}
	assert.False(t, DetectDemandDry(s, outside, p).IsDry, "empty leg window")

	short := barsSeries(t, []float64{50}, []float64{1e6})
	assert.NotPanics(t, func() {
		assert.False(t, DetectDemandDry(short, []model.FootprintEntry{{HighDate: dayN(0), LowDate: dayN(0)}}, p).IsDry)
	})
}
