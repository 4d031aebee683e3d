package vcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VCPSentinel/internal/model"
)

func legsOf(pairs ...float64) []model.ContractionLeg {
	legs := make([]model.ContractionLeg, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		legs = append(legs, model.ContractionLeg{
			HighDate:  dayN(i * 10),
			HighPrice: pairs[i],
			LowDate:   dayN(i*10 + 5),
			LowPrice:  pairs[i+1],
		})
	}
	return legs
}

func TestBuildFootprint_DepthInUnitRange(t *testing.T) {
	legs := legsOf(100, 80, 95, 88, 50, 0.5, 10, 9.99)
	fp := BuildFootprint(legs)
	require.Len(t, fp, len(legs))
	for i, f := range fp {
		assert.GreaterOrEqual(t, f.Depth, 0.0)
		assert.LessOrEqual(t, f.Depth, 1.0)
		assert.Equal(t, legs[i].HighDate, f.HighDate)
		assert.Equal(t, legs[i].LowDate, f.LowDate)
	}
	assert.InDelta(t, 0.2, fp[0].Depth, 1e-12)
	assert.Empty(t, BuildFootprint(nil))
}

func TestIsCorrectionDeep(t *testing.T) {
	p := DefaultParams()
	tests := []struct {
		name   string
		depths []float64
		want   bool
	}{
		{"empty", nil, false},
		{"all shallow", []float64{0.2, 0.1, 0.05}, false},
		{"exactly at threshold", []float64{0.1, 0.5}, true},
		{"deep early leg", []float64{0.6, 0.1, 0.05}, true},
		{"just below", []float64{0.4999}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := make([]model.FootprintEntry, len(tt.depths))
			for i, d := range tt.depths {
				fp[i].Depth = d
			}
			assert.Equal(t, tt.want, IsCorrectionDeep(fp, p))
		})
	}
}

func TestCheckPivot(t *testing.T) {
	p := DefaultParams()
	legs := legsOf(100, 80, 95, 88)
	fp := BuildFootprint(legs)

	pc := CheckPivot(legs, fp, 91, true, p)
	assert.True(t, pc.Good)
	assert.Equal(t, 91.0, pc.Current)
	assert.Equal(t, 88.0, pc.Support)
	assert.Equal(t, 95.0, pc.Resistance)

	assert.False(t, CheckPivot(legs, fp, 88, true, p).Good, "price must be strictly above support")
	assert.False(t, CheckPivot(legs, fp, 91, false, p).Good, "no current price")
	assert.False(t, CheckPivot(nil, nil, 91, true, p).Good, "no legs")

	loose := legsOf(100, 80)
	assert.False(t, CheckPivot(loose, BuildFootprint(loose), 90, true, p).Good, "last leg too deep")
}

func TestCheckPivot_TwoContractionsFromSeries(t *testing.T) {
	s := pathSeries(t, []anchor{{0, 70}, {10, 100}, {20, 80}, {30, 95}, {38, 88}, {42, 91}, {60, 91}})
	p := DefaultParams()
	legs := FindAllLegs(s, dayN(0), dayN(60), p)
	require.Len(t, legs, 2)
	fp := BuildFootprint(legs)
	require.Less(t, fp[1].Depth, fp[0].Depth)
	require.LessOrEqual(t, fp[1].Depth, p.PivotTightness)

	current, ok := s.CurrentPrice()
	require.True(t, ok)
	pc := CheckPivot(legs, fp, current, ok, p)
	assert.True(t, pc.Good)
	assert.InDelta(t, 88.0, pc.Support, 1e-9)
	assert.False(t, IsCorrectionDeep(fp, p))
}
