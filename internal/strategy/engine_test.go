package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VCPSentinel/internal/model"
)

func TestEvaluate_BreakoutCandidate(t *testing.T) {
	res := Evaluate(breakoutSeries(t), dayN(360), DefaultParams())

	assert.Equal(t, "VCPX", res.Symbol)
	assert.Equal(t, model.ModeFull, res.Mode)
	assert.True(t, res.Trend.Passed)
	assert.True(t, res.Volume.Passed)
	assert.True(t, res.Position.Passed)
	require.Len(t, res.Legs, 2)
	require.Len(t, res.Footprint, 2)
	assert.True(t, res.Pivot.Good)
	assert.InDelta(t, 91.0, res.Pivot.Support, 1e-9)
	assert.InDelta(t, 97.0, res.Pivot.Resistance, 1e-9)
	assert.False(t, res.CorrectionDeep)
	assert.True(t, res.DemandDry.IsDry)
	assert.True(t, res.Signal)
}

func TestEvaluate_IgnoresBarsAfterAsOf(t *testing.T) {
	base := breakoutSeries(t)
	closes := append(model.Closes(base.Bars), constant(60, 1)...)
	vols := append(model.Volumes(base.Bars), constant(60, 10)...)
	extended := buildSeries(t, closes, vols)
	require.Equal(t, base.Len()+60, extended.Len())

	want := Evaluate(base, dayN(360), DefaultParams())
	got := Evaluate(extended, dayN(360), DefaultParams())

	assert.InDelta(t, 94.0, got.Position.Current, 1e-9)
	assert.InDelta(t, 94.0, got.Pivot.Current, 1e-9)
	assert.Equal(t, dayN(360), got.DemandDry.RecentEnd)
	assert.Equal(t, want.Trend, got.Trend)
	assert.Equal(t, want.Volume, got.Volume)
	assert.Equal(t, want.Position, got.Position)
	assert.Equal(t, want.Legs, got.Legs)
	assert.Equal(t, want.Pivot, got.Pivot)
	assert.Equal(t, want.DemandDry, got.DemandDry)
	assert.True(t, got.Signal)

	quick := QuickScreen(extended, dayN(360), DefaultParams())
	assert.InDelta(t, 94.0, quick.Position.Current, 1e-9)
	assert.True(t, quick.Volume.Passed)
	assert.True(t, quick.Signal)
}

func TestEvaluate_AnyFailingFilterRejects(t *testing.T) {
	p := DefaultParams()

	tight := p
	tight.Pattern.PivotTightness = 0.05
	res := Evaluate(breakoutSeries(t), dayN(360), tight)
	assert.False(t, res.Pivot.Good)
	assert.False(t, res.Signal)

	shallow := p
	shallow.Pattern.DeepCorrection = 0.1
	res = Evaluate(breakoutSeries(t), dayN(360), shallow)
	assert.True(t, res.CorrectionDeep)
	assert.False(t, res.Signal)

	quiet := breakoutSeries(t)
	for i := quiet.Len() - 3; i < quiet.Len(); i++ {
		quiet.Bars[i].Volume = 1e6
	}
	res = Evaluate(quiet, dayN(360), p)
	assert.False(t, res.Volume.Passed)
	assert.False(t, res.Signal)
}

func TestEvaluate_ShortHistoryFailsClosed(t *testing.T) {
	s := buildSeries(t, []float64{10, 11, 12}, []float64{1e6, 1e6, 1e6})
	var res *model.ScreenResult
	assert.NotPanics(t, func() { res = Evaluate(s, dayN(2), DefaultParams()) })
	assert.False(t, res.Signal)
	assert.Empty(t, res.Legs)
	assert.False(t, res.DemandDry.IsDry)
}

func TestQuickScreen(t *testing.T) {
	res := QuickScreen(breakoutSeries(t), dayN(360), DefaultParams())
	assert.Equal(t, model.ModeQuick, res.Mode)
	assert.True(t, res.Signal)
	assert.Empty(t, res.Legs)
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	bad := DefaultParams()
	bad.TrendPastDays = 10
	assert.Error(t, bad.Validate())

	bad = DefaultParams()
	bad.Pattern.PivotTightness = 0
	assert.Error(t, bad.Validate())

	bad = DefaultParams()
	bad.MinRangePosition = 1.5
	assert.Error(t, bad.Validate())
}
