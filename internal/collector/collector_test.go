package collector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VCPSentinel/internal/model"
)

func fp(v float64) *float64 { return &v }

func TestCollector_Collect(t *testing.T) {
	mock := &MockFetcher{Bars: map[string][]model.RawBar{
		"AAA": {
			{Date: "2024-01-02", Close: fp(10), Volume: fp(100)},
			{Date: "2024-01-03", Close: nil, Volume: fp(200)},
		},
	}}
	c := NewCollector(mock, 30)

	series, err := c.Collect(context.Background(), "AAA")
	require.NoError(t, err)
	assert.Equal(t, "AAA", series.Symbol)
	require.Equal(t, 2, series.Len())
	assert.InDelta(t, 10, series.Bars[1].Close, 1e-9, "missing close is forward-filled")
}

func TestCollector_CollectErrors(t *testing.T) {
	t.Run("fetch error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := NewCollector(&MockFetcher{Err: boom}, 30).Collect(context.Background(), "AAA")
		assert.ErrorIs(t, err, boom)
	})
	t.Run("empty", func(t *testing.T) {
		mock := &MockFetcher{Bars: map[string][]model.RawBar{"AAA": {}}}
		_, err := NewCollector(mock, 30).Collect(context.Background(), "AAA")
		assert.ErrorIs(t, err, model.ErrNoData)
	})
	t.Run("unordered", func(t *testing.T) {
		mock := &MockFetcher{Bars: map[string][]model.RawBar{"AAA": {
			{Date: "2024-01-03", Close: fp(1)},
			{Date: "2024-01-02", Close: fp(1)},
		}}}
		_, err := NewCollector(mock, 30).Collect(context.Background(), "AAA")
		assert.ErrorIs(t, err, model.ErrUnorderedDates)
	})
}

func TestGenerateMockBars(t *testing.T) {
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	bars := GenerateMockBars(100, 10, end)
	require.Len(t, bars, 10)
	assert.Equal(t, "2024-06-30", bars[9].Date)
	assert.Equal(t, "2024-06-21", bars[0].Date)

	series, err := model.NewPriceSeries("MOCK", bars)
	require.NoError(t, err)
	assert.Equal(t, 10, series.Len())
}

func TestPrefetch(t *testing.T) {
	mock := &MockFetcher{Price: 50}
	out := Prefetch(context.Background(), mock, []string{"A", "B", "C", "D"}, 20, 2)
	assert.Len(t, out, 4)
	assert.Equal(t, 4, mock.Calls)
	assert.Len(t, out["C"], 20)
}

func TestPrefetch_SkipsFailures(t *testing.T) {
	mock := &MockFetcher{Err: errors.New("down")}
	out := Prefetch(context.Background(), mock, []string{"A", "B"}, 20, 4)
	assert.Empty(t, out)
}

func TestCachedFetcher(t *testing.T) {
	dir := t.TempDir()
	mock := &MockFetcher{Price: 20}
	c, err := NewCachedFetcher(mock, dir, time.Hour)
	require.NoError(t, err)

	first, err := c.FetchDailyBars(context.Background(), "abc", 15)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "ABC_15.json"))

	second, err := c.FetchDailyBars(context.Background(), "abc", 15)
	require.NoError(t, err)
	assert.Equal(t, 1, mock.Calls, "second call served from cache")
	assert.Equal(t, first, second)

	// A different history length is a different entry.
	_, err = c.FetchDailyBars(context.Background(), "abc", 16)
	require.NoError(t, err)
	assert.Equal(t, 2, mock.Calls)
}

func TestCachedFetcher_Expired(t *testing.T) {
	dir := t.TempDir()
	mock := &MockFetcher{Price: 20}
	c, err := NewCachedFetcher(mock, dir, time.Hour)
	require.NoError(t, err)

	_, err = c.FetchDailyBars(context.Background(), "X", 5)
	require.NoError(t, err)
	c.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = c.FetchDailyBars(context.Background(), "X", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, mock.Calls)
}

func TestCachedFetcher_CorruptEntryRefetches(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "X_5.json"), []byte("{not json"), 0o644))
	mock := &MockFetcher{Price: 20}
	c, err := NewCachedFetcher(mock, dir, time.Hour)
	require.NoError(t, err)

	bars, err := c.FetchDailyBars(context.Background(), "X", 5)
	require.NoError(t, err)
	assert.Len(t, bars, 5)
	assert.Equal(t, 1, mock.Calls)
}

func TestGuardedFetcher_OpensAfterFailures(t *testing.T) {
	mock := &MockFetcher{Err: errors.New("provider down")}
	g := NewGuardedFetcher(mock, GuardConfig{ConsecutiveFailures: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := g.FetchDailyBars(context.Background(), "A", 5)
		require.Error(t, err)
	}
	assert.Equal(t, "open", g.State())

	_, err := g.FetchDailyBars(context.Background(), "A", 5)
	require.Error(t, err)
	assert.Equal(t, 2, mock.Calls, "open breaker short-circuits the provider")
}

func TestGuardedFetcher_NoDataKeepsBreakerClosed(t *testing.T) {
	mock := &MockFetcher{Err: model.ErrNoData}
	g := NewGuardedFetcher(mock, GuardConfig{ConsecutiveFailures: 1, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := g.FetchDailyBars(context.Background(), "A", 5)
		assert.ErrorIs(t, err, model.ErrNoData)
	}
	assert.Equal(t, "closed", g.State())
	assert.Equal(t, 3, mock.Calls)
}

func TestGuardedFetcher_CancelledWait(t *testing.T) {
	g := NewGuardedFetcher(&MockFetcher{Price: 1}, GuardConfig{RequestsPerSecond: 0.001, Burst: 1})
	_, err := g.FetchDailyBars(context.Background(), "A", 5)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.FetchDailyBars(ctx, "A", 5)
	assert.Error(t, err)
}

func TestCollector_WarmIsConsumedOnce(t *testing.T) {
	mock := &MockFetcher{Price: 30}
	c := NewCollector(mock, 10)

	n := c.Warm(context.Background(), []string{"A", "B"}, 2)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, mock.Calls)

	_, err := c.Collect(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 2, mock.Calls, "served from prefetch")

	_, err = c.Collect(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 3, mock.Calls)
}
