package collector

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VCPSentinel/internal/model"
)

func TestRedisCachedFetcher_Hit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	inner := &MockFetcher{Err: errors.New("must not be called")}
	c := &RedisCachedFetcher{Inner: inner, Client: db, TTL: time.Hour}

	bars := []model.RawBar{{Date: "2024-01-02", Close: fp(10), Volume: fp(100)}}
	data, err := json.Marshal(bars)
	require.NoError(t, err)
	mock.ExpectGet("vcpsentinel:bars:AAPL:400").SetVal(string(data))

	got, err := c.FetchDailyBars(context.Background(), "aapl", 400)
	require.NoError(t, err)
	assert.Equal(t, bars, got)
	assert.Equal(t, 0, inner.Calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCachedFetcher_MissStores(t *testing.T) {
	db, mock := redismock.NewClientMock()
	bars := []model.RawBar{{Date: "2024-01-02", Close: fp(10), Volume: fp(100)}}
	inner := &MockFetcher{Bars: map[string][]model.RawBar{"AAPL": bars}}
	c := &RedisCachedFetcher{Inner: inner, Client: db, TTL: time.Hour}

	data, err := json.Marshal(bars)
	require.NoError(t, err)
	mock.ExpectGet("vcpsentinel:bars:AAPL:30").RedisNil()
	mock.ExpectSet("vcpsentinel:bars:AAPL:30", string(data), time.Hour).SetVal("OK")

	got, err := c.FetchDailyBars(context.Background(), "AAPL", 30)
	require.NoError(t, err)
	assert.Equal(t, bars, got)
	assert.Equal(t, 1, inner.Calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCachedFetcher_RedisDownFallsThrough(t *testing.T) {
	db, mock := redismock.NewClientMock()
	bars := []model.RawBar{{Date: "2024-01-02", Close: fp(10), Volume: fp(100)}}
	inner := &MockFetcher{Bars: map[string][]model.RawBar{"AAPL": bars}}
	c := &RedisCachedFetcher{Inner: inner, Client: db, TTL: time.Hour}

	data, err := json.Marshal(bars)
	require.NoError(t, err)
	mock.ExpectGet("vcpsentinel:bars:AAPL:30").SetErr(errors.New("connection refused"))
	mock.ExpectSet("vcpsentinel:bars:AAPL:30", string(data), time.Hour).SetErr(errors.New("connection refused"))

	got, err := c.FetchDailyBars(context.Background(), "AAPL", 30)
	require.NoError(t, err)
	assert.Equal(t, bars, got)
}

func TestRedisCachedFetcher_InnerErrorNotCached(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := &RedisCachedFetcher{Inner: &MockFetcher{Err: model.ErrNoData}, Client: db, TTL: time.Hour}

	mock.ExpectGet("vcpsentinel:bars:ZZZ:30").RedisNil()

	_, err := c.FetchDailyBars(context.Background(), "ZZZ", 30)
	assert.ErrorIs(t, err, model.ErrNoData)
	assert.NoError(t, mock.ExpectationsWereMet())
}
