package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketweave/confluence/internal/composite"
	"github.com/marketweave/confluence/internal/market"
)

func cacheSnapshot(symbol string) *market.Snapshot {
	return &market.Snapshot{
		Symbol: symbol,
		OHLCV: map[market.Timeframe]market.Series{
			market.TimeframeBase: {
				{Timestamp: time.Unix(1700000000, 0), Close: 100},
				{Timestamp: time.Unix(1700000060, 0), Close: 101},
			},
		},
	}
}

func successResult(symbol string) *composite.Result {
	return &composite.Result{
		Symbol: symbol,
		Score:  61.5,
		Meta:   composite.Meta{Status: composite.StatusSuccess},
	}
}

func TestKey(t *testing.T) {
	a := Key(cacheSnapshot("BTCUSDT"))
	b := Key(cacheSnapshot("BTCUSDT"))
	c := Key(cacheSnapshot("ETHUSDT"))

	assert.Equal(t, a, b, "identical market data shares a key")
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "confluence:result:"))
}

func TestGetMissAndPut(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := New(client, time.Minute, zerolog.Nop())
	snap := cacheSnapshot("BTCUSDT")
	res := successResult("BTCUSDT")
	payload, err := json.Marshal(res)
	require.NoError(t, err)

	mock.ExpectGet(Key(snap)).RedisNil()
	_, ok := c.Get(context.Background(), snap)
	assert.False(t, ok)

	mock.ExpectSet(Key(snap), payload, time.Minute).SetVal("OK")
	c.Put(context.Background(), snap, res)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := New(client, time.Minute, zerolog.Nop())
	snap := cacheSnapshot("BTCUSDT")
	payload, err := json.Marshal(successResult("BTCUSDT"))
	require.NoError(t, err)

	mock.ExpectGet(Key(snap)).SetVal(string(payload))

	got, ok := c.Get(context.Background(), snap)
	require.True(t, ok)
	assert.Equal(t, "BTCUSDT", got.Symbol)
	assert.Equal(t, 61.5, got.Score)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCorruptPayloadIsMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := New(client, time.Minute, zerolog.Nop())
	snap := cacheSnapshot("BTCUSDT")

	mock.ExpectGet(Key(snap)).SetVal("{not json")
	_, ok := c.Get(context.Background(), snap)
	assert.False(t, ok)
}

func TestPutSkipsErrorResults(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := New(client, time.Minute, zerolog.Nop())
	snap := cacheSnapshot("BTCUSDT")

	c.Put(context.Background(), snap, &composite.Result{
		Symbol: "BTCUSDT",
		Meta:   composite.Meta{Status: composite.StatusError},
	})
	c.Put(context.Background(), snap, nil)

	require.NoError(t, mock.ExpectationsWereMet(), "nothing must reach Redis")
}

func TestNilCacheIsInert(t *testing.T) {
	var c *ResultCache
	_, ok := c.Get(context.Background(), cacheSnapshot("BTCUSDT"))
	assert.False(t, ok)
	c.Put(context.Background(), cacheSnapshot("BTCUSDT"), successResult("BTCUSDT"))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := New(client, time.Minute, zerolog.Nop())
	snap := cacheSnapshot("BTCUSDT")

	for i := 0; i < 5; i++ {
		mock.ExpectGet(Key(snap)).SetErr(errors.New("redis down"))
	}
	for i := 0; i < 5; i++ {
		_, ok := c.Get(context.Background(), snap)
		assert.False(t, ok)
	}

	// Breaker is open now: this Get never reaches Redis, so no expectation is
	// needed and none is left unmet.
	_, ok := c.Get(context.Background(), snap)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBreakerIgnoresKeyMisses(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := New(client, time.Minute, zerolog.Nop())
	snap := cacheSnapshot("BTCUSDT")

	// Misses on a healthy Redis are not failures: well past the trip
	// threshold, every Get must still reach Redis.
	for i := 0; i < 8; i++ {
		mock.ExpectGet(Key(snap)).RedisNil()
	}
	for i := 0; i < 8; i++ {
		_, ok := c.Get(context.Background(), snap)
		assert.False(t, ok)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBreakerRecountsAfterSuccessfulMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := New(client, time.Minute, zerolog.Nop())
	snap := cacheSnapshot("BTCUSDT")

	// A miss between transport errors resets the consecutive-failure count,
	// so four errors on either side of it leave the breaker closed.
	for i := 0; i < 4; i++ {
		mock.ExpectGet(Key(snap)).SetErr(errors.New("redis down"))
	}
	mock.ExpectGet(Key(snap)).RedisNil()
	for i := 0; i < 4; i++ {
		mock.ExpectGet(Key(snap)).SetErr(errors.New("redis down"))
	}

	for i := 0; i < 9; i++ {
		_, ok := c.Get(context.Background(), snap)
		assert.False(t, ok)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}
