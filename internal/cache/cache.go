// Package cache memoizes composite results in Redis, keyed by the snapshot's
// market-data fingerprint. The cache is purely additive: scoring is idempotent
// and side-effect free, so every cache failure, including Redis being down,
// degrades to recomputation. A circuit breaker keeps a dead Redis from adding
// latency to every scoring pass.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/marketweave/confluence/internal/composite"
	"github.com/marketweave/confluence/internal/market"
)

const keyPrefix = "confluence:result:"

// ResultCache is a read-through cache for composite results.
type ResultCache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// New builds a cache around an existing Redis client.
func New(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *ResultCache {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "result-cache",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A key miss is a healthy round trip; only transport errors count
		// against the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("cache breaker state change")
		},
	})
	return &ResultCache{client: client, ttl: ttl, breaker: breaker, log: logger}
}

// Key derives the cache key for a snapshot: a digest of symbol, timeframe
// coverage, and last bar timestamps. Two snapshots with identical market data
// share a key by construction.
func Key(snap *market.Snapshot) string {
	sum := sha256.Sum256([]byte(snap.Fingerprint()))
	return keyPrefix + hex.EncodeToString(sum[:16])
}

// Get returns the cached result for a snapshot, if any. Every error path is a
// miss.
func (c *ResultCache) Get(ctx context.Context, snap *market.Snapshot) (*composite.Result, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	payload, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Get(ctx, Key(snap)).Bytes()
	})
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Debug().Err(err).Msg("cache get failed")
		}
		return nil, false
	}
	var result composite.Result
	if err := json.Unmarshal(payload.([]byte), &result); err != nil {
		c.log.Debug().Err(err).Msg("cache payload corrupt, ignoring")
		return nil, false
	}
	return &result, true
}

// Put stores a result best-effort; only SUCCESS results are worth keeping.
func (c *ResultCache) Put(ctx context.Context, snap *market.Snapshot, result *composite.Result) {
	if c == nil || c.client == nil || result == nil || result.Meta.Status != composite.StatusSuccess {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		c.log.Debug().Err(err).Msg("cache marshal failed")
		return
	}
	if _, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, Key(snap), payload, c.ttl).Err()
	}); err != nil {
		c.log.Debug().Err(err).Msg("cache put failed")
	}
}
