// Package rediscache fronts read-heavy lookups with redis.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"rahnu-backend/internal/domain/goldprice"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const goldPriceKeyPrefix = "goldprice:active:"

func goldPriceKey(purity string) string { return goldPriceKeyPrefix + purity }

// GoldPriceLookup is a read-through cache over the active quote per
// purity. Redis failures degrade to the backing lookup.
type GoldPriceLookup struct {
	rdb   *redis.Client
	inner goldprice.Lookup
	ttl   time.Duration
	log   zerolog.Logger
}

func NewGoldPriceLookup(rdb *redis.Client, inner goldprice.Lookup, ttl time.Duration, log zerolog.Logger) *GoldPriceLookup {
	return &GoldPriceLookup{rdb: rdb, inner: inner, ttl: ttl, log: log}
}

func (c *GoldPriceLookup) GetActive(ctx context.Context, purity string) (*goldprice.Quote, error) {
	key := goldPriceKey(purity)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var q goldprice.Quote
		if jerr := json.Unmarshal(raw, &q); jerr == nil {
			return &q, nil
		}
		c.log.Warn().Str("key", key).Msg("discarding undecodable cached gold price")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("key", key).Msg("gold price cache read failed")
	}

	q, err := c.inner.GetActive(ctx, purity)
	if err != nil {
		return nil, err
	}
	if payload, jerr := json.Marshal(q); jerr == nil {
		if serr := c.rdb.Set(ctx, key, payload, c.ttl).Err(); serr != nil {
			c.log.Warn().Err(serr).Str("key", key).Msg("gold price cache write failed")
		}
	}
	return q, nil
}

// Invalidate drops the cached quote after a price change.
func (c *GoldPriceLookup) Invalidate(ctx context.Context, purity string) error {
	return c.rdb.Del(ctx, goldPriceKey(purity)).Err()
}
