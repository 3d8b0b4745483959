package redis

import (
	"context"
	"encoding/json"
	"time"

	"travel-planner-client/internal/domain/model"
	"travel-planner-client/internal/domain/ports/repository"
)

var _ repository.AggregateCache = (*AggregateCache)(nil)

// Sealer encrypts entries at rest. Aggregates carry user emails.
type Sealer interface {
	Seal(plain []byte, label string) ([]byte, error)
	Open(sealed []byte, label string) ([]byte, error)
}

// AggregateCache stores computed per-user aggregates as JSON under their
// content key. Entries expire after ttl.
type AggregateCache struct {
	client RedisClient
	ttl    time.Duration
	sealer Sealer
}

type AggregateCacheOption func(*AggregateCache)

// WithSealer encrypts every entry, bound to its key.
func WithSealer(s Sealer) AggregateCacheOption {
	return func(c *AggregateCache) { c.sealer = s }
}

func NewAggregateCache(client RedisClient, ttl time.Duration, opts ...AggregateCacheOption) *AggregateCache {
	c := &AggregateCache{client: client, ttl: ttl}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *AggregateCache) Get(ctx context.Context, key string) ([]model.UserAggregate, bool, error) {
	data, err := c.client.Get(ctx, key)
	if IsMiss(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	raw := []byte(data)
	if c.sealer != nil {
		if raw, err = c.sealer.Open(raw, key); err != nil {
			// rotated key or tampered entry
			return nil, false, nil
		}
	}
	var aggs []model.UserAggregate
	if err := json.Unmarshal(raw, &aggs); err != nil {
		// a corrupt entry is a miss; the next Set overwrites it
		return nil, false, nil
	}
	return aggs, true, nil
}

func (c *AggregateCache) Set(ctx context.Context, key string, aggs []model.UserAggregate) error {
	data, err := json.Marshal(aggs)
	if err != nil {
		return err
	}
	if c.sealer != nil {
		if data, err = c.sealer.Seal(data, key); err != nil {
			return err
		}
	}
	return c.client.Set(ctx, key, data, c.ttl)
}
