package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Alias1177/SalesPredictor/models"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces cached predictions
const KeyPrefix = "prediction:"

// ErrNotCached is returned by RedisLookup for unknown ids
var ErrNotCached = errors.New("prediction not cached")

// Cache is the subset of redis.Cmdable used here
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// NewRedisClient connects to addr and pings it
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return client, nil
}

// RedisSink caches the latest event per sales_id
type RedisSink struct {
	cache Cache
	ttl   time.Duration
}

// NewRedisSink creates a sink; ttl 0 keeps keys forever
func NewRedisSink(cache Cache, ttl time.Duration) *RedisSink {
	return &RedisSink{cache: cache, ttl: ttl}
}

// Notify stores the event. Events without a sales_id cannot be looked up and are skipped.
func (s *RedisSink) Notify(ctx context.Context, event models.PredictionEvent) error {
	id := event.Prediction.SalesID.String()
	if id == "" {
		return nil
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding prediction event: %w", err)
	}
	if err := s.cache.Set(ctx, KeyPrefix+id, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("caching prediction %s: %w", id, err)
	}
	return nil
}

// RedisLookup reads events cached by RedisSink
type RedisLookup struct {
	cache Cache
}

// NewRedisLookup creates a lookup over cache
func NewRedisLookup(cache Cache) *RedisLookup {
	return &RedisLookup{cache: cache}
}

// Lookup returns the cached event for salesID or ErrNotCached
func (l *RedisLookup) Lookup(ctx context.Context, salesID string) (*models.PredictionEvent, error) {
	value, err := l.cache.Get(ctx, KeyPrefix+salesID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached prediction %s: %w", salesID, err)
	}

	var event models.PredictionEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return nil, fmt.Errorf("decoding cached prediction %s: %w", salesID, err)
	}
	return &event, nil
}
