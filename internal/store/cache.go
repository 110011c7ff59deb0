package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/league"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/simulation"
	"github.com/sirupsen/logrus"
)

const cacheKeyPrefix = "simulation:"

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// ResultCache stores finished batches keyed by their inputs.
type ResultCache interface {
	Get(ctx context.Context, key string) (*simulation.Results, error)
	Set(ctx context.Context, key string, results *simulation.Results, ttl time.Duration) error
}

// CacheKey hashes everything that determines a batch's output: the snapshot
// and the options that shape the trials. Maps marshal with sorted keys, so
// equal inputs give equal keys.
func CacheKey(snapshot *league.Snapshot, opts simulation.Options) (string, error) {
	payload := struct {
		Snapshot              *league.Snapshot `json:"snapshot"`
		NumSimulations        int              `json:"num_simulations"`
		SimulatePlayoffs      bool             `json:"simulate_playoffs"`
		UseDivisionTiebreaker bool             `json:"use_division_tiebreaker"`
		Seed                  uint64           `json:"seed"`
		Workers               int              `json:"workers"`
	}{
		Snapshot:              snapshot,
		NumSimulations:        opts.NumSimulations,
		SimulatePlayoffs:      opts.SimulatePlayoffs,
		UseDivisionTiebreaker: opts.UseDivisionTiebreaker,
		Seed:                  opts.Seed,
		Workers:               opts.Workers,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// RedisCache keeps results in redis as JSON.
type RedisCache struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewRedisCache connects to the redis server at url
// (redis://[:password@]host:port/db) and checks it answers.
func NewRedisCache(ctx context.Context, url string, logger *logrus.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisCache{client: client, logger: logger}, nil
}

// Get retrieves a cached batch.
func (c *RedisCache) Get(ctx context.Context, key string) (*simulation.Results, error) {
	fullKey := cacheKeyPrefix + key
	data, err := c.client.Get(ctx, fullKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get simulation result from cache: %w", err)
	}

	var results simulation.Results
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal simulation result: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"cache_key": fullKey,
		"run_id":    results.RunID,
	}).Debug("Retrieved simulation result from cache")
	return &results, nil
}

// Set stores a batch for ttl. A non-positive ttl keeps it until evicted.
func (c *RedisCache) Set(ctx context.Context, key string, results *simulation.Results, ttl time.Duration) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal simulation result: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}

	fullKey := cacheKeyPrefix + key
	if err := c.client.Set(ctx, fullKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set simulation result in cache: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"cache_key":  fullKey,
		"expiration": ttl,
		"run_id":     results.RunID,
	}).Debug("Cached simulation result")
	return nil
}

// Close releases the redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is a process-local ResultCache. Entries are stored as JSON so
// callers never share a *Results with the cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache returns an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get retrieves a cached batch, dropping it if it has expired.
func (c *MemoryCache) Get(ctx context.Context, key string) (*simulation.Results, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return nil, ErrCacheMiss
	}

	var results simulation.Results
	if err := json.Unmarshal(entry.data, &results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal simulation result: %w", err)
	}
	return &results, nil
}

// Set stores a batch for ttl. A non-positive ttl never expires.
func (c *MemoryCache) Set(ctx context.Context, key string, results *simulation.Results, ttl time.Duration) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal simulation result: %w", err)
	}

	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

// Len returns the number of entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
