// Package cache implements the two-tier TTL cache used across the
// pricing pipeline: an in-process map that is always present, plus an
// optional Redis tier kept in sync on every write. The cache is a
// performance optimization only; every failure degrades to a miss.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultTTL applies when Set is called with a non-positive TTL.
const DefaultTTL = 30 * time.Minute

const redisPrefix = "cropintel:"

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Expiry int64           `json:"expiry"` // unix milliseconds
}

func (e envelope) expired(now time.Time) bool {
	return e.Expiry <= now.UnixMilli()
}

// Options configure a Manager.
type Options struct {
	// Redis enables the durable tier when non-nil.
	Redis *redis.Client
	// SweepInterval drives the periodic cleanup of the memory tier.
	// Zero disables the sweeper; lazy eviction still applies.
	SweepInterval time.Duration
}

// Manager is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]envelope

	rdb    *redis.Client
	logger zerolog.Logger

	sweepStop chan struct{}
	sweepOnce sync.Once
}

// NewManager constructs the cache and starts the periodic sweeper when
// an interval is configured.
func NewManager(opts Options, logger zerolog.Logger) *Manager {
	m := &Manager{
		entries:   make(map[string]envelope),
		rdb:       opts.Redis,
		logger:    logger.With().Str("component", "cache").Logger(),
		sweepStop: make(chan struct{}),
	}
	if opts.SweepInterval > 0 {
		go m.sweepLoop(opts.SweepInterval)
	}
	return m
}

// Close stops the background sweeper. It does not close the Redis client,
// which is owned by the caller.
func (m *Manager) Close() {
	m.sweepOnce.Do(func() { close(m.sweepStop) })
}

// Get unmarshals the cached value for key into a T. The second return is
// false on miss, expiry, or any cache-level failure.
func Get[T any](ctx context.Context, m *Manager, key string) (T, bool) {
	var zero T
	raw, ok := m.lookup(ctx, key)
	if !ok {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		m.logger.Warn().Err(err).Str("key", key).Msg("cache entry undecodable, dropping")
		m.Remove(ctx, key)
		return zero, false
	}
	return v, true
}

// Set stores value under key in both tiers. Failures are logged and
// swallowed: callers must never depend on a write landing.
func Set[T any](ctx context.Context, m *Manager, key string, value T, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		m.logger.Warn().Err(err).Str("key", key).Msg("cache set: marshal failed")
		return
	}
	env := envelope{Data: data, Expiry: time.Now().Add(ttl).UnixMilli()}

	m.mu.Lock()
	m.entries[key] = env
	m.mu.Unlock()

	if m.rdb == nil {
		return
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}
	if err := m.rdb.Set(ctx, redisPrefix+key, payload, ttl).Err(); err != nil {
		m.logger.Warn().Err(err).Str("key", key).Msg("cache set: redis write failed")
	}
}

// lookup checks the memory tier first, then Redis. A Redis hit repairs
// the memory tier before returning.
func (m *Manager) lookup(ctx context.Context, key string) (json.RawMessage, bool) {
	now := time.Now()

	m.mu.RLock()
	env, ok := m.entries[key]
	m.mu.RUnlock()
	if ok {
		if !env.expired(now) {
			return env.Data, true
		}
		m.Remove(ctx, key)
		return nil, false
	}

	if m.rdb == nil {
		return nil, false
	}
	payload, err := m.rdb.Get(ctx, redisPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			m.logger.Warn().Err(err).Str("key", key).Msg("cache get: redis read failed")
		}
		return nil, false
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		m.Remove(ctx, key)
		return nil, false
	}
	if env.expired(now) {
		m.Remove(ctx, key)
		return nil, false
	}

	m.mu.Lock()
	m.entries[key] = env
	m.mu.Unlock()
	return env.Data, true
}

// Remove deletes key from both tiers.
func (m *Manager) Remove(ctx context.Context, key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()

	if m.rdb != nil {
		if err := m.rdb.Del(ctx, redisPrefix+key).Err(); err != nil {
			m.logger.Warn().Err(err).Str("key", key).Msg("cache remove: redis delete failed")
		}
	}
}

// ClearAll wipes every entry from both tiers.
func (m *Manager) ClearAll(ctx context.Context) {
	m.mu.Lock()
	m.entries = make(map[string]envelope)
	m.mu.Unlock()

	if m.rdb == nil {
		return
	}
	var cursor uint64
	for {
		keys, next, err := m.rdb.Scan(ctx, cursor, redisPrefix+"*", 100).Result()
		if err != nil {
			m.logger.Warn().Err(err).Msg("cache clear: redis scan failed")
			return
		}
		if len(keys) > 0 {
			if err := m.rdb.Del(ctx, keys...).Err(); err != nil {
				m.logger.Warn().Err(err).Msg("cache clear: redis delete failed")
				return
			}
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}

// Stats reports entry counts per tier.
type Stats struct {
	MemoryItems  int `json:"memory_items"`
	ExpiredItems int `json:"expired_items"`
	RedisItems   int `json:"redis_items"`
}

// Stats counts live and expired entries. Redis counts are best-effort.
func (m *Manager) Stats(ctx context.Context) Stats {
	now := time.Now()
	var s Stats

	m.mu.RLock()
	for _, env := range m.entries {
		s.MemoryItems++
		if env.expired(now) {
			s.ExpiredItems++
		}
	}
	m.mu.RUnlock()

	if m.rdb != nil {
		var cursor uint64
		for {
			keys, next, err := m.rdb.Scan(ctx, cursor, redisPrefix+"*", 100).Result()
			if err != nil {
				break
			}
			s.RedisItems += len(keys)
			if next == 0 {
				break
			}
			cursor = next
		}
	}
	return s
}

func (m *Manager) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.sweepStop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep drops expired memory entries. The Redis tier expires server-side.
func (m *Manager) sweep() {
	now := time.Now()
	m.mu.Lock()
	for key, env := range m.entries {
		if env.expired(now) {
			delete(m.entries, key)
		}
	}
	m.mu.Unlock()
}
