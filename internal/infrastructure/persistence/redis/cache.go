// Package redis implements the Redis-backed parts of the mentoring worker.
//
// Key components:
//   - Cache: connection and the primitive operations used below
//   - PendingStore: mirror of pending auto-cancel tasks
//   - AssetJanitor: set of uploaded keys no report references
//   - the mail queue list used by the messaging package
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	// URL takes precedence over the individual settings when set.
	URL string

	Host     string
	Port     int
	Password string
	DB       int

	// PoolSize is the maximum number of socket connections.
	PoolSize int

	// MinIdleConns is the minimum number of idle connections.
	MinIdleConns int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Namespace is prepended to every key.
	Namespace string
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		Namespace:    "mentoring:",
	}
}

// Addr returns the Redis address in "host:port" format.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Options builds go-redis options from the configuration.
func (c Config) Options() (*redis.Options, error) {
	var opts *redis.Options
	if c.URL != "" {
		parsed, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: c.Addr(), Password: c.Password, DB: c.DB}
	}

	if c.PoolSize > 0 {
		opts.PoolSize = c.PoolSize
	}
	if c.MinIdleConns > 0 {
		opts.MinIdleConns = c.MinIdleConns
	}
	if c.DialTimeout > 0 {
		opts.DialTimeout = c.DialTimeout
	}
	if c.ReadTimeout > 0 {
		opts.ReadTimeout = c.ReadTimeout
	}
	if c.WriteTimeout > 0 {
		opts.WriteTimeout = c.WriteTimeout
	}
	return opts, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrCacheConnection is returned when Redis connection fails.
	ErrCacheConnection = errors.New("cache: connection failed")

	// ErrCacheKeyEmpty is returned when an empty key is provided.
	ErrCacheKeyEmpty = errors.New("cache: key cannot be empty")
)

// ══════════════════════════════════════════════════════════════════════════════
// KEYS
// ══════════════════════════════════════════════════════════════════════════════

// Key suffixes, namespaced by Config.Namespace.
const (
	// KeyAutoCancelPending is a hash: log id -> fire time (RFC3339Nano).
	KeyAutoCancelPending = "autocancel:pending"

	// KeyOrphanedAssets is a set of storage keys awaiting deletion.
	KeyOrphanedAssets = "assets:orphaned"

	// KeyMailQueue is a list of JSON mail requests.
	KeyMailQueue = "mail:queue"
)

// ══════════════════════════════════════════════════════════════════════════════
// CACHE CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Cache wraps the Redis client and namespaces keys.
type Cache struct {
	client *redis.Client
	config Config
}

// NewCache connects to Redis and pings it.
func NewCache(ctx context.Context, cfg Config) (*Cache, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}

	return &Cache{client: client, config: cfg}, nil
}

// NewCacheFromClient wraps an existing client.
func NewCacheFromClient(client *redis.Client, namespace string) *Cache {
	return &Cache{client: client, config: Config{Namespace: namespace}}
}

// Client returns the underlying Redis client.
func (c *Cache) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Key returns the namespaced form of key.
func (c *Cache) Key(key string) string {
	return c.config.Namespace + key
}

// ══════════════════════════════════════════════════════════════════════════════
// HASH OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// HSet sets field in the hash stored at key.
func (c *Cache) HSet(ctx context.Context, key, field, value string) error {
	if key == "" || field == "" {
		return ErrCacheKeyEmpty
	}
	return c.client.HSet(ctx, c.Key(key), field, value).Err()
}

// HGetAll returns all fields of the hash stored at key.
func (c *Cache) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return c.client.HGetAll(ctx, c.Key(key)).Result()
}

// HDel removes fields from the hash stored at key.
func (c *Cache) HDel(ctx context.Context, key string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return c.client.HDel(ctx, c.Key(key), fields...).Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// SET OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// SAdd adds members to the set stored at key.
func (c *Cache) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return c.client.SAdd(ctx, c.Key(key), toAny(members)...).Err()
}

// SRem removes members from the set stored at key.
func (c *Cache) SRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return c.client.SRem(ctx, c.Key(key), toAny(members)...).Err()
}

// SMembers returns all members of the set stored at key.
func (c *Cache) SMembers(ctx context.Context, key string) ([]string, error) {
	return c.client.SMembers(ctx, c.Key(key)).Result()
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// LPush prepends values to the list stored at key.
func (c *Cache) LPush(ctx context.Context, key string, values ...[]byte) error {
	if len(values) == 0 {
		return nil
	}
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return c.client.LPush(ctx, c.Key(key), args...).Err()
}

// BRPop pops from the tail of the list at key, waiting up to timeout.
// It returns (nil, nil) when the timeout elapses with nothing to pop.
func (c *Cache) BRPop(ctx context.Context, key string, timeout time.Duration) ([]byte, error) {
	res, err := c.client.BRPop(ctx, timeout, c.Key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// res[0] is the key, res[1] the value.
	return []byte(res[1]), nil
}

// LLen returns the length of the list at key.
func (c *Cache) LLen(ctx context.Context, key string) (int64, error) {
	return c.client.LLen(ctx, c.Key(key)).Result()
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
