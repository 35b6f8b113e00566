package messaging

import (
	"context"
	"time"

	"github.com/alem-hub/mentoring-hub/internal/domain/notification"
	"github.com/alem-hub/mentoring-hub/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUEUE BACKENDS
// ══════════════════════════════════════════════════════════════════════════════

// Backend stores encoded mail requests between Notify and the workers.
type Backend interface {
	// Push enqueues payload without waiting for room.
	Push(ctx context.Context, payload []byte) error

	// Pop waits up to wait for a payload. It returns (nil, nil) on timeout.
	Pop(ctx context.Context, wait time.Duration) ([]byte, error)

	// Len returns the number of queued payloads.
	Len(ctx context.Context) (int, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// In-memory
// ─────────────────────────────────────────────────────────────────────────────

// MemoryBackend is a bounded channel. Queued mail is lost on restart.
type MemoryBackend struct {
	ch chan []byte
}

// NewMemoryBackend creates a MemoryBackend holding up to size payloads.
func NewMemoryBackend(size int) *MemoryBackend {
	if size <= 0 {
		size = 256
	}
	return &MemoryBackend{ch: make(chan []byte, size)}
}

// Push enqueues payload or returns notification.ErrQueueFull.
func (b *MemoryBackend) Push(_ context.Context, payload []byte) error {
	select {
	case b.ch <- payload:
		return nil
	default:
		return notification.ErrQueueFull
	}
}

// Pop waits for a payload.
func (b *MemoryBackend) Pop(ctx context.Context, wait time.Duration) ([]byte, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case p := <-b.ch:
		return p, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of queued payloads.
func (b *MemoryBackend) Len(context.Context) (int, error) {
	return len(b.ch), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Redis
// ─────────────────────────────────────────────────────────────────────────────

// RedisBackend keeps the queue in a Redis list so it survives restarts.
type RedisBackend struct {
	cache *redis.Cache
}

// NewRedisBackend creates a RedisBackend.
func NewRedisBackend(cache *redis.Cache) *RedisBackend {
	return &RedisBackend{cache: cache}
}

// Push prepends payload to the list.
func (b *RedisBackend) Push(ctx context.Context, payload []byte) error {
	return b.cache.LPush(ctx, redis.KeyMailQueue, payload)
}

// Pop blocks on the list tail.
func (b *RedisBackend) Pop(ctx context.Context, wait time.Duration) ([]byte, error) {
	return b.cache.BRPop(ctx, redis.KeyMailQueue, wait)
}

// Len returns the list length.
func (b *RedisBackend) Len(ctx context.Context) (int, error) {
	n, err := b.cache.LLen(ctx, redis.KeyMailQueue)
	return int(n), err
}
