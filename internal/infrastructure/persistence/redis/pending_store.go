package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/alem-hub/mentoring-hub/pkg/logger"
)

// PendingStore mirrors pending auto-cancel tasks into a Redis hash keyed by
// mentoring log id. Values are fire times in RFC3339Nano.
type PendingStore struct {
	cache  *Cache
	logger *logger.Logger
}

// NewPendingStore creates a PendingStore on top of cache.
func NewPendingStore(cache *Cache, log *logger.Logger) *PendingStore {
	return &PendingStore{cache: cache, logger: log.With(logger.Component("pending_store"))}
}

// Save records that logID fires at fireAt, replacing any earlier entry.
func (s *PendingStore) Save(ctx context.Context, logID string, fireAt time.Time) error {
	if err := s.cache.HSet(ctx, KeyAutoCancelPending, logID, fireAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("pending store: save %s: %w", logID, err)
	}
	return nil
}

// Remove forgets logID. Removing an unknown id is not an error.
func (s *PendingStore) Remove(ctx context.Context, logID string) error {
	if err := s.cache.HDel(ctx, KeyAutoCancelPending, logID); err != nil {
		return fmt.Errorf("pending store: remove %s: %w", logID, err)
	}
	return nil
}

// LoadAll returns every mirrored task. Unparseable entries are dropped
// from the hash and skipped.
func (s *PendingStore) LoadAll(ctx context.Context) (map[string]time.Time, error) {
	raw, err := s.cache.HGetAll(ctx, KeyAutoCancelPending)
	if err != nil {
		return nil, fmt.Errorf("pending store: load: %w", err)
	}

	out := make(map[string]time.Time, len(raw))
	var broken []string
	for id, v := range raw {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			s.logger.Warn("dropping malformed pending entry",
				logger.MentoringLogID(id),
				logger.String("value", v),
			)
			broken = append(broken, id)
			continue
		}
		out[id] = t
	}

	if len(broken) > 0 {
		if err := s.cache.HDel(ctx, KeyAutoCancelPending, broken...); err != nil {
			s.logger.Warn("failed to drop malformed entries", logger.Err(err))
		}
	}
	return out, nil
}
