package redis

import (
	"context"
	"fmt"

	"github.com/alem-hub/mentoring-hub/pkg/logger"
)

// AssetJanitor keeps the set of uploaded storage keys that no report
// references. A separate sweeper deletes them from object storage.
type AssetJanitor struct {
	cache  *Cache
	logger *logger.Logger
}

// NewAssetJanitor creates an AssetJanitor.
func NewAssetJanitor(cache *Cache, log *logger.Logger) *AssetJanitor {
	return &AssetJanitor{cache: cache, logger: log.With(logger.Component("asset_janitor"))}
}

// MarkOrphaned adds key to the orphaned set.
func (j *AssetJanitor) MarkOrphaned(ctx context.Context, key string) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}
	if err := j.cache.SAdd(ctx, KeyOrphanedAssets, key); err != nil {
		return fmt.Errorf("asset janitor: mark %s: %w", key, err)
	}
	j.logger.Info("asset marked orphaned", logger.String("key", key))
	return nil
}

// Orphaned lists the keys awaiting deletion.
func (j *AssetJanitor) Orphaned(ctx context.Context) ([]string, error) {
	return j.cache.SMembers(ctx, KeyOrphanedAssets)
}

// Forget removes keys once the sweeper deleted them.
func (j *AssetJanitor) Forget(ctx context.Context, keys ...string) error {
	return j.cache.SRem(ctx, KeyOrphanedAssets, keys...)
}
