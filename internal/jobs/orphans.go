package jobs

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/bharatkse/image-storage-service/internal/service"
)

// RedisOrphanQueue records orphaned blob keys on a redis stream so the
// sweeper can retry their deletion out of band.
type RedisOrphanQueue struct {
	client *redis.Client
	stream string
}

func NewRedisOrphanQueue(client *redis.Client, stream string) *RedisOrphanQueue {
	return &RedisOrphanQueue{client: client, stream: stream}
}

func (q *RedisOrphanQueue) Report(ctx context.Context, blobKey string) error {
	if q == nil || q.client == nil {
		return nil
	}
	if err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]any{"blob_key": blobKey},
	}).Err(); err != nil {
		return fmt.Errorf("xadd orphan %q: %w", blobKey, err)
	}
	return nil
}

var _ service.OrphanReporter = (*RedisOrphanQueue)(nil)
