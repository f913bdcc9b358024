package buffer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultQueueKey is the Redis list the pipeline persists items under.
const DefaultQueueKey = "riverflow:broadcast:queue"

// RedisQueue persists broadcast items in a Redis list so unflushed
// backlog survives process restarts. Each append trims the list to the
// newest maxSize entries, mirroring the in-memory eviction policy.
type RedisQueue struct {
	client  *redis.Client
	key     string
	maxSize int
	timeout time.Duration
}

// NewRedisQueue creates an adapter over the given client. A zero
// timeout disables the per-operation bound.
func NewRedisQueue(client *redis.Client, key string, maxSize int, timeout time.Duration) *RedisQueue {
	if key == "" {
		key = DefaultQueueKey
	}
	if maxSize < 1 {
		maxSize = 1
	}
	return &RedisQueue{
		client:  client,
		key:     key,
		maxSize: maxSize,
		timeout: timeout,
	}
}

// Enqueue appends the item and trims the list to the newest maxSize
// entries in a single transaction.
func (q *RedisQueue) Enqueue(ctx context.Context, item Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	ctx, cancel := q.opContext(ctx)
	defer cancel()

	pipe := q.client.TxPipeline()
	pipe.RPush(ctx, q.key, data)
	pipe.LTrim(ctx, q.key, int64(-q.maxSize), -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append to %s: %w", q.key, err)
	}
	return nil
}

// DrainAll atomically reads and deletes the whole list, returning the
// decoded items in FIFO order. Entries that fail to decode are dropped.
func (q *RedisQueue) DrainAll(ctx context.Context) ([]Item, error) {
	ctx, cancel := q.opContext(ctx)
	defer cancel()

	var entries *redis.StringSliceCmd
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		entries = pipe.LRange(ctx, q.key, 0, -1)
		pipe.Del(ctx, q.key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("drain %s: %w", q.key, err)
	}

	raw := entries.Val()
	if len(raw) == 0 {
		return nil, nil
	}

	items := make([]Item, 0, len(raw))
	for _, entry := range raw {
		var item Item
		if err := json.Unmarshal([]byte(entry), &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Len returns the current list length.
func (q *RedisQueue) Len(ctx context.Context) (int, error) {
	ctx, cancel := q.opContext(ctx)
	defer cancel()

	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("len %s: %w", q.key, err)
	}
	return int(n), nil
}

func (q *RedisQueue) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if q.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, q.timeout)
}
