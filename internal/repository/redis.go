package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nadmax/feedme/internal/registry"
	"github.com/redis/go-redis/v9"
)

// RedisRepository stores the snapshot document under a single key and
// mirrors each task record into a hash keyed by task id.
type RedisRepository struct {
	client *redis.Client
	key    string
}

func NewRedisRepository(ctx context.Context, redisAddr, key string) (*RedisRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if key == "" {
		key = "feedme:snapshot"
	}

	return &RedisRepository{
		client: client,
		key:    key,
	}, nil
}

func (r *RedisRepository) tasksKey() string {
	return r.key + ":tasks"
}

func (r *RedisRepository) Load(ctx context.Context) (registry.Snapshot, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return registry.Snapshot{}, fmt.Errorf("%w: redis key %s", ErrSnapshotNotFound, r.key)
	}
	if err != nil {
		return registry.Snapshot{}, err
	}

	var s registry.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return registry.Snapshot{}, fmt.Errorf("%w: redis key %s: %w", ErrSnapshotMalformed, r.key, err)
	}

	return s, nil
}

func (r *RedisRepository) Save(ctx context.Context, s registry.Snapshot) error {
	data, err := registry.MarshalSnapshot(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	records := make(map[string]any, len(s.Tasks))
	for _, rec := range s.Tasks {
		recJSON, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal task %s: %w", rec.ID, err)
		}
		records[rec.ID] = string(recJSON)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key, data, 0)
		pipe.Del(ctx, r.tasksKey())
		if len(records) > 0 {
			pipe.HSet(ctx, r.tasksKey(), records)
		}
		return nil
	})

	return err
}

// TaskRecord returns the mirrored JSON record of one task.
func (r *RedisRepository) TaskRecord(ctx context.Context, taskID string) (string, error) {
	return r.client.HGet(ctx, r.tasksKey(), taskID).Result()
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}
