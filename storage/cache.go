package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"taskflow-api/domain"
)

const (
	tasksCacheKey      = "tasks:all"
	categoriesCacheKey = "categories:all"
)

// TaskCache wraps a task store with Redis-backed caching of the full
// snapshot. Reads fall back to the base store on any Redis problem; writes
// go to the base store first and evict on success.
type TaskCache struct {
	base  domain.TaskStore
	redis *redis.Client
	ttl   time.Duration
}

// NewTaskCache creates a caching wrapper using the provided client and TTL.
func NewTaskCache(base domain.TaskStore, client *redis.Client, ttl time.Duration) *TaskCache {
	if base == nil {
		panic("storage.NewTaskCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &TaskCache{base: base, redis: client, ttl: ttl}
}

func (c *TaskCache) GetAll(ctx context.Context) ([]domain.Task, error) {
	if tasks, ok := loadCached[[]domain.Task](ctx, c.redis, tasksCacheKey); ok {
		return tasks, nil
	}
	tasks, err := c.base.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	storeCached(ctx, c.redis, tasksCacheKey, tasks, c.ttl)
	return tasks, nil
}

func (c *TaskCache) GetByID(ctx context.Context, id int) (domain.Task, error) {
	return c.base.GetByID(ctx, id)
}

func (c *TaskCache) Create(ctx context.Context, fields domain.TaskFields) (domain.Task, error) {
	task, err := c.base.Create(ctx, fields)
	if err != nil {
		return domain.Task{}, err
	}
	evict(ctx, c.redis, tasksCacheKey)
	return task, nil
}

func (c *TaskCache) Update(ctx context.Context, id int, upd domain.TaskUpdate) (domain.Task, error) {
	task, err := c.base.Update(ctx, id, upd)
	if err != nil {
		return domain.Task{}, err
	}
	evict(ctx, c.redis, tasksCacheKey)
	return task, nil
}

func (c *TaskCache) Delete(ctx context.Context, id int) error {
	if err := c.base.Delete(ctx, id); err != nil {
		return err
	}
	evict(ctx, c.redis, tasksCacheKey)
	return nil
}

// CategoryCache is the category counterpart of TaskCache.
type CategoryCache struct {
	base  domain.CategoryStore
	redis *redis.Client
	ttl   time.Duration
}

func NewCategoryCache(base domain.CategoryStore, client *redis.Client, ttl time.Duration) *CategoryCache {
	if base == nil {
		panic("storage.NewCategoryCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &CategoryCache{base: base, redis: client, ttl: ttl}
}

func (c *CategoryCache) GetAll(ctx context.Context) ([]domain.Category, error) {
	if cats, ok := loadCached[[]domain.Category](ctx, c.redis, categoriesCacheKey); ok {
		return cats, nil
	}
	cats, err := c.base.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	storeCached(ctx, c.redis, categoriesCacheKey, cats, c.ttl)
	return cats, nil
}

func (c *CategoryCache) GetByID(ctx context.Context, id int) (domain.Category, error) {
	return c.base.GetByID(ctx, id)
}

func (c *CategoryCache) Create(ctx context.Context, fields domain.CategoryFields) (domain.Category, error) {
	cat, err := c.base.Create(ctx, fields)
	if err != nil {
		return domain.Category{}, err
	}
	evict(ctx, c.redis, categoriesCacheKey)
	return cat, nil
}

func (c *CategoryCache) Update(ctx context.Context, id int, upd domain.CategoryUpdate) (domain.Category, error) {
	cat, err := c.base.Update(ctx, id, upd)
	if err != nil {
		return domain.Category{}, err
	}
	evict(ctx, c.redis, categoriesCacheKey)
	return cat, nil
}

func (c *CategoryCache) Delete(ctx context.Context, id int) error {
	if err := c.base.Delete(ctx, id); err != nil {
		return err
	}
	evict(ctx, c.redis, categoriesCacheKey)
	return nil
}

func loadCached[T any](ctx context.Context, client *redis.Client, key string) (T, bool) {
	var zero T
	if client == nil {
		return zero, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors drop the key and fall back to the base store.
			_ = client.Del(ctx, key).Err()
		}
		return zero, false
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		_ = client.Del(ctx, key).Err()
		return zero, false
	}
	return out, true
}

func storeCached[T any](ctx context.Context, client *redis.Client, key string, value T, ttl time.Duration) {
	if client == nil || ttl == 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = client.Set(ctx, key, data, ttl).Err()
}

func evict(ctx context.Context, client *redis.Client, key string) {
	if client == nil {
		return
	}
	_, _ = client.Del(ctx, key).Result()
}
