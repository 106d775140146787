package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/linkdeck/linkdeck/internal/domain/links"
	"github.com/linkdeck/linkdeck/internal/domain/shared"
	"github.com/linkdeck/linkdeck/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// RedisLinkRepository implements links.LinkRepository on top of Redis.
// Each link is stored as a JSON value under <prefix>links:<key>, with a
// sorted set at <prefix>links:index keeping creation order (score is the
// creation timestamp in nanoseconds).
type RedisLinkRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisLinkRepository creates a repository with its own Redis client
// and verifies connectivity before returning.
func NewRedisLinkRepository(cfg config.RedisConfig) (*RedisLinkRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisLinkRepository{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// NewRedisLinkRepositoryWithClient creates a repository with an existing
// Redis client. Useful for testing or when sharing a client across components.
func NewRedisLinkRepositoryWithClient(client *redis.Client, keyPrefix string) *RedisLinkRepository {
	return &RedisLinkRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (r *RedisLinkRepository) linkKey(key string) string {
	return r.keyPrefix + "links:" + key
}

func (r *RedisLinkRepository) indexKey() string {
	return r.keyPrefix + "links:index"
}

// FindByKey retrieves a link by its key
func (r *RedisLinkRepository) FindByKey(ctx context.Context, key string) (*links.Link, error) {
	data, err := r.client.Get(ctx, r.linkKey(key)).Bytes()
	if err == redis.Nil {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link %q: %w", key, err)
	}

	var link links.Link
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, fmt.Errorf("failed to decode link %q: %w", key, err)
	}
	return &link, nil
}

// FindAll returns all links in creation order
func (r *RedisLinkRepository) FindAll(ctx context.Context) ([]*links.Link, error) {
	keys, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read link index: %w", err)
	}
	if len(keys) == 0 {
		return []*links.Link{}, nil
	}

	fullKeys := make([]string, len(keys))
	for i, k := range keys {
		fullKeys[i] = r.linkKey(k)
	}

	values, err := r.client.MGet(ctx, fullKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load links: %w", err)
	}

	result := make([]*links.Link, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Entry deleted between index read and MGet
			continue
		}
		var link links.Link
		if err := json.Unmarshal([]byte(raw), &link); err != nil {
			return nil, fmt.Errorf("failed to decode link: %w", err)
		}
		result = append(result, &link)
	}
	return result, nil
}

// Save inserts or updates a link. Updates keep the original index position.
func (r *RedisLinkRepository) Save(ctx context.Context, link *links.Link) error {
	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("failed to encode link %q: %w", link.Key, err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.linkKey(link.Key), data, 0)
	// NX keeps the existing score on update so creation order is stable
	pipe.ZAddNX(ctx, r.indexKey(), redis.Z{
		Score:  float64(link.CreatedAt.UnixNano()),
		Member: link.Key,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save link %q: %w", link.Key, err)
	}
	return nil
}

// Delete removes a link by key
func (r *RedisLinkRepository) Delete(ctx context.Context, key string) error {
	pipe := r.client.TxPipeline()
	del := pipe.Del(ctx, r.linkKey(key))
	pipe.ZRem(ctx, r.indexKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete link %q: %w", key, err)
	}
	if del.Val() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExistsByKey checks whether a link with the given key exists
func (r *RedisLinkRepository) ExistsByKey(ctx context.Context, key string) (bool, error) {
	exists, err := r.client.Exists(ctx, r.linkKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check link %q: %w", key, err)
	}
	return exists > 0, nil
}

// Count returns the number of stored links
func (r *RedisLinkRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.client.ZCard(ctx, r.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return count, nil
}

// Close closes the Redis client
func (r *RedisLinkRepository) Close() error {
	return r.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (r *RedisLinkRepository) GetClient() *redis.Client {
	return r.client
}

// Ensure RedisLinkRepository implements LinkRepository
var _ links.LinkRepository = (*RedisLinkRepository)(nil)
