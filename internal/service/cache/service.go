package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kapu/creator-activity-engine/internal/constants"
	"github.com/kapu/creator-activity-engine/internal/domain"
	"github.com/kapu/creator-activity-engine/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type CacheService struct {
	client *redis.Client
	logger *zap.Logger
}

type CacheConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func NewCacheService(ctx context.Context, cfg CacheConfig, logger *zap.Logger) (*CacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, errors.NewCacheError("failed to connect to Redis", "ping", "", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return NewCacheServiceFromClient(client, logger), nil
}

func NewCacheServiceFromClient(client *redis.Client, logger *zap.Logger) *CacheService {
	return &CacheService{
		client: client,
		logger: logger,
	}
}

// Get decodes the JSON value at key into dest. A missing key returns
// found=false and no error.
func (c *CacheService) Get(ctx context.Context, key string, dest any) (bool, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		c.logger.Error("Cache get failed", zap.String("key", key), zap.Error(err))
		return false, errors.NewCacheError("get failed", "get", key, err)
	}

	if err := json.Unmarshal([]byte(value), dest); err != nil {
		c.logger.Error("Cache unmarshal failed", zap.String("key", key), zap.Error(err))
		return false, errors.NewCacheError("unmarshal failed", "get", key, err)
	}

	return true, nil
}

func (c *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return errors.NewCacheError("marshal failed", "set", key, err)
	}

	if err := c.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		c.logger.Error("Cache set failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("set failed", "set", key, err)
	}

	return nil
}

func (c *CacheService) Del(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Error("Cache delete failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("delete failed", "del", key, err)
	}
	return nil
}

func snapshotKey(accountID string) string {
	return constants.CacheKeys.SnapshotPrefix + accountID
}

// PublishSnapshot replaces the account's published snapshot
func (c *CacheService) PublishSnapshot(ctx context.Context, snapshot *domain.Snapshot) error {
	if snapshot == nil || snapshot.AccountID == "" {
		return fmt.Errorf("snapshot must carry an account id")
	}
	return c.Set(ctx, snapshotKey(snapshot.AccountID), snapshot, constants.CacheTTL.Snapshot)
}

// GetSnapshot returns the latest published snapshot, or nil if none exists
func (c *CacheService) GetSnapshot(ctx context.Context, accountID string) (*domain.Snapshot, error) {
	var snapshot domain.Snapshot
	found, err := c.Get(ctx, snapshotKey(accountID), &snapshot)
	if err != nil || !found {
		return nil, err
	}
	return &snapshot, nil
}

func (c *CacheService) DeleteSnapshot(ctx context.Context, accountID string) error {
	return c.Del(ctx, snapshotKey(accountID))
}

// GetAnalyticsIDs looks channel names up in the cached cname → cid hash.
// Names absent from the hash are returned in missing.
func (c *CacheService) GetAnalyticsIDs(ctx context.Context, names []string) (map[string]string, []string, error) {
	found := make(map[string]string, len(names))
	if len(names) == 0 {
		return found, nil, nil
	}

	values, err := c.client.HMGet(ctx, constants.CacheKeys.AnalyticsIDs, names...).Result()
	if err != nil {
		c.logger.Warn("Cache hmget failed", zap.String("key", constants.CacheKeys.AnalyticsIDs), zap.Error(err))
		return nil, names, errors.NewCacheError("hmget failed", "hmget", constants.CacheKeys.AnalyticsIDs, err)
	}

	missing := make([]string, 0)
	for i, value := range values {
		if cid, ok := value.(string); ok && cid != "" {
			found[names[i]] = cid
			continue
		}
		missing = append(missing, names[i])
	}

	return found, missing, nil
}

// StoreAnalyticsIDs merges resolved names into the lookup hash and refreshes its TTL
func (c *CacheService) StoreAnalyticsIDs(ctx context.Context, ids map[string]string) error {
	if len(ids) == 0 {
		return nil
	}

	values := make([]any, 0, len(ids)*2)
	for name, cid := range ids {
		values = append(values, name, cid)
	}

	key := constants.CacheKeys.AnalyticsIDs
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, values...)
	pipe.Expire(ctx, key, constants.CacheTTL.AnalyticsIDs)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("Failed to cache analytics ids", zap.Int("count", len(ids)), zap.Error(err))
		return errors.NewCacheError("hset failed", "hset", key, err)
	}
	return nil
}

func (c *CacheService) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *CacheService) Close() error {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close Redis connection", zap.Error(err))
		return err
	}
	c.logger.Info("Redis disconnected")
	return nil
}
