package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/apsoplatform/apso/internal/domain"
	"github.com/apsoplatform/apso/pkg/logger"
)

type cacheRepository struct {
	client *redis.Client
}

var _ domain.AccrualQueue = (*cacheRepository)(nil)

// NewCacheRepository creates a new Redis cache repository
func NewCacheRepository(client *redis.Client) *cacheRepository {
	return &cacheRepository{client: client}
}

// Cache keys
const (
	UserKeyPrefix   = "user:"
	PlansCatalogKey = "plans:catalog"
	AccrualQueueKey = "accrual_queue"

	// TTL durations
	UserCacheTTL  = 30 * time.Minute
	PlansCacheTTL = 60 * time.Minute
)

// User caching
func (r *cacheRepository) CacheUser(user *domain.User) error {
	key := UserKeyPrefix + user.ID

	data, err := json.Marshal(user)
	if err != nil {
		logger.Error("Failed to marshal user for cache",
			logger.String("user_id", user.ID),
			logger.ErrorField(err),
		)
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	err = r.client.Set(context.Background(), key, data, UserCacheTTL).Err()
	if err != nil {
		logger.Error("Failed to cache user",
			logger.String("user_id", user.ID),
			logger.ErrorField(err),
		)
		return fmt.Errorf("failed to cache user: %w", err)
	}

	logger.Debug("User cached successfully",
		logger.String("user_id", user.ID),
	)

	return nil
}

func (r *cacheRepository) GetUser(userID string) (*domain.User, error) {
	key := UserKeyPrefix + userID

	data, err := r.client.Get(context.Background(), key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		logger.Error("Failed to get user from cache",
			logger.String("user_id", userID),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to get user from cache: %w", err)
	}

	var user domain.User
	err = json.Unmarshal([]byte(data), &user)
	if err != nil {
		logger.Error("Failed to unmarshal user from cache",
			logger.String("user_id", userID),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	return &user, nil
}

func (r *cacheRepository) InvalidateUser(userID string) error {
	key := UserKeyPrefix + userID

	err := r.client.Del(context.Background(), key).Err()
	if err != nil {
		logger.Error("Failed to invalidate user cache",
			logger.String("user_id", userID),
			logger.ErrorField(err),
		)
		return fmt.Errorf("failed to invalidate user cache: %w", err)
	}

	logger.Debug("User cache invalidated",
		logger.String("user_id", userID),
	)

	return nil
}

// Plan catalog caching. The catalog is immutable after seeding, so one key
// covers the whole list.
func (r *cacheRepository) CachePlans(plans []*domain.Plan) error {
	data, err := json.Marshal(plans)
	if err != nil {
		return fmt.Errorf("failed to marshal plans: %w", err)
	}

	err = r.client.Set(context.Background(), PlansCatalogKey, data, PlansCacheTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache plans: %w", err)
	}

	return nil
}

func (r *cacheRepository) GetPlans() ([]*domain.Plan, error) {
	data, err := r.client.Get(context.Background(), PlansCatalogKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get plans from cache: %w", err)
	}

	var plans []*domain.Plan
	err = json.Unmarshal([]byte(data), &plans)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal plans: %w", err)
	}

	return plans, nil
}

// Accrual queue operations
func (r *cacheRepository) EnqueueAccrual(investmentID string) error {
	err := r.client.LPush(context.Background(), AccrualQueueKey, investmentID).Err()
	if err != nil {
		logger.Error("Failed to enqueue accrual",
			logger.String("investment_id", investmentID),
			logger.ErrorField(err),
		)
		return fmt.Errorf("failed to enqueue accrual: %w", err)
	}

	logger.Debug("Accrual enqueued",
		logger.String("investment_id", investmentID),
	)

	return nil
}

func (r *cacheRepository) DequeueAccrual() (string, error) {
	result, err := r.client.BRPop(context.Background(), 5*time.Second, AccrualQueueKey).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil // No items in queue
		}
		logger.Error("Failed to dequeue accrual", logger.ErrorField(err))
		return "", fmt.Errorf("failed to dequeue accrual: %w", err)
	}

	if len(result) < 2 {
		return "", fmt.Errorf("unexpected queue result format")
	}

	return result[1], nil
}

func (r *cacheRepository) QueueLength() (int64, error) {
	length, err := r.client.LLen(context.Background(), AccrualQueueKey).Result()
	if err != nil {
		logger.Error("Failed to get queue length", logger.ErrorField(err))
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}

	return length, nil
}

// Health check
func (r *cacheRepository) Ping() error {
	return r.client.Ping(context.Background()).Err()
}
