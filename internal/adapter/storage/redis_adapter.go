package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storefront/checkout/internal/core/domain"
)

const (
	basketKeyPrefix  = "basket:"
	privacyKeyPrefix = "privacy:"

	// Baskets and session flags share the session's lifetime; both expire
	// with a generous margin past any realistic checkout.
	basketTTL  = 7 * 24 * time.Hour
	privacyTTL = 24 * time.Hour
)

// RedisAdapter backs the session-scoped state: the in-progress basket and
// the privacy cache flags.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) Current(ctx context.Context, sessionID string) (*domain.Basket, error) {
	raw, err := r.client.Get(ctx, basketKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get basket: %w", err)
	}

	var basket domain.Basket
	if err := json.Unmarshal(raw, &basket); err != nil {
		return nil, fmt.Errorf("unmarshal basket: %w", err)
	}
	return &basket, nil
}

// Save replaces the stored basket in one SET; partial writes are never
// observable.
func (r *RedisAdapter) Save(ctx context.Context, basket *domain.Basket) error {
	basket.UpdatedAt = time.Now()
	raw, err := json.Marshal(basket)
	if err != nil {
		return fmt.Errorf("marshal basket: %w", err)
	}
	if err := r.client.Set(ctx, basketKeyPrefix+basket.SessionID, raw, basketTTL).Err(); err != nil {
		return fmt.Errorf("set basket: %w", err)
	}
	return nil
}

func (r *RedisAdapter) Clear(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, basketKeyPrefix+sessionID).Err()
}

func (r *RedisAdapter) GetFlag(ctx context.Context, sessionID, key string) (bool, error) {
	val, err := r.client.Get(ctx, privacyKey(sessionID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get flag: %w", err)
	}
	return val == "1", nil
}

func (r *RedisAdapter) SetFlag(ctx context.Context, sessionID, key string, value bool) error {
	val := "0"
	if value {
		val = "1"
	}
	if err := r.client.Set(ctx, privacyKey(sessionID, key), val, privacyTTL).Err(); err != nil {
		return fmt.Errorf("set flag: %w", err)
	}
	return nil
}

func privacyKey(sessionID, key string) string {
	return privacyKeyPrefix + sessionID + ":" + key
}
