package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "jwt:blacklist:"

// Blacklist хранит отозванные jti в Redis с TTL до истечения токена.
type Blacklist struct {
	client *redis.Client
}

// NewBlacklist создаёт blacklist поверх Redis клиента.
func NewBlacklist(client *redis.Client) *Blacklist {
	return &Blacklist{client: client}
}

// Add помечает jti отозванным. Ключ живёт до истечения срока токена,
// после чего токен и так невалиден.
func (b *Blacklist) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := b.client.Set(ctx, blacklistKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("ошибка записи в blacklist: %w", err)
	}

	return nil
}

// Check возвращает true, если jti отозван.
func (b *Blacklist) Check(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("ошибка чтения blacklist: %w", err)
	}

	return n > 0, nil
}
