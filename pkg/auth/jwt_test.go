// Package auth — тесты JWT менеджера и blacklist отозванных токенов.
// Используется miniredis для быстрых тестов без Docker.
package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis создаёт miniredis и возвращает клиента.
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "не удалось запустить miniredis")

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, mr
}

func newTestManager(t *testing.T, blacklist *Blacklist) *Manager {
	t.Helper()

	m, err := NewManager(Config{
		Secret:   "test-secret-key",
		Issuer:   "bagstore-test",
		TokenTTL: time.Hour,
	}, blacklist)
	require.NoError(t, err)

	return m
}

// TestNewManager проверяет создание менеджера.
func TestNewManager(t *testing.T) {
	t.Run("без секрета — ошибка", func(t *testing.T) {
		_, err := NewManager(Config{Issuer: "x", TokenTTL: time.Hour}, nil)
		assert.Error(t, err)
	})

	t.Run("blacklist может быть nil", func(t *testing.T) {
		m, err := NewManager(Config{Secret: "s", TokenTTL: time.Hour}, nil)
		require.NoError(t, err)
		assert.NotNil(t, m)
	})
}

// TestManager_GenerateValidate проверяет выдачу и валидацию токена.
func TestManager_GenerateValidate(t *testing.T) {
	m := newTestManager(t, nil)

	t.Run("выданный токен валиден", func(t *testing.T) {
		token, expiresAt, err := m.Generate("user-123", "customer")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

		claims, err := m.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.UserID)
		assert.Equal(t, "customer", claims.Role)
		assert.Equal(t, "bagstore-test", claims.Issuer)
		assert.NotEmpty(t, claims.ID, "jti должен быть заполнен")
	})

	t.Run("каждый токен получает уникальный jti", func(t *testing.T) {
		token1, _, err := m.Generate("user-123", "customer")
		require.NoError(t, err)
		token2, _, err := m.Generate("user-123", "customer")
		require.NoError(t, err)

		claims1, err := m.Validate(token1)
		require.NoError(t, err)
		claims2, err := m.Validate(token2)
		require.NoError(t, err)

		assert.NotEqual(t, claims1.ID, claims2.ID)
	})

	t.Run("токен с чужим секретом отклоняется", func(t *testing.T) {
		other, err := NewManager(Config{Secret: "other-secret", TokenTTL: time.Hour}, nil)
		require.NoError(t, err)

		token, _, err := other.Generate("user-123", "customer")
		require.NoError(t, err)

		_, err = m.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("истёкший токен отклоняется", func(t *testing.T) {
		expired, err := NewManager(Config{
			Secret:   "test-secret-key",
			Issuer:   "bagstore-test",
			TokenTTL: -time.Minute,
		}, nil)
		require.NoError(t, err)

		token, _, err := expired.Generate("user-123", "customer")
		require.NoError(t, err)

		_, err = m.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("токен с другим алгоритмом отклоняется", func(t *testing.T) {
		// alg=none — подпись отсутствует
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-123"})
		token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = m.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("мусорная строка отклоняется", func(t *testing.T) {
		_, err := m.Validate("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

// TestManager_Revoke проверяет отзыв токена через blacklist.
func TestManager_Revoke(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	bl := NewBlacklist(client)
	m := newTestManager(t, bl)
	ctx := context.Background()

	t.Run("отозванный токен не проходит проверку", func(t *testing.T) {
		token, _, err := m.Generate("user-123", "customer")
		require.NoError(t, err)

		// До отзыва токен валиден
		_, err = m.ValidateWithBlacklist(ctx, token)
		require.NoError(t, err)

		require.NoError(t, m.Revoke(ctx, token))

		_, err = m.ValidateWithBlacklist(ctx, token)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})

	t.Run("отзыв одного токена не трогает другие", func(t *testing.T) {
		token1, _, err := m.Generate("user-123", "customer")
		require.NoError(t, err)
		token2, _, err := m.Generate("user-123", "customer")
		require.NoError(t, err)

		require.NoError(t, m.Revoke(ctx, token1))

		_, err = m.ValidateWithBlacklist(ctx, token2)
		assert.NoError(t, err)
	})

	t.Run("отзыв невалидного токена возвращает ошибку", func(t *testing.T) {
		err := m.Revoke(ctx, "not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("без blacklist отзыв недоступен", func(t *testing.T) {
		noBl := newTestManager(t, nil)
		token, _, err := noBl.Generate("user-123", "customer")
		require.NoError(t, err)

		assert.Error(t, noBl.Revoke(ctx, token))
	})

	t.Run("запись blacklist исчезает после истечения токена", func(t *testing.T) {
		token, _, err := m.Generate("user-123", "customer")
		require.NoError(t, err)
		require.NoError(t, m.Revoke(ctx, token))

		// TTL записи равен остатку жизни токена (около часа)
		mr.FastForward(2 * time.Hour)

		_, err = m.ValidateWithBlacklist(ctx, token)
		// Сам токен к этому моменту тоже истёк
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

// TestBlacklist проверяет базовые операции blacklist.
func TestBlacklist(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	bl := NewBlacklist(client)
	ctx := context.Background()

	t.Run("добавление и проверка jti", func(t *testing.T) {
		jti := "test-jti-001"
		require.NoError(t, bl.Add(ctx, jti, time.Now().Add(10*time.Minute)))

		assert.True(t, mr.Exists(blacklistKeyPrefix+jti))

		revoked, err := bl.Check(ctx, jti)
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("неизвестный jti не отозван", func(t *testing.T) {
		revoked, err := bl.Check(ctx, "unknown-jti")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("истёкший токен не добавляется", func(t *testing.T) {
		jti := "expired-jti"
		require.NoError(t, bl.Add(ctx, jti, time.Now().Add(-time.Minute)))

		assert.False(t, mr.Exists(blacklistKeyPrefix+jti))
	})

	t.Run("запись исчезает после TTL", func(t *testing.T) {
		jti := "ttl-jti"
		require.NoError(t, bl.Add(ctx, jti, time.Now().Add(2*time.Second)))

		revoked, err := bl.Check(ctx, jti)
		require.NoError(t, err)
		assert.True(t, revoked)

		mr.FastForward(3 * time.Second)

		revoked, err = bl.Check(ctx, jti)
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}
