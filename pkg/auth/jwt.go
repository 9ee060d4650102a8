// Package auth предоставляет работу с JWT токенами (HS256) и blacklist
// отозванных токенов. Сервис сам выдаёт и сам валидирует токены, поэтому
// используется симметричный секрет.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Ошибки валидации токенов.
var (
	// ErrInvalidToken возвращается по токену с неверной подписью,
	// структурой или сроком действия.
	ErrInvalidToken = errors.New("невалидный токен")

	// ErrTokenRevoked возвращается по токену, отозванному через blacklist.
	ErrTokenRevoked = errors.New("токен отозван")
)

// Claims содержит данные JWT токена.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
}

// Manager управляет созданием и валидацией JWT токенов.
type Manager struct {
	secret    []byte
	issuer    string
	tokenTTL  time.Duration
	blacklist *Blacklist // nil = без отзыва токенов (для тестов без Redis)
}

// Config содержит параметры для создания Manager.
type Config struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

// NewManager создаёт менеджер JWT токенов.
// blacklist может быть nil — тогда Logout недоступен.
func NewManager(cfg Config, blacklist *Blacklist) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("не задан JWT секрет")
	}

	return &Manager{
		secret:    []byte(cfg.Secret),
		issuer:    cfg.Issuer,
		tokenTTL:  cfg.TokenTTL,
		blacklist: blacklist,
	}, nil
}

// Generate создаёт подписанный токен для пользователя.
func (m *Manager) Generate(userID, role string) (token string, expiresAt time.Time, err error) {
	now := time.Now()
	expiresAt = now.Add(m.tokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(), // jti — для отзыва через blacklist
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: userID,
		Role:   role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("ошибка подписи токена: %w", err)
	}

	return signed, expiresAt, nil
}

// Validate проверяет подпись и срок действия токена и возвращает claims.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ValidateWithBlacklist проверяет токен и его отсутствие в blacklist.
func (m *Manager) ValidateWithBlacklist(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := m.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	if m.blacklist != nil {
		revoked, err := m.blacklist.Check(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("ошибка проверки blacklist: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	return claims, nil
}

// Revoke добавляет токен в blacklist до истечения его срока действия.
func (m *Manager) Revoke(ctx context.Context, tokenString string) error {
	if m.blacklist == nil {
		return fmt.Errorf("blacklist не настроен")
	}

	claims, err := m.Validate(tokenString)
	if err != nil {
		return err
	}

	return m.blacklist.Add(ctx, claims.ID, claims.ExpiresAt.Time)
}
