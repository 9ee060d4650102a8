package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/bagstore/internal/domain"
)

// UserRepository определяет интерфейс работы с пользователями
// и токенами сброса пароля.
type UserRepository interface {
	// Create создаёт пользователя. Возвращает domain.ErrEmailExists
	// при дубликате email.
	Create(ctx context.Context, user *domain.User) error

	// GetByID возвращает пользователя по ID.
	GetByID(ctx context.Context, userID string) (*domain.User, error)

	// GetByEmail возвращает пользователя по email (без учёта регистра).
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update обновляет профиль пользователя. Возвращает
	// domain.ErrEmailExists, если новый email уже занят.
	Update(ctx context.Context, user *domain.User) error

	// UpdatePasswordHash обновляет хэш пароля.
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error

	// CreatePasswordReset сохраняет токен сброса, предварительно
	// инвалидируя неиспользованные токены пользователя.
	CreatePasswordReset(ctx context.Context, reset *domain.PasswordReset) error

	// ConsumePasswordReset атомарно находит действующий токен по хэшу,
	// помечает его использованным и обновляет пароль пользователя.
	ConsumePasswordReset(ctx context.Context, tokenHash, passwordHash string, now time.Time) error
}

// UserModel — GORM модель для таблицы users.
type UserModel struct {
	ID           string    `gorm:"column:id;type:varchar(36);primaryKey"`
	Role         string    `gorm:"column:role;type:varchar(20);not null;default:'customer'"`
	Name         string    `gorm:"column:name;type:varchar(100);not null"`
	FirstSurname string    `gorm:"column:first_surname;type:varchar(100);not null"`
	LastSurname  string    `gorm:"column:last_surname;type:varchar(100)"`
	Email        string    `gorm:"column:email;type:varchar(255);not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;type:varchar(100);not null"`
	Business     string    `gorm:"column:business;type:varchar(255)"`
	RegisteredAt time.Time `gorm:"column:registered_at;autoCreateTime"`
}

func (UserModel) TableName() string { return "users" }

func (m *UserModel) toDomain() *domain.User {
	return &domain.User{
		ID:           m.ID,
		Role:         m.Role,
		Name:         m.Name,
		FirstSurname: m.FirstSurname,
		LastSurname:  m.LastSurname,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Business:     m.Business,
		RegisteredAt: m.RegisteredAt,
	}
}

func userModelFromDomain(u *domain.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Role:         u.Role,
		Name:         u.Name,
		FirstSurname: u.FirstSurname,
		LastSurname:  u.LastSurname,
		Email:        strings.ToLower(u.Email),
		PasswordHash: u.PasswordHash,
		Business:     u.Business,
	}
}

// PasswordResetModel — GORM модель для таблицы password_resets.
// Хранится только SHA-256 хэш токена.
type PasswordResetModel struct {
	ID        string     `gorm:"column:id;type:varchar(36);primaryKey"`
	UserID    string     `gorm:"column:user_id;type:varchar(36);not null;index"`
	TokenHash string     `gorm:"column:token_hash;type:char(64);not null;uniqueIndex"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null"`
	UsedAt    *time.Time `gorm:"column:used_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (PasswordResetModel) TableName() string { return "password_resets" }

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository создаёт репозиторий пользователей.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	model := userModelFromDomain(user)
	err := r.db.WithContext(ctx).Create(model).Error
	if err != nil {
		if isDuplicateKeyError(err) {
			return domain.ErrEmailExists
		}
		return err
	}
	user.RegisteredAt = model.RegisteredAt
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	var model UserModel
	err := r.db.WithContext(ctx).Where("id = ?", userID).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return model.toDomain(), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var model UserModel
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(email)).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return model.toDomain(), nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	result := r.db.WithContext(ctx).Model(&UserModel{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"name":          user.Name,
			"first_surname": user.FirstSurname,
			"last_surname":  user.LastSurname,
			"email":         strings.ToLower(user.Email),
			"business":      user.Business,
		})
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return domain.ErrEmailExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	result := r.db.WithContext(ctx).Model(&UserModel{}).
		Where("id = ?", userID).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// CreatePasswordReset инвалидирует прежние неиспользованные токены
// пользователя и сохраняет новый. Действующим остаётся один токен.
func (r *userRepository) CreatePasswordReset(ctx context.Context, reset *domain.PasswordReset) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&PasswordResetModel{}).
			Where("user_id = ? AND used_at IS NULL", reset.UserID).
			Update("used_at", now).Error; err != nil {
			return err
		}

		model := PasswordResetModel{
			ID:        reset.ID,
			UserID:    reset.UserID,
			TokenHash: reset.TokenHash,
			ExpiresAt: reset.ExpiresAt,
		}
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		reset.CreatedAt = model.CreatedAt
		return nil
	})
}

// isDuplicateKeyError проверяет, является ли ошибка дубликатом ключа.
// MySQL возвращает ошибку с кодом 1062 при попытке вставить дубликат.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(errMsg, "Duplicate entry") ||
		strings.Contains(errMsg, "1062")
}

// ConsumePasswordReset в одной транзакции: находит токен под блокировкой,
// проверяет срок и одноразовость, помечает использованным и меняет пароль.
func (r *userRepository) ConsumePasswordReset(ctx context.Context, tokenHash, passwordHash string, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model PasswordResetModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("token_hash = ?", tokenHash).
			Take(&model).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrResetTokenInvalid
		}
		if err != nil {
			return err
		}

		if model.UsedAt != nil {
			return domain.ErrResetTokenUsed
		}
		if now.After(model.ExpiresAt) {
			return domain.ErrResetTokenExpired
		}

		if err := tx.Model(&PasswordResetModel{}).
			Where("id = ?", model.ID).
			Update("used_at", now).Error; err != nil {
			return err
		}

		result := tx.Model(&UserModel{}).
			Where("id = ?", model.UserID).
			Update("password_hash", passwordHash)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrUserNotFound
		}
		return nil
	})
}
