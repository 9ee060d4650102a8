// Package repository содержит unit тесты репозиториев на sqlmock.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"example.com/bagstore/internal/domain"
)

// =====================================
// Вспомогательные функции
// =====================================

// setupMockDB создаёт мок базы данных с GORM.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Ошибка создания sqlmock")

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Ошибка инициализации GORM")

	return gormDB, mock, func() { _ = db.Close() }
}

// =====================================
// Тесты Create
// =====================================

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name        string
		user        *domain.User
		mockSetup   func(mock sqlmock.Sqlmock, user *domain.User)
		expectedErr error
	}{
		{
			name: "успешное создание",
			user: &domain.User{
				ID:           "new-user-uuid",
				Role:         domain.RoleCustomer,
				Name:         "Анна",
				FirstSurname: "Гарсия",
				Email:        "anna@example.com",
				PasswordHash: "hashed-password",
			},
			mockSetup: func(mock sqlmock.Sqlmock, user *domain.User) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `users`")).
					WithArgs(user.ID, user.Role, user.Name, user.FirstSurname, user.LastSurname,
						user.Email, user.PasswordHash, user.Business, sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
			expectedErr: nil,
		},
		{
			name: "дубликат email",
			user: &domain.User{
				ID:           "dup-user-uuid",
				Role:         domain.RoleCustomer,
				Name:         "Дубликат",
				Email:        "existing@example.com",
				PasswordHash: "hashed-password",
			},
			mockSetup: func(mock sqlmock.Sqlmock, user *domain.User) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `users`")).
					WillReturnError(errors.New("Error 1062: Duplicate entry"))
				mock.ExpectRollback()
			},
			expectedErr: domain.ErrEmailExists,
		},
		{
			name: "ошибка БД",
			user: &domain.User{
				ID:           "error-user-uuid",
				Role:         domain.RoleCustomer,
				Name:         "Ошибка",
				Email:        "error@example.com",
				PasswordHash: "hashed-password",
			},
			mockSetup: func(mock sqlmock.Sqlmock, user *domain.User) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `users`")).
					WillReturnError(sql.ErrConnDone)
				mock.ExpectRollback()
			},
			expectedErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormDB, mock, cleanup := setupMockDB(t)
			defer cleanup()

			repo := NewUserRepository(gormDB)
			tt.mockSetup(mock, tt.user)

			err := repo.Create(context.Background(), tt.user)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// =====================================
// Тесты GetByEmail
// =====================================

func TestUserRepository_GetByEmail(t *testing.T) {
	userColumns := []string{"id", "role", "name", "first_surname", "last_surname",
		"email", "password_hash", "business", "registered_at"}

	tests := []struct {
		name        string
		email       string
		queryEmail  string
		mockSetup   func(mock sqlmock.Sqlmock, queryEmail string)
		expectedErr error
		checkUser   func(t *testing.T, user *domain.User)
	}{
		{
			name:       "успешное получение",
			email:      "valid@example.com",
			queryEmail: "valid@example.com",
			mockSetup: func(mock sqlmock.Sqlmock, queryEmail string) {
				now := time.Now().Truncate(time.Second)
				rows := sqlmock.NewRows(userColumns).
					AddRow("user-found", domain.RoleCustomer, "Анна", "Гарсия", "",
						queryEmail, "hash123", "Цветочный магазин", now)
				mock.ExpectQuery("SELECT \\* FROM `users` WHERE email = \\? LIMIT \\?").
					WithArgs(queryEmail, 1).WillReturnRows(rows)
			},
			expectedErr: nil,
			checkUser: func(t *testing.T, user *domain.User) {
				assert.Equal(t, "user-found", user.ID)
				assert.Equal(t, "valid@example.com", user.Email)
				assert.Equal(t, "Цветочный магазин", user.Business)
			},
		},
		{
			name:       "email приводится к нижнему регистру",
			email:      "MiXeD@Example.COM",
			queryEmail: "mixed@example.com",
			mockSetup: func(mock sqlmock.Sqlmock, queryEmail string) {
				now := time.Now().Truncate(time.Second)
				rows := sqlmock.NewRows(userColumns).
					AddRow("user-mixed", domain.RoleCustomer, "Тест", "Тестов", "",
						queryEmail, "hash", "", now)
				mock.ExpectQuery("SELECT \\* FROM `users` WHERE email = \\? LIMIT \\?").
					WithArgs(queryEmail, 1).WillReturnRows(rows)
			},
			expectedErr: nil,
			checkUser: func(t *testing.T, user *domain.User) {
				assert.Equal(t, "mixed@example.com", user.Email)
			},
		},
		{
			name:       "не найден",
			email:      "notfound@example.com",
			queryEmail: "notfound@example.com",
			mockSetup: func(mock sqlmock.Sqlmock, queryEmail string) {
				rows := sqlmock.NewRows(userColumns)
				mock.ExpectQuery("SELECT \\* FROM `users` WHERE email = \\? LIMIT \\?").
					WithArgs(queryEmail, 1).WillReturnRows(rows)
			},
			expectedErr: domain.ErrUserNotFound,
		},
		{
			name:       "ошибка БД",
			email:      "error@example.com",
			queryEmail: "error@example.com",
			mockSetup: func(mock sqlmock.Sqlmock, queryEmail string) {
				mock.ExpectQuery("SELECT \\* FROM `users` WHERE email = \\? LIMIT \\?").
					WithArgs(queryEmail, 1).WillReturnError(sql.ErrConnDone)
			},
			expectedErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormDB, mock, cleanup := setupMockDB(t)
			defer cleanup()

			repo := NewUserRepository(gormDB)
			tt.mockSetup(mock, tt.queryEmail)

			user, err := repo.GetByEmail(context.Background(), tt.email)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				require.NotNil(t, user)
				if tt.checkUser != nil {
					tt.checkUser(t, user)
				}
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// =====================================
// Тесты UpdatePasswordHash
// =====================================

func TestUserRepository_Update(t *testing.T) {
	user := &domain.User{
		ID:           "user-123",
		Name:         "Мария",
		FirstSurname: "Петрова",
		LastSurname:  "Сидорова",
		Email:        "Maria@Example.com",
		Business:     "ООО Упаковка",
	}

	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectedErr error
	}{
		{
			name: "успешное обновление с нормализацией email",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE `users` SET .+ WHERE id = \\?").
					WithArgs("ООО Упаковка", "maria@example.com", "Петрова", "Сидорова", "Мария", "user-123").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			expectedErr: nil,
		},
		{
			name: "email уже занят",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE `users` SET .+ WHERE id = \\?").
					WillReturnError(errors.New("Error 1062: Duplicate entry 'maria@example.com' for key 'users.uni_users_email'"))
				mock.ExpectRollback()
			},
			expectedErr: domain.ErrEmailExists,
		},
		{
			name: "пользователь не найден",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE `users` SET .+ WHERE id = \\?").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
			},
			expectedErr: domain.ErrUserNotFound,
		},
		{
			name: "ошибка БД",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE `users` SET .+ WHERE id = \\?").
					WillReturnError(sql.ErrConnDone)
				mock.ExpectRollback()
			},
			expectedErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormDB, mock, cleanup := setupMockDB(t)
			defer cleanup()

			repo := NewUserRepository(gormDB)
			tt.mockSetup(mock)

			err := repo.Update(context.Background(), user)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_UpdatePasswordHash(t *testing.T) {
	tests := []struct {
		name        string
		userID      string
		mockSetup   func(mock sqlmock.Sqlmock, userID string)
		expectedErr error
	}{
		{
			name:   "успешное обновление",
			userID: "user-123",
			mockSetup: func(mock sqlmock.Sqlmock, userID string) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE `users` SET `password_hash`=\\? WHERE id = \\?").
					WithArgs("new-hash", userID).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			expectedErr: nil,
		},
		{
			name:   "пользователь не найден",
			userID: "unknown-user",
			mockSetup: func(mock sqlmock.Sqlmock, userID string) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE `users` SET `password_hash`=\\? WHERE id = \\?").
					WithArgs("new-hash", userID).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
			},
			expectedErr: domain.ErrUserNotFound,
		},
		{
			name:   "ошибка БД",
			userID: "user-456",
			mockSetup: func(mock sqlmock.Sqlmock, userID string) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE `users` SET `password_hash`=\\? WHERE id = \\?").
					WithArgs("new-hash", userID).
					WillReturnError(sql.ErrConnDone)
				mock.ExpectRollback()
			},
			expectedErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormDB, mock, cleanup := setupMockDB(t)
			defer cleanup()

			repo := NewUserRepository(gormDB)
			tt.mockSetup(mock, tt.userID)

			err := repo.UpdatePasswordHash(context.Background(), tt.userID, "new-hash")

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// =====================================
// Тесты CreatePasswordReset
// =====================================

func TestUserRepository_CreatePasswordReset(t *testing.T) {
	reset := &domain.PasswordReset{
		ID:        "reset-uuid",
		UserID:    "user-123",
		TokenHash: "a3f5c8d9e2b1a3f5c8d9e2b1a3f5c8d9e2b1a3f5c8d9e2b1a3f5c8d9e2b1a3f5",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	t.Run("прежние токены инвалидируются, новый сохраняется", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `password_resets` SET `used_at`=\\? WHERE user_id = \\? AND used_at IS NULL").
			WithArgs(sqlmock.AnyArg(), reset.UserID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `password_resets`")).
			WithArgs(reset.ID, reset.UserID, reset.TokenHash,
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		repo := NewUserRepository(gormDB)
		err := repo.CreatePasswordReset(context.Background(), reset)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ошибка вставки откатывает транзакцию", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `password_resets` SET `used_at`=\\? WHERE user_id = \\? AND used_at IS NULL").
			WithArgs(sqlmock.AnyArg(), reset.UserID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `password_resets`")).
			WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		repo := NewUserRepository(gormDB)
		err := repo.CreatePasswordReset(context.Background(), reset)

		require.Error(t, err)
		assert.ErrorIs(t, err, sql.ErrConnDone)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// =====================================
// Тесты ConsumePasswordReset
// =====================================

func TestUserRepository_ConsumePasswordReset(t *testing.T) {
	resetColumns := []string{"id", "user_id", "token_hash", "expires_at", "used_at", "created_at"}
	tokenHash := "a3f5c8d9e2b1a3f5c8d9e2b1a3f5c8d9e2b1a3f5c8d9e2b1a3f5c8d9e2b1a3f5"
	now := time.Now()

	selectQuery := "SELECT \\* FROM `password_resets` WHERE token_hash = \\? LIMIT \\? FOR UPDATE"

	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectedErr error
	}{
		{
			name: "успешный сброс пароля",
			mockSetup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(resetColumns).
					AddRow("reset-uuid", "user-123", tokenHash, now.Add(time.Hour), nil, now.Add(-time.Minute))
				mock.ExpectBegin()
				mock.ExpectQuery(selectQuery).WithArgs(tokenHash, 1).WillReturnRows(rows)
				mock.ExpectExec("UPDATE `password_resets` SET `used_at`=\\? WHERE id = \\?").
					WithArgs(sqlmock.AnyArg(), "reset-uuid").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("UPDATE `users` SET `password_hash`=\\? WHERE id = \\?").
					WithArgs("new-hash", "user-123").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			expectedErr: nil,
		},
		{
			name: "неизвестный токен",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(selectQuery).WithArgs(tokenHash, 1).
					WillReturnRows(sqlmock.NewRows(resetColumns))
				mock.ExpectRollback()
			},
			expectedErr: domain.ErrResetTokenInvalid,
		},
		{
			name: "токен уже использован",
			mockSetup: func(mock sqlmock.Sqlmock) {
				used := now.Add(-time.Minute)
				rows := sqlmock.NewRows(resetColumns).
					AddRow("reset-uuid", "user-123", tokenHash, now.Add(time.Hour), used, now.Add(-time.Hour))
				mock.ExpectBegin()
				mock.ExpectQuery(selectQuery).WithArgs(tokenHash, 1).WillReturnRows(rows)
				mock.ExpectRollback()
			},
			expectedErr: domain.ErrResetTokenUsed,
		},
		{
			name: "токен просрочен",
			mockSetup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(resetColumns).
					AddRow("reset-uuid", "user-123", tokenHash, now.Add(-time.Hour), nil, now.Add(-2*time.Hour))
				mock.ExpectBegin()
				mock.ExpectQuery(selectQuery).WithArgs(tokenHash, 1).WillReturnRows(rows)
				mock.ExpectRollback()
			},
			expectedErr: domain.ErrResetTokenExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormDB, mock, cleanup := setupMockDB(t)
			defer cleanup()

			repo := NewUserRepository(gormDB)
			tt.mockSetup(mock)

			err := repo.ConsumePasswordReset(context.Background(), tokenHash, "new-hash", now)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// =====================================
// Тесты isDuplicateKeyError
// =====================================

func TestIsDuplicateKeyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"MySQL Error 1062", errors.New("Error 1062: Duplicate entry"), true},
		{"текст Duplicate entry", errors.New("Duplicate entry 'x' for key 'users.email'"), true},
		{"GORM ErrDuplicatedKey", gorm.ErrDuplicatedKey, true},
		{"другая ошибка", sql.ErrConnDone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isDuplicateKeyError(tt.err))
		})
	}
}
