package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"example.com/bagstore/internal/domain"
	"example.com/bagstore/internal/repository"
	"example.com/bagstore/pkg/auth"
	"example.com/bagstore/pkg/logger"
)

// bcryptCost — стоимость хэширования пароля.
const bcryptCost = 12

// resetTokenBytes — длина токена сброса пароля в байтах до hex-кодирования.
const resetTokenBytes = 32

// Mailer отправляет письма пользователям. Реализация с реальным SMTP
// подключается в main, по умолчанию используется логирующая заглушка.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, resetURL string) error
}

// LogMailer — заглушка Mailer, пишущая ссылку в лог. Для окружений
// без почтового сервера.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(ctx context.Context, email, resetURL string) error {
	log := logger.FromContext(ctx)
	log.Info().
		Str("email", email).
		Str("reset_url", resetURL).
		Msg("Письмо сброса пароля (заглушка)")
	return nil
}

// RegisterParams — входные данные регистрации.
type RegisterParams struct {
	Name         string
	FirstSurname string
	LastSurname  string
	Email        string
	Password     string
	Business     string
}

// AuthResult — пользователь и выданный токен.
type AuthResult struct {
	User      domain.User
	Token     string
	ExpiresAt time.Time
}

// UserService — регистрация, аутентификация, профиль и адреса.
type UserService interface {
	// Register создаёт пользователя и выдаёт токен.
	Register(ctx context.Context, params RegisterParams) (*AuthResult, error)

	// Login проверяет учётные данные и выдаёт токен.
	Login(ctx context.Context, email, password string) (*AuthResult, error)

	// Logout отзывает токен через blacklist.
	Logout(ctx context.Context, token string) error

	// ForgotPassword создаёт одноразовый токен сброса и отправляет письмо.
	// Для неизвестного email молча ничего не делает (не раскрываем
	// существование аккаунта).
	ForgotPassword(ctx context.Context, email string) error

	// ResetPassword меняет пароль по одноразовому токену сброса.
	ResetPassword(ctx context.Context, token, newPassword string) error

	// GetProfile возвращает профиль пользователя.
	GetProfile(ctx context.Context, userID string) (*domain.User, error)

	// UpdateProfile обновляет профиль пользователя.
	UpdateProfile(ctx context.Context, user *domain.User) (*domain.User, error)

	// ChangePassword меняет пароль после проверки текущего.
	ChangePassword(ctx context.Context, userID, current, next string) error

	// CreateAddress добавляет адрес доставки.
	CreateAddress(ctx context.Context, address *domain.Address) (*domain.Address, error)

	// ListAddresses возвращает адреса пользователя.
	ListAddresses(ctx context.Context, userID string) ([]domain.Address, error)

	// UpdateAddress обновляет адрес пользователя.
	UpdateAddress(ctx context.Context, address *domain.Address) (*domain.Address, error)

	// DeleteAddress удаляет адрес пользователя.
	DeleteAddress(ctx context.Context, userID, addressID string) error
}

type userService struct {
	userRepo    repository.UserRepository
	addressRepo repository.AddressRepository
	jwt         *auth.Manager
	mailer      Mailer
	baseURL     string
	resetTTL    time.Duration
}

// NewUserService создаёт сервис пользователей.
// baseURL используется для построения ссылки сброса пароля.
func NewUserService(userRepo repository.UserRepository, addressRepo repository.AddressRepository, jwt *auth.Manager, mailer Mailer, baseURL string, resetTTL time.Duration) UserService {
	return &userService{
		userRepo:    userRepo,
		addressRepo: addressRepo,
		jwt:         jwt,
		mailer:      mailer,
		baseURL:     baseURL,
		resetTTL:    resetTTL,
	}
}

func (s *userService) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	log := logger.FromContext(ctx)

	if err := domain.ValidatePassword(params.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("ошибка хэширования пароля: %w", err)
	}

	user := domain.User{
		ID:           uuid.New().String(),
		Role:         domain.RoleCustomer,
		Name:         params.Name,
		FirstSurname: params.FirstSurname,
		LastSurname:  params.LastSurname,
		Email:        strings.ToLower(params.Email),
		PasswordHash: string(hash),
		Business:     params.Business,
	}

	if err := s.userRepo.Create(ctx, &user); err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Msg("Зарегистрирован пользователь")

	return s.issueToken(&user)
}

func (s *userService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	log := logger.FromContext(ctx)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Одинаковый ответ для неизвестного email и неверного пароля.
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn().Str("email", user.Email).Msg("Неудачная попытка входа")
		return nil, domain.ErrInvalidCredentials
	}

	log.Info().Str("user_id", user.ID).Msg("Пользователь вошёл в систему")

	return s.issueToken(user)
}

func (s *userService) Logout(ctx context.Context, token string) error {
	return s.jwt.Revoke(ctx, token)
}

func (s *userService) issueToken(user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.jwt.Generate(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: *user, Token: token, ExpiresAt: expiresAt}, nil
}

// ForgotPassword генерирует криптослучайный токен, сохраняет его SHA-256
// и отправляет ссылку на email. В БД сам токен не попадает.
func (s *userService) ForgotPassword(ctx context.Context, email string) error {
	log := logger.FromContext(ctx)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			log.Info().Msg("Запрос сброса пароля для неизвестного email")
			return nil
		}
		return err
	}

	raw := make([]byte, resetTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("ошибка генерации токена: %w", err)
	}
	token := hex.EncodeToString(raw)
	hash := sha256.Sum256([]byte(token))

	reset := domain.PasswordReset{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: hex.EncodeToString(hash[:]),
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.userRepo.CreatePasswordReset(ctx, &reset); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.baseURL, "/"), token)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, resetURL); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Ошибка отправки письма сброса пароля")
		return err
	}

	log.Info().Str("user_id", user.ID).Msg("Отправлена ссылка сброса пароля")
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash := sha256.Sum256([]byte(token))
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("ошибка хэширования пароля: %w", err)
	}

	if err := s.userRepo.ConsumePasswordReset(ctx, hex.EncodeToString(hash[:]), string(passwordHash), time.Now()); err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Info().Msg("Пароль сброшен по токену")
	return nil
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *userService) UpdateProfile(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, user.ID)
}

func (s *userService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if err := domain.ValidatePassword(next); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcryptCost)
	if err != nil {
		return fmt.Errorf("ошибка хэширования пароля: %w", err)
	}

	if err := s.userRepo.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Info().Str("user_id", userID).Msg("Пароль изменён")
	return nil
}

func (s *userService) CreateAddress(ctx context.Context, address *domain.Address) (*domain.Address, error) {
	address.ID = uuid.New().String()
	if err := s.addressRepo.Create(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

func (s *userService) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	return s.addressRepo.ListByUser(ctx, userID)
}

func (s *userService) UpdateAddress(ctx context.Context, address *domain.Address) (*domain.Address, error) {
	if err := s.addressRepo.Update(ctx, address); err != nil {
		return nil, err
	}
	return s.addressRepo.GetByID(ctx, address.UserID, address.ID)
}

func (s *userService) DeleteAddress(ctx context.Context, userID, addressID string) error {
	return s.addressRepo.Delete(ctx, userID, addressID)
}
