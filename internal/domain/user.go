package domain

import "time"

// Роли пользователей.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// minPasswordLength — минимальная длина пароля.
const minPasswordLength = 8

// ValidatePassword проверяет минимальные требования к паролю.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// User — пользователь магазина.
type User struct {
	ID           string
	Role         string
	Name         string
	FirstSurname string
	LastSurname  string
	Email        string
	PasswordHash string
	Business     string // Название бизнеса клиента (дистрибьютор B2B)
	RegisteredAt time.Time
}

// IsAdmin сообщает, что пользователь — сотрудник с правами администратора.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Address — адрес доставки пользователя.
type Address struct {
	ID         string
	UserID     string
	Province   string
	Canton     string
	District   string
	Exact      string
	PostalCode string
}

// PasswordReset — одноразовый токен сброса пароля. В БД хранится только
// SHA-256 от токена; сам токен уходит пользователю в письме.
type PasswordReset struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Expired сообщает, что срок действия токена истёк.
func (p *PasswordReset) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Состояния подтверждения оплаты.
const (
	ReceiptPending  = "pending"
	ReceiptApproved = "approved"
	ReceiptRejected = "rejected"
)

// Receipt — метаданные подтверждения оплаты (чек/квитанция), загруженного
// клиентом. Сам файл хранится во внешнем хранилище, здесь только ссылка.
type Receipt struct {
	ID         string
	OrderID    string
	FileURL    string
	MimeType   string
	FileName   string
	SizeBytes  int64
	State      string // pending|approved|rejected
	Notes      *string
	UploadedBy string
	UploadedAt time.Time
	ReviewedBy *string
	ReviewedAt *time.Time
}
