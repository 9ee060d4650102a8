package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"example.com/bagstore/internal/domain"
)

// AddressRepository определяет интерфейс работы с адресами доставки.
type AddressRepository interface {
	// Create создаёт адрес пользователя.
	Create(ctx context.Context, address *domain.Address) error

	// ListByUser возвращает адреса пользователя.
	ListByUser(ctx context.Context, userID string) ([]domain.Address, error)

	// GetByID возвращает адрес, принадлежащий пользователю.
	// Чужой или отсутствующий адрес — domain.ErrAddressNotFound.
	GetByID(ctx context.Context, userID, addressID string) (*domain.Address, error)

	// Update обновляет адрес пользователя.
	Update(ctx context.Context, address *domain.Address) error

	// Delete удаляет адрес пользователя.
	Delete(ctx context.Context, userID, addressID string) error
}

// AddressModel — GORM модель для таблицы addresses.
type AddressModel struct {
	ID         string `gorm:"column:id;type:varchar(36);primaryKey"`
	UserID     string `gorm:"column:user_id;type:varchar(36);not null;index"`
	Province   string `gorm:"column:province;type:varchar(100);not null"`
	Canton     string `gorm:"column:canton;type:varchar(100);not null"`
	District   string `gorm:"column:district;type:varchar(100);not null"`
	Exact      string `gorm:"column:exact;type:text;not null"`
	PostalCode string `gorm:"column:postal_code;type:varchar(20)"`
}

func (AddressModel) TableName() string { return "addresses" }

func (m *AddressModel) toDomain() domain.Address {
	return domain.Address{
		ID:         m.ID,
		UserID:     m.UserID,
		Province:   m.Province,
		Canton:     m.Canton,
		District:   m.District,
		Exact:      m.Exact,
		PostalCode: m.PostalCode,
	}
}

type addressRepository struct {
	db *gorm.DB
}

// NewAddressRepository создаёт репозиторий адресов.
func NewAddressRepository(db *gorm.DB) AddressRepository {
	return &addressRepository{db: db}
}

func (r *addressRepository) Create(ctx context.Context, address *domain.Address) error {
	model := AddressModel{
		ID:         address.ID,
		UserID:     address.UserID,
		Province:   address.Province,
		Canton:     address.Canton,
		District:   address.District,
		Exact:      address.Exact,
		PostalCode: address.PostalCode,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *addressRepository) ListByUser(ctx context.Context, userID string) ([]domain.Address, error) {
	var models []AddressModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("province ASC, canton ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	addresses := make([]domain.Address, len(models))
	for i := range models {
		addresses[i] = models[i].toDomain()
	}
	return addresses, nil
}

func (r *addressRepository) GetByID(ctx context.Context, userID, addressID string) (*domain.Address, error) {
	var model AddressModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAddressNotFound
	}
	if err != nil {
		return nil, err
	}

	address := model.toDomain()
	return &address, nil
}

func (r *addressRepository) Update(ctx context.Context, address *domain.Address) error {
	result := r.db.WithContext(ctx).Model(&AddressModel{}).
		Where("id = ? AND user_id = ?", address.ID, address.UserID).
		Updates(map[string]any{
			"province":    address.Province,
			"canton":      address.Canton,
			"district":    address.District,
			"exact":       address.Exact,
			"postal_code": address.PostalCode,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrAddressNotFound
	}
	return nil
}

func (r *addressRepository) Delete(ctx context.Context, userID, addressID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Delete(&AddressModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrAddressNotFound
	}
	return nil
}
