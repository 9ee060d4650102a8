package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/bagstore/internal/domain"
	"example.com/bagstore/internal/events"
)

// ReceiptRepository определяет интерфейс работы с подтверждениями оплаты.
type ReceiptRepository interface {
	// Create сохраняет метаданные загруженного подтверждения и помечает
	// заказ как имеющий подтверждение.
	Create(ctx context.Context, receipt *domain.Receipt) error

	// GetByID возвращает подтверждение по ID.
	GetByID(ctx context.Context, receiptID string) (*domain.Receipt, error)

	// ListByOrder возвращает подтверждения заказа (новые первыми).
	ListByOrder(ctx context.Context, orderID string) ([]domain.Receipt, error)

	// ListPending возвращает страницу подтверждений, ожидающих проверки.
	ListPending(ctx context.Context, page, pageSize int) ([]domain.Receipt, int64, error)

	// Approve одобряет подтверждение и помечает заказ оплаченным.
	// Единая транзакция: receipt approved + статус paid + outbox.
	Approve(ctx context.Context, receiptID, reviewerID string, notes *string) error

	// Reject отклоняет подтверждение.
	Reject(ctx context.Context, receiptID, reviewerID string, notes *string) error
}

// ReceiptModel — GORM модель для таблицы receipts.
type ReceiptModel struct {
	ID         string     `gorm:"column:id;type:varchar(36);primaryKey"`
	OrderID    string     `gorm:"column:order_id;type:varchar(36);not null;index"`
	FileURL    string     `gorm:"column:file_url;type:varchar(500);not null"`
	MimeType   string     `gorm:"column:mime_type;type:varchar(100);not null"`
	FileName   string     `gorm:"column:file_name;type:varchar(255);not null"`
	SizeBytes  int64      `gorm:"column:size_bytes;not null"`
	State      string     `gorm:"column:state;type:varchar(10);not null;default:'pending';index"`
	Notes      *string    `gorm:"column:notes;type:text"`
	UploadedBy string     `gorm:"column:uploaded_by;type:varchar(36);not null"`
	UploadedAt time.Time  `gorm:"column:uploaded_at;autoCreateTime"`
	ReviewedBy *string    `gorm:"column:reviewed_by;type:varchar(36)"`
	ReviewedAt *time.Time `gorm:"column:reviewed_at"`
}

func (ReceiptModel) TableName() string { return "receipts" }

func (m *ReceiptModel) toDomain() domain.Receipt {
	return domain.Receipt{
		ID:         m.ID,
		OrderID:    m.OrderID,
		FileURL:    m.FileURL,
		MimeType:   m.MimeType,
		FileName:   m.FileName,
		SizeBytes:  m.SizeBytes,
		State:      m.State,
		Notes:      m.Notes,
		UploadedBy: m.UploadedBy,
		UploadedAt: m.UploadedAt,
		ReviewedBy: m.ReviewedBy,
		ReviewedAt: m.ReviewedAt,
	}
}

type receiptRepository struct {
	db     *gorm.DB
	outbox events.Repository
	topic  string
}

// NewReceiptRepository создаёт репозиторий подтверждений оплаты.
func NewReceiptRepository(db *gorm.DB, outbox events.Repository, topic string) ReceiptRepository {
	return &receiptRepository{db: db, outbox: outbox, topic: topic}
}

func (r *receiptRepository) Create(ctx context.Context, receipt *domain.Receipt) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := ReceiptModel{
			ID:         receipt.ID,
			OrderID:    receipt.OrderID,
			FileURL:    receipt.FileURL,
			MimeType:   receipt.MimeType,
			FileName:   receipt.FileName,
			SizeBytes:  receipt.SizeBytes,
			State:      domain.ReceiptPending,
			UploadedBy: receipt.UploadedBy,
		}
		if err := tx.Create(&model).Error; err != nil {
			return err
		}

		result := tx.Model(&OrderModel{}).
			Where("id = ?", receipt.OrderID).
			Update("has_receipt", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrOrderNotFound
		}

		receipt.State = model.State
		receipt.UploadedAt = model.UploadedAt
		return nil
	})
}

func (r *receiptRepository) GetByID(ctx context.Context, receiptID string) (*domain.Receipt, error) {
	var model ReceiptModel
	err := r.db.WithContext(ctx).Where("id = ?", receiptID).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrReceiptNotFound
	}
	if err != nil {
		return nil, err
	}

	receipt := model.toDomain()
	return &receipt, nil
}

func (r *receiptRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Receipt, error) {
	var models []ReceiptModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("uploaded_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	receipts := make([]domain.Receipt, len(models))
	for i := range models {
		receipts[i] = models[i].toDomain()
	}
	return receipts, nil
}

func (r *receiptRepository) ListPending(ctx context.Context, page, pageSize int) ([]domain.Receipt, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := r.db.WithContext(ctx).Model(&ReceiptModel{}).
		Where("state = ?", domain.ReceiptPending)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []ReceiptModel
	if err := query.
		Order("uploaded_at ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}

	receipts := make([]domain.Receipt, len(models))
	for i := range models {
		receipts[i] = models[i].toDomain()
	}
	return receipts, total, nil
}

// Approve одобряет подтверждение и помечает заказ оплаченным одной
// транзакцией. Проверяется повторно только pending-состояние: одобренное
// или отклонённое подтверждение пересматривать нельзя.
func (r *receiptRepository) Approve(ctx context.Context, receiptID, reviewerID string, notes *string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := r.lockPending(tx, receiptID)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := r.review(tx, model.ID, domain.ReceiptApproved, reviewerID, notes, now); err != nil {
			return err
		}

		return markOrderPaid(ctx, tx, r.outbox, r.topic, model.OrderID, now)
	})
}

func (r *receiptRepository) Reject(ctx context.Context, receiptID, reviewerID string, notes *string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := r.lockPending(tx, receiptID)
		if err != nil {
			return err
		}
		return r.review(tx, model.ID, domain.ReceiptRejected, reviewerID, notes, time.Now())
	})
}

// lockPending блокирует подтверждение и проверяет, что оно ещё не рассмотрено.
func (r *receiptRepository) lockPending(tx *gorm.DB, receiptID string) (*ReceiptModel, error) {
	var model ReceiptModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", receiptID).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrReceiptNotFound
	}
	if err != nil {
		return nil, err
	}
	if model.State != domain.ReceiptPending {
		return nil, domain.ErrInvalidReceiptState
	}
	return &model, nil
}

func (r *receiptRepository) review(tx *gorm.DB, receiptID, state, reviewerID string, notes *string, at time.Time) error {
	return tx.Model(&ReceiptModel{}).
		Where("id = ?", receiptID).
		Updates(map[string]any{
			"state":       state,
			"notes":       notes,
			"reviewed_by": reviewerID,
			"reviewed_at": at,
		}).Error
}
