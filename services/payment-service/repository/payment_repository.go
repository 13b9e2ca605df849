package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository interface {
	// CreateIfAbsent inserts payment unless a row with the same session id
	// exists. created is false for a duplicate.
	CreateIfAbsent(ctx context.Context, payment *models.Payment) (created bool, err error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindBySessionID(ctx context.Context, sessionID string) (*models.Payment, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID, page, limit int) ([]models.Payment, int64, error)
	SetFulfillmentError(ctx context.Context, id uuid.UUID, msg *string) error
}

type gormPaymentRepo struct {
	db *gorm.DB
}

func NewGormPaymentRepo(db *gorm.DB) PaymentRepository {
	return &gormPaymentRepo{db: db}
}

func (r *gormPaymentRepo) CreateIfAbsent(ctx context.Context, payment *models.Payment) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "session_id"}}, DoNothing: true}).
		Create(payment)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormPaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *gormPaymentRepo) FindBySessionID(ctx context.Context, sessionID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *gormPaymentRepo) ListByOrganization(ctx context.Context, orgID uuid.UUID, page, limit int) ([]models.Payment, int64, error) {
	var (
		payments []models.Payment
		total    int64
	)
	q := r.db.WithContext(ctx).Model(&models.Payment{}).Where("organization_id = ?", orgID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

// SetFulfillmentError records (or with nil, clears) the last failed effect.
func (r *gormPaymentRepo) SetFulfillmentError(ctx context.Context, id uuid.UUID, msg *string) error {
	return r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ?", id).
		Update("fulfillment_error", msg).Error
}
