package billing

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/CreditFox/app/models"
)

// Repository provides DB operations used by the billing service. Methods
// called on the Repository handed to Transaction run inside that transaction.
type Repository interface {
	Transaction(ctx context.Context, fn func(tx Repository) error) error
	FindTransactionByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error)
	CreateTransaction(ctx context.Context, record *models.Transaction) error
	IncrementCredits(ctx context.Context, buyerID string, credits int) (*models.User, error)
	CreateWebhookEventIfNotExists(ctx context.Context, event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Transaction commits when fn returns nil and rolls back otherwise, including
// on panic.
func (r *gormRepository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) FindTransactionByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	var record models.Transaction
	err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *gormRepository) CreateTransaction(ctx context.Context, record *models.Transaction) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// IncrementCredits adds credits in a single UPDATE so concurrent top-ups for
// the same buyer cannot lose an increment.
func (r *gormRepository) IncrementCredits(ctx context.Context, buyerID string, credits int) (*models.User, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", buyerID).
		UpdateColumn("credit_balance", gorm.Expr("credit_balance + ?", credits))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}

	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", buyerID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) CreateWebhookEventIfNotExists(ctx context.Context, event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.WithContext(ctx).Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.WithContext(ctx).Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
