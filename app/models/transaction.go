package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction records one credited payment. TransactionID is the PayPal
// order/capture id and is unique, which is what makes redelivered webhooks
// a no-op.
type Transaction struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UUID          string          `gorm:"type:char(36);uniqueIndex" json:"uuid"`
	TransactionID string          `gorm:"type:varchar(64);not null;uniqueIndex:ux_transactions_transaction_id" json:"transaction_id" validate:"required,max=64"`
	Plan          string          `gorm:"type:varchar(100);not null" json:"plan" validate:"required,max=100"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Credits       int             `gorm:"not null" json:"credits" validate:"gt=0"`
	BuyerID       string          `gorm:"type:varchar(64);not null;index" json:"buyer_id" validate:"required,max=64"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (t *Transaction) Validate() error {
	v := validator.New()

	return v.Struct(t)
}

// BeforeCreate assigns the public UUID.
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == "" {
		t.UUID = uuid.New().String()
	}
	return nil
}
