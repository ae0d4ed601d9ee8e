package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// User is a credit holder. The ID is the buyer id that the checkout embeds in
// the PayPal custom_id, so it is a string rather than an auto-increment key.
type User struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)" json:"id" validate:"required,max=64"`
	Email         string    `gorm:"type:varchar(200);index" json:"email" validate:"omitempty,email,max=200"`
	Name          string    `gorm:"type:varchar(150)" json:"name" validate:"max=150"`
	CreditBalance int       `gorm:"not null;default:0" json:"credit_balance" validate:"gte=0"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}
