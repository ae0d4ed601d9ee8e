package models

import "time"

const (
	WebhookProviderPayPal = "paypal"
)

// WebhookEvent stores provider webhook deliveries with deduplication
// metadata. It is an audit trail; credit idempotency is enforced by
// Transaction.TransactionID.
type WebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Provider        string     `gorm:"type:varchar(20);not null;index:ux_webhook_events_provider_event,unique,priority:1" json:"provider"`
	ProviderEventID string     `gorm:"type:varchar(191);not null;default:'';index:ux_webhook_events_provider_event,unique,priority:2" json:"provider_event_id"`
	EventType       string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	TransmissionID  string     `gorm:"type:varchar(100)" json:"transmission_id"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	SignatureValid  bool       `gorm:"default:false" json:"signature_valid"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Succeeded reports whether an earlier delivery of this event went through.
func (e *WebhookEvent) Succeeded() bool {
	return e.ProcessedAt != nil && e.ProcessingError == ""
}
