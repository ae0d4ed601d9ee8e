package billing

import (
	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/CreditFox/app/models"
)

// TransmissionHeaders carries the paypal-transmission-* request headers.
type TransmissionHeaders struct {
	TransmissionID   string
	TransmissionTime string
	TransmissionSig  string
	CertURL          string
}

// Notification is one inbound webhook delivery as received over HTTP.
type Notification struct {
	Headers TransmissionHeaders
	Body    []byte
}

// PaymentDetails is what a handled event boils down to.
type PaymentDetails struct {
	TransactionID string
	EventType     string
	Identifier    BillingIdentifier
	Amount        decimal.Decimal
	Currency      string
}

// ApplyResult describes the effect of Service.ApplyPayment.
type ApplyResult struct {
	Transaction *models.Transaction
	User        *models.User
	Duplicate   bool
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	TransmissionID  string
	PayloadJSON     string
	SignatureValid  bool
}

// OutcomeKind classifies a successfully handled delivery.
type OutcomeKind string

const (
	OutcomeCredited  OutcomeKind = "credited"
	OutcomeDuplicate OutcomeKind = "duplicate"
	OutcomeIgnored   OutcomeKind = "ignored"
)

// Outcome is returned by WebhookProcessor.Process for every 200 response.
type Outcome struct {
	Kind      OutcomeKind
	EventID   string
	EventType string
	Payment   *PaymentDetails
	Result    *ApplyResult
}
