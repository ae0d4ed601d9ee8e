package billing

import "errors"

// Errors returned by WebhookProcessor.Process. Callers map them to HTTP
// statuses with errors.Is; wrapped errors carry the underlying detail.
var (
	ErrWebhookNotConfigured    = errors.New("PAYPAL_WEBHOOK_ID is not defined")
	ErrInvalidSignature        = errors.New("invalid webhook signature")
	ErrMalformedPayload        = errors.New("malformed webhook payload")
	ErrMissingTransactionID    = errors.New("resource id is undefined")
	ErrMissingIdentifier       = errors.New("custom id is undefined")
	ErrInvalidIdentifierFormat = errors.New("custom id is not in the expected format")
	ErrInvalidAmount           = errors.New("order amount is missing or invalid")
	ErrUserNotFound            = errors.New("user credits update failed: user not found")
	ErrPersistence             = errors.New("failed to apply payment")
)

// errDuplicateTransaction aborts the database transaction when the payment
// was already credited. It never leaves the package.
var errDuplicateTransaction = errors.New("transaction already recorded")
