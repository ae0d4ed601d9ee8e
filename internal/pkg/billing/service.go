package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CreditFox/app/models"
)

// Service applies credited payments and keeps the webhook delivery log.
type Service struct {
	repo Repository
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// ApplyPayment records the transaction and credits the buyer atomically. A
// transaction id that was already recorded is reported as a duplicate and
// changes nothing. Every other failure is wrapped in ErrPersistence.
func (s *Service) ApplyPayment(ctx context.Context, p PaymentDetails) (*ApplyResult, error) {
	result := &ApplyResult{}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		existing, err := tx.FindTransactionByTransactionID(ctx, p.TransactionID)
		if err == nil {
			result.Transaction = existing
			return errDuplicateTransaction
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lookup transaction %s: %w", p.TransactionID, err)
		}

		record := &models.Transaction{
			TransactionID: p.TransactionID,
			Plan:          p.Identifier.Plan,
			Amount:        p.Amount,
			Credits:       p.Identifier.Credits,
			BuyerID:       p.Identifier.BuyerID,
		}
		if err := record.Validate(); err != nil {
			return fmt.Errorf("invalid transaction record: %w", err)
		}
		if err := tx.CreateTransaction(ctx, record); err != nil {
			// A concurrent delivery won the race on the unique index.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errDuplicateTransaction
			}
			return fmt.Errorf("create transaction: %w", err)
		}

		user, err := tx.IncrementCredits(ctx, p.Identifier.BuyerID, p.Identifier.Credits)
		if err != nil {
			return fmt.Errorf("update credits for %s: %w", p.Identifier.BuyerID, err)
		}

		result.Transaction = record
		result.User = user
		return nil
	})

	if errors.Is(err, errDuplicateTransaction) {
		log.Infof("[Billing] Transaction %s already credited, skipping", p.TransactionID)
		result.Duplicate = true
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	log.Infof("[Billing] Credited %d credits to %s (transaction %s, plan %s, amount %s)",
		p.Identifier.Credits, p.Identifier.BuyerID, p.TransactionID, p.Identifier.Plan, p.Amount)
	return result, nil
}

// RecordWebhookEvent persists webhook payloads idempotently.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.WebhookEvent, error) {
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.WebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		TransmissionID:  strings.TrimSpace(in.TransmissionID),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(ctx, event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(ctx, webhookEventID, errMsg)
}
