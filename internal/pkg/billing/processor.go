package billing

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CreditFox/app/models"
)

// PayloadArchiver stores verified raw payloads, e.g. in S3.
type PayloadArchiver interface {
	ArchivePayload(ctx context.Context, eventID string, body []byte) error
}

// OutcomeRecorder counts processing outcomes, e.g. in Redis.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, outcome string) error
}

// ProcessorConfig is injected instead of read from the environment so the
// processor can be built per test.
type ProcessorConfig struct {
	// WebhookID is the shared secret used for the signature gate.
	WebhookID string
}

type ProcessorOption func(*WebhookProcessor)

func WithArchiver(a PayloadArchiver) ProcessorOption {
	return func(p *WebhookProcessor) { p.archiver = a }
}

func WithOutcomeRecorder(r OutcomeRecorder) ProcessorOption {
	return func(p *WebhookProcessor) { p.recorder = r }
}

// WebhookProcessor turns a PayPal notification into at most one credited
// payment.
type WebhookProcessor struct {
	cfg      ProcessorConfig
	svc      *Service
	archiver PayloadArchiver
	recorder OutcomeRecorder
}

func NewWebhookProcessor(cfg ProcessorConfig, svc *Service, opts ...ProcessorOption) *WebhookProcessor {
	p := &WebhookProcessor{cfg: cfg, svc: svc}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs the configuration check, the signature gate, parsing, dispatch
// and the transactional credit application, in that order. A nil error means
// the delivery should be acknowledged with 200.
func (p *WebhookProcessor) Process(ctx context.Context, n Notification) (*Outcome, error) {
	outcome, err := p.process(ctx, n)
	p.recordOutcome(ctx, OutcomeLabel(outcome, err))
	return outcome, err
}

func (p *WebhookProcessor) process(ctx context.Context, n Notification) (*Outcome, error) {
	webhookID := strings.TrimSpace(p.cfg.WebhookID)
	if webhookID == "" {
		log.Error("[PayPalWebhook] PAYPAL_WEBHOOK_ID is not configured")
		return nil, ErrWebhookNotConfigured
	}

	if !VerifyPayPalWebhookSignature(n.Headers, n.Body, webhookID) {
		log.Warnf("[PayPalWebhook] Invalid signature for transmission %q", n.Headers.TransmissionID)
		return nil, ErrInvalidSignature
	}

	ev, err := ParseEvent(n.Body)
	if err != nil {
		log.Errorf("[PayPalWebhook] %v", err)
		return nil, err
	}
	log.Infof("[PayPalWebhook] Received event %s (%s), transmission %s, cert %s", ev.ID, ev.EventType, n.Headers.TransmissionID, n.Headers.CertURL)

	p.archive(ctx, ev, n.Body)

	stored := p.recordDelivery(ctx, ev, n)
	if stored != nil && stored.Succeeded() {
		log.Infof("[PayPalWebhook] Event %s already processed, acknowledging", stored.ProviderEventID)
		return &Outcome{Kind: OutcomeDuplicate, EventID: ev.ID, EventType: ev.EventType}, nil
	}

	outcome, err := p.dispatch(ctx, ev)
	p.markProcessed(ctx, stored, err)
	return outcome, err
}

func (p *WebhookProcessor) dispatch(ctx context.Context, ev *InboundEvent) (*Outcome, error) {
	if !IsHandledEvent(ev.EventType) {
		log.Debugf("[PayPalWebhook] Ignoring event type %q", ev.EventType)
		return &Outcome{Kind: OutcomeIgnored, EventID: ev.ID, EventType: ev.EventType}, nil
	}

	payment, err := ExtractPayment(ev)
	if err != nil {
		log.Warnf("[PayPalWebhook] Event %s rejected: %v", ev.ID, err)
		return nil, err
	}
	log.Debugf("[PayPalWebhook] Event %s: identifier=%s amount=%s %s transaction=%s",
		ev.ID, payment.Identifier, payment.Amount, payment.Currency, payment.TransactionID)

	result, err := p.svc.ApplyPayment(ctx, *payment)
	if err != nil {
		log.Errorf("[PayPalWebhook] Event %s: %v", ev.ID, err)
		return nil, err
	}

	kind := OutcomeCredited
	if result.Duplicate {
		kind = OutcomeDuplicate
	}
	return &Outcome{
		Kind:      kind,
		EventID:   ev.ID,
		EventType: ev.EventType,
		Payment:   payment,
		Result:    result,
	}, nil
}

func (p *WebhookProcessor) archive(ctx context.Context, ev *InboundEvent, body []byte) {
	if p.archiver == nil {
		return
	}
	if err := p.archiver.ArchivePayload(ctx, ev.ID, body); err != nil {
		log.Warnf("[PayPalWebhook] Failed to archive event %s: %v", ev.ID, err)
	}
}

// recordDelivery returns nil when the delivery log is unavailable; processing
// continues without it.
func (p *WebhookProcessor) recordDelivery(ctx context.Context, ev *InboundEvent, n Notification) *models.WebhookEvent {
	_, stored, err := p.svc.RecordWebhookEvent(ctx, WebhookEventInput{
		Provider:        models.WebhookProviderPayPal,
		ProviderEventID: ev.ID,
		EventType:       ev.EventType,
		TransmissionID:  n.Headers.TransmissionID,
		PayloadJSON:     string(n.Body),
		SignatureValid:  true,
	})
	if err != nil {
		log.Warnf("[PayPalWebhook] Failed to record delivery of event %s: %v", ev.ID, err)
		return nil
	}
	return stored
}

func (p *WebhookProcessor) markProcessed(ctx context.Context, stored *models.WebhookEvent, processingErr error) {
	if stored == nil {
		return
	}
	if err := p.svc.MarkWebhookProcessed(ctx, stored.ID, processingErr); err != nil {
		log.Warnf("[PayPalWebhook] Failed to mark event %s processed: %v", stored.ProviderEventID, err)
	}
}

func (p *WebhookProcessor) recordOutcome(ctx context.Context, label string) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.RecordOutcome(ctx, label); err != nil {
		log.Warnf("[PayPalWebhook] Failed to record outcome %s: %v", label, err)
	}
}

// OutcomeLabel names the result of Process for counters and logs.
func OutcomeLabel(outcome *Outcome, err error) string {
	switch {
	case err == nil && outcome != nil:
		return string(outcome.Kind)
	case errors.Is(err, ErrWebhookNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, ErrMissingIdentifier), errors.Is(err, ErrInvalidIdentifierFormat):
		return "invalid_identifier"
	case errors.Is(err, ErrMissingTransactionID), errors.Is(err, ErrInvalidAmount):
		return "invalid_resource"
	case errors.Is(err, ErrPersistence):
		return "persistence_failure"
	default:
		return "error"
	}
}
