package billing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	EventCheckoutOrderApproved   = "CHECKOUT.ORDER.APPROVED"
	EventPaymentCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
)

// InboundEvent is the envelope of a PayPal webhook notification. Resource
// stays raw until the event type is known.
type InboundEvent struct {
	ID           string          `json:"id"`
	EventType    string          `json:"event_type"`
	ResourceType string          `json:"resource_type"`
	Resource     json.RawMessage `json:"resource"`
}

type paypalAmount struct {
	Value        string `json:"value"`
	CurrencyCode string `json:"currency_code"`
}

type purchaseUnit struct {
	ReferenceID string        `json:"reference_id"`
	CustomID    string        `json:"custom_id"`
	Amount      *paypalAmount `json:"amount"`
}

type orderResource struct {
	ID            string         `json:"id"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
}

type captureResource struct {
	ID                string        `json:"id"`
	CustomID          string        `json:"custom_id"`
	ReferenceID       string        `json:"reference_id"`
	Amount            *paypalAmount `json:"amount"`
	SupplementaryData struct {
		RelatedIDs struct {
			OrderID string `json:"order_id"`
		} `json:"related_ids"`
	} `json:"supplementary_data"`
}

// resourceFields are the raw values an extractor pulls from a resource.
type resourceFields struct {
	TransactionID string
	Identifier    string
	Amount        string
	Currency      string
}

type fieldExtractor func(resource json.RawMessage) (resourceFields, error)

// eventExtractors is the dispatch table of handled event types.
var eventExtractors = map[string]fieldExtractor{
	EventCheckoutOrderApproved:   extractOrderApproved,
	EventPaymentCaptureCompleted: extractCaptureCompleted,
}

func extractOrderApproved(raw json.RawMessage) (resourceFields, error) {
	var order orderResource
	if err := json.Unmarshal(raw, &order); err != nil {
		return resourceFields{}, fmt.Errorf("%w: order resource: %v", ErrMalformedPayload, err)
	}

	fields := resourceFields{TransactionID: strings.TrimSpace(order.ID)}
	if len(order.PurchaseUnits) == 0 {
		return fields, nil
	}
	unit := order.PurchaseUnits[0]
	fields.Identifier = firstNonEmpty(unit.CustomID, unit.ReferenceID)
	if unit.Amount != nil {
		fields.Amount = unit.Amount.Value
		fields.Currency = unit.Amount.CurrencyCode
	}
	return fields, nil
}

// extractCaptureCompleted keys captures by their related order id when PayPal
// provides one, so an order that is approved and then captured is credited
// only once.
func extractCaptureCompleted(raw json.RawMessage) (resourceFields, error) {
	var capture captureResource
	if err := json.Unmarshal(raw, &capture); err != nil {
		return resourceFields{}, fmt.Errorf("%w: capture resource: %v", ErrMalformedPayload, err)
	}

	fields := resourceFields{
		TransactionID: firstNonEmpty(capture.SupplementaryData.RelatedIDs.OrderID, capture.ID),
		Identifier:    firstNonEmpty(capture.CustomID, capture.ReferenceID),
	}
	if capture.Amount != nil {
		fields.Amount = capture.Amount.Value
		fields.Currency = capture.Amount.CurrencyCode
	}
	return fields, nil
}

// ParseEvent decodes the notification envelope.
func ParseEvent(body []byte) (*InboundEvent, error) {
	var ev InboundEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	ev.ID = strings.TrimSpace(ev.ID)
	ev.EventType = strings.TrimSpace(ev.EventType)
	return &ev, nil
}

// IsHandledEvent reports whether eventType credits a user.
func IsHandledEvent(eventType string) bool {
	_, ok := eventExtractors[eventType]
	return ok
}

// ExtractPayment turns a handled event into PaymentDetails.
func ExtractPayment(ev *InboundEvent) (*PaymentDetails, error) {
	extract, ok := eventExtractors[ev.EventType]
	if !ok {
		return nil, fmt.Errorf("unhandled event type %q", ev.EventType)
	}
	if len(bytes.TrimSpace(ev.Resource)) == 0 || bytes.Equal(bytes.TrimSpace(ev.Resource), []byte("null")) {
		return nil, fmt.Errorf("%w: resource is missing", ErrMalformedPayload)
	}

	fields, err := extract(ev.Resource)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(fields.Identifier) == "" {
		return nil, ErrMissingIdentifier
	}
	identifier, err := ParseBillingIdentifier(fields.Identifier)
	if err != nil {
		return nil, err
	}
	if fields.TransactionID == "" {
		return nil, ErrMissingTransactionID
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(fields.Amount))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, fields.Amount)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, amount)
	}

	return &PaymentDetails{
		TransactionID: fields.TransactionID,
		EventType:     ev.EventType,
		Identifier:    identifier,
		Amount:        amount,
		Currency:      fields.Currency,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
