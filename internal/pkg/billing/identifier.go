package billing

import (
	"fmt"
	"strconv"
	"strings"
)

const identifierSeparator = "|"

// BillingIdentifier is the "plan|credits|buyerId" string the checkout stores
// in the PayPal custom_id (or reference_id).
type BillingIdentifier struct {
	Plan    string
	Credits int
	BuyerID string
}

func (b BillingIdentifier) String() string {
	return strings.Join([]string{b.Plan, strconv.Itoa(b.Credits), b.BuyerID}, identifierSeparator)
}

// ParseBillingIdentifier splits raw into exactly three non-empty parts with a
// positive integer credit count. Any other shape, including hyphenated
// reference ids, yields ErrInvalidIdentifierFormat.
func ParseBillingIdentifier(raw string) (BillingIdentifier, error) {
	parts := strings.Split(raw, identifierSeparator)
	if len(parts) != 3 {
		return BillingIdentifier{}, fmt.Errorf("%w: expected 3 parts, got %d", ErrInvalidIdentifierFormat, len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return BillingIdentifier{}, fmt.Errorf("%w: part %d is empty", ErrInvalidIdentifierFormat, i+1)
		}
	}

	credits, err := strconv.Atoi(parts[1])
	if err != nil || credits <= 0 {
		return BillingIdentifier{}, fmt.Errorf("%w: credits %q is not a positive integer", ErrInvalidIdentifierFormat, parts[1])
	}

	return BillingIdentifier{
		Plan:    parts[0],
		Credits: credits,
		BuyerID: parts[2],
	}, nil
}
