package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// ComputePayPalSignature returns base64(HMAC-SHA256) over
// "transmissionId|transmissionTime|body|webhookId", keyed with the webhook id.
func ComputePayPalSignature(transmissionID, transmissionTime string, body []byte, webhookID string) string {
	mac := hmac.New(sha256.New, []byte(webhookID))
	mac.Write([]byte(transmissionID))
	mac.Write([]byte("|"))
	mac.Write([]byte(transmissionTime))
	mac.Write([]byte("|"))
	mac.Write(body)
	mac.Write([]byte("|"))
	mac.Write([]byte(webhookID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyPayPalWebhookSignature compares the received signature with the
// expected digest in constant time.
func VerifyPayPalWebhookSignature(headers TransmissionHeaders, body []byte, webhookID string) bool {
	sig := strings.TrimSpace(headers.TransmissionSig)
	secret := strings.TrimSpace(webhookID)
	if sig == "" || secret == "" {
		return false
	}

	decodedSig, err := base64.StdEncoding.DecodeString(sig)
	if err != nil {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(
		ComputePayPalSignature(headers.TransmissionID, headers.TransmissionTime, body, secret),
	)
	if err != nil {
		return false
	}
	return hmac.Equal(decodedSig, expected)
}
