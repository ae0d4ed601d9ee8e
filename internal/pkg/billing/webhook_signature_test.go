package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"
)

func TestComputePayPalSignature(t *testing.T) {
	body := []byte(`{"id":"WH-1"}`)
	secret := "top-secret"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("tid|2024-05-01T12:00:00Z|" + string(body) + "|" + secret))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if got := ComputePayPalSignature("tid", "2024-05-01T12:00:00Z", body, secret); got != want {
		t.Fatalf("ComputePayPalSignature = %q, want %q", got, want)
	}
}

func TestVerifyPayPalWebhookSignature(t *testing.T) {
	body := []byte(`{"foo":"bar"}`)
	secret := "top-secret"
	headers := TransmissionHeaders{TransmissionID: "tid", TransmissionTime: "now"}
	headers.TransmissionSig = ComputePayPalSignature(headers.TransmissionID, headers.TransmissionTime, body, secret)

	if !VerifyPayPalWebhookSignature(headers, body, secret) {
		t.Fatalf("expected signature to validate")
	}

	tests := []struct {
		name    string
		headers TransmissionHeaders
		body    []byte
		secret  string
	}{
		{name: "tampered body", headers: headers, body: []byte(`{"foo":"baz"}`), secret: secret},
		{name: "wrong secret", headers: headers, body: body, secret: "other"},
		{name: "missing signature", headers: TransmissionHeaders{TransmissionID: "tid", TransmissionTime: "now"}, body: body, secret: secret},
		{name: "not base64", headers: TransmissionHeaders{TransmissionID: "tid", TransmissionTime: "now", TransmissionSig: "%%%"}, body: body, secret: secret},
		{name: "empty secret", headers: headers, body: body, secret: ""},
	}
	for _, tt := range tests {
		if VerifyPayPalWebhookSignature(tt.headers, tt.body, tt.secret) {
			t.Fatalf("%s: expected signature check to fail", tt.name)
		}
	}
}
