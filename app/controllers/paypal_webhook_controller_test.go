package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CreditFox/app/models"
	"github.com/ManuelReschke/CreditFox/internal/pkg/billing"
	"github.com/ManuelReschke/CreditFox/internal/pkg/database"
)

const testWebhookID = "WH-CONTROLLER-TEST"

func newWebhookTestApp(t *testing.T, webhookID string) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, db.Create(&models.User{ID: "U1", CreditBalance: 0}).Error)

	processor := billing.NewWebhookProcessor(billing.ProcessorConfig{WebhookID: webhookID}, billing.NewServiceFromDB(db))
	app := fiber.New()
	app.Post("/webhooks/paypal", NewPayPalWebhookController(processor).HandleWebhook)
	return app, db
}

func newWebhookRequest(body string, sign bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paypal", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("paypal-transmission-id", "tx-42")
	req.Header.Set("paypal-transmission-time", "2024-05-01T12:00:00Z")
	req.Header.Set("paypal-cert-url", "https://api.paypal.com/v1/notifications/certs/CERT-1")
	if sign {
		req.Header.Set("paypal-transmission-sig", billing.ComputePayPalSignature("tx-42", "2024-05-01T12:00:00Z", []byte(body), testWebhookID))
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]string {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]string{}
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func balanceOf(t *testing.T, db *gorm.DB, id string) int {
	t.Helper()
	var user models.User
	require.NoError(t, db.Where("id = ?", id).First(&user).Error)
	return user.CreditBalance
}

func TestHandleWebhookCreditsUser(t *testing.T) {
	app, db := newWebhookTestApp(t, testWebhookID)
	body := `{"id":"WH-1","event_type":"CHECKOUT.ORDER.APPROVED","resource":{"id":"O1","purchase_units":[{"custom_id":"pro|50|U1","amount":{"value":"9.99"}}]}}`

	resp, err := app.Test(newWebhookRequest(body, true), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Webhook processed successfully", decodeBody(t, resp)["message"])
	assert.Equal(t, 50, balanceOf(t, db, "U1"))

	resp, err = app.Test(newWebhookRequest(body, true), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 50, balanceOf(t, db, "U1"))
}

func TestHandleWebhookIgnoredEvent(t *testing.T) {
	app, db := newWebhookTestApp(t, testWebhookID)
	body := `{"id":"WH-2","event_type":"PAYMENT.CAPTURE.REFUNDED","resource":{"id":"T2"}}`

	resp, err := app.Test(newWebhookRequest(body, true), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, balanceOf(t, db, "U1"))
}

func TestHandleWebhookErrorResponses(t *testing.T) {
	tests := []struct {
		name        string
		webhookID   string
		body        string
		sign        bool
		wantStatus  int
		wantError   string
		wantDetails bool
	}{
		{
			name:        "secret not configured",
			webhookID:   "",
			body:        `not json`,
			sign:        true,
			wantStatus:  fiber.StatusInternalServerError,
			wantError:   "Server configuration error",
			wantDetails: true,
		},
		{
			name:       "missing signature",
			webhookID:  testWebhookID,
			body:       `{"id":"WH-3","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"T3","custom_id":"pro|50|U1","amount":{"value":"1.00"}}}`,
			wantStatus: fiber.StatusBadRequest,
			wantError:  "Invalid signature",
		},
		{
			name:        "malformed json",
			webhookID:   testWebhookID,
			body:        `{"id":`,
			sign:        true,
			wantStatus:  fiber.StatusInternalServerError,
			wantError:   "Internal server error",
			wantDetails: true,
		},
		{
			name:       "missing custom id",
			webhookID:  testWebhookID,
			body:       `{"id":"WH-4","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"T4","amount":{"value":"1.00"}}}`,
			sign:       true,
			wantStatus: fiber.StatusBadRequest,
			wantError:  "Custom ID is undefined",
		},
		{
			name:       "hyphenated custom id",
			webhookID:  testWebhookID,
			body:       `{"id":"WH-5","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"T5","custom_id":"pro-50-U1","amount":{"value":"1.00"}}}`,
			sign:       true,
			wantStatus: fiber.StatusBadRequest,
			wantError:  "Custom ID is not in the expected format",
		},
		{
			name:        "unknown buyer",
			webhookID:   testWebhookID,
			body:        `{"id":"WH-6","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"T6","custom_id":"pro|50|NOBODY","amount":{"value":"1.00"}}}`,
			sign:        true,
			wantStatus:  fiber.StatusInternalServerError,
			wantError:   "Internal server error",
			wantDetails: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, db := newWebhookTestApp(t, tt.webhookID)

			resp, err := app.Test(newWebhookRequest(tt.body, tt.sign), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.Equal(t, tt.wantError, body["error"])
			if tt.wantDetails {
				assert.NotEmpty(t, body["details"])
			} else {
				assert.NotContains(t, body, "details")
			}

			var n int64
			require.NoError(t, db.Model(&models.Transaction{}).Count(&n).Error)
			assert.Equal(t, int64(0), n)
			assert.Equal(t, 0, balanceOf(t, db, "U1"))
		})
	}
}

type stubSnapshotter struct {
	counts map[string]int64
	err    error
}

func (s stubSnapshotter) Snapshot(context.Context) (map[string]int64, error) {
	return s.counts, s.err
}

func TestHandleWebhookCounters(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", NewMetricsController(stubSnapshotter{counts: map[string]int64{"credited": 3}}).HandleWebhookCounters)
	app.Get("/fail", NewMetricsController(stubSnapshotter{err: errors.New("redis down")}).HandleWebhookCounters)
	app.Get("/none", NewMetricsController(nil).HandleWebhookCounters)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"provider":"paypal","outcomes":{"credited":3}}`, string(raw))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/none", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestHandleHealth(t *testing.T) {
	app := fiber.New()
	app.Get("/health", HandleHealth)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
