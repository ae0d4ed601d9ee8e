package billing

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CreditFox/app/models"
)

const testWebhookID = "WH-TEST-123"

// newTestDB opens an isolated in-memory SQLite database. A single connection
// keeps every statement on the same in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Transaction{}, &models.WebhookEvent{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id string, balance int) {
	t.Helper()
	require.NoError(t, db.Create(&models.User{ID: id, CreditBalance: balance}).Error)
}

func userBalance(t *testing.T, db *gorm.DB, id string) int {
	t.Helper()
	var user models.User
	require.NoError(t, db.Where("id = ?", id).First(&user).Error)
	return user.CreditBalance
}

func countTransactions(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&n).Error)
	return n
}

func signedNotification(body string) Notification {
	headers := TransmissionHeaders{
		TransmissionID:   "tx-0001",
		TransmissionTime: "2024-05-01T12:00:00Z",
		CertURL:          "https://api.paypal.com/v1/notifications/certs/CERT-360caa42",
	}
	headers.TransmissionSig = ComputePayPalSignature(headers.TransmissionID, headers.TransmissionTime, []byte(body), testWebhookID)
	return Notification{Headers: headers, Body: []byte(body)}
}
