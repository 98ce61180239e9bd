package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createMerchantTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE merchants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		api_key TEXT NOT NULL UNIQUE,
		api_secret_hash TEXT NOT NULL,
		webhook_url TEXT,
		webhook_secret TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createPaymentTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE payments (
		id TEXT PRIMARY KEY,
		merchant_id TEXT NOT NULL,
		order_id TEXT NOT NULL,
		amount INTEGER NOT NULL,
		currency TEXT NOT NULL,
		method TEXT NOT NULL,
		vpa TEXT,
		status TEXT NOT NULL,
		captured BOOLEAN NOT NULL DEFAULT 0,
		error_code TEXT,
		error_description TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createRefundTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE refunds (
		id TEXT PRIMARY KEY,
		payment_id TEXT NOT NULL,
		merchant_id TEXT NOT NULL,
		amount INTEGER NOT NULL,
		reason TEXT,
		status TEXT NOT NULL,
		created_at DATETIME,
		processed_at DATETIME
	);`)
}

func createWebhookLogTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE webhook_logs (
		id TEXT PRIMARY KEY,
		merchant_id TEXT NOT NULL,
		event TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		last_attempt_at DATETIME,
		response_code INTEGER,
		response_body TEXT,
		next_retry_at DATETIME,
		created_at DATETIME
	);`)
}

func createIdempotencyKeyTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE idempotency_keys (
		key TEXT NOT NULL,
		merchant_id TEXT NOT NULL,
		response BLOB NOT NULL,
		created_at DATETIME,
		expires_at DATETIME NOT NULL,
		PRIMARY KEY (key, merchant_id)
	);`)
}

func createAllTables(t *testing.T, db *gorm.DB) {
	createMerchantTable(t, db)
	createPaymentTable(t, db)
	createRefundTable(t, db)
	createWebhookLogTable(t, db)
	createIdempotencyKeyTable(t, db)
}
