//go:build integration

// Package testdb provides utilities specifically for database testing.
// Every helper skips the calling test when no database URL is configured.
package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/tasker-api/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// TestTimeout defines a default timeout for test database operations.
const TestTimeout = 5 * time.Second

// Environment variables consulted for the test database, in order.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvTestDBURL   = "TASKER_TEST_DB_URL"
)

// GetTestDatabaseURL returns the first non-empty database URL from the
// environment, or "" when none is set.
func GetTestDatabaseURL() string {
	for _, key := range []string{EnvDatabaseURL, EnvTestDBURL} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// GetTestDBWithT opens the test database, applies the embedded migrations,
// and closes the handle when t finishes.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		t.Skipf("%s not set; skipping database test", EnvDatabaseURL)
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "Failed to open database connection")
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "Database connection failed")

	require.NoError(t, postgres.Migrate(context.Background(), db, "up", nil), "Failed to run migrations")
	return db
}

// WithTx runs fn inside a transaction that is always rolled back, so tests
// leave no rows behind and may run in parallel.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err, "Failed to begin transaction")

	defer func() {
		// sql.ErrTxDone is expected if fn already ended the transaction.
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("Warning: failed to rollback transaction: %v", err)
		}
	}()

	fn(t, tx)
}
