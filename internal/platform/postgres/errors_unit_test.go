package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/tasker-api/internal/store"
	"github.com/stretchr/testify/assert"
)

// mockResult implements sql.Result for testing
type mockResult struct {
	rowsAffected int64
	err          error
}

func (m mockResult) LastInsertId() (int64, error) { return 0, nil }

func (m mockResult) RowsAffected() (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.rowsAffected, nil
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"unique", &pgconn.PgError{Code: uniqueViolationCode}, store.ErrDuplicate},
		{"foreign key", &pgconn.PgError{Code: foreignKeyViolationCode}, store.ErrInvalidEntity},
		{"check", &pgconn.PgError{Code: checkViolationCode, ConstraintName: "tasks_status_check"}, store.ErrInvalidEntity},
		{"not null", &pgconn.PgError{Code: notNullViolationCode}, store.ErrInvalidEntity},
		{"wrapped unique", fmt.Errorf("exec: %w", &pgconn.PgError{Code: uniqueViolationCode}), store.ErrDuplicate},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, MapError(tc.err), tc.wantErr)
		})
	}

	assert.NoError(t, MapError(nil))

	other := errors.New("boom")
	assert.Same(t, other, MapError(other))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: uniqueViolationCode}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: checkViolationCode}))
	assert.False(t, IsUniqueViolation(errors.New("23505")))
}

func TestCheckRowsAffected(t *testing.T) {
	assert.NoError(t, CheckRowsAffected(mockResult{rowsAffected: 1}, nil))
	assert.ErrorIs(t, CheckRowsAffected(mockResult{}, nil), store.ErrNotFound)
	assert.ErrorIs(t, CheckRowsAffected(mockResult{}, store.ErrTaskNotFound), store.ErrTaskNotFound)
	assert.Error(t, CheckRowsAffected(nil, nil))
	assert.Error(t, CheckRowsAffected(mockResult{err: errors.New("driver")}, nil))
}
