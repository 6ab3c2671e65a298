package mocks

import "github.com/phrazzld/tasker-api/internal/service/auth"

// MockPasswordVerifier implements auth.PasswordVerifier and
// auth.PasswordHasher with a reversible "hashed:" prefix, so tests avoid
// bcrypt's cost.
type MockPasswordVerifier struct {
	// CompareFn allows for custom comparison logic in tests
	CompareFn func(hashedPassword, password string) error

	// HashErr is returned by Hash when set
	HashErr error

	// CompareCallCount tracks how many times Compare was called
	CompareCallCount int
}

var (
	_ auth.PasswordVerifier = (*MockPasswordVerifier)(nil)
	_ auth.PasswordHasher   = (*MockPasswordVerifier)(nil)
)

// HashPrefix marks values produced by MockPasswordVerifier.Hash.
const HashPrefix = "hashed:"

// Compare implements the auth.PasswordVerifier interface
func (m *MockPasswordVerifier) Compare(hashedPassword, password string) error {
	m.CompareCallCount++
	if m.CompareFn != nil {
		return m.CompareFn(hashedPassword, password)
	}
	if hashedPassword != HashPrefix+password {
		return auth.ErrPasswordMismatch
	}
	return nil
}

// Hash implements the auth.PasswordHasher interface
func (m *MockPasswordVerifier) Hash(password string) (string, error) {
	if m.HashErr != nil {
		return "", m.HashErr
	}
	return HashPrefix + password, nil
}
