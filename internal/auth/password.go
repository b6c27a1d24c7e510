// Package auth provides password hashing, identity tokens and the
// request-context plumbing for authenticated users.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLength is the longest password bcrypt can hash without
// truncation.
const MaxPasswordLength = 72

var (
	// ErrInvalidHash indicates the stored hash is not a bcrypt hash.
	ErrInvalidHash = errors.New("invalid hash format")
	// ErrInvalidCost indicates a bcrypt cost outside the supported range.
	ErrInvalidCost = errors.New("invalid bcrypt cost")
)

// PasswordHasher hashes and verifies passwords with bcrypt.
type PasswordHasher struct {
	cost      int
	dummyHash []byte
}

// NewPasswordHasher creates a hasher with the given bcrypt cost.
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCost, cost)
	}

	// Compared against when a username is unknown so that the response time
	// matches a real password check.
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}

	return &PasswordHasher{cost: cost, dummyHash: dummy}, nil
}

// Cost returns the configured bcrypt cost.
func (h *PasswordHasher) Cost() int {
	return h.cost
}

// Hash returns the bcrypt hash of password. The salt is generated by bcrypt.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify checks password against a stored hash in constant time.
// A mismatch is (false, nil); a malformed hash is an error. Only the first
// MaxPasswordLength bytes are compared, as bcryptjs did for imported hashes.
func (h *PasswordHasher) Verify(password, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), truncate(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, ErrInvalidHash
	}
}

// Burn spends the same time as Verify without checking anything.
func (h *PasswordHasher) Burn(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, truncate(password))
}

func truncate(password string) []byte {
	if len(password) > MaxPasswordLength {
		return []byte(password[:MaxPasswordLength])
	}
	return []byte(password)
}
