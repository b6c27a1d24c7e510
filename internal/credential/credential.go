// Package credential persists user accounts and checks passwords.
package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Latronboy/smart-grocery-expense-tracker/internal/auth"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/model"
)

// Common errors for credential operations.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Backend stores user records.
type Backend interface {
	// FindByUsername returns ErrUserNotFound when no user matches.
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	// Insert stores user, or returns ErrUsernameTaken if the username exists.
	Insert(ctx context.Context, user *model.User) error
	// Ping checks that the backend is usable.
	Ping(ctx context.Context) error
}

// Store is the credential store: account creation and password checks on
// top of a Backend.
type Store struct {
	backend Backend
	hasher  *auth.PasswordHasher
	now     func() time.Time
}

// NewStore creates a Store.
func NewStore(backend Backend, hasher *auth.PasswordHasher) *Store {
	return &Store{
		backend: backend,
		hasher:  hasher,
		now:     time.Now,
	}
}

// FindByUsername looks up a user.
func (s *Store) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.backend.FindByUsername(ctx, username)
}

// Create registers a new user. The password is hashed before the backend is
// touched, so no backend lock is held while bcrypt runs.
func (s *Store) Create(ctx context.Context, username, password string) (*model.User, error) {
	if _, err := s.backend.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	createdAt := s.now().UTC()
	user := &model.User{
		ID:           username,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    &createdAt,
	}

	// The backend re-checks uniqueness under its own serialization, which
	// settles races between concurrent signups of the same name.
	if err := s.backend.Insert(ctx, user); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate returns the user if password matches. Unknown usernames and
// wrong passwords both yield ErrInvalidCredentials after a full bcrypt
// comparison.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.backend.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.hasher.Burn(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Ping checks the backend.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}
