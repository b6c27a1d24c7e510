package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Latronboy/smart-grocery-expense-tracker/internal/auth"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/credential"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/metrics"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/model"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/namespace"
)

// Session is the outcome of a successful signup or login.
type Session struct {
	User      model.PublicUser
	Token     string
	ExpiresAt time.Time
}

// AuthService handles account creation and sign-in.
type AuthService struct {
	creds       *credential.Store
	tokens      *auth.TokenIssuer
	provisioner *namespace.Provisioner
	logger      *slog.Logger
	metrics     metrics.Recorder
}

// NewAuthService creates a new AuthService.
func NewAuthService(creds *credential.Store, tokens *auth.TokenIssuer, provisioner *namespace.Provisioner, logger *slog.Logger, recorder metrics.Recorder) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		creds:       creds,
		tokens:      tokens,
		provisioner: provisioner,
		logger:      logger,
		metrics:     recorder,
	}
}

// Signup registers a user, prepares their collections and signs them in.
func (s *AuthService) Signup(ctx context.Context, username, password string) (*Session, error) {
	if err := validateCredentials(username, password); err != nil {
		s.metrics.IncSignup("invalid")
		return nil, err
	}
	if len(password) > auth.MaxPasswordLength {
		s.metrics.IncSignup("invalid")
		return nil, invalid("password must be at most 72 bytes")
	}
	if err := namespace.ValidateUserID(username); err != nil {
		s.metrics.IncSignup("invalid")
		return nil, invalid("username may not contain path separators, whitespace or a leading dot")
	}

	user, err := s.creds.Create(ctx, username, password)
	if err != nil {
		if errors.Is(err, credential.ErrUsernameTaken) {
			s.metrics.IncSignup("conflict")
		} else {
			s.metrics.IncSignup("error")
		}
		return nil, err
	}

	// The session is valid without collections; they are created again on
	// first use, so a failure here is only logged.
	if s.provisioner != nil {
		if _, err := s.provisioner.Ensure(ctx, user.ID); err != nil {
			s.logger.Warn("failed to provision new user",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	session, err := s.issue(user)
	if err != nil {
		s.metrics.IncSignup("error")
		return nil, err
	}

	s.metrics.IncSignup("success")
	s.logger.Info("user signed up", slog.String("user_id", user.ID))
	return session, nil
}

// Login checks a username and password and signs the user in. Password
// length is not checked here; a wrong password of any length is
// credential.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	if err := validateCredentials(username, password); err != nil {
		s.metrics.IncLogin("invalid")
		return nil, err
	}

	user, err := s.creds.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, credential.ErrInvalidCredentials) {
			s.metrics.IncLogin("failure")
		} else {
			s.metrics.IncLogin("error")
		}
		return nil, err
	}

	session, err := s.issue(user)
	if err != nil {
		s.metrics.IncLogin("error")
		return nil, err
	}

	s.metrics.IncLogin("success")
	return session, nil
}

// TokenTTL is the lifetime of issued tokens.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

func (s *AuthService) issue(user *model.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &Session{
		User:      user.Public(),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func validateCredentials(username, password string) error {
	if username == "" || password == "" {
		return invalid("username and password required")
	}
	return nil
}
