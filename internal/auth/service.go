package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/agruezo/userhub/internal/domain/user"
	"github.com/agruezo/userhub/internal/security"
)

// ErrInvalidCredentials is returned on a password mismatch during login. It is
// deliberately distinct from user.ErrNotFound so the transport layer can map
// unknown email to 404 and wrong password to 401.
var ErrInvalidCredentials = errors.New("invalid credentials")

// WelcomeEnqueuer schedules the post-registration welcome notification.
// Enqueueing is best-effort: a failure is logged and never fails Register.
type WelcomeEnqueuer interface {
	EnqueueWelcome(ctx context.Context, u user.User) error
}

// Service holds the four auth flows: register, login, refresh and status.
// It owns no transport concerns; handlers translate its sentinel errors.
type Service struct {
	store   user.Store
	tokens  *Manager
	welcome WelcomeEnqueuer // optional
	log     *slog.Logger
}

func NewService(store user.Store, tokens *Manager, welcome WelcomeEnqueuer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		store:   store,
		tokens:  tokens,
		welcome: welcome,
		log:     log,
	}
}

// Register creates a user account. The email check here only narrows the race
// window with concurrent registrations; the store's unique constraint is the
// real backstop and also surfaces user.ErrEmailTaken.
func (s *Service) Register(ctx context.Context, username, email, password string) (user.User, error) {
	_, err := s.store.GetByEmail(ctx, email)

	if err == nil {
		return user.User{}, user.ErrEmailTaken
	}

	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, err
	}

	hash, err := security.HashPassword(password)

	if err != nil {
		return user.User{}, err
	}

	u, err := s.store.Create(ctx, username, email, hash)

	if err != nil {
		return user.User{}, err
	}

	if s.welcome != nil {
		if err := s.welcome.EnqueueWelcome(ctx, u); err != nil {
			s.log.ErrorContext(ctx, "welcome enqueue failed", "user_id", u.ID, "err", err)
		}
	}

	return u, nil
}

// Login verifies the credentials and issues a fresh access/refresh pair.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, error) {
	u, err := s.store.GetByEmail(ctx, email)

	if err != nil {
		return TokenPair{}, err
	}

	err = security.CheckPassword(u.PasswordHash, password)

	if err != nil {
		if errors.Is(err, security.ErrInvalidHashFormat) {
			// corrupt row; never user-facing
			s.log.ErrorContext(ctx, "stored hash is malformed", "user_id", u.ID, "err", err)
			return TokenPair{}, err
		}
		return TokenPair{}, ErrInvalidCredentials
	}

	return s.tokens.Pair(u.ID)
}

// Refresh rotates the full pair. Decode failures propagate untouched
// (ErrExpiredToken / ErrInvalidToken); the presented token's type is not
// inspected, and nothing is revoked server-side.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	userID, _, err := s.tokens.Decode(refreshToken)

	if err != nil {
		return TokenPair{}, err
	}

	return s.tokens.Pair(userID)
}

// Status resolves an access token back to its user. Tokens outlive their
// subject: a valid token whose user has been deleted yields user.ErrNotFound.
func (s *Service) Status(ctx context.Context, accessToken string) (user.User, error) {
	userID, _, err := s.tokens.Decode(accessToken)

	if err != nil {
		return user.User{}, err
	}

	return s.store.GetByID(ctx, userID)
}
