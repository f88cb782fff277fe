package users

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/oreo-app/oreo/internal/auth"
	"github.com/oreo-app/oreo/internal/platform/httpx"
)

// TokenIssuer issues and verifies signed access tokens.
type TokenIssuer interface {
	IssueSession(email string) (string, error)
	IssueRecovery(email string) (string, error)
	Verify(token string) (*auth.Claims, error)
}

// TokenConsumer marks recovery tokens as used so each authorizes exactly
// one reset.
type TokenConsumer interface {
	Consume(ctx context.Context, id string, expiresAt time.Time) error
}

// Notifier schedules outbound account emails. Delivery is best-effort and
// decoupled from the request; errors are reported to the caller only so
// they can be logged.
type Notifier interface {
	SendWelcome(ctx context.Context, email, name string) error
	SendPasswordRecovery(ctx context.Context, email, token string) error
}

// Service orchestrates the account operations over the credential store,
// the password hasher and the token service. All dependencies are injected
// so the unit tests can substitute each.
type Service struct {
	repo       Repository
	hasher     auth.Hasher
	tokens     TokenIssuer
	usedTokens TokenConsumer
	notifier   Notifier
	logger     *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, hasher auth.Hasher, tokens TokenIssuer, usedTokens TokenConsumer, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, hasher: hasher, tokens: tokens, usedTokens: usedTokens, notifier: notifier, logger: logger}
}

// normalizeEmail lowercases the login key. Uniqueness in the store is
// enforced over the normalized form.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var errInvalidCredentials = httpx.E(httpx.ErrUnauthorized, "Invalid credentials")

// Signup creates a new account, issues a session token and schedules the
// welcome email. It fails with Conflict when the email is taken.
func (s *Service) Signup(ctx context.Context, email, password, name string) (*User, string, error) {
	email = normalizeEmail(email)

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", err
	}
	user := &User{Email: email, Name: name, PasswordHash: hash}
	if err := s.repo.Insert(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.IssueSession(user.Email)
	if err != nil {
		return nil, "", err
	}

	if err := s.notifier.SendWelcome(ctx, user.Email, user.Name); err != nil {
		s.logger.Warn("schedule welcome email", slog.String("email", user.Email), slog.Any("error", err))
	}
	return user, token, nil
}

// Login validates credentials and issues a session token. Unknown email
// and wrong password produce the identical Unauthorized outcome.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, "", errInvalidCredentials
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, "", errInvalidCredentials
	}
	token, err := s.tokens.IssueSession(user.Email)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// GetCurrent resolves a session token to its user. A valid token whose
// email no longer maps to an account yields the same Unauthorized outcome
// as an invalid token, so account existence is not leaked.
func (s *Service) GetCurrent(ctx context.Context, token string) (*User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByEmail(ctx, claims.Email)
	if err != nil {
		return nil, errInvalidCredentials
	}
	return user, nil
}

// RequestPasswordRecovery issues a short-lived recovery token and schedules
// the recovery email. The token travels only in the email, never in the
// response.
func (s *Service) RequestPasswordRecovery(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return httpx.E(httpx.ErrNotFound, "User not found")
	}
	token, err := s.tokens.IssueRecovery(user.Email)
	if err != nil {
		return err
	}
	if err := s.notifier.SendPasswordRecovery(ctx, user.Email, token); err != nil {
		s.logger.Warn("schedule recovery email", slog.String("email", user.Email), slog.Any("error", err))
	}
	return nil
}

// ResetPassword verifies a recovery token, consumes it and persists the
// new password. Each recovery token authorizes exactly one reset.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return err
	}
	user, err := s.repo.FindByEmail(ctx, claims.Email)
	if err != nil {
		return httpx.E(httpx.ErrNotFound, "User not found")
	}
	if err := s.usedTokens.Consume(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.repo.Update(ctx, user)
}

// UpdateUser applies the provided optional fields to the target account.
// Only the account owner may update it.
func (s *Service) UpdateUser(ctx context.Context, requestingID, targetID int64, params UpdateParams) (*User, error) {
	if requestingID != targetID {
		return nil, httpx.E(httpx.ErrForbidden, "Forbidden")
	}
	user, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, httpx.E(httpx.ErrNotFound, "User not found")
	}
	if params.Name != nil {
		user.Name = *params.Name
	}
	if params.Email != nil {
		user.Email = normalizeEmail(*params.Email)
	}
	if params.Password != nil {
		hash, err := s.hasher.Hash(*params.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
