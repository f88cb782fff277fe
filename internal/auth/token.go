// Package auth implements password hashing, signed access tokens and the
// session cookie they travel in.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/oreo-app/oreo/internal/platform/httpx"
)

// Default lifetimes for the two token profiles. Session tokens back the
// login cookie; recovery tokens authorize a single password reset.
const (
	DefaultSessionTTL  = 15 * 24 * time.Hour
	DefaultRecoveryTTL = 45 * time.Minute
)

// Claims is the payload carried by every issued token. Recovery tokens
// additionally set RegisteredClaims.ID so they can be marked as used.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed, self-contained access tokens.
// Issuance and verification are pure computations over the signing secret,
// safe for concurrent use.
type TokenService struct {
	secret      []byte
	sessionTTL  time.Duration
	recoveryTTL time.Duration
}

// NewTokenService constructs a TokenService. Zero durations select the
// default profile lifetimes.
func NewTokenService(secret string, sessionTTL, recoveryTTL time.Duration) *TokenService {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	if recoveryTTL <= 0 {
		recoveryTTL = DefaultRecoveryTTL
	}
	return &TokenService{secret: []byte(secret), sessionTTL: sessionTTL, recoveryTTL: recoveryTTL}
}

// SessionTTL returns the lifetime of session tokens, which is also the
// max-age of the session cookie.
func (s *TokenService) SessionTTL() time.Duration { return s.sessionTTL }

// IssueSession creates a long-lived token for the login cookie.
func (s *TokenService) IssueSession(email string) (string, error) {
	return s.issue(email, s.sessionTTL, "")
}

// IssueRecovery creates a short-lived token authorizing a password reset.
// The token carries a unique ID so a reset can consume it.
func (s *TokenService) IssueRecovery(email string) (string, error) {
	return s.issue(email, s.recoveryTTL, uuid.NewString())
}

func (s *TokenService) issue(email string, ttl time.Duration, id string) (string, error) {
	if email == "" {
		return "", errors.New("auth: email required")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims. It fails
// closed with an Unauthorized error on any signature mismatch, malformed
// input or elapsed expiry.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.Email == "" {
		return nil, httpx.E(httpx.ErrUnauthorized, "Invalid credentials")
	}
	return claims, nil
}
