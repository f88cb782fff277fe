package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oreo-app/oreo/internal/platform/httpx"
)

const usedTokenPrefix = "oreo:recovery:used:"

// TokenBlocklist records consumed recovery tokens in Redis so each one
// authorizes exactly one password reset. Entries expire together with the
// token itself, keeping the set bounded.
type TokenBlocklist struct {
	client *redis.Client
}

// NewTokenBlocklist constructs a TokenBlocklist.
func NewTokenBlocklist(client *redis.Client) *TokenBlocklist {
	return &TokenBlocklist{client: client}
}

// Consume atomically marks the token ID as used until it expires. It fails
// with an Unauthorized error when the token was already consumed.
func (b *TokenBlocklist) Consume(ctx context.Context, id string, expiresAt time.Time) error {
	if id == "" {
		return httpx.E(httpx.ErrUnauthorized, "Invalid credentials")
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return httpx.E(httpx.ErrUnauthorized, "Invalid credentials")
	}
	ok, err := b.client.SetNX(ctx, usedTokenPrefix+id, "1", ttl).Result()
	if err != nil {
		return errors.New("auth: blocklist unavailable")
	}
	if !ok {
		return httpx.E(httpx.ErrUnauthorized, "Invalid credentials")
	}
	return nil
}
