package service

import (
	"context"
	"time"

	"velure/internal/domain/entity"
)

// TokenCache remembers the user an access token resolved to so repeated
// validations skip signature checks and the user lookup.
type TokenCache interface {
	// Get returns the cached user and true, or false on a miss.
	Get(ctx context.Context, token string) (*entity.User, bool, error)

	// Set caches user for token for at most ttl.
	Set(ctx context.Context, token string, user *entity.User, ttl time.Duration) error

	// Delete drops token from the cache. A missing entry is not an error.
	Delete(ctx context.Context, token string) error
}
