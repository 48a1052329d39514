package auth

import (
	"context"

	"velure/config"
	"velure/internal/domain/service"
	"velure/internal/errors"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// bcryptHasher hashes passwords with bcrypt. At most `workers` hash or
// compare operations run at once; further callers wait or give up with ctx.
type bcryptHasher struct {
	cost int
	pool *semaphore.Weighted
}

// NewBcryptHasher is the constructor for bcryptHasher, sized from the auth config.
func NewBcryptHasher(cfg *config.Config) service.PasswordHasher {
	cost, workers := bcrypt.DefaultCost, 1
	if cfg.Auth != nil {
		cost, workers = cfg.Auth.BcryptCost, cfg.Auth.BcryptWorkers
	}

	return NewBcryptHasherWithCost(cost, workers)
}

// NewBcryptHasherWithCost clamps cost into bcrypt's accepted range.
func NewBcryptHasherWithCost(cost, workers int) service.PasswordHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	if workers < 1 {
		workers = 1
	}

	return &bcryptHasher{
		cost: cost,
		pool: semaphore.NewWeighted(int64(workers)),
	}
}

func (h *bcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.pool.Acquire(ctx, 1); err != nil {
		return "", errors.Wrap(err, "waiting for hashing worker")
	}
	defer h.pool.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}

	return string(hash), nil
}

func (h *bcryptHasher) Check(ctx context.Context, password, hash string) (bool, error) {
	if err := h.pool.Acquire(ctx, 1); err != nil {
		return false, errors.Wrap(err, "waiting for hashing worker")
	}
	defer h.pool.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, errors.Wrap(err, "failed to compare password")
	}
}
