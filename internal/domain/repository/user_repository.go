// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"velure/internal/domain/entity"
)

// ErrUserNotFound is a domain-specific error returned when a user is not found.
var ErrUserNotFound = errors.New("user not found")

// UserRepository is the credential store.
type UserRepository interface {
	// Create persists a new user and fills in its ID and timestamps.
	// A taken email yields domain errors.ErrUserAlreadyExists.
	Create(ctx context.Context, user *entity.User) error

	// FindAll returns every user ordered by ID.
	FindAll(ctx context.Context) ([]*entity.User, error)

	// FindPage returns at most limit users ordered by ID, skipping offset.
	FindPage(ctx context.Context, offset, limit int) ([]*entity.User, error)

	// Count returns the number of stored users.
	Count(ctx context.Context) (int64, error)

	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uint) (*entity.User, error)

	// FindByEmail retrieves a single user by their email address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}
