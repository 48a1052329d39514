// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"velure/internal/domain/entity"
)

// --- Input DTOs ---

// CreateUserInput defines the data required to register a new user.
type CreateUserInput struct {
	Email    string
	Password string
	Name     string
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string
	Password string
}

// PageInput selects one page of a listing. Page is 1-based.
type PageInput struct {
	Page     int
	PageSize int
}

// AuthUsecase defines the authentication and session operations.
// This is the contract that the delivery layer depends on.
type AuthUsecase interface {
	// CreateUser registers a new account. A taken email yields ErrUserAlreadyExists.
	CreateUser(ctx context.Context, input CreateUserInput) (*entity.User, error)

	// GetUsers lists every user without password hashes.
	GetUsers(ctx context.Context) ([]*entity.User, error)

	// GetUsersPage lists one page of users without password hashes.
	GetUsersPage(ctx context.Context, input PageInput) (*entity.UserPage, error)

	// GetUserByID returns the user without its hash, or nil when there is none.
	GetUserByID(ctx context.Context, id uint) (*entity.User, error)

	// GetUserByEmail returns the stored user including its hash, or nil when there is none.
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)

	// Login checks the credentials and replaces the user's session.
	Login(ctx context.Context, input LoginInput) (*entity.TokenPair, error)

	// Logout ends the session holding refreshToken. Unknown tokens are ignored.
	Logout(ctx context.Context, refreshToken string) error

	// ValidateAccessToken resolves an access token to its user.
	ValidateAccessToken(ctx context.Context, token string) (*entity.User, error)

	// GetSessionByUserID returns the user's session, or nil when there is none.
	GetSessionByUserID(ctx context.Context, userID uint) (*entity.Session, error)
}
