// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

import "context"

// MaxPasswordBytes is the longest password bcrypt accepts. The limit is in bytes, not characters.
const MaxPasswordBytes = 72

// PasswordHasher defines the interface for password hashing and verification.
// Implementations may queue callers, so both methods honour ctx cancellation.
type PasswordHasher interface {
	// Hash generates a salted hash from a plaintext password.
	Hash(ctx context.Context, password string) (string, error)

	// Check reports whether password matches hash. A mismatch is not an error.
	Check(ctx context.Context, password, hash string) (bool, error)
}
