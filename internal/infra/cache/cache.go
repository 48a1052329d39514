// Package cache implements the access-token validation cache.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"velure/internal/domain/entity"
)

// tokenKey hashes the token so raw credentials never become cache keys.
func tokenKey(prefix, token string) string {
	sum := sha256.Sum256([]byte(token))

	return prefix + "token:" + hex.EncodeToString(sum[:])
}

// cachedUser is the stored form of a validated user. It has no password field.
type cachedUser struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func fromUser(user *entity.User) cachedUser {
	return cachedUser{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func (c cachedUser) toUser() *entity.User {
	return &entity.User{
		ID:        c.ID,
		Email:     c.Email,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
