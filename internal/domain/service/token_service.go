package service

import (
	"time"

	"velure/internal/domain/entity"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of access and refresh tokens.
// Role carries the user's display name and is never used for authorization.
type Claims struct {
	UserID uint   `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// NewClaims builds the claims issued for user.
func NewClaims(user *entity.User) *Claims {
	return &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Name,
	}
}

// SignOptions selects the key and lifetime of a signed token.
// A zero ExpiresIn produces a token without an exp claim.
type SignOptions struct {
	Secret    []byte
	ExpiresIn time.Duration
}

// TokenCodec signs and verifies HS256 tokens. It holds no keys of its own.
type TokenCodec interface {
	// Sign stamps iat, exp (when requested) and a unique jti onto claims and signs them.
	Sign(claims *Claims, opts SignOptions) (string, error)

	// Verify checks signature, algorithm and expiry and returns the claims.
	Verify(token string, secret []byte) (*Claims, error)
}

// TokenIssuer issues the access and refresh tokens of a session with the configured keys.
// Refresh tokens are opaque logout keys to the service, so only access tokens are verified.
type TokenIssuer interface {
	GenerateAccessToken(user *entity.User) (string, error)
	GenerateRefreshToken(user *entity.User) (string, error)
	VerifyAccessToken(token string) (*Claims, error)
}
