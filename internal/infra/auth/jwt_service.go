// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"velure/internal/domain/service"
	"velure/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrEmptySigningKey is returned when a token is signed or verified without a key.
var ErrEmptySigningKey = errors.New("signing key must not be empty")

// jwtCodec is a stateless HS256 implementation of service.TokenCodec.
type jwtCodec struct {
	now func() time.Time
}

// NewJWTCodec is the constructor for jwtCodec.
func NewJWTCodec() service.TokenCodec {
	return &jwtCodec{now: time.Now}
}

// Sign copies claims, stamps iat, exp and jti, and signs the result.
func (c *jwtCodec) Sign(claims *service.Claims, opts service.SignOptions) (string, error) {
	if len(opts.Secret) == 0 {
		return "", ErrEmptySigningKey
	}

	issuedAt := c.now()
	signed := *claims
	signed.IssuedAt = jwt.NewNumericDate(issuedAt)
	signed.ExpiresAt = nil
	if opts.ExpiresIn > 0 {
		signed.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(opts.ExpiresIn))
	}
	// Two logins inside the same second must still yield distinct tokens.
	signed.ID = uuid.NewString()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &signed).SignedString(opts.Secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}

	return token, nil
}

// Verify parses tokenString, rejecting other algorithms, bad signatures and expired tokens.
func (c *jwtCodec) Verify(tokenString string, secret []byte) (*service.Claims, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySigningKey
	}

	claims := &service.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
	if err != nil {
		return nil, errors.Wrap(err, "failed to verify token")
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}

	return claims, nil
}
