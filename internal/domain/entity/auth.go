package entity

import "time"

// Session is the single active login of a user. A new login overwrites the
// tokens and expiry of the existing row instead of adding one.
type Session struct {
	ID           uint
	UserID       uint
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TokenPair is what a successful login hands back to the caller.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
