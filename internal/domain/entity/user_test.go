package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_WithoutPassword(t *testing.T) {
	user := &User{ID: 1, Email: "a@b.c", PasswordHash: "$2a$10$hash", Name: "Ana"}

	stripped := user.WithoutPassword()

	assert.Empty(t, stripped.PasswordHash)
	assert.Equal(t, "a@b.c", stripped.Email)
	assert.Equal(t, "$2a$10$hash", user.PasswordHash)

	var nilUser *User
	assert.Nil(t, nilUser.WithoutPassword())
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	session := &Session{ExpiresAt: now.Add(time.Minute)}

	assert.False(t, session.Expired(now))
	assert.True(t, session.Expired(now.Add(time.Minute)))
}
