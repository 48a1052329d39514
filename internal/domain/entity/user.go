// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import "time"

// User is a registered account of the shop.
type User struct {
	ID           uint      // Auto-increment identifier assigned by the store.
	Email        string    // Unique login identifier.
	PasswordHash string    // bcrypt hash, empty once stripped for output.
	Name         string    // Display name.
	CreatedAt    time.Time // Timestamp of registration.
	UpdatedAt    time.Time // Timestamp of the last modification.
}

// WithoutPassword returns a copy of the user with the password hash cleared.
// The receiver is left untouched.
func (u *User) WithoutPassword() *User {
	if u == nil {
		return nil
	}

	stripped := *u
	stripped.PasswordHash = ""

	return &stripped
}

// UserPage is one page of users together with the totals needed to page through them.
type UserPage struct {
	Users      []*User
	Page       int
	PageSize   int
	TotalCount int64
	TotalPages int
}
