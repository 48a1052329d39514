package model

import "time"

// SessionModel mirrors the 'sessions' table. The unique index on user_id is
// the conflict target of the login upsert.
type SessionModel struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_sessions_user_id"`
	AccessToken  string    `gorm:"type:text;not null"`
	RefreshToken string    `gorm:"type:text;not null;index:idx_sessions_refresh_token"`
	ExpiresAt    time.Time `gorm:"not null;index:idx_sessions_expires_at"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	User *UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (SessionModel) TableName() string {
	return "sessions"
}

// All returns every model in migration order.
func All() []any {
	return []any{&UserModel{}, &SessionModel{}}
}
