package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID             string `gorm:"primaryKey"`
	UserName       string `gorm:"uniqueIndex;not null"`
	Email          string `gorm:"index"`
	EmailConfirmed bool   `gorm:"not null"`
	PasswordHash   string // bcrypt; empty means password login is disabled

	// Custom profile attributes projected as extra claims (e.g. "qicq")
	Attributes StringMap `gorm:"type:json"`

	// Lockout bookkeeping, mutated by the password grant
	AccessFailedCount int `gorm:"not null;default:0"`
	LockoutEnabled    bool
	LockoutEnd        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserRole assigns a role name to a user.
type UserRole struct {
	ID     uint   `gorm:"primaryKey;autoIncrement"`
	UserID string `gorm:"uniqueIndex:idx_user_role;not null"`
	Role   string `gorm:"uniqueIndex:idx_user_role;not null"`
}

// SetPassword stores the bcrypt hash of password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// IsLockedOut returns true while a lockout window is active
func (u *User) IsLockedOut(now time.Time) bool {
	return u.LockoutEnabled && u.LockoutEnd != nil && now.Before(*u.LockoutEnd)
}
