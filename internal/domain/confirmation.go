// Package domain defines the core persistence models for the application.
// This file holds the confirmation-code session model used by the
// confirmation service.
package domain

import "time"

// Confirmation represents a one-time confirmation-code session. The code is
// never stored in clear; only its PBKDF2 hash and the per-session salt are
// persisted. A session expires TimeValidMs milliseconds after CreatedAt and
// is swept by a background job afterwards.
type Confirmation struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	UserID      int64     `gorm:"not null;index"`
	CodeHash    string    `gorm:"type:char(128);not null"`
	Salt        string    `gorm:"type:char(32);not null"`
	TimeValidMs int64     `gorm:"not null"`
	CreatedAt   time.Time `gorm:"index"`
}

// TableName implements the GORM tabler interface.
func (Confirmation) TableName() string { return "confirmations" }

// ExpiresAt returns the instant the session stops being valid.
func (c Confirmation) ExpiresAt() time.Time {
	return c.CreatedAt.Add(time.Duration(c.TimeValidMs) * time.Millisecond)
}
