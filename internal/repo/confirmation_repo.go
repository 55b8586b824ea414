// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for confirmation
// sessions.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/cinelog/go-review-backend/internal/domain"
)

// CreateConfirmation inserts a confirmation session row.
func CreateConfirmation(ctx context.Context, db *gorm.DB, c *domain.Confirmation) error {
	return db.WithContext(ctx).Create(c).Error
}

// GetConfirmation fetches a confirmation session by id, or ErrNotFound.
func GetConfirmation(ctx context.Context, db *gorm.DB, id int64) (*domain.Confirmation, error) {
	var c domain.Confirmation
	if err := db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteConfirmation removes a confirmation session (after successful
// validation).
func DeleteConfirmation(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Delete(&domain.Confirmation{}, "id = ?", id).Error
}

// DeleteExpiredConfirmations removes all sessions created before cutoff and
// reports how many rows were swept.
func DeleteExpiredConfirmations(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&domain.Confirmation{})
	return res.RowsAffected, res.Error
}
