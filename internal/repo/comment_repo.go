// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Comment
// model, mirroring the review repository one level down.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/cinelog/go-review-backend/internal/domain"
	"github.com/cinelog/go-review-backend/internal/pagination"
)

// commentSortColumns whitelists the sortable dimensions of comment feeds.
var commentSortColumns = map[string]string{
	"likes":    "total_likes",
	"dislikes": "total_dislikes",
}

// CreateComment inserts a comment row.
func CreateComment(ctx context.Context, db *gorm.DB, c *domain.Comment) error {
	return db.WithContext(ctx).Create(c).Error
}

// GetComment fetches a comment by id, or ErrNotFound.
func GetComment(ctx context.Context, db *gorm.DB, id int64) (*domain.Comment, error) {
	var c domain.Comment
	if err := db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCommentContent updates the message and permanently marks the comment
// as changed.
func UpdateCommentContent(ctx context.Context, db *gorm.DB, id int64, message string) error {
	res := db.WithContext(ctx).Model(&domain.Comment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"message":    message,
			"is_changed": true,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteComment removes a comment row.
func DeleteComment(ctx context.Context, db *gorm.DB, id int64) error {
	res := db.WithContext(ctx).Delete(&domain.Comment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCommentsPage returns one keyset page of a review's comments ordered by
// (spec, id).
func ListCommentsPage(ctx context.Context, db *gorm.DB, reviewID int64, spec pagination.SortSpec, cur *pagination.Cursor, limit int) ([]domain.Comment, error) {
	q := db.WithContext(ctx).Model(&domain.Comment{}).Where("review_id = ?", reviewID)

	q, err := pagination.Apply(q, spec, cur, commentSortColumns)
	if err != nil {
		return nil, err
	}

	var out []domain.Comment
	if err := q.Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
