// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Review
// model, including the per-movie keyset-paginated feed query.
//
// Error semantics:
//   - A duplicate review (same user_id, movie_id) relies on the database
//     unique constraint and is returned as the raw DB error; the service
//     layer translates it into a domain error.
//   - Missing rows return ErrNotFound.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/cinelog/go-review-backend/internal/domain"
	"github.com/cinelog/go-review-backend/internal/pagination"
)

// reviewSortColumns whitelists the sortable dimensions of review feeds.
var reviewSortColumns = map[string]string{
	"likes":    "total_likes",
	"dislikes": "total_dislikes",
}

// ReviewFilter restricts a review feed to rows the requesting user has
// interacted with. All three are "only rows where ..." toggles.
type ReviewFilter struct {
	MeLiked     bool
	MeDisliked  bool
	MeCommented bool
}

// CreateReview inserts a review row. The (user_id, movie_id) pair must be
// unique; violations surface as the raw DB error.
func CreateReview(ctx context.Context, db *gorm.DB, r *domain.Review) error {
	return db.WithContext(ctx).Create(r).Error
}

// GetReview fetches a review by id, or ErrNotFound.
func GetReview(ctx context.Context, db *gorm.DB, id int64) (*domain.Review, error) {
	var r domain.Review
	if err := db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// GetUserReview fetches the single review a user wrote for a movie, or
// ErrNotFound.
func GetUserReview(ctx context.Context, db *gorm.DB, userID, movieID int64) (*domain.Review, error) {
	var r domain.Review
	err := db.WithContext(ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateReviewContent updates rating and message and permanently marks the
// review as changed.
func UpdateReviewContent(ctx context.Context, db *gorm.DB, id int64, rating float64, message string) error {
	res := db.WithContext(ctx).Model(&domain.Review{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"rating":     rating,
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

// DeleteReview removes a review row. Comments cascade at the schema level.
func DeleteReview(ctx context.Context, db *gorm.DB, id int64) error {
	res := db.WithContext(ctx).Delete(&domain.Review{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListReviewsPage returns one keyset page of a movie's reviews. excludeID,
// when non-zero, removes a single review from the underlying query; the
// caller uses this to splice its own pinned review into the first page
// without it ever reappearing as a duplicate on later pages. userID scopes
// the MeLiked/MeDisliked/MeCommented filters.
func ListReviewsPage(ctx context.Context, db *gorm.DB, movieID int64, userID int64, excludeID int64, filter ReviewFilter, spec pagination.SortSpec, cur *pagination.Cursor, limit int) ([]domain.Review, error) {
	q := db.WithContext(ctx).Model(&domain.Review{}).Where("movie_id = ?", movieID)

	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if userID != 0 && filter.MeLiked {
		q = q.Where("id IN (?)", reactedSubquery(db, userID, domain.TargetReview, domain.PolarityLike))
	}
	if userID != 0 && filter.MeDisliked {
		q = q.Where("id IN (?)", reactedSubquery(db, userID, domain.TargetReview, domain.PolarityDislike))
	}
	if userID != 0 && filter.MeCommented {
		q = q.Where("id IN (?)", db.Model(&domain.Comment{}).
			Select("review_id").
			Where("user_id = ?", userID))
	}

	q, err := pagination.Apply(q, spec, cur, reviewSortColumns)
	if err != nil {
		return nil, err
	}

	var out []domain.Review
	if err := q.Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListReviewsBy returns up to limit reviews for a movie ordered by the given
// column expression. Used by the fixed shelves (latest, most liked).
func ListReviewsBy(ctx context.Context, db *gorm.DB, movieID int64, order string, limit int) ([]domain.Review, error) {
	var out []domain.Review
	err := db.WithContext(ctx).
		Where("movie_id = ?", movieID).
		Order(order).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// reactedSubquery selects the target ids a user reacted to with the given
// polarity, for use inside an IN predicate.
func reactedSubquery(db *gorm.DB, userID int64, t domain.TargetType, p domain.Polarity) *gorm.DB {
	return db.Model(&domain.Reaction{}).
		Select("target_id").
		Where("user_id = ? AND target_type = ? AND polarity = ?", userID, t, p)
}
