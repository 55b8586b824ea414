// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate updater: every derived
// numeric column is maintained by applying a single arithmetic delta, never
// by re-aggregating the source rows.
//
// Concurrency contract:
//   - UpdateMovieRating performs its read-modify-write of (rating,
//     totalReviews) inside one transaction so the delta is always computed
//     against the currently stored aggregate, not a stale copy.
//   - The counter updaters are single UPDATE statements using SQL-side
//     arithmetic (col = col + ?), atomic at the row level.
package repo

import (
	"context"
	"math"

	"gorm.io/gorm"

	"github.com/cinelog/go-review-backend/internal/domain"
)

// round2 rounds to 2 decimal places, half away from zero. The unrounded sum
// is never persisted; repeated edits accumulate the same rounding drift the
// stored running average has always had, which keeps output parity across
// edit sequences.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// UpdateMovieRating folds one review delta into a movie's running average.
//
// newRating/oldRating describe the review change: creation passes
// (rating, +1, 0), edit passes (newRating, 0, oldRating), deletion passes
// (0, -1, deletedRating). The new aggregate is computed from the currently
// stored (rating, totalReviews) pair:
//
//	sum    = rating*totalReviews + newRating - oldRating
//	count' = totalReviews + countDelta
//
// A non-positive count' collapses the aggregate to (0, 0); otherwise the
// persisted rating is sum/count' rounded to 2 decimals.
//
// Errors: ErrInvalidDelta when countDelta is outside {-1, 0, +1};
// ErrNotFound when the movie row does not exist.
func UpdateMovieRating(ctx context.Context, db *gorm.DB, movieID int64, newRating float64, countDelta int, oldRating float64) (rating float64, totalReviews int, err error) {
	if countDelta < -1 || countDelta > 1 {
		return 0, 0, ErrInvalidDelta
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m domain.Movie
		if err := tx.Select("id", "rating", "total_reviews").First(&m, "id = ?", movieID).Error; err != nil {
			return err
		}

		sum := m.Rating*float64(m.TotalReviews) + newRating - oldRating
		count := m.TotalReviews + countDelta

		if count <= 0 {
			rating, totalReviews = 0, 0
		} else {
			rating, totalReviews = round2(sum/float64(count)), count
		}

		return tx.Model(&domain.Movie{}).
			Where("id = ?", movieID).
			UpdateColumns(map[string]any{
				"rating":        rating,
				"total_reviews": totalReviews,
			}).Error
	})
	if err != nil {
		return 0, 0, err
	}
	return rating, totalReviews, nil
}

// targetModel maps a reaction target type to the model whose counters it
// owns.
func targetModel(t domain.TargetType) any {
	if t == domain.TargetComment {
		return &domain.Comment{}
	}
	return &domain.Review{}
}

// UpdateReactionCounters applies both reaction counter deltas to the target
// row in one atomic UPDATE. Both deltas may be non-zero at once: a polarity
// flip increments one counter and decrements the other in the same
// statement. Returns the updated counters, or ErrNotFound when the target
// row does not exist.
func UpdateReactionCounters(ctx context.Context, db *gorm.DB, targetType domain.TargetType, targetID int64, likeDelta, dislikeDelta int) (likes, dislikes int, err error) {
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(targetModel(targetType)).
			Where("id = ?", targetID).
			UpdateColumns(map[string]any{
				"total_likes":    gorm.Expr("total_likes + ?", likeDelta),
				"total_dislikes": gorm.Expr("total_dislikes + ?", dislikeDelta),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		var row struct {
			TotalLikes    int
			TotalDislikes int
		}
		if err := tx.Model(targetModel(targetType)).
			Select("total_likes", "total_dislikes").
			Where("id = ?", targetID).
			Scan(&row).Error; err != nil {
			return err
		}
		likes, dislikes = row.TotalLikes, row.TotalDislikes
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return likes, dislikes, nil
}

// UpdateCommentCount adjusts a review's total_comments by delta (-1 or +1)
// with one atomic UPDATE. Returns the updated count, or ErrNotFound when the
// review does not exist.
func UpdateCommentCount(ctx context.Context, db *gorm.DB, reviewID int64, delta int) (int, error) {
	if delta != -1 && delta != 1 {
		return 0, ErrInvalidDelta
	}

	var total int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Review{}).
			Where("id = ?", reviewID).
			UpdateColumn("total_comments", gorm.Expr("total_comments + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		var row struct{ TotalComments int }
		if err := tx.Model(&domain.Review{}).
			Select("total_comments").
			Where("id = ?", reviewID).
			Scan(&row).Error; err != nil {
			return err
		}
		total = row.TotalComments
		return nil
	})
	return total, err
}

// UpdateUserReviewCount adjusts a user's total_reviews by delta (-1 or +1)
// with one atomic UPDATE. Returns the updated count, or ErrNotFound when the
// user does not exist.
func UpdateUserReviewCount(ctx context.Context, db *gorm.DB, userID int64, delta int) (int, error) {
	if delta != -1 && delta != 1 {
		return 0, ErrInvalidDelta
	}

	var total int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.User{}).
			Where("id = ?", userID).
			UpdateColumn("total_reviews", gorm.Expr("total_reviews + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		var row struct{ TotalReviews int }
		if err := tx.Model(&domain.User{}).
			Select("total_reviews").
			Where("id = ?", userID).
			Scan(&row).Error; err != nil {
			return err
		}
		total = row.TotalReviews
		return nil
	})
	return total, err
}
