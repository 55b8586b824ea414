// Package services – ReviewService
//
// This file implements the review lifecycle: create, edit, delete, and the
// per-movie feed. Every lifecycle mutation is paired with the aggregate
// deltas it implies (movie running average, user review count) inside one
// transaction, so a committed review is never observable without its
// aggregate contribution.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cinelog/go-review-backend/internal/domain"
	"github.com/cinelog/go-review-backend/internal/pagination"
	"github.com/cinelog/go-review-backend/internal/repo"
)

// MaxMessageRunes caps review and comment message length.
const MaxMessageRunes = 1000

// ReviewService implements the use-cases around reviews. The service is
// context-aware and opens its own transaction per mutating call.
type ReviewService struct {
	// DB is the database handle used for all review operations.
	DB *gorm.DB
}

// AnnotatedReview is a review enriched with the requesting user's relation
// to it. Annotation is label-only: it never alters the underlying row.
type AnnotatedReview struct {
	domain.Review
	IsMine      bool `json:"is_mine"`
	IsLiked     bool `json:"is_liked"`
	IsDisliked  bool `json:"is_disliked"`
	IsCommented bool `json:"is_commented"`
}

// ReviewPage is one slice of a review feed plus the cursor addressing the
// next slice (nil on the last page).
type ReviewPage struct {
	Reviews    []AnnotatedReview
	NextCursor *pagination.Cursor
}

// ValidRating reports whether r lies in [0.5, 10] on a half-step grid.
func ValidRating(r float64) bool {
	if r < 0.5 || r > 10 {
		return false
	}
	doubled := r * 2
	return doubled == float64(int64(doubled))
}

// validateMessage applies the shared message rules for reviews and comments.
func validateMessage(msg string) error {
	if msg == "" {
		return ErrEmptyMessage
	}
	if len([]rune(msg)) > MaxMessageRunes {
		return ErrMessageTooLong
	}
	return nil
}

// Create submits userID's review for movieID.
//
// Semantics and validation:
//   - rating must be a half-step value in [0.5, 10]; otherwise
//     ErrInvalidRating.
//   - movieID must exist; otherwise ErrMovieNotFound.
//   - A user may review a movie at most once; a second submission yields
//     ErrAlreadyReviewed (the unique constraint backs this under races, so a
//     retried create surfaces the conflict instead of double-inserting).
//
// Effects, applied in one transaction: the review row is inserted, the
// movie's running average absorbs (rating, +1) and the user's review count
// is incremented.
func (s *ReviewService) Create(ctx context.Context, userID, movieID int64, rating float64, message string) (*domain.Review, error) {
	if !ValidRating(rating) {
		return nil, ErrInvalidRating
	}
	if err := validateMessage(message); err != nil {
		return nil, err
	}

	r := &domain.Review{
		UserID:  userID,
		MovieID: movieID,
		Rating:  rating,
		Message: message,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetMovie(ctx, tx, movieID); err != nil {
			if isNotFound(err) {
				return ErrMovieNotFound
			}
			return err
		}

		if err := repo.CreateReview(ctx, tx, r); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicate(err) {
				return ErrAlreadyReviewed
			}
			return err
		}

		if _, _, err := repo.UpdateMovieRating(ctx, tx, movieID, rating, +1, 0); err != nil {
			return err
		}
		if _, err := repo.UpdateUserReviewCount(ctx, tx, userID, +1); err != nil && !isNotFound(err) {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Update edits userID's review. The old rating is captured before the row is
// mutated so the aggregate delta can reverse it; the movie average absorbs
// (newRating, 0, oldRating) in the same transaction. IsChanged is set
// permanently.
//
// Errors: ErrReviewNotFound, ErrNotOwner, ErrInvalidRating.
func (s *ReviewService) Update(ctx context.Context, userID, reviewID int64, rating float64, message string) (*domain.Review, error) {
	if !ValidRating(rating) {
		return nil, ErrInvalidRating
	}
	if err := validateMessage(message); err != nil {
		return nil, err
	}

	var updated *domain.Review
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := repo.GetReview(ctx, tx, reviewID)
		if err != nil {
			if isNotFound(err) {
				return ErrReviewNotFound
			}
			return err
		}
		if r.UserID != userID {
			return ErrNotOwner
		}

		oldRating := r.Rating
		if err := repo.UpdateReviewContent(ctx, tx, reviewID, rating, message); err != nil {
			return err
		}
		if _, _, err := repo.UpdateMovieRating(ctx, tx, r.MovieID, rating, 0, oldRating); err != nil {
			return err
		}

		r.Rating = rating
		r.Message = message
		r.IsChanged = true
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes userID's review and reverses its aggregate contribution:
// the movie average absorbs (0, -1, oldRating) and the user's review count
// is decremented, all in one transaction.
//
// Errors: ErrReviewNotFound, ErrNotOwner.
func (s *ReviewService) Delete(ctx context.Context, userID, reviewID int64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := repo.GetReview(ctx, tx, reviewID)
		if err != nil {
			if isNotFound(err) {
				return ErrReviewNotFound
			}
			return err
		}
		if r.UserID != userID {
			return ErrNotOwner
		}

		if err := repo.DeleteReview(ctx, tx, reviewID); err != nil {
			return err
		}
		if _, _, err := repo.UpdateMovieRating(ctx, tx, r.MovieID, 0, -1, r.Rating); err != nil {
			return err
		}
		if _, err := repo.UpdateUserReviewCount(ctx, tx, userID, -1); err != nil && !isNotFound(err) {
			return err
		}
		return nil
	})
}

// ListForMovieOptions parameterizes the per-movie review feed.
type ListForMovieOptions struct {
	Filter repo.ReviewFilter
	Sort   pagination.SortSpec
	Cursor *pagination.Cursor
	Limit  int
}

// ListForMovie returns one page of a movie's reviews ordered by
// (sort, id), annotated with the requesting user's reaction state.
//
// When userID is set and no cursor is supplied (first page), the user's own
// review is pinned ahead of the normal ordering. The pinned row is excluded
// from the underlying query so it is neither duplicated on the first page
// nor resurfaced once paging continues.
func (s *ReviewService) ListForMovie(ctx context.Context, movieID, userID int64, opts ListForMovieOptions) (*ReviewPage, error) {
	if opts.Limit < 1 {
		opts.Limit = 10
	}

	db := s.DB
	if _, err := repo.GetMovie(ctx, db, movieID); err != nil {
		if isNotFound(err) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}

	// The viewer's own review is excluded from the normal ordering on every
	// page: it is pinned ahead of the first page and must not resurface once
	// paging continues.
	var own *domain.Review
	if userID != 0 {
		r, err := repo.GetUserReview(ctx, db, userID, movieID)
		if err != nil && !isNotFound(err) {
			return nil, err
		}
		own = r // nil when the user has not reviewed this movie
	}

	var pinned *domain.Review
	if own != nil && opts.Cursor == nil {
		pinned = own
	}

	limit := opts.Limit
	var excludeID int64
	if own != nil {
		excludeID = own.ID
	}
	if pinned != nil {
		limit--
	}

	var rows []domain.Review
	if limit > 0 {
		var err error
		rows, err = repo.ListReviewsPage(ctx, db, movieID, userID, excludeID, opts.Filter, opts.Sort, opts.Cursor, limit)
		if err != nil {
			return nil, err
		}
	}

	all := rows
	if pinned != nil {
		all = append([]domain.Review{*pinned}, rows...)
	}

	annotated, err := s.annotate(ctx, all, userID)
	if err != nil {
		return nil, err
	}

	next := pagination.Next(all, opts.Limit, opts.Sort,
		func(r domain.Review) int64 { return r.ID },
		func(r domain.Review) float64 {
			if opts.Sort.Field == "dislikes" {
				return float64(r.TotalDislikes)
			}
			return float64(r.TotalLikes)
		})

	return &ReviewPage{Reviews: annotated, NextCursor: next}, nil
}

// GetForUser returns the user's own review for a movie, annotated, or
// ErrReviewNotFound.
func (s *ReviewService) GetForUser(ctx context.Context, movieID, userID int64) (*AnnotatedReview, error) {
	r, err := repo.GetUserReview(ctx, s.DB, userID, movieID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	annotated, err := s.annotate(ctx, []domain.Review{*r}, userID)
	if err != nil {
		return nil, err
	}
	return &annotated[0], nil
}

// annotate enriches one page of reviews with isMine/isLiked/isDisliked/
// isCommented flags using three bulk set lookups over the page's ids.
func (s *ReviewService) annotate(ctx context.Context, rows []domain.Review, userID int64) ([]AnnotatedReview, error) {
	out := make([]AnnotatedReview, len(rows))
	for i, r := range rows {
		out[i] = AnnotatedReview{Review: r}
	}
	if userID == 0 || len(rows) == 0 {
		return out, nil
	}

	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}

	liked, err := repo.ReactedTargetIDs(ctx, s.DB, userID, domain.TargetReview, domain.PolarityLike, ids)
	if err != nil {
		return nil, err
	}
	disliked, err := repo.ReactedTargetIDs(ctx, s.DB, userID, domain.TargetReview, domain.PolarityDislike, ids)
	if err != nil {
		return nil, err
	}
	commented, err := repo.CommentedReviewIDs(ctx, s.DB, userID, ids)
	if err != nil {
		return nil, err
	}

	for i := range out {
		id := out[i].ID
		out[i].IsMine = out[i].UserID == userID
		_, out[i].IsLiked = liked[id]
		_, out[i].IsDisliked = disliked[id]
		_, out[i].IsCommented = commented[id]
	}
	return out, nil
}

// isNotFound treats repo-level not found sentinels as "not found" in a
// driver-agnostic way.
func isNotFound(err error) bool {
	if errors.Is(err, repo.ErrNotFound) {
		return true
	}
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicate attempts to detect unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	return errors.Is(err, repo.ErrDuplicateReaction) || containsUnique(err)
}
