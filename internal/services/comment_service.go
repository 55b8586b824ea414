// Package services – CommentService
//
// The comment lifecycle mirrors the review lifecycle one level down:
// Comment↔Review instead of Review↔Movie, with the parent review's comment
// counter taking the place of the movie's running average.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/cinelog/go-review-backend/internal/domain"
	"github.com/cinelog/go-review-backend/internal/pagination"
	"github.com/cinelog/go-review-backend/internal/repo"
)

// CommentService implements the use-cases around comments.
type CommentService struct {
	// DB is the database handle used for all comment operations.
	DB *gorm.DB
}

// AnnotatedComment is a comment enriched with the requesting user's reaction
// state.
type AnnotatedComment struct {
	domain.Comment
	IsMine     bool `json:"is_mine"`
	IsLiked    bool `json:"is_liked"`
	IsDisliked bool `json:"is_disliked"`
}

// CommentPage is one slice of a comment feed plus the cursor addressing the
// next slice.
type CommentPage struct {
	Comments   []AnnotatedComment
	NextCursor *pagination.Cursor
}

// Create posts userID's comment under reviewID and increments the parent
// review's comment counter in the same transaction.
//
// Errors: ErrReviewNotFound, ErrEmptyMessage, ErrMessageTooLong.
func (s *CommentService) Create(ctx context.Context, userID, reviewID int64, message string) (*domain.Comment, error) {
	if err := validateMessage(message); err != nil {
		return nil, err
	}

	c := &domain.Comment{
		UserID:   userID,
		ReviewID: reviewID,
		Message:  message,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetReview(ctx, tx, reviewID); err != nil {
			if isNotFound(err) {
				return ErrReviewNotFound
			}
			return err
		}
		if err := repo.CreateComment(ctx, tx, c); err != nil {
			return err
		}
		_, err := repo.UpdateCommentCount(ctx, tx, reviewID, +1)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Update edits userID's comment; IsChanged is set permanently. No aggregate
// moves on edit.
//
// Errors: ErrCommentNotFound, ErrNotOwner.
func (s *CommentService) Update(ctx context.Context, userID, commentID int64, message string) (*domain.Comment, error) {
	if err := validateMessage(message); err != nil {
		return nil, err
	}

	var updated *domain.Comment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := repo.GetComment(ctx, tx, commentID)
		if err != nil {
			if isNotFound(err) {
				return ErrCommentNotFound
			}
			return err
		}
		if c.UserID != userID {
			return ErrNotOwner
		}
		if err := repo.UpdateCommentContent(ctx, tx, commentID, message); err != nil {
			return err
		}
		c.Message = message
		c.IsChanged = true
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes userID's comment and decrements the parent review's comment
// counter in the same transaction.
//
// Errors: ErrCommentNotFound, ErrNotOwner.
func (s *CommentService) Delete(ctx context.Context, userID, commentID int64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := repo.GetComment(ctx, tx, commentID)
		if err != nil {
			if isNotFound(err) {
				return ErrCommentNotFound
			}
			return err
		}
		if c.UserID != userID {
			return ErrNotOwner
		}
		if err := repo.DeleteComment(ctx, tx, commentID); err != nil {
			return err
		}
		// The parent review may already be gone when deletion cascades.
		if _, err := repo.UpdateCommentCount(ctx, tx, c.ReviewID, -1); err != nil && !isNotFound(err) {
			return err
		}
		return nil
	})
}

// ListForReviewOptions parameterizes the per-review comment feed.
type ListForReviewOptions struct {
	Sort   pagination.SortSpec
	Cursor *pagination.Cursor
	Limit  int
}

// ListForReview returns one page of a review's comments ordered by
// (sort, id), annotated with the requesting user's reaction state.
func (s *CommentService) ListForReview(ctx context.Context, reviewID, userID int64, opts ListForReviewOptions) (*CommentPage, error) {
	if opts.Limit < 1 {
		opts.Limit = 10
	}

	if _, err := repo.GetReview(ctx, s.DB, reviewID); err != nil {
		if isNotFound(err) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}

	rows, err := repo.ListCommentsPage(ctx, s.DB, reviewID, opts.Sort, opts.Cursor, opts.Limit)
	if err != nil {
		return nil, err
	}

	annotated, err := s.annotate(ctx, rows, userID)
	if err != nil {
		return nil, err
	}

	next := pagination.Next(rows, opts.Limit, opts.Sort,
		func(c domain.Comment) int64 { return c.ID },
		func(c domain.Comment) float64 {
			if opts.Sort.Field == "dislikes" {
				return float64(c.TotalDislikes)
			}
			return float64(c.TotalLikes)
		})

	return &CommentPage{Comments: annotated, NextCursor: next}, nil
}

// annotate enriches one page of comments using two bulk set lookups over the
// page's ids.
func (s *CommentService) annotate(ctx context.Context, rows []domain.Comment, userID int64) ([]AnnotatedComment, error) {
	out := make([]AnnotatedComment, len(rows))
	for i, c := range rows {
		out[i] = AnnotatedComment{Comment: c}
	}
	if userID == 0 || len(rows) == 0 {
		return out, nil
	}

	ids := make([]int64, len(rows))
	for i, c := range rows {
		ids[i] = c.ID
	}

	liked, err := repo.ReactedTargetIDs(ctx, s.DB, userID, domain.TargetComment, domain.PolarityLike, ids)
	if err != nil {
		return nil, err
	}
	disliked, err := repo.ReactedTargetIDs(ctx, s.DB, userID, domain.TargetComment, domain.PolarityDislike, ids)
	if err != nil {
		return nil, err
	}

	for i := range out {
		id := out[i].ID
		out[i].IsMine = out[i].UserID == userID
		_, out[i].IsLiked = liked[id]
		_, out[i].IsDisliked = disliked[id]
	}
	return out, nil
}
