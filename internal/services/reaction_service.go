// Package services – ReactionService
//
// This file implements reaction toggling over the ledger. The caller states
// which way it believes the toggle should go (active=true means "I currently
// hold this polarity, remove it"); the ledger is not re-read to second-guess
// the removal case, but the storage-layer unique constraint still defends
// the single-polarity invariant, and a lost insert race degrades to an
// idempotent no-op instead of a user-facing failure.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cinelog/go-review-backend/internal/domain"
	"github.com/cinelog/go-review-backend/internal/repo"
)

// ReactionService implements like/dislike toggling for reviews and comments.
type ReactionService struct {
	// DB is the database handle used for all ledger operations.
	DB *gorm.DB
}

// Counters is the pair of reaction counters on a target after a toggle.
type Counters struct {
	Likes    int `json:"total_likes"`
	Dislikes int `json:"total_dislikes"`
}

// Toggle applies one reaction state change for (userID, targetType,
// targetID) and adjusts the target's counters atomically in the same
// transaction.
//
// active reports the caller's belief that it currently holds polarity on the
// target:
//   - active: the ledger entry is removed and that counter decremented.
//   - not active, no existing entry: an entry is created and that counter
//     incremented.
//   - not active, entry with the opposite polarity: the entry's polarity is
//     replaced and both counters move in one update (+1/-1).
//
// A duplicate-entry race (the user already holds the desired polarity) is
// treated as success: the current counters are returned unchanged.
//
// Errors: ErrInvalidPolarity; ErrReviewNotFound/ErrCommentNotFound when the
// target is missing; ErrReactionNotFound when removing a reaction the user
// never made.
func (s *ReactionService) Toggle(ctx context.Context, userID int64, targetType domain.TargetType, targetID int64, polarity domain.Polarity, active bool) (Counters, error) {
	if !polarity.Valid() {
		return Counters{}, ErrInvalidPolarity
	}

	var out Counters
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireTarget(ctx, tx, targetType, targetID); err != nil {
			return err
		}

		if active {
			removed, err := repo.DeleteReaction(ctx, tx, userID, targetType, targetID)
			if err != nil {
				if isNotFound(err) {
					return ErrReactionNotFound
				}
				return err
			}
			return s.applyDeltas(ctx, tx, targetType, targetID, removed, -1, 0, &out)
		}

		existing, err := repo.GetReaction(ctx, tx, userID, targetType, targetID)
		switch {
		case err != nil && isNotFound(err):
			// Fresh reaction.
			if err := repo.InsertReaction(ctx, tx, userID, targetType, targetID, polarity); err != nil {
				if errors.Is(err, repo.ErrDuplicateReaction) {
					// Lost race: someone (the same user, retrying) inserted
					// first. Idempotent success.
					return s.readCounters(ctx, tx, targetType, targetID, &out)
				}
				return err
			}
			return s.applyDeltas(ctx, tx, targetType, targetID, polarity, +1, 0, &out)

		case err != nil:
			return err

		case existing.Polarity == polarity:
			// The caller believed it held no reaction but already holds the
			// desired one. No-op success.
			return s.readCounters(ctx, tx, targetType, targetID, &out)

		default:
			// Polarity flip: replace the row, move both counters at once.
			if err := repo.SwitchPolarity(ctx, tx, existing.ID, polarity); err != nil {
				return err
			}
			return s.applyDeltas(ctx, tx, targetType, targetID, polarity, +1, -1, &out)
		}
	})
	if err != nil {
		return Counters{}, err
	}
	return out, nil
}

// requireTarget verifies the reaction target exists, mapping the miss to the
// entity-specific not-found sentinel.
func (s *ReactionService) requireTarget(ctx context.Context, tx *gorm.DB, t domain.TargetType, id int64) error {
	var err error
	if t == domain.TargetComment {
		_, err = repo.GetComment(ctx, tx, id)
	} else {
		_, err = repo.GetReview(ctx, tx, id)
	}
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		if t == domain.TargetComment {
			return ErrCommentNotFound
		}
		return ErrReviewNotFound
	}
	return err
}

// applyDeltas translates (polarity, ownDelta, oppositeDelta) into the
// like/dislike counter deltas and applies them in one atomic update.
func (s *ReactionService) applyDeltas(ctx context.Context, tx *gorm.DB, t domain.TargetType, targetID int64, p domain.Polarity, ownDelta, oppositeDelta int, out *Counters) error {
	likeDelta, dislikeDelta := ownDelta, oppositeDelta
	if p == domain.PolarityDislike {
		likeDelta, dislikeDelta = oppositeDelta, ownDelta
	}
	likes, dislikes, err := repo.UpdateReactionCounters(ctx, tx, t, targetID, likeDelta, dislikeDelta)
	if err != nil {
		return err
	}
	out.Likes, out.Dislikes = likes, dislikes
	return nil
}

// readCounters loads the current counters without mutating them (no-op
// success path).
func (s *ReactionService) readCounters(ctx context.Context, tx *gorm.DB, t domain.TargetType, targetID int64, out *Counters) error {
	likes, dislikes, err := repo.UpdateReactionCounters(ctx, tx, t, targetID, 0, 0)
	if err != nil {
		return err
	}
	out.Likes, out.Dislikes = likes, dislikes
	return nil
}
