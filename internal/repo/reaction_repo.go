// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the reaction ledger: one row per
// (user, target) recording which polarity the user applied.
//
// The single-polarity invariant is enforced at the storage layer by the
// unique index on (user_id, target_type, target_id); a duplicate insert
// (lost race) surfaces as ErrDuplicateReaction, not a crash.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cinelog/go-review-backend/internal/domain"
)

// InsertReaction records a new reaction. A unique-constraint violation maps
// to ErrDuplicateReaction.
func InsertReaction(ctx context.Context, db *gorm.DB, userID int64, t domain.TargetType, targetID int64, p domain.Polarity) error {
	r := &domain.Reaction{
		ID:         uuid.NewString(),
		UserID:     userID,
		TargetType: t,
		TargetID:   targetID,
		Polarity:   p,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return ErrDuplicateReaction
		}
		return err
	}
	return nil
}

// GetReaction returns the user's ledger entry for a target, or ErrNotFound.
func GetReaction(ctx context.Context, db *gorm.DB, userID int64, t domain.TargetType, targetID int64) (*domain.Reaction, error) {
	var r domain.Reaction
	err := db.WithContext(ctx).
		Where("user_id = ? AND target_type = ? AND target_id = ?", userID, t, targetID).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteReaction removes the user's entry for a target regardless of
// polarity and reports which polarity was removed. ErrNotFound when the user
// has no entry.
func DeleteReaction(ctx context.Context, db *gorm.DB, userID int64, t domain.TargetType, targetID int64) (domain.Polarity, error) {
	r, err := GetReaction(ctx, db, userID, t, targetID)
	if err != nil {
		return "", err
	}
	if err := db.WithContext(ctx).Delete(&domain.Reaction{}, "id = ?", r.ID).Error; err != nil {
		return "", err
	}
	return r.Polarity, nil
}

// SwitchPolarity flips an existing ledger entry in place. Logically a
// delete + insert; one row whose polarity is replaced keeps the operation a
// single atomic write.
func SwitchPolarity(ctx context.Context, db *gorm.DB, reactionID string, p domain.Polarity) error {
	res := db.WithContext(ctx).Model(&domain.Reaction{}).
		Where("id = ?", reactionID).
		UpdateColumn("polarity", p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReactedTargetIDs returns the subset of ids the user reacted to with the
// given polarity, as a set for O(1) membership tests during page annotation.
// One bulk query, no N+1.
func ReactedTargetIDs(ctx context.Context, db *gorm.DB, userID int64, t domain.TargetType, p domain.Polarity, ids []int64) (map[int64]struct{}, error) {
	if len(ids) == 0 {
		return map[int64]struct{}{}, nil
	}
	var reacted []int64
	err := db.WithContext(ctx).Model(&domain.Reaction{}).
		Where("user_id = ? AND target_type = ? AND polarity = ? AND target_id IN ?", userID, t, p, ids).
		Pluck("target_id", &reacted).Error
	if err != nil {
		return nil, err
	}
	set := make(map[int64]struct{}, len(reacted))
	for _, id := range reacted {
		set[id] = struct{}{}
	}
	return set, nil
}

// CommentedReviewIDs returns the subset of review ids the user has commented
// on, for the isCommented page annotation.
func CommentedReviewIDs(ctx context.Context, db *gorm.DB, userID int64, ids []int64) (map[int64]struct{}, error) {
	if len(ids) == 0 {
		return map[int64]struct{}{}, nil
	}
	var commented []int64
	err := db.WithContext(ctx).Model(&domain.Comment{}).
		Distinct("review_id").
		Where("user_id = ? AND review_id IN ?", userID, ids).
		Pluck("review_id", &commented).Error
	if err != nil {
		return nil, err
	}
	set := make(map[int64]struct{}, len(commented))
	for _, id := range commented {
		set[id] = struct{}{}
	}
	return set, nil
}

// isUniqueViolation attempts to detect unique-constraint violations across
// drivers that may not map to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
