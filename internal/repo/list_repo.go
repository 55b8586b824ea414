// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the personal movie lists (watched and
// wished): one row per (user, kind, movie), paged by entry id so a list
// reads back in recency order.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/cinelog/go-review-backend/internal/domain"
	"github.com/cinelog/go-review-backend/internal/pagination"
)

// InsertListEntry puts a movie on one of the user's lists. A
// unique-constraint violation maps to ErrDuplicateListEntry.
func InsertListEntry(ctx context.Context, db *gorm.DB, userID int64, kind domain.ListKind, movieID int64) error {
	e := &domain.MovieListEntry{
		UserID:    userID,
		Kind:      kind,
		MovieID:   movieID,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return ErrDuplicateListEntry
		}
		return err
	}
	return nil
}

// DeleteListEntry removes a movie from one of the user's lists.
// ErrNotFound when the movie was not on it.
func DeleteListEntry(ctx context.Context, db *gorm.DB, userID int64, kind domain.ListKind, movieID int64) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND kind = ? AND movie_id = ?", userID, kind, movieID).
		Delete(&domain.MovieListEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEntriesPage returns one keyset page of the user's list, newest entry
// first.
func ListEntriesPage(ctx context.Context, db *gorm.DB, userID int64, kind domain.ListKind, cur *pagination.Cursor, limit int) ([]domain.MovieListEntry, error) {
	q := db.WithContext(ctx).Model(&domain.MovieListEntry{}).
		Where("user_id = ? AND kind = ?", userID, kind)

	q, err := pagination.Apply(q, pagination.SortSpec{Order: pagination.Desc}, cur, nil)
	if err != nil {
		return nil, err
	}

	var out []domain.MovieListEntry
	if err := q.Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MoviesByIDs loads the given movies with their descriptive relations, in
// arbitrary order. Missing ids are silently absent from the result.
func MoviesByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]domain.Movie, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []domain.Movie
	err := db.WithContext(ctx).
		Preload("Genres").
		Preload("Countries").
		Where("id IN ?", ids).
		Find(&out).Error
	return out, err
}

// ListedMovieIDs returns the subset of ids on the user's list, as a set for
// page annotation. One bulk query, no N+1.
func ListedMovieIDs(ctx context.Context, db *gorm.DB, userID int64, kind domain.ListKind, ids []int64) (map[int64]struct{}, error) {
	if len(ids) == 0 {
		return map[int64]struct{}{}, nil
	}
	var listed []int64
	err := db.WithContext(ctx).Model(&domain.MovieListEntry{}).
		Where("user_id = ? AND kind = ? AND movie_id IN ?", userID, kind, ids).
		Pluck("movie_id", &listed).Error
	if err != nil {
		return nil, err
	}
	set := make(map[int64]struct{}, len(listed))
	for _, id := range listed {
		set[id] = struct{}{}
	}
	return set, nil
}
