// Package services – ListService
//
// The personal movie lists: watched and wished. Membership is idempotent on
// add; the list reads back newest-first, keyset-paged by entry id.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cinelog/go-review-backend/internal/domain"
	"github.com/cinelog/go-review-backend/internal/pagination"
	"github.com/cinelog/go-review-backend/internal/repo"
)

// ListService implements the watched and wished lists.
type ListService struct {
	// DB is the database handle used for all list operations.
	DB *gorm.DB
}

// Add puts a movie on one of the user's lists. Adding a movie already on
// the list is a no-op success.
//
// Errors: ErrInvalidListKind, ErrMovieNotFound.
func (s *ListService) Add(ctx context.Context, userID, movieID int64, kind domain.ListKind) error {
	if !kind.Valid() {
		return ErrInvalidListKind
	}
	if _, err := repo.GetMovie(ctx, s.DB, movieID); err != nil {
		if isNotFound(err) {
			return ErrMovieNotFound
		}
		return err
	}
	if err := repo.InsertListEntry(ctx, s.DB, userID, kind, movieID); err != nil {
		if errors.Is(err, repo.ErrDuplicateListEntry) {
			return nil
		}
		return err
	}
	return nil
}

// Remove takes a movie off one of the user's lists.
//
// Errors: ErrInvalidListKind, ErrListEntryNotFound.
func (s *ListService) Remove(ctx context.Context, userID, movieID int64, kind domain.ListKind) error {
	if !kind.Valid() {
		return ErrInvalidListKind
	}
	if err := repo.DeleteListEntry(ctx, s.DB, userID, kind, movieID); err != nil {
		if isNotFound(err) {
			return ErrListEntryNotFound
		}
		return err
	}
	return nil
}

// Movies returns one page of the user's list, newest entry first, each
// movie annotated with the user's review state. The cursor addresses list
// entries, not movies, so re-adding a movie moves it to the front without
// disturbing an in-flight walk.
func (s *ListService) Movies(ctx context.Context, userID int64, kind domain.ListKind, cur *pagination.Cursor, limit int) (*MoviePage, error) {
	if !kind.Valid() {
		return nil, ErrInvalidListKind
	}
	if limit < 1 {
		limit = 20
	}

	entries, err := repo.ListEntriesPage(ctx, s.DB, userID, kind, cur, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.MovieID
	}
	movies, err := repo.MoviesByIDs(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]domain.Movie, len(movies))
	for _, m := range movies {
		byID[m.ID] = m
	}

	// Entry order is authoritative; MoviesByIDs returns rows unordered.
	ordered := make([]domain.Movie, 0, len(entries))
	for _, e := range entries {
		if m, ok := byID[e.MovieID]; ok {
			ordered = append(ordered, m)
		}
	}
	annotated, err := (&MovieService{DB: s.DB}).annotate(ctx, ordered, userID)
	if err != nil {
		return nil, err
	}

	next := pagination.Next(entries, limit, pagination.SortSpec{Order: pagination.Desc},
		func(e domain.MovieListEntry) int64 { return e.ID },
		func(e domain.MovieListEntry) float64 { return 0 })

	return &MoviePage{Movies: annotated, NextCursor: next}, nil
}
