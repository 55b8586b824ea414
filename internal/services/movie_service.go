// Package services – MovieService
//
// Catalogue management and the filtered, keyset-paginated movie feed. The
// aggregate columns (rating, totalReviews) are read-only here; only the
// review lifecycle moves them.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cinelog/go-review-backend/internal/domain"
	"github.com/cinelog/go-review-backend/internal/pagination"
	"github.com/cinelog/go-review-backend/internal/repo"
)

// MovieService implements the use-cases around the movie catalogue.
type MovieService struct {
	// DB is the database handle used for all catalogue operations.
	DB *gorm.DB
}

// AnnotatedMovie is a movie enriched with whether the requesting user has
// already reviewed it.
type AnnotatedMovie struct {
	domain.Movie
	IsReviewed bool `json:"is_reviewed"`
}

// MoviePage is one slice of the catalogue plus the cursor addressing the
// next slice.
type MoviePage struct {
	Movies     []AnnotatedMovie
	NextCursor *pagination.Cursor
}

// Create adds a movie to the catalogue with its genre and country tags;
// unknown names are created on the fly. A duplicate title yields
// ErrMovieExists.
func (s *MovieService) Create(ctx context.Context, m *domain.Movie, genres, countries []string) (*domain.Movie, error) {
	m.Rating = 0
	m.TotalReviews = 0
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		gs, err := repo.UpsertGenres(ctx, tx, genres)
		if err != nil {
			return err
		}
		cs, err := repo.UpsertCountries(ctx, tx, countries)
		if err != nil {
			return err
		}
		m.Genres = gs
		m.Countries = cs
		return repo.CreateMovie(ctx, tx, m)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicate(err) {
			return nil, ErrMovieExists
		}
		return nil, err
	}
	return m, nil
}

// Update edits a movie's descriptive fields and replaces its genre and
// country sets; the aggregates are untouched.
//
// Errors: ErrMovieNotFound, ErrMovieExists on a title collision.
func (s *MovieService) Update(ctx context.Context, m *domain.Movie, genres, countries []string) (*domain.Movie, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.UpdateMovie(ctx, tx, m); err != nil {
			return err
		}
		gs, err := repo.UpsertGenres(ctx, tx, genres)
		if err != nil {
			return err
		}
		if err := repo.SetMovieGenres(ctx, tx, m.ID, gs); err != nil {
			return err
		}
		cs, err := repo.UpsertCountries(ctx, tx, countries)
		if err != nil {
			return err
		}
		return repo.SetMovieCountries(ctx, tx, m.ID, cs)
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrMovieNotFound
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicate(err) {
			return nil, ErrMovieExists
		}
		return nil, err
	}
	return repo.GetMovie(ctx, s.DB, m.ID)
}

// Delete removes a movie; its reviews (and their comments) cascade.
func (s *MovieService) Delete(ctx context.Context, id int64) error {
	if err := repo.DeleteMovie(ctx, s.DB, id); err != nil {
		if isNotFound(err) {
			return ErrMovieNotFound
		}
		return err
	}
	return nil
}

// Get returns one movie annotated with the requesting user's review state
// (userID 0 means anonymous).
func (s *MovieService) Get(ctx context.Context, id, userID int64) (*AnnotatedMovie, error) {
	m, err := repo.GetMovie(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	out := &AnnotatedMovie{Movie: *m}
	if userID != 0 {
		reviewed, err := repo.ReviewedMovieIDs(ctx, s.DB, userID, []int64{id})
		if err != nil {
			return nil, err
		}
		_, out.IsReviewed = reviewed[id]
	}
	return out, nil
}

// ListOptions parameterizes the catalogue feed.
type ListOptions struct {
	Filter repo.MovieFilter
	Sort   pagination.SortSpec
	Cursor *pagination.Cursor
	Limit  int
}

// List returns one page of the catalogue matching the filter, ordered by
// (sort, id), annotated per user.
func (s *MovieService) List(ctx context.Context, userID int64, opts ListOptions) (*MoviePage, error) {
	if opts.Limit < 1 {
		opts.Limit = 20
	}

	rows, err := repo.ListMoviesPage(ctx, s.DB, opts.Filter, opts.Sort, opts.Cursor, opts.Limit)
	if err != nil {
		return nil, err
	}

	annotated, err := s.annotate(ctx, rows, userID)
	if err != nil {
		return nil, err
	}

	next := pagination.Next(rows, opts.Limit, opts.Sort,
		func(m domain.Movie) int64 { return m.ID },
		func(m domain.Movie) float64 {
			if opts.Sort.Field == "releaseYear" {
				return float64(m.ReleaseYear)
			}
			return m.Rating
		})

	return &MoviePage{Movies: annotated, NextCursor: next}, nil
}

// Latest returns the newest catalogue entries.
func (s *MovieService) Latest(ctx context.Context, userID int64, limit int) ([]AnnotatedMovie, error) {
	return s.shelf(ctx, userID, "id DESC", limit)
}

// TopRated returns the highest-rated catalogue entries.
func (s *MovieService) TopRated(ctx context.Context, userID int64, limit int) ([]AnnotatedMovie, error) {
	return s.shelf(ctx, userID, "rating DESC, id DESC", limit)
}

// MostReviewed returns the most-reviewed catalogue entries.
func (s *MovieService) MostReviewed(ctx context.Context, userID int64, limit int) ([]AnnotatedMovie, error) {
	return s.shelf(ctx, userID, "total_reviews DESC, id DESC", limit)
}

func (s *MovieService) shelf(ctx context.Context, userID int64, order string, limit int) ([]AnnotatedMovie, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}
	rows, err := repo.ListMoviesBy(ctx, s.DB, order, limit)
	if err != nil {
		return nil, err
	}
	return s.annotate(ctx, rows, userID)
}

// annotate enriches one page of movies with the isReviewed flag using a
// single bulk lookup over the page's ids.
func (s *MovieService) annotate(ctx context.Context, rows []domain.Movie, userID int64) ([]AnnotatedMovie, error) {
	out := make([]AnnotatedMovie, len(rows))
	for i, m := range rows {
		out[i] = AnnotatedMovie{Movie: m}
	}
	if userID == 0 || len(rows) == 0 {
		return out, nil
	}

	ids := make([]int64, len(rows))
	for i, m := range rows {
		ids[i] = m.ID
	}
	reviewed, err := repo.ReviewedMovieIDs(ctx, s.DB, userID, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		_, out[i].IsReviewed = reviewed[out[i].ID]
	}
	return out, nil
}
