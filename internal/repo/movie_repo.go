// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Movie
// model, including the filtered keyset-paginated catalogue query.
//
// The repository follows a "thin" approach: it performs persistence and
// simple query composition, leaving business rules to the services package.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/cinelog/go-review-backend/internal/domain"
	"github.com/cinelog/go-review-backend/internal/pagination"
)

// movieSortColumns whitelists the sortable dimensions of the movie
// catalogue. The id tie-break key is implicit.
var movieSortColumns = map[string]string{
	"rating":      "rating",
	"releaseYear": "release_year",
}

// MovieFilter restricts the catalogue query. Zero values disable the
// corresponding predicate.
type MovieFilter struct {
	Title     string  // case-insensitive substring match
	MinRating float64 // rating >= MinRating
	Year      int     // exact release year
}

// CreateMovie inserts a movie row. A duplicate title surfaces as the raw
// unique-constraint error for the service layer to translate.
func CreateMovie(ctx context.Context, db *gorm.DB, m *domain.Movie) error {
	return db.WithContext(ctx).Create(m).Error
}

// GetMovie fetches a movie by id, or ErrNotFound.
func GetMovie(ctx context.Context, db *gorm.DB, id int64) (*domain.Movie, error) {
	var m domain.Movie
	err := db.WithContext(ctx).
		Preload("Genres").
		Preload("Countries").
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMovie persists changes to a movie's descriptive fields. Aggregate
// columns are deliberately excluded: they belong to the aggregate updater.
func UpdateMovie(ctx context.Context, db *gorm.DB, m *domain.Movie) error {
	res := db.WithContext(ctx).Model(&domain.Movie{}).
		Where("id = ?", m.ID).
		Updates(map[string]any{
			"title":        m.Title,
			"description":  m.Description,
			"release_year": m.ReleaseYear,
			"duration":     m.Duration,
			"age_limit":    m.AgeLimit,
			"poster_url":   m.PosterURL,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMovie removes a movie row. Reviews cascade at the schema level.
func DeleteMovie(ctx context.Context, db *gorm.DB, id int64) error {
	res := db.WithContext(ctx).Delete(&domain.Movie{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListMoviesPage returns one keyset page of the catalogue matching filter,
// ordered by (spec, id).
func ListMoviesPage(ctx context.Context, db *gorm.DB, filter MovieFilter, spec pagination.SortSpec, cur *pagination.Cursor, limit int) ([]domain.Movie, error) {
	q := db.WithContext(ctx).Model(&domain.Movie{})

	if filter.Title != "" {
		q = q.Where("title LIKE ?", "%"+filter.Title+"%")
	}
	if filter.MinRating > 0 {
		q = q.Where("rating >= ?", filter.MinRating)
	}
	if filter.Year > 0 {
		q = q.Where("release_year = ?", filter.Year)
	}

	q, err := pagination.Apply(q, spec, cur, movieSortColumns)
	if err != nil {
		return nil, err
	}

	var out []domain.Movie
	if err := q.Preload("Genres").Preload("Countries").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListMoviesBy returns up to limit movies ordered by the given column
// expression. Used by the fixed front-page shelves (latest, top rated, most
// reviewed).
func ListMoviesBy(ctx context.Context, db *gorm.DB, order string, limit int) ([]domain.Movie, error) {
	var out []domain.Movie
	err := db.WithContext(ctx).
		Preload("Genres").
		Preload("Countries").
		Order(order).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ReviewedMovieIDs returns the subset of ids the user has reviewed, as a set
// for O(1) membership tests during page annotation. One bulk query, no N+1.
func ReviewedMovieIDs(ctx context.Context, db *gorm.DB, userID int64, ids []int64) (map[int64]struct{}, error) {
	if len(ids) == 0 {
		return map[int64]struct{}{}, nil
	}
	var reviewed []int64
	err := db.WithContext(ctx).Model(&domain.Review{}).
		Where("user_id = ? AND movie_id IN ?", userID, ids).
		Pluck("movie_id", &reviewed).Error
	if err != nil {
		return nil, err
	}
	set := make(map[int64]struct{}, len(reviewed))
	for _, id := range reviewed {
		set[id] = struct{}{}
	}
	return set, nil
}
