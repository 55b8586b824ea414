// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the descriptive catalogue relations:
// genres and production countries, attached to movies many-to-many.
package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/cinelog/go-review-backend/internal/domain"
)

// UpsertGenres resolves names to Genre rows, creating the ones that do not
// exist yet. Blank names are skipped; matching is case-sensitive on the
// stored name.
func UpsertGenres(ctx context.Context, db *gorm.DB, names []string) ([]domain.Genre, error) {
	out := make([]domain.Genre, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var g domain.Genre
		err := db.WithContext(ctx).
			Where(domain.Genre{Name: name}).
			FirstOrCreate(&g).Error
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// UpsertCountries resolves names to Country rows, creating missing ones.
func UpsertCountries(ctx context.Context, db *gorm.DB, names []string) ([]domain.Country, error) {
	out := make([]domain.Country, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var c domain.Country
		err := db.WithContext(ctx).
			Where(domain.Country{Name: name}).
			FirstOrCreate(&c).Error
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// SetMovieGenres replaces the movie's genre set with exactly the given rows.
func SetMovieGenres(ctx context.Context, db *gorm.DB, movieID int64, genres []domain.Genre) error {
	m := domain.Movie{ID: movieID}
	return db.WithContext(ctx).Model(&m).Association("Genres").Replace(genres)
}

// SetMovieCountries replaces the movie's country set.
func SetMovieCountries(ctx context.Context, db *gorm.DB, movieID int64, countries []domain.Country) error {
	m := domain.Movie{ID: movieID}
	return db.WithContext(ctx).Model(&m).Association("Countries").Replace(countries)
}
