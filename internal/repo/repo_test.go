package repo

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cinelog/go-review-backend/internal/domain"
)

// newTestDB opens a fresh in-memory SQLite database per test with the full
// schema migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec("PRAGMA foreign_keys=ON;").Error; err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedMovie(t *testing.T, db *gorm.DB, title string) *domain.Movie {
	t.Helper()
	m := &domain.Movie{Title: title, ReleaseYear: 2020, Duration: 120}
	if err := CreateMovie(context.Background(), db, m); err != nil {
		t.Fatalf("seed movie: %v", err)
	}
	return m
}

func seedUser(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	u := &domain.User{DisplayName: "user", Email: email}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedReview(t *testing.T, db *gorm.DB, userID, movieID int64, rating float64) *domain.Review {
	t.Helper()
	r := &domain.Review{UserID: userID, MovieID: movieID, Rating: rating, Message: "fine"}
	if err := CreateReview(context.Background(), db, r); err != nil {
		t.Fatalf("seed review: %v", err)
	}
	return r
}

func seedComment(t *testing.T, db *gorm.DB, userID, reviewID int64) *domain.Comment {
	t.Helper()
	c := &domain.Comment{UserID: userID, ReviewID: reviewID, Message: "agreed"}
	if err := CreateComment(context.Background(), db, c); err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	return c
}
