package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cinelog/go-review-backend/internal/domain"
	"github.com/cinelog/go-review-backend/internal/repo"
)

// newTestDB opens a fresh in-memory SQLite database per test with the full
// schema migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec("PRAGMA foreign_keys=ON;").Error; err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	u := &domain.User{DisplayName: "user", Email: email}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedMovie(t *testing.T, db *gorm.DB, title string) *domain.Movie {
	t.Helper()
	m := &domain.Movie{Title: title, ReleaseYear: 2015, Duration: 110}
	if err := repo.CreateMovie(context.Background(), db, m); err != nil {
		t.Fatalf("seed movie: %v", err)
	}
	return m
}

func movieState(t *testing.T, db *gorm.DB, id int64) (float64, int) {
	t.Helper()
	m, err := repo.GetMovie(context.Background(), db, id)
	if err != nil {
		t.Fatalf("get movie: %v", err)
	}
	return m.Rating, m.TotalReviews
}
