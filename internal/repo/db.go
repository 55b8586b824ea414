// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver) and schema migrations.
package repo

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/cinelog/go-review-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist. It aliases
// gorm.ErrRecordNotFound for convenience and consistency across the service
// layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrInvalidDelta is returned by the aggregate updaters when the caller
// passes a count delta outside the supported {-1, 0, +1} domain.
var ErrInvalidDelta = errors.New("count delta must be -1, 0 or +1")

// ErrDuplicateReaction is returned when a reaction insert trips the
// (user_id, target_type, target_id) unique constraint. Callers treat it as
// an idempotent-retry signal, not a user-facing failure.
var ErrDuplicateReaction = errors.New("reaction already exists for this user and target")

// ErrDuplicateListEntry is returned when a personal-list insert trips the
// (user_id, kind, movie_id) unique constraint. List membership is
// idempotent, so callers treat it as success.
var ErrDuplicateListEntry = errors.New("movie already on this list")

// OpenSQLite opens (or creates) a SQLite database, applies PRAGMAs, and
// attaches the OpenTelemetry tracing plugin.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite
	// "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates the schema for all domain models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Genre{},
		&domain.Country{},
		&domain.Movie{},
		&domain.Review{},
		&domain.Comment{},
		&domain.Reaction{},
		&domain.Confirmation{},
		&domain.MovieListEntry{},
	)
}
