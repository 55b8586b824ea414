// Package services defines the business logic for movies, reviews, comments,
// reactions, and confirmation sessions. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import (
	"errors"
	"strings"
)

// Not-found errors: the referenced entity does not exist.
var (
	ErrMovieNotFound    = errors.New("movie not found")
	ErrReviewNotFound   = errors.New("review not found")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrReactionNotFound = errors.New("reaction not found")

	// ErrListEntryNotFound is returned when removing a movie from a
	// personal list it was never on.
	ErrListEntryNotFound = errors.New("movie is not on this list")
)

// Conflict errors: a uniqueness invariant would be violated.
var (
	// ErrAlreadyReviewed is returned when a user submits a second review for
	// the same movie.
	ErrAlreadyReviewed = errors.New("user already has a review for this movie")

	// ErrMovieExists is returned when a movie with the same title already
	// exists.
	ErrMovieExists = errors.New("movie with this title already exists")
)

// Ownership errors.
var (
	// ErrNotOwner is returned when a user attempts to edit or delete content
	// they do not own.
	ErrNotOwner = errors.New("user does not own this content")
)

// Validation errors.
var (
	// ErrInvalidRating is returned when a review rating is outside the
	// [0.5, 10] half-step domain.
	ErrInvalidRating = errors.New("rating must be between 0.5 and 10 in steps of 0.5")

	// ErrInvalidPolarity is returned when a reaction polarity is neither
	// "like" nor "dislike".
	ErrInvalidPolarity = errors.New("polarity must be like or dislike")

	// ErrEmptyMessage is returned when a review or comment message is empty.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageTooLong is returned when a review or comment message exceeds
	// the maximum allowed length.
	ErrMessageTooLong = errors.New("message too long")

	// ErrInvalidListKind is returned when a personal-list operation names a
	// kind other than "watched" or "wished".
	ErrInvalidListKind = errors.New("list kind must be watched or wished")
)

// Confirmation errors.
var (
	ErrConfirmationNotFound = errors.New("confirmation session not found")
	ErrConfirmationExpired  = errors.New("confirmation code is expired")
	ErrConfirmationInvalid  = errors.New("confirmation code is not valid")
)

// containsUnique sniffs driver error text for unique-constraint violations.
// SQLite typically: "UNIQUE constraint failed"; Postgres typically:
// "duplicate key value violates unique constraint".
func containsUnique(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
