// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants and the mapping from
// service-layer sentinel errors to HTTP responses (via the `fail()` helper in
// this package). These codes provide clients with a stable, machine-readable
// error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, unauthorized, conflict) mirror common HTTP
//     status semantics to aid interoperability.
//   - Domain-specific codes (e.g., invalid_cursor, confirmation_expired) are
//     reserved for business errors that cannot be conveyed by status alone.
//   - All error responses must include both an HTTP status and one of these codes.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cinelog/go-review-backend/internal/pagination"
	"github.com/cinelog/go-review-backend/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeInvalidCursor       = "invalid_cursor"
	ErrCodeInvalidSort         = "invalid_sort"
	ErrCodeConfirmationExpired = "confirmation_expired"
	ErrCodeConfirmationInvalid = "confirmation_invalid"
	ErrCodeMethodNotAllowed    = "method_not_allowed"
)

// failFromErr translates a service-layer error into the matching HTTP
// response. Unmapped errors become opaque 500s so internal details never
// leak to clients.
func failFromErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrMovieNotFound),
		errors.Is(err, services.ErrReviewNotFound),
		errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrReactionNotFound),
		errors.Is(err, services.ErrListEntryNotFound),
		errors.Is(err, services.ErrConfirmationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())

	case errors.Is(err, services.ErrAlreadyReviewed),
		errors.Is(err, services.ErrMovieExists):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())

	case errors.Is(err, services.ErrNotOwner):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())

	case errors.Is(err, pagination.ErrInvalidCursor):
		fail(c, http.StatusBadRequest, ErrCodeInvalidCursor, err.Error())

	case errors.Is(err, pagination.ErrUnsupportedSort):
		fail(c, http.StatusBadRequest, ErrCodeInvalidSort, err.Error())

	case errors.Is(err, services.ErrConfirmationExpired):
		fail(c, http.StatusGone, ErrCodeConfirmationExpired, err.Error())

	case errors.Is(err, services.ErrConfirmationInvalid):
		fail(c, http.StatusBadRequest, ErrCodeConfirmationInvalid, err.Error())

	case errors.Is(err, services.ErrInvalidRating),
		errors.Is(err, services.ErrInvalidPolarity),
		errors.Is(err, services.ErrInvalidListKind),
		errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrMessageTooLong):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())

	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}
