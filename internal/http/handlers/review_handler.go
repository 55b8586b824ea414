// Review HTTP handlers.
//
// Endpoints:
//   - POST   /movies/{id}/reviews       (create, one per user per movie)
//   - GET    /movies/{id}/reviews       (feed, cursor-paginated, own review pinned)
//   - GET    /movies/{id}/reviews/me    (the caller's review, if any)
//   - PUT    /reviews/{id}              (edit own review)
//   - DELETE /reviews/{id}              (delete own review)
//   - PUT    /reviews/{id}/reactions    (toggle like/dislike)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cinelog/go-review-backend/internal/domain"
	"github.com/cinelog/go-review-backend/internal/http/middleware"
	"github.com/cinelog/go-review-backend/internal/repo"
	"github.com/cinelog/go-review-backend/internal/services"
	"github.com/cinelog/go-review-backend/internal/sysutil"
)

//
// DTOs
//

// ReviewRequest is the JSON payload for creating or editing a review.
// Rating must land on a half-point step between 0.5 and 10.
type ReviewRequest struct {
	Rating  float64 `json:"rating" binding:"required,halfstep"`
	Message string  `json:"message" binding:"required,max=1000"`
}

// ReactionRequest is the JSON payload for the like/dislike toggle. Active
// reports whether the caller currently has this reaction applied; the
// server inverts it.
type ReactionRequest struct {
	Polarity string `json:"polarity" binding:"required,oneof=like dislike"`
	Active   bool   `json:"active"`
}

// ReviewsPageResponse wraps one page of a movie's review feed.
type ReviewsPageResponse struct {
	Reviews    []services.AnnotatedReview `json:"reviews"`
	NextCursor string                     `json:"next_cursor,omitempty"`
}

//
// Handlers
//

// CreateReview submits the caller's review of a movie. A second review for
// the same movie is rejected with 409.
func (h *Handlers) CreateReview(c *gin.Context) {
	movieID, okID := pathID(c, "id")
	if !okID {
		return
	}
	uid, okUser := middleware.UserID(c)
	if !okUser {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "rating must be a half step in [0.5, 10] and message 1-1000 chars")
		return
	}

	r, err := h.reviewSvc.Create(c.Request.Context(), uid, movieID, req.Rating, strings.TrimSpace(req.Message))
	if err != nil {
		failFromErr(c, err)
		return
	}
	ok(c, http.StatusCreated, r)
}

// UpdateReview edits the caller's own review and reconciles the movie
// average with the new rating.
func (h *Handlers) UpdateReview(c *gin.Context) {
	reviewID, okID := pathID(c, "id")
	if !okID {
		return
	}
	uid, okUser := middleware.UserID(c)
	if !okUser {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "rating must be a half step in [0.5, 10] and message 1-1000 chars")
		return
	}

	r, err := h.reviewSvc.Update(c.Request.Context(), uid, reviewID, req.Rating, strings.TrimSpace(req.Message))
	if err != nil {
		failFromErr(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// DeleteReview removes the caller's own review, its comments and its share
// of the movie average.
func (h *Handlers) DeleteReview(c *gin.Context) {
	reviewID, okID := pathID(c, "id")
	if !okID {
		return
	}
	uid, okUser := middleware.UserID(c)
	if !okUser {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	if err := h.reviewSvc.Delete(c.Request.Context(), uid, reviewID); err != nil {
		failFromErr(c, err)
		return
	}
	noContent(c)
}

// ListReviews returns one page of a movie's reviews. When the caller is
// authenticated and no cursor is supplied, their own review leads the page.
func (h *Handlers) ListReviews(c *gin.Context) {
	movieID, okID := pathID(c, "id")
	if !okID {
		return
	}
	cur, okCur := queryCursor(c)
	if !okCur {
		return
	}

	opts := services.ListForMovieOptions{
		Filter: repo.ReviewFilter{
			MeLiked:     sysutil.IsTruthy(c.Query("me_liked")),
			MeDisliked:  sysutil.IsTruthy(c.Query("me_disliked")),
			MeCommented: sysutil.IsTruthy(c.Query("me_commented")),
		},
		Sort:   querySort(c),
		Cursor: cur,
		Limit:  queryLimit(c, 10, 100),
	}

	page, err := h.reviewSvc.ListForMovie(c.Request.Context(), movieID, viewerID(c), opts)
	if err != nil {
		failFromErr(c, err)
		return
	}
	ok(c, http.StatusOK, ReviewsPageResponse{
		Reviews:    page.Reviews,
		NextCursor: encodeCursor(page.NextCursor),
	})
}

// GetMyReview returns the caller's review of a movie, or 404.
func (h *Handlers) GetMyReview(c *gin.Context) {
	movieID, okID := pathID(c, "id")
	if !okID {
		return
	}
	uid, okUser := middleware.UserID(c)
	if !okUser {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	r, err := h.reviewSvc.GetForUser(c.Request.Context(), movieID, uid)
	if err != nil {
		failFromErr(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// ReactToReview toggles a like or dislike on a review and returns the
// resulting counters.
func (h *Handlers) ReactToReview(c *gin.Context) {
	h.react(c, domain.TargetReview)
}

// ReactToComment toggles a like or dislike on a comment and returns the
// resulting counters.
func (h *Handlers) ReactToComment(c *gin.Context) {
	h.react(c, domain.TargetComment)
}

func (h *Handlers) react(c *gin.Context, target domain.TargetType) {
	targetID, okID := pathID(c, "id")
	if !okID {
		return
	}
	uid, okUser := middleware.UserID(c)
	if !okUser {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	var req ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "polarity must be like or dislike")
		return
	}

	counters, err := h.reactSvc.Toggle(c.Request.Context(), uid, target, targetID, domain.Polarity(req.Polarity), req.Active)
	if err != nil {
		failFromErr(c, err)
		return
	}
	ok(c, http.StatusOK, counters)
}
