// Comment HTTP handlers.
//
// Endpoints:
//   - POST   /reviews/{id}/comments   (create)
//   - GET    /reviews/{id}/comments   (feed, cursor-paginated)
//   - PUT    /comments/{id}           (edit own comment)
//   - DELETE /comments/{id}           (delete own comment)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cinelog/go-review-backend/internal/http/middleware"
	"github.com/cinelog/go-review-backend/internal/services"
)

// CommentRequest is the JSON payload for creating or editing a comment.
type CommentRequest struct {
	Message string `json:"message" binding:"required,max=1000"`
}

// CommentsPageResponse wraps one page of a review's comment feed.
type CommentsPageResponse struct {
	Comments   []services.AnnotatedComment `json:"comments"`
	NextCursor string                      `json:"next_cursor,omitempty"`
}

// CreateComment adds the caller's comment under a review.
func (h *Handlers) CreateComment(c *gin.Context) {
	reviewID, okID := pathID(c, "id")
	if !okID {
		return
	}
	uid, okUser := middleware.UserID(c)
	if !okUser {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required (1-1000 chars)")
		return
	}

	cm, err := h.commentSvc.Create(c.Request.Context(), uid, reviewID, strings.TrimSpace(req.Message))
	if err != nil {
		failFromErr(c, err)
		return
	}
	ok(c, http.StatusCreated, cm)
}

// UpdateComment edits the caller's own comment.
func (h *Handlers) UpdateComment(c *gin.Context) {
	commentID, okID := pathID(c, "id")
	if !okID {
		return
	}
	uid, okUser := middleware.UserID(c)
	if !okUser {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required (1-1000 chars)")
		return
	}

	cm, err := h.commentSvc.Update(c.Request.Context(), uid, commentID, strings.TrimSpace(req.Message))
	if err != nil {
		failFromErr(c, err)
		return
	}
	ok(c, http.StatusOK, cm)
}

// DeleteComment removes the caller's own comment and decrements the parent
// review's comment count.
func (h *Handlers) DeleteComment(c *gin.Context) {
	commentID, okID := pathID(c, "id")
	if !okID {
		return
	}
	uid, okUser := middleware.UserID(c)
	if !okUser {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	if err := h.commentSvc.Delete(c.Request.Context(), uid, commentID); err != nil {
		failFromErr(c, err)
		return
	}
	noContent(c)
}

// ListComments returns one page of a review's comments.
func (h *Handlers) ListComments(c *gin.Context) {
	reviewID, okID := pathID(c, "id")
	if !okID {
		return
	}
	cur, okCur := queryCursor(c)
	if !okCur {
		return
	}

	opts := services.ListForReviewOptions{
		Sort:   querySort(c),
		Cursor: cur,
		Limit:  queryLimit(c, 10, 100),
	}

	page, err := h.commentSvc.ListForReview(c.Request.Context(), reviewID, viewerID(c), opts)
	if err != nil {
		failFromErr(c, err)
		return
	}
	ok(c, http.StatusOK, CommentsPageResponse{
		Comments:   page.Comments,
		NextCursor: encodeCursor(page.NextCursor),
	})
}
