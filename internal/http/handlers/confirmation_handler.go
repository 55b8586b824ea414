// Confirmation HTTP handlers.
//
// Endpoints:
//   - POST /confirmations            (open a code session for the caller)
//   - POST /confirmations/validate   (check a code against a session)
//
// Codes are never returned over the API; they reach the user out of band
// via the configured sender. Only the session ID and its validity window
// are exposed.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cinelog/go-review-backend/internal/http/middleware"
)

// ValidateConfirmationRequest is the JSON payload for checking a code.
type ValidateConfirmationRequest struct {
	SessionID int64  `json:"session_id" binding:"required,gt=0"`
	Code      string `json:"code" binding:"required,len=6"`
}

// CreateConfirmation opens a confirmation session for the caller and sends
// the code out of band.
func (h *Handlers) CreateConfirmation(c *gin.Context) {
	uid, okUser := middleware.UserID(c)
	if !okUser {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	sess, err := h.confirmSvc.CreateSession(c.Request.Context(), uid)
	if err != nil {
		failFromErr(c, err)
		return
	}
	ok(c, http.StatusCreated, sess)
}

// ValidateConfirmation checks a submitted code against an open session.
// A correct code consumes the session.
func (h *Handlers) ValidateConfirmation(c *gin.Context) {
	var req ValidateConfirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session_id and 6-char code required")
		return
	}
	userID, err := h.confirmSvc.Validate(c.Request.Context(), req.Code, req.SessionID)
	if err != nil {
		failFromErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"user_id": userID, "confirmed": true})
}
