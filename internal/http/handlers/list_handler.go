// Personal movie list HTTP handlers.
//
// This file exposes REST endpoints for the watched and wished lists:
//   - PUT    /movies/{id}/watched   (add)
//   - DELETE /movies/{id}/watched   (remove)
//   - PUT    /movies/{id}/wished    (add)
//   - DELETE /movies/{id}/wished    (remove)
//   - GET    /users/me/watched      (list, cursor-paginated)
//   - GET    /users/me/wished       (list, cursor-paginated)
//
// All endpoints require authentication; the list owner is always the
// requesting user.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cinelog/go-review-backend/internal/domain"
)

// AddToWatched puts a movie on the caller's watched list.
func (h *Handlers) AddToWatched(c *gin.Context) { h.mutateList(c, domain.ListWatched, true) }

// RemoveFromWatched takes a movie off the caller's watched list.
func (h *Handlers) RemoveFromWatched(c *gin.Context) { h.mutateList(c, domain.ListWatched, false) }

// AddToWished puts a movie on the caller's wished list.
func (h *Handlers) AddToWished(c *gin.Context) { h.mutateList(c, domain.ListWished, true) }

// RemoveFromWished takes a movie off the caller's wished list.
func (h *Handlers) RemoveFromWished(c *gin.Context) { h.mutateList(c, domain.ListWished, false) }

func (h *Handlers) mutateList(c *gin.Context, kind domain.ListKind, add bool) {
	movieID, okID := pathID(c, "id")
	if !okID {
		return
	}
	uid := viewerID(c)

	var err error
	if add {
		err = h.listSvc.Add(c.Request.Context(), uid, movieID, kind)
	} else {
		err = h.listSvc.Remove(c.Request.Context(), uid, movieID, kind)
	}
	if err != nil {
		failFromErr(c, err)
		return
	}
	noContent(c)
}

// ListWatched returns one page of the caller's watched list.
func (h *Handlers) ListWatched(c *gin.Context) { h.listMovies(c, domain.ListWatched) }

// ListWished returns one page of the caller's wished list.
func (h *Handlers) ListWished(c *gin.Context) { h.listMovies(c, domain.ListWished) }

func (h *Handlers) listMovies(c *gin.Context, kind domain.ListKind) {
	cur, okCur := queryCursor(c)
	if !okCur {
		return
	}
	limit := queryLimit(c, 20, 100)

	page, err := h.listSvc.Movies(c.Request.Context(), viewerID(c), kind, cur, limit)
	if err != nil {
		failFromErr(c, err)
		return
	}
	ok(c, http.StatusOK, MoviesPageResponse{
		Movies:     page.Movies,
		NextCursor: encodeCursor(page.NextCursor),
	})
}
