// Movie HTTP handlers.
//
// This file exposes REST endpoints for catalogue resources:
//   - POST   /movies                  (create, admin)
//   - GET    /movies                  (list, cursor-paginated)
//   - GET    /movies/latest           (shelf)
//   - GET    /movies/top-rated        (shelf)
//   - GET    /movies/most-reviewed    (shelf)
//   - GET    /movies/{id}             (detail)
//   - PUT    /movies/{id}             (update, admin)
//   - DELETE /movies/{id}             (delete, admin)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cinelog/go-review-backend/internal/domain"
	"github.com/cinelog/go-review-backend/internal/http/middleware"
	"github.com/cinelog/go-review-backend/internal/pagination"
	"github.com/cinelog/go-review-backend/internal/repo"
	"github.com/cinelog/go-review-backend/internal/services"
	"github.com/cinelog/go-review-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// MovieService defines catalogue operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type MovieService interface {
	// Create adds a movie with its genre and country tags and zeroed
	// aggregates.
	Create(ctx context.Context, m *domain.Movie, genres, countries []string) (*domain.Movie, error)
	// Update rewrites a movie's descriptive fields and tag sets, never its
	// aggregates.
	Update(ctx context.Context, m *domain.Movie, genres, countries []string) (*domain.Movie, error)
	// Delete removes a movie and cascades to its reviews and comments.
	Delete(ctx context.Context, id int64) error
	// Get returns a movie annotated with the viewer's reviewed flag.
	Get(ctx context.Context, id, userID int64) (*services.AnnotatedMovie, error)
	// List returns one keyset page of the catalogue.
	List(ctx context.Context, userID int64, opts services.ListOptions) (*services.MoviePage, error)
	// Latest, TopRated and MostReviewed return fixed-size discovery shelves.
	Latest(ctx context.Context, userID int64, limit int) ([]services.AnnotatedMovie, error)
	TopRated(ctx context.Context, userID int64, limit int) ([]services.AnnotatedMovie, error)
	MostReviewed(ctx context.Context, userID int64, limit int) ([]services.AnnotatedMovie, error)
}

// ReviewService defines review lifecycle and feed operations.
type ReviewService interface {
	Create(ctx context.Context, userID, movieID int64, rating float64, message string) (*domain.Review, error)
	Update(ctx context.Context, userID, reviewID int64, rating float64, message string) (*domain.Review, error)
	Delete(ctx context.Context, userID, reviewID int64) error
	ListForMovie(ctx context.Context, movieID, userID int64, opts services.ListForMovieOptions) (*services.ReviewPage, error)
	GetForUser(ctx context.Context, movieID, userID int64) (*services.AnnotatedReview, error)
}

// CommentService defines comment lifecycle and feed operations.
type CommentService interface {
	Create(ctx context.Context, userID, reviewID int64, message string) (*domain.Comment, error)
	Update(ctx context.Context, userID, commentID int64, message string) (*domain.Comment, error)
	Delete(ctx context.Context, userID, commentID int64) error
	ListForReview(ctx context.Context, reviewID, userID int64, opts services.ListForReviewOptions) (*services.CommentPage, error)
}

// ReactionService defines the like/dislike toggle.
type ReactionService interface {
	Toggle(ctx context.Context, userID int64, targetType domain.TargetType, targetID int64, polarity domain.Polarity, active bool) (services.Counters, error)
}

// WatchlistService defines the personal watched and wished movie lists.
type WatchlistService interface {
	Add(ctx context.Context, userID, movieID int64, kind domain.ListKind) error
	Remove(ctx context.Context, userID, movieID int64, kind domain.ListKind) error
	Movies(ctx context.Context, userID int64, kind domain.ListKind, cur *pagination.Cursor, limit int) (*services.MoviePage, error)
}

// ConfirmationService defines short-lived confirmation code sessions.
type ConfirmationService interface {
	CreateSession(ctx context.Context, userID int64) (*services.Session, error)
	Validate(ctx context.Context, code string, sessionID int64) (int64, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for movies, reviews, comments, reactions
// and confirmations. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	movieSvc   MovieService
	reviewSvc  ReviewService
	commentSvc CommentService
	reactSvc   ReactionService
	listSvc    WatchlistService
	confirmSvc ConfirmationService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(movieSvc MovieService, reviewSvc ReviewService, commentSvc CommentService, reactSvc ReactionService, listSvc WatchlistService, confirmSvc ConfirmationService) *Handlers {
	return &Handlers{
		movieSvc:   movieSvc,
		reviewSvc:  reviewSvc,
		commentSvc: commentSvc,
		reactSvc:   reactSvc,
		listSvc:    listSvc,
		confirmSvc: confirmSvc,
	}
}

//
// Helpers
//

// viewerID returns the authenticated user ID or 0 for anonymous requests.
func viewerID(c *gin.Context) int64 {
	id, _ := middleware.UserID(c)
	return id
}

// pathID parses a positive int64 path parameter, failing the request on
// malformed input.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// queryLimit parses and bounds the limit query param.
func queryLimit(c *gin.Context, def, max int) int {
	limit := utils.AtoiDefault(c.Query("limit"), def)
	if limit < 1 {
		limit = 1
	}
	if limit > max {
		limit = max
	}
	return limit
}

// querySort builds a SortSpec from the sort and order query params. An empty
// sort field means recency ordering (id only).
func querySort(c *gin.Context) pagination.SortSpec {
	return pagination.SortSpec{
		Field: strings.TrimSpace(c.Query("sort")),
		Order: pagination.ParseOrder(c.Query("order")),
	}
}

// queryCursor decodes the cursor query param, failing the request when the
// token is malformed.
func queryCursor(c *gin.Context) (*pagination.Cursor, bool) {
	cur, err := pagination.Decode(c.Query("cursor"))
	if err != nil {
		failFromErr(c, err)
		return nil, false
	}
	return cur, true
}

// encodeCursor renders a cursor as an opaque token, or "" at end of feed.
func encodeCursor(cur *pagination.Cursor) string {
	if cur == nil {
		return ""
	}
	return cur.Encode()
}

//
// DTOs
//

// MovieRequest is the JSON payload for creating or updating a movie.
type MovieRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"max=4000"`
	ReleaseYear int    `json:"release_year" binding:"required,gte=1888,lte=2100"`
	Duration    int    `json:"duration" binding:"required,gte=1,lte=1000"`
	AgeLimit    int    `json:"age_limit" binding:"gte=0,lte=21"`
	PosterURL   string `json:"poster_url" binding:"omitempty,max=512"`

	Genres    []string `json:"genres" binding:"omitempty,max=10,dive,min=1,max=64"`
	Countries []string `json:"countries" binding:"omitempty,max=10,dive,min=1,max=64"`
}

// MoviesPageResponse wraps one page of the catalogue feed.
type MoviesPageResponse struct {
	Movies     []services.AnnotatedMovie `json:"movies"`
	NextCursor string                    `json:"next_cursor,omitempty"`
}

//
// Handlers
//

// CreateMovie adds a movie to the catalogue. Admin only.
func (h *Handlers) CreateMovie(c *gin.Context) {
	var req MovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid movie payload")
		return
	}

	m, err := h.movieSvc.Create(c.Request.Context(), &domain.Movie{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		ReleaseYear: req.ReleaseYear,
		Duration:    req.Duration,
		AgeLimit:    req.AgeLimit,
		PosterURL:   req.PosterURL,
	}, req.Genres, req.Countries)
	if err != nil {
		failFromErr(c, err)
		return
	}
	ok(c, http.StatusCreated, m)
}

// UpdateMovie rewrites a movie's descriptive fields. Admin only.
func (h *Handlers) UpdateMovie(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	var req MovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid movie payload")
		return
	}

	m, err := h.movieSvc.Update(c.Request.Context(), &domain.Movie{
		ID:          id,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		ReleaseYear: req.ReleaseYear,
		Duration:    req.Duration,
		AgeLimit:    req.AgeLimit,
		PosterURL:   req.PosterURL,
	}, req.Genres, req.Countries)
	if err != nil {
		failFromErr(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// DeleteMovie removes a movie and everything under it. Admin only.
func (h *Handlers) DeleteMovie(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	if err := h.movieSvc.Delete(c.Request.Context(), id); err != nil {
		failFromErr(c, err)
		return
	}
	noContent(c)
}

// GetMovie returns a single movie annotated for the viewer.
func (h *Handlers) GetMovie(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	m, err := h.movieSvc.Get(c.Request.Context(), id, viewerID(c))
	if err != nil {
		failFromErr(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// ListMovies returns one page of the catalogue feed. Supports title,
// min_rating and year filters, rating/releaseYear sorting and an opaque
// cursor for continuation.
func (h *Handlers) ListMovies(c *gin.Context) {
	cur, okCur := queryCursor(c)
	if !okCur {
		return
	}

	opts := services.ListOptions{
		Filter: repo.MovieFilter{
			Title:     strings.TrimSpace(c.Query("title")),
			MinRating: utils.FloatDefault(c.Query("min_rating"), 0),
			Year:      utils.AtoiDefault(c.Query("year"), 0),
		},
		Sort:   querySort(c),
		Cursor: cur,
		Limit:  queryLimit(c, 20, 100),
	}

	page, err := h.movieSvc.List(c.Request.Context(), viewerID(c), opts)
	if err != nil {
		failFromErr(c, err)
		return
	}
	ok(c, http.StatusOK, MoviesPageResponse{
		Movies:     page.Movies,
		NextCursor: encodeCursor(page.NextCursor),
	})
}

// LatestMovies returns the most recently added titles.
func (h *Handlers) LatestMovies(c *gin.Context) {
	h.shelf(c, h.movieSvc.Latest)
}

// TopRatedMovies returns the highest-rated titles.
func (h *Handlers) TopRatedMovies(c *gin.Context) {
	h.shelf(c, h.movieSvc.TopRated)
}

// MostReviewedMovies returns the titles with the most reviews.
func (h *Handlers) MostReviewedMovies(c *gin.Context) {
	h.shelf(c, h.movieSvc.MostReviewed)
}

func (h *Handlers) shelf(c *gin.Context, fn func(context.Context, int64, int) ([]services.AnnotatedMovie, error)) {
	items, err := fn(c.Request.Context(), viewerID(c), queryLimit(c, 10, 50))
	if err != nil {
		failFromErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"movies": items})
}
