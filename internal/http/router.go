// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, compression,
// CORS, security headers, authentication, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/cinelog/go-review-backend/internal/auth"
	"github.com/cinelog/go-review-backend/internal/config"
	"github.com/cinelog/go-review-backend/internal/http/handlers"
	"github.com/cinelog/go-review-backend/internal/http/middleware"
	"github.com/cinelog/go-review-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting,
// CORS and security headers, health and metrics endpoints, and then mounts
// the versioned public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Structured logging
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip compression
//  8. Rate limiter (per user/IP)
//  9. CORS and security headers
//  10. Optional authentication (identity for annotated reads)
func RegisterRoutes(r *gin.Engine, db *gorm.DB, tm auth.TokenManager, sender services.CodeSender, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	handlers.RegisterValidators()

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	r.Use(limitBody(cfg.MaxBodyBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Compress JSON feeds
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, cfg.RateTTL, middleware.KeyByUserOrIP)
	r.Use(rl.Middleware())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled behind TLS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		HSTS:              cfg.Security.EnableHSTS,
		HSTSMaxAgeSeconds: cfg.Security.HSTSMaxAge,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← db
	movieSvc := &services.MovieService{DB: db}
	reviewSvc := &services.ReviewService{DB: db}
	commentSvc := &services.CommentService{DB: db}
	reactSvc := &services.ReactionService{DB: db}
	listSvc := &services.ListService{DB: db}
	confirmSvc := &services.ConfirmationService{DB: db, TTL: cfg.ConfirmationTTL, Sender: sender}
	h := handlers.New(movieSvc, reviewSvc, commentSvc, reactSvc, listSvc, confirmSvc)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.OptionalAuth(tm))
	{
		// Catalogue (reads are public, annotated when authenticated)
		api.GET("/movies", h.ListMovies)
		api.GET("/movies/latest", h.LatestMovies)
		api.GET("/movies/top-rated", h.TopRatedMovies)
		api.GET("/movies/most-reviewed", h.MostReviewedMovies)
		api.GET("/movies/:id", h.GetMovie)

		// Review and comment feeds
		api.GET("/movies/:id/reviews", h.ListReviews)
		api.GET("/reviews/:id/comments", h.ListComments)
	}

	authed := api.Group("", middleware.RequireAuth(tm))
	{
		// Reviews
		authed.POST("/movies/:id/reviews", h.CreateReview)
		authed.GET("/movies/:id/reviews/me", h.GetMyReview)
		authed.PUT("/reviews/:id", h.UpdateReview)
		authed.DELETE("/reviews/:id", h.DeleteReview)

		// Comments
		authed.POST("/reviews/:id/comments", h.CreateComment)
		authed.PUT("/comments/:id", h.UpdateComment)
		authed.DELETE("/comments/:id", h.DeleteComment)

		// Reactions
		authed.PUT("/reviews/:id/reactions", h.ReactToReview)
		authed.PUT("/comments/:id/reactions", h.ReactToComment)

		// Personal lists
		authed.PUT("/movies/:id/watched", h.AddToWatched)
		authed.DELETE("/movies/:id/watched", h.RemoveFromWatched)
		authed.PUT("/movies/:id/wished", h.AddToWished)
		authed.DELETE("/movies/:id/wished", h.RemoveFromWished)
		authed.GET("/users/me/watched", h.ListWatched)
		authed.GET("/users/me/wished", h.ListWished)

		// Confirmations
		authed.POST("/confirmations", h.CreateConfirmation)
		authed.POST("/confirmations/validate", h.ValidateConfirmation)
	}

	admin := authed.Group("", middleware.RequireRole(auth.RoleAdmin))
	{
		// Catalogue management
		admin.POST("/movies", h.CreateMovie)
		admin.PUT("/movies/:id", h.UpdateMovie)
		admin.DELETE("/movies/:id", h.DeleteMovie)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
