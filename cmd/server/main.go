// Command server runs the review platform HTTP API.
//
// Startup order: environment, configuration, logging, database, tracing,
// router, HTTP server. Shutdown drains in-flight requests, stops the
// confirmation sweeper and flushes traces.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cinelog/go-review-backend/internal/auth"
	"github.com/cinelog/go-review-backend/internal/config"
	httpapi "github.com/cinelog/go-review-backend/internal/http"
	"github.com/cinelog/go-review-backend/internal/observability"
	"github.com/cinelog/go-review-backend/internal/repo"
	"github.com/cinelog/go-review-backend/internal/services"
	"github.com/cinelog/go-review-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// logSender delivers confirmation codes to the log. Stands in for a mail or
// SMS provider in environments without one configured.
type logSender struct{}

func (logSender) SendCode(ctx context.Context, userID int64, code string) error {
	log.Info().Int64("user_id", userID).Msg("confirmation code issued")
	// The code itself only reaches the log at debug level.
	log.Debug().Int64("user_id", userID).Str("code", code).Msg("confirmation code")
	return nil
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}

	tm, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("setup token manager")
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, db, tm, logSender{}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	// Periodically drop expired confirmation sessions.
	sweeper := &services.ConfirmationService{DB: db, TTL: cfg.ConfirmationTTL}
	go func() {
		t := time.NewTicker(cfg.SweepInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n, err := sweeper.SweepExpired(ctx); err != nil {
					log.Warn().Err(err).Msg("confirmation sweep failed")
				} else if n > 0 {
					log.Debug().Int64("removed", n).Msg("swept expired confirmations")
				}
			}
		}
	}()

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
}
