package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/casedesk/casedesk/internal/config"
	"github.com/casedesk/casedesk/internal/domain/account"
	"github.com/casedesk/casedesk/internal/domain/documents"
	"github.com/casedesk/casedesk/internal/domain/form"
	"github.com/casedesk/casedesk/internal/domain/notes"
	"github.com/casedesk/casedesk/internal/domain/profile"
	"github.com/casedesk/casedesk/internal/domain/review"
	"github.com/casedesk/casedesk/internal/platform/apperr"
	"github.com/casedesk/casedesk/internal/platform/auth"
	"github.com/casedesk/casedesk/internal/platform/blobstore"
	"github.com/casedesk/casedesk/internal/platform/cache"
	"github.com/casedesk/casedesk/internal/platform/confirm"
	"github.com/casedesk/casedesk/internal/platform/db"
	"github.com/casedesk/casedesk/internal/platform/metrics"
	"github.com/casedesk/casedesk/internal/platform/middleware"
	"github.com/casedesk/casedesk/internal/platform/notification"
)

const shutdownTimeout = 10 * time.Second

// backends holds the infrastructure that has an in-process fallback.
type backends struct {
	cache    cache.Cache
	locker   cache.Locker
	confirms confirm.Store
	blobs    blobstore.Store
	sender   notification.EmailSender
	health   []db.Dependency
	close    func()
}

func memoryBackends(logger zerolog.Logger) *backends {
	return &backends{
		cache:    cache.NewMemoryCache(),
		locker:   cache.NewMemoryLocker(),
		confirms: confirm.NewMemoryStore(),
		blobs:    blobstore.NewMemoryStore(),
		sender:   notification.NewLogSender(logger),
		close:    func() {},
	}
}

// openBackends connects Redis, S3 and SES when configured and falls back to
// in-process implementations otherwise.
func openBackends(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*backends, error) {
	b := memoryBackends(logger)

	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		b.cache = cache.NewRedisCache(client, "casedesk:cache")
		b.locker = cache.NewRedisLocker(client, "casedesk:lease")
		b.confirms = confirm.NewRedisStore(client, "casedesk:confirm")
		b.health = append(b.health, db.Dependency{
			Name: "redis",
			Ping: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
		b.close = func() { _ = client.Close() }
		logger.Info().Msg("connected to redis")
	} else {
		logger.Warn().Msg("REDIS_URL not set, using in-process cache and leases")
	}

	if cfg.S3Enabled() || cfg.SESEnabled() {
		awsCfg, err := blobstore.LoadAWSConfig(ctx, cfg.AWSRegion, cfg.S3AccessKey, cfg.S3SecretKey)
		if err != nil {
			b.close()
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		if cfg.S3Enabled() {
			b.blobs = blobstore.NewS3Store(blobstore.NewS3Client(awsCfg, cfg.S3Endpoint), cfg.S3Bucket)
			logger.Info().Str("bucket", cfg.S3Bucket).Msg("case documents stored in s3")
		}
		if cfg.SESEnabled() {
			b.sender = notification.NewSESSenderFromConfig(awsCfg, cfg.SESFromEmail)
			logger.Info().Str("from", cfg.SESFromEmail).Msg("submission e-mail delivered through ses")
		}
	}

	return b, nil
}

func authMiddleware(cfg *config.Config) echo.MiddlewareFunc {
	jwtCfg := auth.JWTConfig{
		Issuer:   cfg.AuthIssuer,
		Audience: cfg.AuthAudience,
		JWKSURL:  cfg.AuthJWKSURL,
		Skipper:  auth.AuthSkipper,
	}
	if cfg.AuthSigningKey != "" {
		jwtCfg.SigningKey = []byte(cfg.AuthSigningKey)
	}
	if cfg.IsDev() {
		return auth.DevAuthMiddleware(jwtCfg)
	}
	return auth.JWTMiddleware(jwtCfg)
}

// server is the assembled HTTP surface plus the services that need draining
// on shutdown.
type server struct {
	echo     *echo.Echo
	forms    *form.Service
	profiles *profile.Service
}

func newServer(cfg *config.Config, logger zerolog.Logger, pool *pgxpool.Pool, b *backends) *server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Request-ID", "If-Match"},
		ExposeHeaders: []string{"ETag", "X-Request-ID"},
	}))
	e.Use(middleware.SecurityHeaders(middleware.HeaderConfig{
		HSTS:          !cfg.IsDev(),
		DownloadPaths: []string{"/api/v1" + documents.ContentPath},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit, cfg.UploadLimit))
	e.Use(authMiddleware(cfg))
	e.Use(middleware.Audit(logger))

	// Health and metrics
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool, logger, b.health...))
	e.GET("/metrics", metrics.Handler())

	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))
	apiV1.Use(middleware.RequestTimeout(30 * time.Second))

	// Confirmations
	confirmSvc := confirm.NewService(b.confirms, cfg.ConfirmTTL, logger)
	confirm.NewHandler(confirmSvc).RegisterRoutes(apiV1)

	// Accounts
	accountSvc := account.NewService(account.NewRepoPG(pool))
	account.NewHandler(accountSvc).RegisterRoutes(apiV1)

	notifier := notification.NewNotifier(b.sender, notification.NewTemplateEngine(), logger)

	// Profiles
	profileSvc := profile.NewService(profile.NewRepoPG(pool), accountSvc, b.cache, cfg.CacheTTL, logger)
	profileSvc.RegisterConfirmations(confirmSvc)
	profileSvc.SetNotifier(notifier, cfg.StaffNotifyEmail)
	profile.NewHandler(profileSvc).RegisterRoutes(apiV1)

	// Intake form
	formSvc := form.NewService(form.NewRepoPG(pool), profileSvc, accountSvc, b.locker, b.cache, cfg.CacheTTL, logger)
	formSvc.SetNotifier(notifier, cfg.StaffNotifyEmail)
	profileSvc.SetProgressSource(formSvc)
	form.NewHandler(formSvc).RegisterRoutes(apiV1)

	// Annotations and comments
	notesSvc := notes.NewService(notes.NewRepoPG(pool), profileSvc, accountSvc, logger)
	notesSvc.RegisterConfirmations(confirmSvc)
	notes.NewHandler(notesSvc).RegisterRoutes(apiV1)

	// Review screen and staff panel
	review.NewHandler(
		review.NewService(profileSvc, formSvc),
		review.NewPanel(profileSvc, accountSvc, formSvc, notesSvc),
	).RegisterRoutes(apiV1)

	// Case documents
	docSvc := documents.NewService(documents.NewRepoPG(pool), profileSvc, b.blobs, logger)
	documents.NewHandler(docSvc).RegisterRoutes(apiV1)

	return &server{echo: e, forms: formSvc, profiles: profileSvc}
}

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env, os.Stdout)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect backends")
	}
	defer b.close()

	srv := newServer(cfg, logger, pool, b)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := srv.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.echo.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	// Pending e-mails finish before the process exits.
	srv.forms.Wait()
	srv.profiles.Wait()
	logger.Info().Msg("server stopped")
	return nil
}
