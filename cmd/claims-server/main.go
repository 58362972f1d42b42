package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jay270804/medical-claim-processing-server/internal/config"
	"github.com/jay270804/medical-claim-processing-server/internal/domain/claims"
	"github.com/jay270804/medical-claim-processing-server/internal/domain/documents"
	"github.com/jay270804/medical-claim-processing-server/internal/domain/identity"
	"github.com/jay270804/medical-claim-processing-server/internal/extraction"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/auth"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/blobstore"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/db"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/events"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/metrics"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "claims-server",
		Short: "Medical claim intake API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(extractCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the claims API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// deps are the collaborators the HTTP server is assembled from.
type deps struct {
	cfg       *config.Config
	logger    zerolog.Logger
	metrics   *metrics.Registry
	blobs     blobstore.Store
	extractor extraction.Extractor
	claimRepo claims.Repository
	userRepo  identity.UserRepository
	publisher events.Publisher
	dbHealth  echo.HandlerFunc
}

func (d deps) jwtConfig() auth.JWTConfig {
	return auth.JWTConfig{
		SigningKey: d.cfg.JWTSigningKey(),
		Issuer:     d.cfg.JWTIssuer,
		TTL:        d.cfg.JWTTTL,
	}
}

// newServer builds the echo instance with middleware and every route.
func newServer(d deps) *echo.Echo {
	cfg := d.cfg

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(d.logger)

	// Global middleware
	e.Use(middleware.Recovery(d.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(d.logger))
	e.Use(middleware.SecurityHeaders(cfg.TLSEnabled))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit, cfg.UploadLimit))
	if cfg.RequestTimeout > 0 {
		e.Use(middleware.RequestTimeout(cfg.RequestTimeout, "/api/v1/documents"))
	}

	// Services
	presigner := blobstore.NewPresigner(cfg.PresignSigningKey(), cfg.PublicBaseURL+"/files")
	jwtCfg := d.jwtConfig()

	claimSvc := claims.NewService(d.claimRepo, d.publisher, d.metrics, d.logger)
	docSvc := documents.NewService(d.blobs, presigner, d.extractor, claimSvc, documents.Config{
		Threshold:  cfg.ConfidenceThreshold,
		PresignTTL: cfg.PresignTTL,
	}, d.metrics, d.logger)
	identitySvc := identity.NewService(d.userRepo, auth.NewTokenIssuer(jwtCfg), d.logger)

	// Operational routes
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	if d.dbHealth != nil {
		e.GET("/health/db", d.dbHealth)
	}
	if cfg.MetricsEnabled && d.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.metrics.Handler()))
	}
	blobstore.NewHandler(d.blobs, presigner).RegisterRoutes(e.Group(""))

	// API
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	apiV1 := e.Group("/api/v1")
	public := apiV1.Group("", middleware.RateLimit(rateLimitCfg))
	identity.NewHandler(identitySvc).RegisterRoutes(public)

	protected := apiV1.Group("", auth.JWTMiddleware(jwtCfg), middleware.RateLimit(rateLimitCfg))
	claims.NewHandler(claimSvc).RegisterRoutes(protected)
	documents.NewHandler(docSvc).RegisterRoutes(protected)

	return e
}

func openBlobStore(cfg *config.Config) (blobstore.Store, func() error, error) {
	if cfg.BlobBackend == "pebble" {
		s, err := blobstore.NewPebbleStore(cfg.BlobDir)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return blobstore.NewInMemoryStore(), func() error { return nil }, nil
}

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.IsDev() {
		logger.Warn().Msg("running in development mode; built-in signing keys are used when secrets are unset")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	reg := metrics.NewRegistry()

	blobs, closeBlobs, err := openBlobStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open blob store")
	}
	defer func() {
		if err := closeBlobs(); err != nil {
			logger.Error().Err(err).Msg("close blob store")
		}
	}()

	extractor, err := extraction.NewClient(extractionConfig(cfg), reg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create extraction client")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.KafkaEnabled() {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaClaimsTopic)
		defer kp.Close()
		publisher = kp
		logger.Info().Str("topic", cfg.KafkaClaimsTopic).Msg("publishing claim events")
	}

	e := newServer(deps{
		cfg:       cfg,
		logger:    logger,
		metrics:   reg,
		blobs:     blobs,
		extractor: extractor,
		claimRepo: claims.NewRepoPG(pool),
		userRepo:  identity.NewUserRepoPG(pool),
		publisher: publisher,
		dbHealth:  db.HealthHandler(pool),
	})

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("blob_backend", cfg.BlobBackend).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func extractionConfig(cfg *config.Config) extraction.Config {
	return extraction.Config{
		APIKey:            cfg.ExtractionAPIKey,
		BaseURL:           cfg.ExtractionBaseURL,
		Model:             cfg.ExtractionModel,
		Timeout:           cfg.ExtractionTimeout,
		RequestsPerSecond: cfg.ExtractionRPS,
		Burst:             cfg.ExtractionBurst,
	}
}
