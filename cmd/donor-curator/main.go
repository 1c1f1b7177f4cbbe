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

	"github.com/x-consortia/donor-curator/internal/config"
	"github.com/x-consortia/donor-curator/internal/domain/audit"
	"github.com/x-consortia/donor-curator/internal/domain/curation"
	"github.com/x-consortia/donor-curator/internal/domain/export"
	"github.com/x-consortia/donor-curator/internal/domain/valueset"
	"github.com/x-consortia/donor-curator/internal/platform/auth"
	"github.com/x-consortia/donor-curator/internal/platform/db"
	"github.com/x-consortia/donor-curator/internal/platform/middleware"
	"github.com/x-consortia/donor-curator/internal/platform/remote"
	"github.com/x-consortia/donor-curator/internal/upstream/entity"
	"github.com/x-consortia/donor-curator/internal/upstream/registry"
	"github.com/x-consortia/donor-curator/internal/upstream/search"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "donor-curator",
		Short: "Donor clinical metadata curation service",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(vocabCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the curation API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is not set; nothing to migrate")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, cfg.MigrationsDir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s).\n", count)
			return nil
		},
	}
	return cmd
}

func vocabCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vocab-pull",
		Short: "Download the controlled-vocabulary spreadsheet and verify it parses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
			client := remote.NewClient(logger, cfg.UpstreamTimeout())

			vs, err := valueset.Load(context.Background(), client, cfg.ValuesetURL, cfg.ValuesetPath)
			if err != nil {
				return err
			}
			fmt.Printf("Saved %s (vocabulary graph %s).\n", cfg.ValuesetPath, vs.GraphVersion())
			return nil
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	httpClient := remote.NewClient(logger, cfg.UpstreamTimeout())

	// Controlled vocabulary. A stale local copy is preferred over failing
	// to start when the vocabulary host is unreachable.
	vs, err := valueset.Load(ctx, httpClient, cfg.ValuesetURL, cfg.ValuesetPath)
	if err != nil {
		logger.Warn().Err(err).Msg("vocabulary download failed, trying local copy")
		vs, err = valueset.LoadFile(cfg.ValuesetPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load vocabulary")
		}
	}
	logger.Info().Str("graph_version", vs.GraphVersion()).Msg("vocabulary loaded")

	// Upstream clients
	entityClient := entity.NewClient(entity.Config{
		EndpointBase:        cfg.EntityEndpointBase,
		OverrideHeaderName:  cfg.OverrideHeaderName,
		OverrideHeaderValue: cfg.OverrideHeaderValue,
	}, httpClient, logger)
	searchClient := search.NewClient(search.Config{
		EndpointBase: cfg.SearchEndpointBase,
	}, httpClient, logger)
	registryClient := registry.NewClient(registry.Config{
		BaseURL: cfg.DataCiteURL,
	}, httpClient, logger)

	// Audit store is optional; without a database the service still
	// curates, it just keeps no history.
	var recorder curation.Recorder
	var auditHandler *audit.Handler
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		logger.Info().Msg("connected to database")

		auditSvc := audit.NewService(audit.NewRepoPG(pool), logger)
		recorder = auditSvc
		auditHandler = audit.NewHandler(auditSvc)
	} else {
		logger.Warn().Msg("DATABASE_URL not set, audit history disabled")
	}

	// Services
	curationSvc := curation.NewService(entityClient, vs, recorder, logger)
	exportSvc := export.NewService(curationSvc, searchClient, registryClient, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":        "ok",
			"graph_version": vs.GraphVersion(),
		})
	})

	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() && cfg.DevToken != "" {
		apiV1.Use(auth.DevMiddleware(cfg.DevToken))
	} else {
		apiV1.Use(auth.Middleware())
	}

	curation.NewHandler(curationSvc).RegisterRoutes(apiV1)
	export.NewHandler(exportSvc).RegisterRoutes(apiV1)
	if auditHandler != nil {
		auditHandler.RegisterRoutes(apiV1)
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
