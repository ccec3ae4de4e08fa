package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ercase/ercase/internal/config"
	"github.com/ercase/ercase/internal/domain/cases"
	"github.com/ercase/ercase/internal/domain/documents"
	"github.com/ercase/ercase/internal/domain/drafts"
	"github.com/ercase/ercase/internal/platform/ai"
	"github.com/ercase/ercase/internal/platform/auth"
	"github.com/ercase/ercase/internal/platform/db"
	"github.com/ercase/ercase/internal/platform/kv"
	"github.com/ercase/ercase/internal/platform/metrics"
	"github.com/ercase/ercase/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ercase-server",
		Short: "ER case charting API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sweepCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the case charting API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Rollback last migration (not supported)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("WARNING: migrate down is destructive and not supported by the built-in runner.")
			fmt.Println("Restore from a database backup instead.")
			return nil
		},
	})

	return cmd
}

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired committed drafts across all devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			maxAge, _ := cmd.Flags().GetInt("max-age-days")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if maxAge <= 0 {
				maxAge = cfg.DraftMaxAgeDays
			}

			logger := newLogger()

			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			defer rdb.Close()

			store := kv.NewRedisStore(rdb)
			ctx := context.Background()
			if err := store.Ping(ctx); err != nil {
				return fmt.Errorf("redis unreachable: %w", err)
			}

			keys, err := store.ScanKeys(ctx, drafts.SweepPattern)
			if err != nil {
				return fmt.Errorf("scan draft keys: %w", err)
			}

			svc := drafts.NewService(drafts.NewRepoKV(store), nil, metrics.NewCollector(), logger)
			total := 0
			for _, key := range keys {
				deviceID := drafts.DeviceFromKey(key)
				removed := svc.CleanupOldDrafts(ctx, deviceID, maxAge)
				if removed > 0 {
					fmt.Printf("device %s: removed %d expired draft(s)\n", deviceID, removed)
				}
				total += removed
			}
			fmt.Printf("Swept %d device(s), removed %d expired draft(s).\n", len(keys), total)
			return nil
		},
	}
	cmd.Flags().Int("max-age-days", 0, "Remove committed drafts older than this (default from DRAFT_MAX_AGE_DAYS)")
	return cmd
}

func newLogger() zerolog.Logger {
	if os.Getenv("ENV") == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("configuration rejected")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	// Drafts and the case cache ride on Redis. A dev box without one
	// still runs, with state held in process memory instead.
	var store kv.Store
	var cachePinger db.Pinger
	redisStore := kv.NewRedisStore(rdb)
	pingCtx, cancelPing := context.WithTimeout(ctx, 3*time.Second)
	pingErr := redisStore.Ping(pingCtx)
	cancelPing()
	switch {
	case pingErr == nil:
		store, cachePinger = redisStore, redisStore
		logger.Info().Str("addr", cfg.RedisAddr).Msg("connected to redis")
	case cfg.IsProduction():
		logger.Fatal().Err(pingErr).Msg("redis unreachable")
	default:
		mem := kv.NewMemStore()
		store, cachePinger = mem, mem
		logger.Warn().Err(pingErr).Msg("redis unreachable, drafts held in process memory")
	}

	collector := metrics.NewCollector()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.DeviceID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Metrics(collector))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.SanitizeWithLogger(logger))
	e.Use(middleware.BodyLimitWithUploads("1M", "32M"))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Device-ID"},
	}))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{Secret: []byte(cfg.JWTSecret)}))
	}

	e.Use(middleware.Audit(logger))

	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))
	apiV1.Use(middleware.RequireDeviceID())

	caseRepo := cases.NewRepoPG(pool)
	caseCache := cases.NewCache(store, collector, logger)

	var suggester cases.DifferentialSuggester
	if cfg.AIBaseURL != "" {
		suggester = ai.NewClient(cfg.AIBaseURL, cfg.AIAPIKey, time.Duration(cfg.AITimeoutSeconds)*time.Second, collector, logger)
		logger.Info().Str("base_url", cfg.AIBaseURL).Msg("diagnosis suggestions enabled")
	}

	caseSvc := cases.NewService(caseRepo, caseCache, suggester, collector, logger)
	cases.NewHandler(caseSvc).RegisterRoutes(apiV1)

	draftSvc := drafts.NewService(drafts.NewRepoKV(store), caseSvc, collector, logger)
	drafts.NewHandler(draftSvc).RegisterRoutes(apiV1)

	docStore := documents.NewMemStore()
	documents.NewHandler(docStore, logger).RegisterRoutes(apiV1)

	e.GET("/health", db.HealthHandler(pool, cachePinger))
	e.GET("/metrics", echo.WrapHandler(collector.Handler()))

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
