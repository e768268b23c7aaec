package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"eventsapi/audit"
	"eventsapi/config"
	"eventsapi/db"
	"eventsapi/export"
	"eventsapi/middlewares"
	"eventsapi/models"
	"eventsapi/routes"
	"eventsapi/utils"
)

var (
	serverPort  string
	autoMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server and handle graceful shutdown on SIGINT/SIGTERM.

Postgres is required. Redis (REDIS_ADDR) enables the daily quota and Mongo
(MONGO_URI) stores the audit trail; without Mongo audit entries go to the log.

Examples:
  eventsapi serve
  eventsapi serve --port 9090 --migrate
  eventsapi serve --log-level debug --log-format console`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverPort, "port", "", "listen port (default: PORT or 8080)")
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply pending migrations before serving")
}

func runServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverPort != "" {
		cfg.Port = serverPort
	}

	logger := config.NewLogger(cfg.LoggingConfig)
	logger.Info().Str("env", cfg.Env).Msg("starting eventsapi")

	if autoMigrate {
		if err := db.MigrateUp(cfg.DatabaseURL); err != nil {
			return err
		}
		logger.Info().Msg("migrations applied")
	}

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable; quota checks will pass through")
		}
	}

	recorder, closeAudit := auditRecorder(ctx, cfg, logger)
	defer closeAudit()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(middlewares.RequestID(logger), middlewares.RequestLogging(), gin.Recovery())

	routes.RegisterRoutes(engine, routes.Deps{
		Users:         models.NewSQLUserRepository(sqlDB),
		Venues:        models.NewSQLVenueRepository(sqlDB),
		Events:        models.NewSQLEventRepository(sqlDB),
		Registrations: models.NewSQLRegistrationRepository(sqlDB),
		Tokens:        utils.NewTokenManager(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL),
		Audit:         recorder,
		Exporter:      export.NewXLSX(),
		Redis:         rdb,
		Pinger:        sqlDB,
		Metrics:       middlewares.NewMetrics(),
		PageSize:      cfg.PageSize,
		MaxPageSize:   cfg.MaxPageSize,
		Limits: routes.Limits{
			GlobalRPS:   cfg.RateGlobalRPS,
			GlobalBurst: cfg.RateGlobalBurst,
			AuthRPS:     cfg.RateAuthRPS,
			AuthBurst:   cfg.RateAuthBurst,
			UserRPS:     cfg.RateUserRPS,
			UserBurst:   cfg.RateUserBurst,
			DailyQuota:  cfg.DailyQuota,
		},
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-stop:
	}
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}
	return nil
}

// auditRecorder picks the Mongo sink when MONGO_URI is set and reachable.
func auditRecorder(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (audit.Recorder, func()) {
	fallback := audit.NewLogRecorder(logger)
	if cfg.MongoURI == "" {
		return fallback, func() {}
	}
	client, rec, err := audit.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		logger.Warn().Err(err).Msg("mongo unavailable; audit entries go to the log")
		return fallback, func() {}
	}
	return rec, func() { _ = client.Disconnect(context.Background()) }
}
