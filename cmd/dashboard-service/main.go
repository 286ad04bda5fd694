package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"corporate-pulse/internal/dashboard/config"
	delivery "corporate-pulse/internal/dashboard/delivery/http"
	_ "corporate-pulse/internal/dashboard/docs"
	"corporate-pulse/internal/dashboard/metrics"
	"corporate-pulse/internal/dashboard/repository"
	"corporate-pulse/internal/dashboard/service"
	"corporate-pulse/internal/dashboard/session"
	"corporate-pulse/internal/pulse"
	"corporate-pulse/pkg/logger"
	"corporate-pulse/pkg/postgres"
	"corporate-pulse/pkg/redis"
	"corporate-pulse/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the dashboard service",
	Run:   runServe,
}

// lockTTL bounds how long a crashed request can keep a session busy.
const lockTTL = 2 * time.Minute

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		var missing *config.MissingError
		if errors.As(err, &missing) {
			fmt.Fprint(os.Stderr, missing.Remediation())
			os.Exit(1)
		}
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()
	zap.ReplaceGlobals(appLogger.Logger)

	appLogger.Info("Starting Dashboard Service", logger.Field("name", cfg.App.Name))

	gapPolicy, err := pulse.ParseGapPolicy(cfg.Dashboard.GapPolicy)
	if err != nil {
		appLogger.Fatal("Invalid gap policy", logger.ErrorField(err))
	}

	// Initialize database
	postgresCfg := postgres.Config{
		URL:             cfg.Datastore.URL,
		Key:             cfg.Datastore.Key,
		MaxIdleConns:    cfg.Datastore.MaxIdleConns,
		MaxOpenConns:    cfg.Datastore.MaxOpenConns,
		ConnMaxLifetime: cfg.Datastore.ConnMaxLifetime,
		LogLevel:        cfg.Datastore.LogLevel,
	}
	db, err := postgres.Open(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}
	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	if err := db.Ping(pingCtx); err != nil {
		// reads degrade to a datastore notice, so keep serving
		appLogger.Warn("Datastore not reachable at startup", logger.ErrorField(err))
	}
	cancelPing()

	// Initialize session store
	var sessions session.Store
	switch cfg.Session.Store {
	case "redis":
		redisCfg := redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		}
		redisClient, err := redis.NewClient(redisCfg)
		if err != nil {
			appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
		}
		defer redisClient.Close()
		sessions = session.NewRedisStore(redisClient.Client, cfg.Session.TTL, lockTTL)
	default:
		sessions = session.NewMemoryStore(cfg.Session.TTL, lockTTL)
	}

	// Initialize notifier
	var notifier telegram.Notifier
	if cfg.Notifier.Enabled {
		notifier, err = telegram.NewClient(cfg.Notifier.BotToken, cfg.Notifier.ChatID)
		if err != nil {
			appLogger.Error("Telegram notifier disabled", logger.ErrorField(err))
			notifier = nil
		}
	}

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsRegistry := metrics.NewRegistry(registry)

	// Initialize repositories
	pulseRepo := repository.NewPulseLogRepository(db.DB)
	analysisRepo := repository.NewAnalysisRepository(cfg.Webhook, appLogger)

	// Initialize services
	dashboardSvc := service.NewDashboardService(service.Options{
		RecentLimit:      cfg.Dashboard.RecentLimit,
		IncludeSynthetic: cfg.Dashboard.IncludeSynthetic,
		GapPolicy:        gapPolicy,
		AlertCooldown:    cfg.Notifier.Cooldown,
	}, pulseRepo, analysisRepo, notifier, metricsRegistry, appLogger)

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true
	e.Validator = delivery.NewRequestValidator()
	e.Use(middleware.Recover())
	e.Use(delivery.RequestLogger(appLogger))
	e.Use(delivery.SessionCookie(cfg.Session.TTL))

	// Initialize handlers and routes
	dashboardHandler := delivery.NewDashboardHandler(dashboardSvc, sessions, appLogger)
	apiV1 := e.Group("/api/v1")
	dashboardHandler.RegisterRoutes(apiV1)

	systemHandler := delivery.NewSystemHandler(pulseRepo, registry, appLogger)
	systemHandler.RegisterRoutes(e)

	e.GET("/swagger/*", swagger.WrapHandler)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	// Gracefully shutdown the server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

// @title Corporate Pulse API
// @version 1.0
// @description Reality (P/E) versus hype (sentiment) dashboard backend.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "dashboard-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-dashboard.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing dashboard-service CLI: %s\n", err)
		os.Exit(1)
	}
}
