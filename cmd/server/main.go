package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/tumbuhin/farmforecast/internal/config"
	"github.com/tumbuhin/farmforecast/internal/database"
	"github.com/tumbuhin/farmforecast/internal/dto"
	"github.com/tumbuhin/farmforecast/internal/handlers"
	"github.com/tumbuhin/farmforecast/internal/logging"
	"github.com/tumbuhin/farmforecast/internal/middleware"
	"github.com/tumbuhin/farmforecast/internal/prediction"
	"github.com/tumbuhin/farmforecast/internal/realtime"
	"github.com/tumbuhin/farmforecast/internal/routes"
	"github.com/tumbuhin/farmforecast/internal/services"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logging.Setup(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}
	if cfg.OpenRouterAPIKey == "" {
		slog.Warn("OPENROUTER_API_KEY not set, predictions will use local analysis")
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	if _, err := database.SeedDistricts(database.DB); err != nil {
		slog.Error("district seed failed", "error", err)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.StdoutHandler(cfg.LogLevel),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Change feed
	broker, err := connectBroker(context.Background(), cfg)
	if err != nil {
		slog.Error("realtime broker failed", "driver", cfg.RealtimeDriver, "error", err)
		os.Exit(1)
	}
	slog.Info("realtime broker ready", "driver", cfg.RealtimeDriver)

	// Services
	ai := prediction.NewClient(prediction.ClientConfig{
		APIKey:  cfg.OpenRouterAPIKey,
		URL:     cfg.OpenRouterAPIURL,
		Model:   cfg.OpenRouterModel,
		Referer: cfg.AppReferer,
		Title:   cfg.AppTitle,
	})
	authService := services.NewAuthService(database.DB, cfg, broker)
	reportService := services.NewReportService(database.DB, broker, cfg)
	warningService := services.NewWarningService(database.DB, broker, cfg)
	predictionService := services.NewPredictionService(database.DB, broker, cfg, ai)
	statsService := services.NewStatsService(database.DB, broker, cfg)
	leaderboardService := services.NewLeaderboardService(database.DB, broker, cfg)
	districtService := services.NewDistrictService(database.DB, broker, cfg)

	live := []services.Mounted{
		reportService,
		warningService,
		predictionService,
		statsService,
		leaderboardService,
		districtService,
	}
	appCtx, stopLive := context.WithCancel(context.Background())
	for _, m := range live {
		if err := m.Start(appCtx); err != nil {
			slog.Error("failed to start live collections", "error", err)
			os.Exit(1)
		}
	}

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, authService, routes.Handlers{
		Auth:       handlers.NewAuthHandler(authService, broker),
		Health:     handlers.NewHealthHandler(database.Ping, broker),
		Reports:    handlers.NewReportHandler(reportService),
		Warnings:   handlers.NewWarningHandler(warningService),
		Prediction: handlers.NewPredictionHandler(predictionService),
		Community:  handlers.NewCommunityHandler(statsService, leaderboardService, districtService),
		Realtime:   handlers.NewRealtimeHandler(broker),
		Admin:      handlers.NewAdminHandler(reportService, warningService),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	stopLive()
	for _, m := range live {
		m.Close()
	}
	if err := broker.Close(); err != nil {
		slog.Error("realtime broker close error", "error", err)
	}

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func connectBroker(ctx context.Context, cfg *config.Config) (realtime.Broker, error) {
	switch cfg.RealtimeDriver {
	case "postgres":
		return realtime.ConnectPG(ctx, cfg.PgxURL())
	case "redis":
		return realtime.NewRedisBroker(realtime.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case "memory":
		return realtime.NewHub(), nil
	default:
		return nil, fmt.Errorf("unknown REALTIME_DRIVER %q", cfg.RealtimeDriver)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error",
			"action", c.Method()+" "+c.Path(),
			"request_id", c.Locals("requestid"),
			"error", err.Error(),
		)
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{Error: true, Message: message})
}
