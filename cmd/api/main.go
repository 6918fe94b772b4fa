package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/turnohq/turno-platform/internal/api/router"
	"github.com/turnohq/turno-platform/internal/catalog"
	"github.com/turnohq/turno-platform/internal/clients"
	appconfig "github.com/turnohq/turno-platform/internal/config"
	"github.com/turnohq/turno-platform/internal/events"
	"github.com/turnohq/turno-platform/internal/notify"
	"github.com/turnohq/turno-platform/internal/observability/metrics"
	"github.com/turnohq/turno-platform/internal/reservations"
	"github.com/turnohq/turno-platform/internal/revenue"
	"github.com/turnohq/turno-platform/internal/tenants"
	"github.com/turnohq/turno-platform/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting turno-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create booking pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	identityURL := cfg.IdentityDBURL
	if identityURL == "" {
		identityURL = cfg.DatabaseURL
	}
	identityDB, err := sql.Open("postgres", identityURL)
	if err != nil {
		logger.Error("failed to open identity database", "error", err)
		os.Exit(1)
	}
	defer identityDB.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()
	}

	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)

	resolver := tenants.NewResolver(tenants.NewRepository(identityDB), redisClient, cfg.SlugCacheTTL, logger)

	reservationStore := reservations.NewStore(pool)
	catalogRepo := catalog.NewRepository(pool)
	clientStore := clients.NewStore(pool)
	revenueStore := revenue.NewStore(pool)
	outboxStore := events.NewOutboxStore(pool)

	bookingService := reservations.NewService(reservationStore, catalogRepo, clientStore,
		revenueStore, outboxStore, bookingMetrics, logger)

	emailSender := buildEmailSender(ctx, cfg, logger)
	dispatcher := notify.NewDispatcher(emailSender, cfg.PublicBaseURL, logger)
	deliverer := events.NewDeliverer(outboxStore, dispatcher, logger).
		WithBatchSize(int32(cfg.OutboxBatchSize)).
		WithInterval(cfg.OutboxPollInterval)

	deliveryCtx, stopDelivery := context.WithCancel(ctx)
	defer stopDelivery()
	go deliverer.Run(deliveryCtx)

	r := router.New(&router.Config{
		Logger:              logger,
		TenantResolver:      resolver,
		ReservationsHandler: reservations.NewHandler(bookingService, logger),
		StatsHandler:        reservations.NewStatsHandler(reservations.NewStatsRepository(pool), logger),
		RevenueHandler:      revenue.NewHandler(revenueStore, logger),
		AdminAuthSecret:     cfg.AdminJWTSecret,
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerSec:     cfg.RateLimitPerSecond,
		RateLimitBurst:      cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopDelivery()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Error("failed to load AWS config, falling back to stub sender", "error", err)
			return notify.NewStubEmailSender(logger)
		}
		if sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger); sender != nil {
			return sender
		}
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			return sender
		}
	}
	logger.Warn("email sending not configured, using stub sender", "provider", cfg.EmailProvider)
	return notify.NewStubEmailSender(logger)
}
