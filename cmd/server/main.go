package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/nekogravitycat/crm-backend/internal/app"
	"github.com/nekogravitycat/crm-backend/internal/config"
	"github.com/nekogravitycat/crm-backend/internal/db"
	"github.com/nekogravitycat/crm-backend/internal/logger"
	"github.com/nekogravitycat/crm-backend/internal/notify"
	"github.com/nekogravitycat/crm-backend/internal/ratelimit"
	"github.com/nekogravitycat/crm-backend/internal/tracing"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	log, err := logger.New(cfg.IsProduction, cfg.LogLevel)
	if err != nil {
		zap.NewExample().Fatal("failed to init logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTLPEndpoint, cfg.ServiceName, cfg.AppEnv)
	if err != nil {
		log.Fatal("failed to init tracing", zap.Error(err))
	}

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal("failed to connect to db", zap.Error(err))
	}
	defer pool.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = ratelimit.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
	} else {
		log.Info("rate limiting disabled: REDIS_ADDR not set")
	}

	var producer sarama.SyncProducer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = notify.NewKafkaProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatal("failed to connect to kafka", zap.Error(err))
		}
		defer producer.Close()
	}

	container, err := app.NewContainer(app.Config{
		IsProduction:   cfg.IsProduction,
		AllowedOrigins: cfg.Origins(),
		DB:             pool,
		Pinger:         pool,
		JWTSecret:      cfg.JWTSecret,
		JWTTTL:         cfg.JWTAccessTokenTTL,
		BcryptCost:     cfg.BcryptCost,
		FrontendURL:    cfg.FrontendURL,
		Redis:          redisClient,
		RateLimit:      cfg.AuthRateLimit,
		RateWindow:     cfg.AuthRateWindow,
		KafkaProducer:  producer,
		KafkaTopic:     cfg.KafkaResetTopic,
	}, log)
	if err != nil {
		log.Fatal("failed to build application", zap.Error(err))
	}

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(container.Router, cfg.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in separate goroutine
	go func() {
		log.Info("server running", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	log.Info("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("failed to flush traces", zap.Error(err))
	}

	log.Info("server exited gracefully")
}
