package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/app"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/config"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/database"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/handler"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/middleware"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/router"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/pkg/ai"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/pkg/mailer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if cfg.AppEnv == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("%v", err)
	}

	infra := app.Infrastructure{DB: db}
	health := map[string]handler.Pinger{
		"database": handler.PingFunc(func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
	}

	if cfg.RedisURL != "" {
		redisClient, err := database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, funnel cache and redis events disabled")
		} else {
			infra.Redis = redisClient
			health["redis"] = handler.PingFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			})
			defer redisClient.Close()
		}
	}

	if cfg.NATSURL != "" {
		natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, pipeline events disabled")
		} else {
			infra.NATS = natsConn
			defer natsConn.Drain()
		}
	}

	var transport mailer.Mailer = mailer.NewLogMailer(logger)
	if cfg.AMQPURL != "" {
		amqpMailer, err := mailer.NewAMQPMailer(cfg.AMQPURL, cfg.MailQueue, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("amqp outbox unavailable, emails will only be logged")
		} else {
			transport = amqpMailer
			defer amqpMailer.Close()
		}
	}
	infra.Mailer = mailer.NewRetryingMailer(transport, mailer.RetryConfig{
		MaxAttempts: cfg.MailMaxAttempts,
		Backoff:     cfg.MailBackoff,
	}, logger)

	if cfg.AIProvider == "openai" && cfg.OpenAIAPIKey != "" {
		grader, err := ai.NewOpenAIGrader(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.AIModel,
			Logger: logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("ai grader disabled")
		} else {
			infra.Grader = grader
		}
	}

	services := app.NewServices(cfg, infra, logger)

	fiberApp := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	middleware.Register(fiberApp, middleware.Config{Logger: &logger, AllowOrigins: cfg.PublicOrigin})
	router.Register(fiberApp, cfg, app.RouterDependencies(cfg, services, health, logger))

	go func() {
		if err := fiberApp.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(fiberApp, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
