package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentease/internal/api"
	"rentease/internal/availability"
	"rentease/internal/config"
	"rentease/internal/database"
	"rentease/internal/domain"
	"rentease/internal/events"
	"rentease/internal/export"
	"rentease/internal/logging"
	"rentease/internal/metrics"
	"rentease/internal/models"
	"rentease/internal/repository"
	"rentease/internal/service"
	"rentease/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	if err := seedDirectory(db, &logger); err != nil {
		return err
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventBus := events.NewEventBus()
	subscribeEventLog(eventBus, &logger)

	notifier := initNotifier(ctx, cfg, db, redisClient, &logger)
	limiter := initLimiter(redisClient, &logger)

	engine := availability.NewEngine(db, &logger)
	bookingService := service.NewBookingService(
		db, db, engine, eventBus, notifier, cfg.Booking.StrictTransitions, &logger,
	)

	exporter := export.NewExporter(bookingService, cfg.Exports.Path, &logger)
	httpServer := api.NewHTTPServer(cfg.API, cfg.Booking, bookingService, limiter, exporter, &logger)

	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

// seedDirectory загружает справочник объектов и пользователей из YAML.
func seedDirectory(db *database.DB, logger *zerolog.Logger) error {
	seedPath := os.Getenv("DIRECTORY_PATH")
	if seedPath == "" {
		seedPath = "configs/directory.yaml"
	}
	data, err := os.ReadFile(seedPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("seed_path", seedPath).Msg("directory seed file missing, skipping")
			return nil
		}
		logger.Error().Err(err).Str("seed_path", seedPath).Msg("read directory seed")
		return err
	}

	var seed struct {
		Properties []models.Property `yaml:"properties"`
		Users      []models.User     `yaml:"users"`
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		logger.Error().Err(err).Str("seed_path", seedPath).Msg("parse directory seed")
		return err
	}

	ctx := context.Background()
	for i := range seed.Users {
		if err := db.UpsertUser(ctx, &seed.Users[i]); err != nil {
			return err
		}
	}
	for i := range seed.Properties {
		if err := db.UpsertProperty(ctx, &seed.Properties[i]); err != nil {
			return err
		}
	}

	logger.Info().
		Int("properties", len(seed.Properties)).
		Int("users", len(seed.Users)).
		Msg("directory seeded")
	return nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initLimiter(redisClient *redis.Client, logger *zerolog.Logger) domain.RequestLimiter {
	memory := repository.NewMemoryLimiter()
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverLimiter(repository.NewRedisLimiter(redisClient), memory, logger)
}

func initNotifier(ctx context.Context, cfg *config.Config, db *database.DB, redisClient *redis.Client, logger *zerolog.Logger) domain.NotifyWorker {
	if !cfg.Notify.Enabled {
		return nil
	}

	workerLogger := logger.With().Str("component", "notify-worker").Logger()
	notifyWorker := worker.NewNotifyWorker(
		db,
		worker.NewHTTPWebhookClient(cfg.Notify.WebhookURL),
		redisClient,
		worker.RetryPolicy{MaxRetries: cfg.Notify.MaxRetries},
		&workerLogger,
	)
	go notifyWorker.Start(ctx)
	return notifyWorker
}

func subscribeEventLog(bus *events.EventBus, logger *zerolog.Logger) {
	handler := func(event *events.Event) error {
		logger.Info().
			Str("event_type", event.Type).
			RawJSON("payload", event.Payload).
			Msg("booking event")
		return nil
	}
	for _, eventType := range []string{
		events.EventBookingRequested,
		events.EventBookingApproved,
		events.EventBookingRejected,
		events.EventBookingCancelled,
	} {
		bus.Subscribe(eventType, handler)
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
