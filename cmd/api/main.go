package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cancelsaga/internal/alerting"
	"cancelsaga/internal/api"
	"cancelsaga/internal/calendar"
	"cancelsaga/internal/config"
	"cancelsaga/internal/database"
	"cancelsaga/internal/domain"
	"cancelsaga/internal/events"
	"cancelsaga/internal/logging"
	"cancelsaga/internal/metrics"
	"cancelsaga/internal/notification"
	"cancelsaga/internal/payment"
	"cancelsaga/internal/reconcile"
	"cancelsaga/internal/repository"
	"cancelsaga/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
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
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer repository.Close(redisClient)
	}
	outcomes := initOutcomes(cfg, redisClient, &logger)

	bus := events.NewEventBus(&logger)
	recorder := reconcile.NewRecorder(db, redisClient, cfg.Reconciliation.QueueKey, &logger)
	bus.Subscribe(events.EventEffectFailed, recorder.Handle)
	initAlerts(cfg, bus, &logger)

	svc, err := buildService(cfg, db, outcomes, bus, &logger)
	if err != nil {
		return err
	}

	guard := api.NewCancelGuard(outcomes, cfg.API.CancelLimit, &logger)
	grpcServer, err := api.NewGRPCServer(&cfg.API, api.NewCancellationServer(&cfg.API, svc, guard, &logger), &logger)
	if err != nil {
		logger.Error().Err(err).Msg("create grpc server")
		return err
	}

	checks := map[string]api.HealthCheck{
		"database": func(ctx context.Context) error { return db.PingContext(ctx) },
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return repository.Ping(ctx, redisClient) }
	}
	httpServer := api.NewHTTPServer(&cfg.API, svc, guard, checks, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetrics(ctx, cfg, &logger)

	return startServers(ctx, grpcServer, httpServer, cfg, &logger)
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

func buildService(
	cfg *config.Config,
	db *database.DB,
	outcomes domain.OutcomeRepository,
	bus *events.EventBus,
	logger *zerolog.Logger,
) (*service.CancellationService, error) {
	payments, err := payment.NewFromConfig(cfg.Payment, logger)
	if err != nil {
		return nil, fmt.Errorf("init payment processor: %w", err)
	}

	composer, err := notification.NewComposer(cfg.Notifications, cfg.Email.SupportEmail)
	if err != nil {
		return nil, err
	}
	sender := notification.NewSMTPSender(cfg.Email, logger)

	parser := calendar.RefParser{
		EventsMarker:    cfg.Calendar.EventsMarker,
		CalendarsMarker: cfg.Calendar.CalendarsMarker,
	}
	canceller := calendar.NewGoogleCanceller(cfg.Calendar, logger)

	return service.NewCancellationService(service.Deps{
		Bookings:  db,
		Payments:  payments,
		Inventory: service.NewInventoryReconciler(db),
		Loyalty:   service.NewLoyaltyAdjuster(db),
		Calendar:  service.NewCalendarSync(db, canceller, parser),
		Notifier:  service.NewNotifier(composer, sender),
		Outcomes:  outcomes,
		Events:    bus,
	}, logger), nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initOutcomes prefers redis and falls back to process memory while redis is down.
func initOutcomes(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.OutcomeRepository {
	ttl := time.Duration(cfg.Redis.OutcomeTTL) * time.Second
	memory := repository.NewMemoryOutcomeRepository(ttl)
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverOutcomeRepository(repository.NewRedisOutcomeRepository(redisClient, ttl), memory, logger)
}

func initAlerts(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) {
	if cfg.Alerts.TelegramBotToken == "" || cfg.Alerts.TelegramChatID == 0 {
		return
	}

	bot, err := alerting.NewTelegramBot(cfg.Alerts.TelegramBotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram alerts init failed, continuing without alerts")
		return
	}
	alerter := alerting.NewTelegramAlerter(bot, cfg.Alerts.TelegramChatID, logger)
	bus.Subscribe(events.EventEffectFailed, alerter.Handle)
	logger.Info().Int64("chat_id", cfg.Alerts.TelegramChatID).Msg("telegram alerts enabled")
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	go func() {
		if err := grpcServer.Serve(); err != nil {
			logger.Error().Err(err).Msg("grpc server stopped")
		}
	}()

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Str("grpc_addr", grpcServer.Addr()).Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcServer.Shutdown(shutdownCtx)
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
