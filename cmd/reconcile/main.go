// Command reconcile lists, exports and resolves cancellation effects that
// were handed off for manual reconciliation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"cancelsaga/internal/config"
	"cancelsaga/internal/database"
	"cancelsaga/internal/export"
	"cancelsaga/internal/logging"
	"cancelsaga/internal/reconcile"
	"cancelsaga/internal/repository"

	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", envOr("CONFIG_PATH", "configs/config.yaml"), "path to config file")
	limit := flag.Int("limit", 100, "max pending entries to read")
	doExport := flag.Bool("export", false, "write pending entries to an xlsx report")
	resolveID := flag.Int64("resolve", 0, "mark entry id as resolved")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}
	logger := baseLogger.With().Str("component", "reconcile-cli").Logger()

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		defer repository.Close(redisClient)
		if err := repository.Ping(ctx, redisClient); err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, queue cleanup skipped")
			redisClient = nil
		}
	}

	recorder := reconcile.NewRecorder(db, redisClient, cfg.Reconciliation.QueueKey, &logger)

	if *resolveID > 0 {
		if err := recorder.Resolve(ctx, *resolveID); err != nil {
			return fmt.Errorf("resolve entry %d: %w", *resolveID, err)
		}
		logger.Info().Int64("entry_id", *resolveID).Msg("entry resolved")
		return nil
	}

	entries, err := recorder.Pending(ctx, *limit)
	if err != nil {
		return fmt.Errorf("list pending: %w", err)
	}

	if *doExport {
		path, err := export.WriteReconciliationReport(cfg.Reconciliation.ExportDir, entries, time.Now())
		if err != nil {
			return err
		}
		logger.Info().Str("path", path).Int("entries", len(entries)).Msg("report written")
		return nil
	}

	for _, e := range entries {
		lastErr := ""
		if e.LastError != nil {
			lastErr = *e.LastError
		}
		fmt.Fprintf(os.Stdout, "%d\tbooking=%d\t%s\t%s\t%s\n",
			e.ID, e.BookingID, e.Effect, e.CreatedAt.Format(time.RFC3339), lastErr)
	}
	logger.Info().Int("entries", len(entries)).Msg("pending entries listed")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
