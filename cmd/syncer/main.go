package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"postovik/internal/api"
	"postovik/internal/config"
	"postovik/internal/database"
	"postovik/internal/delivery"
	"postovik/internal/domain"
	"postovik/internal/enricher"
	"postovik/internal/events"
	"postovik/internal/export"
	"postovik/internal/feed"
	"postovik/internal/logging"
	"postovik/internal/metrics"
	"postovik/internal/repository"
	"postovik/internal/scheduler"
	"postovik/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, loadErr := loadConfigAndLogger()
	if loadErr != nil {
		return loadErr
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, db, degraded := initStore(cfg, &logger)
	if db != nil {
		defer db.Close()
	}

	redisClient, seenCache := initSeenCache(ctx, cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	m := metrics.New()
	eventBus := events.NewEventBus()
	subscribeSyncEvents(eventBus, &logger)

	source := feed.NewBloggerSource(cfg.Source.Endpoint, &logger)
	messenger := delivery.NewTelegramClient(cfg.Telegram.Debug, &logger)
	captioner := buildEnricher(cfg, &logger)

	syncService := service.NewSyncService(
		store, source, captioner, messenger, seenCache,
		eventBus, m, cfg.Sync, cfg.Defaults(), &logger,
	)
	if degraded {
		syncService.MarkDegraded()
	}

	if cfg.API.Enabled {
		exporter := export.NewExcelExporter(cfg.Exports, store, &logger)
		apiServer := api.NewHTTPServer(cfg.API, syncService, store, exporter, m, &logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error().Err(err).Msg("API server error")
			}
		}()
		defer func() {
			_ = apiServer.Shutdown(context.Background())
		}()
	}

	sched := scheduler.New(syncService, &logger)
	if err := sched.Start(ctx, cfg.Sync.Interval); err != nil {
		logger.Error().Err(err).Msg("Ошибка запуска планировщика")
		return err
	}

	logger.Info().Msg("Синхронизация запущена...")
	<-ctx.Done()

	sched.Stop()
	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "syncer-main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
		return err
	}
	return nil
}

// initStore поднимает sqlite с failover на память. Если sqlite не
// открылся вовсе, процесс живет на in-memory реестре и помечается
// как degraded.
func initStore(cfg *config.Config, logger *zerolog.Logger) (domain.Store, *database.DB, bool) {
	memory := repository.NewMemoryStore()

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных, работаем на in-memory реестре")
		return memory, nil, true
	}

	ledger := repository.NewFailoverLedger(db, memory, logger)
	return repository.NewCompositeStore(ledger, db), db, false
}

func initSeenCache(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.SeenCache) {
	if cfg.Redis.Address == "" {
		return nil, nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if errPing := repository.Ping(ctx, redisClient); errPing != nil {
		logger.Warn().Err(errPing).Msg("Redis unavailable")
	}

	ttl := time.Duration(cfg.Redis.TTLSeconds) * time.Second
	return redisClient, repository.NewRedisSeenCache(redisClient, ttl)
}

func buildEnricher(cfg *config.Config, logger *zerolog.Logger) domain.Enricher {
	template := enricher.NewTemplateEnricher()
	if cfg.Enricher.Mode == "llm" {
		return enricher.NewLLMEnricher(cfg.Enricher.LLM, template, logger)
	}
	return template
}

func subscribeSyncEvents(bus *events.EventBus, logger *zerolog.Logger) {
	if bus == nil {
		return
	}

	bus.Subscribe(events.EventPostSynced, func(ev *events.Event) error {
		var payload events.PostSyncedPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}
		logger.Info().
			Str("cycle_id", payload.CycleID).
			Str("post_id", payload.PostID).
			Str("title", payload.Title).
			Msg("post synced")
		return nil
	})

	cycleHandler := func(ev *events.Event) error {
		var payload events.CyclePayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}
		logger.Debug().
			Str("cycle_id", payload.CycleID).
			Str("state", payload.State).
			Int("delivered", payload.ItemsDelivered).
			Int("errors", payload.ErrorCount).
			Str("reason", payload.Reason).
			Msg("cycle event")
		return nil
	}

	bus.Subscribe(events.EventCycleCompleted, cycleHandler)
	bus.Subscribe(events.EventCycleFailed, cycleHandler)
}
