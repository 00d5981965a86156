package service

import (
	"context"
	"sync/atomic"
	"time"

	"postovik/internal/config"
	"postovik/internal/domain"
	"postovik/internal/events"
	"postovik/internal/metrics"
	"postovik/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SyncService — движок сверки: fetch → filter-new → enrich → deliver →
// record. Один цикл за раз; отказ одного поста не роняет цикл; запись
// в реестр — единственный durable side effect и происходит только после
// подтвержденной доставки.
type SyncService struct {
	store     domain.Store
	source    domain.FeedSource
	enricher  domain.Enricher
	messenger domain.Messenger
	seenCache domain.SeenCache // может быть nil
	bus       domain.EventPublisher
	metrics   *metrics.Metrics
	defaults  map[string]string
	logger    *zerolog.Logger

	pageSize     int
	processLimit int
	callTimeout  time.Duration

	running  atomic.Bool
	degraded atomic.Bool
}

func NewSyncService(
	store domain.Store,
	source domain.FeedSource,
	enricher domain.Enricher,
	messenger domain.Messenger,
	seenCache domain.SeenCache,
	bus domain.EventPublisher,
	m *metrics.Metrics,
	cfg config.SyncConfig,
	defaults map[string]string,
	logger *zerolog.Logger,
) *SyncService {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = models.DefaultFetchPageSize
	}
	processLimit := cfg.ProcessLimit
	if processLimit <= 0 {
		processLimit = models.DefaultProcessLimit
	}
	callTimeout := time.Duration(cfg.CallTimeoutSeconds) * time.Second
	if callTimeout <= 0 {
		callTimeout = models.DefaultCallTimeoutSeconds * time.Second
	}

	return &SyncService{
		store:        store,
		source:       source,
		enricher:     enricher,
		messenger:    messenger,
		seenCache:    seenCache,
		bus:          bus,
		metrics:      m,
		defaults:     defaults,
		logger:       logger,
		pageSize:     pageSize,
		processLimit: processLimit,
		callTimeout:  callTimeout,
	}
}

// MarkDegraded помечает, что реестр работает без персистентности
// (sqlite не поднялся, живем на in-memory фолбэке).
func (s *SyncService) MarkDegraded() {
	s.degraded.Store(true)
}

// RunCycle запускает один цикл синхронизации. Повторный вызов во время
// работающего цикла сразу возвращает ErrCycleInFlight.
func (s *SyncService) RunCycle(ctx context.Context, override map[string]string) (*models.SyncResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrCycleInFlight
	}
	defer s.running.Store(false)

	result := &models.SyncResult{
		CycleID:   uuid.NewString(),
		StartedAt: time.Now(),
	}
	logger := s.logger.With().Str("cycle_id", result.CycleID).Logger()

	// Настройки разрешаются перед каждым циклом: override важнее
	// сохраненных settings, settings важнее дефолтов процесса.
	resolved, err := s.resolveSettings(ctx, override)
	if err != nil {
		s.finish(result, models.CycleStateFailed)
		s.publishCycle(result, err)
		logger.Error().Err(err).Msg("cycle aborted: configuration incomplete")
		return result, err
	}

	creds := domain.FeedCredentials{
		APIKey: resolved[models.KeySourceAPIKey],
		FeedID: resolved[models.KeySourceFeedID],
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	items, err := s.source.FetchRecent(fetchCtx, creds, s.pageSize)
	cancel()
	if err != nil {
		// Без списка постов делать нечего — цикл падает целиком
		s.finish(result, models.CycleStateFailed)
		s.publishCycle(result, err)
		logger.Error().Err(err).Msg("cycle failed: fetch error")
		return result, err
	}

	result.ItemsExamined = len(items)
	if len(items) == 0 {
		s.finish(result, models.CycleStateCompleted)
		s.publishCycle(result, nil)
		logger.Info().Msg("cycle completed: feed is empty")
		return result, nil
	}

	// Ограничение на число обрабатываемых постов за цикл — защита от
	// лавины исходящих вызовов, остальные дождутся следующего цикла.
	candidates := items
	if len(candidates) > s.processLimit {
		candidates = candidates[:s.processLimit]
	}

	target := domain.DeliveryTarget{
		BotToken:  resolved[models.KeyMessagingBotToken],
		ChannelID: resolved[models.KeyMessagingChannel],
	}

	for _, item := range candidates {
		if ctx.Err() != nil {
			result.AddError(item.ID, "cycle canceled: "+ctx.Err().Error())
			continue
		}
		s.processItem(ctx, &logger, result, target, item)
	}

	s.finish(result, models.CycleStateCompleted)
	s.publishCycle(result, nil)
	logger.Info().
		Int("examined", result.ItemsExamined).
		Int("delivered", result.ItemsDelivered).
		Int("skipped", result.ItemsSkipped).
		Int("errors", len(result.Errors)).
		Dur("duration", result.Duration()).
		Msg("cycle completed")

	return result, nil
}

// processItem гоняет один пост через весь подконвейер. Любая ошибка
// изолируется: попадает в result.Errors, следующий пост обрабатывается.
func (s *SyncService) processItem(ctx context.Context, logger *zerolog.Logger, result *models.SyncResult, target domain.DeliveryTarget, item models.FeedItem) {
	synced, err := s.alreadySynced(ctx, item.ID)
	if err != nil {
		result.AddError(item.ID, "ledger check failed: "+err.Error())
		s.metrics.ItemErrors.Inc()
		logger.Error().Err(err).Str("post_id", item.ID).Msg("ledger check failed")
		return
	}
	if synced {
		result.ItemsSkipped++
		s.metrics.ItemsSkipped.Inc()
		return
	}

	enrichCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	caption := s.enricher.Enrich(enrichCtx, item)
	cancel()

	deliverCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	err = s.messenger.Deliver(deliverCtx, target, caption, item.URL, item.ImageURL)
	cancel()
	if err != nil {
		result.AddError(item.ID, err.Error())
		s.metrics.ItemErrors.Inc()
		logger.Error().Err(err).Str("post_id", item.ID).Msg("delivery failed")
		return
	}

	result.ItemsDelivered++
	s.metrics.ItemsDelivered.Inc()

	post := models.SyncedPost{
		PostID:   item.ID,
		Title:    item.Title,
		URL:      item.URL,
		SyncedAt: time.Now().UTC(),
	}
	if err := s.store.MarkSynced(ctx, post); err != nil {
		// Пост уже доставлен; потерянная запись означает возможный
		// повтор в следующем цикле. Принятое окно at-least-once.
		result.AddError(item.ID, "delivered but not recorded: "+err.Error())
		logger.Error().Err(err).Str("post_id", item.ID).Msg("ledger write failed after delivery")
		return
	}

	s.rememberSeen(ctx, item.ID)

	if s.bus != nil {
		_ = s.bus.PublishJSON(events.EventPostSynced, events.PostSyncedPayload{
			CycleID: result.CycleID,
			PostID:  item.ID,
			Title:   item.Title,
			URL:     item.URL,
		})
	}

	logger.Info().Str("post_id", item.ID).Str("title", item.Title).Msg("post delivered")
}

// alreadySynced сначала спрашивает кэш, потом реестр.
// Ошибки кэша не считаются: кэш — это только экономия похода в реестр.
func (s *SyncService) alreadySynced(ctx context.Context, postID string) (bool, error) {
	if s.seenCache != nil {
		if seen, err := s.seenCache.Seen(ctx, postID); err == nil && seen {
			return true, nil
		}
	}
	return s.store.HasSynced(ctx, postID)
}

func (s *SyncService) rememberSeen(ctx context.Context, postID string) {
	if s.seenCache == nil {
		return
	}
	if err := s.seenCache.Remember(ctx, postID); err != nil {
		s.logger.Debug().Err(err).Str("post_id", postID).Msg("seen cache update failed")
	}
}

// resolveSettings строит эффективную конфигурацию цикла.
// Отсутствие любого обязательного ключа — ConfigError до единого
// сетевого вызова.
func (s *SyncService) resolveSettings(ctx context.Context, override map[string]string) (map[string]string, error) {
	resolved := make(map[string]string, len(models.RequiredSettingKeys))
	var missing []string

	for _, key := range models.RequiredSettingKeys {
		if v := override[key]; v != "" {
			resolved[key] = v
			continue
		}

		if v, err := s.store.GetSetting(ctx, key); err == nil && v != "" {
			resolved[key] = v
			continue
		}

		if v := s.defaults[key]; v != "" {
			resolved[key] = v
			continue
		}

		missing = append(missing, key)
	}

	if len(missing) > 0 {
		return nil, &ConfigError{MissingKeys: missing}
	}
	return resolved, nil
}

func (s *SyncService) finish(result *models.SyncResult, state string) {
	result.State = state
	result.FinishedAt = time.Now()

	s.metrics.CyclesTotal.WithLabelValues(state).Inc()
	s.metrics.CycleDuration.Observe(result.Duration().Seconds())
	s.metrics.ItemsExamined.Add(float64(result.ItemsExamined))
}

func (s *SyncService) publishCycle(result *models.SyncResult, cause error) {
	if s.bus == nil {
		return
	}

	payload := events.CyclePayload{
		CycleID:        result.CycleID,
		State:          result.State,
		ItemsExamined:  result.ItemsExamined,
		ItemsDelivered: result.ItemsDelivered,
		ErrorCount:     len(result.Errors),
	}

	eventType := events.EventCycleCompleted
	if result.State == models.CycleStateFailed {
		eventType = events.EventCycleFailed
		if cause != nil {
			payload.Reason = cause.Error()
		}
	}
	_ = s.bus.PublishJSON(eventType, payload)
}

// Status отдает сводку для операторского запроса.
func (s *SyncService) Status(ctx context.Context) (*models.Status, error) {
	total, err := s.store.CountSynced(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := s.store.RecentSynced(ctx, models.DefaultRecentLimit)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []models.SyncedPost{}
	}

	_, cfgErr := s.resolveSettings(ctx, nil)

	return &models.Status{
		TotalSynced: total,
		RecentPosts: recent,
		Configured:  cfgErr == nil,
		Durable:     !s.degraded.Load(),
	}, nil
}
