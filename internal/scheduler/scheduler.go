package scheduler

import (
	"context"
	"errors"

	"postovik/internal/models"
	"postovik/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// CycleRunner запускает один цикл синхронизации.
type CycleRunner interface {
	RunCycle(ctx context.Context, override map[string]string) (*models.SyncResult, error)
}

// Scheduler гоняет циклы по расписанию. Если предыдущий цикл еще
// работает, очередной тик пропускается без ошибки.
type Scheduler struct {
	cron   *cron.Cron
	runner CycleRunner
	logger *zerolog.Logger
}

func New(runner CycleRunner, logger *zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		runner: runner,
		logger: logger,
	}
}

// Start регистрирует задачу и запускает планировщик.
// spec в формате cron, по умолчанию @every 30s.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	if spec == "" {
		spec = models.DefaultSyncInterval
	}

	_, err := s.cron.AddFunc(spec, func() {
		s.tick(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().Str("interval", spec).Msg("sync scheduler started")
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	result, err := s.runner.RunCycle(ctx, nil)
	if err != nil {
		if errors.Is(err, service.ErrCycleInFlight) {
			s.logger.Debug().Msg("previous cycle still running, tick skipped")
			return
		}
		s.logger.Error().Err(err).Msg("scheduled cycle failed")
		return
	}

	s.logger.Debug().
		Str("cycle_id", result.CycleID).
		Int("delivered", result.ItemsDelivered).
		Msg("scheduled cycle finished")
}

// Stop останавливает планировщик и дожидается запущенной задачи.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}
