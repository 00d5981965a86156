package repository

import (
	"context"
	"sync/atomic"
	"time"

	"postovik/internal/domain"
	"postovik/internal/models"

	"github.com/rs/zerolog"
)

// FailoverLedger переключает реестр на fallback при отказе основного
// хранилища и раз в минуту пробует вернуться обратно.
// Пока основной реестр лежит, отметки о доставке пишутся в fallback —
// дедупликация продолжает работать в рамках процесса, durability теряется.
type FailoverLedger struct {
	primary   domain.Ledger
	fallback  domain.Ledger
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

const recoveryInterval = time.Minute

func NewFailoverLedger(primary, fallback domain.Ledger, logger *zerolog.Logger) *FailoverLedger {
	return &FailoverLedger{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (l *FailoverLedger) markDown(err error) {
	l.logger.Error().Err(err).Msg("Primary ledger failed, falling back to memory")
	l.isDown.Store(true)
	l.lastCheck.Store(time.Now().UnixNano())
}

// shouldProbe разрешает одну попытку восстановления в минуту.
func (l *FailoverLedger) shouldProbe() bool {
	if !l.isDown.Load() {
		return true
	}
	last := time.Unix(0, l.lastCheck.Load())
	if time.Since(last) > recoveryInterval {
		l.lastCheck.Store(time.Now().UnixNano())
		return true
	}
	return false
}

func (l *FailoverLedger) recovered() {
	if l.isDown.Swap(false) {
		l.logger.Info().Msg("Primary ledger recovered")
	}
}

func (l *FailoverLedger) HasSynced(ctx context.Context, postID string) (bool, error) {
	if l.shouldProbe() {
		synced, err := l.primary.HasSynced(ctx, postID)
		if err == nil {
			l.recovered()
			return synced, nil
		}
		l.markDown(err)
	}

	return l.fallback.HasSynced(ctx, postID)
}

func (l *FailoverLedger) MarkSynced(ctx context.Context, post models.SyncedPost) error {
	if l.shouldProbe() {
		err := l.primary.MarkSynced(ctx, post)
		if err == nil {
			l.recovered()
			// Дублируем в fallback, чтобы при следующем отказе primary
			// запись не потерялась для дедупликации.
			_ = l.fallback.MarkSynced(ctx, post)
			return nil
		}
		l.markDown(err)
	}

	return l.fallback.MarkSynced(ctx, post)
}

func (l *FailoverLedger) RecentSynced(ctx context.Context, limit int) ([]models.SyncedPost, error) {
	if l.shouldProbe() {
		posts, err := l.primary.RecentSynced(ctx, limit)
		if err == nil {
			l.recovered()
			return posts, nil
		}
		l.markDown(err)
	}

	return l.fallback.RecentSynced(ctx, limit)
}

func (l *FailoverLedger) CountSynced(ctx context.Context) (int64, error) {
	if l.shouldProbe() {
		count, err := l.primary.CountSynced(ctx)
		if err == nil {
			l.recovered()
			return count, nil
		}
		l.markDown(err)
	}

	return l.fallback.CountSynced(ctx)
}
