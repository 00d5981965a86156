package domain

import (
	"context"

	"postovik/internal/models"
)

// Ledger — реестр доставленных постов. Единственный durable side effect
// цикла синхронизации проходит через MarkSynced.
type Ledger interface {
	HasSynced(ctx context.Context, postID string) (bool, error)
	MarkSynced(ctx context.Context, post models.SyncedPost) error
	RecentSynced(ctx context.Context, limit int) ([]models.SyncedPost, error)
	CountSynced(ctx context.Context) (int64, error)
}

// SettingsStore хранит именованные настройки (ключ/значение, last-write-wins).
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	AllSettings(ctx context.Context) ([]models.Setting, error)
}

// Store объединяет реестр и настройки; так их реализует и sqlite-хранилище,
// и in-memory фолбэк.
type Store interface {
	Ledger
	SettingsStore
}

// FeedCredentials — доступ к источнику: API-ключ и идентификатор блога.
type FeedCredentials struct {
	APIKey string
	FeedID string
}

// FeedSource возвращает последние посты источника, новые первыми.
type FeedSource interface {
	FetchRecent(ctx context.Context, creds FeedCredentials, maxResults int) ([]models.FeedItem, error)
}

// Enricher превращает пост в подпись для доставки.
// Никогда не возвращает ошибку наружу: деградирует до запасной подписи.
type Enricher interface {
	Enrich(ctx context.Context, item models.FeedItem) string
}

// DeliveryTarget — куда доставляем: токен бота и идентификатор канала.
type DeliveryTarget struct {
	BotToken  string
	ChannelID string
}

// Messenger доставляет подпись (и опционально картинку) в канал.
type Messenger interface {
	Deliver(ctx context.Context, target DeliveryTarget, caption, postURL, imageURL string) error
}

// SeenCache — быстрый необязательный кэш перед реестром.
// Ошибки кэша не влияют на корректность, только на число обращений к реестру.
type SeenCache interface {
	Seen(ctx context.Context, postID string) (bool, error)
	Remember(ctx context.Context, postID string) error
}

// EventPublisher публикует доменные события цикла.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
