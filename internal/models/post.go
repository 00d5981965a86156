package models

import "time"

// FeedItem — нормализованный пост из блога. Не персистится,
// живет только в рамках одного цикла синхронизации.
type FeedItem struct {
	ID       string
	Title    string
	BodyHTML string
	URL      string
	ImageURL string
}

// HasImage reports whether an image was resolved for the item.
func (i FeedItem) HasImage() bool {
	return i.ImageURL != ""
}

// SyncedPost — запись в реестре доставленных постов.
// Создается ровно один раз после успешной доставки и больше не меняется.
type SyncedPost struct {
	PostID   string    `json:"post_id"`
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	SyncedAt time.Time `json:"synced_at"`
}

// Setting — именованная настройка (ключи перечислены в constants.go).
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
