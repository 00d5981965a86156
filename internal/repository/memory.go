package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"postovik/internal/database"
	"postovik/internal/models"
)

// MemoryStore — нестойкая реализация реестра и настроек.
// Используется как деградированный режим, когда sqlite недоступен:
// сервис продолжает работать, но реестр не переживает перезапуск.
type MemoryStore struct {
	mu       sync.RWMutex
	synced   map[string]models.SyncedPost
	settings map[string]models.Setting
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		synced:   make(map[string]models.SyncedPost),
		settings: make(map[string]models.Setting),
	}
}

func (s *MemoryStore) HasSynced(ctx context.Context, postID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.synced[postID]
	return ok, nil
}

func (s *MemoryStore) MarkSynced(ctx context.Context, post models.SyncedPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Повторная отметка — no-op, как и в sqlite-реестре
	if _, ok := s.synced[post.PostID]; ok {
		return nil
	}
	if post.SyncedAt.IsZero() {
		post.SyncedAt = time.Now().UTC()
	}
	s.synced[post.PostID] = post
	return nil
}

func (s *MemoryStore) RecentSynced(ctx context.Context, limit int) ([]models.SyncedPost, error) {
	if limit <= 0 {
		limit = models.DefaultRecentLimit
	}

	s.mu.RLock()
	posts := make([]models.SyncedPost, 0, len(s.synced))
	for _, p := range s.synced {
		posts = append(posts, p)
	}
	s.mu.RUnlock()

	sort.Slice(posts, func(i, j int) bool {
		if posts[i].SyncedAt.Equal(posts[j].SyncedAt) {
			return posts[i].PostID > posts[j].PostID
		}
		return posts[i].SyncedAt.After(posts[j].SyncedAt)
	})

	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (s *MemoryStore) CountSynced(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.synced)), nil
}

func (s *MemoryStore) GetSetting(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	setting, ok := s.settings[key]
	if !ok {
		return "", database.ErrSettingNotFound
	}
	return setting.Value, nil
}

func (s *MemoryStore) SetSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = models.Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return nil
}

func (s *MemoryStore) AllSettings(ctx context.Context) ([]models.Setting, error) {
	s.mu.RLock()
	settings := make([]models.Setting, 0, len(s.settings))
	for _, v := range s.settings {
		settings = append(settings, v)
	}
	s.mu.RUnlock()

	sort.Slice(settings, func(i, j int) bool { return settings[i].Key < settings[j].Key })
	return settings, nil
}
