package service

import (
	"context"

	"postovik/internal/domain"
	"postovik/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockFeedSource struct {
	mock.Mock
}

func (m *MockFeedSource) FetchRecent(ctx context.Context, creds domain.FeedCredentials, maxResults int) ([]models.FeedItem, error) {
	args := m.Called(ctx, creds, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FeedItem), args.Error(1)
}

type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) Deliver(ctx context.Context, target domain.DeliveryTarget, caption, postURL, imageURL string) error {
	args := m.Called(ctx, target, caption, postURL, imageURL)
	return args.Error(0)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) HasSynced(ctx context.Context, postID string) (bool, error) {
	args := m.Called(ctx, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) MarkSynced(ctx context.Context, post models.SyncedPost) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockStore) RecentSynced(ctx context.Context, limit int) ([]models.SyncedPost, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SyncedPost), args.Error(1)
}

func (m *MockStore) CountSynced(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) GetSetting(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockStore) SetSetting(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockStore) AllSettings(ctx context.Context) ([]models.Setting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Setting), args.Error(1)
}

type MockSeenCache struct {
	mock.Mock
}

func (m *MockSeenCache) Seen(ctx context.Context, postID string) (bool, error) {
	args := m.Called(ctx, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSeenCache) Remember(ctx context.Context, postID string) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}

// stubEnricher — детерминированная подпись для проверки конвейера.
type stubEnricher struct{}

func (stubEnricher) Enrich(ctx context.Context, item models.FeedItem) string {
	return "caption: " + item.Title
}
