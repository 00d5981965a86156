package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"postovik/internal/config"
	"postovik/internal/feed"
	"postovik/internal/models"
	"postovik/internal/repository"
	"postovik/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	result       *models.SyncResult
	runErr       error
	status       *models.Status
	statusErr    error
	lastOverride map[string]string
}

func (s *stubRunner) RunCycle(ctx context.Context, override map[string]string) (*models.SyncResult, error) {
	s.lastOverride = override
	return s.result, s.runErr
}

func (s *stubRunner) Status(ctx context.Context) (*models.Status, error) {
	return s.status, s.statusErr
}

type stubExporter struct {
	path string
	err  error
}

func (s *stubExporter) Export(ctx context.Context) (string, error) {
	return s.path, s.err
}

func newTestServer(t *testing.T, cfg config.APIConfig, runner SyncRunner, exporter Exporter) (*HTTPServer, *repository.MemoryStore) {
	t.Helper()
	logger := zerolog.Nop()
	store := repository.NewMemoryStore()
	return NewHTTPServer(cfg, runner, store, exporter, nil, &logger), store
}

func TestHandleSyncSuccess(t *testing.T) {
	runner := &stubRunner{result: &models.SyncResult{CycleID: "c1", State: models.CycleStateCompleted, ItemsDelivered: 2}}
	srv, _ := newTestServer(t, config.APIConfig{}, runner, nil)

	body := bytes.NewBufferString(`{"SOURCE_API_KEY":"override-key"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "override-key", runner.lastOverride["SOURCE_API_KEY"])

	var resp struct {
		Result models.SyncResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "c1", resp.Result.CycleID)
	assert.Equal(t, 2, resp.Result.ItemsDelivered)
}

func TestHandleSyncErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"cycle in flight", service.ErrCycleInFlight, http.StatusConflict},
		{"config incomplete", &service.ConfigError{MissingKeys: []string{"SOURCE_FEED_ID"}}, http.StatusUnprocessableEntity},
		{"upstream rejected", &feed.UpstreamError{Code: 403, Message: "forbidden"}, http.StatusBadGateway},
		{"fetch failed", &feed.FetchError{Err: errors.New("connection refused")}, http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubRunner{runErr: tt.err}
			srv, _ := newTestServer(t, config.APIConfig{}, runner, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandleSyncMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, config.APIConfig{}, &stubRunner{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleStatus(t *testing.T) {
	runner := &stubRunner{status: &models.Status{TotalSynced: 7, Configured: true, Durable: true, RecentPosts: []models.SyncedPost{}}}
	srv, _ := newTestServer(t, config.APIConfig{}, runner, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status models.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, int64(7), status.TotalSynced)
	assert.True(t, status.Configured)
}

func TestHandleSettingsPutAndGet(t *testing.T) {
	srv, store := newTestServer(t, config.APIConfig{}, &stubRunner{}, nil)

	body := bytes.NewBufferString(`{"SOURCE_FEED_ID":"feed-42"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	value, err := store.GetSetting(context.Background(), models.KeySourceFeedID)
	require.NoError(t, err)
	assert.Equal(t, "feed-42", value)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Settings []models.Setting `json:"settings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Settings, 1)
	assert.Equal(t, models.KeySourceFeedID, resp.Settings[0].Key)
}

func TestHandleSettingsRejectsUnknownKey(t *testing.T) {
	srv, _ := newTestServer(t, config.APIConfig{}, &stubRunner{}, nil)

	body := bytes.NewBufferString(`{"NOT_A_KEY":"x"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleExport(t *testing.T) {
	srv, _ := newTestServer(t, config.APIConfig{}, &stubRunner{}, &stubExporter{path: "exports/report.xlsx"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/export", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "exports/report.xlsx", resp["file"])
}

func TestHandleExportNotConfigured(t *testing.T) {
	srv, _ := newTestServer(t, config.APIConfig{}, &stubRunner{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/export", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	cfg := config.APIConfig{
		Auth: config.APIAuthConfig{
			Enabled: true,
			APIKeys: []config.APIClientKey{{Key: "secret-key", Name: "ops"}},
		},
	}
	srv, _ := newTestServer(t, cfg, &stubRunner{status: &models.Status{}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("x-api-key", "wrong")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("x-api-key", "secret-key")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthzSkipsAuth(t *testing.T) {
	cfg := config.APIConfig{
		Auth: config.APIAuthConfig{
			Enabled: true,
			APIKeys: []config.APIClientKey{{Key: "secret-key"}},
		},
	}
	srv, _ := newTestServer(t, cfg, &stubRunner{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := config.APIConfig{
		RateLimit: config.APIRateLimitConfig{RPS: 1, Burst: 2},
	}
	srv, _ := newTestServer(t, cfg, &stubRunner{status: &models.Status{}}, nil)

	var lastCode int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		lastCode = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}
