package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"postovik/internal/config"
	"postovik/internal/domain"
	"postovik/internal/feed"
	"postovik/internal/metrics"
	"postovik/internal/models"
	"postovik/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// SyncRunner — операции движка, доступные через HTTP.
type SyncRunner interface {
	RunCycle(ctx context.Context, override map[string]string) (*models.SyncResult, error)
	Status(ctx context.Context) (*models.Status, error)
}

// Exporter выгружает отчет по синхронизированным постам в файл.
type Exporter interface {
	Export(ctx context.Context) (string, error)
}

// HTTPServer — операторский API поверх движка синхронизации.
type HTTPServer struct {
	cfg      config.APIConfig
	runner   SyncRunner
	settings domain.SettingsStore
	exporter Exporter
	metrics  *metrics.Metrics
	logger   *zerolog.Logger
	server   *http.Server
	auth     *HTTPAuth
}

func NewHTTPServer(cfg config.APIConfig, runner SyncRunner, settings domain.SettingsStore, exporter Exporter, m *metrics.Metrics, logger *zerolog.Logger) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{
		cfg:      cfg,
		runner:   runner,
		settings: settings,
		exporter: exporter,
		metrics:  m,
		logger:   logger,
	}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("/api/v1/sync", srv.handleSync)
	mux.HandleFunc("/api/v1/status", srv.handleStatus)
	mux.HandleFunc("/api/v1/settings", srv.handleSettings)
	mux.HandleFunc("/api/v1/export", srv.handleExport)

	protected := srv.auth.Wrap(mux)

	// healthz и metrics живут вне авторизации
	root := http.NewServeMux()
	root.HandleFunc("/healthz", srv.handleHealthz)
	root.Handle("/metrics", promhttp.Handler())
	root.Handle("/", protected)

	handler := srv.observeMiddleware(root)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler отдает корневой handler, удобно для httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// Тело опционально: пустой запрос запускает цикл на сохраненных
	// настройках, непустое переопределяет их на один цикл.
	var override map[string]string
	if r.Body != nil && r.ContentLength != 0 {
		decoder := json.NewDecoder(r.Body)
		if err := decoder.Decode(&override); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	result, err := s.runner.RunCycle(r.Context(), override)
	if err != nil {
		status := syncErrorStatus(err)
		s.logger.Warn().Err(err).Int("status", status).Msg("sync request failed")
		if result != nil {
			writeJSON(w, status, map[string]any{"error": err.Error(), "result": result})
			return
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

// syncErrorStatus переводит таксономию ошибок цикла в HTTP-коды.
func syncErrorStatus(err error) int {
	var cfgErr *service.ConfigError
	var upstreamErr *feed.UpstreamError
	var fetchErr *feed.FetchError

	switch {
	case errors.Is(err, service.ErrCycleInFlight):
		return http.StatusConflict
	case errors.As(err, &cfgErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &upstreamErr), errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *HTTPServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	status, err := s.runner.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *HTTPServer) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleSettingsGet(w, r)
	case http.MethodPut:
		s.handleSettingsPut(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settings.AllSettings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if settings == nil {
		settings = []models.Setting{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

func (s *HTTPServer) handleSettingsPut(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "at least one setting is required")
		return
	}

	for key := range body {
		if !isKnownSettingKey(key) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown setting key: %s", key))
			return
		}
	}

	for key, value := range body {
		if err := s.settings.SetSetting(r.Context(), key, value); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	s.logger.Info().Int("count", len(body)).Msg("settings updated via API")
	writeJSON(w, http.StatusOK, map[string]any{"updated": len(body)})
}

func isKnownSettingKey(key string) bool {
	for _, known := range models.RequiredSettingKeys {
		if key == known {
			return true
		}
	}
	return false
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusNotImplemented, "export is not configured")
		return
	}

	path, err := s.exporter.Export(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"file": path})
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// observeMiddleware пишет access-лог и счетчик запросов.
func (s *HTTPServer) observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		if s.metrics != nil {
			s.metrics.HTTPRequests.WithLabelValues(r.URL.Path, strconv.Itoa(recorder.status)).Inc()
		}
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
