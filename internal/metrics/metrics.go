package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics структура для метрик Prometheus
type Metrics struct {
	CyclesTotal    *prometheus.CounterVec
	CycleDuration  prometheus.Histogram
	ItemsExamined  prometheus.Counter
	ItemsDelivered prometheus.Counter
	ItemsSkipped   prometheus.Counter
	ItemErrors     prometheus.Counter
	HTTPRequests   *prometheus.CounterVec
}

var (
	once     sync.Once
	instance *Metrics
)

// New создает метрики. Регистрация в default registry происходит
// один раз на процесс, повторные вызовы отдают тот же набор.
func New() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			CyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "postovik_sync_cycles_total",
				Help: "Sync cycles by terminal state.",
			}, []string{"state"}),

			CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "postovik_sync_cycle_duration_seconds",
				Help:    "Time spent running a sync cycle.",
				Buckets: prometheus.DefBuckets,
			}),

			ItemsExamined: promauto.NewCounter(prometheus.CounterOpts{
				Name: "postovik_items_examined_total",
				Help: "Feed items examined across cycles.",
			}),

			ItemsDelivered: promauto.NewCounter(prometheus.CounterOpts{
				Name: "postovik_items_delivered_total",
				Help: "Feed items delivered to the channel.",
			}),

			ItemsSkipped: promauto.NewCounter(prometheus.CounterOpts{
				Name: "postovik_items_skipped_total",
				Help: "Feed items skipped as already synced.",
			}),

			ItemErrors: promauto.NewCounter(prometheus.CounterOpts{
				Name: "postovik_item_errors_total",
				Help: "Per-item failures isolated inside cycles.",
			}),

			HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "postovik_http_requests_total",
				Help: "HTTP requests by endpoint and status.",
			}, []string{"endpoint", "status"}),
		}
	})
	return instance
}
