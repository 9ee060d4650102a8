// Package metrics предоставляет Prometheus метрики сервиса.
// Содержит базовые HTTP метрики (requests, latency) и доменные счётчики
// оформлений заказов и взвешиваний, плюс HTTP server для /metrics endpoint.
//
// Использование:
//
//	go metrics.StartServer(":9090")
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/bagstore/pkg/logger"
)

var (
	// RequestsTotal — счётчик HTTP запросов по методу и статусу.
	// PromQL пример: rate(bagstore_requests_total[5m]) — RPS за 5 минут
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bagstore_requests_total",
			Help: "Общее количество HTTP запросов по методу и статусу",
		},
		[]string{"method", "status"},
	)

	// RequestDuration — гистограмма latency запросов.
	// PromQL пример: histogram_quantile(0.95, rate(bagstore_request_duration_seconds_bucket[5m]))
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bagstore_request_duration_seconds",
			Help:    "Время выполнения HTTP запроса в секундах",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)

	// CheckoutsTotal — счётчик оформленных заказов по результату.
	// result: "success", "error", "empty_cart", "draft_fallback"
	CheckoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bagstore_checkouts_total",
			Help: "Количество оформлений заказа по результату",
		},
		[]string{"result"},
	)

	// WeighingsTotal — счётчик взвешиваний позиций заказа по результату.
	// result: "success", "rejected", "error"
	WeighingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bagstore_weighings_total",
			Help: "Количество взвешиваний позиций заказа по результату",
		},
		[]string{"result"},
	)

	// PricingCacheHits — счётчик обращений к кэшу прайса.
	// outcome: "hit", "miss", "bypass"
	PricingCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bagstore_pricing_cache_total",
			Help: "Обращения к Redis кэшу разрешённых цен",
		},
		[]string{"outcome"},
	)
)

// ReadinessChecker — функция проверки готовности сервиса.
// Возвращает nil если сервис готов принимать трафик, иначе — ошибку.
type ReadinessChecker func(ctx context.Context) error

// Server — HTTP сервер для экспорта метрик Prometheus.
type Server struct {
	httpServer     *http.Server
	readinessCheck ReadinessChecker
}

// Option — функциональная опция для настройки Server.
type Option func(*Server)

// WithReadinessCheck добавляет проверку готовности для /readyz endpoint.
// Если checker возвращает ошибку — /readyz вернёт 503 Service Unavailable.
func WithReadinessCheck(checker ReadinessChecker) Option {
	return func(s *Server) {
		s.readinessCheck = checker
	}
}

// NewServer создаёт metrics server на указанном адресе.
func NewServer(addr string, opts ...Option) *Server {
	s := &Server{}

	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()

	// /metrics — endpoint для Prometheus
	mux.Handle("/metrics", promhttp.Handler())

	// /health — простой health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// /healthz — liveness probe для Kubernetes
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"alive"}`))
	})

	// /readyz — readiness probe для Kubernetes
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if s.readinessCheck == nil {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ready"}`))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := s.readinessCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			// Детали ошибки наружу не выводим
			_, _ = w.Write([]byte(`{"status":"not_ready"}`))
			logger.Warn().Err(err).Msg("Readiness check провалился")
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Start запускает HTTP сервер для метрик.
// Блокирующий вызов — запускать в горутине.
func (s *Server) Start() error {
	logger.Info().Str("addr", s.httpServer.Addr).Msg("Запуск Metrics Server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully останавливает сервер.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// RecordRequest записывает метрики запроса (вызывать в конце обработки).
func RecordRequest(method, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, status).Inc()
	RequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// GinMetricsMiddleware возвращает Gin middleware для сбора HTTP метрик.
func GinMetricsMiddleware() func(c *gin.Context) {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := "success"
		if c.Writer.Status() >= 400 {
			status = "error"
		}

		RecordRequest(c.FullPath(), status, time.Since(start))
	}
}
