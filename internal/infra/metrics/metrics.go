package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	ClassificationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "classification_total",
		Help: "Количество классификаций по категориям и методу",
	}, []string{"category", "method"})

	ClassificationFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "classification_fallback_total",
		Help: "Количество откатов LLM-классификации на эвристику",
	})

	ClassificationCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "classification_cache_total",
		Help: "Попадания и промахи кэша классификаций",
	}, []string{"result"})

	FeedRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feed_requests_total",
		Help: "Общее количество запросов ленты",
	})

	FeedBlockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feed_blocked_videos_total",
		Help: "Количество видео, отфильтрованных из ленты",
	})

	WarmupJobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warmup_jobs_total",
		Help: "Обработанные задачи прогрева кэша по статусу",
	}, []string{"status"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30, 60, 120},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})

	LLMGenerationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_generation_duration_seconds",
		Help:    "Длительность генерации ответа LLM",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	LLMTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_tokens_total",
		Help: "Количество токенов, использованных LLM",
	}, []string{"model", "type"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		ClassificationTotal,
		ClassificationFallbackTotal,
		ClassificationCacheTotal,
		FeedRequestsTotal,
		FeedBlockedTotal,
		WarmupJobsTotal,
		NetworkRequestDuration,
		NetworkRequestTotal,
		LLMGenerationDuration,
		LLMTokensTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveLLMGeneration записывает длительность и токены генерации LLM.
func ObserveLLMGeneration(model string, duration time.Duration, promptTokens, completionTokens, totalTokens int) {
	if model == "" {
		model = "unknown"
	}
	LLMGenerationDuration.WithLabelValues(model).Observe(duration.Seconds())
	if promptTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "completion").Add(float64(completionTokens))
	}
	if totalTokens <= 0 {
		totalTokens = promptTokens + completionTokens
	}
	if totalTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "total").Add(float64(totalTokens))
	}
}

// IncClassification увеличивает счётчик классификаций.
func IncClassification(category, method string) {
	ClassificationTotal.WithLabelValues(category, method).Inc()
}

// IncClassificationFallback увеличивает счётчик откатов на эвристику.
func IncClassificationFallback() {
	ClassificationFallbackTotal.Inc()
}

// IncCacheHit увеличивает счётчик попаданий в кэш классификаций.
func IncCacheHit() {
	ClassificationCacheTotal.WithLabelValues("hit").Inc()
}

// IncCacheMiss увеличивает счётчик промахов кэша классификаций.
func IncCacheMiss() {
	ClassificationCacheTotal.WithLabelValues("miss").Inc()
}

// IncFeedRequest увеличивает счётчик запросов ленты.
func IncFeedRequest() {
	FeedRequestsTotal.Inc()
}

// AddFeedBlocked увеличивает счётчик отфильтрованных видео.
func AddFeedBlocked(count int) {
	if count > 0 {
		FeedBlockedTotal.Add(float64(count))
	}
}

// IncWarmupJob увеличивает счётчик обработанных задач прогрева.
func IncWarmupJob(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	WarmupJobsTotal.WithLabelValues(status).Inc()
}
