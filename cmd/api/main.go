package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"focus-feed/internal/adapters/classifier"
	"focus-feed/internal/adapters/repo"
	"focus-feed/internal/adapters/source"
	"focus-feed/internal/domain"
	"focus-feed/internal/infra/cache"
	"focus-feed/internal/infra/config"
	"focus-feed/internal/infra/db"
	httpinfra "focus-feed/internal/infra/http"
	logpkg "focus-feed/internal/infra/log"
	"focus-feed/internal/infra/metrics"
	"focus-feed/internal/infra/openai"
	"focus-feed/internal/infra/queue"
	"focus-feed/internal/usecase/analytics"
	"focus-feed/internal/usecase/classify"
	"focus-feed/internal/usecase/feed"
	"focus-feed/internal/usecase/personalization"
	"focus-feed/internal/usecase/session"
)

func main() {
	cfg := config.Load()
	logger := logpkg.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()
	repoAdapter := repo.NewPostgres(pool)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	classificationCache := cache.NewRedisClassificationCache(redisClient)

	var warmupQueue domain.WarmupQueue
	switch cfg.Queues.Backend {
	case "amqp":
		amqpQueue, err := queue.NewAMQPWarmupQueue(cfg.Queues.AMQPURL, cfg.Queues.Warmup)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: нет подключения к RabbitMQ")
		}
		defer amqpQueue.Close()
		warmupQueue = amqpQueue
	default:
		warmupQueue = queue.NewRedisWarmupQueue(redisClient, cfg.Queues.Warmup)
	}

	var aiClassifier domain.Classifier
	if cfg.LLM.Enabled && cfg.LLM.APIKey != "" {
		llmClient := openai.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, 60*time.Second)
		aiClassifier = classifier.NewLLM(llmClient, cfg.LLM.Model, 30*time.Second)
	}

	cacheTTL := time.Duration(cfg.Classification.CacheTTLHours) * time.Hour
	classifySvc := classify.NewService(classificationCache, aiClassifier, cacheTTL,
		logger.With().Str("component", "classify").Logger())

	sessionSvc := session.NewService(repoAdapter, repoAdapter,
		logger.With().Str("component", "session").Logger())
	personalSvc := personalization.NewService(repoAdapter, classificationCache, 0,
		logger.With().Str("component", "personalization").Logger())
	analyticsSvc := analytics.NewService(repoAdapter, repoAdapter, personalSvc,
		logger.With().Str("component", "analytics").Logger())

	demoSource := source.NewDemo()
	var videoSource domain.VideoSource = demoSource
	var fallback domain.VideoSource
	youtube := source.NewYouTube(cfg.YouTube.APIKey, cfg.YouTube.BaseURL, cfg.YouTube.Region, 30*time.Second)
	if youtube.Configured() {
		videoSource = youtube
		fallback = demoSource
	} else {
		logger.Warn().Msg("api: YouTube API не настроен, используется синтетический источник")
	}

	feedSvc := feed.NewService(sessionSvc, videoSource, fallback, classifySvc, personalSvc,
		warmupQueue, cfg.LLM.Enabled, logger.With().Str("component", "feed").Logger())

	metrics.StartServer(ctx, logger, cfg.MetricsAddr)

	srv := httpinfra.NewServer(logger)
	h := newHandler(sessionSvc, feedSvc, analyticsSvc, logger)
	h.register(srv.Router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(fmt.Sprintf(":%d", cfg.Port))
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("api: завершение сервера не удалось")
		}
	case err := <-errCh:
		logger.Fatal().Err(err).Msg("api: сервер остановился")
	}
}
