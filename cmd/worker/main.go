package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"focus-feed/internal/adapters/classifier"
	"focus-feed/internal/domain"
	"focus-feed/internal/infra/cache"
	"focus-feed/internal/infra/config"
	logpkg "focus-feed/internal/infra/log"
	"focus-feed/internal/infra/metrics"
	"focus-feed/internal/infra/openai"
	"focus-feed/internal/infra/queue"
	"focus-feed/internal/usecase/classify"
)

// jobTimeout ограничивает обработку одной задачи прогрева.
const jobTimeout = 45 * time.Second

func main() {
	cfg := config.Load()
	logger := logpkg.NewLogger(cfg.AppEnv).With().Str("component", "warmup_worker").Logger()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	classificationCache := cache.NewRedisClassificationCache(redisClient)

	var warmupQueue domain.WarmupQueue
	switch cfg.Queues.Backend {
	case "amqp":
		amqpQueue, err := queue.NewAMQPWarmupQueue(cfg.Queues.AMQPURL, cfg.Queues.Warmup)
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: нет подключения к RabbitMQ")
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

	metrics.StartServer(ctx, logger, cfg.MetricsAddr)

	logger.Info().Str("queue", cfg.Queues.Warmup).Str("backend", cfg.Queues.Backend).Msg("worker: запущен")
	run(ctx, warmupQueue, classifySvc, cfg.LLM.Enabled, logger)
	logger.Info().Msg("worker: остановлен")
}

// run читает задачи из очереди до отмены контекста. Сбой классификации
// возвращает задачу брокеру на повторную доставку.
func run(ctx context.Context, warmupQueue domain.WarmupQueue, classifySvc *classify.Service, useAI bool, logger zerolog.Logger) {
	for {
		job, ack, err := warmupQueue.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			logger.Error().Err(err).Msg("worker: чтение задачи не удалось")
			continue
		}

		jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
		_, err = classifySvc.Classify(jobCtx, job.Video, classify.Options{
			ForceRefresh: job.ForceRefresh,
			UseAI:        useAI,
		})
		cancel()

		success := err == nil
		metrics.IncWarmupJob(success)
		if !success {
			logger.Warn().Err(err).Str("video_id", job.Video.ID).Msg("worker: прогрев не удался")
		}
		if ackErr := ack(success); ackErr != nil {
			logger.Error().Err(ackErr).Str("video_id", job.Video.ID).Msg("worker: подтверждение не удалось")
		}
	}
}
