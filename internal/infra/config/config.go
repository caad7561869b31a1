package config

import (
	"log"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`

	YouTube struct {
		APIKey  string `envconfig:"YOUTUBE_API_KEY"`
		BaseURL string `envconfig:"YOUTUBE_BASE_URL"`
		Region  string `envconfig:"YOUTUBE_REGION" default:"US"`
	} `envconfig:""`

	LLM struct {
		APIKey  string `envconfig:"LLM_API_KEY"`
		BaseURL string `envconfig:"LLM_BASE_URL"`
		Model   string `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`
		Enabled bool   `envconfig:"LLM_ENABLED" default:"false"`
	} `envconfig:""`

	Classification struct {
		CacheTTLHours int `envconfig:"CLASSIFICATION_CACHE_TTL_HOURS" default:"24"`
	} `envconfig:""`

	Queues struct {
		Backend string `envconfig:"QUEUE_BACKEND" default:"redis"`
		Warmup  string `envconfig:"WARMUP_QUEUE_KEY" default:"warmup_jobs"`
		AMQPURL string `envconfig:"AMQP_URL"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
