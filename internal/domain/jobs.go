package domain

import (
	"context"
	"time"
)

// WarmupJobCause описывает источник задачи прогрева кэша.
type WarmupJobCause string

const (
	// WarmupCauseFeed — видео попало в выборку ленты, но не было обработано.
	WarmupCauseFeed WarmupJobCause = "feed"
	// WarmupCauseManual — прогрев запрошен вручную.
	WarmupCauseManual WarmupJobCause = "manual"
)

// WarmupJob — задача предварительной классификации видео.
// Несёт полные метаданные, чтобы воркер не ходил за ними повторно.
type WarmupJob struct {
	Video        VideoMetadata  `json:"video"`
	ForceRefresh bool           `json:"force_refresh,omitempty"`
	RequestedAt  time.Time      `json:"requested_at"`
	Cause        WarmupJobCause `json:"cause"`
}

// WarmupAckFunc подтверждает обработку задачи или запрашивает повтор доставки.
type WarmupAckFunc func(success bool) error

// WarmupQueue описывает очередь задач прогрева кэша классификаций.
type WarmupQueue interface {
	Enqueue(ctx context.Context, job WarmupJob) error
	Receive(ctx context.Context) (WarmupJob, WarmupAckFunc, error)
}
