package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Classifier превращает метаданные видео в классификацию.
type Classifier interface {
	Classify(ctx context.Context, video VideoMetadata) (Classification, error)
}

// ClassificationCache — шлюз кэша оценок с TTL.
// Запись, которая есть, но истекла, трактуется как отсутствующая.
type ClassificationCache interface {
	Get(ctx context.Context, videoID string) (CacheEntry, bool, error)
	Put(ctx context.Context, entry CacheEntry, ttl time.Duration) error
}

// ModeRepo управляет фокус-режимами и их правилами.
type ModeRepo interface {
	ListModes(ctx context.Context, userID int64) ([]FocusMode, error)
	GetMode(ctx context.Context, userID int64, modeID uuid.UUID) (FocusMode, error)
	GetActiveMode(ctx context.Context, userID int64) (FocusMode, error)
	CreateMode(ctx context.Context, mode FocusMode) (FocusMode, error)
	UpdateMode(ctx context.Context, mode FocusMode) error
	// DeleteMode удаляет режим вместе с его правилами.
	DeleteMode(ctx context.Context, userID int64, modeID uuid.UUID) error
	DeleteAllModes(ctx context.Context, userID int64) error
	// DeactivateAll снимает активность и блокировки со всех режимов пользователя.
	DeactivateAll(ctx context.Context, userID int64) error

	ListRules(ctx context.Context, modeID uuid.UUID) ([]FilterRule, error)
	CreateRule(ctx context.Context, rule FilterRule) (FilterRule, error)
}

// HistoryRepo хранит события просмотра и обратную связь.
type HistoryRepo interface {
	SaveWatchEvent(ctx context.Context, event WatchEvent) (WatchEvent, error)
	SaveFeedback(ctx context.Context, feedback Feedback) (Feedback, error)
	ListWatchHistory(ctx context.Context, userID int64, limit, offset int) ([]WatchEvent, int, error)
	ListWatchEventsSince(ctx context.Context, userID int64, since time.Time) ([]WatchEvent, error)
	ListFeedbackSince(ctx context.Context, userID int64, since time.Time) ([]Feedback, error)
	// WatchSecondsSince возвращает суммарное время просмотра с указанного момента.
	WatchSecondsSince(ctx context.Context, userID int64, since time.Time) (int, error)
	DailyStats(ctx context.Context, userID int64, since time.Time) ([]DailyWatchStat, error)
}

// VideoSource поставляет метаданные видео. Ядро само ничего не скачивает.
type VideoSource interface {
	Search(ctx context.Context, query string, maxResults int, pageToken string) (VideoList, error)
	MostPopular(ctx context.Context, maxResults int, pageToken string) (VideoList, error)
	VideoByID(ctx context.Context, videoID string) (VideoMetadata, bool, error)
}

// Personalizer переупорядочивает допущенные видео по предпочтениям пользователя.
// Никогда не удаляет элементы — жёсткая фильтрация остаётся за фильтр-движком.
type Personalizer interface {
	Rank(ctx context.Context, userID int64, items []FeedItem) ([]FeedItem, error)
}
