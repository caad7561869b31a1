package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"focus-feed/internal/domain"
	"focus-feed/internal/infra/metrics"
)

const classificationKeyPrefix = "classification:"

// RedisClassificationCache реализует domain.ClassificationCache через Redis.
// Записи хранятся как JSON со сроком жизни, истечением управляет сам Redis.
type RedisClassificationCache struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisClassificationCache создаёт кэш классификаций.
func NewRedisClassificationCache(client *redis.Client) *RedisClassificationCache {
	return &RedisClassificationCache{client: client, now: time.Now}
}

var _ domain.ClassificationCache = (*RedisClassificationCache)(nil)

type cacheEntryPayload struct {
	Video          videoPayload          `json:"video"`
	Classification classificationPayload `json:"classification"`
	AnalyzedAt     time.Time             `json:"analyzed_at"`
	ExpiresAt      time.Time             `json:"expires_at"`
}

type videoPayload struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	ChannelID       string    `json:"channel_id,omitempty"`
	ChannelTitle    string    `json:"channel_title,omitempty"`
	DurationSeconds int       `json:"duration_seconds"`
	Language        string    `json:"language,omitempty"`
	ViewCount       int64     `json:"view_count"`
	LikeCount       int64     `json:"like_count"`
	PublishedAt     time.Time `json:"published_at"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	IsShort         bool      `json:"is_short"`
}

type classificationPayload struct {
	Category           string  `json:"category"`
	ConfidenceScore    float64 `json:"confidence_score"`
	EntertainmentScore float64 `json:"entertainment_score"`
	DepthScore         float64 `json:"depth_score"`
	ClickbaitScore     float64 `json:"clickbait_score"`
}

// Get возвращает запись кэша. Истёкшая запись считается отсутствующей,
// даже если Redis ещё не успел её вычистить.
func (c *RedisClassificationCache) Get(ctx context.Context, videoID string) (domain.CacheEntry, bool, error) {
	start := time.Now()
	raw, err := c.client.Get(ctx, classificationKeyPrefix+videoID).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.ObserveNetworkRequest("redis", "classification_get", "classification", start, nil)
		return domain.CacheEntry{}, false, nil
	}
	metrics.ObserveNetworkRequest("redis", "classification_get", "classification", start, err)
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("чтение кэша: %w", err)
	}

	var payload cacheEntryPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("распаковка записи кэша: %w", err)
	}
	entry := payload.toEntry()
	if entry.Expired(c.now().UTC()) {
		return domain.CacheEntry{}, false, nil
	}
	return entry, true, nil
}

// Put сохраняет запись кэша с TTL.
func (c *RedisClassificationCache) Put(ctx context.Context, entry domain.CacheEntry, ttl time.Duration) error {
	raw, err := json.Marshal(toPayload(entry))
	if err != nil {
		return fmt.Errorf("упаковка записи кэша: %w", err)
	}
	start := time.Now()
	err = c.client.Set(ctx, classificationKeyPrefix+entry.Video.ID, raw, ttl).Err()
	metrics.ObserveNetworkRequest("redis", "classification_set", "classification", start, err)
	if err != nil {
		return fmt.Errorf("запись кэша: %w", err)
	}
	return nil
}

func toPayload(entry domain.CacheEntry) cacheEntryPayload {
	return cacheEntryPayload{
		Video: videoPayload{
			ID:              entry.Video.ID,
			Title:           entry.Video.Title,
			Description:     entry.Video.Description,
			Tags:            entry.Video.Tags,
			ChannelID:       entry.Video.ChannelID,
			ChannelTitle:    entry.Video.ChannelTitle,
			DurationSeconds: entry.Video.DurationSeconds,
			Language:        entry.Video.Language,
			ViewCount:       entry.Video.ViewCount,
			LikeCount:       entry.Video.LikeCount,
			PublishedAt:     entry.Video.PublishedAt,
			ThumbnailURL:    entry.Video.ThumbnailURL,
			IsShort:         entry.Video.IsShort,
		},
		Classification: classificationPayload{
			Category:           string(entry.Classification.Category),
			ConfidenceScore:    entry.Classification.ConfidenceScore,
			EntertainmentScore: entry.Classification.EntertainmentScore,
			DepthScore:         entry.Classification.DepthScore,
			ClickbaitScore:     entry.Classification.ClickbaitScore,
		},
		AnalyzedAt: entry.AnalyzedAt,
		ExpiresAt:  entry.ExpiresAt,
	}
}

func (p cacheEntryPayload) toEntry() domain.CacheEntry {
	return domain.CacheEntry{
		Video: domain.VideoMetadata{
			ID:              p.Video.ID,
			Title:           p.Video.Title,
			Description:     p.Video.Description,
			Tags:            p.Video.Tags,
			ChannelID:       p.Video.ChannelID,
			ChannelTitle:    p.Video.ChannelTitle,
			DurationSeconds: p.Video.DurationSeconds,
			Language:        p.Video.Language,
			ViewCount:       p.Video.ViewCount,
			LikeCount:       p.Video.LikeCount,
			PublishedAt:     p.Video.PublishedAt,
			ThumbnailURL:    p.Video.ThumbnailURL,
			IsShort:         p.Video.IsShort,
		},
		Classification: domain.Classification{
			Category:           domain.Category(p.Classification.Category),
			ConfidenceScore:    p.Classification.ConfidenceScore,
			EntertainmentScore: p.Classification.EntertainmentScore,
			DepthScore:         p.Classification.DepthScore,
			ClickbaitScore:     p.Classification.ClickbaitScore,
		},
		AnalyzedAt: p.AnalyzedAt,
		ExpiresAt:  p.ExpiresAt,
	}
}
