package classify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"focus-feed/internal/domain"
	"focus-feed/internal/infra/metrics"
)

// DefaultCacheTTL — срок жизни записи кэша классификаций.
const DefaultCacheTTL = 24 * time.Hour

// Options управляют одним вызовом классификации.
type Options struct {
	// ForceRefresh пропускает чтение кэша и пересчитывает оценки.
	ForceRefresh bool
	// UseAI включает LLM-путь; при его сбое происходит тихий откат на эвристику.
	UseAI bool
}

// Service реализует конвейер классификации: кэш → расчёт → запись в кэш.
type Service struct {
	cache domain.ClassificationCache
	ai    domain.Classifier
	ttl   time.Duration
	log   zerolog.Logger
	now   func() time.Time
}

// NewService создаёт сервис классификации. ai может быть nil —
// тогда всегда используется эвристический каскад.
func NewService(cache domain.ClassificationCache, ai domain.Classifier, ttl time.Duration, logger zerolog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{cache: cache, ai: ai, ttl: ttl, log: logger, now: time.Now}
}

// Classify возвращает классификацию видео.
//
// Недоступность кэша не фатальна: сервис деградирует до эвристики без
// записи в кэш. Запись выполняется только после полного расчёта, поэтому
// отменённый запрос никогда не оставляет частичную запись.
func (s *Service) Classify(ctx context.Context, video domain.VideoMetadata, opts Options) (domain.Classification, error) {
	skipCacheWrite := false

	if !opts.ForceRefresh {
		entry, ok, err := s.cache.Get(ctx, video.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("video_id", video.ID).Msg("classify: кэш недоступен, работаем без него")
			skipCacheWrite = true
		} else if ok {
			metrics.IncCacheHit()
			return entry.Classification, nil
		} else {
			metrics.IncCacheMiss()
		}
	}

	classification := s.compute(ctx, video, opts)

	if err := ctx.Err(); err != nil {
		return domain.Classification{}, err
	}

	if !skipCacheWrite {
		now := s.now().UTC()
		entry := domain.CacheEntry{
			Video:          video,
			Classification: classification,
			AnalyzedAt:     now,
			ExpiresAt:      now.Add(s.ttl),
		}
		if err := s.cache.Put(ctx, entry, s.ttl); err != nil {
			s.log.Warn().Err(err).Str("video_id", video.ID).Msg("classify: запись в кэш не удалась")
		}
	}

	return classification, nil
}

func (s *Service) compute(ctx context.Context, video domain.VideoMetadata, opts Options) domain.Classification {
	if opts.UseAI && s.ai != nil {
		classification, err := s.ai.Classify(ctx, video)
		if err == nil {
			metrics.IncClassification(string(classification.Category), "llm")
			return classification
		}
		// Сбой LLM никогда не доходит до вызывающего — откатываемся на эвристику.
		metrics.IncClassificationFallback()
		s.log.Debug().Err(err).Str("video_id", video.ID).Msg("classify: откат LLM на эвристику")
	}
	classification := Heuristic(video)
	metrics.IncClassification(string(classification.Category), "heuristic")
	return classification
}
