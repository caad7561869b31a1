package personalization

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"focus-feed/internal/domain"
)

// DefaultLookback — окно анализа истории просмотров.
const DefaultLookback = 30 * 24 * time.Hour

// categoryUnknown присваивается событиям, для которых классификация
// не найдена в кэше (как и в выборке с внешним соединением).
const categoryUnknown = domain.Category("UNKNOWN")

// Service выводит мягкие предпочтения из истории просмотров и отзывов
// и переупорядочивает ленту. Никогда не удаляет элементы.
type Service struct {
	history  domain.HistoryRepo
	cache    domain.ClassificationCache
	lookback time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// NewService создаёт сервис персонализации.
func NewService(history domain.HistoryRepo, cache domain.ClassificationCache, lookback time.Duration, logger zerolog.Logger) *Service {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Service{history: history, cache: cache, lookback: lookback, log: logger, now: time.Now}
}

var _ domain.Personalizer = (*Service)(nil)

// Preferences вычисляет предпочтения: топ-3 категории по завершённым
// просмотрам и топ-3 по пропускам, дополненные категориями с явной
// негативной обратной связью.
func (s *Service) Preferences(ctx context.Context, userID int64) (domain.Preferences, error) {
	since := s.now().UTC().Add(-s.lookback)

	events, err := s.history.ListWatchEventsSince(ctx, userID, since)
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("история просмотров: %w", err)
	}

	completed := make(map[domain.Category]int)
	skipped := make(map[domain.Category]int)
	for _, event := range events {
		category := s.categoryOf(ctx, event.VideoID)
		if event.Completed {
			completed[category]++
		}
		if event.WasSkipped {
			skipped[category]++
		}
	}

	prefs := domain.Preferences{
		PreferredCategories: topCategories(completed, 3),
		AvoidedCategories:   topCategories(skipped, 3),
	}

	feedback, err := s.history.ListFeedbackSince(ctx, userID, since)
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("обратная связь: %w", err)
	}
	for _, fb := range feedback {
		if fb.Type != domain.FeedbackDislike && fb.Type != domain.FeedbackNotInterested {
			continue
		}
		category := s.categoryOf(ctx, fb.VideoID)
		if category == categoryUnknown {
			continue
		}
		if !contains(prefs.AvoidedCategories, category) {
			prefs.AvoidedCategories = append(prefs.AvoidedCategories, category)
		}
	}

	return prefs, nil
}

// Rank переоценивает и стабильно сортирует ленту по убыванию оценки.
// Базовая оценка 1.0, ±0.5 за предпочитаемую/избегаемую категорию,
// +0.3·depth, −0.4·clickbait. Равные оценки сохраняют исходный порядок.
func (s *Service) Rank(ctx context.Context, userID int64, items []domain.FeedItem) ([]domain.FeedItem, error) {
	if len(items) == 0 {
		return items, nil
	}
	prefs, err := s.Preferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	ranked := make([]domain.FeedItem, len(items))
	copy(ranked, items)
	for i := range ranked {
		score := 1.0
		category := ranked[i].Classification.Category
		if contains(prefs.PreferredCategories, category) {
			score += 0.5
		}
		if contains(prefs.AvoidedCategories, category) {
			score -= 0.5
		}
		score += ranked[i].Classification.DepthScore * 0.3
		score -= ranked[i].Classification.ClickbaitScore * 0.4
		ranked[i].PersonalizedScore = score
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PersonalizedScore > ranked[j].PersonalizedScore
	})
	return ranked, nil
}

func (s *Service) categoryOf(ctx context.Context, videoID string) domain.Category {
	entry, ok, err := s.cache.Get(ctx, videoID)
	if err != nil {
		s.log.Debug().Err(err).Str("video_id", videoID).Msg("personalization: кэш недоступен")
		return categoryUnknown
	}
	if !ok {
		return categoryUnknown
	}
	return entry.Classification.Category
}

// topCategories возвращает до limit категорий по убыванию счётчика.
// При равенстве порядок детерминирован именем категории.
func topCategories(counts map[domain.Category]int, limit int) []domain.Category {
	categories := make([]domain.Category, 0, len(counts))
	for category := range counts {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		if counts[categories[i]] != counts[categories[j]] {
			return counts[categories[i]] > counts[categories[j]]
		}
		return categories[i] < categories[j]
	})
	if len(categories) > limit {
		categories = categories[:limit]
	}
	return categories
}

func contains(set []domain.Category, category domain.Category) bool {
	for _, c := range set {
		if c == category {
			return true
		}
	}
	return false
}
