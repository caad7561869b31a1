package personalization

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"focus-feed/internal/domain"
)

type stubHistory struct {
	events   []domain.WatchEvent
	feedback []domain.Feedback
}

func (s *stubHistory) SaveWatchEvent(_ context.Context, event domain.WatchEvent) (domain.WatchEvent, error) {
	return event, nil
}

func (s *stubHistory) SaveFeedback(_ context.Context, feedback domain.Feedback) (domain.Feedback, error) {
	return feedback, nil
}

func (s *stubHistory) ListWatchHistory(context.Context, int64, int, int) ([]domain.WatchEvent, int, error) {
	return s.events, len(s.events), nil
}

func (s *stubHistory) ListWatchEventsSince(context.Context, int64, time.Time) ([]domain.WatchEvent, error) {
	return s.events, nil
}

func (s *stubHistory) ListFeedbackSince(context.Context, int64, time.Time) ([]domain.Feedback, error) {
	return s.feedback, nil
}

func (s *stubHistory) WatchSecondsSince(context.Context, int64, time.Time) (int, error) {
	return 0, nil
}

func (s *stubHistory) DailyStats(context.Context, int64, time.Time) ([]domain.DailyWatchStat, error) {
	return nil, nil
}

type stubCache struct {
	categories map[string]domain.Category
}

func (s *stubCache) Get(_ context.Context, videoID string) (domain.CacheEntry, bool, error) {
	category, ok := s.categories[videoID]
	if !ok {
		return domain.CacheEntry{}, false, nil
	}
	return domain.CacheEntry{Classification: domain.Classification{Category: category}}, true, nil
}

func (s *stubCache) Put(context.Context, domain.CacheEntry, time.Duration) error {
	return nil
}

func completedEvent(videoID string) domain.WatchEvent {
	return domain.WatchEvent{VideoID: videoID, Completed: true}
}

func skippedEvent(videoID string) domain.WatchEvent {
	return domain.WatchEvent{VideoID: videoID, WasSkipped: true}
}

func TestPreferencesTopCategories(t *testing.T) {
	history := &stubHistory{events: []domain.WatchEvent{
		completedEvent("e1"), completedEvent("e2"),
		completedEvent("t1"),
		completedEvent("m1"), completedEvent("m2"), completedEvent("m3"),
		completedEvent("h1"),
		skippedEvent("g1"), skippedEvent("g2"),
	}}
	cache := &stubCache{categories: map[string]domain.Category{
		"e1": domain.CategoryEducation, "e2": domain.CategoryEducation,
		"t1": domain.CategoryScienceTech,
		"m1": domain.CategoryMusic, "m2": domain.CategoryMusic, "m3": domain.CategoryMusic,
		"h1": domain.CategoryHowtoStyle,
		"g1": domain.CategoryGaming, "g2": domain.CategoryGaming,
	}}
	service := NewService(history, cache, 0, zerolog.Nop())

	prefs, err := service.Preferences(context.Background(), 42)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(prefs.PreferredCategories) != 3 {
		t.Fatalf("ожидали топ-3 предпочитаемых, получили %d", len(prefs.PreferredCategories))
	}
	if prefs.PreferredCategories[0] != domain.CategoryMusic {
		t.Fatalf("первой должна идти самая частая категория, получили %s", prefs.PreferredCategories[0])
	}
	if prefs.PreferredCategories[1] != domain.CategoryEducation {
		t.Fatalf("второй должна идти EDUCATION, получили %s", prefs.PreferredCategories[1])
	}
	if len(prefs.AvoidedCategories) != 1 || prefs.AvoidedCategories[0] != domain.CategoryGaming {
		t.Fatalf("пропуски должны давать избегаемые категории: %+v", prefs.AvoidedCategories)
	}
}

func TestPreferencesTieBrokenByName(t *testing.T) {
	history := &stubHistory{events: []domain.WatchEvent{
		completedEvent("a1"), completedEvent("b1"),
	}}
	cache := &stubCache{categories: map[string]domain.Category{
		"a1": domain.CategoryMusic,
		"b1": domain.CategoryEducation,
	}}
	service := NewService(history, cache, 0, zerolog.Nop())

	prefs, err := service.Preferences(context.Background(), 42)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if prefs.PreferredCategories[0] != domain.CategoryEducation {
		t.Fatalf("при равенстве счётчиков порядок определяется именем: %+v", prefs.PreferredCategories)
	}
}

func TestPreferencesUnknownOnCacheMiss(t *testing.T) {
	history := &stubHistory{events: []domain.WatchEvent{completedEvent("missing")}}
	cache := &stubCache{categories: map[string]domain.Category{}}
	service := NewService(history, cache, 0, zerolog.Nop())

	prefs, err := service.Preferences(context.Background(), 42)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(prefs.PreferredCategories) != 1 || prefs.PreferredCategories[0] != "UNKNOWN" {
		t.Fatalf("промах кэша даёт категорию UNKNOWN: %+v", prefs.PreferredCategories)
	}
}

func TestPreferencesNegativeFeedback(t *testing.T) {
	history := &stubHistory{
		feedback: []domain.Feedback{
			{VideoID: "d1", Type: domain.FeedbackDislike},
			{VideoID: "n1", Type: domain.FeedbackNotInterested},
			{VideoID: "l1", Type: domain.FeedbackLike},
			{VideoID: "missing", Type: domain.FeedbackDislike},
		},
	}
	cache := &stubCache{categories: map[string]domain.Category{
		"d1": domain.CategoryComedy,
		"n1": domain.CategoryGaming,
		"l1": domain.CategoryMusic,
	}}
	service := NewService(history, cache, 0, zerolog.Nop())

	prefs, err := service.Preferences(context.Background(), 42)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(prefs.AvoidedCategories) != 2 {
		t.Fatalf("ожидали 2 избегаемые категории, получили %+v", prefs.AvoidedCategories)
	}
	for _, category := range prefs.AvoidedCategories {
		if category == domain.CategoryMusic {
			t.Fatalf("лайк не должен попадать в избегаемые")
		}
		if category == "UNKNOWN" {
			t.Fatalf("UNKNOWN не добавляется из обратной связи")
		}
	}
}

func TestRankFormula(t *testing.T) {
	history := &stubHistory{events: []domain.WatchEvent{
		completedEvent("e1"),
		skippedEvent("g1"),
	}}
	cache := &stubCache{categories: map[string]domain.Category{
		"e1": domain.CategoryEducation,
		"g1": domain.CategoryGaming,
	}}
	service := NewService(history, cache, 0, zerolog.Nop())

	items := []domain.FeedItem{
		{Video: domain.VideoMetadata{ID: "a"}, Classification: domain.Classification{Category: domain.CategoryGaming, DepthScore: 0.5, ClickbaitScore: 0.5}},
		{Video: domain.VideoMetadata{ID: "b"}, Classification: domain.Classification{Category: domain.CategoryEducation, DepthScore: 0.8, ClickbaitScore: 0.1}},
		{Video: domain.VideoMetadata{ID: "c"}, Classification: domain.Classification{Category: domain.CategoryMusic, DepthScore: 0.2, ClickbaitScore: 0.0}},
	}

	ranked, err := service.Rank(context.Background(), 42, items)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("персонализация не удаляет элементы, получили %d", len(ranked))
	}

	// b: 1.0 + 0.5 + 0.24 - 0.04 = 1.70; c: 1.0 + 0.06 = 1.06; a: 1.0 - 0.5 + 0.15 - 0.2 = 0.45.
	if ranked[0].Video.ID != "b" || ranked[1].Video.ID != "c" || ranked[2].Video.ID != "a" {
		t.Fatalf("неожиданный порядок: %s, %s, %s", ranked[0].Video.ID, ranked[1].Video.ID, ranked[2].Video.ID)
	}
	if math.Abs(ranked[0].PersonalizedScore-1.70) > 1e-9 {
		t.Fatalf("ожидали оценку 1.70, получили %v", ranked[0].PersonalizedScore)
	}
	if math.Abs(ranked[2].PersonalizedScore-0.45) > 1e-9 {
		t.Fatalf("ожидали оценку 0.45, получили %v", ranked[2].PersonalizedScore)
	}

	if items[0].PersonalizedScore != 0 {
		t.Fatalf("исходный срез не должен изменяться")
	}
}

func TestRankStableOnEqualScores(t *testing.T) {
	service := NewService(&stubHistory{}, &stubCache{categories: map[string]domain.Category{}}, 0, zerolog.Nop())

	items := []domain.FeedItem{
		{Video: domain.VideoMetadata{ID: "first"}, Classification: domain.Classification{Category: domain.CategoryMusic}},
		{Video: domain.VideoMetadata{ID: "second"}, Classification: domain.Classification{Category: domain.CategoryGaming}},
		{Video: domain.VideoMetadata{ID: "third"}, Classification: domain.Classification{Category: domain.CategoryComedy}},
	}

	ranked, err := service.Rank(context.Background(), 42, items)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	for i, id := range []string{"first", "second", "third"} {
		if ranked[i].Video.ID != id {
			t.Fatalf("равные оценки сохраняют исходный порядок, позиция %d: %s", i, ranked[i].Video.ID)
		}
	}
}

func TestRankEmptyInput(t *testing.T) {
	service := NewService(&stubHistory{}, &stubCache{categories: map[string]domain.Category{}}, 0, zerolog.Nop())

	ranked, err := service.Rank(context.Background(), 42, nil)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(ranked) != 0 {
		t.Fatalf("пустой вход даёт пустой выход")
	}
}
