package classify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"focus-feed/internal/domain"
)

type stubCache struct {
	entries map[string]domain.CacheEntry
	getErr  error
	putErr  error
	puts    int
	lastTTL time.Duration
}

func newStubCache() *stubCache {
	return &stubCache{entries: map[string]domain.CacheEntry{}}
}

func (s *stubCache) Get(_ context.Context, videoID string) (domain.CacheEntry, bool, error) {
	if s.getErr != nil {
		return domain.CacheEntry{}, false, s.getErr
	}
	entry, ok := s.entries[videoID]
	return entry, ok, nil
}

func (s *stubCache) Put(_ context.Context, entry domain.CacheEntry, ttl time.Duration) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.puts++
	s.lastTTL = ttl
	s.entries[entry.Video.ID] = entry
	return nil
}

type stubAI struct {
	result domain.Classification
	err    error
	calls  int
}

func (s *stubAI) Classify(context.Context, domain.VideoMetadata) (domain.Classification, error) {
	s.calls++
	return s.result, s.err
}

func TestClassifyCacheHit(t *testing.T) {
	cache := newStubCache()
	cached := domain.Classification{Category: domain.CategoryMusic, ConfidenceScore: 0.9}
	cache.entries["v1"] = domain.CacheEntry{
		Video:          domain.VideoMetadata{ID: "v1"},
		Classification: cached,
	}
	ai := &stubAI{}
	service := NewService(cache, ai, time.Hour, zerolog.Nop())

	got, err := service.Classify(context.Background(), domain.VideoMetadata{ID: "v1", Title: "tutorial"}, Options{UseAI: true})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got != cached {
		t.Fatalf("ожидали классификацию из кэша, получили %+v", got)
	}
	if ai.calls != 0 {
		t.Fatalf("при попадании в кэш LLM не должен вызываться")
	}
}

func TestClassifyCacheMissWritesEntry(t *testing.T) {
	cache := newStubCache()
	service := NewService(cache, nil, 2*time.Hour, zerolog.Nop())

	got, err := service.Classify(context.Background(), domain.VideoMetadata{ID: "v2", Title: "python tutorial", DurationSeconds: 600}, Options{})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got.Category != domain.CategoryEducation {
		t.Fatalf("ожидали EDUCATION от эвристики, получили %s", got.Category)
	}
	if cache.puts != 1 {
		t.Fatalf("ожидали одну запись в кэш, получили %d", cache.puts)
	}
	if cache.lastTTL != 2*time.Hour {
		t.Fatalf("ожидали TTL 2h, получили %v", cache.lastTTL)
	}
	entry := cache.entries["v2"]
	if !entry.ExpiresAt.After(entry.AnalyzedAt) {
		t.Fatalf("срок истечения должен быть позже момента анализа")
	}
}

func TestClassifyForceRefreshSkipsRead(t *testing.T) {
	cache := newStubCache()
	cache.entries["v3"] = domain.CacheEntry{
		Video:          domain.VideoMetadata{ID: "v3"},
		Classification: domain.Classification{Category: domain.CategoryMusic},
	}
	service := NewService(cache, nil, time.Hour, zerolog.Nop())

	got, err := service.Classify(context.Background(), domain.VideoMetadata{ID: "v3", Title: "python tutorial", DurationSeconds: 600}, Options{ForceRefresh: true})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got.Category != domain.CategoryEducation {
		t.Fatalf("ForceRefresh должен пересчитать классификацию, получили %s", got.Category)
	}
	if cache.entries["v3"].Classification.Category != domain.CategoryEducation {
		t.Fatalf("ForceRefresh должен перезаписать кэш")
	}
}

func TestClassifyLLMPath(t *testing.T) {
	cache := newStubCache()
	ai := &stubAI{result: domain.Classification{Category: domain.CategoryPodcast, ConfidenceScore: 0.95}}
	service := NewService(cache, ai, time.Hour, zerolog.Nop())

	got, err := service.Classify(context.Background(), domain.VideoMetadata{ID: "v4", Title: "random"}, Options{UseAI: true})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got.Category != domain.CategoryPodcast {
		t.Fatalf("ожидали категорию от LLM, получили %s", got.Category)
	}
}

func TestClassifyLLMFailureFallsBackToHeuristic(t *testing.T) {
	cache := newStubCache()
	ai := &stubAI{err: errors.New("таймаут")}
	service := NewService(cache, ai, time.Hour, zerolog.Nop())

	got, err := service.Classify(context.Background(), domain.VideoMetadata{ID: "v5", Title: "minecraft gameplay", DurationSeconds: 600}, Options{UseAI: true})
	if err != nil {
		t.Fatalf("сбой LLM не должен доходить до вызывающего: %v", err)
	}
	if got.Category != domain.CategoryGaming {
		t.Fatalf("ожидали откат на эвристику, получили %s", got.Category)
	}
}

func TestClassifyCacheErrorDegrades(t *testing.T) {
	cache := newStubCache()
	cache.getErr = errors.New("redis недоступен")
	service := NewService(cache, nil, time.Hour, zerolog.Nop())

	got, err := service.Classify(context.Background(), domain.VideoMetadata{ID: "v6", Title: "comedy skit", DurationSeconds: 600}, Options{})
	if err != nil {
		t.Fatalf("недоступный кэш не должен ронять классификацию: %v", err)
	}
	if got.Category != domain.CategoryComedy {
		t.Fatalf("ожидали COMEDY, получили %s", got.Category)
	}
	if cache.puts != 0 {
		t.Fatalf("при недоступном кэше запись пропускается")
	}
}

func TestClassifyCancelledContextNoWrite(t *testing.T) {
	cache := newStubCache()
	service := NewService(cache, nil, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.Classify(ctx, domain.VideoMetadata{ID: "v7", Title: "tutorial"}, Options{})
	if err == nil {
		t.Fatalf("ожидали ошибку отменённого контекста")
	}
	if cache.puts != 0 {
		t.Fatalf("отменённый запрос не должен писать в кэш")
	}
}
