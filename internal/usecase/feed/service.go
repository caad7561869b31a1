package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"focus-feed/internal/domain"
	"focus-feed/internal/usecase/classify"
	"focus-feed/internal/usecase/filter"
)

// DefaultMaxResults — размер страницы ленты по умолчанию.
const DefaultMaxResults = 20

// MaxMaxResults — верхняя граница размера страницы.
const MaxMaxResults = 50

// ModeProvider отдаёт активный фокус-режим пользователя.
type ModeProvider interface {
	ActiveMode(ctx context.Context, userID int64) (domain.FocusMode, error)
}

// ClassifyService — конвейер классификации с кэшем.
type ClassifyService interface {
	Classify(ctx context.Context, video domain.VideoMetadata, opts classify.Options) (domain.Classification, error)
}

// Service собирает отфильтрованную ленту: активный режим → выборка видео →
// классификация → фильтр → персонализация. Видео, выбранные, но не успевшие
// в страницу, уходят в очередь прогрева кэша.
type Service struct {
	modes      ModeProvider
	source     domain.VideoSource
	fallback   domain.VideoSource
	classifier ClassifyService
	ranker     domain.Personalizer
	warmup     domain.WarmupQueue
	useAI      bool
	log        zerolog.Logger
	now        func() time.Time
}

// NewService создаёт сервис ленты. fallback, ranker и warmup могут быть nil.
func NewService(
	modes ModeProvider,
	source domain.VideoSource,
	fallback domain.VideoSource,
	classifier ClassifyService,
	ranker domain.Personalizer,
	warmup domain.WarmupQueue,
	useAI bool,
	logger zerolog.Logger,
) *Service {
	return &Service{
		modes:      modes,
		source:     source,
		fallback:   fallback,
		classifier: classifier,
		ranker:     ranker,
		warmup:     warmup,
		useAI:      useAI,
		log:        logger,
		now:        time.Now,
	}
}

// Build возвращает страницу ленты под активным режимом.
// Без активного режима лента не существует: ErrNoActiveMode уходит вызывающему.
func (s *Service) Build(ctx context.Context, userID int64, maxResults int, pageToken string) (domain.FeedPage, error) {
	mode, err := s.modes.ActiveMode(ctx, userID)
	if err != nil {
		return domain.FeedPage{}, err
	}
	maxResults = clampPageSize(maxResults)

	list, err := s.fetch(ctx, mode, maxResults, pageToken)
	if err != nil {
		if s.fallback == nil {
			return domain.FeedPage{}, fmt.Errorf("выборка видео: %w", err)
		}
		s.log.Warn().Err(err).Msg("feed: источник недоступен, переключаемся на резервный")
		list, err = s.fetchFrom(ctx, s.fallback, mode, maxResults, pageToken)
		if err != nil {
			return domain.FeedPage{}, fmt.Errorf("резервный источник: %w", err)
		}
	}

	page, err := s.assemble(ctx, userID, mode, list, maxResults)
	if err != nil {
		return domain.FeedPage{}, err
	}
	page.NextPageToken = list.NextPageToken
	return page, nil
}

// Search возвращает результаты поиска, пропущенные через фильтры активного
// режима. Резервный источник не используется: сбой поиска виден пользователю.
func (s *Service) Search(ctx context.Context, userID int64, query string, maxResults int, pageToken string) (domain.FeedPage, error) {
	mode, err := s.modes.ActiveMode(ctx, userID)
	if err != nil {
		return domain.FeedPage{}, err
	}
	maxResults = clampPageSize(maxResults)

	list, err := s.source.Search(ctx, query, maxResults*2, pageToken)
	if err != nil {
		return domain.FeedPage{}, fmt.Errorf("поиск видео: %w", err)
	}

	page, err := s.assemble(ctx, userID, mode, list, maxResults)
	if err != nil {
		return domain.FeedPage{}, err
	}
	page.NextPageToken = list.NextPageToken
	return page, nil
}

// VideoDetails — карточка одного видео: метаданные, классификация и вердикт
// фильтра, если у пользователя есть активный режим.
type VideoDetails struct {
	Video          domain.VideoMetadata
	Classification domain.Classification
	Verdict        domain.FilterVerdict
}

// CheckVideo загружает видео, классифицирует его и проверяет фильтрами
// активного режима. requireMode управляет реакцией на отсутствие режима:
// проверка фильтра без режима бессмысленна, а карточка видео — нет.
func (s *Service) CheckVideo(ctx context.Context, userID int64, videoID string, requireMode bool) (VideoDetails, error) {
	mode, err := s.modes.ActiveMode(ctx, userID)
	hasMode := err == nil
	if err != nil {
		if requireMode || !errors.Is(err, domain.ErrNoActiveMode) {
			return VideoDetails{}, err
		}
	}

	video, found, err := s.source.VideoByID(ctx, videoID)
	if err != nil {
		return VideoDetails{}, fmt.Errorf("загрузка видео: %w", err)
	}
	if !found {
		return VideoDetails{}, domain.ErrVideoNotFound
	}

	classification, err := s.classifier.Classify(ctx, video, classify.Options{UseAI: s.useAI})
	if err != nil {
		return VideoDetails{}, fmt.Errorf("классификация: %w", err)
	}

	verdict := domain.FilterVerdict{Allowed: true}
	if hasMode {
		verdict = filter.NewEngine(mode).Evaluate(video, classification)
	}
	return VideoDetails{Video: video, Classification: classification, Verdict: verdict}, nil
}

func (s *Service) fetch(ctx context.Context, mode domain.FocusMode, maxResults int, pageToken string) (domain.VideoList, error) {
	return s.fetchFrom(ctx, s.source, mode, maxResults, pageToken)
}

// fetchFrom выбирает стратегию: разрешённые категории становятся поисковым
// запросом (первые две), иначе берётся лента популярного. Запрашивается
// двойной объём с запасом на фильтрацию.
func (s *Service) fetchFrom(ctx context.Context, source domain.VideoSource, mode domain.FocusMode, maxResults int, pageToken string) (domain.VideoList, error) {
	if len(mode.AllowedCategories) > 0 {
		terms := mode.AllowedCategories
		if len(terms) > 2 {
			terms = terms[:2]
		}
		parts := make([]string, len(terms))
		for i, c := range terms {
			parts[i] = string(c)
		}
		return source.Search(ctx, strings.Join(parts, " "), maxResults*2, pageToken)
	}
	return source.MostPopular(ctx, maxResults*2, pageToken)
}

// assemble прогоняет выборку через классификацию и фильтр, затем
// переупорядочивает допущенное. Порядок до персонализации — порядок источника.
func (s *Service) assemble(ctx context.Context, userID int64, mode domain.FocusMode, list domain.VideoList, maxResults int) (domain.FeedPage, error) {
	engine := filter.NewEngine(mode)

	items := make([]domain.FeedItem, 0, maxResults)
	filtered := 0
	leftover := 0

	for i, video := range list.Items {
		if len(items) >= maxResults {
			// Страница набрана; остаток греем в фоне, чтобы следующая
			// страница собиралась из кэша.
			leftover = len(list.Items) - i
			s.enqueueWarmup(ctx, list.Items[i:])
			break
		}

		classification, err := s.classifier.Classify(ctx, video, classify.Options{UseAI: s.useAI})
		if err != nil {
			return domain.FeedPage{}, fmt.Errorf("классификация %s: %w", video.ID, err)
		}

		verdict := engine.Evaluate(video, classification)
		if !verdict.Allowed {
			filtered++
			continue
		}
		items = append(items, domain.FeedItem{Video: video, Classification: classification})
	}

	if s.ranker != nil && len(items) > 1 {
		ranked, err := s.ranker.Rank(ctx, userID, items)
		if err != nil {
			// Персонализация — мягкий слой: её сбой не должен ронять ленту.
			s.log.Warn().Err(err).Int64("user_id", userID).Msg("feed: персонализация пропущена")
		} else {
			items = ranked
		}
	}

	if leftover > 0 {
		s.log.Debug().Int("count", leftover).Msg("feed: остаток выборки отправлен на прогрев")
	}
	return domain.FeedPage{
		Items:         items,
		TotalResults:  len(items) + filtered,
		FilteredCount: filtered,
	}, nil
}

func (s *Service) enqueueWarmup(ctx context.Context, videos []domain.VideoMetadata) {
	if s.warmup == nil {
		return
	}
	requestedAt := s.now().UTC()
	for _, video := range videos {
		job := domain.WarmupJob{Video: video, RequestedAt: requestedAt, Cause: domain.WarmupCauseFeed}
		if err := s.warmup.Enqueue(ctx, job); err != nil {
			s.log.Warn().Err(err).Str("video_id", video.ID).Msg("feed: постановка прогрева не удалась")
			return
		}
	}
}

func clampPageSize(maxResults int) int {
	if maxResults <= 0 {
		return DefaultMaxResults
	}
	if maxResults > MaxMaxResults {
		return MaxMaxResults
	}
	return maxResults
}
