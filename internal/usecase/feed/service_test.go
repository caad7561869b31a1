package feed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"focus-feed/internal/domain"
	"focus-feed/internal/usecase/classify"
)

type stubModes struct {
	mode domain.FocusMode
	err  error
}

func (s *stubModes) ActiveMode(context.Context, int64) (domain.FocusMode, error) {
	return s.mode, s.err
}

type stubSource struct {
	list        domain.VideoList
	searchErr   error
	popularErr  error
	byID        map[string]domain.VideoMetadata
	lastQuery   string
	searchCalls int
	popCalls    int
}

func (s *stubSource) Search(_ context.Context, query string, _ int, _ string) (domain.VideoList, error) {
	s.searchCalls++
	s.lastQuery = query
	if s.searchErr != nil {
		return domain.VideoList{}, s.searchErr
	}
	return s.list, nil
}

func (s *stubSource) MostPopular(context.Context, int, string) (domain.VideoList, error) {
	s.popCalls++
	if s.popularErr != nil {
		return domain.VideoList{}, s.popularErr
	}
	return s.list, nil
}

func (s *stubSource) VideoByID(_ context.Context, videoID string) (domain.VideoMetadata, bool, error) {
	video, ok := s.byID[videoID]
	return video, ok, nil
}

// stubClassifier раздаёт заранее заданные классификации по ID видео.
type stubClassifier struct {
	byID map[string]domain.Classification
	err  error
}

func (s *stubClassifier) Classify(_ context.Context, video domain.VideoMetadata, _ classify.Options) (domain.Classification, error) {
	if s.err != nil {
		return domain.Classification{}, s.err
	}
	if c, ok := s.byID[video.ID]; ok {
		return c, nil
	}
	return domain.Classification{Category: domain.CategoryEducation}, nil
}

type stubRanker struct {
	err   error
	calls int
}

func (s *stubRanker) Rank(_ context.Context, _ int64, items []domain.FeedItem) ([]domain.FeedItem, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	// Переворачиваем, чтобы отличить результат от исходного порядка.
	reversed := make([]domain.FeedItem, len(items))
	for i, item := range items {
		reversed[len(items)-1-i] = item
	}
	return reversed, nil
}

type stubQueue struct {
	jobs []domain.WarmupJob
	err  error
}

func (s *stubQueue) Enqueue(_ context.Context, job domain.WarmupJob) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *stubQueue) Receive(context.Context) (domain.WarmupJob, domain.WarmupAckFunc, error) {
	return domain.WarmupJob{}, nil, errors.New("not implemented")
}

func videos(n int) []domain.VideoMetadata {
	out := make([]domain.VideoMetadata, n)
	for i := range out {
		out[i] = domain.VideoMetadata{ID: fmt.Sprintf("v%d", i), Title: "lecture", DurationSeconds: 900}
	}
	return out
}

func permissiveMode() domain.FocusMode {
	return domain.FocusMode{Name: "Test", MaxClickbaitScore: 1.0, MaxEntertainmentScore: 1.0}
}

func TestBuildRequiresActiveMode(t *testing.T) {
	service := NewService(&stubModes{err: domain.ErrNoActiveMode}, &stubSource{}, nil, &stubClassifier{}, nil, nil, false, zerolog.Nop())

	_, err := service.Build(context.Background(), 42, 10, "")
	if !errors.Is(err, domain.ErrNoActiveMode) {
		t.Fatalf("ожидали ErrNoActiveMode, получили %v", err)
	}
}

func TestBuildAssemblesPage(t *testing.T) {
	source := &stubSource{list: domain.VideoList{Items: videos(5), NextPageToken: "next"}}
	classifier := &stubClassifier{byID: map[string]domain.Classification{
		"v1": {Category: domain.CategoryComedy},
		"v3": {Category: domain.CategoryComedy},
	}}
	mode := permissiveMode()
	mode.BlockedCategories = []domain.Category{domain.CategoryComedy}

	service := NewService(&stubModes{mode: mode}, source, nil, classifier, nil, nil, false, zerolog.Nop())

	page, err := service.Build(context.Background(), 42, 10, "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(page.Items) != 3 {
		t.Fatalf("ожидали 3 допущенных видео, получили %d", len(page.Items))
	}
	if page.FilteredCount != 2 {
		t.Fatalf("ожидали 2 заблокированных, получили %d", page.FilteredCount)
	}
	if page.TotalResults != 5 {
		t.Fatalf("ожидали 5 всего, получили %d", page.TotalResults)
	}
	if page.NextPageToken != "next" {
		t.Fatalf("токен следующей страницы должен пробрасываться")
	}
}

func TestBuildSearchesByAllowedCategories(t *testing.T) {
	source := &stubSource{list: domain.VideoList{Items: videos(3)}}
	mode := permissiveMode()
	mode.AllowedCategories = []domain.Category{domain.CategoryEducation, domain.CategoryScienceTech, domain.CategoryMusic}

	service := NewService(&stubModes{mode: mode}, source, nil, &stubClassifier{}, nil, nil, false, zerolog.Nop())

	_, err := service.Build(context.Background(), 42, 10, "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if source.searchCalls != 1 || source.popCalls != 0 {
		t.Fatalf("allow-лист должен давать поисковую выборку")
	}
	if source.lastQuery != "EDUCATION SCIENCE_TECH" {
		t.Fatalf("запрос строится из первых двух категорий, получили %q", source.lastQuery)
	}
}

func TestBuildUsesMostPopularWithoutAllowedCategories(t *testing.T) {
	source := &stubSource{list: domain.VideoList{Items: videos(3)}}
	service := NewService(&stubModes{mode: permissiveMode()}, source, nil, &stubClassifier{}, nil, nil, false, zerolog.Nop())

	_, err := service.Build(context.Background(), 42, 10, "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if source.popCalls != 1 {
		t.Fatalf("без allow-листа берётся лента популярного")
	}
}

func TestBuildFallsBackOnSourceError(t *testing.T) {
	source := &stubSource{popularErr: errors.New("quota exceeded")}
	fallback := &stubSource{list: domain.VideoList{Items: videos(2)}}
	service := NewService(&stubModes{mode: permissiveMode()}, source, fallback, &stubClassifier{}, nil, nil, false, zerolog.Nop())

	page, err := service.Build(context.Background(), 42, 10, "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("ожидали выборку из резервного источника, получили %d", len(page.Items))
	}
	if fallback.popCalls != 1 {
		t.Fatalf("резервный источник должен быть опрошен")
	}
}

func TestBuildErrorWithoutFallback(t *testing.T) {
	source := &stubSource{popularErr: errors.New("quota exceeded")}
	service := NewService(&stubModes{mode: permissiveMode()}, source, nil, &stubClassifier{}, nil, nil, false, zerolog.Nop())

	_, err := service.Build(context.Background(), 42, 10, "")
	if err == nil {
		t.Fatalf("без резервного источника сбой виден вызывающему")
	}
}

func TestBuildEnqueuesLeftoverForWarmup(t *testing.T) {
	source := &stubSource{list: domain.VideoList{Items: videos(8)}}
	queue := &stubQueue{}
	service := NewService(&stubModes{mode: permissiveMode()}, source, nil, &stubClassifier{}, nil, queue, false, zerolog.Nop())

	page, err := service.Build(context.Background(), 42, 5, "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(page.Items) != 5 {
		t.Fatalf("ожидали страницу из 5 видео, получили %d", len(page.Items))
	}
	if len(queue.jobs) != 3 {
		t.Fatalf("остаток выборки уходит на прогрев: ожидали 3, получили %d", len(queue.jobs))
	}
	for _, job := range queue.jobs {
		if job.Cause != domain.WarmupCauseFeed {
			t.Fatalf("задачи прогрева несут причину feed, получили %s", job.Cause)
		}
		if job.Video.ID == "" {
			t.Fatalf("задача должна нести полные метаданные видео")
		}
	}
}

func TestBuildAppliesRanker(t *testing.T) {
	source := &stubSource{list: domain.VideoList{Items: videos(3)}}
	ranker := &stubRanker{}
	service := NewService(&stubModes{mode: permissiveMode()}, source, nil, &stubClassifier{}, ranker, nil, false, zerolog.Nop())

	page, err := service.Build(context.Background(), 42, 10, "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if ranker.calls != 1 {
		t.Fatalf("ранкер должен вызываться один раз")
	}
	if page.Items[0].Video.ID != "v2" {
		t.Fatalf("порядок должен задаваться ранкером, получили %s", page.Items[0].Video.ID)
	}
}

func TestBuildSurvivesRankerFailure(t *testing.T) {
	source := &stubSource{list: domain.VideoList{Items: videos(3)}}
	ranker := &stubRanker{err: errors.New("история недоступна")}
	service := NewService(&stubModes{mode: permissiveMode()}, source, nil, &stubClassifier{}, ranker, nil, false, zerolog.Nop())

	page, err := service.Build(context.Background(), 42, 10, "")
	if err != nil {
		t.Fatalf("сбой персонализации не должен ронять ленту: %v", err)
	}
	if page.Items[0].Video.ID != "v0" {
		t.Fatalf("при сбое ранкера сохраняется порядок источника, получили %s", page.Items[0].Video.ID)
	}
}

func TestSearchNoFallback(t *testing.T) {
	source := &stubSource{searchErr: errors.New("quota exceeded")}
	fallback := &stubSource{list: domain.VideoList{Items: videos(2)}}
	service := NewService(&stubModes{mode: permissiveMode()}, source, fallback, &stubClassifier{}, nil, nil, false, zerolog.Nop())

	_, err := service.Search(context.Background(), 42, "golang", 10, "")
	if err == nil {
		t.Fatalf("сбой поиска виден пользователю, резервный источник не используется")
	}
	if fallback.searchCalls != 0 {
		t.Fatalf("поиск не должен обращаться к резервному источнику")
	}
}

func TestCheckVideoRequiresModeForFilterCheck(t *testing.T) {
	source := &stubSource{byID: map[string]domain.VideoMetadata{"v1": {ID: "v1", DurationSeconds: 900}}}
	service := NewService(&stubModes{err: domain.ErrNoActiveMode}, source, nil, &stubClassifier{}, nil, nil, false, zerolog.Nop())

	_, err := service.CheckVideo(context.Background(), 42, "v1", true)
	if !errors.Is(err, domain.ErrNoActiveMode) {
		t.Fatalf("проверка фильтра без режима невозможна, получили %v", err)
	}
}

func TestCheckVideoWithoutModeAllows(t *testing.T) {
	source := &stubSource{byID: map[string]domain.VideoMetadata{"v1": {ID: "v1", DurationSeconds: 900}}}
	service := NewService(&stubModes{err: domain.ErrNoActiveMode}, source, nil, &stubClassifier{}, nil, nil, false, zerolog.Nop())

	details, err := service.CheckVideo(context.Background(), 42, "v1", false)
	if err != nil {
		t.Fatalf("карточка видео доступна без режима: %v", err)
	}
	if !details.Verdict.Allowed {
		t.Fatalf("без режима видео всегда допущено")
	}
}

func TestCheckVideoApplyFilter(t *testing.T) {
	source := &stubSource{byID: map[string]domain.VideoMetadata{"v1": {ID: "v1", DurationSeconds: 900}}}
	classifier := &stubClassifier{byID: map[string]domain.Classification{
		"v1": {Category: domain.CategoryComedy},
	}}
	mode := permissiveMode()
	mode.BlockedCategories = []domain.Category{domain.CategoryComedy}
	service := NewService(&stubModes{mode: mode}, source, nil, classifier, nil, nil, false, zerolog.Nop())

	details, err := service.CheckVideo(context.Background(), 42, "v1", true)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if details.Verdict.Allowed {
		t.Fatalf("ожидали блокировку по категории")
	}
	if details.Verdict.Reason == "" {
		t.Fatalf("у блокировки должна быть причина")
	}
}

func TestCheckVideoNotFound(t *testing.T) {
	source := &stubSource{byID: map[string]domain.VideoMetadata{}}
	service := NewService(&stubModes{mode: permissiveMode()}, source, nil, &stubClassifier{}, nil, nil, false, zerolog.Nop())

	_, err := service.CheckVideo(context.Background(), 42, "ghost", false)
	if !errors.Is(err, domain.ErrVideoNotFound) {
		t.Fatalf("ожидали ErrVideoNotFound, получили %v", err)
	}
}
