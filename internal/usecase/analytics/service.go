package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"focus-feed/internal/domain"
)

// Summary — сводка активности пользователя за окно в N дней.
type Summary struct {
	TotalWatchMinutes      int               `json:"total_watch_time_minutes"`
	VideosWatched          int               `json:"videos_watched"`
	VideosSkipped          int               `json:"videos_skipped"`
	VideosCompleted        int               `json:"videos_completed"`
	AverageWatchPercentage float64           `json:"average_watch_percentage"`
	DailyUsage             []DailyUsage      `json:"daily_usage"`
	PreferredCategories    []domain.Category `json:"preferred_categories"`
	AvoidedCategories      []domain.Category `json:"avoided_categories"`
}

// DailyUsage — минуты просмотра за один календарный день.
type DailyUsage struct {
	Date    string `json:"date"`
	Minutes int    `json:"minutes"`
}

// DailySnapshot — статистика за текущие сутки с учётом лимита активного режима.
type DailySnapshot struct {
	Date                 string `json:"date"`
	WatchMinutes         int    `json:"watch_time_minutes"`
	VideosWatched        int    `json:"videos_watched"`
	TimeLimitMinutes     *int   `json:"time_limit_minutes"`
	TimeRemainingMinutes *int   `json:"time_remaining_minutes"`
}

// PreferencesProvider выводит предпочтения пользователя из истории.
type PreferencesProvider interface {
	Preferences(ctx context.Context, userID int64) (domain.Preferences, error)
}

// Service накапливает события просмотра и строит отчёты по ним.
type Service struct {
	history domain.HistoryRepo
	modes   domain.ModeRepo
	prefs   PreferencesProvider
	log     zerolog.Logger
	now     func() time.Time
}

// NewService создаёт сервис аналитики. prefs может быть nil — тогда
// сводка не включает выведенные предпочтения.
func NewService(history domain.HistoryRepo, modes domain.ModeRepo, prefs PreferencesProvider, logger zerolog.Logger) *Service {
	return &Service{history: history, modes: modes, prefs: prefs, log: logger, now: time.Now}
}

// TrackWatch сохраняет событие просмотра. Процент досмотра считается на
// сервере из длительностей, присланное клиентом значение игнорируется.
func (s *Service) TrackWatch(ctx context.Context, event domain.WatchEvent) (domain.WatchEvent, error) {
	event.WatchPercentage = 0
	if event.VideoDurationSeconds > 0 {
		event.WatchPercentage = float64(event.WatchDurationSeconds) / float64(event.VideoDurationSeconds) * 100
	}
	if event.WatchedAt.IsZero() {
		event.WatchedAt = s.now().UTC()
	}
	saved, err := s.history.SaveWatchEvent(ctx, event)
	if err != nil {
		return domain.WatchEvent{}, fmt.Errorf("сохранение события просмотра: %w", err)
	}
	return saved, nil
}

// SubmitFeedback сохраняет обратную связь по видео.
func (s *Service) SubmitFeedback(ctx context.Context, feedback domain.Feedback) (domain.Feedback, error) {
	saved, err := s.history.SaveFeedback(ctx, feedback)
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("сохранение обратной связи: %w", err)
	}
	return saved, nil
}

// History возвращает страницу истории просмотров, новые события первыми.
func (s *Service) History(ctx context.Context, userID int64, page, perPage int) ([]domain.WatchEvent, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.history.ListWatchHistory(ctx, userID, perPage, (page-1)*perPage)
}

// Summarize агрегирует активность за последние days дней.
func (s *Service) Summarize(ctx context.Context, userID int64, days int) (Summary, error) {
	if days < 1 || days > 30 {
		days = 7
	}
	since := s.now().UTC().AddDate(0, 0, -days)

	events, err := s.history.ListWatchEventsSince(ctx, userID, since)
	if err != nil {
		return Summary{}, fmt.Errorf("история просмотров: %w", err)
	}

	summary := Summary{VideosWatched: len(events)}
	totalSeconds := 0
	totalPercentage := 0.0
	for _, event := range events {
		totalSeconds += event.WatchDurationSeconds
		totalPercentage += event.WatchPercentage
		if event.WasSkipped {
			summary.VideosSkipped++
		}
		if event.Completed {
			summary.VideosCompleted++
		}
	}
	summary.TotalWatchMinutes = totalSeconds / 60
	if len(events) > 0 {
		summary.AverageWatchPercentage = totalPercentage / float64(len(events))
	}

	daily, err := s.history.DailyStats(ctx, userID, since)
	if err != nil {
		return Summary{}, fmt.Errorf("дневная статистика: %w", err)
	}
	summary.DailyUsage = make([]DailyUsage, 0, len(daily))
	for _, day := range daily {
		summary.DailyUsage = append(summary.DailyUsage, DailyUsage{
			Date:    day.Date.Format("2006-01-02"),
			Minutes: day.WatchSeconds / 60,
		})
	}

	if s.prefs != nil {
		prefs, err := s.prefs.Preferences(ctx, userID)
		if err != nil {
			s.log.Warn().Err(err).Int64("user_id", userID).Msg("analytics: предпочтения недоступны")
		} else {
			summary.PreferredCategories = prefs.PreferredCategories
			summary.AvoidedCategories = prefs.AvoidedCategories
		}
	}
	return summary, nil
}

// Daily возвращает статистику за текущие календарные сутки (UTC) вместе
// с лимитом активного режима, если он задан.
func (s *Service) Daily(ctx context.Context, userID int64) (DailySnapshot, error) {
	todayStart := s.now().UTC().Truncate(24 * time.Hour)

	events, err := s.history.ListWatchEventsSince(ctx, userID, todayStart)
	if err != nil {
		return DailySnapshot{}, fmt.Errorf("история за сутки: %w", err)
	}
	totalSeconds := 0
	for _, event := range events {
		totalSeconds += event.WatchDurationSeconds
	}

	snapshot := DailySnapshot{
		Date:          todayStart.Format("2006-01-02"),
		WatchMinutes:  totalSeconds / 60,
		VideosWatched: len(events),
	}

	mode, err := s.modes.GetActiveMode(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveMode) {
			return snapshot, nil
		}
		return DailySnapshot{}, err
	}
	if mode.DailyTimeLimitMinutes != nil {
		limit := *mode.DailyTimeLimitMinutes
		remaining := limit - snapshot.WatchMinutes
		if remaining < 0 {
			remaining = 0
		}
		snapshot.TimeLimitMinutes = &limit
		snapshot.TimeRemainingMinutes = &remaining
	}
	return snapshot, nil
}
