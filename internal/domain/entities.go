package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category описывает категорию видеоконтента.
type Category string

const (
	CategoryEducation     Category = "EDUCATION"
	CategoryScienceTech   Category = "SCIENCE_TECH"
	CategoryHowtoStyle    Category = "HOWTO_STYLE"
	CategoryMusic         Category = "MUSIC"
	CategoryGaming        Category = "GAMING"
	CategoryComedy        Category = "COMEDY"
	CategoryEntertainment Category = "ENTERTAINMENT"

	// Категории, которые выдаёт только LLM-классификатор.
	CategoryStudy     Category = "STUDY"
	CategoryTech      Category = "TECH"
	CategoryPodcast   Category = "PODCAST"
	CategoryNews      Category = "NEWS"
	CategoryMeme      Category = "MEME"
	CategoryClickbait Category = "CLICKBAIT"

	// Категории, на которые ссылаются только пресеты режимов.
	// Эвристический каскад их никогда не выдаёт — они зарезервированы
	// под LLM-путь и маппинг категорий YouTube.
	CategoryNewsPolitics  Category = "NEWS_POLITICS"
	CategorySports        Category = "SPORTS"
	CategoryTravelEvents  Category = "TRAVEL_EVENTS"
	CategoryPeopleBlogs   Category = "PEOPLE_BLOGS"
	CategoryFilmAnimation Category = "FILM_ANIMATION"
)

// LLMCategories — допустимый набор категорий для LLM-классификатора.
var LLMCategories = []Category{
	CategoryEducation, CategoryStudy, CategoryTech, CategoryMusic, CategoryPodcast,
	CategoryNews, CategoryEntertainment, CategoryMeme, CategoryClickbait, CategoryGaming,
}

// VideoMetadata описывает метаданные видео, полученные от внешнего источника.
// Значение неизменяемо на протяжении классификации.
type VideoMetadata struct {
	ID              string
	Title           string
	Description     string
	Tags            []string
	ChannelID       string
	ChannelTitle    string
	DurationSeconds int
	Language        string
	ViewCount       int64
	LikeCount       int64
	PublishedAt     time.Time
	ThumbnailURL    string
	IsShort         bool
}

// Classification содержит категорию и четыре оценки видео.
// Все оценки лежат в диапазоне [0, 1].
type Classification struct {
	Category           Category
	ConfidenceScore    float64
	EntertainmentScore float64
	DepthScore         float64
	ClickbaitScore     float64
}

// CacheEntry хранит снимок метаданных и классификацию с меткой истечения.
type CacheEntry struct {
	Video          VideoMetadata
	Classification Classification
	AnalyzedAt     time.Time
	ExpiresAt      time.Time
}

// Expired сообщает, истекла ли запись. Истёкшая запись считается отсутствующей.
func (e CacheEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// FocusMode описывает конфигурацию фокус-режима пользователя.
type FocusMode struct {
	ID          uuid.UUID
	UserID      int64
	Name        string
	Description string
	IsActive    bool
	IsLocked    bool
	LockUntil   *time.Time

	AllowedCategories []Category
	BlockedCategories []Category

	MinDurationSeconds    int
	AllowedLanguages      []string
	MaxClickbaitScore     float64
	MaxEntertainmentScore float64

	BlockShorts   bool
	BlockTrending bool

	DailyTimeLimitMinutes *int

	BlockedKeywords []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LockedNow сообщает, действует ли блокировка режима в момент now.
func (m FocusMode) LockedNow(now time.Time) bool {
	return m.IsLocked && m.LockUntil != nil && m.LockUntil.After(now)
}

// FilterRule описывает пользовательское правило фильтрации, принадлежащее режиму.
// Удаляется каскадно вместе с режимом.
type FilterRule struct {
	ID        uuid.UUID
	ModeID    uuid.UUID
	RuleType  string
	Condition string
	Action    string
	Priority  int
	IsActive  bool
	CreatedAt time.Time
}

// Допустимые типы и действия правил.
const (
	RuleTypeKeyword  = "keyword"
	RuleTypeChannel  = "channel"
	RuleTypeCategory = "category"
	RuleTypeDuration = "duration"
	RuleTypeScore    = "score"

	RuleActionBlock = "block"
	RuleActionAllow = "allow"
	RuleActionDelay = "delay"
)

// FilterVerdict — результат проверки видео фильтром.
// У заблокированного видео всегда есть непустая причина, у допущенного — нет.
type FilterVerdict struct {
	Allowed bool
	Reason  string
}

// WatchEvent описывает факт просмотра видео.
type WatchEvent struct {
	ID                   uuid.UUID
	UserID               int64
	VideoID              string
	WatchDurationSeconds int
	VideoDurationSeconds int
	WatchPercentage      float64
	WasSkipped           bool
	SkipPositionPercent  *float64
	Completed            bool
	ModeID               *uuid.UUID
	WatchedAt            time.Time
}

// FeedbackType описывает тип обратной связи по видео.
type FeedbackType string

const (
	FeedbackLike          FeedbackType = "like"
	FeedbackDislike       FeedbackType = "dislike"
	FeedbackNotInterested FeedbackType = "not_interested"
	FeedbackWrongCategory FeedbackType = "wrong_category"
	FeedbackHelpful       FeedbackType = "helpful"
	FeedbackDistracting   FeedbackType = "distracting"
)

// Feedback — явная обратная связь пользователя по видео.
type Feedback struct {
	ID                uuid.UUID
	UserID            int64
	VideoID           string
	Type              FeedbackType
	Reason            string
	SuggestedCategory Category
	CreatedAt         time.Time
}

// TimeLimitStatus — состояние дневного лимита времени режима.
type TimeLimitStatus struct {
	HasLimit         bool
	Exceeded         bool
	UsedMinutes      int
	LimitMinutes     int
	RemainingMinutes int
}

// LockStatus — состояние блокировки активного режима.
type LockStatus struct {
	IsLocked         bool
	RemainingMinutes int
	UnlockAt         time.Time
}

// SessionStats — сводка по текущей фокус-сессии пользователя.
type SessionStats struct {
	HasActiveMode bool
	Mode          *FocusMode
	TimeLimit     *TimeLimitStatus
	Lock          *LockStatus
}

// FeedItem — видео, прошедшее фильтр, с классификацией и оценкой персонализации.
type FeedItem struct {
	Video             VideoMetadata
	Classification    Classification
	PersonalizedScore float64
}

// FeedPage — страница отфильтрованной ленты.
type FeedPage struct {
	Items         []FeedItem
	NextPageToken string
	TotalResults  int
	FilteredCount int
}

// VideoList — порция видео от источника метаданных.
type VideoList struct {
	Items         []VideoMetadata
	NextPageToken string
}

// DailyWatchStat — агрегат просмотров за один календарный день.
type DailyWatchStat struct {
	Date         time.Time
	WatchSeconds int
	VideosTotal  int
	Completed    int
	Skipped      int
}

// Preferences — выведенные из истории предпочтения пользователя.
type Preferences struct {
	PreferredCategories []Category
	AvoidedCategories   []Category
}
