package filter

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"focus-feed/internal/domain"
)

// Engine применяет жёсткие правила фокус-режима к видео.
// Чистая проверка без побочных эффектов и ввода-вывода.
//
// Флаг BlockTrending объявлен в конфигурации, но здесь сознательно не
// проверяется: признак «в тренде» не входит в метаданные видео и должен
// быть разрешён вызывающей стороной до вызова движка.
type Engine struct {
	mode domain.FocusMode
}

// NewEngine создаёт движок для конкретного режима.
func NewEngine(mode domain.FocusMode) *Engine {
	return &Engine{mode: mode}
}

// Evaluate проверяет видео по упорядоченному списку правил.
// Побеждает первое нарушенное правило; порядок проверок фиксирован,
// потому что причина блокировки показывается пользователю.
func (e *Engine) Evaluate(video domain.VideoMetadata, classification domain.Classification) domain.FilterVerdict {
	if e.mode.BlockShorts && video.IsShort {
		return blocked("Shorts are blocked in this focus mode")
	}

	if video.DurationSeconds < e.mode.MinDurationSeconds {
		return blocked(fmt.Sprintf("Video too short (minimum %d minutes required)", e.mode.MinDurationSeconds/60))
	}

	category := classification.Category
	if len(e.mode.BlockedCategories) > 0 && containsCategory(e.mode.BlockedCategories, category) {
		return blocked(fmt.Sprintf("Category '%s' is blocked in this focus mode", category))
	}
	if len(e.mode.AllowedCategories) > 0 && !containsCategory(e.mode.AllowedCategories, category) {
		// Пустой список allowed означает «любая категория разрешена».
		return blocked(fmt.Sprintf("Category '%s' is not allowed in this focus mode", category))
	}

	// Отсутствующий язык никогда не блокирует.
	if len(e.mode.AllowedLanguages) > 0 && video.Language != "" && !languageAllowed(e.mode.AllowedLanguages, video.Language) {
		return blocked(fmt.Sprintf("Language '%s' is not allowed in this focus mode", video.Language))
	}

	if classification.ClickbaitScore > e.mode.MaxClickbaitScore {
		return blocked(fmt.Sprintf("Video detected as clickbait (score: %.2f)", classification.ClickbaitScore))
	}

	if classification.EntertainmentScore > e.mode.MaxEntertainmentScore {
		return blocked(fmt.Sprintf("Video too entertaining for this focus mode (score: %.2f)", classification.EntertainmentScore))
	}

	if len(e.mode.BlockedKeywords) > 0 {
		title := strings.ToLower(video.Title)
		description := strings.ToLower(video.Description)
		for _, keyword := range e.mode.BlockedKeywords {
			kw := strings.ToLower(keyword)
			if strings.Contains(title, kw) || strings.Contains(description, kw) {
				return blocked(fmt.Sprintf("Video contains blocked keyword: '%s'", keyword))
			}
		}
	}

	return domain.FilterVerdict{Allowed: true}
}

// Summary — сводка активных фильтров режима для отображения.
type Summary struct {
	ModeName              string            `json:"mode_name"`
	BlockShorts           bool              `json:"block_shorts"`
	BlockTrending         bool              `json:"block_trending"`
	MinDurationMinutes    int               `json:"min_duration_minutes"`
	MaxClickbaitScore     float64           `json:"max_clickbait_score"`
	MaxEntertainmentScore float64           `json:"max_entertainment_score"`
	AllowedCategories     []domain.Category `json:"allowed_categories"`
	BlockedCategories     []domain.Category `json:"blocked_categories"`
	AllowedLanguages      []string          `json:"allowed_languages"`
	BlockedKeywordsCount  int               `json:"blocked_keywords_count"`
	DailyTimeLimitMinutes *int              `json:"daily_time_limit_minutes"`
	IsLocked              bool              `json:"is_locked"`
}

// Summarize возвращает сводку активных фильтров.
func (e *Engine) Summarize() Summary {
	return Summary{
		ModeName:              e.mode.Name,
		BlockShorts:           e.mode.BlockShorts,
		BlockTrending:         e.mode.BlockTrending,
		MinDurationMinutes:    e.mode.MinDurationSeconds / 60,
		MaxClickbaitScore:     e.mode.MaxClickbaitScore,
		MaxEntertainmentScore: e.mode.MaxEntertainmentScore,
		AllowedCategories:     e.mode.AllowedCategories,
		BlockedCategories:     e.mode.BlockedCategories,
		AllowedLanguages:      e.mode.AllowedLanguages,
		BlockedKeywordsCount:  len(e.mode.BlockedKeywords),
		DailyTimeLimitMinutes: e.mode.DailyTimeLimitMinutes,
		IsLocked:              e.mode.IsLocked,
	}
}

func blocked(reason string) domain.FilterVerdict {
	return domain.FilterVerdict{Allowed: false, Reason: reason}
}

func containsCategory(set []domain.Category, category domain.Category) bool {
	for _, c := range set {
		if c == category {
			return true
		}
	}
	return false
}

// languageAllowed сравнивает базовые языки тегов BCP 47, поэтому
// "en-US" проходит allow-лист ["en"].
func languageAllowed(allowed []string, lang string) bool {
	base := baseLanguage(lang)
	for _, a := range allowed {
		if baseLanguage(a) == base {
			return true
		}
	}
	return false
}

func baseLanguage(tag string) string {
	parsed, err := language.Parse(tag)
	if err != nil {
		return strings.ToLower(tag)
	}
	base, _ := parsed.Base()
	return base.String()
}
