package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"focus-feed/internal/domain"
	httpinfra "focus-feed/internal/infra/http"
	"focus-feed/internal/infra/metrics"
	"focus-feed/internal/usecase/analytics"
	"focus-feed/internal/usecase/feed"
	"focus-feed/internal/usecase/filter"
	"focus-feed/internal/usecase/session"
	"focus-feed/internal/usecase/suggest"
)

type handler struct {
	session   *session.Service
	feed      *feed.Service
	analytics *analytics.Service
	log       zerolog.Logger
}

func newHandler(sessionSvc *session.Service, feedSvc *feed.Service, analyticsSvc *analytics.Service, logger zerolog.Logger) *handler {
	return &handler{session: sessionSvc, feed: feedSvc, analytics: analyticsSvc, log: logger}
}

func (h *handler) register(r chi.Router) {
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(httpinfra.UserAuthMiddleware())

		api.Route("/modes", func(modes chi.Router) {
			modes.Get("/", h.listModes)
			modes.Post("/", h.createMode)
			modes.Post("/reset", h.resetModes)
			modes.Get("/active", h.activeMode)
			modes.Get("/{modeID}", h.getMode)
			modes.Put("/{modeID}", h.updateMode)
			modes.Delete("/{modeID}", h.deleteMode)
			modes.Post("/{modeID}/activate", h.activateMode)
			modes.Post("/{modeID}/lock", h.lockMode)
			modes.Post("/{modeID}/unlock", h.unlockMode)
			modes.Get("/{modeID}/rules", h.listRules)
			modes.Post("/{modeID}/rules", h.createRule)
		})

		api.Route("/feed", func(f chi.Router) {
			f.Get("/", h.getFeed)
			f.Get("/search", h.searchFeed)
			f.Get("/video/{videoID}", h.getVideo)
		})

		api.Post("/filter/check", h.checkFilter)
		api.Get("/filter/summary", h.filterSummary)

		api.Route("/analytics", func(a chi.Router) {
			a.Post("/watch", h.trackWatch)
			a.Get("/history", h.watchHistory)
			a.Post("/feedback", h.submitFeedback)
			a.Get("/summary", h.analyticsSummary)
			a.Get("/daily", h.dailyStats)
		})

		api.Get("/suggestions", h.suggestions)
		api.Get("/session/stats", h.sessionStats)
	})
}

// writeDomainError переводит доменные ошибки в HTTP-статусы.
func (h *handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	if locked, ok := domain.IsModeLocked(err); ok {
		httpinfra.WriteJSON(w, http.StatusForbidden, map[string]any{
			"error":        locked.Error(),
			"mode_id":      locked.ModeID,
			"mode_name":    locked.ModeName,
			"locked_until": locked.LockUntil,
		})
		return
	}
	switch {
	case errors.Is(err, domain.ErrModeNotFound), errors.Is(err, domain.ErrVideoNotFound):
		httpinfra.WriteError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrNoActiveMode), errors.Is(err, domain.ErrModeNotActive):
		httpinfra.WriteError(w, http.StatusBadRequest, err)
	default:
		h.log.Error().Err(err).Str("request_id", httpinfra.RequestID(r)).Str("path", r.URL.Path).Msg("api: внутренняя ошибка")
		httpinfra.WriteErrorMessage(w, http.StatusInternalServerError, "внутренняя ошибка")
	}
}

// --- режимы ---

type modeRequest struct {
	Name                  string   `json:"name"`
	Description           string   `json:"description"`
	AllowedCategories     []string `json:"allowed_categories"`
	BlockedCategories     []string `json:"blocked_categories"`
	MinDurationSeconds    int      `json:"min_duration_seconds"`
	AllowedLanguages      []string `json:"allowed_languages"`
	MaxClickbaitScore     float64  `json:"max_clickbait_score"`
	MaxEntertainmentScore float64  `json:"max_entertainment_score"`
	BlockShorts           bool     `json:"block_shorts"`
	BlockTrending         bool     `json:"block_trending"`
	DailyTimeLimitMinutes *int     `json:"daily_time_limit_minutes"`
	BlockedKeywords       []string `json:"blocked_keywords"`
}

func (req modeRequest) toDomain(userID int64, id uuid.UUID) domain.FocusMode {
	return domain.FocusMode{
		ID:                    id,
		UserID:                userID,
		Name:                  req.Name,
		Description:           req.Description,
		AllowedCategories:     toCategories(req.AllowedCategories),
		BlockedCategories:     toCategories(req.BlockedCategories),
		MinDurationSeconds:    req.MinDurationSeconds,
		AllowedLanguages:      req.AllowedLanguages,
		MaxClickbaitScore:     req.MaxClickbaitScore,
		MaxEntertainmentScore: req.MaxEntertainmentScore,
		BlockShorts:           req.BlockShorts,
		BlockTrending:         req.BlockTrending,
		DailyTimeLimitMinutes: req.DailyTimeLimitMinutes,
		BlockedKeywords:       req.BlockedKeywords,
	}
}

type modeResponse struct {
	ID                    uuid.UUID  `json:"id"`
	Name                  string     `json:"name"`
	Description           string     `json:"description"`
	IsActive              bool       `json:"is_active"`
	IsLocked              bool       `json:"is_locked"`
	LockUntil             *time.Time `json:"lock_until,omitempty"`
	AllowedCategories     []string   `json:"allowed_categories"`
	BlockedCategories     []string   `json:"blocked_categories"`
	MinDurationSeconds    int        `json:"min_duration_seconds"`
	AllowedLanguages      []string   `json:"allowed_languages"`
	MaxClickbaitScore     float64    `json:"max_clickbait_score"`
	MaxEntertainmentScore float64    `json:"max_entertainment_score"`
	BlockShorts           bool       `json:"block_shorts"`
	BlockTrending         bool       `json:"block_trending"`
	DailyTimeLimitMinutes *int       `json:"daily_time_limit_minutes"`
	BlockedKeywords       []string   `json:"blocked_keywords"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func toModeResponse(mode domain.FocusMode) modeResponse {
	return modeResponse{
		ID:                    mode.ID,
		Name:                  mode.Name,
		Description:           mode.Description,
		IsActive:              mode.IsActive,
		IsLocked:              mode.IsLocked,
		LockUntil:             mode.LockUntil,
		AllowedCategories:     fromCategories(mode.AllowedCategories),
		BlockedCategories:     fromCategories(mode.BlockedCategories),
		MinDurationSeconds:    mode.MinDurationSeconds,
		AllowedLanguages:      mode.AllowedLanguages,
		MaxClickbaitScore:     mode.MaxClickbaitScore,
		MaxEntertainmentScore: mode.MaxEntertainmentScore,
		BlockShorts:           mode.BlockShorts,
		BlockTrending:         mode.BlockTrending,
		DailyTimeLimitMinutes: mode.DailyTimeLimitMinutes,
		BlockedKeywords:       mode.BlockedKeywords,
		CreatedAt:             mode.CreatedAt,
		UpdatedAt:             mode.UpdatedAt,
	}
}

func toModeResponses(modes []domain.FocusMode) []modeResponse {
	out := make([]modeResponse, len(modes))
	for i, mode := range modes {
		out[i] = toModeResponse(mode)
	}
	return out
}

func (h *handler) listModes(w http.ResponseWriter, r *http.Request) {
	modes, err := h.session.ListModes(r.Context(), httpinfra.UserID(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toModeResponses(modes))
}

func (h *handler) createMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpinfra.WriteErrorMessage(w, http.StatusBadRequest, "недействительное тело запроса")
		return
	}
	if req.Name == "" {
		httpinfra.WriteErrorMessage(w, http.StatusBadRequest, "name обязателен")
		return
	}
	mode, err := h.session.CreateMode(r.Context(), req.toDomain(httpinfra.UserID(r), uuid.Nil))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusCreated, toModeResponse(mode))
}

func (h *handler) resetModes(w http.ResponseWriter, r *http.Request) {
	modes, err := h.session.ResetModes(r.Context(), httpinfra.UserID(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toModeResponses(modes))
}

func (h *handler) activeMode(w http.ResponseWriter, r *http.Request) {
	mode, err := h.session.ActiveMode(r.Context(), httpinfra.UserID(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toModeResponse(mode))
}

func (h *handler) getMode(w http.ResponseWriter, r *http.Request) {
	modeID, ok := h.modeID(w, r)
	if !ok {
		return
	}
	mode, err := h.session.GetMode(r.Context(), httpinfra.UserID(r), modeID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toModeResponse(mode))
}

func (h *handler) updateMode(w http.ResponseWriter, r *http.Request) {
	modeID, ok := h.modeID(w, r)
	if !ok {
		return
	}
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpinfra.WriteErrorMessage(w, http.StatusBadRequest, "недействительное тело запроса")
		return
	}
	mode, err := h.session.UpdateMode(r.Context(), req.toDomain(httpinfra.UserID(r), modeID))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toModeResponse(mode))
}

func (h *handler) deleteMode(w http.ResponseWriter, r *http.Request) {
	modeID, ok := h.modeID(w, r)
	if !ok {
		return
	}
	if err := h.session.DeleteMode(r.Context(), httpinfra.UserID(r), modeID); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) activateMode(w http.ResponseWriter, r *http.Request) {
	modeID, ok := h.modeID(w, r)
	if !ok {
		return
	}
	mode, err := h.session.Activate(r.Context(), httpinfra.UserID(r), modeID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toModeResponse(mode))
}

type lockRequest struct {
	DurationMinutes int `json:"duration_minutes"`
}

func (h *handler) lockMode(w http.ResponseWriter, r *http.Request) {
	modeID, ok := h.modeID(w, r)
	if !ok {
		return
	}
	var req lockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpinfra.WriteErrorMessage(w, http.StatusBadRequest, "недействительное тело запроса")
		return
	}
	if req.DurationMinutes <= 0 {
		httpinfra.WriteErrorMessage(w, http.StatusBadRequest, "duration_minutes должен быть положительным")
		return
	}
	mode, err := h.session.Lock(r.Context(), httpinfra.UserID(r), modeID, req.DurationMinutes)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toModeResponse(mode))
}

func (h *handler) unlockMode(w http.ResponseWriter, r *http.Request) {
	modeID, ok := h.modeID(w, r)
	if !ok {
		return
	}
	mode, err := h.session.Unlock(r.Context(), httpinfra.UserID(r), modeID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toModeResponse(mode))
}

type ruleRequest struct {
	RuleType  string `json:"rule_type"`
	Condition string `json:"condition"`
	Action    string `json:"action"`
	Priority  int    `json:"priority"`
	IsActive  bool   `json:"is_active"`
}

type ruleResponse struct {
	ID        uuid.UUID `json:"id"`
	ModeID    uuid.UUID `json:"mode_id"`
	RuleType  string    `json:"rule_type"`
	Condition string    `json:"condition"`
	Action    string    `json:"action"`
	Priority  int       `json:"priority"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toRuleResponse(rule domain.FilterRule) ruleResponse {
	return ruleResponse{
		ID:        rule.ID,
		ModeID:    rule.ModeID,
		RuleType:  rule.RuleType,
		Condition: rule.Condition,
		Action:    rule.Action,
		Priority:  rule.Priority,
		IsActive:  rule.IsActive,
		CreatedAt: rule.CreatedAt,
	}
}

func (h *handler) listRules(w http.ResponseWriter, r *http.Request) {
	modeID, ok := h.modeID(w, r)
	if !ok {
		return
	}
	rules, err := h.session.ListRules(r.Context(), httpinfra.UserID(r), modeID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]ruleResponse, len(rules))
	for i, rule := range rules {
		out[i] = toRuleResponse(rule)
	}
	httpinfra.WriteJSON(w, http.StatusOK, out)
}

func (h *handler) createRule(w http.ResponseWriter, r *http.Request) {
	modeID, ok := h.modeID(w, r)
	if !ok {
		return
	}
	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpinfra.WriteErrorMessage(w, http.StatusBadRequest, "недействительное тело запроса")
		return
	}
	rule, err := h.session.CreateRule(r.Context(), httpinfra.UserID(r), domain.FilterRule{
		ModeID:    modeID,
		RuleType:  req.RuleType,
		Condition: req.Condition,
		Action:    req.Action,
		Priority:  req.Priority,
		IsActive:  req.IsActive,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusCreated, toRuleResponse(rule))
}

func (h *handler) modeID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	modeID, err := uuid.Parse(chi.URLParam(r, "modeID"))
	if err != nil {
		httpinfra.WriteErrorMessage(w, http.StatusBadRequest, "недействительный идентификатор режима")
		return uuid.Nil, false
	}
	return modeID, true
}

// --- лента ---

type classificationResponse struct {
	Category           string  `json:"category"`
	ConfidenceScore    float64 `json:"confidence_score"`
	EntertainmentScore float64 `json:"entertainment_score"`
	DepthScore         float64 `json:"depth_score"`
	ClickbaitScore     float64 `json:"clickbait_score"`
}

func toClassificationResponse(c domain.Classification) classificationResponse {
	return classificationResponse{
		Category:           string(c.Category),
		ConfidenceScore:    c.ConfidenceScore,
		EntertainmentScore: c.EntertainmentScore,
		DepthScore:         c.DepthScore,
		ClickbaitScore:     c.ClickbaitScore,
	}
}

type feedItemResponse struct {
	VideoID            string    `json:"video_id"`
	Title              string    `json:"title"`
	ChannelTitle       string    `json:"channel_title"`
	ThumbnailURL       string    `json:"thumbnail_url"`
	DurationSeconds    int       `json:"duration_seconds"`
	IsShort            bool      `json:"is_short"`
	ViewCount          int64     `json:"view_count"`
	PublishedAt        time.Time `json:"published_at"`
	Category           string    `json:"category"`
	ClickbaitScore     float64   `json:"clickbait_score"`
	EntertainmentScore float64   `json:"entertainment_score"`
	PersonalizedScore  float64   `json:"personalized_score"`
}

type feedResponse struct {
	Items         []feedItemResponse `json:"items"`
	NextPageToken string             `json:"next_page_token,omitempty"`
	TotalResults  int                `json:"total_results"`
	FilteredCount int                `json:"filtered_count"`
}

func toFeedResponse(page domain.FeedPage) feedResponse {
	items := make([]feedItemResponse, len(page.Items))
	for i, item := range page.Items {
		items[i] = feedItemResponse{
			VideoID:            item.Video.ID,
			Title:              item.Video.Title,
			ChannelTitle:       item.Video.ChannelTitle,
			ThumbnailURL:       item.Video.ThumbnailURL,
			DurationSeconds:    item.Video.DurationSeconds,
			IsShort:            item.Video.IsShort,
			ViewCount:          item.Video.ViewCount,
			PublishedAt:        item.Video.PublishedAt,
			Category:           string(item.Classification.Category),
			ClickbaitScore:     item.Classification.ClickbaitScore,
			EntertainmentScore: item.Classification.EntertainmentScore,
			PersonalizedScore:  item.PersonalizedScore,
		}
	}
	return feedResponse{
		Items:         items,
		NextPageToken: page.NextPageToken,
		TotalResults:  page.TotalResults,
		FilteredCount: page.FilteredCount,
	}
}

func (h *handler) getFeed(w http.ResponseWriter, r *http.Request) {
	metrics.IncFeedRequest()
	maxResults, _ := strconv.Atoi(r.URL.Query().Get("max_results"))
	page, err := h.feed.Build(r.Context(), httpinfra.UserID(r), maxResults, r.URL.Query().Get("page_token"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	metrics.AddFeedBlocked(page.FilteredCount)
	httpinfra.WriteJSON(w, http.StatusOK, toFeedResponse(page))
}

func (h *handler) searchFeed(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		httpinfra.WriteErrorMessage(w, http.StatusBadRequest, "query обязателен")
		return
	}
	maxResults, _ := strconv.Atoi(r.URL.Query().Get("max_results"))
	page, err := h.feed.Search(r.Context(), httpinfra.UserID(r), query, maxResults, r.URL.Query().Get("page_token"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toFeedResponse(page))
}

type videoResponse struct {
	VideoID         string                 `json:"video_id"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	ChannelID       string                 `json:"channel_id"`
	ChannelTitle    string                 `json:"channel_title"`
	ThumbnailURL    string                 `json:"thumbnail_url"`
	DurationSeconds int                    `json:"duration_seconds"`
	IsShort         bool                   `json:"is_short"`
	Language        string                 `json:"language"`
	ViewCount       int64                  `json:"view_count"`
	LikeCount       int64                  `json:"like_count"`
	PublishedAt     time.Time              `json:"published_at"`
	Classification  classificationResponse `json:"classification"`
	IsAllowed       bool                   `json:"is_allowed"`
	BlockReason     string                 `json:"block_reason,omitempty"`
}

func (h *handler) getVideo(w http.ResponseWriter, r *http.Request) {
	details, err := h.feed.CheckVideo(r.Context(), httpinfra.UserID(r), chi.URLParam(r, "videoID"), false)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, videoResponse{
		VideoID:         details.Video.ID,
		Title:           details.Video.Title,
		Description:     details.Video.Description,
		ChannelID:       details.Video.ChannelID,
		ChannelTitle:    details.Video.ChannelTitle,
		ThumbnailURL:    details.Video.ThumbnailURL,
		DurationSeconds: details.Video.DurationSeconds,
		IsShort:         details.Video.IsShort,
		Language:        details.Video.Language,
		ViewCount:       details.Video.ViewCount,
		LikeCount:       details.Video.LikeCount,
		PublishedAt:     details.Video.PublishedAt,
		Classification:  toClassificationResponse(details.Classification),
		IsAllowed:       details.Verdict.Allowed,
		BlockReason:     details.Verdict.Reason,
	})
}

// --- фильтр ---

type filterCheckRequest struct {
	VideoID string `json:"video_id"`
}

type filterCheckResponse struct {
	VideoID        string                 `json:"video_id"`
	IsAllowed      bool                   `json:"is_allowed"`
	BlockReason    string                 `json:"block_reason,omitempty"`
	Classification classificationResponse `json:"classification"`
}

func (h *handler) checkFilter(w http.ResponseWriter, r *http.Request) {
	var req filterCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VideoID == "" {
		httpinfra.WriteErrorMessage(w, http.StatusBadRequest, "video_id обязателен")
		return
	}
	details, err := h.feed.CheckVideo(r.Context(), httpinfra.UserID(r), req.VideoID, true)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, filterCheckResponse{
		VideoID:        req.VideoID,
		IsAllowed:      details.Verdict.Allowed,
		BlockReason:    details.Verdict.Reason,
		Classification: toClassificationResponse(details.Classification),
	})
}

func (h *handler) filterSummary(w http.ResponseWriter, r *http.Request) {
	mode, err := h.session.ActiveMode(r.Context(), httpinfra.UserID(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, filter.NewEngine(mode).Summarize())
}

// --- аналитика ---

type watchEventRequest struct {
	VideoID              string     `json:"video_id"`
	WatchDurationSeconds int        `json:"watch_duration_seconds"`
	VideoDurationSeconds int        `json:"video_duration_seconds"`
	WasSkipped           bool       `json:"was_skipped"`
	SkipPositionPercent  *float64   `json:"skip_position_percent"`
	Completed            bool       `json:"completed"`
	ModeID               *uuid.UUID `json:"mode_id"`
}

func (h *handler) trackWatch(w http.ResponseWriter, r *http.Request) {
	var req watchEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VideoID == "" {
		httpinfra.WriteErrorMessage(w, http.StatusBadRequest, "video_id обязателен")
		return
	}
	_, err := h.analytics.TrackWatch(r.Context(), domain.WatchEvent{
		UserID:               httpinfra.UserID(r),
		VideoID:              req.VideoID,
		WatchDurationSeconds: req.WatchDurationSeconds,
		VideoDurationSeconds: req.VideoDurationSeconds,
		WasSkipped:           req.WasSkipped,
		SkipPositionPercent:  req.SkipPositionPercent,
		Completed:            req.Completed,
		ModeID:               req.ModeID,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusCreated, map[string]string{"status": "tracked"})
}

type watchEventResponse struct {
	ID                   uuid.UUID  `json:"id"`
	VideoID              string     `json:"video_id"`
	WatchDurationSeconds int        `json:"watch_duration_seconds"`
	VideoDurationSeconds int        `json:"video_duration_seconds"`
	WatchPercentage      float64    `json:"watch_percentage"`
	WasSkipped           bool       `json:"was_skipped"`
	SkipPositionPercent  *float64   `json:"skip_position_percent"`
	Completed            bool       `json:"completed"`
	ModeID               *uuid.UUID `json:"mode_id"`
	WatchedAt            time.Time  `json:"watched_at"`
}

func toWatchEventResponse(event domain.WatchEvent) watchEventResponse {
	return watchEventResponse{
		ID:                   event.ID,
		VideoID:              event.VideoID,
		WatchDurationSeconds: event.WatchDurationSeconds,
		VideoDurationSeconds: event.VideoDurationSeconds,
		WatchPercentage:      event.WatchPercentage,
		WasSkipped:           event.WasSkipped,
		SkipPositionPercent:  event.SkipPositionPercent,
		Completed:            event.Completed,
		ModeID:               event.ModeID,
		WatchedAt:            event.WatchedAt,
	}
}

type watchHistoryResponse struct {
	Items   []watchEventResponse `json:"items"`
	Total   int                  `json:"total"`
	Page    int                  `json:"page"`
	PerPage int                  `json:"per_page"`
}

func (h *handler) watchHistory(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	events, total, err := h.analytics.History(r.Context(), httpinfra.UserID(r), page, perPage)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	items := make([]watchEventResponse, len(events))
	for i, event := range events {
		items[i] = toWatchEventResponse(event)
	}
	httpinfra.WriteJSON(w, http.StatusOK, watchHistoryResponse{Items: items, Total: total, Page: page, PerPage: perPage})
}

type feedbackRequest struct {
	VideoID           string `json:"video_id"`
	FeedbackType      string `json:"feedback_type"`
	Reason            string `json:"reason"`
	SuggestedCategory string `json:"suggested_category"`
}

var validFeedbackTypes = map[domain.FeedbackType]bool{
	domain.FeedbackLike:          true,
	domain.FeedbackDislike:       true,
	domain.FeedbackNotInterested: true,
	domain.FeedbackWrongCategory: true,
	domain.FeedbackHelpful:       true,
	domain.FeedbackDistracting:   true,
}

func (h *handler) submitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VideoID == "" {
		httpinfra.WriteErrorMessage(w, http.StatusBadRequest, "video_id обязателен")
		return
	}
	fbType := domain.FeedbackType(req.FeedbackType)
	if !validFeedbackTypes[fbType] {
		httpinfra.WriteErrorMessage(w, http.StatusBadRequest, "недопустимый feedback_type")
		return
	}
	feedback, err := h.analytics.SubmitFeedback(r.Context(), domain.Feedback{
		UserID:            httpinfra.UserID(r),
		VideoID:           req.VideoID,
		Type:              fbType,
		Reason:            req.Reason,
		SuggestedCategory: domain.Category(req.SuggestedCategory),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":         feedback.ID,
		"video_id":   feedback.VideoID,
		"status":     "recorded",
		"created_at": feedback.CreatedAt,
	})
}

func (h *handler) analyticsSummary(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	summary, err := h.analytics.Summarize(r.Context(), httpinfra.UserID(r), days)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, summary)
}

func (h *handler) dailyStats(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.analytics.Daily(r.Context(), httpinfra.UserID(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, snapshot)
}

// --- прочее ---

func (h *handler) suggestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		httpinfra.WriteErrorMessage(w, http.StatusBadRequest, "query обязателен")
		return
	}
	result := suggest.Suggest(query)
	if result == nil {
		result = []string{}
	}
	httpinfra.WriteJSON(w, http.StatusOK, result)
}

type timeLimitResponse struct {
	HasLimit         bool `json:"has_limit"`
	Exceeded         bool `json:"exceeded"`
	UsedMinutes      int  `json:"used_minutes"`
	LimitMinutes     int  `json:"limit_minutes"`
	RemainingMinutes int  `json:"remaining_minutes"`
}

type lockStatusResponse struct {
	IsLocked         bool      `json:"is_locked"`
	RemainingMinutes int       `json:"remaining_minutes"`
	UnlockAt         time.Time `json:"unlock_at"`
}

type sessionStatsResponse struct {
	HasActiveMode bool                `json:"has_active_mode"`
	Mode          *modeResponse       `json:"mode,omitempty"`
	TimeLimit     *timeLimitResponse  `json:"time_limit,omitempty"`
	Lock          *lockStatusResponse `json:"lock,omitempty"`
}

func (h *handler) sessionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.session.Stats(r.Context(), httpinfra.UserID(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	resp := sessionStatsResponse{HasActiveMode: stats.HasActiveMode}
	if stats.Mode != nil {
		mode := toModeResponse(*stats.Mode)
		resp.Mode = &mode
	}
	if stats.TimeLimit != nil {
		resp.TimeLimit = &timeLimitResponse{
			HasLimit:         stats.TimeLimit.HasLimit,
			Exceeded:         stats.TimeLimit.Exceeded,
			UsedMinutes:      stats.TimeLimit.UsedMinutes,
			LimitMinutes:     stats.TimeLimit.LimitMinutes,
			RemainingMinutes: stats.TimeLimit.RemainingMinutes,
		}
	}
	if stats.Lock != nil {
		resp.Lock = &lockStatusResponse{
			IsLocked:         stats.Lock.IsLocked,
			RemainingMinutes: stats.Lock.RemainingMinutes,
			UnlockAt:         stats.Lock.UnlockAt,
		}
	}
	httpinfra.WriteJSON(w, http.StatusOK, resp)
}

func toCategories(values []string) []domain.Category {
	out := make([]domain.Category, len(values))
	for i, v := range values {
		out[i] = domain.Category(v)
	}
	return out
}

func fromCategories(categories []domain.Category) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}
