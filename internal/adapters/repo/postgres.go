package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"focus-feed/internal/domain"
	"focus-feed/internal/infra/metrics"
)

// Postgres реализует ModeRepo и HistoryRepo на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.ModeRepo    = (*Postgres)(nil)
	_ domain.HistoryRepo = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 5*time.Second)
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

const modeColumns = `id, user_id, name, description, is_active, is_locked, lock_until,
allowed_categories, blocked_categories, min_duration_seconds, allowed_languages,
max_clickbait_score, max_entertainment_score, block_shorts, block_trending,
daily_time_limit_minutes, blocked_keywords, created_at, updated_at`

type modeRow interface {
	Scan(dest ...any) error
}

func scanMode(row modeRow) (domain.FocusMode, error) {
	var (
		mode       domain.FocusMode
		lockUntil  sql.NullTime
		dailyLimit sql.NullInt64
		allowed    []string
		blocked    []string
	)
	err := row.Scan(
		&mode.ID, &mode.UserID, &mode.Name, &mode.Description, &mode.IsActive, &mode.IsLocked, &lockUntil,
		&allowed, &blocked, &mode.MinDurationSeconds, &mode.AllowedLanguages,
		&mode.MaxClickbaitScore, &mode.MaxEntertainmentScore, &mode.BlockShorts, &mode.BlockTrending,
		&dailyLimit, &mode.BlockedKeywords, &mode.CreatedAt, &mode.UpdatedAt,
	)
	if err != nil {
		return domain.FocusMode{}, err
	}
	if lockUntil.Valid {
		ts := lockUntil.Time
		mode.LockUntil = &ts
	}
	if dailyLimit.Valid {
		limit := int(dailyLimit.Int64)
		mode.DailyTimeLimitMinutes = &limit
	}
	mode.AllowedCategories = toCategories(allowed)
	mode.BlockedCategories = toCategories(blocked)
	return mode, nil
}

// ListModes возвращает режимы пользователя, сначала активный.
func (p *Postgres) ListModes(ctx context.Context, userID int64) ([]domain.FocusMode, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+modeColumns+`
FROM focus_modes WHERE user_id=$1
ORDER BY is_active DESC, created_at
`, userID)
	metrics.ObserveNetworkRequest("postgres", "focus_modes_list", "focus_modes", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var modes []domain.FocusMode
	for rows.Next() {
		mode, err := scanMode(rows)
		if err != nil {
			return nil, err
		}
		modes = append(modes, mode)
	}
	return modes, rows.Err()
}

// GetMode возвращает режим пользователя по идентификатору.
func (p *Postgres) GetMode(ctx context.Context, userID int64, modeID uuid.UUID) (domain.FocusMode, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	mode, err := scanMode(p.pool.QueryRow(ctx, `
SELECT `+modeColumns+`
FROM focus_modes WHERE user_id=$1 AND id=$2
`, userID, modeID))
	metrics.ObserveNetworkRequest("postgres", "focus_modes_get", "focus_modes", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.FocusMode{}, domain.ErrModeNotFound
	}
	return mode, err
}

// GetActiveMode возвращает активный режим пользователя.
func (p *Postgres) GetActiveMode(ctx context.Context, userID int64) (domain.FocusMode, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	mode, err := scanMode(p.pool.QueryRow(ctx, `
SELECT `+modeColumns+`
FROM focus_modes WHERE user_id=$1 AND is_active
`, userID))
	metrics.ObserveNetworkRequest("postgres", "focus_modes_get_active", "focus_modes", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.FocusMode{}, domain.ErrNoActiveMode
	}
	return mode, err
}

// CreateMode сохраняет новый режим и возвращает его с заполненными полями.
func (p *Postgres) CreateMode(ctx context.Context, mode domain.FocusMode) (domain.FocusMode, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	if mode.ID == uuid.Nil {
		mode.ID = uuid.New()
	}

	start := time.Now()
	created, err := scanMode(p.pool.QueryRow(ctx, `
INSERT INTO focus_modes (
	id, user_id, name, description, is_active, is_locked, lock_until,
	allowed_categories, blocked_categories, min_duration_seconds, allowed_languages,
	max_clickbait_score, max_entertainment_score, block_shorts, block_trending,
	daily_time_limit_minutes, blocked_keywords
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
RETURNING `+modeColumns,
		mode.ID, mode.UserID, mode.Name, mode.Description, mode.IsActive, mode.IsLocked, mode.LockUntil,
		fromCategories(mode.AllowedCategories), fromCategories(mode.BlockedCategories),
		mode.MinDurationSeconds, emptyIfNil(mode.AllowedLanguages),
		mode.MaxClickbaitScore, mode.MaxEntertainmentScore, mode.BlockShorts, mode.BlockTrending,
		mode.DailyTimeLimitMinutes, emptyIfNil(mode.BlockedKeywords)))
	metrics.ObserveNetworkRequest("postgres", "focus_modes_insert", "focus_modes", start, err)
	return created, err
}

// UpdateMode перезаписывает режим целиком.
func (p *Postgres) UpdateMode(ctx context.Context, mode domain.FocusMode) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `
UPDATE focus_modes SET
	name=$3, description=$4, is_active=$5, is_locked=$6, lock_until=$7,
	allowed_categories=$8, blocked_categories=$9, min_duration_seconds=$10, allowed_languages=$11,
	max_clickbait_score=$12, max_entertainment_score=$13, block_shorts=$14, block_trending=$15,
	daily_time_limit_minutes=$16, blocked_keywords=$17, updated_at=now()
WHERE user_id=$1 AND id=$2
`,
		mode.UserID, mode.ID, mode.Name, mode.Description, mode.IsActive, mode.IsLocked, mode.LockUntil,
		fromCategories(mode.AllowedCategories), fromCategories(mode.BlockedCategories),
		mode.MinDurationSeconds, emptyIfNil(mode.AllowedLanguages),
		mode.MaxClickbaitScore, mode.MaxEntertainmentScore, mode.BlockShorts, mode.BlockTrending,
		mode.DailyTimeLimitMinutes, emptyIfNil(mode.BlockedKeywords))
	metrics.ObserveNetworkRequest("postgres", "focus_modes_update", "focus_modes", start, err)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrModeNotFound
	}
	return nil
}

// DeleteMode удаляет режим и его правила одной транзакцией.
func (p *Postgres) DeleteMode(ctx context.Context, userID int64, modeID uuid.UUID) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "focus_modes", start, err)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	start = time.Now()
	_, err = tx.Exec(ctx, `DELETE FROM filter_rules WHERE mode_id=$1`, modeID)
	metrics.ObserveNetworkRequest("postgres", "filter_rules_delete", "filter_rules", start, err)
	if err != nil {
		return err
	}

	start = time.Now()
	tag, err := tx.Exec(ctx, `DELETE FROM focus_modes WHERE user_id=$1 AND id=$2`, userID, modeID)
	metrics.ObserveNetworkRequest("postgres", "focus_modes_delete", "focus_modes", start, err)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrModeNotFound
	}
	return tx.Commit(ctx)
}

// DeleteAllModes удаляет все режимы пользователя вместе с правилами.
func (p *Postgres) DeleteAllModes(ctx context.Context, userID int64) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "focus_modes", start, err)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	start = time.Now()
	_, err = tx.Exec(ctx, `
DELETE FROM filter_rules WHERE mode_id IN (SELECT id FROM focus_modes WHERE user_id=$1)
`, userID)
	metrics.ObserveNetworkRequest("postgres", "filter_rules_delete_all", "filter_rules", start, err)
	if err != nil {
		return err
	}

	start = time.Now()
	_, err = tx.Exec(ctx, `DELETE FROM focus_modes WHERE user_id=$1`, userID)
	metrics.ObserveNetworkRequest("postgres", "focus_modes_delete_all", "focus_modes", start, err)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// DeactivateAll снимает активность и блокировки со всех режимов пользователя.
func (p *Postgres) DeactivateAll(ctx context.Context, userID int64) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE focus_modes SET is_active=false, is_locked=false, lock_until=NULL, updated_at=now()
WHERE user_id=$1
`, userID)
	metrics.ObserveNetworkRequest("postgres", "focus_modes_deactivate_all", "focus_modes", start, err)
	return err
}

// ListRules возвращает активные правила режима по убыванию приоритета.
func (p *Postgres) ListRules(ctx context.Context, modeID uuid.UUID) ([]domain.FilterRule, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, mode_id, rule_type, condition, action, priority, is_active, created_at
FROM filter_rules WHERE mode_id=$1
ORDER BY priority DESC, created_at
`, modeID)
	metrics.ObserveNetworkRequest("postgres", "filter_rules_list", "filter_rules", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.FilterRule
	for rows.Next() {
		var rule domain.FilterRule
		if err := rows.Scan(&rule.ID, &rule.ModeID, &rule.RuleType, &rule.Condition, &rule.Action, &rule.Priority, &rule.IsActive, &rule.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// CreateRule сохраняет правило фильтрации.
func (p *Postgres) CreateRule(ctx context.Context, rule domain.FilterRule) (domain.FilterRule, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}

	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO filter_rules (id, mode_id, rule_type, condition, action, priority, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id, mode_id, rule_type, condition, action, priority, is_active, created_at
`, rule.ID, rule.ModeID, rule.RuleType, rule.Condition, rule.Action, rule.Priority, rule.IsActive).
		Scan(&rule.ID, &rule.ModeID, &rule.RuleType, &rule.Condition, &rule.Action, &rule.Priority, &rule.IsActive, &rule.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "filter_rules_insert", "filter_rules", start, err)
	return rule, err
}

// SaveWatchEvent сохраняет событие просмотра.
func (p *Postgres) SaveWatchEvent(ctx context.Context, event domain.WatchEvent) (domain.WatchEvent, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO watch_history (
	id, user_id, video_id, watch_duration_seconds, video_duration_seconds,
	watch_percentage, was_skipped, skip_position_percent, completed, mode_id, watched_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING id, watched_at
`, event.ID, event.UserID, event.VideoID, event.WatchDurationSeconds, event.VideoDurationSeconds,
		event.WatchPercentage, event.WasSkipped, event.SkipPositionPercent, event.Completed, event.ModeID, event.WatchedAt).
		Scan(&event.ID, &event.WatchedAt)
	metrics.ObserveNetworkRequest("postgres", "watch_history_insert", "watch_history", start, err)
	return event, err
}

// SaveFeedback сохраняет обратную связь по видео.
func (p *Postgres) SaveFeedback(ctx context.Context, feedback domain.Feedback) (domain.Feedback, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	if feedback.ID == uuid.Nil {
		feedback.ID = uuid.New()
	}

	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO video_feedback (id, user_id, video_id, feedback_type, reason, suggested_category)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id, created_at
`, feedback.ID, feedback.UserID, feedback.VideoID, string(feedback.Type), feedback.Reason, string(feedback.SuggestedCategory)).
		Scan(&feedback.ID, &feedback.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "video_feedback_insert", "video_feedback", start, err)
	return feedback, err
}

const watchColumns = `id, user_id, video_id, watch_duration_seconds, video_duration_seconds,
watch_percentage, was_skipped, skip_position_percent, completed, mode_id, watched_at`

func scanWatchEvent(rows pgx.Rows) (domain.WatchEvent, error) {
	var (
		event   domain.WatchEvent
		skipPos sql.NullFloat64
		modeID  *uuid.UUID
	)
	err := rows.Scan(&event.ID, &event.UserID, &event.VideoID, &event.WatchDurationSeconds,
		&event.VideoDurationSeconds, &event.WatchPercentage, &event.WasSkipped, &skipPos,
		&event.Completed, &modeID, &event.WatchedAt)
	if err != nil {
		return domain.WatchEvent{}, err
	}
	if skipPos.Valid {
		v := skipPos.Float64
		event.SkipPositionPercent = &v
	}
	event.ModeID = modeID
	return event, nil
}

// ListWatchHistory возвращает страницу истории просмотров и общее число записей.
func (p *Postgres) ListWatchHistory(ctx context.Context, userID int64, limit, offset int) ([]domain.WatchEvent, int, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var total int
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT count(*) FROM watch_history WHERE user_id=$1`, userID).Scan(&total)
	metrics.ObserveNetworkRequest("postgres", "watch_history_count", "watch_history", start, err)
	if err != nil {
		return nil, 0, err
	}

	start = time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+watchColumns+`
FROM watch_history WHERE user_id=$1
ORDER BY watched_at DESC
LIMIT $2 OFFSET $3
`, userID, limit, offset)
	metrics.ObserveNetworkRequest("postgres", "watch_history_list", "watch_history", start, err)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var events []domain.WatchEvent
	for rows.Next() {
		event, err := scanWatchEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, event)
	}
	return events, total, rows.Err()
}

// ListWatchEventsSince возвращает события просмотра начиная с момента since.
func (p *Postgres) ListWatchEventsSince(ctx context.Context, userID int64, since time.Time) ([]domain.WatchEvent, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+watchColumns+`
FROM watch_history WHERE user_id=$1 AND watched_at >= $2
ORDER BY watched_at DESC
`, userID, since)
	metrics.ObserveNetworkRequest("postgres", "watch_history_since", "watch_history", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.WatchEvent
	for rows.Next() {
		event, err := scanWatchEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// ListFeedbackSince возвращает обратную связь начиная с момента since.
func (p *Postgres) ListFeedbackSince(ctx context.Context, userID int64, since time.Time) ([]domain.Feedback, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, user_id, video_id, feedback_type, reason, suggested_category, created_at
FROM video_feedback WHERE user_id=$1 AND created_at >= $2
ORDER BY created_at DESC
`, userID, since)
	metrics.ObserveNetworkRequest("postgres", "video_feedback_since", "video_feedback", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Feedback
	for rows.Next() {
		var (
			fb        domain.Feedback
			fbType    string
			suggested sql.NullString
			reason    sql.NullString
		)
		if err := rows.Scan(&fb.ID, &fb.UserID, &fb.VideoID, &fbType, &reason, &suggested, &fb.CreatedAt); err != nil {
			return nil, err
		}
		fb.Type = domain.FeedbackType(fbType)
		if reason.Valid {
			fb.Reason = reason.String
		}
		if suggested.Valid {
			fb.SuggestedCategory = domain.Category(suggested.String)
		}
		items = append(items, fb)
	}
	return items, rows.Err()
}

// WatchSecondsSince возвращает суммарное время просмотра с момента since.
func (p *Postgres) WatchSecondsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var seconds int
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT COALESCE(SUM(watch_duration_seconds), 0)
FROM watch_history WHERE user_id=$1 AND watched_at >= $2
`, userID, since).Scan(&seconds)
	metrics.ObserveNetworkRequest("postgres", "watch_history_sum", "watch_history", start, err)
	return seconds, err
}

// DailyStats возвращает агрегаты просмотров по календарным дням.
func (p *Postgres) DailyStats(ctx context.Context, userID int64, since time.Time) ([]domain.DailyWatchStat, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT date_trunc('day', watched_at) AS day,
	COALESCE(SUM(watch_duration_seconds), 0),
	count(*),
	count(*) FILTER (WHERE completed),
	count(*) FILTER (WHERE was_skipped)
FROM watch_history WHERE user_id=$1 AND watched_at >= $2
GROUP BY day ORDER BY day
`, userID, since)
	metrics.ObserveNetworkRequest("postgres", "watch_history_daily", "watch_history", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []domain.DailyWatchStat
	for rows.Next() {
		var stat domain.DailyWatchStat
		if err := rows.Scan(&stat.Date, &stat.WatchSeconds, &stat.VideosTotal, &stat.Completed, &stat.Skipped); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

func toCategories(values []string) []domain.Category {
	if len(values) == 0 {
		return nil
	}
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

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
