package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"focus-feed/internal/domain"
)

// Service управляет фокус-режимами пользователя: активация, блокировка,
// дневные лимиты времени. Состояние «не более одного активного режима»
// поддерживается на уровне пользователя, а не отдельного режима.
type Service struct {
	modes   domain.ModeRepo
	history domain.HistoryRepo
	log     zerolog.Logger
	now     func() time.Time
}

// NewService создаёт сервис фокус-сессий.
func NewService(modes domain.ModeRepo, history domain.HistoryRepo, logger zerolog.Logger) *Service {
	return &Service{modes: modes, history: history, log: logger, now: time.Now}
}

// ListModes возвращает режимы пользователя, создавая пресеты при первом обращении.
func (s *Service) ListModes(ctx context.Context, userID int64) ([]domain.FocusMode, error) {
	modes, err := s.modes.ListModes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("список режимов: %w", err)
	}
	if len(modes) > 0 {
		return modes, nil
	}
	return s.seedPresets(ctx, userID, false)
}

// ResetModes удаляет все режимы пользователя и создаёт пресеты заново,
// активируя первый из них.
func (s *Service) ResetModes(ctx context.Context, userID int64) ([]domain.FocusMode, error) {
	if err := s.modes.DeleteAllModes(ctx, userID); err != nil {
		return nil, fmt.Errorf("удаление режимов: %w", err)
	}
	return s.seedPresets(ctx, userID, true)
}

func (s *Service) seedPresets(ctx context.Context, userID int64, activateFirst bool) ([]domain.FocusMode, error) {
	created := make([]domain.FocusMode, 0, len(presetModes))
	for i, preset := range presetModes {
		preset.UserID = userID
		preset.IsActive = activateFirst && i == 0
		mode, err := s.modes.CreateMode(ctx, preset)
		if err != nil {
			return nil, fmt.Errorf("создание пресета %q: %w", preset.Name, err)
		}
		created = append(created, mode)
	}
	s.log.Info().Int64("user_id", userID).Int("count", len(created)).Msg("session: созданы пресеты режимов")
	return created, nil
}

// GetMode возвращает режим пользователя после самовосстановления блокировки.
func (s *Service) GetMode(ctx context.Context, userID int64, modeID uuid.UUID) (domain.FocusMode, error) {
	mode, err := s.modes.GetMode(ctx, userID, modeID)
	if err != nil {
		return domain.FocusMode{}, err
	}
	return s.healExpiredLock(ctx, mode)
}

// ActiveMode возвращает активный режим пользователя.
func (s *Service) ActiveMode(ctx context.Context, userID int64) (domain.FocusMode, error) {
	mode, err := s.modes.GetActiveMode(ctx, userID)
	if err != nil {
		return domain.FocusMode{}, err
	}
	return s.healExpiredLock(ctx, mode)
}

// CreateMode создаёт пользовательский режим.
func (s *Service) CreateMode(ctx context.Context, mode domain.FocusMode) (domain.FocusMode, error) {
	return s.modes.CreateMode(ctx, mode)
}

// UpdateMode изменяет режим. Изменение действующего заблокированного режима запрещено.
func (s *Service) UpdateMode(ctx context.Context, mode domain.FocusMode) (domain.FocusMode, error) {
	current, err := s.GetMode(ctx, mode.UserID, mode.ID)
	if err != nil {
		return domain.FocusMode{}, err
	}
	if current.LockedNow(s.now()) {
		return domain.FocusMode{}, &domain.ModeLockedError{ModeID: current.ID, ModeName: current.Name, LockUntil: *current.LockUntil}
	}
	// Активность и блокировка меняются только через Activate/Lock/Unlock.
	mode.IsActive = current.IsActive
	mode.IsLocked = current.IsLocked
	mode.LockUntil = current.LockUntil
	if err := s.modes.UpdateMode(ctx, mode); err != nil {
		return domain.FocusMode{}, fmt.Errorf("обновление режима: %w", err)
	}
	return s.modes.GetMode(ctx, mode.UserID, mode.ID)
}

// DeleteMode удаляет режим вместе с его правилами.
func (s *Service) DeleteMode(ctx context.Context, userID int64, modeID uuid.UUID) error {
	mode, err := s.GetMode(ctx, userID, modeID)
	if err != nil {
		return err
	}
	if mode.LockedNow(s.now()) {
		return &domain.ModeLockedError{ModeID: mode.ID, ModeName: mode.Name, LockUntil: *mode.LockUntil}
	}
	return s.modes.DeleteMode(ctx, userID, modeID)
}

// Activate делает режим активным, деактивируя остальные.
// Запрещена, пока ЛЮБОЙ режим пользователя заблокирован, в том числе другой.
func (s *Service) Activate(ctx context.Context, userID int64, modeID uuid.UUID) (domain.FocusMode, error) {
	if locked, err := s.lockedMode(ctx, userID); err != nil {
		return domain.FocusMode{}, err
	} else if locked != nil {
		return domain.FocusMode{}, &domain.ModeLockedError{ModeID: locked.ID, ModeName: locked.Name, LockUntil: *locked.LockUntil}
	}

	target, err := s.modes.GetMode(ctx, userID, modeID)
	if err != nil {
		return domain.FocusMode{}, err
	}

	if err := s.modes.DeactivateAll(ctx, userID); err != nil {
		return domain.FocusMode{}, fmt.Errorf("деактивация режимов: %w", err)
	}

	target.IsActive = true
	target.IsLocked = false
	target.LockUntil = nil
	if err := s.modes.UpdateMode(ctx, target); err != nil {
		return domain.FocusMode{}, fmt.Errorf("активация режима: %w", err)
	}
	s.log.Info().Int64("user_id", userID).Str("mode", target.Name).Msg("session: режим активирован")
	return target, nil
}

// Lock блокирует активный режим на указанное число минут.
func (s *Service) Lock(ctx context.Context, userID int64, modeID uuid.UUID, durationMinutes int) (domain.FocusMode, error) {
	mode, err := s.modes.GetMode(ctx, userID, modeID)
	if err != nil {
		return domain.FocusMode{}, err
	}
	if !mode.IsActive {
		return domain.FocusMode{}, domain.ErrModeNotActive
	}
	until := s.now().UTC().Add(time.Duration(durationMinutes) * time.Minute)
	mode.IsLocked = true
	mode.LockUntil = &until
	if err := s.modes.UpdateMode(ctx, mode); err != nil {
		return domain.FocusMode{}, fmt.Errorf("блокировка режима: %w", err)
	}
	s.log.Info().Int64("user_id", userID).Str("mode", mode.Name).Time("until", until).Msg("session: режим заблокирован")
	return mode, nil
}

// Unlock снимает блокировку безусловно (аварийный выход).
func (s *Service) Unlock(ctx context.Context, userID int64, modeID uuid.UUID) (domain.FocusMode, error) {
	mode, err := s.modes.GetMode(ctx, userID, modeID)
	if err != nil {
		return domain.FocusMode{}, err
	}
	mode.IsLocked = false
	mode.LockUntil = nil
	if err := s.modes.UpdateMode(ctx, mode); err != nil {
		return domain.FocusMode{}, fmt.Errorf("разблокировка режима: %w", err)
	}
	return mode, nil
}

// CheckTimeLimit сверяет дневной лимит режима с просмотрами за текущие
// календарные сутки (граница — полночь UTC).
func (s *Service) CheckTimeLimit(ctx context.Context, userID int64, mode domain.FocusMode) (domain.TimeLimitStatus, error) {
	if mode.DailyTimeLimitMinutes == nil {
		return domain.TimeLimitStatus{HasLimit: false}, nil
	}
	limit := *mode.DailyTimeLimitMinutes

	todayStart := s.now().UTC().Truncate(24 * time.Hour)
	seconds, err := s.history.WatchSecondsSince(ctx, userID, todayStart)
	if err != nil {
		return domain.TimeLimitStatus{}, fmt.Errorf("сумма просмотров: %w", err)
	}
	used := seconds / 60

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return domain.TimeLimitStatus{
		HasLimit:         true,
		Exceeded:         used >= limit,
		UsedMinutes:      used,
		LimitMinutes:     limit,
		RemainingMinutes: remaining,
	}, nil
}

// Stats возвращает сводку текущей фокус-сессии.
func (s *Service) Stats(ctx context.Context, userID int64) (domain.SessionStats, error) {
	mode, err := s.ActiveMode(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveMode) {
			return domain.SessionStats{HasActiveMode: false}, nil
		}
		return domain.SessionStats{}, err
	}

	timeLimit, err := s.CheckTimeLimit(ctx, userID, mode)
	if err != nil {
		return domain.SessionStats{}, err
	}

	stats := domain.SessionStats{HasActiveMode: true, Mode: &mode, TimeLimit: &timeLimit}
	if mode.LockedNow(s.now()) {
		remaining := int(time.Until(*mode.LockUntil).Minutes())
		stats.Lock = &domain.LockStatus{IsLocked: true, RemainingMinutes: remaining, UnlockAt: *mode.LockUntil}
	}
	return stats, nil
}

// ListRules возвращает правила режима после проверки владения.
func (s *Service) ListRules(ctx context.Context, userID int64, modeID uuid.UUID) ([]domain.FilterRule, error) {
	if _, err := s.modes.GetMode(ctx, userID, modeID); err != nil {
		return nil, err
	}
	return s.modes.ListRules(ctx, modeID)
}

// CreateRule добавляет правило режиму после проверки владения.
func (s *Service) CreateRule(ctx context.Context, userID int64, rule domain.FilterRule) (domain.FilterRule, error) {
	if _, err := s.modes.GetMode(ctx, userID, rule.ModeID); err != nil {
		return domain.FilterRule{}, err
	}
	return s.modes.CreateRule(ctx, rule)
}

// lockedMode возвращает режим, блокировка которого ещё действует.
// Истёкшие блокировки попутно самовосстанавливаются.
func (s *Service) lockedMode(ctx context.Context, userID int64) (*domain.FocusMode, error) {
	modes, err := s.modes.ListModes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("список режимов: %w", err)
	}
	for i := range modes {
		if !modes[i].IsLocked {
			continue
		}
		mode, err := s.healExpiredLock(ctx, modes[i])
		if err != nil {
			return nil, err
		}
		if mode.LockedNow(s.now()) {
			return &mode, nil
		}
	}
	return nil, nil
}

// healExpiredLock — переход «наблюдай и восстанавливай»: любое чтение
// состояния блокировки снимает её, как только срок истёк. Фонового
// таймера нет намеренно.
func (s *Service) healExpiredLock(ctx context.Context, mode domain.FocusMode) (domain.FocusMode, error) {
	if !mode.IsLocked || mode.LockedNow(s.now()) {
		return mode, nil
	}
	mode.IsLocked = false
	mode.LockUntil = nil
	if err := s.modes.UpdateMode(ctx, mode); err != nil {
		return domain.FocusMode{}, fmt.Errorf("сброс истёкшей блокировки: %w", err)
	}
	return mode, nil
}
