package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrModeNotFound возвращается, если режим не существует или не принадлежит пользователю.
var ErrModeNotFound = errors.New("фокус-режим не найден")

// ErrNoActiveMode возвращается, если у пользователя нет активного режима.
var ErrNoActiveMode = errors.New("нет активного фокус-режима")

// ErrModeNotActive возвращается при попытке заблокировать неактивный режим.
var ErrModeNotActive = errors.New("заблокировать можно только активный режим")

// ErrVideoNotFound возвращается, если источник метаданных не знает такого видео.
var ErrVideoNotFound = errors.New("видео не найдено")

// ModeLockedError возвращается при попытке сменить или изменить режим,
// пока другой режим заблокирован. Несёт идентичность блокирующего режима
// и время разблокировки.
type ModeLockedError struct {
	ModeID    uuid.UUID
	ModeName  string
	LockUntil time.Time
}

func (e *ModeLockedError) Error() string {
	return fmt.Sprintf("режим %q заблокирован до %s", e.ModeName, e.LockUntil.UTC().Format(time.RFC3339))
}

// IsModeLocked сообщает, является ли ошибка конфликтом блокировки.
func IsModeLocked(err error) (*ModeLockedError, bool) {
	var locked *ModeLockedError
	if errors.As(err, &locked) {
		return locked, true
	}
	return nil, false
}
