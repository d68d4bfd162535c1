package sync

import (
	"fmt"
	"time"
)

// Ключи настроек, через которые менеджер сохраняет итоги синхронизации.
const (
	SettingLastSyncTime = "lastSyncTime"
	SettingSyncErrors   = "syncErrors"
)

// Config параметры менеджера синхронизации
type Config struct {
	// Interval - период фоновой синхронизации при наличии сети.
	Interval time.Duration
	// MaxRetries - число неудачных попыток, после которого действие удаляется из очереди.
	MaxRetries int
}

func DefaultConfig() Config {
	return Config{
		Interval:   5 * time.Minute,
		MaxRetries: 3,
	}
}

// Status - производная проекция состояния синхронизации.
// Не хранится, пересчитывается при каждом запросе.
type Status struct {
	IsOnline           bool       `json:"is_online"`
	IsSyncing          bool       `json:"is_syncing"`
	LastSyncTime       *time.Time `json:"last_sync_time,omitempty"`
	PendingActionCount int        `json:"pending_action_count"`
	SyncErrors         []string   `json:"sync_errors"`
}

// Label возвращает короткую подпись для индикатора состояния.
func (s Status) Label() string {
	switch {
	case !s.IsOnline:
		if s.PendingActionCount > 0 {
			return fmt.Sprintf("Offline (%d pending)", s.PendingActionCount)
		}
		return "Offline"
	case s.IsSyncing:
		return "Syncing"
	case s.PendingActionCount > 0:
		return fmt.Sprintf("%d pending", s.PendingActionCount)
	case len(s.SyncErrors) > 0:
		return "Sync errors"
	default:
		return "Online"
	}
}
