package sync

import (
	"context"

	"technoplus/internal/domain/action"
	"technoplus/internal/domain/record"
	"technoplus/internal/utils/broadcast"
)

// Store - локальное хранилище, с которым работает менеджер.
type Store interface {
	Put(ctx context.Context, collection string, rec record.Record) error
	PutMany(ctx context.Context, collection string, recs []record.Record) error
	Get(ctx context.Context, collection, id string) (record.Record, bool, error)
	Query(ctx context.Context, collection string, q record.Query) ([]record.Record, error)
	Stage(ctx context.Context, writes []record.Write, p action.Pending) error
	ReplaceID(ctx context.Context, collection, tempID, canonicalID string, canonical *record.Record) error

	Enqueue(ctx context.Context, p action.Pending) error
	DequeueAll(ctx context.Context) ([]action.Pending, error)
	Remove(ctx context.Context, id string) error
	IncrementRetry(ctx context.Context, id string) (int, error)
	ResetRetries(ctx context.Context) error
	CountPending(ctx context.Context) (int, error)

	SetSetting(ctx context.Context, key string, value any) error
	GetSetting(ctx context.Context, key string, dst any) (bool, error)
	ClearAll(ctx context.Context) error
}

// Connectivity - источник состояния сети и триггеров синхронизации.
type Connectivity interface {
	IsOnline() bool
	OnOnline(fn func())
	OnResume(fn func())
	Subscribe() *broadcast.Subscription[bool]
}
