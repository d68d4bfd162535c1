package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/exp/slog"

	"technoplus/internal/domain/record"
	"technoplus/internal/infrastructure/migration"
)

//go:embed migrations/*.sql
var migrations embed.FS

// indexes - объявленные вторичные индексы: коллекция -> имя -> JSON-путь.
var indexes = map[string]map[string]string{
	record.Products: {
		"barcode":     "$.barcode",
		"code":        "$.code",
		"category_id": "$.category_id",
	},
	record.Categories:    {"parent_id": "$.parent_id"},
	record.Tickets:       {"customer_id": "$.customer_id"},
	record.Transactions:  {"customer_id": "$.customer_id"},
	record.TicketHistory: {"ticket_id": "$.ticket_id"},
}

// Store - локальное долговременное хранилище клиента: коллекции записей,
// очередь отложенных действий и таблица настроек в одном файле SQLite.
type Store struct {
	db  *sql.DB
	log *slog.Logger
	now func() time.Time
}

// New применяет миграции и открывает базу по пути path.
func New(ctx context.Context, path string, log *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	mg := migration.NewMigration(migration.SQLiteEngine(migrations, "migrations", path))
	if err := mg.Up(); err != nil {
		return nil, fmt.Errorf("migrate local store: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	// один писатель: транзакции SQLite сериализуют все изменения
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping local store: %w", err)
	}

	return &Store{
		db:  db,
		log: log.With(slog.String("component", "local_store")),
		now: time.Now,
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ClearAll атомарно очищает все коллекции, очередь и настройки.
func (s *Store) ClearAll(ctx context.Context) error {
	err := s.inTx(ctx, "clear all", func(tx *sql.Tx) error {
		for _, table := range []string{"records", "pending_actions", "settings"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Warn("local store cleared")
	return nil
}

func (s *Store) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fault(op, err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return fault(op, err)
	}

	if err := tx.Commit(); err != nil {
		return fault(op, err)
	}
	return nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func fault(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", record.ErrStoreFault, op, err)
}
