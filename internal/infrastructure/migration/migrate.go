package migration

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	// Драйверы БД и источники миграций регистрируются импортом
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrator - интерфейс для самой библиотеки migrate.Migrate
type Migrator interface {
	Up() error
	Close() (error, error)
}

// MigrationEngine - фабрика для создания мигратора (чтобы не лезть в ФС и БД в тестах)
type MigrationEngine func() (Migrator, error)

type Migration struct {
	engine MigrationEngine
}

func NewMigration(engine MigrationEngine) *Migration {
	return &Migration{
		engine: engine,
	}
}

// PostgresEngine - миграции из каталога на диске для сервера
func PostgresEngine(migrationsPath, databaseURI string) MigrationEngine {
	return func() (Migrator, error) {
		return migrate.New("file://"+migrationsPath, databaseURI)
	}
}

// SQLiteEngine - встроенные миграции локального хранилища клиента
func SQLiteEngine(fsys fs.FS, dir, dbPath string) MigrationEngine {
	return func() (Migrator, error) {
		src, err := iofs.New(fsys, dir)
		if err != nil {
			return nil, fmt.Errorf("open migrations source: %w", err)
		}
		return migrate.NewWithSourceInstance("iofs", src, "sqlite3://"+dbPath)
	}
}

func (mg *Migration) Up() (err error) {
	m, err := mg.engine()
	if err != nil {
		return err
	}
	defer func() {
		serr, dberr := m.Close()
		if serr != nil {
			if err != nil {
				err = fmt.Errorf("%w; migration source error: %v", err, serr)
			} else {
				err = serr
			}
		}
		if dberr != nil {
			if err != nil {
				err = fmt.Errorf("%w; migration database error: %v", err, dberr)
			} else {
				err = dberr
			}
		}
	}()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w; migration up error", err)
	}
	return nil
}
