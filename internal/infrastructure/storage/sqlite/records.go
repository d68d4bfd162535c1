package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"technoplus/internal/domain/action"
	"technoplus/internal/domain/record"
)

var ErrUnknownIndex = errors.New("unknown index")

const upsertRecord = `
	INSERT INTO records (collection, id, data, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`

// Put сохраняет или заменяет запись.
func (s *Store) Put(ctx context.Context, collection string, rec record.Record) error {
	return s.PutMany(ctx, collection, []record.Record{rec})
}

// PutMany сохраняет записи одной транзакцией: видны либо все, либо ни одной.
func (s *Store) PutMany(ctx context.Context, collection string, recs []record.Record) error {
	if len(recs) == 0 {
		return nil
	}

	return s.inTx(ctx, "put "+collection, func(tx *sql.Tx) error {
		return s.upsert(ctx, tx, collection, recs)
	})
}

// Stage атомарно применяет оптимистичные записи и ставит действие в очередь.
func (s *Store) Stage(ctx context.Context, writes []record.Write, p action.Pending) error {
	return s.inTx(ctx, "stage "+string(p.Type), func(tx *sql.Tx) error {
		for _, w := range writes {
			if err := s.upsert(ctx, tx, w.Collection, []record.Record{w.Record}); err != nil {
				return err
			}
		}
		return s.enqueue(ctx, tx, p)
	})
}

func (s *Store) upsert(ctx context.Context, tx *sql.Tx, collection string, recs []record.Record) error {
	stmt, err := tx.PrepareContext(ctx, upsertRecord)
	if err != nil {
		return err
	}
	defer stmt.Close()

	ts := s.timestamp()
	for _, r := range recs {
		if r.ID == "" {
			return fmt.Errorf("%w: empty id in %s", record.ErrInvalidData, collection)
		}
		if _, err := stmt.ExecContext(ctx, collection, r.ID, string(r.Data), ts); err != nil {
			return fmt.Errorf("upsert %s/%s: %w", collection, r.ID, err)
		}
	}
	return nil
}

// Get возвращает запись по ключу. Отсутствие записи не является ошибкой.
func (s *Store) Get(ctx context.Context, collection, id string) (record.Record, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM records WHERE collection = ? AND id = ?`, collection, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Record{}, false, nil
	}
	if err != nil {
		return record.Record{}, false, fault("get "+collection, err)
	}

	return record.Record{ID: id, Data: json.RawMessage(data)}, true, nil
}

func (s *Store) GetAll(ctx context.Context, collection string) ([]record.Record, error) {
	return s.list(ctx, "get all "+collection,
		`SELECT id, data FROM records WHERE collection = ? ORDER BY rowid`, collection)
}

// FindBy ищет записи по объявленному вторичному индексу.
func (s *Store) FindBy(ctx context.Context, collection, index, value string) ([]record.Record, error) {
	path, ok := indexes[collection][index]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownIndex, collection, index)
	}

	// путь берется только из таблицы indexes, чтобы выражение совпало с индексом
	q := `SELECT id, data FROM records
		WHERE collection = ? AND json_extract(data, '` + path + `') = ?
		ORDER BY rowid`

	return s.list(ctx, "find "+collection+" by "+index, q, collection, value)
}

// Query применяет предикат к коллекции тем же кодом, что и сервер.
func (s *Store) Query(ctx context.Context, collection string, q record.Query) ([]record.Record, error) {
	all, err := s.GetAll(ctx, collection)
	if err != nil {
		return nil, err
	}
	return q.Filter(all), nil
}

// Search - регистронезависимый поиск подстроки по заданным полям.
func (s *Store) Search(ctx context.Context, collection, text string, fields []string) ([]record.Record, error) {
	return s.Query(ctx, collection, record.Query{Text: text, Fields: fields})
}

// ReplaceID заменяет временный идентификатор постоянным одной транзакцией.
// Если canonical == nil, локальные данные сохраняются и только меняют ключ.
// Все JSON-ссылки на временный идентификатор в записях и очереди переписываются.
func (s *Store) ReplaceID(ctx context.Context, collection, tempID, canonicalID string, canonical *record.Record) error {
	oldRef, newRef := strconv.Quote(tempID), strconv.Quote(canonicalID)

	err := s.inTx(ctx, "replace id "+tempID, func(tx *sql.Tx) error {
		if canonical != nil {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM records WHERE collection = ? AND id = ?`, collection, tempID); err != nil {
				return err
			}
			if err := s.upsert(ctx, tx, collection, []record.Record{*canonical}); err != nil {
				return err
			}
		} else {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM records WHERE collection = ? AND id = ?`, collection, canonicalID); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE records SET id = ?, updated_at = ? WHERE collection = ? AND id = ?`,
				canonicalID, s.timestamp(), collection, tempID); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE records SET data = replace(data, ?, ?) WHERE instr(data, ?) > 0`,
			oldRef, newRef, oldRef); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE pending_actions SET payload = replace(payload, ?, ?) WHERE instr(payload, ?) > 0`,
			oldRef, newRef, oldRef)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Debug("temporary id replaced", "collection", collection, "temp_id", tempID, "id", canonicalID)
	return nil
}

func (s *Store) list(ctx context.Context, op, query string, args ...any) ([]record.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fault(op, err)
	}
	defer rows.Close()

	out := make([]record.Record, 0)
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fault(op, err)
		}
		out = append(out, record.Record{ID: id, Data: json.RawMessage(data)})
	}
	if err := rows.Err(); err != nil {
		return nil, fault(op, err)
	}

	return out, nil
}
