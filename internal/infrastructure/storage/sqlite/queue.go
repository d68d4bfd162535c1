package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"technoplus/internal/domain/action"
)

// Enqueue добавляет действие в конец очереди. Повторная вставка того же ID игнорируется.
func (s *Store) Enqueue(ctx context.Context, p action.Pending) error {
	return s.inTx(ctx, "enqueue", func(tx *sql.Tx) error {
		return s.enqueue(ctx, tx, p)
	})
}

func (s *Store) enqueue(ctx context.Context, tx *sql.Tx, p action.Pending) error {
	if p.ID == "" {
		return action.ErrEmptyID
	}

	enqueuedAt := p.EnqueuedAt
	if enqueuedAt.IsZero() {
		enqueuedAt = s.now()
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO pending_actions (id, type, payload, enqueued_at, retry_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		p.ID, string(p.Type), string(p.Payload),
		enqueuedAt.UTC().Format(time.RFC3339Nano), p.RetryCount,
	)
	return err
}

// DequeueAll возвращает очередь целиком в порядке постановки, не удаляя элементы.
func (s *Store) DequeueAll(ctx context.Context) ([]action.Pending, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, payload, enqueued_at, retry_count
		FROM pending_actions ORDER BY seq`)
	if err != nil {
		return nil, fault("dequeue all", err)
	}
	defer rows.Close()

	out := make([]action.Pending, 0)
	for rows.Next() {
		var (
			p          action.Pending
			typ        string
			payload    string
			enqueuedAt string
		)
		if err := rows.Scan(&p.ID, &typ, &payload, &enqueuedAt, &p.RetryCount); err != nil {
			return nil, fault("dequeue all", err)
		}
		p.Type = action.Kind(typ)
		p.Payload = json.RawMessage(payload)
		if p.EnqueuedAt, err = time.Parse(time.RFC3339Nano, enqueuedAt); err != nil {
			return nil, fault("dequeue all", fmt.Errorf("action %s: %w", p.ID, err))
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fault("dequeue all", err)
	}

	return out, nil
}

// Remove удаляет действие. Отсутствующий ID не является ошибкой.
func (s *Store) Remove(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_actions WHERE id = ?`, id); err != nil {
		return fault("remove "+id, err)
	}
	return nil
}

// IncrementRetry увеличивает счетчик попыток и возвращает новое значение.
// Для отсутствующего ID возвращает 0.
func (s *Store) IncrementRetry(ctx context.Context, id string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`UPDATE pending_actions SET retry_count = retry_count + 1 WHERE id = ? RETURNING retry_count`, id,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fault("increment retry "+id, err)
	}
	return count, nil
}

// ResetRetries обнуляет счетчики попыток всех действий.
func (s *Store) ResetRetries(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE pending_actions SET retry_count = 0`); err != nil {
		return fault("reset retries", err)
	}
	return nil
}

func (s *Store) CountPending(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_actions`).Scan(&n); err != nil {
		return 0, fault("count pending", err)
	}
	return n, nil
}
