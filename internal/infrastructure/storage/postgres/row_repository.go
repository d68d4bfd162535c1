package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"technoplus/internal/domain/record"
)

// invalid_text_representation: поле не приводится к numeric
const codeInvalidText = "22P02"

type RowRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewRowRepository(pool *pgxpool.Pool, log *slog.Logger) *RowRepository {
	return &RowRepository{
		pool: pool,
		log:  log.With("component", "row_repository"),
	}
}

func (r *RowRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *RowRepository) Select(ctx context.Context, collection string, q record.Query) ([]record.Record, error) {
	query, args := buildSelect(collection, q)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to select rows", "collection", collection, "error", err)
		return nil, fmt.Errorf("select rows: %w", err)
	}
	defer rows.Close()

	out := make([]record.Record, 0)
	for rows.Next() {
		var rec record.Record
		var data []byte
		if err := rows.Scan(&rec.ID, &data); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec.Data = data
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return out, nil
}

func (r *RowRepository) Insert(ctx context.Context, collection, key string, data json.RawMessage) (record.Record, error) {
	const insert = `
		INSERT INTO rows (collection, id, data, idempotency_key)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		ON CONFLICT (collection, idempotency_key) WHERE idempotency_key IS NOT NULL DO NOTHING
		RETURNING id, data`

	id := uuid.NewString()
	stored, err := record.WithID(data, id)
	if err != nil {
		return record.Record{}, err
	}

	rec, err := scanRow(r.pool.QueryRow(ctx, insert, collection, id, []byte(stored), key))
	if errors.Is(err, pgx.ErrNoRows) {
		r.log.Debug("duplicate insert", "collection", collection, "key", key)
		return r.byKey(ctx, collection, key)
	}
	if err != nil {
		r.log.Error("failed to insert row", "collection", collection, "error", err)
		return record.Record{}, fmt.Errorf("insert row: %w", err)
	}

	return rec, nil
}

func (r *RowRepository) Update(ctx context.Context, collection, id string, patch json.RawMessage) (record.Record, error) {
	const update = `
		UPDATE rows
		SET data = data || $3::jsonb || jsonb_build_object('id', id), updated_at = NOW()
		WHERE collection = $1 AND id = $2
		RETURNING id, data`

	rec, err := scanRow(r.pool.QueryRow(ctx, update, collection, id, []byte(patch)))
	if errors.Is(err, pgx.ErrNoRows) {
		return record.Record{}, fmt.Errorf("%w: %s/%s", record.ErrNotFound, collection, id)
	}
	if err != nil {
		r.log.Error("failed to update row", "collection", collection, "id", id, "error", err)
		return record.Record{}, fmt.Errorf("update row: %w", err)
	}

	return rec, nil
}

// Decrement уменьшает числовое поле одной транзакцией вместе с отметкой ключа
// в applied_ops, поэтому повтор с тем же ключом не списывает дважды.
func (r *RowRepository) Decrement(ctx context.Context, collection, id, field string, amount float64, key string) (record.Record, error) {
	const decrement = `
		UPDATE rows
		SET data = jsonb_set(data, ARRAY[$3::text], to_jsonb(COALESCE((data->>$3::text)::numeric, 0) - $4::numeric)),
		    updated_at = NOW()
		WHERE collection = $1 AND id = $2
		RETURNING id, data`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return record.Record{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if key != "" {
		tag, err := tx.Exec(ctx, `INSERT INTO applied_ops (key) VALUES ($1) ON CONFLICT DO NOTHING`, key)
		if err != nil {
			return record.Record{}, fmt.Errorf("mark applied: %w", err)
		}
		if tag.RowsAffected() == 0 {
			r.log.Debug("duplicate decrement", "collection", collection, "id", id, "key", key)
			rec, err := scanRow(tx.QueryRow(ctx, `SELECT id, data FROM rows WHERE collection = $1 AND id = $2`, collection, id))
			if errors.Is(err, pgx.ErrNoRows) {
				return record.Record{}, fmt.Errorf("%w: %s/%s", record.ErrNotFound, collection, id)
			}
			return rec, err
		}
	}

	rec, err := scanRow(tx.QueryRow(ctx, decrement, collection, id, field, amount))
	if errors.Is(err, pgx.ErrNoRows) {
		return record.Record{}, fmt.Errorf("%w: %s/%s", record.ErrNotFound, collection, id)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeInvalidText {
		return record.Record{}, fmt.Errorf("%w: field %s is not a number", record.ErrInvalidData, field)
	}
	if err != nil {
		r.log.Error("failed to decrement", "collection", collection, "id", id, "field", field, "error", err)
		return record.Record{}, fmt.Errorf("decrement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return record.Record{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

func (r *RowRepository) byKey(ctx context.Context, collection, key string) (record.Record, error) {
	rec, err := scanRow(r.pool.QueryRow(ctx,
		`SELECT id, data FROM rows WHERE collection = $1 AND idempotency_key = $2`, collection, key))
	if err != nil {
		return record.Record{}, fmt.Errorf("get row by key: %w", err)
	}
	return rec, nil
}

func scanRow(row pgx.Row) (record.Record, error) {
	var rec record.Record
	var data []byte
	if err := row.Scan(&rec.ID, &data); err != nil {
		return record.Record{}, err
	}
	rec.Data = data
	return rec, nil
}

// buildSelect переводит record.Query в SQL с теми же правилами, что и Query.Match.
func buildSelect(collection string, q record.Query) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, data FROM rows WHERE collection = $1`)
	args := []any{collection}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.ActiveOnly {
		sb.WriteString(` AND (data->'active') IS DISTINCT FROM 'false'::jsonb`)
	}

	for _, f := range q.Filters {
		sb.WriteString(` AND data->>` + arg(f.Field) + `::text = ` + arg(f.Value))
	}

	if q.Text != "" {
		if len(q.Fields) == 0 {
			sb.WriteString(` AND FALSE`)
		} else {
			pattern := arg("%" + escapeLike(q.Text) + "%")
			conds := make([]string, 0, len(q.Fields))
			for _, f := range q.Fields {
				conds = append(conds, `data->>`+arg(f)+`::text ILIKE `+pattern)
			}
			sb.WriteString(` AND (` + strings.Join(conds, ` OR `) + `)`)
		}
	}

	sb.WriteString(` ORDER BY seq`)
	return sb.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
