package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"technoplus/internal/domain/record"
)

// RowRepository хранит строки коллекций в памяти процесса.
// Используется сервером в режиме разработки и в тестах.
type RowRepository struct {
	mu      sync.Mutex
	order   map[string][]string
	rows    map[string]map[string]json.RawMessage
	keys    map[string]map[string]string
	applied map[string]bool
	log     *slog.Logger
}

func NewRowRepository(log *slog.Logger) *RowRepository {
	return &RowRepository{
		order:   make(map[string][]string),
		rows:    make(map[string]map[string]json.RawMessage),
		keys:    make(map[string]map[string]string),
		applied: make(map[string]bool),
		log:     log.With("component", "memory_row_repository"),
	}
}

func (r *RowRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *RowRepository) Select(ctx context.Context, collection string, q record.Query) ([]record.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]record.Record, 0, len(r.order[collection]))
	for _, id := range r.order[collection] {
		data := r.rows[collection][id]
		if q.Match(data) {
			out = append(out, record.Record{ID: id, Data: clone(data)})
		}
	}
	return out, nil
}

func (r *RowRepository) Insert(ctx context.Context, collection, key string, data json.RawMessage) (record.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if key != "" {
		if id, ok := r.keys[collection][key]; ok {
			r.log.Debug("duplicate insert", "collection", collection, "key", key, "id", id)
			return record.Record{ID: id, Data: clone(r.rows[collection][id])}, nil
		}
	}

	id := uuid.NewString()
	stored, err := record.WithID(data, id)
	if err != nil {
		return record.Record{}, err
	}

	if r.rows[collection] == nil {
		r.rows[collection] = make(map[string]json.RawMessage)
		r.keys[collection] = make(map[string]string)
	}
	r.rows[collection][id] = stored
	r.order[collection] = append(r.order[collection], id)
	if key != "" {
		r.keys[collection][key] = id
	}

	return record.Record{ID: id, Data: clone(stored)}, nil
}

func (r *RowRepository) Update(ctx context.Context, collection, id string, patch json.RawMessage) (record.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.update(collection, id, patch)
}

func (r *RowRepository) Decrement(ctx context.Context, collection, id, field string, amount float64, key string) (record.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.rows[collection][id]
	if !ok {
		return record.Record{}, fmt.Errorf("%w: %s/%s", record.ErrNotFound, collection, id)
	}
	if key != "" && r.applied[key] {
		r.log.Debug("duplicate decrement", "collection", collection, "id", id, "key", key)
		return record.Record{ID: id, Data: clone(current)}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(current, &fields); err != nil {
		return record.Record{}, fmt.Errorf("%w: %v", record.ErrInvalidData, err)
	}

	var value float64
	if raw, ok := fields[field]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &value); err != nil {
			return record.Record{}, fmt.Errorf("%w: field %s is not a number", record.ErrInvalidData, field)
		}
	}

	patch, err := json.Marshal(map[string]json.RawMessage{
		field: json.RawMessage(strconv.FormatFloat(value-amount, 'f', -1, 64)),
	})
	if err != nil {
		return record.Record{}, err
	}

	rec, err := r.update(collection, id, patch)
	if err != nil {
		return record.Record{}, err
	}
	if key != "" {
		r.applied[key] = true
	}
	return rec, nil
}

func (r *RowRepository) update(collection, id string, patch json.RawMessage) (record.Record, error) {
	current, ok := r.rows[collection][id]
	if !ok {
		return record.Record{}, fmt.Errorf("%w: %s/%s", record.ErrNotFound, collection, id)
	}

	merged, err := record.Merge(current, patch)
	if err != nil {
		return record.Record{}, err
	}
	merged, err = record.WithID(merged, id)
	if err != nil {
		return record.Record{}, err
	}

	r.rows[collection][id] = merged
	return record.Record{ID: id, Data: clone(merged)}, nil
}

func clone(data json.RawMessage) json.RawMessage {
	out := make(json.RawMessage, len(data))
	copy(out, data)
	return out
}
