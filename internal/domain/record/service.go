package record

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/exp/slog"
)

// Servicer - операции над строками коллекций, доступные через HTTP API.
type Servicer interface {
	Select(ctx context.Context, collection string, q Query) ([]Record, error)
	Insert(ctx context.Context, collection, key string, data json.RawMessage) (Record, error)
	Update(ctx context.Context, collection, id string, patch json.RawMessage) (Record, error)
	Decrement(ctx context.Context, collection, id, field string, amount float64, key string) (Record, error)
}

// Service validates requests before they reach the row repository.
type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With(slog.String("component", "record_service")),
	}
}

func (s *Service) Select(ctx context.Context, collection string, q Query) ([]Record, error) {
	if !Known(collection) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	recs, err := s.repo.Select(ctx, collection, q)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", collection, err)
	}
	if recs == nil {
		recs = []Record{}
	}

	return recs, nil
}

func (s *Service) Insert(ctx context.Context, collection, key string, data json.RawMessage) (Record, error) {
	if !Known(collection) {
		return Record{}, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	if !IsObject(data) {
		return Record{}, fmt.Errorf("%w: data must be a JSON object", ErrInvalidData)
	}

	rec, err := s.repo.Insert(ctx, collection, key, data)
	if err != nil {
		return Record{}, fmt.Errorf("insert into %s: %w", collection, err)
	}

	s.log.Debug("row inserted", "collection", collection, "id", rec.ID, "key", key)
	return rec, nil
}

func (s *Service) Update(ctx context.Context, collection, id string, patch json.RawMessage) (Record, error) {
	if !Known(collection) {
		return Record{}, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	if id == "" || IsTemp(id) {
		return Record{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil || fields == nil {
		return Record{}, fmt.Errorf("%w: patch must be a JSON object", ErrInvalidData)
	}
	if _, ok := fields["id"]; ok {
		return Record{}, fmt.Errorf("%w: id cannot be patched", ErrInvalidData)
	}

	rec, err := s.repo.Update(ctx, collection, id, patch)
	if err != nil {
		return Record{}, fmt.Errorf("update %s/%s: %w", collection, id, err)
	}

	return rec, nil
}

func (s *Service) Decrement(ctx context.Context, collection, id, field string, amount float64, key string) (Record, error) {
	if !Known(collection) {
		return Record{}, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	if id == "" || IsTemp(id) {
		return Record{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if !fieldName.MatchString(field) || field == "id" {
		return Record{}, fmt.Errorf("%w: field %q", ErrInvalidData, field)
	}

	rec, err := s.repo.Decrement(ctx, collection, id, field, amount, key)
	if err != nil {
		return Record{}, fmt.Errorf("decrement %s/%s.%s: %w", collection, id, field, err)
	}

	s.log.Debug("field decremented", "collection", collection, "id", id, "field", field, "amount", amount)
	return rec, nil
}
