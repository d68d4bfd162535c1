package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"

	"technoplus/internal/domain/action"
	"technoplus/internal/domain/record"
	"technoplus/internal/domain/sync"
)

// LocalStore - локальные чтения, которые нужны фасадам.
type LocalStore interface {
	Get(ctx context.Context, collection, id string) (record.Record, bool, error)
	Query(ctx context.Context, collection string, q record.Query) ([]record.Record, error)
	FindBy(ctx context.Context, collection, index, value string) ([]record.Record, error)
}

type validator interface {
	Validate() error
}

// facade реализует общий контракт доступа к коллекции: сначала сервер,
// при любой его ошибке локальная запись и действие в очереди.
type facade[T validator, P validator] struct {
	deps
	collection string
	fields     []string

	createAction func(tempID string, v T) action.Action
	updateAction func(id string, p P) action.Action
	deleteAction func(id string) action.Action
}

func newFacade[T validator, P validator](collection string, fields []string, d deps) facade[T, P] {
	d.log = d.log.With(slog.String("component", collection+"_service"))
	return facade[T, P]{
		deps:       d,
		collection: collection,
		fields:     fields,
	}
}

// deps - общие зависимости фасадов.
type deps struct {
	backend record.Backend
	store   LocalStore
	sync    *sync.Manager
	log     *slog.Logger
}

// Create создает запись на сервере, а без связи под временным идентификатором.
func (f *facade[T, P]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	if err := v.Validate(); err != nil {
		return zero, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", record.ErrInvalidData, err)
	}

	// идентификатор действия заранее служит ключом идемпотентности,
	// чтобы повтор из очереди не создал дубликат
	key := action.NewID()
	rec, err := f.backend.Insert(ctx, f.collection, key, data)
	if err == nil {
		if _, err := f.sync.Absorb(ctx, f.collection, []record.Record{rec}); err != nil {
			return zero, err
		}
		return record.Decode[T](rec)
	}
	f.remoteFailed("insert", err)

	tempID := record.NewTempID()
	local, err := record.Encode(tempID, v)
	if err != nil {
		return zero, err
	}
	created, err := record.Decode[T](local)
	if err != nil {
		return zero, err
	}

	err = f.sync.StageWithID(ctx, key, f.createAction(tempID, created),
		record.Write{Collection: f.collection, Record: local})
	if err != nil {
		return zero, err
	}

	return created, nil
}

// Update применяет частичное обновление. Временная запись меняется только локально.
func (f *facade[T, P]) Update(ctx context.Context, id string, p P) (T, error) {
	var zero T
	if f.updateAction == nil {
		return zero, fmt.Errorf("%w: update %s", ErrNotSupported, f.collection)
	}
	if err := p.Validate(); err != nil {
		return zero, err
	}

	patch, err := json.Marshal(p)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", record.ErrInvalidData, err)
	}

	return f.patch(ctx, id, patch, f.updateAction(id, p))
}

// Delete помечает запись неактивной.
func (f *facade[T, P]) Delete(ctx context.Context, id string) error {
	if f.deleteAction == nil {
		return fmt.Errorf("%w: delete %s", ErrNotSupported, f.collection)
	}
	_, err := f.patch(ctx, id, json.RawMessage(`{"active":false}`), f.deleteAction(id))
	return err
}

// patch отправляет патч на сервер, при ошибке накладывает его локально и ставит a в очередь.
func (f *facade[T, P]) patch(ctx context.Context, id string, patch json.RawMessage, a action.Action) (T, error) {
	var zero T
	if id == "" {
		return zero, fmt.Errorf("%w: empty id", record.ErrNotFound)
	}

	direct, err := f.direct(ctx, id)
	if err != nil {
		return zero, err
	}
	if direct {
		rec, err := f.backend.Update(ctx, f.collection, id, patch)
		if err == nil {
			if _, err := f.sync.Absorb(ctx, f.collection, []record.Record{rec}); err != nil {
				return zero, err
			}
			return record.Decode[T](rec)
		}
		if errors.Is(err, record.ErrNotFound) {
			return zero, err
		}
		f.remoteFailed("update", err)
	}

	local, cached, err := f.mergeLocal(ctx, id, patch)
	if err != nil {
		return zero, err
	}

	// без локальной копии в очередь уходит только действие: частичная запись
	// заслонила бы полную серверную до воспроизведения
	var writes []record.Write
	if cached {
		writes = append(writes, record.Write{Collection: f.collection, Record: local})
	} else {
		f.log.Warn("Записи нет локально, изменение только поставлено в очередь", "id", id)
	}
	if err := f.sync.Stage(ctx, a, writes...); err != nil {
		return zero, err
	}

	return record.Decode[T](local)
}

// directFor сообщает, можно ли менять запись прямым запросом к серверу. Временные
// записи и записи с действиями в очереди меняются только через очередь,
// чтобы сервер получил изменения в том же порядке.
func (d deps) directFor(ctx context.Context, ref record.Ref) (bool, error) {
	if record.IsTemp(ref.ID) {
		return false, nil
	}
	pending, err := d.sync.HasPending(ctx, ref)
	if err != nil {
		return false, err
	}
	return !pending, nil
}

func (f *facade[T, P]) direct(ctx context.Context, id string) (bool, error) {
	return f.directFor(ctx, record.Ref{Collection: f.collection, ID: id})
}

// mergeLocal накладывает патч на локальную копию записи. Если копии нет,
// патч накладывается на пустой объект и cached равен false.
func (f *facade[T, P]) mergeLocal(ctx context.Context, id string, patch json.RawMessage) (record.Record, bool, error) {
	current, cached, err := f.store.Get(ctx, f.collection, id)
	if err != nil {
		return record.Record{}, false, err
	}

	base := json.RawMessage(`{}`)
	if cached {
		base = current.Data
	}

	merged, err := record.Merge(base, patch)
	if err != nil {
		return record.Record{}, false, err
	}
	merged, err = record.WithID(merged, id)
	if err != nil {
		return record.Record{}, false, err
	}

	return record.Record{ID: id, Data: merged}, cached, nil
}

// Get возвращает запись по идентификатору. Отсутствие записи - ErrNotFound.
func (f *facade[T, P]) Get(ctx context.Context, id string) (T, error) {
	var zero T

	if !record.IsTemp(id) {
		recs, err := f.backend.Select(ctx, f.collection, byID(id))
		if err == nil {
			recs, err = f.sync.Reconcile(ctx, f.collection, byID(id), recs)
			if err != nil {
				return zero, err
			}
			if len(recs) == 0 {
				return zero, fmt.Errorf("%w: %s/%s", record.ErrNotFound, f.collection, id)
			}
			return record.Decode[T](recs[0])
		}
		f.remoteFailed("select", err)
	}

	rec, ok, err := f.store.Get(ctx, f.collection, id)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, fmt.Errorf("%w: %s/%s", record.ErrNotFound, f.collection, id)
	}
	return record.Decode[T](rec)
}

// List читает коллекцию через сервер с сохранением результата, без связи из хранилища.
func (f *facade[T, P]) List(ctx context.Context, q record.Query) ([]T, error) {
	recs, err := f.query(ctx, q)
	if err != nil {
		return nil, err
	}
	return record.DecodeAll[T](recs)
}

// Search ищет активные записи по фиксированным полям коллекции.
func (f *facade[T, P]) Search(ctx context.Context, text string) ([]T, error) {
	return f.List(ctx, record.Query{ActiveOnly: true, Text: text, Fields: f.fields})
}

// findBy ищет записи по вторичному индексу.
func (f *facade[T, P]) findBy(ctx context.Context, index, value string) ([]T, error) {
	return lookup[T](ctx, f.deps, f.collection, index, value)
}

func (f *facade[T, P]) query(ctx context.Context, q record.Query) ([]record.Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	recs, err := f.backend.Select(ctx, f.collection, q)
	if err == nil {
		return f.sync.Reconcile(ctx, f.collection, q, recs)
	}
	f.remoteFailed("select", err)

	return f.store.Query(ctx, f.collection, q)
}

func (d deps) remoteFailed(op string, err error) {
	d.log.Warn("Сервер недоступен, работаем локально", "op", op, "error", err)
}

// lookup читает записи с полем index, равным value: с сервера с сохранением
// результата, без связи по индексу локального хранилища.
func lookup[T any](ctx context.Context, d deps, collection, index, value string) ([]T, error) {
	q := record.Query{Filters: []record.Eq{{Field: index, Value: value}}}

	recs, err := d.backend.Select(ctx, collection, q)
	if err == nil {
		recs, err = d.sync.Reconcile(ctx, collection, q, recs)
		if err != nil {
			return nil, err
		}
		return record.DecodeAll[T](recs)
	}
	d.remoteFailed("select", err)

	recs, err = d.store.FindBy(ctx, collection, index, value)
	if err != nil {
		return nil, err
	}
	return record.DecodeAll[T](recs)
}

func byID(id string) record.Query {
	return record.Query{Filters: []record.Eq{{Field: "id", Value: id}}}
}
