package record

import (
	"context"
	"encoding/json"
)

// Repository - построчные операции над коллекциями.
type Repository interface {
	// Select возвращает записи коллекции, удовлетворяющие запросу.
	Select(ctx context.Context, collection string, q Query) ([]Record, error)

	// Insert создает запись. Повторный вызов с тем же непустым key возвращает исходную запись.
	Insert(ctx context.Context, collection, key string, data json.RawMessage) (Record, error)

	// Update накладывает патч верхнего уровня на данные записи.
	Update(ctx context.Context, collection, id string, patch json.RawMessage) (Record, error)

	// Decrement атомарно уменьшает числовое поле. Повторный вызов с тем же key не применяется.
	Decrement(ctx context.Context, collection, id, field string, amount float64, key string) (Record, error)
}

// Backend - удаленный сервер с точки зрения клиента.
type Backend interface {
	Repository
	Ping(ctx context.Context) error
}
