package record

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TempPrefix отличает временные идентификаторы, выданные клиентом без связи с сервером.
const TempPrefix = "temp_"

// Коллекции, известные клиенту и серверу.
const (
	Products      = "products"
	Categories    = "categories"
	Suppliers     = "suppliers"
	Customers     = "customers"
	Technicians   = "technicians"
	Tickets       = "service_tickets"
	Transactions  = "transactions"
	TicketHistory = "ticket_status_history"
)

var collections = []string{
	Products, Categories, Suppliers, Customers,
	Technicians, Tickets, Transactions, TicketHistory,
}

// Record - универсальная обертка сущности: идентификатор и произвольный JSON.
// Поле "id" внутри Data всегда совпадает с ID.
type Record struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// Ref указывает на одну запись в коллекции.
type Ref struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

// Write - запись, которую нужно сохранить в коллекцию.
type Write struct {
	Collection string
	Record     Record
}

// Collections возвращает список всех коллекций.
func Collections() []string {
	out := make([]string, len(collections))
	copy(out, collections)
	return out
}

// Known сообщает, является ли имя допустимой коллекцией.
func Known(collection string) bool {
	for _, c := range collections {
		if c == collection {
			return true
		}
	}
	return false
}

func NewTempID() string {
	return TempPrefix + uuid.NewString()
}

func IsTemp(id string) bool {
	return strings.HasPrefix(id, TempPrefix)
}

// Encode сериализует сущность в запись и проставляет ключ "id" в данных.
func Encode(id string, v any) (Record, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	data, err := WithID(raw, id)
	if err != nil {
		return Record{}, err
	}

	return Record{ID: id, Data: data}, nil
}

// WithID возвращает копию JSON-объекта с установленным ключом "id".
func WithID(raw json.RawMessage, id string) (json.RawMessage, error) {
	return Merge(raw, json.RawMessage(fmt.Sprintf(`{"id":%q}`, id)))
}

// Merge накладывает патч верхнего уровня на JSON-объект.
func Merge(data, patch json.RawMessage) (json.RawMessage, error) {
	base := map[string]json.RawMessage{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &base); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		if base == nil {
			base = map[string]json.RawMessage{}
		}
	}

	var p map[string]json.RawMessage
	if err := json.Unmarshal(patch, &p); err != nil {
		return nil, fmt.Errorf("%w: patch: %v", ErrInvalidData, err)
	}
	for k, v := range p {
		base[k] = v
	}

	out, err := json.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return out, nil
}

// IsObject проверяет, что данные являются JSON-объектом.
func IsObject(data json.RawMessage) bool {
	var m map[string]json.RawMessage
	return json.Unmarshal(data, &m) == nil && m != nil
}

// Decode разбирает данные записи в сущность.
func Decode[T any](r Record) (T, error) {
	var v T
	if err := json.Unmarshal(r.Data, &v); err != nil {
		return v, fmt.Errorf("%w: %s: %v", ErrInvalidData, r.ID, err)
	}
	return v, nil
}

func DecodeAll[T any](recs []Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		v, err := Decode[T](r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
