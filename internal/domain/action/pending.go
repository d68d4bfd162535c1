package action

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"technoplus/internal/domain/record"
)

// Pending - действие в очереди, как оно хранится на диске.
type Pending struct {
	ID         string          `json:"id"`
	Type       Kind            `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	RetryCount int             `json:"retry_count"`
}

var tempRef = regexp.MustCompile(`"(` + record.TempPrefix + `[0-9a-fA-F-]+)"`)

var decoders = map[Kind]func(json.RawMessage) (Action, error){
	KindCreateProduct:     decodeAs[CreateProduct],
	KindUpdateProduct:     decodeAs[UpdateProduct],
	KindDeleteProduct:     decodeAs[DeleteProduct],
	KindDecrementStock:    decodeAs[DecrementStock],
	KindCreateCategory:    decodeAs[CreateCategory],
	KindCreateCustomer:    decodeAs[CreateCustomer],
	KindUpdateCustomer:    decodeAs[UpdateCustomer],
	KindDeleteCustomer:    decodeAs[DeleteCustomer],
	KindCreateTicket:      decodeAs[CreateTicket],
	KindUpdateTicket:      decodeAs[UpdateTicket],
	KindChangeStatus:      decodeAs[ChangeTicketStatus],
	KindDeleteTicket:      decodeAs[DeleteTicket],
	KindCreateTransaction: decodeAs[CreateTransaction],
	KindUpdateTransaction: decodeAs[UpdateTransaction],
	KindVoidTransaction:   decodeAs[VoidTransaction],
}

// NewID возвращает идентификатор из времени и случайной части: "<unix ms>-<8 hex>".
func NewID() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + random[:8]
}

// New упаковывает действие для очереди со сгенерированным идентификатором.
func New(a Action) (Pending, error) {
	return NewWithID(NewID(), a)
}

// NewWithID упаковывает действие с идентификатором, заданным вызывающим.
func NewWithID(id string, a Action) (Pending, error) {
	if id == "" {
		return Pending{}, ErrEmptyID
	}

	payload, err := json.Marshal(a)
	if err != nil {
		return Pending{}, fmt.Errorf("marshal %s: %w", a.Kind(), err)
	}

	return Pending{
		ID:         id,
		Type:       a.Kind(),
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

// Decode восстанавливает типизированное действие по тегу.
func (p Pending) Decode() (Action, error) {
	decode, ok := decoders[p.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, p.Type)
	}

	a, err := decode(p.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", p.Type, p.ID, err)
	}
	return a, nil
}

// Remap подставляет постоянные идентификаторы вместо временных во всех полях действия.
func Remap(a Action, ids map[string]string) (Action, error) {
	if len(ids) == 0 {
		return a, nil
	}

	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", a.Kind(), err)
	}

	replaced := ReplaceRefs(payload, ids)
	return Pending{Type: a.Kind(), Payload: replaced}.Decode()
}

// ReplaceRefs заменяет JSON-строки, равные временным идентификаторам.
func ReplaceRefs(payload json.RawMessage, ids map[string]string) json.RawMessage {
	return tempRef.ReplaceAllFunc(payload, func(m []byte) []byte {
		if canonical, ok := ids[string(m[1:len(m)-1])]; ok {
			return []byte(strconv.Quote(canonical))
		}
		return m
	})
}

// TempRefs возвращает временные идентификаторы, на которые ссылается действие,
// кроме создаваемого им самим.
func TempRefs(a Action) []string {
	payload, err := json.Marshal(a)
	if err != nil {
		return nil
	}

	var own string
	if c, ok := a.(Creator); ok {
		own = c.Created().ID
	}

	seen := make(map[string]bool)
	var out []string
	for _, m := range tempRef.FindAllSubmatch(payload, -1) {
		id := string(m[1])
		if id == own || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func decodeAs[T Action](raw json.RawMessage) (Action, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// HistoryKey - ключ идемпотентности строки истории, которую добавляет смена статуса.
func HistoryKey(id string) string {
	return id + ":history"
}

// ItemKey - ключ идемпотентности списания остатка по i-й позиции продажи.
func ItemKey(id string, i int) string {
	return id + ":item:" + strconv.Itoa(i)
}
