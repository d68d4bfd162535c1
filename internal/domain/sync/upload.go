package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"technoplus/internal/domain/action"
	"technoplus/internal/domain/product"
	"technoplus/internal/domain/record"
	"technoplus/internal/domain/ticket"
	"technoplus/internal/domain/transaction"
)

// outcome - строки, которые вернул сервер при воспроизведении действия.
type outcome struct {
	// created - строка, созданная под временным идентификатором действия.
	created *record.Record
	writes  []record.Write
}

// upload воспроизводит очередь по порядку. Временные идентификаторы,
// получившие постоянные в этом проходе, подставляются в последующие действия.
func (m *Manager) upload(ctx context.Context, res *Result) {
	queue, err := m.store.DequeueAll(ctx)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("upload: %v", err))
		return
	}

	ids := make(map[string]string)
	failed := make(map[string]bool)

	for i, p := range queue {
		a, err := p.Decode()
		if err == nil {
			a, err = action.Remap(a, ids)
		}
		if err != nil {
			if err := m.discard(ctx, p, err, res); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("upload aborted: %v", err))
				return
			}
			continue
		}

		if dep := blockedBy(a, failed); dep != "" {
			res.Deferred++
			if c, ok := a.(action.Creator); ok {
				failed[c.Created().ID] = true
			}
			m.log.Info("action deferred", "type", p.Type, "id", p.ID, "depends_on", dep)
			continue
		}

		out, err := m.replay(ctx, p.ID, a)
		if err != nil {
			if c, ok := a.(action.Creator); ok {
				failed[c.Created().ID] = true
			}
			if err := m.fail(ctx, p, err, res); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("upload aborted: %v", err))
				return
			}
			continue
		}

		if err := m.complete(ctx, p, a, out, queue[i+1:], ids); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("upload aborted: %v", err))
			return
		}
		res.Uploaded++
		m.log.Debug("action replayed", "type", p.Type, "id", p.ID)
		m.publish(ctx)
	}
}

// complete удаляет выполненное действие и переносит ответ сервера в хранилище.
func (m *Manager) complete(ctx context.Context, p action.Pending, a action.Action, out outcome, rest []action.Pending, ids map[string]string) error {
	if err := m.store.Remove(ctx, p.ID); err != nil {
		return err
	}

	if c, ok := a.(action.Creator); ok && out.created != nil {
		ref := c.Created()
		if record.IsTemp(ref.ID) {
			ids[ref.ID] = out.created.ID

			// локальные правки, еще ждущие отправки, важнее ответа сервера
			canonical := out.created
			if targetedBy(rest, ref) {
				canonical = nil
			}
			if err := m.store.ReplaceID(ctx, ref.Collection, ref.ID, out.created.ID, canonical); err != nil {
				return err
			}
		} else if _, err := m.Absorb(ctx, ref.Collection, []record.Record{*out.created}); err != nil {
			return err
		}
	}

	for _, w := range out.writes {
		if _, err := m.Absorb(ctx, w.Collection, []record.Record{w.Record}); err != nil {
			return err
		}
	}
	return nil
}

// fail учитывает неудачную попытку. На пределе попыток действие удаляется.
func (m *Manager) fail(ctx context.Context, p action.Pending, cause error, res *Result) error {
	n, err := m.store.IncrementRetry(ctx, p.ID)
	if err != nil {
		return err
	}

	if n >= m.cfg.MaxRetries {
		if err := m.store.Remove(ctx, p.ID); err != nil {
			return err
		}
		res.Dropped++
		res.Errors = append(res.Errors, fmt.Sprintf("%s %s: removed after %d failed attempts: %v", p.Type, p.ID, n, cause))
		m.log.Error("action dropped", "type", p.Type, "id", p.ID, "attempts", n, "error", cause)
	} else {
		res.Failed++
		res.Errors = append(res.Errors, fmt.Sprintf("%s %s: attempt %d failed: %v", p.Type, p.ID, n, cause))
		m.log.Warn("action failed", "type", p.Type, "id", p.ID, "attempt", n, "error", cause)
	}

	m.publish(ctx)
	return nil
}

// discard удаляет действие, которое невозможно разобрать.
func (m *Manager) discard(ctx context.Context, p action.Pending, cause error, res *Result) error {
	if err := m.store.Remove(ctx, p.ID); err != nil {
		return err
	}

	if errors.Is(cause, action.ErrUnknownKind) {
		res.Skipped++
		m.log.Warn("unknown action removed", "type", p.Type, "id", p.ID)
	} else {
		res.Dropped++
		res.Errors = append(res.Errors, fmt.Sprintf("%s %s: removed: %v", p.Type, p.ID, cause))
		m.log.Error("undecodable action removed", "type", p.Type, "id", p.ID, "error", cause)
	}

	m.publish(ctx)
	return nil
}

// replay выполняет удаленные операции действия. Ключ идемпотентности:
// идентификатор действия, для составных действий с суффиксом подоперации.
func (m *Manager) replay(ctx context.Context, key string, a action.Action) (outcome, error) {
	switch a := a.(type) {
	case action.CreateProduct:
		v := a.Product
		v.ID = ""
		return m.insert(ctx, product.Collection, key, v)
	case action.UpdateProduct:
		return m.update(ctx, product.Collection, a.ID, a.Patch)
	case action.DeleteProduct:
		return m.update(ctx, product.Collection, a.ID, deactivate)
	case action.DecrementStock:
		r, err := m.backend.Decrement(ctx, product.Collection, a.ProductID, product.StockField, float64(a.Quantity), key)
		if err != nil {
			return outcome{}, err
		}
		return outcome{writes: []record.Write{{Collection: product.Collection, Record: r}}}, nil

	case action.CreateCategory:
		v := a.Category
		v.ID = ""
		v.Children = nil
		return m.insert(ctx, record.Categories, key, v)

	case action.CreateCustomer:
		v := a.Customer
		v.ID = ""
		return m.insert(ctx, record.Customers, key, v)
	case action.UpdateCustomer:
		return m.update(ctx, record.Customers, a.ID, a.Patch)
	case action.DeleteCustomer:
		return m.update(ctx, record.Customers, a.ID, deactivate)

	case action.CreateTicket:
		v := a.Ticket
		v.ID = ""
		return m.insert(ctx, ticket.Collection, key, v)
	case action.UpdateTicket:
		return m.update(ctx, ticket.Collection, a.ID, a.Patch)
	case action.ChangeTicketStatus:
		return m.changeStatus(ctx, key, a)
	case action.DeleteTicket:
		return m.update(ctx, ticket.Collection, a.ID, deactivate)

	case action.CreateTransaction:
		return m.createTransaction(ctx, key, a)
	case action.UpdateTransaction:
		return m.update(ctx, transaction.Collection, a.ID, a.Patch)
	case action.VoidTransaction:
		return m.update(ctx, transaction.Collection, a.ID, map[string]any{
			"active": false,
			"status": transaction.StatusVoided,
		})

	default:
		return outcome{}, fmt.Errorf("%w: %s", ErrUnsupportedAction, a.Kind())
	}
}

var deactivate = map[string]any{"active": false}

func (m *Manager) insert(ctx context.Context, collection, key string, v any) (outcome, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return outcome{}, fmt.Errorf("%w: %v", record.ErrInvalidData, err)
	}

	r, err := m.backend.Insert(ctx, collection, key, data)
	if err != nil {
		return outcome{}, err
	}
	return outcome{created: &r}, nil
}

func (m *Manager) update(ctx context.Context, collection, id string, patch any) (outcome, error) {
	data, err := json.Marshal(patch)
	if err != nil {
		return outcome{}, fmt.Errorf("%w: %v", record.ErrInvalidData, err)
	}

	r, err := m.backend.Update(ctx, collection, id, data)
	if err != nil {
		return outcome{}, err
	}
	return outcome{writes: []record.Write{{Collection: collection, Record: r}}}, nil
}

func (m *Manager) changeStatus(ctx context.Context, key string, a action.ChangeTicketStatus) (outcome, error) {
	updated, err := m.update(ctx, ticket.Collection, a.TicketID, ticket.Patch{
		Status:    &a.Status,
		UpdatedAt: &a.ChangedAt,
	})
	if err != nil {
		return outcome{}, err
	}

	history, err := m.insert(ctx, ticket.HistoryCollection, action.HistoryKey(key), ticket.StatusChange{
		TicketID:   a.TicketID,
		FromStatus: a.FromStatus,
		ToStatus:   a.Status,
		Note:       a.Note,
		ChangedAt:  a.ChangedAt,
	})
	if err != nil {
		return outcome{}, err
	}

	history.writes = updated.writes
	return history, nil
}

// createTransaction создает продажу и списывает остатки по позициям.
// Повтор после частичного сбоя безопасен: у каждой подоперации свой ключ.
func (m *Manager) createTransaction(ctx context.Context, key string, a action.CreateTransaction) (outcome, error) {
	v := a.Transaction
	v.ID = ""

	out, err := m.insert(ctx, transaction.Collection, key, v)
	if err != nil {
		return outcome{}, err
	}

	for i, it := range a.Transaction.Items {
		r, err := m.backend.Decrement(ctx, product.Collection, it.ProductID, product.StockField,
			float64(it.Quantity), action.ItemKey(key, i))
		if err != nil {
			return outcome{}, fmt.Errorf("decrement stock of %s: %w", it.ProductID, err)
		}
		out.writes = append(out.writes, record.Write{Collection: product.Collection, Record: r})
	}

	return out, nil
}

// blockedBy возвращает временный идентификатор, создание которого не удалось в этом проходе.
func blockedBy(a action.Action, failed map[string]bool) string {
	if len(failed) == 0 {
		return ""
	}
	for _, id := range action.TempRefs(a) {
		if failed[id] {
			return id
		}
	}
	return ""
}

func targetedBy(queue []action.Pending, ref record.Ref) bool {
	for _, p := range queue {
		a, err := p.Decode()
		if err != nil {
			continue
		}
		for _, t := range a.Targets() {
			if t == ref {
				return true
			}
		}
	}
	return false
}
