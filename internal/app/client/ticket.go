package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"technoplus/internal/domain/action"
	"technoplus/internal/domain/record"
	"technoplus/internal/domain/ticket"
)

// TicketService - заявки на ремонт и история их статусов.
type TicketService struct {
	facade[ticket.Ticket, ticket.Patch]
	now func() time.Time
}

func NewTicketService(d deps) *TicketService {
	f := newFacade[ticket.Ticket, ticket.Patch](ticket.Collection, ticket.SearchFields, d)
	f.createAction = func(tempID string, v ticket.Ticket) action.Action {
		return action.CreateTicket{TempID: tempID, Ticket: v}
	}
	f.updateAction = func(id string, p ticket.Patch) action.Action {
		return action.UpdateTicket{ID: id, Patch: p}
	}
	f.deleteAction = func(id string) action.Action {
		return action.DeleteTicket{ID: id}
	}

	return &TicketService{facade: f, now: time.Now}
}

func (s *TicketService) Create(ctx context.Context, t ticket.Ticket) (ticket.Ticket, error) {
	now := s.now().UTC()
	t.ID = ""
	t.Active = true
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Status == "" {
		t.Status = ticket.StatusReceived
	}
	if t.TicketNumber == "" {
		t.TicketNumber = "T-" + now.Format("060102-150405")
	}
	return s.facade.Create(ctx, t)
}

func (s *TicketService) Update(ctx context.Context, id string, p ticket.Patch) (ticket.Ticket, error) {
	if p.UpdatedAt == nil {
		now := s.now().UTC()
		p.UpdatedAt = &now
	}
	return s.facade.Update(ctx, id, p)
}

// ByCustomer возвращает заявки клиента.
func (s *TicketService) ByCustomer(ctx context.Context, customerID string) ([]ticket.Ticket, error) {
	return s.findBy(ctx, "customer_id", customerID)
}

// History возвращает историю статусов заявки.
func (s *TicketService) History(ctx context.Context, ticketID string) ([]ticket.StatusChange, error) {
	return lookup[ticket.StatusChange](ctx, s.deps, ticket.HistoryCollection, "ticket_id", ticketID)
}

// ChangeStatus меняет статус заявки и добавляет запись в историю.
// Без связи обе записи сохраняются локально одним действием в очереди.
func (s *TicketService) ChangeStatus(ctx context.Context, id string, status ticket.Status, note string) (ticket.Ticket, error) {
	if !status.Valid() {
		return ticket.Ticket{}, ticket.ErrInvalidStatus
	}

	var from ticket.Status
	if rec, ok, err := s.store.Get(ctx, ticket.Collection, id); err != nil {
		return ticket.Ticket{}, err
	} else if ok {
		if t, err := record.Decode[ticket.Ticket](rec); err == nil {
			from = t.Status
		}
	}

	changedAt := s.now().UTC()
	patch := ticket.Patch{Status: &status, UpdatedAt: &changedAt}
	change := ticket.StatusChange{
		TicketID:   id,
		FromStatus: from,
		ToStatus:   status,
		Note:       note,
		ChangedAt:  changedAt,
	}

	direct, err := s.direct(ctx, id)
	if err != nil {
		return ticket.Ticket{}, err
	}

	key := action.NewID()
	if direct {
		updated, err := s.remoteChangeStatus(ctx, key, id, patch, change)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, record.ErrNotFound) {
			return ticket.Ticket{}, err
		}
		s.remoteFailed("change status", err)
	}

	data, err := json.Marshal(patch)
	if err != nil {
		return ticket.Ticket{}, fmt.Errorf("%w: %v", record.ErrInvalidData, err)
	}
	local, cached, err := s.mergeLocal(ctx, id, data)
	if err != nil {
		return ticket.Ticket{}, err
	}

	historyID := record.NewTempID()
	history, err := record.Encode(historyID, change)
	if err != nil {
		return ticket.Ticket{}, err
	}

	a := action.ChangeTicketStatus{
		TicketID:   id,
		HistoryID:  historyID,
		FromStatus: from,
		Status:     status,
		Note:       note,
		ChangedAt:  changedAt,
	}
	writes := make([]record.Write, 0, 2)
	if cached {
		writes = append(writes, record.Write{Collection: ticket.Collection, Record: local})
	} else {
		s.log.Warn("Заявки нет локально, смена статуса только поставлена в очередь", "id", id)
	}
	writes = append(writes, record.Write{Collection: ticket.HistoryCollection, Record: history})
	if err := s.sync.StageWithID(ctx, key, a, writes...); err != nil {
		return ticket.Ticket{}, err
	}

	return record.Decode[ticket.Ticket](local)
}

// remoteChangeStatus выполняет смену статуса на сервере теми же ключами,
// что и воспроизведение из очереди.
func (s *TicketService) remoteChangeStatus(ctx context.Context, key, id string, patch ticket.Patch, change ticket.StatusChange) (ticket.Ticket, error) {
	data, err := json.Marshal(patch)
	if err != nil {
		return ticket.Ticket{}, fmt.Errorf("%w: %v", record.ErrInvalidData, err)
	}
	updated, err := s.backend.Update(ctx, ticket.Collection, id, data)
	if err != nil {
		return ticket.Ticket{}, err
	}

	data, err = json.Marshal(change)
	if err != nil {
		return ticket.Ticket{}, fmt.Errorf("%w: %v", record.ErrInvalidData, err)
	}
	history, err := s.backend.Insert(ctx, ticket.HistoryCollection, action.HistoryKey(key), data)
	if err != nil {
		return ticket.Ticket{}, err
	}

	if _, err := s.sync.Absorb(ctx, ticket.Collection, []record.Record{updated}); err != nil {
		return ticket.Ticket{}, err
	}
	if _, err := s.sync.Absorb(ctx, ticket.HistoryCollection, []record.Record{history}); err != nil {
		return ticket.Ticket{}, err
	}

	return record.Decode[ticket.Ticket](updated)
}
