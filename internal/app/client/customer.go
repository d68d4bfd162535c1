package client

import (
	"context"
	"time"

	"technoplus/internal/domain/action"
	"technoplus/internal/domain/customer"
)

// CustomerService - доступ к клиентам магазина.
type CustomerService struct {
	facade[customer.Customer, customer.Patch]
	now func() time.Time
}

func NewCustomerService(d deps) *CustomerService {
	f := newFacade[customer.Customer, customer.Patch](customer.Collection, customer.SearchFields, d)
	f.createAction = func(tempID string, v customer.Customer) action.Action {
		return action.CreateCustomer{TempID: tempID, Customer: v}
	}
	f.updateAction = func(id string, p customer.Patch) action.Action {
		return action.UpdateCustomer{ID: id, Patch: p}
	}
	f.deleteAction = func(id string) action.Action {
		return action.DeleteCustomer{ID: id}
	}

	return &CustomerService{facade: f, now: time.Now}
}

func (s *CustomerService) Create(ctx context.Context, c customer.Customer) (customer.Customer, error) {
	now := s.now().UTC()
	c.ID = ""
	c.Active = true
	c.CreatedAt = now
	c.UpdatedAt = now
	return s.facade.Create(ctx, c)
}

func (s *CustomerService) Update(ctx context.Context, id string, p customer.Patch) (customer.Customer, error) {
	if p.UpdatedAt == nil {
		now := s.now().UTC()
		p.UpdatedAt = &now
	}
	return s.facade.Update(ctx, id, p)
}
