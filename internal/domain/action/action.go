package action

import (
	"time"

	"technoplus/internal/domain/category"
	"technoplus/internal/domain/customer"
	"technoplus/internal/domain/product"
	"technoplus/internal/domain/record"
	"technoplus/internal/domain/ticket"
	"technoplus/internal/domain/transaction"
)

// Kind - тег типа отложенного действия, хранится в очереди.
type Kind string

const (
	KindCreateProduct     Kind = "create-product"
	KindUpdateProduct     Kind = "update-product"
	KindDeleteProduct     Kind = "delete-product"
	KindDecrementStock    Kind = "update-stock"
	KindCreateCategory    Kind = "create-category"
	KindCreateCustomer    Kind = "create-customer"
	KindUpdateCustomer    Kind = "update-customer"
	KindDeleteCustomer    Kind = "delete-customer"
	KindCreateTicket      Kind = "create-ticket"
	KindUpdateTicket      Kind = "update-ticket"
	KindChangeStatus      Kind = "update-ticket-status"
	KindDeleteTicket      Kind = "delete-ticket"
	KindCreateTransaction Kind = "create-transaction"
	KindUpdateTransaction Kind = "update-transaction"
	KindVoidTransaction   Kind = "delete-transaction"
)

// Action - закрытое множество операций, которые клиент откладывает до появления сети.
// Реализовать его можно только в этом пакете.
type Action interface {
	Kind() Kind
	// Targets - локальные записи, оптимистично измененные действием.
	Targets() []record.Ref
	isAction()
}

// Creator - действие, создающее запись под временным идентификатором.
type Creator interface {
	Action
	Created() record.Ref
}

type CreateProduct struct {
	TempID  string          `json:"temp_id"`
	Product product.Product `json:"product"`
}

type UpdateProduct struct {
	ID    string        `json:"id"`
	Patch product.Patch `json:"patch"`
}

type DeleteProduct struct {
	ID string `json:"id"`
}

// DecrementStock списывает остаток товара серверной операцией decrement.
type DecrementStock struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CreateCategory struct {
	TempID   string            `json:"temp_id"`
	Category category.Category `json:"category"`
}

type CreateCustomer struct {
	TempID   string            `json:"temp_id"`
	Customer customer.Customer `json:"customer"`
}

type UpdateCustomer struct {
	ID    string         `json:"id"`
	Patch customer.Patch `json:"patch"`
}

type DeleteCustomer struct {
	ID string `json:"id"`
}

type CreateTicket struct {
	TempID string        `json:"temp_id"`
	Ticket ticket.Ticket `json:"ticket"`
}

type UpdateTicket struct {
	ID    string       `json:"id"`
	Patch ticket.Patch `json:"patch"`
}

// ChangeTicketStatus меняет статус заявки и добавляет строку истории HistoryID.
type ChangeTicketStatus struct {
	TicketID   string        `json:"ticket_id"`
	HistoryID  string        `json:"history_id"`
	FromStatus ticket.Status `json:"from_status,omitempty"`
	Status     ticket.Status `json:"status"`
	Note       string        `json:"note,omitempty"`
	ChangedAt  time.Time     `json:"changed_at"`
}

type DeleteTicket struct {
	ID string `json:"id"`
}

// CreateTransaction создает продажу и списывает остатки по каждой позиции.
type CreateTransaction struct {
	TempID      string                  `json:"temp_id"`
	Transaction transaction.Transaction `json:"transaction"`
}

type UpdateTransaction struct {
	ID    string            `json:"id"`
	Patch transaction.Patch `json:"patch"`
}

type VoidTransaction struct {
	ID string `json:"id"`
}

func (CreateProduct) Kind() Kind      { return KindCreateProduct }
func (UpdateProduct) Kind() Kind      { return KindUpdateProduct }
func (DeleteProduct) Kind() Kind      { return KindDeleteProduct }
func (DecrementStock) Kind() Kind     { return KindDecrementStock }
func (CreateCategory) Kind() Kind     { return KindCreateCategory }
func (CreateCustomer) Kind() Kind     { return KindCreateCustomer }
func (UpdateCustomer) Kind() Kind     { return KindUpdateCustomer }
func (DeleteCustomer) Kind() Kind     { return KindDeleteCustomer }
func (CreateTicket) Kind() Kind       { return KindCreateTicket }
func (UpdateTicket) Kind() Kind       { return KindUpdateTicket }
func (ChangeTicketStatus) Kind() Kind { return KindChangeStatus }
func (DeleteTicket) Kind() Kind       { return KindDeleteTicket }
func (CreateTransaction) Kind() Kind  { return KindCreateTransaction }
func (UpdateTransaction) Kind() Kind  { return KindUpdateTransaction }
func (VoidTransaction) Kind() Kind    { return KindVoidTransaction }

func (a CreateProduct) Targets() []record.Ref  { return refs(product.Collection, a.TempID) }
func (a UpdateProduct) Targets() []record.Ref  { return refs(product.Collection, a.ID) }
func (a DeleteProduct) Targets() []record.Ref  { return refs(product.Collection, a.ID) }
func (a DecrementStock) Targets() []record.Ref { return refs(product.Collection, a.ProductID) }
func (a CreateCategory) Targets() []record.Ref { return refs(category.Collection, a.TempID) }
func (a CreateCustomer) Targets() []record.Ref { return refs(customer.Collection, a.TempID) }
func (a UpdateCustomer) Targets() []record.Ref { return refs(customer.Collection, a.ID) }
func (a DeleteCustomer) Targets() []record.Ref { return refs(customer.Collection, a.ID) }
func (a CreateTicket) Targets() []record.Ref   { return refs(ticket.Collection, a.TempID) }
func (a UpdateTicket) Targets() []record.Ref   { return refs(ticket.Collection, a.ID) }
func (a DeleteTicket) Targets() []record.Ref   { return refs(ticket.Collection, a.ID) }

func (a ChangeTicketStatus) Targets() []record.Ref {
	return []record.Ref{
		{Collection: ticket.Collection, ID: a.TicketID},
		{Collection: ticket.HistoryCollection, ID: a.HistoryID},
	}
}

func (a CreateTransaction) Targets() []record.Ref {
	out := refs(transaction.Collection, a.TempID)
	for _, it := range a.Transaction.Items {
		out = append(out, record.Ref{Collection: product.Collection, ID: it.ProductID})
	}
	return out
}

func (a UpdateTransaction) Targets() []record.Ref { return refs(transaction.Collection, a.ID) }
func (a VoidTransaction) Targets() []record.Ref   { return refs(transaction.Collection, a.ID) }

func (a CreateProduct) Created() record.Ref  { return record.Ref{Collection: product.Collection, ID: a.TempID} }
func (a CreateCategory) Created() record.Ref { return record.Ref{Collection: category.Collection, ID: a.TempID} }
func (a CreateCustomer) Created() record.Ref { return record.Ref{Collection: customer.Collection, ID: a.TempID} }
func (a CreateTicket) Created() record.Ref   { return record.Ref{Collection: ticket.Collection, ID: a.TempID} }
func (a CreateTransaction) Created() record.Ref {
	return record.Ref{Collection: transaction.Collection, ID: a.TempID}
}
func (a ChangeTicketStatus) Created() record.Ref {
	return record.Ref{Collection: ticket.HistoryCollection, ID: a.HistoryID}
}

func (CreateProduct) isAction()      {}
func (UpdateProduct) isAction()      {}
func (DeleteProduct) isAction()      {}
func (DecrementStock) isAction()     {}
func (CreateCategory) isAction()     {}
func (CreateCustomer) isAction()     {}
func (UpdateCustomer) isAction()     {}
func (DeleteCustomer) isAction()     {}
func (CreateTicket) isAction()       {}
func (UpdateTicket) isAction()       {}
func (ChangeTicketStatus) isAction() {}
func (DeleteTicket) isAction()       {}
func (CreateTransaction) isAction()  {}
func (UpdateTransaction) isAction()  {}
func (VoidTransaction) isAction()    {}

func refs(collection, id string) []record.Ref {
	return []record.Ref{{Collection: collection, ID: id}}
}
