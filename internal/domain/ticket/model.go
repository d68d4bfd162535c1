package ticket

import (
	"time"

	"technoplus/internal/domain/record"
)

const (
	Collection        = record.Tickets
	HistoryCollection = record.TicketHistory
)

var SearchFields = []string{"ticket_number", "device", "problem"}

// Status этап ремонта
type Status string

const (
	StatusReceived     Status = "received"
	StatusDiagnosing   Status = "diagnosing"
	StatusRepairing    Status = "repairing"
	StatusWaitingParts Status = "waiting_parts"
	StatusReady        Status = "ready"
	StatusDelivered    Status = "delivered"
	StatusCancelled    Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusReceived, StatusDiagnosing, StatusRepairing, StatusWaitingParts,
		StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Ticket заявка на ремонт
type Ticket struct {
	ID            string    `json:"id,omitempty"`
	TicketNumber  string    `json:"ticket_number"`
	CustomerID    string    `json:"customer_id,omitempty"`
	Device        string    `json:"device"`
	Problem       string    `json:"problem"`
	Status        Status    `json:"status"`
	EstimatedCost float64   `json:"estimated_cost,omitempty"`
	FinalCost     float64   `json:"final_cost,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Patch struct {
	CustomerID    *string    `json:"customer_id,omitempty"`
	Device        *string    `json:"device,omitempty"`
	Problem       *string    `json:"problem,omitempty"`
	Status        *Status    `json:"status,omitempty"`
	EstimatedCost *float64   `json:"estimated_cost,omitempty"`
	FinalCost     *float64   `json:"final_cost,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	Active        *bool      `json:"active,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// StatusChange строка истории статусов заявки
type StatusChange struct {
	ID         string    `json:"id,omitempty"`
	TicketID   string    `json:"ticket_id"`
	FromStatus Status    `json:"from_status,omitempty"`
	ToStatus   Status    `json:"to_status"`
	Note       string    `json:"note,omitempty"`
	ChangedAt  time.Time `json:"changed_at"`
}

func (t Ticket) Validate() error {
	if t.Device == "" {
		return ErrEmptyDevice
	}
	if t.Status != "" && !t.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

func (p Patch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}
