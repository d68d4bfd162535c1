package transaction

import (
	"errors"
	"math"
	"time"

	"technoplus/internal/domain/record"
)

const Collection = record.Transactions

var SearchFields = []string{"number"}

const (
	StatusCompleted = "completed"
	StatusVoided    = "voided"
)

var (
	ErrNoItems         = errors.New("transaction has no items")
	ErrInvalidQuantity = errors.New("item quantity must be positive")
	ErrMissingProduct  = errors.New("item product is required")
	ErrInvalidStatus   = errors.New("invalid transaction status")
)

// Item позиция чека
type Item struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Transaction продажа
type Transaction struct {
	ID            string    `json:"id,omitempty"`
	Number        string    `json:"number"`
	CustomerID    string    `json:"customer_id,omitempty"`
	Items         []Item    `json:"items"`
	Total         float64   `json:"total"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	Status        string    `json:"status"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

type Patch struct {
	CustomerID    *string `json:"customer_id,omitempty"`
	PaymentMethod *string `json:"payment_method,omitempty"`
	Status        *string `json:"status,omitempty"`
	Active        *bool   `json:"active,omitempty"`
}

func (p Patch) Validate() error {
	if p.Status != nil && *p.Status != StatusCompleted && *p.Status != StatusVoided {
		return ErrInvalidStatus
	}
	return nil
}

func (t Transaction) Validate() error {
	if len(t.Items) == 0 {
		return ErrNoItems
	}
	for _, it := range t.Items {
		if it.ProductID == "" {
			return ErrMissingProduct
		}
		if it.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	return nil
}

// ComputeTotal считает сумму чека с округлением до копеек.
func (t Transaction) ComputeTotal() float64 {
	var sum float64
	for _, it := range t.Items {
		sum += float64(it.Quantity) * it.UnitPrice
	}
	return math.Round(sum*100) / 100
}
