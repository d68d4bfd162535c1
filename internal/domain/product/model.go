package product

import (
	"time"

	"technoplus/internal/domain/record"
)

const (
	Collection = record.Products

	// StockField - поле остатка, которое уменьшает сервер.
	StockField = "stock_quantity"
)

// SearchFields - поля текстового поиска по товарам.
var SearchFields = []string{"name", "code", "barcode"}

// Product товар каталога
type Product struct {
	ID            string    `json:"id,omitempty"`
	Name          string    `json:"name"`
	Code          string    `json:"code,omitempty"`
	Barcode       string    `json:"barcode,omitempty"`
	Description   string    `json:"description,omitempty"`
	CategoryID    string    `json:"category_id,omitempty"`
	SupplierID    string    `json:"supplier_id,omitempty"`
	Price         float64   `json:"price"`
	Cost          float64   `json:"cost"`
	StockQuantity int       `json:"stock_quantity"`
	MinStock      int       `json:"min_stock"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Patch частичное обновление товара
type Patch struct {
	Name          *string    `json:"name,omitempty"`
	Code          *string    `json:"code,omitempty"`
	Barcode       *string    `json:"barcode,omitempty"`
	Description   *string    `json:"description,omitempty"`
	CategoryID    *string    `json:"category_id,omitempty"`
	SupplierID    *string    `json:"supplier_id,omitempty"`
	Price         *float64   `json:"price,omitempty"`
	Cost          *float64   `json:"cost,omitempty"`
	StockQuantity *int       `json:"stock_quantity,omitempty"`
	MinStock      *int       `json:"min_stock,omitempty"`
	Active        *bool      `json:"active,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

func (p Product) Validate() error {
	if p.Name == "" {
		return ErrEmptyName
	}
	if p.Price < 0 || p.Cost < 0 {
		return ErrNegativePrice
	}
	return nil
}

// IsLowStock сообщает, что остаток опустился до минимального.
func (p Product) IsLowStock() bool {
	return p.StockQuantity <= p.MinStock
}

func (p Patch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return ErrEmptyName
	}
	if (p.Price != nil && *p.Price < 0) || (p.Cost != nil && *p.Cost < 0) {
		return ErrNegativePrice
	}
	return nil
}
