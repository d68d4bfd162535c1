package product

import "errors"

var (
	ErrEmptyName       = errors.New("product name is required")
	ErrNegativePrice   = errors.New("product price must not be negative")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)
