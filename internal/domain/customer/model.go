package customer

import (
	"errors"
	"time"

	"technoplus/internal/domain/record"
)

const Collection = record.Customers

var SearchFields = []string{"name", "phone", "email"}

var ErrEmptyName = errors.New("customer name is required")

type Customer struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Patch struct {
	Name      *string    `json:"name,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	Email     *string    `json:"email,omitempty"`
	Address   *string    `json:"address,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	Active    *bool      `json:"active,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func (c Customer) Validate() error {
	if c.Name == "" {
		return ErrEmptyName
	}
	return nil
}

func (p Patch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return ErrEmptyName
	}
	return nil
}
