package category

import (
	"errors"

	"technoplus/internal/domain/record"
)

const Collection = record.Categories

var SearchFields = []string{"name"}

var ErrEmptyName = errors.New("category name is required")

// Category узел дерева категорий. Children хранит все поддерево,
// чтобы офлайн-клиент мог обходить иерархию без соединений.
type Category struct {
	ID       string     `json:"id,omitempty"`
	Name     string     `json:"name"`
	ParentID string     `json:"parent_id,omitempty"`
	Active   bool       `json:"active"`
	Children []Category `json:"children,omitempty"`
}

func (c Category) Validate() error {
	if c.Name == "" {
		return ErrEmptyName
	}
	return nil
}
