package client

import (
	"context"

	"technoplus/internal/domain/action"
	"technoplus/internal/domain/category"
	"technoplus/internal/domain/record"
)

// CategoryService - дерево категорий товаров.
type CategoryService struct {
	facade[category.Category, category.Category]
}

func NewCategoryService(d deps) *CategoryService {
	f := newFacade[category.Category, category.Category](category.Collection, category.SearchFields, d)
	f.createAction = func(tempID string, v category.Category) action.Action {
		return action.CreateCategory{TempID: tempID, Category: v}
	}

	return &CategoryService{facade: f}
}

func (s *CategoryService) Create(ctx context.Context, c category.Category) (category.Category, error) {
	c.ID = ""
	c.Active = true
	c.Children = nil
	return s.facade.Create(ctx, c)
}

// Tree возвращает корни дерева категорий. Каждый узел содержит свое поддерево.
func (s *CategoryService) Tree(ctx context.Context) ([]category.Category, error) {
	q := record.Query{ActiveOnly: true}

	recs, err := s.backend.Select(ctx, category.Collection, q)
	if err == nil {
		roots, nodes, err := category.FromRecords(recs)
		if err != nil {
			return nil, err
		}
		if _, err := s.sync.Absorb(ctx, category.Collection, nodes); err != nil {
			return nil, err
		}

		pending, err := s.hasOffline(ctx)
		if err != nil {
			return nil, err
		}
		if !pending {
			return roots, nil
		}
	} else {
		s.remoteFailed("select", err)
	}

	local, err := s.store.Query(ctx, category.Collection, q)
	if err != nil {
		return nil, err
	}
	roots, _, err := category.FromRecords(local)
	return roots, err
}

// hasOffline сообщает, есть ли категории, созданные без связи и еще не отправленные.
func (s *CategoryService) hasOffline(ctx context.Context) (bool, error) {
	local, err := s.store.Query(ctx, category.Collection, record.Query{})
	if err != nil {
		return false, err
	}
	for _, r := range local {
		if record.IsTemp(r.ID) {
			return true, nil
		}
	}
	return false, nil
}
