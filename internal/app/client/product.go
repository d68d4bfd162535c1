package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"technoplus/internal/domain/action"
	"technoplus/internal/domain/product"
	"technoplus/internal/domain/record"
)

// ProductService - доступ к каталогу товаров.
type ProductService struct {
	facade[product.Product, product.Patch]
	now func() time.Time
}

func NewProductService(d deps) *ProductService {
	f := newFacade[product.Product, product.Patch](product.Collection, product.SearchFields, d)
	f.createAction = func(tempID string, v product.Product) action.Action {
		return action.CreateProduct{TempID: tempID, Product: v}
	}
	f.updateAction = func(id string, p product.Patch) action.Action {
		return action.UpdateProduct{ID: id, Patch: p}
	}
	f.deleteAction = func(id string) action.Action {
		return action.DeleteProduct{ID: id}
	}

	return &ProductService{facade: f, now: time.Now}
}

func (s *ProductService) Create(ctx context.Context, p product.Product) (product.Product, error) {
	now := s.now().UTC()
	p.ID = ""
	p.Active = true
	p.CreatedAt = now
	p.UpdatedAt = now
	return s.facade.Create(ctx, p)
}

func (s *ProductService) Update(ctx context.Context, id string, p product.Patch) (product.Product, error) {
	if p.UpdatedAt == nil {
		now := s.now().UTC()
		p.UpdatedAt = &now
	}
	return s.facade.Update(ctx, id, p)
}

// GetByBarcode ищет активный товар по штрихкоду.
func (s *ProductService) GetByBarcode(ctx context.Context, barcode string) (product.Product, error) {
	found, err := s.findBy(ctx, "barcode", barcode)
	if err != nil {
		return product.Product{}, err
	}
	for _, p := range found {
		if p.Active {
			return p, nil
		}
	}
	return product.Product{}, fmt.Errorf("%w: barcode %s", record.ErrNotFound, barcode)
}

// ByCategory возвращает товары категории.
func (s *ProductService) ByCategory(ctx context.Context, categoryID string) ([]product.Product, error) {
	return s.findBy(ctx, "category_id", categoryID)
}

// LowStock возвращает активные товары, остаток которых не выше минимального.
func (s *ProductService) LowStock(ctx context.Context) ([]product.Product, error) {
	all, err := s.List(ctx, record.Query{ActiveOnly: true})
	if err != nil {
		return nil, err
	}

	out := make([]product.Product, 0)
	for _, p := range all {
		if p.IsLowStock() {
			out = append(out, p)
		}
	}
	return out, nil
}

// DecrementStock списывает остаток. Без связи остаток уменьшается локально,
// а списание уходит в очередь. Для товара без локальной копии возвращается
// только идентификатор.
func (s *ProductService) DecrementStock(ctx context.Context, id string, quantity int) (product.Product, error) {
	if quantity <= 0 {
		return product.Product{}, product.ErrInvalidQuantity
	}

	direct, err := s.direct(ctx, id)
	if err != nil {
		return product.Product{}, err
	}

	key := action.NewID()
	if direct {
		rec, err := s.backend.Decrement(ctx, product.Collection, id, product.StockField, float64(quantity), key)
		if err == nil {
			if _, err := s.sync.Absorb(ctx, product.Collection, []record.Record{rec}); err != nil {
				return product.Product{}, err
			}
			return record.Decode[product.Product](rec)
		}
		if errors.Is(err, record.ErrNotFound) {
			return product.Product{}, err
		}
		s.remoteFailed("decrement", err)
	}

	writes, err := s.localDecrement(ctx, map[string]int{id: quantity})
	if err != nil {
		return product.Product{}, err
	}
	if err := s.sync.StageWithID(ctx, key, action.DecrementStock{ProductID: id, Quantity: quantity}, writes...); err != nil {
		return product.Product{}, err
	}

	// без локальной копии остаток неизвестен, но списание уже в очереди
	if len(writes) == 0 {
		return product.Product{ID: id}, nil
	}
	return record.Decode[product.Product](writes[0].Record)
}

// localDecrement готовит оптимистичные записи товаров с уменьшенным остатком.
// Товары, которых нет локально, пропускаются: сервер спишет их при синхронизации.
func (s *ProductService) localDecrement(ctx context.Context, quantities map[string]int) ([]record.Write, error) {
	writes := make([]record.Write, 0, len(quantities))
	for id, qty := range quantities {
		rec, ok, err := s.store.Get(ctx, product.Collection, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.log.Warn("Товар не найден локально, остаток не изменен", "id", id)
			continue
		}

		p, err := record.Decode[product.Product](rec)
		if err != nil {
			return nil, err
		}
		p.ID = id
		p.StockQuantity -= qty
		p.UpdatedAt = s.now().UTC()

		updated, err := record.Encode(id, p)
		if err != nil {
			return nil, err
		}
		writes = append(writes, record.Write{Collection: product.Collection, Record: updated})
	}
	return writes, nil
}
