package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"technoplus/internal/domain/action"
	"technoplus/internal/domain/product"
	"technoplus/internal/domain/record"
	"technoplus/internal/domain/transaction"
)

// TransactionService - продажи. Создание продажи списывает остатки товаров.
type TransactionService struct {
	facade[transaction.Transaction, transaction.Patch]
	products *ProductService
	now      func() time.Time
}

func NewTransactionService(d deps, products *ProductService) *TransactionService {
	f := newFacade[transaction.Transaction, transaction.Patch](transaction.Collection, transaction.SearchFields, d)
	f.updateAction = func(id string, p transaction.Patch) action.Action {
		return action.UpdateTransaction{ID: id, Patch: p}
	}
	f.deleteAction = func(id string) action.Action {
		return action.VoidTransaction{ID: id}
	}

	return &TransactionService{facade: f, products: products, now: time.Now}
}

// Create проводит продажу: создает ее и списывает остаток по каждой позиции.
// Без связи продажа и новые остатки сохраняются локально одним действием в очереди.
func (s *TransactionService) Create(ctx context.Context, t transaction.Transaction) (transaction.Transaction, error) {
	if err := t.Validate(); err != nil {
		return transaction.Transaction{}, err
	}

	now := s.now().UTC()
	t.ID = ""
	t.Active = true
	t.Status = transaction.StatusCompleted
	t.Total = t.ComputeTotal()
	t.CreatedAt = now
	if t.Number == "" {
		t.Number = "S-" + now.Format("060102-150405.000")
	}

	key := action.NewID()
	direct, err := s.directSale(ctx, t.Items)
	if err != nil {
		return transaction.Transaction{}, err
	}
	if direct {
		created, err := s.remoteCreate(ctx, key, t)
		if err == nil {
			return created, nil
		}
		s.remoteFailed("create transaction", err)
	}

	tempID := record.NewTempID()
	local, err := record.Encode(tempID, t)
	if err != nil {
		return transaction.Transaction{}, err
	}

	quantities := make(map[string]int, len(t.Items))
	for _, it := range t.Items {
		quantities[it.ProductID] += it.Quantity
	}
	stock, err := s.products.localDecrement(ctx, quantities)
	if err != nil {
		return transaction.Transaction{}, err
	}

	t.ID = tempID
	writes := append([]record.Write{{Collection: transaction.Collection, Record: local}}, stock...)
	if err := s.sync.StageWithID(ctx, key, action.CreateTransaction{TempID: tempID, Transaction: t}, writes...); err != nil {
		return transaction.Transaction{}, err
	}

	return t, nil
}

// directSale проверяет, что ни один товар чека не создан офлайн и не ждет отправки.
func (s *TransactionService) directSale(ctx context.Context, items []transaction.Item) (bool, error) {
	for _, it := range items {
		ok, err := s.directFor(ctx, record.Ref{Collection: product.Collection, ID: it.ProductID})
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (s *TransactionService) remoteCreate(ctx context.Context, key string, t transaction.Transaction) (transaction.Transaction, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return transaction.Transaction{}, fmt.Errorf("%w: %v", record.ErrInvalidData, err)
	}

	created, err := s.backend.Insert(ctx, transaction.Collection, key, data)
	if err != nil {
		return transaction.Transaction{}, err
	}

	stock := make([]record.Record, 0, len(t.Items))
	for i, it := range t.Items {
		r, err := s.backend.Decrement(ctx, product.Collection, it.ProductID, product.StockField,
			float64(it.Quantity), action.ItemKey(key, i))
		if err != nil {
			return transaction.Transaction{}, fmt.Errorf("decrement stock of %s: %w", it.ProductID, err)
		}
		stock = append(stock, r)
	}

	if _, err := s.sync.Absorb(ctx, transaction.Collection, []record.Record{created}); err != nil {
		return transaction.Transaction{}, err
	}
	if _, err := s.sync.Absorb(ctx, product.Collection, stock); err != nil {
		return transaction.Transaction{}, err
	}

	return record.Decode[transaction.Transaction](created)
}

// ByCustomer возвращает продажи клиента.
func (s *TransactionService) ByCustomer(ctx context.Context, customerID string) ([]transaction.Transaction, error) {
	return s.findBy(ctx, "customer_id", customerID)
}

// Void отменяет продажу. Остатки не возвращаются.
func (s *TransactionService) Void(ctx context.Context, id string) (transaction.Transaction, error) {
	patch := json.RawMessage(fmt.Sprintf(`{"active":false,"status":%q}`, transaction.StatusVoided))
	return s.patch(ctx, id, patch, action.VoidTransaction{ID: id})
}

// Delete для продажи означает отмену.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	_, err := s.Void(ctx, id)
	return err
}
