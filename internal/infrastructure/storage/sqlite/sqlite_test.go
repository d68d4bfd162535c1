package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"technoplus/internal/domain/action"
	"technoplus/internal/domain/product"
	"technoplus/internal/domain/record"
	"technoplus/internal/domain/transaction"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "local.db")
	s, err := New(context.Background(), path, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, path
}

func rec(id, data string) record.Record {
	return record.Record{ID: id, Data: json.RawMessage(data)}
}

func TestStore_PutAndGet(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.Put(ctx, record.Products, rec("p1", `{"id":"p1","name":"Cable"}`)))
	require.NoError(t, s.Put(ctx, record.Products, rec("p1", `{"id":"p1","name":"Cable 2m"}`)))

	got, ok, err := s.Get(ctx, record.Products, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"p1","name":"Cable 2m"}`, string(got.Data))

	_, ok, err = s.Get(ctx, record.Products, "missing")
	assert.NoError(t, err, "absent key is not an error")
	assert.False(t, ok)

	_, ok, err = s.Get(ctx, record.Customers, "p1")
	assert.NoError(t, err)
	assert.False(t, ok, "collections are separate")
}

func TestStore_PutManyIsAtomic(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	err := s.PutMany(ctx, record.Customers, []record.Record{
		rec("c1", `{"id":"c1"}`),
		rec("", `{"name":"broken"}`),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, record.ErrStoreFault)

	all, err := s.GetAll(ctx, record.Customers)
	require.NoError(t, err)
	assert.Empty(t, all, "no record of a failed batch is visible")

	require.NoError(t, s.PutMany(ctx, record.Customers, []record.Record{
		rec("c1", `{"id":"c1"}`),
		rec("c2", `{"id":"c2"}`),
	}))
	all, err = s.GetAll(ctx, record.Customers)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "c1", all[0].ID)
}

func TestStore_FindBy(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.PutMany(ctx, record.Products, []record.Record{
		rec("p1", `{"id":"p1","barcode":"4006381333931","category_id":"cat1"}`),
		rec("p2", `{"id":"p2","barcode":"5901234123457","category_id":"cat1"}`),
	}))

	tests := []struct {
		name    string
		index   string
		value   string
		wantIDs []string
	}{
		{name: "by barcode", index: "barcode", value: "5901234123457", wantIDs: []string{"p2"}},
		{name: "by category", index: "category_id", value: "cat1", wantIDs: []string{"p1", "p2"}},
		{name: "no match", index: "barcode", value: "000", wantIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FindBy(ctx, record.Products, tt.index, tt.value)
			require.NoError(t, err)

			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	_, err := s.FindBy(ctx, record.Products, "price", "10")
	assert.ErrorIs(t, err, ErrUnknownIndex)
}

func TestStore_Search(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.PutMany(ctx, record.Products, []record.Record{
		rec("p1", `{"id":"p1","name":"iPhone Screen","code":"SCR-1"}`),
		rec("p2", `{"id":"p2","name":"Battery","code":"BAT-SCREEN"}`),
		rec("p3", `{"id":"p3","name":"Charger","code":"CHG-1"}`),
	}))

	got, err := s.Search(ctx, record.Products, "screen", []string{"name", "code"})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, "p2", got[1].ID)
}

func TestStore_Queue(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	first, err := action.New(action.DeleteProduct{ID: "p1"})
	require.NoError(t, err)
	second, err := action.NewWithID("caller-id", action.DecrementStock{ProductID: "p2", Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, s.Enqueue(ctx, first))
	require.NoError(t, s.Enqueue(ctx, second))
	require.NoError(t, s.Enqueue(ctx, second), "same id is enqueued once")

	queue, err := s.DequeueAll(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, first.ID, queue[0].ID)
	assert.Equal(t, "caller-id", queue[1].ID)
	assert.Equal(t, action.KindDecrementStock, queue[1].Type)
	assert.WithinDuration(t, second.EnqueuedAt, queue[1].EnqueuedAt, 0)

	n, err := s.IncrementRetry(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.IncrementRetry(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.IncrementRetry(ctx, "missing")
	assert.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.ResetRetries(ctx))
	queue, err = s.DequeueAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, queue[0].RetryCount)

	require.NoError(t, s.Remove(ctx, first.ID))
	require.NoError(t, s.Remove(ctx, "missing"))

	count, err := s.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_ConcurrentEnqueue(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := action.New(action.DecrementStock{ProductID: fmt.Sprintf("p%d", i), Quantity: 1})
			if err == nil {
				err = s.Enqueue(ctx, p)
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	count, err := s.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, count)
}

func TestStore_Settings(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	var errs []string
	ok, err := s.GetSetting(ctx, "syncErrors", &errs)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetSetting(ctx, "syncErrors", []string{"a", "b"}))
	require.NoError(t, s.SetSetting(ctx, "syncErrors", []string{"c"}))

	ok, err = s.GetSetting(ctx, "syncErrors", &errs)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"c"}, errs)
}

func TestStore_ReplaceID(t *testing.T) {
	ctx := context.Background()

	tempID := record.NewTempID()
	setup := func(t *testing.T) *Store {
		s, _ := newTestStore(t)
		local, err := record.Encode(tempID, product.Product{Name: "Local name", StockQuantity: 5})
		require.NoError(t, err)
		require.NoError(t, s.Put(ctx, record.Products, local))

		sale, err := record.Encode("temp_sale", transaction.Transaction{
			Items: []transaction.Item{{ProductID: tempID, Quantity: 1}},
		})
		require.NoError(t, err)
		require.NoError(t, s.Put(ctx, record.Transactions, sale))

		p, err := action.New(action.DecrementStock{ProductID: tempID, Quantity: 2})
		require.NoError(t, err)
		require.NoError(t, s.Enqueue(ctx, p))
		return s
	}

	assertMigrated := func(t *testing.T, s *Store) {
		_, ok, err := s.Get(ctx, record.Products, tempID)
		require.NoError(t, err)
		assert.False(t, ok, "temporary id is gone")

		sale, ok, err := s.Get(ctx, record.Transactions, "temp_sale")
		require.NoError(t, err)
		require.True(t, ok)
		tx, err := record.Decode[transaction.Transaction](sale)
		require.NoError(t, err)
		assert.Equal(t, "p-100", tx.Items[0].ProductID)

		queue, err := s.DequeueAll(ctx)
		require.NoError(t, err)
		a, err := queue[0].Decode()
		require.NoError(t, err)
		assert.Equal(t, action.DecrementStock{ProductID: "p-100", Quantity: 2}, a)
	}

	t.Run("server row replaces local copy", func(t *testing.T) {
		s := setup(t)
		canonical := rec("p-100", `{"id":"p-100","name":"Server name","stock_quantity":5}`)

		require.NoError(t, s.ReplaceID(ctx, record.Products, tempID, "p-100", &canonical))

		got, ok, err := s.Get(ctx, record.Products, "p-100")
		require.NoError(t, err)
		require.True(t, ok)
		assert.JSONEq(t, string(canonical.Data), string(got.Data))
		assertMigrated(t, s)
	})

	t.Run("local copy is re-keyed", func(t *testing.T) {
		s := setup(t)

		require.NoError(t, s.ReplaceID(ctx, record.Products, tempID, "p-100", nil))

		got, ok, err := s.Get(ctx, record.Products, "p-100")
		require.NoError(t, err)
		require.True(t, ok)
		p, err := record.Decode[product.Product](got)
		require.NoError(t, err)
		assert.Equal(t, "p-100", p.ID)
		assert.Equal(t, "Local name", p.Name)
		assertMigrated(t, s)
	})
}

func TestStore_Stage(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	p, err := action.New(action.DeleteCustomer{ID: "c1"})
	require.NoError(t, err)

	require.NoError(t, s.Stage(ctx, []record.Write{
		{Collection: record.Customers, Record: rec("c1", `{"id":"c1","active":false}`)},
	}, p))

	_, ok, err := s.Get(ctx, record.Customers, "c1")
	require.NoError(t, err)
	assert.True(t, ok)
	count, err := s.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	bad, err := action.New(action.DeleteCustomer{ID: "c2"})
	require.NoError(t, err)
	err = s.Stage(ctx, []record.Write{
		{Collection: record.Customers, Record: rec("c2", `{"id":"c2"}`)},
		{Collection: record.Customers, Record: rec("", `{}`)},
	}, bad)
	require.Error(t, err)

	_, ok, err = s.Get(ctx, record.Customers, "c2")
	require.NoError(t, err)
	assert.False(t, ok)
	count, err = s.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "failed stage enqueues nothing")
}

func TestStore_ClearAll(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.Put(ctx, record.Products, rec("p1", `{"id":"p1"}`)))
	p, err := action.New(action.DeleteProduct{ID: "p1"})
	require.NoError(t, err)
	require.NoError(t, s.Enqueue(ctx, p))
	require.NoError(t, s.SetSetting(ctx, "lastSyncTime", "2024-01-01T00:00:00Z"))

	require.NoError(t, s.ClearAll(ctx))

	all, err := s.GetAll(ctx, record.Products)
	require.NoError(t, err)
	assert.Empty(t, all)
	count, err := s.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	var last string
	ok, err := s.GetSetting(ctx, "lastSyncTime", &last)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)

	require.NoError(t, s.Put(ctx, record.Products, rec("p1", `{"id":"p1"}`)))
	p, err := action.New(action.DeleteProduct{ID: "p1"})
	require.NoError(t, err)
	require.NoError(t, s.Enqueue(ctx, p))
	require.NoError(t, s.Close())

	reopened, err := New(ctx, path, slog.Default())
	require.NoError(t, err)
	defer reopened.Close()

	_, ok, err := reopened.Get(ctx, record.Products, "p1")
	require.NoError(t, err)
	assert.True(t, ok)
	count, err := reopened.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
