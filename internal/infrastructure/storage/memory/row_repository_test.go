package memory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"technoplus/internal/domain/record"
)

func TestRowRepository_InsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewRowRepository(slog.Default())

	first, err := repo.Insert(ctx, record.Products, "action-1", json.RawMessage(`{"name":"Cable"}`))
	require.NoError(t, err)
	second, err := repo.Insert(ctx, record.Products, "action-1", json.RawMessage(`{"name":"Cable"}`))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.JSONEq(t, `{"id":"`+first.ID+`","name":"Cable"}`, string(first.Data))

	all, err := repo.Select(ctx, record.Products, record.Query{})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = repo.Insert(ctx, record.Products, "", json.RawMessage(`{"name":"Cable"}`))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, record.Products, "", json.RawMessage(`{"name":"Cable"}`))
	require.NoError(t, err)

	all, err = repo.Select(ctx, record.Products, record.Query{})
	require.NoError(t, err)
	assert.Len(t, all, 3, "rows without key are always inserted")
}

func TestRowRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewRowRepository(slog.Default())

	rec, err := repo.Insert(ctx, record.Customers, "", json.RawMessage(`{"name":"Ann","phone":"123"}`))
	require.NoError(t, err)

	got, err := repo.Update(ctx, record.Customers, rec.ID, json.RawMessage(`{"phone":"456","active":false}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+rec.ID+`","name":"Ann","phone":"456","active":false}`, string(got.Data))

	active, err := repo.Select(ctx, record.Customers, record.Query{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = repo.Update(ctx, record.Customers, "missing", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, record.ErrNotFound)
}

func TestRowRepository_Decrement(t *testing.T) {
	ctx := context.Background()
	repo := NewRowRepository(slog.Default())

	rec, err := repo.Insert(ctx, record.Products, "", json.RawMessage(`{"name":"Cable","stock_quantity":10}`))
	require.NoError(t, err)

	tests := []struct {
		name      string
		key       string
		amount    float64
		wantStock float64
	}{
		{name: "first decrement", key: "a1", amount: 3, wantStock: 7},
		{name: "replayed key is applied once", key: "a1", amount: 3, wantStock: 7},
		{name: "new key", key: "a2", amount: 2, wantStock: 5},
		{name: "no key always applies", key: "", amount: 1, wantStock: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Decrement(ctx, record.Products, rec.ID, "stock_quantity", tt.amount, tt.key)
			require.NoError(t, err)

			var p struct {
				Stock float64 `json:"stock_quantity"`
			}
			require.NoError(t, json.Unmarshal(got.Data, &p))
			assert.Equal(t, tt.wantStock, p.Stock)
		})
	}

	_, err = repo.Decrement(ctx, record.Products, "missing", "stock_quantity", 1, "a3")
	assert.ErrorIs(t, err, record.ErrNotFound)

	_, err = repo.Decrement(ctx, record.Products, rec.ID, "name", 1, "a4")
	assert.ErrorIs(t, err, record.ErrInvalidData)
}

func TestRowRepository_SelectKeepsInsertOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewRowRepository(slog.Default())

	var ids []string
	for _, name := range []string{"b", "a", "c"} {
		rec, err := repo.Insert(ctx, record.Categories, "", json.RawMessage(`{"name":"`+name+`"}`))
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}

	got, err := repo.Select(ctx, record.Categories, record.Query{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, r := range got {
		assert.Equal(t, ids[i], r.ID)
	}

	none, err := repo.Select(ctx, record.Suppliers, record.Query{})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
