package rows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"technoplus/internal/domain/record"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Select(ctx context.Context, collection string, q record.Query) ([]record.Record, error) {
	args := m.Called(ctx, collection, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]record.Record), args.Error(1)
}

func (m *MockService) Insert(ctx context.Context, collection, key string, data json.RawMessage) (record.Record, error) {
	args := m.Called(ctx, collection, key, data)
	return args.Get(0).(record.Record), args.Error(1)
}

func (m *MockService) Update(ctx context.Context, collection, id string, patch json.RawMessage) (record.Record, error) {
	args := m.Called(ctx, collection, id, patch)
	return args.Get(0).(record.Record), args.Error(1)
}

func (m *MockService) Decrement(ctx context.Context, collection, id, field string, amount float64, key string) (record.Record, error) {
	args := m.Called(ctx, collection, id, field, amount, key)
	return args.Get(0).(record.Record), args.Error(1)
}

func newTestAPI(t *testing.T, svc record.Servicer) humatest.TestAPI {
	t.Helper()

	_, api := humatest.New(t)
	NewHandler(svc, slog.Default(), huma.Middlewares{}).SetupRoutes(api)
	return api
}

func TestHandler_Select(t *testing.T) {
	svc := new(MockService)
	rows := []record.Record{
		{ID: "p1", Data: json.RawMessage(`{"id":"p1","name":"Cable"}`)},
	}
	q := record.Query{ActiveOnly: true, Text: "cab", Fields: []string{"name"}}
	svc.On("Select", mock.Anything, "products", q).Return(rows, nil)

	api := newTestAPI(t, svc)
	resp := api.Post("/api/v1/rows/products/select", map[string]any{
		"active_only": true,
		"text":        "cab",
		"fields":      []string{"name"},
	})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body listResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Rows, 1)
	assert.Equal(t, "p1", body.Rows[0].ID)
	assert.JSONEq(t, `{"id":"p1","name":"Cable"}`, string(body.Rows[0].Data))
	svc.AssertExpectations(t)
}

func TestHandler_Insert(t *testing.T) {
	svc := new(MockService)
	created := record.Record{ID: "c1", Data: json.RawMessage(`{"id":"c1","name":"Ann"}`)}
	svc.On("Insert", mock.Anything, "customers", "a1", mock.MatchedBy(func(data json.RawMessage) bool {
		return string(data) == `{"name":"Ann"}`
	})).Return(created, nil)

	api := newTestAPI(t, svc)
	resp := api.Post("/api/v1/rows/customers", map[string]any{
		"key":  "a1",
		"data": json.RawMessage(`{"name":"Ann"}`),
	})

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var got record.Record
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, "c1", got.ID)
	svc.AssertExpectations(t)
}

func TestHandler_Update(t *testing.T) {
	svc := new(MockService)
	updated := record.Record{ID: "t1", Data: json.RawMessage(`{"id":"t1","status":"closed"}`)}
	svc.On("Update", mock.Anything, "service_tickets", "t1", mock.Anything).Return(updated, nil)

	api := newTestAPI(t, svc)
	resp := api.Patch("/api/v1/rows/service_tickets/t1", map[string]any{
		"data": map[string]any{"status": "closed"},
	})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), `"closed"`)
	svc.AssertExpectations(t)
}

func TestHandler_Decrement(t *testing.T) {
	svc := new(MockService)
	rec := record.Record{ID: "p1", Data: json.RawMessage(`{"id":"p1","stock_quantity":8}`)}
	svc.On("Decrement", mock.Anything, "products", "p1", "stock_quantity", 2.0, "k1:item:0").Return(rec, nil)

	api := newTestAPI(t, svc)
	resp := api.Post("/api/v1/rows/products/p1/decrement", map[string]any{
		"field":  "stock_quantity",
		"amount": 2,
		"key":    "k1:item:0",
	})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	svc.AssertExpectations(t)
}

func TestHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "unknown collection",
			err:        fmt.Errorf("%w: widgets", record.ErrUnknownCollection),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "row not found",
			err:        fmt.Errorf("update: %w", record.ErrNotFound),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid data",
			err:        fmt.Errorf("%w: not a number", record.ErrInvalidData),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "invalid query",
			err:        record.ErrInvalidQuery,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "storage failure",
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Update", mock.Anything, "products", "p1", mock.Anything).Return(record.Record{}, tt.err)

			api := newTestAPI(t, svc)
			resp := api.Patch("/api/v1/rows/products/p1", map[string]any{
				"data": map[string]any{"price": 10},
			})

			assert.Equal(t, tt.wantStatus, resp.Code)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.NotContains(t, resp.Body.String(), "connection reset")
			}
		})
	}
}

func TestHandler_SelectWithRealService(t *testing.T) {
	repo := &stubRepository{rows: []record.Record{
		{ID: "1", Data: json.RawMessage(`{"id":"1","name":"Phone","active":true}`)},
		{ID: "2", Data: json.RawMessage(`{"id":"2","name":"Old phone","active":false}`)},
	}}
	svc := record.NewService(repo, slog.Default())

	api := newTestAPI(t, svc)
	resp := api.Post("/api/v1/rows/products/select", map[string]any{
		"active_only": true,
		"text":        "PHONE",
		"fields":      []string{"name"},
	})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body listResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Rows, 1)
	assert.Equal(t, "1", body.Rows[0].ID)

	bad := api.Post("/api/v1/rows/products/select", map[string]any{
		"filters": []map[string]string{{"field": "name; drop", "value": "x"}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, bad.Code)
}

type stubRepository struct {
	rows []record.Record
}

func (s *stubRepository) Select(_ context.Context, _ string, q record.Query) ([]record.Record, error) {
	return q.Filter(s.rows), nil
}

func (s *stubRepository) Insert(context.Context, string, string, json.RawMessage) (record.Record, error) {
	return record.Record{}, errors.New("not implemented")
}

func (s *stubRepository) Update(context.Context, string, string, json.RawMessage) (record.Record, error) {
	return record.Record{}, errors.New("not implemented")
}

func (s *stubRepository) Decrement(context.Context, string, string, string, float64, string) (record.Record, error) {
	return record.Record{}, errors.New("not implemented")
}
