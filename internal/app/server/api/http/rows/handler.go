package rows

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"technoplus/internal/domain/record"
)

type Handler struct {
	service    record.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service record.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log.With(slog.String("component", "rows_handler")),
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.selectOp(), h.selectRows)
	huma.Register(api, h.insertOp(), h.insert)
	huma.Register(api, h.updateOp(), h.update)
	huma.Register(api, h.decrementOp(), h.decrement)
}

func (h *Handler) selectRows(ctx context.Context, input *selectInput) (*listOutput, error) {
	recs, err := h.service.Select(ctx, input.Collection, input.Body)
	if err != nil {
		return nil, h.fail(err)
	}

	return &listOutput{Body: listResponse{Rows: recs}}, nil
}

func (h *Handler) insert(ctx context.Context, input *insertInput) (*rowOutput, error) {
	rec, err := h.service.Insert(ctx, input.Collection, input.Body.Key, input.Body.Data)
	if err != nil {
		return nil, h.fail(err)
	}

	return &rowOutput{Body: rec}, nil
}

func (h *Handler) update(ctx context.Context, input *updateInput) (*rowOutput, error) {
	rec, err := h.service.Update(ctx, input.Collection, input.ID, input.Body.Data)
	if err != nil {
		return nil, h.fail(err)
	}

	return &rowOutput{Body: rec}, nil
}

func (h *Handler) decrement(ctx context.Context, input *decrementInput) (*rowOutput, error) {
	rec, err := h.service.Decrement(ctx, input.Collection, input.ID, input.Body.Field, input.Body.Amount, input.Body.Key)
	if err != nil {
		return nil, h.fail(err)
	}

	return &rowOutput{Body: rec}, nil
}

// fail переводит доменные ошибки в HTTP-статусы
func (h *Handler) fail(err error) error {
	switch {
	case errors.Is(err, record.ErrUnknownCollection), errors.Is(err, record.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, record.ErrInvalidData), errors.Is(err, record.ErrInvalidQuery):
		return huma.Error422UnprocessableEntity(err.Error())
	default:
		h.log.Error("request failed", "error", err)
		return huma.Error500InternalServerError("internal error")
	}
}
