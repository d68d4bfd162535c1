package api

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	eventsAPI "technoplus/internal/app/server/api/http/events"
	healthAPI "technoplus/internal/app/server/api/http/health"
	"technoplus/internal/app/server/api/http/middleware"
	"technoplus/internal/app/server/api/http/middleware/logger"
	rowsAPI "technoplus/internal/app/server/api/http/rows"
	"technoplus/internal/domain/record"
)

type Handlers struct {
	Health *healthAPI.Handler
	Rows   *rowsAPI.Handler
	Events *eventsAPI.Handler
}

// Options - необязательные параметры API.
type Options struct {
	// PingInterval - период ping-кадров в канале присутствия.
	PingInterval time.Duration
}

// New создает *chi.Mux со всеми операциями, зарегистрированными через huma.Register.
// Канал присутствия обслуживается chi напрямую, т.к. huma не умеет websocket.
func New(repo record.Backend, log *slog.Logger, opts ...Options) *chi.Mux {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	mux := chi.NewMux()

	config := huma.DefaultConfig("Technoplus API", "1.0.0")
	API := humachi.New(mux, config)

	h := handlers(repo, log, o)
	h.Health.SetupRoutes(API)
	h.Rows.SetupRoutes(API)
	mux.Handle(eventsAPI.Path, h.Events)

	return mux
}

func handlers(repo record.Backend, log *slog.Logger, o Options) *Handlers {
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(repo, log, middlewares.GetAllAndClear())

	rowService := record.NewService(repo, log)
	middlewares.Add(loggerMW.Middleware())
	rowsHandler := rowsAPI.NewHandler(rowService, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health: healthHandler,
		Rows:   rowsHandler,
		Events: eventsAPI.NewHandler(log, o.PingInterval),
	}
}
