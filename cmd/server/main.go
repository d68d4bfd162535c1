package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"technoplus/internal/app/server/api"
	"technoplus/internal/app/server/config"
	"technoplus/internal/domain/record"
	"technoplus/internal/infrastructure/storage/memory"
	"technoplus/internal/infrastructure/storage/postgres"
	"technoplus/internal/utils/logger"
)

func main() {
	conf := config.MustLoad()
	log := logger.New(conf.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo record.Backend
	if conf.InMemory() {
		log.Warn("DATABASE_URI не задан, данные хранятся в памяти")
		repo = memory.NewRowRepository(log)
	} else {
		storage, err := postgres.New(ctx, conf.DB.DatabaseURI, conf.DB.Migrations)
		if err != nil {
			log.Error("Ошибка подключения к базе данных", "error", err)
			os.Exit(1)
		}
		defer storage.Close()
		repo = postgres.NewRowRepository(storage.Pool(), log)
	}

	srv := &http.Server{
		Addr:    conf.Server.RunAddress,
		Handler: api.New(repo, log),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		log.Info("Сервер запущен", "address", conf.Server.RunAddress, "env", conf.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Ошибка сервера", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Остановка сервера")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Ошибка остановки сервера", "error", err)
		return
	}
	log.Info("Сервер остановлен")
}
