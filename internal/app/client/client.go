package client

import (
	"context"
	"fmt"
	gosync "sync"

	"golang.org/x/exp/slog"

	"technoplus/internal/app/client/config"
	"technoplus/internal/domain/action"
	"technoplus/internal/domain/connectivity"
	"technoplus/internal/domain/sync"
	"technoplus/internal/infrastructure/remote"
	"technoplus/internal/infrastructure/storage/sqlite"
	"technoplus/internal/utils/broadcast"
)

// App собирает клиентское ядро: локальное хранилище, связь с сервером,
// менеджер синхронизации и фасады доступа к данным.
type App struct {
	config  *config.Config
	log     *slog.Logger
	store   *sqlite.Store
	remote  *remote.Client
	monitor *connectivity.Monitor
	watcher *remote.Watcher
	sync    *sync.Manager

	Products     *ProductService
	Categories   *CategoryService
	Customers    *CustomerService
	Tickets      *TicketService
	Transactions *TransactionService

	wg     gosync.WaitGroup
	mu     gosync.Mutex
	cancel context.CancelFunc
}

func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	store, err := sqlite.New(ctx, cfg.DataPath, log)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия локального хранилища: %w", err)
	}

	client := remote.NewClient(cfg.BaseURL(), cfg.RequestTimeout, log)
	monitor := connectivity.New(false, client.Ping, log)

	manager, err := sync.New(store, client, monitor, sync.Config{
		Interval:   cfg.SyncInterval,
		MaxRetries: cfg.MaxRetries,
	}, log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ошибка инициализации синхронизации: %w", err)
	}

	d := deps{backend: client, store: store, sync: manager, log: log}
	products := NewProductService(d)

	return &App{
		config:       cfg,
		log:          log.With(slog.String("component", "app")),
		store:        store,
		remote:       client,
		monitor:      monitor,
		watcher:      remote.NewWatcher(cfg.BaseURL(), cfg.ReconnectDelay, monitor, log),
		sync:         manager,
		Products:     products,
		Categories:   NewCategoryService(d),
		Customers:    NewCustomerService(d),
		Tickets:      NewTicketService(d),
		Transactions: NewTransactionService(d, products),
	}, nil
}

// Run держит канал присутствия и периодическую синхронизацию до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()
	defer cancel()

	statuses := a.sync.SubscribeStatus()
	defer statuses.Close()

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.watcher.Run(ctx)
	}()
	go func() {
		defer a.wg.Done()
		if err := a.sync.Run(ctx); err != nil {
			a.log.Error("Ошибка фоновой синхронизации", "error", err)
		}
	}()

	a.log.Info("Клиент запущен", "server", a.config.BaseURL(), "sync_interval", a.config.SyncInterval)

	for {
		select {
		case <-ctx.Done():
			a.wg.Wait()
			a.log.Info("Клиент остановлен")
			return nil
		case st, ok := <-statuses.C():
			if !ok {
				continue
			}
			a.log.Debug("Статус синхронизации", "status", st.Label(), "pending", st.PendingActionCount)
		}
	}
}

// Shutdown останавливает Run
func (a *App) Shutdown() {
	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	a.wg.Wait()
}

// Close дожидается запущенных проходов синхронизации и закрывает хранилище.
func (a *App) Close() error {
	a.Shutdown()
	a.sync.Wait()
	return a.store.Close()
}

// Probe проверяет связь с сервером. Переход в ONLINE запускает синхронизацию.
func (a *App) Probe(ctx context.Context) bool {
	a.monitor.Foreground(ctx)
	return a.monitor.IsOnline()
}

// Connect проверяет связь с сервером, не запуская фоновую синхронизацию.
// Для команд, которые сразу синхронизируют сами.
func (a *App) Connect(ctx context.Context) bool {
	return a.monitor.Check(ctx)
}

// Sync выполняет проход синхронизации вручную.
func (a *App) Sync(ctx context.Context) (sync.Result, error) {
	return a.sync.Sweep(ctx)
}

func (a *App) Status(ctx context.Context) (sync.Status, error) {
	return a.sync.Status(ctx)
}

// Queue возвращает очередь отложенных действий.
func (a *App) Queue(ctx context.Context) ([]action.Pending, error) {
	return a.sync.Pending(ctx)
}

// RetryAll обнуляет счетчики попыток и сразу синхронизирует.
func (a *App) RetryAll(ctx context.Context) (sync.Result, error) {
	return a.sync.RetryAll(ctx)
}

// Reset удаляет все локальные данные и очередь.
func (a *App) Reset(ctx context.Context) error {
	return a.sync.Reset(ctx)
}

// SubscribeStatus подписывает на изменения статуса синхронизации.
func (a *App) SubscribeStatus() *broadcast.Subscription[sync.Status] {
	return a.sync.SubscribeStatus()
}

type ctxKey struct{}

// NewContext кладет приложение в контекст команды.
func NewContext(ctx context.Context, a *App) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext достает приложение из контекста команды.
func FromContext(ctx context.Context) (*App, error) {
	a, ok := ctx.Value(ctxKey{}).(*App)
	if !ok || a == nil {
		return nil, ErrNotReady
	}
	return a, nil
}
