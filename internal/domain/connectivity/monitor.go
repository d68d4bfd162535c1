package connectivity

import (
	"context"
	"sync"

	"golang.org/x/exp/slog"

	"technoplus/internal/utils/broadcast"
)

// Prober проверяет доступность сервера. nil-ошибка означает ONLINE.
type Prober func(ctx context.Context) error

// Monitor - конечный автомат ONLINE/OFFLINE.
//
// Состояние меняют сигналы платформы через SetOnline и явные проверки Check.
// Foreground лишь подсказывает перепроверить связь. Таймеров у монитора нет.
type Monitor struct {
	mu       sync.Mutex
	// signal держится от смены состояния до уведомления подписчиков,
	// чтобы последнее опубликованное значение совпадало с состоянием
	signal   sync.Mutex
	online   bool
	prober   Prober
	onOnline func()
	onResume func()
	hub      *broadcast.Hub[bool]
	log      *slog.Logger
}

func New(initial bool, prober Prober, log *slog.Logger) *Monitor {
	return &Monitor{
		online: initial,
		prober: prober,
		hub:    broadcast.New[bool](4),
		log:    log.With(slog.String("component", "connectivity")),
	}
}

func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// OnOnline задает обработчик перехода в ONLINE. Он вызывается один раз
// на переход, после уведомления подписчиков.
func (m *Monitor) OnOnline(fn func()) {
	m.mu.Lock()
	m.onOnline = fn
	m.mu.Unlock()
}

// OnResume задает обработчик возврата приложения на передний план при наличии сети.
func (m *Monitor) OnResume(fn func()) {
	m.mu.Lock()
	m.onResume = fn
	m.mu.Unlock()
}

// Subscribe возвращает подписку на смену состояния.
func (m *Monitor) Subscribe() *broadcast.Subscription[bool] {
	return m.hub.Subscribe()
}

// SetOnline применяет сигнал платформы. Повтор текущего состояния игнорируется.
func (m *Monitor) SetOnline(online bool) {
	m.set(online, true)
}

// Check проверяет связь и применяет результат, не вызывая обработчик OnOnline.
// Нужен тем, кто сразу после проверки синхронизирует сам. Без Prober
// возвращает текущее состояние.
func (m *Monitor) Check(ctx context.Context) bool {
	if m.prober == nil {
		return m.IsOnline()
	}

	err := m.prober(ctx)
	if err != nil {
		m.log.Debug("ping failed", "error", err)
	}
	m.set(err == nil, false)
	return err == nil
}

func (m *Monitor) set(online, fire bool) {
	m.signal.Lock()
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		m.signal.Unlock()
		return
	}
	m.online = online
	trigger := m.onOnline
	m.mu.Unlock()

	m.log.Info("connectivity changed", "online", online)
	m.hub.Publish(online)
	m.signal.Unlock()

	if fire && online && trigger != nil {
		trigger()
	}
}

// Foreground обрабатывает возврат на передний план: перепроверяет связь,
// если задан Prober, и при сохранившемся ONLINE вызывает обработчик OnResume.
func (m *Monitor) Foreground(ctx context.Context) {
	wasOnline := m.IsOnline()

	if m.prober != nil {
		err := m.prober(ctx)
		if err != nil {
			m.log.Debug("probe failed", "error", err)
		}
		m.SetOnline(err == nil)
		if err != nil || !wasOnline {
			// переход в ONLINE уже запустил синхронизацию
			return
		}
	} else if !wasOnline {
		return
	}

	m.mu.Lock()
	resume := m.onResume
	m.mu.Unlock()

	if resume != nil {
		resume()
	}
}
