package events

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/exp/slog"
)

const (
	Path = "/api/v1/events"

	// TypeHello отправляется сразу после подключения
	TypeHello = "hello"

	defaultPingInterval = 20 * time.Second
	writeWait           = 5 * time.Second
)

// Message - конверт сообщений канала присутствия.
type Message struct {
	Type       string    `json:"type"`
	ServerTime time.Time `json:"server_time"`
}

// Handler держит websocket-соединения клиентов. Пока соединение живо, клиент считает сервер доступным.
type Handler struct {
	log          *slog.Logger
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	clients      atomic.Int64
}

func NewHandler(log *slog.Logger, pingInterval time.Duration) *Handler {
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}

	return &Handler{
		log: log.With(slog.String("component", "events_handler")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		pingInterval: pingInterval,
	}
}

// Clients возвращает число подключенных клиентов.
func (h *Handler) Clients() int64 {
	return h.clients.Load()
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}
	defer conn.Close()

	total := h.clients.Add(1)
	defer h.clients.Add(-1)
	h.log.Debug("client connected", "remote_addr", r.RemoteAddr, "total", total)

	if err := conn.WriteJSON(Message{Type: TypeHello, ServerTime: time.Now().UTC()}); err != nil {
		h.log.Debug("hello not delivered", "error", err)
		return
	}

	done := make(chan struct{})
	go h.readLoop(conn, done)

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			h.log.Debug("client disconnected", "remote_addr", r.RemoteAddr)
			return
		case <-r.Context().Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
				time.Now().Add(writeWait))
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				h.log.Debug("ping failed", "error", err, "remote_addr", r.RemoteAddr)
				return
			}
		}
	}
}

// readLoop читает входящие кадры, чтобы обрабатывались pong и close.
func (h *Handler) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
