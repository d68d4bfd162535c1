package remote

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/exp/slog"
)

const (
	eventsPath       = "/api/v1/events"
	handshakeTimeout = 10 * time.Second
	// readTimeout больше периода ping сервера
	readTimeout = time.Minute
)

// Signal принимает сигналы о состоянии сети.
type Signal interface {
	SetOnline(online bool)
}

// Watcher держит websocket-соединение с каналом присутствия сервера и
// сообщает о подключении и разрыве. Сам переподключается с паузой delay.
type Watcher struct {
	url    string
	delay  time.Duration
	signal Signal
	dialer *websocket.Dialer
	log    *slog.Logger
}

func NewWatcher(baseURL string, delay time.Duration, signal Signal, log *slog.Logger) *Watcher {
	wsURL := baseURL
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(baseURL, "https://")
	case strings.HasPrefix(baseURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(baseURL, "http://")
	}

	return &Watcher{
		url:    wsURL + eventsPath,
		delay:  delay,
		signal: signal,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		log: log.With(slog.String("component", "watcher")),
	}
}

// Run подключается к серверу, пока не отменен ctx.
func (w *Watcher) Run(ctx context.Context) {
	for {
		w.session(ctx)
		w.signal.SetOnline(false)

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.delay):
		}
	}
}

// session обслуживает одно соединение до его разрыва.
func (w *Watcher) session(ctx context.Context) {
	conn, _, err := w.dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		w.log.Debug("Сервер недоступен", "error", err)
		return
	}
	defer conn.Close()

	w.log.Debug("Канал присутствия открыт", "url", w.url)
	w.signal.SetOnline(true)

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if ctx.Err() == nil {
				w.log.Info("Соединение с сервером потеряно", "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	}
}
