package remote

import (
	"context"
	"net"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/slog"

	"technoplus/internal/app/server/api"
	"technoplus/internal/infrastructure/storage/memory"
)

type recordingSignal struct {
	mu     sync.Mutex
	states []bool
}

func (r *recordingSignal) SetOnline(online bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, online)
}

func (r *recordingSignal) last() (bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return false, false
	}
	return r.states[len(r.states)-1], true
}

func TestWatcher_ReportsPresence(t *testing.T) {
	repo := memory.NewRowRepository(slog.Default())
	srv := httptest.NewUnstartedServer(api.New(repo, slog.Default()))
	serverCtx, stopServer := context.WithCancel(context.Background())
	srv.Config.BaseContext = func(net.Listener) context.Context { return serverCtx }
	srv.Start()
	defer srv.Close()

	signal := &recordingSignal{}
	w := NewWatcher(srv.URL, 50*time.Millisecond, signal, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		online, ok := signal.last()
		return ok && online
	}, 2*time.Second, 10*time.Millisecond)

	// остановка сервера закрывает канал присутствия
	stopServer()

	assert.Eventually(t, func() bool {
		online, ok := signal.last()
		return ok && !online
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_URL(t *testing.T) {
	signal := &recordingSignal{}

	assert.Equal(t, "ws://localhost:8080/api/v1/events", NewWatcher("http://localhost:8080", time.Second, signal, slog.Default()).url)
	assert.Equal(t, "wss://shop.example/api/v1/events", NewWatcher("https://shop.example", time.Second, signal, slog.Default()).url)
}
