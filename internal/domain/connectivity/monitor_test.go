package connectivity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestMonitor_TriggerOncePerTransition(t *testing.T) {
	m := New(false, nil, slog.Default())

	var triggers atomic.Int32
	m.OnOnline(func() { triggers.Add(1) })

	first := m.Subscribe()
	second := m.Subscribe()
	defer first.Close()
	defer second.Close()

	m.SetOnline(true)
	m.SetOnline(true)

	assert.Equal(t, int32(1), triggers.Load(), "one trigger regardless of listeners")
	assert.True(t, <-first.C())
	assert.True(t, <-second.C())

	m.SetOnline(false)
	m.SetOnline(true)

	assert.Equal(t, int32(2), triggers.Load())
}

func TestMonitor_ListenersSeeChangesOnly(t *testing.T) {
	m := New(true, nil, slog.Default())
	sub := m.Subscribe()
	defer sub.Close()

	m.SetOnline(true)
	m.SetOnline(false)

	require.Len(t, sub.C(), 1)
	assert.False(t, <-sub.C())
}

func TestMonitor_ConcurrentSignals(t *testing.T) {
	m := New(false, nil, slog.Default())

	var triggers atomic.Int32
	m.OnOnline(func() { triggers.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.SetOnline(true)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), triggers.Load())
	assert.True(t, m.IsOnline())
}

func TestMonitor_Foreground(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		initial     bool
		probeErr    error
		wantOnline  bool
		wantOnlineN int32
		wantResumeN int32
	}{
		{name: "online stays online", initial: true, wantOnline: true, wantResumeN: 1},
		{name: "offline becomes online", initial: false, wantOnline: true, wantOnlineN: 1},
		{name: "online loses network", initial: true, probeErr: errors.New("dial tcp: refused"), wantOnline: false},
		{name: "offline stays offline", initial: false, probeErr: errors.New("timeout"), wantOnline: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := func(context.Context) error { return tt.probeErr }
			m := New(tt.initial, probe, slog.Default())

			var online, resume atomic.Int32
			m.OnOnline(func() { online.Add(1) })
			m.OnResume(func() { resume.Add(1) })

			m.Foreground(ctx)

			assert.Equal(t, tt.wantOnline, m.IsOnline())
			assert.Equal(t, tt.wantOnlineN, online.Load())
			assert.Equal(t, tt.wantResumeN, resume.Load())
		})
	}
}

func TestMonitor_ForegroundWithoutProber(t *testing.T) {
	m := New(false, nil, slog.Default())

	var resume atomic.Int32
	m.OnResume(func() { resume.Add(1) })

	m.Foreground(context.Background())
	assert.Zero(t, resume.Load(), "offline foreground is only a hint")

	m.SetOnline(true)
	m.Foreground(context.Background())
	assert.Equal(t, int32(1), resume.Load())
}

func TestMonitor_LastPublishedMatchesState(t *testing.T) {
	for round := 0; round < 50; round++ {
		m := New(false, nil, slog.Default())
		sub := m.Subscribe()

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(online bool) {
				defer wg.Done()
				m.SetOnline(online)
			}(i%2 == 0)
		}
		wg.Wait()

		var last *bool
		for len(sub.C()) > 0 {
			v := <-sub.C()
			last = &v
		}
		if last != nil {
			assert.Equal(t, m.IsOnline(), *last, "round %d", round)
		}
		sub.Close()
	}
}

func TestMonitor_Check(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		initial    bool
		pingErr    error
		wantOnline bool
		wantEvents int
	}{
		{name: "offline becomes online", initial: false, wantOnline: true, wantEvents: 1},
		{name: "online stays online", initial: true, wantOnline: true},
		{name: "online loses network", initial: true, pingErr: errors.New("dial tcp: refused"), wantOnline: false, wantEvents: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ping := func(context.Context) error { return tt.pingErr }
			m := New(tt.initial, ping, slog.Default())
			sub := m.Subscribe()
			defer sub.Close()

			var online, resume atomic.Int32
			m.OnOnline(func() { online.Add(1) })
			m.OnResume(func() { resume.Add(1) })

			assert.Equal(t, tt.wantOnline, m.Check(ctx))
			assert.Equal(t, tt.wantOnline, m.IsOnline())
			assert.Len(t, sub.C(), tt.wantEvents)
			assert.Zero(t, online.Load(), "caller syncs on its own")
			assert.Zero(t, resume.Load())
		})
	}
}
