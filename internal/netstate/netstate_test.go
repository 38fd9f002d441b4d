package netstate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestStatic(t *testing.T) {
	if !Static(true).Online() {
		t.Error("Static(true).Online() = false")
	}
	if Static(false).Online() {
		t.Error("Static(false).Online() = true")
	}
}

func TestMonitor_SetNotifiesTransitionsOnly(t *testing.T) {
	m := NewMonitor("http://example.invalid", time.Minute, zerolog.Nop())
	ch := m.Subscribe()

	m.Set(true) // no change
	select {
	case v := <-ch:
		t.Fatalf("unexpected event %v for unchanged state", v)
	default:
	}

	m.Set(false)
	select {
	case v := <-ch:
		if v {
			t.Error("event = true, want false")
		}
	default:
		t.Fatal("expected offline event")
	}
	if m.Online() {
		t.Error("Online() = true after Set(false)")
	}
}

func TestMonitor_SubscriberKeepsLatest(t *testing.T) {
	m := NewMonitor("http://example.invalid", time.Minute, zerolog.Nop())
	ch := m.Subscribe()

	m.Set(false)
	m.Set(true)

	if v := <-ch; !v {
		t.Error("latest event = false, want true")
	}
}

func TestMonitor_Probe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	m := NewMonitor(server.URL, time.Minute, zerolog.Nop())
	m.Set(false)
	if !m.Probe(context.Background()) {
		t.Error("Probe() = false for a reachable server")
	}
	if !m.Online() {
		t.Error("Online() = false after successful probe")
	}

	m.URL = "http://127.0.0.1:1"
	if m.Probe(context.Background()) {
		t.Error("Probe() = true with nothing listening")
	}
	if m.Online() {
		t.Error("Online() = true after failed probe")
	}
}

func TestMonitor_RunStopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	m := NewMonitor(server.URL, 5*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
