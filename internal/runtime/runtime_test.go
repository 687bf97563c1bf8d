package runtime

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ansagelabs/ansage-core/internal/bus"
	"github.com/ansagelabs/ansage-core/internal/config"
	"github.com/ansagelabs/ansage-core/internal/natsserver"
	"github.com/ansagelabs/ansage-core/internal/speech"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func readyCode(rt *Runtime) int {
	rec := httptest.NewRecorder()
	rt.handleReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	return rec.Code
}

func TestReadinessRequiresBus(t *testing.T) {
	rt := New(config.Default(), newLogger())

	if code := readyCode(rt); code != http.StatusServiceUnavailable {
		t.Fatalf("fresh runtime readiness = %d, want 503", code)
	}

	// The flag alone is not enough while the bus is down.
	rt.ready.Store(true)
	if code := readyCode(rt); code != http.StatusServiceUnavailable {
		t.Fatalf("readiness without bus = %d, want 503", code)
	}
}

func TestReadinessConsultsComponentHealth(t *testing.T) {
	logger := newLogger()
	cfg := config.Default()
	cfg.Bus.Port = -1 // random port
	cfg.Bus.StoreDir = t.TempDir()

	srv, err := natsserver.Start(cfg.Bus, logger)
	if err != nil {
		t.Fatalf("start embedded bus: %v", err)
	}
	t.Cleanup(srv.Shutdown)
	cfg.Bus.Servers = []string{srv.ClientURL()}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	client, err := bus.Connect(ctx, cfg.Bus, logger)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(client.Close)

	rt := New(cfg, logger)
	rt.busClient = client
	rt.ready.Store(true)
	if code := readyCode(rt); code != http.StatusOK {
		t.Fatalf("healthy runtime readiness = %d, want 200", code)
	}

	// An enabled speech service that never subscribed must fail readiness.
	cfg.Speech.Enabled = true
	rt.speechSvc = speech.NewService(ctx, cfg.Speech, client, nil, logger)
	if code := readyCode(rt); code != http.StatusServiceUnavailable {
		t.Fatalf("readiness with unhealthy speech = %d, want 503", code)
	}
}
