package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ansagelabs/ansage-core/internal/announcer"
	"github.com/ansagelabs/ansage-core/internal/bus"
	"github.com/ansagelabs/ansage-core/internal/config"
	"github.com/ansagelabs/ansage-core/internal/dispatch"
	"github.com/ansagelabs/ansage-core/internal/httpapi"
	"github.com/ansagelabs/ansage-core/internal/journal"
	"github.com/ansagelabs/ansage-core/internal/natsserver"
	"github.com/ansagelabs/ansage-core/internal/preset"
	"github.com/ansagelabs/ansage-core/internal/speaker"
	"github.com/ansagelabs/ansage-core/internal/speech"
	"github.com/go-chi/chi/v5"
)

// Runtime owns the process lifecycle: telemetry, the embedded bus, the
// journal, the announcement services and the HTTP surface. Start blocks
// until the parent context is cancelled, then tears everything down in
// reverse order.
type Runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	httpServer  *http.Server
	tracerClose func(context.Context) error

	busClient   *bus.Client
	busServer   *natsserver.EmbeddedServer
	store       *journal.Store
	speechSvc   *speech.Service
	speakers    *speaker.Registry
	ready       atomic.Bool
	wg          sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricsHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	if err := r.startBus(ctx); err != nil {
		return err
	}

	store, err := journal.Open(ctx, r.cfg.Journal, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	r.store = store

	catalog, err := preset.Build(r.cfg.Presets.Path)
	if err != nil {
		return fmt.Errorf("failed to build preset catalog: %w", err)
	}

	seq := announcer.New(r.cfg.Announcer)
	disp := dispatch.NewService(r.cfg.Speech, r.busClient, r.store, r.logger)

	if err := r.startSpeech(ctx); err != nil {
		return err
	}
	if err := r.startSpeakers(ctx); err != nil {
		return err
	}

	handlers := httpapi.NewHandlers(seq, catalog, disp, r.speakers, r.logger)

	root := chi.NewRouter()
	root.Get("/healthz", r.handleHealth)
	root.Get("/readyz", r.handleReady)
	if metricsHandler != nil {
		root.Handle("/metrics", metricsHandler)
	}
	root.Mount("/", httpapi.NewRouter(handlers))

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started", slog.String("addr", addr))

	<-ctx.Done()
	r.ready.Store(false)
	r.logger.Info("runtime stopping")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()

	if r.speakers != nil {
		r.speakers.Close()
	}
	if r.speechSvc != nil {
		r.speechSvc.Close()
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.logger.Error("journal close error", slog.String("error", err.Error()))
		}
	}
	if r.busClient != nil {
		r.busClient.Close()
	}
	r.busServer.Shutdown()

	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

func (r *Runtime) startBus(ctx context.Context) error {
	srv, err := natsserver.Start(r.cfg.Bus, r.logger)
	if err != nil {
		return fmt.Errorf("failed to start embedded bus: %w", err)
	}
	r.busServer = srv

	client, err := bus.Connect(ctx, r.cfg.Bus, r.logger)
	if err != nil {
		r.busServer.Shutdown()
		return fmt.Errorf("failed to connect to bus: %w", err)
	}
	r.busClient = client
	return nil
}

func (r *Runtime) startSpeech(ctx context.Context) error {
	if !r.cfg.Speech.Enabled {
		r.logger.Info("speech synthesis disabled")
		return nil
	}
	synth, err := speech.NewSynthesizer(r.cfg.Speech)
	if err != nil {
		return fmt.Errorf("failed to initialize synthesizer: %w", err)
	}
	svc := speech.NewService(ctx, r.cfg.Speech, r.busClient, synth, r.logger)
	if err := svc.Start(); err != nil {
		return fmt.Errorf("failed to start speech service: %w", err)
	}
	r.speechSvc = svc
	return nil
}

func (r *Runtime) startSpeakers(ctx context.Context) error {
	reg, err := speaker.NewRegistry(ctx, r.cfg.Speaker, r.busClient, r.logger)
	if err != nil {
		return fmt.Errorf("failed to start speaker registry: %w", err)
	}
	r.speakers = reg
	return nil
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Runtime) handleReady(w http.ResponseWriter, _ *http.Request) {
	if r.healthy() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}

func (r *Runtime) healthy() bool {
	if !r.ready.Load() || !r.busClient.Healthy() {
		return false
	}
	if r.speechSvc != nil && !r.speechSvc.Healthy() {
		return false
	}
	if r.speakers != nil && !r.speakers.Healthy() {
		return false
	}
	return true
}
