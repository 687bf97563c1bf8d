package speaker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ansagelabs/ansage-core/internal/bus"
	"github.com/ansagelabs/ansage-core/internal/config"
	"github.com/ansagelabs/ansage-core/internal/protocol"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Info describes a playback endpoint (cab UI, platform speaker) known to
// the runtime.
type Info struct {
	ID       string    `json:"id"`
	Role     string    `json:"role"`
	LastSeen time.Time `json:"last_seen"`
	Healthy  bool      `json:"healthy"`
}

type announceMessage struct {
	SpeakerID string    `json:"speaker_id"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}

type heartbeatMessage struct {
	SpeakerID string    `json:"speaker_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Registry tracks playback endpoints via bus announce and heartbeat
// messages and marks them unhealthy when heartbeats stop.
type Registry struct {
	cfg       config.SpeakerConfig
	log       *slog.Logger
	bus       *bus.Client
	mu        sync.RWMutex
	speakers  map[string]*Info
	heartbeat *time.Ticker
	cancel    context.CancelFunc
	subs      []*nats.Subscription
	meter     metric.Meter
	gauge     metric.Int64ObservableGauge
}

func NewRegistry(ctx context.Context, cfg config.SpeakerConfig, busClient *bus.Client, log *slog.Logger) (*Registry, error) {
	ctx, cancel := context.WithCancel(ctx)
	r := &Registry{
		cfg:      cfg,
		log:      log.With(slog.String("component", "speaker-registry")),
		bus:      busClient,
		speakers: make(map[string]*Info),
		meter:    otel.Meter("github.com/ansagelabs/ansage-core/speaker"),
		cancel:   cancel,
	}

	if err := r.initMetrics(); err != nil {
		r.log.Warn("failed to initialize metrics", slog.String("error", err.Error()))
	}

	if err := r.subscribe(); err != nil {
		r.cancel()
		return nil, err
	}

	r.heartbeat = time.NewTicker(time.Duration(cfg.HeartbeatInterval) * time.Millisecond)
	go r.runHeartbeat(ctx)
	go r.monitorHealth(ctx)

	if err := r.announce(); err != nil {
		r.log.Warn("failed to announce runtime node", slog.String("error", err.Error()))
	}

	return r, nil
}

func (r *Registry) Close() {
	if r.cancel != nil {
		r.cancel()
	}
	if r.heartbeat != nil {
		r.heartbeat.Stop()
	}
	for _, sub := range r.subs {
		_ = sub.Drain()
	}
}

func (r *Registry) subscribe() error {
	conn := r.bus.Conn()
	announceSub, err := conn.Subscribe(protocol.SubjectSpeakerAnnounce, r.handleAnnounce)
	if err != nil {
		return fmt.Errorf("subscribe announce: %w", err)
	}
	r.subs = append(r.subs, announceSub)

	heartbeatSub, err := conn.Subscribe(protocol.SubjectSpeakerHeartbeatPrefix+".*", r.handleHeartbeat)
	if err != nil {
		return fmt.Errorf("subscribe heartbeat: %w", err)
	}
	r.subs = append(r.subs, heartbeatSub)

	return nil
}

func (r *Registry) runHeartbeat(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.heartbeat.C:
			if err := r.publishHeartbeat(); err != nil {
				r.log.Warn("failed to publish heartbeat", slog.String("error", err.Error()))
			}
		}
	}
}

func (r *Registry) monitorHealth(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.evaluateHealth()
		}
	}
}

func (r *Registry) announce() error {
	msg := announceMessage{
		SpeakerID: r.cfg.ID,
		Role:      r.cfg.Role,
		Timestamp: time.Now().UTC(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := r.bus.Conn().Publish(protocol.SubjectSpeakerAnnounce, payload); err != nil {
		return err
	}
	r.update(msg.SpeakerID, msg.Role, msg.Timestamp)
	return nil
}

func (r *Registry) publishHeartbeat() error {
	msg := heartbeatMessage{
		SpeakerID: r.cfg.ID,
		Timestamp: time.Now().UTC(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("%s.%s", protocol.SubjectSpeakerHeartbeatPrefix, r.cfg.ID)
	return r.bus.Conn().Publish(subject, payload)
}

func (r *Registry) handleAnnounce(msg *nats.Msg) {
	var announcement announceMessage
	if err := json.Unmarshal(msg.Data, &announcement); err != nil {
		r.log.Warn("invalid announce message", slog.String("error", err.Error()))
		return
	}
	if announcement.Timestamp.IsZero() {
		announcement.Timestamp = time.Now().UTC()
	}
	r.update(announcement.SpeakerID, announcement.Role, announcement.Timestamp)
}

func (r *Registry) handleHeartbeat(msg *nats.Msg) {
	var hb heartbeatMessage
	if err := json.Unmarshal(msg.Data, &hb); err != nil {
		r.log.Warn("invalid heartbeat message", slog.String("error", err.Error()))
		return
	}
	if hb.Timestamp.IsZero() {
		hb.Timestamp = time.Now().UTC()
	}
	r.update(hb.SpeakerID, "", hb.Timestamp)
}

func (r *Registry) update(id, role string, timestamp time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.speakers[id]
	if !ok {
		s = &Info{ID: id}
		r.speakers[id] = s
	}
	if role != "" {
		s.Role = role
	}
	s.LastSeen = timestamp
	s.Healthy = true
}

func (r *Registry) evaluateHealth() {
	r.mu.Lock()
	defer r.mu.Unlock()

	timeout := time.Duration(r.cfg.HeartbeatTimeout) * time.Millisecond
	now := time.Now()
	for _, s := range r.speakers {
		if now.Sub(s.LastSeen) > timeout {
			s.Healthy = false
		}
	}
}

func (r *Registry) Healthy() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.speakers[r.cfg.ID]
	if !ok {
		return false
	}
	return s.Healthy
}

// List returns a snapshot of all known speakers.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []Info
	for _, s := range r.speakers {
		results = append(results, *s)
	}
	return results
}

func (r *Registry) initMetrics() error {
	if r.meter == nil {
		return nil
	}
	gauge, err := r.meter.Int64ObservableGauge("ansage.speakers.known",
		metric.WithDescription("Number of known playback endpoints"))
	if err != nil {
		return err
	}
	r.gauge = gauge
	_, err = r.meter.RegisterCallback(func(ctx context.Context, obs metric.Observer) error {
		obs.ObserveInt64(gauge, r.count())
		return nil
	}, gauge)
	return err
}

func (r *Registry) count() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.speakers))
}
