package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/ansagelabs/ansage-core/internal/announcer"
	"github.com/ansagelabs/ansage-core/internal/bus"
	"github.com/ansagelabs/ansage-core/internal/config"
	"github.com/ansagelabs/ansage-core/internal/journal"
	"github.com/ansagelabs/ansage-core/internal/protocol"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Service fans played announcements out to the journal and the bus, where
// the speech service and playback endpoints pick them up. Everything here
// is fire-and-forget relative to the sequencer.
type Service struct {
	cfg    config.SpeechConfig
	bus    *bus.Client
	store  *journal.Store
	logger *slog.Logger

	mu        sync.Mutex
	routeID   string
	routeName string

	counter metric.Int64Counter
}

func NewService(cfg config.SpeechConfig, busClient *bus.Client, store *journal.Store, logger *slog.Logger) *Service {
	s := &Service{
		cfg:    cfg,
		bus:    busClient,
		store:  store,
		logger: logger.With(slog.String("component", "dispatch")),
	}
	meter := otel.Meter("github.com/ansagelabs/ansage-core/dispatch")
	counter, err := meter.Int64Counter("ansage.announcements.played",
		metric.WithDescription("Announcements played by kind"))
	if err != nil {
		s.logger.Warn("failed to initialize announcement counter", slogError(err))
	} else {
		s.counter = counter
	}
	return s
}

// RouteLoaded registers a freshly loaded route and returns its journal id.
func (s *Service) RouteLoaded(ctx context.Context, name string, stations int) string {
	if s == nil {
		return ""
	}
	id := uuid.NewString()

	s.mu.Lock()
	s.routeID = id
	s.routeName = name
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.AppendRoute(ctx, id, name, stations); err != nil {
			s.logger.Warn("failed to journal route", slogError(err))
		}
	}
	return id
}

// RouteCleared forgets the active route after a reset.
func (s *Service) RouteCleared() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.routeID = ""
	s.routeName = ""
	s.mu.Unlock()
}

// Announce journals the announcement and publishes it together with a
// speech request. Failures are logged; the operator request already
// succeeded by the time we get here.
func (s *Service) Announce(ctx context.Context, ann announcer.Announcement, repeat bool) {
	if s == nil {
		return
	}

	s.mu.Lock()
	routeID, routeName := s.routeID, s.routeName
	s.mu.Unlock()

	evt := protocol.AnnouncementEvent{
		ID:        uuid.NewString(),
		RouteID:   routeID,
		RouteName: routeName,
		Kind:      string(ann.Kind),
		Station:   ann.Station,
		Text:      ann.Text,
		Repeat:    repeat,
		Timestamp: time.Now().UTC(),
	}

	if s.counter != nil {
		s.counter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", evt.Kind),
			attribute.Bool("repeat", repeat),
		))
	}

	if s.store != nil {
		err := s.store.AppendAnnouncement(ctx, journal.Entry{
			RouteID: routeID,
			Kind:    evt.Kind,
			Station: evt.Station,
			Message: evt.Text,
			Repeat:  repeat,
		})
		if err != nil {
			s.logger.Warn("failed to journal announcement", slogError(err))
		}
	}

	if s.bus == nil {
		return
	}
	if err := s.publish(protocol.SubjectAnnouncement, evt); err != nil {
		s.logger.Warn("failed to publish announcement", slogError(err))
	}
	req := protocol.SpeechRequest{
		AnnouncementID: evt.ID,
		Text:           evt.Text,
		Voice:          s.cfg.Voice,
		Target:         s.cfg.Target,
	}
	if err := s.publish(protocol.SubjectSpeechRequest, req); err != nil {
		s.logger.Warn("failed to publish speech request", slogError(err))
	}
}

func (s *Service) publish(subject string, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.bus.Conn().Publish(subject, data)
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
