package announcer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ansagelabs/ansage-core/internal/config"
	"github.com/ansagelabs/ansage-core/internal/route"
)

var (
	ErrNoRoute          = errors.New("no route loaded")
	ErrSequenceFinished = errors.New("all announcements already played")
	ErrNoPriorMessage   = errors.New("no announcement played yet")
)

// Kind labels the position of an announcement within a trip.
type Kind string

const (
	KindWelcome   Kind = "welcome"
	KindNextStop  Kind = "next_stop"
	KindFinalStop Kind = "final_stop"
	KindPreset    Kind = "preset"
)

// Announcement is one generated message.
type Announcement struct {
	Kind    Kind   `json:"kind"`
	Station string `json:"station,omitempty"`
	Text    string `json:"text"`
}

// Status is a read-only snapshot of the sequencer.
type Status struct {
	RouteLoaded bool     `json:"route_loaded"`
	RouteName   string   `json:"route_name,omitempty"`
	Stations    []string `json:"stations"`
	NextStation string   `json:"next_station,omitempty"`
	Finished    bool     `json:"finished"`
}

// Sequencer walks a loaded route one announcement per call. All state
// mutations happen under a single mutex so concurrent HTTP handlers cannot
// double-advance the position.
type Sequencer struct {
	mu       sync.Mutex
	route    *route.Route
	position int
	finished bool
	last     *Announcement

	includeFollowing bool
}

func New(cfg config.AnnouncerConfig) *Sequencer {
	return &Sequencer{includeFollowing: cfg.IncludeFollowing}
}

// LoadRoute replaces the current route and rewinds to the start.
func (s *Sequencer) LoadRoute(r route.Route) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.route = &r
	s.position = 0
	s.finished = false
	s.last = nil
	return s.statusLocked()
}

// Status reports the current state without mutating it.
func (s *Sequencer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Next computes the announcement for the current position and advances one
// step. A failed call leaves the sequencer unchanged.
func (s *Sequencer) Next() (Announcement, Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.route == nil {
		return Announcement{}, s.statusLocked(), ErrNoRoute
	}
	if s.finished {
		return Announcement{}, s.statusLocked(), ErrSequenceFinished
	}

	ann := s.compose()
	s.position++
	if s.position == s.route.Len() {
		s.finished = true
	}
	s.last = &ann
	return ann, s.statusLocked(), nil
}

// Repeat returns the last announcement verbatim without any state
// transition. Preset playback shares the same slot, so a repeated preset
// comes back too.
func (s *Sequencer) Repeat() (Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return Announcement{}, ErrNoPriorMessage
	}
	return *s.last, nil
}

// Say records text as the last played message without touching the route
// position. Used for preset announcements.
func (s *Sequencer) Say(text string) Announcement {
	s.mu.Lock()
	defer s.mu.Unlock()

	ann := Announcement{Kind: KindPreset, Text: text}
	s.last = &ann
	return ann
}

// Reset drops the route and returns to the empty state.
func (s *Sequencer) Reset() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.route = nil
	s.position = 0
	s.finished = false
	s.last = nil
	return s.statusLocked()
}

func (s *Sequencer) compose() Announcement {
	r := s.route
	station := r.Stations[s.position]

	if r.Len() == 1 {
		return Announcement{
			Kind:    KindFinalStop,
			Station: station,
			Text: fmt.Sprintf("Wir erreichen in wenigen Augenblicken die Endstation %s. "+
				"Bitte steigen Sie vorsichtig aus.", station),
		}
	}

	switch s.position {
	case 0:
		return Announcement{
			Kind:    KindWelcome,
			Station: station,
			Text: fmt.Sprintf("Willkommen im Zug. Heute fahren wir von %s nach %s. "+
				"Bitte achten Sie auf Ihre Gepaeckstuecke und eine angenehme Fahrt.", r.First(), r.Last()),
		}
	case r.Len() - 1:
		return Announcement{
			Kind:    KindFinalStop,
			Station: station,
			Text: fmt.Sprintf("Wir erreichen in wenigen Augenblicken die Endstation %s. "+
				"Bitte nehmen Sie alle persoenlichen Gegenstaende mit.", station),
		}
	default:
		text := fmt.Sprintf("Naechster Halt: %s.", station)
		if s.includeFollowing && s.position+1 < r.Len()-1 {
			text += fmt.Sprintf(" Im Anschluss erreichen wir %s.", r.Stations[s.position+1])
		}
		return Announcement{Kind: KindNextStop, Station: station, Text: text}
	}
}

func (s *Sequencer) statusLocked() Status {
	st := Status{Stations: []string{}}
	if s.route == nil {
		return st
	}
	st.RouteLoaded = true
	st.RouteName = s.route.Name
	st.Stations = append(st.Stations, s.route.Stations...)
	st.Finished = s.finished
	if !s.finished {
		st.NextStation = s.route.Stations[s.position]
	}
	return st
}
