package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ansagelabs/ansage-core/internal/announcer"
	"github.com/ansagelabs/ansage-core/internal/dispatch"
	"github.com/ansagelabs/ansage-core/internal/preset"
	"github.com/ansagelabs/ansage-core/internal/route"
	"github.com/ansagelabs/ansage-core/internal/speaker"
	"github.com/go-chi/chi/v5"
)

// maxRouteUpload bounds the accepted size of a route file. Station lists
// are tiny; anything larger is a mistake.
const maxRouteUpload = 1 << 20

// Handlers exposes the operator API over the sequencer, the preset catalog
// and the dispatch fanout. The dispatcher and speaker registry may be nil
// in tests.
type Handlers struct {
	seq      *announcer.Sequencer
	presets  *preset.Catalog
	dispatch *dispatch.Service
	speakers *speaker.Registry
	logger   *slog.Logger
}

func NewHandlers(seq *announcer.Sequencer, presets *preset.Catalog, disp *dispatch.Service, speakers *speaker.Registry, logger *slog.Logger) *Handlers {
	return &Handlers{
		seq:      seq,
		presets:  presets,
		dispatch: disp,
		speakers: speakers,
		logger:   logger.With(slog.String("component", "httpapi")),
	}
}

// playResponse pairs a played announcement with the resulting state.
type playResponse struct {
	Announcement announcer.Announcement `json:"announcement"`
	Status       announcer.Status       `json:"status"`
}

// LoadRoute accepts a station list either as a multipart upload under the
// "route" field or as the raw request body. The route name comes from the
// "name" query parameter, falling back to the uploaded filename.
func (h *Handlers) LoadRoute(w http.ResponseWriter, r *http.Request) {
	raw, name, err := readRouteUpload(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if qn := r.URL.Query().Get("name"); qn != "" {
		name = qn
	}

	parsed, err := route.Parse(raw, name)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	st := h.seq.LoadRoute(parsed)
	h.dispatch.RouteLoaded(r.Context(), parsed.Name, parsed.Len())
	h.logger.Info("route loaded",
		slog.String("route", parsed.Name),
		slog.Int("stations", parsed.Len()))
	h.writeJSON(w, http.StatusOK, st)
}

// Status reports the sequencer snapshot.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.seq.Status())
}

// Next plays the announcement for the current position.
func (h *Handlers) Next(w http.ResponseWriter, r *http.Request) {
	ann, st, err := h.seq.Next()
	if err != nil {
		h.writeError(w, statusForSequencerError(err), err)
		return
	}
	h.dispatch.Announce(r.Context(), ann, false)
	h.writeJSON(w, http.StatusOK, playResponse{Announcement: ann, Status: st})
}

// Repeat replays the last announcement without advancing.
func (h *Handlers) Repeat(w http.ResponseWriter, r *http.Request) {
	ann, err := h.seq.Repeat()
	if err != nil {
		h.writeError(w, statusForSequencerError(err), err)
		return
	}
	h.dispatch.Announce(r.Context(), ann, true)
	h.writeJSON(w, http.StatusOK, playResponse{Announcement: ann, Status: h.seq.Status()})
}

// Reset drops the loaded route.
func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	st := h.seq.Reset()
	h.dispatch.RouteCleared()
	h.logger.Info("route reset")
	h.writeJSON(w, http.StatusOK, st)
}

// ListPresets returns the catalog in order.
func (h *Handlers) ListPresets(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, struct {
		Presets []preset.Preset `json:"presets"`
	}{Presets: h.presets.List()})
}

// PlayPreset plays a canned announcement independent of the route state.
func (h *Handlers) PlayPreset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.presets.Get(id)
	if err != nil {
		h.writeError(w, http.StatusNotFound, err)
		return
	}

	ann := h.seq.Say(p.Text)
	h.dispatch.Announce(r.Context(), ann, false)
	h.logger.Info("preset played", slog.String("preset", id))
	h.writeJSON(w, http.StatusOK, struct {
		Announcement announcer.Announcement `json:"announcement"`
		Preset       preset.Preset          `json:"preset"`
		Status       announcer.Status       `json:"status"`
	}{Announcement: ann, Preset: p, Status: h.seq.Status()})
}

// ListSpeakers reports the playback endpoints currently known on the bus.
func (h *Handlers) ListSpeakers(w http.ResponseWriter, r *http.Request) {
	var infos []speaker.Info
	if h.speakers != nil {
		infos = h.speakers.List()
	}
	if infos == nil {
		infos = []speaker.Info{}
	}
	h.writeJSON(w, http.StatusOK, struct {
		Speakers []speaker.Info `json:"speakers"`
	}{Speakers: infos})
}

func readRouteUpload(r *http.Request) ([]byte, string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("route")
		if err != nil {
			return nil, "", errors.New("multipart upload needs a route file field")
		}
		defer file.Close()
		raw, err := io.ReadAll(io.LimitReader(file, maxRouteUpload))
		if err != nil {
			return nil, "", err
		}
		return raw, route.DisplayName(header.Filename), nil
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRouteUpload))
	if err != nil {
		return nil, "", err
	}
	return raw, "", nil
}

func statusForSequencerError(err error) int {
	switch {
	case errors.Is(err, announcer.ErrNoRoute),
		errors.Is(err, announcer.ErrSequenceFinished),
		errors.Is(err, announcer.ErrNoPriorMessage):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("failed to encode response", slog.String("error", err.Error()))
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: err.Error()})
}
