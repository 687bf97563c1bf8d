package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ansagelabs/ansage-core/internal/announcer"
	"github.com/ansagelabs/ansage-core/internal/config"
	"github.com/ansagelabs/ansage-core/internal/preset"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	seq := announcer.New(config.AnnouncerConfig{})
	catalog, err := preset.NewCatalog(preset.Builtin())
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(NewHandlers(seq, catalog, nil, nil, logger))
}

func doJSON(t *testing.T, h http.Handler, method, target string, body io.Reader) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("response is not JSON: %v: %s", err, rec.Body.String())
		}
	}
	return rec, decoded
}

func TestLoadRouteFromRawBody(t *testing.T) {
	h := newTestRouter(t)

	body := strings.NewReader("Muenchen Hbf\nAugsburg Hbf\nUlm Hbf\n")
	rec, got := doJSON(t, h, http.MethodPost, "/api/route?name=Bayern+Express", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if got["route_loaded"] != true {
		t.Fatalf("route_loaded = %v", got["route_loaded"])
	}
	if got["route_name"] != "Bayern Express" {
		t.Fatalf("route_name = %v", got["route_name"])
	}
	if got["next_station"] != "Muenchen Hbf" {
		t.Fatalf("next_station = %v", got["next_station"])
	}
}

func TestLoadRouteMultipartUsesFilename(t *testing.T) {
	h := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("route", "nordstrecke.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("Hamburg Hbf\nBremen Hbf\n")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/route", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["route_name"] != "nordstrecke" {
		t.Fatalf("route_name = %v, want filename without extension", got["route_name"])
	}
}

func TestLoadRouteRejectsEmptyFile(t *testing.T) {
	h := newTestRouter(t)

	rec, got := doJSON(t, h, http.MethodPost, "/api/route", strings.NewReader("\n\n  \n"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if msg, _ := got["error"].(string); msg == "" {
		t.Fatal("expected error message in body")
	}
}

func TestNextWithoutRouteConflicts(t *testing.T) {
	h := newTestRouter(t)

	rec, _ := doJSON(t, h, http.MethodPost, "/api/next", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestFullTripOverHTTP(t *testing.T) {
	h := newTestRouter(t)

	rec, _ := doJSON(t, h, http.MethodPost, "/api/route", strings.NewReader("A\nB\nC\n"))
	if rec.Code != http.StatusOK {
		t.Fatalf("load status = %d", rec.Code)
	}

	wantKinds := []string{"welcome", "next_stop", "final_stop"}
	for i, kind := range wantKinds {
		rec, got := doJSON(t, h, http.MethodPost, "/api/next", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("next %d status = %d: %s", i, rec.Code, rec.Body.String())
		}
		ann := got["announcement"].(map[string]any)
		if ann["kind"] != kind {
			t.Fatalf("next %d kind = %v, want %s", i, ann["kind"], kind)
		}
	}

	rec, _ = doJSON(t, h, http.MethodPost, "/api/next", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status after final stop = %d, want 409", rec.Code)
	}
}

func TestRepeatMirrorsLastAnnouncement(t *testing.T) {
	h := newTestRouter(t)

	rec, _ := doJSON(t, h, http.MethodPost, "/api/repeat", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("repeat before any message = %d, want 409", rec.Code)
	}

	doJSON(t, h, http.MethodPost, "/api/route", strings.NewReader("A\nB\n"))
	_, first := doJSON(t, h, http.MethodPost, "/api/next", nil)
	rec, repeated := doJSON(t, h, http.MethodPost, "/api/repeat", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat status = %d", rec.Code)
	}

	firstText := first["announcement"].(map[string]any)["text"]
	repeatText := repeated["announcement"].(map[string]any)["text"]
	if firstText != repeatText {
		t.Fatalf("repeat text %q differs from original %q", repeatText, firstText)
	}

	st := repeated["status"].(map[string]any)
	if st["next_station"] != "B" {
		t.Fatalf("repeat advanced the sequence, next_station = %v", st["next_station"])
	}
}

func TestResetDropsRoute(t *testing.T) {
	h := newTestRouter(t)

	doJSON(t, h, http.MethodPost, "/api/route", strings.NewReader("A\nB\n"))
	rec, got := doJSON(t, h, http.MethodPost, "/api/reset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d", rec.Code)
	}
	if got["route_loaded"] != false {
		t.Fatalf("route_loaded after reset = %v", got["route_loaded"])
	}

	rec, _ = doJSON(t, h, http.MethodGet, "/api/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status after reset = %d", rec.Code)
	}
}

func TestPresetEndpoints(t *testing.T) {
	h := newTestRouter(t)

	rec, got := doJSON(t, h, http.MethodGet, "/api/presets", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	presets := got["presets"].([]any)
	if len(presets) == 0 {
		t.Fatal("expected built-in presets")
	}
	firstEntry := presets[0].(map[string]any)
	if _, leaked := firstEntry["text"]; leaked {
		t.Fatal("preset text should not appear in the listing")
	}

	rec, played := doJSON(t, h, http.MethodPost, "/api/presets/sicherheitshinweis/play", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("play status = %d: %s", rec.Code, rec.Body.String())
	}
	ann := played["announcement"].(map[string]any)
	if ann["kind"] != "preset" {
		t.Fatalf("kind = %v, want preset", ann["kind"])
	}

	rec, _ = doJSON(t, h, http.MethodPost, "/api/presets/does-not-exist/play", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown preset status = %d, want 404", rec.Code)
	}

	// A failed lookup must not clobber the repeat slot.
	rec, repeated := doJSON(t, h, http.MethodPost, "/api/repeat", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat after failed play = %d", rec.Code)
	}
	if repeated["announcement"].(map[string]any)["text"] != ann["text"] {
		t.Fatal("failed preset play changed the last message")
	}
}

func TestListSpeakersWithoutRegistry(t *testing.T) {
	h := newTestRouter(t)

	rec, got := doJSON(t, h, http.MethodGet, "/api/speakers", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("speakers status = %d", rec.Code)
	}
	if _, ok := got["speakers"].([]any); !ok {
		t.Fatalf("speakers should be a list, got %v", got["speakers"])
	}
}

func TestPresetPlaysWithoutRoute(t *testing.T) {
	h := newTestRouter(t)

	rec, _ := doJSON(t, h, http.MethodPost, "/api/presets/rauchverbot/play", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("preset without route = %d, want 200", rec.Code)
	}

	rec, _ = doJSON(t, h, http.MethodPost, "/api/repeat", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat after preset = %d, want 200", rec.Code)
	}
}
