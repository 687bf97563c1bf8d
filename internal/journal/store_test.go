package journal

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/ansagelabs/ansage-core/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOpenEphemeral(t *testing.T) {
	ctx := context.Background()
	cfg := config.JournalConfig{RetentionMode: "ephemeral"}
	s, err := Open(ctx, cfg, newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Ensure(); err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if err := s.AppendAnnouncement(ctx, Entry{Kind: "welcome", Message: "hallo"}); err != nil {
		t.Fatalf("ephemeral append should be a no-op: %v", err)
	}
}

func TestAppendAndQuery(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.JournalConfig{Path: filepath.Join(tmp, "journal.db"), RetentionMode: "session"}
	s, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	routeID := "route-123"
	if err := s.AppendRoute(context.Background(), routeID, "muc-ulm", 3); err != nil {
		t.Fatalf("append route: %v", err)
	}
	if err := s.AppendAnnouncement(context.Background(), Entry{
		RouteID: routeID,
		Kind:    "welcome",
		Station: "Muenchen Hbf",
		Message: "Willkommen im Zug.",
	}); err != nil {
		t.Fatalf("append announcement: %v", err)
	}
	if err := s.AppendAnnouncement(context.Background(), Entry{
		RouteID: routeID,
		Kind:    "next_stop",
		Station: "Augsburg Hbf",
		Message: "Naechster Halt: Augsburg Hbf.",
	}); err != nil {
		t.Fatalf("append announcement: %v", err)
	}

	entries, err := s.ListRouteAnnouncements(context.Background(), routeID, 10)
	if err != nil {
		t.Fatalf("list announcements: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Kind != "welcome" || entries[1].Station != "Augsburg Hbf" {
		t.Fatalf("unexpected order: %+v", entries)
	}
}

func TestPresetEntryWithoutRoute(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.JournalConfig{Path: filepath.Join(tmp, "journal.db"), RetentionMode: "session"}
	s, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.AppendAnnouncement(context.Background(), Entry{
		Kind:    "preset",
		Message: "Rauchverbot.",
	}); err != nil {
		t.Fatalf("preset entries must not require a route: %v", err)
	}
}

func TestPruneByDaysAndRoutes(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.JournalConfig{Path: filepath.Join(tmp, "journal.db"), RetentionMode: "persistent", RetentionDays: 1, MaxRoutes: 1}
	s, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	s.clock = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	if err := s.AppendRoute(context.Background(), "old-route", "alt", 2); err != nil {
		t.Fatalf("append route: %v", err)
	}
	if err := s.AppendAnnouncement(context.Background(), Entry{RouteID: "old-route", Kind: "welcome", Message: "hallo"}); err != nil {
		t.Fatalf("append announcement: %v", err)
	}

	s.clock = func() time.Time { return time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC) }
	if err := s.AppendRoute(context.Background(), "new-route", "neu", 2); err != nil {
		t.Fatalf("append route: %v", err)
	}
	if err := s.Prune(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}

	entries, err := s.ListRouteAnnouncements(context.Background(), "old-route", 10)
	if err != nil {
		t.Fatalf("list announcements: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected old route pruned, got %d entries", len(entries))
	}
}
