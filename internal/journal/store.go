package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ansagelabs/ansage-core/internal/config"
	_ "modernc.org/sqlite"
)

// Entry records one played announcement.
type Entry struct {
	ID        int64
	RouteID   string
	Kind      string
	Station   string
	Message   string
	Repeat    bool
	CreatedAt time.Time
}

// Store wraps a SQLite-backed announcement journal.
type Store struct {
	db    *sql.DB
	cfg   config.JournalConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the journal according to config. In ephemeral mode no
// database is opened and every write is a no-op.
func Open(ctx context.Context, cfg config.JournalConfig, log *slog.Logger) (*Store, error) {
	if cfg.RetentionMode == "ephemeral" {
		return &Store{cfg: cfg, log: log, clock: time.Now}, nil
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log, clock: time.Now}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if cfg.VacuumOnStart {
		if err := s.vacuum(ctx); err != nil {
			log.Warn("journal vacuum failed", slog.String("error", err.Error()))
		}
	}

	if err := s.Prune(ctx); err != nil {
		log.Warn("journal prune on start failed", slog.String("error", err.Error()))
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	ddl := `
CREATE TABLE IF NOT EXISTS routes (
    route_id TEXT PRIMARY KEY,
    name TEXT,
    stations INTEGER NOT NULL,
    loaded_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS announcements (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    route_id TEXT,
    kind TEXT NOT NULL,
    station TEXT,
    message TEXT NOT NULL,
    repeat INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY(route_id) REFERENCES routes(route_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_announcements_route_created ON announcements(route_id, created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func (s *Store) vacuum(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AppendRoute ensures a row for a loaded route exists.
func (s *Store) AppendRoute(ctx context.Context, routeID, name string, stations int) error {
	if s.cfg.RetentionMode == "ephemeral" || s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO routes(route_id, name, stations, loaded_at)
		 VALUES(?, ?, ?, ?)
		 ON CONFLICT(route_id) DO UPDATE SET name=excluded.name, stations=excluded.stations`,
		routeID, name, stations, s.clock().UTC())
	return err
}

// AppendAnnouncement writes a played announcement into the journal.
func (s *Store) AppendAnnouncement(ctx context.Context, e Entry) error {
	if s.cfg.RetentionMode == "ephemeral" || s.db == nil {
		return nil
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO announcements(route_id, kind, station, message, repeat, created_at)
		 VALUES(?, ?, ?, ?, ?, ?)`,
		nullable(e.RouteID), e.Kind, e.Station, e.Message, e.Repeat, e.CreatedAt)
	return err
}

// ListRouteAnnouncements retrieves up to limit entries for a route ordered
// ascending by time.
func (s *Store) ListRouteAnnouncements(ctx context.Context, routeID string, limit int) ([]Entry, error) {
	if s.cfg.RetentionMode == "ephemeral" || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, route_id, kind, station, message, repeat, created_at
		 FROM announcements WHERE route_id = ? ORDER BY created_at ASC, id ASC LIMIT ?`, routeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var routeID sql.NullString
		var created string
		if err := rows.Scan(&e.ID, &routeID, &e.Kind, &e.Station, &e.Message, &e.Repeat, &created); err != nil {
			return nil, err
		}
		e.RouteID = routeID.String
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.CreatedAt = ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune applies configured retention (called on startup).
func (s *Store) Prune(ctx context.Context) error {
	if s.cfg.RetentionMode == "ephemeral" || s.db == nil {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if s.cfg.RetentionDays > 0 {
		cutoff := s.clock().Add(-time.Duration(s.cfg.RetentionDays) * 24 * time.Hour)
		if _, err = tx.ExecContext(ctx, `DELETE FROM announcements WHERE created_at < ?`, cutoff.UTC()); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM routes WHERE loaded_at < ?`, cutoff.UTC()); err != nil {
			return err
		}
	}
	if s.cfg.MaxRoutes > 0 {
		_, err = tx.ExecContext(ctx, `DELETE FROM routes WHERE route_id IN (
			SELECT route_id FROM routes ORDER BY loaded_at DESC LIMIT -1 OFFSET ?
		)`, s.cfg.MaxRoutes)
		if err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

// Ensure checks invariants of the ephemeral mode.
func (s *Store) Ensure() error {
	if s.cfg.RetentionMode == "ephemeral" && s.db != nil {
		return errors.New("ephemeral journal should not have database connection")
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
