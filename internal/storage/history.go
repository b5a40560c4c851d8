package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jwebster45206/heartbeat-engine/pkg/world"
	_ "modernc.org/sqlite"
)

// SQLiteHistory keeps append-only records of owned objects and world events.
type SQLiteHistory struct {
	db *sql.DB
}

const historySchema = `
CREATE TABLE IF NOT EXISTS objects (
	id TEXT PRIMARY KEY,
	sandbox_id TEXT NOT NULL,
	owner_id TEXT NOT NULL,
	owner_type TEXT NOT NULL,
	name TEXT NOT NULL,
	type TEXT,
	description TEXT,
	purchase_price INTEGER NOT NULL,
	acquired_on TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_objects_owner ON objects(owner_id);

CREATE TABLE IF NOT EXISTS world_events (
	id TEXT PRIMARY KEY,
	character_id TEXT NOT NULL,
	user_id TEXT,
	category TEXT NOT NULL,
	event_date TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	location_name TEXT,
	latitude REAL,
	longitude REAL,
	participant_ids TEXT NOT NULL,
	participant_names TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_world_events_character ON world_events(character_id);
`

// OpenSQLiteHistory opens (creating if needed) the history database at path.
// ":memory:" gives a throwaway database.
func OpenSQLiteHistory(path string) (*SQLiteHistory, error) {
	if path == "" {
		return nil, fmt.Errorf("empty history db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, p := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA synchronous=NORMAL;", "PRAGMA busy_timeout=5000;"} {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.Exec(historySchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init history schema: %w", err)
	}
	return &SQLiteHistory{db: db}, nil
}

func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}

func (h *SQLiteHistory) CreateObject(ctx context.Context, obj *world.Object) error {
	if obj.ID == "" {
		obj.ID = uuid.New().String()
	}
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO objects (id, sandbox_id, owner_id, owner_type, name, type, description, purchase_price, acquired_on)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		obj.ID, obj.SandboxID, obj.OwnerID, obj.OwnerType, obj.Name, obj.Type, obj.Description,
		obj.PurchasePrice, obj.AcquiredOn.Short())
	if err != nil {
		return fmt.Errorf("failed to create object: %w", err)
	}
	return nil
}

func (h *SQLiteHistory) CreateWorldEvent(ctx context.Context, ev *world.Event) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	ids, err := json.Marshal(ev.ParticipantIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal participant ids: %w", err)
	}
	names, err := json.Marshal(ev.ParticipantNames)
	if err != nil {
		return fmt.Errorf("failed to marshal participant names: %w", err)
	}
	_, err = h.db.ExecContext(ctx,
		`INSERT INTO world_events (id, character_id, user_id, category, event_date, title, description,
		 location_name, latitude, longitude, participant_ids, participant_names)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.CharacterID, ev.UserID, ev.Category, ev.Date.Short(), ev.Title, ev.Description,
		ev.LocationName, nullFloat(ev.Latitude), nullFloat(ev.Longitude), string(ids), string(names))
	if err != nil {
		return fmt.Errorf("failed to create world event: %w", err)
	}
	return nil
}

// ObjectsOwnedBy lists objects owned by a being, oldest first.
func (h *SQLiteHistory) ObjectsOwnedBy(ctx context.Context, ownerID string) ([]world.Object, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, sandbox_id, owner_id, owner_type, name, COALESCE(type, ''), COALESCE(description, ''), purchase_price
		 FROM objects WHERE owner_id = ? ORDER BY rowid`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query objects: %w", err)
	}
	defer rows.Close()

	var out []world.Object
	for rows.Next() {
		var o world.Object
		if err := rows.Scan(&o.ID, &o.SandboxID, &o.OwnerID, &o.OwnerType, &o.Name, &o.Type, &o.Description, &o.PurchasePrice); err != nil {
			return nil, fmt.Errorf("failed to scan object: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// EventsFor lists world events recorded for a character, oldest first.
func (h *SQLiteHistory) EventsFor(ctx context.Context, characterID string) ([]world.Event, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, character_id, category, title, COALESCE(location_name, ''), participant_ids, participant_names
		 FROM world_events WHERE character_id = ? ORDER BY rowid`, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query world events: %w", err)
	}
	defer rows.Close()

	var out []world.Event
	for rows.Next() {
		var e world.Event
		var ids, names string
		if err := rows.Scan(&e.ID, &e.CharacterID, &e.Category, &e.Title, &e.LocationName, &ids, &names); err != nil {
			return nil, fmt.Errorf("failed to scan world event: %w", err)
		}
		if err := json.Unmarshal([]byte(ids), &e.ParticipantIDs); err != nil {
			return nil, fmt.Errorf("failed to decode participant ids: %w", err)
		}
		if err := json.Unmarshal([]byte(names), &e.ParticipantNames); err != nil {
			return nil, fmt.Errorf("failed to decode participant names: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
