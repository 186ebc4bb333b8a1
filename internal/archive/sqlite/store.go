package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shardlog/internal/archive"
	"shardlog/internal/domain"
	"shardlog/internal/eventlog"

	_ "modernc.org/sqlite"
)

var _ archive.Archiver = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	event_id TEXT PRIMARY KEY,
	entity_id TEXT NOT NULL,
	sequence INTEGER NOT NULL,
	event_type TEXT NOT NULL,
	payload BLOB,
	recorded_at_utc_ns INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_entity_sequence ON events(entity_id, sequence);

CREATE TRIGGER IF NOT EXISTS trg_events_no_delete
BEFORE DELETE ON events
BEGIN
	SELECT RAISE(ABORT, 'archived events are append-only: DELETE forbidden');
END;
`

// Store is a single-file sqlite archive. Re-archiving an event id replaces
// the row (matching the log's duplicate-overwrite behavior); deletes are
// refused by trigger.
type Store struct {
	db *sql.DB
}

func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Archive(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		if e.EventID == "" {
			return fmt.Errorf("archive: %w", eventlog.ErrEmptyEventID)
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO events(event_id, entity_id, sequence, event_type, payload, recorded_at_utc_ns)
VALUES(?, ?, ?, ?, ?, ?)
ON CONFLICT(event_id) DO UPDATE SET
	entity_id=excluded.entity_id,
	sequence=excluded.sequence,
	event_type=excluded.event_type,
	payload=excluded.payload,
	recorded_at_utc_ns=excluded.recorded_at_utc_ns`,
			e.EventID, e.EntityID, int64(e.Sequence), e.Type, e.Payload, e.RecordedAtUTC.UnixNano())
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) LoadAll(ctx context.Context) ([]domain.Event, error) {
	return s.load(ctx, `
SELECT event_id, entity_id, sequence, event_type, payload, recorded_at_utc_ns
FROM events ORDER BY entity_id, sequence, event_id`)
}

func (s *Store) LoadEntity(ctx context.Context, entityID string) ([]domain.Event, error) {
	return s.load(ctx, `
SELECT event_id, entity_id, sequence, event_type, payload, recorded_at_utc_ns
FROM events WHERE entity_id=? ORDER BY sequence, event_id`, entityID)
}

func (s *Store) load(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		var seq, recordedNs int64
		if err := rows.Scan(&e.EventID, &e.EntityID, &seq, &e.Type, &e.Payload, &recordedNs); err != nil {
			return nil, err
		}
		e.Sequence = uint64(seq)
		e.RecordedAtUTC = time.Unix(0, recordedNs).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
