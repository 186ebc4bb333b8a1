package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shardlog/internal/archive"
	"shardlog/internal/domain"
	"shardlog/internal/eventlog"
	"shardlog/internal/router"
	"shardlog/internal/store"
)

func newTestArchive(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "shardlog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testEvent(id, entity string, seq uint64, typ string) domain.Event {
	return domain.Event{
		EventID:       id,
		EntityID:      entity,
		Sequence:      seq,
		Type:          typ,
		Payload:       []byte(`{}`),
		RecordedAtUTC: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(seq) * time.Second),
	}
}

func TestArchiveAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestArchive(t)

	in := []domain.Event{
		testEvent("e2", "agg-1", 2, "calculated"),
		testEvent("e1", "agg-1", 1, "requested"),
		testEvent("x1", "agg-2", 1, "requested"),
	}
	if err := s.Archive(ctx, in); err != nil {
		t.Fatal(err)
	}

	all, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("loaded %d events, want 3", len(all))
	}

	entity, err := s.LoadEntity(ctx, "agg-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entity) != 2 {
		t.Fatalf("loaded %d events for agg-1, want 2", len(entity))
	}
	if entity[0].EventID != "e1" || entity[1].EventID != "e2" {
		t.Fatalf("entity load not sequence-ordered: %s, %s", entity[0].EventID, entity[1].EventID)
	}
	if entity[0].Type != "requested" || string(entity[0].Payload) != `{}` {
		t.Fatalf("round trip mangled event: %+v", entity[0])
	}
	if !entity[0].RecordedAtUTC.Equal(testEvent("e1", "agg-1", 1, "requested").RecordedAtUTC) {
		t.Fatalf("timestamp mangled: %v", entity[0].RecordedAtUTC)
	}
}

func TestReArchiveSameIDOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestArchive(t)

	if err := s.Archive(ctx, []domain.Event{testEvent("e1", "agg-1", 1, "requested")}); err != nil {
		t.Fatal(err)
	}
	if err := s.Archive(ctx, []domain.Event{testEvent("e1", "agg-1", 1, "validated")}); err != nil {
		t.Fatal(err)
	}

	all, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("duplicate id produced %d rows", len(all))
	}
	if all[0].Type != "validated" {
		t.Fatalf("kept %q, want the later write", all[0].Type)
	}
}

func TestDeleteIsForbiddenByTrigger(t *testing.T) {
	ctx := context.Background()
	s := newTestArchive(t)

	if err := s.Archive(ctx, []domain.Event{testEvent("e1", "agg-1", 1, "requested")}); err != nil {
		t.Fatal(err)
	}
	_, err := s.db.Exec(`DELETE FROM events WHERE event_id='e1'`)
	if err == nil || !strings.Contains(err.Error(), "append-only") {
		t.Fatalf("expected append-only delete error, got %v", err)
	}
}

func TestArchiveRejectsEmptyEventID(t *testing.T) {
	ctx := context.Background()
	s := newTestArchive(t)

	err := s.Archive(ctx, []domain.Event{{EntityID: "agg-1"}})
	if err == nil {
		t.Fatalf("expected error for empty event id")
	}
}

func TestRestoreThroughArchiverContract(t *testing.T) {
	ctx := context.Background()
	var arc archive.Archiver = newTestArchive(t)

	saga := []domain.Event{
		testEvent("s1", "agg-1", 1, "requested"),
		testEvent("s2", "agg-1", 2, "calculated"),
		testEvent("x1", "agg-2", 1, "requested"),
	}
	if err := arc.Archive(ctx, saga); err != nil {
		t.Fatal(err)
	}

	strategy, err := router.NewConsistentStrategy(8, 50)
	if err != nil {
		t.Fatal(err)
	}
	st, err := store.New[domain.Event](strategy, nil)
	if err != nil {
		t.Fatal(err)
	}
	log := eventlog.New(st)

	restored, err := archive.Restore(ctx, arc, log)
	if err != nil {
		t.Fatal(err)
	}
	if restored != 3 {
		t.Fatalf("restored %d events, want 3", restored)
	}
	if got := len(log.EventsFor("agg-1")); got != 2 {
		t.Fatalf("agg-1 has %d events after restore, want 2", got)
	}
}
