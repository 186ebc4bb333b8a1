// Package eventlog layers an append-only event log over the partitioned
// store. Events route by their unique event id so write load spreads across
// partitions instead of hotspotting one partition per entity; entity reads
// are a filtered scan over every partition.
package eventlog

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"shardlog/internal/domain"
	"shardlog/internal/store"
)

var (
	ErrEmptyEventID  = errors.New("eventlog: empty event id")
	ErrEmptyEntityID = errors.New("eventlog: empty entity id")
)

// Log is an append-only event log. Construct one per engine instance and
// pass it to producers and consumers explicitly; there is no package-level
// instance.
type Log struct {
	store *store.Store[domain.Event]
}

func New(st *store.Store[domain.Event]) *Log {
	return &Log{store: st}
}

// NewEvent builds an event with a fresh unique id and a UTC receipt time.
// Sequence is the producer's monotonic ordering token within the entity.
func NewEvent(entityID, eventType string, sequence uint64, payload []byte) domain.Event {
	return domain.Event{
		EventID:       uuid.NewString(),
		EntityID:      entityID,
		Sequence:      sequence,
		Type:          eventType,
		Payload:       payload,
		RecordedAtUTC: time.Now().UTC(),
	}
}

// Append routes by event id and writes the event to its partition.
// Appending two events with the same id overwrites the first; the log
// performs no duplicate detection. Known gap, kept as documented behavior.
func (l *Log) Append(e domain.Event) error {
	if e.EventID == "" {
		return ErrEmptyEventID
	}
	if e.EntityID == "" {
		return ErrEmptyEntityID
	}
	if err := l.store.Insert(e.EventID, e); err != nil {
		return fmt.Errorf("append %s: %w", e.EventID, err)
	}
	return nil
}

// Get fetches one event by id; absence is not an error.
func (l *Log) Get(eventID string) (domain.Event, bool, error) {
	return l.store.Get(eventID)
}

// AllEvents scans every partition; the returned order is unspecified.
func (l *Log) AllEvents() []domain.Event {
	return l.store.QueryAll()
}

// EventsFor returns the events belonging to one entity, in no particular
// order; callers sort (see SortBySequence) before replaying. An unknown
// entity yields an empty slice.
func (l *Log) EventsFor(entityID string) []domain.Event {
	var out []domain.Event
	for _, e := range l.AllEvents() {
		if e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out
}

func (l *Log) Count() int { return l.store.Len() }

func (l *Log) HasEventsFor(entityID string) bool {
	for _, e := range l.AllEvents() {
		if e.EntityID == entityID {
			return true
		}
	}
	return false
}

// PurgeEntity removes every event of one entity and reports how many were
// deleted. Administrative operation, not part of the hot path.
func (l *Log) PurgeEntity(entityID string) (int, error) {
	purged := 0
	for _, e := range l.EventsFor(entityID) {
		ok, err := l.store.Delete(e.EventID)
		if err != nil {
			return purged, fmt.Errorf("purge %s: %w", e.EventID, err)
		}
		if ok {
			purged++
		}
	}
	return purged, nil
}

// SortBySequence orders events chronologically in place. Ties break on
// receipt time, then event id, so the order is total and stable.
func SortBySequence(events []domain.Event) {
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Sequence != b.Sequence {
			return a.Sequence < b.Sequence
		}
		if !a.RecordedAtUTC.Equal(b.RecordedAtUTC) {
			return a.RecordedAtUTC.Before(b.RecordedAtUTC)
		}
		return a.EventID < b.EventID
	})
}
