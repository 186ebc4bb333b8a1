// Package archive defines the durable event journal used by the service
// wrapping the in-process engine. The engine itself never touches disk;
// persistence is the wrapper's concern.
package archive

import (
	"context"
	"fmt"

	"shardlog/internal/domain"
	"shardlog/internal/eventlog"
)

// Archiver is the contract for durable event persistence. Records are
// append-only at this layer: deletion is refused, re-archiving an event id
// overwrites it (mirroring the log's duplicate semantics).
type Archiver interface {
	Archive(ctx context.Context, events []domain.Event) error
	LoadAll(ctx context.Context) ([]domain.Event, error)
	// LoadEntity returns one entity's events ordered by sequence.
	LoadEntity(ctx context.Context, entityID string) ([]domain.Event, error)
	Close() error
}

// Restore replays the whole archive into a freshly built log and reports
// how many events were appended. Meant for startup of the wrapping service.
func Restore(ctx context.Context, a Archiver, log *eventlog.Log) (int, error) {
	events, err := a.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	for i, e := range events {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := log.Append(e); err != nil {
			return i, fmt.Errorf("restore %s: %w", e.EventID, err)
		}
	}
	return len(events), nil
}
