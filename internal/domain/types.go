package domain

import "time"

// Event is the append-only unit stored by shardlog. Once appended no field
// mutates; producers create a new Event for every fact.
//
// Identity split:
//   - EventID: unique per event, routing key (spreads write load evenly)
//   - EntityID: groups events for replay
//   - Sequence: producer-facing monotonic ordering token within an entity
type Event struct {
	EventID       string
	EntityID      string
	Sequence      uint64
	Type          string
	Payload       []byte
	RecordedAtUTC time.Time
}

// OpRecorder is the narrow "record event" hook the store invokes per
// operation. Exporters live outside this engine (metrics, tracing, tests).
type OpRecorder interface {
	RecordOp(op string, partition int)
}

// NopRecorder discards every observation.
type NopRecorder struct{}

func (NopRecorder) RecordOp(string, int) {}
