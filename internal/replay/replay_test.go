package replay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"shardlog/internal/domain"
	"shardlog/internal/eventlog"
	"shardlog/internal/router"
	"shardlog/internal/store"
)

// provisionState is the folded view of a provisioning saga. The transition
// dispatches on the event type tag; unknown types are ignored explicitly.
type provisionState struct {
	Requested bool
	Port      int
	Validated bool
	Delivered bool
}

type portPayload struct {
	Port int `json:"port"`
}

func applyProvision(s provisionState, e domain.Event) provisionState {
	switch e.Type {
	case "requested":
		s.Requested = true
	case "calculated":
		var p portPayload
		if err := json.Unmarshal(e.Payload, &p); err == nil {
			s.Port = p.Port
		}
	case "validated":
		s.Validated = true
	case "delivered":
		s.Delivered = true
	default:
		// unknown event types leave state untouched
	}
	return s
}

func TestReplayEqualsManualFold(t *testing.T) {
	events := []domain.Event{
		{EventID: "e1", EntityID: "agg-1", Sequence: 1, Type: "requested"},
		{EventID: "e2", EntityID: "agg-1", Sequence: 2, Type: "calculated", Payload: []byte(`{"port":8080}`)},
		{EventID: "e3", EntityID: "agg-1", Sequence: 3, Type: "validated"},
	}

	want := applyProvision(applyProvision(applyProvision(provisionState{}, events[0]), events[1]), events[2])
	got := Replay(provisionState{}, events, applyProvision)
	require.Equal(t, want, got)

	// Repeated replays of the same sequence are byte-for-byte identical.
	for i := 0; i < 10; i++ {
		require.Equal(t, got, Replay(provisionState{}, events, applyProvision))
	}
}

func TestReplayEmptySequenceReturnsInitial(t *testing.T) {
	initial := provisionState{Requested: true, Port: 99}
	got := Replay(initial, nil, applyProvision)
	require.Equal(t, initial, got)
}

func TestReplayAppliesInOrder(t *testing.T) {
	type trace []string
	events := []domain.Event{
		{EventID: "a", Type: "first"},
		{EventID: "b", Type: "second"},
		{EventID: "c", Type: "third"},
	}
	got := Replay(trace{}, events, func(s trace, e domain.Event) trace {
		return append(s, e.Type)
	})
	require.Equal(t, trace{"first", "second", "third"}, got)
}

func TestReplayIsGenericAcrossStateTypes(t *testing.T) {
	events := []domain.Event{{Type: "x"}, {Type: "y"}, {Type: "z"}}
	count := Replay(0, events, func(n int, _ domain.Event) int { return n + 1 })
	require.Equal(t, 3, count)
}

// Full saga: append out of order, read back, sort, fold.
func TestFullSagaReplayFromLog(t *testing.T) {
	strategy, err := router.NewConsistentStrategy(8, 50)
	require.NoError(t, err)
	st, err := store.New[domain.Event](strategy, nil)
	require.NoError(t, err)
	log := eventlog.New(st)

	saga := []domain.Event{
		{EventID: "s4", EntityID: "agg-1", Sequence: 4, Type: "delivered", Payload: []byte(`{"port":8080}`)},
		{EventID: "s1", EntityID: "agg-1", Sequence: 1, Type: "requested"},
		{EventID: "s3", EntityID: "agg-1", Sequence: 3, Type: "validated", Payload: []byte(`{"ok":true}`)},
		{EventID: "s2", EntityID: "agg-1", Sequence: 2, Type: "calculated", Payload: []byte(`{"port":8080}`)},
	}
	for _, e := range saga {
		require.NoError(t, log.Append(e))
	}
	// Unrelated entity must not leak into the fold.
	require.NoError(t, log.Append(domain.Event{EventID: "x1", EntityID: "agg-2", Sequence: 1, Type: "requested"}))

	events := log.EventsFor("agg-1")
	require.Len(t, events, 4)
	eventlog.SortBySequence(events)

	got := Replay(provisionState{}, events, applyProvision)
	require.Equal(t, provisionState{Requested: true, Port: 8080, Validated: true, Delivered: true}, got)
}

func TestReplayUnknownEntityYieldsInitialState(t *testing.T) {
	strategy, err := router.NewHashStrategy(4)
	require.NoError(t, err)
	st, err := store.New[domain.Event](strategy, nil)
	require.NoError(t, err)
	log := eventlog.New(st)

	events := log.EventsFor("unknown")
	require.Empty(t, events)
	require.Equal(t, provisionState{}, Replay(provisionState{}, events, applyProvision))
}
