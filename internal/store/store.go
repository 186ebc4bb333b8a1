// Package store implements an in-process partitioned key-value container.
// Each partition guards its own map with its own lock, so operations on
// different partitions never contend; the router decides which partition a
// key lives in.
package store

import (
	"errors"
	"fmt"
	"sync"

	"shardlog/internal/domain"
	"shardlog/internal/router"
)

// ErrPartitionInvariant marks a strategy returning an index outside
// [0, partitionCount). That is a logic bug, never retried or clamped.
var ErrPartitionInvariant = errors.New("store: partition index out of range")

type partition[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

// Store owns a fixed set of partitions and delegates partition selection to
// a routing strategy. The partition count is pinned at construction; the
// strategy's ids must be exactly 0..N-1 so indexes double as slot numbers.
type Store[V any] struct {
	strategy router.Strategy
	recorder domain.OpRecorder
	parts    []*partition[V]
}

func New[V any](strategy router.Strategy, recorder domain.OpRecorder) (*Store[V], error) {
	ids := strategy.Partitions()
	if len(ids) == 0 {
		return nil, router.ErrNoPartitions
	}
	for i, id := range ids {
		if id != i {
			return nil, fmt.Errorf("store: strategy partitions %v are not dense [0, %d)", ids, len(ids))
		}
	}
	if recorder == nil {
		recorder = domain.NopRecorder{}
	}
	parts := make([]*partition[V], len(ids))
	for i := range parts {
		parts[i] = &partition[V]{items: make(map[string]V)}
	}
	return &Store[V]{strategy: strategy, recorder: recorder, parts: parts}, nil
}

func (s *Store[V]) locate(key string) (*partition[V], int, error) {
	idx, err := s.strategy.Route(key)
	if err != nil {
		return nil, 0, err
	}
	if idx < 0 || idx >= len(s.parts) {
		return nil, 0, fmt.Errorf("%w: %s returned %d for %d partitions", ErrPartitionInvariant, s.strategy.Name(), idx, len(s.parts))
	}
	return s.parts[idx], idx, nil
}

// Insert stores the value under key, overwriting any existing value.
func (s *Store[V]) Insert(key string, value V) error {
	p, idx, err := s.locate(key)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.items[key] = value
	p.mu.Unlock()
	s.recorder.RecordOp("insert", idx)
	return nil
}

// Get reports the value for key; absence is not an error.
func (s *Store[V]) Get(key string) (V, bool, error) {
	var zero V
	p, idx, err := s.locate(key)
	if err != nil {
		return zero, false, err
	}
	p.mu.RLock()
	value, ok := p.items[key]
	p.mu.RUnlock()
	s.recorder.RecordOp("get", idx)
	return value, ok, nil
}

// Delete removes key and reports whether it was present.
func (s *Store[V]) Delete(key string) (bool, error) {
	p, idx, err := s.locate(key)
	if err != nil {
		return false, err
	}
	p.mu.Lock()
	_, ok := p.items[key]
	delete(p.items, key)
	p.mu.Unlock()
	s.recorder.RecordOp("delete", idx)
	return ok, nil
}

// QueryAll returns every value across all partitions in no particular
// order. Each partition is snapshotted under its own read lock; there is no
// cross-partition atomicity, so appends concurrent with the scan may or may
// not be observed. This full scan is the only cross-partition operation and
// costs O(total size); no secondary index exists, a deliberate tradeoff.
func (s *Store[V]) QueryAll() []V {
	var out []V
	for idx, p := range s.parts {
		p.mu.RLock()
		for _, v := range p.items {
			out = append(out, v)
		}
		p.mu.RUnlock()
		s.recorder.RecordOp("scan", idx)
	}
	return out
}

// Len reports total entries across all partitions.
func (s *Store[V]) Len() int {
	n := 0
	for _, p := range s.parts {
		p.mu.RLock()
		n += len(p.items)
		p.mu.RUnlock()
	}
	return n
}

func (s *Store[V]) PartitionCount() int { return len(s.parts) }

// PartitionLen reports entries in one partition, for distribution checks.
func (s *Store[V]) PartitionLen(idx int) (int, error) {
	if idx < 0 || idx >= len(s.parts) {
		return 0, fmt.Errorf("%w: %d of %d", ErrPartitionInvariant, idx, len(s.parts))
	}
	p := s.parts[idx]
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.items), nil
}
