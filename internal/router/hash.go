package router

import (
	"fmt"
	"sort"
	"sync"
)

// HashStrategy routes with hash(key) mod partition count. O(1) and
// deterministic, but any change to the partition set remaps nearly every
// key; suitable only for fixed-size deployments.
type HashStrategy struct {
	mu  sync.RWMutex
	ids []int // ascending
}

func NewHashStrategy(partitionCount int) (*HashStrategy, error) {
	if partitionCount < 1 {
		return nil, fmt.Errorf("hash strategy: partition count %d: %w", partitionCount, ErrNoPartitions)
	}
	ids := make([]int, partitionCount)
	for i := range ids {
		ids[i] = i
	}
	return &HashStrategy{ids: ids}, nil
}

func (s *HashStrategy) Name() string { return "hash" }

func (s *HashStrategy) Route(key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.ids) == 0 {
		return 0, ErrNoPartitions
	}
	return s.ids[hashKey64(key)%uint64(len(s.ids))], nil
}

func (s *HashStrategy) AddPartition(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := sort.SearchInts(s.ids, id)
	if i < len(s.ids) && s.ids[i] == id {
		return fmt.Errorf("hash strategy: add %d: %w", id, ErrPartitionExists)
	}
	s.ids = append(s.ids, 0)
	copy(s.ids[i+1:], s.ids[i:])
	s.ids[i] = id
	return nil
}

func (s *HashStrategy) RemovePartition(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := sort.SearchInts(s.ids, id)
	if i == len(s.ids) || s.ids[i] != id {
		return fmt.Errorf("hash strategy: remove %d: %w", id, ErrUnknownPartition)
	}
	s.ids = append(s.ids[:i], s.ids[i+1:]...)
	return nil
}

func (s *HashStrategy) Partitions() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]int(nil), s.ids...)
}
