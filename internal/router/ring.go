package router

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// DefaultVirtualNodes is the ring positions each partition occupies.
// ~150 vnodes keeps per-partition load within a few percent of even.
const DefaultVirtualNodes = 150

// ringNode is one virtual position on the hash ring bound to a partition.
type ringNode struct {
	pos uint32
	id  int
}

// ConsistentStrategy places every partition at virtualNodes positions on a
// 32-bit modular ring and routes a key to the first position at or after
// hash(key), wrapping past the top. Adding a partition inserts only that
// partition's virtual nodes, so only the keys whose nearest successor
// changed move (~1/newCount of the keyspace).
type ConsistentStrategy struct {
	mu           sync.RWMutex
	virtualNodes int
	ring         []ringNode // sorted by pos, ties by id
	members      map[int]struct{}
}

func NewConsistentStrategy(partitionCount, virtualNodes int) (*ConsistentStrategy, error) {
	if partitionCount < 1 {
		return nil, fmt.Errorf("consistent strategy: partition count %d: %w", partitionCount, ErrNoPartitions)
	}
	if virtualNodes < 1 {
		virtualNodes = DefaultVirtualNodes
	}
	s := &ConsistentStrategy{virtualNodes: virtualNodes, members: make(map[int]struct{}, partitionCount)}
	for id := 0; id < partitionCount; id++ {
		s.members[id] = struct{}{}
		s.ring = append(s.ring, vnodesFor(id, virtualNodes)...)
	}
	sortRing(s.ring)
	return s, nil
}

func vnodesFor(id, count int) []ringNode {
	nodes := make([]ringNode, count)
	for i := 0; i < count; i++ {
		label := strconv.Itoa(id) + "#" + strconv.Itoa(i)
		nodes[i] = ringNode{pos: hashLabel32(label), id: id}
	}
	return nodes
}

func sortRing(ring []ringNode) {
	sort.Slice(ring, func(i, j int) bool {
		if ring[i].pos != ring[j].pos {
			return ring[i].pos < ring[j].pos
		}
		return ring[i].id < ring[j].id
	})
}

func (s *ConsistentStrategy) Name() string { return "consistent" }

func (s *ConsistentStrategy) Route(key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.ring) == 0 {
		return 0, ErrNoPartitions
	}
	h := hashKey32(key)
	i := sort.Search(len(s.ring), func(i int) bool { return s.ring[i].pos >= h })
	if i == len(s.ring) {
		i = 0 // wrap to the first node on the ring
	}
	return s.ring[i].id, nil
}

func (s *ConsistentStrategy) AddPartition(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[id]; ok {
		return fmt.Errorf("consistent strategy: add %d: %w", id, ErrPartitionExists)
	}
	s.members[id] = struct{}{}
	s.ring = append(s.ring, vnodesFor(id, s.virtualNodes)...)
	sortRing(s.ring)
	return nil
}

func (s *ConsistentStrategy) RemovePartition(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[id]; !ok {
		return fmt.Errorf("consistent strategy: remove %d: %w", id, ErrUnknownPartition)
	}
	delete(s.members, id)
	kept := s.ring[:0]
	for _, n := range s.ring {
		if n.id != id {
			kept = append(kept, n)
		}
	}
	s.ring = kept
	return nil
}

func (s *ConsistentStrategy) Partitions() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int, 0, len(s.members))
	for id := range s.members {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// RingSize reports the current virtual-node count, for introspection.
func (s *ConsistentStrategy) RingSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ring)
}
