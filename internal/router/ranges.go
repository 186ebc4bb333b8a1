package router

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Range is a contiguous inclusive interval of the hashed key domain owned
// by exactly one partition.
type Range struct {
	Start     uint32
	End       uint32
	Partition int
}

// RangeStrategy divides a contiguous key domain into per-partition
// intervals. Computed layouts are near-equal (sizes differ by at most one,
// remainder slots going to the lowest partition ids); custom layouts are
// validated for overlap, gaps and out-of-domain bounds at construction.
// Any partition-set mutation recomputes an equal split, discarding a custom
// layout.
type RangeStrategy struct {
	mu       sync.RWMutex
	domainLo uint32
	domainHi uint32
	ranges   []Range // sorted by Start; exact cover of [domainLo, domainHi]
}

func NewRangeStrategy(partitionCount int) (*RangeStrategy, error) {
	return NewRangeStrategyWithDomain(partitionCount, 0, math.MaxUint32)
}

func NewRangeStrategyWithDomain(partitionCount int, domainLo, domainHi uint32) (*RangeStrategy, error) {
	if partitionCount < 1 {
		return nil, fmt.Errorf("range strategy: partition count %d: %w", partitionCount, ErrNoPartitions)
	}
	if domainLo > domainHi {
		return nil, fmt.Errorf("range strategy: inverted domain [%d, %d]", domainLo, domainHi)
	}
	if size := domainSize(domainLo, domainHi); uint64(partitionCount) > size {
		return nil, fmt.Errorf("range strategy: %d partitions exceed domain of size %d", partitionCount, size)
	}
	ids := make([]int, partitionCount)
	for i := range ids {
		ids[i] = i
	}
	return &RangeStrategy{domainLo: domainLo, domainHi: domainHi, ranges: splitDomain(ids, domainLo, domainHi)}, nil
}

// NewCustomRangeStrategy builds a range strategy from an explicit layout.
// The ranges must lie inside [domainLo, domainHi], never intersect, and
// cover the domain with no gaps; each partition id owns exactly one range.
func NewCustomRangeStrategy(domainLo, domainHi uint32, ranges []Range) (*RangeStrategy, error) {
	if len(ranges) == 0 {
		return nil, fmt.Errorf("range strategy: empty layout: %w", ErrNoPartitions)
	}
	if domainLo > domainHi {
		return nil, fmt.Errorf("range strategy: inverted domain [%d, %d]", domainLo, domainHi)
	}
	layout := append([]Range(nil), ranges...)
	sort.Slice(layout, func(i, j int) bool { return layout[i].Start < layout[j].Start })

	seen := make(map[int]struct{}, len(layout))
	for i, r := range layout {
		if r.Start > r.End {
			return nil, fmt.Errorf("range strategy: inverted range [%d, %d] for partition %d", r.Start, r.End, r.Partition)
		}
		if r.Start < domainLo || r.End > domainHi {
			return nil, fmt.Errorf("range strategy: range [%d, %d] outside domain [%d, %d]", r.Start, r.End, domainLo, domainHi)
		}
		if _, dup := seen[r.Partition]; dup {
			return nil, fmt.Errorf("range strategy: partition %d owns more than one range", r.Partition)
		}
		seen[r.Partition] = struct{}{}
		if i == 0 {
			continue
		}
		prev := layout[i-1]
		if r.Start <= prev.End {
			return nil, fmt.Errorf("range strategy: ranges [%d, %d] and [%d, %d] overlap", prev.Start, prev.End, r.Start, r.End)
		}
		if r.Start != prev.End+1 {
			return nil, fmt.Errorf("range strategy: gap between %d and %d leaves keys unroutable", prev.End, r.Start)
		}
	}
	if layout[0].Start != domainLo || layout[len(layout)-1].End != domainHi {
		return nil, fmt.Errorf("range strategy: layout covers [%d, %d], want [%d, %d]", layout[0].Start, layout[len(layout)-1].End, domainLo, domainHi)
	}
	return &RangeStrategy{domainLo: domainLo, domainHi: domainHi, ranges: layout}, nil
}

func domainSize(lo, hi uint32) uint64 {
	return uint64(hi) - uint64(lo) + 1
}

// splitDomain assigns near-equal contiguous slices to ids in ascending
// order; the first size%count ids absorb the remainder.
func splitDomain(ids []int, lo, hi uint32) []Range {
	sort.Ints(ids)
	size := domainSize(lo, hi)
	width := size / uint64(len(ids))
	rem := size % uint64(len(ids))

	out := make([]Range, 0, len(ids))
	next := uint64(lo)
	for i, id := range ids {
		w := width
		if uint64(i) < rem {
			w++
		}
		out = append(out, Range{Start: uint32(next), End: uint32(next + w - 1), Partition: id})
		next += w
	}
	return out
}

func (s *RangeStrategy) Name() string { return "range" }

func (s *RangeStrategy) Route(key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.ranges) == 0 {
		return 0, ErrNoPartitions
	}
	pos := s.position(hashKey32(key))
	i := sort.Search(len(s.ranges), func(i int) bool { return s.ranges[i].End >= pos })
	if i == len(s.ranges) || s.ranges[i].Start > pos {
		return 0, fmt.Errorf("range strategy: position %d uncovered in domain [%d, %d]", pos, s.domainLo, s.domainHi)
	}
	return s.ranges[i].Partition, nil
}

// position folds a 32-bit key hash into the configured domain.
func (s *RangeStrategy) position(h uint32) uint32 {
	if s.domainLo == 0 && s.domainHi == math.MaxUint32 {
		return h
	}
	return s.domainLo + uint32(uint64(h)%domainSize(s.domainLo, s.domainHi))
}

// RangeOf reports the interval currently owned by a partition.
func (s *RangeStrategy) RangeOf(id int) (Range, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.ranges {
		if r.Partition == id {
			return r, true
		}
	}
	return Range{}, false
}

// Ranges returns the current layout sorted by start position.
func (s *RangeStrategy) Ranges() []Range {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Range(nil), s.ranges...)
}

func (s *RangeStrategy) AddPartition(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.memberIDs()
	for _, existing := range ids {
		if existing == id {
			return fmt.Errorf("range strategy: add %d: %w", id, ErrPartitionExists)
		}
	}
	ids = append(ids, id)
	if size := domainSize(s.domainLo, s.domainHi); uint64(len(ids)) > size {
		return fmt.Errorf("range strategy: %d partitions exceed domain of size %d", len(ids), size)
	}
	s.ranges = splitDomain(ids, s.domainLo, s.domainHi)
	return nil
}

func (s *RangeStrategy) RemovePartition(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.memberIDs()
	kept := ids[:0]
	found := false
	for _, existing := range ids {
		if existing == id {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	if !found {
		return fmt.Errorf("range strategy: remove %d: %w", id, ErrUnknownPartition)
	}
	if len(kept) == 0 {
		s.ranges = nil
		return nil
	}
	s.ranges = splitDomain(kept, s.domainLo, s.domainHi)
	return nil
}

func (s *RangeStrategy) Partitions() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.memberIDs()
	sort.Ints(ids)
	return ids
}

func (s *RangeStrategy) memberIDs() []int {
	ids := make([]int, 0, len(s.ranges))
	for _, r := range s.ranges {
		ids = append(ids, r.Partition)
	}
	return ids
}
