package router

import "math"

// Stats summarizes how a strategy spreads a key sample over its partitions.
// Balance is 1.0 for a perfectly even spread and degrades toward 0 as the
// per-partition deviation approaches the mean.
type Stats struct {
	PerPartition map[int]int
	Mean         float64
	StdDev       float64
	Balance      float64
}

// DistributionStats routes every sample key and reports the spread.
// Partitions that received no keys still appear in PerPartition with a
// zero count so skew is visible, not hidden.
func DistributionStats(s Strategy, sampleKeys []string) (Stats, error) {
	counts := make(map[int]int)
	for _, id := range s.Partitions() {
		counts[id] = 0
	}
	if len(counts) == 0 {
		return Stats{}, ErrNoPartitions
	}
	for _, key := range sampleKeys {
		id, err := s.Route(key)
		if err != nil {
			return Stats{}, err
		}
		counts[id]++
	}

	mean := float64(len(sampleKeys)) / float64(len(counts))
	var sumSq float64
	for _, c := range counts {
		d := float64(c) - mean
		sumSq += d * d
	}
	stddev := math.Sqrt(sumSq / float64(len(counts)))

	balance := 1.0
	if mean > 0 {
		balance = 1.0 - stddev/mean
		if balance < 0 {
			balance = 0
		}
	}
	return Stats{PerPartition: counts, Mean: mean, StdDev: stddev, Balance: balance}, nil
}

// Migration reports how a key sample would move between two partition
// layouts, typically the same strategy before and after a membership
// change. ByPartition counts keys arriving at each destination.
type Migration struct {
	Total         int
	Moved         int
	MovedFraction float64
	ByPartition   map[int]int
}

// MigrationReport routes every key through both strategies and counts the
// keys whose owner changed.
func MigrationReport(before, after Strategy, keys []string) (Migration, error) {
	m := Migration{Total: len(keys), ByPartition: make(map[int]int)}
	for _, key := range keys {
		src, err := before.Route(key)
		if err != nil {
			return Migration{}, err
		}
		dst, err := after.Route(key)
		if err != nil {
			return Migration{}, err
		}
		if src != dst {
			m.Moved++
			m.ByPartition[dst]++
		}
	}
	if m.Total > 0 {
		m.MovedFraction = float64(m.Moved) / float64(m.Total)
	}
	return m, nil
}
