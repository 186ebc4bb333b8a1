package router

import (
	"errors"
	"hash/fnv"
	"strings"
)

var (
	// ErrNoPartitions is returned when routing against an empty partition set.
	// Routing never falls back to an arbitrary partition.
	ErrNoPartitions = errors.New("router: no partitions configured")

	// ErrUnknownPartition is returned by mutations naming an absent partition.
	ErrUnknownPartition = errors.New("router: unknown partition")

	// ErrPartitionExists is returned when adding an id already in the set.
	ErrPartitionExists = errors.New("router: partition already present")
)

// Strategy maps a routing key to one partition id. Implementations are safe
// for many concurrent Route calls; AddPartition/RemovePartition take the
// write side of the same lock so a route never observes a half-recomputed
// partition set.
type Strategy interface {
	// Route is a pure function of (key, current partition set).
	Route(key string) (int, error)
	AddPartition(id int) error
	RemovePartition(id int) error
	// Partitions returns the member ids in ascending order.
	Partitions() []int
	Name() string
}

// CanonicalizeKey normalizes routing keys before hashing so that callers
// sending "Order-45" and " order-45 " land on the same partition.
func CanonicalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func hashKey64(key string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(CanonicalizeKey(key)))
	return h.Sum64()
}

// hashKey32 places keys on the 32-bit ring / range domain.
func hashKey32(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(CanonicalizeKey(key)))
	return h.Sum32()
}

func hashLabel32(label string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(label))
	return h.Sum32()
}
