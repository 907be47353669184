// Package memory provides the in-memory snapshot store backing all read
// paths between rebuilds.
package memory

import (
	"sync/atomic"

	"property-analytics/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore with an atomic pointer
// swap: a rebuild assembles a complete new snapshot and publishes it in one
// step, so concurrent filtered queries run lock-free against whichever
// snapshot was current when they started.
type SnapshotStore struct {
	current atomic.Pointer[storage.Snapshot]
}

// NewSnapshotStore creates an empty snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Current returns the latest published snapshot, nil before the first one.
func (s *SnapshotStore) Current() *storage.Snapshot {
	return s.current.Load()
}

// Publish replaces the current snapshot.
func (s *SnapshotStore) Publish(snap *storage.Snapshot) {
	s.current.Store(snap)
}
