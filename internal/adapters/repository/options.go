package repository

import "github.com/okian/recordbook/internal/domain/snapshot"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithDataset seeds the store with ds.
func WithDataset(ds *Dataset) Option {
	return func(s *MemoryStore) {
		if ds != nil {
			s.pending = ds
		}
	}
}

// WithSnapshots registers precomputed snapshots.
func WithSnapshots(snaps ...*snapshot.Snapshot) Option {
	return func(s *MemoryStore) {
		for _, snap := range snaps {
			if snap != nil {
				s.snapshots[snap.Key.String()] = snap
			}
		}
	}
}
