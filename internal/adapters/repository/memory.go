package repository

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/okian/recordbook/internal/domain/model"
	"github.com/okian/recordbook/internal/domain/snapshot"
	"github.com/okian/recordbook/pkg/metrics"
)

// MemoryStore serves every collaborator interface from memory. Reads are
// safe for concurrent use; the dataset is never mutated after load.
type MemoryStore struct {
	mu        sync.RWMutex
	pending   *Dataset
	players   map[string]model.Entity
	matches   []model.MatchEvent
	rankings  []model.RankingEvent
	snapshots map[string]*snapshot.Snapshot
}

// Stats summarizes the loaded dataset.
type Stats struct {
	Players   int `json:"players"`
	Matches   int `json:"matches"`
	Rankings  int `json:"rankings"`
	Snapshots int `json:"snapshots"`
}

// NewMemoryStore constructs a store with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		players:   make(map[string]model.Entity),
		snapshots: make(map[string]*snapshot.Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pending != nil {
		s.Replace(s.pending)
		s.pending = nil
	}
	return s
}

// OpenMemoryStore loads the dataset at path.
func OpenMemoryStore(path string, opts ...Option) (*MemoryStore, error) {
	ds, err := LoadDataset(path)
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(append([]Option{WithDataset(ds)}, opts...)...), nil
}

// Replace swaps in a new dataset. Matches are sorted chronologically and
// rankings by date then rank.
func (s *MemoryStore) Replace(ds *Dataset) {
	players := make(map[string]model.Entity, len(ds.Players))
	for _, p := range ds.Players {
		players[p.ID] = p
	}
	matches := slices.Clone(ds.Matches)
	slices.SortStableFunc(matches, func(a, b model.MatchEvent) int {
		switch {
		case a.Before(&b):
			return -1
		case b.Before(&a):
			return 1
		}
		return 0
	})
	rankings := slices.Clone(ds.Rankings)
	slices.SortStableFunc(rankings, func(a, b model.RankingEvent) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.Rank - b.Rank
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.players = players
	s.matches = matches
	s.rankings = rankings
	for _, snap := range ds.Snapshots {
		s.snapshots[snap.Key.String()] = snap
	}
}

// PutSnapshot registers or replaces a snapshot.
func (s *MemoryStore) PutSnapshot(snap *snapshot.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.Key.String()] = snap
}

// Dataset exports the current contents.
func (s *MemoryStore) Dataset() *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds := &Dataset{
		Matches:  slices.Clone(s.matches),
		Rankings: slices.Clone(s.rankings),
	}
	for _, p := range s.players {
		ds.Players = append(ds.Players, p)
	}
	slices.SortFunc(ds.Players, func(a, b model.Entity) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	for _, snap := range s.snapshots {
		ds.Snapshots = append(ds.Snapshots, snap)
	}
	slices.SortFunc(ds.Snapshots, func(a, b *snapshot.Snapshot) int {
		switch ka, kb := a.Key.String(), b.Key.String(); {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
		return 0
	})
	return ds
}

// Stats returns the dataset size.
func (s *MemoryStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Players:   len(s.players),
		Matches:   len(s.matches),
		Rankings:  len(s.rankings),
		Snapshots: len(s.snapshots),
	}
}

// DatasetStats implements DatasetReporter.
func (s *MemoryStore) DatasetStats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	return s.Stats(), nil
}

// Matches implements MatchSource.
func (s *MemoryStore) Matches(ctx context.Context, q MatchQuery) iter.Seq2[model.MatchEvent, error] {
	return func(yield func(model.MatchEvent, error) bool) {
		start := time.Now()
		defer func() { metrics.RecordCollaboratorRead("memory", "matches", time.Since(start)) }()

		s.mu.RLock()
		matches := s.matches
		s.mu.RUnlock()

		for i := range matches {
			if i%1024 == 0 {
				if err := ctx.Err(); err != nil {
					yield(model.MatchEvent{}, err)
					return
				}
			}
			m := matches[i]
			if !q.Filter.AllowsMatch(&m) {
				continue
			}
			if q.Role != RoleAny && !q.Filter.AllowsPerspective(&m, q.Role.Side()) {
				continue
			}
			if !q.Fields.Has(FieldStats) {
				m.Winner.Stats, m.Loser.Stats = nil, nil
			}
			if !q.Fields.Has(FieldAge) {
				m.Winner.Age, m.Loser.Age = 0, 0
			}
			if !yield(m, nil) {
				return
			}
		}
	}
}

// Rankings implements RankingSource.
func (s *MemoryStore) Rankings(ctx context.Context, q RankingQuery) iter.Seq2[model.RankingEvent, error] {
	return func(yield func(model.RankingEvent, error) bool) {
		start := time.Now()
		defer func() { metrics.RecordCollaboratorRead("memory", "rankings", time.Since(start)) }()

		s.mu.RLock()
		rankings := s.rankings
		s.mu.RUnlock()

		for i, r := range rankings {
			if i%1024 == 0 {
				if err := ctx.Err(); err != nil {
					yield(model.RankingEvent{}, err)
					return
				}
			}
			y := r.Date.Year()
			if (q.FromYear != 0 && y < q.FromYear) || (q.ToYear != 0 && y > q.ToYear) {
				continue
			}
			if q.MaxRank != 0 && r.Rank > q.MaxRank {
				continue
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}

// Snapshot implements SnapshotStore.
func (s *MemoryStore) Snapshot(ctx context.Context, key snapshot.Key) (*snapshot.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[key.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, key)
	}
	return snap, nil
}

// Lookup implements EntityLookup.
func (s *MemoryStore) Lookup(ctx context.Context, ids []string) (map[string]model.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.Entity, len(ids))
	for _, id := range ids {
		if e, ok := s.players[id]; ok {
			out[id] = e
		}
	}
	return out, nil
}
