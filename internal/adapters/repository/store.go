// Package repository defines the collaborator interfaces the records engine
// reads from, and an in-memory implementation backed by a JSON dataset.
package repository

import (
	"context"
	"iter"

	"github.com/okian/recordbook/internal/domain/filter"
	"github.com/okian/recordbook/internal/domain/model"
	"github.com/okian/recordbook/internal/domain/snapshot"
)

// Role selects which side of a match a read is for.
type Role uint8

// Roles. RoleAny returns each match once.
const (
	RoleAny Role = iota
	RoleWinner
	RoleLoser
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleWinner:
		return "winner"
	case RoleLoser:
		return "loser"
	default:
		return "any"
	}
}

// Side maps a concrete role to its match side.
func (r Role) Side() model.Side {
	if r == RoleLoser {
		return model.SideLoser
	}
	return model.SideWinner
}

// Field is a projection bit set over the optional parts of a match.
type Field uint8

// Projectable fields.
const (
	FieldStats Field = 1 << iota
	FieldAge
)

// Has reports whether f includes g.
func (f Field) Has(g Field) bool { return f&g == g }

// MatchQuery narrows a match read. Sources may push the filter down but
// callers re-check every event.
type MatchQuery struct {
	Filter filter.Set
	// Role restricts the read to one side: with RoleWinner or RoleLoser
	// the opponent rank threshold is checked from that side.
	Role   Role
	Fields Field
}

// RankingQuery narrows a ranking read. Zero values are open bounds.
type RankingQuery struct {
	FromYear int
	ToYear   int
	MaxRank  int
}

// MatchSource streams matches in chronological order.
type MatchSource interface {
	Matches(ctx context.Context, q MatchQuery) iter.Seq2[model.MatchEvent, error]
}

// RankingSource streams ranking entries in date order.
type RankingSource interface {
	Rankings(ctx context.Context, q RankingQuery) iter.Seq2[model.RankingEvent, error]
}

// SnapshotStore reads precomputed snapshots. A missing or unreadable
// snapshot is reported as ErrSnapshotNotFound.
type SnapshotStore interface {
	Snapshot(ctx context.Context, key snapshot.Key) (*snapshot.Snapshot, error)
}

// EntityLookup resolves entity metadata. Unknown ids are absent from the
// result.
type EntityLookup interface {
	Lookup(ctx context.Context, ids []string) (map[string]model.Entity, error)
}

// DatasetReporter reports how much data a collaborator serves.
type DatasetReporter interface {
	DatasetStats(ctx context.Context) (Stats, error)
}
