// Package ranking orders finalized rows and truncates them to a top-N.
package ranking

import (
	"strings"

	"github.com/okian/recordbook/internal/domain/types"
)

// Top-N bounds.
const (
	DefaultTop = 100
	MaxTop     = 500
)

// Direction orders one key of the chain.
type Direction int8

// Directions. Skip leaves a key out of the chain.
const (
	Skip Direction = iota
	Descending
	Ascending
)

// Order is a metric's declared sort: the primary value, an optional
// tie-break value, then optionally the display name ascending. The row key
// ascending always closes the chain.
type Order struct {
	Value    Direction
	Tiebreak Direction
	ByName   bool
}

// Entry is one ranked row.
type Entry struct {
	Rank int
	Row  types.Row
}

// Board is an ordered set of rows.
type Board struct {
	order Order
	names map[string]string
	root  *node
}

// NewBoard creates an empty board. names maps entity ids to display names
// for the name tie-break; a missing name sorts as the empty string.
func NewBoard(order Order, names map[string]string) *Board {
	return &Board{order: order, names: names}
}

// Insert adds row to the board.
func (b *Board) Insert(row types.Row) {
	var name string
	if len(row.Entities) > 0 {
		name = b.names[row.Entities[0]]
	}
	b.root = b.insert(b.root, &node{row: row, name: name, prio: priority(row.Key), size: 1})
}

// Len returns the number of rows on the board.
func (b *Board) Len() int {
	return nsize(b.root)
}

// Top returns up to n rows in order with competition ranks: rows with
// equal primary values share a rank and the following rank skips.
func (b *Board) Top(n int) []Entry {
	if n <= 0 {
		return nil
	}
	nodes := make([]*node, 0, min(n, b.Len()))
	collectTop(b.root, n, &nodes)

	out := make([]Entry, len(nodes))
	for i, x := range nodes {
		out[i] = Entry{Rank: i + 1, Row: x.row}
		if i > 0 && x.row.Value == nodes[i-1].row.Value {
			out[i].Rank = out[i-1].Rank
		}
	}
	return out
}

func (b *Board) less(x, y *node) bool {
	if c := compare(b.order.Value, x.row.Value, y.row.Value); c != 0 {
		return c < 0
	}
	if c := compare(b.order.Tiebreak, x.row.Tiebreak, y.row.Tiebreak); c != 0 {
		return c < 0
	}
	if b.order.ByName {
		if c := strings.Compare(x.name, y.name); c != 0 {
			return c < 0
		}
	}
	return x.row.Key < y.row.Key
}

func compare(dir Direction, a, b float64) int {
	switch {
	case dir == Skip || a == b:
		return 0
	case (dir == Descending) == (a > b):
		return -1
	default:
		return 1
	}
}

// Rank orders rows and keeps the first top.
func Rank(rows []types.Row, order Order, names map[string]string, top int) []Entry {
	b := NewBoard(order, names)
	for _, r := range rows {
		b.Insert(r)
	}
	return b.Top(top)
}

// Limit resolves a requested top-N: zero means def, values above ceiling are
// capped, negative values are invalid.
func Limit(top, def, ceiling int) (int, error) {
	switch {
	case top < 0:
		return 0, ErrInvalidLimit
	case top == 0:
		top = def
	}
	if ceiling > 0 && top > ceiling {
		top = ceiling
	}
	return top, nil
}
