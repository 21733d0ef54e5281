package calculator

import (
	"github.com/okian/recordbook/internal/domain/types"
)

// pairSep joins the two ids of a pair key.
const pairSep = "|"

// PairKey returns the canonical key of an unordered pair and the pair in
// (lower, higher) order.
func PairKey(a, b string) (key, lower, higher string) {
	if b < a {
		a, b = b, a
	}
	return a + pairSep + b, a, b
}

type meeting struct {
	lower, higher         string
	winsLower, winsHigher int
}

// HeadToHead folds matches into one record per unordered pair.
type HeadToHead struct {
	pairs map[string]*meeting
}

// NewHeadToHead creates an empty folder.
func NewHeadToHead() *HeadToHead {
	return &HeadToHead{pairs: make(map[string]*meeting)}
}

// Add records a win of winner over loser.
func (h *HeadToHead) Add(winner, loser string) error {
	if winner == "" || loser == "" {
		return Anomaly(ReasonMissingID, winner+pairSep+loser)
	}
	if winner == loser {
		return Anomaly(ReasonSelfPair, winner)
	}
	key, lower, higher := PairKey(winner, loser)
	m, ok := h.pairs[key]
	if !ok {
		m = &meeting{lower: lower, higher: higher}
		h.pairs[key] = m
	}
	if winner == lower {
		m.winsLower++
	} else {
		m.winsHigher++
	}
	return nil
}

// Record returns the wins of a over b, of b over a, and their total.
func (h *HeadToHead) Record(a, b string) (winsA, winsB, total int) {
	key, lower, _ := PairKey(a, b)
	m, ok := h.pairs[key]
	if !ok {
		return 0, 0, 0
	}
	winsA, winsB = m.winsLower, m.winsHigher
	if a != lower {
		winsA, winsB = winsB, winsA
	}
	return winsA, winsB, winsA + winsB
}

// Rows finalizes one row per pair. The player with more wins is listed
// first; an even record keeps canonical order.
func (h *HeadToHead) Rows() []types.Row {
	var rows []types.Row
	for _, key := range sortedKeys(h.pairs) {
		m := h.pairs[key]
		total := m.winsLower + m.winsHigher
		leader, trailer, most := m.lower, m.higher, m.winsLower
		if m.winsHigher > m.winsLower {
			leader, trailer, most = m.higher, m.lower, m.winsHigher
		}
		rows = append(rows, types.Row{
			Key:      key,
			Entities: []string{leader, trailer},
			Value:    float64(total),
			Tiebreak: float64(most),
			Detail: &types.HeadToHeadDetail{
				Player1:     m.lower,
				Player2:     m.higher,
				WinsPlayer1: m.winsLower,
				WinsPlayer2: m.winsHigher,
				Total:       total,
			},
		})
	}
	return rows
}
