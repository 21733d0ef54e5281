// Package model contains domain models passed between layers.
package model

import "time"

// Outcome describes how a match ended.
type Outcome uint8

// Match outcomes.
const (
	OutcomeCompleted Outcome = iota
	OutcomeRetired
	OutcomeWalkover
	OutcomeDefault
)

// String returns the wire name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeRetired:
		return "retired"
	case OutcomeWalkover:
		return "walkover"
	case OutcomeDefault:
		return "default"
	default:
		return "completed"
	}
}

// ParseOutcome maps a wire name back to an Outcome. Unknown names are completed.
func ParseOutcome(s string) Outcome {
	switch s {
	case "retired", "RET":
		return OutcomeRetired
	case "walkover", "W/O":
		return OutcomeWalkover
	case "default", "DEF":
		return OutcomeDefault
	default:
		return OutcomeCompleted
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(b []byte) error {
	*o = ParseOutcome(string(b))
	return nil
}

// ServeStats holds one participant's serve statistics for a match.
type ServeStats struct {
	Aces             int `json:"aces"`
	DoubleFaults     int `json:"double_faults"`
	ServePoints      int `json:"serve_points"`
	FirstIn          int `json:"first_in"`
	FirstWon         int `json:"first_won"`
	SecondWon        int `json:"second_won"`
	ServiceGames     int `json:"service_games"`
	BreakPointsSaved int `json:"bp_saved"`
	BreakPointsFaced int `json:"bp_faced"`
}

// Participant is one side of a match as recorded at match time.
type Participant struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	CountryCode string      `json:"country_code"`
	Rank        int         `json:"rank,omitempty"` // 0 when unranked
	Seed        int         `json:"seed,omitempty"`
	Entry       string      `json:"entry,omitempty"`
	Age         float64     `json:"age,omitempty"` // fractional years, 0 when unknown
	Stats       *ServeStats `json:"stats,omitempty"`
}

// MatchEvent is one played (or awarded) match.
type MatchEvent struct {
	ID             string      `json:"id"`
	TournamentID   string      `json:"tournament_id"`
	TournamentName string      `json:"tournament_name"`
	Date           time.Time   `json:"date"`
	Surface        Surface     `json:"surface"`
	Level          Level       `json:"level"`
	Round          Round       `json:"round"`
	BestOf         int         `json:"best_of"`
	MatchNum       int         `json:"match_num,omitempty"`
	Winner         Participant `json:"winner"`
	Loser          Participant `json:"loser"`
	Score          string      `json:"score"`
	Outcome        Outcome     `json:"outcome"`
}

// Played reports whether the match was actually contested. Walkovers are not.
func (m *MatchEvent) Played() bool {
	return m.Outcome != OutcomeWalkover
}

// Complete reports whether the match ran its full distance.
func (m *MatchEvent) Complete() bool {
	return m.Outcome == OutcomeCompleted
}

// IsTitle reports whether the match awarded a tournament title to its winner.
func (m *MatchEvent) IsTitle() bool {
	return m.Round == RoundFinal && m.Level != LevelTeam
}

// Side selects a participant slot of a match.
type Side uint8

// Participant slots.
const (
	SideWinner Side = iota
	SideLoser
)

// Player returns the participant on side s.
func (m *MatchEvent) Player(s Side) *Participant {
	if s == SideLoser {
		return &m.Loser
	}
	return &m.Winner
}

// Opponent returns the participant facing side s.
func (m *MatchEvent) Opponent(s Side) *Participant {
	if s == SideLoser {
		return &m.Winner
	}
	return &m.Loser
}

// Before orders matches chronologically: date, then round, then match number.
func (m *MatchEvent) Before(o *MatchEvent) bool {
	if !m.Date.Equal(o.Date) {
		return m.Date.Before(o.Date)
	}
	if m.TournamentID != o.TournamentID {
		return m.TournamentID < o.TournamentID
	}
	if a, b := m.Round.Order(), o.Round.Order(); a != b {
		return a < b
	}
	if m.MatchNum != o.MatchNum {
		return m.MatchNum < o.MatchNum
	}
	return m.ID < o.ID
}

// RankingEvent is one entity's position in a periodic ranking snapshot.
type RankingEvent struct {
	EntityID string    `json:"player_id"`
	Date     time.Time `json:"date"`
	Rank     int       `json:"rank"`
	Points   int       `json:"points"`
}

// Entity is the lookup metadata for a player.
type Entity struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CountryCode string    `json:"country_code"`
	BirthDate   time.Time `json:"birth_date,omitempty"`
}
