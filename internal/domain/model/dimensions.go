package model

import "strings"

// Surface is the court surface of a match.
type Surface string

// Known surfaces.
const (
	SurfaceHard   Surface = "Hard"
	SurfaceClay   Surface = "Clay"
	SurfaceGrass  Surface = "Grass"
	SurfaceCarpet Surface = "Carpet"
)

// Surfaces lists every known surface.
var Surfaces = []Surface{SurfaceHard, SurfaceClay, SurfaceGrass, SurfaceCarpet}

// ParseSurface canonicalizes s. The second result is false for unknown values.
func ParseSurface(s string) (Surface, bool) {
	for _, v := range Surfaces {
		if strings.EqualFold(string(v), strings.TrimSpace(s)) {
			return v, true
		}
	}
	return "", false
}

// Level is the tournament tier.
type Level string

// Known levels.
const (
	LevelGrandSlam  Level = "G"
	LevelMasters    Level = "M"
	LevelTour       Level = "A"
	LevelFinals     Level = "F"
	LevelChallenger Level = "C"
	LevelOlympics   Level = "O"
	LevelTeam       Level = "D"
)

// Levels lists every known level.
var Levels = []Level{LevelGrandSlam, LevelMasters, LevelTour, LevelFinals, LevelChallenger, LevelOlympics, LevelTeam}

// ParseLevel canonicalizes s. The second result is false for unknown values.
func ParseLevel(s string) (Level, bool) {
	for _, v := range Levels {
		if strings.EqualFold(string(v), strings.TrimSpace(s)) {
			return v, true
		}
	}
	return "", false
}

// Round is the stage of a tournament.
type Round string

// Known rounds, earliest first.
const (
	RoundQ1     Round = "Q1"
	RoundQ2     Round = "Q2"
	RoundQ3     Round = "Q3"
	RoundR128   Round = "R128"
	RoundR64    Round = "R64"
	RoundR32    Round = "R32"
	RoundR16    Round = "R16"
	RoundRR     Round = "RR"
	RoundQF     Round = "QF"
	RoundSF     Round = "SF"
	RoundBronze Round = "BR"
	RoundFinal  Round = "F"
)

// Rounds lists every known round in tournament order.
var Rounds = []Round{RoundQ1, RoundQ2, RoundQ3, RoundR128, RoundR64, RoundR32, RoundR16, RoundRR, RoundQF, RoundSF, RoundBronze, RoundFinal}

// ParseRound canonicalizes s. The second result is false for unknown values.
func ParseRound(s string) (Round, bool) {
	for _, v := range Rounds {
		if strings.EqualFold(string(v), strings.TrimSpace(s)) {
			return v, true
		}
	}
	return "", false
}

// Order returns the position of r in tournament order, or -1 when unknown.
func (r Round) Order() int {
	for i, v := range Rounds {
		if v == r {
			return i
		}
	}
	return -1
}
