package fixtures

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrInvalidConfig is returned when a generator configuration cannot produce a dataset.
var ErrInvalidConfig = errors.New("invalid fixtures config")

// Config holds configuration for dataset generation.
type Config struct {
	Players              int    // Number of players in the pool
	Seasons              int    // Number of consecutive seasons
	StartYear            int    // First season
	TournamentsPerSeason int    // Tournaments scheduled each season
	DrawSize             int    // Entrants per tournament, a power of two
	Seed                 uint64 // Same seed, same dataset
}

// DefaultConfig returns a small dataset that still exercises every metric.
func DefaultConfig() Config {
	return Config{
		Players:              24,
		Seasons:              4,
		StartYear:            2000,
		TournamentsPerSeason: 8,
		DrawSize:             16,
		Seed:                 1,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.DrawSize < 2 || c.DrawSize > 128 || bits.OnesCount(uint(c.DrawSize)) != 1:
		return fmt.Errorf("%w: draw size %d must be a power of two in [2, 128]", ErrInvalidConfig, c.DrawSize)
	case c.Players < c.DrawSize:
		return fmt.Errorf("%w: %d players cannot fill a draw of %d", ErrInvalidConfig, c.Players, c.DrawSize)
	case c.Seasons < 1:
		return fmt.Errorf("%w: seasons must be positive", ErrInvalidConfig)
	case c.TournamentsPerSeason < 1 || c.TournamentsPerSeason > 40:
		return fmt.Errorf("%w: tournaments per season must be in [1, 40]", ErrInvalidConfig)
	case c.StartYear < 1900 || c.StartYear > 2100:
		return fmt.Errorf("%w: start year %d out of range", ErrInvalidConfig, c.StartYear)
	}
	return nil
}
