package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Rendering
	OutputDir   string `env:"BRANDTONE_OUTPUT_DIR"   envDefault:"musicas_geradas"`
	MaxDuration int    `env:"BRANDTONE_MAX_DURATION" envDefault:"30"` // seconds, 0 leaves only the renderer hard limit
	Debug       bool   `env:"BRANDTONE_DEBUG"        envDefault:"false"`

	// Server
	Port int `env:"RADIO_PORT" envDefault:"8080"`

	// Radio behavior
	StartingStation   string        `env:"RADIO_STATION"            envDefault:"lobby"`
	TrackDuration     int           `env:"RADIO_TRACK_DURATION"     envDefault:"30"`  // seconds
	CrossfadeDuration time.Duration `env:"RADIO_CROSSFADE_DURATION" envDefault:"4s"`  // crossfade length
	BufferAhead       int           `env:"RADIO_BUFFER_AHEAD"       envDefault:"2"`   // tracks to pre-render
	DwellMin          int           `env:"RADIO_DWELL_MIN"          envDefault:"300"` // min seconds per station
	DwellMax          int           `env:"RADIO_DWELL_MAX"          envDefault:"900"` // max seconds per station
}

// Load reads configuration from environment variables with sane defaults.
// Malformed values are an error rather than silently ignored.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch {
	case c.MaxDuration < 0:
		return fmt.Errorf("BRANDTONE_MAX_DURATION must be >= 0, got %d", c.MaxDuration)
	case c.TrackDuration <= 0:
		return fmt.Errorf("RADIO_TRACK_DURATION must be > 0, got %d", c.TrackDuration)
	case c.MaxDuration > 0 && c.TrackDuration > c.MaxDuration:
		return fmt.Errorf("RADIO_TRACK_DURATION (%d) exceeds BRANDTONE_MAX_DURATION (%d)", c.TrackDuration, c.MaxDuration)
	case c.BufferAhead < 1:
		return fmt.Errorf("RADIO_BUFFER_AHEAD must be >= 1, got %d", c.BufferAhead)
	case c.DwellMin > c.DwellMax:
		return fmt.Errorf("RADIO_DWELL_MIN (%d) exceeds RADIO_DWELL_MAX (%d)", c.DwellMin, c.DwellMax)
	case c.CrossfadeDuration < 0:
		return fmt.Errorf("RADIO_CROSSFADE_DURATION must be >= 0, got %v", c.CrossfadeDuration)
	}
	return nil
}
