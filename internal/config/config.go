package config

import "time"

// Config is the root configuration for an extraction run.
type Config struct {
	Source     SourceConfig     `yaml:"source"`
	Extract    ExtractConfig    `yaml:"extract"`
	Output     OutputConfig     `yaml:"output"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Log        LogConfig        `yaml:"log"`
}

// SourceConfig holds upstream provider settings.
type SourceConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Email        string        `yaml:"email"`
	AccessCode   string        `yaml:"access_code"` // usually ${HISTPULL_ACCESS_CODE}
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	RatePerSec   float64       `yaml:"rate_per_sec"`
	RateBurst    int           `yaml:"rate_burst"`
}

// ExtractConfig identifies what to extract.
type ExtractConfig struct {
	Instrument      string   `yaml:"instrument"`
	StartDate       string   `yaml:"start_date"` // YYYY-MM-DD, inclusive
	EndDate         string   `yaml:"end_date"`   // YYYY-MM-DD, inclusive
	RequiredColumns []string `yaml:"required_columns"`
}

// OutputConfig holds artifact settings.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// CheckpointConfig holds resume settings.
type CheckpointConfig struct {
	Path string `yaml:"path"`
}

// FetchConfig holds day-level fetch settings.
type FetchConfig struct {
	// Workers bounds concurrent day fetches within a segment.
	// Zero means derive from host cores and memory.
	Workers    int           `yaml:"workers"`
	DayTimeout time.Duration `yaml:"day_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}
