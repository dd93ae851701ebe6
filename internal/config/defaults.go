package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = 1 * time.Second
	DefaultRatePerSec   = 5.0
	DefaultRateBurst    = 1
	DefaultOutputDir    = "out"
	DefaultCheckpoint   = "checkpoint.yaml"
	DefaultDayTimeout   = 2 * time.Minute
	DefaultLogLevel     = "info"
)

func (c *Config) applyDefaults() {
	// Source defaults
	if c.Source.Timeout == 0 {
		c.Source.Timeout = DefaultTimeout
	}
	if c.Source.MaxRetries == 0 {
		c.Source.MaxRetries = DefaultMaxRetries
	}
	if c.Source.RetryBackoff == 0 {
		c.Source.RetryBackoff = DefaultRetryBackoff
	}
	if c.Source.RatePerSec == 0 {
		c.Source.RatePerSec = DefaultRatePerSec
	}
	if c.Source.RateBurst == 0 {
		c.Source.RateBurst = DefaultRateBurst
	}

	// Extract defaults
	if len(c.Extract.RequiredColumns) == 0 {
		c.Extract.RequiredColumns = defaultRequiredColumns()
	}

	// Output defaults
	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutputDir
	}

	// Checkpoint defaults
	if c.Checkpoint.Path == "" {
		c.Checkpoint.Path = DefaultCheckpoint
	}

	// Fetch defaults. Workers stays zero so the caller can derive it from
	// host resources.
	if c.Fetch.DayTimeout == 0 {
		c.Fetch.DayTimeout = DefaultDayTimeout
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}
