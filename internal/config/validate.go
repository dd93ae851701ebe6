package config

import (
	"errors"
	"fmt"

	"histpull/internal/model"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Source.BaseURL == "" {
		return errors.New("source.base_url is required")
	}
	if c.Source.Email == "" {
		return errors.New("source.email is required")
	}
	if c.Source.AccessCode == "" {
		return errors.New("source.access_code is required")
	}
	if c.Source.MaxRetries < 0 {
		return errors.New("source.max_retries must be >= 0")
	}
	if c.Source.RatePerSec <= 0 {
		return errors.New("source.rate_per_sec must be > 0")
	}

	if c.Extract.Instrument == "" {
		return errors.New("extract.instrument is required")
	}
	if _, err := model.ParseDateRange(c.Extract.StartDate, c.Extract.EndDate); err != nil {
		return fmt.Errorf("extract dates: %w", err)
	}

	if c.Fetch.Workers < 0 {
		return errors.New("fetch.workers must be >= 0")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}

	return nil
}

// DateRange returns the validated extraction range.
func (c *Config) DateRange() (model.DateRange, error) {
	return model.ParseDateRange(c.Extract.StartDate, c.Extract.EndDate)
}

func defaultRequiredColumns() []string {
	cols := make([]string, len(model.DefaultRequiredColumns))
	copy(cols, model.DefaultRequiredColumns)
	return cols
}
