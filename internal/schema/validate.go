// Package schema checks aggregated datasets against the required column set
// before they are persisted.
package schema

import (
	"fmt"
	"strings"

	"histpull/internal/model"
)

// MissingColumnsError reports required columns absent from a dataset.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("dataset missing required columns: %s", strings.Join(e.Columns, ", "))
}

// Validate checks that a non-empty dataset carries every required column.
// Empty datasets pass trivially; extra columns are allowed.
func Validate(ds model.Dataset, required []string) error {
	if ds.Empty() {
		return nil
	}

	present := make(map[string]bool, len(ds.Columns))
	for _, col := range ds.Columns {
		present[col] = true
	}

	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}
