package model

import (
	"fmt"
	"sort"
	"time"
)

// DateFormat is the canonical wire and label format for calendar dates.
const DateFormat = "2006-01-02"

// PeriodFormat is the canonical label format for calendar months.
const PeriodFormat = "2006-01"

// DateRange is an inclusive span of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a DateRange from inclusive start and end dates.
// Both are normalized to midnight UTC. End must not precede start.
func NewDateRange(start, end time.Time) (DateRange, error) {
	s := Midnight(start)
	e := Midnight(end)
	if e.Before(s) {
		return DateRange{}, fmt.Errorf("end date %s precedes start date %s",
			e.Format(DateFormat), s.Format(DateFormat))
	}
	return DateRange{Start: s, End: e}, nil
}

// ParseDateRange parses "YYYY-MM-DD" start and end strings.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateFormat, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("parse start date: %w", err)
	}
	e, err := time.Parse(DateFormat, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("parse end date: %w", err)
	}
	return NewDateRange(s, e)
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d time.Time) bool {
	d = Midnight(d)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Midnight truncates t to midnight UTC.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsBusinessDay reports whether d is a weekday (Monday through Friday).
// Market holidays are not modeled; a holiday fetch simply returns zero rows.
func IsBusinessDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// Segment is one calendar month's worth of business days for one instrument.
// It is the unit of fetch, validation, write, and checkpointing.
type Segment struct {
	Instrument   string
	PeriodLabel  string // "YYYY-MM"
	BusinessDays []time.Time
}

// Key returns the checkpoint key for the segment.
func (s Segment) Key() string {
	return s.Instrument + "_" + s.PeriodLabel
}

// ArtifactName returns the deterministic artifact file name for the segment.
func (s Segment) ArtifactName() string {
	return s.Instrument + "_" + s.PeriodLabel + ".parquet"
}

// Record is one upstream row: column name -> raw value as received.
type Record map[string]string

// Dataset is the date-ordered concatenation of all rows for a segment.
// Columns holds the deterministic column order: required columns first, in
// their configured order, then any extra upstream columns sorted by name.
type Dataset struct {
	Columns []string
	Records []Record
}

// Empty reports whether the dataset holds no rows.
func (d Dataset) Empty() bool { return len(d.Records) == 0 }

// BuildDataset assembles a Dataset from per-day record batches, already in
// calendar order. Extra columns beyond required are preserved.
func BuildDataset(days [][]Record, required []string) Dataset {
	var records []Record
	seen := make(map[string]bool)
	for _, day := range days {
		for _, rec := range day {
			records = append(records, rec)
			for col := range rec {
				seen[col] = true
			}
		}
	}
	if len(records) == 0 {
		return Dataset{}
	}

	columns := make([]string, 0, len(seen))
	for _, col := range required {
		if seen[col] {
			columns = append(columns, col)
			delete(seen, col)
		}
	}
	extras := make([]string, 0, len(seen))
	for col := range seen {
		extras = append(extras, col)
	}
	sort.Strings(extras)
	columns = append(columns, extras...)

	return Dataset{Columns: columns, Records: records}
}

// Status is the terminal checkpoint state of a segment.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusPartial Status = "partial" // written, but with one or more missing days
	StatusFailed  Status = "failed"
)

// DefaultRequiredColumns is the column set every non-empty dataset must carry.
var DefaultRequiredColumns = []string{
	"symbol", "date", "time", "open", "high", "low", "close", "volume", "oi",
}
