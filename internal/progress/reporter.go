package progress

import (
	"log/slog"
	"sync"
	"time"

	"histpull/internal/model"
)

// Reporter receives progress events from the fetcher and orchestrator.
type Reporter interface {
	// SegmentStarted is called once before the first day of a segment is fetched.
	SegmentStarted(seg model.Segment, totalDays int)

	// DayCompleted is called after every day, successful or not.
	DayCompleted(completed, total int, elapsed, remaining time.Duration)

	// SegmentFinished is called with the segment's terminal status.
	SegmentFinished(seg model.Segment, status model.Status, elapsed time.Duration)
}

// Nop returns a Reporter that discards all events.
func Nop() Reporter { return nopReporter{} }

type nopReporter struct{}

func (nopReporter) SegmentStarted(model.Segment, int) {}

func (nopReporter) DayCompleted(int, int, time.Duration, time.Duration) {}

func (nopReporter) SegmentFinished(model.Segment, model.Status, time.Duration) {}

// LogReporter renders progress as structured log lines. Day-level updates are
// throttled to at most one per interval so long segments don't flood the log;
// the final day of a segment always logs.
type LogReporter struct {
	logger   *slog.Logger
	interval time.Duration

	mu         sync.Mutex
	segment    model.Segment
	lastUpdate time.Time
}

// NewLogReporter creates a LogReporter. A zero interval logs every day.
func NewLogReporter(logger *slog.Logger, interval time.Duration) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger, interval: interval}
}

func (r *LogReporter) SegmentStarted(seg model.Segment, totalDays int) {
	r.mu.Lock()
	r.segment = seg
	r.lastUpdate = time.Time{}
	r.mu.Unlock()

	r.logger.Info("fetching segment",
		"segment", seg.Key(),
		"days", totalDays,
	)
}

func (r *LogReporter) DayCompleted(completed, total int, elapsed, remaining time.Duration) {
	r.mu.Lock()
	now := time.Now()
	throttled := completed < total && now.Sub(r.lastUpdate) < r.interval
	if !throttled {
		r.lastUpdate = now
	}
	seg := r.segment
	r.mu.Unlock()

	if throttled {
		return
	}

	r.logger.Info("segment progress",
		"segment", seg.Key(),
		"completed", completed,
		"total", total,
		"elapsed", elapsed.Round(time.Second),
		"remaining", remaining.Round(time.Second),
	)
}

func (r *LogReporter) SegmentFinished(seg model.Segment, status model.Status, elapsed time.Duration) {
	r.logger.Info("segment finished",
		"segment", seg.Key(),
		"status", string(status),
		"elapsed", elapsed.Round(time.Second),
	)
}
