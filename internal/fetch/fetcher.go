package fetch

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"histpull/internal/model"
	"histpull/internal/progress"
	"histpull/internal/source"
)

// DayFetcher fetches all rows for one instrument-day.
type DayFetcher interface {
	FetchDay(ctx context.Context, instrument string, day time.Time) ([]model.Record, error)
}

// Config holds fetcher configuration.
type Config struct {
	Workers         int           // Max concurrent day fetches
	DayTimeout      time.Duration // Per-day fetch timeout, including retries
	RequiredColumns []string      // Column order hint for dataset assembly
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:         4,
		DayTimeout:      2 * time.Minute,
		RequiredColumns: model.DefaultRequiredColumns,
	}
}

// Result is the outcome of fetching one segment.
type Result struct {
	Dataset model.Dataset

	// MissingDays lists business days whose fetches failed after retries.
	// The segment is still written without them and checkpointed partial.
	MissingDays []time.Time
}

// Partial reports whether any day had to be skipped.
func (r Result) Partial() bool { return len(r.MissingDays) > 0 }

// Fetcher aggregates one segment's rows from a DayFetcher.
type Fetcher struct {
	cfg      Config
	client   DayFetcher
	reporter progress.Reporter
	logger   *slog.Logger
}

// New creates a Fetcher.
func New(cfg Config, client DayFetcher, reporter progress.Reporter, logger *slog.Logger) *Fetcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if reporter == nil {
		reporter = progress.Nop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{cfg: cfg, client: client, reporter: reporter, logger: logger}
}

// Fetch retrieves every business day of the segment. Per-day failures are
// collected as missing days; only context cancellation and authentication
// failures return an error. Rows come back in calendar order.
func (f *Fetcher) Fetch(ctx context.Context, seg model.Segment) (Result, error) {
	total := len(seg.BusinessDays)
	start := time.Now()

	f.reporter.SegmentStarted(seg, total)

	if total == 0 {
		return Result{}, nil
	}

	// One slot per day keeps calendar order without sorting afterwards.
	days := make([][]model.Record, total)

	var (
		completed atomic.Int64
		missedMu  sync.Mutex
		missed    []time.Time
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Workers)

	for i, day := range seg.BusinessDays {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rows, err := f.fetchDay(gctx, seg.Instrument, day)
			switch {
			case err == nil:
				days[i] = rows
			case source.IsAuthError(err):
				// Cannot be isolated to one day: cancel the group.
				return err
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				f.logger.Warn("day fetch failed, skipping",
					"segment", seg.Key(),
					"date", day.Format(model.DateFormat),
					"err", err,
				)
				missedMu.Lock()
				missed = append(missed, day)
				missedMu.Unlock()
			}

			done := int(completed.Add(1))
			elapsed := time.Since(start)
			f.reporter.DayCompleted(done, total, elapsed, estimateRemaining(elapsed, done, total))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	sort.Slice(missed, func(a, b int) bool { return missed[a].Before(missed[b]) })

	res := Result{
		Dataset:     model.BuildDataset(days, f.cfg.RequiredColumns),
		MissingDays: missed,
	}

	f.logger.Debug("segment fetch complete",
		"segment", seg.Key(),
		"rows", len(res.Dataset.Records),
		"missing_days", len(missed),
		"elapsed", time.Since(start),
	)

	return res, nil
}

// fetchDay runs one day fetch under the per-day timeout.
func (f *Fetcher) fetchDay(ctx context.Context, instrument string, day time.Time) ([]model.Record, error) {
	if f.cfg.DayTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.DayTimeout)
		defer cancel()
	}
	return f.client.FetchDay(ctx, instrument, day)
}

func estimateRemaining(elapsed time.Duration, done, total int) time.Duration {
	if done == 0 || done >= total {
		return 0
	}
	return time.Duration(int64(elapsed) / int64(done) * int64(total-done))
}
