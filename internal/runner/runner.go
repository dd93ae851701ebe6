package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"histpull/internal/calendar"
	"histpull/internal/fetch"
	"histpull/internal/model"
	"histpull/internal/progress"
	"histpull/internal/schema"
	"histpull/internal/source"
)

// Authenticator establishes the upstream session before any segment work.
type Authenticator interface {
	Login(ctx context.Context) error
}

// SegmentFetcher aggregates one segment's rows.
type SegmentFetcher interface {
	Fetch(ctx context.Context, seg model.Segment) (fetch.Result, error)
}

// ArtifactWriter persists one segment's dataset.
type ArtifactWriter interface {
	Write(seg model.Segment, ds model.Dataset) (string, error)
}

// CheckpointStore records terminal segment states.
type CheckpointStore interface {
	Lock() error
	Unlock() error
	IsDone(key string) bool
	MarkDone(key string) error
	MarkPartial(key, reason string) error
	MarkFailed(key, reason string) error
}

// Config holds orchestration parameters.
type Config struct {
	Instrument      string
	Range           model.DateRange
	RequiredColumns []string

	// Resume skips segments already checkpointed done. When false every
	// segment is reprocessed, but completions are still recorded.
	Resume bool
}

// Summary is the end-of-run report.
type Summary struct {
	Done    int
	Partial int
	Failed  int
	Skipped int

	// Failures maps segment key to the captured reason.
	Failures map[string]string
}

// Runner wires the pipeline components into the run loop.
type Runner struct {
	cfg      Config
	auth     Authenticator
	fetcher  SegmentFetcher
	writer   ArtifactWriter
	store    CheckpointStore
	reporter progress.Reporter
	logger   *slog.Logger
}

// New creates a Runner.
func New(
	cfg Config,
	auth Authenticator,
	fetcher SegmentFetcher,
	writer ArtifactWriter,
	store CheckpointStore,
	reporter progress.Reporter,
	logger *slog.Logger,
) *Runner {
	if len(cfg.RequiredColumns) == 0 {
		cfg.RequiredColumns = model.DefaultRequiredColumns
	}
	if reporter == nil {
		reporter = progress.Nop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:      cfg,
		auth:     auth,
		fetcher:  fetcher,
		writer:   writer,
		store:    store,
		reporter: reporter,
		logger:   logger,
	}
}

// Run executes the pipeline over every unresumed segment. It returns an
// error only for run-level failures: lock contention, authentication, a
// checkpoint that cannot be persisted, or an interrupt. Per-segment failures
// are isolated and land in the summary.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	summary := Summary{Failures: make(map[string]string)}

	if err := r.store.Lock(); err != nil {
		return summary, err
	}
	defer r.store.Unlock()

	if err := r.auth.Login(ctx); err != nil {
		return summary, fmt.Errorf("login: %w", err)
	}

	segments := calendar.Segments(r.cfg.Range, r.cfg.Instrument)
	r.logger.Info("run starting",
		"instrument", r.cfg.Instrument,
		"from", r.cfg.Range.Start.Format(model.DateFormat),
		"to", r.cfg.Range.End.Format(model.DateFormat),
		"segments", len(segments),
	)

	for _, seg := range segments {
		// Interrupts are honored between segments, never mid-write.
		if err := ctx.Err(); err != nil {
			r.logger.Warn("interrupted, stopping before next segment", "segment", seg.Key())
			return summary, err
		}

		if r.cfg.Resume && r.store.IsDone(seg.Key()) {
			r.logger.Info("segment already done, skipping", "segment", seg.Key())
			summary.Skipped++
			continue
		}

		status, reason, err := r.processSegment(ctx, seg)
		if err != nil {
			return summary, err
		}

		switch status {
		case model.StatusDone:
			summary.Done++
		case model.StatusPartial:
			summary.Partial++
		case model.StatusFailed:
			summary.Failed++
			summary.Failures[seg.Key()] = reason
		}
	}

	r.logger.Info("run complete",
		"done", summary.Done,
		"partial", summary.Partial,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)

	return summary, nil
}

// processSegment drives one segment to a terminal state and checkpoints it.
// The returned error is run-fatal (auth, interrupt, checkpoint persistence);
// segment-level failures come back as StatusFailed with a reason.
func (r *Runner) processSegment(ctx context.Context, seg model.Segment) (model.Status, string, error) {
	start := time.Now()
	log := r.logger.With("segment", seg.Key())

	log.Debug("segment state", "state", "fetching")
	res, err := r.fetcher.Fetch(ctx, seg)
	if err != nil {
		if source.IsAuthError(err) {
			return "", "", fmt.Errorf("fetch %s: %w", seg.Key(), err)
		}
		// Remaining fetch errors are cancellation: stop cleanly with the
		// segment untouched in the checkpoint.
		return "", "", err
	}

	log.Debug("segment state", "state", "validating")
	if err := schema.Validate(res.Dataset, r.cfg.RequiredColumns); err != nil {
		return r.finish(seg, model.StatusFailed, err.Error(), start)
	}

	log.Debug("segment state", "state", "writing")
	if _, err := r.writer.Write(seg, res.Dataset); err != nil {
		return r.finish(seg, model.StatusFailed, err.Error(), start)
	}

	if res.Partial() {
		return r.finish(seg, model.StatusPartial, missingDaysReason(res.MissingDays), start)
	}
	return r.finish(seg, model.StatusDone, "", start)
}

// finish records the terminal state. Checkpoint persistence failures are
// fatal: continuing without durable progress would break resume semantics.
func (r *Runner) finish(seg model.Segment, status model.Status, reason string, start time.Time) (model.Status, string, error) {
	var err error
	switch status {
	case model.StatusDone:
		err = r.store.MarkDone(seg.Key())
	case model.StatusPartial:
		err = r.store.MarkPartial(seg.Key(), reason)
	case model.StatusFailed:
		err = r.store.MarkFailed(seg.Key(), reason)
	}
	if err != nil {
		return "", "", err
	}

	if status == model.StatusFailed {
		r.logger.Error("segment failed", "segment", seg.Key(), "reason", reason)
	}
	r.reporter.SegmentFinished(seg, status, time.Since(start))

	return status, reason, nil
}

func missingDaysReason(days []time.Time) string {
	labels := make([]string, len(days))
	for i, d := range days {
		labels[i] = d.Format(model.DateFormat)
	}
	return fmt.Sprintf("%d missing days: %s", len(days), strings.Join(labels, ", "))
}
