package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"histpull/internal/calendar"
	"histpull/internal/model"
	"histpull/internal/progress"
	"histpull/internal/source"
)

// fakeDayFetcher serves canned rows and scripted failures.
type fakeDayFetcher struct {
	mu      sync.Mutex
	calls   int
	failOn  map[string]error // keyed by "YYYY-MM-DD"
	rowsFor func(day time.Time) []model.Record
}

func (f *fakeDayFetcher) FetchDay(ctx context.Context, instrument string, day time.Time) ([]model.Record, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := f.failOn[day.Format(model.DateFormat)]; ok {
		return nil, err
	}
	if f.rowsFor != nil {
		return f.rowsFor(day), nil
	}
	return []model.Record{{"symbol": instrument, "date": day.Format(model.DateFormat), "close": "100"}}, nil
}

func januarySegment(t *testing.T) model.Segment {
	t.Helper()
	r, err := model.ParseDateRange("2023-01-01", "2023-01-31")
	require.NoError(t, err)
	segs := calendar.Segments(r, "nifty")
	require.Len(t, segs, 1)
	return segs[0]
}

func TestFetch_AllDaysInOrder(t *testing.T) {
	seg := januarySegment(t)
	require.Len(t, seg.BusinessDays, 22)

	cfg := DefaultConfig()
	cfg.Workers = 8
	cfg.RequiredColumns = []string{"symbol", "date", "close"}
	f := New(cfg, &fakeDayFetcher{}, nil, nil)

	res, err := f.Fetch(context.Background(), seg)
	require.NoError(t, err)
	assert.False(t, res.Partial())
	require.Len(t, res.Dataset.Records, 22)

	// Calendar order regardless of fetch completion order.
	prev := ""
	for _, rec := range res.Dataset.Records {
		assert.Greater(t, rec["date"], prev)
		prev = rec["date"]
	}
}

func TestFetch_EmptyDaysYieldEmptyDataset(t *testing.T) {
	seg := januarySegment(t)
	fake := &fakeDayFetcher{rowsFor: func(time.Time) []model.Record { return nil }}
	f := New(DefaultConfig(), fake, nil, nil)

	res, err := f.Fetch(context.Background(), seg)
	require.NoError(t, err)
	assert.True(t, res.Dataset.Empty())
	assert.False(t, res.Partial())
}

func TestFetch_FailedDayDegradesToMissing(t *testing.T) {
	seg := januarySegment(t)
	fake := &fakeDayFetcher{failOn: map[string]error{
		"2023-01-04": &source.APIError{StatusCode: 500, Message: "boom"},
		"2023-01-17": errors.New("connection reset"),
	}}
	f := New(DefaultConfig(), fake, nil, nil)

	res, err := f.Fetch(context.Background(), seg)
	require.NoError(t, err)
	assert.True(t, res.Partial())
	require.Len(t, res.MissingDays, 2)
	assert.Equal(t, "2023-01-04", res.MissingDays[0].Format(model.DateFormat))
	assert.Equal(t, "2023-01-17", res.MissingDays[1].Format(model.DateFormat))
	assert.Len(t, res.Dataset.Records, 20)
}

func TestFetch_AuthErrorAbortsSegment(t *testing.T) {
	seg := januarySegment(t)
	fake := &fakeDayFetcher{failOn: map[string]error{
		"2023-01-09": &source.AuthError{Err: errors.New("session expired")},
	}}
	f := New(DefaultConfig(), fake, nil, nil)

	_, err := f.Fetch(context.Background(), seg)
	require.Error(t, err)
	assert.True(t, source.IsAuthError(err))
}

func TestFetch_EmptySegment(t *testing.T) {
	seg := model.Segment{Instrument: "nifty", PeriodLabel: "2023-01"}
	f := New(DefaultConfig(), &fakeDayFetcher{}, nil, nil)

	res, err := f.Fetch(context.Background(), seg)
	require.NoError(t, err)
	assert.True(t, res.Dataset.Empty())
}

type countingReporter struct {
	progress.Reporter
	days atomic.Int32
	last atomic.Int32
}

func (c *countingReporter) DayCompleted(completed, total int, elapsed, remaining time.Duration) {
	c.days.Add(1)
	c.last.Store(int32(total))
}

func TestFetch_ReportsEveryDay(t *testing.T) {
	seg := januarySegment(t)
	rep := &countingReporter{Reporter: progress.Nop()}
	f := New(DefaultConfig(), &fakeDayFetcher{}, rep, nil)

	_, err := f.Fetch(context.Background(), seg)
	require.NoError(t, err)
	assert.Equal(t, int32(22), rep.days.Load())
	assert.Equal(t, int32(22), rep.last.Load())
}

func TestFetch_CancelledContext(t *testing.T) {
	seg := januarySegment(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := New(DefaultConfig(), &fakeDayFetcher{}, nil, nil)
	_, err := f.Fetch(ctx, seg)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEstimateRemaining(t *testing.T) {
	tests := []struct {
		done, total int
		elapsed     time.Duration
		want        time.Duration
	}{
		{0, 10, time.Second, 0},
		{10, 10, time.Minute, 0},
		{5, 10, 50 * time.Second, 50 * time.Second},
		{1, 4, 10 * time.Second, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_of_%d", tt.done, tt.total), func(t *testing.T) {
			assert.Equal(t, tt.want, estimateRemaining(tt.elapsed, tt.done, tt.total))
		})
	}
}
